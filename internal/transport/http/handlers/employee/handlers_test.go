package employeehandler

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"ems/internal/domain/apperror"
	"ems/internal/domain/audit"
	"ems/internal/domain/employee"
	"ems/internal/domain/identity"
	"ems/internal/transport/http/middleware"
)

type fakeService struct {
	EmployeeService
	photo       *employee.ProfilePhoto
	upload      employee.Upload
	docType     string
	updatedWith *employee.Input
}

func (f *fakeService) Get(_ context.Context, _ identity.Identity, id int64) (employee.Employee, error) {
	if id == 404 {
		return employee.Employee{}, apperror.NotFound("Employee not found with id: %d", id)
	}
	return employee.Employee{ID: id, FirstName: "Ada"}, nil
}

func (f *fakeService) Update(_ context.Context, _ identity.Identity, id int64, in employee.Input) (employee.Employee, error) {
	f.updatedWith = &in
	return employee.Employee{ID: id, FirstName: *in.FirstName}, nil
}

func (f *fakeService) ExportPDF(context.Context, identity.Identity, int64) ([]byte, error) {
	return []byte("%PDF-1.3 fake"), nil
}

func (f *fakeService) UploadDocument(_ context.Context, _ identity.Identity, employeeID int64, up employee.Upload, documentType string) (employee.Document, error) {
	f.upload, f.docType = up, documentType
	return employee.Document{ID: 11, EmployeeID: employeeID, FileName: up.FileName, FileType: up.FileType, DocumentType: documentType}, nil
}

func (f *fakeService) GetPhoto(context.Context, identity.Identity, int64) (*employee.ProfilePhoto, error) {
	return f.photo, nil
}

func (f *fakeService) DeletePhoto(context.Context, identity.Identity, int64) (bool, error) {
	return f.photo != nil, nil
}

type fakeAudit struct{ entries []audit.Entry }

func (f *fakeAudit) Record(_ context.Context, e audit.Entry) error {
	f.entries = append(f.entries, e)
	return nil
}

var (
	admin = identity.Identity{Email: "root@example.com", Roles: []string{"admin"}, IsAdmin: true}
	ada   = identity.Identity{Email: "ada@example.com", Roles: []string{"user"}, EmployeeID: 7}
)

func serve(h *Handler, caller identity.Identity, req *http.Request) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(middleware.WithIdentity(req.Context(), caller)))
		})
	})
	h.RegisterRoutes(r)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestMutationsRequireAdmin(t *testing.T) {
	h := NewHandler(&fakeService{}, nil, 0)
	req := httptest.NewRequest(http.MethodPost, "/employees", strings.NewReader(`{"firstName":"A"}`))
	if rec := serve(h, ada, req); rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
	req = httptest.NewRequest(http.MethodDelete, "/employees/7/profile-photo", nil)
	if rec := serve(h, ada, req); rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

func TestUpdateAuditsBeforeAndAfter(t *testing.T) {
	svc := &fakeService{}
	auditor := &fakeAudit{}
	h := NewHandler(svc, auditor, 0)
	req := httptest.NewRequest(http.MethodPut, "/employees/7", strings.NewReader(`{"firstName":"Grace"}`))
	rec := serve(h, admin, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.updatedWith == nil || svc.updatedWith.LastName != nil {
		t.Fatalf("expected a partial input, got %+v", svc.updatedWith)
	}
	if len(auditor.entries) != 1 {
		t.Fatalf("expected one audit entry, got %d", len(auditor.entries))
	}
	entry := auditor.entries[0]
	before, _ := entry.Before.(employee.Employee)
	after, _ := entry.After.(employee.Employee)
	if entry.Action != "employee.update" || before.FirstName != "Ada" || after.FirstName != "Grace" {
		t.Fatalf("unexpected audit entry %+v", entry)
	}
}

func TestUpdateMissingEmployeeIsNotFound(t *testing.T) {
	h := NewHandler(&fakeService{}, nil, 0)
	req := httptest.NewRequest(http.MethodPut, "/employees/404", strings.NewReader(`{"firstName":"Grace"}`))
	if rec := serve(h, admin, req); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestExportPDFIsAttachment(t *testing.T) {
	h := NewHandler(&fakeService{}, nil, 0)
	rec := serve(h, ada, httptest.NewRequest(http.MethodGet, "/employees/7/pdf", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := rec.Header().Get("Content-Disposition"); got != `attachment; filename="employee_7.pdf"` {
		t.Fatalf("unexpected disposition %q", got)
	}
	if rec.Header().Get("Content-Type") != "application/pdf" {
		t.Fatalf("unexpected content type %q", rec.Header().Get("Content-Type"))
	}
}

func TestUploadDocumentReadsMultipart(t *testing.T) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if err := mw.WriteField("documentType", "RESUME"); err != nil {
		t.Fatalf("write field: %v", err)
	}
	part, err := mw.CreateFormFile("file", "cv.pdf")
	if err != nil {
		t.Fatalf("create file: %v", err)
	}
	if _, err := io.WriteString(part, "%PDF-1.4\nbody"); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/employees/7/documents", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	svc := &fakeService{}
	auditor := &fakeAudit{}
	rec := serve(NewHandler(svc, auditor, 1<<20), admin, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.docType != "RESUME" || svc.upload.FileType != "application/pdf" || svc.upload.FileName != "cv.pdf" {
		t.Fatalf("unexpected upload %q %q %q", svc.docType, svc.upload.FileType, svc.upload.FileName)
	}
	if len(auditor.entries) != 1 || auditor.entries[0].Action != "document.upload" {
		t.Fatalf("unexpected audit entries %+v", auditor.entries)
	}
}

func TestGetPhotoHeaders(t *testing.T) {
	svc := &fakeService{}
	h := NewHandler(svc, nil, 0)
	if rec := serve(h, ada, httptest.NewRequest(http.MethodGet, "/employees/7/profile-photo", nil)); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 without a photo, got %d", rec.Code)
	}

	svc.photo = &employee.ProfilePhoto{ID: 3, EmployeeID: 7, FileName: "me.png", FileType: "image/png", FileSize: 4, Data: []byte{1, 2, 3, 4}}
	rec := serve(h, ada, httptest.NewRequest(http.MethodGet, "/employees/7/profile-photo", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	want := map[string]string{
		"Content-Type": "image/png",
		"X-Photo-Id":   "3",
		"X-File-Name":  "me.png",
		"X-File-Type":  "image/png",
		"X-File-Size":  "4",
	}
	for header, value := range want {
		if got := rec.Header().Get(header); got != value {
			t.Fatalf("%s: expected %q, got %q", header, value, got)
		}
	}
	if !bytes.Equal(rec.Body.Bytes(), svc.photo.Data) {
		t.Fatalf("unexpected body %v", rec.Body.Bytes())
	}
}

func TestDeletePhotoIsIdempotent(t *testing.T) {
	auditor := &fakeAudit{}
	h := NewHandler(&fakeService{}, auditor, 0)
	rec := serve(h, admin, httptest.NewRequest(http.MethodDelete, "/employees/7/profile-photo", nil))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if len(auditor.entries) != 0 {
		t.Fatal("nothing was removed, so nothing should be audited")
	}
}
