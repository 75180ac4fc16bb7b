package employeehandler

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"ems/internal/domain/employee"
	"ems/internal/domain/identity"
	"ems/internal/transport/http/api"
	"ems/internal/transport/http/middleware"
	"ems/internal/transport/http/shared"
)

const defaultUploadBytes = 6 << 20

type EmployeeService interface {
	Create(ctx context.Context, caller identity.Identity, in employee.Input) (employee.Employee, error)
	Get(ctx context.Context, caller identity.Identity, id int64) (employee.Employee, error)
	List(ctx context.Context, caller identity.Identity, page employee.Page) ([]employee.Employee, error)
	Update(ctx context.Context, caller identity.Identity, id int64, in employee.Input) (employee.Employee, error)
	Delete(ctx context.Context, caller identity.Identity, id int64) (employee.Employee, error)
	ExportPDF(ctx context.Context, caller identity.Identity, id int64) ([]byte, error)

	UploadDocument(ctx context.Context, caller identity.Identity, employeeID int64, up employee.Upload, documentType string) (employee.Document, error)
	ListDocuments(ctx context.Context, caller identity.Identity, employeeID int64) ([]employee.Document, error)
	GetDocument(ctx context.Context, caller identity.Identity, employeeID, documentID int64) (employee.Document, error)
	DeleteDocument(ctx context.Context, caller identity.Identity, employeeID, documentID int64) error

	UploadPhoto(ctx context.Context, caller identity.Identity, employeeID int64, up employee.Upload) (employee.ProfilePhoto, error)
	GetPhoto(ctx context.Context, caller identity.Identity, employeeID int64) (*employee.ProfilePhoto, error)
	DeletePhoto(ctx context.Context, caller identity.Identity, employeeID int64) (bool, error)
}

type Handler struct {
	Service        EmployeeService
	Audit          shared.AuditRecorder
	MaxUploadBytes int64
}

func NewHandler(service EmployeeService, auditor shared.AuditRecorder, maxUploadBytes int64) *Handler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = defaultUploadBytes
	}
	return &Handler{Service: service, Audit: auditor, MaxUploadBytes: maxUploadBytes}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/employees", func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Get("/", h.handleList)
		r.With(middleware.RequireAdmin).Post("/", h.handleCreate)
		r.Get("/{id}", h.handleGet)
		r.With(middleware.RequireAdmin).Put("/{id}", h.handleUpdate)
		r.With(middleware.RequireAdmin).Delete("/{id}", h.handleDelete)
		r.Get("/{id}/pdf", h.handleExportPDF)

		r.Get("/{id}/documents", h.handleListDocuments)
		r.With(middleware.RequireAdmin).Post("/{id}/documents", h.handleUploadDocument)
		r.Get("/{id}/documents/{documentId}", h.handleDownloadDocument)
		r.With(middleware.RequireAdmin).Delete("/{id}/documents/{documentId}", h.handleDeleteDocument)

		r.Get("/{id}/profile-photo", h.handleGetPhoto)
		r.With(middleware.RequireAdmin).Post("/{id}/profile-photo", h.handleUploadPhoto)
		r.With(middleware.RequireAdmin).Delete("/{id}/profile-photo", h.handleDeletePhoto)
	})
}

func employeeID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := shared.PathID(r, "id")
	if err != nil {
		api.WriteError(w, err, middleware.GetRequestID(r.Context()))
		return 0, false
	}
	return id, true
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	caller, ok := shared.Caller(w, r)
	if !ok {
		return
	}
	requestID := middleware.GetRequestID(r.Context())
	page := shared.ParsePagination(r, shared.DefaultPageSize, shared.MaxPageSize)
	employees, err := h.Service.List(r.Context(), caller, employee.Page{Limit: page.Limit, Offset: page.Offset})
	if err != nil {
		api.WriteError(w, err, requestID)
		return
	}
	api.Success(w, employees, requestID)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	caller, ok := shared.Caller(w, r)
	if !ok {
		return
	}
	requestID := middleware.GetRequestID(r.Context())
	var payload employee.Input
	if !shared.DecodeJSON(w, r, &payload, requestID) {
		return
	}
	created, err := h.Service.Create(r.Context(), caller, payload)
	if err != nil {
		api.WriteError(w, err, requestID)
		return
	}
	shared.RecordAudit(r, h.Audit, caller, "employee.create", "employee", created.ID, nil, created)
	api.Created(w, created, requestID)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	caller, ok := shared.Caller(w, r)
	if !ok {
		return
	}
	id, ok := employeeID(w, r)
	if !ok {
		return
	}
	requestID := middleware.GetRequestID(r.Context())
	emp, err := h.Service.Get(r.Context(), caller, id)
	if err != nil {
		api.WriteError(w, err, requestID)
		return
	}
	api.Success(w, emp, requestID)
}

// handleUpdate reads the current record first so the audit event carries
// the state the update replaced.
func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	caller, ok := shared.Caller(w, r)
	if !ok {
		return
	}
	id, ok := employeeID(w, r)
	if !ok {
		return
	}
	requestID := middleware.GetRequestID(r.Context())
	var payload employee.Input
	if !shared.DecodeJSON(w, r, &payload, requestID) {
		return
	}
	before, err := h.Service.Get(r.Context(), caller, id)
	if err != nil {
		api.WriteError(w, err, requestID)
		return
	}
	updated, err := h.Service.Update(r.Context(), caller, id, payload)
	if err != nil {
		api.WriteError(w, err, requestID)
		return
	}
	shared.RecordAudit(r, h.Audit, caller, "employee.update", "employee", id, before, updated)
	api.Success(w, updated, requestID)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	caller, ok := shared.Caller(w, r)
	if !ok {
		return
	}
	id, ok := employeeID(w, r)
	if !ok {
		return
	}
	before, err := h.Service.Delete(r.Context(), caller, id)
	if err != nil {
		api.WriteError(w, err, middleware.GetRequestID(r.Context()))
		return
	}
	shared.RecordAudit(r, h.Audit, caller, "employee.delete", "employee", id, before, nil)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleExportPDF(w http.ResponseWriter, r *http.Request) {
	caller, ok := shared.Caller(w, r)
	if !ok {
		return
	}
	id, ok := employeeID(w, r)
	if !ok {
		return
	}
	pdf, err := h.Service.ExportPDF(r.Context(), caller, id)
	if err != nil {
		api.WriteError(w, err, middleware.GetRequestID(r.Context()))
		return
	}
	writeBinary(w, "application/pdf", fmt.Sprintf("employee_%d.pdf", id), pdf)
}

func (h *Handler) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	caller, ok := shared.Caller(w, r)
	if !ok {
		return
	}
	id, ok := employeeID(w, r)
	if !ok {
		return
	}
	requestID := middleware.GetRequestID(r.Context())
	docs, err := h.Service.ListDocuments(r.Context(), caller, id)
	if err != nil {
		api.WriteError(w, err, requestID)
		return
	}
	api.Success(w, docs, requestID)
}

func (h *Handler) handleUploadDocument(w http.ResponseWriter, r *http.Request) {
	caller, ok := shared.Caller(w, r)
	if !ok {
		return
	}
	id, ok := employeeID(w, r)
	if !ok {
		return
	}
	requestID := middleware.GetRequestID(r.Context())
	up, err := shared.ReadUpload(r, "file", h.MaxUploadBytes)
	if err != nil {
		api.WriteError(w, err, requestID)
		return
	}
	doc, err := h.Service.UploadDocument(r.Context(), caller, id, up, r.FormValue("documentType"))
	if err != nil {
		api.WriteError(w, err, requestID)
		return
	}
	shared.RecordAudit(r, h.Audit, caller, "document.upload", "employee", id, nil, doc)
	api.Created(w, doc, requestID)
}

func (h *Handler) handleDownloadDocument(w http.ResponseWriter, r *http.Request) {
	caller, ok := shared.Caller(w, r)
	if !ok {
		return
	}
	id, ok := employeeID(w, r)
	if !ok {
		return
	}
	requestID := middleware.GetRequestID(r.Context())
	documentID, err := shared.PathID(r, "documentId")
	if err != nil {
		api.WriteError(w, err, requestID)
		return
	}
	doc, err := h.Service.GetDocument(r.Context(), caller, id, documentID)
	if err != nil {
		api.WriteError(w, err, requestID)
		return
	}
	writeBinary(w, doc.FileType, doc.FileName, doc.Data)
}

func (h *Handler) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	caller, ok := shared.Caller(w, r)
	if !ok {
		return
	}
	id, ok := employeeID(w, r)
	if !ok {
		return
	}
	requestID := middleware.GetRequestID(r.Context())
	documentID, err := shared.PathID(r, "documentId")
	if err != nil {
		api.WriteError(w, err, requestID)
		return
	}
	if err := h.Service.DeleteDocument(r.Context(), caller, id, documentID); err != nil {
		api.WriteError(w, err, requestID)
		return
	}
	shared.RecordAudit(r, h.Audit, caller, "document.delete", "employee", id, map[string]int64{"documentId": documentID}, nil)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleUploadPhoto(w http.ResponseWriter, r *http.Request) {
	caller, ok := shared.Caller(w, r)
	if !ok {
		return
	}
	id, ok := employeeID(w, r)
	if !ok {
		return
	}
	requestID := middleware.GetRequestID(r.Context())
	up, err := shared.ReadUpload(r, "file", h.MaxUploadBytes)
	if err != nil {
		api.WriteError(w, err, requestID)
		return
	}
	photo, err := h.Service.UploadPhoto(r.Context(), caller, id, up)
	if err != nil {
		api.WriteError(w, err, requestID)
		return
	}
	shared.RecordAudit(r, h.Audit, caller, "photo.upload", "employee", id, nil, photo)
	api.Success(w, photo, requestID)
}

// handleGetPhoto returns the raw image with its metadata in X- headers.
func (h *Handler) handleGetPhoto(w http.ResponseWriter, r *http.Request) {
	caller, ok := shared.Caller(w, r)
	if !ok {
		return
	}
	id, ok := employeeID(w, r)
	if !ok {
		return
	}
	requestID := middleware.GetRequestID(r.Context())
	photo, err := h.Service.GetPhoto(r.Context(), caller, id)
	if err != nil {
		api.WriteError(w, err, requestID)
		return
	}
	if photo == nil {
		api.Fail(w, http.StatusNotFound, "not_found", "Profile photo not found", requestID)
		return
	}
	w.Header().Set("Content-Type", photo.FileType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", shared.SanitizeFileName(photo.FileName)))
	w.Header().Set("Content-Length", strconv.FormatInt(int64(len(photo.Data)), 10))
	w.Header().Set("X-Photo-Id", strconv.FormatInt(photo.ID, 10))
	w.Header().Set("X-File-Name", shared.SanitizeFileName(photo.FileName))
	w.Header().Set("X-File-Type", photo.FileType)
	w.Header().Set("X-File-Size", strconv.FormatInt(photo.FileSize, 10))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(photo.Data); err != nil {
		slog.Warn("write photo failed", "err", err)
	}
}

func (h *Handler) handleDeletePhoto(w http.ResponseWriter, r *http.Request) {
	caller, ok := shared.Caller(w, r)
	if !ok {
		return
	}
	id, ok := employeeID(w, r)
	if !ok {
		return
	}
	requestID := middleware.GetRequestID(r.Context())
	removed, err := h.Service.DeletePhoto(r.Context(), caller, id)
	if err != nil {
		api.WriteError(w, err, requestID)
		return
	}
	if removed {
		shared.RecordAudit(r, h.Audit, caller, "photo.delete", "employee", id, nil, nil)
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeBinary(w http.ResponseWriter, contentType, fileName string, data []byte) {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", shared.SanitizeFileName(fileName)))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		slog.Warn("write download failed", "err", err)
	}
}
