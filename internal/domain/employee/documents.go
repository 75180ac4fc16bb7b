package employee

import (
	"context"
	"strings"

	"ems/internal/domain/apperror"
	"ems/internal/domain/identity"
)

const MaxFileBytes = 5 * 1024 * 1024

var allowedDocumentTypes = map[string]bool{
	"application/pdf":    true,
	"application/msword": true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
}

func documentNotFound(id int64) error {
	return apperror.NotFound("Document not found with id: %d", id)
}

func ValidateDocument(up Upload) error {
	if len(up.Data) == 0 {
		return apperror.InvalidArgument("File cannot be empty")
	}
	if len(up.Data) > MaxFileBytes {
		return apperror.InvalidArgument("File size exceeds 5MB limit")
	}
	if !allowedDocumentTypes[baseMediaType(up.FileType)] {
		return apperror.InvalidArgument("Invalid file type. Only PDF, DOC, DOCX are allowed")
	}
	return nil
}

func ValidatePhoto(up Upload) error {
	if len(up.Data) == 0 {
		return apperror.InvalidArgument("File cannot be empty")
	}
	if len(up.Data) > MaxFileBytes {
		return apperror.InvalidArgument("File size exceeds 5MB limit")
	}
	if !strings.HasPrefix(baseMediaType(up.FileType), "image/") {
		return apperror.InvalidArgument("Invalid file type. Only images are allowed")
	}
	return nil
}

// baseMediaType drops parameters such as "; charset=binary".
func baseMediaType(value string) string {
	if i := strings.IndexByte(value, ';'); i >= 0 {
		value = value[:i]
	}
	return strings.ToLower(strings.TrimSpace(value))
}

// accessible loads the employee row and checks the caller may see it.
func (s *Service) accessible(ctx context.Context, caller identity.Identity, employeeID int64) (Employee, error) {
	emp, err := s.stores.Employees.Get(ctx, employeeID)
	if err != nil {
		return Employee{}, err
	}
	if err := authorize(caller, emp); err != nil {
		return Employee{}, err
	}
	return emp, nil
}

func (s *Service) UploadDocument(ctx context.Context, caller identity.Identity, employeeID int64, up Upload, documentType string) (Document, error) {
	if err := requireAdmin(caller); err != nil {
		return Document{}, err
	}
	if err := ValidateDocument(up); err != nil {
		return Document{}, err
	}
	var out Document
	err := s.write(ctx, func(ctx context.Context) error {
		if _, err := s.stores.Employees.Get(ctx, employeeID); err != nil {
			return err
		}
		var err error
		out, err = s.stores.Documents.InsertDocument(ctx, employeeID, Document{
			FileName:     up.FileName,
			FileType:     baseMediaType(up.FileType),
			DocumentType: strings.TrimSpace(documentType),
			Data:         up.Data,
		})
		return err
	})
	if err != nil {
		return Document{}, err
	}
	s.record("document.uploaded")
	return out, nil
}

func (s *Service) ListDocuments(ctx context.Context, caller identity.Identity, employeeID int64) ([]Document, error) {
	var out []Document
	err := s.read(ctx, func(ctx context.Context) error {
		if _, err := s.accessible(ctx, caller, employeeID); err != nil {
			return err
		}
		var err error
		out, err = s.stores.Documents.ListDocuments(ctx, employeeID)
		return err
	})
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []Document{}
	}
	return out, nil
}

// GetDocument returns the document including its payload.
func (s *Service) GetDocument(ctx context.Context, caller identity.Identity, employeeID, documentID int64) (Document, error) {
	var out Document
	err := s.read(ctx, func(ctx context.Context) error {
		if _, err := s.accessible(ctx, caller, employeeID); err != nil {
			return err
		}
		var err error
		out, err = s.stores.Documents.GetDocument(ctx, employeeID, documentID)
		return err
	})
	return out, err
}

func (s *Service) DeleteDocument(ctx context.Context, caller identity.Identity, employeeID, documentID int64) error {
	if err := requireAdmin(caller); err != nil {
		return err
	}
	err := s.write(ctx, func(ctx context.Context) error {
		n, err := s.stores.Documents.DeleteDocuments(ctx, employeeID, []int64{documentID})
		if err != nil {
			return err
		}
		if n == 0 {
			return documentNotFound(documentID)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.record("document.deleted")
	return nil
}
