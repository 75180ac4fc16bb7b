package employee

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"

	"ems/internal/platform/db"
)

func (s *Store) ListDocuments(ctx context.Context, employeeID int64) ([]Document, error) {
	rows, err := s.q(ctx).Query(ctx, `
    SELECT id, version, employee_id, file_name, file_type, file_size, COALESCE(document_type, ''), created_at
    FROM documents
    WHERE employee_id = $1
    ORDER BY id
  `, employeeID)
	if err != nil {
		return nil, errors.Wrap(err, "list documents")
	}
	defer rows.Close()

	out := []Document{}
	for rows.Next() {
		var doc Document
		var version int64
		if err := rows.Scan(&doc.ID, &version, &doc.EmployeeID, &doc.FileName, &doc.FileType, &doc.FileSize, &doc.DocumentType, &doc.CreatedAt); err != nil {
			return nil, errors.Wrap(err, "scan document")
		}
		doc.Version = &version
		out = append(out, doc)
	}
	return out, rows.Err()
}

// GetDocument returns the document with its decrypted payload.
func (s *Store) GetDocument(ctx context.Context, employeeID, documentID int64) (Document, error) {
	var doc Document
	var version int64
	var stored []byte
	err := s.q(ctx).QueryRow(ctx, `
    SELECT id, version, employee_id, file_name, file_type, file_size, COALESCE(document_type, ''), created_at, data
    FROM documents
    WHERE id = $1 AND employee_id = $2
  `, documentID, employeeID).Scan(&doc.ID, &version, &doc.EmployeeID, &doc.FileName, &doc.FileType, &doc.FileSize, &doc.DocumentType, &doc.CreatedAt, &stored)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Document{}, documentNotFound(documentID)
		}
		return Document{}, errors.Wrap(err, "get document")
	}
	doc.Version = &version
	if doc.Data, err = s.Crypto.Open(stored); err != nil {
		return Document{}, errors.Wrapf(err, "open document %d", documentID)
	}
	return doc, nil
}

func (s *Store) InsertDocument(ctx context.Context, employeeID int64, doc Document) (Document, error) {
	sealed, err := s.Crypto.Seal(doc.Data)
	if err != nil {
		return Document{}, errors.Wrap(err, "seal document")
	}
	var version int64
	err = s.q(ctx).QueryRow(ctx, `
    INSERT INTO documents (employee_id, file_name, file_type, file_size, data, document_type, version)
    VALUES ($1, $2, $3, $4, $5, $6, 0)
    RETURNING id, version, created_at
  `, employeeID, doc.FileName, doc.FileType, int64(len(doc.Data)), sealed, nullIfEmpty(doc.DocumentType)).Scan(&doc.ID, &version, &doc.CreatedAt)
	if err != nil {
		return Document{}, db.Translate(err, "insert document", "")
	}
	doc.EmployeeID = employeeID
	doc.FileSize = int64(len(doc.Data))
	doc.Version = &version
	return doc, nil
}

// UpdateDocumentMeta changes only the document type, guarded by version.
func (s *Store) UpdateDocumentMeta(ctx context.Context, employeeID int64, doc Document) (Document, error) {
	var version int64
	err := s.q(ctx).QueryRow(ctx, `
    UPDATE documents
    SET document_type = $4, version = version + 1
    WHERE id = $1 AND employee_id = $2 AND version = $3
    RETURNING version
  `, doc.ID, employeeID, expected(doc.Version), nullIfEmpty(doc.DocumentType)).Scan(&version)
	if err != nil {
		return Document{}, versionMiss(err, "document", doc.ID)
	}
	doc.Version = &version
	return doc, nil
}

func (s *Store) DeleteDocuments(ctx context.Context, employeeID int64, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	tag, err := s.q(ctx).Exec(ctx, `DELETE FROM documents WHERE employee_id = $1 AND id = ANY($2)`, employeeID, ids)
	if err != nil {
		return 0, errors.Wrap(err, "delete documents")
	}
	return tag.RowsAffected(), nil
}

func (s *Store) DeleteAllDocuments(ctx context.Context, employeeID int64) error {
	_, err := s.q(ctx).Exec(ctx, `DELETE FROM documents WHERE employee_id = $1`, employeeID)
	return errors.Wrap(err, "delete employee documents")
}

func (s *Store) GetPhoto(ctx context.Context, employeeID int64) (*ProfilePhoto, error) {
	var photo ProfilePhoto
	var stored []byte
	err := s.q(ctx).QueryRow(ctx, `
    SELECT id, employee_id, file_name, file_type, file_size, data
    FROM profile_photos
    WHERE employee_id = $1
  `, employeeID).Scan(&photo.ID, &photo.EmployeeID, &photo.FileName, &photo.FileType, &photo.FileSize, &stored)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "get profile photo")
	}
	if photo.Data, err = s.Crypto.Open(stored); err != nil {
		return nil, errors.Wrapf(err, "open profile photo of employee %d", employeeID)
	}
	return &photo, nil
}

// ReplacePhoto removes any current photo before storing the new one, so an
// employee never has more than one.
func (s *Store) ReplacePhoto(ctx context.Context, employeeID int64, photo ProfilePhoto) (ProfilePhoto, error) {
	if _, err := s.DeletePhoto(ctx, employeeID); err != nil {
		return ProfilePhoto{}, err
	}
	sealed, err := s.Crypto.Seal(photo.Data)
	if err != nil {
		return ProfilePhoto{}, errors.Wrap(err, "seal profile photo")
	}
	photo.EmployeeID = employeeID
	photo.FileSize = int64(len(photo.Data))
	err = s.q(ctx).QueryRow(ctx, `
    INSERT INTO profile_photos (employee_id, file_name, file_type, file_size, data)
    VALUES ($1, $2, $3, $4, $5)
    RETURNING id
  `, employeeID, photo.FileName, photo.FileType, photo.FileSize, sealed).Scan(&photo.ID)
	if err != nil {
		return ProfilePhoto{}, db.Translate(err, "insert profile photo", "")
	}
	return photo, nil
}

func (s *Store) DeletePhoto(ctx context.Context, employeeID int64) (bool, error) {
	tag, err := s.q(ctx).Exec(ctx, `DELETE FROM profile_photos WHERE employee_id = $1`, employeeID)
	if err != nil {
		return false, errors.Wrap(err, "delete profile photo")
	}
	return tag.RowsAffected() > 0, nil
}
