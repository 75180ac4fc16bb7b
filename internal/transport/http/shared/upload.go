package shared

import (
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"ems/internal/domain/apperror"
	"ems/internal/domain/employee"
)

// genericTypes are sniff results too vague to override what the client
// declared. Office documents can sniff as zip or OLE containers.
var genericTypes = map[string]bool{
	"application/octet-stream":  true,
	"application/zip":           true,
	"application/x-ole-storage": true,
	"text/plain":                true,
}

// ReadUpload reads one multipart file field. The content type comes from
// sniffing the bytes unless the result is generic, in which case the
// declared part header wins.
func ReadUpload(r *http.Request, field string, maxBytes int64) (employee.Upload, error) {
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return employee.Upload{}, apperror.InvalidArgument("File size exceeds 5MB limit")
		}
		return employee.Upload{}, apperror.InvalidArgument("invalid multipart payload")
	}
	file, header, err := r.FormFile(field)
	if err != nil {
		return employee.Upload{}, apperror.InvalidArgument("File cannot be empty")
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxBytes+1))
	if err != nil {
		return employee.Upload{}, apperror.New(apperror.ErrInternal, "failed to read upload")
	}

	fileType := strings.TrimSpace(header.Header.Get("Content-Type"))
	if len(data) > 0 {
		detected := mimetype.Detect(data)
		base, _, _ := strings.Cut(detected.String(), ";")
		if !genericTypes[base] || fileType == "" {
			fileType = base
		}
	}
	return employee.Upload{
		FileName: SanitizeFileName(header.Filename),
		FileType: fileType,
		Data:     data,
	}, nil
}

// SanitizeFileName strips directories and characters that would break a
// Content-Disposition header.
func SanitizeFileName(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.Map(func(r rune) rune {
		switch {
		case r < 0x20, r == '"', r == ';', r == 0x7f:
			return -1
		}
		return r
	}, name)
	if name == "" || name == "." || name == "/" {
		return "upload"
	}
	return name
}
