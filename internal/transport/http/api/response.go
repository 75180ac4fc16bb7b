package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"ems/internal/domain/apperror"
)

type Error struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Status    int    `json:"status"`
	Timestamp string `json:"timestamp"`
	Details   any    `json:"details,omitempty"`
}

type Envelope struct {
	Success   bool   `json:"success"`
	Data      any    `json:"data,omitempty"`
	Error     *Error `json:"error,omitempty"`
	RequestID string `json:"requestId,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, payload Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Warn("write json failed", "err", err)
	}
}

func Success(w http.ResponseWriter, data any, requestID string) {
	WriteJSON(w, http.StatusOK, Envelope{Success: true, Data: data, RequestID: requestID})
}

func Created(w http.ResponseWriter, data any, requestID string) {
	WriteJSON(w, http.StatusCreated, Envelope{Success: true, Data: data, RequestID: requestID})
}

func Fail(w http.ResponseWriter, status int, code, message, requestID string) {
	FailWithDetails(w, status, code, message, nil, requestID)
}

func FailWithDetails(w http.ResponseWriter, status int, code, message string, details any, requestID string) {
	WriteJSON(w, status, Envelope{
		Success: false,
		Error: &Error{
			Code:      code,
			Message:   message,
			Status:    status,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Details:   details,
		},
		RequestID: requestID,
	})
}

type kindStatus struct {
	status int
	code   string
}

var statusByKind = map[error]kindStatus{
	apperror.ErrNotFound:            {http.StatusNotFound, "not_found"},
	apperror.ErrDuplicateValue:      {http.StatusConflict, "duplicate_value"},
	apperror.ErrConflict:            {http.StatusConflict, "conflict"},
	apperror.ErrConcurrencyConflict: {http.StatusConflict, "concurrency_conflict"},
	apperror.ErrInvalidArgument:     {http.StatusBadRequest, "invalid_argument"},
	apperror.ErrInvalidState:        {http.StatusUnprocessableEntity, "invalid_state"},
	apperror.ErrUnauthorized:        {http.StatusUnauthorized, "unauthorized"},
	apperror.ErrForbidden:           {http.StatusForbidden, "forbidden"},
	apperror.ErrInternal:            {http.StatusInternalServerError, "internal_error"},
}

// StatusOf maps an error to its HTTP status and error code.
func StatusOf(err error) (int, string) {
	ks := statusByKind[apperror.KindOf(err)]
	return ks.status, ks.code
}

// WriteError reports err using its kind. Unclassified errors are logged and
// answered with a generic 500.
func WriteError(w http.ResponseWriter, err error, requestID string) {
	status, code := StatusOf(err)
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		Fail(w, http.StatusRequestEntityTooLarge, "payload_too_large", "request body too large", requestID)
		return
	}
	if status == http.StatusInternalServerError {
		slog.Error("request failed", "err", err, "requestId", requestID)
	}
	Fail(w, status, code, apperror.MessageOf(err), requestID)
}
