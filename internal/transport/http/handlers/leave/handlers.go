package leavehandler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"ems/internal/domain/identity"
	"ems/internal/domain/leave"
	"ems/internal/transport/http/api"
	"ems/internal/transport/http/middleware"
	"ems/internal/transport/http/shared"
)

type LeaveService interface {
	Apply(ctx context.Context, caller identity.Identity, app leave.Application) (leave.Leave, error)
	Get(ctx context.Context, caller identity.Identity, id int64) (leave.Leave, error)
	ListByEmployee(ctx context.Context, caller identity.Identity, employeeID int64) ([]leave.Leave, error)
	Pending(ctx context.Context, caller identity.Identity) ([]leave.Leave, error)
	PendingCount(ctx context.Context, caller identity.Identity) (int64, error)
	UpdateStatus(ctx context.Context, caller identity.Identity, id int64, status leave.Status, reason string) (before, after leave.Leave, err error)
	Cancel(ctx context.Context, caller identity.Identity, id int64) (leave.Leave, error)
}

type Handler struct {
	Service LeaveService
	Audit   shared.AuditRecorder
}

func NewHandler(service LeaveService, auditor shared.AuditRecorder) *Handler {
	return &Handler{Service: service, Audit: auditor}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/leaves", func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Post("/", h.handleApply)
		r.Get("/employee/{employeeId}", h.handleListByEmployee)
		r.With(middleware.RequireAdmin).Get("/pending", h.handlePending)
		r.With(middleware.RequireAdmin).Get("/pending/count", h.handlePendingCount)
		r.Get("/{leaveId}", h.handleGet)
		r.With(middleware.RequireAdmin).Put("/{leaveId}/status", h.handleUpdateStatus)
		r.Put("/{leaveId}/cancel", h.handleCancel)
	})
}

func (h *Handler) handleApply(w http.ResponseWriter, r *http.Request) {
	caller, ok := shared.Caller(w, r)
	if !ok {
		return
	}
	requestID := middleware.GetRequestID(r.Context())
	var payload leave.Application
	if !shared.DecodeJSON(w, r, &payload, requestID) {
		return
	}
	created, err := h.Service.Apply(r.Context(), caller, payload)
	if err != nil {
		api.WriteError(w, err, requestID)
		return
	}
	api.Created(w, created, requestID)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	caller, ok := shared.Caller(w, r)
	if !ok {
		return
	}
	requestID := middleware.GetRequestID(r.Context())
	id, err := shared.PathID(r, "leaveId")
	if err != nil {
		api.WriteError(w, err, requestID)
		return
	}
	l, err := h.Service.Get(r.Context(), caller, id)
	if err != nil {
		api.WriteError(w, err, requestID)
		return
	}
	api.Success(w, l, requestID)
}

func (h *Handler) handleListByEmployee(w http.ResponseWriter, r *http.Request) {
	caller, ok := shared.Caller(w, r)
	if !ok {
		return
	}
	requestID := middleware.GetRequestID(r.Context())
	employeeID, err := shared.PathID(r, "employeeId")
	if err != nil {
		api.WriteError(w, err, requestID)
		return
	}
	leaves, err := h.Service.ListByEmployee(r.Context(), caller, employeeID)
	if err != nil {
		api.WriteError(w, err, requestID)
		return
	}
	api.Success(w, leaves, requestID)
}

func (h *Handler) handlePending(w http.ResponseWriter, r *http.Request) {
	caller, ok := shared.Caller(w, r)
	if !ok {
		return
	}
	requestID := middleware.GetRequestID(r.Context())
	leaves, err := h.Service.Pending(r.Context(), caller)
	if err != nil {
		api.WriteError(w, err, requestID)
		return
	}
	api.Success(w, leaves, requestID)
}

func (h *Handler) handlePendingCount(w http.ResponseWriter, r *http.Request) {
	caller, ok := shared.Caller(w, r)
	if !ok {
		return
	}
	requestID := middleware.GetRequestID(r.Context())
	count, err := h.Service.PendingCount(r.Context(), caller)
	if err != nil {
		api.WriteError(w, err, requestID)
		return
	}
	api.Success(w, map[string]int64{"count": count}, requestID)
}

// handleUpdateStatus reads status and reason from the query string.
func (h *Handler) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	caller, ok := shared.Caller(w, r)
	if !ok {
		return
	}
	requestID := middleware.GetRequestID(r.Context())
	id, err := shared.PathID(r, "leaveId")
	if err != nil {
		api.WriteError(w, err, requestID)
		return
	}
	status, err := leave.ParseStatus(r.URL.Query().Get("status"))
	if err != nil {
		api.WriteError(w, err, requestID)
		return
	}
	before, after, err := h.Service.UpdateStatus(r.Context(), caller, id, status, r.URL.Query().Get("reason"))
	if err != nil {
		api.WriteError(w, err, requestID)
		return
	}
	shared.RecordAudit(r, h.Audit, caller, "leave.status", "leave", id, before, after)
	api.Success(w, after, requestID)
}

func (h *Handler) handleCancel(w http.ResponseWriter, r *http.Request) {
	caller, ok := shared.Caller(w, r)
	if !ok {
		return
	}
	requestID := middleware.GetRequestID(r.Context())
	id, err := shared.PathID(r, "leaveId")
	if err != nil {
		api.WriteError(w, err, requestID)
		return
	}
	cancelled, err := h.Service.Cancel(r.Context(), caller, id)
	if err != nil {
		api.WriteError(w, err, requestID)
		return
	}
	api.Success(w, cancelled, requestID)
}
