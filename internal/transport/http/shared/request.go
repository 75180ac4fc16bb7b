package shared

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"ems/internal/domain/audit"
	"ems/internal/domain/identity"
	"ems/internal/transport/http/api"
	"ems/internal/transport/http/middleware"
)

// Caller returns the authenticated identity, or writes a 401 and reports
// false.
func Caller(w http.ResponseWriter, r *http.Request) (identity.Identity, bool) {
	id, ok := middleware.GetIdentity(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return identity.Identity{}, false
	}
	return id, true
}

type AuditRecorder interface {
	Record(ctx context.Context, e audit.Entry) error
}

// RecordAudit stores an audit event for the current request. A failure is
// logged and does not fail the request.
func RecordAudit(r *http.Request, rec AuditRecorder, caller identity.Identity, action, entityType string, entityID int64, before, after any) {
	if rec == nil {
		return
	}
	entry := audit.Entry{
		ActorEmail: caller.Email,
		Action:     action,
		EntityType: entityType,
		EntityID:   strconv.FormatInt(entityID, 10),
		RequestID:  middleware.GetRequestID(r.Context()),
		IP:         middleware.ClientIP(r),
		Before:     before,
		After:      after,
	}
	if err := rec.Record(r.Context(), entry); err != nil {
		slog.Warn("audit "+action+" failed", "err", err)
	}
}
