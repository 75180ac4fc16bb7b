package authhandler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"

	"ems/internal/transport/http/api"
	"ems/internal/transport/http/middleware"
	"ems/internal/transport/http/shared"
)

type Handler struct{}

func NewHandler() *Handler {
	return &Handler{}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.With(middleware.RequireAuth).Get("/auth-info", h.handleAuthInfo)
}

type authInfo struct {
	Claims      jwt.MapClaims `json:"claims"`
	Authorities []string      `json:"authorities"`
	EmployeeID  int64         `json:"employeeId,omitempty"`
	IsAdmin     bool          `json:"isAdmin"`
}

// handleAuthInfo echoes the verified token claims and the roles derived
// from them.
func (h *Handler) handleAuthInfo(w http.ResponseWriter, r *http.Request) {
	caller, ok := shared.Caller(w, r)
	if !ok {
		return
	}
	claims, _ := middleware.GetClaims(r.Context())
	if claims == nil {
		claims = jwt.MapClaims{}
	}
	authorities := make([]string, 0, len(caller.Roles))
	for _, role := range caller.Roles {
		authorities = append(authorities, "ROLE_"+role)
	}
	api.Success(w, authInfo{
		Claims:      claims,
		Authorities: authorities,
		EmployeeID:  caller.EmployeeID,
		IsAdmin:     caller.IsAdmin,
	}, middleware.GetRequestID(r.Context()))
}
