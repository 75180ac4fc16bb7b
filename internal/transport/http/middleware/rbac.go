package middleware

import (
	"net/http"

	"ems/internal/domain/identity"
	"ems/internal/transport/http/api"
)

// RequireAnyRole admits authenticated callers holding one of roles. Admins
// always pass; no roles means any authenticated caller.
func RequireAnyRole(roles ...string) func(http.Handler) http.Handler {
	return requireIdentity(func(id identity.Identity) bool {
		return len(roles) == 0 || id.HasAnyRole(roles...)
	}, "insufficient permissions")
}

func RequireAdmin(next http.Handler) http.Handler {
	return requireIdentity(func(id identity.Identity) bool {
		return id.IsAdmin
	}, "admin access required")(next)
}

// RequireAuth rejects anonymous requests.
func RequireAuth(next http.Handler) http.Handler {
	return RequireAnyRole()(next)
}

func requireIdentity(allowed func(identity.Identity) bool, denied string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := GetIdentity(r.Context())
			if !ok {
				api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", GetRequestID(r.Context()))
				return
			}
			if !allowed(id) {
				api.Fail(w, http.StatusForbidden, "forbidden", denied, GetRequestID(r.Context()))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
