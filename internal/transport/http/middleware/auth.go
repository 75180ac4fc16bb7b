package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"ems/internal/domain/apperror"
	"ems/internal/domain/identity"
	"ems/internal/transport/http/api"
)

type ctxKey string

const (
	ctxKeyIdentity ctxKey = "identity"
	ctxKeyClaims   ctxKey = "claims"
)

type TokenVerifier interface {
	Verify(token string) (jwt.MapClaims, error)
}

type ClaimsResolver interface {
	Resolve(ctx context.Context, claims jwt.MapClaims) (identity.Identity, error)
}

// Authenticate resolves a bearer token into the caller identity. Requests
// without an Authorization header pass through anonymously; a header that
// does not verify is rejected with 401.
func Authenticate(verifier TokenVerifier, resolver ClaimsResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				next.ServeHTTP(w, r)
				return
			}
			parts := strings.Fields(authHeader)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				api.Fail(w, http.StatusUnauthorized, "unauthorized", "malformed authorization header", GetRequestID(r.Context()))
				return
			}

			claims, err := verifier.Verify(parts[1])
			if err != nil {
				api.Fail(w, http.StatusUnauthorized, "unauthorized", "invalid or expired token", GetRequestID(r.Context()))
				return
			}
			id, err := resolver.Resolve(r.Context(), claims)
			if err != nil {
				if !errors.Is(err, apperror.ErrUnauthorized) {
					slog.Warn("identity resolution failed", "err", err)
				}
				api.WriteError(w, err, GetRequestID(r.Context()))
				return
			}
			ctx := context.WithValue(r.Context(), ctxKeyClaims, claims)
			next.ServeHTTP(w, r.WithContext(WithIdentity(ctx, id)))
		})
	}
}

func WithIdentity(ctx context.Context, id identity.Identity) context.Context {
	return context.WithValue(ctx, ctxKeyIdentity, id)
}

func GetIdentity(ctx context.Context) (identity.Identity, bool) {
	id, ok := ctx.Value(ctxKeyIdentity).(identity.Identity)
	return id, ok
}

// GetClaims returns the verified token claims of the current request.
func GetClaims(ctx context.Context) (jwt.MapClaims, bool) {
	claims, ok := ctx.Value(ctxKeyClaims).(jwt.MapClaims)
	return claims, ok
}
