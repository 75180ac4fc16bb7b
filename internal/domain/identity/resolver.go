package identity

import (
	"context"
	"errors"

	"github.com/golang-jwt/jwt/v5"

	"ems/internal/domain/apperror"
)

// EmployeeLookup finds the employee whose email or personal email matches.
// It returns an apperror.ErrNotFound kind when nothing matches.
type EmployeeLookup interface {
	EmployeeIDByEmail(ctx context.Context, email string) (int64, error)
}

type Resolver struct {
	lookup    EmployeeLookup
	namespace string
}

func NewResolver(lookup EmployeeLookup, namespace string) *Resolver {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	return &Resolver{lookup: lookup, namespace: namespace}
}

func (r *Resolver) Resolve(ctx context.Context, raw jwt.MapClaims) (Identity, error) {
	claims := ClaimsFromMap(raw, r.namespace)
	email, err := ResolveEmail(claims)
	if err != nil {
		return Identity{}, err
	}
	id := Identity{
		Subject: claims.Subject,
		Email:   email,
		Roles:   claims.Roles,
		IsAdmin: IsAdmin(claims.Roles),
	}
	if r.lookup == nil {
		return id, nil
	}
	employeeID, err := r.lookup.EmployeeIDByEmail(ctx, email)
	switch {
	case err == nil:
		id.EmployeeID = employeeID
	case errors.Is(err, apperror.ErrNotFound):
	default:
		return Identity{}, err
	}
	return id, nil
}

// RequireEmployeeID returns the caller's employee id or NotFound when the
// caller has no employee record.
func (i Identity) RequireEmployeeID() (int64, error) {
	if i.EmployeeID == 0 {
		return 0, apperror.NotFound("Employee not found for email: %s", i.Email)
	}
	return i.EmployeeID, nil
}
