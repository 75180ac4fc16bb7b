package identity

import (
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"ems/internal/domain/apperror"
)

const DefaultNamespace = "https://api.employeemanagement.com/"

// Claims is the subset of token claims identity resolution reads.
type Claims struct {
	Subject         string
	Email           string
	NamespacedEmail string
	Roles           []string
}

func ClaimsFromMap(m jwt.MapClaims, namespace string) Claims {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	c := Claims{
		Subject:         stringClaim(m, "sub"),
		Email:           stringClaim(m, "email"),
		NamespacedEmail: stringClaim(m, namespace+"user_email"),
	}
	c.Roles = stringsClaim(m, namespace+"roles")
	if len(c.Roles) == 0 {
		c.Roles = stringsClaim(m, "roles")
	}
	return c
}

// ResolveEmail walks the fallback chain: email, namespaced user_email, then
// a subject carrying an address, with any "provider|" prefix removed.
func ResolveEmail(c Claims) (string, error) {
	if email := strings.TrimSpace(c.Email); email != "" {
		return email, nil
	}
	if email := strings.TrimSpace(c.NamespacedEmail); email != "" {
		return email, nil
	}
	subject := strings.TrimSpace(c.Subject)
	if strings.Contains(subject, "@") {
		// "auth0|a@b.c" resolves to "a@b.c" so it matches the stored address.
		if _, rest, found := strings.Cut(subject, "|"); found && strings.Contains(rest, "@") {
			return rest, nil
		}
		return subject, nil
	}
	return "", apperror.Unauthorized("Unable to identify user - no email available in token")
}

func stringClaim(m jwt.MapClaims, key string) string {
	value, _ := m[key].(string)
	return value
}

func stringsClaim(m jwt.MapClaims, key string) []string {
	switch v := m[key].(type) {
	case string:
		if v == "" {
			return nil
		}
		return []string{v}
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
