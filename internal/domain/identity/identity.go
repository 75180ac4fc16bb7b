// Package identity turns verified bearer-token claims into the caller value
// passed explicitly into every domain operation.
package identity

import "strings"

const RoleAdmin = "admin"

// Identity is the resolved caller. EmployeeID is 0 when no employee record
// matches the caller's email.
type Identity struct {
	Subject    string   `json:"subject"`
	Email      string   `json:"email"`
	Roles      []string `json:"roles"`
	IsAdmin    bool     `json:"isAdmin"`
	EmployeeID int64    `json:"employeeId,omitempty"`
}

func (i Identity) HasRole(role string) bool {
	for _, r := range i.Roles {
		if strings.EqualFold(r, role) {
			return true
		}
	}
	return false
}

// HasAnyRole always passes for admins.
func (i Identity) HasAnyRole(roles ...string) bool {
	if i.IsAdmin {
		return true
	}
	for _, role := range roles {
		if i.HasRole(role) {
			return true
		}
	}
	return false
}

// CanAccessEmployee reports whether the caller may read the employee record
// holding the given email addresses.
func (i Identity) CanAccessEmployee(email, personalEmail string) bool {
	if i.IsAdmin {
		return true
	}
	if i.Email == "" {
		return false
	}
	return strings.EqualFold(i.Email, email) || (personalEmail != "" && strings.EqualFold(i.Email, personalEmail))
}

// Owns reports whether employeeID is the caller's own record.
func (i Identity) Owns(employeeID int64) bool {
	return i.EmployeeID != 0 && i.EmployeeID == employeeID
}

func IsAdmin(roles []string) bool {
	for _, r := range roles {
		if strings.EqualFold(r, RoleAdmin) {
			return true
		}
	}
	return false
}
