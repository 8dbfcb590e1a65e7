package enums

import (
	"fmt"
	"strings"
)

// UserRole is the "Tipo de Usuário" value stored with each account.
type UserRole string

const (
	UserRoleUser  UserRole = "Usuário"
	UserRoleAdmin UserRole = "Administrador"
)

var validUserRoles = []UserRole{
	UserRoleUser,
	UserRoleAdmin,
}

// String implements fmt.Stringer.
func (r UserRole) String() string {
	return string(r)
}

// IsValid reports whether the value is a known UserRole.
func (r UserRole) IsValid() bool {
	for _, candidate := range validUserRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// IsAdmin reports whether the role sees and edits every row.
func (r UserRole) IsAdmin() bool {
	return r == UserRoleAdmin
}

// ParseUserRole converts raw input into a UserRole. Surrounding spaces are ignored.
func ParseUserRole(value string) (UserRole, error) {
	value = strings.TrimSpace(value)
	for _, candidate := range validUserRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid user role %q", value)
}
