package enums

import "fmt"

// UserRole is carried in access-token claims and gates the admin surface.
type UserRole string

const (
	UserRoleMember UserRole = "member"
	UserRoleAdmin  UserRole = "admin"
)

// String implements fmt.Stringer.
func (r UserRole) String() string {
	return string(r)
}

// IsValid reports whether the value is known.
func (r UserRole) IsValid() bool {
	return r == UserRoleMember || r == UserRoleAdmin
}

// ParseUserRole converts raw input into a UserRole.
func ParseUserRole(value string) (UserRole, error) {
	switch UserRole(value) {
	case UserRoleMember:
		return UserRoleMember, nil
	case UserRoleAdmin:
		return UserRoleAdmin, nil
	}
	return "", fmt.Errorf("invalid user role %q", value)
}
