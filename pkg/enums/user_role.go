package enums

import "fmt"

// UserRole maps to the user_role enum in Postgres.
type UserRole string

const (
	UserRoleFarmer     UserRole = "farmer"
	UserRoleCustomer   UserRole = "customer"
	UserRoleHubManager UserRole = "hub_manager"
	UserRoleSupplier   UserRole = "supplier"
	UserRoleAdmin      UserRole = "admin"
)

var validUserRoles = []UserRole{
	UserRoleFarmer,
	UserRoleCustomer,
	UserRoleHubManager,
	UserRoleSupplier,
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

// CanSell reports whether the role may create product listings.
func (r UserRole) CanSell() bool {
	return r == UserRoleFarmer || r == UserRoleSupplier
}

// ParseUserRole converts raw input into a UserRole.
func ParseUserRole(value string) (UserRole, error) {
	for _, candidate := range validUserRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid user role %q", value)
}
