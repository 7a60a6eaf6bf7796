package enums

type UserRole string

const (
	UserRoleAdmin     UserRole = "admin"
	UserRoleOperator  UserRole = "operator"
	UserRoleWarehouse UserRole = "warehouse"
)

var validUserRoles = []UserRole{UserRoleAdmin, UserRoleOperator, UserRoleWarehouse}

func (r UserRole) String() string { return string(r) }

func (r UserRole) IsValid() bool { return contains(validUserRoles, r) }

func ParseUserRole(value string) (UserRole, error) {
	return parse(validUserRoles, value, "user role")
}

// CanManageTenant reports whether the role may change channels, billing and
// the buyer blacklist. Every role may adjust stock.
func (r UserRole) CanManageTenant() bool {
	return r == UserRoleAdmin || r == UserRoleOperator
}

type UserStatus string

const (
	UserStatusActive   UserStatus = "active"
	UserStatusDisabled UserStatus = "disabled"
)

func (s UserStatus) String() string { return string(s) }

type TenantStatus string

const (
	TenantStatusActive    TenantStatus = "active"
	TenantStatusSuspended TenantStatus = "suspended"
)

func (s TenantStatus) String() string { return string(s) }
