package authz

import "strings"

// Role is the authority class assigned to a user account. The set is fixed
// at build time; role changes happen through user management, never within
// a session.
type Role string

const (
	RoleSuperAdmin Role = "super_admin"
	RoleAdmin      Role = "admin"
	RoleManager    Role = "manager"
	RoleAccountant Role = "accountant"
	RoleOperator   Role = "operator"
	RoleViewer     Role = "viewer"
)

// Roles lists every known role. RoleSuperAdmin bypasses all checks and is
// intentionally listed first.
func Roles() []Role {
	return []Role{RoleSuperAdmin, RoleAdmin, RoleManager, RoleAccountant, RoleOperator, RoleViewer}
}

// ParseRole normalizes a stored role value. Unknown values map to the empty
// role, which every check treats as unauthenticated.
func ParseRole(raw string) Role {
	switch Role(strings.TrimSpace(strings.ToLower(raw))) {
	case RoleSuperAdmin:
		return RoleSuperAdmin
	case RoleAdmin:
		return RoleAdmin
	case RoleManager:
		return RoleManager
	case RoleAccountant:
		return RoleAccountant
	case RoleOperator:
		return RoleOperator
	case RoleViewer:
		return RoleViewer
	default:
		return ""
	}
}

// Resource names a protected domain object class.
type Resource string

const (
	ResourceDashboard Resource = "dashboard"
	ResourceClients   Resource = "clients"
	ResourceSuppliers Resource = "suppliers"
	ResourceServices  Resource = "services"
	ResourceInvoices  Resource = "invoices"
	ResourceUsers     Resource = "users"
	ResourceSettings  Resource = "settings"
	ResourceAuditLogs Resource = "audit_logs"
	ResourceReports   Resource = "reports"
)

// Action names an operation class performable on a resource.
type Action string

const (
	ActionView          Action = "view"
	ActionCreate        Action = "create"
	ActionEdit          Action = "edit"
	ActionDelete        Action = "delete"
	ActionExport        Action = "export"
	ActionApprove       Action = "approve"
	ActionMarkCompleted Action = "mark_completed"
)

// Identity describes the authenticated actor as resolved from the session.
type Identity struct {
	ID    int64
	Email string
	Role  Role
}
