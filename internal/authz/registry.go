package authz

import "strings"

// Registry answers authorization queries against an injected Config. Every
// method is pure, safe for unbounded concurrent use, and fails closed: any
// missing or malformed input yields a deny (or fallback label), never a
// panic.
type Registry struct {
	cfg Config
}

// NewRegistry wraps a Config. Callers hand in DefaultConfig in production
// and fixture tables in tests.
func NewRegistry(cfg Config) *Registry {
	return &Registry{cfg: cfg}
}

// RolePermission pairs a resource with an action for introspection.
type RolePermission struct {
	Resource Resource `json:"resource"`
	Action   Action   `json:"action"`
}

// HasPermission reports whether the role may perform action on resource.
// The empty role always denies; RoleSuperAdmin always allows.
func (reg *Registry) HasPermission(role Role, resource Resource, action Action) bool {
	if role == "" {
		return false
	}
	if role == RoleSuperAdmin {
		return true
	}
	actions, ok := reg.cfg.Matrix[resource]
	if !ok {
		return false
	}
	allowed, ok := actions[action]
	if !ok {
		return false
	}
	return containsRole(allowed, role)
}

// CanAccessRoute reports whether the role may access the given path. Rules
// are scanned in declaration order; the first rule whose prefix matches the
// path decides. No matching rule denies.
func (reg *Registry) CanAccessRoute(role Role, path string) bool {
	if role == "" {
		return false
	}
	if role == RoleSuperAdmin {
		return true
	}
	for _, rule := range reg.cfg.RouteRules {
		if strings.HasPrefix(path, rule.Prefix) {
			return containsRole(rule.Roles, role)
		}
	}
	return false
}

// MatchRouteRule returns the first rule whose prefix matches path, if any.
// The gate uses it to distinguish "rule matched and denied" from "no rule".
func (reg *Registry) MatchRouteRule(path string) (RouteRule, bool) {
	for _, rule := range reg.cfg.RouteRules {
		if strings.HasPrefix(path, rule.Prefix) {
			return rule, true
		}
	}
	return RouteRule{}, false
}

// RolePermissions enumerates every matrix entry granted to the role. It
// exists for UI introspection; gating decisions always go through
// HasPermission so there is a single source of truth.
func (reg *Registry) RolePermissions(role Role) []RolePermission {
	if role == "" {
		return nil
	}
	var perms []RolePermission
	for resource, actions := range reg.cfg.Matrix {
		for action, allowed := range actions {
			if role == RoleSuperAdmin || containsRole(allowed, role) {
				perms = append(perms, RolePermission{Resource: resource, Action: action})
			}
		}
	}
	return perms
}

// RoleLabel returns a human readable role name.
func (reg *Registry) RoleLabel(role Role) string {
	switch role {
	case RoleSuperAdmin:
		return "Super Admin"
	case RoleAdmin:
		return "Administrator"
	case RoleManager:
		return "Manager"
	case RoleAccountant:
		return "Accountant"
	case RoleOperator:
		return "Operator"
	case RoleViewer:
		return "Viewer"
	default:
		return "Unknown"
	}
}

// RoleBadge returns the visual style key used by templates for role chips.
func (reg *Registry) RoleBadge(role Role) string {
	switch role {
	case RoleSuperAdmin:
		return "badge-purple"
	case RoleAdmin:
		return "badge-red"
	case RoleManager:
		return "badge-blue"
	case RoleAccountant:
		return "badge-green"
	case RoleOperator:
		return "badge-amber"
	case RoleViewer:
		return "badge-gray"
	default:
		return "badge-gray"
	}
}

func containsRole(roles []Role, role Role) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}
