package authz

// Matrix maps resource and action to the set of roles allowed to perform
// that action. Entries absent at either level deny everything except the
// super admin bypass.
type Matrix map[Resource]map[Action][]Role

// RouteRule grants access to every path beginning with Prefix. Rules are
// evaluated in declaration order and the first matching prefix wins, so
// more specific prefixes must be declared before broader ones.
type RouteRule struct {
	Prefix string
	Roles  []Role
}

// Config carries the static authorization tables. It is built once at
// startup and injected into the Registry; nothing mutates it afterwards.
type Config struct {
	Matrix     Matrix
	RouteRules []RouteRule
}

// DefaultConfig returns the production permission tables.
func DefaultConfig() Config {
	return Config{
		Matrix:     DefaultMatrix(),
		RouteRules: DefaultRouteRules(),
	}
}

// DefaultMatrix defines who may do what. RoleSuperAdmin is deliberately
// absent everywhere; the bypass in the Registry covers it.
func DefaultMatrix() Matrix {
	allStaff := []Role{RoleAdmin, RoleManager, RoleAccountant, RoleOperator, RoleViewer}
	operations := []Role{RoleAdmin, RoleManager, RoleOperator}
	management := []Role{RoleAdmin, RoleManager}
	finance := []Role{RoleAdmin, RoleAccountant}
	reporting := []Role{RoleAdmin, RoleManager, RoleAccountant}

	return Matrix{
		ResourceDashboard: {
			ActionView: allStaff,
		},
		ResourceClients: {
			ActionView:   allStaff,
			ActionCreate: management,
			ActionEdit:   management,
			ActionDelete: []Role{RoleAdmin},
		},
		ResourceSuppliers: {
			ActionView:   []Role{RoleAdmin, RoleManager, RoleAccountant, RoleOperator},
			ActionCreate: management,
			ActionEdit:   management,
			ActionDelete: []Role{RoleAdmin},
		},
		ResourceServices: {
			ActionView:          allStaff,
			ActionCreate:        operations,
			ActionEdit:          operations,
			ActionDelete:        management,
			ActionApprove:       management,
			ActionMarkCompleted: operations,
		},
		ResourceInvoices: {
			ActionView:    reporting,
			ActionCreate:  finance,
			ActionEdit:    finance,
			ActionDelete:  []Role{RoleAdmin},
			ActionExport:  finance,
			ActionApprove: management,
		},
		ResourceUsers: {
			ActionView:   []Role{RoleAdmin},
			ActionCreate: []Role{RoleAdmin},
			ActionEdit:   []Role{RoleAdmin},
			ActionDelete: []Role{RoleAdmin},
		},
		ResourceSettings: {
			ActionView: []Role{RoleAdmin},
			ActionEdit: []Role{RoleAdmin},
		},
		ResourceAuditLogs: {
			ActionView:   []Role{RoleAdmin},
			ActionExport: []Role{RoleAdmin},
		},
		ResourceReports: {
			ActionView:   reporting,
			ActionExport: reporting,
		},
	}
}

// DefaultRouteRules maps URL prefixes to the roles allowed under them.
// Order matters: the gate picks the first rule whose prefix matches.
func DefaultRouteRules() []RouteRule {
	allStaff := []Role{RoleAdmin, RoleManager, RoleAccountant, RoleOperator, RoleViewer}
	reporting := []Role{RoleAdmin, RoleManager, RoleAccountant}

	return []RouteRule{
		{Prefix: "/settings", Roles: []Role{RoleAdmin}},
		{Prefix: "/users", Roles: []Role{RoleAdmin}},
		{Prefix: "/audit", Roles: []Role{RoleAdmin}},
		{Prefix: "/jobs", Roles: []Role{RoleAdmin}},
		{Prefix: "/invoices", Roles: reporting},
		{Prefix: "/reports", Roles: reporting},
		{Prefix: "/suppliers", Roles: []Role{RoleAdmin, RoleManager, RoleAccountant, RoleOperator}},
		{Prefix: "/clients", Roles: allStaff},
		{Prefix: "/services", Roles: allStaff},
		{Prefix: "/dashboard", Roles: allStaff},
	}
}
