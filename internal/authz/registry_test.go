package authz_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haulboard/haulboard/internal/authz"
	_ "github.com/haulboard/haulboard/testing"
)

func newRegistry() *authz.Registry {
	return authz.NewRegistry(authz.DefaultConfig())
}

func TestSuperAdminBypassesEveryCheck(t *testing.T) {
	reg := newRegistry()

	assert.True(t, reg.HasPermission(authz.RoleSuperAdmin, authz.ResourceSettings, authz.ActionEdit))
	assert.True(t, reg.HasPermission(authz.RoleSuperAdmin, "nonexistent", "nonexistent"))
	assert.True(t, reg.CanAccessRoute(authz.RoleSuperAdmin, "/settings"))
	assert.True(t, reg.CanAccessRoute(authz.RoleSuperAdmin, "/no/rule/matches/this"))
}

func TestEmptyRoleDeniesEverything(t *testing.T) {
	reg := newRegistry()

	assert.False(t, reg.HasPermission("", authz.ResourceDashboard, authz.ActionView))
	assert.False(t, reg.CanAccessRoute("", "/dashboard"))
	assert.Nil(t, reg.RolePermissions(""))
}

func TestHasPermissionFailsClosedOnMissingEntries(t *testing.T) {
	reg := authz.NewRegistry(authz.Config{
		Matrix: authz.Matrix{
			authz.ResourceClients: {
				authz.ActionView: {authz.RoleViewer},
			},
		},
	})

	assert.True(t, reg.HasPermission(authz.RoleViewer, authz.ResourceClients, authz.ActionView))
	assert.False(t, reg.HasPermission(authz.RoleViewer, authz.ResourceClients, authz.ActionDelete), "missing action must deny")
	assert.False(t, reg.HasPermission(authz.RoleViewer, authz.ResourceInvoices, authz.ActionView), "missing resource must deny")
}

func TestDefaultMatrixGrants(t *testing.T) {
	reg := newRegistry()

	cases := []struct {
		name     string
		role     authz.Role
		resource authz.Resource
		action   authz.Action
		want     bool
	}{
		{"viewer reads clients", authz.RoleViewer, authz.ResourceClients, authz.ActionView, true},
		{"viewer cannot delete clients", authz.RoleViewer, authz.ResourceClients, authz.ActionDelete, false},
		{"viewer cannot see suppliers", authz.RoleViewer, authz.ResourceSuppliers, authz.ActionView, false},
		{"manager creates clients", authz.RoleManager, authz.ResourceClients, authz.ActionCreate, true},
		{"manager cannot create invoices", authz.RoleManager, authz.ResourceInvoices, authz.ActionCreate, false},
		{"manager approves invoices", authz.RoleManager, authz.ResourceInvoices, authz.ActionApprove, true},
		{"accountant creates invoices", authz.RoleAccountant, authz.ResourceInvoices, authz.ActionCreate, true},
		{"accountant cannot approve invoices", authz.RoleAccountant, authz.ResourceInvoices, authz.ActionApprove, false},
		{"accountant exports invoices", authz.RoleAccountant, authz.ResourceInvoices, authz.ActionExport, true},
		{"operator completes services", authz.RoleOperator, authz.ResourceServices, authz.ActionMarkCompleted, true},
		{"operator cannot approve services", authz.RoleOperator, authz.ResourceServices, authz.ActionApprove, false},
		{"operator cannot view invoices", authz.RoleOperator, authz.ResourceInvoices, authz.ActionView, false},
		{"admin manages users", authz.RoleAdmin, authz.ResourceUsers, authz.ActionEdit, true},
		{"manager cannot manage users", authz.RoleManager, authz.ResourceUsers, authz.ActionView, false},
		{"only admin edits settings", authz.RoleManager, authz.ResourceSettings, authz.ActionEdit, false},
		{"admin reads audit logs", authz.RoleAdmin, authz.ResourceAuditLogs, authz.ActionView, true},
		{"accountant cannot read audit logs", authz.RoleAccountant, authz.ResourceAuditLogs, authz.ActionView, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, reg.HasPermission(tc.role, tc.resource, tc.action))
		})
	}
}

func TestRouteRulesFirstMatchWins(t *testing.T) {
	reg := authz.NewRegistry(authz.Config{
		RouteRules: []authz.RouteRule{
			{Prefix: "/services/export", Roles: []authz.Role{authz.RoleAdmin}},
			{Prefix: "/services", Roles: []authz.Role{authz.RoleAdmin, authz.RoleViewer}},
		},
	})

	assert.True(t, reg.CanAccessRoute(authz.RoleViewer, "/services/123"))
	assert.False(t, reg.CanAccessRoute(authz.RoleViewer, "/services/export"), "more specific rule declared first must decide")
	assert.False(t, reg.CanAccessRoute(authz.RoleViewer, "/services/export/csv"))

	rule, ok := reg.MatchRouteRule("/services/export/csv")
	require.True(t, ok)
	assert.Equal(t, "/services/export", rule.Prefix)
}

func TestDefaultRouteRules(t *testing.T) {
	reg := newRegistry()

	assert.True(t, reg.CanAccessRoute(authz.RoleViewer, "/clients"))
	assert.False(t, reg.CanAccessRoute(authz.RoleViewer, "/suppliers"))
	assert.True(t, reg.CanAccessRoute(authz.RoleAccountant, "/invoices/7"))
	assert.False(t, reg.CanAccessRoute(authz.RoleOperator, "/invoices"))
	assert.False(t, reg.CanAccessRoute(authz.RoleOperator, "/settings"))
	assert.False(t, reg.CanAccessRoute(authz.RoleManager, "/users/new"))
	assert.True(t, reg.CanAccessRoute(authz.RoleAdmin, "/audit"))

	// A path no rule covers denies every role short of the bypass.
	assert.False(t, reg.CanAccessRoute(authz.RoleAdmin, "/unmapped"))
}

func TestRolePermissionsEnumeratesGrants(t *testing.T) {
	reg := newRegistry()

	viewer := reg.RolePermissions(authz.RoleViewer)
	require.NotEmpty(t, viewer)
	for _, p := range viewer {
		assert.NotEqual(t, authz.ActionDelete, p.Action, "viewer must have no delete grants")
	}

	admin := reg.RolePermissions(authz.RoleAdmin)
	assert.Greater(t, len(admin), len(viewer))
}

func TestParseRoleNormalizesInput(t *testing.T) {
	assert.Equal(t, authz.RoleAdmin, authz.ParseRole(" Admin "))
	assert.Equal(t, authz.RoleSuperAdmin, authz.ParseRole("SUPER_ADMIN"))
	assert.Equal(t, authz.Role(""), authz.ParseRole("root"))
	assert.Equal(t, authz.Role(""), authz.ParseRole(""))
}
