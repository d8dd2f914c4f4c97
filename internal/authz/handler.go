package authz

import (
	"log/slog"
	"net/http"
	"sort"

	"github.com/go-chi/chi/v5"

	"github.com/haulboard/haulboard/internal/platform/httpx"
)

// PermissionsHandler exposes the caller's effective permissions so UI code
// can hide controls the role cannot use. It is a convenience surface only;
// enforcement stays with the gate and Require.
type PermissionsHandler struct {
	logger   *slog.Logger
	registry *Registry
}

// NewPermissionsHandler builds a PermissionsHandler.
func NewPermissionsHandler(logger *slog.Logger, registry *Registry) *PermissionsHandler {
	return &PermissionsHandler{logger: logger, registry: registry}
}

// MountRoutes registers permission routes.
func (h *PermissionsHandler) MountRoutes(r chi.Router) {
	r.Get("/me", h.myPermissions)
}

type myPermissionsResponse struct {
	Role        Role             `json:"role"`
	Label       string           `json:"label"`
	Badge       string           `json:"badge"`
	Permissions []RolePermission `json:"permissions"`
}

func (h *PermissionsHandler) myPermissions(w http.ResponseWriter, r *http.Request) {
	identity := IdentityFromContext(r.Context())
	if identity == nil {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "")
		return
	}
	perms := h.registry.RolePermissions(identity.Role)
	sort.Slice(perms, func(i, j int) bool {
		if perms[i].Resource != perms[j].Resource {
			return perms[i].Resource < perms[j].Resource
		}
		return perms[i].Action < perms[j].Action
	})
	httpx.JSON(w, http.StatusOK, myPermissionsResponse{
		Role:        identity.Role,
		Label:       h.registry.RoleLabel(identity.Role),
		Badge:       h.registry.RoleBadge(identity.Role),
		Permissions: perms,
	})
}
