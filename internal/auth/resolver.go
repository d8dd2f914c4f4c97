package auth

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/haulboard/haulboard/internal/authz"
	"github.com/haulboard/haulboard/internal/shared"
)

// Resolver adapts the session store into the gate's IdentityResolver. The
// user record is loaded per request so role changes and deactivation take
// effect without waiting for the session to expire.
type Resolver struct {
	service *Service
}

// NewResolver constructs a Resolver.
func NewResolver(service *Service) *Resolver {
	return &Resolver{service: service}
}

// Resolve returns the identity behind the request session, nil when the
// request carries no authenticated session.
func (rs *Resolver) Resolve(ctx context.Context, r *http.Request) (*authz.Identity, error) {
	sess := shared.SessionFromContext(ctx)
	if sess == nil || sess.User() == "" {
		return nil, nil
	}
	userID, err := strconv.ParseInt(sess.User(), 10, 64)
	if err != nil {
		return nil, nil
	}
	user, err := rs.service.UserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, nil
	}
	role := authz.ParseRole(user.Role)
	if role == "" {
		return nil, nil
	}
	return &authz.Identity{ID: user.ID, Email: user.Email, Role: role}, nil
}

var _ authz.IdentityResolver = (*Resolver)(nil)
