package authz

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/haulboard/haulboard/internal/shared"
)

const (
	// LoginPath receives unauthenticated users, with the original URL in
	// the callbackUrl query parameter.
	LoginPath = "/login"
	// DeniedRedirect receives authenticated users whose role fails a route
	// rule. The marker is deliberately generic.
	DeniedRedirect = "/dashboard?error=unauthorized"
)

// Identity forwarding headers for downstream handlers.
const (
	HeaderUserID   = "X-User-Id"
	HeaderUserRole = "X-User-Role"
	HeaderUserMail = "X-User-Email"
	HeaderPathname = "X-Pathname"
)

// IdentityResolver turns a request into the authenticated identity, or nil
// when no session exists. Implementations may hit Redis or Postgres; the
// gate treats any error as "no identity".
type IdentityResolver interface {
	Resolve(ctx context.Context, r *http.Request) (*Identity, error)
}

// AuditRecorder receives denied-access events. Recording failures must not
// influence the gate decision.
type AuditRecorder interface {
	Record(ctx context.Context, entry shared.AuditLog) error
}

// DenialCounter counts denials per role for monitoring.
type DenialCounter interface {
	ObserveDenied(role string)
}

// Gate intercepts every request before the matched handler runs. It decides
// allow, redirect-to-login, or redirect-with-denial, and on allow annotates
// the request context with the caller's identity.
type Gate struct {
	Registry *Registry
	Resolver IdentityResolver
	Logger   *slog.Logger
	Audit    AuditRecorder
	Metrics  DenialCounter

	// PublicPrefixes extends the built-in public allowlist, e.g. for
	// health and static asset routes.
	PublicPrefixes []string
}

// publicPaths never require authentication.
var publicPaths = []string{
	"/login",
	"/register",
	"/forgot-password",
	"/reset-password",
	"/verify-email",
	"/error",
}

// authPrefixes belong to the authentication collaborator, which applies its
// own checks.
var authPrefixes = []string{"/auth/"}

// Middleware runs the gate state machine. Exactly one branch terminates
// each request.
func (g *Gate) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path

		if g.isPublic(path) || isAuthPath(path) {
			next.ServeHTTP(w, r)
			return
		}

		identity := g.resolve(r)
		if identity == nil {
			original := r.URL.Path
			if r.URL.RawQuery != "" {
				original += "?" + r.URL.RawQuery
			}
			http.Redirect(w, r, LoginPath+"?callbackUrl="+url.QueryEscape(original), http.StatusSeeOther)
			return
		}

		if _, matched := g.Registry.MatchRouteRule(path); matched {
			if !g.Registry.CanAccessRoute(identity.Role, path) {
				g.recordDenial(r, identity, path)
				http.Redirect(w, r, DeniedRedirect, http.StatusSeeOther)
				return
			}
		}

		ctx := ContextWithIdentity(r.Context(), identity)
		r = r.WithContext(ctx)
		r.Header.Set(HeaderUserID, strconv.FormatInt(identity.ID, 10))
		r.Header.Set(HeaderUserRole, string(identity.Role))
		r.Header.Set(HeaderUserMail, identity.Email)
		r.Header.Set(HeaderPathname, path)
		next.ServeHTTP(w, r)
	})
}

// Require guards a route group with a single matrix permission. It relies
// on the identity the gate placed in context and answers 403 when the role
// lacks the permission.
func (g *Gate) Require(resource Resource, action Action) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity := IdentityFromContext(r.Context())
			if identity == nil {
				http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
				return
			}
			if !g.Registry.HasPermission(identity.Role, resource, action) {
				g.recordDenial(r, identity, r.URL.Path)
				http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (g *Gate) resolve(r *http.Request) *Identity {
	if g.Resolver == nil {
		return nil
	}
	identity, err := g.Resolver.Resolve(r.Context(), r)
	if err != nil {
		// Fail closed: an unresolved identity is treated as absent.
		if g.Logger != nil {
			g.Logger.Warn("identity resolution failed", slog.String("path", r.URL.Path), slog.Any("error", err))
		}
		return nil
	}
	if identity == nil || identity.Role == "" {
		return nil
	}
	return identity
}

func (g *Gate) recordDenial(r *http.Request, identity *Identity, path string) {
	if g.Logger != nil {
		g.Logger.Warn("access denied",
			slog.Int64("user_id", identity.ID),
			slog.String("role", string(identity.Role)),
			slog.String("path", path),
		)
	}
	if g.Metrics != nil {
		g.Metrics.ObserveDenied(string(identity.Role))
	}
	if g.Audit == nil {
		return
	}
	err := g.Audit.Record(r.Context(), shared.AuditLog{
		ActorID:  identity.ID,
		Action:   shared.AuditActionAccessDenied,
		Entity:   "route",
		EntityID: path,
		Meta:     map[string]any{"role": string(identity.Role)},
	})
	if err != nil && g.Logger != nil {
		g.Logger.Warn("record denial", slog.Any("error", err))
	}
}

func (g *Gate) isPublic(path string) bool {
	for _, p := range publicPaths {
		if path == p {
			return true
		}
	}
	for _, prefix := range g.PublicPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

func isAuthPath(path string) bool {
	for _, prefix := range authPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}
