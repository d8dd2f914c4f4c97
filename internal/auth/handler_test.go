package auth_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"

	"github.com/haulboard/haulboard/internal/auth"
	"github.com/haulboard/haulboard/internal/shared"
	"github.com/haulboard/haulboard/internal/view"
	_ "github.com/haulboard/haulboard/testing"
)

type stubRepo struct {
	user     *auth.User
	sessions map[string]int64
}

func (s *stubRepo) FindByEmail(ctx context.Context, email string) (*auth.User, error) {
	if s.user == nil || s.user.Email != email {
		return nil, shared.ErrInvalidCredentials
	}
	return s.user, nil
}

func (s *stubRepo) FindByID(ctx context.Context, id int64) (*auth.User, error) {
	if s.user == nil || s.user.ID != id {
		return nil, shared.ErrNotFound
	}
	return s.user, nil
}

func (s *stubRepo) CreateSession(ctx context.Context, id string, userID int64, expiresAt time.Time, ip, ua string) error {
	if s.sessions == nil {
		s.sessions = map[string]int64{}
	}
	s.sessions[id] = userID
	return nil
}

func (s *stubRepo) DeleteSession(ctx context.Context, id string) error {
	delete(s.sessions, id)
	return nil
}

func (s *stubRepo) DeleteExpiredSessions(ctx context.Context, before time.Time) (int64, error) {
	return 0, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func activeUser(t *testing.T, password string) *auth.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	return &auth.User{
		ID:           1,
		Email:        "admin@haulboard.test",
		Name:         "Admin",
		PasswordHash: string(hash),
		Role:         "admin",
		IsActive:     true,
	}
}

func newAuthRouter(t *testing.T, repo auth.Repository) (http.Handler, *shared.SessionManager) {
	t.Helper()
	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	sessionManager := shared.NewSessionManager(redisClient, "test_session", "secret", time.Hour, false)
	csrfManager := shared.NewCSRFManager("csrfsecret")
	templates, err := view.NewEngine()
	if err != nil {
		t.Fatalf("templates: %v", err)
	}
	handler := auth.NewHandler(testLogger(), auth.NewService(repo), templates, sessionManager, csrfManager, nil)

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			sess, err := sessionManager.Load(req.Context(), req)
			if err != nil {
				t.Fatalf("load session: %v", err)
			}
			req = req.WithContext(shared.ContextWithSession(req.Context(), sess))
			next.ServeHTTP(w, req)
			if err := sessionManager.Commit(req.Context(), w, req, sess); err != nil {
				t.Fatalf("commit session: %v", err)
			}
		})
	})
	handler.MountRoutes(r)
	return r, sessionManager
}

func postLogin(router http.Handler, target, email, password string) *httptest.ResponseRecorder {
	form := url.Values{"email": {email}, "password": {password}}
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)
	return res
}

func TestLoginPageRenders(t *testing.T) {
	router, _ := newAuthRouter(t, &stubRepo{})

	req := httptest.NewRequest(http.MethodGet, "/login", nil)
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", res.Code)
	}
	if !strings.Contains(res.Body.String(), "<form") {
		t.Fatalf("expected login form in body")
	}
}

func TestLoginInvalidCredentials(t *testing.T) {
	router, _ := newAuthRouter(t, &stubRepo{user: activeUser(t, "correct-horse")})

	res := postLogin(router, "/login", "admin@haulboard.test", "wrong-password")

	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", res.Code)
	}
	if !strings.Contains(res.Body.String(), "Invalid email or password.") {
		t.Fatalf("expected credential error in body")
	}
}

func TestLoginInactiveAccountRejected(t *testing.T) {
	user := activeUser(t, "correct-horse")
	user.IsActive = false
	router, _ := newAuthRouter(t, &stubRepo{user: user})

	res := postLogin(router, "/login", "admin@haulboard.test", "correct-horse")

	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", res.Code)
	}
}

func TestLoginSuccessRedirectsToDashboard(t *testing.T) {
	repo := &stubRepo{user: activeUser(t, "correct-horse")}
	router, _ := newAuthRouter(t, repo)

	res := postLogin(router, "/login", "admin@haulboard.test", "correct-horse")

	if res.Code != http.StatusSeeOther {
		t.Fatalf("expected status 303, got %d", res.Code)
	}
	if loc := res.Header().Get("Location"); loc != "/dashboard" {
		t.Fatalf("expected redirect to /dashboard, got %s", loc)
	}
	if len(repo.sessions) != 1 {
		t.Fatalf("expected session record, got %d", len(repo.sessions))
	}
}

func TestLoginHonorsCallbackURL(t *testing.T) {
	router, _ := newAuthRouter(t, &stubRepo{user: activeUser(t, "correct-horse")})

	res := postLogin(router, "/login?callbackUrl=%2Fclients%3Fpage%3D2", "admin@haulboard.test", "correct-horse")

	if res.Code != http.StatusSeeOther {
		t.Fatalf("expected status 303, got %d", res.Code)
	}
	if loc := res.Header().Get("Location"); loc != "/clients?page=2" {
		t.Fatalf("expected redirect to callback, got %s", loc)
	}
}

func TestLoginDiscardsOffsiteCallback(t *testing.T) {
	router, _ := newAuthRouter(t, &stubRepo{user: activeUser(t, "correct-horse")})

	for _, callback := range []string{"https://evil.example", "//evil.example", "/\\evil"} {
		res := postLogin(router, "/login?callbackUrl="+url.QueryEscape(callback), "admin@haulboard.test", "correct-horse")
		if loc := res.Header().Get("Location"); loc != "/dashboard" {
			t.Fatalf("callback %q: expected redirect to /dashboard, got %s", callback, loc)
		}
	}
}

func TestLogoutRedirectsToLogin(t *testing.T) {
	router, _ := newAuthRouter(t, &stubRepo{user: activeUser(t, "correct-horse")})

	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)

	if res.Code != http.StatusSeeOther {
		t.Fatalf("expected status 303, got %d", res.Code)
	}
	if loc := res.Header().Get("Location"); loc != "/login" {
		t.Fatalf("expected redirect to /login, got %s", loc)
	}
}
