package users

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/haulboard/haulboard/internal/authz"
	"github.com/haulboard/haulboard/internal/shared"
)

// Service wraps user management business rules.
type Service struct {
	repo  Repository
	audit *shared.AuditLogger
}

// NewService constructs a new Service.
func NewService(repo Repository, audit *shared.AuditLogger) *Service {
	return &Service{repo: repo, audit: audit}
}

// ListUsers returns all accounts ordered by email.
func (s *Service) ListUsers(ctx context.Context) ([]User, error) {
	return s.repo.List(ctx)
}

// GetUser fetches an account by ID.
func (s *Service) GetUser(ctx context.Context, id int64) (User, error) {
	if id <= 0 {
		return User{}, shared.ErrNotFound
	}
	return s.repo.Get(ctx, id)
}

// CreateUser registers a new account with a hashed password.
func (s *Service) CreateUser(ctx context.Context, actorID int64, u User, password string) (User, error) {
	if err := validate(u); err != nil {
		return User{}, err
	}
	if len(password) < 8 {
		return User{}, errors.New("users: password must be at least 8 characters")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, err
	}
	created, err := s.repo.Create(ctx, u, string(hash))
	if err != nil {
		return User{}, err
	}
	s.recordAudit(ctx, actorID, "users.create", created)
	return created, nil
}

// UpdateUser changes account details including role assignment.
func (s *Service) UpdateUser(ctx context.Context, actorID, id int64, u User) error {
	if err := validate(u); err != nil {
		return err
	}
	if err := s.repo.Update(ctx, id, u); err != nil {
		return err
	}
	u.ID = id
	s.recordAudit(ctx, actorID, "users.update", u)
	return nil
}

func validate(u User) error {
	if strings.TrimSpace(u.Email) == "" {
		return errors.New("users: email is required")
	}
	if strings.TrimSpace(u.Name) == "" {
		return errors.New("users: name is required")
	}
	if authz.ParseRole(u.Role) == "" {
		return errors.New("users: unknown role")
	}
	return nil
}

func (s *Service) recordAudit(ctx context.Context, actorID int64, action string, u User) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "user",
		EntityID: u.Email,
		Meta:     map[string]any{"role": u.Role, "active": u.IsActive},
	})
}
