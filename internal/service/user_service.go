package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/facilityworks/helpdesk/internal/auth"
	"github.com/facilityworks/helpdesk/internal/domain"
	"github.com/facilityworks/helpdesk/internal/repository"
	apperrors "github.com/facilityworks/helpdesk/pkg/util"
)

// UserService manages accounts. Administrative operations are gated
// to managers; role changes and deactivation are always explicit
// actions, never side effects.
type UserService struct {
	users      repository.UserRepository
	bcryptCost int
	logger     *zap.Logger
}

// NewUserService constructs the service.
func NewUserService(users repository.UserRepository, bcryptCost int, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserService{users: users, bcryptCost: bcryptCost, logger: logger}
}

// UserCreateInput describes a new account.
type UserCreateInput struct {
	Username string
	Password string
	Role     domain.Role
}

// Create registers an account. Manager only.
func (s *UserService) Create(ctx context.Context, actor *domain.User, input UserCreateInput) (*domain.User, error) {
	if actor.Role != domain.RoleTechManager {
		return nil, apperrors.NewForbidden("only managers can create accounts")
	}
	return s.create(ctx, input)
}

// Bootstrap creates the very first manager account. It refuses to run
// once any user exists, so it is safe to invoke repeatedly.
func (s *UserService) Bootstrap(ctx context.Context, username, password string) (*domain.User, error) {
	existing, err := s.users.List(ctx)
	if err != nil {
		return nil, apperrors.NewPersistenceError(err)
	}
	if len(existing) > 0 {
		return nil, apperrors.NewConflict("accounts already exist; bootstrap refused", nil)
	}
	return s.create(ctx, UserCreateInput{
		Username: username,
		Password: password,
		Role:     domain.RoleTechManager,
	})
}

// SetActive activates or deactivates an account. Deactivation keeps
// the record: tickets referencing the user stay resolvable by id.
func (s *UserService) SetActive(ctx context.Context, actor *domain.User, userID string, active bool) (*domain.User, error) {
	if actor.Role != domain.RoleTechManager {
		return nil, apperrors.NewForbidden("only managers can manage accounts")
	}
	user, err := s.get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.Active == active {
		return user, nil
	}
	user.Active = active
	user.UpdatedAt = time.Now().UTC()
	if err := s.users.Update(ctx, user); err != nil {
		return nil, apperrors.NewPersistenceError(err)
	}
	s.logger.Info("account active flag changed",
		zap.String("user_id", user.ID),
		zap.Bool("active", active),
		zap.String("actor_id", actor.ID),
	)
	return user, nil
}

// SetRole reassigns an account's role, an explicit administrative
// action.
func (s *UserService) SetRole(ctx context.Context, actor *domain.User, userID string, role domain.Role) (*domain.User, error) {
	if actor.Role != domain.RoleTechManager {
		return nil, apperrors.NewForbidden("only managers can manage accounts")
	}
	if !domain.ValidRole(role) {
		return nil, apperrors.NewValidationError("unknown role", map[string]any{"role": role})
	}
	user, err := s.get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.Role == role {
		return user, nil
	}
	old := user.Role
	user.Role = role
	user.UpdatedAt = time.Now().UTC()
	if err := s.users.Update(ctx, user); err != nil {
		return nil, apperrors.NewPersistenceError(err)
	}
	s.logger.Info("account role changed",
		zap.String("user_id", user.ID),
		zap.String("from", string(old)),
		zap.String("to", string(role)),
		zap.String("actor_id", actor.ID),
	)
	return user, nil
}

// RequirePasswordReset forces the account to change its password at
// next login.
func (s *UserService) RequirePasswordReset(ctx context.Context, actor *domain.User, userID string) (*domain.User, error) {
	if actor.Role != domain.RoleTechManager {
		return nil, apperrors.NewForbidden("only managers can manage accounts")
	}
	user, err := s.get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.ForcePasswordReset {
		return user, nil
	}
	user.ForcePasswordReset = true
	user.UpdatedAt = time.Now().UTC()
	if err := s.users.Update(ctx, user); err != nil {
		return nil, apperrors.NewPersistenceError(err)
	}
	return user, nil
}

// List returns all accounts. Manager only.
func (s *UserService) List(ctx context.Context, actor *domain.User) ([]domain.User, error) {
	if actor.Role != domain.RoleTechManager {
		return nil, apperrors.NewForbidden("only managers can list accounts")
	}
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, apperrors.NewPersistenceError(err)
	}
	return users, nil
}

// Resolve looks a user up by id. Dangling references resolve to a
// placeholder label rather than an error so renderers can proceed.
func (s *UserService) Resolve(ctx context.Context, userID string) string {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return domain.UnknownUserLabel
	}
	return user.Username
}

func (s *UserService) create(ctx context.Context, input UserCreateInput) (*domain.User, error) {
	username := strings.TrimSpace(input.Username)
	if username == "" {
		return nil, apperrors.NewValidationError("username is required", nil)
	}
	if len(input.Password) < minPasswordLength {
		return nil, apperrors.NewValidationError("password too short", map[string]any{"min_length": minPasswordLength})
	}
	if !domain.ValidRole(input.Role) {
		return nil, apperrors.NewValidationError("unknown role", map[string]any{"role": input.Role})
	}
	if _, err := s.users.GetByUsername(ctx, username); err == nil {
		return nil, apperrors.NewConflict("username already exists", map[string]any{"username": username})
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NewPersistenceError(err)
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	now := time.Now().UTC()
	user := &domain.User{
		ID:           uuid.NewString(),
		Username:     username,
		Role:         input.Role,
		PasswordHash: hash,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, apperrors.NewPersistenceError(err)
	}
	return user, nil
}

func (s *UserService) get(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("user", map[string]any{"user_id": userID})
		}
		return nil, apperrors.NewPersistenceError(err)
	}
	return user, nil
}
