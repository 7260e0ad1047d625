package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/facilityworks/helpdesk/internal/domain"
	"github.com/facilityworks/helpdesk/internal/repository"
	apperrors "github.com/facilityworks/helpdesk/pkg/util"
)

func newUserServiceFixture() (*UserService, repository.UserRepository) {
	users := repository.NewUserMemory()
	return NewUserService(users, bcrypt.MinCost, nil), users
}

func TestUserBootstrap(t *testing.T) {
	ctx := context.Background()

	t.Run("creates the first manager", func(t *testing.T) {
		svc, _ := newUserServiceFixture()
		user, err := svc.Bootstrap(ctx, "admin", "changeme123")
		require.NoError(t, err)
		assert.Equal(t, domain.RoleTechManager, user.Role)
		assert.True(t, user.Active)
		assert.NotEqual(t, "changeme123", user.PasswordHash)
	})

	t.Run("refuses once any account exists", func(t *testing.T) {
		svc, _ := newUserServiceFixture()
		_, err := svc.Bootstrap(ctx, "admin", "changeme123")
		require.NoError(t, err)

		_, err = svc.Bootstrap(ctx, "admin2", "changeme123")
		require.Error(t, err)
		assert.True(t, apperrors.HasCode(err, apperrors.CodeConflict))
	})
}

func TestUserCreate(t *testing.T) {
	ctx := context.Background()
	manager := newTestUser(domain.RoleTechManager)

	t.Run("manager creates accounts", func(t *testing.T) {
		svc, _ := newUserServiceFixture()
		user, err := svc.Create(ctx, manager, UserCreateInput{
			Username: "jdoe",
			Password: "secret-pass",
			Role:     domain.RoleTechnician,
		})
		require.NoError(t, err)
		assert.Equal(t, "jdoe", user.Username)
		assert.Equal(t, domain.RoleTechnician, user.Role)
	})

	t.Run("non-managers are denied", func(t *testing.T) {
		svc, _ := newUserServiceFixture()
		for _, actor := range []*domain.User{newTestUser(domain.RoleEndUser), newTestUser(domain.RoleTechnician)} {
			_, err := svc.Create(ctx, actor, UserCreateInput{Username: "x", Password: "secret-pass", Role: domain.RoleEndUser})
			require.Error(t, err)
			assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))
		}
	})

	t.Run("duplicate username rejected", func(t *testing.T) {
		svc, _ := newUserServiceFixture()
		_, err := svc.Create(ctx, manager, UserCreateInput{Username: "jdoe", Password: "secret-pass", Role: domain.RoleEndUser})
		require.NoError(t, err)

		_, err = svc.Create(ctx, manager, UserCreateInput{Username: "jdoe", Password: "secret-pass", Role: domain.RoleEndUser})
		require.Error(t, err)
		assert.True(t, apperrors.HasCode(err, apperrors.CodeConflict))
	})

	t.Run("short password rejected", func(t *testing.T) {
		svc, _ := newUserServiceFixture()
		_, err := svc.Create(ctx, manager, UserCreateInput{Username: "jdoe", Password: "short", Role: domain.RoleEndUser})
		require.Error(t, err)
		assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))
	})
}

func TestUserAdministration(t *testing.T) {
	ctx := context.Background()
	manager := newTestUser(domain.RoleTechManager)

	t.Run("deactivation keeps the record", func(t *testing.T) {
		svc, repo := newUserServiceFixture()
		user, err := svc.Create(ctx, manager, UserCreateInput{Username: "jdoe", Password: "secret-pass", Role: domain.RoleEndUser})
		require.NoError(t, err)

		updated, err := svc.SetActive(ctx, manager, user.ID, false)
		require.NoError(t, err)
		assert.False(t, updated.Active)

		stored, err := repo.GetByID(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, "jdoe", stored.Username)
	})

	t.Run("role change", func(t *testing.T) {
		svc, _ := newUserServiceFixture()
		user, err := svc.Create(ctx, manager, UserCreateInput{Username: "jdoe", Password: "secret-pass", Role: domain.RoleEndUser})
		require.NoError(t, err)

		updated, err := svc.SetRole(ctx, manager, user.ID, domain.RoleTechnician)
		require.NoError(t, err)
		assert.Equal(t, domain.RoleTechnician, updated.Role)

		_, err = svc.SetRole(ctx, manager, user.ID, domain.Role("ROOT"))
		require.Error(t, err)
		assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))
	})

	t.Run("forced reset flag", func(t *testing.T) {
		svc, _ := newUserServiceFixture()
		user, err := svc.Create(ctx, manager, UserCreateInput{Username: "jdoe", Password: "secret-pass", Role: domain.RoleEndUser})
		require.NoError(t, err)

		updated, err := svc.RequirePasswordReset(ctx, manager, user.ID)
		require.NoError(t, err)
		assert.True(t, updated.ForcePasswordReset)
	})

	t.Run("dangling references resolve to a label", func(t *testing.T) {
		svc, _ := newUserServiceFixture()
		assert.Equal(t, domain.UnknownUserLabel, svc.Resolve(ctx, "no-such-id"))
	})
}
