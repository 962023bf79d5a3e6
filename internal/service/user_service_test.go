package service

import (
	"context"
	"testing"

	"backlog/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubUserRepo struct {
	getByIDFunc      func(ctx context.Context, id uint) (*models.User, error)
	getByOIDCSubFunc func(ctx context.Context, sub string) (*models.User, error)
	createFunc       func(ctx context.Context, user *models.User) error
	updateFunc       func(ctx context.Context, user *models.User) error
	listFunc         func(ctx context.Context, limit, offset int) ([]models.User, error)
}

func (s *stubUserRepo) GetByID(ctx context.Context, id uint) (*models.User, error) {
	return s.getByIDFunc(ctx, id)
}

func (s *stubUserRepo) GetByOIDCSub(ctx context.Context, sub string) (*models.User, error) {
	return s.getByOIDCSubFunc(ctx, sub)
}

func (s *stubUserRepo) Create(ctx context.Context, user *models.User) error {
	return s.createFunc(ctx, user)
}

func (s *stubUserRepo) Update(ctx context.Context, user *models.User) error {
	return s.updateFunc(ctx, user)
}

func (s *stubUserRepo) List(ctx context.Context, limit, offset int) ([]models.User, error) {
	return s.listFunc(ctx, limit, offset)
}

func TestUserService_UpsertFromIdentity(t *testing.T) {
	ctx := context.Background()

	t.Run("creates new user on first login", func(t *testing.T) {
		var created *models.User
		repo := &stubUserRepo{
			getByOIDCSubFunc: func(ctx context.Context, sub string) (*models.User, error) {
				return nil, nil
			},
			createFunc: func(ctx context.Context, user *models.User) error {
				user.ID = 1
				created = user
				return nil
			},
		}
		svc := NewUserService(repo, "backlog-admin")

		user, err := svc.UpsertFromIdentity(ctx, Identity{
			Sub:    "oidc|abc",
			Email:  "alice@example.com",
			Name:   "Alice",
			Groups: []string{"users"},
		})
		require.NoError(t, err)
		require.NotNil(t, created)
		assert.Equal(t, "oidc|abc", user.OIDCSub)
		assert.Equal(t, "Alice", user.DisplayName)
		assert.False(t, user.IsAdmin)
	})

	t.Run("admin group grants admin", func(t *testing.T) {
		repo := &stubUserRepo{
			getByOIDCSubFunc: func(ctx context.Context, sub string) (*models.User, error) {
				return nil, nil
			},
			createFunc: func(ctx context.Context, user *models.User) error {
				return nil
			},
		}
		svc := NewUserService(repo, "backlog-admin")

		user, err := svc.UpsertFromIdentity(ctx, Identity{
			Sub:    "oidc|abc",
			Email:  "alice@example.com",
			Name:   "Alice",
			Groups: []string{"users", "backlog-admin"},
		})
		require.NoError(t, err)
		assert.True(t, user.IsAdmin)
	})

	t.Run("refreshes changed attributes", func(t *testing.T) {
		updated := false
		repo := &stubUserRepo{
			getByOIDCSubFunc: func(ctx context.Context, sub string) (*models.User, error) {
				return &models.User{ID: 1, OIDCSub: sub, Email: "old@example.com", DisplayName: "Old"}, nil
			},
			updateFunc: func(ctx context.Context, user *models.User) error {
				updated = true
				return nil
			},
		}
		svc := NewUserService(repo, "backlog-admin")

		user, err := svc.UpsertFromIdentity(ctx, Identity{
			Sub:   "oidc|abc",
			Email: "new@example.com",
			Name:  "New",
		})
		require.NoError(t, err)
		assert.True(t, updated)
		assert.Equal(t, "new@example.com", user.Email)
	})

	t.Run("unchanged identity skips the write", func(t *testing.T) {
		repo := &stubUserRepo{
			getByOIDCSubFunc: func(ctx context.Context, sub string) (*models.User, error) {
				return &models.User{ID: 1, OIDCSub: sub, Email: "alice@example.com", DisplayName: "Alice"}, nil
			},
			updateFunc: func(ctx context.Context, user *models.User) error {
				t.Fatal("update should not be called")
				return nil
			},
		}
		svc := NewUserService(repo, "backlog-admin")

		_, err := svc.UpsertFromIdentity(ctx, Identity{
			Sub:   "oidc|abc",
			Email: "alice@example.com",
			Name:  "Alice",
		})
		require.NoError(t, err)
	})

	t.Run("blank sub is unauthorized", func(t *testing.T) {
		svc := NewUserService(&stubUserRepo{}, "backlog-admin")

		_, err := svc.UpsertFromIdentity(ctx, Identity{Sub: "  "})
		require.Error(t, err)

		appErr, ok := err.(*models.AppError)
		require.True(t, ok)
		assert.Equal(t, "UNAUTHORIZED", appErr.Code)
	})

	t.Run("empty name falls back to email", func(t *testing.T) {
		repo := &stubUserRepo{
			getByOIDCSubFunc: func(ctx context.Context, sub string) (*models.User, error) {
				return nil, nil
			},
			createFunc: func(ctx context.Context, user *models.User) error {
				return nil
			},
		}
		svc := NewUserService(repo, "backlog-admin")

		user, err := svc.UpsertFromIdentity(ctx, Identity{
			Sub:   "oidc|abc",
			Email: "alice@example.com",
		})
		require.NoError(t, err)
		assert.Equal(t, "alice@example.com", user.DisplayName)
	})
}
