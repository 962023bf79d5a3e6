package service

import (
	"context"
	"strings"

	"backlog/internal/models"
	"backlog/internal/repository"
)

// Identity is the verified OIDC identity forwarded by the auth proxy.
type Identity struct {
	Sub    string
	Email  string
	Name   string
	Groups []string
}

// UserService manages local user records mirrored from the identity provider.
type UserService struct {
	users      repository.UserRepository
	adminGroup string
}

// NewUserService creates a new UserService. adminGroup is the OIDC group
// whose members get admin rights.
func NewUserService(users repository.UserRepository, adminGroup string) *UserService {
	return &UserService{users: users, adminGroup: adminGroup}
}

func (s *UserService) isAdmin(groups []string) bool {
	if s.adminGroup == "" {
		return false
	}
	for _, g := range groups {
		if g == s.adminGroup {
			return true
		}
	}
	return false
}

// UpsertFromIdentity creates or refreshes the local user row for an identity.
// Email, display name, and admin membership follow the provider on every
// login.
func (s *UserService) UpsertFromIdentity(ctx context.Context, identity Identity) (*models.User, error) {
	sub := strings.TrimSpace(identity.Sub)
	if sub == "" {
		return nil, models.NewUnauthorizedError("Missing subject claim")
	}

	displayName := strings.TrimSpace(identity.Name)
	if displayName == "" {
		displayName = identity.Email
	}
	isAdmin := s.isAdmin(identity.Groups)

	user, err := s.users.GetByOIDCSub(ctx, sub)
	if err != nil {
		return nil, err
	}

	if user == nil {
		user = &models.User{
			OIDCSub:     sub,
			Email:       identity.Email,
			DisplayName: displayName,
			IsAdmin:     isAdmin,
		}
		if err := s.users.Create(ctx, user); err != nil {
			return nil, err
		}
		return user, nil
	}

	if user.Email != identity.Email || user.DisplayName != displayName || user.IsAdmin != isAdmin {
		user.Email = identity.Email
		user.DisplayName = displayName
		user.IsAdmin = isAdmin
		if err := s.users.Update(ctx, user); err != nil {
			return nil, err
		}
	}
	return user, nil
}

// GetByID returns a user by primary key.
func (s *UserService) GetByID(ctx context.Context, id uint) (*models.User, error) {
	return s.users.GetByID(ctx, id)
}
