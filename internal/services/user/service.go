// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2025-2026 indiecraft contributors
// https://github.com/Kalfadda/indiecraft

// Package user manages team member accounts.
package user

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/Kalfadda/indiecraft/internal/models"
	"github.com/Kalfadda/indiecraft/internal/pkg/errors"
	"github.com/Kalfadda/indiecraft/internal/pkg/logger"
	"github.com/Kalfadda/indiecraft/internal/services/auth"
)

// Store is the repository surface the user service needs.
type Store interface {
	Create(ctx context.Context, u *models.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	List(ctx context.Context) ([]*models.User, error)
	Update(ctx context.Context, u *models.User) error
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
	Delete(ctx context.Context, id uuid.UUID) error
	Count(ctx context.Context) (int, error)
}

// Service manages user accounts. All mutating operations are admin-only;
// enforcement lives in the API layer.
type Service struct {
	repo   Store
	logger *logger.Logger
}

// NewService creates a new user service.
func NewService(repo Store, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{repo: repo, logger: log.Named("user")}
}

// Create creates a new account with the given plaintext password.
func (s *Service) Create(ctx context.Context, u *models.User, password string) error {
	if err := validateUser(u); err != nil {
		return fmt.Errorf("create user: validate: %w", err)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	u.PasswordHash = hash
	u.IsActive = true

	if err := s.repo.Create(ctx, u); err != nil {
		return fmt.Errorf("create user: %w", err)
	}

	s.logger.Info("created user", "id", u.ID, "username", u.Username, "role", u.Role)
	return nil
}

// Get retrieves a user by ID.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get user %s: %w", id, err)
	}
	return u, nil
}

// GetByUsername retrieves a user by username.
func (s *Service) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	u, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("get user %q: %w", username, err)
	}
	return u, nil
}

// List returns all accounts.
func (s *Service) List(ctx context.Context) ([]*models.User, error) {
	users, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// Update updates profile fields, role, and active flag. Demoting or
// deactivating the last active admin is rejected.
func (s *Service) Update(ctx context.Context, u *models.User) error {
	if err := validateUser(u); err != nil {
		return fmt.Errorf("update user %s: validate: %w", u.ID, err)
	}

	current, err := s.repo.GetByID(ctx, u.ID)
	if err != nil {
		return fmt.Errorf("update user %s: %w", u.ID, err)
	}
	if current.IsAdmin() && (u.Role != models.RoleAdmin || !u.IsActive) {
		if err := s.ensureAnotherAdmin(ctx, u.ID); err != nil {
			return err
		}
	}

	if err := s.repo.Update(ctx, u); err != nil {
		return fmt.Errorf("update user %s: %w", u.ID, err)
	}

	s.logger.Info("updated user", "id", u.ID, "role", u.Role, "is_active", u.IsActive)
	return nil
}

// SetPassword replaces a user's password without checking the old one.
// Admin-only; users change their own password through the auth service.
func (s *Service) SetPassword(ctx context.Context, id uuid.UUID, password string) error {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("set password for %s: %w", id, err)
	}

	if err := s.repo.UpdatePassword(ctx, id, hash); err != nil {
		return fmt.Errorf("set password for %s: %w", id, err)
	}

	s.logger.Info("password reset", "id", id)
	return nil
}

// Delete removes an account. The last remaining active admin cannot be
// deleted.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("delete user %s: %w", id, err)
	}
	if u.IsAdmin() {
		if err := s.ensureAnotherAdmin(ctx, id); err != nil {
			return err
		}
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete user %s: %w", id, err)
	}

	s.logger.Info("deleted user", "id", id, "username", u.Username)
	return nil
}

func (s *Service) ensureAnotherAdmin(ctx context.Context, excluding uuid.UUID) error {
	users, err := s.repo.List(ctx)
	if err != nil {
		return fmt.Errorf("check admins: %w", err)
	}
	for _, other := range users {
		if other.ID != excluding && other.IsAdmin() && other.IsActive {
			return nil
		}
	}
	return errors.NewValidationError("cannot remove the last active admin")
}

func validateUser(u *models.User) error {
	u.Username = strings.TrimSpace(u.Username)
	if u.Username == "" {
		return errors.NewValidationError("username is required")
	}
	if len(u.Username) > 64 {
		return errors.NewValidationError("username must be at most 64 characters")
	}
	if u.Role == "" {
		u.Role = models.RoleMember
	}
	if !models.ValidUserRoles[u.Role] {
		return errors.NewValidationError("invalid role: " + string(u.Role))
	}
	return nil
}
