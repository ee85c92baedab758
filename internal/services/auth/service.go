// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2025-2026 indiecraft contributors
// https://github.com/Kalfadda/indiecraft

package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/Kalfadda/indiecraft/internal/models"
	"github.com/Kalfadda/indiecraft/internal/pkg/logger"
	"github.com/Kalfadda/indiecraft/internal/repository/redis"
)

// Auth errors
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserDisabled       = errors.New("user account is disabled")
	ErrPasswordMismatch   = errors.New("current password is incorrect")
)

// UserStore is the subset of the user repository the auth service needs.
type UserStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
	TouchLastLogin(ctx context.Context, id uuid.UUID) error
}

// SessionStore is the subset of the Redis session store the auth service
// needs.
type SessionStore interface {
	Create(ctx context.Context, userID, username, role, userAgent, ipAddress string) (*redis.Session, error)
	Get(ctx context.Context, sessionID string) (*redis.Session, error)
	Touch(ctx context.Context, sessionID string) error
	Delete(ctx context.Context, sessionID string) error
	DeleteAllForUser(ctx context.Context, userID string) error
}

// Service is the authentication service: credential checks, sessions, and
// token issuance.
type Service struct {
	users    UserStore
	sessions SessionStore
	jwt      *JWTService
	logger   *logger.Logger
}

// NewService creates a new auth service.
func NewService(users UserStore, sessions SessionStore, jwtSvc *JWTService, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		users:    users,
		sessions: sessions,
		jwt:      jwtSvc,
		logger:   log.Named("auth"),
	}
}

// LoginResult is the outcome of a successful login.
type LoginResult struct {
	User    *models.User   `json:"user"`
	Session *redis.Session `json:"-"`
	Tokens  *TokenPair     `json:"tokens"`
}

// Login verifies credentials, creates a session, and issues a token pair.
func (s *Service) Login(ctx context.Context, username, password, userAgent, ipAddress string) (*LoginResult, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		// Burn a hash comparison so missing and wrong-password logins take
		// comparable time.
		VerifyPassword("$2a$12$invalidsaltinvalidsaltinvalidsaltinvalidsalt", password)
		s.logger.Warn("login failed: unknown user", "username", username, "ip", ipAddress)
		return nil, ErrInvalidCredentials
	}

	if !VerifyPassword(user.PasswordHash, password) {
		s.logger.Warn("login failed: bad password", "username", username, "ip", ipAddress)
		return nil, ErrInvalidCredentials
	}

	if !user.IsActive {
		s.logger.Warn("login rejected: disabled account", "username", username)
		return nil, ErrUserDisabled
	}

	session, err := s.sessions.Create(ctx, user.ID.String(), user.Username, string(user.Role), userAgent, ipAddress)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	tokens, err := s.jwt.GenerateTokenPair(user, session.ID)
	if err != nil {
		return nil, err
	}

	if err := s.users.TouchLastLogin(ctx, user.ID); err != nil {
		s.logger.Warn("record last login", "error", err)
	}

	s.logger.Info("login", "username", user.Username, "user_id", user.ID, "ip", ipAddress)
	return &LoginResult{User: user, Session: session, Tokens: tokens}, nil
}

// Logout revokes a single session.
func (s *Service) Logout(ctx context.Context, sessionID string) error {
	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// LogoutAll revokes every session of a user.
func (s *Service) LogoutAll(ctx context.Context, userID uuid.UUID) error {
	if err := s.sessions.DeleteAllForUser(ctx, userID.String()); err != nil {
		return fmt.Errorf("delete user sessions: %w", err)
	}
	s.logger.Info("all sessions revoked", "user_id", userID)
	return nil
}

// Refresh exchanges a valid refresh token for a new token pair. The session
// the refresh token is bound to must still be alive.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := s.jwt.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, err
	}

	session, err := s.sessions.Get(ctx, claims.SessionID)
	if err != nil {
		if errors.Is(err, redis.ErrSessionNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil || session.UserID != claims.UserID {
		return nil, ErrInvalidClaims
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, ErrInvalidToken
	}
	if !user.IsActive {
		return nil, ErrUserDisabled
	}

	if err := s.sessions.Touch(ctx, session.ID); err != nil {
		s.logger.Warn("touch session", "error", err)
	}

	return s.jwt.GenerateTokenPair(user, session.ID)
}

// ChangePassword verifies the current password and stores a new hash. All
// other sessions of the user are revoked.
func (s *Service) ChangePassword(ctx context.Context, userID uuid.UUID, current, next string) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("load user: %w", err)
	}

	if !VerifyPassword(user.PasswordHash, current) {
		return ErrPasswordMismatch
	}

	hash, err := HashPassword(next)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePassword(ctx, userID, hash); err != nil {
		return fmt.Errorf("store password: %w", err)
	}

	if err := s.sessions.DeleteAllForUser(ctx, userID.String()); err != nil {
		s.logger.Warn("revoke sessions after password change", "error", err)
	}

	s.logger.Info("password changed", "user_id", userID)
	return nil
}
