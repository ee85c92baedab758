// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2025-2026 indiecraft contributors
// https://github.com/Kalfadda/indiecraft

// Package handlers provides HTTP handlers for the API.
package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	apierrors "github.com/Kalfadda/indiecraft/internal/api/errors"
	"github.com/Kalfadda/indiecraft/internal/api/middleware"
	"github.com/Kalfadda/indiecraft/internal/models"
	"github.com/Kalfadda/indiecraft/internal/pkg/logger"
	"github.com/Kalfadda/indiecraft/internal/services/auth"
)

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	BaseHandler
	authService *auth.Service
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(authService *auth.Service, log *logger.Logger) *AuthHandler {
	return &AuthHandler{
		BaseHandler: NewBaseHandler(log),
		authService: authService,
	}
}

// Routes returns the authentication routes.
func (h *AuthHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/login", h.Login)
	r.Post("/refresh", h.RefreshToken)
	r.Post("/logout", h.Logout)

	// Protected routes
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Post("/logout/all", h.LogoutAll)
		r.Post("/change-password", h.ChangePassword)
		r.Get("/me", h.GetCurrentUser)
	})

	return r
}

// ============================================================================
// Request/Response types
// ============================================================================

// LoginRequest represents a login request.
type LoginRequest struct {
	Username string `json:"username" validate:"required,max=64"`
	Password string `json:"password" validate:"required,max=128"`
}

// LoginResponse represents a login response.
type LoginResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	ExpiresAt    string       `json:"expires_at"`
	User         UserResponse `json:"user"`
}

// RefreshRequest represents a token refresh request.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// RefreshResponse represents a token refresh response.
type RefreshResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresAt    string `json:"expires_at"`
}

// ChangePasswordRequest represents a password change request.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required,max=128"`
	NewPassword     string `json:"new_password" validate:"required,min=8,max=128"`
}

// ============================================================================
// Handlers
// ============================================================================

// Login handles user login.
// POST /api/v1/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := h.ParseJSON(r, &req); err != nil {
		h.HandleError(w, err)
		return
	}

	result, err := h.authService.Login(r.Context(), req.Username, req.Password, r.UserAgent(), getClientIP(r))
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) || errors.Is(err, auth.ErrUserDisabled) {
			h.Error(w, apierrors.InvalidCredentials())
			return
		}
		h.HandleError(w, err)
		return
	}

	resp := LoginResponse{
		AccessToken:  result.Tokens.AccessToken,
		RefreshToken: result.Tokens.RefreshToken,
		ExpiresAt:    result.Tokens.AccessTokenExpiresAt.Format(time.RFC3339),
		User:         toUserResponse(result.User),
	}

	h.OK(w, resp)
}

// RefreshToken handles token refresh.
// POST /api/v1/auth/refresh
func (h *AuthHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if err := h.ParseJSON(r, &req); err != nil {
		h.HandleError(w, err)
		return
	}

	tokens, err := h.authService.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		h.Error(w, apierrors.InvalidToken("invalid or expired refresh token"))
		return
	}

	resp := RefreshResponse{
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		ExpiresAt:    tokens.AccessTokenExpiresAt.Format(time.RFC3339),
	}

	h.OK(w, resp)
}

// Logout revokes the session bound to the presented access token.
// POST /api/v1/auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetUserFromContext(r.Context())
	if claims != nil && claims.SessionID != "" {
		if err := h.authService.Logout(r.Context(), claims.SessionID); err != nil {
			h.logger.Warn("logout failed", "error", err)
		}
	}

	h.NoContent(w)
}

// LogoutAll revokes every session of the current user.
// POST /api/v1/auth/logout/all
func (h *AuthHandler) LogoutAll(w http.ResponseWriter, r *http.Request) {
	userID, err := h.GetUserID(r)
	if err != nil {
		h.HandleError(w, err)
		return
	}

	if err := h.authService.LogoutAll(r.Context(), userID); err != nil {
		h.HandleError(w, err)
		return
	}

	h.NoContent(w)
}

// ChangePassword handles password change for the current user.
// POST /api/v1/auth/change-password
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	userID, err := h.GetUserID(r)
	if err != nil {
		h.HandleError(w, err)
		return
	}

	var req ChangePasswordRequest
	if err := h.ParseJSON(r, &req); err != nil {
		h.HandleError(w, err)
		return
	}

	if err := h.authService.ChangePassword(r.Context(), userID, req.CurrentPassword, req.NewPassword); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			h.Error(w, apierrors.InvalidCredentials())
			return
		}
		if errors.Is(err, auth.ErrWeakPassword) {
			h.Error(w, apierrors.InvalidInput(err.Error()))
			return
		}
		h.HandleError(w, err)
		return
	}

	h.OK(w, map[string]string{"message": "password changed successfully"})
}

// GetCurrentUser returns the current authenticated user.
// GET /api/v1/auth/me
func (h *AuthHandler) GetCurrentUser(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetUserFromContext(r.Context())
	if claims == nil {
		h.Forbidden(w, "not authenticated")
		return
	}

	h.OK(w, map[string]interface{}{
		"user_id":    claims.UserID,
		"username":   claims.Username,
		"role":       claims.Role,
		"session_id": claims.SessionID,
	})
}

// ============================================================================
// Helpers
// ============================================================================

// toUserResponse converts a user model to its API representation.
func toUserResponse(u *models.User) UserResponse {
	resp := UserResponse{
		ID:          u.ID.String(),
		Username:    u.Username,
		DisplayName: u.DisplayName,
		Role:        string(u.Role),
		IsActive:    u.IsActive,
		CreatedAt:   u.CreatedAt.Format(time.RFC3339),
	}
	if u.Email != nil {
		resp.Email = *u.Email
	}
	if u.LastLoginAt != nil {
		resp.LastLoginAt = u.LastLoginAt.Format(time.RFC3339)
	}
	return resp
}

// getClientIP extracts the client IP address from the request.
func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		ips := strings.Split(xff, ",")
		if len(ips) > 0 {
			return strings.TrimSpace(ips[0])
		}
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	ip := r.RemoteAddr
	if idx := strings.LastIndex(ip, ":"); idx != -1 {
		ip = ip[:idx]
	}
	return ip
}
