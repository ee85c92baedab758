// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2025-2026 indiecraft contributors
// https://github.com/Kalfadda/indiecraft

package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Kalfadda/indiecraft/internal/models"
	"github.com/Kalfadda/indiecraft/internal/pkg/logger"
	"github.com/Kalfadda/indiecraft/internal/services/user"
)

// UserHandler handles user management endpoints. All routes are admin-only;
// the router mounts them behind RequireAdmin.
type UserHandler struct {
	BaseHandler
	userService *user.Service
}

// NewUserHandler creates a new user handler.
func NewUserHandler(userService *user.Service, log *logger.Logger) *UserHandler {
	return &UserHandler{
		BaseHandler: NewBaseHandler(log),
		userService: userService,
	}
}

// Routes returns the user management routes.
func (h *UserHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{userID}", h.Get)
	r.Put("/{userID}", h.Update)
	r.Delete("/{userID}", h.Delete)
	r.Post("/{userID}/password", h.ResetPassword)

	return r
}

// ============================================================================
// Request/Response types
// ============================================================================

// CreateUserRequest represents a user creation request.
type CreateUserRequest struct {
	Username    string `json:"username" validate:"required,min=3,max=64"`
	Email       string `json:"email,omitempty" validate:"omitempty,email"`
	DisplayName string `json:"display_name,omitempty" validate:"omitempty,max=128"`
	Password    string `json:"password" validate:"required,min=8,max=128"`
	Role        string `json:"role,omitempty" validate:"omitempty,oneof=admin member viewer"`
}

// UpdateUserRequest represents a user update request.
type UpdateUserRequest struct {
	Email       *string `json:"email,omitempty" validate:"omitempty,email"`
	DisplayName *string `json:"display_name,omitempty" validate:"omitempty,max=128"`
	Role        *string `json:"role,omitempty" validate:"omitempty,oneof=admin member viewer"`
	IsActive    *bool   `json:"is_active,omitempty"`
}

// ResetPasswordRequest represents an admin password reset request.
type ResetPasswordRequest struct {
	Password string `json:"password" validate:"required,min=8,max=128"`
}

// UserResponse represents a user in API responses.
type UserResponse struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	Email       string `json:"email,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
	Role        string `json:"role"`
	IsActive    bool   `json:"is_active"`
	LastLoginAt string `json:"last_login_at,omitempty"`
	CreatedAt   string `json:"created_at"`
}

// ============================================================================
// Handlers
// ============================================================================

// List returns all user accounts.
// GET /api/v1/users
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.userService.List(r.Context())
	if err != nil {
		h.HandleError(w, err)
		return
	}

	resp := make([]UserResponse, len(users))
	for i, u := range users {
		resp[i] = toUserResponse(u)
	}

	h.OK(w, resp)
}

// Create creates a new user account.
// POST /api/v1/users
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if err := h.ParseJSON(r, &req); err != nil {
		h.HandleError(w, err)
		return
	}

	u := &models.User{
		Username:    req.Username,
		DisplayName: req.DisplayName,
		Role:        models.UserRole(req.Role),
	}
	if req.Email != "" {
		u.Email = &req.Email
	}

	if err := h.userService.Create(r.Context(), u, req.Password); err != nil {
		h.HandleError(w, err)
		return
	}

	h.Created(w, toUserResponse(u))
}

// Get returns a single user account.
// GET /api/v1/users/{userID}
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := h.URLParamUUID(r, "userID")
	if err != nil {
		h.HandleError(w, err)
		return
	}

	u, err := h.userService.Get(r.Context(), id)
	if err != nil {
		h.HandleError(w, err)
		return
	}

	h.OK(w, toUserResponse(u))
}

// Update updates a user's profile, role, and active flag.
// PUT /api/v1/users/{userID}
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := h.URLParamUUID(r, "userID")
	if err != nil {
		h.HandleError(w, err)
		return
	}

	var req UpdateUserRequest
	if err := h.ParseJSON(r, &req); err != nil {
		h.HandleError(w, err)
		return
	}

	u, err := h.userService.Get(r.Context(), id)
	if err != nil {
		h.HandleError(w, err)
		return
	}

	if req.Email != nil {
		if *req.Email == "" {
			u.Email = nil
		} else {
			u.Email = req.Email
		}
	}
	if req.DisplayName != nil {
		u.DisplayName = *req.DisplayName
	}
	if req.Role != nil {
		u.Role = models.UserRole(*req.Role)
	}
	if req.IsActive != nil {
		u.IsActive = *req.IsActive
	}

	if err := h.userService.Update(r.Context(), u); err != nil {
		h.HandleError(w, err)
		return
	}

	h.OK(w, toUserResponse(u))
}

// Delete removes a user account.
// DELETE /api/v1/users/{userID}
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := h.URLParamUUID(r, "userID")
	if err != nil {
		h.HandleError(w, err)
		return
	}

	if err := h.userService.Delete(r.Context(), id); err != nil {
		h.HandleError(w, err)
		return
	}

	h.NoContent(w)
}

// ResetPassword sets a new password for a user without the old one.
// POST /api/v1/users/{userID}/password
func (h *UserHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	id, err := h.URLParamUUID(r, "userID")
	if err != nil {
		h.HandleError(w, err)
		return
	}

	var req ResetPasswordRequest
	if err := h.ParseJSON(r, &req); err != nil {
		h.HandleError(w, err)
		return
	}

	if err := h.userService.SetPassword(r.Context(), id, req.Password); err != nil {
		h.HandleError(w, err)
		return
	}

	h.OK(w, map[string]string{"message": "password reset"})
}
