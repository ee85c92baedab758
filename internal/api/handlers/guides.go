// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2025-2026 indiecraft contributors
// https://github.com/Kalfadda/indiecraft

package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Kalfadda/indiecraft/internal/api/middleware"
	"github.com/Kalfadda/indiecraft/internal/models"
	"github.com/Kalfadda/indiecraft/internal/pkg/logger"
	"github.com/Kalfadda/indiecraft/internal/services/guide"
)

// GuideHandler handles knowledge library endpoints.
type GuideHandler struct {
	BaseHandler
	guideService *guide.Service
}

// NewGuideHandler creates a new guide handler.
func NewGuideHandler(guideService *guide.Service, log *logger.Logger) *GuideHandler {
	return &GuideHandler{
		BaseHandler:  NewBaseHandler(log),
		guideService: guideService,
	}
}

// Routes returns the guide routes.
func (h *GuideHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequireAuth)

	r.Get("/", h.List)
	r.Get("/search", h.Search)
	r.Get("/slug/{slug}", h.GetBySlug)
	r.Get("/{guideID}", h.Get)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireRole("member"))
		r.Post("/", h.Create)
		r.Put("/{guideID}", h.Update)
		r.Delete("/{guideID}", h.Delete)
	})

	return r
}

// ============================================================================
// Request types
// ============================================================================

// CreateGuideRequest represents a guide creation request.
type CreateGuideRequest struct {
	Title     string `json:"title" validate:"required,max=200"`
	Topic     string `json:"topic,omitempty" validate:"omitempty,max=64"`
	Body      string `json:"body" validate:"required"`
	Published bool   `json:"published,omitempty"`
}

// UpdateGuideRequest represents a guide update request.
type UpdateGuideRequest struct {
	Title     *string `json:"title,omitempty" validate:"omitempty,max=200"`
	Topic     *string `json:"topic,omitempty" validate:"omitempty,max=64"`
	Body      *string `json:"body,omitempty"`
	Published *bool   `json:"published,omitempty"`
}

// ============================================================================
// Handlers
// ============================================================================

// List returns guides, optionally filtered by topic. Drafts are visible to
// their author and to admins.
// GET /api/v1/guides?topic=workflow
func (h *GuideHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, err := h.GetUserID(r)
	if err != nil {
		h.HandleError(w, err)
		return
	}

	isAdmin := h.GetUserRole(r) == "admin"
	guides, err := h.guideService.List(r.Context(), userID, h.QueryParam(r, "topic"), isAdmin)
	if err != nil {
		h.HandleError(w, err)
		return
	}

	if guides == nil {
		guides = []*models.Guide{}
	}
	h.OK(w, guides)
}

// Search returns published guides matching a text query.
// GET /api/v1/guides/search?q=rig
func (h *GuideHandler) Search(w http.ResponseWriter, r *http.Request) {
	guides, err := h.guideService.Search(r.Context(), h.QueryParam(r, "q"))
	if err != nil {
		h.HandleError(w, err)
		return
	}

	if guides == nil {
		guides = []*models.Guide{}
	}
	h.OK(w, guides)
}

// Create creates a new guide authored by the current user.
// POST /api/v1/guides
func (h *GuideHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, err := h.GetUserID(r)
	if err != nil {
		h.HandleError(w, err)
		return
	}

	var req CreateGuideRequest
	if err := h.ParseJSON(r, &req); err != nil {
		h.HandleError(w, err)
		return
	}

	g := &models.Guide{
		AuthorID:  userID,
		Title:     req.Title,
		Topic:     req.Topic,
		Body:      req.Body,
		Published: req.Published,
	}

	if err := h.guideService.Create(r.Context(), g); err != nil {
		h.HandleError(w, err)
		return
	}

	h.Created(w, g)
}

// Get returns a single guide by ID.
// GET /api/v1/guides/{guideID}
func (h *GuideHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := h.URLParamUUID(r, "guideID")
	if err != nil {
		h.HandleError(w, err)
		return
	}

	g, err := h.guideService.Get(r.Context(), id)
	if err != nil {
		h.HandleError(w, err)
		return
	}

	h.OK(w, g)
}

// GetBySlug returns a single guide by its URL slug.
// GET /api/v1/guides/slug/{slug}
func (h *GuideHandler) GetBySlug(w http.ResponseWriter, r *http.Request) {
	g, err := h.guideService.GetBySlug(r.Context(), h.URLParam(r, "slug"))
	if err != nil {
		h.HandleError(w, err)
		return
	}

	h.OK(w, g)
}

// Update updates a guide. Only the author or an admin may edit.
// PUT /api/v1/guides/{guideID}
func (h *GuideHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, err := h.GetUserID(r)
	if err != nil {
		h.HandleError(w, err)
		return
	}

	id, err := h.URLParamUUID(r, "guideID")
	if err != nil {
		h.HandleError(w, err)
		return
	}

	var req UpdateGuideRequest
	if err := h.ParseJSON(r, &req); err != nil {
		h.HandleError(w, err)
		return
	}

	g, err := h.guideService.Get(r.Context(), id)
	if err != nil {
		h.HandleError(w, err)
		return
	}

	if g.AuthorID != userID && h.GetUserRole(r) != "admin" {
		h.Forbidden(w, "only the author may edit this guide")
		return
	}

	if req.Title != nil {
		g.Title = *req.Title
	}
	if req.Topic != nil {
		g.Topic = *req.Topic
	}
	if req.Body != nil {
		g.Body = *req.Body
	}
	if req.Published != nil {
		g.Published = *req.Published
	}

	if err := h.guideService.Update(r.Context(), g); err != nil {
		h.HandleError(w, err)
		return
	}

	h.OK(w, g)
}

// Delete deletes a guide authored by the current user. Admins may delete any
// guide.
// DELETE /api/v1/guides/{guideID}
func (h *GuideHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, err := h.GetUserID(r)
	if err != nil {
		h.HandleError(w, err)
		return
	}

	id, err := h.URLParamUUID(r, "guideID")
	if err != nil {
		h.HandleError(w, err)
		return
	}

	if h.GetUserRole(r) == "admin" {
		g, err := h.guideService.Get(r.Context(), id)
		if err != nil {
			h.HandleError(w, err)
			return
		}
		userID = g.AuthorID
	}

	if err := h.guideService.Delete(r.Context(), id, userID); err != nil {
		h.HandleError(w, err)
		return
	}

	h.NoContent(w)
}
