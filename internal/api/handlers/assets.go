// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2025-2026 indiecraft contributors
// https://github.com/Kalfadda/indiecraft

package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/Kalfadda/indiecraft/internal/api/middleware"
	"github.com/Kalfadda/indiecraft/internal/models"
	"github.com/Kalfadda/indiecraft/internal/pkg/logger"
	"github.com/Kalfadda/indiecraft/internal/services/asset"
)

// AssetHandler handles asset tracking and pipeline endpoints.
type AssetHandler struct {
	BaseHandler
	assetService *asset.Service
}

// NewAssetHandler creates a new asset handler.
func NewAssetHandler(assetService *asset.Service, log *logger.Logger) *AssetHandler {
	return &AssetHandler{
		BaseHandler:  NewBaseHandler(log),
		assetService: assetService,
	}
}

// Routes returns the asset routes.
func (h *AssetHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequireAuth)

	r.Get("/", h.List)
	r.Get("/{assetID}", h.Get)
	r.Get("/{assetID}/steps", h.ListSteps)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireRole("member"))
		r.Post("/", h.Create)
		r.Put("/{assetID}", h.Update)
		r.Delete("/{assetID}", h.Delete)
		r.Post("/{assetID}/steps", h.AddStep)
		r.Post("/steps/{stepID}/advance", h.AdvanceStep)
		r.Delete("/steps/{stepID}", h.RemoveStep)
	})

	return r
}

// ============================================================================
// Request types
// ============================================================================

// CreateAssetRequest represents an asset creation request.
type CreateAssetRequest struct {
	Name        string `json:"name" validate:"required,max=200"`
	Description string `json:"description,omitempty" validate:"omitempty,max=2000"`
	Category    string `json:"category" validate:"required,oneof=art audio code design writing"`
	Phase       string `json:"phase,omitempty" validate:"omitempty,oneof=concept production review done"`
	Priority    string `json:"priority,omitempty" validate:"omitempty,oneof=low normal high urgent"`
	IsShared    bool   `json:"is_shared,omitempty"`
}

// UpdateAssetRequest represents an asset update request.
type UpdateAssetRequest struct {
	Name        *string `json:"name,omitempty" validate:"omitempty,max=200"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=2000"`
	Category    *string `json:"category,omitempty" validate:"omitempty,oneof=art audio code design writing"`
	Phase       *string `json:"phase,omitempty" validate:"omitempty,oneof=concept production review done"`
	Priority    *string `json:"priority,omitempty" validate:"omitempty,oneof=low normal high urgent"`
	IsShared    *bool   `json:"is_shared,omitempty"`
}

// AddStepRequest represents a pipeline step creation request. DependsOn, when
// set, must reference an earlier step of the same asset.
type AddStepRequest struct {
	Name      string     `json:"name" validate:"required,max=200"`
	Position  int        `json:"position" validate:"min=0"`
	DependsOn *uuid.UUID `json:"depends_on,omitempty"`
}

// ============================================================================
// Asset handlers
// ============================================================================

// List returns assets visible to the current user, optionally filtered.
// GET /api/v1/assets?category=art&phase=production
func (h *AssetHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, err := h.GetUserID(r)
	if err != nil {
		h.HandleError(w, err)
		return
	}

	assets, err := h.assetService.List(r.Context(), userID, h.QueryParam(r, "category"), h.QueryParam(r, "phase"))
	if err != nil {
		h.HandleError(w, err)
		return
	}

	if assets == nil {
		assets = []*models.Asset{}
	}
	h.OK(w, assets)
}

// Create creates a new asset owned by the current user.
// POST /api/v1/assets
func (h *AssetHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, err := h.GetUserID(r)
	if err != nil {
		h.HandleError(w, err)
		return
	}

	var req CreateAssetRequest
	if err := h.ParseJSON(r, &req); err != nil {
		h.HandleError(w, err)
		return
	}

	a := &models.Asset{
		UserID:      userID,
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		Phase:       req.Phase,
		Priority:    req.Priority,
		IsShared:    req.IsShared,
	}

	if err := h.assetService.Create(r.Context(), a); err != nil {
		h.HandleError(w, err)
		return
	}

	h.Created(w, a)
}

// Get returns a single asset.
// GET /api/v1/assets/{assetID}
func (h *AssetHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, err := h.GetUserID(r)
	if err != nil {
		h.HandleError(w, err)
		return
	}

	id, err := h.URLParamUUID(r, "assetID")
	if err != nil {
		h.HandleError(w, err)
		return
	}

	a, err := h.assetService.Get(r.Context(), id, userID)
	if err != nil {
		h.HandleError(w, err)
		return
	}

	h.OK(w, a)
}

// Update updates an asset.
// PUT /api/v1/assets/{assetID}
func (h *AssetHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, err := h.GetUserID(r)
	if err != nil {
		h.HandleError(w, err)
		return
	}

	id, err := h.URLParamUUID(r, "assetID")
	if err != nil {
		h.HandleError(w, err)
		return
	}

	var req UpdateAssetRequest
	if err := h.ParseJSON(r, &req); err != nil {
		h.HandleError(w, err)
		return
	}

	a, err := h.assetService.Get(r.Context(), id, userID)
	if err != nil {
		h.HandleError(w, err)
		return
	}

	if req.Name != nil {
		a.Name = *req.Name
	}
	if req.Description != nil {
		a.Description = *req.Description
	}
	if req.Category != nil {
		a.Category = *req.Category
	}
	if req.Phase != nil {
		a.Phase = *req.Phase
	}
	if req.Priority != nil {
		a.Priority = *req.Priority
	}
	if req.IsShared != nil {
		a.IsShared = *req.IsShared
	}
	a.UserID = userID

	if err := h.assetService.Update(r.Context(), a); err != nil {
		h.HandleError(w, err)
		return
	}

	h.OK(w, a)
}

// Delete deletes an asset and its pipeline steps.
// DELETE /api/v1/assets/{assetID}
func (h *AssetHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, err := h.GetUserID(r)
	if err != nil {
		h.HandleError(w, err)
		return
	}

	id, err := h.URLParamUUID(r, "assetID")
	if err != nil {
		h.HandleError(w, err)
		return
	}

	if err := h.assetService.Delete(r.Context(), id, userID); err != nil {
		h.HandleError(w, err)
		return
	}

	h.NoContent(w)
}

// ============================================================================
// Pipeline step handlers
// ============================================================================

// ListSteps returns an asset's pipeline steps in order.
// GET /api/v1/assets/{assetID}/steps
func (h *AssetHandler) ListSteps(w http.ResponseWriter, r *http.Request) {
	userID, err := h.GetUserID(r)
	if err != nil {
		h.HandleError(w, err)
		return
	}

	assetID, err := h.URLParamUUID(r, "assetID")
	if err != nil {
		h.HandleError(w, err)
		return
	}

	steps, err := h.assetService.ListSteps(r.Context(), assetID, userID)
	if err != nil {
		h.HandleError(w, err)
		return
	}

	if steps == nil {
		steps = []*models.PipelineStep{}
	}
	h.OK(w, steps)
}

// AddStep appends a pipeline step to an asset.
// POST /api/v1/assets/{assetID}/steps
func (h *AssetHandler) AddStep(w http.ResponseWriter, r *http.Request) {
	userID, err := h.GetUserID(r)
	if err != nil {
		h.HandleError(w, err)
		return
	}

	assetID, err := h.URLParamUUID(r, "assetID")
	if err != nil {
		h.HandleError(w, err)
		return
	}

	var req AddStepRequest
	if err := h.ParseJSON(r, &req); err != nil {
		h.HandleError(w, err)
		return
	}

	step := &models.PipelineStep{
		AssetID:   assetID,
		Name:      req.Name,
		Position:  req.Position,
		DependsOn: req.DependsOn,
	}

	if err := h.assetService.AddStep(r.Context(), userID, step); err != nil {
		h.HandleError(w, err)
		return
	}

	h.Created(w, step)
}

// AdvanceStep moves a step to its next status, honoring dependencies.
// POST /api/v1/assets/steps/{stepID}/advance
func (h *AssetHandler) AdvanceStep(w http.ResponseWriter, r *http.Request) {
	userID, err := h.GetUserID(r)
	if err != nil {
		h.HandleError(w, err)
		return
	}

	stepID, err := h.URLParamUUID(r, "stepID")
	if err != nil {
		h.HandleError(w, err)
		return
	}

	step, err := h.assetService.AdvanceStep(r.Context(), userID, stepID)
	if err != nil {
		h.HandleError(w, err)
		return
	}

	h.OK(w, step)
}

// RemoveStep deletes a pipeline step.
// DELETE /api/v1/assets/steps/{stepID}
func (h *AssetHandler) RemoveStep(w http.ResponseWriter, r *http.Request) {
	userID, err := h.GetUserID(r)
	if err != nil {
		h.HandleError(w, err)
		return
	}

	stepID, err := h.URLParamUUID(r, "stepID")
	if err != nil {
		h.HandleError(w, err)
		return
	}

	if err := h.assetService.RemoveStep(r.Context(), userID, stepID); err != nil {
		h.HandleError(w, err)
		return
	}

	h.NoContent(w)
}
