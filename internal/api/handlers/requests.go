// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2025-2026 indiecraft contributors
// https://github.com/Kalfadda/indiecraft

package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/Kalfadda/indiecraft/internal/api/middleware"
	"github.com/Kalfadda/indiecraft/internal/models"
	"github.com/Kalfadda/indiecraft/internal/pkg/logger"
	"github.com/Kalfadda/indiecraft/internal/services/request"
)

// RequestHandler handles the asset request workflow.
type RequestHandler struct {
	BaseHandler
	requestService *request.Service
}

// NewRequestHandler creates a new request handler.
func NewRequestHandler(requestService *request.Service, log *logger.Logger) *RequestHandler {
	return &RequestHandler{
		BaseHandler:    NewBaseHandler(log),
		requestService: requestService,
	}
}

// Routes returns the asset request routes. Review decisions are admin-only.
func (h *RequestHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequireAuth)

	r.Get("/", h.List)
	r.Get("/{requestID}", h.Get)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireRole("member"))
		r.Post("/", h.Submit)
		r.Delete("/{requestID}", h.Withdraw)
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAdmin)
		r.Post("/{requestID}/approve", h.Approve)
		r.Post("/{requestID}/reject", h.Reject)
		r.Post("/{requestID}/complete", h.Complete)
	})

	return r
}

// ============================================================================
// Request types
// ============================================================================

// SubmitRequestRequest represents an asset request submission.
type SubmitRequestRequest struct {
	Title    string `json:"title" validate:"required,max=200"`
	Details  string `json:"details,omitempty" validate:"omitempty,max=2000"`
	Category string `json:"category" validate:"required,oneof=art audio code design writing"`
}

// ReviewRequest carries an optional reviewer note for approve/reject.
type ReviewRequest struct {
	Note string `json:"note,omitempty" validate:"omitempty,max=1000"`
}

// ============================================================================
// Handlers
// ============================================================================

// List returns asset requests, optionally filtered by status.
// GET /api/v1/requests?status=pending
func (h *RequestHandler) List(w http.ResponseWriter, r *http.Request) {
	requests, err := h.requestService.List(r.Context(), h.QueryParam(r, "status"))
	if err != nil {
		h.HandleError(w, err)
		return
	}

	if requests == nil {
		requests = []*models.AssetRequest{}
	}
	h.OK(w, requests)
}

// Submit files a new asset request by the current user.
// POST /api/v1/requests
func (h *RequestHandler) Submit(w http.ResponseWriter, r *http.Request) {
	userID, err := h.GetUserID(r)
	if err != nil {
		h.HandleError(w, err)
		return
	}

	var req SubmitRequestRequest
	if err := h.ParseJSON(r, &req); err != nil {
		h.HandleError(w, err)
		return
	}

	ar := &models.AssetRequest{
		UserID:   userID,
		Title:    req.Title,
		Details:  req.Details,
		Category: req.Category,
	}

	if err := h.requestService.Submit(r.Context(), ar); err != nil {
		h.HandleError(w, err)
		return
	}

	h.Created(w, ar)
}

// Get returns a single asset request.
// GET /api/v1/requests/{requestID}
func (h *RequestHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := h.URLParamUUID(r, "requestID")
	if err != nil {
		h.HandleError(w, err)
		return
	}

	ar, err := h.requestService.Get(r.Context(), id)
	if err != nil {
		h.HandleError(w, err)
		return
	}

	h.OK(w, ar)
}

// Approve approves a pending request and creates the matching asset.
// POST /api/v1/requests/{requestID}/approve
func (h *RequestHandler) Approve(w http.ResponseWriter, r *http.Request) {
	h.review(w, r, h.requestService.Approve)
}

// Reject rejects a pending request.
// POST /api/v1/requests/{requestID}/reject
func (h *RequestHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.review(w, r, h.requestService.Reject)
}

// Complete marks an approved request as done.
// POST /api/v1/requests/{requestID}/complete
func (h *RequestHandler) Complete(w http.ResponseWriter, r *http.Request) {
	id, err := h.URLParamUUID(r, "requestID")
	if err != nil {
		h.HandleError(w, err)
		return
	}

	ar, err := h.requestService.Complete(r.Context(), id)
	if err != nil {
		h.HandleError(w, err)
		return
	}

	h.OK(w, ar)
}

// Withdraw removes a pending request filed by the current user.
// DELETE /api/v1/requests/{requestID}
func (h *RequestHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	userID, err := h.GetUserID(r)
	if err != nil {
		h.HandleError(w, err)
		return
	}

	id, err := h.URLParamUUID(r, "requestID")
	if err != nil {
		h.HandleError(w, err)
		return
	}

	if err := h.requestService.Withdraw(r.Context(), id, userID); err != nil {
		h.HandleError(w, err)
		return
	}

	h.NoContent(w)
}

// review handles the shared shape of approve and reject.
func (h *RequestHandler) review(
	w http.ResponseWriter,
	r *http.Request,
	decide func(ctx context.Context, id, reviewerID uuid.UUID, note string) (*models.AssetRequest, error),
) {
	reviewerID, err := h.GetUserID(r)
	if err != nil {
		h.HandleError(w, err)
		return
	}

	id, err := h.URLParamUUID(r, "requestID")
	if err != nil {
		h.HandleError(w, err)
		return
	}

	// The note is optional; an empty body is a decision without commentary.
	var req ReviewRequest
	if r.ContentLength != 0 {
		if err := h.ParseJSON(r, &req); err != nil {
			h.HandleError(w, err)
			return
		}
	}

	ar, err := decide(r.Context(), id, reviewerID, req.Note)
	if err != nil {
		h.HandleError(w, err)
		return
	}

	h.OK(w, ar)
}
