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
	"github.com/Kalfadda/indiecraft/internal/services/board"
)

// BoardHandler handles bulletin board endpoints.
type BoardHandler struct {
	BaseHandler
	boardService *board.Service
}

// NewBoardHandler creates a new board handler.
func NewBoardHandler(boardService *board.Service, log *logger.Logger) *BoardHandler {
	return &BoardHandler{
		BaseHandler:  NewBaseHandler(log),
		boardService: boardService,
	}
}

// Routes returns the board routes.
func (h *BoardHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequireAuth)

	r.Get("/", h.List)
	r.Get("/{noteID}", h.Get)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireRole("member"))
		r.Post("/", h.Create)
		r.Put("/{noteID}", h.Update)
		r.Post("/{noteID}/pin", h.Pin)
		r.Post("/{noteID}/unpin", h.Unpin)
		r.Delete("/{noteID}", h.Delete)
	})

	return r
}

// ============================================================================
// Request types
// ============================================================================

// CreateNoteRequest represents a board note creation request.
type CreateNoteRequest struct {
	Title    string `json:"title" validate:"required,max=200"`
	Content  string `json:"content,omitempty" validate:"omitempty,max=10000"`
	Pinned   bool   `json:"pinned,omitempty"`
	IsShared bool   `json:"is_shared,omitempty"`
}

// UpdateNoteRequest represents a board note update request.
type UpdateNoteRequest struct {
	Title    *string `json:"title,omitempty" validate:"omitempty,max=200"`
	Content  *string `json:"content,omitempty" validate:"omitempty,max=10000"`
	Pinned   *bool   `json:"pinned,omitempty"`
	IsShared *bool   `json:"is_shared,omitempty"`
}

// ============================================================================
// Handlers
// ============================================================================

// List returns board notes visible to the current user, pinned first.
// GET /api/v1/board
func (h *BoardHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, err := h.GetUserID(r)
	if err != nil {
		h.HandleError(w, err)
		return
	}

	notes, err := h.boardService.List(r.Context(), userID)
	if err != nil {
		h.HandleError(w, err)
		return
	}

	if notes == nil {
		notes = []*models.BoardNote{}
	}
	h.OK(w, notes)
}

// Create creates a new board note owned by the current user.
// POST /api/v1/board
func (h *BoardHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, err := h.GetUserID(r)
	if err != nil {
		h.HandleError(w, err)
		return
	}

	var req CreateNoteRequest
	if err := h.ParseJSON(r, &req); err != nil {
		h.HandleError(w, err)
		return
	}

	n := &models.BoardNote{
		UserID:   userID,
		Title:    req.Title,
		Content:  req.Content,
		Pinned:   req.Pinned,
		IsShared: req.IsShared,
	}

	if err := h.boardService.Create(r.Context(), n); err != nil {
		h.HandleError(w, err)
		return
	}

	h.Created(w, n)
}

// Get returns a single board note.
// GET /api/v1/board/{noteID}
func (h *BoardHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, err := h.GetUserID(r)
	if err != nil {
		h.HandleError(w, err)
		return
	}

	id, err := h.URLParamUUID(r, "noteID")
	if err != nil {
		h.HandleError(w, err)
		return
	}

	n, err := h.boardService.Get(r.Context(), id, userID)
	if err != nil {
		h.HandleError(w, err)
		return
	}

	h.OK(w, n)
}

// Update updates a board note owned by the current user.
// PUT /api/v1/board/{noteID}
func (h *BoardHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, err := h.GetUserID(r)
	if err != nil {
		h.HandleError(w, err)
		return
	}

	id, err := h.URLParamUUID(r, "noteID")
	if err != nil {
		h.HandleError(w, err)
		return
	}

	var req UpdateNoteRequest
	if err := h.ParseJSON(r, &req); err != nil {
		h.HandleError(w, err)
		return
	}

	n, err := h.boardService.Get(r.Context(), id, userID)
	if err != nil {
		h.HandleError(w, err)
		return
	}

	if req.Title != nil {
		n.Title = *req.Title
	}
	if req.Content != nil {
		n.Content = *req.Content
	}
	if req.Pinned != nil {
		n.Pinned = *req.Pinned
	}
	if req.IsShared != nil {
		n.IsShared = *req.IsShared
	}
	n.UserID = userID

	if err := h.boardService.Update(r.Context(), n); err != nil {
		h.HandleError(w, err)
		return
	}

	h.OK(w, n)
}

// Pin marks a note as pinned.
// POST /api/v1/board/{noteID}/pin
func (h *BoardHandler) Pin(w http.ResponseWriter, r *http.Request) {
	h.setPinned(w, r, true)
}

// Unpin clears a note's pinned flag.
// POST /api/v1/board/{noteID}/unpin
func (h *BoardHandler) Unpin(w http.ResponseWriter, r *http.Request) {
	h.setPinned(w, r, false)
}

func (h *BoardHandler) setPinned(w http.ResponseWriter, r *http.Request, pinned bool) {
	userID, err := h.GetUserID(r)
	if err != nil {
		h.HandleError(w, err)
		return
	}

	id, err := h.URLParamUUID(r, "noteID")
	if err != nil {
		h.HandleError(w, err)
		return
	}

	n, err := h.boardService.Get(r.Context(), id, userID)
	if err != nil {
		h.HandleError(w, err)
		return
	}

	n.Pinned = pinned
	n.UserID = userID
	if err := h.boardService.Update(r.Context(), n); err != nil {
		h.HandleError(w, err)
		return
	}

	h.OK(w, n)
}

// Delete deletes a board note owned by the current user.
// DELETE /api/v1/board/{noteID}
func (h *BoardHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, err := h.GetUserID(r)
	if err != nil {
		h.HandleError(w, err)
		return
	}

	id, err := h.URLParamUUID(r, "noteID")
	if err != nil {
		h.HandleError(w, err)
		return
	}

	if err := h.boardService.Delete(r.Context(), id, userID); err != nil {
		h.HandleError(w, err)
		return
	}

	h.NoContent(w)
}
