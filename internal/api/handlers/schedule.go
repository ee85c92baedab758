// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2025-2026 indiecraft contributors
// https://github.com/Kalfadda/indiecraft

package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	apierrors "github.com/Kalfadda/indiecraft/internal/api/errors"
	"github.com/Kalfadda/indiecraft/internal/api/middleware"
	"github.com/Kalfadda/indiecraft/internal/models"
	"github.com/Kalfadda/indiecraft/internal/pkg/logger"
	"github.com/Kalfadda/indiecraft/internal/services/feed"
	"github.com/Kalfadda/indiecraft/internal/services/schedule"
)

// ScheduleHandler handles the production calendar: events, exports, and
// external feed subscriptions.
type ScheduleHandler struct {
	BaseHandler
	scheduleService *schedule.Service
	feedService     *feed.Service
}

// NewScheduleHandler creates a new schedule handler.
func NewScheduleHandler(scheduleService *schedule.Service, feedService *feed.Service, log *logger.Logger) *ScheduleHandler {
	return &ScheduleHandler{
		BaseHandler:     NewBaseHandler(log),
		scheduleService: scheduleService,
		feedService:     feedService,
	}
}

// Routes returns the schedule routes.
func (h *ScheduleHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequireAuth)

	r.Route("/events", func(r chi.Router) {
		r.Get("/", h.ListEvents)
		r.Get("/export.ics", h.ExportMonth)
		r.Get("/{eventID}", h.GetEvent)
		r.Get("/{eventID}/export.ics", h.ExportEvent)
		r.Get("/{eventID}/google-link", h.GoogleLink)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole("member"))
			r.Post("/", h.CreateEvent)
			r.Put("/{eventID}", h.UpdateEvent)
			r.Delete("/{eventID}", h.DeleteEvent)
		})
	})

	r.Route("/feeds", func(r chi.Router) {
		r.Get("/", h.ListFeeds)
		r.Get("/{feedID}", h.GetFeed)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole("member"))
			r.Post("/", h.AddFeed)
			r.Post("/{feedID}/refresh", h.RefreshFeed)
			r.Delete("/{feedID}", h.RemoveFeed)
		})
	})

	return r
}

// ============================================================================
// Request types
// ============================================================================

// CreateEventRequest represents an event creation request. EventTime empty
// means an all-day event.
type CreateEventRequest struct {
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description,omitempty" validate:"omitempty,max=2000"`
	Type        string `json:"type,omitempty" validate:"omitempty,max=32"`
	EventDate   string `json:"event_date" validate:"required"`
	EventTime   string `json:"event_time,omitempty"`
	Visibility  string `json:"visibility,omitempty" validate:"omitempty,oneof=internal external"`
	IsShared    bool   `json:"is_shared,omitempty"`
}

// UpdateEventRequest represents an event update request.
type UpdateEventRequest struct {
	Title       *string `json:"title,omitempty" validate:"omitempty,max=200"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=2000"`
	Type        *string `json:"type,omitempty" validate:"omitempty,max=32"`
	EventDate   *string `json:"event_date,omitempty"`
	EventTime   *string `json:"event_time,omitempty"`
	Visibility  *string `json:"visibility,omitempty" validate:"omitempty,oneof=internal external"`
	IsShared    *bool   `json:"is_shared,omitempty"`
}

// AddFeedRequest represents a feed subscription request.
type AddFeedRequest struct {
	Name string `json:"name" validate:"required,max=128"`
	URL  string `json:"url" validate:"required,url"`
}

// ============================================================================
// Event handlers
// ============================================================================

// ListEvents returns events for a month, defaulting to the current one.
// GET /api/v1/schedule/events?year=2026&month=3
func (h *ScheduleHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	userID, err := h.GetUserID(r)
	if err != nil {
		h.HandleError(w, err)
		return
	}

	year, month := h.yearMonth(r)
	events, err := h.scheduleService.ListEventsByMonth(r.Context(), userID, year, month)
	if err != nil {
		h.HandleError(w, err)
		return
	}

	if events == nil {
		events = []*models.ScheduleEvent{}
	}
	h.OK(w, events)
}

// CreateEvent creates a new event owned by the current user.
// POST /api/v1/schedule/events
func (h *ScheduleHandler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	userID, err := h.GetUserID(r)
	if err != nil {
		h.HandleError(w, err)
		return
	}

	var req CreateEventRequest
	if err := h.ParseJSON(r, &req); err != nil {
		h.HandleError(w, err)
		return
	}

	ev := &models.ScheduleEvent{
		UserID:      userID,
		Title:       req.Title,
		Description: req.Description,
		Type:        req.Type,
		EventDate:   req.EventDate,
		IsShared:    req.IsShared,
	}
	if req.EventTime != "" {
		ev.EventTime = &req.EventTime
	}
	if req.Visibility != "" {
		ev.Visibility = &req.Visibility
	}

	if err := h.scheduleService.CreateEvent(r.Context(), ev); err != nil {
		h.HandleError(w, err)
		return
	}

	h.Created(w, ev)
}

// GetEvent returns a single event.
// GET /api/v1/schedule/events/{eventID}
func (h *ScheduleHandler) GetEvent(w http.ResponseWriter, r *http.Request) {
	userID, err := h.GetUserID(r)
	if err != nil {
		h.HandleError(w, err)
		return
	}

	id, err := h.URLParamUUID(r, "eventID")
	if err != nil {
		h.HandleError(w, err)
		return
	}

	ev, err := h.scheduleService.GetEvent(r.Context(), id, userID)
	if err != nil {
		h.HandleError(w, err)
		return
	}

	h.OK(w, ev)
}

// UpdateEvent updates an event. Events imported from an external feed are
// read-only.
// PUT /api/v1/schedule/events/{eventID}
func (h *ScheduleHandler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	userID, err := h.GetUserID(r)
	if err != nil {
		h.HandleError(w, err)
		return
	}

	id, err := h.URLParamUUID(r, "eventID")
	if err != nil {
		h.HandleError(w, err)
		return
	}

	var req UpdateEventRequest
	if err := h.ParseJSON(r, &req); err != nil {
		h.HandleError(w, err)
		return
	}

	ev, err := h.scheduleService.GetEvent(r.Context(), id, userID)
	if err != nil {
		h.HandleError(w, err)
		return
	}
	if ev.FeedSourceID != nil {
		h.Error(w, apierrors.Conflict("events imported from a feed are read-only"))
		return
	}
	// Shared events are visible to the whole team but editable only by
	// their owner.
	if ev.UserID != userID {
		h.NotFound(w, "schedule event")
		return
	}

	if req.Title != nil {
		ev.Title = *req.Title
	}
	if req.Description != nil {
		ev.Description = *req.Description
	}
	if req.Type != nil {
		ev.Type = *req.Type
	}
	if req.EventDate != nil {
		ev.EventDate = *req.EventDate
	}
	if req.EventTime != nil {
		if *req.EventTime == "" {
			ev.EventTime = nil
		} else {
			ev.EventTime = req.EventTime
		}
	}
	if req.Visibility != nil {
		if *req.Visibility == "" {
			ev.Visibility = nil
		} else {
			ev.Visibility = req.Visibility
		}
	}
	if req.IsShared != nil {
		ev.IsShared = *req.IsShared
	}

	if err := h.scheduleService.UpdateEvent(r.Context(), ev); err != nil {
		h.HandleError(w, err)
		return
	}

	h.OK(w, ev)
}

// DeleteEvent deletes an event owned by the current user.
// DELETE /api/v1/schedule/events/{eventID}
func (h *ScheduleHandler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	userID, err := h.GetUserID(r)
	if err != nil {
		h.HandleError(w, err)
		return
	}

	id, err := h.URLParamUUID(r, "eventID")
	if err != nil {
		h.HandleError(w, err)
		return
	}

	if err := h.scheduleService.DeleteEvent(r.Context(), id, userID); err != nil {
		h.HandleError(w, err)
		return
	}

	h.NoContent(w)
}

// ============================================================================
// Exports
// ============================================================================

// ExportMonth serves a month of events as an .ics download. The payload is
// the exact document produced by the export engine, byte for byte.
// GET /api/v1/schedule/events/export.ics?year=2026&month=3&visibility=external
func (h *ScheduleHandler) ExportMonth(w http.ResponseWriter, r *http.Request) {
	userID, err := h.GetUserID(r)
	if err != nil {
		h.HandleError(w, err)
		return
	}

	year, month := h.yearMonth(r)
	visibility := h.QueryParam(r, "visibility")

	doc, err := h.scheduleService.ExportMonthICS(r.Context(), userID, year, month, visibility)
	if err != nil {
		h.HandleError(w, err)
		return
	}

	h.writeICS(w, doc, fmt.Sprintf("schedule-%04d-%02d.ics", year, month))
}

// ExportEvent serves a single event as an .ics download.
// GET /api/v1/schedule/events/{eventID}/export.ics
func (h *ScheduleHandler) ExportEvent(w http.ResponseWriter, r *http.Request) {
	userID, err := h.GetUserID(r)
	if err != nil {
		h.HandleError(w, err)
		return
	}

	id, err := h.URLParamUUID(r, "eventID")
	if err != nil {
		h.HandleError(w, err)
		return
	}

	doc, err := h.scheduleService.ExportEventICS(r.Context(), id, userID)
	if err != nil {
		h.HandleError(w, err)
		return
	}

	h.writeICS(w, doc, fmt.Sprintf("event-%s.ics", id))
}

// GoogleLink returns an "add to Google Calendar" deep link for an event.
// GET /api/v1/schedule/events/{eventID}/google-link
func (h *ScheduleHandler) GoogleLink(w http.ResponseWriter, r *http.Request) {
	userID, err := h.GetUserID(r)
	if err != nil {
		h.HandleError(w, err)
		return
	}

	id, err := h.URLParamUUID(r, "eventID")
	if err != nil {
		h.HandleError(w, err)
		return
	}

	link, err := h.scheduleService.GoogleLink(r.Context(), id, userID)
	if err != nil {
		h.HandleError(w, err)
		return
	}

	h.OK(w, map[string]string{"url": link})
}

// ============================================================================
// Feed handlers
// ============================================================================

// ListFeeds returns the current user's feed subscriptions.
// GET /api/v1/schedule/feeds
func (h *ScheduleHandler) ListFeeds(w http.ResponseWriter, r *http.Request) {
	userID, err := h.GetUserID(r)
	if err != nil {
		h.HandleError(w, err)
		return
	}

	sources, err := h.feedService.ListSources(r.Context(), userID)
	if err != nil {
		h.HandleError(w, err)
		return
	}

	if sources == nil {
		sources = []*models.FeedSource{}
	}
	h.OK(w, sources)
}

// AddFeed subscribes the current user to an external ICS feed and runs the
// first fetch.
// POST /api/v1/schedule/feeds
func (h *ScheduleHandler) AddFeed(w http.ResponseWriter, r *http.Request) {
	userID, err := h.GetUserID(r)
	if err != nil {
		h.HandleError(w, err)
		return
	}

	var req AddFeedRequest
	if err := h.ParseJSON(r, &req); err != nil {
		h.HandleError(w, err)
		return
	}

	fs := &models.FeedSource{
		UserID: userID,
		Name:   req.Name,
		URL:    req.URL,
	}
	if err := h.feedService.AddSource(r.Context(), fs); err != nil {
		h.HandleError(w, err)
		return
	}

	h.Created(w, fs)
}

// GetFeed returns a single feed subscription.
// GET /api/v1/schedule/feeds/{feedID}
func (h *ScheduleHandler) GetFeed(w http.ResponseWriter, r *http.Request) {
	userID, err := h.GetUserID(r)
	if err != nil {
		h.HandleError(w, err)
		return
	}

	id, err := h.URLParamUUID(r, "feedID")
	if err != nil {
		h.HandleError(w, err)
		return
	}

	fs, err := h.feedService.GetSource(r.Context(), id, userID)
	if err != nil {
		h.HandleError(w, err)
		return
	}

	h.OK(w, fs)
}

// RefreshFeed re-fetches a feed and rematerializes its events.
// POST /api/v1/schedule/feeds/{feedID}/refresh
func (h *ScheduleHandler) RefreshFeed(w http.ResponseWriter, r *http.Request) {
	userID, err := h.GetUserID(r)
	if err != nil {
		h.HandleError(w, err)
		return
	}

	id, err := h.URLParamUUID(r, "feedID")
	if err != nil {
		h.HandleError(w, err)
		return
	}

	fs, err := h.feedService.GetSource(r.Context(), id, userID)
	if err != nil {
		h.HandleError(w, err)
		return
	}

	if err := h.feedService.Refresh(r.Context(), fs); err != nil {
		h.handleFeedError(w, err, fs.URL)
		return
	}

	fs, err = h.feedService.GetSource(r.Context(), id, userID)
	if err != nil {
		h.HandleError(w, err)
		return
	}

	h.OK(w, fs)
}

// RemoveFeed deletes a feed subscription and its imported events.
// DELETE /api/v1/schedule/feeds/{feedID}
func (h *ScheduleHandler) RemoveFeed(w http.ResponseWriter, r *http.Request) {
	userID, err := h.GetUserID(r)
	if err != nil {
		h.HandleError(w, err)
		return
	}

	id, err := h.URLParamUUID(r, "feedID")
	if err != nil {
		h.HandleError(w, err)
		return
	}

	if err := h.feedService.RemoveSource(r.Context(), id, userID); err != nil {
		h.HandleError(w, err)
		return
	}

	h.NoContent(w)
}

// ============================================================================
// Helpers
// ============================================================================

// yearMonth reads year/month query parameters, defaulting to the current
// month.
func (h *ScheduleHandler) yearMonth(r *http.Request) (int, int) {
	now := time.Now()
	year := h.QueryParamInt(r, "year", now.Year())
	month := h.QueryParamInt(r, "month", int(now.Month()))
	return year, month
}

// handleFeedError maps typed feed failures onto their API errors.
func (h *ScheduleHandler) handleFeedError(w http.ResponseWriter, err error, url string) {
	switch {
	case errors.Is(err, feed.ErrFeedUnreachable):
		h.Error(w, apierrors.FeedUnreachable(url))
	case errors.Is(err, feed.ErrFeedInvalid):
		h.Error(w, apierrors.FeedInvalid(err.Error()))
	default:
		h.HandleError(w, err)
	}
}

// writeICS serves an iCalendar document as a file download without touching
// its bytes.
func (h *ScheduleHandler) writeICS(w http.ResponseWriter, doc, filename string) {
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(doc)); err != nil {
		h.logger.Warn("write ics response", "error", err)
	}
}
