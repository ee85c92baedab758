// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2025-2026 indiecraft contributors
// https://github.com/Kalfadda/indiecraft

// Package schedule manages the production calendar and its exports.
package schedule

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Kalfadda/indiecraft/internal/ics"
	"github.com/Kalfadda/indiecraft/internal/models"
	"github.com/Kalfadda/indiecraft/internal/pkg/errors"
	"github.com/Kalfadda/indiecraft/internal/pkg/logger"
)

const dateLayout = "2006-01-02"

// EventStore is the repository surface the schedule service needs.
type EventStore interface {
	CreateEvent(ctx context.Context, ev *models.ScheduleEvent) error
	GetEvent(ctx context.Context, id, userID uuid.UUID) (*models.ScheduleEvent, error)
	ListEventsByMonth(ctx context.Context, userID uuid.UUID, year, month int) ([]*models.ScheduleEvent, error)
	ListEventsByRange(ctx context.Context, userID uuid.UUID, from, to string) ([]*models.ScheduleEvent, error)
	UpdateEvent(ctx context.Context, ev *models.ScheduleEvent) error
	DeleteEvent(ctx context.Context, id, userID uuid.UUID) error
}

// ExportCache caches rendered month exports. Both methods are best-effort; a
// failed lookup is a miss.
type ExportCache interface {
	GetMonth(ctx context.Context, userID uuid.UUID, year, month int, visibility string) (string, bool)
	SetMonth(ctx context.Context, userID uuid.UUID, year, month int, visibility, doc string)
}

// Service manages schedule events and their calendar exports.
type Service struct {
	repo     EventStore
	builder  *ics.Builder
	timezone *time.Location
	cache    ExportCache
	logger   *logger.Logger
}

// NewService creates a new schedule service. timezone states which local
// timezone timed events belong to when building Google Calendar links; nil
// means UTC.
func NewService(repo EventStore, builder *ics.Builder, timezone *time.Location, log *logger.Logger) *Service {
	if builder == nil {
		builder = ics.NewBuilder()
	}
	if timezone == nil {
		timezone = time.UTC
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		repo:     repo,
		builder:  builder,
		timezone: timezone,
		logger:   log.Named("schedule"),
	}
}

// WithExportCache attaches a cache for rendered month exports and returns the
// service.
func (s *Service) WithExportCache(cache ExportCache) *Service {
	s.cache = cache
	return s
}

// CreateEvent creates a new schedule event after validation.
func (s *Service) CreateEvent(ctx context.Context, ev *models.ScheduleEvent) error {
	if err := s.validateEvent(ev); err != nil {
		return fmt.Errorf("create schedule event: validate: %w", err)
	}
	// Feed events are materialized by the feed service only.
	ev.FeedSourceID = nil

	if err := s.repo.CreateEvent(ctx, ev); err != nil {
		return fmt.Errorf("create schedule event: %w", err)
	}

	s.logger.Info("created schedule event",
		"id", ev.ID,
		"title", ev.Title,
		"user_id", ev.UserID,
		"date", ev.EventDate,
	)
	return nil
}

// GetEvent retrieves a schedule event by ID.
func (s *Service) GetEvent(ctx context.Context, id, userID uuid.UUID) (*models.ScheduleEvent, error) {
	ev, err := s.repo.GetEvent(ctx, id, userID)
	if err != nil {
		return nil, fmt.Errorf("get schedule event %s: %w", id, err)
	}
	return ev, nil
}

// ListEventsByMonth returns events for a given year/month.
func (s *Service) ListEventsByMonth(ctx context.Context, userID uuid.UUID, year, month int) ([]*models.ScheduleEvent, error) {
	if err := validateMonth(year, month); err != nil {
		return nil, err
	}

	events, err := s.repo.ListEventsByMonth(ctx, userID, year, month)
	if err != nil {
		return nil, fmt.Errorf("list schedule events for %d-%02d: %w", year, month, err)
	}
	return events, nil
}

// UpdateEvent updates a schedule event.
func (s *Service) UpdateEvent(ctx context.Context, ev *models.ScheduleEvent) error {
	if err := s.validateEvent(ev); err != nil {
		return fmt.Errorf("update schedule event %s: validate: %w", ev.ID, err)
	}

	if err := s.repo.UpdateEvent(ctx, ev); err != nil {
		return fmt.Errorf("update schedule event %s: %w", ev.ID, err)
	}

	s.logger.Info("updated schedule event", "id", ev.ID, "title", ev.Title, "user_id", ev.UserID)
	return nil
}

// DeleteEvent deletes a schedule event.
func (s *Service) DeleteEvent(ctx context.Context, id, userID uuid.UUID) error {
	if err := s.repo.DeleteEvent(ctx, id, userID); err != nil {
		return fmt.Errorf("delete schedule event %s: %w", id, err)
	}

	s.logger.Info("deleted schedule event", "id", id, "user_id", userID)
	return nil
}

// ============================================================================
// Exports
// ============================================================================

// ExportMonthICS renders a month of events as an iCalendar document.
// visibility filters to events carrying that visibility tag; empty means all
// events. The returned string is the exact file payload, CRLF line endings
// included.
func (s *Service) ExportMonthICS(ctx context.Context, userID uuid.UUID, year, month int, visibility string) (string, error) {
	if err := validateMonth(year, month); err != nil {
		return "", err
	}
	if visibility != "" && !models.ValidVisibilities[visibility] {
		return "", errors.NewValidationError("invalid visibility: " + visibility)
	}

	if s.cache != nil {
		if doc, ok := s.cache.GetMonth(ctx, userID, year, month, visibility); ok {
			return doc, nil
		}
	}

	events, err := s.repo.ListEventsByMonth(ctx, userID, year, month)
	if err != nil {
		return "", fmt.Errorf("export %d-%02d: %w", year, month, err)
	}

	var icsEvents []ics.Event
	for _, ev := range events {
		if visibility != "" && (ev.Visibility == nil || *ev.Visibility != visibility) {
			continue
		}
		icsEvents = append(icsEvents, toICSEvent(ev))
	}

	name := fmt.Sprintf("%s %04d-%02d", s.builder.CalendarName, year, month)
	doc, err := s.builder.Calendar(icsEvents, name)
	if err != nil {
		return "", fmt.Errorf("export %d-%02d: %w", year, month, err)
	}

	if s.cache != nil {
		s.cache.SetMonth(ctx, userID, year, month, visibility, doc)
	}
	return doc, nil
}

// ExportEventICS renders a single event as an iCalendar document.
func (s *Service) ExportEventICS(ctx context.Context, id, userID uuid.UUID) (string, error) {
	ev, err := s.repo.GetEvent(ctx, id, userID)
	if err != nil {
		return "", fmt.Errorf("export event %s: %w", id, err)
	}

	doc, err := s.builder.Calendar([]ics.Event{toICSEvent(ev)}, s.builder.CalendarName)
	if err != nil {
		return "", fmt.Errorf("export event %s: %w", id, err)
	}
	return doc, nil
}

// GoogleLink builds an "add to Google Calendar" deep link for an event. Timed
// events are interpreted in the service's configured timezone.
func (s *Service) GoogleLink(ctx context.Context, id, userID uuid.UUID) (string, error) {
	ev, err := s.repo.GetEvent(ctx, id, userID)
	if err != nil {
		return "", fmt.Errorf("google link for %s: %w", id, err)
	}

	link, err := s.builder.GoogleLink(toICSEvent(ev), s.timezone)
	if err != nil {
		return "", fmt.Errorf("google link for %s: %w", id, err)
	}
	return link, nil
}

// ============================================================================
// Validation
// ============================================================================

func (s *Service) validateEvent(ev *models.ScheduleEvent) error {
	if ev.Title == "" {
		return errors.NewValidationError("title is required")
	}
	if ev.EventDate == "" {
		return errors.NewValidationError("event_date is required")
	}
	if _, err := time.Parse(dateLayout, ev.EventDate); err != nil {
		return errors.NewValidationError("event_date must be YYYY-MM-DD")
	}
	if ev.EventTime != nil && *ev.EventTime != "" {
		if !validClock(*ev.EventTime) {
			return errors.NewValidationError("event_time must be HH:MM or HH:MM:SS")
		}
	}
	// Unknown type tags are allowed; they only drive display metadata. An
	// empty tag gets the neutral default.
	if ev.Type == "" {
		ev.Type = models.EventTypeLabel
	}
	if ev.Visibility != nil && *ev.Visibility != "" && !models.ValidVisibilities[*ev.Visibility] {
		return errors.NewValidationError("invalid visibility: " + *ev.Visibility)
	}
	return nil
}

func validateMonth(year, month int) error {
	if month < 1 || month > 12 {
		return errors.NewValidationError("month must be between 1 and 12")
	}
	if year < 2000 || year > 2100 {
		return errors.NewValidationError("year must be between 2000 and 2100")
	}
	return nil
}

func validClock(v string) bool {
	for _, layout := range []string{"15:04", "15:04:05"} {
		if _, err := time.Parse(layout, v); err == nil {
			return true
		}
	}
	return false
}

func toICSEvent(ev *models.ScheduleEvent) ics.Event {
	out := ics.Event{
		ID:          ev.ID.String(),
		Title:       ev.Title,
		Description: ev.Description,
		Type:        ev.Type,
		Date:        ev.EventDate,
	}
	if ev.EventTime != nil {
		out.Time = *ev.EventTime
	}
	if ev.Visibility != nil {
		out.Visibility = *ev.Visibility
	}
	return out
}
