// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2025-2026 indiecraft contributors
// https://github.com/Kalfadda/indiecraft

package models

import (
	"time"

	"github.com/google/uuid"
)

// ScheduleEvent represents one entry on the production calendar.
// EventDate is a timezone-naive calendar date ("2006-01-02"); EventTime is an
// optional 24-hour time of day ("15:04" or "15:04:05"). An event without a
// time is an all-day event.
type ScheduleEvent struct {
	ID          uuid.UUID `json:"id" db:"id"`
	UserID      uuid.UUID `json:"user_id" db:"user_id"`
	Title       string    `json:"title" db:"title"`
	Description string    `json:"description,omitempty" db:"description"`
	Type        string    `json:"type" db:"type"`
	EventDate   string    `json:"event_date" db:"event_date"`
	EventTime   *string   `json:"event_time,omitempty" db:"event_time"`
	Visibility  *string   `json:"visibility,omitempty" db:"visibility"`
	IsShared    bool      `json:"is_shared" db:"is_shared"`
	// FeedSourceID is set on events materialized from an external calendar
	// feed. Feed events are read-only through the API.
	FeedSourceID *uuid.UUID `json:"feed_source_id,omitempty" db:"feed_source_id"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"`
}

// AllDay reports whether the event has no time-of-day component.
func (e *ScheduleEvent) AllDay() bool {
	return e.EventTime == nil || *e.EventTime == ""
}

// Schedule event type tags. The set drives UI color metadata only; unknown
// tags are accepted and exported as-is.
const (
	EventTypeMilestone   = "milestone"
	EventTypeDeliverable = "deliverable"
	EventTypeLabel       = "label"
	EventTypePlaytest    = "playtest"
	EventTypeRelease     = "release"
)

// ValidEventTypes is the set of known event type tags.
var ValidEventTypes = map[string]bool{
	EventTypeMilestone:   true,
	EventTypeDeliverable: true,
	EventTypeLabel:       true,
	EventTypePlaytest:    true,
	EventTypeRelease:     true,
}

// Event visibility values.
const (
	VisibilityInternal = "internal"
	VisibilityExternal = "external"
)

// ValidVisibilities is the set of allowed visibility flags.
var ValidVisibilities = map[string]bool{
	VisibilityInternal: true,
	VisibilityExternal: true,
}

// FeedSource represents a subscribed external ICS calendar feed.
type FeedSource struct {
	ID            uuid.UUID  `json:"id" db:"id"`
	UserID        uuid.UUID  `json:"user_id" db:"user_id"`
	Name          string     `json:"name" db:"name"`
	URL           string     `json:"url" db:"url"`
	Enabled       bool       `json:"enabled" db:"enabled"`
	LastFetchedAt *time.Time `json:"last_fetched_at,omitempty" db:"last_fetched_at"`
	LastError     string     `json:"last_error,omitempty" db:"last_error"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at" db:"updated_at"`
}
