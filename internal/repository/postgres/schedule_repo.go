// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2025-2026 indiecraft contributors
// https://github.com/Kalfadda/indiecraft

package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/Kalfadda/indiecraft/internal/models"
)

// ScheduleRepository handles CRUD operations for schedule events and feed
// sources.
type ScheduleRepository struct {
	db *DB
}

// NewScheduleRepository creates a new schedule repository.
func NewScheduleRepository(db *DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

const scheduleEventColumns = `id, user_id, title, description, type,
	event_date::text, event_time::text, visibility, is_shared, feed_source_id,
	created_at, updated_at`

func scanScheduleEvent(row interface{ Scan(...any) error }) (*models.ScheduleEvent, error) {
	ev := &models.ScheduleEvent{}
	err := row.Scan(
		&ev.ID, &ev.UserID, &ev.Title, &ev.Description, &ev.Type,
		&ev.EventDate, &ev.EventTime, &ev.Visibility, &ev.IsShared,
		&ev.FeedSourceID, &ev.CreatedAt, &ev.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return ev, nil
}

// CreateEvent creates a new schedule event.
func (r *ScheduleRepository) CreateEvent(ctx context.Context, ev *models.ScheduleEvent) error {
	if ev.ID == uuid.Nil {
		ev.ID = uuid.New()
	}

	_, err := r.db.Exec(ctx, `
		INSERT INTO schedule_events (id, user_id, title, description, type, event_date, event_time, visibility, is_shared, feed_source_id)
		VALUES ($1,$2,$3,$4,$5,$6::date,$7::time,$8,$9,$10)`,
		ev.ID, ev.UserID, ev.Title, ev.Description, ev.Type,
		ev.EventDate, ev.EventTime, ev.Visibility, ev.IsShared, ev.FeedSourceID,
	)
	return err
}

// GetEvent retrieves a schedule event by ID, visible to the given user.
func (r *ScheduleRepository) GetEvent(ctx context.Context, id, userID uuid.UUID) (*models.ScheduleEvent, error) {
	return scanScheduleEvent(r.db.QueryRow(ctx, `
		SELECT `+scheduleEventColumns+`
		FROM schedule_events
		WHERE id = $1 AND (user_id = $2 OR is_shared = TRUE)`, id, userID))
}

// ListEventsByMonth returns events for a given year/month visible to the user.
func (r *ScheduleRepository) ListEventsByMonth(ctx context.Context, userID uuid.UUID, year, month int) ([]*models.ScheduleEvent, error) {
	startDate := fmt.Sprintf("%04d-%02d-01", year, month)
	// Interval arithmetic covers the month end regardless of its length.
	rows, err := r.db.Query(ctx, `
		SELECT `+scheduleEventColumns+`
		FROM schedule_events
		WHERE (user_id = $1 OR is_shared = TRUE)
		  AND event_date >= $2::date
		  AND event_date < ($2::date + INTERVAL '1 month')
		ORDER BY event_date, event_time NULLS LAST`,
		userID, startDate,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*models.ScheduleEvent
	for rows.Next() {
		ev, err := scanScheduleEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

// ListEventsByRange returns events visible to the user with event_date in
// [from, to), both "2006-01-02" strings.
func (r *ScheduleRepository) ListEventsByRange(ctx context.Context, userID uuid.UUID, from, to string) ([]*models.ScheduleEvent, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+scheduleEventColumns+`
		FROM schedule_events
		WHERE (user_id = $1 OR is_shared = TRUE)
		  AND event_date >= $2::date
		  AND event_date < $3::date
		ORDER BY event_date, event_time NULLS LAST`,
		userID, from, to,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*models.ScheduleEvent
	for rows.Next() {
		ev, err := scanScheduleEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

// ListAllEventsByRange returns every event with event_date in [from, to),
// regardless of owner or sharing. Used by background jobs, never by request
// handlers.
func (r *ScheduleRepository) ListAllEventsByRange(ctx context.Context, from, to string) ([]*models.ScheduleEvent, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+scheduleEventColumns+`
		FROM schedule_events
		WHERE event_date >= $1::date
		  AND event_date < $2::date
		ORDER BY event_date, event_time NULLS LAST`,
		from, to,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*models.ScheduleEvent
	for rows.Next() {
		ev, err := scanScheduleEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

// UpdateEvent updates a schedule event. Only the owner can update, and feed
// events are immutable through this path.
func (r *ScheduleRepository) UpdateEvent(ctx context.Context, ev *models.ScheduleEvent) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE schedule_events SET
			title=$3, description=$4, type=$5, event_date=$6::date,
			event_time=$7::time, visibility=$8, is_shared=$9, updated_at=NOW()
		WHERE id=$1 AND user_id=$2 AND feed_source_id IS NULL`,
		ev.ID, ev.UserID, ev.Title, ev.Description, ev.Type,
		ev.EventDate, ev.EventTime, ev.Visibility, ev.IsShared,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteEvent deletes a schedule event. Only the owner can delete.
func (r *ScheduleRepository) DeleteEvent(ctx context.Context, id, userID uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `
		DELETE FROM schedule_events
		WHERE id = $1 AND user_id = $2 AND feed_source_id IS NULL`, id, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ============================================================================
// Feed sources
// ============================================================================

// CreateFeedSource registers a new external calendar feed.
func (r *ScheduleRepository) CreateFeedSource(ctx context.Context, fs *models.FeedSource) error {
	if fs.ID == uuid.Nil {
		fs.ID = uuid.New()
	}

	_, err := r.db.Exec(ctx, `
		INSERT INTO feed_sources (id, user_id, name, url, enabled)
		VALUES ($1,$2,$3,$4,$5)`,
		fs.ID, fs.UserID, fs.Name, fs.URL, fs.Enabled,
	)
	return err
}

// GetFeedSource retrieves a feed source owned by the given user.
func (r *ScheduleRepository) GetFeedSource(ctx context.Context, id, userID uuid.UUID) (*models.FeedSource, error) {
	fs := &models.FeedSource{}
	err := r.db.QueryRow(ctx, `
		SELECT id, user_id, name, url, enabled, last_fetched_at, last_error, created_at, updated_at
		FROM feed_sources
		WHERE id = $1 AND user_id = $2`, id, userID).Scan(
		&fs.ID, &fs.UserID, &fs.Name, &fs.URL, &fs.Enabled,
		&fs.LastFetchedAt, &fs.LastError, &fs.CreatedAt, &fs.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return fs, nil
}

// ListFeedSources returns the user's feed sources.
func (r *ScheduleRepository) ListFeedSources(ctx context.Context, userID uuid.UUID) ([]*models.FeedSource, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, user_id, name, url, enabled, last_fetched_at, last_error, created_at, updated_at
		FROM feed_sources
		WHERE user_id = $1
		ORDER BY created_at`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sources []*models.FeedSource
	for rows.Next() {
		fs := &models.FeedSource{}
		if err := rows.Scan(
			&fs.ID, &fs.UserID, &fs.Name, &fs.URL, &fs.Enabled,
			&fs.LastFetchedAt, &fs.LastError, &fs.CreatedAt, &fs.UpdatedAt,
		); err != nil {
			return nil, err
		}
		sources = append(sources, fs)
	}
	return sources, rows.Err()
}

// ListEnabledFeedSources returns every enabled feed source across all users.
// Used by the background refresh job.
func (r *ScheduleRepository) ListEnabledFeedSources(ctx context.Context) ([]*models.FeedSource, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, user_id, name, url, enabled, last_fetched_at, last_error, created_at, updated_at
		FROM feed_sources
		WHERE enabled = TRUE
		ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sources []*models.FeedSource
	for rows.Next() {
		fs := &models.FeedSource{}
		if err := rows.Scan(
			&fs.ID, &fs.UserID, &fs.Name, &fs.URL, &fs.Enabled,
			&fs.LastFetchedAt, &fs.LastError, &fs.CreatedAt, &fs.UpdatedAt,
		); err != nil {
			return nil, err
		}
		sources = append(sources, fs)
	}
	return sources, rows.Err()
}

// MarkFeedFetched records the outcome of a feed refresh.
func (r *ScheduleRepository) MarkFeedFetched(ctx context.Context, id uuid.UUID, fetchErr string) error {
	_, err := r.db.Exec(ctx, `
		UPDATE feed_sources
		SET last_fetched_at = NOW(), last_error = $2, updated_at = NOW()
		WHERE id = $1`, id, fetchErr)
	return err
}

// DeleteFeedSource removes a feed source and cascades to its materialized
// events.
func (r *ScheduleRepository) DeleteFeedSource(ctx context.Context, id, userID uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM feed_sources WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ReplaceFeedEvents swaps the materialized events of a feed source for a
// fresh set, atomically.
func (r *ScheduleRepository) ReplaceFeedEvents(ctx context.Context, feedID uuid.UUID, events []*models.ScheduleEvent) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM schedule_events WHERE feed_source_id = $1`, feedID); err != nil {
		return err
	}
	for _, ev := range events {
		if ev.ID == uuid.Nil {
			ev.ID = uuid.New()
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO schedule_events (id, user_id, title, description, type, event_date, event_time, visibility, is_shared, feed_source_id)
			VALUES ($1,$2,$3,$4,$5,$6::date,$7::time,$8,$9,$10)`,
			ev.ID, ev.UserID, ev.Title, ev.Description, ev.Type,
			ev.EventDate, ev.EventTime, ev.Visibility, ev.IsShared, feedID,
		); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}
