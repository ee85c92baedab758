// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2025-2026 indiecraft contributors
// https://github.com/Kalfadda/indiecraft

package scheduler

import (
	"context"
	"time"

	"github.com/Kalfadda/indiecraft/internal/models"
	"github.com/Kalfadda/indiecraft/internal/pkg/logger"
)

const dateLayout = "2006-01-02"

// FeedRefresher re-imports all enabled calendar feed subscriptions.
type FeedRefresher interface {
	RefreshAll(ctx context.Context) error
}

// SessionPruner drops stale entries from the session tracking sets.
type SessionPruner interface {
	PruneExpired(ctx context.Context) (int, error)
}

// EventLister returns every schedule event in a [from, to) date range.
type EventLister interface {
	ListAllEventsByRange(ctx context.Context, from, to string) ([]*models.ScheduleEvent, error)
}

// ============================================================================
// Feed refresh
// ============================================================================

// FeedRefreshJob periodically re-fetches all enabled feed subscriptions.
type FeedRefreshJob struct {
	feeds    FeedRefresher
	schedule string
}

// NewFeedRefreshJob creates the feed refresh job. An empty schedule defaults
// to hourly.
func NewFeedRefreshJob(feeds FeedRefresher, schedule string) *FeedRefreshJob {
	if schedule == "" {
		schedule = "@every 1h"
	}
	return &FeedRefreshJob{feeds: feeds, schedule: schedule}
}

func (j *FeedRefreshJob) Name() string     { return "feed_refresh" }
func (j *FeedRefreshJob) Schedule() string { return j.schedule }

// Run refreshes every enabled feed. Per-feed failures are recorded on the
// source by the feed service and do not fail the job.
func (j *FeedRefreshJob) Run(ctx context.Context) error {
	return j.feeds.RefreshAll(ctx)
}

// ============================================================================
// Session prune
// ============================================================================

// SessionPruneJob keeps the per-user session tracking sets free of expired
// session IDs.
type SessionPruneJob struct {
	sessions SessionPruner
	schedule string
	logger   *logger.Logger
}

// NewSessionPruneJob creates the session prune job. An empty schedule
// defaults to every six hours.
func NewSessionPruneJob(sessions SessionPruner, schedule string, log *logger.Logger) *SessionPruneJob {
	if schedule == "" {
		schedule = "@every 6h"
	}
	if log == nil {
		log = logger.Nop()
	}
	return &SessionPruneJob{sessions: sessions, schedule: schedule, logger: log.Named("session_prune")}
}

func (j *SessionPruneJob) Name() string     { return "session_prune" }
func (j *SessionPruneJob) Schedule() string { return j.schedule }

func (j *SessionPruneJob) Run(ctx context.Context) error {
	pruned, err := j.sessions.PruneExpired(ctx)
	if err != nil {
		return err
	}
	if pruned > 0 {
		j.logger.Info("pruned stale session entries", "count", pruned)
	}
	return nil
}

// ============================================================================
// Deadline digest
// ============================================================================

// DeadlineDigestJob logs the events coming up within the next day so that the
// server log doubles as a morning digest.
type DeadlineDigestJob struct {
	events   EventLister
	schedule string
	logger   *logger.Logger

	// now is swapped in tests.
	now func() time.Time
}

// NewDeadlineDigestJob creates the digest job. An empty schedule defaults to
// 06:00 daily.
func NewDeadlineDigestJob(events EventLister, schedule string, log *logger.Logger) *DeadlineDigestJob {
	if schedule == "" {
		schedule = "0 6 * * *"
	}
	if log == nil {
		log = logger.Nop()
	}
	return &DeadlineDigestJob{
		events:   events,
		schedule: schedule,
		logger:   log.Named("deadline_digest"),
		now:      time.Now,
	}
}

func (j *DeadlineDigestJob) Name() string     { return "deadline_digest" }
func (j *DeadlineDigestJob) Schedule() string { return j.schedule }

func (j *DeadlineDigestJob) Run(ctx context.Context) error {
	today := j.now()
	from := today.Format(dateLayout)
	to := today.AddDate(0, 0, 2).Format(dateLayout)

	events, err := j.events.ListAllEventsByRange(ctx, from, to)
	if err != nil {
		return err
	}
	if len(events) == 0 {
		return nil
	}

	j.logger.Info("upcoming events", "count", len(events), "from", from)
	for _, ev := range events {
		j.logger.Info("upcoming event",
			"title", ev.Title,
			"date", ev.EventDate,
			"type", ev.Type,
			"user_id", ev.UserID,
		)
	}
	return nil
}
