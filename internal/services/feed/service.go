// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2025-2026 indiecraft contributors
// https://github.com/Kalfadda/indiecraft

// Package feed subscribes to external ICS calendar feeds and materializes
// their events into the schedule.
package feed

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/Kalfadda/indiecraft/internal/models"
	"github.com/Kalfadda/indiecraft/internal/pkg/errors"
	"github.com/Kalfadda/indiecraft/internal/pkg/logger"
)

// Typed feed failures, distinguishable by the API layer.
var (
	ErrFeedUnreachable = stderrors.New("feed unreachable")
	ErrFeedInvalid     = stderrors.New("feed is not a valid calendar")
)

const (
	// fetchTimeout bounds a single feed download.
	fetchTimeout = 30 * time.Second

	// maxFeedBytes bounds the response body; a team calendar export should
	// never get near this.
	maxFeedBytes = 5 << 20

	// Materialization window around now. Past events beyond lookBehind are
	// dropped on each refresh.
	lookBehind = 31 * 24 * time.Hour
	lookAhead  = 183 * 24 * time.Hour
)

// Store is the repository surface the feed service needs.
type Store interface {
	CreateFeedSource(ctx context.Context, fs *models.FeedSource) error
	GetFeedSource(ctx context.Context, id, userID uuid.UUID) (*models.FeedSource, error)
	ListFeedSources(ctx context.Context, userID uuid.UUID) ([]*models.FeedSource, error)
	ListEnabledFeedSources(ctx context.Context) ([]*models.FeedSource, error)
	MarkFeedFetched(ctx context.Context, id uuid.UUID, fetchErr string) error
	DeleteFeedSource(ctx context.Context, id, userID uuid.UUID) error
	ReplaceFeedEvents(ctx context.Context, feedID uuid.UUID, events []*models.ScheduleEvent) error
}

// Service manages external calendar feed subscriptions.
type Service struct {
	repo   Store
	client *http.Client
	now    func() time.Time
	logger *logger.Logger
}

// NewService creates a new feed service.
func NewService(repo Store, client *http.Client, log *logger.Logger) *Service {
	if client == nil {
		client = &http.Client{Timeout: fetchTimeout}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		repo:   repo,
		client: client,
		now:    time.Now,
		logger: log.Named("feed"),
	}
}

// AddSource subscribes a user to an ICS feed and performs the initial
// refresh. A feed that fails its first fetch is still saved; the error is
// recorded on the source.
func (s *Service) AddSource(ctx context.Context, fs *models.FeedSource) error {
	if err := validateSource(fs); err != nil {
		return fmt.Errorf("add feed source: validate: %w", err)
	}
	fs.Enabled = true

	if err := s.repo.CreateFeedSource(ctx, fs); err != nil {
		return fmt.Errorf("add feed source: %w", err)
	}
	s.logger.Info("added feed source", "id", fs.ID, "url", fs.URL, "user_id", fs.UserID)

	if err := s.Refresh(ctx, fs); err != nil {
		s.logger.Warn("initial feed refresh failed", "id", fs.ID, "error", err)
	}
	return nil
}

// GetSource retrieves a feed source owned by the given user.
func (s *Service) GetSource(ctx context.Context, id, userID uuid.UUID) (*models.FeedSource, error) {
	fs, err := s.repo.GetFeedSource(ctx, id, userID)
	if err != nil {
		return nil, fmt.Errorf("get feed source %s: %w", id, err)
	}
	return fs, nil
}

// ListSources returns the user's feed subscriptions.
func (s *Service) ListSources(ctx context.Context, userID uuid.UUID) ([]*models.FeedSource, error) {
	sources, err := s.repo.ListFeedSources(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list feed sources: %w", err)
	}
	return sources, nil
}

// RemoveSource deletes a subscription. Materialized events cascade away with
// the source row.
func (s *Service) RemoveSource(ctx context.Context, id, userID uuid.UUID) error {
	if err := s.repo.DeleteFeedSource(ctx, id, userID); err != nil {
		return fmt.Errorf("remove feed source %s: %w", id, err)
	}
	s.logger.Info("removed feed source", "id", id)
	return nil
}

// RefreshSource re-fetches a single feed on behalf of its owner.
func (s *Service) RefreshSource(ctx context.Context, id, userID uuid.UUID) error {
	fs, err := s.repo.GetFeedSource(ctx, id, userID)
	if err != nil {
		return fmt.Errorf("refresh feed source %s: %w", id, err)
	}
	return s.Refresh(ctx, fs)
}

// RefreshAll re-fetches every enabled feed. Failures are recorded per source
// and do not stop the sweep.
func (s *Service) RefreshAll(ctx context.Context) error {
	sources, err := s.repo.ListEnabledFeedSources(ctx)
	if err != nil {
		return fmt.Errorf("refresh feeds: %w", err)
	}

	var failed int
	for _, fs := range sources {
		if err := s.Refresh(ctx, fs); err != nil {
			failed++
			s.logger.Warn("feed refresh failed", "id", fs.ID, "url", fs.URL, "error", err)
		}
	}

	s.logger.Info("feed refresh sweep done", "total", len(sources), "failed", failed)
	if failed > 0 {
		return fmt.Errorf("refresh feeds: %d of %d failed", failed, len(sources))
	}
	return nil
}

// Refresh downloads the feed, expands its events within the materialization
// window, and swaps the stored events atomically. The fetch outcome is
// recorded on the source either way.
func (s *Service) Refresh(ctx context.Context, fs *models.FeedSource) error {
	events, err := s.fetch(ctx, fs)
	if err != nil {
		if markErr := s.repo.MarkFeedFetched(ctx, fs.ID, err.Error()); markErr != nil {
			s.logger.Error("failed to record feed error", "id", fs.ID, "error", markErr)
		}
		return fmt.Errorf("refresh feed %s: %w", fs.ID, err)
	}

	if err := s.repo.ReplaceFeedEvents(ctx, fs.ID, events); err != nil {
		return fmt.Errorf("refresh feed %s: store events: %w", fs.ID, err)
	}
	if err := s.repo.MarkFeedFetched(ctx, fs.ID, ""); err != nil {
		return fmt.Errorf("refresh feed %s: %w", fs.ID, err)
	}

	s.logger.Info("refreshed feed", "id", fs.ID, "events", len(events))
	return nil
}

func (s *Service) fetch(ctx context.Context, fs *models.FeedSource) ([]*models.ScheduleEvent, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fs.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "text/calendar")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFeedUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: unexpected status %d", ErrFeedUnreachable, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFeedBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	now := s.now()
	occs, err := parseOccurrences(body, now.Add(-lookBehind), now.Add(lookAhead))
	if err != nil {
		return nil, err
	}

	events := make([]*models.ScheduleEvent, 0, len(occs))
	for _, occ := range occs {
		events = append(events, s.toEvent(fs, occ))
	}
	return events, nil
}

// toEvent maps an expanded occurrence onto a schedule event owned by the
// subscriber. Feed events are never shared and carry the label type.
func (s *Service) toEvent(fs *models.FeedSource, occ occurrence) *models.ScheduleEvent {
	ev := &models.ScheduleEvent{
		UserID:       fs.UserID,
		Title:        occ.Summary,
		Description:  "Imported from " + fs.Name,
		Type:         models.EventTypeLabel,
		EventDate:    occ.Start.Format("2006-01-02"),
		IsShared:     false,
		FeedSourceID: &fs.ID,
	}
	if ev.Title == "" {
		ev.Title = "(untitled)"
	}
	if !occ.AllDay {
		t := occ.Start.Format("15:04")
		ev.EventTime = &t
	}
	return ev
}

func validateSource(fs *models.FeedSource) error {
	if fs.Name == "" {
		return errors.NewValidationError("name is required")
	}
	u, err := url.Parse(fs.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errors.NewValidationError("url must be an absolute http(s) URL")
	}
	return nil
}
