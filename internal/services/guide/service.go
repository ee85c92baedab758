// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2025-2026 indiecraft contributors
// https://github.com/Kalfadda/indiecraft

// Package guide manages the knowledge-library articles.
package guide

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/Kalfadda/indiecraft/internal/models"
	"github.com/Kalfadda/indiecraft/internal/pkg/errors"
	"github.com/Kalfadda/indiecraft/internal/pkg/logger"
)

// Store is the repository surface the guide service needs.
type Store interface {
	Create(ctx context.Context, g *models.Guide) error
	Get(ctx context.Context, id uuid.UUID) (*models.Guide, error)
	GetBySlug(ctx context.Context, slug string) (*models.Guide, error)
	List(ctx context.Context, userID uuid.UUID, topic string, includeDrafts bool) ([]*models.Guide, error)
	Search(ctx context.Context, query string) ([]*models.Guide, error)
	Update(ctx context.Context, g *models.Guide) error
	Delete(ctx context.Context, id, authorID uuid.UUID) error
}

// Service manages guides.
type Service struct {
	repo   Store
	logger *logger.Logger
}

// NewService creates a new guide service.
func NewService(repo Store, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{repo: repo, logger: log.Named("guide")}
}

// Create creates a new guide. The slug is derived from the title.
func (s *Service) Create(ctx context.Context, g *models.Guide) error {
	if err := validateGuide(g); err != nil {
		return fmt.Errorf("create guide: validate: %w", err)
	}
	g.Slug = models.Slugify(g.Title)

	if err := s.repo.Create(ctx, g); err != nil {
		return fmt.Errorf("create guide: %w", err)
	}

	s.logger.Info("created guide", "id", g.ID, "slug", g.Slug, "author_id", g.AuthorID)
	return nil
}

// Get retrieves a guide by ID.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.Guide, error) {
	g, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get guide %s: %w", id, err)
	}
	return g, nil
}

// GetBySlug retrieves a guide by its URL slug.
func (s *Service) GetBySlug(ctx context.Context, slug string) (*models.Guide, error) {
	g, err := s.repo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("get guide %q: %w", slug, err)
	}
	return g, nil
}

// List returns guides, optionally filtered by topic. Admins see drafts.
func (s *Service) List(ctx context.Context, userID uuid.UUID, topic string, isAdmin bool) ([]*models.Guide, error) {
	guides, err := s.repo.List(ctx, userID, topic, isAdmin)
	if err != nil {
		return nil, fmt.Errorf("list guides: %w", err)
	}
	return guides, nil
}

// Search returns published guides matching the query.
func (s *Service) Search(ctx context.Context, query string) ([]*models.Guide, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.NewValidationError("search query is required")
	}

	guides, err := s.repo.Search(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("search guides: %w", err)
	}
	return guides, nil
}

// Update updates a guide. A changed title re-derives the slug.
func (s *Service) Update(ctx context.Context, g *models.Guide) error {
	if err := validateGuide(g); err != nil {
		return fmt.Errorf("update guide %s: validate: %w", g.ID, err)
	}
	g.Slug = models.Slugify(g.Title)

	if err := s.repo.Update(ctx, g); err != nil {
		return fmt.Errorf("update guide %s: %w", g.ID, err)
	}

	s.logger.Info("updated guide", "id", g.ID, "slug", g.Slug)
	return nil
}

// Delete deletes a guide.
func (s *Service) Delete(ctx context.Context, id, authorID uuid.UUID) error {
	if err := s.repo.Delete(ctx, id, authorID); err != nil {
		return fmt.Errorf("delete guide %s: %w", id, err)
	}

	s.logger.Info("deleted guide", "id", id)
	return nil
}

func validateGuide(g *models.Guide) error {
	if g.Title == "" {
		return errors.NewValidationError("title is required")
	}
	if models.Slugify(g.Title) == "" {
		return errors.NewValidationError("title must contain letters or digits")
	}
	if g.Body == "" {
		return errors.NewValidationError("body is required")
	}
	return nil
}
