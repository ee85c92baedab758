// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2025-2026 indiecraft contributors
// https://github.com/Kalfadda/indiecraft

// Package board manages the team bulletin board.
package board

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/Kalfadda/indiecraft/internal/models"
	"github.com/Kalfadda/indiecraft/internal/pkg/errors"
	"github.com/Kalfadda/indiecraft/internal/pkg/logger"
)

// Store is the repository surface the board service needs.
type Store interface {
	Create(ctx context.Context, n *models.BoardNote) error
	Get(ctx context.Context, id, userID uuid.UUID) (*models.BoardNote, error)
	List(ctx context.Context, userID uuid.UUID) ([]*models.BoardNote, error)
	Update(ctx context.Context, n *models.BoardNote) error
	Delete(ctx context.Context, id, userID uuid.UUID) error
}

// Service manages bulletin-board notes.
type Service struct {
	repo   Store
	logger *logger.Logger
}

// NewService creates a new board service.
func NewService(repo Store, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{repo: repo, logger: log.Named("board")}
}

// Create creates a new note after validation.
func (s *Service) Create(ctx context.Context, n *models.BoardNote) error {
	if n.Title == "" {
		return errors.NewValidationError("title is required")
	}

	if err := s.repo.Create(ctx, n); err != nil {
		return fmt.Errorf("create board note: %w", err)
	}

	s.logger.Info("created board note", "id", n.ID, "title", n.Title, "user_id", n.UserID)
	return nil
}

// Get retrieves a note by ID.
func (s *Service) Get(ctx context.Context, id, userID uuid.UUID) (*models.BoardNote, error) {
	n, err := s.repo.Get(ctx, id, userID)
	if err != nil {
		return nil, fmt.Errorf("get board note %s: %w", id, err)
	}
	return n, nil
}

// List returns notes visible to the user, pinned first.
func (s *Service) List(ctx context.Context, userID uuid.UUID) ([]*models.BoardNote, error) {
	notes, err := s.repo.List(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list board notes: %w", err)
	}
	return notes, nil
}

// Update updates a note.
func (s *Service) Update(ctx context.Context, n *models.BoardNote) error {
	if n.Title == "" {
		return errors.NewValidationError("title is required")
	}

	if err := s.repo.Update(ctx, n); err != nil {
		return fmt.Errorf("update board note %s: %w", n.ID, err)
	}

	s.logger.Info("updated board note", "id", n.ID)
	return nil
}

// Delete deletes a note.
func (s *Service) Delete(ctx context.Context, id, userID uuid.UUID) error {
	if err := s.repo.Delete(ctx, id, userID); err != nil {
		return fmt.Errorf("delete board note %s: %w", id, err)
	}

	s.logger.Info("deleted board note", "id", id)
	return nil
}
