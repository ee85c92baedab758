// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2025-2026 indiecraft contributors
// https://github.com/Kalfadda/indiecraft

// Package request manages asset requests and their review workflow.
package request

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/Kalfadda/indiecraft/internal/models"
	"github.com/Kalfadda/indiecraft/internal/pkg/errors"
	"github.com/Kalfadda/indiecraft/internal/pkg/logger"
)

// Store is the repository surface the request service needs.
type Store interface {
	Create(ctx context.Context, req *models.AssetRequest) error
	Get(ctx context.Context, id uuid.UUID) (*models.AssetRequest, error)
	List(ctx context.Context, status string) ([]*models.AssetRequest, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string, reviewerID *uuid.UUID, reviewerNote string, assetID *uuid.UUID) error
	Delete(ctx context.Context, id, userID uuid.UUID) error
}

// AssetCreator creates assets from approved requests.
type AssetCreator interface {
	Create(ctx context.Context, a *models.Asset) error
}

// Service manages asset requests: submission, review, and fulfillment.
type Service struct {
	repo   Store
	assets AssetCreator
	logger *logger.Logger
}

// NewService creates a new request service.
func NewService(repo Store, assets AssetCreator, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{repo: repo, assets: assets, logger: log.Named("request")}
}

// Submit files a new asset request in the pending state.
func (s *Service) Submit(ctx context.Context, req *models.AssetRequest) error {
	if req.Title == "" {
		return errors.NewValidationError("title is required")
	}
	if !models.ValidAssetCategories[req.Category] {
		return errors.NewValidationError("invalid category: " + req.Category)
	}
	req.Status = models.RequestStatusPending

	if err := s.repo.Create(ctx, req); err != nil {
		return fmt.Errorf("submit request: %w", err)
	}

	s.logger.Info("submitted asset request", "id", req.ID, "title", req.Title, "user_id", req.UserID)
	return nil
}

// Get retrieves a request by ID.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.AssetRequest, error) {
	req, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get request %s: %w", id, err)
	}
	return req, nil
}

// List returns requests, optionally filtered by status.
func (s *Service) List(ctx context.Context, status string) ([]*models.AssetRequest, error) {
	if status != "" && !models.ValidRequestStatuses[status] {
		return nil, errors.NewValidationError("invalid status: " + status)
	}

	requests, err := s.repo.List(ctx, status)
	if err != nil {
		return nil, fmt.Errorf("list requests: %w", err)
	}
	return requests, nil
}

// Approve moves a pending request to approved and creates the matching asset
// in the concept phase, owned by the requester.
func (s *Service) Approve(ctx context.Context, id, reviewerID uuid.UUID, note string) (*models.AssetRequest, error) {
	req, err := s.transition(ctx, id, models.RequestStatusApproved)
	if err != nil {
		return nil, err
	}

	asset := &models.Asset{
		UserID:      req.UserID,
		Name:        req.Title,
		Description: req.Details,
		Category:    req.Category,
		Phase:       models.AssetPhaseConcept,
		Priority:    models.AssetPriorityNormal,
		IsShared:    true,
	}
	if err := s.assets.Create(ctx, asset); err != nil {
		return nil, fmt.Errorf("approve request %s: create asset: %w", id, err)
	}

	if err := s.repo.UpdateStatus(ctx, id, models.RequestStatusApproved, &reviewerID, note, &asset.ID); err != nil {
		return nil, fmt.Errorf("approve request %s: %w", id, err)
	}

	req.Status = models.RequestStatusApproved
	req.ReviewerID = &reviewerID
	req.ReviewerNote = note
	req.AssetID = &asset.ID

	s.logger.Info("approved asset request", "id", id, "asset_id", asset.ID, "reviewer_id", reviewerID)
	return req, nil
}

// Reject moves a pending request to rejected.
func (s *Service) Reject(ctx context.Context, id, reviewerID uuid.UUID, note string) (*models.AssetRequest, error) {
	req, err := s.transition(ctx, id, models.RequestStatusRejected)
	if err != nil {
		return nil, err
	}

	if err := s.repo.UpdateStatus(ctx, id, models.RequestStatusRejected, &reviewerID, note, nil); err != nil {
		return nil, fmt.Errorf("reject request %s: %w", id, err)
	}

	req.Status = models.RequestStatusRejected
	req.ReviewerID = &reviewerID
	req.ReviewerNote = note

	s.logger.Info("rejected asset request", "id", id, "reviewer_id", reviewerID)
	return req, nil
}

// Complete moves an approved request to done, typically when the created
// asset ships.
func (s *Service) Complete(ctx context.Context, id uuid.UUID) (*models.AssetRequest, error) {
	req, err := s.transition(ctx, id, models.RequestStatusDone)
	if err != nil {
		return nil, err
	}

	if err := s.repo.UpdateStatus(ctx, id, models.RequestStatusDone, nil, req.ReviewerNote, nil); err != nil {
		return nil, fmt.Errorf("complete request %s: %w", id, err)
	}

	req.Status = models.RequestStatusDone
	s.logger.Info("completed asset request", "id", id)
	return req, nil
}

// Withdraw lets the requester delete their own request while it is still
// pending.
func (s *Service) Withdraw(ctx context.Context, id, userID uuid.UUID) error {
	if err := s.repo.Delete(ctx, id, userID); err != nil {
		return fmt.Errorf("withdraw request %s: %w", id, err)
	}

	s.logger.Info("withdrew asset request", "id", id, "user_id", userID)
	return nil
}

// transition loads the request and checks the status change is legal.
func (s *Service) transition(ctx context.Context, id uuid.UUID, to string) (*models.AssetRequest, error) {
	req, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load request %s: %w", id, err)
	}
	if !models.CanTransitionRequest(req.Status, to) {
		return nil, errors.InvalidInput(
			fmt.Sprintf("request cannot move from %s to %s", req.Status, to))
	}
	return req, nil
}
