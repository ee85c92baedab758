// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2025-2026 indiecraft contributors
// https://github.com/Kalfadda/indiecraft

// Package asset manages production assets and their pipelines.
package asset

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/Kalfadda/indiecraft/internal/models"
	"github.com/Kalfadda/indiecraft/internal/pkg/errors"
	"github.com/Kalfadda/indiecraft/internal/pkg/logger"
)

// Store is the repository surface the asset service needs.
type Store interface {
	Create(ctx context.Context, a *models.Asset) error
	Get(ctx context.Context, id, userID uuid.UUID) (*models.Asset, error)
	List(ctx context.Context, userID uuid.UUID, category, phase string) ([]*models.Asset, error)
	Update(ctx context.Context, a *models.Asset) error
	Delete(ctx context.Context, id, userID uuid.UUID) error

	CreateStep(ctx context.Context, s *models.PipelineStep) error
	GetStep(ctx context.Context, id uuid.UUID) (*models.PipelineStep, error)
	ListSteps(ctx context.Context, assetID uuid.UUID) ([]*models.PipelineStep, error)
	UpdateStepStatus(ctx context.Context, id uuid.UUID, status string) error
	DeleteStep(ctx context.Context, id uuid.UUID) error
	MaxStepPosition(ctx context.Context, assetID uuid.UUID) (int, error)
}

// Service manages assets and pipeline steps.
type Service struct {
	repo   Store
	logger *logger.Logger
}

// NewService creates a new asset service.
func NewService(repo Store, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{repo: repo, logger: log.Named("asset")}
}

// Create creates a new asset after validation.
func (s *Service) Create(ctx context.Context, a *models.Asset) error {
	if err := validateAsset(a); err != nil {
		return fmt.Errorf("create asset: validate: %w", err)
	}

	if err := s.repo.Create(ctx, a); err != nil {
		return fmt.Errorf("create asset: %w", err)
	}

	s.logger.Info("created asset", "id", a.ID, "name", a.Name, "category", a.Category)
	return nil
}

// Get retrieves an asset by ID.
func (s *Service) Get(ctx context.Context, id, userID uuid.UUID) (*models.Asset, error) {
	a, err := s.repo.Get(ctx, id, userID)
	if err != nil {
		return nil, fmt.Errorf("get asset %s: %w", id, err)
	}
	return a, nil
}

// List returns assets visible to the user, optionally filtered.
func (s *Service) List(ctx context.Context, userID uuid.UUID, category, phase string) ([]*models.Asset, error) {
	if category != "" && !models.ValidAssetCategories[category] {
		return nil, errors.NewValidationError("invalid category: " + category)
	}
	if phase != "" && !models.ValidAssetPhases[phase] {
		return nil, errors.NewValidationError("invalid phase: " + phase)
	}

	assets, err := s.repo.List(ctx, userID, category, phase)
	if err != nil {
		return nil, fmt.Errorf("list assets: %w", err)
	}
	return assets, nil
}

// Update updates an asset.
func (s *Service) Update(ctx context.Context, a *models.Asset) error {
	if err := validateAsset(a); err != nil {
		return fmt.Errorf("update asset %s: validate: %w", a.ID, err)
	}

	if err := s.repo.Update(ctx, a); err != nil {
		return fmt.Errorf("update asset %s: %w", a.ID, err)
	}

	s.logger.Info("updated asset", "id", a.ID, "phase", a.Phase)
	return nil
}

// Delete deletes an asset and its pipeline.
func (s *Service) Delete(ctx context.Context, id, userID uuid.UUID) error {
	if err := s.repo.Delete(ctx, id, userID); err != nil {
		return fmt.Errorf("delete asset %s: %w", id, err)
	}

	s.logger.Info("deleted asset", "id", id)
	return nil
}

// ============================================================================
// Pipeline steps
// ============================================================================

// AddStep appends a pipeline step to an asset the user owns. A step with a
// dependency starts blocked unless the dependency is already done.
func (s *Service) AddStep(ctx context.Context, userID uuid.UUID, step *models.PipelineStep) error {
	if step.Name == "" {
		return errors.NewValidationError("step name is required")
	}

	asset, err := s.repo.Get(ctx, step.AssetID, userID)
	if err != nil {
		return fmt.Errorf("add step: %w", err)
	}
	if asset.UserID != userID {
		return errors.Forbidden("only the asset owner can edit its pipeline")
	}

	step.Status = models.StepStatusReady
	if step.DependsOn != nil {
		dep, err := s.repo.GetStep(ctx, *step.DependsOn)
		if err != nil {
			return errors.NewValidationError("depends_on step does not exist")
		}
		if dep.AssetID != step.AssetID {
			return errors.NewValidationError("depends_on must reference a step of the same asset")
		}
		if dep.Status != models.StepStatusDone {
			step.Status = models.StepStatusBlocked
		}
	}

	if step.Position == 0 {
		max, err := s.repo.MaxStepPosition(ctx, step.AssetID)
		if err != nil {
			return fmt.Errorf("add step: %w", err)
		}
		step.Position = max + 1
	}

	if err := s.repo.CreateStep(ctx, step); err != nil {
		return fmt.Errorf("add step: %w", err)
	}

	s.logger.Info("added pipeline step", "asset_id", step.AssetID, "step_id", step.ID, "position", step.Position)
	return nil
}

// ListSteps returns an asset's pipeline in position order.
func (s *Service) ListSteps(ctx context.Context, assetID, userID uuid.UUID) ([]*models.PipelineStep, error) {
	if _, err := s.repo.Get(ctx, assetID, userID); err != nil {
		return nil, fmt.Errorf("list steps: %w", err)
	}

	steps, err := s.repo.ListSteps(ctx, assetID)
	if err != nil {
		return nil, fmt.Errorf("list steps for %s: %w", assetID, err)
	}
	return steps, nil
}

// AdvanceStep moves a step forward: ready -> in_progress -> done. A blocked
// step cannot advance until the step it depends on is done. When a step
// reaches done, every step waiting on it is unblocked.
func (s *Service) AdvanceStep(ctx context.Context, userID, stepID uuid.UUID) (*models.PipelineStep, error) {
	step, err := s.repo.GetStep(ctx, stepID)
	if err != nil {
		return nil, fmt.Errorf("advance step %s: %w", stepID, err)
	}

	asset, err := s.repo.Get(ctx, step.AssetID, userID)
	if err != nil {
		return nil, fmt.Errorf("advance step %s: %w", stepID, err)
	}
	if asset.UserID != userID {
		return nil, errors.Forbidden("only the asset owner can advance its pipeline")
	}

	var next string
	switch step.Status {
	case models.StepStatusBlocked:
		return nil, errors.InvalidInput("step is blocked by an unfinished dependency")
	case models.StepStatusReady:
		next = models.StepStatusInProgress
	case models.StepStatusInProgress:
		next = models.StepStatusDone
	case models.StepStatusDone:
		return nil, errors.InvalidInput("step is already done")
	default:
		return nil, errors.InvalidInput("unknown step status: " + step.Status)
	}

	if err := s.repo.UpdateStepStatus(ctx, stepID, next); err != nil {
		return nil, fmt.Errorf("advance step %s: %w", stepID, err)
	}
	step.Status = next

	if next == models.StepStatusDone {
		if err := s.unblockDependents(ctx, step); err != nil {
			return nil, err
		}
	}

	s.logger.Info("advanced pipeline step", "step_id", stepID, "status", next)
	return step, nil
}

// unblockDependents flips blocked steps whose dependency just finished to
// ready.
func (s *Service) unblockDependents(ctx context.Context, done *models.PipelineStep) error {
	steps, err := s.repo.ListSteps(ctx, done.AssetID)
	if err != nil {
		return fmt.Errorf("unblock dependents of %s: %w", done.ID, err)
	}

	for _, st := range steps {
		if st.Status != models.StepStatusBlocked || st.DependsOn == nil || *st.DependsOn != done.ID {
			continue
		}
		if err := s.repo.UpdateStepStatus(ctx, st.ID, models.StepStatusReady); err != nil {
			return fmt.Errorf("unblock step %s: %w", st.ID, err)
		}
		s.logger.Info("unblocked pipeline step", "step_id", st.ID)
	}
	return nil
}

// RemoveStep deletes a step from an asset the user owns. Steps that other
// steps depend on cannot be removed.
func (s *Service) RemoveStep(ctx context.Context, userID, stepID uuid.UUID) error {
	step, err := s.repo.GetStep(ctx, stepID)
	if err != nil {
		return fmt.Errorf("remove step %s: %w", stepID, err)
	}

	asset, err := s.repo.Get(ctx, step.AssetID, userID)
	if err != nil {
		return fmt.Errorf("remove step %s: %w", stepID, err)
	}
	if asset.UserID != userID {
		return errors.Forbidden("only the asset owner can edit its pipeline")
	}

	steps, err := s.repo.ListSteps(ctx, step.AssetID)
	if err != nil {
		return fmt.Errorf("remove step %s: %w", stepID, err)
	}
	for _, st := range steps {
		if st.DependsOn != nil && *st.DependsOn == stepID {
			return errors.InvalidInput("step has dependents and cannot be removed")
		}
	}

	if err := s.repo.DeleteStep(ctx, stepID); err != nil {
		return fmt.Errorf("remove step %s: %w", stepID, err)
	}

	s.logger.Info("removed pipeline step", "step_id", stepID)
	return nil
}

func validateAsset(a *models.Asset) error {
	if a.Name == "" {
		return errors.NewValidationError("name is required")
	}
	if !models.ValidAssetCategories[a.Category] {
		return errors.NewValidationError("invalid category: " + a.Category)
	}
	if a.Phase == "" {
		a.Phase = models.AssetPhaseConcept
	}
	if !models.ValidAssetPhases[a.Phase] {
		return errors.NewValidationError("invalid phase: " + a.Phase)
	}
	if a.Priority == "" {
		a.Priority = models.AssetPriorityNormal
	}
	if !models.ValidAssetPriorities[a.Priority] {
		return errors.NewValidationError("invalid priority: " + a.Priority)
	}
	return nil
}
