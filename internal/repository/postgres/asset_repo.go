// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2025-2026 indiecraft contributors
// https://github.com/Kalfadda/indiecraft

package postgres

import (
	"context"

	"github.com/google/uuid"

	"github.com/Kalfadda/indiecraft/internal/models"
)

// AssetRepository handles CRUD operations for assets and their pipeline
// steps.
type AssetRepository struct {
	db *DB
}

// NewAssetRepository creates a new asset repository.
func NewAssetRepository(db *DB) *AssetRepository {
	return &AssetRepository{db: db}
}

const assetColumns = `id, user_id, name, description, category, phase,
	priority, is_shared, created_at, updated_at`

func scanAsset(row interface{ Scan(...any) error }) (*models.Asset, error) {
	a := &models.Asset{}
	err := row.Scan(
		&a.ID, &a.UserID, &a.Name, &a.Description, &a.Category,
		&a.Phase, &a.Priority, &a.IsShared, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// Create creates a new asset.
func (r *AssetRepository) Create(ctx context.Context, a *models.Asset) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}

	_, err := r.db.Exec(ctx, `
		INSERT INTO assets (id, user_id, name, description, category, phase, priority, is_shared)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		a.ID, a.UserID, a.Name, a.Description, a.Category, a.Phase, a.Priority, a.IsShared,
	)
	return err
}

// Get retrieves an asset by ID, visible to the given user.
func (r *AssetRepository) Get(ctx context.Context, id, userID uuid.UUID) (*models.Asset, error) {
	return scanAsset(r.db.QueryRow(ctx, `
		SELECT `+assetColumns+`
		FROM assets
		WHERE id = $1 AND (user_id = $2 OR is_shared = TRUE)`, id, userID))
}

// List returns assets visible to the user, optionally filtered by category
// and phase (empty string means no filter).
func (r *AssetRepository) List(ctx context.Context, userID uuid.UUID, category, phase string) ([]*models.Asset, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+assetColumns+`
		FROM assets
		WHERE (user_id = $1 OR is_shared = TRUE)
		  AND ($2 = '' OR category = $2)
		  AND ($3 = '' OR phase = $3)
		ORDER BY
			CASE priority
				WHEN 'urgent' THEN 0 WHEN 'high' THEN 1
				WHEN 'normal' THEN 2 ELSE 3
			END,
			created_at`,
		userID, category, phase,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var assets []*models.Asset
	for rows.Next() {
		a, err := scanAsset(rows)
		if err != nil {
			return nil, err
		}
		assets = append(assets, a)
	}
	return assets, rows.Err()
}

// Update updates an asset. Only the owner can update.
func (r *AssetRepository) Update(ctx context.Context, a *models.Asset) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE assets SET
			name=$3, description=$4, category=$5, phase=$6, priority=$7,
			is_shared=$8, updated_at=NOW()
		WHERE id=$1 AND user_id=$2`,
		a.ID, a.UserID, a.Name, a.Description, a.Category, a.Phase,
		a.Priority, a.IsShared,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete deletes an asset and its pipeline steps. Only the owner can delete.
func (r *AssetRepository) Delete(ctx context.Context, id, userID uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM assets WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ============================================================================
// Pipeline steps
// ============================================================================

const stepColumns = `id, asset_id, name, position, status, depends_on,
	created_at, updated_at`

func scanStep(row interface{ Scan(...any) error }) (*models.PipelineStep, error) {
	s := &models.PipelineStep{}
	err := row.Scan(
		&s.ID, &s.AssetID, &s.Name, &s.Position, &s.Status, &s.DependsOn,
		&s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// CreateStep appends a pipeline step to an asset.
func (r *AssetRepository) CreateStep(ctx context.Context, s *models.PipelineStep) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}

	_, err := r.db.Exec(ctx, `
		INSERT INTO pipeline_steps (id, asset_id, name, position, status, depends_on)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		s.ID, s.AssetID, s.Name, s.Position, s.Status, s.DependsOn,
	)
	return err
}

// GetStep retrieves a pipeline step by ID.
func (r *AssetRepository) GetStep(ctx context.Context, id uuid.UUID) (*models.PipelineStep, error) {
	return scanStep(r.db.QueryRow(ctx, `
		SELECT `+stepColumns+` FROM pipeline_steps WHERE id = $1`, id))
}

// ListSteps returns the asset's pipeline steps in position order.
func (r *AssetRepository) ListSteps(ctx context.Context, assetID uuid.UUID) ([]*models.PipelineStep, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+stepColumns+`
		FROM pipeline_steps
		WHERE asset_id = $1
		ORDER BY position`, assetID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var steps []*models.PipelineStep
	for rows.Next() {
		s, err := scanStep(rows)
		if err != nil {
			return nil, err
		}
		steps = append(steps, s)
	}
	return steps, rows.Err()
}

// UpdateStepStatus sets a single step's status.
func (r *AssetRepository) UpdateStepStatus(ctx context.Context, id uuid.UUID, status string) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE pipeline_steps SET status=$2, updated_at=NOW() WHERE id=$1`,
		id, status,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteStep removes a pipeline step.
func (r *AssetRepository) DeleteStep(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM pipeline_steps WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// MaxStepPosition returns the highest position among an asset's steps, or 0
// when the asset has none.
func (r *AssetRepository) MaxStepPosition(ctx context.Context, assetID uuid.UUID) (int, error) {
	var pos int
	err := r.db.QueryRow(ctx, `
		SELECT COALESCE(MAX(position), 0) FROM pipeline_steps WHERE asset_id = $1`,
		assetID).Scan(&pos)
	return pos, err
}
