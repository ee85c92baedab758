// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2025-2026 indiecraft contributors
// https://github.com/Kalfadda/indiecraft

package postgres

import (
	"context"

	"github.com/google/uuid"

	"github.com/Kalfadda/indiecraft/internal/models"
)

// RequestRepository handles CRUD operations for asset requests.
type RequestRepository struct {
	db *DB
}

// NewRequestRepository creates a new request repository.
func NewRequestRepository(db *DB) *RequestRepository {
	return &RequestRepository{db: db}
}

const requestColumns = `id, user_id, title, details, category, status,
	reviewer_id, reviewer_note, asset_id, created_at, updated_at`

func scanRequest(row interface{ Scan(...any) error }) (*models.AssetRequest, error) {
	req := &models.AssetRequest{}
	err := row.Scan(
		&req.ID, &req.UserID, &req.Title, &req.Details, &req.Category,
		&req.Status, &req.ReviewerID, &req.ReviewerNote, &req.AssetID,
		&req.CreatedAt, &req.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return req, nil
}

// Create creates a new asset request in the pending state.
func (r *RequestRepository) Create(ctx context.Context, req *models.AssetRequest) error {
	if req.ID == uuid.Nil {
		req.ID = uuid.New()
	}

	_, err := r.db.Exec(ctx, `
		INSERT INTO asset_requests (id, user_id, title, details, category, status)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		req.ID, req.UserID, req.Title, req.Details, req.Category, req.Status,
	)
	return err
}

// Get retrieves an asset request by ID. Requests are visible to the whole
// team.
func (r *RequestRepository) Get(ctx context.Context, id uuid.UUID) (*models.AssetRequest, error) {
	return scanRequest(r.db.QueryRow(ctx, `
		SELECT `+requestColumns+` FROM asset_requests WHERE id = $1`, id))
}

// List returns asset requests, optionally filtered by status (empty string
// means all). Pending requests come first, newest first within each group.
func (r *RequestRepository) List(ctx context.Context, status string) ([]*models.AssetRequest, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+requestColumns+`
		FROM asset_requests
		WHERE $1 = '' OR status = $1
		ORDER BY
			CASE status WHEN 'pending' THEN 0 WHEN 'approved' THEN 1 ELSE 2 END,
			created_at DESC`, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var requests []*models.AssetRequest
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, req)
	}
	return requests, rows.Err()
}

// UpdateStatus moves a request to a new status, recording the reviewer and
// the created asset when present.
func (r *RequestRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status string, reviewerID *uuid.UUID, reviewerNote string, assetID *uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE asset_requests SET
			status=$2, reviewer_id=COALESCE($3, reviewer_id),
			reviewer_note=$4, asset_id=COALESCE($5, asset_id), updated_at=NOW()
		WHERE id=$1`,
		id, status, reviewerID, reviewerNote, assetID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a request. Only the requester can delete, and only while it
// is still pending.
func (r *RequestRepository) Delete(ctx context.Context, id, userID uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `
		DELETE FROM asset_requests
		WHERE id = $1 AND user_id = $2 AND status = 'pending'`, id, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
