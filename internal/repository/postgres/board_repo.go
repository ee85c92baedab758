// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2025-2026 indiecraft contributors
// https://github.com/Kalfadda/indiecraft

package postgres

import (
	"context"

	"github.com/google/uuid"

	"github.com/Kalfadda/indiecraft/internal/models"
)

// BoardRepository handles CRUD operations for bulletin-board notes.
type BoardRepository struct {
	db *DB
}

// NewBoardRepository creates a new board repository.
func NewBoardRepository(db *DB) *BoardRepository {
	return &BoardRepository{db: db}
}

const boardNoteColumns = `id, user_id, title, content, pinned, is_shared,
	created_at, updated_at`

func scanBoardNote(row interface{ Scan(...any) error }) (*models.BoardNote, error) {
	n := &models.BoardNote{}
	err := row.Scan(
		&n.ID, &n.UserID, &n.Title, &n.Content, &n.Pinned, &n.IsShared,
		&n.CreatedAt, &n.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return n, nil
}

// Create creates a new board note.
func (r *BoardRepository) Create(ctx context.Context, n *models.BoardNote) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}

	_, err := r.db.Exec(ctx, `
		INSERT INTO board_notes (id, user_id, title, content, pinned, is_shared)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		n.ID, n.UserID, n.Title, n.Content, n.Pinned, n.IsShared,
	)
	return err
}

// Get retrieves a board note by ID, visible to the given user.
func (r *BoardRepository) Get(ctx context.Context, id, userID uuid.UUID) (*models.BoardNote, error) {
	return scanBoardNote(r.db.QueryRow(ctx, `
		SELECT `+boardNoteColumns+`
		FROM board_notes
		WHERE id = $1 AND (user_id = $2 OR is_shared = TRUE)`, id, userID))
}

// List returns notes visible to the user, pinned first, newest first within
// each group.
func (r *BoardRepository) List(ctx context.Context, userID uuid.UUID) ([]*models.BoardNote, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+boardNoteColumns+`
		FROM board_notes
		WHERE user_id = $1 OR is_shared = TRUE
		ORDER BY pinned DESC, created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notes []*models.BoardNote
	for rows.Next() {
		n, err := scanBoardNote(rows)
		if err != nil {
			return nil, err
		}
		notes = append(notes, n)
	}
	return notes, rows.Err()
}

// Update updates a board note. Only the owner can update.
func (r *BoardRepository) Update(ctx context.Context, n *models.BoardNote) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE board_notes SET
			title=$3, content=$4, pinned=$5, is_shared=$6, updated_at=NOW()
		WHERE id=$1 AND user_id=$2`,
		n.ID, n.UserID, n.Title, n.Content, n.Pinned, n.IsShared,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete deletes a board note. Only the owner can delete.
func (r *BoardRepository) Delete(ctx context.Context, id, userID uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM board_notes WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
