// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2025-2026 indiecraft contributors
// https://github.com/Kalfadda/indiecraft

package postgres

import (
	"context"

	"github.com/google/uuid"

	"github.com/Kalfadda/indiecraft/internal/models"
)

// GuideRepository handles CRUD operations for knowledge-library guides.
type GuideRepository struct {
	db *DB
}

// NewGuideRepository creates a new guide repository.
func NewGuideRepository(db *DB) *GuideRepository {
	return &GuideRepository{db: db}
}

const guideColumns = `id, author_id, title, slug, topic, body, published,
	created_at, updated_at`

func scanGuide(row interface{ Scan(...any) error }) (*models.Guide, error) {
	g := &models.Guide{}
	err := row.Scan(
		&g.ID, &g.AuthorID, &g.Title, &g.Slug, &g.Topic, &g.Body,
		&g.Published, &g.CreatedAt, &g.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return g, nil
}

// Create creates a new guide.
func (r *GuideRepository) Create(ctx context.Context, g *models.Guide) error {
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}

	_, err := r.db.Exec(ctx, `
		INSERT INTO guides (id, author_id, title, slug, topic, body, published)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		g.ID, g.AuthorID, g.Title, g.Slug, g.Topic, g.Body, g.Published,
	)
	return err
}

// Get retrieves a guide by ID.
func (r *GuideRepository) Get(ctx context.Context, id uuid.UUID) (*models.Guide, error) {
	return scanGuide(r.db.QueryRow(ctx, `
		SELECT `+guideColumns+` FROM guides WHERE id = $1`, id))
}

// GetBySlug retrieves a guide by its URL slug.
func (r *GuideRepository) GetBySlug(ctx context.Context, slug string) (*models.Guide, error) {
	return scanGuide(r.db.QueryRow(ctx, `
		SELECT `+guideColumns+` FROM guides WHERE slug = $1`, slug))
}

// List returns guides, optionally filtered by topic. Unpublished guides are
// visible only to their author unless includeDrafts is set (admins).
func (r *GuideRepository) List(ctx context.Context, userID uuid.UUID, topic string, includeDrafts bool) ([]*models.Guide, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+guideColumns+`
		FROM guides
		WHERE ($2 = '' OR topic = $2)
		  AND (published = TRUE OR author_id = $1 OR $3)
		ORDER BY topic, title`,
		userID, topic, includeDrafts,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var guides []*models.Guide
	for rows.Next() {
		g, err := scanGuide(rows)
		if err != nil {
			return nil, err
		}
		guides = append(guides, g)
	}
	return guides, rows.Err()
}

// Search returns published guides whose title or body matches the query,
// case-insensitively.
func (r *GuideRepository) Search(ctx context.Context, query string) ([]*models.Guide, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+guideColumns+`
		FROM guides
		WHERE published = TRUE
		  AND (title ILIKE '%' || $1 || '%' OR body ILIKE '%' || $1 || '%')
		ORDER BY topic, title`, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var guides []*models.Guide
	for rows.Next() {
		g, err := scanGuide(rows)
		if err != nil {
			return nil, err
		}
		guides = append(guides, g)
	}
	return guides, rows.Err()
}

// Update updates a guide. Only the author can update.
func (r *GuideRepository) Update(ctx context.Context, g *models.Guide) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE guides SET
			title=$3, slug=$4, topic=$5, body=$6, published=$7, updated_at=NOW()
		WHERE id=$1 AND author_id=$2`,
		g.ID, g.AuthorID, g.Title, g.Slug, g.Topic, g.Body, g.Published,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete deletes a guide. Only the author can delete.
func (r *GuideRepository) Delete(ctx context.Context, id, authorID uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM guides WHERE id = $1 AND author_id = $2`, id, authorID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
