// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2025-2026 indiecraft contributors
// https://github.com/Kalfadda/indiecraft

package models

import (
	"time"

	"github.com/google/uuid"
)

// BoardNote represents a free-form note pinned to the team bulletin board.
type BoardNote struct {
	ID        uuid.UUID `json:"id" db:"id"`
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	Title     string    `json:"title" db:"title"`
	Content   string    `json:"content,omitempty" db:"content"`
	Pinned    bool      `json:"pinned" db:"pinned"`
	IsShared  bool      `json:"is_shared" db:"is_shared"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
