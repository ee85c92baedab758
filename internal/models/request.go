// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2025-2026 indiecraft contributors
// https://github.com/Kalfadda/indiecraft

package models

import (
	"time"

	"github.com/google/uuid"
)

// AssetRequest represents a team member's request for a new asset. Requests
// move pending -> approved|rejected, and approved -> done. Approval creates a
// matching Asset in the concept phase.
type AssetRequest struct {
	ID           uuid.UUID  `json:"id" db:"id"`
	UserID       uuid.UUID  `json:"user_id" db:"user_id"`
	Title        string     `json:"title" db:"title"`
	Details      string     `json:"details,omitempty" db:"details"`
	Category     string     `json:"category" db:"category"`
	Status       string     `json:"status" db:"status"`
	ReviewerID   *uuid.UUID `json:"reviewer_id,omitempty" db:"reviewer_id"`
	ReviewerNote string     `json:"reviewer_note,omitempty" db:"reviewer_note"`
	AssetID      *uuid.UUID `json:"asset_id,omitempty" db:"asset_id"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"`
}

// Request statuses.
const (
	RequestStatusPending  = "pending"
	RequestStatusApproved = "approved"
	RequestStatusRejected = "rejected"
	RequestStatusDone     = "done"
)

// ValidRequestStatuses is the set of allowed request statuses.
var ValidRequestStatuses = map[string]bool{
	RequestStatusPending:  true,
	RequestStatusApproved: true,
	RequestStatusRejected: true,
	RequestStatusDone:     true,
}

// ValidRequestTransitions maps a current status to the statuses it may move to.
var ValidRequestTransitions = map[string][]string{
	RequestStatusPending:  {RequestStatusApproved, RequestStatusRejected},
	RequestStatusApproved: {RequestStatusDone},
	RequestStatusRejected: {},
	RequestStatusDone:     {},
}

// CanTransitionRequest reports whether a request may move from one status to
// another.
func CanTransitionRequest(from, to string) bool {
	for _, s := range ValidRequestTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}
