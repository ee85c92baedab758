// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2025-2026 indiecraft contributors
// https://github.com/Kalfadda/indiecraft

package models

import (
	"time"

	"github.com/google/uuid"
)

// Asset represents a unit of production work (a sprite sheet, a music track,
// a level script) tracked through phases.
type Asset struct {
	ID          uuid.UUID `json:"id" db:"id"`
	UserID      uuid.UUID `json:"user_id" db:"user_id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description,omitempty" db:"description"`
	Category    string    `json:"category" db:"category"`
	Phase       string    `json:"phase" db:"phase"`
	Priority    string    `json:"priority" db:"priority"`
	IsShared    bool      `json:"is_shared" db:"is_shared"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// PipelineStep is one ordered step in an asset's production pipeline. A step
// may depend on an earlier step; it stays blocked until the dependency is done.
type PipelineStep struct {
	ID        uuid.UUID  `json:"id" db:"id"`
	AssetID   uuid.UUID  `json:"asset_id" db:"asset_id"`
	Name      string     `json:"name" db:"name"`
	Position  int        `json:"position" db:"position"`
	Status    string     `json:"status" db:"status"`
	DependsOn *uuid.UUID `json:"depends_on,omitempty" db:"depends_on"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`
}

// Asset categories.
const (
	AssetCategoryArt     = "art"
	AssetCategoryAudio   = "audio"
	AssetCategoryCode    = "code"
	AssetCategoryDesign  = "design"
	AssetCategoryWriting = "writing"
)

// ValidAssetCategories is the set of allowed asset categories.
var ValidAssetCategories = map[string]bool{
	AssetCategoryArt:     true,
	AssetCategoryAudio:   true,
	AssetCategoryCode:    true,
	AssetCategoryDesign:  true,
	AssetCategoryWriting: true,
}

// Asset phases, in production order.
const (
	AssetPhaseConcept    = "concept"
	AssetPhaseProduction = "production"
	AssetPhaseReview     = "review"
	AssetPhaseDone       = "done"
)

// ValidAssetPhases is the set of allowed asset phases.
var ValidAssetPhases = map[string]bool{
	AssetPhaseConcept:    true,
	AssetPhaseProduction: true,
	AssetPhaseReview:     true,
	AssetPhaseDone:       true,
}

// Asset priorities.
const (
	AssetPriorityLow    = "low"
	AssetPriorityNormal = "normal"
	AssetPriorityHigh   = "high"
	AssetPriorityUrgent = "urgent"
)

// ValidAssetPriorities is the set of allowed asset priorities.
var ValidAssetPriorities = map[string]bool{
	AssetPriorityLow:    true,
	AssetPriorityNormal: true,
	AssetPriorityHigh:   true,
	AssetPriorityUrgent: true,
}

// Pipeline step statuses.
const (
	StepStatusBlocked    = "blocked"
	StepStatusReady      = "ready"
	StepStatusInProgress = "in_progress"
	StepStatusDone       = "done"
)

// ValidStepStatuses is the set of allowed pipeline step statuses.
var ValidStepStatuses = map[string]bool{
	StepStatusBlocked:    true,
	StepStatusReady:      true,
	StepStatusInProgress: true,
	StepStatusDone:       true,
}
