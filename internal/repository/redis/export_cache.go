// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2025-2026 indiecraft contributors
// https://github.com/Kalfadda/indiecraft

package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	exportPrefix = "ics_export:"

	// Rendered exports go stale within a minute of an edit at worst, which
	// is acceptable for calendar downloads.
	exportTTL = 60 * time.Second
)

// ExportCache caches rendered iCalendar month exports. Entries expire on
// their own; writes never invalidate, so a download may trail an edit by up
// to the TTL.
type ExportCache struct {
	client *Client
}

// NewExportCache creates a new export cache.
func NewExportCache(client *Client) *ExportCache {
	return &ExportCache{client: client}
}

func exportKey(userID uuid.UUID, year, month int, visibility string) string {
	return fmt.Sprintf("%s%s:%04d-%02d:%s", exportPrefix, userID, year, month, visibility)
}

// GetMonth returns a cached month export, or "" and false on a miss. Cache
// failures count as misses.
func (c *ExportCache) GetMonth(ctx context.Context, userID uuid.UUID, year, month int, visibility string) (string, bool) {
	doc, err := c.client.Redis().Get(ctx, exportKey(userID, year, month, visibility)).Result()
	if err == redis.Nil || err != nil {
		return "", false
	}
	return doc, true
}

// SetMonth stores a rendered month export. Errors are dropped; the cache is
// best-effort.
func (c *ExportCache) SetMonth(ctx context.Context, userID uuid.UUID, year, month int, visibility, doc string) {
	_ = c.client.Redis().Set(ctx, exportKey(userID, year, month, visibility), doc, exportTTL).Err()
}
