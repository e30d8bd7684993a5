// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/olegiv/campjam-go/internal/model"
)

const reviewListKey = "reviews:list"

// ReviewCache caches the full review list, most recent first.
// Inserts must call Invalidate; deletes call Remove.
type ReviewCache struct {
	cache  Cacher
	ttl    time.Duration
	logger *slog.Logger

	// mu orders Remove's read-modify-write against Invalidate, so an insert
	// that lands during a Remove is not overwritten by the older list.
	mu sync.Mutex
}

// NewReviewCache wraps a backend for review list caching.
func NewReviewCache(c Cacher, ttl time.Duration, logger *slog.Logger) *ReviewCache {
	return &ReviewCache{cache: c, ttl: ttl, logger: logger}
}

// GetOrLoad returns the cached list or calls load and caches its result.
// Cache failures degrade to calling load.
func (rc *ReviewCache) GetOrLoad(ctx context.Context, load func(context.Context) ([]model.Review, error)) ([]model.Review, error) {
	if data, err := rc.cache.Get(ctx, reviewListKey); err == nil {
		var reviews []model.Review
		if err := json.Unmarshal(data, &reviews); err == nil {
			return reviews, nil
		}
		rc.logger.Warn("discarding corrupt review cache entry")
	}

	reviews, err := load(ctx)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(reviews); err == nil {
		if err := rc.cache.Set(ctx, reviewListKey, data, rc.ttl); err != nil {
			rc.logger.Debug("review cache set failed", "error", err)
		}
	}
	return reviews, nil
}

// Invalidate drops the cached list.
func (rc *ReviewCache) Invalidate(ctx context.Context) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	rc.drop(ctx)
}

// Remove takes the review with id out of the cached list in place, without
// reloading the table. It returns the updated list and true when a cached
// list was present. An entry that cannot be decoded or rewritten is dropped.
func (rc *ReviewCache) Remove(ctx context.Context, id int64) ([]model.Review, bool) {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	data, err := rc.cache.Get(ctx, reviewListKey)
	if err != nil {
		return nil, false
	}
	var reviews []model.Review
	if err := json.Unmarshal(data, &reviews); err != nil {
		rc.logger.Warn("discarding corrupt review cache entry")
		rc.drop(ctx)
		return nil, false
	}

	remaining := model.WithoutReview(reviews, id)
	data, err = json.Marshal(remaining)
	if err == nil {
		err = rc.cache.Set(ctx, reviewListKey, data, rc.ttl)
	}
	if err != nil {
		rc.logger.Warn("review cache update failed", "error", err)
		rc.drop(ctx)
	}
	return remaining, true
}

func (rc *ReviewCache) drop(ctx context.Context) {
	if err := rc.cache.Delete(ctx, reviewListKey); err != nil {
		rc.logger.Warn("review cache invalidation failed", "error", err)
	}
}
