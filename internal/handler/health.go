// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/olegiv/campjam-go/internal/cache"
	"github.com/olegiv/campjam-go/internal/version"
)

// HealthHandler handles health check requests.
type HealthHandler struct {
	db        *sql.DB
	cache     cache.Cacher
	version   version.Info
	startTime time.Time
}

// NewHealthHandler creates a new health handler. c may be nil.
func NewHealthHandler(db *sql.DB, c cache.Cacher, v version.Info) *HealthHandler {
	return &HealthHandler{
		db:        db,
		cache:     c,
		version:   v,
		startTime: time.Now(),
	}
}

// HealthStatus is the body of GET /health.
type HealthStatus struct {
	Status    string           `json:"status"`
	Timestamp time.Time        `json:"timestamp"`
	Uptime    string           `json:"uptime"`
	Version   string           `json:"version"`
	Checks    map[string]Check `json:"checks"`
}

// Check represents a single health check result.
type Check struct {
	Status  string `json:"status"`
	Latency string `json:"latency,omitempty"`
	Backend string `json:"backend,omitempty"`
	HitRate string `json:"hit_rate,omitempty"`
}

// Health handles GET /health. The database error itself is never exposed.
// A failing cache only degrades the cache check: reviews are then read
// straight from the database.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	dbCheck := h.checkDatabase(r.Context())

	status := HealthStatus{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
		Version:   h.version.Version,
		Checks:    map[string]Check{"database": dbCheck},
	}
	if h.cache != nil {
		status.Checks["cache"] = h.checkCache(r.Context())
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	if dbCheck.Status != "healthy" {
		status.Status = "unhealthy"
		w.WriteHeader(http.StatusServiceUnavailable)
	} else {
		w.WriteHeader(http.StatusOK)
	}
	_ = json.NewEncoder(w).Encode(status)
}

// checkDatabase verifies database connectivity.
func (h *HealthHandler) checkDatabase(ctx context.Context) Check {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	start := time.Now()
	err := h.db.PingContext(ctx)
	latency := time.Since(start)

	if err != nil {
		return Check{Status: "unhealthy", Latency: latency.String()}
	}
	return Check{Status: "healthy", Latency: latency.String()}
}

// checkCache pings remote backends and reports the hit rate.
func (h *HealthHandler) checkCache(ctx context.Context) Check {
	check := Check{Status: "healthy", Backend: cache.BackendName(h.cache)}

	if p, ok := h.cache.(cache.Pinger); ok {
		ctx, cancel := context.WithTimeout(ctx, time.Second)
		defer cancel()

		start := time.Now()
		if err := p.Ping(ctx); err != nil {
			check.Status = "degraded"
		}
		check.Latency = time.Since(start).String()
	}
	if sp, ok := h.cache.(cache.StatsProvider); ok {
		check.HitRate = fmt.Sprintf("%.1f%%", sp.Stats().HitRate)
	}
	return check
}
