// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package session configures the server-side admin session store.
package session

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"
)

// Session keys.
const (
	KeyUserID = "user_id"
	KeyEmail  = "email"
)

// Lifetime is how long an admin session lasts without activity limits.
const Lifetime = 24 * time.Hour

// IdleTimeout ends sessions left unused.
const IdleTimeout = 2 * time.Hour

// New creates a new session manager configured with SQLite store.
func New(db *sql.DB, isDev bool) *scs.SessionManager {
	sm := scs.New()

	sm.Store = sqlite3store.New(db)

	sm.Lifetime = Lifetime
	sm.IdleTimeout = IdleTimeout
	sm.Cookie.Name = "campjam_session"
	sm.Cookie.Path = "/"
	sm.Cookie.HttpOnly = true
	sm.Cookie.SameSite = http.SameSiteLaxMode
	sm.Cookie.Secure = !isDev

	// __Host- requires Secure and Path=/ and forbids Domain.
	if !isDev {
		sm.Cookie.Name = "__Host-campjam_session"
	}

	return sm
}

// Flash keys. A flash is shown once on the next rendered page.
const (
	KeyFlash     = "flash"
	KeyFlashType = "flash_type"
)

// Flash types.
const (
	FlashSuccess = "success"
	FlashError   = "error"
	FlashInfo    = "info"
)

// PutFlash stores a one-shot notification for the next page view.
func PutFlash(sm *scs.SessionManager, ctx context.Context, message, flashType string) {
	sm.Put(ctx, KeyFlash, message)
	sm.Put(ctx, KeyFlashType, flashType)
}

// PopFlash returns and clears the pending notification.
func PopFlash(sm *scs.SessionManager, ctx context.Context) (message, flashType string) {
	message = sm.PopString(ctx, KeyFlash)
	flashType = sm.PopString(ctx, KeyFlashType)
	if message != "" && flashType == "" {
		flashType = FlashInfo
	}
	return message, flashType
}
