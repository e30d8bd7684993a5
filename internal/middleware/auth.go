// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package middleware provides HTTP middleware for authentication,
// authorization, and request context handling.
package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/alexedwards/scs/v2"

	"github.com/olegiv/campjam-go/internal/admin"
	"github.com/olegiv/campjam-go/internal/model"
	"github.com/olegiv/campjam-go/internal/service"
	"github.com/olegiv/campjam-go/internal/session"
)

// ContextKey is a type for context keys to avoid collisions.
type ContextKey string

// Context keys for user data.
const (
	ContextKeyUser  ContextKey = "user"
	ContextKeyAdmin ContextKey = "admin"
)

// LoginPath is where unauthenticated admin requests are sent.
const LoginPath = "/admin/login"

// RevokedMessage is shown after a session is ended because access was revoked.
const RevokedMessage = "Access denied. Your account is not authorized to access the admin dashboard."

// Restorer re-checks a session's user against the admin allow-list.
type Restorer interface {
	Restore(ctx context.Context, userID int64) (model.User, model.AdminUser, error)
}

// RequireAdmin creates middleware that restores the session's user and
// re-runs the allow-list check on every request. A session whose user is no
// longer an active admin is destroyed and redirected to the login page.
func RequireAdmin(sm *scs.SessionManager, restorer Restorer, events *service.EventService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := sm.GetInt64(r.Context(), session.KeyUserID)
			if userID == 0 {
				http.Redirect(w, r, LoginPath, http.StatusSeeOther)
				return
			}

			user, adm, err := restorer.Restore(r.Context(), userID)
			if state := admin.SessionState(err); admin.ForcesSignOut(state) {
				if !errors.Is(err, admin.ErrNotAuthorized) {
					slog.Error("restoring admin session failed", "error", err, "user_id", userID)
				}
				slog.Warn("admin session revoked",
					"user_id", userID,
					"path", r.URL.Path,
					"ip", ClientIP(r),
					"state", admin.Settle(state),
				)
				if events != nil {
					_ = events.LogAuthEvent(r.Context(), model.EventLevelWarning, "Admin session revoked",
						userID, ClientIP(r), map[string]any{"path": r.URL.Path})
				}

				_ = sm.Destroy(r.Context())
				session.PutFlash(sm, r.Context(), RevokedMessage, session.FlashError)
				http.Redirect(w, r, LoginPath, http.StatusSeeOther)
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeyUser, user)
			ctx = context.WithValue(ctx, ContextKeyAdmin, adm)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RedirectIfAuthenticated sends signed-in admins away from the login page.
func RedirectIfAuthenticated(sm *scs.SessionManager, target string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodGet && sm.GetInt64(r.Context(), session.KeyUserID) != 0 {
				http.Redirect(w, r, target, http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// GetUser retrieves the current user from the request context.
// Returns nil if no user is in context.
func GetUser(r *http.Request) *model.User {
	user, ok := r.Context().Value(ContextKeyUser).(model.User)
	if !ok {
		return nil
	}
	return &user
}

// GetAdmin retrieves the current allow-list entry from the request context.
func GetAdmin(r *http.Request) *model.AdminUser {
	a, ok := r.Context().Value(ContextKeyAdmin).(model.AdminUser)
	if !ok {
		return nil
	}
	return &a
}

// GetUserID returns the current user's ID from context, or 0 if not found.
// Safe to use in logging where a zero-value is acceptable.
func GetUserID(r *http.Request) int64 {
	if user := GetUser(r); user != nil {
		return user.ID
	}
	return 0
}

// GetUserEmail returns the current user's email from context, or empty string if not found.
func GetUserEmail(r *http.Request) string {
	if user := GetUser(r); user != nil {
		return user.Email
	}
	return ""
}
