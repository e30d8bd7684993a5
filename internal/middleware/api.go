// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/olegiv/campjam-go/internal/admin"
	"github.com/olegiv/campjam-go/internal/auth"
)

// APIError is the JSON body of a failed API call.
type APIError struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// WriteAPIError writes a JSON error response.
func WriteAPIError(w http.ResponseWriter, statusCode int, message, details string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(APIError{Error: message, Details: details})
}

// bearerToken extracts the token from an "Authorization: Bearer <token>" header.
func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// TokenResolver maps API bearer tokens to the admin they were issued to.
type TokenResolver interface {
	ResolveAPIToken(ctx context.Context, token string) (int64, error)
	RevokeAPIToken(ctx context.Context, userID int64) error
}

// RequireAdminToken authenticates API calls with an API token passed as a
// bearer credential and re-runs the allow-list check. A token whose user is
// no longer an active admin is revoked.
func RequireAdminToken(tokens TokenResolver, restorer Restorer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				WriteAPIError(w, http.StatusUnauthorized, "Missing authorization header", "")
				return
			}

			userID, err := tokens.ResolveAPIToken(r.Context(), token)
			if err != nil {
				if errors.Is(err, auth.ErrInvalidAPIToken) {
					WriteAPIError(w, http.StatusUnauthorized, "Unauthorized", "")
					return
				}
				slog.Error("resolving API token failed", "error", err)
				WriteAPIError(w, http.StatusInternalServerError, "Internal server error", "")
				return
			}

			user, adm, err := restorer.Restore(r.Context(), userID)
			if state := admin.SessionState(err); admin.ForcesSignOut(state) {
				if !errors.Is(err, admin.ErrNotAuthorized) {
					slog.Error("restoring admin for API token failed", "error", err, "user_id", userID)
					WriteAPIError(w, http.StatusInternalServerError, "Internal server error", "")
					return
				}
				slog.Warn("API token revoked",
					"user_id", userID,
					"path", r.URL.Path,
					"ip", ClientIP(r),
					"state", admin.Settle(state),
				)
				if err := tokens.RevokeAPIToken(r.Context(), userID); err != nil {
					slog.Error("revoking API token failed", "error", err, "user_id", userID)
				}
				WriteAPIError(w, http.StatusForbidden, "Not authorized as an admin", "")
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeyUser, user)
			ctx = context.WithValue(ctx, ContextKeyAdmin, adm)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// CORS answers preflight requests and sets the allow headers used by
// browser clients of the JSON API.
func CORS(allowOrigin string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("Access-Control-Allow-Origin", allowOrigin)
			h.Set("Access-Control-Allow-Headers", "authorization, x-client-info, apikey, content-type")
			h.Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
			if allowOrigin != "*" {
				h.Add("Vary", "Origin")
			}

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
