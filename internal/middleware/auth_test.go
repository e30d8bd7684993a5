// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alexedwards/scs/v2"

	"github.com/olegiv/campjam-go/internal/admin"
	"github.com/olegiv/campjam-go/internal/model"
	"github.com/olegiv/campjam-go/internal/session"
)

type fakeRestorer struct {
	users map[int64]model.User
	err   error
	calls int
}

func (f *fakeRestorer) Restore(_ context.Context, userID int64) (model.User, model.AdminUser, error) {
	f.calls++
	if f.err != nil {
		return model.User{}, model.AdminUser{}, f.err
	}
	u, ok := f.users[userID]
	if !ok {
		return model.User{}, model.AdminUser{}, admin.ErrNotAuthorized
	}
	return u, model.AdminUser{ID: 1, Email: u.Email, IsActive: true}, nil
}

func newRestorer() *fakeRestorer {
	return &fakeRestorer{users: map[int64]model.User{7: {ID: 7, Email: "owner@example.com"}}}
}

// withSessionUser stores userID in the session before calling next.
func withSessionUser(sm *scs.SessionManager, userID int64, next http.Handler) http.Handler {
	return sm.LoadAndSave(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if userID != 0 {
			sm.Put(r.Context(), session.KeyUserID, userID)
		}
		next.ServeHTTP(w, r)
	}))
}

func TestRequireAdmin(t *testing.T) {
	tests := []struct {
		name         string
		userID       int64
		restorerErr  error
		wantStatus   int
		wantLocation string
		wantCalled   bool
	}{
		{"no session", 0, nil, http.StatusSeeOther, LoginPath, false},
		{"active admin", 7, nil, http.StatusOK, "", true},
		{"removed from allow-list", 8, nil, http.StatusSeeOther, LoginPath, false},
		{"lookup failure", 7, errors.New("db down"), http.StatusSeeOther, LoginPath, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sm := scs.New()
			restorer := newRestorer()
			restorer.err = tt.restorerErr

			var called bool
			var seen *model.User
			var remaining int64
			final := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
				seen = GetUser(r)
				w.WriteHeader(http.StatusOK)
			})
			inner := RequireAdmin(sm, restorer, nil)(final)
			handler := withSessionUser(sm, tt.userID, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				inner.ServeHTTP(w, r)
				remaining = sm.GetInt64(r.Context(), session.KeyUserID)
			}))

			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin", nil))

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if loc := rec.Header().Get("Location"); loc != tt.wantLocation {
				t.Errorf("Location = %q, want %q", loc, tt.wantLocation)
			}
			if called != tt.wantCalled {
				t.Errorf("next called = %v, want %v", called, tt.wantCalled)
			}
			if tt.wantCalled && (seen == nil || seen.Email != "owner@example.com") {
				t.Errorf("user in context = %+v", seen)
			}
			if tt.userID != 0 && !tt.wantCalled && remaining != 0 {
				t.Error("revoked session must be destroyed")
			}
		})
	}
}

func TestRequireAdmin_RevokedSetsFlash(t *testing.T) {
	sm := scs.New()
	var flash string
	inner := RequireAdmin(sm, newRestorer(), nil)(http.NotFoundHandler())
	handler := withSessionUser(sm, 99, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		inner.ServeHTTP(w, r)
		flash, _ = session.PopFlash(sm, r.Context())
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/admin", nil))

	if flash != RevokedMessage {
		t.Errorf("flash = %q, want %q", flash, RevokedMessage)
	}
}

func TestRedirectIfAuthenticated(t *testing.T) {
	sm := scs.New()
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })

	rec := httptest.NewRecorder()
	withSessionUser(sm, 7, RedirectIfAuthenticated(sm, "/admin")(next)).
		ServeHTTP(rec, httptest.NewRequest(http.MethodGet, LoginPath, nil))
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/admin" {
		t.Errorf("signed-in GET: status %d location %q", rec.Code, rec.Header().Get("Location"))
	}

	rec = httptest.NewRecorder()
	withSessionUser(sm, 0, RedirectIfAuthenticated(sm, "/admin")(next)).
		ServeHTTP(rec, httptest.NewRequest(http.MethodGet, LoginPath, nil))
	if rec.Code != http.StatusOK {
		t.Errorf("anonymous GET: status %d", rec.Code)
	}
}
