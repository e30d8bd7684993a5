// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"database/sql"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/campjam-go/internal/admin"
	"github.com/olegiv/campjam-go/internal/auth"
	"github.com/olegiv/campjam-go/internal/cache"
	"github.com/olegiv/campjam-go/internal/contact"
	"github.com/olegiv/campjam-go/internal/content"
	"github.com/olegiv/campjam-go/internal/gallery"
	"github.com/olegiv/campjam-go/internal/invite"
	"github.com/olegiv/campjam-go/internal/mail"
	"github.com/olegiv/campjam-go/internal/render"
	"github.com/olegiv/campjam-go/internal/review"
	"github.com/olegiv/campjam-go/internal/scheduler"
	"github.com/olegiv/campjam-go/internal/service"
	"github.com/olegiv/campjam-go/internal/testutil"
	"github.com/olegiv/campjam-go/internal/version"
	"github.com/olegiv/campjam-go/web"
)

const (
	testPassword   = "correct-horse-battery"
	testAdminEmail = "owner@campjam.test"
	testNotifyTo   = "inbox@campjam.test"
)

type testApp struct {
	db       *sql.DB
	sm       *scs.SessionManager
	router   http.Handler
	sender   *testutil.FakeSender
	provider *auth.Provider
	reviews  *review.Service
	contacts *contact.Service
	events   *service.EventService
	mediaDir string
}

// newTestApp wires the full router against a fresh database with a recording
// mail sender.
func newTestApp(t *testing.T) *testApp {
	t.Helper()
	sender := &testutil.FakeSender{}
	return buildTestApp(t, sender, sender)
}

// newTestAppWithoutMail wires the router as if no mail provider were configured.
func newTestAppWithoutMail(t *testing.T) *testApp {
	t.Helper()
	return buildTestApp(t, nil, &testutil.FakeSender{})
}

func buildTestApp(t *testing.T, sender mail.Sender, fake *testutil.FakeSender) *testApp {
	t.Helper()

	db := testutil.TestDB(t)
	logger := testutil.TestLoggerSilent()
	sm := scs.New()

	site, err := content.Default()
	require.NoError(t, err)
	catalog, err := gallery.Default()
	require.NoError(t, err)

	renderer, err := render.New(render.Config{TemplatesFS: web.Templates, SessionManager: sm, Site: site, IsDev: true})
	require.NoError(t, err)

	provider := auth.NewProvider(db, "http://campjam.test")
	issuer := invite.NewIssuer(provider, sender, logger)
	admins := admin.NewService(db, provider, issuer, logger)
	backend := cache.NewMemoryCache(time.Minute, time.Minute)
	t.Cleanup(func() { _ = backend.Close() })
	reviews := review.NewService(db, cache.NewReviewCache(backend, time.Minute, logger), logger)
	events := service.NewEventService(db)
	contacts := contact.NewService(db, sender, testNotifyTo, logger)

	jobs := scheduler.New(logger)
	require.NoError(t, jobs.RegisterMaintenance(provider, events, 90*24*time.Hour))

	mediaDir := t.TempDir()
	router, err := NewRouter(Deps{
		DB:             db,
		SessionManager: sm,
		Renderer:       renderer,
		Reviews:        reviews,
		Contacts:       contacts,
		Catalog:        catalog,
		Admins:         admins,
		Provider:       provider,
		Inviter:        issuer,
		Events:         events,
		Cache:          backend,
		Jobs:           jobs,
		Version:        version.Info{Version: "v0.0.0-test"},
		MailEnabled:    sender != nil,
		IsDev:          true,
		CSRFKey:        []byte("test-csrf-key-32-bytes-long-0123"),
		MediaDir:       mediaDir,
		SiteURL:        "http://campjam.test",
	})
	require.NoError(t, err)

	return &testApp{
		db:       db,
		sm:       sm,
		router:   router,
		sender:   fake,
		provider: provider,
		reviews:  reviews,
		contacts: contacts,
		events:   events,
		mediaDir: mediaDir,
	}
}

// client carries session cookies between requests like a browser would.
type client struct {
	t       *testing.T
	app     *testApp
	cookies map[string]*http.Cookie
}

func (a *testApp) client(t *testing.T) *client {
	return &client{t: t, app: a, cookies: make(map[string]*http.Cookie)}
}

func (c *client) do(req *http.Request) *httptest.ResponseRecorder {
	c.t.Helper()
	for _, ck := range c.cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	c.app.router.ServeHTTP(rec, req)

	for _, ck := range rec.Result().Cookies() {
		if ck.MaxAge < 0 {
			delete(c.cookies, ck.Name)
			continue
		}
		c.cookies[ck.Name] = ck
	}
	return rec
}

func (c *client) get(path string) *httptest.ResponseRecorder {
	c.t.Helper()
	return c.do(httptest.NewRequest(http.MethodGet, path, nil))
}

func (c *client) postForm(path string, form url.Values) *httptest.ResponseRecorder {
	c.t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(req)
}

// issuedTokenPattern finds a freshly issued API token on the admins page.
var issuedTokenPattern = regexp.MustCompile(`<code class="token">([^<]+)</code>`)

// apiToken issues an API token for the signed-in admin through the admins
// page and returns it.
func (c *client) apiToken() string {
	c.t.Helper()
	rec := c.postForm("/admin/api-token", nil)
	require.Equal(c.t, http.StatusOK, rec.Code, rec.Body.String())
	m := issuedTokenPattern.FindStringSubmatch(rec.Body.String())
	require.Len(c.t, m, 2, "issued token is not shown")
	return m[1]
}

// sessionToken returns the value of the session cookie.
func (c *client) sessionToken() string {
	c.t.Helper()
	ck, ok := c.cookies[c.app.sm.Cookie.Name]
	require.True(c.t, ok, "no session cookie")
	return ck.Value
}

// loginAdmin provisions an allow-listed account and signs in with it.
func (a *testApp) loginAdmin(t *testing.T, email string) *client {
	t.Helper()
	testutil.CreateAccount(t, a.db, email, testPassword)
	testutil.AllowListAdmin(t, a.db, email, true)

	c := a.client(t)
	rec := c.postForm("/admin/login", url.Values{"email": {email}, "password": {testPassword}})
	require.Equal(t, http.StatusSeeOther, rec.Code, rec.Body.String())
	require.Equal(t, "/admin", rec.Header().Get("Location"))
	return c
}

// apiRequest sends a JSON request to the API with an optional bearer token.
func (a *testApp) apiRequest(t *testing.T, method, path, token string, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body
}

func (a *testApp) seedReview(t *testing.T, name string, rating int, comment string) int64 {
	t.Helper()
	r, err := a.reviews.Submit(t.Context(), review.SubmitInput{Name: name, Rating: rating, Comment: comment})
	require.NoError(t, err)
	return r.ID
}

func writeMedia(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
}
