// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package render

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/campjam-go/internal/content"
	"github.com/olegiv/campjam-go/internal/model"
	"github.com/olegiv/campjam-go/internal/session"
	"github.com/olegiv/campjam-go/web"
)

func newTestRenderer(t *testing.T, sm *scs.SessionManager) *Renderer {
	t.Helper()
	site, err := content.Default()
	require.NoError(t, err)

	r, err := New(Config{TemplatesFS: web.Templates, SessionManager: sm, Site: site, IsDev: true})
	require.NoError(t, err)
	return r
}

func TestNew_ParsesAllPages(t *testing.T) {
	r := newTestRenderer(t, nil)

	for _, name := range []string{
		"pages/home", "pages/projects", "pages/project", "pages/not_found",
		"pages/login", "pages/reset_password",
		"admin/dashboard", "admin/delete_review", "admin/admins", "admin/events",
	} {
		assert.True(t, r.Has(name), "template %s not parsed", name)
	}
	assert.False(t, r.Has("admin/missing"))
}

func TestRenderStatus_NotFound(t *testing.T) {
	r := newTestRenderer(t, nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/nowhere", nil)

	require.NoError(t, r.RenderStatus(rec, req, http.StatusNotFound, "pages/not_found", TemplateData{Title: "Not Found"}))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	body := rec.Body.String()
	assert.Contains(t, body, "Oops! Page not found")
	assert.Contains(t, body, "Not Found | CampJam Flooring")
	assert.Contains(t, body, "info@campjamflooring.com")
}

func TestRender_UnknownTemplate(t *testing.T) {
	r := newTestRenderer(t, nil)
	err := r.Render(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil), "pages/missing", TemplateData{})
	assert.Error(t, err)
}

func TestRender_DashboardStarsAndFlash(t *testing.T) {
	sm := scs.New()
	r := newTestRenderer(t, sm)

	reviews := []model.Review{
		{ID: 1, Name: "Ann", Rating: 3, Comment: "Tidy work", CreatedAt: time.Date(2025, 3, 4, 0, 0, 0, 0, time.UTC)},
	}

	var body string
	handler := sm.LoadAndSave(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		r.SetFlash(req, "Review deleted successfully", session.FlashSuccess)
		rec := httptest.NewRecorder()
		err := r.Render(rec, req, "admin/dashboard", TemplateData{
			Title: "Dashboard",
			Data:  map[string]any{"Reviews": reviews},
		})
		require.NoError(t, err)
		body = rec.Body.String()
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/admin", nil))

	assert.Equal(t, 3, strings.Count(body, `class="star filled"`))
	assert.Equal(t, 2, strings.Count(body, `class="star"`))
	assert.Contains(t, body, "Review deleted successfully")
	assert.Contains(t, body, "toast-success")
	assert.Contains(t, body, "/admin/reviews/1/delete")
	assert.Contains(t, body, `class="active"`)
}

func TestRender_EscapesUserContent(t *testing.T) {
	r := newTestRenderer(t, nil)
	rec := httptest.NewRecorder()

	err := r.Render(rec, httptest.NewRequest(http.MethodGet, "/admin", nil), "admin/dashboard", TemplateData{
		Data: map[string]any{"Reviews": []model.Review{{ID: 2, Name: "<b>x</b>", Rating: 5, Comment: "<script>alert(1)</script>"}}},
	})
	require.NoError(t, err)

	assert.NotContains(t, rec.Body.String(), "<script>alert(1)</script>")
	assert.Contains(t, rec.Body.String(), "&lt;script&gt;")
}

func TestTemplateFuncs(t *testing.T) {
	funcs := templateFuncs()

	seq := funcs["seq"].(func(int, int) []int)
	assert.Equal(t, []int{1, 2, 3, 4, 5}, seq(1, 5))

	fieldError := funcs["fieldError"].(func(map[string]string, string) string)
	assert.Equal(t, "", fieldError(nil, "name"))
	assert.Equal(t, "Name is required", fieldError(map[string]string{"name": "Name is required"}, "name"))
}
