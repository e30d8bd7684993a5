// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"database/sql"
	"fmt"
	"io/fs"
	"net/http"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/olegiv/campjam-go/internal/admin"
	"github.com/olegiv/campjam-go/internal/auth"
	"github.com/olegiv/campjam-go/internal/cache"
	"github.com/olegiv/campjam-go/internal/contact"
	"github.com/olegiv/campjam-go/internal/gallery"
	"github.com/olegiv/campjam-go/internal/middleware"
	"github.com/olegiv/campjam-go/internal/render"
	"github.com/olegiv/campjam-go/internal/review"
	"github.com/olegiv/campjam-go/internal/service"
	"github.com/olegiv/campjam-go/internal/version"
	"github.com/olegiv/campjam-go/web"
)

// Request limits.
const (
	requestTimeout = 30 * time.Second

	publicRateLimit = 0.5 // form posts per second per IP
	publicBurst     = 10
	apiRateLimit    = 5
	apiBurst        = 20
)

// Deps is everything the router wires together.
type Deps struct {
	DB             *sql.DB
	SessionManager *scs.SessionManager
	Renderer       *render.Renderer
	Reviews        *review.Service
	Contacts       *contact.Service
	Catalog        *gallery.Catalog
	Admins         *admin.Service
	Provider       *auth.Provider
	Inviter        Inviter
	Events         *service.EventService
	Cache          cache.Cacher // optional, reported by /health
	Jobs           JobRunner    // optional
	Version        version.Info

	MailEnabled bool
	IsDev       bool
	LogRequests bool
	CSRFKey     []byte
	MediaDir    string
	// SiteURL is the public base URL used in the sitemap.
	SiteURL string
	// APIAllowOrigin is the CORS origin of the JSON API. Empty means "*".
	APIAllowOrigin string
}

// NewRouter builds the HTTP routes of the site.
//
// Public pages and the dashboard run inside the session manager. The JSON
// API does not: it authenticates with the session token sent as a bearer
// credential and is exempt from cross-origin form checks.
func NewRouter(d Deps) (http.Handler, error) {
	sm := d.SessionManager

	siteHandler := NewSiteHandler(d.Renderer, d.Reviews, d.Contacts, d.Catalog, d.Events)
	loginProtection := middleware.NewLoginProtection(middleware.DefaultLoginProtectionConfig())
	authHandler := NewAuthHandler(d.Renderer, sm, d.Admins, d.Provider, d.Events, loginProtection)
	adminHandler := NewAdminHandler(d.Renderer, d.Provider, d.Reviews, d.Contacts, d.Admins, d.Events, d.MailEnabled)
	eventsHandler := NewEventsHandler(d.Renderer, d.Events, d.Jobs)
	apiHandler := NewAPIHandler(d.Reviews, d.Inviter, d.Events)
	healthHandler := NewHealthHandler(d.DB, d.Cache, d.Version)
	seoHandler := NewSEOHandler(d.SiteURL, d.Catalog, d.IsDev)

	publicLimiter := middleware.NewGlobalRateLimiter(publicRateLimit, publicBurst)
	apiLimiter := middleware.NewGlobalRateLimiter(apiRateLimit, apiBurst)

	allowOrigin := d.APIAllowOrigin
	if allowOrigin == "" {
		allowOrigin = "*"
	}

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	if d.LogRequests {
		r.Use(chimw.Logger)
	}
	r.Use(chimw.Recoverer)
	r.Use(chimw.GetHead)
	r.Use(middleware.Timeout(requestTimeout, "/static/", "/media/"))
	r.Use(middleware.SecurityHeaders(middleware.DefaultSecurityHeadersConfig(d.IsDev)))
	r.Use(middleware.SkipCSRF("/api/"))
	r.Use(middleware.CSRF(middleware.DefaultCSRFConfig(d.CSRFKey, d.SiteURL, d.IsDev)))

	r.Get("/health", healthHandler.Health)
	r.Get("/robots.txt", seoHandler.Robots)
	r.Get("/sitemap.xml", seoHandler.Sitemap)

	staticFS, err := fs.Sub(web.Static, "static")
	if err != nil {
		return nil, fmt.Errorf("getting static fs: %w", err)
	}
	r.Handle("/static/*", middleware.StaticCache(middleware.StaticMaxAge)(
		middleware.NoDirListing(http.StripPrefix("/static/", http.FileServer(http.FS(staticFS))))))
	r.Handle("/media/*", middleware.StaticCache(middleware.MediaMaxAge)(
		middleware.NoDirListing(http.StripPrefix("/media/", http.FileServer(http.Dir(d.MediaDir))))))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.CORS(allowOrigin))
		r.Use(apiLimiter.Middleware())
		r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
			writeJSONError(w, http.StatusNotFound, "Not found")
		})

		r.Get("/reviews", apiHandler.ListReviews)
		r.Post("/reviews", apiHandler.CreateReview)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAdminToken(d.Provider, d.Admins))
			r.Delete("/reviews/{id}", apiHandler.DeleteReview)
			r.Post("/invite", apiHandler.Invite)
		})
	})

	r.Group(func(r chi.Router) {
		r.Use(sm.LoadAndSave)

		r.Get("/", siteHandler.Home)
		r.Get("/projects", siteHandler.Projects)
		r.Get("/projects/{id}", siteHandler.Project)
		r.With(publicLimiter.HTMLMiddleware()).Post("/reviews", siteHandler.SubmitReview)
		r.With(publicLimiter.HTMLMiddleware()).Post("/contact", siteHandler.SubmitContact)

		r.Get("/reset-password", authHandler.ResetPasswordForm)
		r.With(publicLimiter.HTMLMiddleware()).Post("/reset-password", authHandler.ResetPassword)

		r.With(middleware.RedirectIfAuthenticated(sm, redirectAdmin)).Get("/admin/login", authHandler.LoginForm)
		r.With(loginProtection.Middleware()).Post("/admin/login", authHandler.Login)
		r.Post("/admin/logout", authHandler.Logout)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAdmin(sm, d.Admins, d.Events))

			r.Get("/admin", adminHandler.Dashboard)
			r.Get("/admin/reviews/{id}/delete", adminHandler.ConfirmDeleteReview)
			r.Post("/admin/reviews/{id}/delete", adminHandler.DeleteReview)

			r.Get("/admin/admins", adminHandler.Admins)
			r.Post("/admin/admins", adminHandler.AddAdmin)
			r.Post("/admin/admins/{id}/toggle", adminHandler.ToggleAdmin)
			r.Post("/admin/admins/{id}/invite", adminHandler.ReinviteAdmin)
			r.Post("/admin/admins/{id}/delete", adminHandler.RemoveAdmin)
			r.Post("/admin/api-token", adminHandler.IssueAPIToken)
			r.Post("/admin/api-token/revoke", adminHandler.RevokeAPIToken)

			r.Get("/admin/events", eventsHandler.List)
			r.Post("/admin/events/jobs/{name}/run", eventsHandler.RunJob)
		})
	})

	r.NotFound(sm.LoadAndSave(http.HandlerFunc(siteHandler.NotFound)).ServeHTTP)

	return r, nil
}
