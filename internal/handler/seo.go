// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"net/http"
	"sync"

	"github.com/olegiv/campjam-go/internal/gallery"
	"github.com/olegiv/campjam-go/internal/seo"
)

// SEOHandler serves robots.txt and the sitemap.
type SEOHandler struct {
	siteURL string
	catalog *gallery.Catalog
	noIndex bool

	// The catalog is embedded, so the sitemap never changes at runtime.
	sitemapOnce sync.Once
	sitemap     []byte
	sitemapErr  error
}

// NewSEOHandler creates a new SEOHandler. With noIndex set, robots.txt asks
// crawlers to stay away from the whole site.
func NewSEOHandler(siteURL string, catalog *gallery.Catalog, noIndex bool) *SEOHandler {
	return &SEOHandler{siteURL: siteURL, catalog: catalog, noIndex: noIndex}
}

// Robots handles GET /robots.txt.
func (h *SEOHandler) Robots(w http.ResponseWriter, _ *http.Request) {
	body := seo.NewRobotsBuilder(seo.RobotsConfig{
		SiteURL:     h.siteURL,
		DisallowAll: h.noIndex,
	}).Build()

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	_, _ = w.Write([]byte(body))
}

// Sitemap handles GET /sitemap.xml.
func (h *SEOHandler) Sitemap(w http.ResponseWriter, _ *http.Request) {
	h.sitemapOnce.Do(func() {
		var categories []string
		for _, c := range gallery.Categories {
			if c != gallery.CategoryAll {
				categories = append(categories, c)
			}
		}
		h.sitemap, h.sitemapErr = seo.GenerateSitemap(h.siteURL, categories, h.catalog.Projects())
	})
	if h.sitemapErr != nil {
		logAndInternalError(w, "failed to build sitemap", "error", h.sitemapErr)
		return
	}

	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	_, _ = w.Write(h.sitemap)
}
