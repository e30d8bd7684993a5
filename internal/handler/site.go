// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package handler provides the HTTP handlers of the CampJam site: the public
// pages, the admin dashboard and the JSON API.
package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/campjam-go/internal/contact"
	"github.com/olegiv/campjam-go/internal/gallery"
	"github.com/olegiv/campjam-go/internal/middleware"
	"github.com/olegiv/campjam-go/internal/model"
	"github.com/olegiv/campjam-go/internal/render"
	"github.com/olegiv/campjam-go/internal/review"
	"github.com/olegiv/campjam-go/internal/service"
	"github.com/olegiv/campjam-go/internal/session"
)

// Public page messages.
const (
	msgReviewThanks      = "Thank you for your review!"
	msgReviewFailed      = "Failed to submit review. Please try again."
	msgReviewsLoadFailed = "Failed to load reviews."
	msgContactFailed     = "Failed to send message. Please try again."
)

// SiteHandler serves the public one-page site, the gallery and its forms.
type SiteHandler struct {
	renderer *render.Renderer
	reviews  *review.Service
	contacts *contact.Service
	catalog  *gallery.Catalog
	events   *service.EventService
}

// NewSiteHandler creates a new SiteHandler.
func NewSiteHandler(renderer *render.Renderer, reviews *review.Service, contacts *contact.Service,
	catalog *gallery.Catalog, events *service.EventService) *SiteHandler {
	return &SiteHandler{
		renderer: renderer,
		reviews:  reviews,
		contacts: contacts,
		catalog:  catalog,
		events:   events,
	}
}

// GalleryData is the project grid with its active filter.
type GalleryData struct {
	Categories []string
	Category   string
	Projects   []model.Project
}

// HomeData is the data of the home page. The form fields echo what the
// visitor typed when a submission is redisplayed.
type HomeData struct {
	Gallery       GalleryData
	Reviews       []model.Review
	ReviewForm    review.SubmitInput
	ReviewErrors  map[string]string
	ContactForm   contact.Input
	ContactErrors map[string]string
}

// ProjectData is the data of the lightbox page.
type ProjectData struct {
	Slide    gallery.Slide
	CloseURL string
}

func (h *SiteHandler) gallery(category string) GalleryData {
	if !gallery.ValidCategory(category) {
		category = gallery.CategoryAll
	}
	return GalleryData{
		Categories: gallery.Categories,
		Category:   category,
		Projects:   h.catalog.Filter(category),
	}
}

// renderHome loads the review list and renders the home page. A failed load
// shows an empty list with an error notice instead of failing the page.
func (h *SiteHandler) renderHome(w http.ResponseWriter, r *http.Request, status int, data HomeData, td render.TemplateData) {
	reviews, err := h.reviews.List(r.Context())
	if err != nil {
		slog.Error("failed to load reviews", "error", err)
		reviews = []model.Review{}
		if td.Flash == "" {
			td.Flash, td.FlashType = msgReviewsLoadFailed, session.FlashError
		}
	}

	data.Gallery = h.gallery(gallery.CategoryAll)
	data.Reviews = reviews
	td.Data = data
	h.renderer.MustRender(w, r, status, "pages/home", td)
}

// Home handles GET /.
func (h *SiteHandler) Home(w http.ResponseWriter, r *http.Request) {
	h.renderHome(w, r, http.StatusOK, HomeData{}, render.TemplateData{})
}

// Projects handles GET /projects?category=.
func (h *SiteHandler) Projects(w http.ResponseWriter, r *http.Request) {
	h.renderer.MustRender(w, r, http.StatusOK, "pages/projects", render.TemplateData{
		Title: "Our Projects",
		Data:  h.gallery(r.URL.Query().Get("category")),
	})
}

// Project handles GET /projects/{id}?i=, the lightbox for one project.
func (h *SiteHandler) Project(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		h.NotFound(w, r)
		return
	}
	p, err := h.catalog.Project(id)
	if err != nil {
		h.NotFound(w, r)
		return
	}

	// An unparsable index selects the first item.
	i, _ := strconv.Atoi(r.URL.Query().Get("i"))
	viewer := gallery.OpenProject(p).Select(i, len(p.Media))

	h.renderer.MustRender(w, r, http.StatusOK, "pages/project", render.TemplateData{
		Title: p.Title,
		Data: ProjectData{
			Slide:    viewer.Slide(p),
			CloseURL: "/projects",
		},
	})
}

// NotFound renders the 404 page for any unknown route.
func (h *SiteHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	slog.Info("page not found", "path", r.URL.Path, "ip", middleware.ClientIP(r))
	h.renderer.MustRender(w, r, http.StatusNotFound, "pages/not_found", render.TemplateData{
		Title: "Not Found",
	})
}

// SubmitReview handles POST /reviews.
func (h *SiteHandler) SubmitReview(w http.ResponseWriter, r *http.Request) {
	if !parseFormOrRedirect(w, r, h.renderer, "/#reviews") {
		return
	}

	in := review.SubmitInput{
		Name:    r.PostFormValue("name"),
		Rating:  review.ParseRating(r.PostFormValue("rating")),
		Comment: r.PostFormValue("comment"),
	}

	rv, err := h.reviews.Submit(r.Context(), in)
	if err != nil {
		var verr *model.ValidationError
		if errors.As(err, &verr) {
			h.renderHome(w, r, http.StatusBadRequest, HomeData{ReviewForm: in, ReviewErrors: verr.Fields}, render.TemplateData{})
			return
		}
		slog.Error("failed to submit review", "error", err)
		h.renderHome(w, r, http.StatusInternalServerError, HomeData{ReviewForm: in}, render.TemplateData{
			Flash: msgReviewFailed, FlashType: session.FlashError,
		})
		return
	}

	_ = h.events.LogReviewEvent(r.Context(), model.EventLevelInfo, "Review submitted", 0,
		middleware.ClientIP(r), map[string]any{"review_id": rv.ID, "rating": rv.Rating})
	flashSuccess(w, r, h.renderer, "/#reviews", msgReviewThanks)
}

// SubmitContact handles POST /contact.
func (h *SiteHandler) SubmitContact(w http.ResponseWriter, r *http.Request) {
	if !parseFormOrRedirect(w, r, h.renderer, "/#contact") {
		return
	}

	in := contact.Input{
		Name:    r.PostFormValue("name"),
		Email:   r.PostFormValue("email"),
		Message: r.PostFormValue("message"),
	}

	if _, err := h.contacts.Submit(r.Context(), in); err != nil {
		var verr *model.ValidationError
		if errors.As(err, &verr) {
			h.renderHome(w, r, http.StatusBadRequest, HomeData{ContactForm: in, ContactErrors: verr.Fields}, render.TemplateData{})
			return
		}
		slog.Error("failed to save enquiry", "error", err)
		h.renderHome(w, r, http.StatusInternalServerError, HomeData{ContactForm: in}, render.TemplateData{
			Flash: msgContactFailed, FlashType: session.FlashError,
		})
		return
	}

	flashSuccess(w, r, h.renderer, "/#contact", contact.SuccessMessage)
}
