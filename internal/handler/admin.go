// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/olegiv/campjam-go/internal/admin"
	"github.com/olegiv/campjam-go/internal/auth"
	"github.com/olegiv/campjam-go/internal/contact"
	"github.com/olegiv/campjam-go/internal/invite"
	"github.com/olegiv/campjam-go/internal/middleware"
	"github.com/olegiv/campjam-go/internal/model"
	"github.com/olegiv/campjam-go/internal/render"
	"github.com/olegiv/campjam-go/internal/review"
	"github.com/olegiv/campjam-go/internal/service"
	"github.com/olegiv/campjam-go/internal/session"
)

// Dashboard messages.
const (
	msgReviewDeleted      = "The review has been permanently deleted."
	msgReviewDeleteFailed = "Failed to delete review. Please try again."
	msgReviewNotFound     = "Review not found. It may have already been deleted."
	msgEnquiriesFailed    = "Failed to load enquiries."
)

// recentEnquiries is how many contact enquiries the dashboard shows.
const recentEnquiries = 10

// AdminHandler serves the review dashboard and the allow-list pages.
type AdminHandler struct {
	renderer     *render.Renderer
	tokens       *auth.Provider
	reviews      *review.Service
	contacts     *contact.Service
	admins       *admin.Service
	eventService *service.EventService
	mailEnabled  bool
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(renderer *render.Renderer, tokens *auth.Provider, reviews *review.Service,
	contacts *contact.Service, admins *admin.Service, events *service.EventService, mailEnabled bool) *AdminHandler {
	return &AdminHandler{
		renderer:     renderer,
		tokens:       tokens,
		reviews:      reviews,
		contacts:     contacts,
		admins:       admins,
		eventService: events,
		mailEnabled:  mailEnabled,
	}
}

// DashboardData is the data of the review dashboard.
type DashboardData struct {
	Reviews   []model.Review
	Enquiries []model.ContactMessage
}

// Dashboard handles GET /admin.
func (h *AdminHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	td := render.TemplateData{Title: "Admin Dashboard"}

	reviews, err := h.reviews.List(r.Context())
	if err != nil {
		slog.Error("failed to load reviews", "error", err)
		reviews = []model.Review{}
		td.Flash, td.FlashType = msgReviewsLoadFailed, session.FlashError
	}

	enquiries, err := h.contacts.Recent(r.Context(), recentEnquiries)
	if err != nil {
		slog.Error("failed to load enquiries", "error", err)
		if td.Flash == "" {
			td.Flash, td.FlashType = msgEnquiriesFailed, session.FlashError
		}
	}

	td.Data = DashboardData{Reviews: reviews, Enquiries: enquiries}
	h.renderer.MustRender(w, r, http.StatusOK, "admin/dashboard", td)
}

// DeleteReviewData is the data of the delete confirmation page.
type DeleteReviewData struct {
	Review  model.Review
	Preview string
}

// ConfirmDeleteReview handles GET /admin/reviews/{id}/delete, the first step
// of a delete. Nothing is removed until the confirmation is posted.
func (h *AdminHandler) ConfirmDeleteReview(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		flashError(w, r, h.renderer, redirectAdmin, msgReviewNotFound)
		return
	}

	rv, err := h.reviews.Get(r.Context(), id)
	if err != nil {
		if !errors.Is(err, review.ErrNotFound) {
			slog.Error("failed to load review", "error", err, "review_id", id)
			flashError(w, r, h.renderer, redirectAdmin, msgReviewDeleteFailed)
			return
		}
		flashError(w, r, h.renderer, redirectAdmin, msgReviewNotFound)
		return
	}

	h.renderer.MustRender(w, r, http.StatusOK, "admin/delete_review", render.TemplateData{
		Title: "Delete Review",
		Data:  DeleteReviewData{Review: rv, Preview: review.Preview(rv)},
	})
}

// DeleteReview handles POST /admin/reviews/{id}/delete.
func (h *AdminHandler) DeleteReview(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		flashError(w, r, h.renderer, redirectAdmin, msgReviewNotFound)
		return
	}

	if _, err := h.reviews.Delete(r.Context(), id); err != nil {
		switch {
		case errors.Is(err, review.ErrNotFound):
			flashError(w, r, h.renderer, redirectAdmin, msgReviewNotFound)
		case errors.Is(err, review.ErrDeleteInProgress):
			flashError(w, r, h.renderer, redirectAdmin, "This review is already being deleted.")
		default:
			slog.Error("failed to delete review", "error", err, "review_id", id)
			flashError(w, r, h.renderer, redirectAdmin, msgReviewDeleteFailed)
		}
		return
	}

	user := middleware.GetUser(r)
	slog.Info("review deleted", "review_id", id, "deleted_by", user.Email)
	_ = h.eventService.LogReviewEvent(r.Context(), model.EventLevelInfo, "Review deleted",
		user.ID, middleware.ClientIP(r), map[string]any{"review_id": id})

	flashSuccess(w, r, h.renderer, redirectAdmin, msgReviewDeleted)
}

// AdminsData is the data of the allow-list page. NewAPIToken is set only in
// the response that issued it.
type AdminsData struct {
	Admins      []model.AdminUser
	Email       string
	Error       string
	MailEnabled bool
	APIToken    *model.APIToken
	NewAPIToken string
}

func (h *AdminHandler) renderAdmins(w http.ResponseWriter, r *http.Request, status int, data AdminsData) {
	admins, err := h.admins.List(r.Context())
	if err != nil {
		logAndInternalError(w, "failed to list admins", "error", err)
		return
	}
	data.Admins = admins
	data.MailEnabled = h.mailEnabled

	tok, ok, err := h.tokens.APIToken(r.Context(), middleware.GetUserID(r))
	if err != nil {
		logAndInternalError(w, "failed to load API token", "error", err)
		return
	}
	if ok {
		data.APIToken = &tok
	}

	h.renderer.MustRender(w, r, status, "admin/admins", render.TemplateData{
		Title: "Admin Users",
		Data:  data,
	})
}

// Admins handles GET /admin/admins.
func (h *AdminHandler) Admins(w http.ResponseWriter, r *http.Request) {
	h.renderAdmins(w, r, http.StatusOK, AdminsData{})
}

// AddAdmin handles POST /admin/admins. The entry is created first; a failed
// invitation keeps it and is reported so the invite can be resent.
func (h *AdminHandler) AddAdmin(w http.ResponseWriter, r *http.Request) {
	if !parseFormOrRedirect(w, r, h.renderer, "/admin/admins") {
		return
	}

	user := middleware.GetUser(r)
	email := r.PostFormValue("email")

	a, err := h.admins.AddAdmin(r.Context(), user.Email, email)
	if err != nil {
		var inviteErr *admin.InviteError
		switch {
		case errors.Is(err, admin.ErrInvalidEmail), errors.Is(err, admin.ErrAdminExists):
			h.renderAdmins(w, r, http.StatusBadRequest, AdminsData{Email: email, Error: capitalize(err.Error())})
		case errors.As(err, &inviteErr):
			h.logAdminChange(r, "Admin added", inviteErr.Admin)
			slog.Warn("admin invitation failed", "email", inviteErr.Admin.Email, "error", inviteErr.Err)
			flashError(w, r, h.renderer, "/admin/admins", fmt.Sprintf(
				"%s was added, but the invitation could not be sent: %s",
				inviteErr.Admin.Email, invite.PublicMessage(inviteErr.Err)))
		default:
			logAndInternalError(w, "failed to add admin", "error", err)
		}
		return
	}

	h.logAdminChange(r, "Admin added", a)
	_ = h.eventService.LogInviteEvent(r.Context(), model.EventLevelInfo, "Invitation sent",
		user.ID, middleware.ClientIP(r), map[string]any{"email": a.Email})
	flashSuccess(w, r, h.renderer, "/admin/admins", fmt.Sprintf(
		"%s was added and an invitation to set a password has been sent.", a.Email))
}

// ReinviteAdmin handles POST /admin/admins/{id}/invite. It always issues a
// fresh link, also for accounts that already have a password.
func (h *AdminHandler) ReinviteAdmin(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		flashError(w, r, h.renderer, "/admin/admins", capitalize(admin.ErrAdminNotFound.Error()))
		return
	}

	a, err := h.admins.Reinvite(r.Context(), id)
	if err != nil {
		var inviteErr *admin.InviteError
		switch {
		case errors.Is(err, admin.ErrAdminNotFound):
			flashError(w, r, h.renderer, "/admin/admins", capitalize(err.Error()))
		case errors.As(err, &inviteErr):
			slog.Warn("admin re-invitation failed", "email", inviteErr.Admin.Email, "error", inviteErr.Err)
			flashError(w, r, h.renderer, "/admin/admins", "The invitation could not be sent: "+invite.PublicMessage(inviteErr.Err))
		default:
			logAndInternalError(w, "failed to resend invitation", "error", err)
		}
		return
	}

	_ = h.eventService.LogInviteEvent(r.Context(), model.EventLevelInfo, "Invitation resent",
		middleware.GetUserID(r), middleware.ClientIP(r), map[string]any{"email": a.Email})
	flashSuccess(w, r, h.renderer, "/admin/admins", "A new invitation has been sent to "+a.Email+".")
}

// IssueAPIToken handles POST /admin/api-token. The new token replaces the
// admin's previous one and is shown in this response only.
func (h *AdminHandler) IssueAPIToken(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)

	raw, _, err := h.tokens.IssueAPIToken(r.Context(), user.ID)
	if err != nil {
		logAndInternalError(w, "failed to issue API token", "error", err, "user_id", user.ID)
		return
	}

	slog.Info("API token issued", "email", user.Email)
	_ = h.eventService.LogAuthEvent(r.Context(), model.EventLevelInfo, "API token issued",
		user.ID, middleware.ClientIP(r), nil)
	w.Header().Set("Cache-Control", "no-store")
	h.renderAdmins(w, r, http.StatusOK, AdminsData{NewAPIToken: raw})
}

// RevokeAPIToken handles POST /admin/api-token/revoke.
func (h *AdminHandler) RevokeAPIToken(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)

	if err := h.tokens.RevokeAPIToken(r.Context(), user.ID); err != nil {
		logAndInternalError(w, "failed to revoke API token", "error", err, "user_id", user.ID)
		return
	}

	slog.Info("API token revoked", "email", user.Email)
	_ = h.eventService.LogAuthEvent(r.Context(), model.EventLevelInfo, "API token revoked",
		user.ID, middleware.ClientIP(r), nil)
	flashSuccess(w, r, h.renderer, "/admin/admins", "The API token has been revoked.")
}

// ToggleAdmin handles POST /admin/admins/{id}/toggle.
func (h *AdminHandler) ToggleAdmin(w http.ResponseWriter, r *http.Request) {
	h.changeAdmin(w, r, func(actor string, id int64) (model.AdminUser, string, error) {
		current, err := h.admins.Get(r.Context(), id)
		if err != nil {
			return model.AdminUser{}, "", err
		}
		a, err := h.admins.SetActive(r.Context(), actor, id, !current.IsActive)
		if err != nil {
			return a, "", err
		}
		if a.IsActive {
			return a, "Admin activated", nil
		}
		return a, "Admin deactivated", nil
	})
}

// RemoveAdmin handles POST /admin/admins/{id}/delete.
func (h *AdminHandler) RemoveAdmin(w http.ResponseWriter, r *http.Request) {
	h.changeAdmin(w, r, func(actor string, id int64) (model.AdminUser, string, error) {
		a, err := h.admins.RemoveAdmin(r.Context(), actor, id)
		return a, "Admin removed", err
	})
}

// changeAdmin runs an allow-list change for the entry named by the route and
// reports the outcome as a flash on the allow-list page.
func (h *AdminHandler) changeAdmin(w http.ResponseWriter, r *http.Request,
	change func(actor string, id int64) (model.AdminUser, string, error)) {
	id, ok := urlID(r, "id")
	if !ok {
		flashError(w, r, h.renderer, "/admin/admins", capitalize(admin.ErrAdminNotFound.Error()))
		return
	}

	a, what, err := change(middleware.GetUserEmail(r), id)
	if err != nil {
		if errors.Is(err, admin.ErrAdminNotFound) || errors.Is(err, admin.ErrSelfRemoval) {
			flashError(w, r, h.renderer, "/admin/admins", capitalize(err.Error()))
			return
		}
		logAndInternalError(w, "failed to update admin", "error", err, "admin_id", id)
		return
	}

	h.logAdminChange(r, what, a)
	flashSuccess(w, r, h.renderer, "/admin/admins", what+": "+a.Email)
}

func (h *AdminHandler) logAdminChange(r *http.Request, what string, a model.AdminUser) {
	slog.Info(what, "email", a.Email, "by", middleware.GetUserEmail(r))
	_ = h.eventService.LogAdminEvent(r.Context(), model.EventLevelInfo, what,
		middleware.GetUserID(r), middleware.ClientIP(r), map[string]any{"email": a.Email, "active": a.IsActive})
}

// capitalize upper-cases the first letter of an error message for display.
func capitalize(s string) string {
	if s == "" || s[0] < 'a' || s[0] > 'z' {
		return s
	}
	return string(s[0]-'a'+'A') + s[1:]
}
