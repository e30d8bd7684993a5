// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/olegiv/campjam-go/internal/invite"
	"github.com/olegiv/campjam-go/internal/middleware"
	"github.com/olegiv/campjam-go/internal/model"
	"github.com/olegiv/campjam-go/internal/review"
	"github.com/olegiv/campjam-go/internal/service"
)

// InviteSuccessMessage is returned by a successful invite call.
const InviteSuccessMessage = "Admin user created and email sent successfully"

// Inviter issues password-set invitations.
type Inviter interface {
	Issue(ctx context.Context, email string) (invite.Result, error)
}

// APIHandler serves the JSON API.
type APIHandler struct {
	reviews      *review.Service
	inviter      Inviter
	eventService *service.EventService
}

// NewAPIHandler creates a new APIHandler.
func NewAPIHandler(reviews *review.Service, inviter Inviter, events *service.EventService) *APIHandler {
	return &APIHandler{
		reviews:      reviews,
		inviter:      inviter,
		eventService: events,
	}
}

// reviewRequest is the body of POST /api/v1/reviews.
type reviewRequest struct {
	Name    string `json:"name"`
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

// inviteRequest is the body of POST /api/v1/invite.
type inviteRequest struct {
	Email string `json:"email"`
}

// writeJSONValidation writes a 400 carrying the per-field messages.
func writeJSONValidation(w http.ResponseWriter, verr *model.ValidationError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"success": false,
		"error":   "Validation failed",
		"fields":  verr.Fields,
	})
}

// ListReviews handles GET /api/v1/reviews.
func (h *APIHandler) ListReviews(w http.ResponseWriter, r *http.Request) {
	reviews, err := h.reviews.List(r.Context())
	if err != nil {
		slog.Error("failed to load reviews", "error", err)
		writeJSONError(w, http.StatusInternalServerError, msgReviewsLoadFailed)
		return
	}
	writeJSONSuccess(w, http.StatusOK, map[string]any{"reviews": reviews})
}

// CreateReview handles POST /api/v1/reviews. The response carries the stored
// review and the re-fetched list.
func (h *APIHandler) CreateReview(w http.ResponseWriter, r *http.Request) {
	var req reviewRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	rv, err := h.reviews.Submit(r.Context(), review.SubmitInput{
		Name:    req.Name,
		Rating:  req.Rating,
		Comment: req.Comment,
	})
	if err != nil {
		var verr *model.ValidationError
		if errors.As(err, &verr) {
			writeJSONValidation(w, verr)
			return
		}
		slog.Error("failed to submit review", "error", err)
		writeJSONError(w, http.StatusInternalServerError, msgReviewFailed)
		return
	}

	_ = h.eventService.LogReviewEvent(r.Context(), model.EventLevelInfo, "Review submitted", 0,
		middleware.ClientIP(r), map[string]any{"review_id": rv.ID, "rating": rv.Rating, "via": "api"})

	reviews, err := h.reviews.List(r.Context())
	if err != nil {
		slog.Error("failed to reload reviews", "error", err)
		reviews = []model.Review{rv}
	}
	writeJSONSuccess(w, http.StatusCreated, map[string]any{"review": rv, "reviews": reviews})
}

// DeleteReview handles DELETE /api/v1/reviews/{id}. On success the response
// carries the list without the deleted review; on failure nothing changes.
// The list is left out when it could not be reloaded.
func (h *APIHandler) DeleteReview(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		writeJSONError(w, http.StatusBadRequest, "Invalid review ID")
		return
	}

	remaining, err := h.reviews.Delete(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, review.ErrNotFound):
			writeJSONError(w, http.StatusNotFound, "Review not found")
		case errors.Is(err, review.ErrDeleteInProgress):
			writeJSONError(w, http.StatusConflict, "This review is already being deleted")
		default:
			slog.Error("failed to delete review", "error", err, "review_id", id)
			writeJSONError(w, http.StatusInternalServerError, msgReviewDeleteFailed)
		}
		return
	}

	_ = h.eventService.LogReviewEvent(r.Context(), model.EventLevelInfo, "Review deleted",
		middleware.GetUserID(r), middleware.ClientIP(r), map[string]any{"review_id": id, "via": "api"})

	body := map[string]any{"message": msgReviewDeleted}
	if remaining != nil {
		body["reviews"] = remaining
	}
	writeJSONSuccess(w, http.StatusOK, body)
}

// Invite handles POST /api/v1/invite. Each failure kind has its own status
// and message; downstream detail is passed through in "details".
func (h *APIHandler) Invite(w http.ResponseWriter, r *http.Request) {
	var req inviteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	res, err := h.inviter.Issue(r.Context(), req.Email)
	if err != nil {
		slog.Warn("invite failed", "email", req.Email, "error", err)
		middleware.WriteAPIError(w, invite.Status(err), invite.PublicMessage(err), invite.Details(err))
		return
	}

	_ = h.eventService.LogInviteEvent(r.Context(), model.EventLevelInfo, "Invitation sent",
		middleware.GetUserID(r), middleware.ClientIP(r),
		map[string]any{"email": res.Email, "account_created": res.AccountCreated, "via": "api"})

	writeJSONSuccess(w, http.StatusOK, map[string]any{
		"message": InviteSuccessMessage,
		"email":   res.Email,
	})
}
