// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package review handles customer review submission, listing and moderation.
package review

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/olegiv/campjam-go/internal/cache"
	"github.com/olegiv/campjam-go/internal/model"
	"github.com/olegiv/campjam-go/internal/store"
	"github.com/olegiv/campjam-go/internal/util"
)

// Field limits.
const (
	MaxNameLength    = 100
	MaxCommentLength = 2000

	// PreviewLength is how much of a comment the delete confirmation shows.
	PreviewLength = 100
)

// Errors returned by the review service.
var (
	ErrNotFound         = errors.New("review not found")
	ErrDeleteInProgress = errors.New("this review is already being deleted")
)

// SubmitInput is a visitor's review as typed into the form.
type SubmitInput struct {
	Name    string
	Rating  int
	Comment string
}

// ParseRating converts a form value; anything unparsable becomes 0, which
// fails validation.
func ParseRating(s string) int {
	r, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return r
}

// Service manages reviews.
type Service struct {
	queries *store.Queries
	cache   *cache.ReviewCache
	logger  *slog.Logger
	now     func() time.Time

	mu       sync.Mutex
	deleting map[int64]struct{}
}

// NewService creates a review service. rc may be nil to disable caching.
func NewService(db *sql.DB, rc *cache.ReviewCache, logger *slog.Logger) *Service {
	return &Service{
		queries:  store.New(db),
		cache:    rc,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
		deleting: make(map[int64]struct{}),
	}
}

// Validate cleans the input and checks it. Markup is stripped, surrounding
// space trimmed and the rating re-checked against 1..5.
func Validate(in SubmitInput) (SubmitInput, error) {
	out := SubmitInput{
		Name:    util.PlainText(in.Name),
		Rating:  in.Rating,
		Comment: util.PlainText(in.Comment),
	}

	verr := model.NewValidationError()
	switch {
	case out.Name == "":
		verr.Add("name", "Please enter your name.")
	case util.RuneLen(out.Name) > MaxNameLength:
		verr.Add("name", fmt.Sprintf("Name must be at most %d characters.", MaxNameLength))
	}
	if !model.ValidRating(out.Rating) {
		verr.Add("rating", fmt.Sprintf("Please choose a rating from %d to %d stars.", model.MinRating, model.MaxRating))
	}
	switch {
	case out.Comment == "":
		verr.Add("comment", "Please write a comment.")
	case util.RuneLen(out.Comment) > MaxCommentLength:
		verr.Add("comment", fmt.Sprintf("Comment must be at most %d characters.", MaxCommentLength))
	}

	return out, verr.OrNil()
}

// Submit validates and stores a review. Validation failures return
// *model.ValidationError and nothing is written.
func (s *Service) Submit(ctx context.Context, in SubmitInput) (model.Review, error) {
	clean, err := Validate(in)
	if err != nil {
		return model.Review{}, err
	}

	r, err := s.queries.CreateReview(ctx, store.CreateReviewParams{
		Name:      clean.Name,
		Rating:    clean.Rating,
		Comment:   clean.Comment,
		CreatedAt: s.now(),
	})
	if err != nil {
		return model.Review{}, fmt.Errorf("saving review: %w", err)
	}

	s.invalidate(ctx)
	return r, nil
}

// List returns every review, most recent first. An empty result is a
// non-nil empty slice.
func (s *Service) List(ctx context.Context) ([]model.Review, error) {
	if s.cache == nil {
		return s.load(ctx)
	}
	return s.cache.GetOrLoad(ctx, s.load)
}

func (s *Service) load(ctx context.Context) ([]model.Review, error) {
	reviews, err := s.queries.ListReviews(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing reviews: %w", err)
	}
	return reviews, nil
}

// Get returns a single review.
func (s *Service) Get(ctx context.Context, id int64) (model.Review, error) {
	r, err := s.queries.GetReviewByID(ctx, id)
	if err != nil {
		if store.IsNotFound(err) {
			return model.Review{}, ErrNotFound
		}
		return model.Review{}, fmt.Errorf("loading review: %w", err)
	}
	return r, nil
}

// Delete removes exactly the review with id and returns the remaining list.
// When the list is cached it is updated in place rather than re-read. A
// second Delete for the same id while the first is running fails with
// ErrDeleteInProgress. Failures are returned once and never retried.
func (s *Service) Delete(ctx context.Context, id int64) ([]model.Review, error) {
	if !s.begin(id) {
		return nil, ErrDeleteInProgress
	}
	defer s.end(id)

	n, err := s.queries.DeleteReview(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("deleting review: %w", err)
	}
	if n == 0 {
		return nil, ErrNotFound
	}

	if s.cache != nil {
		if remaining, ok := s.cache.Remove(ctx, id); ok {
			return remaining, nil
		}
	}
	remaining, err := s.load(ctx)
	if err != nil {
		// The row is gone; only the refreshed list is missing.
		s.logger.Warn("reloading reviews after delete failed", "error", err, "review_id", id)
		return nil, nil
	}
	return remaining, nil
}

// Preview returns the comment shortened for the delete confirmation.
func Preview(r model.Review) string {
	return util.Truncate(r.Comment, PreviewLength)
}

func (s *Service) begin(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.deleting[id]; busy {
		return false
	}
	s.deleting[id] = struct{}{}
	return true
}

func (s *Service) end(id int64) {
	s.mu.Lock()
	delete(s.deleting, id)
	s.mu.Unlock()
}

func (s *Service) invalidate(ctx context.Context) {
	if s.cache != nil {
		s.cache.Invalidate(ctx)
	}
}
