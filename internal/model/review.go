// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import "time"

// Rating bounds for a review.
const (
	MinRating = 1
	MaxRating = 5
)

// Review is a visitor-submitted customer review.
// Reviews are created by visitors, deleted by admins and never updated in place.
type Review struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
}

// Star is one of the five rating stars rendered for a review.
type Star struct {
	Filled bool
}

// Stars returns MaxRating stars with exactly Rating of them filled.
func (r Review) Stars() []Star {
	stars := make([]Star, MaxRating)
	for i := range stars {
		stars[i].Filled = i < r.Rating
	}
	return stars
}

// ValidRating reports whether rating lies within [MinRating, MaxRating].
func ValidRating(rating int) bool {
	return rating >= MinRating && rating <= MaxRating
}

// WithoutReview returns reviews minus the one with id, preserving order. It
// is the local list update applied after a confirmed delete.
func WithoutReview(reviews []Review, id int64) []Review {
	out := make([]Review, 0, len(reviews))
	for _, r := range reviews {
		if r.ID != id {
			out = append(out, r)
		}
	}
	return out
}
