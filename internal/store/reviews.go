package store

import (
	"context"
	"time"

	"github.com/olegiv/campjam-go/internal/model"
)

// CreateReviewParams holds the columns of a new review.
type CreateReviewParams struct {
	Name      string
	Rating    int
	Comment   string
	CreatedAt time.Time
}

const createReview = `
INSERT INTO reviews (name, rating, comment, created_at)
VALUES (?, ?, ?, ?)
RETURNING id, name, rating, comment, created_at`

// CreateReview inserts a review and returns the stored row.
func (q *Queries) CreateReview(ctx context.Context, arg CreateReviewParams) (model.Review, error) {
	row := q.db.QueryRowContext(ctx, createReview, arg.Name, arg.Rating, arg.Comment, arg.CreatedAt)
	return scanReview(row)
}

const getReviewByID = `SELECT id, name, rating, comment, created_at FROM reviews WHERE id = ?`

// GetReviewByID returns a single review.
func (q *Queries) GetReviewByID(ctx context.Context, id int64) (model.Review, error) {
	return scanReview(q.db.QueryRowContext(ctx, getReviewByID, id))
}

const listReviews = `
SELECT id, name, rating, comment, created_at FROM reviews
ORDER BY created_at DESC, id DESC`

// ListReviews returns all reviews, most recent first.
func (q *Queries) ListReviews(ctx context.Context) ([]model.Review, error) {
	rows, err := q.db.QueryContext(ctx, listReviews)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	items := []model.Review{}
	for rows.Next() {
		r, err := scanReview(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, r)
	}
	return items, rows.Err()
}

const deleteReview = `DELETE FROM reviews WHERE id = ?`

// DeleteReview removes the review with the given id and returns the number of rows removed.
func (q *Queries) DeleteReview(ctx context.Context, id int64) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteReview, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func scanReview(s scanner) (model.Review, error) {
	var r model.Review
	err := s.Scan(&r.ID, &r.Name, &r.Rating, &r.Comment, &r.CreatedAt)
	return r, err
}
