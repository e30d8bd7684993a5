package store_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/campjam-go/internal/store"
	"github.com/olegiv/campjam-go/internal/testutil"
)

func TestCreateAndListReviews_MostRecentFirst(t *testing.T) {
	db := testutil.TestDB(t)
	q := store.New(db)
	ctx := context.Background()

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	for i, name := range []string{"Oldest", "Middle", "Newest"} {
		_, err := q.CreateReview(ctx, store.CreateReviewParams{
			Name:      name,
			Rating:    i + 3,
			Comment:   "Great work",
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
		})
		require.NoError(t, err)
	}

	reviews, err := q.ListReviews(ctx)
	require.NoError(t, err)
	require.Len(t, reviews, 3)

	assert.Equal(t, "Newest", reviews[0].Name)
	assert.Equal(t, "Middle", reviews[1].Name)
	assert.Equal(t, "Oldest", reviews[2].Name)
	for i := 1; i < len(reviews); i++ {
		assert.False(t, reviews[i].CreatedAt.After(reviews[i-1].CreatedAt),
			"reviews must be in non-increasing created_at order")
	}
	assert.Equal(t, 5, reviews[0].Rating)
}

func TestListReviews_Empty(t *testing.T) {
	db := testutil.TestDB(t)

	reviews, err := store.New(db).ListReviews(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, reviews)
	assert.Empty(t, reviews)
}

func TestCreateReview_RatingCheckConstraint(t *testing.T) {
	db := testutil.TestDB(t)
	q := store.New(db)
	ctx := context.Background()

	for _, rating := range []int{0, 6, -1} {
		_, err := q.CreateReview(ctx, store.CreateReviewParams{
			Name: "Bob", Rating: rating, Comment: "x", CreatedAt: time.Now().UTC(),
		})
		assert.Error(t, err, "rating %d must be rejected by the database", rating)
	}

	all, err := q.ListReviews(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestDeleteReview_RemovesOnlyTarget(t *testing.T) {
	db := testutil.TestDB(t)
	q := store.New(db)
	ctx := context.Background()

	var ids []int64
	for _, name := range []string{"A", "B", "C"} {
		r, err := q.CreateReview(ctx, store.CreateReviewParams{
			Name: name, Rating: 4, Comment: "ok", CreatedAt: time.Now().UTC(),
		})
		require.NoError(t, err)
		ids = append(ids, r.ID)
	}

	affected, err := q.DeleteReview(ctx, ids[1])
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)

	_, err = q.GetReviewByID(ctx, ids[1])
	assert.True(t, store.IsNotFound(err))

	for _, id := range []int64{ids[0], ids[2]} {
		_, err := q.GetReviewByID(ctx, id)
		assert.NoError(t, err)
	}

	affected, err = q.DeleteReview(ctx, ids[1])
	require.NoError(t, err)
	assert.Zero(t, affected)
}

func TestAdminUsers(t *testing.T) {
	db := testutil.TestDB(t)
	q := store.New(db)
	ctx := context.Background()

	a, err := q.CreateAdminUser(ctx, store.CreateAdminUserParams{
		Email: "a@x.com", IsActive: true, CreatedAt: time.Now().UTC(), CreatedBy: "owner@x.com",
	})
	require.NoError(t, err)
	assert.Equal(t, "owner@x.com", a.CreatedBy)

	_, err = q.CreateAdminUser(ctx, store.CreateAdminUserParams{
		Email: "a@x.com", IsActive: true, CreatedAt: time.Now().UTC(),
	})
	assert.True(t, store.IsUniqueViolation(err), "duplicate email must violate UNIQUE, got %v", err)

	got, err := q.GetActiveAdminUserByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, a.ID, got.ID)

	_, err = q.SetAdminUserActive(ctx, a.ID, false)
	require.NoError(t, err)

	_, err = q.GetActiveAdminUserByEmail(ctx, "a@x.com")
	assert.True(t, store.IsNotFound(err), "inactive admin must not be returned")

	got, err = q.GetAdminUserByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.False(t, got.IsActive)

	affected, err := q.DeleteAdminUser(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)

	list, err := q.ListAdminUsers(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestUsers(t *testing.T) {
	db := testutil.TestDB(t)
	q := store.New(db)
	ctx := context.Background()

	now := time.Now().UTC()
	u, err := q.CreateUser(ctx, store.CreateUserParams{
		Email: "user@x.com", PasswordHash: "hash", EmailConfirmed: true, CreatedAt: now, UpdatedAt: now,
	})
	require.NoError(t, err)
	assert.True(t, u.EmailConfirmed)
	assert.False(t, u.LastLoginAt.Valid)

	_, err = q.CreateUser(ctx, store.CreateUserParams{
		Email: "user@x.com", PasswordHash: "other", CreatedAt: now, UpdatedAt: now,
	})
	assert.True(t, store.IsUniqueViolation(err))

	require.NoError(t, q.UpdateUserPassword(ctx, store.UpdateUserPasswordParams{
		PasswordHash: "new-hash", UpdatedAt: now, ID: u.ID,
	}))
	require.NoError(t, q.UpdateUserLastLogin(ctx, sql.NullTime{Time: now, Valid: true}, u.ID))

	got, err := q.GetUserByEmail(ctx, "user@x.com")
	require.NoError(t, err)
	assert.Equal(t, "new-hash", got.PasswordHash)
	assert.True(t, got.LastLoginAt.Valid)

	_, err = q.GetUserByID(ctx, 9999)
	assert.True(t, store.IsNotFound(err))
}

func TestPasswordResetTokens(t *testing.T) {
	db := testutil.TestDB(t)
	q := store.New(db)
	ctx := context.Background()

	u := testutil.CreateAccount(t, db, "reset@x.com", "long-enough-password")
	now := time.Now().UTC()

	tok, err := q.CreatePasswordResetToken(ctx, store.CreatePasswordResetTokenParams{
		UserID: u.ID, TokenHash: "h1", ExpiresAt: now.Add(24 * time.Hour), CreatedAt: now,
	})
	require.NoError(t, err)

	got, err := q.GetPasswordResetToken(ctx, "h1")
	require.NoError(t, err)
	assert.Equal(t, tok.ID, got.ID)
	assert.False(t, got.UsedAt.Valid)

	n, err := q.MarkPasswordResetTokenUsed(ctx, tok.ID, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = q.MarkPasswordResetTokenUsed(ctx, tok.ID, now)
	require.NoError(t, err)
	assert.Zero(t, n, "a token can only be consumed once")

	_, err = q.CreatePasswordResetToken(ctx, store.CreatePasswordResetTokenParams{
		UserID: u.ID, TokenHash: "h2", ExpiresAt: now.Add(-time.Hour), CreatedAt: now.Add(-25 * time.Hour),
	})
	require.NoError(t, err)
	_, err = q.CreatePasswordResetToken(ctx, store.CreatePasswordResetTokenParams{
		UserID: u.ID, TokenHash: "h3", ExpiresAt: now.Add(time.Hour), CreatedAt: now,
	})
	require.NoError(t, err)

	purged, err := q.DeleteExpiredResetTokens(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(2), purged, "used and expired tokens are purged")

	_, err = q.GetPasswordResetToken(ctx, "h3")
	assert.NoError(t, err)
}

func TestEventsAndContactMessages(t *testing.T) {
	db := testutil.TestDB(t)
	q := store.New(db)
	ctx := context.Background()
	now := time.Now().UTC()

	_, err := q.CreateEvent(ctx, store.CreateEventParams{
		Level: "info", Category: "auth", Message: "old", Metadata: "{}", CreatedAt: now.Add(-100 * 24 * time.Hour),
	})
	require.NoError(t, err)
	_, err = q.CreateEvent(ctx, store.CreateEventParams{
		Level: "warning", Category: "auth", Message: "new", Metadata: "{}", IpAddress: "10.0.0.1", CreatedAt: now,
	})
	require.NoError(t, err)

	events, err := q.ListEvents(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "new", events[0].Message)
	assert.Equal(t, "10.0.0.1", events[0].IPAddress)

	deleted, err := q.DeleteOldEvents(ctx, now.Add(-90*24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	count, err := q.CountEvents(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	m, err := q.CreateContactMessage(ctx, store.CreateContactMessageParams{
		Name: "Ann", Email: "ann@x.com", Message: "Quote please", CreatedAt: now,
	})
	require.NoError(t, err)
	assert.NotZero(t, m.ID)

	msgs, err := q.ListContactMessages(ctx, 5)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "Quote please", msgs[0].Message)
}

func TestWithTx_Rollback(t *testing.T) {
	db := testutil.TestDB(t)
	ctx := context.Background()

	tx, err := db.BeginTx(ctx, nil)
	require.NoError(t, err)

	_, err = store.New(db).WithTx(tx).CreateReview(ctx, store.CreateReviewParams{
		Name: "Tx", Rating: 5, Comment: "rolled back", CreatedAt: time.Now().UTC(),
	})
	require.NoError(t, err)
	require.NoError(t, tx.Rollback())

	all, err := store.New(db).ListReviews(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}
