package review_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/campjam-go/internal/cache"
	"github.com/olegiv/campjam-go/internal/model"
	"github.com/olegiv/campjam-go/internal/review"
	"github.com/olegiv/campjam-go/internal/store"
	"github.com/olegiv/campjam-go/internal/testutil"
)

func newService(t *testing.T, cached bool) *review.Service {
	t.Helper()
	db := testutil.TestDB(t)
	logger := testutil.TestLoggerSilent()

	var rc *cache.ReviewCache
	if cached {
		backend := cache.NewMemoryCache(time.Hour, 0)
		t.Cleanup(func() { _ = backend.Close() })
		rc = cache.NewReviewCache(backend, time.Hour, logger)
	}
	return review.NewService(db, rc, logger)
}

func TestSubmit_StoresStarsExactly(t *testing.T) {
	svc := newService(t, false)
	ctx := context.Background()

	for r := model.MinRating; r <= model.MaxRating; r++ {
		got, err := svc.Submit(ctx, review.SubmitInput{Name: "Ann", Rating: r, Comment: "Lovely floor"})
		require.NoError(t, err)
		assert.Equal(t, r, got.Rating)

		filled := 0
		for _, s := range got.Stars() {
			if s.Filled {
				filled++
			}
		}
		assert.Equal(t, r, filled)
	}
}

func TestSubmit_Validation(t *testing.T) {
	svc := newService(t, false)
	ctx := context.Background()

	tests := []struct {
		name   string
		input  review.SubmitInput
		fields []string
	}{
		{"empty name", review.SubmitInput{Name: "  ", Rating: 5, Comment: "ok"}, []string{"name"}},
		{"empty comment", review.SubmitInput{Name: "Bob", Rating: 5, Comment: ""}, []string{"comment"}},
		{"markup only comment", review.SubmitInput{Name: "Bob", Rating: 5, Comment: "<b></b>"}, []string{"comment"}},
		{"rating zero", review.SubmitInput{Name: "Bob", Rating: 0, Comment: "ok"}, []string{"rating"}},
		{"rating six", review.SubmitInput{Name: "Bob", Rating: 6, Comment: "ok"}, []string{"rating"}},
		{"name too long", review.SubmitInput{Name: strings.Repeat("n", review.MaxNameLength+1), Rating: 3, Comment: "ok"}, []string{"name"}},
		{"everything", review.SubmitInput{}, []string{"name", "rating", "comment"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Submit(ctx, tt.input)
			var verr *model.ValidationError
			require.True(t, errors.As(err, &verr), "want ValidationError, got %v", err)
			for _, f := range tt.fields {
				assert.Contains(t, verr.Fields, f)
			}
			assert.Len(t, verr.Fields, len(tt.fields))
		})
	}

	list, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list, "rejected reviews must not be stored")
}

func TestSubmit_StripsMarkup(t *testing.T) {
	svc := newService(t, false)

	got, err := svc.Submit(context.Background(), review.SubmitInput{
		Name: "<i>Carl</i>", Rating: 4, Comment: "Tiles & grout <script>x()</script>perfect",
	})
	require.NoError(t, err)
	assert.Equal(t, "Carl", got.Name)
	assert.Equal(t, "Tiles & grout perfect", got.Comment)
}

func TestList_MostRecentFirstWithCache(t *testing.T) {
	svc := newService(t, true)
	ctx := context.Background()

	empty, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, empty)

	for _, name := range []string{"first", "second", "third"} {
		_, err := svc.Submit(ctx, review.SubmitInput{Name: name, Rating: 5, Comment: "c"})
		require.NoError(t, err)
	}

	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3, "submit must invalidate the cached empty list")
	assert.Equal(t, "third", list[0].Name)
	assert.Equal(t, "first", list[2].Name)

	remaining, err := svc.Delete(ctx, list[1].ID)
	require.NoError(t, err)
	assert.Equal(t, ids(model.WithoutReview(list, list[1].ID)), ids(remaining))

	after, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, ids(remaining), ids(after))
}

func TestDelete_WarmCacheIsNotReloaded(t *testing.T) {
	db := testutil.TestDB(t)
	logger := testutil.TestLoggerSilent()
	backend := cache.NewMemoryCache(time.Hour, 0)
	t.Cleanup(func() { _ = backend.Close() })
	svc := review.NewService(db, cache.NewReviewCache(backend, time.Hour, logger), logger)
	ctx := context.Background()

	a, err := svc.Submit(ctx, review.SubmitInput{Name: "A", Rating: 4, Comment: "a"})
	require.NoError(t, err)
	b, err := svc.Submit(ctx, review.SubmitInput{Name: "B", Rating: 5, Comment: "b"})
	require.NoError(t, err)
	_, err = svc.List(ctx)
	require.NoError(t, err)

	// Written behind the service's back, so only a table read would see it.
	hidden, err := store.New(db).CreateReview(ctx, store.CreateReviewParams{
		Name: "Hidden", Rating: 3, Comment: "h", CreatedAt: time.Now().UTC(),
	})
	require.NoError(t, err)

	remaining, err := svc.Delete(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, []int64{b.ID}, ids(remaining), "delete must update the cached list, not re-read the table")

	after, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{b.ID}, ids(after))
	assert.NotContains(t, ids(after), hidden.ID)
}

func TestDelete_ColdCacheReturnsFreshList(t *testing.T) {
	svc := newService(t, true)
	ctx := context.Background()

	a, err := svc.Submit(ctx, review.SubmitInput{Name: "A", Rating: 4, Comment: "a"})
	require.NoError(t, err)
	b, err := svc.Submit(ctx, review.SubmitInput{Name: "B", Rating: 5, Comment: "b"})
	require.NoError(t, err)

	remaining, err := svc.Delete(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, []int64{b.ID}, ids(remaining))
}

func ids(reviews []model.Review) []int64 {
	out := make([]int64, len(reviews))
	for i, r := range reviews {
		out[i] = r.ID
	}
	return out
}

func TestDelete(t *testing.T) {
	svc := newService(t, false)
	ctx := context.Background()

	a, err := svc.Submit(ctx, review.SubmitInput{Name: "A", Rating: 1, Comment: "a"})
	require.NoError(t, err)
	b, err := svc.Submit(ctx, review.SubmitInput{Name: "B", Rating: 2, Comment: "b"})
	require.NoError(t, err)

	remaining, err := svc.Delete(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, []int64{b.ID}, ids(remaining))

	_, err = svc.Delete(ctx, a.ID)
	assert.ErrorIs(t, err, review.ErrNotFound)

	_, err = svc.Get(ctx, a.ID)
	assert.ErrorIs(t, err, review.ErrNotFound)
	_, err = svc.Get(ctx, b.ID)
	assert.NoError(t, err)
}

func TestDelete_ConcurrentSameID(t *testing.T) {
	svc := newService(t, false)
	ctx := context.Background()

	r, err := svc.Submit(ctx, review.SubmitInput{Name: "A", Rating: 3, Comment: "a"})
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([]error, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = svc.Delete(ctx, r.ID)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range results {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, review.ErrDeleteInProgress), errors.Is(err, review.ErrNotFound):
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, succeeded, "exactly one delete removes the row")
}

func TestPreview(t *testing.T) {
	long := model.Review{Comment: strings.Repeat("é", 150)}
	p := review.Preview(long)
	assert.Equal(t, strings.Repeat("é", review.PreviewLength)+"...", p)

	short := model.Review{Comment: "short"}
	assert.Equal(t, "short", review.Preview(short))
}

func TestParseRating(t *testing.T) {
	assert.Equal(t, 4, review.ParseRating("4"))
	assert.Equal(t, 0, review.ParseRating("four"))
	assert.Equal(t, 0, review.ParseRating(""))
}
