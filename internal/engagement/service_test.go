package engagement

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tiendita/storefront/internal/repository"
)

// fakeLikeStore keeps like rows in a map keyed (user, product) and mirrors
// the repository's conflict contract.
type fakeLikeStore struct {
	rows    map[[2]uint64]bool
	failErr error
}

func newFakeLikeStore() *fakeLikeStore {
	return &fakeLikeStore{rows: make(map[[2]uint64]bool)}
}

func (f *fakeLikeStore) LikeCount(_ context.Context, productID uint64) (int64, error) {
	if f.failErr != nil {
		return 0, f.failErr
	}
	var n int64
	for k := range f.rows {
		if k[1] == productID {
			n++
		}
	}
	return n, nil
}

func (f *fakeLikeStore) HasLiked(_ context.Context, userID, productID uint64) (bool, error) {
	if f.failErr != nil {
		return false, f.failErr
	}
	return f.rows[[2]uint64{userID, productID}], nil
}

func (f *fakeLikeStore) AddLike(_ context.Context, userID, productID uint64) error {
	if f.failErr != nil {
		return f.failErr
	}
	k := [2]uint64{userID, productID}
	if f.rows[k] {
		return repository.ErrAlreadyLiked
	}
	f.rows[k] = true
	return nil
}

func (f *fakeLikeStore) RemoveLike(_ context.Context, userID, productID uint64) error {
	if f.failErr != nil {
		return f.failErr
	}
	k := [2]uint64{userID, productID}
	if !f.rows[k] {
		return repository.ErrNotLiked
	}
	delete(f.rows, k)
	return nil
}

// fakeRatingStore keeps one star value per (user, product), like the
// upsert-backed table.
type fakeRatingStore struct {
	rows    map[[2]uint64]int
	upserts int
	failErr error
}

func newFakeRatingStore() *fakeRatingStore {
	return &fakeRatingStore{rows: make(map[[2]uint64]int)}
}

func (f *fakeRatingStore) UpsertRating(_ context.Context, userID, productID uint64, stars int) error {
	if f.failErr != nil {
		return f.failErr
	}
	f.upserts++
	f.rows[[2]uint64{userID, productID}] = stars
	return nil
}

func (f *fakeRatingStore) CountsByStar(_ context.Context, productID uint64) (map[int]int64, error) {
	if f.failErr != nil {
		return nil, f.failErr
	}
	counts := make(map[int]int64)
	for k, stars := range f.rows {
		if k[1] == productID {
			counts[stars]++
		}
	}
	return counts, nil
}

func newTestService() (*Service, *fakeLikeStore, *fakeRatingStore) {
	likes := newFakeLikeStore()
	ratings := newFakeRatingStore()
	return NewService(likes, ratings), likes, ratings
}

func TestLikeState(t *testing.T) {
	ctx := context.Background()

	t.Run("anonymous viewer sees totals but never a personal flag", func(t *testing.T) {
		svc, likes, _ := newTestService()
		require.NoError(t, likes.AddLike(ctx, 7, 1))
		require.NoError(t, likes.AddLike(ctx, 8, 1))

		state, err := svc.LikeState(ctx, 1, 0)
		require.NoError(t, err)
		assert.Equal(t, int64(2), state.TotalLikes)
		assert.False(t, state.UserHasLiked)
	})

	t.Run("authenticated viewer sees their own like", func(t *testing.T) {
		svc, likes, _ := newTestService()
		require.NoError(t, likes.AddLike(ctx, 7, 1))

		state, err := svc.LikeState(ctx, 1, 7)
		require.NoError(t, err)
		assert.Equal(t, int64(1), state.TotalLikes)
		assert.True(t, state.UserHasLiked)

		state, err = svc.LikeState(ctx, 1, 8)
		require.NoError(t, err)
		assert.False(t, state.UserHasLiked)
	})
}

func TestToggleLike(t *testing.T) {
	ctx := context.Background()

	t.Run("like then unlike round-trips", func(t *testing.T) {
		svc, _, _ := newTestService()

		state, err := svc.ToggleLike(ctx, 1, 7, true)
		require.NoError(t, err)
		assert.Equal(t, int64(1), state.TotalLikes)
		assert.True(t, state.UserHasLiked)

		state, err = svc.ToggleLike(ctx, 1, 7, false)
		require.NoError(t, err)
		assert.Equal(t, int64(0), state.TotalLikes)
		assert.False(t, state.UserHasLiked)
	})

	t.Run("second like of same product conflicts", func(t *testing.T) {
		svc, _, _ := newTestService()

		_, err := svc.ToggleLike(ctx, 1, 7, true)
		require.NoError(t, err)

		_, err = svc.ToggleLike(ctx, 1, 7, true)
		assert.ErrorIs(t, err, repository.ErrAlreadyLiked)

		state, err := svc.LikeState(ctx, 1, 7)
		require.NoError(t, err)
		assert.Equal(t, int64(1), state.TotalLikes, "conflict must not add a row")
	})

	t.Run("unliking without a like conflicts", func(t *testing.T) {
		svc, _, _ := newTestService()

		_, err := svc.ToggleLike(ctx, 1, 7, false)
		assert.ErrorIs(t, err, repository.ErrNotLiked)
	})

	t.Run("anonymous toggles are rejected", func(t *testing.T) {
		svc, _, _ := newTestService()

		_, err := svc.ToggleLike(ctx, 1, 0, true)
		assert.ErrorIs(t, err, ErrUnauthenticated)
	})
}

func TestSubmitRating(t *testing.T) {
	ctx := context.Background()

	t.Run("out of range stars never reach the store", func(t *testing.T) {
		svc, _, ratings := newTestService()

		for _, stars := range []int{0, 6, -1, 100} {
			_, err := svc.SubmitRating(ctx, 1, 7, stars)
			assert.ErrorIs(t, err, ErrInvalidRating)
		}
		assert.Zero(t, ratings.upserts, "invalid input must not touch the store")
	})

	t.Run("resubmission overwrites instead of adding", func(t *testing.T) {
		svc, _, ratings := newTestService()

		avg, err := svc.SubmitRating(ctx, 1, 7, 2)
		require.NoError(t, err)
		assert.Equal(t, "2.0", avg.StringFixed(1))

		avg, err = svc.SubmitRating(ctx, 1, 7, 5)
		require.NoError(t, err)
		assert.Equal(t, "5.0", avg.StringFixed(1))
		assert.Len(t, ratings.rows, 1, "one user rates a product at most once")
	})

	t.Run("average rounds to one decimal", func(t *testing.T) {
		svc, _, _ := newTestService()

		_, err := svc.SubmitRating(ctx, 1, 7, 5)
		require.NoError(t, err)
		_, err = svc.SubmitRating(ctx, 1, 8, 3)
		require.NoError(t, err)
		avg, err := svc.SubmitRating(ctx, 1, 9, 4)
		require.NoError(t, err)
		assert.Equal(t, "4.0", avg.StringFixed(1))

		avg, err = svc.SubmitRating(ctx, 1, 10, 5)
		require.NoError(t, err)
		// (5+3+4+5)/4 = 4.25 rounds to 4.3
		assert.Equal(t, "4.3", avg.StringFixed(1))
	})
}

func TestAverageRating(t *testing.T) {
	ctx := context.Background()

	t.Run("no ratings yields ok=false, not a zero", func(t *testing.T) {
		svc, _, _ := newTestService()

		_, ok, err := svc.AverageRating(ctx, 1)
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestDistribution(t *testing.T) {
	ctx := context.Background()

	t.Run("no ratings yields an empty map", func(t *testing.T) {
		svc, _, _ := newTestService()

		dist, err := svc.Distribution(ctx, 1)
		require.NoError(t, err)
		assert.NotNil(t, dist)
		assert.Empty(t, dist)
	})

	t.Run("all five buckets present once rated", func(t *testing.T) {
		svc, _, ratings := newTestService()
		require.NoError(t, ratings.UpsertRating(ctx, 7, 1, 5))
		require.NoError(t, ratings.UpsertRating(ctx, 8, 1, 5))
		require.NoError(t, ratings.UpsertRating(ctx, 9, 1, 3))
		require.NoError(t, ratings.UpsertRating(ctx, 10, 1, 1))

		dist, err := svc.Distribution(ctx, 1)
		require.NoError(t, err)
		require.Len(t, dist, 5)
		assert.Equal(t, "50.0", dist[5].StringFixed(1))
		assert.Equal(t, "25.0", dist[3].StringFixed(1))
		assert.Equal(t, "25.0", dist[1].StringFixed(1))
		assert.Equal(t, "0.0", dist[2].StringFixed(1))
		assert.Equal(t, "0.0", dist[4].StringFixed(1))
	})
}

func TestRatingSummary(t *testing.T) {
	ctx := context.Background()

	t.Run("empty product", func(t *testing.T) {
		svc, _, _ := newTestService()

		sum, err := svc.RatingSummary(ctx, 1)
		require.NoError(t, err)
		assert.False(t, sum.HasRatings)
		assert.Zero(t, sum.Count)
		assert.Empty(t, sum.Distribution)
	})

	t.Run("populated product", func(t *testing.T) {
		svc, _, ratings := newTestService()
		require.NoError(t, ratings.UpsertRating(ctx, 7, 1, 4))
		require.NoError(t, ratings.UpsertRating(ctx, 8, 1, 2))

		sum, err := svc.RatingSummary(ctx, 1)
		require.NoError(t, err)
		assert.True(t, sum.HasRatings)
		assert.Equal(t, int64(2), sum.Count)
		assert.Equal(t, "3.0", sum.Average.StringFixed(1))
		assert.Equal(t, "50.0", sum.Distribution[4].StringFixed(1))
		assert.Equal(t, "50.0", sum.Distribution[2].StringFixed(1))
		assert.Equal(t, "0.0", sum.Distribution[5].StringFixed(1))
	})
}
