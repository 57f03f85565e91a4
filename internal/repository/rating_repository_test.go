package repository

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockRatingRepo(t *testing.T) (*RatingRepo, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewRatingRepo(db), mock
}

func TestUpsertRating(t *testing.T) {
	t.Run("one statement does both insert and overwrite", func(t *testing.T) {
		repo, mock := newMockRatingRepo(t)

		mock.ExpectExec(`INSERT INTO ratings .*ON DUPLICATE KEY UPDATE stars = VALUES\(stars\)`).
			WithArgs(uint64(7), uint64(1), 4).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.UpsertRating(context.Background(), 7, 1, 4))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestCountsByStar(t *testing.T) {
	ctx := context.Background()

	t.Run("groups counts by star value", func(t *testing.T) {
		repo, mock := newMockRatingRepo(t)

		rows := sqlmock.NewRows([]string{"stars", "count"}).
			AddRow(5, 2).
			AddRow(3, 1)
		mock.ExpectQuery(`SELECT stars, COUNT\(\*\) FROM ratings WHERE product_id = \? GROUP BY stars`).
			WithArgs(uint64(1)).
			WillReturnRows(rows)

		counts, err := repo.CountsByStar(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, map[int]int64{5: 2, 3: 1}, counts)
	})

	t.Run("product without ratings yields empty map", func(t *testing.T) {
		repo, mock := newMockRatingRepo(t)

		mock.ExpectQuery(`SELECT stars, COUNT\(\*\) FROM ratings`).
			WithArgs(uint64(1)).
			WillReturnRows(sqlmock.NewRows([]string{"stars", "count"}))

		counts, err := repo.CountsByStar(ctx, 1)
		require.NoError(t, err)
		assert.NotNil(t, counts)
		assert.Empty(t, counts)
	})
}

func TestAffinityCategories(t *testing.T) {
	t.Run("passes the threshold and returns distinct category ids", func(t *testing.T) {
		repo, mock := newMockRatingRepo(t)

		rows := sqlmock.NewRows([]string{"category_id"}).AddRow(10).AddRow(12)
		mock.ExpectQuery(`SELECT DISTINCT p\.category_id\s+FROM ratings rt\s+JOIN products p ON p\.id = rt\.product_id\s+WHERE rt\.user_id = \? AND rt\.stars >= \?`).
			WithArgs(uint64(7), 4).
			WillReturnRows(rows)

		out, err := repo.AffinityCategories(context.Background(), 7, 4)
		require.NoError(t, err)
		assert.Equal(t, []uint64{10, 12}, out)
	})

	t.Run("no qualifying ratings yields nil slice without error", func(t *testing.T) {
		repo, mock := newMockRatingRepo(t)

		mock.ExpectQuery(`SELECT DISTINCT p\.category_id`).
			WithArgs(uint64(7), 5).
			WillReturnRows(sqlmock.NewRows([]string{"category_id"}))

		out, err := repo.AffinityCategories(context.Background(), 7, 5)
		require.NoError(t, err)
		assert.Empty(t, out)
	})
}
