package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockLikeRepo(t *testing.T) (*LikeRepo, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewLikeRepo(db), mock
}

func TestAddLike(t *testing.T) {
	ctx := context.Background()

	t.Run("inserts without any existence pre-check", func(t *testing.T) {
		repo, mock := newMockLikeRepo(t)

		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO likes (user_id, product_id) VALUES (?,?)")).
			WithArgs(uint64(7), uint64(1)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.AddLike(ctx, 7, 1))
		assert.NoError(t, mock.ExpectationsWereMet(), "exactly one statement, no SELECT first")
	})

	t.Run("duplicate key maps to ErrAlreadyLiked", func(t *testing.T) {
		repo, mock := newMockLikeRepo(t)

		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO likes")).
			WithArgs(uint64(7), uint64(1)).
			WillReturnError(errors.New("Error 1062 (23000): Duplicate entry '7-1' for key 'PRIMARY'"))

		err := repo.AddLike(ctx, 7, 1)
		assert.ErrorIs(t, err, ErrAlreadyLiked)
	})

	t.Run("other database errors pass through", func(t *testing.T) {
		repo, mock := newMockLikeRepo(t)

		boom := errors.New("connection reset")
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO likes")).
			WillReturnError(boom)

		err := repo.AddLike(ctx, 7, 1)
		assert.ErrorIs(t, err, boom)
	})
}

func TestRemoveLike(t *testing.T) {
	ctx := context.Background()

	t.Run("deletes the stored row", func(t *testing.T) {
		repo, mock := newMockLikeRepo(t)

		mock.ExpectExec(regexp.QuoteMeta("DELETE FROM likes WHERE user_id = ? AND product_id = ?")).
			WithArgs(uint64(7), uint64(1)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.RemoveLike(ctx, 7, 1))
	})

	t.Run("zero affected rows maps to ErrNotLiked", func(t *testing.T) {
		repo, mock := newMockLikeRepo(t)

		mock.ExpectExec(regexp.QuoteMeta("DELETE FROM likes")).
			WithArgs(uint64(7), uint64(1)).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.RemoveLike(ctx, 7, 1)
		assert.ErrorIs(t, err, ErrNotLiked)
	})
}

func TestLikeCount(t *testing.T) {
	repo, mock := newMockLikeRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM likes WHERE product_id = ?")).
		WithArgs(uint64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	n, err := repo.LikeCount(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}

func TestHasLiked(t *testing.T) {
	repo, mock := newMockLikeRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS(SELECT 1 FROM likes WHERE user_id = ? AND product_id = ?)")).
		WithArgs(uint64(7), uint64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	ok, err := repo.HasLiked(context.Background(), 7, 1)
	require.NoError(t, err)
	assert.True(t, ok)
}
