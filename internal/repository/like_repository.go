// This file defines the Like repository. A like is a bare (user, product)
// fact; the composite primary key is the only state. The repository never
// pre-checks existence before writing: the insert either lands or collides
// with the key, so two concurrent likes of the same pair resolve to exactly
// one stored row with the loser observing ErrAlreadyLiked.
package repository

import (
	"context"
	"database/sql"
	"strings"
)

// LikeRepo encapsulates database operations on the 'likes' table.
type LikeRepo struct {
	db *sql.DB
}

// NewLikeRepo constructs a LikeRepo with the provided DB handle.
func NewLikeRepo(db *sql.DB) *LikeRepo {
	return &LikeRepo{db: db}
}

// LikeCount returns the number of like rows stored for the product.
func (r *LikeRepo) LikeCount(ctx context.Context, productID uint64) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM likes WHERE product_id = ?", productID).Scan(&n)
	return n, err
}

// HasLiked reports whether the user has a like row for the product.
func (r *LikeRepo) HasLiked(ctx context.Context, userID, productID uint64) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM likes WHERE user_id = ? AND product_id = ?)",
		userID, productID).Scan(&exists)
	return exists, err
}

// AddLike inserts a like row. A duplicate-key failure (1062) maps to
// ErrAlreadyLiked.
func (r *LikeRepo) AddLike(ctx context.Context, userID, productID uint64) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO likes (user_id, product_id) VALUES (?,?)", userID, productID)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return ErrAlreadyLiked
		}
		return err
	}
	return nil
}

// RemoveLike deletes the user's like row for the product. When no row was
// stored, ErrNotLiked is returned.
func (r *LikeRepo) RemoveLike(ctx context.Context, userID, productID uint64) error {
	res, err := r.db.ExecContext(ctx,
		"DELETE FROM likes WHERE user_id = ? AND product_id = ?", userID, productID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotLiked
	}
	return nil
}
