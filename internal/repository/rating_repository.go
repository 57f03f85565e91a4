// This file defines the Rating model and repository. At most one rating
// exists per (user, product); re-submission overwrites stars in place via a
// single INSERT .. ON DUPLICATE KEY UPDATE, so there is no
// check-then-branch race between existence check and write.
package repository

import (
	"context"
	"database/sql"
)

// Rating represents a row in the 'ratings' table.
type Rating struct {
	UserID    uint64 `json:"user_id"`
	ProductID uint64 `json:"product_id"`
	Stars     int    `json:"stars"`
}

// RatingRepo encapsulates database operations on the 'ratings' table.
type RatingRepo struct {
	db *sql.DB
}

// NewRatingRepo constructs a RatingRepo with the provided DB handle.
func NewRatingRepo(db *sql.DB) *RatingRepo {
	return &RatingRepo{db: db}
}

// UpsertRating creates the user's rating for a product or overwrites its
// stars value in place when one already exists. The caller validates the
// stars range before this is reached.
func (r *RatingRepo) UpsertRating(ctx context.Context, userID, productID uint64, stars int) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO ratings (user_id, product_id, stars) VALUES (?,?,?)
		 ON DUPLICATE KEY UPDATE stars = VALUES(stars), updated_at = CURRENT_TIMESTAMP`,
		userID, productID, stars)
	return err
}

// CountsByStar returns how many ratings each star value has for the
// product. Absent buckets are simply missing from the map; a product with
// no ratings yields an empty map.
func (r *RatingRepo) CountsByStar(ctx context.Context, productID uint64) (map[int]int64, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT stars, COUNT(*) FROM ratings WHERE product_id = ? GROUP BY stars", productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	counts := make(map[int]int64)
	for rows.Next() {
		var (
			stars int
			n     int64
		)
		if err := rows.Scan(&stars, &n); err != nil {
			return nil, err
		}
		counts[stars] = n
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return counts, nil
}

// AffinityCategories returns the distinct category IDs of products the user
// has rated at or above minStars. The DISTINCT keeps a category counted
// once no matter how many high ratings land in it.
func (r *RatingRepo) AffinityCategories(ctx context.Context, userID uint64, minStars int) ([]uint64, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT DISTINCT p.category_id
		 FROM ratings rt
		 JOIN products p ON p.id = rt.product_id
		 WHERE rt.user_id = ? AND rt.stars >= ?`,
		userID, minStars)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []uint64
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
