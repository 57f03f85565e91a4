// Package recommend produces personalized product recommendations from a
// user's positive rating signal: products the user has never rated, drawn
// from the categories where they rated something highly.
package recommend

import (
	"context"
	"fmt"

	"github.com/tiendita/storefront/internal/repository"
)

// DefaultMinStars is the affinity threshold used when none is configured.
// A rating at or above it counts as evidence of category preference.
const DefaultMinStars = 4

// RatingStore supplies the affinity signal.
type RatingStore interface {
	AffinityCategories(ctx context.Context, userID uint64, minStars int) ([]uint64, error)
}

// ProductStore supplies the candidate products: everything in the given
// categories the user has not rated at any star value.
type ProductStore interface {
	UnratedInCategories(ctx context.Context, userID uint64, categoryIDs []uint64) ([]*repository.ProductDetail, error)
}

// Engine derives recommendations over injected stores. The threshold is a
// parameter, not a constant: nothing downstream may assume the exact
// cutoff.
type Engine struct {
	ratings  RatingStore
	products ProductStore
	minStars int
}

// NewEngine constructs an Engine. A non-positive minStars falls back to
// DefaultMinStars.
func NewEngine(ratings RatingStore, products ProductStore, minStars int) *Engine {
	if ratings == nil || products == nil {
		panic("nil store passed to recommend.NewEngine")
	}
	if minStars <= 0 {
		minStars = DefaultMinStars
	}
	return &Engine{ratings: ratings, products: products, minStars: minStars}
}

// Products returns the recommendation list for the user. No affinity
// signal yields an empty, non-nil slice; that is the correct empty state,
// not an error. Any store failure returns a wrapped error and no partial
// list. Ordering among results carries no contract.
func (e *Engine) Products(ctx context.Context, userID uint64) ([]*repository.ProductDetail, error) {
	categoryIDs, err := e.ratings.AffinityCategories(ctx, userID, e.minStars)
	if err != nil {
		return nil, fmt.Errorf("load affinity categories: %w", err)
	}
	// Deduplicate regardless of what the store returned; a category rated
	// highly several times still counts once.
	seen := make(map[uint64]struct{}, len(categoryIDs))
	unique := categoryIDs[:0]
	for _, id := range categoryIDs {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}
	if len(unique) == 0 {
		return []*repository.ProductDetail{}, nil
	}
	out, err := e.products.UnratedInCategories(ctx, userID, unique)
	if err != nil {
		return nil, fmt.Errorf("load candidate products: %w", err)
	}
	if out == nil {
		out = []*repository.ProductDetail{}
	}
	return out, nil
}
