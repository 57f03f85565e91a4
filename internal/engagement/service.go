// Package engagement derives like and rating metrics from raw interaction
// rows. Nothing derived is ever stored: every read recomputes from the
// like/rating facts, so the rounding and zero-ratings policy live here and
// nowhere else.
package engagement

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

// ErrInvalidRating is returned when stars fall outside 1..5. The store is
// never touched in that case.
var ErrInvalidRating = errors.New("stars must be between 1 and 5")

// ErrUnauthenticated is returned when a mutation is attempted without a
// principal. The HTTP layer normally rejects these earlier; the service
// guards anyway so it cannot be misused from other call sites.
var ErrUnauthenticated = errors.New("authentication required")

// LikeStore is the slice of the persistence layer the service needs for
// like state. AddLike must report a conflicting row (including one created
// by a concurrent request) as repository.ErrAlreadyLiked, and RemoveLike a
// missing row as repository.ErrNotLiked.
type LikeStore interface {
	LikeCount(ctx context.Context, productID uint64) (int64, error)
	HasLiked(ctx context.Context, userID, productID uint64) (bool, error)
	AddLike(ctx context.Context, userID, productID uint64) error
	RemoveLike(ctx context.Context, userID, productID uint64) error
}

// RatingStore is the slice of the persistence layer the service needs for
// ratings. UpsertRating must overwrite in place when the (user, product)
// pair already holds a rating.
type RatingStore interface {
	UpsertRating(ctx context.Context, userID, productID uint64, stars int) error
	CountsByStar(ctx context.Context, productID uint64) (map[int]int64, error)
}

// LikeState is the engagement view of a product for one (possibly
// anonymous) viewer.
type LikeState struct {
	TotalLikes   int64 `json:"total_likes"`
	UserHasLiked bool  `json:"user_has_liked"`
}

// Service computes engagement aggregates over injected stores. It holds no
// state of its own; every method is a request-scoped computation.
type Service struct {
	likes   LikeStore
	ratings RatingStore
}

// NewService constructs a Service. Both stores must be non-nil.
func NewService(likes LikeStore, ratings RatingStore) *Service {
	if likes == nil || ratings == nil {
		panic("nil store passed to engagement.NewService")
	}
	return &Service{likes: likes, ratings: ratings}
}

// LikeState returns the total like count and, when userID is non-zero,
// whether that user has liked the product. userID zero means anonymous and
// always yields UserHasLiked=false.
func (s *Service) LikeState(ctx context.Context, productID, userID uint64) (LikeState, error) {
	total, err := s.likes.LikeCount(ctx, productID)
	if err != nil {
		return LikeState{}, err
	}
	state := LikeState{TotalLikes: total}
	if userID != 0 {
		liked, err := s.likes.HasLiked(ctx, userID, productID)
		if err != nil {
			return LikeState{}, err
		}
		state.UserHasLiked = liked
	}
	return state, nil
}

// ToggleLike creates or removes the user's like row and returns the
// refreshed state. The insert/delete goes straight to the store without an
// existence pre-check; the composite key arbitrates concurrent toggles, so
// the loser of a like race sees repository.ErrAlreadyLiked and no duplicate
// row exists.
func (s *Service) ToggleLike(ctx context.Context, productID, userID uint64, like bool) (LikeState, error) {
	if userID == 0 {
		return LikeState{}, ErrUnauthenticated
	}
	var err error
	if like {
		err = s.likes.AddLike(ctx, userID, productID)
	} else {
		err = s.likes.RemoveLike(ctx, userID, productID)
	}
	if err != nil {
		return LikeState{}, err
	}
	return s.LikeState(ctx, productID, userID)
}

// SubmitRating upserts the user's rating and returns the new arithmetic
// mean of all stars for the product, rounded to one decimal place. Stars
// outside 1..5 are rejected before any store call, leaving prior state
// untouched.
func (s *Service) SubmitRating(ctx context.Context, productID, userID uint64, stars int) (decimal.Decimal, error) {
	if userID == 0 {
		return decimal.Zero, ErrUnauthenticated
	}
	if stars < 1 || stars > 5 {
		return decimal.Zero, ErrInvalidRating
	}
	if err := s.ratings.UpsertRating(ctx, userID, productID, stars); err != nil {
		return decimal.Zero, err
	}
	avg, ok, err := s.AverageRating(ctx, productID)
	if err != nil {
		return decimal.Zero, err
	}
	if !ok {
		// The rating just written must be visible; a missing aggregate here
		// means the store lost it.
		return decimal.Zero, errors.New("rating not visible after upsert")
	}
	return avg, nil
}

// RatingSummary is the full read-side view of a product's ratings. When
// HasRatings is false, Average is meaningless and Distribution is empty.
type RatingSummary struct {
	Average      decimal.Decimal
	HasRatings   bool
	Count        int64
	Distribution map[int]decimal.Decimal
}

// RatingSummary computes average, total count and per-star percentages from
// a single store read.
func (s *Service) RatingSummary(ctx context.Context, productID uint64) (RatingSummary, error) {
	counts, err := s.ratings.CountsByStar(ctx, productID)
	if err != nil {
		return RatingSummary{}, err
	}
	sum := RatingSummary{Distribution: make(map[int]decimal.Decimal)}
	var raw int64
	for stars, n := range counts {
		sum.Count += n
		raw += int64(stars) * n
	}
	if sum.Count == 0 {
		return sum, nil
	}
	totalDec := decimal.NewFromInt(sum.Count)
	sum.HasRatings = true
	sum.Average = decimal.NewFromInt(raw).Div(totalDec).Round(1)
	hundred := decimal.NewFromInt(100)
	for stars := 1; stars <= 5; stars++ {
		sum.Distribution[stars] = decimal.NewFromInt(counts[stars]).Mul(hundred).Div(totalDec).Round(1)
	}
	return sum, nil
}

// AverageRating returns the mean star value for the product rounded to one
// decimal place. The boolean is false when the product has no ratings;
// callers must branch on it instead of rendering a numeric zero.
func (s *Service) AverageRating(ctx context.Context, productID uint64) (decimal.Decimal, bool, error) {
	counts, err := s.ratings.CountsByStar(ctx, productID)
	if err != nil {
		return decimal.Zero, false, err
	}
	var total, sum int64
	for stars, n := range counts {
		total += n
		sum += int64(stars) * n
	}
	if total == 0 {
		return decimal.Zero, false, nil
	}
	avg := decimal.NewFromInt(sum).Div(decimal.NewFromInt(total)).Round(1)
	return avg, true, nil
}

// Distribution returns the percentage of ratings per star value, one
// decimal place, buckets 1..5 all present (zero-count buckets included).
// A product with no ratings yields an empty map so callers can distinguish
// "no data" from "0%".
func (s *Service) Distribution(ctx context.Context, productID uint64) (map[int]decimal.Decimal, error) {
	counts, err := s.ratings.CountsByStar(ctx, productID)
	if err != nil {
		return nil, err
	}
	var total int64
	for _, n := range counts {
		total += n
	}
	dist := make(map[int]decimal.Decimal)
	if total == 0 {
		return dist, nil
	}
	totalDec := decimal.NewFromInt(total)
	hundred := decimal.NewFromInt(100)
	for stars := 1; stars <= 5; stars++ {
		dist[stars] = decimal.NewFromInt(counts[stars]).Mul(hundred).Div(totalDec).Round(1)
	}
	return dist, nil
}
