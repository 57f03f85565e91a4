// This file defines the Redis-backed cart store. A cart is a per-user hash
// of product id to quantity; it is session state, not order history, so it
// lives in Redis with a sliding TTL rather than in MySQL.
package repository

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// CartItem is one line of a user's cart.
type CartItem struct {
	ProductID uint64 `json:"product_id"`
	Quantity  uint32 `json:"quantity"`
}

// ErrCartEmpty is returned by checkout when the user's cart holds no items.
var ErrCartEmpty = errors.New("cart is empty")

// cartTTL is how long an untouched cart survives. Every write refreshes it.
const cartTTL = 30 * 24 * time.Hour

// CartRepo stores carts in Redis hashes keyed "cart:<userID>".
type CartRepo struct {
	rdb *redis.Client
}

// NewCartRepo constructs a CartRepo with the provided Redis client. The
// client must be non-nil; unlike caching and rate limiting, the cart cannot
// degrade to a no-op.
func NewCartRepo(rdb *redis.Client) *CartRepo {
	if rdb == nil {
		panic("nil redis client passed to NewCartRepo")
	}
	return &CartRepo{rdb: rdb}
}

func cartKey(userID uint64) string {
	return "cart:" + strconv.FormatUint(userID, 10)
}

// Items returns all lines of the user's cart. An absent cart yields an
// empty slice.
func (r *CartRepo) Items(ctx context.Context, userID uint64) ([]CartItem, error) {
	entries, err := r.rdb.HGetAll(ctx, cartKey(userID)).Result()
	if err != nil {
		return nil, err
	}
	items := make([]CartItem, 0, len(entries))
	for field, val := range entries {
		pid, err := strconv.ParseUint(field, 10, 64)
		if err != nil {
			continue // skip rows that were not written by us
		}
		qty, err := strconv.ParseUint(val, 10, 32)
		if err != nil {
			continue
		}
		items = append(items, CartItem{ProductID: pid, Quantity: uint32(qty)})
	}
	return items, nil
}

// SetItem sets the quantity for one product line and refreshes the cart
// TTL. Quantity zero removes the line.
func (r *CartRepo) SetItem(ctx context.Context, userID, productID uint64, quantity uint32) error {
	key := cartKey(userID)
	if quantity == 0 {
		return r.rdb.HDel(ctx, key, strconv.FormatUint(productID, 10)).Err()
	}
	pipe := r.rdb.TxPipeline()
	pipe.HSet(ctx, key, strconv.FormatUint(productID, 10), quantity)
	pipe.Expire(ctx, key, cartTTL)
	_, err := pipe.Exec(ctx)
	return err
}

// RemoveItem deletes one product line from the cart.
func (r *CartRepo) RemoveItem(ctx context.Context, userID, productID uint64) error {
	return r.rdb.HDel(ctx, cartKey(userID), strconv.FormatUint(productID, 10)).Err()
}

// Clear drops the whole cart.
func (r *CartRepo) Clear(ctx context.Context, userID uint64) error {
	return r.rdb.Del(ctx, cartKey(userID)).Err()
}
