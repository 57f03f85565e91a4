// Package repository defines sentinel errors shared across repositories so
// that handlers can map storage outcomes to HTTP statuses without string
// matching. ErrAlreadyLiked and ErrNotLiked carry the like-toggle conflict
// semantics: the database's composite primary key on (user_id, product_id)
// is what actually arbitrates concurrent toggles, and the repository
// translates the resulting duplicate-key or zero-rows outcome into these
// values.
package repository

import "errors"

// ErrAlreadyLiked is returned when a like insert collides with an existing
// (user, product) row, including the case where a concurrent request won
// the race. Handlers translate this to HTTP 409.
var ErrAlreadyLiked = errors.New("product already liked")

// ErrNotLiked is returned when an unlike matched no stored row. Handlers
// translate this to HTTP 409.
var ErrNotLiked = errors.New("product not liked")

// ErrCategoryInUse is returned when a category delete is blocked because
// products still reference it. Handlers translate this to HTTP 409.
var ErrCategoryInUse = errors.New("category has associated products")

// ErrCategoryNameExists is returned when a category create or rename would
// violate the unique name constraint.
var ErrCategoryNameExists = errors.New("category name already exists")
