// Package repository contains data access logic separated from HTTP handlers.
// This file defines the Category model and repository methods. Categories
// are admin-managed and referenced by products via category_id; a category
// cannot be deleted while any product still references it.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
)

// Category represents a row in the 'categories' table. The name carries a
// unique constraint enforced by the database.
type Category struct {
	ID        uint64 `json:"id"`
	Name      string `json:"name"`
	CreatedAt string `json:"-"`
	UpdatedAt string `json:"-"`
}

// ErrCategoryNotFound is returned when a category cannot be found.
var ErrCategoryNotFound = errors.New("category not found")

// CategoryRepo encapsulates all database queries related to categories.
type CategoryRepo struct {
	db *sql.DB
}

// NewCategoryRepo constructs a CategoryRepo with the provided DB handle.
func NewCategoryRepo(db *sql.DB) *CategoryRepo {
	return &CategoryRepo{db: db}
}

// Create inserts a new category. A duplicate name maps to
// ErrCategoryNameExists via the unique constraint rather than a pre-check,
// so two concurrent creates of the same name cannot both succeed.
func (r *CategoryRepo) Create(ctx context.Context, name string) (*Category, error) {
	res, err := r.db.ExecContext(ctx, "INSERT INTO categories (name) VALUES (?)", name)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return nil, ErrCategoryNameExists
		}
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return &Category{ID: uint64(id), Name: name}, nil
}

// GetByID fetches a category by its ID. It returns ErrCategoryNotFound if
// no row is found.
func (r *CategoryRepo) GetByID(ctx context.Context, id uint64) (*Category, error) {
	const q = "SELECT id, name, created_at, updated_at FROM categories WHERE id = ?"
	var cat Category
	if err := r.db.QueryRowContext(ctx, q, id).Scan(&cat.ID, &cat.Name, &cat.CreatedAt, &cat.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCategoryNotFound
		}
		return nil, err
	}
	return &cat, nil
}

// ListAll returns all categories ordered by id. It is used by the public
// browse endpoints and by the admin category table.
func (r *CategoryRepo) ListAll(ctx context.Context) ([]*Category, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT id, name FROM categories ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*Category
	for rows.Next() {
		cat := new(Category)
		if err := rows.Scan(&cat.ID, &cat.Name); err != nil {
			return nil, err
		}
		out = append(out, cat)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateName renames a category. It returns ErrCategoryNotFound when the
// id does not exist and ErrCategoryNameExists when the new name collides
// with another category.
func (r *CategoryRepo) UpdateName(ctx context.Context, id uint64, name string) error {
	const q = `UPDATE categories
	           SET name = ?, updated_at = CURRENT_TIMESTAMP
	           WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, name, id)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return ErrCategoryNameExists
		}
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// Renaming to the current name also affects zero rows; confirm the
		// category actually exists before reporting not-found.
		var exists bool
		if err := r.db.QueryRowContext(ctx,
			"SELECT EXISTS(SELECT 1 FROM categories WHERE id = ?)", id).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return ErrCategoryNotFound
		}
	}
	return nil
}

// Delete removes a category provided no product references it. When
// products still point at the category, ErrCategoryInUse is returned and
// nothing is deleted.
func (r *CategoryRepo) Delete(ctx context.Context, id uint64) error {
	var refs int64
	if err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM products WHERE category_id = ?", id).Scan(&refs); err != nil {
		return err
	}
	if refs > 0 {
		return ErrCategoryInUse
	}
	res, err := r.db.ExecContext(ctx, "DELETE FROM categories WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrCategoryNotFound
	}
	return nil
}
