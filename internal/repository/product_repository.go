// This file defines the Product and Image models and their repository.
// Products are admin-managed; each product belongs to one category and owns
// its image rows exclusively. Image sets are replaced wholesale on update
// (delete-all-then-recreate) so the exactly-five invariant enforced by the
// API layer is never partially applied.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

// Product represents a row in the 'products' table. Price is a DECIMAL(10,2)
// column and is carried as decimal.Decimal end to end so no float rounding
// leaks into stored values.
type Product struct {
	ID          uint64          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Stock       uint32          `json:"stock"`
	CategoryID  uint64          `json:"category_id"`
	CreatedAt   string          `json:"-"`
	UpdatedAt   string          `json:"-"`
}

// Image represents a row in the 'images' table. An image belongs to exactly
// one product and never outlives it.
type Image struct {
	ID        uint64 `json:"id"`
	URL       string `json:"url"`
	ProductID uint64 `json:"product_id"`
}

// ProductDetail is a product hydrated with the relations the storefront
// renders: its category, image set, raw ratings and like count.
type ProductDetail struct {
	Product
	Category  Category `json:"category"`
	Images    []Image  `json:"images"`
	Ratings   []Rating `json:"ratings"`
	LikeCount int64    `json:"like_count"`
}

// ErrProductNotFound is returned when a product cannot be found.
var ErrProductNotFound = errors.New("product not found")

// ProductRepo encapsulates all database queries related to products and
// their images.
type ProductRepo struct {
	db *sql.DB
}

// NewProductRepo constructs a ProductRepo with the provided DB handle.
func NewProductRepo(db *sql.DB) *ProductRepo {
	return &ProductRepo{db: db}
}

// mapFKErr translates a MySQL foreign key failure (1452) on category_id
// into ErrCategoryNotFound so handlers can answer 404 instead of 500.
func mapFKErr(err error) error {
	if err != nil && strings.Contains(strings.ToLower(err.Error()), "1452") {
		return ErrCategoryNotFound
	}
	return err
}

// Create inserts a product together with its image rows in one transaction.
// The caller has already validated the image URL count.
func (r *ProductRepo) Create(ctx context.Context, p *Product, imageURLs []string) (*ProductDetail, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx,
		"INSERT INTO products (name, description, price, stock, category_id) VALUES (?,?,?,?,?)",
		p.Name, p.Description, p.Price, p.Stock, p.CategoryID)
	if err != nil {
		return nil, mapFKErr(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	p.ID = uint64(id)

	if err := insertImagesTx(ctx, tx, p.ID, imageURLs); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	return r.GetDetail(ctx, p.ID)
}

// Update rewrites a product's fields and replaces its image set inside one
// transaction. It returns ErrProductNotFound when the id does not exist.
func (r *ProductRepo) Update(ctx context.Context, p *Product, imageURLs []string) (*ProductDetail, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var exists bool
	if err := tx.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM products WHERE id = ?)", p.ID).Scan(&exists); err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrProductNotFound
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE products
		 SET name = ?, description = ?, price = ?, stock = ?, category_id = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		p.Name, p.Description, p.Price, p.Stock, p.CategoryID, p.ID)
	if err != nil {
		return nil, mapFKErr(err)
	}

	// Replace the image set wholesale.
	if _, err = tx.ExecContext(ctx, "DELETE FROM images WHERE product_id = ?", p.ID); err != nil {
		return nil, err
	}
	if err = insertImagesTx(ctx, tx, p.ID, imageURLs); err != nil {
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	return r.GetDetail(ctx, p.ID)
}

// Delete removes a product and every dependent row (likes, ratings, images)
// within one transaction. It returns ErrProductNotFound when the id does
// not exist.
func (r *ProductRepo) Delete(ctx context.Context, id uint64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	for _, q := range []string{
		"DELETE FROM likes WHERE product_id = ?",
		"DELETE FROM ratings WHERE product_id = ?",
		"DELETE FROM images WHERE product_id = ?",
	} {
		if _, err = tx.ExecContext(ctx, q, id); err != nil {
			return err
		}
	}
	res, err := tx.ExecContext(ctx, "DELETE FROM products WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrProductNotFound
	}
	if err = tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// GetDetail fetches a single product hydrated with category, images,
// ratings and like count. It returns ErrProductNotFound if no row matches.
func (r *ProductRepo) GetDetail(ctx context.Context, id uint64) (*ProductDetail, error) {
	const q = `SELECT id, name, description, price, stock, category_id, created_at, updated_at
	           FROM products WHERE id = ?`
	var p Product
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&p.ID, &p.Name, &p.Description, &p.Price, &p.Stock, &p.CategoryID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	details, err := r.hydrate(ctx, []*Product{&p})
	if err != nil {
		return nil, err
	}
	return details[0], nil
}

// ListDetails returns all products hydrated with their relations, ordered
// by id.
func (r *ProductRepo) ListDetails(ctx context.Context) ([]*ProductDetail, error) {
	products, err := r.queryProducts(ctx,
		`SELECT id, name, description, price, stock, category_id, created_at, updated_at
		 FROM products ORDER BY id`)
	if err != nil {
		return nil, err
	}
	return r.hydrate(ctx, products)
}

// Search returns products whose name or description contains the query
// substring, optionally restricted to a category. Matching is
// case-insensitive via the column collation.
func (r *ProductRepo) Search(ctx context.Context, query string, categoryID uint64) ([]*ProductDetail, error) {
	q := `SELECT id, name, description, price, stock, category_id, created_at, updated_at
	      FROM products WHERE (name LIKE ? OR description LIKE ?)`
	pattern := "%" + query + "%"
	args := []interface{}{pattern, pattern}
	if categoryID != 0 {
		q += " AND category_id = ?"
		args = append(args, categoryID)
	}
	q += " ORDER BY id"
	products, err := r.queryProducts(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	return r.hydrate(ctx, products)
}

// UnratedInCategories returns hydrated products belonging to any of the
// given categories which the user has never rated at any star value. It is
// the candidate query of the recommendation engine.
func (r *ProductRepo) UnratedInCategories(ctx context.Context, userID uint64, categoryIDs []uint64) ([]*ProductDetail, error) {
	if len(categoryIDs) == 0 {
		return []*ProductDetail{}, nil
	}
	q := `SELECT p.id, p.name, p.description, p.price, p.stock, p.category_id, p.created_at, p.updated_at
	      FROM products p
	      WHERE p.category_id IN (` + placeholders(len(categoryIDs)) + `)
	        AND NOT EXISTS (
	          SELECT 1 FROM ratings rt WHERE rt.product_id = p.id AND rt.user_id = ?
	        )`
	args := make([]interface{}, 0, len(categoryIDs)+1)
	for _, id := range categoryIDs {
		args = append(args, id)
	}
	args = append(args, userID)
	products, err := r.queryProducts(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	return r.hydrate(ctx, products)
}

// queryProducts runs a SELECT over the products table and scans the rows.
func (r *ProductRepo) queryProducts(ctx context.Context, q string, args ...interface{}) ([]*Product, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*Product
	for rows.Next() {
		p := new(Product)
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Stock, &p.CategoryID, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// hydrate attaches categories, images, ratings and like counts to the given
// products using one batched query per relation instead of one per product.
func (r *ProductRepo) hydrate(ctx context.Context, products []*Product) ([]*ProductDetail, error) {
	details := make([]*ProductDetail, 0, len(products))
	if len(products) == 0 {
		return details, nil
	}
	byID := make(map[uint64]*ProductDetail, len(products))
	ids := make([]interface{}, 0, len(products))
	catIDs := make(map[uint64]struct{})
	for _, p := range products {
		d := &ProductDetail{Product: *p, Images: []Image{}, Ratings: []Rating{}}
		details = append(details, d)
		byID[p.ID] = d
		ids = append(ids, p.ID)
		catIDs[p.CategoryID] = struct{}{}
	}
	ph := placeholders(len(ids))

	// Categories.
	catArgs := make([]interface{}, 0, len(catIDs))
	for id := range catIDs {
		catArgs = append(catArgs, id)
	}
	catRows, err := r.db.QueryContext(ctx,
		"SELECT id, name FROM categories WHERE id IN ("+placeholders(len(catArgs))+")", catArgs...)
	if err != nil {
		return nil, err
	}
	cats := make(map[uint64]Category, len(catArgs))
	for catRows.Next() {
		var cat Category
		if err := catRows.Scan(&cat.ID, &cat.Name); err != nil {
			catRows.Close()
			return nil, err
		}
		cats[cat.ID] = cat
	}
	if err := catRows.Err(); err != nil {
		catRows.Close()
		return nil, err
	}
	catRows.Close()
	for _, d := range details {
		d.Category = cats[d.CategoryID]
	}

	// Images.
	imgRows, err := r.db.QueryContext(ctx,
		"SELECT id, url, product_id FROM images WHERE product_id IN ("+ph+") ORDER BY id", ids...)
	if err != nil {
		return nil, err
	}
	for imgRows.Next() {
		var img Image
		if err := imgRows.Scan(&img.ID, &img.URL, &img.ProductID); err != nil {
			imgRows.Close()
			return nil, err
		}
		if d, ok := byID[img.ProductID]; ok {
			d.Images = append(d.Images, img)
		}
	}
	if err := imgRows.Err(); err != nil {
		imgRows.Close()
		return nil, err
	}
	imgRows.Close()

	// Ratings.
	rateRows, err := r.db.QueryContext(ctx,
		"SELECT user_id, product_id, stars FROM ratings WHERE product_id IN ("+ph+")", ids...)
	if err != nil {
		return nil, err
	}
	for rateRows.Next() {
		var rt Rating
		if err := rateRows.Scan(&rt.UserID, &rt.ProductID, &rt.Stars); err != nil {
			rateRows.Close()
			return nil, err
		}
		if d, ok := byID[rt.ProductID]; ok {
			d.Ratings = append(d.Ratings, rt)
		}
	}
	if err := rateRows.Err(); err != nil {
		rateRows.Close()
		return nil, err
	}
	rateRows.Close()

	// Like counts.
	likeRows, err := r.db.QueryContext(ctx,
		"SELECT product_id, COUNT(*) FROM likes WHERE product_id IN ("+ph+") GROUP BY product_id", ids...)
	if err != nil {
		return nil, err
	}
	defer likeRows.Close()
	for likeRows.Next() {
		var (
			pid uint64
			n   int64
		)
		if err := likeRows.Scan(&pid, &n); err != nil {
			return nil, err
		}
		if d, ok := byID[pid]; ok {
			d.LikeCount = n
		}
	}
	if err := likeRows.Err(); err != nil {
		return nil, err
	}
	return details, nil
}

// insertImagesTx bulk-inserts image rows for a product in one statement.
func insertImagesTx(ctx context.Context, tx *sql.Tx, productID uint64, urls []string) error {
	if len(urls) == 0 {
		return nil
	}
	q := "INSERT INTO images (url, product_id) VALUES "
	args := make([]interface{}, 0, len(urls)*2)
	for i, u := range urls {
		if i > 0 {
			q += ","
		}
		q += "(?, ?)"
		args = append(args, u, productID)
	}
	_, err := tx.ExecContext(ctx, q, args...)
	return err
}

// placeholders returns a comma-separated list of n '?' markers.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat("?,", n-1) + "?"
}
