package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tiendita/storefront/internal/repository"
)

// fakeCartStore is an in-memory CartStore.
type fakeCartStore struct {
	carts map[uint64]map[uint64]uint32
}

func newFakeCartStore() *fakeCartStore {
	return &fakeCartStore{carts: make(map[uint64]map[uint64]uint32)}
}

func (f *fakeCartStore) Items(_ context.Context, userID uint64) ([]repository.CartItem, error) {
	var items []repository.CartItem
	for pid, qty := range f.carts[userID] {
		items = append(items, repository.CartItem{ProductID: pid, Quantity: qty})
	}
	return items, nil
}

func (f *fakeCartStore) SetItem(_ context.Context, userID, productID uint64, quantity uint32) error {
	if f.carts[userID] == nil {
		f.carts[userID] = make(map[uint64]uint32)
	}
	if quantity == 0 {
		delete(f.carts[userID], productID)
		return nil
	}
	f.carts[userID][productID] = quantity
	return nil
}

func (f *fakeCartStore) RemoveItem(_ context.Context, userID, productID uint64) error {
	delete(f.carts[userID], productID)
	return nil
}

func (f *fakeCartStore) Clear(_ context.Context, userID uint64) error {
	delete(f.carts, userID)
	return nil
}

// fakePriceStore answers GetDetail from a fixed catalog.
type fakePriceStore struct {
	products map[uint64]*repository.ProductDetail
}

func (f *fakePriceStore) GetDetail(_ context.Context, id uint64) (*repository.ProductDetail, error) {
	p, ok := f.products[id]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	return p, nil
}

func catalogWith(prices map[uint64]string) *fakePriceStore {
	out := &fakePriceStore{products: make(map[uint64]*repository.ProductDetail)}
	for id, price := range prices {
		d := decimal.RequireFromString(price)
		out.products[id] = &repository.ProductDetail{
			Product: repository.Product{ID: id, Name: "p", Price: d},
		}
	}
	return out
}

// newCartContext builds an echo context carrying an authenticated user and
// optionally a product id path parameter.
func newCartContext(t *testing.T, method, target, body, productID string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	e.Validator = NewValidator()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("user_id", uint64(7))
	if productID != "" {
		c.SetParamNames("id")
		c.SetParamValues(productID)
	}
	return c, rec
}

func TestCartSetItem(t *testing.T) {
	t.Run("adds a line and returns the priced cart", func(t *testing.T) {
		h := NewCartHandler(newFakeCartStore(), catalogWith(map[uint64]string{1: "19.99"}))
		c, rec := newCartContext(t, http.MethodPut, "/v1/cart/items/1", `{"quantity":2}`, "1")

		require.NoError(t, h.SetItem(c))
		require.Equal(t, http.StatusOK, rec.Code)

		var resp struct {
			Items []cartLine      `json:"items"`
			Total decimal.Decimal `json:"total"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Len(t, resp.Items, 1)
		assert.Equal(t, uint32(2), resp.Items[0].Quantity)
		assert.True(t, resp.Total.Equal(decimal.RequireFromString("39.98")), "total was %s", resp.Total)
	})

	t.Run("unknown product answers 404", func(t *testing.T) {
		h := NewCartHandler(newFakeCartStore(), catalogWith(nil))
		c, rec := newCartContext(t, http.MethodPut, "/v1/cart/items/99", `{"quantity":1}`, "99")

		require.NoError(t, h.SetItem(c))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("quantity zero removes the line without a catalog lookup", func(t *testing.T) {
		store := newFakeCartStore()
		require.NoError(t, store.SetItem(context.Background(), 7, 1, 3))
		// The catalog is empty: the removed product may no longer exist.
		h := NewCartHandler(store, catalogWith(nil))
		c, rec := newCartContext(t, http.MethodPut, "/v1/cart/items/1", `{"quantity":0}`, "1")

		require.NoError(t, h.SetItem(c))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, store.carts[7])
	})
}

func TestCheckout(t *testing.T) {
	t.Run("empty cart answers 409", func(t *testing.T) {
		h := NewCartHandler(newFakeCartStore(), catalogWith(nil))
		c, rec := newCartContext(t, http.MethodPost, "/v1/checkout", "", "")

		require.NoError(t, h.Checkout(c))
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("prices, clears and returns a payment reference", func(t *testing.T) {
		store := newFakeCartStore()
		require.NoError(t, store.SetItem(context.Background(), 7, 1, 2))
		require.NoError(t, store.SetItem(context.Background(), 7, 2, 1))
		h := NewCartHandler(store, catalogWith(map[uint64]string{1: "10.00", 2: "5.50"}))
		c, rec := newCartContext(t, http.MethodPost, "/v1/checkout", "", "")

		require.NoError(t, h.Checkout(c))
		require.Equal(t, http.StatusOK, rec.Code)

		var resp struct {
			PaymentReference string          `json:"payment_reference"`
			Total            decimal.Decimal `json:"total"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.True(t, strings.HasPrefix(resp.PaymentReference, "PAY-"))
		assert.True(t, resp.Total.Equal(decimal.RequireFromString("25.50")), "total was %s", resp.Total)
		assert.Empty(t, store.carts[7], "checkout must clear the cart")
	})

	t.Run("lines for deleted products are dropped from the total", func(t *testing.T) {
		store := newFakeCartStore()
		require.NoError(t, store.SetItem(context.Background(), 7, 1, 1))
		require.NoError(t, store.SetItem(context.Background(), 7, 99, 4))
		h := NewCartHandler(store, catalogWith(map[uint64]string{1: "10.00"}))
		c, rec := newCartContext(t, http.MethodPost, "/v1/checkout", "", "")

		require.NoError(t, h.Checkout(c))
		require.Equal(t, http.StatusOK, rec.Code)

		var resp struct {
			Total decimal.Decimal `json:"total"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.True(t, resp.Total.Equal(decimal.RequireFromString("10.00")))
	})
}

func TestCartRequiresAuth(t *testing.T) {
	h := NewCartHandler(newFakeCartStore(), catalogWith(nil))
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/cart", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec) // no user_id in context

	require.NoError(t, h.Get(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
