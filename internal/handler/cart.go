package handler

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/tiendita/storefront/internal/repository"
)

// CartStore is the slice of the cart layer the handler needs. It is
// satisfied by repository.CartRepo.
type CartStore interface {
	Items(ctx context.Context, userID uint64) ([]repository.CartItem, error)
	SetItem(ctx context.Context, userID, productID uint64, quantity uint32) error
	RemoveItem(ctx context.Context, userID, productID uint64) error
	Clear(ctx context.Context, userID uint64) error
}

// PriceStore resolves products during cart writes and checkout. It is
// satisfied by repository.ProductRepo.
type PriceStore interface {
	GetDetail(ctx context.Context, id uint64) (*repository.ProductDetail, error)
}

// CartHandler serves the per-user shopping cart and the simulated checkout.
type CartHandler struct {
	Cart     CartStore
	Products PriceStore
}

func NewCartHandler(cart CartStore, products PriceStore) *CartHandler {
	return &CartHandler{Cart: cart, Products: products}
}

type cartSetReq struct {
	Quantity uint32 `json:"quantity" validate:"max=99"`
}

type cartLine struct {
	ProductID uint64          `json:"product_id"`
	Name      string          `json:"name"`
	Quantity  uint32          `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	LineTotal decimal.Decimal `json:"line_total"`
}

// Get returns the cart with each line priced from the current catalog.
// Lines whose product has since been deleted are dropped silently.
func (h *CartHandler) Get(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	lines, total, err := h.pricedLines(ctx, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load cart failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": lines, "total": total})
}

// SetItem upserts one cart line. Quantity zero removes the line.
func (h *CartHandler) SetItem(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	productID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid product id"})
	}
	var req cartSetReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "quantity must be 0..99"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	// Quantity zero is removal; the product may already be gone from the
	// catalog then, so only additions are checked against it.
	if req.Quantity > 0 {
		if _, err := h.Products.GetDetail(ctx, productID); err != nil {
			return productErrJSON(c, err)
		}
	}
	if err := h.Cart.SetItem(ctx, uid, productID, req.Quantity); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update cart failed"})
	}
	lines, total, err := h.pricedLines(ctx, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load cart failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": lines, "total": total})
}

// RemoveItem deletes one line from the cart.
func (h *CartHandler) RemoveItem(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	productID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid product id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Cart.RemoveItem(ctx, uid, productID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update cart failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// Clear empties the cart.
func (h *CartHandler) Clear(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Cart.Clear(ctx, uid); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "clear cart failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// Checkout prices the cart, "charges" it and clears it. No real payment
// provider is contacted; the reference is an opaque token the client can
// show as an order confirmation.
func (h *CartHandler) Checkout(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	lines, total, err := h.pricedLines(ctx, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load cart failed"})
	}
	if len(lines) == 0 {
		return c.JSON(http.StatusConflict, echo.Map{"error": repository.ErrCartEmpty.Error()})
	}

	ref, err := paymentReference()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "checkout failed"})
	}
	if err := h.Cart.Clear(ctx, uid); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "checkout failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"payment_reference": ref,
		"items":             lines,
		"total":             total,
		"paid_at":           time.Now().UTC(),
	})
}

// pricedLines joins cart quantities with current catalog prices.
func (h *CartHandler) pricedLines(ctx context.Context, uid uint64) ([]cartLine, decimal.Decimal, error) {
	items, err := h.Cart.Items(ctx, uid)
	if err != nil {
		return nil, decimal.Zero, err
	}
	lines := make([]cartLine, 0, len(items))
	total := decimal.Zero
	for _, item := range items {
		detail, err := h.Products.GetDetail(ctx, item.ProductID)
		if err != nil {
			if errors.Is(err, repository.ErrProductNotFound) {
				continue
			}
			return nil, decimal.Zero, err
		}
		lineTotal := detail.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
		lines = append(lines, cartLine{
			ProductID: detail.ID,
			Name:      detail.Name,
			Quantity:  item.Quantity,
			UnitPrice: detail.Price,
			LineTotal: lineTotal,
		})
		total = total.Add(lineTotal)
	}
	return lines, total, nil
}

func paymentReference() (string, error) {
	b := make([]byte, 12)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return "PAY-" + hex.EncodeToString(b), nil
}
