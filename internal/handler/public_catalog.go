package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/tiendita/storefront/internal/engagement"
	"github.com/tiendita/storefront/internal/repository"
)

// PublicHandler serves the anonymous-readable catalog surface: product
// listing, detail, search, categories and the engagement read endpoints.
type PublicHandler struct {
	Products   *repository.ProductRepo
	Categories *repository.CategoryRepo
	Engage     *engagement.Service
}

func NewPublicHandler(p *repository.ProductRepo, c *repository.CategoryRepo, e *engagement.Service) *PublicHandler {
	return &PublicHandler{Products: p, Categories: c, Engage: e}
}

// productView is the catalog JSON shape. Average rating is derived from the
// hydrated rating rows; null means the product has never been rated, which
// is distinct from an average of 0.
type productView struct {
	ID            uint64                `json:"id"`
	Name          string                `json:"name"`
	Description   string                `json:"description"`
	Price         decimal.Decimal       `json:"price"`
	Stock         uint32                `json:"stock"`
	Category      repository.Category   `json:"category"`
	Images        []repository.Image    `json:"images"`
	LikeCount     int64                 `json:"like_count"`
	RatingCount   int                   `json:"rating_count"`
	AverageRating *string               `json:"average_rating"`
}

func toProductView(d *repository.ProductDetail) productView {
	v := productView{
		ID:          d.ID,
		Name:        d.Name,
		Description: d.Description,
		Price:       d.Price,
		Stock:       d.Stock,
		Category:    d.Category,
		Images:      d.Images,
		LikeCount:   d.LikeCount,
		RatingCount: len(d.Ratings),
	}
	if len(d.Ratings) > 0 {
		var sum int64
		for _, r := range d.Ratings {
			sum += int64(r.Stars)
		}
		avg := decimal.NewFromInt(sum).Div(decimal.NewFromInt(int64(len(d.Ratings)))).Round(1).StringFixed(1)
		v.AverageRating = &avg
	}
	return v
}

func toProductViews(details []*repository.ProductDetail) []productView {
	views := make([]productView, 0, len(details))
	for _, d := range details {
		views = append(views, toProductView(d))
	}
	return views
}

// ListProducts returns the whole catalog.
func (h *PublicHandler) ListProducts(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	details, err := h.Products.ListDetails(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list products failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"products": toProductViews(details)})
}

// GetProduct returns one product with category, images and engagement data.
func (h *PublicHandler) GetProduct(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid product id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	detail, err := h.Products.GetDetail(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "product not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load product failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"product": toProductView(detail)})
}

// SearchProducts filters by name substring and optional category.
func (h *PublicHandler) SearchProducts(c echo.Context) error {
	query := strings.TrimSpace(c.QueryParam("q"))
	var categoryID uint64
	if raw := c.QueryParam("category_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid category_id"})
		}
		categoryID = id
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	details, err := h.Products.Search(ctx, query, categoryID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "search failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"products": toProductViews(details)})
}

// ListCategories returns every category.
func (h *PublicHandler) ListCategories(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	cats, err := h.Categories.ListAll(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list categories failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"categories": cats})
}

// GetCategory returns one category.
func (h *PublicHandler) GetCategory(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid category id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	cat, err := h.Categories.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrCategoryNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "category not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load category failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"category": cat})
}

// GetLikes returns the like count plus, for an authenticated caller, whether
// they liked the product. Anonymous callers always see user_has_liked=false.
func (h *PublicHandler) GetLikes(c echo.Context) error {
	productID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid product id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.ensureProduct(ctx, productID); err != nil {
		return productErrJSON(c, err)
	}
	state, err := h.Engage.LikeState(ctx, productID, optionalUserID(c))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load likes failed"})
	}
	return c.JSON(http.StatusOK, state)
}

// GetRatings returns the rating summary for a product. average_rating is
// null when nobody has rated yet and distribution is then an empty object.
func (h *PublicHandler) GetRatings(c echo.Context) error {
	productID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid product id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.ensureProduct(ctx, productID); err != nil {
		return productErrJSON(c, err)
	}
	sum, err := h.Engage.RatingSummary(ctx, productID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load ratings failed"})
	}

	var avg *string
	if sum.HasRatings {
		s := sum.Average.StringFixed(1)
		avg = &s
	}
	dist := make(map[string]string, len(sum.Distribution))
	for stars, pct := range sum.Distribution {
		dist[strconv.Itoa(stars)] = pct.StringFixed(1)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"average_rating": avg,
		"rating_count":   sum.Count,
		"distribution":   dist,
	})
}

// ensureProduct verifies the product exists before computing engagement
// aggregates for it.
func (h *PublicHandler) ensureProduct(ctx context.Context, productID uint64) error {
	_, err := h.Products.GetDetail(ctx, productID)
	return err
}

func productErrJSON(c echo.Context, err error) error {
	if errors.Is(err, repository.ErrProductNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "product not found"})
	}
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load product failed"})
}
