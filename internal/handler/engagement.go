package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/tiendita/storefront/internal/engagement"
	"github.com/tiendita/storefront/internal/recommend"
	"github.com/tiendita/storefront/internal/repository"
)

// EngagementHandler serves the authenticated like/rating mutations and the
// personalized recommendation feed.
type EngagementHandler struct {
	Products PriceStore
	Engage   *engagement.Service
	Recs     *recommend.Engine
}

func NewEngagementHandler(p PriceStore, e *engagement.Service, r *recommend.Engine) *EngagementHandler {
	return &EngagementHandler{Products: p, Engage: e, Recs: r}
}

type rateReq struct {
	Stars int `json:"stars" validate:"required,min=1,max=5"`
}

// Like adds the caller's like. A like that already exists, including one
// written by a concurrent request a moment earlier, answers 409.
func (h *EngagementHandler) Like(c echo.Context) error {
	return h.toggle(c, true)
}

// Unlike removes the caller's like. Removing a like that does not exist
// answers 409.
func (h *EngagementHandler) Unlike(c echo.Context) error {
	return h.toggle(c, false)
}

func (h *EngagementHandler) toggle(c echo.Context, like bool) error {
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

	if _, err := h.Products.GetDetail(ctx, productID); err != nil {
		return productErrJSON(c, err)
	}

	state, err := h.Engage.ToggleLike(ctx, productID, uid, like)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrAlreadyLiked):
			return c.JSON(http.StatusConflict, echo.Map{"error": "already liked"})
		case errors.Is(err, repository.ErrNotLiked):
			return c.JSON(http.StatusConflict, echo.Map{"error": "not liked"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update like failed"})
		}
	}
	return c.JSON(http.StatusOK, state)
}

// Rate records or replaces the caller's star rating for a product and
// returns the recomputed average. A second submission overwrites the first;
// it never adds a row.
func (h *EngagementHandler) Rate(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	productID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid product id"})
	}
	var req rateReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "stars must be between 1 and 5"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if _, err := h.Products.GetDetail(ctx, productID); err != nil {
		return productErrJSON(c, err)
	}

	avg, err := h.Engage.SubmitRating(ctx, productID, uid, req.Stars)
	if err != nil {
		if errors.Is(err, engagement.ErrInvalidRating) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "stars must be between 1 and 5"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "submit rating failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"new_average_rating": avg.StringFixed(1)})
}

// Recommendations returns products from the caller's high-rated categories,
// excluding everything the caller has already rated. A user with no
// qualifying ratings gets an empty list, never an error.
func (h *EngagementHandler) Recommendations(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	details, err := h.Recs.Products(ctx, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load recommendations failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"products": toProductViews(details)})
}
