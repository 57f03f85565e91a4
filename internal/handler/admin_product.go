package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/tiendita/storefront/internal/repository"
)

// AdminProductHandler serves the admin-only product CRUD.
type AdminProductHandler struct {
	Products *repository.ProductRepo
}

func NewAdminProductHandler(p *repository.ProductRepo) *AdminProductHandler {
	return &AdminProductHandler{Products: p}
}

// productReq is the create/update payload. Every product carries exactly
// five image URLs; the storefront grid breaks with any other count.
type productReq struct {
	Name        string   `json:"name" validate:"required,min=2,max=200"`
	Description string   `json:"description" validate:"required"`
	Price       string   `json:"price" validate:"required"`
	Stock       uint32   `json:"stock"`
	CategoryID  uint64   `json:"category_id" validate:"required"`
	Images      []string `json:"images" validate:"required,len=5,dive,url"`
}

func (req *productReq) toProduct() (*repository.Product, error) {
	price, err := decimal.NewFromString(req.Price)
	if err != nil || price.IsNegative() {
		return nil, errors.New("price must be a non-negative decimal")
	}
	return &repository.Product{
		Name:        req.Name,
		Description: req.Description,
		Price:       price,
		Stock:       req.Stock,
		CategoryID:  req.CategoryID,
	}, nil
}

// Create inserts a product with its five images.
func (h *AdminProductHandler) Create(c echo.Context) error {
	var req productReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name, description, price, category_id and exactly 5 image urls required"})
	}
	p, err := req.toProduct()
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	detail, err := h.Products.Create(ctx, p, req.Images)
	if err != nil {
		if errors.Is(err, repository.ErrCategoryNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "category not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create product failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"product": toProductView(detail)})
}

// Update replaces a product's fields and its whole image set.
func (h *AdminProductHandler) Update(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid product id"})
	}
	var req productReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name, description, price, category_id and exactly 5 image urls required"})
	}
	p, err := req.toProduct()
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	p.ID = id

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	detail, err := h.Products.Update(ctx, p, req.Images)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrProductNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "product not found"})
		case errors.Is(err, repository.ErrCategoryNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "category not found"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update product failed"})
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"product": toProductView(detail)})
}

// Delete removes a product along with its images, likes and ratings.
func (h *AdminProductHandler) Delete(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid product id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Products.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "product not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete product failed"})
	}
	return c.NoContent(http.StatusNoContent)
}
