package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/tiendita/storefront/internal/repository"
)

// AdminCategoryHandler serves the admin-only category CRUD.
type AdminCategoryHandler struct {
	Categories *repository.CategoryRepo
}

func NewAdminCategoryHandler(c *repository.CategoryRepo) *AdminCategoryHandler {
	return &AdminCategoryHandler{Categories: c}
}

type categoryReq struct {
	Name string `json:"name" validate:"required,min=2,max=100"`
}

// Create inserts a category. Names are unique.
func (h *AdminCategoryHandler) Create(c echo.Context) error {
	var req categoryReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name required (2-100 chars)"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	cat, err := h.Categories.Create(ctx, req.Name)
	if err != nil {
		if errors.Is(err, repository.ErrCategoryNameExists) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "category name already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create category failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"category": cat})
}

// Update renames a category.
func (h *AdminCategoryHandler) Update(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid category id"})
	}
	var req categoryReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name required (2-100 chars)"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Categories.UpdateName(ctx, id, req.Name); err != nil {
		switch {
		case errors.Is(err, repository.ErrCategoryNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "category not found"})
		case errors.Is(err, repository.ErrCategoryNameExists):
			return c.JSON(http.StatusConflict, echo.Map{"error": "category name already exists"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update category failed"})
		}
	}
	cat, err := h.Categories.GetByID(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load category failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"category": cat})
}

// Delete removes a category. A category still referenced by products
// answers 409; products must be moved or deleted first.
func (h *AdminCategoryHandler) Delete(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid category id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Categories.Delete(ctx, id); err != nil {
		switch {
		case errors.Is(err, repository.ErrCategoryNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "category not found"})
		case errors.Is(err, repository.ErrCategoryInUse):
			return c.JSON(http.StatusConflict, echo.Map{"error": "category has products"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete category failed"})
		}
	}
	return c.NoContent(http.StatusNoContent)
}
