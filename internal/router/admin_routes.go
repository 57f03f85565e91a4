package router

import (
	"github.com/labstack/echo/v4"

	"github.com/tiendita/storefront/internal/handler"
	"github.com/tiendita/storefront/internal/middleware"
)

// RegisterAdmin registers the catalog management surface. Every route
// requires a valid access token carrying the ADMIN role.
func RegisterAdmin(e *echo.Echo, prod *handler.AdminProductHandler, cat *handler.AdminCategoryHandler, jwtSecret string) {
	g := e.Group("/v1/admin")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.Use(middleware.RequireRole("ADMIN"))

	g.POST("/products", prod.Create)
	g.PUT("/products/:id", prod.Update)
	g.DELETE("/products/:id", prod.Delete)

	g.POST("/categories", cat.Create)
	g.PUT("/categories/:id", cat.Update)
	g.DELETE("/categories/:id", cat.Delete)
}
