package router

import (
	"github.com/labstack/echo/v4"

	"github.com/tiendita/storefront/internal/handler"
	"github.com/tiendita/storefront/internal/middleware"
)

// RegisterPublic registers the unauthenticated storefront surface: catalog
// browsing, engagement reads and the contact form. The engagement read
// endpoints run OptionalJWT so a logged-in browser sees its own like state
// while anonymous visitors still get the totals.
func RegisterPublic(e *echo.Echo, p *handler.PublicHandler, contact *handler.ContactHandler, jwtSecret string) {
	e.GET("/v1/products", p.ListProducts)
	e.GET("/v1/products/:id", p.GetProduct)
	e.GET("/v1/search/products", p.SearchProducts)
	e.GET("/v1/categories", p.ListCategories)
	e.GET("/v1/categories/:id", p.GetCategory)

	optional := middleware.OptionalJWT(jwtSecret)
	e.GET("/v1/products/:id/likes", p.GetLikes, optional)
	e.GET("/v1/products/:id/ratings", p.GetRatings, optional)

	e.POST("/v1/contact", contact.Submit)
}
