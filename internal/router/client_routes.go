package router

import (
	"github.com/labstack/echo/v4"

	"github.com/tiendita/storefront/internal/handler"
	"github.com/tiendita/storefront/internal/middleware"
)

// RegisterClient registers the authenticated shopper surface: like/rating
// mutations, the recommendation feed, the cart and checkout. Admins can use
// these endpoints too; the storefront does not forbid an admin shopping.
// A nil cart handler (Redis down at startup) leaves the cart routes
// unregistered rather than serving guaranteed 500s.
func RegisterClient(e *echo.Echo, eng *handler.EngagementHandler, cart *handler.CartHandler, jwtSecret string) {
	g := e.Group("/v1")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.Use(middleware.RequireRole("ADMIN", "CLIENT"))

	g.POST("/products/:id/likes", eng.Like)
	g.DELETE("/products/:id/likes", eng.Unlike)
	g.POST("/products/:id/ratings", eng.Rate)
	g.GET("/recommendations", eng.Recommendations)

	if cart == nil {
		return
	}
	g.GET("/cart", cart.Get)
	g.PUT("/cart/items/:id", cart.SetItem)
	g.DELETE("/cart/items/:id", cart.RemoveItem)
	g.DELETE("/cart", cart.Clear)
	g.POST("/checkout", cart.Checkout)
}
