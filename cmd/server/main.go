package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/tiendita/storefront/internal/config"
	"github.com/tiendita/storefront/internal/database"
	"github.com/tiendita/storefront/internal/engagement"
	"github.com/tiendita/storefront/internal/handler"
	"github.com/tiendita/storefront/internal/middleware"
	"github.com/tiendita/storefront/internal/queue"
	"github.com/tiendita/storefront/internal/recommend"
	"github.com/tiendita/storefront/internal/repository"
	"github.com/tiendita/storefront/internal/router"
)

func main() {
	// A missing .env is fine; real deployments inject the environment.
	_ = godotenv.Load()

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	rdb := config.NewRedisClient()

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	categories := repository.NewCategoryRepo(db)
	products := repository.NewProductRepo(db)
	likes := repository.NewLikeRepo(db)
	ratings := repository.NewRatingRepo(db)

	engage := engagement.NewService(likes, ratings)
	recs := recommend.NewEngine(ratings, products, cfg.AffinityMinStars)

	auth := handler.NewAuthHandler(cfg, users, tokens)
	public := handler.NewPublicHandler(products, categories, engage)
	engHandler := handler.NewEngagementHandler(products, engage, recs)

	// Without Redis there is no cart store; the cart routes are skipped and
	// the rest of the API serves normally.
	var cartHandler *handler.CartHandler
	if rdb != nil {
		cartHandler = handler.NewCartHandler(repository.NewCartRepo(rdb), products)
	} else {
		log.Printf("redis unavailable: cart and checkout disabled, caching and rate limiting degraded")
	}
	adminProd := handler.NewAdminProductHandler(products)
	adminCat := handler.NewAdminCategoryHandler(categories)
	contact := handler.NewContactHandler(nil)

	e := echo.New()
	e.Validator = handler.NewValidator()

	// Rate limiting and response caching sit in front of every route.  Both
	// degrade to pass-through when Redis is unavailable.
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))
	e.Use(middleware.NewRedisCache(config.LoadCacheConfig(), rdb))

	router.RegisterRoutes(e)
	router.RegisterAuth(e, auth, cfg.JWTSecret)
	router.RegisterPublic(e, public, contact, cfg.JWTSecret)
	router.RegisterClient(e, engHandler, cartHandler, cfg.JWTSecret)
	router.RegisterAdmin(e, adminProd, adminCat, cfg.JWTSecret)

	// Drain contact form submissions in the background for the whole life
	// of the process.
	go func() {
		if err := queue.StartContactConsumer(); err != nil {
			log.Printf("contact consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)

	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
