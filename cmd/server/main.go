package main

import (
	"log"
	"time"

	"github.com/artrate/artrate/internal/config"
	"github.com/artrate/artrate/internal/database"
	"github.com/artrate/artrate/internal/handler"
	"github.com/artrate/artrate/internal/mailer"
	"github.com/artrate/artrate/internal/middleware"
	"github.com/artrate/artrate/internal/repository"
	"github.com/artrate/artrate/internal/service"
	"github.com/artrate/artrate/pkg/logger"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg := config.Load()
	log.Println("Config loaded successfully")

	isProduction := cfg.Environment == "production"
	if err := logger.Init(!isProduction); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	database.Connect(cfg)
	database.Migrate()

	// Redis backs the rate limiter only
	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		log.Fatalf("Invalid REDIS_URL: %v", err)
	}
	redisClient := redis.NewClient(redisOpts)
	limiter := middleware.NewRateLimiter(redisClient, middleware.RateLimiterConfig{
		MaxRequests: cfg.RateLimitMaxRequests,
		Window:      cfg.RateLimitWindow,
		BlockTime:   cfg.RateLimitBlockTime,
	})

	sender, err := mailer.NewSMTPSender(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize mailer: %v", err)
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(database.DB)
	catalogRepo := repository.NewCatalogRepository(database.DB)
	reviewRepo := repository.NewReviewRepository(database.DB)

	// Initialize services
	authService := service.NewAuthService(userRepo, sender, cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	userService := service.NewUserService(userRepo)
	catalogService := service.NewCatalogService(catalogRepo)
	reviewService := service.NewReviewService(reviewRepo, catalogRepo)

	// Initialize handlers
	authHandler := handler.NewAuthHandler(authService)
	userHandler := handler.NewUserHandler(userService)
	catalogHandler := handler.NewCatalogHandler(catalogService)
	reviewHandler := handler.NewReviewHandler(reviewService)

	// Setup Gin router
	router := gin.Default()

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000"},
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	router.Use(middleware.SecurityHeadersMiddleware())
	router.Use(middleware.HSTSMiddleware(isProduction))
	router.Use(limiter.Middleware())

	api := router.Group("/api/v1")
	{
		// Auth flow: signup mails a confirmation code, token exchanges it
		api.POST("/auth/signup", authHandler.Signup)
		api.POST("/auth/token", authHandler.IssueToken)
	}

	// Catalog and content reads are open to anonymous callers, but a
	// credential that is presented must still be valid.
	open := api.Group("")
	open.Use(middleware.OptionalAuth(cfg.JWTSecret))
	{
		open.GET("/categories", catalogHandler.ListCategories)
		open.GET("/genres", catalogHandler.ListGenres)
		open.GET("/titles", catalogHandler.ListTitles)
		open.GET("/titles/:title_id", catalogHandler.GetTitle)
		open.GET("/titles/:title_id/reviews", reviewHandler.ListReviews)
		open.GET("/titles/:title_id/reviews/:review_id", reviewHandler.GetReview)
		open.GET("/titles/:title_id/reviews/:review_id/comments", reviewHandler.ListComments)
		open.GET("/titles/:title_id/reviews/:review_id/comments/:comment_id", reviewHandler.GetComment)
	}

	// Everything below requires a valid access token; finer-grained role
	// checks happen in the handlers.
	protected := api.Group("")
	protected.Use(middleware.RequireAuth(cfg.JWTSecret))
	{
		// User administration
		protected.GET("/users", userHandler.ListUsers)
		protected.POST("/users", userHandler.CreateUser)
		protected.GET("/users/me", userHandler.Me)
		protected.PATCH("/users/me", userHandler.PatchMe)
		protected.GET("/users/:username", userHandler.GetUser)
		protected.PATCH("/users/:username", userHandler.PatchUser)
		protected.DELETE("/users/:username", userHandler.DeleteUser)

		// Catalog writes
		protected.POST("/categories", catalogHandler.CreateCategory)
		protected.DELETE("/categories/:slug", catalogHandler.DeleteCategory)
		protected.POST("/genres", catalogHandler.CreateGenre)
		protected.DELETE("/genres/:slug", catalogHandler.DeleteGenre)
		protected.POST("/titles", catalogHandler.CreateTitle)
		protected.PATCH("/titles/:title_id", catalogHandler.PatchTitle)
		protected.DELETE("/titles/:title_id", catalogHandler.DeleteTitle)

		// Reviews and comments
		protected.POST("/titles/:title_id/reviews", reviewHandler.CreateReview)
		protected.PATCH("/titles/:title_id/reviews/:review_id", reviewHandler.PatchReview)
		protected.DELETE("/titles/:title_id/reviews/:review_id", reviewHandler.DeleteReview)
		protected.POST("/titles/:title_id/reviews/:review_id/comments", reviewHandler.CreateComment)
		protected.PATCH("/titles/:title_id/reviews/:review_id/comments/:comment_id", reviewHandler.PatchComment)
		protected.DELETE("/titles/:title_id/reviews/:review_id/comments/:comment_id", reviewHandler.DeleteComment)
	}

	// Start server
	log.Printf("Server starting on %s", cfg.ServerPort)
	if err := router.Run(cfg.ServerPort); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
