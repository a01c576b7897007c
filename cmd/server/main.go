package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Ayash-Bera/budgetbites/backend/internal/api/handlers"
	"github.com/Ayash-Bera/budgetbites/backend/internal/app"
	"github.com/Ayash-Bera/budgetbites/backend/internal/config"
	"github.com/Ayash-Bera/budgetbites/backend/internal/database"
	"github.com/Ayash-Bera/budgetbites/backend/internal/health"
	"github.com/Ayash-Bera/budgetbites/backend/internal/middleware"
	"github.com/Ayash-Bera/budgetbites/backend/internal/migration"
	"github.com/Ayash-Bera/budgetbites/backend/internal/models"
	"github.com/Ayash-Bera/budgetbites/backend/internal/repository"
	"github.com/Ayash-Bera/budgetbites/backend/pkg/utils"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := utils.NewLogger(cfg.App.LogLevel, cfg.App.LogFormat)
	logger.WithField("version", cfg.App.Version).Info("Starting Budget Bites API...")

	if issues := cfg.ValidateSearch(); len(issues) > 0 {
		for _, issue := range issues {
			logger.WithField("field", issue.Field).Warn(issue.Message)
		}
	}

	dbManager, err := database.NewManager(&database.Config{
		DatabaseURL: cfg.Database.URL,
		RedisURL:    cfg.Redis.URL,
		LogLevel:    cfg.App.LogLevel,
	}, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize database manager")
	}
	defer dbManager.Close()

	var repoManager *repository.RepositoryManager
	var healthRepo models.SystemHealthRepository
	if dbManager.DB != nil {
		if err := migration.NewRunner(dbManager, logger).RunMigrations(cfg.Migrations.Path); err != nil {
			logger.WithError(err).Fatal("Database migration failed")
		}
		repoManager = repository.NewRepositoryManager(dbManager.DB)
		healthRepo = repoManager.SystemHealth
	}

	var cache *database.Cache
	var counter middleware.WindowCounter
	if dbManager.Redis != nil {
		cache = database.NewCache(dbManager.Redis, logger)
		counter = cache
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	searchService, err := app.NewSearchService(ctx, cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize search service")
	}

	checker := health.NewHealthChecker(dbManager, cache, healthRepo, health.Providers{
		GeminiConfigured: cfg.Gemini.APIKey != "",
		PlacesConfigured: cfg.Places.APIKey != "",
	}, logger)
	if cfg.Health.CheckIntervalSeconds > 0 {
		go checker.PeriodicHealthCheck(ctx, time.Duration(cfg.Health.CheckIntervalSeconds)*time.Second)
	}

	rateLimiter := middleware.NewRateLimiter(cfg.RateLimit.RequestsPerMinute, counter, cfg.App.APIName, logger)
	go rateLimiter.CleanupVisitors(ctx)

	if cfg.App.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(
		middleware.RequestID(),
		middleware.RequestLogger(logger),
		middleware.CORS(middleware.CORSConfig{
			AllowOrigins:     cfg.CORS.AllowOrigins,
			AllowMethods:     cfg.CORS.AllowMethods,
			AllowHeaders:     cfg.CORS.AllowHeaders,
			ExposeHeaders:    cfg.CORS.ExposeHeaders,
			AllowCredentials: cfg.CORS.AllowCredentials,
			MaxAgeSeconds:    cfg.CORS.MaxAgeSeconds,
		}),
		middleware.SecurityHeaders(),
		middleware.Recovery(cfg.App.APIName, logger),
	)

	searchHandler := handlers.NewSearchHandler(searchService, repoManager, logger)
	healthHandler := handlers.NewHealthHandler(checker, cfg.App.Name, cfg.App.Version)

	router.GET("/health", healthHandler.HandleHealth)

	api := router.Group("/api/v1")
	api.Use(rateLimiter.RateLimit())
	{
		api.POST("/search", searchHandler.HandleSearch)
		api.GET("/search/recent", searchHandler.HandleRecentSearches)
		api.GET("/search/popular", searchHandler.HandlePopularProducts)
		api.POST("/search/feedback", searchHandler.HandleFeedback)
		api.GET("/search/feedback/:query_id", searchHandler.HandleListFeedback)
	}

	server := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: time.Duration(cfg.Server.ReadTimeoutSeconds) * time.Second,
	}

	go func() {
		logger.WithField("port", cfg.Server.Port).Info("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("HTTP server failed")
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Graceful shutdown failed")
	}
}
