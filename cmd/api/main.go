package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/academiapress/platform-api/api/swagger"
	"github.com/academiapress/platform-api/internal/handler"
	"github.com/academiapress/platform-api/internal/middleware"
	"github.com/academiapress/platform-api/internal/models"
	"github.com/academiapress/platform-api/internal/repository"
	"github.com/academiapress/platform-api/internal/service"
	"github.com/academiapress/platform-api/pkg/cache"
	"github.com/academiapress/platform-api/pkg/config"
	"github.com/academiapress/platform-api/pkg/database"
	"github.com/academiapress/platform-api/pkg/export"
	"github.com/academiapress/platform-api/pkg/logger"
	corsmiddleware "github.com/academiapress/platform-api/pkg/middleware/cors"
	reqidmiddleware "github.com/academiapress/platform-api/pkg/middleware/requestid"
	"github.com/academiapress/platform-api/pkg/storage"
)

// @title AcademiaPress Platform API
// @version 1.0.0
// @description Search, analytics and publishing workflow backend for the AcademiaPress platform
// @BasePath /api/v1
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
	}

	manuscriptStore, err := storage.NewLocalStorage(cfg.Manuscript.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to init manuscript storage", "error", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Manuscript.SignedURLSecret, cfg.Manuscript.SignedURLTTL)

	validate := validator.New()

	// Repositories.
	submissionRepo := repository.NewSubmissionRepository(db, cfg.Search.ResultLimit)
	profileRepo := repository.NewProfileRepository(db)
	transactionRepo := repository.NewTransactionRepository(db)
	eventRepo := repository.NewEventRepository(db)
	plagiarismRepo := repository.NewPlagiarismRepository(db)
	userRepo := repository.NewUserRepository(db)

	// Services.
	metricsSvc := service.NewMetricsService()
	var cacheSvc *service.CacheService
	if redisClient != nil {
		cacheRepo := repository.NewCacheRepository(redisClient, logr)
		cacheSvc = service.NewCacheService(cacheRepo, metricsSvc, cfg.Analytics.CacheTTL, logr, true)
	} else {
		cacheSvc = service.NewCacheService(nil, metricsSvc, cfg.Analytics.CacheTTL, logr, false)
	}

	searchSvc := service.NewSearchService(submissionRepo, cacheSvc, export.NewCSVExporter(), cfg.Search.OptionsCacheTTL, logr)
	analyticsSvc := service.NewAnalyticsService(submissionRepo, transactionRepo, profileRepo, cacheSvc, cfg.Analytics, logr)

	onCorpusChange := func(ctx context.Context) {
		searchSvc.InvalidateOptions(ctx)
		analyticsSvc.Invalidate(ctx)
	}
	submissionSvc := service.NewSubmissionService(submissionRepo, manuscriptStore, validate, cfg.Manuscript, logr, onCorpusChange)
	eventSvc := service.NewEventService(eventRepo, logr)
	plagiarismSvc := service.NewPlagiarismService(plagiarismRepo, submissionRepo, cfg.Plagiarism, logr)
	authSvc := service.NewAuthService(userRepo, profileRepo, validate, cfg.JWT, logr)

	var realtimeSvc *service.RealtimeService
	if redisClient != nil {
		realtimeSvc = service.NewRealtimeService(redisClient, cfg.Realtime, logr)
		realtimeSvc.OnChange(func(ctx context.Context, event service.ChangeEvent) {
			onCorpusChange(ctx)
		})
	}

	runCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	plagiarismSvc.Start(runCtx)
	defer plagiarismSvc.Stop()
	if realtimeSvc != nil {
		realtimeSvc.Start(runCtx)
		defer realtimeSvc.Stop()
	}

	// Handlers.
	authHandler := handler.NewAuthHandler(authSvc)
	searchHandler := handler.NewSearchHandler(searchSvc)
	analyticsHandler := handler.NewAnalyticsHandler(analyticsSvc)
	submissionHandler := handler.NewSubmissionHandler(submissionSvc, manuscriptStore, signer)
	eventHandler := handler.NewEventHandler(eventSvc)
	plagiarismHandler := handler.NewPlagiarismHandler(plagiarismSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	{
		auth := api.Group("/auth")
		auth.POST("/signup", authHandler.Signup)
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)
		auth.POST("/logout", middleware.JWT(authSvc), authHandler.Logout)

		api.POST("/search", searchHandler.Search)
		api.GET("/search/options", searchHandler.Options)
		api.POST("/search/export", searchHandler.Export)

		api.GET("/analytics/overview", analyticsHandler.Overview)
		api.POST("/analytics/refresh", middleware.JWT(authSvc), middleware.RBAC(models.RoleEditor, models.RoleAdmin), analyticsHandler.Refresh)

		submissions := api.Group("/submissions", middleware.JWT(authSvc))
		submissions.POST("", submissionHandler.Create)
		submissions.GET("/mine", submissionHandler.ListMine)
		submissions.GET("/:id", submissionHandler.Get)
		submissions.PATCH("/:id/status", middleware.RBAC(models.RoleReviewer, models.RoleEditor, models.RoleAdmin), submissionHandler.UpdateStatus)
		submissions.POST("/:id/download-url", submissionHandler.DownloadURL)
		submissions.POST("/:id/plagiarism", middleware.RBAC(models.RoleReviewer, models.RoleEditor, models.RoleAdmin), plagiarismHandler.Request)

		api.GET("/manuscripts/download", submissionHandler.Download)
		api.GET("/plagiarism/:id", middleware.JWT(authSvc), plagiarismHandler.Get)

		api.GET("/events", middleware.OptionalJWT(authSvc), eventHandler.List)
		api.POST("/events/:id/register", middleware.JWT(authSvc), eventHandler.Register)

		api.GET("/system/metrics", middleware.JWT(authSvc), middleware.RBAC(models.RoleAdmin), metricsHandler.Snapshot)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-runCtx.Done()
	logr.Sugar().Infow("server stopping")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}
