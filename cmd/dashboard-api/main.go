package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/progressnav/canvas-pulse-api/api/swagger"
	"github.com/progressnav/canvas-pulse-api/internal/canvas"
	"github.com/progressnav/canvas-pulse-api/internal/handler"
	"github.com/progressnav/canvas-pulse-api/internal/middleware"
	"github.com/progressnav/canvas-pulse-api/internal/repository"
	"github.com/progressnav/canvas-pulse-api/internal/service"
	"github.com/progressnav/canvas-pulse-api/pkg/cache"
	"github.com/progressnav/canvas-pulse-api/pkg/config"
	"github.com/progressnav/canvas-pulse-api/pkg/export"
	"github.com/progressnav/canvas-pulse-api/pkg/logger"
	corsmiddleware "github.com/progressnav/canvas-pulse-api/pkg/middleware/cors"
	reqidmiddleware "github.com/progressnav/canvas-pulse-api/pkg/middleware/requestid"
)

// @title Canvas Pulse API
// @version 0.1.0
// @description Teacher-facing gateway for the Canvas monitoring workflow backend
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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	metricsSvc := service.NewMetricsService()

	var cacheRepo service.CacheRepository
	if cfg.Cache.Enabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, response cache disabled", "error", err)
		} else {
			cacheRepo = repository.NewCacheRepository(redisClient, logr)
		}
	}
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Cache.CoursesTTL, logr, cfg.Cache.Enabled && cacheRepo != nil)

	canvasClient := canvas.NewClient(canvas.ClientConfig{
		BaseURL: cfg.Upstream.BaseURL,
		Timeout: cfg.Upstream.RequestTimeout,
		Logger:  logr,
		Metrics: metricsSvc,
	})

	sessionSvc := service.NewSessionService(service.SessionConfig{AccessTokenSecret: cfg.Auth.AccessTokenSecret})

	courseSvc := service.NewCourseService(canvasClient, cacheSvc, service.CourseServiceConfig{
		SettleDelay: cfg.Sync.SettleDelay,
		CacheTTL:    cfg.Cache.CoursesTTL,
		Workers:     cfg.Sync.Workers,
	}, logr)

	rosterSvc := service.NewRosterService(canvasClient, logr)
	composeSvc := service.NewComposeService(canvasClient, rosterSvc, courseSvc, service.ComposeServiceConfig{
		SessionTTL:      cfg.Compose.SessionTTL,
		CleanupInterval: cfg.Compose.CleanupInterval,
	}, logr)
	tokenSvc := service.NewTokenService(canvasClient, cacheSvc, cfg.Cache.TokenStatusTTL, logr)
	exportSvc := service.NewExportService(rosterSvc, export.NewCSVExporter(), export.NewPDFExporter(), logr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	courseSvc.Start(ctx)
	defer courseSvc.Stop()
	composeSvc.StartSweeper()
	defer composeSvc.Stop()

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	metricsHandler := handler.NewMetricsHandler(metricsSvc, cacheSvc)
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	courseHandler := handler.NewCourseHandler(courseSvc)
	rosterHandler := handler.NewRosterHandler(rosterSvc)
	composeHandler := handler.NewComposeHandler(composeSvc)
	tokenHandler := handler.NewTokenHandler(tokenSvc)
	exportHandler := handler.NewExportHandler(exportSvc)

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.JWT(sessionSvc))
	{
		api.GET("/courses", courseHandler.List)
		api.POST("/courses/refresh", courseHandler.Refresh)
		api.GET("/courses/:courseId/roster", rosterHandler.Get)
		if cfg.Exports.Enabled {
			api.GET("/courses/:courseId/roster/export", exportHandler.Roster)
		}

		api.POST("/compose/contact", composeHandler.OpenContact)
		api.POST("/compose/reminder", composeHandler.OpenReminder)
		api.GET("/compose/:sessionId", composeHandler.Get)
		api.POST("/compose/:sessionId/regenerate", composeHandler.Regenerate)
		api.PUT("/compose/:sessionId/draft", composeHandler.UpdateDraft)
		api.POST("/compose/:sessionId/send", composeHandler.Send)
		api.DELETE("/compose/:sessionId", composeHandler.Close)

		api.GET("/profile/token", tokenHandler.Status)
		api.POST("/profile/token", tokenHandler.Save)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Warnw("graceful shutdown failed", "error", err)
	}
}
