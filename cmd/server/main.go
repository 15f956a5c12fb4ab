// Package main runs the HapsayHub HTTP server with WebSocket surfaces and graceful shutdown.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/hapsayhub/backend/config"
	"github.com/hapsayhub/backend/internal/app"
	"github.com/hapsayhub/backend/internal/approval"
	"github.com/hapsayhub/backend/internal/attendees"
	"github.com/hapsayhub/backend/internal/events"
	"github.com/hapsayhub/backend/internal/geocode"
	"github.com/hapsayhub/backend/internal/mailer"
	"github.com/hapsayhub/backend/internal/middleware"
	"github.com/hapsayhub/backend/internal/payments"
	"github.com/hapsayhub/backend/internal/realtime"
	"github.com/hapsayhub/backend/internal/seed"
	"github.com/hapsayhub/backend/internal/surface"
	"github.com/hapsayhub/backend/internal/users"
	"github.com/hapsayhub/backend/pkg/response"
	"github.com/hapsayhub/backend/pkg/storage"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}
	loc, err := app.UseTimezone(cfg.Server)
	if err != nil {
		logger.Fatal("timezone", zap.Error(err))
	}

	ctx := context.Background()
	backends, err := app.Open(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("store", zap.Error(err))
	}
	defer backends.Close()

	hub := backends.NewHub()
	if err := hub.Start(); err != nil {
		logger.Fatal("sync subscription", zap.Error(err))
	}
	defer hub.Stop()

	catalog := app.NewCatalog(backends.Medium, hub, logger)

	var images events.ImageStore
	if cfg.AWS.Region != "" {
		s3Client, err := storage.NewS3(ctx, storage.S3Config{
			Region:          cfg.AWS.Region,
			AccessKeyID:     cfg.AWS.AccessKeyID,
			SecretAccessKey: cfg.AWS.SecretAccessKey,
			ImagesBucket:    cfg.AWS.ImagesBucket,
		}, logger)
		if err != nil {
			logger.Warn("s3 disabled", zap.Error(err))
		} else {
			images = s3Client
		}
	}

	// Events, approval and categories
	workflow := approval.NewWorkflow(catalog.Events, logger)
	categories := events.NewCategories(catalog.Categories, logger)
	eventHandler := events.NewHandler(catalog.Events, workflow, categories, images, logger)

	// Attendees and ticket email
	mail := mailer.NewClient(cfg.Mailer.URL, time.Duration(cfg.Mailer.TimeoutSec)*time.Second, logger)
	attendeeSvc := attendees.NewService(catalog.Attendees, catalog.Events, mail, logger)
	attendeeHandler := attendees.NewHandler(attendeeSvc, loc, logger)

	// Users and roles
	userSvc := users.NewService(catalog.Users, catalog.Roles, cfg.Users.HashPasswords, logger)
	userHandler := users.NewHandler(userSvc)

	paymentHandler := payments.NewHandler(payments.NewService(catalog.Attendees, logger))
	geocoder := geocode.NewClient(cfg.Geocode.URL, cfg.Geocode.UserAgent, time.Duration(cfg.Geocode.TimeoutSec)*time.Second, logger)
	geocodeHandler := geocode.NewHandler(geocoder)

	if cfg.Seed.File != "" {
		f, err := seed.Load(cfg.Seed.File)
		if err != nil {
			logger.Fatal("seed", zap.Error(err))
		}
		if _, err := seed.NewSeeder(categories, userSvc, logger).Apply(ctx, f); err != nil {
			logger.Fatal("seed", zap.Error(err))
		}
	}

	// Surfaces: per-page sessions refreshed on a timer and on change notifications
	surfaces := surface.NewManager(catalog.Surfaces(), hub, hub, app.SurfaceConfig(cfg.Sync), logger)
	if err := surfaces.Start(); err != nil {
		logger.Fatal("surface reaper", zap.Error(err))
	}
	surfaceHandler := surface.NewHandler(surfaces)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))

	router.GET("/health", func(c *gin.Context) { response.OK(c, gin.H{"status": "ok"}) })
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Catalog
	router.GET("/events", eventHandler.List)
	router.GET("/events/:id", eventHandler.Get)
	router.POST("/events", eventHandler.Submit)
	router.PUT("/events/:id", eventHandler.Submit)
	router.DELETE("/events/:id", eventHandler.Delete)
	router.POST("/events/:id/image", eventHandler.UploadImage)
	router.POST("/events/:id/register", attendeeHandler.Register)

	admin := router.Group("/admin")
	{
		admin.POST("/events", eventHandler.AdminSave)
		admin.PUT("/events/:id", eventHandler.AdminSave)
		admin.POST("/events/:id/approve", eventHandler.Approve)
		admin.POST("/events/:id/decline", eventHandler.Decline)
	}

	router.GET("/categories", eventHandler.ListCategories)
	router.POST("/categories", eventHandler.AddCategory)
	router.PUT("/categories/:name", eventHandler.RenameCategory)
	router.DELETE("/categories/:name", eventHandler.DeleteCategory)

	// Attendees
	router.GET("/attendees", attendeeHandler.List)
	router.GET("/attendees/export", attendeeHandler.Export)
	router.PATCH("/attendees/:ticketID/status", attendeeHandler.SetStatus)
	router.DELETE("/attendees/:ticketID", attendeeHandler.Remove)

	// Users and roles
	router.GET("/users", userHandler.List)
	router.GET("/users/export", userHandler.Export)
	router.POST("/users", userHandler.Create)
	router.PUT("/users/:id", userHandler.Update)
	router.POST("/users/:id/toggle", userHandler.Toggle)
	router.DELETE("/users/:id", userHandler.Delete)
	router.GET("/roles", userHandler.Roles)
	router.POST("/roles", userHandler.AddRole)

	router.GET("/payments/pending", paymentHandler.Pending)
	router.GET("/geocode/reverse", geocodeHandler.Reverse)

	// Surfaces
	sg := router.Group("/surfaces")
	{
		sg.POST("", surfaceHandler.Open)
		sg.GET("/:id", surfaceHandler.Get)
		sg.DELETE("/:id", surfaceHandler.Close)
		sg.POST("/:id/refresh", surfaceHandler.Refresh)
		sg.GET("/:id/events", surfaceHandler.Render(surface.ViewEvents))
		sg.GET("/:id/attendees", surfaceHandler.Render(surface.ViewAttendees))
		sg.GET("/:id/users", surfaceHandler.Render(surface.ViewUsers))
		sg.GET("/:id/visitor", surfaceHandler.Render(surface.ViewVisitor))
	}

	// WebSocket (surface_id in query)
	router.GET("/ws", realtime.ServeWs(hub, logger, surfaces.Exists, surfaces.HandleClientMessage))

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port), zap.String("store", cfg.Store.Driver))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	surfaces.Stop()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
