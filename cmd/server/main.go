package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/reusefull/reusefull/backend/matching-service/internal/api"
	"github.com/reusefull/reusefull/backend/matching-service/internal/config"
	"github.com/reusefull/reusefull/backend/matching-service/internal/db"
	"github.com/reusefull/reusefull/backend/matching-service/internal/geocode"
	"github.com/reusefull/reusefull/backend/matching-service/internal/logging"
	"github.com/reusefull/reusefull/backend/matching-service/internal/matching"
	"github.com/reusefull/reusefull/backend/matching-service/internal/storage"
	"go.uber.org/zap"
)

func main() {
	cfg, envLoaded := config.Load()

	logger, err := logging.New(cfg.LogLevel, cfg.ServiceName)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	if !envLoaded {
		logger.Info("no .env file found, using environment variables")
	}
	logger.Info("matching service starting",
		zap.String("git_sha", os.Getenv("GIT_SHA")),
		zap.String("build_time", os.Getenv("BUILD_TIME")),
	)

	ctx := context.Background()

	// Database initialization is non-fatal so /live keeps answering.
	opts := api.Options{Logger: logger, Service: cfg.ServiceName}
	database, err := db.NewDatabase(ctx, cfg.Database, logger)
	if err != nil {
		logger.Warn("database initialization failed at startup", zap.Error(err))
	} else {
		defer database.Close()
		opts.Store = database
	}

	logos, err := storage.NewLogoSigner(ctx, cfg.AWS)
	if err != nil {
		logger.Warn("logo uploads disabled", zap.Error(err))
	} else if logos.Enabled() {
		opts.Logos = logos
	}

	geocoder := geocode.NewClient(cfg.Geocoder.BaseURL, cfg.Geocoder.Timeout, logger.Named("geocode"))
	opts.Matcher = matching.NewMatcher(geocoder, logger.Named("matching"))
	opts.Sessions = matching.NewSessions(opts.Matcher, cfg.SessionIdleTTL)

	if cfg.GinMode == "" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(cfg.GinMode)
	}
	router := api.NewRouter(api.NewHandler(opts), api.RouterConfig{
		JWTSecret:    cfg.JWTSecret,
		ActionSecret: cfg.ActionSecret,
		CORSOrigin:   cfg.CORSOrigin,
	}, logger)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("starting server", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", zap.Error(err))
	}
}
