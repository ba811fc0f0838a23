package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/bussywales/rentnow-sub000/config"
	"github.com/bussywales/rentnow-sub000/internal/api"
	"github.com/bussywales/rentnow-sub000/internal/db"
	"github.com/bussywales/rentnow-sub000/internal/obs"
	"github.com/bussywales/rentnow-sub000/internal/store"
	"github.com/bussywales/rentnow-sub000/internal/sweeper"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration from %s: %v\n", configPath, err)
		os.Exit(1)
	}

	logger := obs.NewLogger(cfg.Env)
	logger.Info("configuration loaded", "path", configPath)

	gormDB, err := db.Init(&cfg.Database)
	if err != nil {
		logger.Error("failed to initialize database", "err", err)
		os.Exit(1)
	}
	logger.Info("database initialized")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	appStore := store.NewGormStore(gormDB, cfg.Booking.PaymentWindow)

	sweepSvc := sweeper.NewService(cfg, appStore, nil, logger)
	go sweepSvc.Run(ctx)

	router := api.NewRouter(&cfg.Server, appStore)
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		logger.Info("HTTP server starting", "port", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server failed", "err", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	<-stop
	logger.Info("shutdown signal received, stopping services")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown failed", "err", err)
		os.Exit(1)
	}

	logger.Info("server gracefully stopped")
}
