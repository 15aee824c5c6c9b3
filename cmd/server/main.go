package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/garnizeh/innohub/api"
	dbfs "github.com/garnizeh/innohub/db"
	"github.com/garnizeh/innohub/internal/config"
	"github.com/garnizeh/innohub/internal/db"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

func main() {
	var configPath = flag.String("config", "", "Path to config YAML file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err == nil {
		err = cfg.Validate()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	logger := cfg.Log.NewLogger()
	slog.SetDefault(logger)
	api.SetLogger(logger)

	logger.Info("starting innohub", slog.String("version", version), slog.String("build_time", buildTime), slog.String("env", cfg.Env))

	ctx := context.Background()

	// Open database connection
	database, err := db.New(ctx, cfg.DatabasePath, logger)
	if err != nil {
		logger.Error("failed to open db", slog.Any("err", err))
		os.Exit(1)
	}

	if cfg.MigrateOnStart {
		if err := db.Migrate(ctx, database, dbfs.Migrations); err != nil {
			logger.Error("failed to migrate db", slog.Any("err", err))
			database.Close()
			os.Exit(1)
		}
	}

	handler := api.SetupRoutes(cfg, version, buildTime, database)

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Addr,
		Handler:      handler,
		ReadTimeout:  cfg.APITimeout,
		WriteTimeout: cfg.APITimeout,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("server starting", slog.String("addr", cfg.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed to start", slog.Any("err", err))
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	// Give outstanding requests 30 seconds to complete
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", slog.Any("err", err))
	}

	// Close database connection
	if err := database.Close(); err != nil {
		logger.Error("error closing db", slog.Any("err", err))
	}

	logger.Info("server exited")
}
