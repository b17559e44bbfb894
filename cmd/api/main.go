package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/wealthautomationhq/autopost/internal/api"
	"github.com/wealthautomationhq/autopost/internal/app"
	"github.com/wealthautomationhq/autopost/internal/logger"
)

const shutdownTimeout = 30 * time.Second

func main() {
	configPath := flag.String("config", "", "path to YAML config file (optional)")
	flag.Parse()

	// Best effort: a missing .env file is fine in production.
	_ = godotenv.Load()

	application, err := app.New(*configPath)
	if err != nil {
		log.Fatalf("Failed to initialize: %v", err)
	}
	defer application.Close()

	cfg := application.Config
	router := api.NewRouter(application.Service, cfg, application.Logger)

	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router.SetupRoutes(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		application.Logger.Info("Starting API server",
			logger.String("address", cfg.Server.Address))
		if serveErr := server.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			application.Logger.Error("Server failed", logger.Error(serveErr))
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	application.Logger.Info("Shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if shutdownErr := server.Shutdown(ctx); shutdownErr != nil {
		application.Logger.Error("Server forced to shutdown", logger.Error(shutdownErr))
	}

	application.Logger.Info("Server exited")
}
