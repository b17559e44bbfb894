// Command cycle runs one publishing cycle and exits. Intended for cron
// or scheduled-job use where the API server is not running.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/wealthautomationhq/autopost/internal/app"
	"github.com/wealthautomationhq/autopost/internal/logger"
	"github.com/wealthautomationhq/autopost/internal/pipeline"
)

const cycleTimeout = 5 * time.Minute

func main() {
	configPath := flag.String("config", "", "path to YAML config file (optional)")
	topic := flag.String("topic", "", "topic override (optional, selected from rotation when empty)")
	flag.Parse()

	_ = godotenv.Load()

	application, err := app.New(*configPath)
	if err != nil {
		log.Fatalf("Failed to initialize: %v", err)
	}
	defer application.Close()

	ctx, cancel := context.WithTimeout(context.Background(), cycleTimeout)
	defer cancel()

	result, err := application.Service.RunCycle(ctx, *topic)
	if err != nil {
		application.Logger.Error("Cycle failed", logger.Error(err))
		application.Close()
		os.Exit(1)
	}

	application.Logger.Info("Cycle completed",
		logger.String("status", result.Status()),
		logger.String("topic", result.Topic),
		logger.String("post_url", result.PostURL),
		logger.Strings("warnings", result.Warnings),
	)

	if result.Status() == pipeline.StatusFailed {
		application.Close()
		os.Exit(1)
	}
}
