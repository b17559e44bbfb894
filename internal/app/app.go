// Package app wires configuration into a ready-to-run pipeline service.
// It is shared by the API server and the one-shot cycle runner.
package app

import (
	"fmt"
	"os"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"github.com/wealthautomationhq/autopost/internal/config"
	"github.com/wealthautomationhq/autopost/internal/cta"
	"github.com/wealthautomationhq/autopost/internal/database"
	"github.com/wealthautomationhq/autopost/internal/fallback"
	"github.com/wealthautomationhq/autopost/internal/generator"
	"github.com/wealthautomationhq/autopost/internal/history"
	"github.com/wealthautomationhq/autopost/internal/kit"
	"github.com/wealthautomationhq/autopost/internal/logger"
	"github.com/wealthautomationhq/autopost/internal/metrics"
	"github.com/wealthautomationhq/autopost/internal/notify"
	"github.com/wealthautomationhq/autopost/internal/offers"
	"github.com/wealthautomationhq/autopost/internal/pipeline"
	"github.com/wealthautomationhq/autopost/internal/rotation"
	"github.com/wealthautomationhq/autopost/internal/webhook"
	"github.com/wealthautomationhq/autopost/internal/wordpress"
)

// sheetsReadRange is the remote history range: one row per post, with
// timestamp in column A and title in column B.
const sheetsReadRange = "Blog_Posts!A:B"

// App holds the assembled service and its resources.
type App struct {
	Config  *config.Config
	Logger  logger.Logger
	Service *pipeline.Service

	redisClient *redis.Client
	db          *sqlx.DB
}

// New loads configuration and builds the pipeline with all collaborators.
func New(configPath string) (*App, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	log, err := logger.NewLogger(cfg.Debug)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}

	if mkErr := os.MkdirAll(cfg.Service.DataDir, 0o755); mkErr != nil {
		return nil, fmt.Errorf("create data dir: %w", mkErr)
	}

	a := &App{Config: cfg, Logger: log}

	store := offers.LoadFile(cfg.Service.OffersFile, log)
	matcher := offers.NewMatcher(store, log)

	utmSource := cfg.Service.UTMSource
	if utmSource == "" {
		utmSource = cta.DefaultUTMSource
	}
	utmMedium := cfg.Service.UTMMedium
	if utmMedium == "" {
		utmMedium = cta.DefaultUTMMedium
	}
	injector := cta.NewInjector(cta.NewRenderer(utmSource, utmMedium, log), log)

	blogHistory, ctaHistory := a.buildHistory(log)

	fb := fallback.NewWriter(cfg.FallbackDir(), log)

	wp, err := wordpress.NewClient(cfg.WordPress.APIURL, cfg.WordPress.User,
		cfg.WordPress.AppPassword, cfg.WordPress.Timeout, fb, log)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("create wordpress client: %w", err)
	}

	var mirror pipeline.UsageMirror
	if cfg.Database.Enabled {
		db, dbErr := database.NewPostgresConnection(database.Config{
			Host:     cfg.Database.Host,
			Port:     cfg.Database.Port,
			User:     cfg.Database.User,
			Password: cfg.Database.Password,
			DBName:   cfg.Database.DBName,
			SSLMode:  cfg.Database.SSLMode,
		})
		if dbErr != nil {
			a.Close()
			return nil, fmt.Errorf("connect postgres: %w", dbErr)
		}
		a.db = db
		mirror = database.NewUsageRepository(db, log)
	}

	a.Service = pipeline.NewService(
		pipeline.Config{
			Topics:       cfg.Service.Topics,
			RateLimitCPM: cfg.Service.RateLimitCPM,
		},
		pipeline.Deps{
			Guard:       rotation.NewGuard(log),
			Generator:   generator.NewGenerator(cfg.OpenAI.APIKey, log),
			Matcher:     matcher,
			Injector:    injector,
			Publisher:   wp,
			Broadcaster: kit.NewClient(cfg.Kit.BaseURL, cfg.Kit.APIKey, cfg.Kit.Timeout, fb, log),
			Notifier:    notify.NewNotifier(cfg.Discord.WebhookURL, cfg.Discord.Timeout, log),
			Automation:  webhook.NewMakeClient(cfg.Make.WebhookURL, cfg.Make.Timeout, log),
			BlogHistory: blogHistory,
			CTAHistory:  ctaHistory,
			UsageLog:    history.NewCSVUsageLog(cfg.UsageLogPath(), log),
			UsageMirror: mirror,
			Metrics:     metrics.NewMetrics(nil),
			Logger:      log,
		},
	)

	return a, nil
}

// buildHistory selects the history backends: Redis when enabled, flat
// files otherwise, with the Google Sheets tracker as a read-only
// fallback source for blog history when configured.
func (a *App) buildHistory(log logger.Logger) (history.Store, history.Store) {
	cfg := a.Config

	var blogStore, ctaStore history.Store
	if cfg.Redis.Enabled {
		a.redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		blogStore = history.NewRedisStore(a.redisClient, "autopost:blog_history", log)
		ctaStore = history.NewRedisStore(a.redisClient, "autopost:cta_history", log)
	} else {
		blogStore = history.NewFileStore(cfg.BlogHistoryPath(), log)
		ctaStore = history.NewFileStore(cfg.CTAHistoryPath(), log)
	}

	if cfg.Sheets.SpreadsheetID != "" && cfg.Sheets.APIKey != "" {
		sheets := history.NewSheetsSource(cfg.Sheets.SpreadsheetID, sheetsReadRange,
			cfg.Sheets.APIKey, cfg.Sheets.Timeout, log)
		blogStore = history.NewFallbackSource(blogStore, sheets, log)
	}

	return blogStore, ctaStore
}

// Close releases held connections.
func (a *App) Close() {
	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.Logger.Warn("Failed to close redis client", logger.Error(err))
		}
	}
	if a.db != nil {
		if err := database.Close(a.db); err != nil {
			a.Logger.Warn("Failed to close database", logger.Error(err))
		}
	}
	_ = a.Logger.Sync()
}
