// Package api exposes the HTTP surface of the service: a trigger
// endpoint for publishing cycles plus status and health reporting.
package api

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wealthautomationhq/autopost/internal/config"
	"github.com/wealthautomationhq/autopost/internal/logger"
	"github.com/wealthautomationhq/autopost/internal/pipeline"
)

const serviceName = "WealthAutomationHQ API"

// Runner runs one publishing cycle, selecting a topic when none is given.
type Runner interface {
	RunCycle(ctx context.Context, topic string) (*pipeline.CycleResult, error)
}

// Router holds the API dependencies.
type Router struct {
	service Runner
	cfg     *config.Config
	logger  logger.Logger
}

// NewRouter creates a new API router.
func NewRouter(service Runner, cfg *config.Config, log logger.Logger) *Router {
	return &Router{
		service: service,
		cfg:     cfg,
		logger:  log,
	}
}

// SetupRoutes builds the gin engine with all routes attached.
func (r *Router) SetupRoutes() *gin.Engine {
	if !r.cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/", r.index)
	router.GET("/run", r.run)
	router.GET("/run_social_post", r.runSocialPost)
	router.GET("/status", r.status)
	router.GET("/healthz", r.healthz)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return router
}
