package api

import (
	"errors"
	"net/http"
	"os"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/wealthautomationhq/autopost/internal/logger"
	"github.com/wealthautomationhq/autopost/internal/pipeline"
)

// verificationTailLines is how many trailing verification log lines the
// status endpoint returns.
const verificationTailLines = 5

// index handles GET /
func (r *Router) index(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "online",
		"service": serviceName,
		"endpoints": []string{
			"/run - Trigger publishing cycle",
			"/run_social_post - Trigger social media post (not implemented yet)",
			"/status - Check system status",
		},
	})
}

// run handles GET /run. An optional topic query parameter overrides
// topic selection.
func (r *Router) run(c *gin.Context) {
	topic := c.Query("topic")
	r.logger.Info("Endpoint /run triggered", logger.String("topic", topic))

	result, err := r.service.RunCycle(c.Request.Context(), topic)
	if err != nil {
		if errors.Is(err, pipeline.ErrRateLimited) {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"status":  "error",
				"message": "cycle rate limit exceeded, try again later",
			})
			return
		}
		r.logger.Error("Cycle failed", logger.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"status":  "error",
			"message": err.Error(),
		})
		return
	}

	switch result.Status() {
	case pipeline.StatusSuccess:
		c.JSON(http.StatusOK, gin.H{
			"status":  "success",
			"message": "Publishing cycle completed successfully",
			"result":  result,
		})
	case pipeline.StatusPartial:
		c.JSON(http.StatusOK, gin.H{
			"status":  "warning",
			"message": "Publishing cycle completed with warnings",
			"result":  result,
		})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{
			"status":  "error",
			"message": "Publishing cycle failed",
			"result":  result,
		})
	}
}

// runSocialPost handles GET /run_social_post. Social posting is not
// implemented; the endpoint exists for scheduler compatibility.
func (r *Router) runSocialPost(c *gin.Context) {
	r.logger.Info("Endpoint /run_social_post triggered")
	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"message": "Social post functionality not implemented yet",
	})
}

// status handles GET /status: log-file presence, credential presence and
// the tail of the verification log.
func (r *Router) status(c *gin.Context) {
	missing := r.cfg.MissingCredentials()
	missingSet := make(map[string]bool, len(missing))
	for _, name := range missing {
		missingSet[name] = true
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "online",
		"service": serviceName,
		"logs": gin.H{
			"blog_log":  fileExists(r.cfg.BlogHistoryPath()),
			"cta_log":   fileExists(r.cfg.CTAHistoryPath()),
			"usage_log": fileExists(r.cfg.UsageLogPath()),
		},
		"last_verification": r.verificationTail(),
		"env_vars_set": gin.H{
			"OPENAI_API_KEY":               !missingSet["OPENAI_API_KEY"],
			"WORDPRESS_USER":               !missingSet["WORDPRESS_USER"],
			"WORDPRESS_APP_PASSWORD":       !missingSet["WORDPRESS_APP_PASSWORD"],
			"CONVERTKIT_API_KEY_V4":        !missingSet["CONVERTKIT_API_KEY_V4"],
			"MAKE_WEBHOOK_URL":             r.cfg.Make.WebhookURL != "",
			"GOOGLE_SHEETS_UTM_TRACKER_ID": r.cfg.Sheets.SpreadsheetID != "",
			"DISCORD_WEBHOOK_URL":          r.cfg.Discord.WebhookURL != "",
		},
	})
}

// healthz handles GET /healthz
func (r *Router) healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "autopost",
	})
}

// verificationTail returns the last lines of the blog history log, the
// closest thing to the original verification trail.
func (r *Router) verificationTail() string {
	data, err := os.ReadFile(r.cfg.BlogHistoryPath())
	if err != nil {
		return "No verification log found"
	}

	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(lines) == 1 && lines[0] == "" {
		return "Log file is empty"
	}
	if len(lines) > verificationTailLines {
		lines = lines[len(lines)-verificationTailLines:]
	}
	return strings.Join(lines, "\n")
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
