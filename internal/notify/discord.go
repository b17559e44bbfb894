// Package notify sends operational notifications to Discord. Delivery is
// best effort: failures are logged and never propagated, so a dead
// webhook can not break a publishing cycle.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/wealthautomationhq/autopost/internal/logger"
)

// Level is the severity prefix shown in the Discord message.
type Level string

const (
	LevelInfo    Level = "INFO"
	LevelSuccess Level = "SUCCESS"
	LevelWarning Level = "WARNING"
	LevelError   Level = "ERROR"
)

// Notifier posts messages to a Discord webhook.
type Notifier struct {
	webhookURL string
	client     *http.Client
	logger     logger.Logger
}

// NewNotifier creates a Discord notifier. An empty webhookURL turns
// every Notify call into a logged no-op.
func NewNotifier(webhookURL string, timeout time.Duration, log logger.Logger) *Notifier {
	return &Notifier{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: timeout},
		logger:     log,
	}
}

// Notify sends one message. Errors are swallowed after logging.
func (n *Notifier) Notify(ctx context.Context, level Level, message string) {
	if n.webhookURL == "" {
		n.logger.Debug("Discord webhook URL not configured, skipping notification",
			logger.String("message", message))
		return
	}

	payload, err := json.Marshal(map[string]string{
		"content": fmt.Sprintf("**[%s]** %s", level, message),
	})
	if err != nil {
		n.logger.Error("Failed to marshal Discord payload", logger.Error(err))
		return
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewBuffer(payload))
	if err != nil {
		n.logger.Error("Failed to create Discord request", logger.Error(err))
		return
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(httpReq)
	if err != nil {
		n.logger.Error("Error sending Discord notification",
			logger.String("message", message),
			logger.Error(err),
		)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		bodyBytes, _ := io.ReadAll(resp.Body)
		n.logger.Error("Discord webhook returned error",
			logger.Int("status_code", resp.StatusCode),
			logger.String("response_body", string(bodyBytes)),
		)
		return
	}

	n.logger.Debug("Sent Discord notification",
		logger.String("level", string(level)),
		logger.String("message", message),
	)
}
