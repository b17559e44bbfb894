// Package webhook triggers downstream automation scenarios after a
// successful publish.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/wealthautomationhq/autopost/internal/logger"
)

// ErrNotConfigured is returned when no webhook URL is set.
var ErrNotConfigured = errors.New("make webhook URL not configured")

// PostEvent is the payload sent to Make.com when a post goes live.
type PostEvent struct {
	Event     string `json:"event"`
	PostID    int    `json:"post_id"`
	PostTitle string `json:"post_title"`
	PostURL   string `json:"post_url"`
	Timestamp string `json:"timestamp"`
}

// MakeClient triggers a Make.com scenario webhook.
type MakeClient struct {
	webhookURL string
	client     *http.Client
	logger     logger.Logger
	now        func() time.Time
}

// NewMakeClient creates a Make.com webhook client.
func NewMakeClient(webhookURL string, timeout time.Duration, log logger.Logger) *MakeClient {
	return &MakeClient{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: timeout},
		logger:     log,
		now:        time.Now,
	}
}

// Configured reports whether a webhook URL is set.
func (m *MakeClient) Configured() bool {
	return m.webhookURL != ""
}

// TriggerNewPost fires the new-post event. Callers only invoke this after
// a post was actually created.
func (m *MakeClient) TriggerNewPost(ctx context.Context, postID int, title, url string) error {
	if !m.Configured() {
		return ErrNotConfigured
	}

	payload, err := json.Marshal(PostEvent{
		Event:     "new_wordpress_post",
		PostID:    postID,
		PostTitle: title,
		PostURL:   url,
		Timestamp: m.now().Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, m.webhookURL, bytes.NewBuffer(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("make webhook error: %d %s: %s", resp.StatusCode, resp.Status, string(bodyBytes))
	}

	m.logger.Info("Triggered Make.com webhook",
		logger.Int("post_id", postID),
		logger.String("post_url", url),
	)

	return nil
}
