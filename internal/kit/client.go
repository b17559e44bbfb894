// Package kit sends email broadcasts through the Kit (ConvertKit) v4 API.
package kit

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/wealthautomationhq/autopost/internal/fallback"
	"github.com/wealthautomationhq/autopost/internal/logger"
)

const fallbackPrefix = "ck_fallback"

// ErrNotConfigured is returned when no API key is available.
var ErrNotConfigured = errors.New("kit API key not configured")

// Broadcast is a created broadcast. The v4 API sends broadcasts
// immediately on creation.
type Broadcast struct {
	ID int64 `json:"id"`
}

type Client struct {
	baseURL  string
	apiKey   string
	client   *http.Client
	fallback *fallback.Writer
	logger   logger.Logger
}

// NewClient creates a Kit client. baseURL is the API root, e.g.
// "https://api.kit.com/v4".
func NewClient(baseURL, apiKey string, timeout time.Duration, fb *fallback.Writer, log logger.Logger) *Client {
	return &Client{
		baseURL:  baseURL,
		apiKey:   apiKey,
		client:   &http.Client{Timeout: timeout},
		fallback: fb,
		logger:   log,
	}
}

// SendBroadcast creates and sends a broadcast. On failure the email body
// is saved as a local fallback file before the error is returned.
func (c *Client) SendBroadcast(ctx context.Context, subject, content string) (*Broadcast, error) {
	methodLogger := c.logger.With(
		logger.String("method", "SendBroadcast"),
	)

	if c.apiKey == "" {
		methodLogger.Error("Cannot create broadcast, API key missing",
			logger.String("subject", subject))
		c.saveFallback(subject, content)
		return nil, ErrNotConfigured
	}

	payload, err := json.Marshal(map[string]string{
		"subject": subject,
		"content": content,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal broadcast payload: %w", err)
	}

	endpoint := c.baseURL + "/broadcasts"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewBuffer(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Kit-Api-Key", c.apiKey)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		methodLogger.Error("HTTP request failed",
			logger.String("endpoint", endpoint),
			logger.String("subject", subject),
			logger.Error(err),
		)
		c.saveFallback(subject, content)
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		bodyBytes, _ := io.ReadAll(resp.Body)
		methodLogger.Error("Kit API error",
			logger.String("endpoint", endpoint),
			logger.String("subject", subject),
			logger.Int("status_code", resp.StatusCode),
			logger.String("response_body", truncate(string(bodyBytes))),
		)
		c.saveFallback(subject, content)
		return nil, fmt.Errorf("kit API error: %d %s", resp.StatusCode, resp.Status)
	}

	var broadcastResp struct {
		Broadcast Broadcast `json:"broadcast"`
	}
	if decodeErr := json.NewDecoder(resp.Body).Decode(&broadcastResp); decodeErr != nil {
		methodLogger.Error("Failed to decode Kit response",
			logger.String("subject", subject),
			logger.Error(decodeErr),
		)
		c.saveFallback(subject, content)
		return nil, fmt.Errorf("decode response: %w", decodeErr)
	}

	if broadcastResp.Broadcast.ID == 0 {
		methodLogger.Error("Broadcast response missing ID",
			logger.String("subject", subject))
		c.saveFallback(subject, content)
		return nil, errors.New("kit response missing broadcast ID")
	}

	methodLogger.Info("Successfully created and sent broadcast",
		logger.String("subject", subject),
		logger.Int64("broadcast_id", broadcastResp.Broadcast.ID),
	)

	return &broadcastResp.Broadcast, nil
}

func (c *Client) saveFallback(subject, content string) {
	if c.fallback == nil {
		return
	}
	if _, err := c.fallback.Save(fallbackPrefix, subject, content); err != nil {
		c.logger.Error("Failed to save fallback file",
			logger.String("subject", subject),
			logger.Error(err),
		)
	}
}

func truncate(s string) string {
	const maxLen = 500
	if len(s) > maxLen {
		return s[:maxLen] + "..."
	}
	return s
}
