// Package wordpress publishes posts through the WordPress REST API using
// JWT authentication.
package wordpress

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/wealthautomationhq/autopost/internal/fallback"
	"github.com/wealthautomationhq/autopost/internal/logger"
)

// browserUserAgent is sent on every request. Some WordPress hosts block
// requests with default library user agents.
const browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/108.0.0.0 Safari/537.36"

const (
	postsPath      = "/wp/v2/posts"
	tokenPath      = "/jwt-auth/v1/token"
	fallbackPrefix = "wp_fallback"
)

// Post is a successfully created WordPress post.
type Post struct {
	ID  int    `json:"id"`
	URL string `json:"link"`
}

// Client posts to WordPress. A JWT token is fetched lazily and cached
// until a request fails authentication.
type Client struct {
	endpoint    string
	user        string
	appPassword string
	client      *http.Client
	fallback    *fallback.Writer
	logger      logger.Logger

	mu    sync.Mutex
	token string
}

// NewClient creates a WordPress client. endpoint is the full posts URL,
// e.g. "https://site.com/wp-json/wp/v2/posts".
func NewClient(endpoint, user, appPassword string, timeout time.Duration, fb *fallback.Writer, log logger.Logger) (*Client, error) {
	if endpoint == "" {
		return nil, errors.New("wordpress endpoint is required")
	}

	return &Client{
		endpoint:    endpoint,
		user:        user,
		appPassword: appPassword,
		client:      &http.Client{Timeout: timeout},
		fallback:    fb,
		logger:      log,
	}, nil
}

// tokenEndpoint derives the JWT token URL from the posts endpoint.
func (c *Client) tokenEndpoint() string {
	return strings.Replace(c.endpoint, postsPath, "", 1) + tokenPath
}

// fetchToken obtains a fresh JWT token. Application password spaces are
// stripped; WordPress displays them grouped but the JWT plugin expects
// the raw secret.
func (c *Client) fetchToken(ctx context.Context) (string, error) {
	if c.user == "" || c.appPassword == "" {
		return "", errors.New("missing WordPress credentials for JWT token generation")
	}

	payload, err := json.Marshal(map[string]string{
		"username": c.user,
		"password": strings.ReplaceAll(c.appPassword, " ", ""),
	})
	if err != nil {
		return "", fmt.Errorf("marshal token request: %w", err)
	}

	endpoint := c.tokenEndpoint()
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewBuffer(payload))
	if err != nil {
		return "", fmt.Errorf("create token request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("User-Agent", browserUserAgent)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("fetch JWT token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("JWT token request failed: %d %s: %s", resp.StatusCode, resp.Status, truncate(string(bodyBytes)))
	}

	var tokenResp struct {
		Token string `json:"token"`
	}
	if decodeErr := json.NewDecoder(resp.Body).Decode(&tokenResp); decodeErr != nil {
		return "", fmt.Errorf("decode token response: %w", decodeErr)
	}
	if tokenResp.Token == "" {
		return "", errors.New("token response missing token")
	}

	c.logger.Info("Obtained JWT token", logger.String("endpoint", endpoint))
	return tokenResp.Token, nil
}

// ensureToken returns the cached token, fetching one if needed.
func (c *Client) ensureToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" {
		return c.token, nil
	}

	token, err := c.fetchToken(ctx)
	if err != nil {
		return "", err
	}
	c.token = token
	return token, nil
}

// invalidateToken drops the cached token so the next call refreshes it.
func (c *Client) invalidateToken() {
	c.mu.Lock()
	c.token = ""
	c.mu.Unlock()
}

// CreatePost publishes a post. On any failure the content is saved as a
// local fallback file before the error is returned.
func (c *Client) CreatePost(ctx context.Context, title, content string) (*Post, error) {
	methodLogger := c.logger.With(
		logger.String("method", "CreatePost"),
	)

	token, err := c.ensureToken(ctx)
	if err != nil {
		methodLogger.Error("Failed to get JWT token, cannot create post",
			logger.String("title", title),
			logger.Error(err),
		)
		c.saveFallback(title, content)
		return nil, fmt.Errorf("jwt auth: %w", err)
	}

	payload, err := json.Marshal(map[string]string{
		"title":   title,
		"content": content,
		"status":  "publish",
	})
	if err != nil {
		return nil, fmt.Errorf("marshal post payload: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewBuffer(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+token)
	httpReq.Header.Set("User-Agent", browserUserAgent)

	requestStart := time.Now()
	resp, err := c.client.Do(httpReq)
	requestDuration := time.Since(requestStart)

	if err != nil {
		methodLogger.Error("HTTP request failed",
			logger.String("endpoint", c.endpoint),
			logger.String("title", title),
			logger.Duration("request_duration", requestDuration),
			logger.Error(err),
		)
		c.saveFallback(title, content)
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		c.invalidateToken()
	}

	if resp.StatusCode >= http.StatusBadRequest {
		bodyBytes, _ := io.ReadAll(resp.Body)
		methodLogger.Error("WordPress API error",
			logger.String("endpoint", c.endpoint),
			logger.String("title", title),
			logger.Int("status_code", resp.StatusCode),
			logger.String("response_body", truncate(string(bodyBytes))),
			logger.Duration("request_duration", requestDuration),
		)
		c.saveFallback(title, content)
		return nil, fmt.Errorf("wordpress API error: %d %s", resp.StatusCode, resp.Status)
	}

	var post Post
	if decodeErr := json.NewDecoder(resp.Body).Decode(&post); decodeErr != nil {
		methodLogger.Error("Failed to decode WordPress response",
			logger.String("title", title),
			logger.Error(decodeErr),
		)
		c.saveFallback(title, content)
		return nil, fmt.Errorf("decode response: %w", decodeErr)
	}

	if post.ID == 0 || post.URL == "" {
		methodLogger.Warn("Post created but response missing ID or URL",
			logger.String("title", title),
			logger.Int("post_id", post.ID),
		)
		c.saveFallback(title, content)
		return nil, errors.New("wordpress response missing post ID or URL")
	}

	methodLogger.Info("Successfully created post",
		logger.String("title", title),
		logger.Int("post_id", post.ID),
		logger.String("post_url", post.URL),
		logger.Duration("request_duration", requestDuration),
	)

	return &post, nil
}

func (c *Client) saveFallback(title, content string) {
	if c.fallback == nil {
		return
	}
	if _, err := c.fallback.Save(fallbackPrefix, title, content); err != nil {
		c.logger.Error("Failed to save fallback file",
			logger.String("title", title),
			logger.Error(err),
		)
	}
}

func truncate(s string) string {
	const maxLen = 1000
	if len(s) > maxLen {
		return s[:maxLen] + "..."
	}
	return s
}
