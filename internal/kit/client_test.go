package kit

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wealthautomationhq/autopost/internal/fallback"
	"github.com/wealthautomationhq/autopost/internal/logger"
)

func TestSendBroadcastSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/broadcasts", r.URL.Path)
		assert.Equal(t, "key-v4", r.Header.Get("X-Kit-Api-Key"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "New Post: AI Insights", body["subject"])

		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]any{
			"broadcast": map[string]any{"id": 9001},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, "key-v4", 5*time.Second, nil, logger.NewNopLogger())

	broadcast, err := client.SendBroadcast(context.Background(), "New Post: AI Insights", "<p>body</p>")
	require.NoError(t, err)
	assert.Equal(t, int64(9001), broadcast.ID)
}

func TestSendBroadcastMissingKeySavesFallback(t *testing.T) {
	dir := t.TempDir()
	fb := fallback.NewWriter(dir, logger.NewNopLogger())
	client := NewClient("https://api.kit.com/v4", "", 5*time.Second, fb, logger.NewNopLogger())

	_, err := client.SendBroadcast(context.Background(), "Subject", "<p>body</p>")
	require.ErrorIs(t, err, ErrNotConfigured)

	entries, readErr := os.ReadDir(dir)
	require.NoError(t, readErr)
	require.Len(t, entries, 1)
	assert.Contains(t, entries[0].Name(), "ck_fallback_")
}

func TestSendBroadcastAPIErrorSavesFallback(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer server.Close()

	dir := t.TempDir()
	fb := fallback.NewWriter(dir, logger.NewNopLogger())
	client := NewClient(server.URL, "key-v4", 5*time.Second, fb, logger.NewNopLogger())

	_, err := client.SendBroadcast(context.Background(), "Subject", "<p>body</p>")
	require.Error(t, err)

	entries, readErr := os.ReadDir(dir)
	require.NoError(t, readErr)
	assert.Len(t, entries, 1)
}

func TestSendBroadcastMissingIDSavesFallback(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"broadcast": map[string]any{}})
	}))
	defer server.Close()

	dir := t.TempDir()
	fb := fallback.NewWriter(dir, logger.NewNopLogger())
	client := NewClient(server.URL, "key-v4", 5*time.Second, fb, logger.NewNopLogger())

	_, err := client.SendBroadcast(context.Background(), "Subject", "<p>body</p>")
	require.Error(t, err)

	entries, readErr := os.ReadDir(dir)
	require.NoError(t, readErr)
	assert.Len(t, entries, 1)
}
