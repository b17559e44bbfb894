package webhook

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wealthautomationhq/autopost/internal/logger"
)

func TestTriggerNewPost(t *testing.T) {
	var event PostEvent
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&event))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	m := NewMakeClient(server.URL, time.Second, logger.NewNopLogger())
	m.now = func() time.Time {
		return time.Date(2026, 3, 15, 9, 30, 0, 0, time.UTC)
	}

	err := m.TriggerNewPost(context.Background(), 42, "Post Title", "https://example.com/?p=42")
	require.NoError(t, err)

	assert.Equal(t, "new_wordpress_post", event.Event)
	assert.Equal(t, 42, event.PostID)
	assert.Equal(t, "Post Title", event.PostTitle)
	assert.Equal(t, "https://example.com/?p=42", event.PostURL)
	assert.Equal(t, "2026-03-15T09:30:00Z", event.Timestamp)
}

func TestTriggerNewPostUnconfigured(t *testing.T) {
	m := NewMakeClient("", time.Second, logger.NewNopLogger())
	err := m.TriggerNewPost(context.Background(), 1, "t", "u")
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestTriggerNewPostServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	m := NewMakeClient(server.URL, time.Second, logger.NewNopLogger())
	err := m.TriggerNewPost(context.Background(), 1, "t", "u")
	assert.Error(t, err)
}
