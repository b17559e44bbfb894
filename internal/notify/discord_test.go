package notify

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

func TestNotifyFormatsMessage(t *testing.T) {
	var received map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	n := NewNotifier(server.URL, time.Second, logger.NewNopLogger())
	n.Notify(context.Background(), LevelSuccess, "New WordPress Post: Title - https://example.com/?p=1")

	assert.Equal(t, "**[SUCCESS]** New WordPress Post: Title - https://example.com/?p=1", received["content"])
}

func TestNotifyUnconfiguredIsNoop(t *testing.T) {
	n := NewNotifier("", time.Second, logger.NewNopLogger())
	// Must not panic or block.
	n.Notify(context.Background(), LevelInfo, "cycle started")
}

func TestNotifySwallowsServerErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	n := NewNotifier(server.URL, time.Second, logger.NewNopLogger())
	// Must not panic; errors are logged only.
	n.Notify(context.Background(), LevelError, "something failed")
}
