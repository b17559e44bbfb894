package history

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wealthautomationhq/autopost/internal/logger"
)

func TestFileStore_AppendAndRecent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blog_post_log.txt")
	store := NewFileStore(path, logger.NewNopLogger())

	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.Local)
	store.now = func() time.Time { return now }

	ctx := context.Background()
	require.NoError(t, store.Append(ctx, Record{Timestamp: now.AddDate(0, 0, -10), Text: "Old Topic"}))
	require.NoError(t, store.Append(ctx, Record{Timestamp: now.AddDate(0, 0, -2), Text: "Recent Topic"}))

	records, err := store.Recent(ctx, 7*24*time.Hour)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Recent Topic", records[0].Text)
}

func TestFileStore_LegacyLineFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.txt")
	content := "[2026-08-28 09:30:00] Advanced AI Monetization Techniques - Key Strategies (2026-08-28 09:30)\n" +
		"not a log line\n" +
		"[bad timestamp] Something\n" +
		"\n" +
		"[2026-08-27 10:00:00] Passive Income Strategies\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	store := NewFileStore(path, logger.NewNopLogger())
	store.now = func() time.Time {
		return time.Date(2026, 8, 29, 12, 0, 0, 0, time.Local)
	}

	records, err := store.Recent(context.Background(), 7*24*time.Hour)
	require.NoError(t, err)
	require.Len(t, records, 2, "unparseable lines are skipped")
	assert.Contains(t, records[0].Text, "Advanced AI Monetization")
	assert.Equal(t, "Passive Income Strategies", records[1].Text)
}

func TestFileStore_MissingFile(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "absent.txt"), logger.NewNopLogger())

	records, err := store.Recent(context.Background(), time.Hour)
	require.NoError(t, err)
	assert.Empty(t, records)
}
