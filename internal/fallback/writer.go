// Package fallback persists content locally when an outbound publish or
// broadcast fails, so nothing a cycle produced is ever lost.
package fallback

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/wealthautomationhq/autopost/internal/logger"
)

const (
	fileTimestampLayout = "20060102_150405"
	maxSafeTitleLen     = 50
)

// Writer saves failed content as HTML files under a single directory.
type Writer struct {
	dir    string
	logger logger.Logger
	now    func() time.Time
}

// NewWriter creates a fallback writer rooted at dir.
func NewWriter(dir string, log logger.Logger) *Writer {
	return &Writer{
		dir:    dir,
		logger: log,
		now:    time.Now,
	}
}

// Save writes the content to <prefix>_<timestamp>_<safe-title>.html and
// returns the file path.
func (w *Writer) Save(prefix, title, content string) (string, error) {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", fmt.Errorf("create fallback dir: %w", err)
	}

	name := fmt.Sprintf("%s_%s_%s.html", prefix, w.now().Format(fileTimestampLayout), safeTitle(title))
	path := filepath.Join(w.dir, name)

	body := fmt.Sprintf("<h1>%s</h1>\n%s", title, content)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		return "", fmt.Errorf("write fallback file: %w", err)
	}

	w.logger.Warn("Saved fallback content",
		logger.String("path", path),
		logger.String("title", title))

	return path, nil
}

// safeTitle keeps letters and digits, replaces everything else with an
// underscore, and truncates to a filesystem-friendly length.
func safeTitle(title string) string {
	out := make([]rune, 0, len(title))
	for _, r := range title {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			out = append(out, r)
		} else {
			out = append(out, '_')
		}
	}
	if len(out) > maxSafeTitleLen {
		out = out[:maxSafeTitleLen]
	}
	return string(out)
}
