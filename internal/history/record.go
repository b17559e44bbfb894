package history

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"regexp"
	"sync"
	"time"

	"github.com/wealthautomationhq/autopost/internal/logger"
)

// TimestampLayout is the wire format of log-line timestamps, kept
// compatible with the legacy append-only logs.
const TimestampLayout = "2006-01-02 15:04:05"

// Record is one append-only history entry: a timestamp plus the logged
// text (a blog title or an offer name).
type Record struct {
	Timestamp time.Time
	Text      string
}

// Source provides read access to historical records.
type Source interface {
	// Recent returns records no older than the window, oldest first.
	Recent(ctx context.Context, window time.Duration) ([]Record, error)
}

// Store is an ordered record store: appended records are never mutated.
type Store interface {
	Source

	// Append adds one record to the store.
	Append(ctx context.Context, rec Record) error
}

// logLine matches the legacy "[YYYY-MM-DD HH:MM:SS] text" format.
var logLine = regexp.MustCompile(`^\[(.*?)\] (.*)$`)

// FileStore is a Store backed by a newline-delimited log file. Appends are
// serialized per process; cross-process appends are not coordinated.
type FileStore struct {
	path   string
	mu     sync.Mutex
	now    func() time.Time
	logger logger.Logger
}

// NewFileStore creates a FileStore over the given log file. The file is
// created on first append.
func NewFileStore(path string, log logger.Logger) *FileStore {
	return &FileStore{path: path, now: time.Now, logger: log}
}

// Append writes one "[timestamp] text" line to the log file.
func (s *FileStore) Append(_ context.Context, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ts := rec.Timestamp
	if ts.IsZero() {
		ts = s.now()
	}

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open history log: %w", err)
	}
	defer f.Close()

	if _, err := fmt.Fprintf(f, "[%s] %s\n", ts.Format(TimestampLayout), rec.Text); err != nil {
		return fmt.Errorf("append history record: %w", err)
	}
	return nil
}

// Recent reads the log file and returns records within the window, in file
// order (oldest first). Lines that do not parse are skipped with a
// diagnostic; a missing file yields an empty result, not an error.
func (s *FileStore) Recent(_ context.Context, window time.Duration) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open history log: %w", err)
	}
	defer f.Close()

	cutoff := s.now().Add(-window)

	var records []Record
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}

		m := logLine.FindStringSubmatch(line)
		if m == nil {
			s.logger.Warn("Skipping unparseable history line",
				logger.String("path", s.path),
				logger.String("line", line),
			)
			continue
		}

		ts, err := time.ParseInLocation(TimestampLayout, m[1], time.Local)
		if err != nil {
			s.logger.Warn("Invalid timestamp in history line",
				logger.String("path", s.path),
				logger.String("timestamp", m[1]),
			)
			continue
		}

		if !ts.Before(cutoff) {
			records = append(records, Record{Timestamp: ts, Text: m[2]})
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read history log: %w", err)
	}

	return records, nil
}
