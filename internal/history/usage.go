package history

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/wealthautomationhq/autopost/internal/logger"
	"github.com/wealthautomationhq/autopost/internal/models"
)

// usageHeader is the CSV header of the offer usage audit trail.
var usageHeader = []string{"Timestamp", "OfferID", "OfferName", "ContentType", "ContentTitle"}

// CSVUsageLog is an append-only offer usage audit trail in RFC4180 CSV,
// wire-compatible with the legacy usage log.
type CSVUsageLog struct {
	path   string
	mu     sync.Mutex
	logger logger.Logger
}

// NewCSVUsageLog creates the usage log, writing the header if the file
// does not exist yet. Failure to create the file is logged, not fatal;
// later appends will retry.
func NewCSVUsageLog(path string, log logger.Logger) *CSVUsageLog {
	l := &CSVUsageLog{path: path, logger: log}
	if err := l.ensureHeader(); err != nil {
		log.Error("Failed to initialize usage log",
			logger.String("path", path),
			logger.Error(err),
		)
	}
	return l
}

func (l *CSVUsageLog) ensureHeader() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, err := os.Stat(l.path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return err
	}

	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(usageHeader); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}

// Append records one offer usage. Titles are sanitized the way the legacy
// log did: double quotes dropped, commas folded to semicolons.
func (l *CSVUsageLog) Append(rec models.UsageRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	ts := rec.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open usage log: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	row := []string{
		ts.Format(time.RFC3339),
		rec.OfferID,
		rec.OfferName,
		rec.ContentType,
		sanitizeTitle(rec.ContentTitle),
	}
	if err := w.Write(row); err != nil {
		return fmt.Errorf("append usage record: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush usage record: %w", err)
	}

	l.logger.Info("Logged offer usage",
		logger.String("offer_id", rec.OfferID),
		logger.String("offer_name", rec.OfferName),
	)
	return nil
}

func sanitizeTitle(title string) string {
	title = strings.ReplaceAll(title, `"`, "")
	return strings.ReplaceAll(title, ",", ";")
}
