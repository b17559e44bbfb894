package history

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/wealthautomationhq/autopost/internal/logger"
)

const defaultSheetsBaseURL = "https://sheets.googleapis.com/v4"

// SheetsSource is a read-only Source backed by a Google Sheets range,
// used as the remote fallback when the local history log is unavailable.
type SheetsSource struct {
	baseURL       string
	spreadsheetID string
	readRange     string
	apiKey        string
	client        *http.Client
	now           func() time.Time
	logger        logger.Logger
}

// NewSheetsSource creates a SheetsSource reading the given range, e.g.
// "Blog_Posts!A:B". Column A holds timestamps, column B the logged text.
func NewSheetsSource(spreadsheetID, readRange, apiKey string, timeout time.Duration, log logger.Logger) *SheetsSource {
	return &SheetsSource{
		baseURL:       defaultSheetsBaseURL,
		spreadsheetID: spreadsheetID,
		readRange:     readRange,
		apiKey:        apiKey,
		client:        &http.Client{Timeout: timeout},
		now:           time.Now,
		logger:        log,
	}
}

// WithBaseURL overrides the API base URL. Used by tests.
func (s *SheetsSource) WithBaseURL(base string) *SheetsSource {
	s.baseURL = base
	return s
}

type sheetsValuesResponse struct {
	Values [][]string `json:"values"`
}

// Recent fetches the sheet range and returns rows within the window,
// oldest first. The header row and rows with unparseable timestamps are
// skipped.
func (s *SheetsSource) Recent(ctx context.Context, window time.Duration) ([]Record, error) {
	if s.spreadsheetID == "" || s.apiKey == "" {
		return nil, fmt.Errorf("sheets fallback: %w", errNotConfigured)
	}

	endpoint := fmt.Sprintf("%s/spreadsheets/%s/values/%s?key=%s",
		s.baseURL, s.spreadsheetID, url.PathEscape(s.readRange), url.QueryEscape(s.apiKey))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create sheets request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch sheets values: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("sheets API error: %d %s", resp.StatusCode, resp.Status)
	}

	var values sheetsValuesResponse
	if err := json.NewDecoder(resp.Body).Decode(&values); err != nil {
		return nil, fmt.Errorf("decode sheets response: %w", err)
	}

	cutoff := s.now().Add(-window)

	var records []Record
	for i, row := range values.Values {
		if i == 0 || len(row) < 2 {
			// Header row, or a row without both columns.
			continue
		}
		ts, err := time.ParseInLocation(TimestampLayout, row[0], time.Local)
		if err != nil {
			continue
		}
		if !ts.Before(cutoff) {
			records = append(records, Record{Timestamp: ts, Text: row[1]})
		}
	}

	s.logger.Info("Loaded history records from sheets fallback",
		logger.String("range", s.readRange),
		logger.Int("record_count", len(records)),
	)
	return records, nil
}
