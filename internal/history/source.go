package history

import (
	"context"
	"errors"
	"time"

	"github.com/wealthautomationhq/autopost/internal/logger"
)

var errNotConfigured = errors.New("not configured")

// FallbackSource reads from a primary store and degrades to a secondary
// read-only source when the primary is unavailable or empty. Appends go to
// the primary only; the fallback is never written.
type FallbackSource struct {
	primary  Store
	fallback Source
	logger   logger.Logger
}

// NewFallbackSource wraps primary with an optional read-only fallback.
// A nil fallback disables the degraded path.
func NewFallbackSource(primary Store, fallback Source, log logger.Logger) *FallbackSource {
	return &FallbackSource{primary: primary, fallback: fallback, logger: log}
}

// Append writes to the primary store.
func (s *FallbackSource) Append(ctx context.Context, rec Record) error {
	return s.primary.Append(ctx, rec)
}

// Recent reads from the primary; when the primary errors or holds no
// records, the fallback source is consulted. A fallback failure surfaces
// as an empty result plus a diagnostic, never an error, so duplicate
// checks degrade to "no history" rather than blocking the cycle.
func (s *FallbackSource) Recent(ctx context.Context, window time.Duration) ([]Record, error) {
	records, err := s.primary.Recent(ctx, window)
	if err == nil && len(records) > 0 {
		return records, nil
	}
	if err != nil {
		s.logger.Warn("Primary history source unavailable", logger.Error(err))
	}

	if s.fallback == nil {
		return records, nil
	}

	fallbackRecords, fbErr := s.fallback.Recent(ctx, window)
	if fbErr != nil {
		s.logger.Warn("History fallback source unavailable", logger.Error(fbErr))
		return nil, nil
	}
	return fallbackRecords, nil
}
