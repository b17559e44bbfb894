package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/wealthautomationhq/autopost/internal/logger"
	"github.com/wealthautomationhq/autopost/internal/models"
)

// UsageRepository mirrors the offer usage audit trail into Postgres.
// The CSV log stays the source of truth; this repository exists so the
// trail can be queried without parsing flat files.
type UsageRepository struct {
	db     *sqlx.DB
	logger logger.Logger
}

// NewUsageRepository creates a new usage repository
func NewUsageRepository(db *sqlx.DB, log logger.Logger) *UsageRepository {
	return &UsageRepository{
		db:     db,
		logger: log,
	}
}

// Record inserts one usage entry.
func (r *UsageRepository) Record(ctx context.Context, rec models.UsageRecord) error {
	query := `
		INSERT INTO offer_usage (id, created_at, offer_id, offer_name, content_type, content_title)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.ExecContext(
		ctx, query,
		uuid.New(), rec.Timestamp, rec.OfferID, rec.OfferName, rec.ContentType, rec.ContentTitle,
	)
	if err != nil {
		return fmt.Errorf("failed to record offer usage: %w", err)
	}

	return nil
}

// CountByOffer returns how many times an offer has been used since the
// given time.
func (r *UsageRepository) CountByOffer(ctx context.Context, offerID string, since time.Time) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM offer_usage WHERE offer_id = $1 AND created_at >= $2`

	err := r.db.GetContext(ctx, &count, query, offerID, since)
	if err != nil {
		return 0, fmt.Errorf("failed to count offer usage: %w", err)
	}

	return count, nil
}

// RecentUsage retrieves the most recent usage entries, newest first.
func (r *UsageRepository) RecentUsage(ctx context.Context, limit int) ([]models.UsageRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	const maxLimit = 1000
	if limit > maxLimit {
		limit = maxLimit
	}

	records := []models.UsageRecord{}
	query := `
		SELECT created_at, offer_id, offer_name, content_type, content_title
		FROM offer_usage
		ORDER BY created_at DESC
		LIMIT $1
	`

	err := r.db.SelectContext(ctx, &records, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list offer usage: %w", err)
	}

	return records, nil
}

// UsageStats returns per-offer usage counts since the given time.
func (r *UsageRepository) UsageStats(ctx context.Context, since time.Time) (map[string]int, error) {
	query := `
		SELECT offer_id, COUNT(*) as count
		FROM offer_usage
		WHERE created_at >= $1
		GROUP BY offer_id
		ORDER BY count DESC
	`

	rows, err := r.db.QueryContext(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("failed to get usage stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[string]int)
	for rows.Next() {
		var offerID string
		var count int
		if scanErr := rows.Scan(&offerID, &count); scanErr != nil {
			return nil, fmt.Errorf("failed to scan row: %w", scanErr)
		}
		stats[offerID] = count
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, fmt.Errorf("row iteration error: %w", rowsErr)
	}

	return stats, nil
}
