package history

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/wealthautomationhq/autopost/internal/logger"
)

// RedisStore is a Store backed by a Redis sorted set, scored by the record
// timestamp. It serves deployments where the pipeline runs without a
// persistent filesystem.
type RedisStore struct {
	client redis.UniversalClient
	key    string
	now    func() time.Time
	logger logger.Logger
}

// NewRedisStore creates a RedisStore writing to the given sorted-set key.
func NewRedisStore(client redis.UniversalClient, key string, log logger.Logger) *RedisStore {
	return &RedisStore{client: client, key: key, now: time.Now, logger: log}
}

// Append adds one record to the sorted set. The member embeds the
// nanosecond timestamp so identical texts on different days stay distinct.
func (s *RedisStore) Append(ctx context.Context, rec Record) error {
	ts := rec.Timestamp
	if ts.IsZero() {
		ts = s.now()
	}

	member := fmt.Sprintf("%d|%s", ts.UnixNano(), rec.Text)
	err := s.client.ZAdd(ctx, s.key, redis.Z{
		Score:  float64(ts.Unix()),
		Member: member,
	}).Err()
	if err != nil {
		return fmt.Errorf("append history record to redis: %w", err)
	}
	return nil
}

// Recent returns records within the window, oldest first.
func (s *RedisStore) Recent(ctx context.Context, window time.Duration) ([]Record, error) {
	cutoff := s.now().Add(-window)

	members, err := s.client.ZRangeByScore(ctx, s.key, &redis.ZRangeBy{
		Min: strconv.FormatInt(cutoff.Unix(), 10),
		Max: "+inf",
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("read history records from redis: %w", err)
	}

	records := make([]Record, 0, len(members))
	for _, member := range members {
		nanos, text, found := strings.Cut(member, "|")
		if !found {
			s.logger.Warn("Skipping malformed history member",
				logger.String("key", s.key),
				logger.String("member", member),
			)
			continue
		}
		n, err := strconv.ParseInt(nanos, 10, 64)
		if err != nil {
			s.logger.Warn("Invalid timestamp in history member",
				logger.String("key", s.key),
				logger.String("member", member),
			)
			continue
		}
		records = append(records, Record{Timestamp: time.Unix(0, n), Text: text})
	}
	return records, nil
}
