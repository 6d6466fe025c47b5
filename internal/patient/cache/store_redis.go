package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"patientpanel/internal/patient/models"
	"patientpanel/pkg/platform/sentinel"
)

const redisSnapshotKey = "patientpanel:patients:snapshot"

// redisSnapshot is the persisted wire form.
type redisSnapshot struct {
	Records   []models.Record `json:"records"`
	FetchedAt time.Time       `json:"fetchedAt"`
}

// RedisStore persists the snapshot in redis so a restarted panel process can
// serve the last known list immediately instead of flashing a loading state.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore builds a RedisStore from a redis URL. The snapshot expires
// after ttl; stale data is still servable, so the ttl only bounds how old a
// warm start may be.
func NewRedisStore(url string, ttl time.Duration) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	return &RedisStore{client: redis.NewClient(opts), ttl: ttl}, nil
}

func (s *RedisStore) Load(ctx context.Context) ([]models.Record, time.Time, error) {
	raw, err := s.client.Get(ctx, redisSnapshotKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, time.Time{}, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("%w: %w", sentinel.ErrUnavailable, err)
	}

	var snap redisSnapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		// A corrupt snapshot is the same as no snapshot.
		return nil, time.Time{}, sentinel.ErrNotFound
	}
	return snap.Records, snap.FetchedAt, nil
}

func (s *RedisStore) Save(ctx context.Context, records []models.Record, fetchedAt time.Time) error {
	raw, err := json.Marshal(redisSnapshot{Records: records, FetchedAt: fetchedAt})
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, redisSnapshotKey, raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("%w: %w", sentinel.ErrUnavailable, err)
	}
	return nil
}

// Close releases the redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
