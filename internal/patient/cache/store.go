package cache

import (
	"context"
	"sync"
	"time"

	"patientpanel/internal/patient/models"
	"patientpanel/pkg/platform/sentinel"
)

// Store persists the last fetched patient snapshot so a fresh controller can
// serve data before its first fetch completes. The controller's own memory
// stays authoritative; the store is write-through.
type Store interface {
	Load(ctx context.Context) ([]models.Record, time.Time, error)
	Save(ctx context.Context, records []models.Record, fetchedAt time.Time) error
}

// MemoryStore keeps the snapshot in process memory.
type MemoryStore struct {
	mu        sync.RWMutex
	records   []models.Record
	fetchedAt time.Time
	saved     bool
}

// NewMemoryStore creates an empty in-memory snapshot store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Load(ctx context.Context) ([]models.Record, time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.saved {
		return nil, time.Time{}, sentinel.ErrNotFound
	}
	out := make([]models.Record, len(s.records))
	copy(out, s.records)
	return out, s.fetchedAt, nil
}

func (s *MemoryStore) Save(ctx context.Context, records []models.Record, fetchedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = make([]models.Record, len(records))
	copy(s.records, records)
	s.fetchedAt = fetchedAt
	s.saved = true
	return nil
}
