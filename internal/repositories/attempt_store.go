package repositories

import (
	"context"
	"sync"
	"time"

	"github.com/BradenHooton/showcase/internal/models"
)

// DefaultRetention is how long an idle attempt record is kept before it is
// treated as absent
const DefaultRetention = 24 * time.Hour

// MemoryAttemptStore keeps attempt records in process memory.
// A restart clears all history.
type MemoryAttemptStore struct {
	mu        sync.Mutex
	records   map[string]models.AttemptRecord
	retention time.Duration
	now       func() time.Time
}

// NewMemoryAttemptStore creates an empty in-memory store.
// A nil clock defaults to time.Now.
func NewMemoryAttemptStore(retention time.Duration, now func() time.Time) *MemoryAttemptStore {
	if retention <= 0 {
		retention = DefaultRetention
	}
	if now == nil {
		now = time.Now
	}
	return &MemoryAttemptStore{
		records:   make(map[string]models.AttemptRecord),
		retention: retention,
		now:       now,
	}
}

// Get returns the client's record, or a zero record when absent or stale.
// Stale records are evicted as a side effect.
func (s *MemoryAttemptStore) Get(ctx context.Context, clientID string) (models.AttemptRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getLocked(clientID), nil
}

// Set upserts a record
func (s *MemoryAttemptStore) Set(ctx context.Context, record models.AttemptRecord) error {
	s.mu.Lock()
	s.records[record.ClientID] = record
	s.mu.Unlock()
	return nil
}

// Delete removes the client's record
func (s *MemoryAttemptStore) Delete(ctx context.Context, clientID string) error {
	s.mu.Lock()
	delete(s.records, clientID)
	s.mu.Unlock()
	return nil
}

// Update applies fn to the client's current record and stores the result.
// The read-modify-write runs under the store lock, so concurrent failures for
// the same client are never lost.
func (s *MemoryAttemptStore) Update(ctx context.Context, clientID string, fn func(*models.AttemptRecord)) (models.AttemptRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record := s.getLocked(clientID)
	fn(&record)
	record.ClientID = clientID

	if record.Attempts <= 0 {
		delete(s.records, clientID)
		return models.AttemptRecord{ClientID: clientID}, nil
	}
	s.records[clientID] = record
	return record, nil
}

// Sweep evicts every record whose last attempt is older than the retention horizon
func (s *MemoryAttemptStore) Sweep(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-s.retention)
	var removed int64
	for clientID, record := range s.records {
		if record.LastAttemptAt.Before(cutoff) {
			delete(s.records, clientID)
			removed++
		}
	}
	return removed, nil
}

// List returns a snapshot of all live records
func (s *MemoryAttemptStore) List(ctx context.Context) ([]models.AttemptRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-s.retention)
	records := make([]models.AttemptRecord, 0, len(s.records))
	for _, record := range s.records {
		if record.LastAttemptAt.Before(cutoff) {
			continue
		}
		records = append(records, record)
	}
	return records, nil
}

// Ping always succeeds for the in-memory store
func (s *MemoryAttemptStore) Ping(ctx context.Context) error {
	return nil
}

func (s *MemoryAttemptStore) getLocked(clientID string) models.AttemptRecord {
	record, ok := s.records[clientID]
	if !ok {
		return models.AttemptRecord{ClientID: clientID}
	}
	if s.now().Sub(record.LastAttemptAt) > s.retention {
		delete(s.records, clientID)
		return models.AttemptRecord{ClientID: clientID}
	}
	return record
}
