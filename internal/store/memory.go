package store

import (
	"errors"
	"sync"
	"time"

	"github.com/i474232898/clima/internal/weather"
)

var (
	// ErrNotFound is returned when no journal entry has the requested id.
	ErrNotFound = errors.New("fetch not found")
)

// MemoryStore is a concurrency-safe in-memory fetch journal.
type MemoryStore struct {
	mu sync.RWMutex

	// oldest first
	entries []weather.FetchOutcome

	// retention configuration
	maxHistory int           // max number of entries kept
	maxAge     time.Duration // optional max age, by FinishedAt

	now func() time.Time
}

// NewMemoryStore creates a new MemoryStore with optional limits.
// If maxHistory is <= 0, it is treated as unlimited.
func NewMemoryStore(maxHistory int, maxAge time.Duration) *MemoryStore {
	return &MemoryStore{
		maxHistory: maxHistory,
		maxAge:     maxAge,
		now:        time.Now,
	}
}

// Append records a completed fetch and enforces retention.
func (s *MemoryStore) Append(outcome weather.FetchOutcome) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = append(s.entries, outcome)

	// Enforce retention by count.
	if s.maxHistory > 0 && len(s.entries) > s.maxHistory {
		over := len(s.entries) - s.maxHistory
		s.entries = append([]weather.FetchOutcome(nil), s.entries[over:]...)
	}

	// Enforce retention by age. Overlapping fetches can finish out of order,
	// so every entry is checked rather than stopping at the first fresh one.
	if s.maxAge > 0 {
		cutoff := s.now().Add(-s.maxAge)
		kept := s.entries[:0]
		for _, e := range s.entries {
			if !e.FinishedAt.Before(cutoff) {
				kept = append(kept, e)
			}
		}
		s.entries = kept
	}
}

// Recent returns up to limit entries, newest first. limit <= 0 returns all.
func (s *MemoryStore) Recent(limit int) []weather.FetchOutcome {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := len(s.entries)
	if limit > 0 && limit < n {
		n = limit
	}
	result := make([]weather.FetchOutcome, 0, n)
	for i := len(s.entries) - 1; i >= 0 && len(result) < n; i-- {
		result = append(result, s.entries[i])
	}
	return result
}

// Get returns the entry with the given fetch id.
func (s *MemoryStore) Get(id string) (weather.FetchOutcome, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := len(s.entries) - 1; i >= 0; i-- {
		if s.entries[i].ID == id {
			return s.entries[i], nil
		}
	}
	return weather.FetchOutcome{}, ErrNotFound
}
