package cache

import (
	"context"
	"sync"
	"time"

	"github.com/netpass/backend/internal/domain/shared"
)

// record tracks when a processed-notification key stops being remembered
type record struct {
	expiresAt time.Time
}

// MemoryDedupStore implements shared.IdempotencyStore with an in-process map.
// Suitable for a single-instance deployment, where one process receives every
// webhook delivery. A background sweeper evicts expired keys.
type MemoryDedupStore struct {
	mu        sync.RWMutex
	records   map[string]record
	stopChan  chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewMemoryDedupStore creates an in-process dedup store and starts its sweeper
func NewMemoryDedupStore() *MemoryDedupStore {
	s := &MemoryDedupStore{
		records:  make(map[string]record),
		stopChan: make(chan struct{}),
	}

	s.wg.Add(1)
	go s.sweepLoop()

	return s
}

// MarkProcessed remembers the key for ttl. Returns true when the key was
// newly marked, false when a live entry already covers it.
func (s *MemoryDedupStore) MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if r, ok := s.records[key]; ok && time.Now().Before(r.expiresAt) {
		return false, nil
	}

	s.records[key] = record{expiresAt: time.Now().Add(ttl)}
	return true, nil
}

// IsProcessed reports whether a live entry covers the key
func (s *MemoryDedupStore) IsProcessed(ctx context.Context, key string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.records[key]
	if !ok {
		return false, nil
	}
	return time.Now().Before(r.expiresAt), nil
}

// Close stops the sweeper. Safe to call more than once.
func (s *MemoryDedupStore) Close() error {
	s.closeOnce.Do(func() {
		close(s.stopChan)
		s.wg.Wait()
	})
	return nil
}

func (s *MemoryDedupStore) sweepLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.sweep()
		}
	}
}

func (s *MemoryDedupStore) sweep() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for key, r := range s.records {
		if now.After(r.expiresAt) {
			delete(s.records, key)
		}
	}
}

// Size returns the number of live and expired entries held by the store
func (s *MemoryDedupStore) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Ensure MemoryDedupStore implements IdempotencyStore
var _ shared.IdempotencyStore = (*MemoryDedupStore)(nil)
