package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

type memoryEntry struct {
	payload   []byte
	expiresAt time.Time
}

func (e memoryEntry) expired(now time.Time) bool {
	return now.After(e.expiresAt)
}

// MemoryStore is an in-process Store backed by sync.Map with periodic
// sweeping of expired entries.
type MemoryStore struct {
	entries sync.Map

	sweepEvery time.Duration
	logger     *zap.Logger

	hits   int64
	misses int64

	stopCh  chan struct{}
	stopped int32
}

// MemoryOption configures a MemoryStore.
type MemoryOption func(*MemoryStore)

// WithMemoryLogger sets the logger used by the sweep goroutine.
func WithMemoryLogger(logger *zap.Logger) MemoryOption {
	return func(s *MemoryStore) {
		s.logger = logger
	}
}

// WithSweepInterval overrides how often expired entries are collected.
func WithSweepInterval(d time.Duration) MemoryOption {
	return func(s *MemoryStore) {
		if d > 0 {
			s.sweepEvery = d
		}
	}
}

// NewMemoryStore creates a MemoryStore and starts its sweep goroutine.
func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{
		sweepEvery: time.Minute,
		logger:     zap.NewNop(),
		stopCh:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	go s.sweepLoop()
	return s
}

func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, bool) {
	v, ok := s.entries.Load(key)
	if !ok {
		atomic.AddInt64(&s.misses, 1)
		return nil, false
	}
	entry := v.(memoryEntry)
	if entry.expired(time.Now()) {
		s.entries.Delete(key)
		atomic.AddInt64(&s.misses, 1)
		return nil, false
	}
	atomic.AddInt64(&s.hits, 1)
	return entry.payload, true
}

func (s *MemoryStore) Set(_ context.Context, key string, payload []byte, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	s.entries.Store(key, memoryEntry{
		payload:   payload,
		expiresAt: time.Now().Add(ttl),
	})
}

func (s *MemoryStore) Delete(_ context.Context, keys ...string) {
	for _, key := range keys {
		s.entries.Delete(key)
	}
}

func (s *MemoryStore) FlushAll(_ context.Context) {
	s.entries.Range(func(key, _ interface{}) bool {
		s.entries.Delete(key)
		return true
	})
}

// GetStats returns a snapshot of the hit/miss counters and entry count.
func (s *MemoryStore) GetStats() Stats {
	size := 0
	s.entries.Range(func(_, _ interface{}) bool {
		size++
		return true
	})
	return Stats{
		Hits:   atomic.LoadInt64(&s.hits),
		Misses: atomic.LoadInt64(&s.misses),
		Size:   size,
	}
}

// Close stops the sweep goroutine. Safe to call multiple times.
func (s *MemoryStore) Close() error {
	if atomic.CompareAndSwapInt32(&s.stopped, 0, 1) {
		close(s.stopCh)
	}
	return nil
}

func (s *MemoryStore) sweepLoop() {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("cache sweep goroutine panicked", zap.Any("panic", r))
		}
	}()

	ticker := time.NewTicker(s.sweepEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.sweep()
		case <-s.stopCh:
			return
		}
	}
}

func (s *MemoryStore) sweep() {
	now := time.Now()
	removed := 0
	s.entries.Range(func(key, value interface{}) bool {
		if value.(memoryEntry).expired(now) {
			s.entries.Delete(key)
			removed++
		}
		return true
	})
	if removed > 0 {
		s.logger.Debug("cache sweep removed expired entries", zap.Int("removed", removed))
	}
}
