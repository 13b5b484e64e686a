package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

type window struct {
	count   int64
	expires time.Time
}

// MemoryStore is an in-process Counter. Expired windows are dropped by a
// background goroutine until Stop is called.
type MemoryStore struct {
	windows map[string]*window
	mu      sync.Mutex
	now     func() time.Time
	done    chan struct{}
	once    sync.Once
}

// NewMemoryStore creates a store that purges expired windows every cleanupInterval.
func NewMemoryStore(cleanupInterval time.Duration) *MemoryStore {
	store := &MemoryStore{
		windows: make(map[string]*window),
		now:     time.Now,
		done:    make(chan struct{}),
	}

	if cleanupInterval > 0 {
		go store.cleanupRoutine(cleanupInterval)
	}

	return store
}

// Incr implements Counter.
func (s *MemoryStore) Incr(_ context.Context, key string, ttl time.Duration) (int64, time.Duration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	w, ok := s.windows[key]
	if !ok || !now.Before(w.expires) {
		w = &window{expires: now.Add(ttl)}
		s.windows[key] = w
	}
	w.count++

	return w.count, w.expires.Sub(now), nil
}

// Stop ends the cleanup goroutine.
func (s *MemoryStore) Stop() {
	s.once.Do(func() { close(s.done) })
}

func (s *MemoryStore) cleanupRoutine(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.cleanup()
		case <-s.done:
			return
		}
	}
}

func (s *MemoryStore) cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for key, w := range s.windows {
		if !now.Before(w.expires) {
			delete(s.windows, key)
			removed++
		}
	}

	if removed > 0 {
		log.Debug().Int("removed", removed).Int("active", len(s.windows)).Msg("Rate limit windows cleaned up")
	}
}
