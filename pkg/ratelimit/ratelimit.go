// Package ratelimit provides fixed-window admission stores (in-memory and
// Redis backed) and a token-bucket flood guard keyed by client IP.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Config describes a fixed window: at most Limit admissions per key per Window
type Config struct {
	Limit  int
	Window time.Duration
	// CleanupInterval is how often expired in-memory entries are evicted
	CleanupInterval time.Duration
}

// ContactConfig is the contact form policy: 5 submissions per 15 minutes
func ContactConfig() Config {
	return Config{
		Limit:           5,
		Window:          15 * time.Minute,
		CleanupInterval: 5 * time.Minute,
	}
}

// Decision is the outcome of one admission attempt
type Decision struct {
	Allowed   bool
	Count     int
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// Store admits or rejects a request for key at now. Implementations must
// increment and compare atomically per key.
type Store interface {
	Admit(ctx context.Context, key string, now time.Time) (Decision, error)
}

func decide(count, limit int, resetAt time.Time) Decision {
	remaining := limit - count
	if remaining < 0 {
		remaining = 0
	}
	return Decision{
		Allowed:   count <= limit,
		Count:     count,
		Limit:     limit,
		Remaining: remaining,
		ResetAt:   resetAt,
	}
}

// memoryEntry tracks the window of a single key
type memoryEntry struct {
	mu      sync.Mutex
	count   int
	start   time.Time
	evicted bool
}

// MemoryStore is a single-process Store backed by a sync.Map
type MemoryStore struct {
	config   Config
	entries  sync.Map
	done     chan struct{}
	stopOnce sync.Once
}

// NewMemoryStore creates the store and starts its cleanup goroutine
func NewMemoryStore(cfg Config) *MemoryStore {
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = time.Minute
	}
	s := &MemoryStore{
		config: cfg,
		done:   make(chan struct{}),
	}
	go s.cleanup()
	return s
}

// Admit counts one request for key. The window restarts at now once
// now >= window start + Window.
func (s *MemoryStore) Admit(_ context.Context, key string, now time.Time) (Decision, error) {
	for {
		v, _ := s.entries.LoadOrStore(key, &memoryEntry{})
		e := v.(*memoryEntry)

		e.mu.Lock()
		if e.evicted {
			// lost a race with cleanup; the key has a fresh entry now
			e.mu.Unlock()
			continue
		}
		if e.count == 0 || !now.Before(e.start.Add(s.config.Window)) {
			e.count = 0
			e.start = now
		}
		e.count++
		d := decide(e.count, s.config.Limit, e.start.Add(s.config.Window))
		e.mu.Unlock()
		return d, nil
	}
}

// Len returns the number of tracked keys
func (s *MemoryStore) Len() int {
	n := 0
	s.entries.Range(func(_, _ interface{}) bool {
		n++
		return true
	})
	return n
}

// Stop stops the cleanup goroutine
func (s *MemoryStore) Stop() {
	s.stopOnce.Do(func() { close(s.done) })
}

func (s *MemoryStore) cleanup() {
	ticker := time.NewTicker(s.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case now := <-ticker.C:
			s.evictExpired(now)
		}
	}
}

// evictExpired removes entries whose window has elapsed
func (s *MemoryStore) evictExpired(now time.Time) {
	s.entries.Range(func(key, value interface{}) bool {
		e := value.(*memoryEntry)
		e.mu.Lock()
		if !now.Before(e.start.Add(s.config.Window)) {
			e.evicted = true
			s.entries.Delete(key)
		}
		e.mu.Unlock()
		return true
	})
}
