package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// BurstConfig holds token bucket settings for the flood guard
type BurstConfig struct {
	// Rate is the number of requests allowed per second
	Rate float64
	// Burst is the maximum number of requests allowed in a burst
	Burst int
	// CleanupInterval is how often to clean up stale entries
	CleanupInterval time.Duration
	// MaxAge is how long to keep an entry after last access
	MaxAge time.Duration
}

type burstEntry struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// BurstLimiter applies a per-IP token bucket with automatic cleanup
type BurstLimiter struct {
	mu       sync.Mutex
	entries  map[string]*burstEntry
	config   BurstConfig
	done     chan struct{}
	stopOnce sync.Once
}

func NewBurstLimiter(cfg BurstConfig) *BurstLimiter {
	if cfg.CleanupInterval == 0 {
		cfg.CleanupInterval = time.Minute
	}
	if cfg.MaxAge == 0 {
		cfg.MaxAge = 5 * time.Minute
	}

	bl := &BurstLimiter{
		entries: make(map[string]*burstEntry),
		config:  cfg,
		done:    make(chan struct{}),
	}
	go bl.cleanup()
	return bl
}

// Allow checks if a request from the given IP should be allowed
func (bl *BurstLimiter) Allow(ip string) bool {
	bl.mu.Lock()
	defer bl.mu.Unlock()

	e, exists := bl.entries[ip]
	if !exists {
		e = &burstEntry{
			limiter: rate.NewLimiter(rate.Limit(bl.config.Rate), bl.config.Burst),
		}
		bl.entries[ip] = e
	}
	e.lastAccess = time.Now()

	return e.limiter.Allow()
}

// Len returns the current number of tracked IPs
func (bl *BurstLimiter) Len() int {
	bl.mu.Lock()
	defer bl.mu.Unlock()
	return len(bl.entries)
}

// Stop stops the cleanup goroutine
func (bl *BurstLimiter) Stop() {
	bl.stopOnce.Do(func() { close(bl.done) })
}

func (bl *BurstLimiter) cleanup() {
	ticker := time.NewTicker(bl.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-bl.done:
			return
		case now := <-ticker.C:
			bl.evictStale(now)
		}
	}
}

func (bl *BurstLimiter) evictStale(now time.Time) {
	bl.mu.Lock()
	defer bl.mu.Unlock()

	for ip, e := range bl.entries {
		if now.Sub(e.lastAccess) > bl.config.MaxAge {
			delete(bl.entries, ip)
		}
	}
}
