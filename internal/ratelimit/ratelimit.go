package ratelimit

import (
	"sync"
	"time"
)

type RateLimit interface {
	Allow(addr string) bool
}

type window struct {
	count int
	start time.Time
}

// FixedWindowLimiter counts requests per address in fixed windows. Stale
// entries are dropped whenever a new window opens for an address.
type FixedWindowLimiter struct {
	maxRequests int
	interval    time.Duration
	windows     map[string]*window
	mutex       sync.Mutex
}

func New(maxRequests int, interval time.Duration) RateLimit {
	return &FixedWindowLimiter{
		maxRequests: maxRequests,
		interval:    interval,
		windows:     make(map[string]*window),
	}
}

func (rl *FixedWindowLimiter) Allow(addr string) bool {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	now := time.Now()
	w := rl.windows[addr]

	if w == nil || now.Sub(w.start) > rl.interval {
		if rl.maxRequests == 0 {
			return false
		}

		rl.prune(now)
		rl.windows[addr] = &window{count: 1, start: now}
		return true
	}

	if w.count >= rl.maxRequests {
		return false
	}
	w.count++

	return true
}

// prune holds the map size down; callers already hold the mutex.
func (rl *FixedWindowLimiter) prune(now time.Time) {
	for addr, w := range rl.windows {
		if now.Sub(w.start) > rl.interval {
			delete(rl.windows, addr)
		}
	}
}
