package webhook

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// limiter hands out one token bucket per widget session.
type limiter struct {
	mu       sync.Mutex
	limit    rate.Limit
	burst    int
	idle     time.Duration
	sessions map[string]*sessionLimiter
}

type sessionLimiter struct {
	bucket   *rate.Limiter
	lastSeen time.Time
}

func newLimiter(perSec float64, burst int) *limiter {
	if burst < 1 {
		burst = 1
	}
	limit := rate.Limit(perSec)
	if perSec <= 0 {
		limit = rate.Inf
	}
	return &limiter{
		limit:    limit,
		burst:    burst,
		idle:     30 * time.Minute,
		sessions: make(map[string]*sessionLimiter),
	}
}

// Allow reports whether sessionID may send another message now.
func (l *limiter) Allow(sessionID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	entry, ok := l.sessions[sessionID]
	if !ok {
		l.evict(now)
		entry = &sessionLimiter{bucket: rate.NewLimiter(l.limit, l.burst)}
		l.sessions[sessionID] = entry
	}
	entry.lastSeen = now
	return entry.bucket.AllowN(now, 1)
}

// evict drops buckets idle for longer than l.idle. Callers hold l.mu.
func (l *limiter) evict(now time.Time) {
	for id, entry := range l.sessions {
		if now.Sub(entry.lastSeen) > l.idle {
			delete(l.sessions, id)
		}
	}
}
