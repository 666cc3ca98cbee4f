// Package ratelimit bounds per-session request rates and enforces the
// one-turn-at-a-time rule. Single process, in-memory only.
package ratelimit

import (
	"math"
	"sync"
	"time"
)

type Config struct {
	RPS   float64
	Burst int

	// Operational bounds for the in-memory map.
	MaxEntries int
	EntryTTL   time.Duration
}

type Limiter struct {
	cfg Config

	mu sync.Mutex
	m  map[string]*sessionLimiter
}

type sessionLimiter struct {
	mu sync.Mutex

	tb tokenBucket

	// Capacity 1: turns within a session are strictly sequential.
	turnSem chan struct{}

	lastSeen time.Time // guarded by mu; read by GC while the session is live
}

type tokenBucket struct {
	rps      float64
	capacity float64

	tokens float64
	last   time.Time
}

func New(cfg Config) *Limiter {
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = 10_000
	}
	if cfg.EntryTTL <= 0 {
		cfg.EntryTTL = 30 * time.Minute
	}
	return &Limiter{
		cfg: cfg,
		m:   make(map[string]*sessionLimiter),
	}
}

type Permit struct {
	release func()
}

func (p *Permit) Release() {
	if p == nil || p.release == nil {
		return
	}
	p.release()
	p.release = nil
}

type Decision struct {
	Allowed    bool
	RetryAfter int
	Permit     *Permit
}

// AcquireRequest checks the per-session token bucket.
func (l *Limiter) AcquireRequest(sessionID string, now time.Time) Decision {
	if sessionID == "" {
		sessionID = "anonymous"
	}

	sl := l.getOrCreate(sessionID, now)
	sl.touch(now)

	if l.cfg.RPS > 0 && l.cfg.Burst > 0 {
		ok, retryAfter := sl.allowToken(now, l.cfg.RPS, l.cfg.Burst)
		if !ok {
			return Decision{Allowed: false, RetryAfter: retryAfter}
		}
	}

	return Decision{Allowed: true, Permit: &Permit{release: func() {}}}
}

// AcquireTurn takes the session's single turn slot. A second recording
// arriving while one is still processing is rejected, not queued.
func (l *Limiter) AcquireTurn(sessionID string, now time.Time) Decision {
	if sessionID == "" {
		sessionID = "anonymous"
	}

	sl := l.getOrCreate(sessionID, now)
	sl.touch(now)

	select {
	case sl.turnSem <- struct{}{}:
		return Decision{
			Allowed: true,
			Permit:  &Permit{release: func() { <-sl.turnSem }},
		}
	default:
		return Decision{Allowed: false, RetryAfter: 1}
	}
}

func (l *Limiter) getOrCreate(sessionID string, now time.Time) *sessionLimiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.m) >= l.cfg.MaxEntries {
		l.gcLocked(now)
		// If still too big, drop one arbitrary entry (bounded memory > perfect fairness).
		if len(l.m) >= l.cfg.MaxEntries {
			for k := range l.m {
				delete(l.m, k)
				break
			}
		}
	}

	if sl, ok := l.m[sessionID]; ok {
		return sl
	}
	sl := &sessionLimiter{
		turnSem:  make(chan struct{}, 1),
		lastSeen: now,
	}
	l.m[sessionID] = sl
	return sl
}

// Forget drops a session's limiter state, typically on session deletion.
func (l *Limiter) Forget(sessionID string) {
	l.mu.Lock()
	delete(l.m, sessionID)
	l.mu.Unlock()
}

func (l *Limiter) gcLocked(now time.Time) {
	ttl := l.cfg.EntryTTL
	for k, v := range l.m {
		if now.Sub(v.seen()) > ttl {
			delete(l.m, k)
		}
	}
}

func (sl *sessionLimiter) touch(now time.Time) {
	sl.mu.Lock()
	sl.lastSeen = now
	sl.mu.Unlock()
}

func (sl *sessionLimiter) seen() time.Time {
	sl.mu.Lock()
	defer sl.mu.Unlock()
	return sl.lastSeen
}

func (sl *sessionLimiter) allowToken(now time.Time, rps float64, burst int) (bool, int) {
	sl.mu.Lock()
	defer sl.mu.Unlock()

	if burst <= 0 || rps <= 0 {
		return true, 0
	}
	capacity := float64(burst)
	if sl.tb.capacity == 0 {
		sl.tb = tokenBucket{
			rps:      rps,
			capacity: capacity,
			tokens:   capacity,
			last:     now,
		}
	}

	// If config changes at runtime (rare), adapt.
	sl.tb.rps = rps
	sl.tb.capacity = capacity

	elapsed := now.Sub(sl.tb.last).Seconds()
	if elapsed > 0 {
		sl.tb.tokens = math.Min(sl.tb.capacity, sl.tb.tokens+(elapsed*sl.tb.rps))
		sl.tb.last = now
	}

	if sl.tb.tokens >= 1.0 {
		sl.tb.tokens -= 1.0
		return true, 0
	}

	needed := 1.0 - sl.tb.tokens
	seconds := needed / sl.tb.rps
	retryAfter := int(math.Ceil(seconds))
	if retryAfter < 1 {
		retryAfter = 1
	}
	return false, retryAfter
}
