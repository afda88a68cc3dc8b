package newsdesk

import (
	"sync"
	"time"
)

// TokenLimiter counts failed admin token attempts per IP address.
type TokenLimiter struct {
	mu       sync.Mutex
	attempts map[string][]time.Time
	max      int
	window   time.Duration
	now      func() time.Time

	stop chan struct{}
	done chan struct{}
	once sync.Once
}

// NewTokenLimiter creates a TokenLimiter that allows max failures per window
// and starts its cleanup goroutine. Call Stop to release it.
func NewTokenLimiter(max int, window time.Duration) *TokenLimiter {
	l := &TokenLimiter{
		attempts: make(map[string][]time.Time),
		max:      max,
		window:   window,
		now:      time.Now,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	go l.cleanup()
	return l
}

func (l *TokenLimiter) cleanup() {
	defer close(l.done)
	ticker := time.NewTicker(l.window)
	defer ticker.Stop()
	for {
		select {
		case <-l.stop:
			return
		case <-ticker.C:
			l.prune()
		}
	}
}

func (l *TokenLimiter) prune() {
	cutoff := l.now().Add(-l.window)
	l.mu.Lock()
	defer l.mu.Unlock()
	for ip, hits := range l.attempts {
		if kept := keepAfter(hits, cutoff); len(kept) == 0 {
			delete(l.attempts, ip)
		} else {
			l.attempts[ip] = kept
		}
	}
}

// Stop ends the cleanup goroutine. It is safe to call more than once.
func (l *TokenLimiter) Stop() {
	l.once.Do(func() { close(l.stop) })
	<-l.done
}

// Allow checks if the IP has not exceeded the limit and records the attempt.
func (l *TokenLimiter) Allow(ip string) bool {
	if !l.Check(ip) {
		return false
	}
	l.Record(ip)
	return true
}

// Check returns true if the IP has not exceeded the limit.
// It does not record an attempt; call Record separately on failure.
func (l *TokenLimiter) Check(ip string) bool {
	cutoff := l.now().Add(-l.window)

	l.mu.Lock()
	defer l.mu.Unlock()

	kept := keepAfter(l.attempts[ip], cutoff)
	if len(kept) == 0 {
		delete(l.attempts, ip)
	} else {
		l.attempts[ip] = kept
	}
	return len(kept) < l.max
}

// Record registers a failed attempt for the given IP.
func (l *TokenLimiter) Record(ip string) {
	l.mu.Lock()
	l.attempts[ip] = append(l.attempts[ip], l.now())
	l.mu.Unlock()
}

func keepAfter(hits []time.Time, cutoff time.Time) []time.Time {
	kept := hits[:0]
	for _, t := range hits {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	return kept
}
