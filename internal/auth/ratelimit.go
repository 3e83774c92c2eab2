package auth

import (
	"strings"
	"sync"
	"time"
)

// RateLimitConfig tunes the login throttle. Zero values take the defaults.
type RateLimitConfig struct {
	MaxAttempts     int           // failures before lockout (5)
	WindowDuration  time.Duration // failures older than this are forgotten (15m)
	LockoutDuration time.Duration // (30m)
	CleanupInterval time.Duration // (5m)
}

func (c RateLimitConfig) withDefaults() RateLimitConfig {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 5
	}
	if c.WindowDuration <= 0 {
		c.WindowDuration = 15 * time.Minute
	}
	if c.LockoutDuration <= 0 {
		c.LockoutDuration = 30 * time.Minute
	}
	if c.CleanupInterval <= 0 {
		c.CleanupInterval = 5 * time.Minute
	}
	return c
}

// loginKey identifies one client trying one username. Usernames are folded
// so "Admin" and "admin" share a counter.
type loginKey struct {
	ip       string
	username string
}

func newLoginKey(ip, username string) loginKey {
	return loginKey{ip: ip, username: strings.ToLower(strings.TrimSpace(username))}
}

type failures struct {
	count       int
	since       time.Time
	lockedUntil time.Time
}

func (f *failures) locked(now time.Time) bool {
	return now.Before(f.lockedUntil)
}

func (f *failures) stale(now time.Time, window time.Duration) bool {
	return now.Sub(f.since) > window
}

// RateLimiter throttles admin login attempts. Failures are counted per
// IP+username within a window; reaching the limit locks the pair out.
type RateLimiter struct {
	cfg RateLimitConfig
	now func() time.Time

	mu       sync.Mutex
	failures map[loginKey]*failures

	stop     chan struct{}
	stopOnce sync.Once
}

// NewRateLimiter starts a limiter and its cleanup goroutine. Call Stop when
// done.
func NewRateLimiter(cfg RateLimitConfig) *RateLimiter {
	rl := &RateLimiter{
		cfg:      cfg.withDefaults(),
		now:      time.Now,
		failures: make(map[loginKey]*failures),
		stop:     make(chan struct{}),
	}
	go rl.cleanupLoop()
	return rl
}

// Stop ends the cleanup goroutine. It is safe to call twice.
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stop) })
}

// Allow reports whether a login attempt may proceed. When it may not,
// retryAfter is the time left on the lockout.
func (rl *RateLimiter) Allow(ip, username string) (allowed bool, retryAfter time.Duration) {
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	f, ok := rl.failures[newLoginKey(ip, username)]
	switch {
	case !ok:
		return true, 0
	case f.locked(now):
		return false, f.lockedUntil.Sub(now)
	case f.stale(now, rl.cfg.WindowDuration), f.count < rl.cfg.MaxAttempts:
		return true, 0
	default:
		return false, rl.cfg.LockoutDuration
	}
}

// RecordFailure counts a failed login and reports whether it triggered a
// lockout.
func (rl *RateLimiter) RecordFailure(ip, username string) (locked bool, retryAfter time.Duration) {
	key := newLoginKey(ip, username)
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	f, ok := rl.failures[key]
	if !ok || f.stale(now, rl.cfg.WindowDuration) {
		f = &failures{since: now}
		rl.failures[key] = f
	}

	f.count++
	if f.count < rl.cfg.MaxAttempts {
		return false, 0
	}
	f.lockedUntil = now.Add(rl.cfg.LockoutDuration)
	return true, rl.cfg.LockoutDuration
}

// RecordSuccess forgets the failures of a pair after a good login.
func (rl *RateLimiter) RecordSuccess(ip, username string) {
	rl.mu.Lock()
	delete(rl.failures, newLoginKey(ip, username))
	rl.mu.Unlock()
}

func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(rl.cfg.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanup()
		case <-rl.stop:
			return
		}
	}
}

// cleanup drops pairs that are neither locked nor inside a counting window.
func (rl *RateLimiter) cleanup() {
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	for key, f := range rl.failures {
		if !f.locked(now) && f.stale(now, rl.cfg.WindowDuration) {
			delete(rl.failures, key)
		}
	}
}
