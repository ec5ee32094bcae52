// Package ratelimit throttles write traffic with rolling-window counters.
// Counters live in process memory, are created lazily on first use and
// purged by a periodic sweep; policies are fixed at compile time in
// internal/config.
package ratelimit

import (
	"fmt"
	"log"
	"math"
	"sync"
	"time"

	"civicchat/backend/internal/config"
)

// Class selects which policy set applies to an action.
type Class int

const (
	// ClassMessage covers chat message sends: 10/minute and 100/hour.
	ClassMessage Class = iota
	// ClassAPI covers generic authenticated reads: 100/minute.
	ClassAPI
	// ClassStrict covers sensitive operations: 10/minute.
	ClassStrict
)

// Result is the outcome of an admission attempt. RetryAfter is seconds
// until the rejecting window resets; it is advisory, the limiter never
// retries anything itself.
type Result struct {
	OK         bool
	RetryAfter int
}

// Admitter is what the gateway middleware depends on; both the in-memory
// Limiter and the Redis-backed variant satisfy it.
type Admitter interface {
	Admit(identity string, class Class) Result
}

type window struct {
	prefix    string
	duration  time.Duration
	threshold int
}

// Message-send windows are ordered tighter-first so the rejection a sender
// sees carries the shortest wait.
var classWindows = map[Class][]window{
	ClassMessage: {
		{"msg_min_", config.MessagePerMinuteWindow, config.MessagePerMinuteLimit},
		{"msg_hour_", config.MessagePerHourWindow, config.MessagePerHourLimit},
	},
	ClassAPI: {
		{"api_", config.APIPerMinuteWindow, config.APIPerMinuteLimit},
	},
	ClassStrict: {
		{"strict_", config.StrictPerMinuteWindow, config.StrictPerMinuteLimit},
	},
}

type counter struct {
	count     int
	resetTime time.Time
}

// Clock returns the current time; tests inject a fake to advance windows
// without sleeping.
type Clock func() time.Time

// Limiter holds the counter table. One mutex guards the whole map so a
// check-then-increment is a single critical section: two concurrent sends
// can never both observe count < threshold and both pass.
type Limiter struct {
	mu       sync.Mutex
	counters map[string]*counter
	clock    Clock
}

// NewLimiter creates a limiter reading time from the given clock.
// Pass time.Now in production.
func NewLimiter(clock Clock) *Limiter {
	if clock == nil {
		clock = time.Now
	}
	return &Limiter{
		counters: make(map[string]*counter),
		clock:    clock,
	}
}

// Admit records one attempt for the identity and reports whether it may
// proceed. A counter whose resetTime has passed is treated as expired here
// regardless of whether the sweep has run yet.
func (l *Limiter) Admit(identity string, class Class) Result {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock()
	for _, w := range classWindows[class] {
		key := w.prefix + identity

		c, ok := l.counters[key]
		if !ok || !c.resetTime.After(now) {
			l.counters[key] = &counter{count: 1, resetTime: now.Add(w.duration)}
			continue
		}
		if c.count >= w.threshold {
			return Result{RetryAfter: retryAfterSeconds(c.resetTime, now)}
		}
		c.count++
	}
	return Result{OK: true}
}

// Status reports current usage for an identity's message windows, for the
// throttle-status endpoint. Expired counters read as zero.
func (l *Limiter) Status(identity string) map[string]WindowStatus {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock()
	out := make(map[string]WindowStatus, len(classWindows[ClassMessage]))
	for _, w := range classWindows[ClassMessage] {
		st := WindowStatus{Limit: w.threshold, Remaining: w.threshold}
		if c, ok := l.counters[w.prefix+identity]; ok && c.resetTime.After(now) {
			st.Used = c.count
			st.Remaining = w.threshold - c.count
			st.ResetIn = retryAfterSeconds(c.resetTime, now)
		}
		out[w.prefix+"window"] = st
	}
	return out
}

// WindowStatus describes one message window's usage.
type WindowStatus struct {
	Used      int `json:"used"`
	Limit     int `json:"limit"`
	Remaining int `json:"remaining"`
	ResetIn   int `json:"resetIn"`
}

// Run purges expired counters every config.SweepInterval until stop is
// closed. Correctness never depends on the sweep: Admit compares resetTime
// against the clock itself. The sweep re-reads resetTime under the lock, so
// it cannot delete a counter an in-flight Admit just recreated.
func (l *Limiter) Run(stop <-chan struct{}) {
	ticker := time.NewTicker(config.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			removed := l.sweep()
			if removed > 0 {
				log.Printf("ratelimit: swept %d expired counters", removed)
			}
		case <-stop:
			return
		}
	}
}

func (l *Limiter) sweep() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock()
	removed := 0
	for key, c := range l.counters {
		if !c.resetTime.After(now) {
			delete(l.counters, key)
			removed++
		}
	}
	return removed
}

// IdentityForUser builds the counter identity for an authenticated user.
func IdentityForUser(userID uint) string {
	return fmt.Sprintf("u%d", userID)
}

func retryAfterSeconds(resetTime, now time.Time) int {
	return int(math.Ceil(resetTime.Sub(now).Seconds()))
}
