// Package limiter implements the per-user admission controls in front of
// the delivery pipeline: a sliding-window throttle for search queries and
// an in-flight counter bounding concurrent deliveries per user.
//
// Both structures are process-local and reset on restart; the authoritative
// per-session mutual exclusion lives in the session store lock, not here.
// The in-flight counter is a cheap fast-path that may, under a race, admit
// one extra attempt to the lock step — that attempt then fails the lock.
package limiter

import (
	"sync"
	"time"
)

// Limiter tracks per-user search timestamps and in-flight delivery counts.
// It is safe for concurrent use.
type Limiter struct {
	window      time.Duration
	searchLimit int
	deliveryCap int

	mu       sync.Mutex
	searches map[int64][]time.Time
	inflight map[int64]int

	now func() time.Time // test seam
}

// New constructs a Limiter.
//
//   - window:      sliding window for search throttling (e.g. 15s)
//   - searchLimit: max searches per user inside the window (e.g. 5)
//   - deliveryCap: max concurrent deliveries per user (values < 1 coerced to 1)
func New(window time.Duration, searchLimit, deliveryCap int) *Limiter {
	if deliveryCap < 1 {
		deliveryCap = 1
	}
	return &Limiter{
		window:      window,
		searchLimit: searchLimit,
		deliveryCap: deliveryCap,
		searches:    make(map[int64][]time.Time),
		inflight:    make(map[int64]int),
		now:         time.Now,
	}
}

// AllowSearch reports whether the user may run another search. The window
// is recomputed on every call: timestamps older than the window are dropped,
// and a rejected call is not recorded.
func (l *Limiter) AllowSearch(userID int64) bool {
	now := l.now()
	cutoff := now.Add(-l.window)

	l.mu.Lock()
	defer l.mu.Unlock()

	arr := l.searches[userID]
	kept := arr[:0]
	for _, ts := range arr {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	if len(kept) >= l.searchLimit {
		l.searches[userID] = kept
		return false
	}
	l.searches[userID] = append(kept, now)
	return true
}

// CanStartDelivery reports whether the user's in-flight delivery count is
// below the configured cap. This is a fast pre-check, not a reservation:
// callers must still pair MarkDeliveryStart/MarkDeliveryEnd and rely on
// the store lock for correctness.
func (l *Limiter) CanStartDelivery(userID int64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.inflight[userID] < l.deliveryCap
}

// MarkDeliveryStart increments the user's in-flight counter.
func (l *Limiter) MarkDeliveryStart(userID int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.inflight[userID]++
}

// MarkDeliveryEnd decrements the user's in-flight counter, floored at zero.
// It must be called exactly once per MarkDeliveryStart regardless of outcome.
func (l *Limiter) MarkDeliveryEnd(userID int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if n := l.inflight[userID]; n > 0 {
		l.inflight[userID] = n - 1
	}
}

// InFlight returns the current in-flight count for a user (for metrics/tests).
func (l *Limiter) InFlight(userID int64) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.inflight[userID]
}
