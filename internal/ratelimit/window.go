package ratelimit

import (
	"sync"
	"time"
)

// HourlyRequestLimit is the hard free-tier ceiling per rolling hour,
// independent of the configurable daily limit.
const HourlyRequestLimit = 99

// HourlyWindow tracks free-tier request timestamps over a trailing hour. It
// is volatile on purpose: a restart grants a fresh hourly allowance while the
// durable daily counter still bounds total usage.
type HourlyWindow struct {
	mu     sync.Mutex
	stamps []time.Time
	span   time.Duration
	limit  int
	now    func() time.Time
}

func NewHourlyWindow(limit int) *HourlyWindow {
	if limit <= 0 {
		limit = HourlyRequestLimit
	}
	return &HourlyWindow{
		span:  time.Hour,
		limit: limit,
		now:   time.Now,
	}
}

// Prune drops timestamps older than the window span.
func (w *HourlyWindow) Prune() {
	w.mu.Lock()
	defer w.mu.Unlock()

	cutoff := w.now().Add(-w.span)
	kept := w.stamps[:0]
	for _, ts := range w.stamps {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	w.stamps = kept
}

// Record stamps one successful request.
func (w *HourlyWindow) Record() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.stamps = append(w.stamps, w.now())
}

func (w *HourlyWindow) Count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.stamps)
}

// Full reports whether the window already holds the hourly limit.
func (w *HourlyWindow) Full() bool {
	return w.Count() >= w.limit
}
