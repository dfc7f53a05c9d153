package plan

import (
	"sync"
	"time"
)

// UsageMeter tracks per-user monthly counters for plan-limited features.
// Counters reset when the calendar month rolls over. State is in-memory,
// so a restart resets the meter; limits are a soft control, not billing.
type UsageMeter struct {
	mu     sync.Mutex
	month  string
	counts map[string]int
	now    func() time.Time
}

func NewUsageMeter() *UsageMeter {
	return &UsageMeter{
		counts: make(map[string]int),
		now:    time.Now,
	}
}

// Count returns the user's consumption for the current month.
func (m *UsageMeter) Count(userID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rollover()
	return m.counts[userID]
}

// Increment records one unit of consumption and returns the new total.
func (m *UsageMeter) Increment(userID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rollover()
	m.counts[userID]++
	return m.counts[userID]
}

// rollover clears all counters when the month changes. Callers must hold mu.
func (m *UsageMeter) rollover() {
	current := m.now().UTC().Format("2006-01")
	if m.month != current {
		m.month = current
		m.counts = make(map[string]int)
	}
}
