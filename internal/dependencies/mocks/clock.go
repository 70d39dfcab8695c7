package mocks

import (
	"sort"
	"sync"
	"time"

	"github.com/mcoot/wordbattle/internal/dependencies/clock"
)

// MockClock is a mock implementation of Clock for testing.
// Scheduled functions only run when Advance or Set moves the clock past their deadline,
// and they run synchronously on the caller's goroutine.
type MockClock struct {
	mu          sync.Mutex
	currentTime time.Time
	timers      []*MockTimer
}

// Ensure MockClock implements Clock
var _ clock.Clock = (*MockClock)(nil)

// NewMockClock creates a MockClock set to the given time
func NewMockClock(t time.Time) *MockClock {
	return &MockClock{currentTime: t}
}

// Now returns the mocked current time
func (c *MockClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.currentTime
}

// AfterFunc registers f to fire once the mocked time reaches now+d
func (c *MockClock) AfterFunc(d time.Duration, f func()) clock.Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &MockTimer{clock: c, deadline: c.currentTime.Add(d), fn: f}
	c.timers = append(c.timers, t)
	return t
}

// Advance moves the clock forward by the given duration and fires due timers
func (c *MockClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.currentTime = c.currentTime.Add(d)
	c.mu.Unlock()
	c.fireDue()
}

// Set sets the clock to the given time and fires due timers
func (c *MockClock) Set(t time.Time) {
	c.mu.Lock()
	c.currentTime = t
	c.mu.Unlock()
	c.fireDue()
}

// PendingTimers returns the number of timers that have neither fired nor been stopped
func (c *MockClock) PendingTimers() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.timers)
}

func (c *MockClock) fireDue() {
	c.mu.Lock()
	var due, pending []*MockTimer
	for _, t := range c.timers {
		if !t.deadline.After(c.currentTime) {
			due = append(due, t)
		} else {
			pending = append(pending, t)
		}
	}
	c.timers = pending
	c.mu.Unlock()

	sort.SliceStable(due, func(i, j int) bool { return due[i].deadline.Before(due[j].deadline) })
	// Callbacks may take locks that call back into the clock
	for _, t := range due {
		t.fn()
	}
}

// MockTimer is the Timer returned by MockClock.AfterFunc
type MockTimer struct {
	clock    *MockClock
	deadline time.Time
	fn       func()
}

// Stop removes the timer if it is still pending
func (t *MockTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	for i, pending := range t.clock.timers {
		if pending == t {
			t.clock.timers = append(t.clock.timers[:i], t.clock.timers[i+1:]...)
			return true
		}
	}
	return false
}
