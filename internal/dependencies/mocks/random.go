package mocks

import (
	"sync"

	"github.com/mcoot/wordbattle/internal/dependencies/random"
)

// MockRandom replays queued values. Once a queue is drained Intn yields 0,
// which makes Shuffle and Sample keep their input order, and String yields "".
// Safe for use from hub goroutines while a test queues values.
type MockRandom struct {
	mu      sync.Mutex
	ints    []int
	strings []string
}

var _ random.Random = (*MockRandom)(nil)

// NewMockRandom creates a MockRandom with empty queues
func NewMockRandom() *MockRandom {
	return &MockRandom{}
}

// Intn pops the next queued int, reduced into [0, n)
func (r *MockRandom) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	if n <= 0 || len(r.ints) == 0 {
		return 0
	}
	v := r.ints[0]
	r.ints = r.ints[1:]
	return ((v % n) + n) % n
}

// String pops the next queued string; length and alphabet are ignored
func (r *MockRandom) String(_ int, _ string) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.strings) == 0 {
		return ""
	}
	v := r.strings[0]
	r.strings = r.strings[1:]
	return v
}

// QueueIntn appends values for Intn
func (r *MockRandom) QueueIntn(values ...int) {
	r.mu.Lock()
	r.ints = append(r.ints, values...)
	r.mu.Unlock()
}

// QueueString appends values for String, e.g. session tokens
func (r *MockRandom) QueueString(values ...string) {
	r.mu.Lock()
	r.strings = append(r.strings, values...)
	r.mu.Unlock()
}

// Reset drops everything still queued
func (r *MockRandom) Reset() {
	r.mu.Lock()
	r.ints, r.strings = nil, nil
	r.mu.Unlock()
}
