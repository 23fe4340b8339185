package tetris

import (
	"sync"
	"time"
)

// MockTicker is a Ticker driven by hand with Tick.
type MockTicker struct {
	ch     chan time.Time
	stop   bool
	resets []time.Duration
	mu     sync.Mutex
}

func NewMockTicker() *MockTicker          { return &MockTicker{ch: make(chan time.Time)} }
func (m *MockTicker) C() <-chan time.Time { return m.ch }
func (m *MockTicker) Tick()               { m.ch <- time.Now() }
func (m *MockTicker) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stop = true
}
func (m *MockTicker) Reset(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stop = false
	m.resets = append(m.resets, d)
}

// IsStop reports whether the last call was Stop.
func (m *MockTicker) IsStop() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stop
}

// Resets returns the durations passed to Reset, oldest first.
func (m *MockTicker) Resets() []time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]time.Duration(nil), m.resets...)
}

// SequenceRandomizer drafts the given shapes in order, then starts over.
type SequenceRandomizer struct {
	shapes []Shape
	i      int
}

func NewSequenceRandomizer(shapes ...Shape) *SequenceRandomizer {
	return &SequenceRandomizer{shapes: shapes}
}

func (r *SequenceRandomizer) IntN(n int) int {
	if len(r.shapes) == 0 {
		return 0
	}
	s := r.shapes[r.i%len(r.shapes)]
	r.i++
	for i := range n {
		if ShapeAt(i) == s {
			return i
		}
	}
	return 0
}

// NewTestTetris creates a session on a default board where every tetromino is shape.
func NewTestTetris(shape Shape) *Tetris {
	return newTetris(DefaultConfig(), NewSequenceRandomizer(shape))
}

// NewTestGame creates a game around t and returns it with its manual ticker.
func NewTestGame(t *Tetris) (*Game, *MockTicker) {
	ticker := NewMockTicker()
	g := NewGame(t.cfg, WithTicker(ticker), WithRandomizer(t.rnd))
	g.tetris = t
	return g, ticker
}
