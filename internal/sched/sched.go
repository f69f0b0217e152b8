// Package sched provides the deferred-callback scheduling the visibility
// machinery runs on: frame-boundary callbacks for class swaps and fixed-delay
// timers for exit transitions. Wall schedules against real time; Manual is a
// deterministic clock for tests.
package sched

import (
	"sync"
	"time"
)

// DefaultFrameInterval approximates one terminal animation frame.
const DefaultFrameInterval = 16 * time.Millisecond

// Timer is a pending delayed callback. Stop reports whether it prevented the
// callback from firing.
type Timer interface {
	Stop() bool
}

// Scheduler defers callbacks cooperatively. Implementations run callbacks
// without holding internal locks, so callbacks may schedule further work.
type Scheduler interface {
	// Frame runs fn at the next frame boundary.
	Frame(fn func())
	// After runs fn once d has elapsed.
	After(d time.Duration, fn func()) Timer
}

// Wall schedules against real time. Frame callbacks fire after one frame
// interval on a timer goroutine.
type Wall struct {
	// FrameInterval overrides DefaultFrameInterval when positive.
	FrameInterval time.Duration
}

// NewWall creates a real-time scheduler with the default frame interval.
func NewWall() *Wall {
	return &Wall{FrameInterval: DefaultFrameInterval}
}

func (w *Wall) Frame(fn func()) {
	d := w.FrameInterval
	if d <= 0 {
		d = DefaultFrameInterval
	}
	time.AfterFunc(d, fn)
}

func (w *Wall) After(d time.Duration, fn func()) Timer {
	return time.AfterFunc(d, fn)
}

// Manual is a deterministic scheduler driven by explicit Fire and Advance
// calls. Safe for concurrent use, though tests typically drive it from one
// goroutine.
type Manual struct {
	mu     sync.Mutex
	now    time.Duration
	frames []func()
	timers []*manualTimer
}

type manualTimer struct {
	m       *Manual
	at      time.Duration
	fn      func()
	stopped bool
	fired   bool
}

func (t *manualTimer) Stop() bool {
	t.m.mu.Lock()
	defer t.m.mu.Unlock()
	if t.fired || t.stopped {
		return false
	}
	t.stopped = true
	return true
}

// NewManual creates a manual scheduler at time zero.
func NewManual() *Manual {
	return &Manual{}
}

func (m *Manual) Frame(fn func()) {
	m.mu.Lock()
	m.frames = append(m.frames, fn)
	m.mu.Unlock()
}

func (m *Manual) After(d time.Duration, fn func()) Timer {
	m.mu.Lock()
	t := &manualTimer{m: m, at: m.now + d, fn: fn}
	m.timers = append(m.timers, t)
	m.mu.Unlock()
	return t
}

// Fire runs every queued frame callback, including callbacks queued while
// firing, until no frames remain.
func (m *Manual) Fire() {
	for {
		m.mu.Lock()
		if len(m.frames) == 0 {
			m.mu.Unlock()
			return
		}
		batch := m.frames
		m.frames = nil
		m.mu.Unlock()
		for _, fn := range batch {
			fn()
		}
	}
}

// Advance moves the clock forward by d, firing queued frames first and then
// every timer that comes due, in deadline order.
func (m *Manual) Advance(d time.Duration) {
	m.Fire()
	m.mu.Lock()
	deadline := m.now + d
	m.mu.Unlock()

	for {
		m.mu.Lock()
		next := m.earliestLocked(deadline)
		if next == nil {
			m.now = deadline
			m.mu.Unlock()
			m.Fire()
			return
		}
		if m.now < next.at {
			m.now = next.at
		}
		next.fired = true
		m.mu.Unlock()
		next.fn()
		m.Fire()
	}
}

// earliestLocked picks the unfired, unstopped timer with the smallest
// deadline at or before limit. Ties fire in creation order.
func (m *Manual) earliestLocked(limit time.Duration) *manualTimer {
	var best *manualTimer
	for _, t := range m.timers {
		if t.fired || t.stopped || t.at > limit {
			continue
		}
		if best == nil || t.at < best.at {
			best = t
		}
	}
	return best
}

// PendingTimers counts timers that are neither fired nor stopped.
func (m *Manual) PendingTimers() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, t := range m.timers {
		if !t.fired && !t.stopped {
			n++
		}
	}
	return n
}
