// Package visibility implements the three-phase visibility state machine
// that keeps overlay content mounted through its exit animation.
//
// Phases: Hidden (rest, nothing rendered), Leaving (exit animation in
// flight), Shown (fully visible). Showing is immediate; hiding passes
// through Leaving for a configured delay before landing in Hidden. Class
// swaps are applied to the element bound to the attachment, with the "add"
// half deferred to the next frame boundary so the "remove" takes effect
// first and a CSS-style transition can trigger.
package visibility

import (
	"sync"
	"time"

	"github.com/zjrosen/veil/internal/attach"
	"github.com/zjrosen/veil/internal/sched"
)

// Phase is the visibility state.
type Phase int

const (
	// Hidden is the initial and terminal rest phase.
	Hidden Phase = iota
	// Leaving means the exit animation is in flight; content stays mounted.
	Leaving
	// Shown means fully visible.
	Shown
)

func (p Phase) String() string {
	switch p {
	case Hidden:
		return "hidden"
	case Leaving:
		return "leaving"
	case Shown:
		return "shown"
	default:
		return "unknown"
	}
}

// Elem is the element constraint: comparable identity plus class hooks.
type Elem interface {
	comparable
	AddClass(name string)
	RemoveClass(name string)
}

// swapKey is the attachment listener key for the queued one-shot class swap
// used when no element is mounted yet.
const swapKey = "visibility:swap"

// Config sets the animation parameters of one Visibility.
type Config struct {
	// Delay is how long Leaving lasts before landing in Hidden.
	Delay time.Duration
	// EnterClass and ExitClass are the class names swapped on transitions.
	EnterClass string
	ExitClass  string
	// InitiallyVisible seeds the machine in Shown.
	InitiallyVisible bool
}

// Visibility is the three-phase state machine. The bound attachment is
// non-owning: it is used only to apply class swaps.
type Visibility[E Elem] struct {
	mu       sync.Mutex
	phase    Phase
	timer    sched.Timer // non-nil only while Leaving
	gen      uint64      // bumped on every transition; stale timers abort
	done     func()      // completion callback, superseded never queued
	released bool

	att   *attach.Attachment[E]
	cfg   Config
	clock sched.Scheduler
}

// New creates a visibility machine bound to att, driven by clock. A machine
// seeded Shown applies its enter class swap immediately.
func New[E Elem](att *attach.Attachment[E], clock sched.Scheduler, cfg Config) *Visibility[E] {
	v := &Visibility[E]{att: att, cfg: cfg, clock: clock}
	if cfg.InitiallyVisible {
		v.phase = Shown
		v.swap(cfg.EnterClass, cfg.ExitClass)
	}
	return v
}

// Set drives the machine toward visible or hidden.
//
// Set(true): no-op when already Shown. Otherwise any pending exit timer is
// canceled (its callback is discarded unfired), the phase moves to Shown
// immediately, the enter swap is applied, and done fires synchronously.
//
// Set(false): only meaningful from Shown. The phase moves to Leaving, the
// exit swap is applied, and done fires once the delay elapses and the
// machine lands in Hidden. Calling Set(false) from Leaving or Hidden is a
// full no-op: the timer is not restarted and the stored callback is kept.
func (v *Visibility[E]) Set(visible bool, done func()) {
	v.mu.Lock()
	if v.released {
		v.mu.Unlock()
		return
	}

	if visible {
		if v.phase == Shown {
			v.mu.Unlock()
			return
		}
		v.cancelTimerLocked()
		v.gen++
		v.phase = Shown
		v.done = nil
		v.mu.Unlock()

		v.swap(v.cfg.EnterClass, v.cfg.ExitClass)
		if done != nil {
			done()
		}
		return
	}

	if v.phase != Shown {
		v.mu.Unlock()
		return
	}
	v.gen++
	gen := v.gen
	v.phase = Leaving
	v.done = done
	v.mu.Unlock()

	v.swap(v.cfg.ExitClass, v.cfg.EnterClass)

	t := v.clock.After(v.cfg.Delay, func() { v.land(gen) })
	v.mu.Lock()
	if v.gen == gen && v.phase == Leaving {
		v.timer = t
	} else {
		// Landed or superseded before we could record the handle.
		t.Stop()
	}
	v.mu.Unlock()
}

// Toggle is Set(!Bool(), done).
func (v *Visibility[E]) Toggle(done func()) {
	v.Set(!v.Bool(), done)
}

// land completes a delayed Leaving → Hidden transition. Stale generations
// (superseded by a newer Set) abort without firing anything.
func (v *Visibility[E]) land(gen uint64) {
	v.mu.Lock()
	if v.released || v.gen != gen || v.phase != Leaving {
		v.mu.Unlock()
		return
	}
	v.phase = Hidden
	v.timer = nil
	cb := v.done
	v.done = nil
	v.mu.Unlock()

	if cb != nil {
		cb()
	}
}

// swap removes one class immediately and adds the other on the next frame
// boundary. With no element bound, a one-shot listener applies the swap
// exactly once when an element mounts; a newer swap replaces it.
func (v *Visibility[E]) swap(add, remove string) {
	if el := v.att.Current(); v.att.Bound() {
		v.applyTo(el, add, remove)
		return
	}
	v.att.OnAttach(func(el E) func() {
		v.applyTo(el, add, remove)
		return nil
	}, attach.WithKey(swapKey), attach.Once())
}

func (v *Visibility[E]) applyTo(el E, add, remove string) {
	if remove != "" {
		el.RemoveClass(remove)
	}
	if add != "" {
		v.clock.Frame(func() {
			v.mu.Lock()
			stale := v.released
			v.mu.Unlock()
			if !stale {
				el.AddClass(add)
			}
		})
	}
}

// Lazy is true while content must stay mounted: Shown or Leaving.
func (v *Visibility[E]) Lazy() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.phase == Shown || v.phase == Leaving
}

// Bool is true only when fully Shown.
func (v *Visibility[E]) Bool() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.phase == Shown
}

// Phase returns the current phase.
func (v *Visibility[E]) Phase() Phase {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.phase
}

// Cleanup cancels any pending timer, drops the queued one-shot swap, and
// releases the machine. Idempotent; Set becomes a no-op afterwards.
func (v *Visibility[E]) Cleanup() {
	v.mu.Lock()
	if v.released {
		v.mu.Unlock()
		return
	}
	v.released = true
	v.gen++
	v.cancelTimerLocked()
	v.done = nil
	v.mu.Unlock()

	v.att.DetachKey(swapKey)
}

func (v *Visibility[E]) cancelTimerLocked() {
	if v.timer != nil {
		v.timer.Stop()
		v.timer = nil
	}
}
