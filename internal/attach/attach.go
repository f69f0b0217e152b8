// Package attach binds one externally-owned element reference to a set of
// keyed lifecycle listeners with guaranteed cleanup ordering.
//
// An Attachment tracks at most one element at a time. Listeners fire when an
// element is bound and may return a disposer; the disposer is guaranteed to
// run before the listener fires against a different element and before the
// listener is removed. The zero value of the element type means "no element":
// attaching it runs the teardown pass and clears the binding, which is how
// the rendering layer signals unmount.
package attach

import "errors"

// ErrDetachNoEffect is returned by DetachWith when EventsOnly is set but
// neither clear flag selects anything, a combination with no effect.
var ErrDetachNoEffect = errors.New("attach: events-only detach selects nothing to clear")

// DefaultKey is the listener key used when OnAttach is called without WithKey.
const DefaultKey = "default"

// Handler fires with the newly bound element. It may return a disposer that
// runs before the handler fires again or the listener is removed.
type Handler[E comparable] func(E) func()

type listener[E comparable] struct {
	key     string
	handler Handler[E]
	once    bool
	cleanup func()
}

// Attachment binds one element to a set of keyed lifecycle listeners.
// It is not synchronized; the owner serializes access (the overlay registry
// does so through its own lock, Bubble Tea models through the update loop).
type Attachment[E comparable] struct {
	elem      E
	listeners []*listener[E] // registration order, which is teardown order
	inert     bool
}

// Option configures an Attachment at construction.
type Option func(*settings)

type settings struct {
	inert bool
}

// Inert produces an attachment whose Attach is a full no-op, for
// non-interactive rendering passes where no element will ever mount.
func Inert() Option {
	return func(s *settings) { s.inert = true }
}

// New creates an empty attachment.
func New[E comparable](opts ...Option) *Attachment[E] {
	var s settings
	for _, opt := range opts {
		opt(&s)
	}
	return &Attachment[E]{inert: s.inert}
}

// Attach binds elem, replacing any previous binding. Binding the same value
// again is a no-op. On an identity change the previous element's listener
// disposers run first, in registration order, then every listener fires
// against the new element in registration order. Listeners registered with
// Once run their fresh disposer immediately and are removed. Attaching the
// zero value clears the binding without a firing pass.
//
// Attach is the callback handed to the rendering layer, so it must stay
// idempotent under repeated identical values.
func (a *Attachment[E]) Attach(elem E) {
	if a.inert || elem == a.elem {
		return
	}
	for _, l := range a.listeners {
		runCleanup(l)
	}
	a.elem = elem
	var zero E
	if elem == zero {
		return
	}
	a.fire()
}

// fire invokes every listener against the current element in registration
// order, capturing returned disposers and consuming once listeners.
func (a *Attachment[E]) fire() {
	i := 0
	for i < len(a.listeners) {
		l := a.listeners[i]
		l.cleanup = l.handler(a.elem)
		if l.once {
			runCleanup(l)
			a.listeners = append(a.listeners[:i], a.listeners[i+1:]...)
			continue
		}
		i++
	}
}

// ListenOption configures a single OnAttach registration.
type ListenOption func(*listenConfig)

type listenConfig struct {
	key  string
	once bool
}

// WithKey registers the listener under key instead of DefaultKey.
func WithKey(key string) ListenOption {
	return func(c *listenConfig) { c.key = key }
}

// Once removes the listener after its first firing.
func Once() ListenOption {
	return func(c *listenConfig) { c.once = true }
}

// OnAttach registers a listener. Registering under an existing key runs that
// listener's disposer and replaces it in place, keeping its teardown slot.
// If an element is already bound the listener fires immediately, with the
// same once semantics as Attach.
func (a *Attachment[E]) OnAttach(handler Handler[E], opts ...ListenOption) {
	cfg := listenConfig{key: DefaultKey}
	for _, opt := range opts {
		opt(&cfg)
	}

	l := a.find(cfg.key)
	if l != nil {
		runCleanup(l)
		l.handler = handler
		l.once = cfg.once
	} else {
		l = &listener[E]{key: cfg.key, handler: handler, once: cfg.once}
		a.listeners = append(a.listeners, l)
	}

	var zero E
	if a.elem == zero {
		return
	}
	l.cleanup = l.handler(a.elem)
	if l.once {
		runCleanup(l)
		a.remove(cfg.key)
	}
}

// Current returns the bound element, or the zero value when nothing is bound.
func (a *Attachment[E]) Current() E {
	return a.elem
}

// Bound reports whether an element is currently bound.
func (a *Attachment[E]) Bound() bool {
	var zero E
	return a.elem != zero
}

// Detach runs every listener's disposer, clears the listener set, and clears
// the bound element, returning the attachment to its original state.
func (a *Attachment[E]) Detach() {
	for _, l := range a.listeners {
		runCleanup(l)
	}
	a.listeners = nil
	var zero E
	a.elem = zero
}

// DetachKey runs the keyed listener's disposer and removes it, reporting
// whether the listener existed.
func (a *Attachment[E]) DetachKey(key string) bool {
	l := a.find(key)
	if l == nil {
		return false
	}
	runCleanup(l)
	a.remove(key)
	return true
}

// DetachOptions selects what a partial detach tears down. The zero value
// clears nothing; use DefaultDetachOptions for the usual full-clear defaults.
type DetachOptions struct {
	// ClearEvents tears down every listener's disposer. Combined with
	// ClearDefaultEvent the whole listener set is removed; alone, the
	// DefaultKey entry is kept registered (its disposer still consumed).
	ClearEvents bool
	// ClearDefaultEvent, without ClearEvents, tears down and removes only
	// the DefaultKey listener.
	ClearDefaultEvent bool
	// EventsOnly keeps the bound element in place.
	EventsOnly bool
}

// DefaultDetachOptions clears all listeners and the bound element.
func DefaultDetachOptions() DetachOptions {
	return DetachOptions{ClearEvents: true, ClearDefaultEvent: true}
}

// DetachWith performs a selective teardown per opts. EventsOnly with both
// clear flags false has no possible effect and returns ErrDetachNoEffect.
func (a *Attachment[E]) DetachWith(opts DetachOptions) error {
	if opts.EventsOnly && !opts.ClearEvents && !opts.ClearDefaultEvent {
		return ErrDetachNoEffect
	}

	switch {
	case opts.ClearEvents:
		for _, l := range a.listeners {
			runCleanup(l)
		}
		if opts.ClearDefaultEvent {
			a.listeners = nil
		} else {
			var kept []*listener[E]
			for _, l := range a.listeners {
				if l.key == DefaultKey {
					kept = append(kept, l)
				}
			}
			a.listeners = kept
		}
	case opts.ClearDefaultEvent:
		if l := a.find(DefaultKey); l != nil {
			runCleanup(l)
			a.remove(DefaultKey)
		}
	}

	if !opts.EventsOnly {
		var zero E
		a.elem = zero
	}
	return nil
}

func (a *Attachment[E]) find(key string) *listener[E] {
	for _, l := range a.listeners {
		if l.key == key {
			return l
		}
	}
	return nil
}

func (a *Attachment[E]) remove(key string) {
	for i, l := range a.listeners {
		if l.key == key {
			a.listeners = append(a.listeners[:i], a.listeners[i+1:]...)
			return
		}
	}
}

func runCleanup[E comparable](l *listener[E]) {
	if l.cleanup == nil {
		return
	}
	c := l.cleanup
	l.cleanup = nil
	c()
}
