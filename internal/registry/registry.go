// Package registry composes visibility state machines and attachments into a
// store of overlay entries with the shared global concerns: z-order
// (topmost tracking), reference-counted scroll locking, and portal routing.
//
// A Registry is an explicit context object: construct one per surface and
// pass it to every overlay owner. Multiple registries coexist and are
// independently testable; there is no package-level instance.
//
// All bookkeeping is serialized by the registry's lock and every mutation
// runs to completion before control returns, so no operation observes
// another mid-mutation. Hooks and listener cleanups run outside the lock;
// calling back into the registry from inside an in-progress cleanup pass is
// not supported.
package registry

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/zjrosen/veil/internal/attach"
	"github.com/zjrosen/veil/internal/log"
	"github.com/zjrosen/veil/internal/pubsub"
	"github.com/zjrosen/veil/internal/sched"
	"github.com/zjrosen/veil/internal/visibility"
)

// DefaultAnimationDelay is the exit animation duration used when neither the
// registry nor the entry configures one.
const DefaultAnimationDelay = 200 * time.Millisecond

// Change is the payload published on every registry mutation.
type Change struct {
	// ID identifies the overlay the mutation concerns; empty for purely
	// global changes.
	ID string
	// Topmost is the topmost overlay id after the mutation, or empty.
	Topmost string
	// OpenCount is the size of the open set after the mutation.
	OpenCount int
	// LockCount is the scroll-lock reference count after the mutation.
	LockCount int
}

// PortalOverlay pairs an overlay id with its content renderer for a
// portal rendering pass.
type PortalOverlay struct {
	ID      string
	Content func() string
}

type entry[E visibility.Elem] struct {
	cfg       Config
	vis       *visibility.Visibility[E]
	att       *attach.Attachment[E]
	holdsLock bool // snapshot: this entry currently holds the scroll lock
}

// Registry is the central overlay store.
type Registry[E visibility.Elem] struct {
	mu           sync.Mutex
	overlays     map[string]*entry[E]
	regOrder     []string // registration order, for portal queries
	openOrder    []string // insertion order encodes z-order; last is topmost
	topmost      string
	lockCount    int
	lockedOffset int // viewport offset captured when lockCount left zero

	clock  sched.Scheduler
	view   Viewport
	delay  time.Duration
	broker *pubsub.Broker[Change]
}

// Option configures a Registry during construction.
type Option func(*options)

type options struct {
	clock  sched.Scheduler
	view   Viewport
	delay  time.Duration
	buffer int
}

// WithScheduler sets the scheduler driving animation frames and exit timers.
// Panics on nil: a registry without a clock is a programmer error.
func WithScheduler(s sched.Scheduler) Option {
	if s == nil {
		panic("registry: scheduler must not be nil")
	}
	return func(o *options) { o.clock = s }
}

// WithViewport sets the scrollable surface the scroll lock applies to.
func WithViewport(v Viewport) Option {
	if v == nil {
		panic("registry: viewport must not be nil")
	}
	return func(o *options) { o.view = v }
}

// WithDefaultDelay sets the exit animation delay for entries that do not
// configure their own. Panics if d <= 0.
func WithDefaultDelay(d time.Duration) Option {
	if d <= 0 {
		panic(fmt.Sprintf("registry: default delay must be positive, got %v", d))
	}
	return func(o *options) { o.delay = d }
}

// WithEventBuffer sets the per-subscriber event buffer size.
func WithEventBuffer(n int) Option {
	if n <= 0 {
		panic(fmt.Sprintf("registry: event buffer must be positive, got %d", n))
	}
	return func(o *options) { o.buffer = n }
}

// New creates an empty registry.
func New[E visibility.Elem](opts ...Option) *Registry[E] {
	o := options{
		clock:  sched.NewWall(),
		view:   NopViewport{},
		delay:  DefaultAnimationDelay,
		buffer: 0,
	}
	for _, opt := range opts {
		opt(&o)
	}

	broker := pubsub.NewBroker[Change]()
	if o.buffer > 0 {
		broker = pubsub.NewBrokerWithBuffer[Change](o.buffer)
	}

	return &Registry[E]{
		overlays: make(map[string]*entry[E]),
		clock:    o.clock,
		view:     o.view,
		delay:    o.delay,
		broker:   broker,
	}
}

// Subscribe returns a channel of registry mutations, closed when ctx ends.
func (r *Registry[E]) Subscribe(ctx context.Context) <-chan pubsub.Event[Change] {
	return r.broker.Subscribe(ctx)
}

// Register creates an overlay entry owning one visibility machine and one
// attachment. An initially-visible entry runs the cancelable before-open
// hook first; cancellation forces the initial state hidden. An entry that
// does start visible is folded into the open-set, topmost, and scroll-lock
// bookkeeping immediately. Returns the entry's id.
func (r *Registry[E]) Register(cfg Config) (string, error) {
	if cfg.ID == "" {
		cfg.ID = uuid.NewString()
	}

	r.mu.Lock()
	if _, taken := r.overlays[cfg.ID]; taken {
		r.mu.Unlock()
		return "", fmt.Errorf("%w: %q", ErrDuplicateOverlay, cfg.ID)
	}
	r.mu.Unlock()

	visible := cfg.InitiallyVisible
	if visible && cfg.OnBeforeOpen != nil {
		ev := &HookEvent{}
		cfg.OnBeforeOpen(ev)
		if ev.Cancel {
			log.Debug(log.CatRegistry, "initial open canceled by hook", "id", cfg.ID)
			visible = false
		}
	}

	delay := cfg.AnimationDelay
	if delay <= 0 {
		delay = r.delay
	}
	att := attach.New[E]()
	vis := visibility.New(att, r.clock, visibility.Config{
		Delay:            delay,
		EnterClass:       cfg.EnterClass,
		ExitClass:        cfg.ExitClass,
		InitiallyVisible: visible,
	})
	e := &entry[E]{cfg: cfg, vis: vis, att: att}

	r.mu.Lock()
	if _, taken := r.overlays[cfg.ID]; taken {
		r.mu.Unlock()
		vis.Cleanup()
		return "", fmt.Errorf("%w: %q", ErrDuplicateOverlay, cfg.ID)
	}
	r.overlays[cfg.ID] = e
	r.regOrder = append(r.regOrder, cfg.ID)
	if visible {
		r.noteOpenedLocked(cfg.ID, e)
	}
	change := r.changeLocked(cfg.ID)
	r.mu.Unlock()

	log.Debug(log.CatRegistry, "overlay registered", "id", cfg.ID, "visible", visible)
	r.broker.Publish(pubsub.RegisteredEvent, change)
	return cfg.ID, nil
}

// Unregister destroys an overlay entry: the visibility machine is released,
// the attachment fully detached (running every listener cleanup in order),
// and global bookkeeping reconciled as if the overlay had just closed, using
// the entry's scroll-lock snapshot. Unknown ids are a silent no-op.
func (r *Registry[E]) Unregister(id string) {
	r.mu.Lock()
	e, ok := r.overlays[id]
	if !ok {
		r.mu.Unlock()
		return
	}
	delete(r.overlays, id)
	r.regOrder = removeID(r.regOrder, id)
	r.noteClosedLocked(id, e)
	change := r.changeLocked(id)
	r.mu.Unlock()

	e.vis.Cleanup()
	e.att.Detach()

	log.Debug(log.CatRegistry, "overlay unregistered", "id", id)
	r.broker.Publish(pubsub.UnregisteredEvent, change)
}

// Open drives the entry's enter transition. The before-open hook may cancel
// the whole operation with no state change. Bookkeeping happens through the
// transition's completion callback, which fires synchronously once the enter
// state is established; an entry that is already fully shown skips the
// transition and is re-appended to the open order directly, so reopening
// always raises the overlay to topmost. Unknown ids are a silent no-op.
func (r *Registry[E]) Open(id string) {
	e := r.lookup(id)
	if e == nil {
		return
	}
	if e.cfg.OnBeforeOpen != nil {
		ev := &HookEvent{}
		e.cfg.OnBeforeOpen(ev)
		if ev.Cancel {
			log.Debug(log.CatRegistry, "open canceled by hook", "id", id)
			return
		}
	}

	// Set(true) is a no-op from Shown, so its completion callback would
	// never fire; re-top the entry here instead.
	if e.vis.Bool() {
		r.mu.Lock()
		if r.overlays[id] != e {
			r.mu.Unlock()
			return
		}
		r.noteOpenedLocked(id, e)
		change := r.changeLocked(id)
		r.mu.Unlock()

		log.Debug(log.CatRegistry, "overlay raised", "id", id)
		r.broker.Publish(pubsub.OpenedEvent, change)
		return
	}

	e.vis.Set(true, func() {
		r.mu.Lock()
		if r.overlays[id] != e {
			r.mu.Unlock()
			return
		}
		r.noteOpenedLocked(id, e)
		change := r.changeLocked(id)
		r.mu.Unlock()

		log.Debug(log.CatRegistry, "overlay opened", "id", id)
		r.broker.Publish(pubsub.OpenedEvent, change)
	})
}

// Close drives the entry's exit transition. The before-close hook may cancel
// with no state change. Bookkeeping happens through the completion callback
// fired once the delayed exit lands; afterwards the after-close hook runs
// (cancellation suppresses only the published notification) and the entry's
// attachment is fully detached. Unknown ids are a silent no-op.
func (r *Registry[E]) Close(id string) {
	e := r.lookup(id)
	if e == nil {
		return
	}
	if e.cfg.OnBeforeClose != nil {
		ev := &HookEvent{}
		e.cfg.OnBeforeClose(ev)
		if ev.Cancel {
			log.Debug(log.CatRegistry, "close canceled by hook", "id", id)
			return
		}
	}

	e.vis.Set(false, func() {
		r.mu.Lock()
		if r.overlays[id] != e {
			r.mu.Unlock()
			return
		}
		r.noteClosedLocked(id, e)
		change := r.changeLocked(id)
		r.mu.Unlock()

		suppressed := false
		if e.cfg.OnAfterClose != nil {
			ev := &HookEvent{}
			e.cfg.OnAfterClose(ev)
			suppressed = ev.Cancel
		}

		e.att.Detach()

		log.Debug(log.CatRegistry, "overlay closed", "id", id, "suppressed", suppressed)
		if !suppressed {
			r.broker.Publish(pubsub.ClosedEvent, change)
		}
	})
}

// CloseTopmost closes the topmost overlay if it closes on escape, reporting
// whether a close was initiated.
func (r *Registry[E]) CloseTopmost() bool {
	r.mu.Lock()
	id := r.topmost
	r.mu.Unlock()
	if id == "" || !r.ClosesOnEscape(id) {
		return false
	}
	r.Close(id)
	return true
}

// OutsideClick closes the topmost overlay if it closes on outside clicks,
// reporting whether a close was initiated.
func (r *Registry[E]) OutsideClick() bool {
	r.mu.Lock()
	id := r.topmost
	r.mu.Unlock()
	if id == "" || !r.ClosesOnOutsideClick(id) {
		return false
	}
	r.Close(id)
	return true
}

// RouteChanged closes every open overlay that closes on route changes.
func (r *Registry[E]) RouteChanged() {
	r.mu.Lock()
	open := make([]string, len(r.openOrder))
	copy(open, r.openOrder)
	r.mu.Unlock()

	for _, id := range open {
		if r.ClosesOnRouteChange(id) {
			r.Close(id)
		}
	}
}

// EvaluateConditions drives each entry with a ShowWhen predicate toward the
// predicate's current value. This is the deterministic dispatch point for
// externally-driven visibility: call it after the external state mutates.
func (r *Registry[E]) EvaluateConditions() {
	r.mu.Lock()
	ids := make([]string, len(r.regOrder))
	copy(ids, r.regOrder)
	r.mu.Unlock()

	for _, id := range ids {
		e := r.lookup(id)
		if e == nil || e.cfg.ShowWhen == nil {
			continue
		}
		want := e.cfg.ShowWhen()
		// Visible, not IsOpen: an entry mid-exit still counts as open, and
		// a predicate flipping back during Leaving must reopen it.
		if want && !r.Visible(id) {
			r.Open(id)
		} else if !want && r.IsOpen(id) {
			r.Close(id)
		}
	}
}

// Shutdown unregisters every overlay and closes the event broker.
func (r *Registry[E]) Shutdown() {
	r.mu.Lock()
	ids := make([]string, len(r.regOrder))
	copy(ids, r.regOrder)
	r.mu.Unlock()

	for _, id := range ids {
		r.Unregister(id)
	}
	r.broker.Close()
}

// === Queries ===

// IsOpen reports whether id is in the open set. An overlay stays open
// through its exit animation until the delayed transition lands.
func (r *Registry[E]) IsOpen(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, open := range r.openOrder {
		if open == id {
			return true
		}
	}
	return false
}

// IsTopmost reports whether id is the most recently opened overlay.
func (r *Registry[E]) IsTopmost(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return id != "" && r.topmost == id
}

// Topmost returns the topmost overlay id, if any.
func (r *Registry[E]) Topmost() (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.topmost, r.topmost != ""
}

// OpenOrder returns the open overlay ids bottom to top. Overlays playing
// their exit animation are still present. The rendering layer composites in
// this order.
func (r *Registry[E]) OpenOrder() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.openOrder))
	copy(out, r.openOrder)
	return out
}

// ScrollLockCount returns the scroll-lock reference count. Never negative.
func (r *Registry[E]) ScrollLockCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lockCount
}

// Visible reports whether id is fully visible (enter state established).
func (r *Registry[E]) Visible(id string) bool {
	e := r.lookup(id)
	return e != nil && e.vis.Bool()
}

// LazyVisible reports whether id's content must stay mounted: fully visible
// or exit animation in flight.
func (r *Registry[E]) LazyVisible(id string) bool {
	e := r.lookup(id)
	return e != nil && e.vis.Lazy()
}

// HasConditionalVisibility reports whether id declares a ShowWhen predicate.
func (r *Registry[E]) HasConditionalVisibility(id string) bool {
	e := r.lookup(id)
	return e != nil && e.cfg.ShowWhen != nil
}

// HasBackdrop reports the entry's backdrop flag, defaulting to true.
func (r *Registry[E]) HasBackdrop(id string) bool {
	e := r.lookup(id)
	return e != nil && flag(e.cfg.HasBackdrop)
}

// LocksScroll reports the entry's scroll-lock flag, defaulting to true.
func (r *Registry[E]) LocksScroll(id string) bool {
	e := r.lookup(id)
	return e != nil && flag(e.cfg.LockScroll)
}

// ClosesOnRouteChange reports the entry's flag, defaulting to true.
func (r *Registry[E]) ClosesOnRouteChange(id string) bool {
	e := r.lookup(id)
	return e != nil && flag(e.cfg.CloseOnRouteChange)
}

// ClosesOnOutsideClick reports the entry's flag, defaulting to true.
func (r *Registry[E]) ClosesOnOutsideClick(id string) bool {
	e := r.lookup(id)
	return e != nil && flag(e.cfg.CloseOnOutsideClick)
}

// ClosesOnEscape reports the entry's flag, defaulting to true.
func (r *Registry[E]) ClosesOnEscape(id string) bool {
	e := r.lookup(id)
	return e != nil && flag(e.cfg.CloseOnEscape)
}

// AttachFunc returns the element-binding callback the rendering layer calls
// with the mounted element (and its zero value on unmount). Nil for unknown
// ids.
func (r *Registry[E]) AttachFunc(id string) func(E) {
	e := r.lookup(id)
	if e == nil {
		return nil
	}
	return e.att.Attach
}

// OverlaysByPortal returns the content renderers of every entry whose
// PortalTarget equals target, in registration order.
func (r *Registry[E]) OverlaysByPortal(target string) []PortalOverlay {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []PortalOverlay
	for _, id := range r.regOrder {
		e := r.overlays[id]
		if e == nil || e.cfg.PortalTarget != target {
			continue
		}
		out = append(out, PortalOverlay{ID: id, Content: e.cfg.Content})
	}
	return out
}

// === Bookkeeping ===

func (r *Registry[E]) lookup(id string) *entry[E] {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.overlays[id]
}

// noteOpenedLocked folds an opened overlay into the global bookkeeping:
// re-append to the open order (most recently opened is last), retake
// topmost, and acquire the scroll lock if requested and not already held.
func (r *Registry[E]) noteOpenedLocked(id string, e *entry[E]) {
	r.openOrder = removeID(r.openOrder, id)
	r.openOrder = append(r.openOrder, id)
	r.topmost = id

	if flag(e.cfg.LockScroll) && !e.holdsLock {
		e.holdsLock = true
		r.lockCount++
		if r.lockCount == 1 {
			r.lockedOffset = r.view.Offset()
			r.view.SetLocked(true)
			log.Debug(log.CatRegistry, "scroll locked", "offset", r.lockedOffset)
		}
	}
}

// noteClosedLocked reconciles the global bookkeeping for a closed overlay:
// drop it from the open order, recompute topmost, and release its scroll
// lock, restoring the captured offset when the count returns to zero. The
// count is clamped at zero; an underflow is logged as an inconsistency, not
// treated as fatal.
func (r *Registry[E]) noteClosedLocked(id string, e *entry[E]) {
	r.openOrder = removeID(r.openOrder, id)
	if n := len(r.openOrder); n > 0 {
		r.topmost = r.openOrder[n-1]
	} else {
		r.topmost = ""
	}

	if !e.holdsLock {
		return
	}
	e.holdsLock = false
	if r.lockCount == 0 {
		log.Warn(log.CatRegistry, "scroll lock underflow clamped", "id", id)
		return
	}
	r.lockCount--
	if r.lockCount == 0 {
		r.view.SetOffset(r.lockedOffset)
		r.view.SetLocked(false)
		log.Debug(log.CatRegistry, "scroll unlocked", "offset", r.lockedOffset)
	}
}

func (r *Registry[E]) changeLocked(id string) Change {
	return Change{
		ID:        id,
		Topmost:   r.topmost,
		OpenCount: len(r.openOrder),
		LockCount: r.lockCount,
	}
}

func removeID(ids []string, id string) []string {
	for i, v := range ids {
		if v == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}
