package registry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zjrosen/veil/internal/node"
	"github.com/zjrosen/veil/internal/pubsub"
	"github.com/zjrosen/veil/internal/sched"
)

const testDelay = 200 * time.Millisecond

// stubViewport records scroll-lock effects.
type stubViewport struct {
	offset int
	locked bool
}

func (v *stubViewport) Offset() int      { return v.offset }
func (v *stubViewport) SetOffset(n int)  { v.offset = n }
func (v *stubViewport) SetLocked(l bool) { v.locked = l }

func newTestRegistry(t *testing.T) (*Registry[*node.Node], *sched.Manual, *stubViewport) {
	t.Helper()
	clock := sched.NewManual()
	view := &stubViewport{}
	reg := New[*node.Node](
		WithScheduler(clock),
		WithViewport(view),
		WithDefaultDelay(testDelay),
	)
	return reg, clock, view
}

// === Register / Unregister ===

func TestRegister_GeneratesID(t *testing.T) {
	reg, _, _ := newTestRegistry(t)

	id, err := reg.Register(Config{})
	require.NoError(t, err)
	require.NotEmpty(t, id)
	assert.False(t, reg.IsOpen(id))
}

func TestRegister_DuplicateIDFails(t *testing.T) {
	reg, _, _ := newTestRegistry(t)

	_, err := reg.Register(Config{ID: "m1"})
	require.NoError(t, err)

	_, err = reg.Register(Config{ID: "m1"})
	require.ErrorIs(t, err, ErrDuplicateOverlay)
}

func TestRegister_InitiallyVisibleFoldsIntoBookkeeping(t *testing.T) {
	reg, _, view := newTestRegistry(t)
	view.offset = 12

	id, err := reg.Register(Config{ID: "m1", InitiallyVisible: true})
	require.NoError(t, err)

	assert.True(t, reg.IsOpen(id))
	assert.True(t, reg.IsTopmost(id))
	assert.Equal(t, 1, reg.ScrollLockCount())
	assert.True(t, view.locked)
}

func TestRegister_BeforeOpenCancelForcesHidden(t *testing.T) {
	reg, _, _ := newTestRegistry(t)

	id, err := reg.Register(Config{
		ID:               "m1",
		InitiallyVisible: true,
		OnBeforeOpen:     func(ev *HookEvent) { ev.Cancel = true },
	})
	require.NoError(t, err)

	assert.False(t, reg.IsOpen(id))
	assert.False(t, reg.Visible(id))
	assert.Equal(t, 0, reg.ScrollLockCount())
}

func TestUnregister_UnknownIsNoOp(t *testing.T) {
	reg, _, _ := newTestRegistry(t)
	reg.Unregister("ghost") // no panic, no effect
	assert.Equal(t, 0, reg.ScrollLockCount())
}

func TestUnregister_ReconcilesAsClose(t *testing.T) {
	reg, _, view := newTestRegistry(t)
	view.offset = 30

	id, _ := reg.Register(Config{ID: "m1", InitiallyVisible: true})
	require.Equal(t, 1, reg.ScrollLockCount())

	view.offset = 99 // drifts while locked (e.g. programmatic scroll)
	reg.Unregister(id)

	assert.False(t, reg.IsOpen(id))
	assert.Equal(t, 0, reg.ScrollLockCount())
	assert.False(t, view.locked)
	assert.Equal(t, 30, view.offset, "captured pre-lock offset restored")

	_, ok := reg.Topmost()
	assert.False(t, ok)
}

func TestUnregister_RunsAttachmentCleanups(t *testing.T) {
	reg, _, _ := newTestRegistry(t)
	id, _ := reg.Register(Config{ID: "m1"})

	cleaned := false
	n := node.New("m1")
	af := reg.AttachFunc(id)
	require.NotNil(t, af)
	af(n)

	e := reg.lookup(id)
	require.NotNil(t, e)
	e.att.OnAttach(func(*node.Node) func() {
		return func() { cleaned = true }
	})

	reg.Unregister(id)
	assert.True(t, cleaned)
	assert.Nil(t, reg.AttachFunc(id))
}

// === The concrete open/close scenario ===

func TestOpenClose_Scenario(t *testing.T) {
	reg, clock, view := newTestRegistry(t)
	view.offset = 40

	_, err := reg.Register(Config{
		ID:             "m1",
		LockScroll:     Bool(true),
		AnimationDelay: 200 * time.Millisecond,
	})
	require.NoError(t, err)

	reg.Open("m1")
	assert.True(t, reg.IsOpen("m1"), "open set updated synchronously")
	assert.True(t, reg.Visible("m1"))
	assert.Equal(t, 1, reg.ScrollLockCount())
	assert.True(t, view.locked)

	view.offset = 77
	reg.Close("m1")
	assert.True(t, reg.IsOpen("m1"), "stays open through the exit animation")
	assert.True(t, reg.LazyVisible("m1"))
	assert.False(t, reg.Visible("m1"))
	assert.Equal(t, 1, reg.ScrollLockCount())

	clock.Advance(199 * time.Millisecond)
	assert.True(t, reg.IsOpen("m1"))

	clock.Advance(1 * time.Millisecond)
	assert.False(t, reg.IsOpen("m1"))
	assert.False(t, reg.LazyVisible("m1"))
	assert.Equal(t, 0, reg.ScrollLockCount())
	assert.False(t, view.locked)
	assert.Equal(t, 40, view.offset, "pre-lock scroll position restored")
}

func TestOpen_UnknownIsNoOp(t *testing.T) {
	reg, _, _ := newTestRegistry(t)
	reg.Open("ghost")
	reg.Close("ghost")
	assert.Equal(t, 0, reg.ScrollLockCount())
}

func TestOpen_AlreadyOpenKeepsSingleLock(t *testing.T) {
	reg, _, _ := newTestRegistry(t)
	reg.Register(Config{ID: "m1"})

	reg.Open("m1")
	reg.Open("m1")

	assert.Equal(t, 1, reg.ScrollLockCount())
}

func TestClose_WhileClosingDoesNotRestartExit(t *testing.T) {
	reg, clock, _ := newTestRegistry(t)
	reg.Register(Config{ID: "m1"})
	reg.Open("m1")

	reg.Close("m1")
	clock.Advance(testDelay / 2)
	reg.Close("m1")
	clock.Advance(testDelay / 2)

	assert.False(t, reg.IsOpen("m1"), "original deadline still lands")
}

func TestReopen_DuringExitKeepsOverlayMounted(t *testing.T) {
	reg, clock, _ := newTestRegistry(t)
	reg.Register(Config{ID: "m1"})

	reg.Open("m1")
	reg.Close("m1")
	reg.Open("m1")
	clock.Advance(2 * testDelay)

	assert.True(t, reg.IsOpen("m1"))
	assert.True(t, reg.Visible("m1"))
	assert.Equal(t, 1, reg.ScrollLockCount(), "canceled exit never released the lock")
}

// === Hooks ===

func TestOpen_BeforeHookCancelAborts(t *testing.T) {
	reg, _, _ := newTestRegistry(t)
	reg.Register(Config{
		ID:           "m1",
		OnBeforeOpen: func(ev *HookEvent) { ev.Cancel = true },
	})

	reg.Open("m1")

	assert.False(t, reg.IsOpen("m1"))
	assert.Equal(t, 0, reg.ScrollLockCount())
}

func TestClose_BeforeHookCancelAborts(t *testing.T) {
	reg, clock, _ := newTestRegistry(t)
	reg.Register(Config{
		ID:            "m1",
		OnBeforeClose: func(ev *HookEvent) { ev.Cancel = true },
	})
	reg.Open("m1")

	reg.Close("m1")
	clock.Advance(testDelay)

	assert.True(t, reg.IsOpen("m1"), "canceled close leaves state untouched")
	assert.True(t, reg.Visible("m1"))
}

func TestClose_AfterHookRunsOnceLanded(t *testing.T) {
	reg, clock, _ := newTestRegistry(t)
	ran := false
	reg.Register(Config{
		ID:           "m1",
		OnAfterClose: func(*HookEvent) { ran = true },
	})
	reg.Open("m1")
	reg.Close("m1")

	assert.False(t, ran, "after hook waits for the exit to land")
	clock.Advance(testDelay)
	assert.True(t, ran)
}

func TestClose_AfterHookCancelSuppressesNotificationOnly(t *testing.T) {
	reg, clock, _ := newTestRegistry(t)
	reg.Register(Config{
		ID:           "m1",
		OnAfterClose: func(ev *HookEvent) { ev.Cancel = true },
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events := reg.Subscribe(ctx)

	reg.Open("m1")
	reg.Close("m1")
	clock.Advance(testDelay)

	// State is committed despite the cancel.
	assert.False(t, reg.IsOpen("m1"))

	// Drain: no ClosedEvent may appear.
	deadline := time.After(100 * time.Millisecond)
	for {
		select {
		case ev := <-events:
			require.NotEqual(t, pubsub.ClosedEvent, ev.Type)
		case <-deadline:
			return
		}
	}
}

// === Z-order ===

func TestTopmost_ReopenMovesToTop(t *testing.T) {
	reg, clock, _ := newTestRegistry(t)
	reg.Register(Config{ID: "A"})
	reg.Register(Config{ID: "B"})

	reg.Open("A")
	reg.Open("B")
	reg.Open("A")

	assert.True(t, reg.IsTopmost("A"))
	assert.False(t, reg.IsTopmost("B"))

	reg.Close("A")
	clock.Advance(testDelay)

	assert.True(t, reg.IsTopmost("B"))
	assert.False(t, reg.IsOpen("A"))
}

func TestTopmost_ReopenKeepsSingleLock(t *testing.T) {
	reg, _, view := newTestRegistry(t)
	reg.Register(Config{ID: "A"})
	reg.Register(Config{ID: "B"})

	reg.Open("A")
	reg.Open("B")
	reg.Open("A")

	assert.Equal(t, []string{"B", "A"}, reg.OpenOrder())
	assert.Equal(t, 2, reg.ScrollLockCount())
	assert.True(t, view.locked)
}

func TestTopmost_EmptyWhenNothingOpen(t *testing.T) {
	reg, _, _ := newTestRegistry(t)
	_, ok := reg.Topmost()
	assert.False(t, ok)
	assert.False(t, reg.IsTopmost(""))
}

// === Behavior flags and dispatch ===

func TestFlags_DefaultTrue(t *testing.T) {
	reg, _, _ := newTestRegistry(t)
	reg.Register(Config{ID: "m1"})

	assert.True(t, reg.HasBackdrop("m1"))
	assert.True(t, reg.LocksScroll("m1"))
	assert.True(t, reg.ClosesOnRouteChange("m1"))
	assert.True(t, reg.ClosesOnOutsideClick("m1"))
	assert.True(t, reg.ClosesOnEscape("m1"))
	assert.False(t, reg.HasConditionalVisibility("m1"))

	// Unknown ids answer false across the board.
	assert.False(t, reg.HasBackdrop("ghost"))
	assert.False(t, reg.LocksScroll("ghost"))
}

func TestFlags_ExplicitFalse(t *testing.T) {
	reg, _, _ := newTestRegistry(t)
	reg.Register(Config{
		ID:                  "m1",
		HasBackdrop:         Bool(false),
		LockScroll:          Bool(false),
		CloseOnRouteChange:  Bool(false),
		CloseOnOutsideClick: Bool(false),
		CloseOnEscape:       Bool(false),
	})

	assert.False(t, reg.HasBackdrop("m1"))
	assert.False(t, reg.LocksScroll("m1"))

	reg.Open("m1")
	assert.Equal(t, 0, reg.ScrollLockCount())
}

func TestCloseTopmost_HonorsEscapeFlag(t *testing.T) {
	reg, clock, _ := newTestRegistry(t)
	reg.Register(Config{ID: "pinned", CloseOnEscape: Bool(false)})
	reg.Register(Config{ID: "modal"})

	reg.Open("modal")
	reg.Open("pinned")

	assert.False(t, reg.CloseTopmost(), "topmost refuses escape")
	assert.True(t, reg.IsOpen("pinned"))

	reg.Close("pinned")
	clock.Advance(testDelay)

	assert.True(t, reg.CloseTopmost())
	clock.Advance(testDelay)
	assert.False(t, reg.IsOpen("modal"))
}

func TestRouteChanged_ClosesOnlyRouteBound(t *testing.T) {
	reg, clock, _ := newTestRegistry(t)
	reg.Register(Config{ID: "nav"})
	reg.Register(Config{ID: "sticky", CloseOnRouteChange: Bool(false)})

	reg.Open("nav")
	reg.Open("sticky")

	reg.RouteChanged()
	clock.Advance(testDelay)

	assert.False(t, reg.IsOpen("nav"))
	assert.True(t, reg.IsOpen("sticky"))
}

func TestEvaluateConditions(t *testing.T) {
	reg, clock, _ := newTestRegistry(t)
	show := false
	reg.Register(Config{ID: "cond", ShowWhen: func() bool { return show }})

	assert.True(t, reg.HasConditionalVisibility("cond"))

	reg.EvaluateConditions()
	assert.False(t, reg.IsOpen("cond"))

	show = true
	reg.EvaluateConditions()
	assert.True(t, reg.IsOpen("cond"))

	show = false
	reg.EvaluateConditions()
	clock.Advance(testDelay)
	assert.False(t, reg.IsOpen("cond"))
}

func TestEvaluateConditions_ReopensDuringExit(t *testing.T) {
	reg, clock, _ := newTestRegistry(t)
	show := true
	reg.Register(Config{ID: "cond", ShowWhen: func() bool { return show }})

	reg.EvaluateConditions()
	require.True(t, reg.Visible("cond"))

	// Start the exit, then flip the predicate back before the exit lands.
	show = false
	reg.EvaluateConditions()
	require.False(t, reg.Visible("cond"))
	require.True(t, reg.IsOpen("cond"))

	show = true
	reg.EvaluateConditions()
	assert.True(t, reg.Visible("cond"))

	// The canceled exit timer must not land the overlay hidden.
	clock.Advance(testDelay)
	assert.True(t, reg.IsOpen("cond"))
	assert.True(t, reg.Visible("cond"))
}

// === Portals ===

func TestOverlaysByPortal_RegistrationOrder(t *testing.T) {
	reg, _, _ := newTestRegistry(t)
	reg.Register(Config{ID: "b", PortalTarget: "toasts", Content: func() string { return "B" }})
	reg.Register(Config{ID: "a", PortalTarget: "main", Content: func() string { return "A" }})
	reg.Register(Config{ID: "c", PortalTarget: "toasts", Content: func() string { return "C" }})

	got := reg.OverlaysByPortal("toasts")
	require.Len(t, got, 2)
	assert.Equal(t, "b", got[0].ID)
	assert.Equal(t, "c", got[1].ID)
	assert.Equal(t, "B", got[0].Content())
	assert.Equal(t, "C", got[1].Content())

	assert.Empty(t, reg.OverlaysByPortal("missing"))
}

// === Events ===

func TestSubscribe_PublishesLifecycle(t *testing.T) {
	reg, clock, _ := newTestRegistry(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events := reg.Subscribe(ctx)

	reg.Register(Config{ID: "m1"})
	reg.Open("m1")
	reg.Close("m1")
	clock.Advance(testDelay)
	reg.Unregister("m1")

	want := []pubsub.EventType{
		pubsub.RegisteredEvent,
		pubsub.OpenedEvent,
		pubsub.ClosedEvent,
		pubsub.UnregisteredEvent,
	}
	for _, wantType := range want {
		select {
		case ev := <-events:
			assert.Equal(t, wantType, ev.Type)
			assert.Equal(t, "m1", ev.Payload.ID)
		case <-time.After(time.Second):
			require.Fail(t, "timeout waiting for event", "want %s", wantType)
		}
	}
}

func TestShutdown(t *testing.T) {
	reg, _, view := newTestRegistry(t)
	reg.Register(Config{ID: "a", InitiallyVisible: true})
	reg.Register(Config{ID: "b", InitiallyVisible: true})

	reg.Shutdown()

	assert.Equal(t, 0, reg.ScrollLockCount())
	assert.False(t, view.locked)
	assert.False(t, reg.IsOpen("a"))
	assert.False(t, reg.IsOpen("b"))
}
