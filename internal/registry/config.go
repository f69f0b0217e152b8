package registry

import (
	"time"
)

// HookEvent is the single mutable flag a hook may set to abort the pending
// action.
type HookEvent struct {
	Cancel bool
}

// Hook is a cancelable lifecycle callback supplied by the overlay owner.
type Hook func(*HookEvent)

// Config is the overlay configuration surface. The behavior flags are
// three-valued so "unspecified" can default to true; use Bool to set them.
type Config struct {
	// ID is the unique overlay key. Left empty, a uuid is generated.
	ID string

	// PortalTarget names the compositing layer this overlay renders into.
	PortalTarget string

	// HasBackdrop renders a dimmed backdrop behind the overlay. Default true.
	HasBackdrop *bool

	// ShowWhen is an externally-driven visibility condition, evaluated by
	// EvaluateConditions.
	ShowWhen func() bool

	// LockScroll freezes the viewport while this overlay is open. Default true.
	LockScroll *bool

	// CloseOnRouteChange closes the overlay on RouteChanged. Default true.
	CloseOnRouteChange *bool

	// CloseOnOutsideClick closes the overlay (when topmost) on OutsideClick.
	// Default true.
	CloseOnOutsideClick *bool

	// CloseOnEscape closes the overlay (when topmost) on CloseTopmost.
	// Default true.
	CloseOnEscape *bool

	// AnimationDelay is the exit animation duration. Zero uses the registry
	// default.
	AnimationDelay time.Duration

	// InitiallyVisible opens the overlay as part of registration.
	InitiallyVisible bool

	// EnterClass and ExitClass are the class names swapped on the bound
	// element across transitions.
	EnterClass string
	ExitClass  string

	// OnBeforeOpen runs before an open; cancellation aborts it. During
	// registration of an initially-visible overlay, cancellation forces the
	// initial state hidden.
	OnBeforeOpen Hook

	// OnBeforeClose runs before a close; cancellation aborts it.
	OnBeforeClose Hook

	// OnAfterClose runs once the delayed exit has landed. Cancellation only
	// suppresses the published closed notification; the transition itself is
	// already committed.
	OnAfterClose Hook

	// Content produces the overlay's displayable content.
	Content func() string
}

// Bool returns a pointer for the three-valued behavior flags.
func Bool(v bool) *bool {
	return &v
}

// flag resolves a behavior flag with its default-true semantics.
func flag(p *bool) bool {
	if p == nil {
		return true
	}
	return *p
}
