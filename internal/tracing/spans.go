package tracing

// Span attribute keys for overlay lifecycle tracing.
const (
	AttrOverlayID = "overlay.id"
	AttrTopmost   = "overlay.topmost"
	AttrOpenCount = "registry.open_count"
	AttrLockCount = "registry.lock_count"
)

// Span name prefixes for consistent naming.
const (
	SpanPrefixOverlay = "overlay."
)

// Event names for span events.
const (
	EventRegistered   = "overlay.registered"
	EventUnregistered = "overlay.unregistered"
)
