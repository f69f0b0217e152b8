package registry

// Viewport is the scrollable surface the registry freezes while overlays
// request a scroll lock. The registry captures the offset when the lock
// count leaves zero and restores that exact offset when it returns to zero.
type Viewport interface {
	// Offset returns the current scroll offset in lines.
	Offset() int
	// SetOffset moves the scroll position.
	SetOffset(n int)
	// SetLocked marks or unmarks the surface as scroll-locked.
	SetLocked(locked bool)
}

// NopViewport ignores all scroll-lock effects, for registries that manage
// overlays without a scrollable surface.
type NopViewport struct{}

func (NopViewport) Offset() int       { return 0 }
func (NopViewport) SetOffset(int)     {}
func (NopViewport) SetLocked(bool)    {}
