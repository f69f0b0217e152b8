package registry

import "errors"

// Sentinel errors for inspection with errors.Is.
var (
	// ErrDuplicateOverlay is returned by Register when the id is taken.
	ErrDuplicateOverlay = errors.New("registry: overlay id already registered")
)
