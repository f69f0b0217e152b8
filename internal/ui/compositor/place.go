// Package compositor renders overlay layers on top of a base view without
// clearing the screen.
package compositor

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

// Anchor specifies where a layer lands inside the viewport.
type Anchor int

const (
	// Center anchors the layer in the middle of the viewport.
	Center Anchor = iota
	// Top anchors the layer at the top center.
	Top
	// Bottom anchors the layer at the bottom center.
	Bottom
	// TopRight anchors the layer in the top right corner. Used for stacked
	// toast notifications.
	TopRight
)

// Layout controls where and inside what viewport a layer is spliced.
type Layout struct {
	// Width is the total viewport width.
	Width int
	// Height is the total viewport height.
	Height int
	// Anchor specifies where to land the layer.
	Anchor Anchor
	// PadX insets the layer from the left/right edge for edge anchors.
	PadX int
	// PadY insets the layer from the top/bottom edge for edge anchors.
	PadY int
}

// Place splices a layer over the base view at the layout's anchor.
// Both strings may carry ANSI styling; the splice is width-aware so escape
// sequences on either side of the layer survive.
func Place(l Layout, layer, base string) string {
	layerLines := strings.Split(layer, "\n")
	baseLines := strings.Split(base, "\n")

	for len(baseLines) < l.Height {
		baseLines = append(baseLines, strings.Repeat(" ", l.Width))
	}

	startX, startY := anchorOrigin(l, lipgloss.Width(layer), len(layerLines))

	for i, layerLine := range layerLines {
		y := startY + i
		if y >= len(baseLines) {
			break
		}

		baseLine := baseLines[y]
		layerWidth := ansi.StringWidth(layerLine)

		left := ansi.Truncate(baseLine, startX, "")
		if w := ansi.StringWidth(left); w < startX {
			left += strings.Repeat(" ", startX-w)
		}

		endX := startX + layerWidth
		var right string
		if endX < ansi.StringWidth(baseLine) {
			// TruncateLeft drops columns from the left, keeping the rest
			right = ansi.TruncateLeft(baseLine, endX, "")
		}

		baseLines[y] = left + layerLine + right
	}

	return strings.Join(baseLines, "\n")
}

// anchorOrigin resolves the layer's top-left coordinates, clamped inside the
// viewport.
func anchorOrigin(l Layout, layerWidth, layerHeight int) (x, y int) {
	switch l.Anchor {
	case Top:
		x = (l.Width - layerWidth) / 2
		y = l.PadY
	case Bottom:
		x = (l.Width - layerWidth) / 2
		y = l.Height - layerHeight - l.PadY
	case TopRight:
		x = l.Width - layerWidth - l.PadX
		y = l.PadY
	default: // Center
		x = (l.Width - layerWidth) / 2
		y = (l.Height - layerHeight) / 2
	}

	if x < 0 {
		x = 0
	}
	if y < 0 {
		y = 0
	}
	return x, y
}
