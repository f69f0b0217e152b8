package compositor

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPlace_Center(t *testing.T) {
	base := "AAAAA\nAAAAA\nAAAAA"
	layer := "XX\nXX"
	l := Layout{Width: 5, Height: 3, Anchor: Center}

	result := Place(l, layer, base)

	lines := strings.Split(result, "\n")
	assert.Len(t, lines, 3)
	// Middle line should have XX centered (position 1-2 in 0-4)
	assert.Contains(t, lines[1], "XX")
}

func TestPlace_Center_LargeLayer(t *testing.T) {
	base := "AAA\nAAA\nAAA"
	layer := "XXXXX\nXXXXX"
	l := Layout{Width: 3, Height: 3, Anchor: Center}

	result := Place(l, layer, base)

	// Should not panic, layer starts at x=0, y=0
	lines := strings.Split(result, "\n")
	assert.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "XXXXX") || strings.HasPrefix(lines[1], "XXXXX"))
}

func TestPlace_Top_WithPadding(t *testing.T) {
	base := "AAAAA\nAAAAA\nAAAAA\nAAAAA\nAAAAA"
	layer := "XX"
	l := Layout{Width: 5, Height: 5, Anchor: Top, PadY: 1}

	result := Place(l, layer, base)

	lines := strings.Split(result, "\n")
	// First line should be untouched base
	assert.Equal(t, "AAAAA", lines[0])
	assert.Contains(t, lines[1], "XX")
}

func TestPlace_Bottom_WithPadding(t *testing.T) {
	base := "AAAAA\nAAAAA\nAAAAA\nAAAAA\nAAAAA"
	layer := "XX"
	l := Layout{Width: 5, Height: 5, Anchor: Bottom, PadY: 1}

	result := Place(l, layer, base)

	lines := strings.Split(result, "\n")
	assert.Equal(t, "AAAAA", lines[4])
	assert.Contains(t, lines[3], "XX")
}

func TestPlace_TopRight(t *testing.T) {
	base := "AAAAA\nAAAAA\nAAAAA"
	layer := "XX"
	l := Layout{Width: 5, Height: 3, Anchor: TopRight, PadX: 1, PadY: 0}

	result := Place(l, layer, base)

	lines := strings.Split(result, "\n")
	// Inset one column from the right edge
	assert.Equal(t, "AAXXA", lines[0])
}

func TestPlace_EmptyBase(t *testing.T) {
	layer := "XX\nXX"
	l := Layout{Width: 5, Height: 3, Anchor: Center}

	result := Place(l, layer, "")

	lines := strings.Split(result, "\n")
	assert.Len(t, lines, 3)
}

func TestPlace_PreservesBaseOnSides(t *testing.T) {
	base := "ABCDE\nFGHIJ\nKLMNO"
	layer := "X"
	l := Layout{Width: 5, Height: 3, Anchor: Center}

	result := Place(l, layer, base)

	lines := strings.Split(result, "\n")
	// X lands at position 2 with FG on the left and IJ on the right
	assert.Equal(t, "FGXIJ", lines[1])
}

func TestPlace_PreservesANSI(t *testing.T) {
	base := "\x1b[31mRED\x1b[0m\n\x1b[31mRED\x1b[0m\n\x1b[31mRED\x1b[0m"
	layer := "X"
	l := Layout{Width: 3, Height: 3, Anchor: Center}

	result := Place(l, layer, base)

	assert.Contains(t, result, "\x1b[31m")
}

func TestAnchorOrigin_Center(t *testing.T) {
	l := Layout{Width: 10, Height: 10, Anchor: Center}

	x, y := anchorOrigin(l, 4, 2)

	assert.Equal(t, 3, x) // (10-4)/2 = 3
	assert.Equal(t, 4, y) // (10-2)/2 = 4
}

func TestAnchorOrigin_TopRight(t *testing.T) {
	l := Layout{Width: 10, Height: 10, Anchor: TopRight, PadX: 2, PadY: 1}

	x, y := anchorOrigin(l, 4, 2)

	assert.Equal(t, 4, x) // 10 - 4 - 2
	assert.Equal(t, 1, y)
}

func TestAnchorOrigin_NegativeClamping(t *testing.T) {
	// Layer larger than viewport
	l := Layout{Width: 5, Height: 5, Anchor: Center}

	x, y := anchorOrigin(l, 10, 10)

	assert.Equal(t, 0, x)
	assert.Equal(t, 0, y)
}
