package compositor

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zjrosen/veil/internal/node"
	"github.com/zjrosen/veil/internal/registry"
	"github.com/zjrosen/veil/internal/sched"
)

const stackDelay = 150 * time.Millisecond

func newTestStack(t *testing.T) (*Stack, *registry.Registry[*node.Node], *sched.Manual) {
	t.Helper()
	clock := sched.NewManual()
	reg := registry.New[*node.Node](
		registry.WithScheduler(clock),
		registry.WithViewport(registry.NopViewport{}),
		registry.WithDefaultDelay(stackDelay),
	)
	s := NewStack(reg)
	s.SetSize(40, 12)
	return s, reg, clock
}

func baseView() string {
	line := strings.Repeat(".", 40)
	lines := make([]string, 12)
	for i := range lines {
		lines[i] = line
	}
	return strings.Join(lines, "\n")
}

func TestStack_RenderClosedOverlayLeavesBaseUntouched(t *testing.T) {
	s, reg, _ := newTestStack(t)
	_, err := reg.Register(registry.Config{
		ID:      "modal",
		Content: func() string { return "hello" },
	})
	require.NoError(t, err)

	out := s.Render(baseView())

	assert.Equal(t, baseView(), out)
	assert.False(t, s.Mounted("modal"))
}

func TestStack_RenderOpenOverlayMountsAndComposites(t *testing.T) {
	s, reg, clock := newTestStack(t)
	reg.Register(registry.Config{
		ID:          "modal",
		HasBackdrop: registry.Bool(false),
		Content:     func() string { return "hello" },
	})

	reg.Open("modal")
	out := s.Render(baseView())
	clock.Fire() // enter class lands on the next frame

	assert.True(t, s.Mounted("modal"))
	assert.Contains(t, out, "hello")
}

func TestStack_BackdropKeepsViewportShape(t *testing.T) {
	s, reg, _ := newTestStack(t)
	reg.Register(registry.Config{
		ID:      "modal",
		Content: func() string { return "hi" },
	})

	reg.Open("modal")
	out := s.Render(baseView())

	// The scrim restyles the base but never changes its geometry
	assert.Len(t, strings.Split(out, "\n"), 12)
	assert.Contains(t, out, "hi")
}

func TestStack_ExitKeepsContentMountedUntilLanded(t *testing.T) {
	s, reg, clock := newTestStack(t)
	reg.Register(registry.Config{
		ID:      "modal",
		Content: func() string { return "bye" },
	})

	reg.Open("modal")
	s.Render(baseView())
	clock.Fire()

	reg.Close("modal")
	out := s.Render(baseView())
	assert.True(t, s.Mounted("modal"), "exit animation keeps the box on screen")
	assert.Contains(t, out, "bye")

	clock.Advance(stackDelay)
	out = s.Render(baseView())
	assert.False(t, s.Mounted("modal"))
	assert.NotContains(t, out, "bye")
}

func TestStack_ToastAnchorsTopRight(t *testing.T) {
	s, reg, _ := newTestStack(t)
	reg.Register(registry.Config{
		ID:           "toast",
		PortalTarget: PortalToasts,
		HasBackdrop:  registry.Bool(false),
		LockScroll:   registry.Bool(false),
		Content:      func() string { return "saved" },
	})

	reg.Open("toast")
	out := s.Render(baseView())

	lines := strings.Split(out, "\n")
	assert.Equal(t, strings.Repeat(".", 40), lines[0], "toast row starts below the top edge")
	assert.Contains(t, out, "saved")
}

func TestStack_CompositesInOpenOrder(t *testing.T) {
	s, reg, _ := newTestStack(t)
	reg.Register(registry.Config{
		ID:          "under",
		HasBackdrop: registry.Bool(false),
		Content:     func() string { return "UNDER" },
	})
	reg.Register(registry.Config{
		ID:          "over",
		HasBackdrop: registry.Bool(false),
		Content:     func() string { return "OVER" },
	})

	reg.Open("under")
	reg.Open("over")
	out := s.Render(baseView())

	// Both centered at the same anchor, so the later layer wins the overlap
	assert.Contains(t, out, "OVER")
}
