package compositor

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	zone "github.com/lrstanley/bubblezone"
	"github.com/muesli/reflow/wordwrap"

	"github.com/zjrosen/veil/internal/cachemanager"
	"github.com/zjrosen/veil/internal/log"
	"github.com/zjrosen/veil/internal/node"
	"github.com/zjrosen/veil/internal/registry"
	"github.com/zjrosen/veil/internal/ui/styles"
)

// Portal targets the stack knows how to lay out.
const (
	// PortalMain is the default target: overlays centered over the base view.
	PortalMain = ""
	// PortalToasts stacks overlays down the top right corner.
	PortalToasts = "toasts"
)

// zonePrefix namespaces overlay boxes in the global bubblezone manager.
const zonePrefix = "veil-overlay:"

const frameTTL = time.Minute

// ZoneID returns the bubblezone id marking an overlay's rendered box.
func ZoneID(overlayID string) string {
	return zonePrefix + overlayID
}

// boxInput carries everything a single overlay box needs to render.
type boxInput struct {
	id      string
	body    string
	classes []string
	width   int
	topmost bool
}

// Stack drives the mount/unmount lifecycle of overlay nodes and composites
// every renderable overlay over a base view. It is the terminal counterpart
// of a portal root: the registry decides what is open, the stack decides
// what is on screen.
type Stack struct {
	reg    *registry.Registry[*node.Node]
	cache  *cachemanager.ReadThroughCache[string, string, boxInput]
	width  int
	height int

	// mounted tracks the node bound to each overlay while its content must
	// stay on screen, including through the exit animation.
	mounted map[string]*node.Node

	markZones bool
}

// StackOption configures a Stack.
type StackOption func(*Stack)

// WithZoneMarks wraps each rendered overlay box in a bubblezone mark so
// mouse hits can be resolved to overlay ids.
func WithZoneMarks() StackOption {
	return func(s *Stack) { s.markZones = true }
}

// WithFrameCacheDisabled re-renders every box on every frame. Wired to the
// debug config.
func WithFrameCacheDisabled() StackOption {
	return func(s *Stack) { s.cache = nil }
}

// NewStack builds a stack over the registry. Rendered boxes are memoized in
// an in-memory cache keyed by overlay id, transition classes and width.
func NewStack(reg *registry.Registry[*node.Node], opts ...StackOption) *Stack {
	s := &Stack{
		reg:     reg,
		mounted: make(map[string]*node.Node),
	}
	manager := cachemanager.NewInMemoryCacheManager[string, string](
		"frame-cache",
		cachemanager.DefaultExpiration,
		cachemanager.DefaultCleanupInterval,
	)
	s.cache = cachemanager.NewReadThroughCache[string, string, boxInput](
		manager, renderBox, false,
	)
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetSize updates the viewport dimensions.
func (s *Stack) SetSize(width, height int) {
	s.width = width
	s.height = height
}

// Render reconciles node mounts against the registry and composites every
// renderable overlay over base, bottom to top. A backdrop overlay dims the
// base view first.
func (s *Stack) Render(base string) string {
	out := base

	open := s.reg.OpenOrder()
	s.reconcile(open)

	if s.hasBackdrop(open) {
		out = s.dim(out)
	}

	toastRow := 1
	for _, id := range open {
		frame, portal, ok := s.frame(id)
		if !ok {
			continue
		}

		switch portal {
		case PortalToasts:
			out = Place(Layout{
				Width:  s.width,
				Height: s.height,
				Anchor: TopRight,
				PadX:   2,
				PadY:   toastRow,
			}, frame, out)
			toastRow += lipgloss.Height(frame) + 1
		default:
			out = Place(Layout{
				Width:  s.width,
				Height: s.height,
				Anchor: Center,
			}, frame, out)
		}
	}

	return out
}

// Mounted reports whether an overlay currently has a bound node. Exposed for
// the playground's debug pane.
func (s *Stack) Mounted(id string) bool {
	_, ok := s.mounted[id]
	return ok
}

// reconcile binds a node for every overlay whose content must stay on screen
// and unbinds the rest. Binding goes through the registry's attachment so
// queued transition swaps land on the node.
func (s *Stack) reconcile(open []string) {
	keep := make(map[string]bool, len(open))
	for _, id := range open {
		keep[id] = true
		if _, ok := s.mounted[id]; ok {
			continue
		}
		af := s.reg.AttachFunc(id)
		if af == nil {
			continue
		}
		n := node.New(id)
		af(n)
		s.mounted[id] = n
		log.Debug(log.CatUI, "overlay mounted", "id", id)
	}

	for id := range s.mounted {
		if keep[id] && s.reg.LazyVisible(id) {
			continue
		}
		if af := s.reg.AttachFunc(id); af != nil {
			af(nil)
		}
		delete(s.mounted, id)
		log.Debug(log.CatUI, "overlay unmounted", "id", id)
	}
}

// frame renders one overlay's box, memoized while its inputs are stable.
func (s *Stack) frame(id string) (frame, portal string, ok bool) {
	n, mounted := s.mounted[id]
	if !mounted {
		return "", "", false
	}

	var content func() string
	var target string
	found := false
	for _, t := range []string{PortalMain, PortalToasts} {
		for _, ov := range s.reg.OverlaysByPortal(t) {
			if ov.ID == id {
				content, target, found = ov.Content, t, true
				break
			}
		}
	}
	if !found || content == nil {
		return "", "", false
	}

	input := boxInput{
		id:      id,
		body:    content(),
		classes: n.Classes(),
		width:   s.boxWidth(target),
		topmost: s.reg.IsTopmost(id),
	}

	if s.cache == nil {
		frame, _ = renderBox(context.Background(), input)
	} else {
		var err error
		frame, err = s.cache.Get(context.Background(), cacheKey(input), input, frameTTL)
		if err != nil {
			log.ErrorErr(log.CatUI, "frame render failed", err, "id", id)
			return "", "", false
		}
	}

	if s.markZones {
		frame = zone.Mark(ZoneID(id), frame)
	}
	return frame, target, true
}

func (s *Stack) boxWidth(portal string) int {
	if portal == PortalToasts {
		return min(40, s.width-4)
	}
	w := s.width * 2 / 3
	if w < 20 {
		w = s.width - 4
	}
	return w
}

func (s *Stack) hasBackdrop(open []string) bool {
	for _, id := range open {
		if s.reg.HasBackdrop(id) && s.reg.LazyVisible(id) {
			return true
		}
	}
	return false
}

// dim strips the base view's styling and re-renders it in the backdrop
// palette, the terminal stand-in for a translucent scrim.
func (s *Stack) dim(base string) string {
	lines := strings.Split(base, "\n")
	for i, line := range lines {
		lines[i] = styles.BackdropStyle.Render(ansi.Strip(line))
	}
	return strings.Join(lines, "\n")
}

func cacheKey(in boxInput) string {
	var b strings.Builder
	b.WriteString(in.id)
	b.WriteByte('|')
	b.WriteString(strings.Join(in.classes, ","))
	b.WriteByte('|')
	b.WriteString(strconv.Itoa(in.width))
	b.WriteByte('|')
	b.WriteString(in.body)
	if in.topmost {
		b.WriteString("|top")
	}
	return b.String()
}

// renderBox wraps and styles a single overlay's content. The node's
// transition classes pick the style, so the enter/exit swap done by the
// visibility machine changes how the box reads on screen.
func renderBox(_ context.Context, in boxInput) (string, error) {
	body := wordwrap.String(in.body, in.width-4)

	style := styles.ForClasses(in.classes)
	if in.topmost && !hasExitClass(in.classes) {
		style = style.BorderForeground(styles.BorderFocusColor)
	}

	return style.Width(in.width - 2).Render(body), nil
}

func hasExitClass(classes []string) bool {
	for _, c := range classes {
		if styles.IsExitClass(c) {
			return true
		}
	}
	return false
}
