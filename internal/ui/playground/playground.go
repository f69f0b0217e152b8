// Package playground provides an interactive showcase of the overlay
// lifecycle: modals, toasts, scroll locking and conditional visibility, all
// driven through the registry.
package playground

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	zone "github.com/lrstanley/bubblezone"

	"github.com/zjrosen/veil/internal/config"
	"github.com/zjrosen/veil/internal/keys"
	"github.com/zjrosen/veil/internal/log"
	"github.com/zjrosen/veil/internal/node"
	"github.com/zjrosen/veil/internal/pubsub"
	"github.com/zjrosen/veil/internal/registry"
	"github.com/zjrosen/veil/internal/ui/compositor"
	"github.com/zjrosen/veil/internal/ui/scroll"
	"github.com/zjrosen/veil/internal/ui/styles"
)

const (
	settingsID = "settings"
	helpID     = "help"
	condID     = "follow-cursor"
)

// toastExpiredMsg closes an auto-dismissing toast.
type toastExpiredMsg struct {
	id string
}

// ConfigReloadedMsg carries a freshly parsed config after the file on disk
// changed. Overlay conditions are re-evaluated against the new settings.
type ConfigReloadedMsg struct {
	Cfg config.Config
}

// Model holds the playground state.
type Model struct {
	cfg config.Config
	reg *registry.Registry[*node.Node]

	stack *compositor.Stack
	pane  *scroll.Pane
	keys  keys.KeyMap

	ctx     context.Context
	cancel  context.CancelFunc
	events  <-chan pubsub.Event[registry.Change]
	lastEvt string

	condOn   *bool
	toasts   int
	width    int
	height   int
	quitting bool
}

// New builds the playground over a fresh registry configured from cfg.
func New(cfg config.Config) Model {
	pane := scroll.New()

	reg := registry.New[*node.Node](
		registry.WithViewport(pane),
		registry.WithDefaultDelay(cfg.AnimationDelay()),
	)

	stackOpts := []compositor.StackOption{compositor.WithZoneMarks()}
	if cfg.Debug.DisableFrameCache {
		stackOpts = append(stackOpts, compositor.WithFrameCacheDisabled())
	}

	ctx, cancel := context.WithCancel(context.Background())

	m := Model{
		cfg:    cfg,
		reg:    reg,
		stack:  compositor.NewStack(reg, stackOpts...),
		pane:   pane,
		keys:   keys.DefaultKeyMap(),
		ctx:    ctx,
		cancel: cancel,
		events: reg.Subscribe(ctx),
		condOn: new(bool),
	}

	m.registerFixtures()
	return m
}

// registerFixtures declares the built-in overlays plus any presets from the
// config file.
func (m *Model) registerFixtures() {
	cond := m.condOn

	mustRegister(m.reg, registry.Config{
		ID:         settingsID,
		EnterClass: styles.ClassOverlayEnter,
		ExitClass:  styles.ClassOverlayExit,
		Content: func() string {
			return lipgloss.JoinVertical(lipgloss.Left,
				styles.OverlayTitleStyle.Render("Settings"),
				"",
				"A modal with a backdrop. The content",
				"behind it cannot scroll while open.",
				"",
				styles.HelpStyle.Render("esc to close"),
			)
		},
	})

	mustRegister(m.reg, registry.Config{
		ID:          helpID,
		HasBackdrop: registry.Bool(false),
		LockScroll:  registry.Bool(false),
		EnterClass:  styles.ClassOverlayEnter,
		ExitClass:   styles.ClassOverlayExit,
		Content: func() string {
			return lipgloss.JoinVertical(lipgloss.Left,
				styles.OverlayTitleStyle.Render("Keys"),
				"",
				"m      settings modal",
				"t      toast",
				"c      toggle conditional overlay",
				"r      simulate route change",
				"esc    close topmost",
				"j/k    scroll",
				"q      quit",
			)
		},
	})

	mustRegister(m.reg, registry.Config{
		ID:                  condID,
		HasBackdrop:         registry.Bool(false),
		LockScroll:          registry.Bool(false),
		CloseOnEscape:       registry.Bool(false),
		CloseOnOutsideClick: registry.Bool(false),
		ShowWhen:            func() bool { return *cond },
		EnterClass:          styles.ClassOverlayEnter,
		ExitClass:           styles.ClassOverlayExit,
		PortalTarget:        compositor.PortalToasts,
		Content: func() string {
			return "condition is on"
		},
	})

	for _, preset := range m.cfg.Overlays {
		mustRegister(m.reg, preset.RegistryConfig())
	}
}

func mustRegister(reg *registry.Registry[*node.Node], cfg registry.Config) {
	if _, err := reg.Register(cfg); err != nil {
		log.ErrorErr(log.CatUI, "fixture registration failed", err, "id", cfg.ID)
	}
}

// Registry exposes the model's registry so callers can attach observers,
// like the tracing recorder.
func (m Model) Registry() *registry.Registry[*node.Node] {
	return m.reg
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{pubsub.ListenCmd(m.ctx, m.events)}
	if m.cfg.UI.MouseEnabled {
		cmds = append(cmds, tea.EnableMouseCellMotion)
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.pane.SetSize(msg.Width, msg.Height-1)
		m.pane.SetContent(demoContent(msg.Width))
		m.stack.SetSize(msg.Width, msg.Height-1)
		return m, nil

	case pubsub.Event[registry.Change]:
		m.lastEvt = fmt.Sprintf("%s %s (open=%d locks=%d)",
			msg.Type, msg.Payload.ID, msg.Payload.OpenCount, msg.Payload.LockCount)
		return m, pubsub.ListenCmd(m.ctx, m.events)

	case toastExpiredMsg:
		m.reg.Close(msg.id)
		return m, nil

	case ConfigReloadedMsg:
		m.cfg = msg.Cfg
		m.reg.EvaluateConditions()
		m.lastEvt = "config reloaded"
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case tea.MouseMsg:
		return m.handleMouseMsg(msg)
	}

	return m, nil
}

func (m Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		m.cancel()
		m.reg.Shutdown()
		return m, tea.Quit

	case key.Matches(msg, m.keys.Settings):
		if m.reg.IsOpen(settingsID) {
			m.reg.Close(settingsID)
		} else {
			m.reg.Open(settingsID)
		}
		return m, nil

	case key.Matches(msg, m.keys.Help):
		m.reg.Open(helpID)
		return m, nil

	case key.Matches(msg, m.keys.Toast):
		return m, m.spawnToast()

	case key.Matches(msg, m.keys.Condition):
		*m.condOn = !*m.condOn
		m.reg.EvaluateConditions()
		return m, nil

	case key.Matches(msg, m.keys.Route):
		m.reg.RouteChanged()
		return m, nil

	case key.Matches(msg, m.keys.Escape):
		m.reg.CloseTopmost()
		return m, nil
	}

	m.pane.Update(msg)
	return m, nil
}

func (m Model) handleMouseMsg(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if msg.Action != tea.MouseActionPress || msg.Button != tea.MouseButtonLeft {
		m.pane.Update(msg)
		return m, nil
	}

	// A press inside the topmost overlay's box is the overlay's own
	// business; anywhere else counts as an outside click.
	if id, ok := m.reg.Topmost(); ok {
		if z := zone.Get(compositor.ZoneID(id)); z != nil && z.InBounds(msg) {
			return m, nil
		}
		m.reg.OutsideClick()
		return m, nil
	}

	m.pane.Update(msg)
	return m, nil
}

// spawnToast registers and opens a one-shot toast that closes itself.
func (m *Model) spawnToast() tea.Cmd {
	m.toasts++
	id := "toast-" + uuid.NewString()[:8]
	n := m.toasts

	_, err := m.reg.Register(registry.Config{
		ID:           id,
		PortalTarget: compositor.PortalToasts,
		HasBackdrop:  registry.Bool(false),
		LockScroll:   registry.Bool(false),
		EnterClass:   styles.ClassToastEnter,
		ExitClass:    styles.ClassToastExit,
		OnAfterClose: func(*registry.HookEvent) {
			// Entry teardown happens on the next event loop pass; the
			// registry has already reconciled the close.
			go m.reg.Unregister(id)
		},
		Content: func() string {
			return fmt.Sprintf("toast #%d", n)
		},
	})
	if err != nil {
		return nil
	}

	m.reg.Open(id)
	return tea.Tick(m.cfg.ToastDuration(), func(time.Time) tea.Msg {
		return toastExpiredMsg{id: id}
	})
}

// View implements tea.Model.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if m.width == 0 {
		return "loading..."
	}

	base := m.pane.View()
	out := m.stack.Render(base)

	return zone.Scan(lipgloss.JoinVertical(lipgloss.Left, out, m.statusBar()))
}

func (m Model) statusBar() string {
	parts := []string{
		fmt.Sprintf("locks:%d", m.reg.ScrollLockCount()),
		fmt.Sprintf("scroll:%3.0f%%", m.pane.ScrollPercent()*100),
	}
	if id, ok := m.reg.Topmost(); ok {
		parts = append(parts, "top:"+id)
	}
	if m.lastEvt != "" {
		parts = append(parts, m.lastEvt)
	}
	bar := strings.Join(parts, "  ")
	return styles.HelpStyle.Render(bar + "  (" + m.keys.Help.Help().Key + " for keys)")
}

// demoContent generates enough text to make the scroll lock observable.
func demoContent(width int) string {
	var b strings.Builder
	for i := 1; i <= 120; i++ {
		line := fmt.Sprintf("%3d  the quick brown fox jumps over the lazy dog", i)
		if len(line) > width && width > 0 {
			line = line[:width]
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return b.String()
}
