// Package scroll wraps a bubbles viewport as the scrollable base view that
// overlays lock while they are open.
package scroll

import (
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/zjrosen/veil/internal/log"
)

// Pane is a scrollable content pane. While locked, scroll input is swallowed
// so the content behind an open overlay cannot move; the overlay registry
// restores the pre-lock offset when the last locking overlay closes.
type Pane struct {
	viewport viewport.Model
	locked   bool
	ready    bool
}

// New returns an empty, unsized pane. Call SetSize before rendering.
func New() *Pane {
	return &Pane{}
}

// SetSize updates dimensions and initializes the viewport on first use.
func (p *Pane) SetSize(width, height int) {
	if !p.ready {
		p.viewport = viewport.New(width, height)
		p.ready = true
		return
	}
	p.viewport.Width = width
	p.viewport.Height = height
}

// SetContent replaces the pane's content.
func (p *Pane) SetContent(content string) {
	p.viewport.SetContent(content)
}

// Update routes scroll input to the viewport unless the pane is locked.
func (p *Pane) Update(msg tea.Msg) tea.Cmd {
	if p.locked {
		return nil
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "up", "k":
			p.viewport.ScrollUp(1)
		case "down", "j":
			p.viewport.ScrollDown(1)
		case "pgup":
			p.viewport.ScrollUp(p.viewport.Height)
		case "pgdown":
			p.viewport.ScrollDown(p.viewport.Height)
		case "home", "g":
			p.viewport.GotoTop()
		case "end", "G":
			p.viewport.GotoBottom()
		}
		return nil
	case tea.MouseMsg:
		var cmd tea.Cmd
		p.viewport, cmd = p.viewport.Update(msg)
		return cmd
	}
	return nil
}

// View renders the visible slice of content.
func (p *Pane) View() string {
	return p.viewport.View()
}

// ScrollPercent reports how far the pane is scrolled, 0 to 1.
func (p *Pane) ScrollPercent() float64 {
	return p.viewport.ScrollPercent()
}

// Locked reports whether scroll input is currently swallowed.
func (p *Pane) Locked() bool {
	return p.locked
}

// Offset returns the current vertical scroll offset.
func (p *Pane) Offset() int {
	return p.viewport.YOffset
}

// SetOffset restores a scroll offset. Clamped to valid range by the viewport.
func (p *Pane) SetOffset(offset int) {
	p.viewport.SetYOffset(offset)
}

// SetLocked toggles the scroll lock.
func (p *Pane) SetLocked(locked bool) {
	if p.locked == locked {
		return
	}
	p.locked = locked
	log.Debug(log.CatUI, "scroll lock toggled", "locked", locked)
}
