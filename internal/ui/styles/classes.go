// Package styles contains Lip Gloss style definitions.
package styles

import "github.com/charmbracelet/lipgloss"

// Well-known transition class names applied to overlay nodes.
const (
	ClassOverlayEnter = "overlay-enter"
	ClassOverlayExit  = "overlay-exit"
	ClassToastEnter   = "toast-enter"
	ClassToastExit    = "toast-exit"
)

// exitFade renders leaving content in the muted palette so the exit
// transition reads as a fade even on terminals without true dimming.
var exitFade = lipgloss.NewStyle().Foreground(TextMutedColor).Faint(true)

var classStyles = map[string]lipgloss.Style{
	ClassOverlayEnter: OverlayFocusedStyle,
	ClassOverlayExit:  OverlayStyle.Inherit(exitFade),
	ClassToastEnter:   ToastStyle,
	ClassToastExit:    ToastStyle.Inherit(exitFade),
}

// ForClasses resolves the style for a node's class list. Later classes win,
// so a transition class applied last overrides the resting style. Unknown
// classes fall back to the plain overlay box.
func ForClasses(classes []string) lipgloss.Style {
	style := OverlayStyle
	for _, class := range classes {
		if s, ok := classStyles[class]; ok {
			style = s
		}
	}
	return style
}

// IsExitClass reports whether class marks content as leaving.
func IsExitClass(class string) bool {
	return class == ClassOverlayExit || class == ClassToastExit
}
