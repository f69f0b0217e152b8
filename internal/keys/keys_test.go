package keys

import (
	"testing"

	"github.com/charmbracelet/bubbles/key"
	"github.com/stretchr/testify/require"
)

func TestDefaultKeyMap_Assignments(t *testing.T) {
	km := DefaultKeyMap()

	tests := []struct {
		name     string
		binding  key.Binding
		expected []string
	}{
		{
			name:     "Settings uses m",
			binding:  km.Settings,
			expected: []string{"m"},
		},
		{
			name:     "Help uses ?",
			binding:  km.Help,
			expected: []string{"?"},
		},
		{
			name:     "Toast uses t",
			binding:  km.Toast,
			expected: []string{"t"},
		},
		{
			name:     "Condition uses c",
			binding:  km.Condition,
			expected: []string{"c"},
		},
		{
			name:     "Route uses r",
			binding:  km.Route,
			expected: []string{"r"},
		},
		{
			name:     "Escape uses esc",
			binding:  km.Escape,
			expected: []string{"esc"},
		},
		{
			name:     "Quit uses q and ctrl+c",
			binding:  km.Quit,
			expected: []string{"q", "ctrl+c"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, tt.binding.Keys())
		})
	}
}

func TestDefaultKeyMap_HelpText(t *testing.T) {
	km := DefaultKeyMap()
	for _, b := range km.ShortHelp() {
		help := b.Help()
		require.NotEmpty(t, help.Key)
		require.NotEmpty(t, help.Desc)
	}
}

func TestShortHelp_Order(t *testing.T) {
	km := DefaultKeyMap()
	bindings := km.ShortHelp()
	require.Len(t, bindings, 7)
	require.Equal(t, "esc", bindings[5].Help().Key)
	require.Equal(t, "q", bindings[6].Help().Key)
}
