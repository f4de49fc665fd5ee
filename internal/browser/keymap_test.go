// internal/browser/keymap_test.go
package browser

import (
	"testing"

	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/chromedp/kb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKeySpec(t *testing.T) {
	tests := []struct {
		name     string
		spec     string
		wantKey  string
		wantMods input.Modifier
	}{
		{"bare special key", "Enter", kb.Enter, 0},
		{"press form", "press [Enter]", kb.Enter, 0},
		{"press form no space", "press[Tab]", kb.Tab, 0},
		{"lowercase name", "press [pagedown]", kb.PageDown, 0},
		{"modifier combo", "press [Control+a]", "a", input.ModifierCtrl},
		{"meta combo", "press [Meta+Shift+p]", "p", input.ModifierCommand | input.ModifierShift},
		{"plain character", "x", "x", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, mods, err := ParseKeySpec(tt.spec)
			require.NoError(t, err)
			assert.Equal(t, tt.wantKey, key)
			assert.Equal(t, tt.wantMods, mods)
		})
	}
}

func TestParseKeySpec_Invalid(t *testing.T) {
	_, _, err := ParseKeySpec("press Enter")
	require.Error(t, err)

	_, _, err = ParseKeySpec("   ")
	require.Error(t, err)
}
