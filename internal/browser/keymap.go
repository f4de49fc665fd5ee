// internal/browser/keymap.go
package browser

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/chromedp/kb"
)

// pressSpecRegex matches the "press [Key]" / "press [Mod+Key]" form the
// models emit for key-press actions.
var pressSpecRegex = regexp.MustCompile(`press ?\[(.+)\]`)

// specialKeys maps lowercase friendly key names to the raw key input
// chromedp's keyboard layer understands.
var specialKeys = map[string]string{
	"backquote":  "`",
	"minus":      "-",
	"equal":      "=",
	"backslash":  `\`,
	"backspace":  kb.Backspace,
	"tab":        kb.Tab,
	"delete":     kb.Delete,
	"escape":     kb.Escape,
	"arrowdown":  kb.ArrowDown,
	"arrowup":    kb.ArrowUp,
	"arrowleft":  kb.ArrowLeft,
	"arrowright": kb.ArrowRight,
	"end":        kb.End,
	"enter":      kb.Enter,
	"home":       kb.Home,
	"insert":     kb.Insert,
	"pagedown":   kb.PageDown,
	"pageup":     kb.PageUp,
	"space":      " ",
	"f1":         kb.F1,
	"f2":         kb.F2,
	"f3":         kb.F3,
	"f4":         kb.F4,
	"f5":         kb.F5,
	"f6":         kb.F6,
	"f7":         kb.F7,
	"f8":         kb.F8,
	"f9":         kb.F9,
	"f10":        kb.F10,
	"f11":        kb.F11,
	"f12":        kb.F12,
}

// modifierKeys maps modifier names to CDP input modifiers.
var modifierKeys = map[string]input.Modifier{
	"control": input.ModifierCtrl,
	"ctrl":    input.ModifierCtrl,
	"shift":   input.ModifierShift,
	"alt":     input.ModifierAlt,
	"meta":    input.ModifierCommand,
	"command": input.ModifierCommand,
}

// ParseKeySpec translates a key-press spec like "press [Control+a]" or a bare
// key name like "Enter" into the key to send plus a modifier bitmask.
func ParseKeySpec(spec string) (string, input.Modifier, error) {
	combo := strings.TrimSpace(spec)
	if m := pressSpecRegex.FindStringSubmatch(combo); m != nil {
		combo = m[1]
	} else if strings.Contains(combo, "press") {
		return "", 0, fmt.Errorf("invalid key press spec %q", spec)
	}
	if combo == "" {
		return "", 0, fmt.Errorf("empty key press spec %q", spec)
	}

	parts := strings.Split(combo, "+")
	var mods input.Modifier
	key := ""
	for i, part := range parts {
		name := strings.ToLower(strings.TrimSpace(part))
		if mod, ok := modifierKeys[name]; ok && i < len(parts)-1 {
			mods |= mod
			continue
		}
		if mapped, ok := specialKeys[name]; ok {
			key = mapped
		} else {
			key = strings.TrimSpace(part)
		}
	}
	if key == "" {
		return "", 0, fmt.Errorf("key press spec %q names no key", spec)
	}
	return key, mods, nil
}
