// Package keys normalizes keyboard and mouse input into key tokens.
//
// A token is the canonical name of a single physical input: a lower-case
// character ("q", "1"), a named key ("Space", "LeftCtrl", "F4") or a mouse
// button ("Mouse1".."Mouse5"). Tokens are compared case-insensitively.
package keys

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Event is a raw keyboard event as reported by a browser-style input source:
// Key is the produced key value, Code the physical key code.
type Event struct {
	Key  string
	Code string
}

// Named tokens for characters that cannot appear in a token.
const (
	Space = "Space"
	// Comma replaces "," which separates tokens in a component key.
	Comma = "Comma"
)

var ignoredKeys = map[string]struct{}{
	"Tab":        {},
	"Escape":     {},
	"Enter":      {},
	"CapsLock":   {},
	"NumLock":    {},
	"ScrollLock": {},
}

var keyNames = map[string]string{
	"Control":      "Ctrl",
	"ControlLeft":  "LeftCtrl",
	"ControlRight": "RightCtrl",
	"ShiftLeft":    "LeftShift",
	"ShiftRight":   "RightShift",
	"AltLeft":      "LeftAlt",
	"AltRight":     "RightAlt",
	" ":            Space,
	",":            Comma,
}

var mouseButtons = map[int]string{
	0: "Mouse1",
	1: "Mouse3",
	2: "Mouse2",
	3: "Mouse4",
	4: "Mouse5",
}

// FromEvent returns the token for a keyboard event. It reports false for keys
// that cannot be bound.
func FromEvent(ev Event) (string, bool) {
	if _, ok := ignoredKeys[ev.Key]; ok {
		return "", false
	}
	if ev.Key == "" && ev.Code == "" {
		return "", false
	}
	// Modifiers are qualified by side using the physical code.
	if strings.HasPrefix(ev.Code, "Control") || strings.HasPrefix(ev.Code, "Shift") || strings.HasPrefix(ev.Code, "Alt") {
		if name, ok := keyNames[ev.Code]; ok {
			return name, true
		}
		return ev.Code, true
	}
	if name, ok := keyNames[ev.Key]; ok {
		return name, true
	}
	return normalizeChar(ev.Key), true
}

// MouseButton returns the token for a mouse button index (0 = primary).
func MouseButton(button int) string {
	if name, ok := mouseButtons[button]; ok {
		return name
	}
	return fmt.Sprintf("Mouse%d", button)
}

// Equal compares two tokens case-insensitively.
func Equal(a, b string) bool {
	return strings.EqualFold(a, b)
}

// Display returns the label shown for a token: single characters are
// upper-cased, named tokens are kept as is except Comma.
func Display(token string) string {
	if strings.EqualFold(token, Comma) {
		return ","
	}
	if utf8.RuneCountInString(token) == 1 {
		return strings.ToUpper(token)
	}
	return token
}

// Normalize canonicalizes a token typed by hand (config files, CLI flags).
func Normalize(token string) string {
	if token == " " {
		return Space
	}
	token = strings.TrimSpace(token)
	if strings.EqualFold(token, Space) {
		return Space
	}
	if strings.EqualFold(token, Comma) {
		return Comma
	}
	return normalizeChar(token)
}

func normalizeChar(s string) string {
	if s == "," {
		return Comma
	}
	if utf8.RuneCountInString(s) == 1 {
		return strings.ToLower(s)
	}
	return s
}
