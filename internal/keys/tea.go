package keys

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

var teaKeyNames = map[tea.KeyType]string{
	tea.KeySpace:     Space,
	tea.KeyUp:        "ArrowUp",
	tea.KeyDown:      "ArrowDown",
	tea.KeyLeft:      "ArrowLeft",
	tea.KeyRight:     "ArrowRight",
	tea.KeyBackspace: "Backspace",
	tea.KeyDelete:    "Delete",
	tea.KeyInsert:    "Insert",
	tea.KeyHome:      "Home",
	tea.KeyEnd:       "End",
	tea.KeyPgUp:      "PageUp",
	tea.KeyPgDown:    "PageDown",
}

// FromKeyMsg returns the token for a Bubble Tea key message. Tab, Escape and
// Enter are reserved for navigation and report false.
func FromKeyMsg(msg tea.KeyMsg) (string, bool) {
	switch msg.Type {
	case tea.KeyTab, tea.KeyEsc, tea.KeyEnter:
		return "", false
	case tea.KeyRunes:
		if len(msg.Runes) != 1 || msg.Paste {
			return "", false
		}
		if msg.Runes[0] == ' ' {
			return Space, true
		}
		return normalizeChar(string(msg.Runes[0])), true
	}
	if name, ok := teaKeyNames[msg.Type]; ok {
		return name, true
	}
	if msg.Type >= tea.KeyF1 && msg.Type <= tea.KeyF20 {
		return strings.ToUpper(msg.String()), true
	}
	return "", false
}

// FromMouseMsg returns the token for a mouse button press. Releases, motion
// and wheel events report false.
func FromMouseMsg(msg tea.MouseMsg) (string, bool) {
	if msg.Action != tea.MouseActionPress {
		return "", false
	}
	switch msg.Button {
	case tea.MouseButtonLeft:
		return MouseButton(0), true
	case tea.MouseButtonMiddle:
		return MouseButton(1), true
	case tea.MouseButtonRight:
		return MouseButton(2), true
	case tea.MouseButtonBackward:
		return MouseButton(3), true
	case tea.MouseButtonForward:
		return MouseButton(4), true
	default:
		return "", false
	}
}
