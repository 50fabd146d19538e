package statsui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/skilldrill/internal/model"
)

const dateLayout = "2006-01-02"

const (
	fieldMode = iota
	fieldSince
	fieldLast
	fieldWindow
	fieldCount
)

var fieldPrompts = [fieldCount]string{
	fieldMode:   "Mode (standard/pressure): ",
	fieldSince:  "Since (YYYY-MM-DD): ",
	fieldLast:   "Last rounds: ",
	fieldWindow: "Curve window: ",
}

type filterKeys struct {
	Next   key.Binding
	Prev   key.Binding
	Apply  key.Binding
	Cancel key.Binding
}

func (k filterKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.Next, k.Prev, k.Apply, k.Cancel}
}

func (k filterKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

// filterForm edits the report filters. It replaces the body while active.
type filterForm struct {
	inputs [fieldCount]textinput.Model
	focus  int
	err    string
	active bool
	keys   filterKeys
}

func newFilterForm() filterForm {
	f := filterForm{
		keys: filterKeys{
			Next:   key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next field")),
			Prev:   key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "prev field")),
			Apply:  key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "apply")),
			Cancel: key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
		},
	}
	for i := range f.inputs {
		in := textinput.New()
		in.Prompt = fieldPrompts[i]
		in.Cursor.SetMode(cursor.CursorBlink)
		f.inputs[i] = in
	}
	return f
}

// open loads cfg into the fields and focuses the first one.
func (f *filterForm) open(cfg model.StatsConfig) tea.Cmd {
	f.active = true
	f.err = ""
	f.inputs[fieldMode].SetValue(cfg.Mode)
	f.inputs[fieldSince].SetValue("")
	if cfg.Since != nil {
		f.inputs[fieldSince].SetValue(cfg.Since.Format(dateLayout))
	}
	f.inputs[fieldLast].SetValue("")
	if cfg.Last > 0 {
		f.inputs[fieldLast].SetValue(strconv.Itoa(cfg.Last))
	}
	f.inputs[fieldWindow].SetValue(strconv.Itoa(cfg.CurveWindow))
	return f.focusField(fieldMode)
}

func (f *filterForm) close() {
	f.active = false
	f.err = ""
	for i := range f.inputs {
		f.inputs[i].Blur()
	}
}

func (f *filterForm) focusField(idx int) tea.Cmd {
	f.focus = (idx + fieldCount) % fieldCount
	var cmd tea.Cmd
	for i := range f.inputs {
		if i == f.focus {
			cmd = f.inputs[i].Focus()
			continue
		}
		f.inputs[i].Blur()
	}
	return cmd
}

func (f *filterForm) resize(width int) {
	for i := range f.inputs {
		f.inputs[i].Width = max(10, width-lipgloss.Width(f.inputs[i].Prompt)-2)
	}
}

// update handles one key. It returns the parsed filters when the user
// applies a valid form.
func (f *filterForm) update(msg tea.KeyMsg) (*model.StatsConfig, tea.Cmd) {
	switch {
	case key.Matches(msg, f.keys.Cancel):
		f.close()
		return nil, nil
	case key.Matches(msg, f.keys.Apply):
		cfg, err := f.parse()
		if err != nil {
			f.err = err.Error()
			return nil, nil
		}
		f.close()
		return &cfg, nil
	case key.Matches(msg, f.keys.Next):
		return nil, f.focusField(f.focus + 1)
	case key.Matches(msg, f.keys.Prev):
		return nil, f.focusField(f.focus - 1)
	}
	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return nil, cmd
}

func (f *filterForm) value(field int) string {
	return strings.TrimSpace(f.inputs[field].Value())
}

func (f *filterForm) parse() (model.StatsConfig, error) {
	var cfg model.StatsConfig

	switch mode := strings.ToLower(f.value(fieldMode)); mode {
	case "", model.ModeStandard, model.ModePressure:
		cfg.Mode = mode
	default:
		return model.StatsConfig{}, fmt.Errorf("invalid mode (use %s, %s or leave empty)", model.ModeStandard, model.ModePressure)
	}

	if s := f.value(fieldSince); s != "" {
		since, err := time.ParseInLocation(dateLayout, s, time.Local)
		if err != nil {
			return model.StatsConfig{}, fmt.Errorf("invalid since date (expected YYYY-MM-DD)")
		}
		cfg.Since = &since
	}

	var err error
	if cfg.Last, err = parseCount(f.value(fieldLast), 0); err != nil {
		return model.StatsConfig{}, fmt.Errorf("invalid last value (%v)", err)
	}
	if cfg.CurveWindow, err = parseCount(f.value(fieldWindow), 1); err != nil {
		return model.StatsConfig{}, fmt.Errorf("invalid curve window (%v)", err)
	}
	return cfg, nil
}

// parseCount reads an integer of at least floor. Empty input yields floor.
func parseCount(s string, floor int) (int, error) {
	if s == "" {
		return floor, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < floor {
		return 0, fmt.Errorf("use an integer >= %d", floor)
	}
	return n, nil
}

func (f *filterForm) view() string {
	lines := []string{"Filters (enter to apply, esc to cancel)"}
	for _, in := range f.inputs {
		lines = append(lines, in.View())
	}
	if f.err != "" {
		lines = append(lines, errorStyle.Render(f.err))
	}
	return strings.Join(lines, "\n")
}
