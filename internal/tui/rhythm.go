package tui

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"

	"github.com/verte-zerg/skilldrill/internal/config"
	"github.com/verte-zerg/skilldrill/internal/generator"
	"github.com/verte-zerg/skilldrill/internal/keys"
	"github.com/verte-zerg/skilldrill/internal/loadout"
	"github.com/verte-zerg/skilldrill/internal/model"
	"github.com/verte-zerg/skilldrill/internal/rhythm"
	statsPkg "github.com/verte-zerg/skilldrill/internal/stats"
)

const (
	defaultTrackRows = 16
	hitLineOffset    = 3
	noteGlyph        = "██"
)

// RhythmModel implements the Bubble Tea weapon-select UI.
type RhythmModel struct {
	config     model.Config
	configPath string
	loadout    *loadout.Loadout
	ctrl       *rhythm.Controller
	tasks      <-chan func()
	log        zerolog.Logger

	width  int
	height int
	errMsg string
}

// NewRhythmModel constructs the weapon-select TUI model.
func NewRhythmModel(d Deps) (*RhythmModel, error) {
	lo, err := loadout.FromConfig(d.Config)
	if err != nil {
		return nil, err
	}
	gen := d.Generator
	if gen == nil {
		gen = generator.New()
	}
	sched, tasks := clock(d.Scheduler)
	var rec rhythm.Recorder
	if d.Store != nil {
		rec = d.Store
	}
	return &RhythmModel{
		config:     d.Config,
		configPath: d.ConfigPath,
		loadout:    lo,
		ctrl:       rhythm.New(sched, gen, lo, rec, d.Logger, rhythm.OptionsFromConfig(d.Config)),
		tasks:      tasks,
		log:        d.Logger,
	}, nil
}

// Init implements tea.Model.
func (m *RhythmModel) Init() tea.Cmd {
	return tea.Batch(waitForTask(m.tasks), tick())
}

// Update implements tea.Model.
func (m *RhythmModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case taskMsg:
		msg()
		return m, waitForTask(m.tasks)
	case tickMsg:
		return m, tick()
	case tea.MouseMsg:
		if token, ok := keys.FromMouseMsg(msg); ok {
			m.ctrl.Input(token)
		}
		return m, nil
	case tea.KeyMsg:
		return m, m.handleKey(msg)
	default:
		return m, nil
	}
}

func (m *RhythmModel) handleKey(msg tea.KeyMsg) tea.Cmd {
	if msg.Type == tea.KeyCtrlC {
		return tea.Quit
	}
	switch m.ctrl.Phase() {
	case rhythm.Idle, rhythm.Results:
		switch {
		case msg.Type == tea.KeyEnter:
			m.errMsg = ""
			m.ctrl.Start(m.hitLineRatio)
		case msg.Type == tea.KeyEsc && m.ctrl.Phase() == rhythm.Results:
			m.ctrl.Dismiss()
		case msg.Type == tea.KeyEsc, msg.String() == "q":
			return tea.Quit
		case msg.String() == "s":
			m.cycleSpeed()
		case msg.String() == "d":
			m.cycleDuration()
		}
	default:
		if msg.Type == tea.KeyEsc {
			m.ctrl.Stop()
			return nil
		}
		if token, ok := keys.FromKeyMsg(msg); ok {
			m.ctrl.Input(token)
		}
	}
	return nil
}

func (m *RhythmModel) cycleSpeed() {
	idx := 0
	for i, sp := range rhythm.Speeds {
		if string(sp) == m.config.RhythmSpeed {
			idx = i
		}
	}
	m.config.RhythmSpeed = string(rhythm.Speeds[(idx+1)%len(rhythm.Speeds)])
	m.applyOptions()
}

func (m *RhythmModel) cycleDuration() {
	idx := 0
	for i, d := range rhythm.Durations {
		if d == m.config.RhythmDuration {
			idx = i
		}
	}
	m.config.RhythmDuration = rhythm.Durations[(idx+1)%len(rhythm.Durations)]
	m.applyOptions()
}

// applyOptions pushes the selection to the controller and persists it.
func (m *RhythmModel) applyOptions() {
	m.ctrl.SetOptions(rhythm.OptionsFromConfig(m.config))
	if m.configPath == "" {
		return
	}
	if err := config.Save(m.configPath, config.ToFile(m.config)); err != nil {
		m.errMsg = fmt.Sprintf("Selection not saved: %v", err)
		m.log.Error().Err(err).Str("path", m.configPath).Msg("failed to save weapon-select settings")
	}
}

func (m *RhythmModel) trackRows() int {
	if m.height <= 0 {
		return defaultTrackRows
	}
	return maxInt(1, m.height-6)
}

// hitLineRatio is the hit line position as a fraction of the track height.
// Tracks too short to hold a hit line report 0 so the controller falls back
// to its default.
func (m *RhythmModel) hitLineRatio() float64 {
	rows := m.trackRows()
	if rows <= hitLineOffset+1 {
		return 0
	}
	return float64(rows-hitLineOffset) / float64(rows)
}

func (m *RhythmModel) laneWidth() int {
	if m.width <= 0 {
		return 8
	}
	return minInt(12, maxInt(4, (m.width-2)/rhythm.LaneCount))
}

// View implements tea.Model.
func (m *RhythmModel) View() string {
	var content string
	switch m.ctrl.Phase() {
	case rhythm.Countdown:
		content = strings.Join([]string{
			titleStyle.Render(strconv.Itoa(m.ctrl.Countdown())),
			"",
			pendingStyle.Render("Get ready"),
		}, "\n")
	case rhythm.Playing, rhythm.Ending:
		content = m.renderTrack()
	case rhythm.Results:
		content = m.renderResults()
	default:
		content = m.renderIdle()
	}
	if m.width == 0 || m.height == 0 {
		return content
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
}

func (m *RhythmModel) renderIdle() string {
	duration := "endless"
	if m.config.RhythmDuration > 0 {
		duration = fmt.Sprintf("%ds", m.config.RhythmDuration)
	}
	lines := []string{
		titleStyle.Render("Weapon Select"),
		"",
		fmt.Sprintf("Speed: %s", m.config.RhythmSpeed),
		fmt.Sprintf("Duration: %s", duration),
		"",
		m.renderLaneLabels(),
		"",
		footerStyle.Render("Enter start · s speed · d duration · Esc quit"),
	}
	if m.errMsg != "" {
		lines = append(lines, "", errorStyle.Render(m.errMsg))
	}
	return strings.Join(lines, "\n")
}

func (m *RhythmModel) renderTrack() string {
	st := m.ctrl.Stats()
	status := fmt.Sprintf("Hits %d  Misses %d  Accuracy %d%%", st.Hits, st.Misses, st.Accuracy)
	if left, ok := m.ctrl.Remaining(); ok {
		status += "   " + formatClock(left) + " left"
	} else if m.ctrl.Phase() == rhythm.Ending {
		status += "   Time!"
	}

	rows := m.trackRows()
	hitRow := int(m.ctrl.HitLineRatio() * float64(rows))
	grid := make([][]int, rows)
	for i := range grid {
		grid[i] = make([]int, rhythm.LaneCount)
	}
	notes := m.ctrl.Notes()
	for i, n := range notes {
		row := int(m.ctrl.Position(n) * float64(rows))
		if row < 0 || row >= rows || n.Lane < 1 || n.Lane > rhythm.LaneCount {
			continue
		}
		grid[row][n.Lane-1] = i + 1
	}

	width := m.laneWidth()
	lines := []string{pendingStyle.Render(status), ""}
	for r := 0; r < rows; r++ {
		var b strings.Builder
		for lane := 0; lane < rhythm.LaneCount; lane++ {
			if idx := grid[r][lane]; idx > 0 {
				b.WriteString(renderNote(notes[idx-1], width))
				continue
			}
			if r == hitRow {
				style := separatorStyle
				if m.ctrl.Flashing(lane + 1) {
					style = incorrectStyle
				}
				b.WriteString(style.Render(strings.Repeat("─", width)))
				continue
			}
			b.WriteString(strings.Repeat(" ", width))
		}
		lines = append(lines, b.String())
	}
	lines = append(lines, m.renderLaneLabels(), footerStyle.Render("Esc stop"))
	return strings.Join(lines, "\n")
}

func renderNote(n model.RhythmNote, width int) string {
	style := currentStyle
	switch {
	case n.Hit:
		style = pbStyle
	case n.Missed:
		style = incorrectStyle
	}
	left := maxInt(0, (width-2)/2)
	right := maxInt(0, width-2-left)
	return strings.Repeat(" ", left) + style.Render(noteGlyph) + strings.Repeat(" ", right)
}

func (m *RhythmModel) renderLaneLabels() string {
	width := m.laneWidth()
	var weapons, bindings strings.Builder
	for slot := 1; slot <= rhythm.LaneCount; slot++ {
		weapon := string(m.loadout.Weapon(slot))
		if weapon == "" {
			weapon = "-"
		}
		weapons.WriteString(pendingStyle.Render(padLabel(" "+weapon, width)))
		bindings.WriteString(currentStyle.Render(padLabel(" "+keys.Display(m.loadout.KeyFor(slot)), width)))
	}
	return weapons.String() + "\n" + bindings.String()
}

func (m *RhythmModel) renderResults() string {
	var buf bytes.Buffer
	if err := statsPkg.RenderRhythmSummary(&buf, m.ctrl.Stats()); err != nil {
		return fmt.Sprintf("Failed to render results: %v", err)
	}
	return strings.Join([]string{
		titleStyle.Render("Session Complete"),
		"",
		strings.TrimRight(buf.String(), "\n"),
		"",
		footerStyle.Render("Enter again · Esc menu · q quit"),
	}, "\n")
}

func formatClock(d time.Duration) string {
	secs := int((d + time.Second - 1) / time.Second)
	return fmt.Sprintf("%d:%02d", secs/60, secs%60)
}
