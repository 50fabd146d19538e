// Package tui provides the Bubble Tea drill and weapon-select screens.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"

	"github.com/verte-zerg/skilldrill/internal/config"
	"github.com/verte-zerg/skilldrill/internal/generator"
	"github.com/verte-zerg/skilldrill/internal/keys"
	"github.com/verte-zerg/skilldrill/internal/loadout"
	"github.com/verte-zerg/skilldrill/internal/model"
	"github.com/verte-zerg/skilldrill/internal/scheduler"
	"github.com/verte-zerg/skilldrill/internal/session"
	statsPkg "github.com/verte-zerg/skilldrill/internal/stats"
	"github.com/verte-zerg/skilldrill/internal/store"
)

// Deps wires a screen to its collaborators. Store, Tracker, Generator and
// Scheduler are optional; a nil Scheduler runs the screen on the wall clock.
type Deps struct {
	Config     model.Config
	ConfigPath string
	Store      *store.Store
	Tracker    *statsPkg.Tracker
	Generator  *generator.Generator
	Scheduler  scheduler.Scheduler
	Changes    <-chan struct{}
	Logger     zerolog.Logger
}

// Model implements the Bubble Tea drill UI.
type Model struct {
	config     model.Config
	configPath string
	store      *store.Store
	tracker    *statsPkg.Tracker
	loadout    *loadout.Loadout
	ctrl       *session.Controller
	tasks      <-chan func()
	changes    <-chan struct{}
	log        zerolog.Logger

	width  int
	height int

	meter   progress.Model
	results table.Model
	phase   session.Phase

	errMsg        string
	notice        string
	pendingReload bool

	rounds  int
	lastAvg time.Duration
	hasLast bool
}

var (
	correctStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0"))
	incorrectStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	pendingStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	currentStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A"))
	cursorStyle    = currentStyle.Underline(true)
	separatorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#4A4A4A"))
	footerStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	titleStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Bold(true)
	pbStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("#52C41A")).Bold(true)
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F")).Bold(true)
)

const (
	meterColor         = "#C89A3A"
	meterWarningColor  = "#FAAD14"
	meterCriticalColor = "#FF4D4F"
)

// NewModel constructs the drill TUI model.
func NewModel(d Deps) (*Model, error) {
	lo, err := loadout.FromConfig(d.Config)
	if err != nil {
		return nil, err
	}
	tracker := d.Tracker
	if tracker == nil {
		tracker = statsPkg.NewTracker(nil)
	}
	gen := d.Generator
	if gen == nil {
		gen = generator.New()
	}
	sched, tasks := clock(d.Scheduler)
	var rec session.Recorder
	if d.Store != nil {
		rec = d.Store
	}
	m := &Model{
		config:     d.Config,
		configPath: d.ConfigPath,
		store:      d.Store,
		tracker:    tracker,
		loadout:    lo,
		ctrl:       session.New(sched, gen, tracker, rec, d.Logger, session.OptionsFromConfig(d.Config)),
		tasks:      tasks,
		changes:    d.Changes,
		log:        d.Logger,
		meter:      progress.New(progress.WithSolidFill(meterColor), progress.WithoutPercentage()),
		results:    buildResultsTable(nil, 60, 5),
	}
	m.loadFooterStats()
	return m, nil
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(waitForTask(m.tasks), waitForChange(m.changes), tick())
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateLayout()
		return m, nil
	case taskMsg:
		msg()
		m.sync()
		return m, waitForTask(m.tasks)
	case tickMsg:
		m.sync()
		return m, tick()
	case configChangedMsg:
		m.pendingReload = true
		m.sync()
		return m, waitForChange(m.changes)
	case tea.MouseMsg:
		if token, ok := keys.FromMouseMsg(msg); ok {
			m.ctrl.Input(token)
			m.sync()
		}
		return m, nil
	case tea.KeyMsg:
		cmd := m.handleKey(msg)
		m.sync()
		return m, cmd
	default:
		return m, nil
	}
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	if msg.Type == tea.KeyCtrlC {
		return tea.Quit
	}
	switch m.ctrl.Phase() {
	case session.Welcome:
		switch {
		case msg.Type == tea.KeyEnter:
			m.start()
		case msg.Type == tea.KeyEsc, msg.String() == "q":
			return tea.Quit
		}
	case session.Results:
		switch {
		case msg.Type == tea.KeyEnter:
			m.start()
		case msg.Type == tea.KeyEsc:
			m.ctrl.Dismiss()
		case msg.String() == "q":
			return tea.Quit
		default:
			var cmd tea.Cmd
			m.results, cmd = m.results.Update(msg)
			return cmd
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

func (m *Model) start() {
	if err := m.ctrl.Start(m.loadout.Components()); err != nil {
		if errors.Is(err, generator.ErrEmptyCatalog) {
			m.errMsg = "No weapons assigned. Use `skilldrill slot <n> <weapon>` to equip one."
		} else {
			m.errMsg = err.Error()
		}
		return
	}
	m.errMsg = ""
	m.notice = ""
}

// sync reacts to phase changes made by input or scheduled callbacks.
func (m *Model) sync() {
	phase := m.ctrl.Phase()
	if phase != m.phase {
		if phase == session.Results {
			m.results = buildResultsTable(m.ctrl.Results(), m.tableWidth(), m.tableHeight())
			m.loadFooterStats()
		}
		m.phase = phase
	}
	if m.pendingReload && m.ctrl.Idle() {
		m.pendingReload = false
		m.reload()
	}
}

func (m *Model) reload() {
	if m.configPath == "" {
		return
	}
	cfg, lo, err := loadSettings(m.configPath)
	if err != nil {
		m.errMsg = fmt.Sprintf("Settings not reloaded: %v", err)
		m.log.Warn().Err(err).Str("path", m.configPath).Msg("settings reload failed")
		return
	}
	m.config = cfg
	m.loadout = lo
	m.ctrl.SetOptions(session.OptionsFromConfig(cfg))
	m.errMsg = ""
	m.notice = "Settings reloaded."
	m.log.Info().Str("path", m.configPath).Msg("settings reloaded")
}

func loadSettings(path string) (model.Config, *loadout.Loadout, error) {
	fc, err := config.LoadConfig(path)
	if err != nil {
		return model.Config{}, nil, err
	}
	cfg, err := config.Resolve(fc)
	if err != nil {
		return model.Config{}, nil, err
	}
	lo, err := loadout.FromConfig(cfg)
	if err != nil {
		return model.Config{}, nil, err
	}
	return cfg, lo, nil
}

func (m *Model) loadFooterStats() {
	if m.store == nil {
		return
	}
	rounds, err := m.store.ListRounds(context.Background(), model.StatsConfig{})
	if err != nil {
		m.log.Error().Err(err).Msg("failed to load round history")
		return
	}
	m.rounds = len(rounds)
	if len(rounds) == 0 {
		return
	}
	m.lastAvg = rounds[len(rounds)-1].Average
	m.hasLast = true
}

func (m *Model) updateLayout() {
	m.meter.Width = minInt(40, maxInt(10, m.contentWidth()-8))
	m.results.SetWidth(m.tableWidth())
	m.results.SetHeight(m.tableHeight())
}

func (m *Model) contentWidth() int {
	w := int(float64(m.width) * 0.70)
	if w < 1 {
		return 60
	}
	return w
}

func (m *Model) tableWidth() int {
	return minInt(72, m.contentWidth())
}

func (m *Model) tableHeight() int {
	if m.height <= 0 {
		return 10
	}
	return maxInt(3, m.height-12)
}

// View implements tea.Model.
func (m *Model) View() string {
	var content string
	switch m.ctrl.Phase() {
	case session.Countdown:
		content = m.renderCountdown()
	case session.Training, session.Transition:
		content = m.renderTraining()
	case session.Results:
		content = m.renderResults()
	default:
		content = m.renderWelcome()
	}
	if m.width == 0 || m.height == 0 {
		return content
	}
	footer := m.renderFooter()
	if footer == "" || m.height < 3 {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
	}
	body := lipgloss.Place(m.width, m.height-1, lipgloss.Center, lipgloss.Center, content)
	footerLine := lipgloss.Place(m.width, 1, lipgloss.Center, lipgloss.Center, footer)
	return body + "\n" + footerLine
}

func (m *Model) renderWelcome() string {
	lines := []string{titleStyle.Render("skilldrill"), ""}
	mode := "standard"
	if m.config.Pressure {
		mode = fmt.Sprintf("pressure (drain %.1f/s)", m.config.DrainRate)
	}
	lines = append(lines, fmt.Sprintf("Round: %d components · %s", m.config.RoundSize, mode))
	if m.config.AutoAdvance {
		lines = append(lines, fmt.Sprintf("Auto-advance after %s", statsPkg.Seconds(m.config.AutoAdvanceDelay)))
	}
	if m.loadout.FakeAttacks() {
		lines = append(lines, fmt.Sprintf("Fake attacks: on (cancel %s)", keys.Display(m.loadout.CancelKey())))
	}
	lines = append(lines, "")
	for slot := 1; slot <= model.SlotCount; slot++ {
		weapon := string(m.loadout.Weapon(slot))
		style := correctStyle
		if weapon == "" {
			weapon = "none"
			style = pendingStyle
		}
		key := padLabel("["+keys.Display(m.loadout.KeyFor(slot))+"]", 9)
		lines = append(lines, fmt.Sprintf("%d %s %s", slot, currentStyle.Render(key), style.Render(weapon)))
	}
	lines = append(lines, "", footerStyle.Render("Enter start · Esc quit"))
	return m.withMessages(lines)
}

func (m *Model) renderCountdown() string {
	return strings.Join([]string{
		titleStyle.Render(strconv.Itoa(m.ctrl.Countdown())),
		"",
		pendingStyle.Render("Get ready"),
	}, "\n")
}

func (m *Model) renderTraining() string {
	comp, ok := m.ctrl.Current()
	if !ok {
		return ""
	}
	lines := []string{pendingStyle.Render(fmt.Sprintf("%d / %d", m.ctrl.Index()+1, m.ctrl.RoundLen()))}
	if m.ctrl.PressureMode() {
		lines = append(lines, m.renderMeter())
	}
	lines = append(lines, "", titleStyle.Render(comp.Description), "")

	if m.ctrl.Phase() == session.Transition {
		lines = append(lines, wrapChips(buildChips(comp.RequiredKeys(), len(comp.RequiredKeys()), false), m.contentWidth()))
		lines = append(lines, "", m.renderLastResult())
	} else {
		chips := buildChips(comp.RequiredKeys(), m.ctrl.Progress(), m.ctrl.Flashing())
		lines = append(lines, wrapChips(chips, m.contentWidth()))
		lines = append(lines, "", m.renderTimer(comp.Key))
	}
	lines = append(lines, "", footerStyle.Render("Esc stop"))
	return strings.Join(lines, "\n")
}

func (m *Model) renderTimer(key string) string {
	segments := []string{correctStyle.Render(statsPkg.Seconds(m.ctrl.Elapsed()))}
	if pb, ok := m.ctrl.PersonalBest(key); ok {
		segments = append(segments, pendingStyle.Render("PB "+statsPkg.Seconds(pb)))
	} else {
		segments = append(segments, pendingStyle.Render("PB none"))
	}
	if left := m.ctrl.AutoAdvanceRemaining(); left > 0 {
		segments = append(segments, pendingStyle.Render("skip in "+statsPkg.Seconds(left)))
	}
	return strings.Join(segments, "   ")
}

func (m *Model) renderLastResult() string {
	results := m.ctrl.Results()
	if len(results) == 0 {
		return pendingStyle.Render("Skipped")
	}
	last := results[len(results)-1]
	line := correctStyle.Render(statsPkg.Seconds(last.CompletionTime))
	if last.IsNewPB {
		line += "  " + pbStyle.Render("New PB!")
	}
	return line
}

func (m *Model) renderMeter() string {
	st := m.ctrl.Pressure()
	bar := m.meter
	switch {
	case st.Critical:
		bar.FullColor = meterCriticalColor
	case st.Warning:
		bar.FullColor = meterWarningColor
	default:
		bar.FullColor = meterColor
	}
	return bar.ViewAs(st.Bar/session.MaxPressure) + fmt.Sprintf(" %3.0f", st.Bar)
}

func (m *Model) renderResults() string {
	title := "Round Complete"
	if m.ctrl.GameOver() {
		title = "Game Over"
	}
	results := m.ctrl.Results()
	st := m.ctrl.Stats()
	lines := []string{
		titleStyle.Render(title),
		fmt.Sprintf("Completed: %d / %d", len(results), m.ctrl.RoundLen()),
		fmt.Sprintf("Average %s  Fastest %s  Slowest %s  New PBs %d",
			statsPkg.Seconds(st.Average), statsPkg.Seconds(st.Fastest), statsPkg.Seconds(st.Slowest), st.NewPBCount),
		"",
	}
	if len(results) > 0 {
		lines = append(lines, m.results.View(), "")
	}
	lines = append(lines, footerStyle.Render("Enter again · Esc menu · q quit"))
	return m.withMessages(lines)
}

func (m *Model) withMessages(lines []string) string {
	if m.errMsg != "" {
		lines = append(lines, "", errorStyle.Render(m.errMsg))
	} else if m.notice != "" {
		lines = append(lines, "", pendingStyle.Render(m.notice))
	}
	return strings.Join(lines, "\n")
}

func (m *Model) renderFooter() string {
	mode := "Standard"
	if m.config.Pressure {
		mode = "Pressure"
	}
	segments := []string{mode, fmt.Sprintf("Rounds %d", m.rounds)}
	if m.hasLast {
		segments = append(segments, "Last avg "+statsPkg.Seconds(m.lastAvg))
	}
	if m.tracker != nil {
		segments = append(segments, fmt.Sprintf("PBs %d", m.tracker.Len()))
	}
	return footerStyle.Render(strings.Join(segments, "  "))
}

func buildResultsTable(results []model.RoundResult, width, height int) table.Model {
	columns := []table.Column{
		{Title: "#", Width: 3},
		{Title: "Component", Width: 22},
		{Title: "Keys", Width: 14},
		{Title: "Time", Width: 8},
		{Title: "Errors", Width: 6},
		{Title: "PB", Width: 4},
	}
	rows := make([]table.Row, 0, len(results))
	for i, r := range results {
		pb := ""
		if r.IsNewPB {
			pb = "new"
		}
		rows = append(rows, table.Row{
			strconv.Itoa(i + 1),
			r.Description,
			displayKey(r.Key),
			statsPkg.Seconds(r.CompletionTime),
			strconv.Itoa(r.Errors),
			pb,
		})
	}
	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithHeight(maxInt(1, minInt(height, len(rows)+1))),
		table.WithFocused(true),
	)
	t.SetWidth(width)
	t.SetStyles(tableStyles())
	return t
}

func tableStyles() table.Styles {
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(lipgloss.Color("#4A4A4A")).
		Foreground(lipgloss.Color("#C0C0C0")).
		Bold(true)
	styles.Selected = styles.Cell.
		Foreground(lipgloss.Color("#F0F0F0")).
		Bold(true)
	return styles
}

// displayKey renders a component key with display labels, e.g. "1+Q+X".
func displayKey(key string) string {
	tokens := model.SplitKey(key)
	for i, t := range tokens {
		tokens[i] = keys.Display(t)
	}
	return strings.Join(tokens, "+")
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
