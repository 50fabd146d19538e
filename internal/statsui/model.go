// Package statsui provides the Bubble Tea stats interface.
package statsui

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/skilldrill/internal/model"
	"github.com/verte-zerg/skilldrill/internal/stats"
	"github.com/verte-zerg/skilldrill/internal/store"
)

const (
	tabOverview = iota
	tabPersonalBests
	tabComponents
	tabWeaponSelect
	tabCount
)

var tabNames = [tabCount]string{"Overview", "Personal Bests", "Components", "Weapon Select"}

const (
	headerHeight   = 2
	slowestShown   = 5
	recentSessions = 10
	fallbackWidth  = 80
	trendPrefix    = "Trend: "
)

var (
	goldColor = lipgloss.Color("#C89A3A")
	dimColor  = lipgloss.Color("#4A4A4A")

	tabStyle       = lipgloss.NewStyle().Padding(0, 2).Foreground(lipgloss.Color("#8A8A8A"))
	activeTabStyle = tabStyle.Foreground(goldColor).Bold(true).Underline(true)
	summaryStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	mutedStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#B8B8B8"))
)

type keyMap struct {
	Prev       key.Binding
	Next       key.Binding
	Scroll     key.Binding
	Top        key.Binding
	Bottom     key.Binding
	WindowUp   key.Binding
	WindowDown key.Binding
	Filter     key.Binding
	Quit       key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Prev:       key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "prev tab")),
		Next:       key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "next tab")),
		Scroll:     key.NewBinding(key.WithKeys("up", "down", "pgup", "pgdown"), key.WithHelp("↑/↓", "scroll")),
		Top:        key.NewBinding(key.WithKeys("g", "home"), key.WithHelp("g", "top")),
		Bottom:     key.NewBinding(key.WithKeys("G", "end"), key.WithHelp("G", "bottom")),
		WindowUp:   key.NewBinding(key.WithKeys("=", "+"), key.WithHelp("=/-", "window")),
		WindowDown: key.NewBinding(key.WithKeys("-")),
		Filter:     key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "filters")),
		Quit:       key.NewBinding(key.WithKeys("q"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Prev, k.Next, k.Scroll, k.WindowUp, k.Filter, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp(), {k.Top, k.Bottom}}
}

// Model implements the Bubble Tea stats UI.
type Model struct {
	store  *store.Store
	cfg    model.StatsConfig
	report stats.Report
	errMsg string

	active    int
	viewports [tabCount]viewport.Model
	tables    [tabCount]table.Model
	filter    filterForm
	keys      keyMap
	help      help.Model

	width  int
	height int
}

// NewModel constructs a stats UI model and loads the first report.
func NewModel(st *store.Store, cfg model.StatsConfig) *Model {
	m := &Model{
		store:  st,
		cfg:    cfg,
		filter: newFilterForm(),
		keys:   defaultKeyMap(),
		help:   help.New(),
	}
	for i := range m.viewports {
		m.viewports[i] = viewport.New(0, 0)
	}
	m.tables[tabPersonalBests] = newTable(pbColumns())
	m.tables[tabComponents] = newTable(componentColumns())
	m.refreshReport()
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		m.renderTabContents()
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		if m.filter.active {
			return m, m.updateFilter(msg)
		}
		return m, m.handleKey(msg)
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return tea.Quit
	case key.Matches(msg, m.keys.Prev):
		m.moveTab(-1)
		return tea.ClearScreen
	case key.Matches(msg, m.keys.Next):
		m.moveTab(1)
		return tea.ClearScreen
	case key.Matches(msg, m.keys.WindowUp):
		m.cfg.CurveWindow = stepWindow(m.cfg.CurveWindow, 1)
		m.refreshReport()
		return nil
	case key.Matches(msg, m.keys.WindowDown):
		m.cfg.CurveWindow = stepWindow(m.cfg.CurveWindow, -1)
		m.refreshReport()
		return nil
	case key.Matches(msg, m.keys.Filter):
		m.resize()
		return m.filter.open(m.cfg)
	case key.Matches(msg, m.keys.Top):
		if m.onTable() {
			m.tables[m.active].GotoTop()
		} else {
			m.viewports[m.active].GotoTop()
		}
		return nil
	case key.Matches(msg, m.keys.Bottom):
		if m.onTable() {
			m.tables[m.active].GotoBottom()
		} else {
			m.viewports[m.active].GotoBottom()
		}
		return nil
	}
	var cmd tea.Cmd
	if m.onTable() {
		m.tables[m.active], cmd = m.tables[m.active].Update(msg)
	} else {
		m.viewports[m.active], cmd = m.viewports[m.active].Update(msg)
	}
	return cmd
}

func (m *Model) updateFilter(msg tea.KeyMsg) tea.Cmd {
	cfg, cmd := m.filter.update(msg)
	if cfg != nil {
		m.cfg = *cfg
		m.refreshReport()
	}
	m.resize()
	return cmd
}

func (m *Model) onTable() bool {
	return m.active == tabPersonalBests || m.active == tabComponents
}

func (m *Model) moveTab(delta int) {
	m.active = (m.active + delta + tabCount) % tabCount
	for _, tab := range []int{tabPersonalBests, tabComponents} {
		if tab == m.active {
			m.tables[tab].Focus()
		} else {
			m.tables[tab].Blur()
		}
	}
}

func (m *Model) footerHeight() int {
	if !m.filter.active && m.errMsg != "" {
		return 2
	}
	return 1
}

func (m *Model) bodyHeight() int {
	return max(1, m.height-headerHeight-m.footerHeight())
}

func (m *Model) resize() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	body := m.bodyHeight()
	for i := range m.viewports {
		m.viewports[i].Width = m.width
		m.viewports[i].Height = body
	}
	for _, tab := range []int{tabPersonalBests, tabComponents} {
		m.tables[tab].SetWidth(m.width)
		m.tables[tab].SetHeight(max(1, body-1))
	}
	m.filter.resize(m.width)
	m.help.Width = m.width
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		fit(m.renderHeader(), m.width, headerHeight),
		fit(m.renderBody(), m.width, m.bodyHeight()),
		fit(m.renderFooter(), m.width, m.footerHeight()),
	)
}

func (m *Model) renderHeader() string {
	tabs := make([]string, 0, tabCount)
	for i, name := range tabNames {
		if i == m.active {
			tabs = append(tabs, activeTabStyle.Render(name))
		} else {
			tabs = append(tabs, tabStyle.Render(name))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...) + "\n" + m.renderFilterSummary()
}

func (m *Model) renderFilterSummary() string {
	mode, since, last := "any", "any", "all"
	if m.cfg.Mode != "" {
		mode = m.cfg.Mode
	}
	if m.cfg.Since != nil {
		since = m.cfg.Since.Format(dateLayout)
	}
	if m.cfg.Last > 0 {
		last = strconv.Itoa(m.cfg.Last)
	}
	summary := fmt.Sprintf("Filters: mode=%s  since=%s  last=%s  window=%d", mode, since, last, m.cfg.CurveWindow)
	return summaryStyle.Render(truncate(summary, m.width))
}

func (m *Model) renderFooter() string {
	if m.filter.active {
		return m.help.ShortHelpView(m.filter.keys.ShortHelp())
	}
	footer := m.help.View(m.keys)
	if m.errMsg != "" {
		footer += "\n" + errorStyle.Render(m.errMsg)
	}
	return footer
}

func (m *Model) renderBody() string {
	if m.filter.active {
		return m.filter.view()
	}
	switch m.active {
	case tabPersonalBests:
		if len(m.report.PersonalBests) == 0 {
			return "No personal bests yet."
		}
		return mutedStyle.Render(m.tables[tabPersonalBests].View())
	case tabComponents:
		if len(m.report.ComponentsAll) == 0 {
			return "No component stats found."
		}
		return mutedStyle.Render(m.tables[tabComponents].View())
	}
	return m.viewports[m.active].View()
}

func (m *Model) refreshReport() {
	report, err := stats.BuildReport(context.Background(), m.store, m.cfg)
	if err != nil {
		m.errMsg = err.Error()
		for i := range m.viewports {
			m.viewports[i].SetContent("Failed to load stats.")
		}
		return
	}
	m.errMsg = ""
	m.report = report
	m.tables[tabPersonalBests].SetRows(pbRows(report.PersonalBests, report.Descriptions()))
	m.tables[tabComponents].SetRows(componentRows(report.ComponentsAll))
	m.resize()
	m.renderTabContents()
}

func (m *Model) renderTabContents() {
	if m.errMsg != "" {
		return
	}
	width := m.width
	if width <= 0 {
		width = fallbackWidth
	}
	m.viewports[tabOverview].SetContent(renderOverview(m.report, m.cfg.CurveWindow, width))
	m.viewports[tabWeaponSelect].SetContent(renderWeaponSelect(m.report, m.cfg.CurveWindow, width))
}

func renderOverview(report stats.Report, window, width int) string {
	var buf bytes.Buffer
	if err := stats.RenderHistory(&buf, report.Rounds, window, width-len(trendPrefix)); err != nil {
		return fmt.Sprintf("Failed to render history: %v", err)
	}
	if last := report.LastPlayed(); !last.IsZero() {
		if _, err := fmt.Fprintf(&buf, "Last played: %s\n\n", last.Local().Format("2006-01-02 15:04")); err != nil {
			return fmt.Sprintf("Failed to render history: %v", err)
		}
	}
	if err := stats.RenderSlowest(&buf, report.ComponentsWindow, slowestShown); err != nil {
		return fmt.Sprintf("Failed to render components: %v", err)
	}
	return strings.TrimRight(buf.String(), "\n")
}

func renderWeaponSelect(report stats.Report, window, width int) string {
	if len(report.Rhythm) == 0 {
		return "No weapon-select sessions found."
	}
	hits, misses := 0, 0
	for _, s := range report.Rhythm {
		hits += s.Stats.Hits
		misses += s.Stats.Misses
	}
	trend := stats.MovingAverage(report.RhythmAccuracyTrend(), window)
	if limit := width - len(trendPrefix); limit > 0 && len(trend) > limit {
		trend = trend[len(trend)-limit:]
	}
	lines := []string{
		fmt.Sprintf("Sessions: %d", len(report.Rhythm)),
		fmt.Sprintf("Overall accuracy: %d%% (%d hits, %d misses)", stats.RhythmAccuracy(hits, misses), hits, misses),
		trendPrefix + stats.Sparkline(trend),
		"",
		"Recent sessions",
	}

	recent := report.Rhythm
	if len(recent) > recentSessions {
		recent = recent[len(recent)-recentSessions:]
	}
	for i := len(recent) - 1; i >= 0; i-- {
		s := recent[i]
		duration := "endless"
		if s.Duration > 0 {
			duration = fmt.Sprintf("%ds", s.Duration)
		}
		lines = append(lines, fmt.Sprintf("%s  %-7s %-7s %3d%%  %d/%d",
			s.EndedAt.Local().Format("2006-01-02 15:04"), s.Speed, duration, s.Stats.Accuracy, s.Stats.Hits, s.Stats.Hits+s.Stats.Misses))
	}
	return strings.Join(lines, "\n")
}
