package statsui

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/skilldrill/internal/keys"
	"github.com/verte-zerg/skilldrill/internal/model"
	"github.com/verte-zerg/skilldrill/internal/stats"
)

func newTable(columns []table.Column) table.Model {
	t := table.New(table.WithColumns(columns), table.WithHeight(1))
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(dimColor).
		Foreground(lipgloss.Color("#C0C0C0")).
		Bold(true).
		PaddingLeft(0)
	styles.Cell = styles.Cell.PaddingLeft(0)
	styles.Selected = styles.Selected.
		Foreground(goldColor).
		Bold(true)
	t.SetStyles(styles)
	return t
}

func pbColumns() []table.Column {
	return []table.Column{
		{Title: "#", Width: 4},
		{Title: "Component", Width: 24},
		{Title: "Keys", Width: 16},
		{Title: "Time", Width: 8},
	}
}

// pbRows lists personal bests in the order given. Keys no longer in the
// history show "-" as their description.
func pbRows(pbs []model.PersonalBest, descriptions map[string]string) []table.Row {
	rows := make([]table.Row, 0, len(pbs))
	for i, pb := range pbs {
		desc := descriptions[pb.Key]
		if desc == "" {
			desc = "-"
		}
		rows = append(rows, table.Row{strconv.Itoa(i + 1), desc, displayKey(pb.Key), stats.Seconds(pb.Time)})
	}
	return rows
}

func componentColumns() []table.Column {
	return []table.Column{
		{Title: "Component", Width: 24},
		{Title: "Keys", Width: 16},
		{Title: "Reps", Width: 6},
		{Title: "Avg", Width: 8},
		{Title: "Errors", Width: 7},
	}
}

// componentRows lists components slowest first.
func componentRows(aggs []model.ComponentAggregate) []table.Row {
	sorted := stats.SlowestComponents(aggs, len(aggs))
	rows := make([]table.Row, 0, len(sorted))
	for _, a := range sorted {
		rows = append(rows, table.Row{
			a.Description,
			displayKey(a.Key),
			strconv.Itoa(a.Count),
			stats.Seconds(a.Average()),
			strconv.Itoa(a.Errors),
		})
	}
	return rows
}

func displayKey(key string) string {
	tokens := model.SplitKey(key)
	for i, t := range tokens {
		tokens[i] = keys.Display(t)
	}
	return strings.Join(tokens, "+")
}
