package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/verte-zerg/skilldrill/internal/config"
	"github.com/verte-zerg/skilldrill/internal/loadout"
	"github.com/verte-zerg/skilldrill/internal/model"
	"github.com/verte-zerg/skilldrill/internal/stats"
	"github.com/verte-zerg/skilldrill/internal/statsui"
	"github.com/verte-zerg/skilldrill/internal/store"
)

const (
	defaultCurveWindow = 20
	defaultSlowestTop  = 10
	defaultPlainWidth  = 80
)

var (
	statsMode        string
	statsSince       string
	statsLast        int
	statsCurveWindow int
	statsPlain       bool

	pbsResetYes bool
)

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show stats",
		Args:  cobra.NoArgs,
		RunE:  runStatsCmd,
	}
	cmd.Flags().StringVar(&statsMode, "mode", "", "mode filter (standard or pressure)")
	cmd.Flags().StringVar(&statsSince, "since", "", "start date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&statsLast, "last", 0, "limit to last N rounds")
	cmd.Flags().IntVar(&statsCurveWindow, "curve-window", defaultCurveWindow, "moving average window")
	cmd.Flags().BoolVar(&statsPlain, "plain", false, "print a text report instead of the browser")
	return cmd
}

func statsConfig() (model.StatsConfig, error) {
	var sinceTime *time.Time
	if statsSince != "" {
		parsed, err := time.ParseInLocation("2006-01-02", statsSince, time.Local)
		if err != nil {
			return model.StatsConfig{}, fmt.Errorf("invalid --since value: %w", err)
		}
		sinceTime = &parsed
	}
	mode := strings.ToLower(strings.TrimSpace(statsMode))
	switch mode {
	case "", model.ModeStandard, model.ModePressure:
	default:
		return model.StatsConfig{}, fmt.Errorf("invalid --mode value %q (expected %s or %s)", statsMode, model.ModeStandard, model.ModePressure)
	}
	if statsLast < 0 {
		return model.StatsConfig{}, fmt.Errorf("--last must be >= 0")
	}
	if statsCurveWindow < 1 {
		return model.StatsConfig{}, fmt.Errorf("--curve-window must be >= 1")
	}
	return model.StatsConfig{
		Mode:        mode,
		Since:       sinceTime,
		Last:        statsLast,
		CurveWindow: statsCurveWindow,
	}, nil
}

func runStatsCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := statsConfig()
	if err != nil {
		return err
	}

	st, err := store.Open(config.DBPath(), consoleLogger())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer closeStore(st)

	if statsPlain {
		report, err := stats.BuildReport(cmd.Context(), st, cfg)
		if err != nil {
			return fmt.Errorf("failed to build report: %w", err)
		}
		return renderPlainReport(cmd.OutOrStdout(), report, cfg, terminalWidth())
	}

	m := statsui.NewModel(st, cfg)
	program := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run stats TUI: %w", err)
	}
	return nil
}

func renderPlainReport(w io.Writer, report stats.Report, cfg model.StatsConfig, width int) error {
	if err := stats.RenderHistory(w, report.Rounds, cfg.CurveWindow, width); err != nil {
		return err
	}
	if err := stats.RenderSlowest(w, report.ComponentsWindow, defaultSlowestTop); err != nil {
		return err
	}
	if err := stats.RenderPBTable(w, report.PersonalBests, report.Descriptions()); err != nil {
		return err
	}
	if len(report.Rhythm) == 0 {
		return nil
	}
	var hits, misses int
	for _, s := range report.Rhythm {
		hits += s.Stats.Hits
		misses += s.Stats.Misses
	}
	if err := printf(w, "Weapon Select (%d sessions)\n", len(report.Rhythm)); err != nil {
		return err
	}
	return stats.RenderRhythmSummary(w, model.RhythmStats{
		Hits:     hits,
		Misses:   misses,
		Accuracy: stats.RhythmAccuracy(hits, misses),
	})
}

func terminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return defaultPlainWidth
	}
	return width
}

func newPBsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pbs",
		Short: "List personal bests",
		Args:  cobra.NoArgs,
		RunE:  runPBsCmd,
	}
	reset := &cobra.Command{
		Use:   "reset",
		Short: "Delete all personal bests",
		Args:  cobra.NoArgs,
		RunE:  runPBsResetCmd,
	}
	reset.Flags().BoolVar(&pbsResetYes, "yes", false, "confirm deletion")
	cmd.AddCommand(reset)
	return cmd
}

func runPBsCmd(cmd *cobra.Command, _ []string) error {
	st, err := store.Open(config.DBPath(), consoleLogger())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer closeStore(st)

	report, err := stats.BuildReport(cmd.Context(), st, model.StatsConfig{CurveWindow: 1})
	if err != nil {
		return fmt.Errorf("failed to load personal bests: %w", err)
	}
	descriptions := report.Descriptions()
	if cfg, err := loadSettings(config.ConfigPath()); err == nil {
		if l, err := loadout.FromConfig(cfg); err == nil {
			for _, c := range l.Components() {
				descriptions[c.Key] = c.Description
			}
		}
	}
	return stats.RenderPBTable(cmd.OutOrStdout(), report.PersonalBests, descriptions)
}

func runPBsResetCmd(cmd *cobra.Command, _ []string) error {
	if !pbsResetYes {
		return fmt.Errorf("this deletes every personal best; rerun with --yes to confirm")
	}
	log := consoleLogger()
	st, err := store.Open(config.DBPath(), log)
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer closeStore(st)

	cleared, err := resetPersonalBests(cmd.Context(), st)
	if err != nil {
		return err
	}
	log.Info().Int("cleared", cleared).Msg("personal bests reset")
	return printf(cmd.OutOrStdout(), "Personal bests cleared (%d).\n", cleared)
}

type pbStore interface {
	LoadPersonalBests(ctx context.Context) (map[string]time.Duration, error)
	ResetPersonalBests(ctx context.Context) error
}

// resetPersonalBests clears the stored personal bests and returns how many
// were removed.
func resetPersonalBests(ctx context.Context, st pbStore) (int, error) {
	pbs, err := st.LoadPersonalBests(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to load personal bests: %w", err)
	}
	tracker := stats.NewTracker(pbs)
	cleared := tracker.Len()
	if err := st.ResetPersonalBests(ctx); err != nil {
		return 0, fmt.Errorf("failed to reset personal bests: %w", err)
	}
	tracker.ResetAll()
	return cleared, nil
}
