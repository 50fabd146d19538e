// Package main provides the CLI entrypoint for skilldrill.
package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/skilldrill/internal/config"
	"github.com/verte-zerg/skilldrill/internal/generator"
	"github.com/verte-zerg/skilldrill/internal/logger"
	"github.com/verte-zerg/skilldrill/internal/model"
	"github.com/verte-zerg/skilldrill/internal/rhythm"
	"github.com/verte-zerg/skilldrill/internal/stats"
	"github.com/verte-zerg/skilldrill/internal/store"
	"github.com/verte-zerg/skilldrill/internal/tui"
)

var (
	drillRoundSize        int
	drillAutoAdvance      bool
	drillAutoAdvanceDelay float64
	drillPressure         bool
	drillDrainRate        float64
	drillFakeAttacks      bool

	rhythmSpeed    string
	rhythmDuration int
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "skilldrill",
		Short:         "TUI weapon combo trainer",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runDrillCmd,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return config.LoadEnv()
		},
	}

	rootCmd.Flags().IntVar(&drillRoundSize, "round-size", config.DefaultRoundSize, "components per round")
	rootCmd.Flags().BoolVar(&drillAutoAdvance, "auto-advance", false, "skip a component when its timer runs out")
	rootCmd.Flags().Float64Var(&drillAutoAdvanceDelay, "auto-advance-delay", config.DefaultAutoAdvanceDelay.Seconds(), "seconds before a component is skipped")
	rootCmd.Flags().BoolVar(&drillPressure, "pressure", false, "pressure mode: a draining meter ends the round at zero")
	rootCmd.Flags().Float64Var(&drillDrainRate, "drain-rate", config.DefaultDrainRate, "meter points drained per second")
	rootCmd.Flags().BoolVar(&drillFakeAttacks, "fake-attacks", false, "add fake-attack variants")

	rootCmd.AddCommand(newRhythmCmd())
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newSlotCmd())
	rootCmd.AddCommand(newBindCmd())
	rootCmd.AddCommand(newCancelKeyCmd())
	rootCmd.AddCommand(newFakeAttacksCmd())
	rootCmd.AddCommand(newComponentsCmd())
	rootCmd.AddCommand(newPatternCmd())
	rootCmd.AddCommand(newPBsCmd())
	rootCmd.AddCommand(newStatsCmd())

	return rootCmd
}

// drillConfig merges explicitly set flags over the settings file.
func drillConfig(cmd *cobra.Command, fc config.FileConfig) (model.Config, error) {
	cfg, err := config.Resolve(fc)
	if err != nil {
		return model.Config{}, fmt.Errorf("invalid config %s: %w", config.ConfigPath(), err)
	}
	applyIntConfig(cmd, "round-size", &drillRoundSize, fc.Drill.RoundSize)
	applyBoolConfig(cmd, "auto-advance", &drillAutoAdvance, fc.Drill.AutoAdvance)
	applyFloatConfig(cmd, "auto-advance-delay", &drillAutoAdvanceDelay, fc.Drill.AutoAdvanceDelay)
	applyBoolConfig(cmd, "pressure", &drillPressure, fc.Drill.Pressure)
	applyFloatConfig(cmd, "drain-rate", &drillDrainRate, fc.Drill.DrainRate)
	applyBoolConfig(cmd, "fake-attacks", &drillFakeAttacks, fc.FakeAttacks.Enabled)

	cfg.RoundSize = drillRoundSize
	cfg.AutoAdvance = drillAutoAdvance
	cfg.AutoAdvanceDelay = time.Duration(drillAutoAdvanceDelay * float64(time.Second))
	cfg.Pressure = drillPressure
	cfg.DrainRate = drillDrainRate
	cfg.FakeAttacks = drillFakeAttacks
	if err := config.Validate(cfg); err != nil {
		return model.Config{}, err
	}
	return cfg, nil
}

// rhythmConfig merges the weapon-select flags over the settings file.
func rhythmConfig(cmd *cobra.Command, fc config.FileConfig) (model.Config, error) {
	cfg, err := config.Resolve(fc)
	if err != nil {
		return model.Config{}, fmt.Errorf("invalid config %s: %w", config.ConfigPath(), err)
	}
	applyStringConfig(cmd, "speed", &rhythmSpeed, fc.WeaponSelect.Speed)
	applyIntConfig(cmd, "duration", &rhythmDuration, fc.WeaponSelect.Duration)

	speed, err := rhythm.ParseSpeed(rhythmSpeed)
	if err != nil {
		return model.Config{}, fmt.Errorf("--speed: %w", err)
	}
	cfg.RhythmSpeed = string(speed)
	cfg.RhythmDuration = rhythmDuration
	if err := config.Validate(cfg); err != nil {
		return model.Config{}, err
	}
	return cfg, nil
}

func runDrillCmd(cmd *cobra.Command, _ []string) error {
	path := config.ConfigPath()
	fileCfg, err := config.LoadConfig(path)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	cfg, err := drillConfig(cmd, fileCfg)
	if err != nil {
		return err
	}

	log, closeLog, err := openTUILogger()
	if err != nil {
		return err
	}
	defer closeLog()

	st, err := store.Open(config.DBPath(), log)
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer closeStore(st)

	pbs, err := st.LoadPersonalBests(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to load personal bests: %w", err)
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	changes, err := config.Watch(ctx, path, log)
	if err != nil {
		log.Warn().Err(err).Msg("settings reload disabled")
	}

	m, err := tui.NewModel(tui.Deps{
		Config:     cfg,
		ConfigPath: path,
		Store:      st,
		Tracker:    stats.NewTracker(pbs),
		Generator:  generator.New(),
		Changes:    changes,
		Logger:     log,
	})
	if err != nil {
		return err
	}
	program := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

func newRhythmCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rhythm",
		Short: "Weapon-select rhythm mode",
		Args:  cobra.NoArgs,
		RunE:  runRhythmCmd,
	}
	cmd.Flags().StringVar(&rhythmSpeed, "speed", string(config.DefaultSpeed), "note speed: slow, medium, fast or extreme")
	cmd.Flags().IntVar(&rhythmDuration, "duration", config.DefaultDuration, "session seconds: 0 (endless), 30, 60, 120 or 300")
	return cmd
}

func runRhythmCmd(cmd *cobra.Command, _ []string) error {
	path := config.ConfigPath()
	fileCfg, err := config.LoadConfig(path)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	cfg, err := rhythmConfig(cmd, fileCfg)
	if err != nil {
		return err
	}

	log, closeLog, err := openTUILogger()
	if err != nil {
		return err
	}
	defer closeLog()

	st, err := store.Open(config.DBPath(), log)
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer closeStore(st)

	m, err := tui.NewRhythmModel(tui.Deps{
		Config:     cfg,
		ConfigPath: path,
		Store:      st,
		Generator:  generator.New(),
		Logger:     log,
	})
	if err != nil {
		return err
	}
	program := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.ConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := config.WriteFileAtomic(path, []byte(config.Template())); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

// openTUILogger logs to a file so output never lands on the alternate screen.
func openTUILogger() (zerolog.Logger, func(), error) {
	f, err := logger.OpenFile(config.DefaultLogPath())
	if err != nil {
		return zerolog.Nop(), func() {}, err
	}
	closeFn := func() {
		if cerr := f.Close(); cerr != nil {
			logErrf("failed to close log file: %v\n", cerr)
		}
	}
	return logger.New(f, config.LogLevel()), closeFn, nil
}

func consoleLogger() zerolog.Logger {
	return logger.Console(os.Stderr, config.LogLevel())
}

func closeStore(st *store.Store) {
	if cerr := st.Close(); cerr != nil {
		logErrf("failed to close db: %v\n", cerr)
	}
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyFloatConfig(cmd *cobra.Command, name string, target, value *float64) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyBoolConfig(cmd *cobra.Command, name string, target, value *bool) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
