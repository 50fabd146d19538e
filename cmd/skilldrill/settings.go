package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/skilldrill/internal/config"
	"github.com/verte-zerg/skilldrill/internal/keys"
	"github.com/verte-zerg/skilldrill/internal/loadout"
	"github.com/verte-zerg/skilldrill/internal/model"
	"github.com/verte-zerg/skilldrill/internal/patternfile"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
)

// updateSettings loads the settings file, applies fn and saves the result.
// Nothing is written when fn or validation fails.
func updateSettings(path string, fn func(cfg *model.Config) error) (model.Config, error) {
	fileCfg, err := config.LoadConfig(path)
	if err != nil {
		return model.Config{}, fmt.Errorf("failed to load config: %w", err)
	}
	cfg, err := config.Resolve(fileCfg)
	if err != nil {
		return model.Config{}, fmt.Errorf("invalid config %s: %w", path, err)
	}
	if err := fn(&cfg); err != nil {
		return model.Config{}, err
	}
	if err := config.Validate(cfg); err != nil {
		return model.Config{}, err
	}
	if err := config.Save(path, config.ToFile(cfg)); err != nil {
		return model.Config{}, err
	}
	return cfg, nil
}

// updateLoadout applies fn to the loadout stored in the settings file.
func updateLoadout(path string, fn func(l *loadout.Loadout) error) (model.Config, error) {
	return updateSettings(path, func(cfg *model.Config) error {
		l, err := loadout.FromConfig(*cfg)
		if err != nil {
			return err
		}
		if err := fn(l); err != nil {
			return err
		}
		l.Apply(cfg)
		return nil
	})
}

func loadSettings(path string) (model.Config, error) {
	fileCfg, err := config.LoadConfig(path)
	if err != nil {
		return model.Config{}, fmt.Errorf("failed to load config: %w", err)
	}
	cfg, err := config.Resolve(fileCfg)
	if err != nil {
		return model.Config{}, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

func parseSlotArg(arg string) (int, error) {
	slot, err := strconv.Atoi(strings.TrimSpace(arg))
	if err != nil {
		return 0, fmt.Errorf("%w: %q (expected 1-%d)", loadout.ErrInvalidSlot, arg, model.SlotCount)
	}
	return slot, nil
}

func parseToggle(arg string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(arg)) {
	case "on", "true", "yes", "1":
		return true, nil
	case "off", "false", "no", "0":
		return false, nil
	}
	return false, fmt.Errorf("expected on or off, got %q", arg)
}

func newSlotCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "slot <n> <weapon|none>",
		Short: "Assign a weapon to a slot",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			slot, err := parseSlotArg(args[0])
			if err != nil {
				return err
			}
			cfg, err := updateLoadout(config.ConfigPath(), func(l *loadout.Loadout) error {
				return l.SetWeapon(slot, args[1])
			})
			if err != nil {
				return err
			}
			log := consoleLogger()
			log.Debug().Int("slot", slot).Str("weapon", string(cfg.Slots[slot-1])).Msg("slot updated")
			weapon := string(cfg.Slots[slot-1])
			if weapon == "" {
				weapon = "none"
			}
			return printf(cmd.OutOrStdout(), "Slot %d: %s\n", slot, weapon)
		},
	}
}

func newBindCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "bind <n> <token>",
		Short: "Bind a key or mouse button to a slot",
		Long:  "Bind a key or mouse button to a slot. Tokens: letters, digits, Space, LeftShift, Mouse1-Mouse5, and so on.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			slot, err := parseSlotArg(args[0])
			if err != nil {
				return err
			}
			token := keys.Normalize(args[1])
			if _, err := updateLoadout(config.ConfigPath(), func(l *loadout.Loadout) error {
				return l.SetKeybinding(slot, token)
			}); err != nil {
				return err
			}
			log := consoleLogger()
			log.Debug().Int("slot", slot).Str("key", token).Msg("keybinding updated")
			return printf(cmd.OutOrStdout(), "Slot %d: [%s]\n", slot, keys.Display(token))
		},
	}
}

func newCancelKeyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cancel-key <token>",
		Short: "Set the fake-attack cancel key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			token := keys.Normalize(args[0])
			if _, err := updateLoadout(config.ConfigPath(), func(l *loadout.Loadout) error {
				return l.SetCancelKey(token)
			}); err != nil {
				return err
			}
			return printf(cmd.OutOrStdout(), "Cancel key: [%s]\n", keys.Display(token))
		},
	}
}

func newFakeAttacksCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "fake-attacks <on|off>",
		Short:     "Enable or disable fake-attack components",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"on", "off"},
		RunE: func(cmd *cobra.Command, args []string) error {
			enabled, err := parseToggle(args[0])
			if err != nil {
				return err
			}
			if _, err := updateLoadout(config.ConfigPath(), func(l *loadout.Loadout) error {
				return l.SetFakeAttacks(enabled)
			}); err != nil {
				return err
			}
			state := "off"
			if enabled {
				state = "on"
			}
			return printf(cmd.OutOrStdout(), "Fake attacks: %s\n", state)
		},
	}
}

func newComponentsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "components",
		Short: "List the components of the current loadout",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadSettings(config.ConfigPath())
			if err != nil {
				return err
			}
			l, err := loadout.FromConfig(cfg)
			if err != nil {
				return err
			}
			comps := l.Components()
			if len(comps) == 0 {
				return printf(cmd.OutOrStdout(), "No weapons assigned. Use `skilldrill slot <n> <weapon>` to equip one.\n")
			}
			return printf(cmd.OutOrStdout(), "%s\n", renderComponents(comps))
		},
	}
}

func renderComponents(comps []model.Component) string {
	rows := make([][]string, 0, len(comps))
	for _, c := range comps {
		tokens := c.RequiredKeys()
		display := make([]string, len(tokens))
		for i, tok := range tokens {
			display[i] = keys.Display(tok)
		}
		rows = append(rows, []string{strconv.Itoa(c.Slot), c.Description, strings.Join(display, " + ")})
	}
	return newListTable("Slot", "Component", "Keys").Rows(rows...).Render()
}

func newListTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
}

func newPatternCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pattern",
		Short: "Manage common patterns",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List common patterns",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadSettings(config.ConfigPath())
			if err != nil {
				return err
			}
			return printPatterns(cmd.OutOrStdout(), cfg)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "add <from> [to]",
		Short: "Add a pattern such as LongBow-Q Sword-E",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			pf := config.PatternFile{From: args[0]}
			if len(args) == 2 {
				pf.To = args[1]
			}
			p, err := config.ParsePattern(pf)
			if err != nil {
				return err
			}
			cfg, err := updateSettings(config.ConfigPath(), func(cfg *model.Config) error {
				cfg.Patterns = append(cfg.Patterns, p)
				return nil
			})
			if err != nil {
				return err
			}
			return printPatterns(cmd.OutOrStdout(), cfg)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "remove <index>",
		Short: "Remove a pattern by its list number",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			idx, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid index %q", args[0])
			}
			cfg, err := updateSettings(config.ConfigPath(), func(cfg *model.Config) error {
				return removePattern(cfg, idx)
			})
			if err != nil {
				return err
			}
			return printPatterns(cmd.OutOrStdout(), cfg)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "likelihood <pct>",
		Short: "Set the chance (0-100) that a matching pattern steers the next pick",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pct, err := strconv.Atoi(strings.TrimSuffix(strings.TrimSpace(args[0]), "%"))
			if err != nil {
				return fmt.Errorf("%w: likelihood %q", config.ErrInvalidSetting, args[0])
			}
			if _, err := updateSettings(config.ConfigPath(), func(cfg *model.Config) error {
				cfg.PatternLikelihood = pct
				return nil
			}); err != nil {
				return err
			}
			return printf(cmd.OutOrStdout(), "Pattern likelihood: %d%%\n", pct)
		},
	})
	var replace bool
	importCmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import patterns from a text file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			patterns, err := patternfile.Load(args[0])
			if err != nil {
				return fmt.Errorf("failed to import %s: %w", args[0], err)
			}
			cfg, err := updateSettings(config.ConfigPath(), func(cfg *model.Config) error {
				cfg.Patterns = mergePatterns(cfg.Patterns, patterns, replace)
				return nil
			})
			if err != nil {
				return err
			}
			log := consoleLogger()
			log.Debug().Int("count", len(patterns)).Str("path", args[0]).Msg("patterns imported")
			return printPatterns(cmd.OutOrStdout(), cfg)
		},
	}
	importCmd.Flags().BoolVar(&replace, "replace", false, "replace existing patterns instead of appending")
	cmd.AddCommand(importCmd)
	cmd.AddCommand(&cobra.Command{
		Use:   "export <file>",
		Short: "Export complete patterns to a text file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadSettings(config.ConfigPath())
			if err != nil {
				return err
			}
			n, err := patternfile.Write(args[0], cfg.Patterns)
			if err != nil {
				return err
			}
			return printf(cmd.OutOrStdout(), "Exported %d patterns to %s\n", n, args[0])
		},
	})
	return cmd
}

// removePattern drops the pattern at the 1-based index.
func removePattern(cfg *model.Config, idx int) error {
	if idx < 1 || idx > len(cfg.Patterns) {
		return fmt.Errorf("pattern %d does not exist (have %d)", idx, len(cfg.Patterns))
	}
	cfg.Patterns = append(cfg.Patterns[:idx-1:idx-1], cfg.Patterns[idx:]...)
	return nil
}

// mergePatterns appends imported patterns, skipping ones already present.
func mergePatterns(existing, imported []model.Pattern, replace bool) []model.Pattern {
	var out []model.Pattern
	if !replace {
		out = append(out, existing...)
	}
	seen := make(map[config.PatternFile]bool, len(out))
	for _, p := range out {
		seen[config.FormatPattern(p)] = true
	}
	for _, p := range imported {
		key := config.FormatPattern(p)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, p)
	}
	return out
}

func printPatterns(w io.Writer, cfg model.Config) error {
	if err := printf(w, "Likelihood: %d%%\n", cfg.PatternLikelihood); err != nil {
		return err
	}
	if len(cfg.Patterns) == 0 {
		return printf(w, "No patterns. Add one with `skilldrill pattern add <from> <to>`.\n")
	}
	return printf(w, "%s\n", renderPatterns(cfg.Patterns))
}

func renderPatterns(patterns []model.Pattern) string {
	rows := make([][]string, 0, len(patterns))
	for i, p := range patterns {
		pf := config.FormatPattern(p)
		from, to := pf.From, pf.To
		if from == "" {
			from = "-"
		}
		if to == "" {
			to = "-"
		}
		state := "active"
		if !p.Complete() {
			state = "incomplete"
		}
		rows = append(rows, []string{strconv.Itoa(i + 1), from, to, state})
	}
	return newListTable("#", "From", "To", "State").Rows(rows...).Render()
}

func printf(w io.Writer, format string, args ...any) error {
	if _, err := fmt.Fprintf(w, format, args...); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
