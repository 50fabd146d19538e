// Package config provides configuration helpers and TOML parsing.
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file. Nil pointers and
// missing map entries mean "use the default".
type FileConfig struct {
	Drill        DrillConfig        `toml:"drill"`
	FakeAttacks  FakeAttackConfig   `toml:"fake-attacks"`
	Slots        map[string]string  `toml:"slots,omitempty"`
	Keybindings  map[string]string  `toml:"keybindings,omitempty"`
	WeaponSelect WeaponSelectConfig `toml:"weapon-select"`
	Patterns     PatternsConfig     `toml:"patterns"`
}

// DrillConfig maps drill round settings.
type DrillConfig struct {
	RoundSize        *int     `toml:"round-size,omitempty"`
	AutoAdvance      *bool    `toml:"auto-advance,omitempty"`
	AutoAdvanceDelay *float64 `toml:"auto-advance-delay,omitempty"`
	Pressure         *bool    `toml:"pressure,omitempty"`
	DrainRate        *float64 `toml:"drain-rate,omitempty"`
}

// FakeAttackConfig maps fake-attack settings.
type FakeAttackConfig struct {
	Enabled   *bool   `toml:"enabled,omitempty"`
	CancelKey *string `toml:"cancel-key,omitempty"`
}

// WeaponSelectConfig maps weapon-select mode settings.
type WeaponSelectConfig struct {
	Speed    *string `toml:"speed,omitempty"`
	Duration *int    `toml:"duration,omitempty"`
}

// PatternsConfig maps common patterns.
type PatternsConfig struct {
	Likelihood *int          `toml:"likelihood,omitempty"`
	List       []PatternFile `toml:"list,omitempty"`
}

// PatternFile is one pattern as "Weapon-Skill" strings. An empty side marks
// an incomplete pattern.
type PatternFile struct {
	From string `toml:"from"`
	To   string `toml:"to"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, nil
}

// Save encodes cfg and replaces the file at path atomically.
func Save(path string, cfg FileConfig) error {
	var buf bytes.Buffer
	buf.WriteString("# skilldrill configuration\n\n")
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return WriteFileAtomic(path, buf.Bytes())
}

// WriteFileAtomic writes data to a temp file next to path and renames it
// into place.
func WriteFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	tmpFile, err := os.CreateTemp(dir, filepath.Base(path)+"-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		return fmt.Errorf("failed to chmod %s: %w", path, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// Template returns a commented config file listing every setting.
func Template() string {
	return fmt.Sprintf(`# skilldrill configuration
# Uncomment a value to enable it. CLI flags override config values.

[drill]
# round-size = %d            # Components per round (1-%d)
# auto-advance = false       # Skip a component when its timer runs out
# auto-advance-delay = %.1f  # Seconds before skipping (%.1f-%.1f)
# pressure = false           # Pressure mode: a draining meter ends the round at zero
# drain-rate = %.1f          # Meter points drained per second (%.1f-%.1f)

[fake-attacks]
# enabled = false            # Add fake-attack variants (Greatsword Q, Sword E, Axe E)
# cancel-key = %q

# Slot weapons. Use "none" to leave a slot empty.
[slots]
# 1 = "LongBow"
# 2 = "Reaper"
# 3 = "Spear"
# 4 = "Axe"
# 5 = "Slasher"
# 6 = "Pistols"
# 7 = "Sword"
# 8 = "Greatsword"

# Slot keys. Unset slots use their digit. Examples: "q", "Space", "LeftShift", "Mouse4".
[keybindings]
# 1 = "1"

[weapon-select]
# speed = %q              # slow, medium, fast or extreme
# duration = %d               # Seconds: 0 (endless), 30, 60, 120 or 300

[patterns]
# likelihood = %d            # Chance (0-100) a matching pattern steers the next pick
# [[patterns.list]]
# from = "LongBow-Q"
# to = "Sword-E"
`,
		DefaultRoundSize, MaxRoundSize,
		DefaultAutoAdvanceDelay.Seconds(), MinAutoAdvanceDelay.Seconds(), MaxAutoAdvanceDelay.Seconds(),
		DefaultDrainRate, MinDrainRate, MaxDrainRate,
		DefaultCancelKey,
		DefaultSpeed,
		DefaultDuration,
		DefaultPatternLikelihood,
	)
}
