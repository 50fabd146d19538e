package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/verte-zerg/skilldrill/internal/keys"
	"github.com/verte-zerg/skilldrill/internal/loadout"
	"github.com/verte-zerg/skilldrill/internal/model"
	"github.com/verte-zerg/skilldrill/internal/rhythm"
)

// Defaults and limits.
const (
	DefaultRoundSize         = 20
	MinRoundSize             = 1
	MaxRoundSize             = 9999
	DefaultAutoAdvanceDelay  = 3 * time.Second
	MinAutoAdvanceDelay      = 100 * time.Millisecond
	MaxAutoAdvanceDelay      = 10 * time.Second
	DefaultDrainRate         = 2.0
	MinDrainRate             = 0.5
	MaxDrainRate             = 10.0
	DefaultPatternLikelihood = 100
	DefaultCancelKey         = loadout.DefaultCancelKey
	DefaultSpeed             = rhythm.DefaultSpeed
	DefaultDuration          = rhythm.DefaultDuration
)

// ErrInvalidSetting marks a setting outside its allowed range.
var ErrInvalidSetting = errors.New("invalid setting")

// Defaults returns the resolved default configuration.
func Defaults() model.Config {
	return model.Config{
		RoundSize:         DefaultRoundSize,
		AutoAdvanceDelay:  DefaultAutoAdvanceDelay,
		DrainRate:         DefaultDrainRate,
		CancelKey:         DefaultCancelKey,
		Slots:             loadout.DefaultSlots,
		PatternLikelihood: DefaultPatternLikelihood,
		RhythmSpeed:       string(DefaultSpeed),
		RhythmDuration:    DefaultDuration,
	}
}

// Resolve applies defaults to fc and validates the result, including the
// keybinding table.
func Resolve(fc FileConfig) (model.Config, error) {
	cfg := Defaults()

	d := fc.Drill
	if d.RoundSize != nil {
		cfg.RoundSize = *d.RoundSize
	}
	if d.AutoAdvance != nil {
		cfg.AutoAdvance = *d.AutoAdvance
	}
	if d.AutoAdvanceDelay != nil {
		cfg.AutoAdvanceDelay = time.Duration(*d.AutoAdvanceDelay * float64(time.Second))
	}
	if d.Pressure != nil {
		cfg.Pressure = *d.Pressure
	}
	if d.DrainRate != nil {
		cfg.DrainRate = *d.DrainRate
	}
	if fc.FakeAttacks.Enabled != nil {
		cfg.FakeAttacks = *fc.FakeAttacks.Enabled
	}
	if fc.FakeAttacks.CancelKey != nil {
		cfg.CancelKey = keys.Normalize(*fc.FakeAttacks.CancelKey)
	}
	if fc.WeaponSelect.Speed != nil {
		cfg.RhythmSpeed = *fc.WeaponSelect.Speed
	}
	if fc.WeaponSelect.Duration != nil {
		cfg.RhythmDuration = *fc.WeaponSelect.Duration
	}
	if fc.Patterns.Likelihood != nil {
		cfg.PatternLikelihood = *fc.Patterns.Likelihood
	}

	for name, weapon := range fc.Slots {
		slot, err := parseSlot(name)
		if err != nil {
			return model.Config{}, err
		}
		w, err := parseSlotWeapon(weapon)
		if err != nil {
			return model.Config{}, fmt.Errorf("slot %d: %w", slot, err)
		}
		cfg.Slots[slot-1] = w
	}
	for name, token := range fc.Keybindings {
		slot, err := parseSlot(name)
		if err != nil {
			return model.Config{}, err
		}
		cfg.Keybindings[slot-1] = keys.Normalize(token)
	}
	patterns, err := parsePatterns(fc.Patterns.List)
	if err != nil {
		return model.Config{}, err
	}
	cfg.Patterns = patterns

	if err := Validate(cfg); err != nil {
		return model.Config{}, err
	}
	return cfg, nil
}

// Validate checks ranges and the slot/keybinding table.
func Validate(cfg model.Config) error {
	if cfg.RoundSize < MinRoundSize || cfg.RoundSize > MaxRoundSize {
		return fmt.Errorf("%w: round size %d (expected %d-%d)", ErrInvalidSetting, cfg.RoundSize, MinRoundSize, MaxRoundSize)
	}
	if cfg.AutoAdvanceDelay < MinAutoAdvanceDelay || cfg.AutoAdvanceDelay > MaxAutoAdvanceDelay {
		return fmt.Errorf("%w: auto-advance delay %.1fs (expected %.1f-%.1f)", ErrInvalidSetting,
			cfg.AutoAdvanceDelay.Seconds(), MinAutoAdvanceDelay.Seconds(), MaxAutoAdvanceDelay.Seconds())
	}
	if cfg.DrainRate < MinDrainRate || cfg.DrainRate > MaxDrainRate {
		return fmt.Errorf("%w: drain rate %.1f (expected %.1f-%.1f)", ErrInvalidSetting, cfg.DrainRate, MinDrainRate, MaxDrainRate)
	}
	if cfg.PatternLikelihood < 0 || cfg.PatternLikelihood > 100 {
		return fmt.Errorf("%w: pattern likelihood %d (expected 0-100)", ErrInvalidSetting, cfg.PatternLikelihood)
	}
	if _, err := rhythm.ParseSpeed(cfg.RhythmSpeed); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSetting, err)
	}
	if !rhythm.ValidDuration(cfg.RhythmDuration) {
		return fmt.Errorf("%w: weapon-select duration %d (expected one of %v)", ErrInvalidSetting, cfg.RhythmDuration, rhythm.Durations)
	}
	if _, err := loadout.FromConfig(cfg); err != nil {
		return err
	}
	return nil
}

// ToFile converts resolved settings to an explicit file representation.
func ToFile(cfg model.Config) FileConfig {
	roundSize := cfg.RoundSize
	autoAdvance := cfg.AutoAdvance
	delay := cfg.AutoAdvanceDelay.Seconds()
	pressure := cfg.Pressure
	drain := cfg.DrainRate
	fake := cfg.FakeAttacks
	cancel := cfg.CancelKey
	speed := cfg.RhythmSpeed
	duration := cfg.RhythmDuration
	likelihood := cfg.PatternLikelihood

	fc := FileConfig{
		Drill: DrillConfig{
			RoundSize:        &roundSize,
			AutoAdvance:      &autoAdvance,
			AutoAdvanceDelay: &delay,
			Pressure:         &pressure,
			DrainRate:        &drain,
		},
		FakeAttacks:  FakeAttackConfig{Enabled: &fake, CancelKey: &cancel},
		Slots:        map[string]string{},
		Keybindings:  map[string]string{},
		WeaponSelect: WeaponSelectConfig{Speed: &speed, Duration: &duration},
		Patterns:     PatternsConfig{Likelihood: &likelihood},
	}
	for i, w := range cfg.Slots {
		name := strconv.Itoa(i + 1)
		if w == "" {
			fc.Slots[name] = "none"
		} else {
			fc.Slots[name] = string(w)
		}
		if b := cfg.Keybindings[i]; b != "" {
			fc.Keybindings[name] = b
		}
	}
	for _, p := range cfg.Patterns {
		fc.Patterns.List = append(fc.Patterns.List, FormatPattern(p))
	}
	return fc
}

// FormatPattern renders a pattern with empty strings for missing sides.
func FormatPattern(p model.Pattern) PatternFile {
	var out PatternFile
	if p.From != nil {
		out.From = p.From.String()
	}
	if p.To != nil {
		out.To = p.To.String()
	}
	return out
}

// ParsePattern parses a pattern. Empty sides stay nil.
func ParsePattern(pf PatternFile) (model.Pattern, error) {
	var p model.Pattern
	if s := strings.TrimSpace(pf.From); s != "" {
		ref, err := model.ParseSkillRef(s)
		if err != nil {
			return model.Pattern{}, err
		}
		p.From = &ref
	}
	if s := strings.TrimSpace(pf.To); s != "" {
		ref, err := model.ParseSkillRef(s)
		if err != nil {
			return model.Pattern{}, err
		}
		p.To = &ref
	}
	return p, nil
}

func parsePatterns(list []PatternFile) ([]model.Pattern, error) {
	out := make([]model.Pattern, 0, len(list))
	for i, pf := range list {
		p, err := ParsePattern(pf)
		if err != nil {
			return nil, fmt.Errorf("%w: pattern %d: %v", ErrInvalidSetting, i+1, err)
		}
		out = append(out, p)
	}
	return out, nil
}

func parseSlot(name string) (int, error) {
	slot, err := strconv.Atoi(strings.TrimSpace(name))
	if err != nil || slot < 1 || slot > model.SlotCount {
		return 0, fmt.Errorf("%w: %q (expected 1-%d)", loadout.ErrInvalidSlot, name, model.SlotCount)
	}
	return slot, nil
}

func parseSlotWeapon(name string) (model.Weapon, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" || strings.EqualFold(trimmed, "none") {
		return "", nil
	}
	w, ok := model.ParseWeapon(trimmed)
	if !ok {
		return "", fmt.Errorf("%w: %q", loadout.ErrInvalidWeapon, name)
	}
	return w, nil
}
