package model

import "time"

// Config is the resolved trainer configuration.
type Config struct {
	RoundSize        int
	AutoAdvance      bool
	AutoAdvanceDelay time.Duration
	Pressure         bool
	DrainRate        float64

	FakeAttacks bool
	CancelKey   string

	// Slots and Keybindings are indexed by slot-1.
	Slots       [SlotCount]Weapon
	Keybindings [SlotCount]string

	Patterns          []Pattern
	PatternLikelihood int

	RhythmSpeed    string
	RhythmDuration int
}

// StatsConfig defines filters and options for stats output.
type StatsConfig struct {
	Mode        string
	Since       *time.Time
	Last        int
	CurveWindow int
}

// Drill modes recorded in history.
const (
	ModeStandard = "standard"
	ModePressure = "pressure"
)
