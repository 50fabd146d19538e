package rhythm

import (
	"fmt"
	"strings"
	"time"
)

// Speed names a note speed tier.
type Speed string

// Speed tiers.
const (
	SpeedSlow    Speed = "slow"
	SpeedMedium  Speed = "medium"
	SpeedFast    Speed = "fast"
	SpeedExtreme Speed = "extreme"
)

// DefaultSpeed is used when no tier is configured.
const DefaultSpeed = SpeedMedium

// Tier holds the fall and spawn timing of a speed.
type Tier struct {
	Fall  time.Duration
	Spawn time.Duration
}

var tiers = map[Speed]Tier{
	SpeedSlow:    {Fall: 3000 * time.Millisecond, Spawn: 1200 * time.Millisecond},
	SpeedMedium:  {Fall: 2000 * time.Millisecond, Spawn: 900 * time.Millisecond},
	SpeedFast:    {Fall: 1500 * time.Millisecond, Spawn: 600 * time.Millisecond},
	SpeedExtreme: {Fall: 1000 * time.Millisecond, Spawn: 400 * time.Millisecond},
}

// Speeds lists tiers slowest first.
var Speeds = []Speed{SpeedSlow, SpeedMedium, SpeedFast, SpeedExtreme}

// ParseSpeed resolves a tier name case-insensitively.
func ParseSpeed(s string) (Speed, error) {
	sp := Speed(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := tiers[sp]; !ok {
		return "", fmt.Errorf("unknown speed %q (expected slow, medium, fast or extreme)", s)
	}
	return sp, nil
}

// Tier returns the timing for the speed, falling back to the default tier.
func (s Speed) Tier() Tier {
	if t, ok := tiers[s]; ok {
		return t
	}
	return tiers[DefaultSpeed]
}

// Durations lists the selectable session lengths in seconds. Zero is endless.
var Durations = []int{0, 30, 60, 120, 300}

// DefaultDuration is the session length in seconds when unset.
const DefaultDuration = 60

// ValidDuration reports whether seconds is a selectable length.
func ValidDuration(seconds int) bool {
	for _, d := range Durations {
		if d == seconds {
			return true
		}
	}
	return false
}
