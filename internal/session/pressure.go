package session

import (
	"time"

	"github.com/verte-zerg/skilldrill/internal/model"
)

// Pressure meter tuning.
const (
	MaxPressure       = 100.0
	WarningThreshold  = 30.0
	CriticalThreshold = 15.0
	SuccessBoost      = 10.0
	ErrorPenalty      = 5.0
	DrainTick         = 50 * time.Millisecond
)

const ticksPerSecond = float64(time.Second / DrainTick)

// Meter is the pressure bar. Warning and Critical latch when the bar falls to
// their threshold and clear only when it rises back above it.
type Meter struct {
	state model.PressureState
}

// MeterChange reports which flags were raised by an adjustment.
type MeterChange struct {
	Warning  bool
	Critical bool
	Empty    bool
}

// NewMeter returns a full meter.
func NewMeter() Meter {
	return Meter{state: model.PressureState{Bar: MaxPressure}}
}

// Reset refills the meter and clears both flags.
func (m *Meter) Reset() {
	m.state = model.PressureState{Bar: MaxPressure}
}

// State returns a snapshot.
func (m *Meter) State() model.PressureState {
	return m.state
}

// Drain applies one drain tick for a per-second rate.
func (m *Meter) Drain(ratePerSecond float64) MeterChange {
	return m.adjust(-ratePerSecond / ticksPerSecond)
}

// Boost rewards a completed component.
func (m *Meter) Boost() MeterChange {
	return m.adjust(SuccessBoost)
}

// Penalize charges a wrong key.
func (m *Meter) Penalize() MeterChange {
	return m.adjust(-ErrorPenalty)
}

func (m *Meter) adjust(delta float64) MeterChange {
	bar := m.state.Bar + delta
	if bar > MaxPressure {
		bar = MaxPressure
	}
	if bar < 1e-9 {
		bar = 0
	}
	m.state.Bar = bar

	var change MeterChange
	if bar <= WarningThreshold {
		if !m.state.Warning {
			m.state.Warning = true
			change.Warning = true
		}
	} else {
		m.state.Warning = false
	}
	if bar <= CriticalThreshold {
		if !m.state.Critical {
			m.state.Critical = true
			change.Critical = true
		}
	} else {
		m.state.Critical = false
	}
	change.Empty = bar <= 0
	return change
}
