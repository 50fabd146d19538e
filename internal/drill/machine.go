// Package drill matches input tokens against a component's required key
// sequence.
package drill

import "github.com/verte-zerg/skilldrill/internal/keys"

// State is the machine state.
type State int

// Machine states.
const (
	Idle State = iota
	Awaiting
	Flashing
	Complete
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Awaiting:
		return "awaiting"
	case Flashing:
		return "flashing"
	case Complete:
		return "complete"
	default:
		return "unknown"
	}
}

// Policy decides what a wrong key does.
type Policy int

const (
	// ResetOnMismatch counts an error and restarts the sequence once the
	// error flash is cleared with Reset.
	ResetOnMismatch Policy = iota
	// HoldOnMismatch keeps the progress and counts nothing; the caller
	// applies its own penalty.
	HoldOnMismatch
)

// Outcome is the effect of a single input.
type Outcome int

// Input outcomes.
const (
	Ignored Outcome = iota
	Advanced
	Completed
	Mismatched
)

// Machine tracks progress through one component's key sequence.
type Machine struct {
	policy   Policy
	required []string
	progress int
	errors   int
	state    State
}

// NewMachine returns an idle machine.
func NewMachine(policy Policy) *Machine {
	return &Machine{policy: policy}
}

// SetPolicy changes the mismatch policy for subsequent inputs.
func (m *Machine) SetPolicy(p Policy) {
	m.policy = p
}

// Start begins matching a fresh sequence.
func (m *Machine) Start(required []string) {
	m.required = append(m.required[:0], required...)
	m.progress = 0
	m.errors = 0
	m.state = Awaiting
	if len(m.required) == 0 {
		m.state = Complete
	}
}

// Stop returns the machine to Idle. Inputs are ignored until the next Start.
func (m *Machine) Stop() {
	m.state = Idle
	m.progress = 0
}

// Input feeds one token. Tokens compare case-insensitively.
func (m *Machine) Input(token string) Outcome {
	if m.state != Awaiting {
		return Ignored
	}
	if keys.Equal(token, m.required[m.progress]) {
		m.progress++
		if m.progress == len(m.required) {
			m.state = Complete
			return Completed
		}
		return Advanced
	}
	if m.policy == ResetOnMismatch {
		m.errors++
		m.state = Flashing
	}
	return Mismatched
}

// Reset ends an error flash and restarts the sequence from its first key.
func (m *Machine) Reset() {
	if m.state != Flashing {
		return
	}
	m.progress = 0
	m.state = Awaiting
}

// State returns the current state.
func (m *Machine) State() State { return m.state }

// Progress returns how many required keys have been matched.
func (m *Machine) Progress() int { return m.progress }

// Errors returns the mismatch count for the current component.
func (m *Machine) Errors() int { return m.errors }

// Required returns the sequence being matched.
func (m *Machine) Required() []string {
	out := make([]string, len(m.required))
	copy(out, m.required)
	return out
}
