// Package model defines shared data structures.
package model

import (
	"fmt"
	"strings"
	"time"
)

// SlotCount is the number of weapon slots (and rhythm lanes).
const SlotCount = 8

// Weapon names a weapon from the fixed weapon list.
type Weapon string

// Weapons lists every weapon that can be assigned to a slot.
var Weapons = []Weapon{
	"Spear",
	"Slasher",
	"Axe",
	"Mace",
	"Sword",
	"Crossbow",
	"Greatsword",
	"Whip",
	"LongBow",
	"Dagger",
	"Claw",
	"TwinBlade",
	"Pistols",
	"Reaper",
}

// ParseWeapon resolves a weapon name case-insensitively.
func ParseWeapon(name string) (Weapon, bool) {
	name = strings.TrimSpace(name)
	for _, w := range Weapons {
		if strings.EqualFold(string(w), name) {
			return w, true
		}
	}
	return "", false
}

// Skill is one of the weapon skill keys.
type Skill string

// Skill keys.
const (
	SkillQ Skill = "Q"
	SkillE Skill = "E"
)

// Skills lists skills in catalog order.
var Skills = []Skill{SkillQ, SkillE}

// ParseSkill resolves a skill case-insensitively.
func ParseSkill(s string) (Skill, bool) {
	s = strings.TrimSpace(s)
	for _, sk := range Skills {
		if strings.EqualFold(string(sk), s) {
			return sk, true
		}
	}
	return "", false
}

// SkillRef identifies a weapon skill regardless of slot or fake-attack variant.
type SkillRef struct {
	Weapon Weapon
	Skill  Skill
}

// String formats the reference as "Weapon-Skill".
func (r SkillRef) String() string {
	return string(r.Weapon) + "-" + string(r.Skill)
}

// ParseSkillRef parses "Weapon-Skill", splitting on the last dash.
func ParseSkillRef(s string) (SkillRef, error) {
	s = strings.TrimSpace(s)
	idx := strings.LastIndex(s, "-")
	if idx <= 0 || idx == len(s)-1 {
		return SkillRef{}, fmt.Errorf("invalid skill %q (expected Weapon-Skill)", s)
	}
	weapon, ok := ParseWeapon(s[:idx])
	if !ok {
		return SkillRef{}, fmt.Errorf("unknown weapon %q", s[:idx])
	}
	skill, ok := ParseSkill(s[idx+1:])
	if !ok {
		return SkillRef{}, fmt.Errorf("unknown skill %q", s[idx+1:])
	}
	return SkillRef{Weapon: weapon, Skill: skill}, nil
}

// Component is one drillable key sequence.
type Component struct {
	Key         string
	Description string
	Slot        int
	Weapon      Weapon
	Skill       Skill
	IsFake      bool
	CancelKey   string
}

// Ref returns the weapon skill this component drills.
func (c Component) Ref() SkillRef {
	return SkillRef{Weapon: c.Weapon, Skill: c.Skill}
}

// RequiredKeys splits the component key into its ordered input tokens.
func (c Component) RequiredKeys() []string {
	return SplitKey(c.Key)
}

// JoinKey builds a component key from ordered tokens.
func JoinKey(tokens ...string) string {
	return strings.Join(tokens, ",")
}

// SplitKey splits a component key into trimmed tokens.
func SplitKey(key string) []string {
	if key == "" {
		return nil
	}
	parts := strings.Split(key, ",")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}

// Pattern is a likely transition between two weapon skills.
// A pattern with a nil side is incomplete and never applied.
type Pattern struct {
	From *SkillRef
	To   *SkillRef
}

// Complete reports whether both sides are set.
func (p Pattern) Complete() bool {
	return p.From != nil && p.To != nil
}

// RoundResult records one completed component.
type RoundResult struct {
	Key            string
	Description    string
	CompletionTime time.Duration
	IsNewPB        bool
	Errors         int
}

// RoundStats aggregates a round's results.
type RoundStats struct {
	Average    time.Duration
	Fastest    time.Duration
	Slowest    time.Duration
	NewPBCount int
}

// PersonalBest pairs a component key with its fastest time.
type PersonalBest struct {
	Key  string
	Time time.Duration
}

// PressureState is the pressure meter.
type PressureState struct {
	Bar      float64
	Warning  bool
	Critical bool
}

// RhythmNote is a falling note in weapon-select mode.
type RhythmNote struct {
	ID           int
	Lane         int
	Key          string
	SpawnTime    time.Time
	FallDuration time.Duration
	Hit          bool
	Missed       bool
}

// Resolved reports whether the note was hit or missed.
func (n RhythmNote) Resolved() bool {
	return n.Hit || n.Missed
}

// RhythmStats is the weapon-select tally.
type RhythmStats struct {
	Hits     int
	Misses   int
	Accuracy int
}

// RoundRecord captures a finished drill round for history.
type RoundRecord struct {
	ID        string
	Mode      string
	StartedAt time.Time
	EndedAt   time.Time
	RoundSize int
	GameOver  bool
	Results   []RoundResult
}

// RoundAggregate summarizes a stored round for reporting.
type RoundAggregate struct {
	ID        string
	Mode      string
	EndedAt   time.Time
	RoundSize int
	Completed int
	GameOver  bool
	Average   time.Duration
	Errors    int
}

// RhythmRecord captures a finished weapon-select session.
type RhythmRecord struct {
	ID        string
	StartedAt time.Time
	EndedAt   time.Time
	Speed     string
	Duration  int
	Stats     RhythmStats
}

// ComponentAggregate aggregates stored results for one component key.
type ComponentAggregate struct {
	Key         string
	Description string
	Count       int
	TotalTime   time.Duration
	Errors      int
}

// Average returns the mean completion time.
func (a ComponentAggregate) Average() time.Duration {
	if a.Count == 0 {
		return 0
	}
	return a.TotalTime / time.Duration(a.Count)
}
