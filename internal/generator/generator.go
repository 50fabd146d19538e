// Package generator builds randomized drill rounds.
package generator

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/verte-zerg/skilldrill/internal/model"
)

// ErrEmptyCatalog is returned when a round is requested with no components.
var ErrEmptyCatalog = errors.New("no components configured: assign at least one weapon to a slot")

// Generator produces randomized drill rounds.
type Generator struct {
	rnd *rand.Rand
}

// New returns a Generator seeded with the current time.
func New() *Generator {
	return NewWithSeed(time.Now().UnixNano())
}

// NewWithSeed returns a deterministic Generator.
func NewWithSeed(seed int64) *Generator {
	return &Generator{rnd: rand.New(rand.NewSource(seed))}
}

// Generate builds a round of size components drawn from catalog.
//
// Draws come from a pool that starts as a copy of the catalog and is refilled
// with a fresh copy whenever it empties, so every aligned block of
// len(catalog) draws covers the whole catalog. Nothing prevents the last draw
// of one block from repeating as the first draw of the next.
//
// From the second draw on, if some complete pattern starts at the previous
// component's weapon skill, a roll in [0,100) below likelihood selects one of
// those patterns uniformly and the draw targets its non-fake destination,
// taken from the pool when present and from the catalog otherwise.
func (g *Generator) Generate(size int, catalog []model.Component, patterns []model.Pattern, likelihood int) ([]model.Component, error) {
	if len(catalog) == 0 {
		return nil, ErrEmptyCatalog
	}
	if size <= 0 {
		return nil, fmt.Errorf("round size must be > 0, got %d", size)
	}

	pool := make([]model.Component, len(catalog))
	copy(pool, catalog)
	round := make([]model.Component, 0, size)
	for i := 0; i < size; i++ {
		var (
			picked model.Component
			ok     bool
		)
		if i > 0 && len(patterns) > 0 {
			picked, pool, ok = g.patternPick(round[i-1], catalog, pool, patterns, likelihood)
		}
		if !ok {
			idx := g.rnd.Intn(len(pool))
			picked = pool[idx]
			pool = removeAt(pool, idx)
		}
		round = append(round, picked)
		if len(pool) == 0 {
			pool = append(pool, catalog...)
		}
	}
	return round, nil
}

func (g *Generator) patternPick(prev model.Component, catalog, pool []model.Component, patterns []model.Pattern, likelihood int) (model.Component, []model.Component, bool) {
	matching := matchingPatterns(patterns, func(from model.SkillRef) bool {
		return from == prev.Ref()
	})
	if len(matching) == 0 {
		return model.Component{}, pool, false
	}
	if g.rnd.Intn(100) >= likelihood {
		return model.Component{}, pool, false
	}
	target := *matching[g.rnd.Intn(len(matching))].To
	if idx := findTarget(pool, target); idx >= 0 {
		picked := pool[idx]
		return picked, removeAt(pool, idx), true
	}
	if idx := findTarget(catalog, target); idx >= 0 {
		return catalog[idx], pool, true
	}
	return model.Component{}, pool, false
}

func matchingPatterns(patterns []model.Pattern, match func(model.SkillRef) bool) []model.Pattern {
	var out []model.Pattern
	for _, p := range patterns {
		if !p.Complete() {
			continue
		}
		if match(*p.From) {
			out = append(out, p)
		}
	}
	return out
}

// findTarget returns the index of the first non-fake component for ref.
func findTarget(components []model.Component, ref model.SkillRef) int {
	for i, c := range components {
		if !c.IsFake && c.Ref() == ref {
			return i
		}
	}
	return -1
}

func removeAt(components []model.Component, idx int) []model.Component {
	return append(components[:idx], components[idx+1:]...)
}
