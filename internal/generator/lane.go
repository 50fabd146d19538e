package generator

import "github.com/verte-zerg/skilldrill/internal/model"

// Lane returns a uniformly random lane in 1..n.
func (g *Generator) Lane(n int) int {
	return g.rnd.Intn(n) + 1
}

// PatternLane picks the lane following prevLane using patterns keyed by
// weapon only. The gate and uniform pattern choice match Generate. It returns
// 0 when no pattern applies, leaving the fallback to the caller.
func (g *Generator) PatternLane(prevLane int, slots [model.SlotCount]model.Weapon, patterns []model.Pattern, likelihood int) int {
	if prevLane < 1 || prevLane > model.SlotCount || len(patterns) == 0 {
		return 0
	}
	prev := slots[prevLane-1]
	if prev == "" {
		return 0
	}
	matching := matchingPatterns(patterns, func(from model.SkillRef) bool {
		return from.Weapon == prev
	})
	if len(matching) == 0 {
		return 0
	}
	if g.rnd.Intn(100) >= likelihood {
		return 0
	}
	target := matching[g.rnd.Intn(len(matching))].To.Weapon
	var lanes []int
	for i, w := range slots {
		if w == target {
			lanes = append(lanes, i+1)
		}
	}
	if len(lanes) == 0 {
		return 0
	}
	return lanes[g.rnd.Intn(len(lanes))]
}
