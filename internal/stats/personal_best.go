package stats

import (
	"sort"
	"time"

	"github.com/verte-zerg/skilldrill/internal/model"
)

// Tracker holds personal bests in memory. Persisting an accepted update is
// the caller's job.
type Tracker struct {
	pbs map[string]time.Duration
}

// NewTracker returns a Tracker seeded with stored personal bests.
func NewTracker(initial map[string]time.Duration) *Tracker {
	pbs := make(map[string]time.Duration, len(initial))
	for k, v := range initial {
		pbs[k] = v
	}
	return &Tracker{pbs: pbs}
}

// Get returns the personal best for a component key.
func (t *Tracker) Get(key string) (time.Duration, bool) {
	pb, ok := t.pbs[key]
	return pb, ok
}

// Update records d for key and reports whether it is a new personal best:
// true when no time is stored yet or d is strictly faster.
func (t *Tracker) Update(key string, d time.Duration) bool {
	if pb, ok := t.pbs[key]; ok && d >= pb {
		return false
	}
	t.pbs[key] = d
	return true
}

// ResetAll clears every personal best in memory. Store.ResetPersonalBests
// is the persistent counterpart.
func (t *Tracker) ResetAll() {
	t.pbs = map[string]time.Duration{}
}

// Len returns the number of stored personal bests.
func (t *Tracker) Len() int {
	return len(t.pbs)
}

// Sorted returns personal bests fastest first.
func (t *Tracker) Sorted() []model.PersonalBest {
	out := make([]model.PersonalBest, 0, len(t.pbs))
	for k, v := range t.pbs {
		out = append(out, model.PersonalBest{Key: k, Time: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Time == out[j].Time {
			return out[i].Key < out[j].Key
		}
		return out[i].Time < out[j].Time
	})
	return out
}
