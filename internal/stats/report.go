package stats

import (
	"context"
	"time"

	"github.com/verte-zerg/skilldrill/internal/model"
	"github.com/verte-zerg/skilldrill/internal/store"
)

// Report contains precomputed data for stats rendering.
type Report struct {
	Rounds           []model.RoundAggregate
	WindowRoundIDs   []string
	ComponentsAll    []model.ComponentAggregate
	ComponentsWindow []model.ComponentAggregate
	PersonalBests    []model.PersonalBest
	Rhythm           []model.RhythmRecord
}

// BuildReport loads and prepares data for stats rendering.
func BuildReport(ctx context.Context, st *store.Store, cfg model.StatsConfig) (Report, error) {
	rounds, err := st.ListRounds(ctx, cfg)
	if err != nil {
		return Report{}, err
	}
	if cfg.Last > 0 && len(rounds) > cfg.Last {
		rounds = rounds[len(rounds)-cfg.Last:]
	}

	allIDs := roundIDs(rounds)
	windowIDs := lastRoundIDs(rounds, cfg.CurveWindow)
	componentsAll, err := st.ListComponentAggregates(ctx, allIDs)
	if err != nil {
		return Report{}, err
	}
	componentsWindow, err := st.ListComponentAggregates(ctx, windowIDs)
	if err != nil {
		return Report{}, err
	}
	pbs, err := st.LoadPersonalBests(ctx)
	if err != nil {
		return Report{}, err
	}
	rhythm, err := st.ListRhythm(ctx, cfg.Since)
	if err != nil {
		return Report{}, err
	}

	return Report{
		Rounds:           rounds,
		WindowRoundIDs:   windowIDs,
		ComponentsAll:    componentsAll,
		ComponentsWindow: componentsWindow,
		PersonalBests:    NewTracker(pbs).Sorted(),
		Rhythm:           rhythm,
	}, nil
}

// Descriptions maps component keys to the latest description seen in history.
func (r Report) Descriptions() map[string]string {
	out := make(map[string]string, len(r.ComponentsAll))
	for _, c := range r.ComponentsAll {
		out[c.Key] = c.Description
	}
	return out
}

// RhythmAccuracyTrend returns per-session accuracy values.
func (r Report) RhythmAccuracyTrend() []float64 {
	out := make([]float64, len(r.Rhythm))
	for i, s := range r.Rhythm {
		out[i] = float64(s.Stats.Accuracy)
	}
	return out
}

// LastPlayed returns the end time of the most recent round or zero.
func (r Report) LastPlayed() time.Time {
	if len(r.Rounds) == 0 {
		return time.Time{}
	}
	return r.Rounds[len(r.Rounds)-1].EndedAt
}

func roundIDs(rounds []model.RoundAggregate) []string {
	ids := make([]string, len(rounds))
	for i, r := range rounds {
		ids[i] = r.ID
	}
	return ids
}

func lastRoundIDs(rounds []model.RoundAggregate, window int) []string {
	if window <= 0 || len(rounds) <= window {
		return roundIDs(rounds)
	}
	return roundIDs(rounds[len(rounds)-window:])
}
