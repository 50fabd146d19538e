package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/verte-zerg/skilldrill/internal/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(filepath.Join(t.TempDir(), "nested", "skilldrill.db"), zerolog.Nop())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})
	return st
}

func TestPersonalBestsRoundTrip(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	if err := st.SavePersonalBest(ctx, "1,Q", 5*time.Second); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := st.SavePersonalBest(ctx, "1,Q", 4800*time.Millisecond); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := st.SavePersonalBest(ctx, "4,E,x", 900*time.Millisecond); err != nil {
		t.Fatalf("save: %v", err)
	}
	pbs, err := st.LoadPersonalBests(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(pbs) != 2 {
		t.Fatalf("expected 2 personal bests, got %d", len(pbs))
	}
	if pbs["1,Q"] != 4800*time.Millisecond {
		t.Fatalf("expected upserted time, got %v", pbs["1,Q"])
	}

	if err := st.ResetPersonalBests(ctx); err != nil {
		t.Fatalf("reset: %v", err)
	}
	pbs, err = st.LoadPersonalBests(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(pbs) != 0 {
		t.Fatalf("expected empty personal bests after reset, got %v", pbs)
	}
}

func TestSaveRoundAndList(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	rounds := []model.RoundRecord{
		{
			ID: "a", Mode: model.ModeStandard, StartedAt: base, EndedAt: base.Add(time.Minute), RoundSize: 2,
			Results: []model.RoundResult{
				{Key: "1,Q", Description: "LongBow Q", CompletionTime: time.Second, Errors: 1},
				{Key: "2,E", Description: "Reaper E", CompletionTime: 3 * time.Second, IsNewPB: true},
			},
		},
		{
			ID: "b", Mode: model.ModePressure, StartedAt: base.Add(2 * time.Minute), EndedAt: base.Add(3 * time.Minute),
			RoundSize: 20, GameOver: true,
			Results: []model.RoundResult{
				{Key: "1,Q", Description: "LongBow Q", CompletionTime: 2 * time.Second},
			},
		},
		{ID: "c", Mode: model.ModeStandard, StartedAt: base.Add(4 * time.Minute), EndedAt: base.Add(5 * time.Minute), RoundSize: 5},
	}
	for _, r := range rounds {
		if err := st.SaveRound(ctx, r); err != nil {
			t.Fatalf("save round %s: %v", r.ID, err)
		}
	}

	all, err := st.ListRounds(ctx, model.StatsConfig{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 rounds, got %d", len(all))
	}
	if all[0].ID != "a" || all[0].Completed != 2 || all[0].Average != 2*time.Second || all[0].Errors != 1 {
		t.Fatalf("unexpected first round aggregate: %+v", all[0])
	}
	if !all[1].GameOver {
		t.Fatalf("expected game over flag on second round")
	}
	if all[2].Completed != 0 || all[2].Average != 0 {
		t.Fatalf("expected empty round aggregate, got %+v", all[2])
	}

	pressure, err := st.ListRounds(ctx, model.StatsConfig{Mode: model.ModePressure})
	if err != nil {
		t.Fatalf("list pressure: %v", err)
	}
	if len(pressure) != 1 || pressure[0].ID != "b" {
		t.Fatalf("unexpected pressure rounds: %+v", pressure)
	}

	since := base.Add(90 * time.Second)
	recent, err := st.ListRounds(ctx, model.StatsConfig{Since: &since})
	if err != nil {
		t.Fatalf("list since: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("expected 2 recent rounds, got %d", len(recent))
	}

	aggs, err := st.ListComponentAggregates(ctx, []string{"a", "b"})
	if err != nil {
		t.Fatalf("aggregates: %v", err)
	}
	if len(aggs) != 2 {
		t.Fatalf("expected 2 component aggregates, got %d", len(aggs))
	}
	if aggs[0].Key != "1,Q" || aggs[0].Count != 2 || aggs[0].Average() != 1500*time.Millisecond {
		t.Fatalf("unexpected aggregate: %+v", aggs[0])
	}
}

func TestSaveRoundDuplicateIDRollsBack(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	rec := model.RoundRecord{
		ID: "dup", Mode: model.ModeStandard, StartedAt: time.Now(), EndedAt: time.Now(), RoundSize: 1,
		Results: []model.RoundResult{{Key: "1,Q", Description: "LongBow Q", CompletionTime: time.Second}},
	}
	if err := st.SaveRound(ctx, rec); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := st.SaveRound(ctx, rec); err == nil {
		t.Fatalf("expected duplicate round id to fail")
	}
	aggs, err := st.ListComponentAggregates(ctx, []string{"dup"})
	if err != nil {
		t.Fatalf("aggregates: %v", err)
	}
	if len(aggs) != 1 || aggs[0].Count != 1 {
		t.Fatalf("expected original results only, got %+v", aggs)
	}
}

func TestRhythmSessions(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	rec := model.RhythmRecord{
		ID: "r1", StartedAt: start, EndedAt: start.Add(time.Minute), Speed: "fast", Duration: 60,
		Stats: model.RhythmStats{Hits: 9, Misses: 3, Accuracy: 75},
	}
	if err := st.SaveRhythm(ctx, rec); err != nil {
		t.Fatalf("save rhythm: %v", err)
	}
	out, err := st.ListRhythm(ctx, nil)
	if err != nil {
		t.Fatalf("list rhythm: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("expected 1 session, got %d", len(out))
	}
	if out[0].Stats != rec.Stats || out[0].Speed != "fast" || !out[0].EndedAt.Equal(rec.EndedAt) {
		t.Fatalf("unexpected session: %+v", out[0])
	}
	later := start.Add(time.Hour)
	out, err = st.ListRhythm(ctx, &later)
	if err != nil {
		t.Fatalf("list rhythm since: %v", err)
	}
	if len(out) != 0 {
		t.Fatalf("expected no sessions after filter, got %d", len(out))
	}
}

func TestReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "skilldrill.db")
	st, err := Open(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := st.SavePersonalBest(context.Background(), "3,Q", 700*time.Millisecond); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := st.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	st, err = Open(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer func() { _ = st.Close() }()
	pbs, err := st.LoadPersonalBests(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if pbs["3,Q"] != 700*time.Millisecond {
		t.Fatalf("expected persisted personal best, got %v", pbs)
	}
}
