package rhythm

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/verte-zerg/skilldrill/internal/generator"
	"github.com/verte-zerg/skilldrill/internal/loadout"
	"github.com/verte-zerg/skilldrill/internal/model"
	"github.com/verte-zerg/skilldrill/internal/scheduler"
)

type fakeRecorder struct {
	sessions []model.RhythmRecord
}

func (f *fakeRecorder) SaveRhythm(_ context.Context, rec model.RhythmRecord) error {
	f.sessions = append(f.sessions, rec)
	return nil
}

func newTestController(t *testing.T, opts Options) (*Controller, *scheduler.Virtual, *fakeRecorder) {
	t.Helper()
	clock := scheduler.NewVirtual(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	rec := &fakeRecorder{}
	c := New(clock, generator.NewWithSeed(7), loadout.Default(), rec, zerolog.Nop(), opts)
	return c, clock, rec
}

func fixedRatio(r float64) func() float64 {
	return func() float64 { return r }
}

func begin(t *testing.T, c *Controller, clock *scheduler.Virtual) model.RhythmNote {
	t.Helper()
	c.Start(fixedRatio(0.75))
	if c.Phase() != Countdown {
		t.Fatalf("expected countdown, got %v", c.Phase())
	}
	clock.Advance(CountdownStart * CountdownInterval)
	if c.Phase() != Playing {
		t.Fatalf("expected playing, got %v", c.Phase())
	}
	notes := c.Notes()
	if len(notes) != 1 {
		t.Fatalf("expected first note to spawn immediately, got %d", len(notes))
	}
	return notes[0]
}

func TestHitInsideWindow(t *testing.T) {
	c, clock, _ := newTestController(t, Options{Speed: SpeedMedium})
	first := begin(t, c, clock)

	// Due 1500ms after spawn at medium speed.
	clock.Advance(1500*time.Millisecond + HitWindow - time.Millisecond)
	if got := c.Input(first.Key); got != Hit {
		t.Fatalf("expected hit, got %v", got)
	}
	st := c.Stats()
	if st.Hits != 1 || st.Misses != 0 || st.Accuracy != 100 {
		t.Fatalf("unexpected stats %+v", st)
	}
	clock.Advance(HitCleanup)
	for _, n := range c.Notes() {
		if n.ID == first.ID {
			t.Fatalf("hit note must be cleaned up")
		}
	}
}

func TestInputAfterWindowMisses(t *testing.T) {
	c, clock, _ := newTestController(t, Options{Speed: SpeedMedium})
	first := begin(t, c, clock)

	clock.Advance(1500*time.Millisecond + HitWindow + time.Millisecond)
	if got := c.Input(first.Key); got != LaneMiss {
		t.Fatalf("expected lane miss, got %v", got)
	}
	if !c.Flashing(first.Lane) {
		t.Fatalf("expected lane flash")
	}
	if st := c.Stats(); st.Hits != 0 || st.Misses != 0 {
		t.Fatalf("lane miss must not count before the poll, got %+v", st)
	}
	clock.Advance(49 * time.Millisecond)
	st := c.Stats()
	if st.Hits != 0 || st.Misses != 1 || st.Accuracy != 0 {
		t.Fatalf("expected one miss from polling, got %+v", st)
	}
	clock.Advance(LaneFlash)
	if c.Flashing(first.Lane) {
		t.Fatalf("lane flash must expire")
	}
}

func TestUnboundKeyIgnored(t *testing.T) {
	c, clock, _ := newTestController(t, Options{Speed: SpeedFast})
	if c.Input("1") != Ignored {
		t.Fatalf("input before playing must be ignored")
	}
	begin(t, c, clock)
	if c.Input("z") != Ignored {
		t.Fatalf("unbound key must be ignored")
	}
}

func TestTimedSessionEnds(t *testing.T) {
	c, clock, rec := newTestController(t, Options{Speed: SpeedExtreme, Duration: 30 * time.Second})
	begin(t, c, clock)
	clock.Advance(10 * time.Second)
	left, ok := c.Remaining()
	if !ok || left != 20*time.Second {
		t.Fatalf("unexpected remaining %v %v", left, ok)
	}
	clock.Advance(20 * time.Second)
	if c.Phase() != Ending {
		t.Fatalf("expected ending, got %v", c.Phase())
	}
	if c.Input("1") != Ignored {
		t.Fatalf("inputs while ending must be ignored")
	}
	clock.Advance(EndDelay)
	if c.Phase() != Results {
		t.Fatalf("expected results, got %v", c.Phase())
	}
	if len(rec.sessions) != 1 {
		t.Fatalf("expected one recorded session, got %d", len(rec.sessions))
	}
	got := rec.sessions[0]
	if got.Stats.Misses == 0 || got.Stats.Hits != 0 || got.Duration != 30 || got.Speed != "extreme" {
		t.Fatalf("unexpected record %+v", got)
	}
	if clock.Pending() != 0 {
		t.Fatalf("expected no pending tasks, got %d", clock.Pending())
	}
}

func TestEndlessSessionRunsUntilStopped(t *testing.T) {
	c, clock, rec := newTestController(t, Options{Speed: SpeedSlow})
	begin(t, c, clock)
	clock.Advance(2 * time.Minute)
	if c.Phase() != Playing {
		t.Fatalf("endless session must keep playing, got %v", c.Phase())
	}
	if _, ok := c.Remaining(); ok {
		t.Fatalf("endless session has no remaining time")
	}
	c.Stop()
	if c.Phase() != Results || len(rec.sessions) != 1 {
		t.Fatalf("stop after misses must show results")
	}
}

func TestStopWithoutAttemptsReturnsIdle(t *testing.T) {
	c, clock, rec := newTestController(t, Options{Speed: SpeedMedium})
	begin(t, c, clock)
	c.Stop()
	if c.Phase() != Idle || len(rec.sessions) != 0 {
		t.Fatalf("expected idle without record, got %v", c.Phase())
	}
	if c.Stats().Accuracy != 100 {
		t.Fatalf("accuracy with no attempts must be 100")
	}
	clock.Advance(time.Minute)
	if len(c.Notes()) != 0 {
		t.Fatalf("stopped session must not spawn notes")
	}
}

func TestHitLineRatioFallback(t *testing.T) {
	c, clock, _ := newTestController(t, Options{Speed: SpeedMedium})
	for _, ratio := range []float64{0, 1, -0.2, 1.5} {
		c.Start(fixedRatio(ratio))
		clock.Advance(CountdownStart * CountdownInterval)
		if c.HitLineRatio() != DefaultHitLineRatio {
			t.Fatalf("ratio %v: expected fallback, got %v", ratio, c.HitLineRatio())
		}
		c.Stop()
	}
	c.Start(nil)
	clock.Advance(CountdownStart * CountdownInterval)
	if c.HitLineRatio() != DefaultHitLineRatio {
		t.Fatalf("expected fallback without a measure, got %v", c.HitLineRatio())
	}
	c.Stop()
	c.Start(fixedRatio(0.5))
	clock.Advance(CountdownStart * CountdownInterval)
	if c.HitLineRatio() != 0.5 {
		t.Fatalf("expected measured ratio to be kept")
	}
}

func TestHitLineMeasuredAfterCountdown(t *testing.T) {
	c, clock, _ := newTestController(t, Options{Speed: SpeedMedium})
	ratio := 0.5
	calls := 0
	c.Start(func() float64 {
		calls++
		return ratio
	})
	clock.Advance(CountdownInterval)
	if calls != 0 {
		t.Fatalf("expected no measurement during countdown, got %d", calls)
	}
	ratio = 0.9
	clock.Advance(CountdownInterval)
	if c.Phase() != Playing {
		t.Fatalf("expected playing, got %v", c.Phase())
	}
	if calls != 1 || c.HitLineRatio() != 0.9 {
		t.Fatalf("expected one measurement of 0.9, got %d calls ratio %v", calls, c.HitLineRatio())
	}

	// Due at 90% of the medium 2000ms fall.
	first := c.Notes()[0]
	clock.Advance(1800 * time.Millisecond)
	if got := c.Input(first.Key); got != Hit {
		t.Fatalf("expected hit at the measured hit line, got %v", got)
	}
}

func TestPatternAwareLanes(t *testing.T) {
	slots := loadout.DefaultSlots
	longBow := model.SkillRef{Weapon: "LongBow", Skill: model.SkillQ}
	sword := model.SkillRef{Weapon: "Sword", Skill: model.SkillE}
	patterns := []model.Pattern{{From: &longBow, To: &sword}}
	for _, w := range slots {
		if w == "" || w == "LongBow" {
			continue
		}
		from := model.SkillRef{Weapon: w, Skill: model.SkillE}
		patterns = append(patterns, model.Pattern{From: &from, To: &longBow})
	}
	c, clock, _ := newTestController(t, Options{Speed: SpeedMedium, Patterns: patterns, PatternLikelihood: 100})
	begin(t, c, clock)
	clock.Advance(1800 * time.Millisecond)
	notes := c.Notes()
	if len(notes) != 3 {
		t.Fatalf("expected 3 live notes, got %d", len(notes))
	}
	for i := 1; i < len(notes); i++ {
		want := 1
		if notes[i-1].Lane == 1 {
			want = 7
		}
		if notes[i].Lane != want {
			t.Fatalf("note %d: expected lane %d after lane %d, got %d", i, want, notes[i-1].Lane, notes[i].Lane)
		}
	}
}

func TestParseSpeedAndDurations(t *testing.T) {
	if sp, err := ParseSpeed(" Fast "); err != nil || sp != SpeedFast {
		t.Fatalf("unexpected parse %v %v", sp, err)
	}
	if _, err := ParseSpeed("ludicrous"); err == nil {
		t.Fatalf("expected unknown speed error")
	}
	if Speed("").Tier() != SpeedMedium.Tier() {
		t.Fatalf("unknown speed must fall back to medium")
	}
	if !ValidDuration(0) || !ValidDuration(300) || ValidDuration(45) {
		t.Fatalf("unexpected duration validation")
	}
}
