package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/verte-zerg/skilldrill/internal/drill"
	"github.com/verte-zerg/skilldrill/internal/generator"
	"github.com/verte-zerg/skilldrill/internal/model"
	"github.com/verte-zerg/skilldrill/internal/scheduler"
	"github.com/verte-zerg/skilldrill/internal/stats"
)

type fakeRecorder struct {
	pbs    map[string]time.Duration
	rounds []model.RoundRecord
}

func (f *fakeRecorder) SavePersonalBest(_ context.Context, key string, d time.Duration) error {
	if f.pbs == nil {
		f.pbs = map[string]time.Duration{}
	}
	f.pbs[key] = d
	return nil
}

func (f *fakeRecorder) SaveRound(_ context.Context, rec model.RoundRecord) error {
	f.rounds = append(f.rounds, rec)
	return nil
}

var longBowQ = model.Component{Key: "1,Q", Description: "LongBow Q", Slot: 1, Weapon: "LongBow", Skill: model.SkillQ}

func newTestController(t *testing.T, opts Options) (*Controller, *scheduler.Virtual, *fakeRecorder) {
	t.Helper()
	clock := scheduler.NewVirtual(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	rec := &fakeRecorder{}
	c := New(clock, generator.NewWithSeed(1), stats.NewTracker(nil), rec, zerolog.Nop(), opts)
	return c, clock, rec
}

func startTraining(t *testing.T, c *Controller, clock *scheduler.Virtual, catalog []model.Component) {
	t.Helper()
	if err := c.Start(catalog); err != nil {
		t.Fatalf("start: %v", err)
	}
	clock.Advance(CountdownStart * CountdownInterval)
	if c.Phase() != Training {
		t.Fatalf("expected training after countdown, got %v", c.Phase())
	}
}

func feed(c *Controller, tokens ...string) drill.Outcome {
	var out drill.Outcome
	for _, tok := range tokens {
		out = c.Input(tok)
	}
	return out
}

func TestStartEmptyCatalogKeepsState(t *testing.T) {
	c, _, _ := newTestController(t, Options{RoundSize: 5})
	if err := c.Start(nil); !errors.Is(err, generator.ErrEmptyCatalog) {
		t.Fatalf("expected empty catalog error, got %v", err)
	}
	if c.Phase() != Welcome {
		t.Fatalf("expected welcome, got %v", c.Phase())
	}
}

func TestCountdown(t *testing.T) {
	c, clock, _ := newTestController(t, Options{RoundSize: 1})
	if err := c.Start([]model.Component{longBowQ}); err != nil {
		t.Fatalf("start: %v", err)
	}
	if c.Phase() != Countdown || c.Countdown() != 2 {
		t.Fatalf("expected countdown 2, got %v %d", c.Phase(), c.Countdown())
	}
	if c.Input("1") != drill.Ignored {
		t.Fatalf("inputs during countdown must be ignored")
	}
	clock.Advance(time.Second)
	if c.Countdown() != 1 || c.Phase() != Countdown {
		t.Fatalf("expected countdown 1, got %v %d", c.Phase(), c.Countdown())
	}
	clock.Advance(time.Second)
	if c.Phase() != Training {
		t.Fatalf("expected training, got %v", c.Phase())
	}
}

func TestStandardRoundFlow(t *testing.T) {
	c, clock, rec := newTestController(t, Options{RoundSize: 2})
	startTraining(t, c, clock, []model.Component{longBowQ})

	clock.Advance(500 * time.Millisecond)
	if c.Elapsed() != 500*time.Millisecond {
		t.Fatalf("unexpected elapsed %v", c.Elapsed())
	}
	if out := feed(c, "1", "q"); out != drill.Completed {
		t.Fatalf("expected completion, got %v", out)
	}
	if c.Phase() != Transition {
		t.Fatalf("expected transition, got %v", c.Phase())
	}
	if c.Input("1") != drill.Ignored {
		t.Fatalf("inputs during transition must be ignored")
	}
	clock.Advance(TransitionDelay)
	if c.Phase() != Training || c.Index() != 1 {
		t.Fatalf("expected second component, got %v index %d", c.Phase(), c.Index())
	}

	if out := feed(c, "1", "X"); out != drill.Mismatched {
		t.Fatalf("expected mismatch, got %v", out)
	}
	if !c.Flashing() || c.Errors() != 1 {
		t.Fatalf("expected flashing with one error")
	}
	if c.Input("Q") != drill.Ignored {
		t.Fatalf("inputs during flash must be ignored")
	}
	clock.Advance(ErrorFlash)
	if c.Flashing() || c.Progress() != 0 {
		t.Fatalf("expected reset after flash, progress %d", c.Progress())
	}
	if c.Input("Q") != drill.Mismatched {
		t.Fatalf("sequence must restart from the slot key")
	}
	clock.Advance(ErrorFlash)
	clock.Advance(time.Second)
	if out := feed(c, "1", "Q"); out != drill.Completed {
		t.Fatalf("expected completion, got %v", out)
	}
	if c.Phase() != Results {
		t.Fatalf("expected results, got %v", c.Phase())
	}

	results := c.Results()
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if !results[0].IsNewPB || results[0].CompletionTime != 500*time.Millisecond {
		t.Fatalf("unexpected first result %+v", results[0])
	}
	if results[1].IsNewPB || results[1].Errors != 2 {
		t.Fatalf("unexpected second result %+v", results[1])
	}
	if rec.pbs["1,Q"] != 500*time.Millisecond {
		t.Fatalf("expected persisted personal best, got %v", rec.pbs)
	}
	if len(rec.rounds) != 1 || len(rec.rounds[0].Results) != 2 || rec.rounds[0].Mode != model.ModeStandard {
		t.Fatalf("unexpected recorded rounds %+v", rec.rounds)
	}
	if rec.rounds[0].ID == "" || rec.rounds[0].ID != c.RoundID() {
		t.Fatalf("expected round id to be recorded")
	}
	if clock.Pending() != 0 {
		t.Fatalf("expected no pending tasks after results, got %d", clock.Pending())
	}
	c.Dismiss()
	if c.Phase() != Welcome {
		t.Fatalf("expected welcome after dismiss")
	}
}

func TestAutoAdvanceSkipsWithoutResult(t *testing.T) {
	c, clock, rec := newTestController(t, Options{RoundSize: 2, AutoAdvance: true, AutoAdvanceDelay: time.Second})
	startTraining(t, c, clock, []model.Component{longBowQ})

	clock.Advance(400 * time.Millisecond)
	if c.AutoAdvanceRemaining() != 600*time.Millisecond {
		t.Fatalf("unexpected remaining %v", c.AutoAdvanceRemaining())
	}
	clock.Advance(600 * time.Millisecond)
	if c.Phase() != Transition {
		t.Fatalf("expected skip transition, got %v", c.Phase())
	}
	clock.Advance(SkipDelay)
	if c.Phase() != Training || c.Index() != 1 {
		t.Fatalf("expected second component, got %v %d", c.Phase(), c.Index())
	}
	if len(c.Results()) != 0 {
		t.Fatalf("skipped component must not record a result")
	}

	clock.Advance(900 * time.Millisecond)
	feed(c, "1", "Q")
	clock.Advance(time.Second)
	if c.Phase() != Results {
		t.Fatalf("completion must cancel the skip timer, got %v", c.Phase())
	}
	if len(rec.rounds) != 1 || len(rec.rounds[0].Results) != 1 {
		t.Fatalf("unexpected rounds %+v", rec.rounds)
	}
}

func TestAutoAdvanceLastComponentFinishes(t *testing.T) {
	c, clock, _ := newTestController(t, Options{RoundSize: 1, AutoAdvance: true, AutoAdvanceDelay: 100 * time.Millisecond})
	startTraining(t, c, clock, []model.Component{longBowQ})
	clock.Advance(100 * time.Millisecond)
	if c.Phase() != Results {
		t.Fatalf("expected results after skipping last component, got %v", c.Phase())
	}
}

func TestStopDuringRound(t *testing.T) {
	c, clock, rec := newTestController(t, Options{RoundSize: 3})
	startTraining(t, c, clock, []model.Component{longBowQ})
	c.Stop()
	if c.Phase() != Welcome {
		t.Fatalf("stop without results must return to welcome, got %v", c.Phase())
	}
	if len(rec.rounds) != 0 {
		t.Fatalf("cancelled round must not be recorded")
	}

	startTraining(t, c, clock, []model.Component{longBowQ})
	feed(c, "1", "Q")
	c.Stop()
	if c.Phase() != Results {
		t.Fatalf("stop with results must show results, got %v", c.Phase())
	}
	clock.Advance(time.Minute)
	if c.Phase() != Results || len(rec.rounds) != 1 {
		t.Fatalf("stale transition must not fire after stop")
	}
	c.Stop()
	if len(rec.rounds) != 1 {
		t.Fatalf("stop on results must be a no-op")
	}
}

func TestRestartCancelsPreviousRound(t *testing.T) {
	c, clock, _ := newTestController(t, Options{RoundSize: 3, Pressure: true, DrainRate: 10})
	startTraining(t, c, clock, []model.Component{longBowQ})
	clock.Advance(time.Second)
	if c.Pressure().Bar != 90 {
		t.Fatalf("expected bar 90, got %v", c.Pressure().Bar)
	}
	if err := c.Start([]model.Component{longBowQ}); err != nil {
		t.Fatalf("restart: %v", err)
	}
	clock.Advance(time.Second)
	if c.Pressure().Bar != 100 || c.Countdown() != 1 {
		t.Fatalf("previous round timers must not run: bar %v countdown %d", c.Pressure().Bar, c.Countdown())
	}
	clock.Advance(time.Second)
	if c.Phase() != Training || c.Index() != 0 {
		t.Fatalf("expected fresh training, got %v %d", c.Phase(), c.Index())
	}
}

func TestPressureMismatchHoldsProgress(t *testing.T) {
	c, clock, _ := newTestController(t, Options{RoundSize: 3, Pressure: true, DrainRate: 10})
	startTraining(t, c, clock, []model.Component{longBowQ})

	feed(c, "1")
	if out := c.Input("E"); out != drill.Mismatched {
		t.Fatalf("expected mismatch, got %v", out)
	}
	if c.Progress() != 1 || c.Errors() != 0 || c.Flashing() {
		t.Fatalf("pressure mismatch must keep progress and errors: progress %d errors %d", c.Progress(), c.Errors())
	}
	if c.Pressure().Bar != 95 {
		t.Fatalf("expected penalty to 95, got %v", c.Pressure().Bar)
	}
	if c.Input("Q") != drill.Completed {
		t.Fatalf("expected completion after held progress")
	}
	if c.Pressure().Bar != 100 {
		t.Fatalf("boost must cap at max, got %v", c.Pressure().Bar)
	}
	if c.Results()[0].Errors != 0 {
		t.Fatalf("pressure errors must not count on the result")
	}
}

func TestPressureDrainKeepsRunningBetweenComponents(t *testing.T) {
	c, clock, _ := newTestController(t, Options{RoundSize: 3, Pressure: true, DrainRate: 2})
	startTraining(t, c, clock, []model.Component{longBowQ})
	feed(c, "1", "Q")
	clock.Advance(TransitionDelay)
	if got := c.Pressure().Bar; got < 99.4 || got > 99.6 {
		t.Fatalf("expected bar near 99.5, got %v", got)
	}
}

func TestPressureDrainGameOverOnce(t *testing.T) {
	c, clock, rec := newTestController(t, Options{RoundSize: 50, Pressure: true, DrainRate: 10})
	startTraining(t, c, clock, []model.Component{longBowQ})

	clock.Advance(7 * time.Second)
	st := c.Pressure()
	if st.Bar != 30 || !st.Warning || st.Critical {
		t.Fatalf("expected warning at 30, got %+v", st)
	}
	clock.Advance(1500 * time.Millisecond)
	if st := c.Pressure(); st.Bar != 15 || !st.Critical {
		t.Fatalf("expected critical at 15, got %+v", st)
	}
	feed(c, "1", "Q")
	if st := c.Pressure(); st.Bar != 25 || st.Critical || !st.Warning {
		t.Fatalf("boost above critical must clear only critical, got %+v", st)
	}

	clock.Advance(TransitionDelay)
	clock.Advance(10 * time.Second)
	if c.Phase() != Results || !c.GameOver() {
		t.Fatalf("expected game over, got %v", c.Phase())
	}
	if c.Pressure().Bar != 0 {
		t.Fatalf("expected empty meter, got %v", c.Pressure().Bar)
	}
	if c.Input("1") != drill.Ignored {
		t.Fatalf("inputs after game over must be ignored")
	}
	if len(rec.rounds) != 1 || !rec.rounds[0].GameOver || rec.rounds[0].Mode != model.ModePressure {
		t.Fatalf("expected exactly one game-over round, got %+v", rec.rounds)
	}
}

func TestPressurePenaltyGameOverOnce(t *testing.T) {
	c, clock, rec := newTestController(t, Options{RoundSize: 50, Pressure: true, DrainRate: 10})
	startTraining(t, c, clock, []model.Component{longBowQ})
	clock.Advance(9500 * time.Millisecond)
	if c.Pressure().Bar != 5 {
		t.Fatalf("expected bar 5, got %v", c.Pressure().Bar)
	}
	c.Input("E")
	if c.Phase() != Results || !c.GameOver() {
		t.Fatalf("penalty to zero must end the round")
	}
	c.Input("E")
	clock.Advance(time.Second)
	if len(rec.rounds) != 1 {
		t.Fatalf("expected a single termination, got %d", len(rec.rounds))
	}
}

func TestMeterFlagsLatch(t *testing.T) {
	m := NewMeter()
	var warnings int
	for i := 0; i < 80; i++ {
		if m.Penalize().Warning {
			warnings++
		}
		if m.State().Bar <= 20 {
			break
		}
	}
	if warnings != 1 {
		t.Fatalf("warning must fire once, fired %d", warnings)
	}
	m.Boost()
	m.Boost()
	if m.State().Warning {
		t.Fatalf("warning must clear above threshold")
	}
	if !m.adjust(-20).Warning {
		t.Fatalf("warning must fire again after clearing")
	}
}
