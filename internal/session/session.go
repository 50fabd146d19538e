// Package session runs standard and pressure drill rounds.
package session

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/verte-zerg/skilldrill/internal/drill"
	"github.com/verte-zerg/skilldrill/internal/generator"
	"github.com/verte-zerg/skilldrill/internal/model"
	"github.com/verte-zerg/skilldrill/internal/scheduler"
	"github.com/verte-zerg/skilldrill/internal/stats"
)

// Phase is the controller screen state.
type Phase int

// Controller phases.
const (
	Welcome Phase = iota
	Countdown
	Training
	Transition
	Results
)

func (p Phase) String() string {
	switch p {
	case Welcome:
		return "welcome"
	case Countdown:
		return "countdown"
	case Training:
		return "training"
	case Transition:
		return "transition"
	case Results:
		return "results"
	default:
		return "unknown"
	}
}

// Round timing.
const (
	CountdownStart    = 2
	CountdownInterval = time.Second
	TransitionDelay   = 250 * time.Millisecond
	SkipDelay         = 250 * time.Millisecond
	ErrorFlash        = 200 * time.Millisecond
)

// Recorder persists round outcomes. *store.Store satisfies it.
type Recorder interface {
	SavePersonalBest(ctx context.Context, key string, d time.Duration) error
	SaveRound(ctx context.Context, rec model.RoundRecord) error
}

// Options configures a drill round.
type Options struct {
	RoundSize         int
	AutoAdvance       bool
	AutoAdvanceDelay  time.Duration
	Pressure          bool
	DrainRate         float64
	Patterns          []model.Pattern
	PatternLikelihood int
}

// OptionsFromConfig extracts drill options from resolved settings.
func OptionsFromConfig(cfg model.Config) Options {
	return Options{
		RoundSize:         cfg.RoundSize,
		AutoAdvance:       cfg.AutoAdvance,
		AutoAdvanceDelay:  cfg.AutoAdvanceDelay,
		Pressure:          cfg.Pressure,
		DrainRate:         cfg.DrainRate,
		Patterns:          cfg.Patterns,
		PatternLikelihood: cfg.PatternLikelihood,
	}
}

// Controller drives one drill round at a time. Every timer it starts is
// scheduled on a per-round group, so starting or stopping a round cancels
// whatever the previous round left pending.
type Controller struct {
	sched   scheduler.Scheduler
	group   *scheduler.Group
	gen     *generator.Generator
	tracker *stats.Tracker
	rec     Recorder
	log     zerolog.Logger
	opts    Options

	phase     Phase
	countdown int
	round     []model.Component
	index     int
	machine   *drill.Machine
	started   time.Time
	results   []model.RoundResult
	meter     Meter
	gameOver  bool
	roundID   string
	roundMode string
	roundAt   time.Time
	endedAt   time.Time

	flashTask scheduler.Task
	skipTask  scheduler.Task
}

// New returns a controller on the Welcome screen. rec may be nil.
func New(sched scheduler.Scheduler, gen *generator.Generator, tracker *stats.Tracker, rec Recorder, log zerolog.Logger, opts Options) *Controller {
	return &Controller{
		sched:   sched,
		group:   scheduler.NewGroup(sched),
		gen:     gen,
		tracker: tracker,
		rec:     rec,
		log:     log.With().Str("component", "session").Logger(),
		opts:    opts,
		machine: drill.NewMachine(drill.ResetOnMismatch),
		meter:   NewMeter(),
	}
}

// SetOptions replaces the round options. Takes effect at the next Start.
func (c *Controller) SetOptions(opts Options) {
	c.opts = opts
}

// Options returns the current round options.
func (c *Controller) Options() Options {
	return c.opts
}

// Start generates a round from catalog and begins the countdown. On error the
// controller is left untouched.
func (c *Controller) Start(catalog []model.Component) error {
	round, err := c.gen.Generate(c.opts.RoundSize, catalog, c.opts.Patterns, c.opts.PatternLikelihood)
	if err != nil {
		return err
	}
	c.group.Cancel()
	c.machine.Stop()

	c.round = round
	c.index = 0
	c.results = nil
	c.gameOver = false
	c.meter.Reset()
	c.roundID = uuid.NewString()
	c.roundMode = model.ModeStandard
	c.machine.SetPolicy(drill.ResetOnMismatch)
	if c.opts.Pressure {
		c.roundMode = model.ModePressure
		c.machine.SetPolicy(drill.HoldOnMismatch)
	}
	c.roundAt = c.sched.Now()
	c.endedAt = time.Time{}
	c.phase = Countdown
	c.countdown = CountdownStart
	c.log.Info().Str("round_id", c.roundID).Int("size", len(round)).Str("mode", c.roundMode).Msg("round started")
	c.group.After(CountdownInterval, c.countdownTick)
	return nil
}

func (c *Controller) countdownTick() {
	c.countdown--
	if c.countdown > 0 {
		c.group.After(CountdownInterval, c.countdownTick)
		return
	}
	c.beginTraining()
}

func (c *Controller) beginTraining() {
	if c.opts.Pressure {
		c.meter.Reset()
		c.group.Every(DrainTick, c.drainTick)
	}
	c.startComponent(0)
}

func (c *Controller) startComponent(i int) {
	c.cancelComponentTasks()
	c.index = i
	c.machine.Start(c.round[i].RequiredKeys())
	c.started = c.sched.Now()
	c.phase = Training
	if c.opts.AutoAdvance && c.opts.AutoAdvanceDelay > 0 {
		c.skipTask = c.group.After(c.opts.AutoAdvanceDelay, c.skip)
	}
}

func (c *Controller) cancelComponentTasks() {
	if c.flashTask != nil {
		c.flashTask.Cancel()
		c.flashTask = nil
	}
	if c.skipTask != nil {
		c.skipTask.Cancel()
		c.skipTask = nil
	}
}

// Input feeds one normalized key token to the active component.
func (c *Controller) Input(token string) drill.Outcome {
	if c.phase != Training {
		return drill.Ignored
	}
	out := c.machine.Input(token)
	switch out {
	case drill.Mismatched:
		if c.opts.Pressure {
			c.applyMeter(c.meter.Penalize(), "penalty")
			break
		}
		c.flashTask = c.group.After(ErrorFlash, c.machine.Reset)
	case drill.Completed:
		c.complete()
	}
	return out
}

func (c *Controller) complete() {
	c.cancelComponentTasks()
	comp := c.round[c.index]
	elapsed := c.sched.Now().Sub(c.started)
	isPB := c.tracker.Update(comp.Key, elapsed)
	if isPB && c.rec != nil {
		if err := c.rec.SavePersonalBest(context.Background(), comp.Key, elapsed); err != nil {
			c.log.Error().Err(err).Str("key", comp.Key).Msg("save personal best")
		}
	}
	c.results = append(c.results, model.RoundResult{
		Key:            comp.Key,
		Description:    comp.Description,
		CompletionTime: elapsed,
		IsNewPB:        isPB,
		Errors:         c.machine.Errors(),
	})
	if c.opts.Pressure {
		c.meter.Boost()
	}
	c.advance(TransitionDelay)
}

func (c *Controller) skip() {
	if c.phase != Training {
		return
	}
	c.cancelComponentTasks()
	c.machine.Stop()
	c.log.Debug().Str("round_id", c.roundID).Int("index", c.index).Msg("component skipped")
	c.advance(SkipDelay)
}

func (c *Controller) advance(delay time.Duration) {
	next := c.index + 1
	if next >= len(c.round) {
		c.finish(false)
		return
	}
	c.phase = Transition
	c.group.After(delay, func() { c.startComponent(next) })
}

func (c *Controller) drainTick() {
	if c.phase != Training && c.phase != Transition {
		return
	}
	c.applyMeter(c.meter.Drain(c.opts.DrainRate), "drain")
}

func (c *Controller) applyMeter(change MeterChange, reason string) {
	if change.Warning {
		c.log.Debug().Str("round_id", c.roundID).Msg("pressure warning")
	}
	if change.Critical {
		c.log.Debug().Str("round_id", c.roundID).Msg("pressure critical")
	}
	if change.Empty && c.phase != Results {
		c.log.Info().Str("round_id", c.roundID).Str("reason", reason).Msg("game over")
		c.finish(true)
	}
}

func (c *Controller) finish(gameOver bool) {
	c.group.Cancel()
	c.cancelComponentTasks()
	c.machine.Stop()
	c.gameOver = gameOver
	c.phase = Results
	c.endedAt = c.sched.Now()
	c.log.Info().
		Str("round_id", c.roundID).
		Str("mode", c.roundMode).
		Int("completed", len(c.results)).
		Bool("game_over", gameOver).
		Msg("round finished")
	if c.rec == nil {
		return
	}
	rec := model.RoundRecord{
		ID:        c.roundID,
		Mode:      c.roundMode,
		StartedAt: c.roundAt,
		EndedAt:   c.endedAt,
		RoundSize: len(c.round),
		GameOver:  gameOver,
		Results:   append([]model.RoundResult(nil), c.results...),
	}
	if err := c.rec.SaveRound(context.Background(), rec); err != nil {
		c.log.Error().Err(err).Str("round_id", c.roundID).Msg("save round")
	}
}

// Stop aborts the round. With at least one result the Results screen is
// shown, otherwise the controller returns to Welcome.
func (c *Controller) Stop() {
	switch c.phase {
	case Countdown, Training, Transition:
	default:
		return
	}
	if len(c.results) > 0 {
		c.finish(false)
		return
	}
	c.group.Cancel()
	c.cancelComponentTasks()
	c.machine.Stop()
	c.phase = Welcome
	c.log.Info().Str("round_id", c.roundID).Msg("round cancelled")
}

// Dismiss leaves the Results screen.
func (c *Controller) Dismiss() {
	if c.phase == Results {
		c.phase = Welcome
	}
}

// Phase returns the current phase.
func (c *Controller) Phase() Phase { return c.phase }

// Countdown returns the remaining countdown value.
func (c *Controller) Countdown() int { return c.countdown }

// Index returns the zero-based position of the active component.
func (c *Controller) Index() int { return c.index }

// RoundLen returns the number of components in the round.
func (c *Controller) RoundLen() int { return len(c.round) }

// Current returns the active or upcoming component.
func (c *Controller) Current() (model.Component, bool) {
	if c.index < 0 || c.index >= len(c.round) {
		return model.Component{}, false
	}
	return c.round[c.index], true
}

// Progress returns matched keys of the active component.
func (c *Controller) Progress() int { return c.machine.Progress() }

// Flashing reports whether a mismatch flash is showing.
func (c *Controller) Flashing() bool { return c.machine.State() == drill.Flashing }

// Errors returns the mismatch count for the active component.
func (c *Controller) Errors() int { return c.machine.Errors() }

// Elapsed returns time spent on the active component.
func (c *Controller) Elapsed() time.Duration {
	if c.phase != Training {
		return 0
	}
	return c.sched.Now().Sub(c.started)
}

// AutoAdvanceRemaining returns the time left before the active component is
// skipped, or zero when auto-advance is off.
func (c *Controller) AutoAdvanceRemaining() time.Duration {
	if c.phase != Training || c.skipTask == nil || !c.skipTask.Active() {
		return 0
	}
	left := c.opts.AutoAdvanceDelay - c.Elapsed()
	if left < 0 {
		return 0
	}
	return left
}

// Results returns a copy of the round results so far.
func (c *Controller) Results() []model.RoundResult {
	return append([]model.RoundResult(nil), c.results...)
}

// Stats aggregates the round results so far.
func (c *Controller) Stats() model.RoundStats {
	return stats.CalculateRoundStats(c.results)
}

// Pressure returns the meter state.
func (c *Controller) Pressure() model.PressureState { return c.meter.State() }

// PressureMode reports whether the current round runs the pressure meter.
func (c *Controller) PressureMode() bool { return c.roundMode == model.ModePressure }

// GameOver reports whether the last round ended with an empty meter.
func (c *Controller) GameOver() bool { return c.gameOver }

// RoundID returns the identifier of the current or last round.
func (c *Controller) RoundID() string { return c.roundID }

// PersonalBest returns the stored best for a component key.
func (c *Controller) PersonalBest(key string) (time.Duration, bool) {
	return c.tracker.Get(key)
}

// Idle reports whether no round is in progress.
func (c *Controller) Idle() bool {
	return c.phase == Welcome || c.phase == Results
}
