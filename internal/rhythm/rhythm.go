// Package rhythm runs the weapon-select lane mode: notes fall per lane and
// inputs are judged against a timing window around the hit line.
package rhythm

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/verte-zerg/skilldrill/internal/generator"
	"github.com/verte-zerg/skilldrill/internal/model"
	"github.com/verte-zerg/skilldrill/internal/scheduler"
	"github.com/verte-zerg/skilldrill/internal/stats"
)

// Mode timing.
const (
	LaneCount           = model.SlotCount
	PollInterval        = 50 * time.Millisecond
	HitWindow           = 150 * time.Millisecond
	MissCleanup         = 500 * time.Millisecond
	HitCleanup          = 200 * time.Millisecond
	LaneFlash           = 200 * time.Millisecond
	EndDelay            = 500 * time.Millisecond
	CountdownStart      = 2
	CountdownInterval   = time.Second
	DefaultHitLineRatio = 0.75
)

// Phase is the mode screen state.
type Phase int

// Mode phases.
const (
	Idle Phase = iota
	Countdown
	Playing
	Ending
	Results
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Countdown:
		return "countdown"
	case Playing:
		return "playing"
	case Ending:
		return "ending"
	case Results:
		return "results"
	default:
		return "unknown"
	}
}

// Judgement is the result of one input.
type Judgement int

// Input judgements.
const (
	Ignored Judgement = iota
	Hit
	LaneMiss
)

// Lanes maps lanes to weapons and key tokens. *loadout.Loadout satisfies it.
type Lanes interface {
	Slots() [model.SlotCount]model.Weapon
	KeyFor(slot int) string
	Lane(token string) (int, bool)
}

// Recorder persists finished sessions. *store.Store satisfies it.
type Recorder interface {
	SaveRhythm(ctx context.Context, rec model.RhythmRecord) error
}

// Options configures a session.
type Options struct {
	Speed             Speed
	Duration          time.Duration
	Patterns          []model.Pattern
	PatternLikelihood int
}

// OptionsFromConfig extracts rhythm options from resolved settings.
func OptionsFromConfig(cfg model.Config) Options {
	return Options{
		Speed:             Speed(cfg.RhythmSpeed),
		Duration:          time.Duration(cfg.RhythmDuration) * time.Second,
		Patterns:          cfg.Patterns,
		PatternLikelihood: cfg.PatternLikelihood,
	}
}

// Controller runs one weapon-select session at a time.
type Controller struct {
	sched scheduler.Scheduler
	group *scheduler.Group
	gen   *generator.Generator
	lanes Lanes
	rec   Recorder
	log   zerolog.Logger
	opts  Options

	phase     Phase
	countdown int
	ratio     float64
	hitLine   func() float64
	notes     []model.RhythmNote
	nextID    int
	lastLane  int
	hits      int
	misses    int
	startedAt time.Time
	endedAt   time.Time
	sessionID string
	flashes   [LaneCount]time.Time
}

// New returns an idle controller. rec may be nil.
func New(sched scheduler.Scheduler, gen *generator.Generator, lanes Lanes, rec Recorder, log zerolog.Logger, opts Options) *Controller {
	return &Controller{
		sched: sched,
		group: scheduler.NewGroup(sched),
		gen:   gen,
		lanes: lanes,
		rec:   rec,
		log:   log.With().Str("component", "rhythm").Logger(),
		opts:  opts,
		ratio: DefaultHitLineRatio,
	}
}

// SetOptions replaces the session options. Takes effect at the next Start.
func (c *Controller) SetOptions(opts Options) {
	c.opts = opts
}

// Options returns the current options.
func (c *Controller) Options() Options {
	return c.opts
}

// SetLanes replaces the lane mapping. Takes effect at the next Start.
func (c *Controller) SetLanes(lanes Lanes) {
	c.lanes = lanes
}

// Start resets the tally and begins the countdown. hitLine reports the hit
// line position as a fraction of the fall track and is read once the
// countdown ends, so a resize during the countdown is picked up. A nil func
// or a value outside (0,1) falls back to DefaultHitLineRatio.
func (c *Controller) Start(hitLine func() float64) {
	c.group.Cancel()
	c.hitLine = hitLine
	c.ratio = DefaultHitLineRatio
	c.notes = nil
	c.nextID = 0
	c.lastLane = 0
	c.hits = 0
	c.misses = 0
	c.flashes = [LaneCount]time.Time{}
	c.sessionID = uuid.NewString()
	c.phase = Countdown
	c.countdown = CountdownStart
	c.group.After(CountdownInterval, c.countdownTick)
}

func (c *Controller) countdownTick() {
	c.countdown--
	if c.countdown > 0 {
		c.group.After(CountdownInterval, c.countdownTick)
		return
	}
	c.begin()
}

func (c *Controller) begin() {
	tier := c.opts.Speed.Tier()
	c.ratio = c.measureHitLine()
	c.phase = Playing
	c.startedAt = c.sched.Now()
	c.log.Info().
		Str("session_id", c.sessionID).
		Str("speed", string(c.opts.Speed)).
		Dur("duration", c.opts.Duration).
		Float64("hit_line", c.ratio).
		Msg("weapon select started")
	c.group.Every(tier.Spawn, c.spawn)
	c.group.Every(PollInterval, c.poll)
	if c.opts.Duration > 0 {
		c.group.After(c.opts.Duration, c.end)
	}
	c.spawn()
}

func (c *Controller) measureHitLine() float64 {
	if c.hitLine == nil {
		return DefaultHitLineRatio
	}
	if r := c.hitLine(); r > 0 && r < 1 {
		return r
	}
	return DefaultHitLineRatio
}

func (c *Controller) spawn() {
	lane := c.gen.PatternLane(c.lastLane, c.lanes.Slots(), c.opts.Patterns, c.opts.PatternLikelihood)
	if lane == 0 {
		lane = c.gen.Lane(LaneCount)
	}
	c.lastLane = lane
	c.nextID++
	c.notes = append(c.notes, model.RhythmNote{
		ID:           c.nextID,
		Lane:         lane,
		Key:          c.lanes.KeyFor(lane),
		SpawnTime:    c.sched.Now(),
		FallDuration: c.opts.Speed.Tier().Fall,
	})
}

func (c *Controller) dueIn(n model.RhythmNote) time.Duration {
	return time.Duration(float64(n.FallDuration) * c.ratio)
}

func (c *Controller) poll() {
	now := c.sched.Now()
	for i := range c.notes {
		n := &c.notes[i]
		if n.Resolved() {
			continue
		}
		if now.Sub(n.SpawnTime) > c.dueIn(*n)+HitWindow {
			n.Missed = true
			c.misses++
			id := n.ID
			c.group.After(MissCleanup, func() { c.remove(id) })
		}
	}
}

func (c *Controller) remove(id int) {
	for i, n := range c.notes {
		if n.ID == id {
			c.notes = append(c.notes[:i], c.notes[i+1:]...)
			return
		}
	}
}

// Input judges one normalized key token. Tokens bound to no lane are ignored;
// a lane press with no note inside the window flashes the lane without
// counting a miss.
func (c *Controller) Input(token string) Judgement {
	if c.phase != Playing {
		return Ignored
	}
	lane, ok := c.lanes.Lane(token)
	if !ok {
		return Ignored
	}
	now := c.sched.Now()
	best := -1
	var bestDist time.Duration
	for i, n := range c.notes {
		if n.Resolved() || n.Lane != lane {
			continue
		}
		dist := now.Sub(n.SpawnTime) - c.dueIn(n)
		if dist < 0 {
			dist = -dist
		}
		if dist <= HitWindow && (best < 0 || dist < bestDist) {
			best = i
			bestDist = dist
		}
	}
	if best < 0 {
		c.flashes[lane-1] = now.Add(LaneFlash)
		return LaneMiss
	}
	c.notes[best].Hit = true
	c.hits++
	id := c.notes[best].ID
	c.group.After(HitCleanup, func() { c.remove(id) })
	return Hit
}

func (c *Controller) end() {
	if c.phase != Playing {
		return
	}
	c.group.Cancel()
	c.phase = Ending
	c.group.After(EndDelay, c.finish)
}

func (c *Controller) finish() {
	c.group.Cancel()
	c.notes = nil
	c.phase = Results
	c.endedAt = c.sched.Now()
	st := c.Stats()
	c.log.Info().
		Str("session_id", c.sessionID).
		Int("hits", st.Hits).
		Int("misses", st.Misses).
		Int("accuracy", st.Accuracy).
		Msg("weapon select finished")
	if c.rec == nil {
		return
	}
	rec := model.RhythmRecord{
		ID:        c.sessionID,
		StartedAt: c.startedAt,
		EndedAt:   c.endedAt,
		Speed:     string(c.opts.Speed),
		Duration:  int(c.opts.Duration / time.Second),
		Stats:     st,
	}
	if err := c.rec.SaveRhythm(context.Background(), rec); err != nil {
		c.log.Error().Err(err).Str("session_id", c.sessionID).Msg("save weapon select session")
	}
}

// Stop ends the session. Results are shown only when something was judged.
func (c *Controller) Stop() {
	switch c.phase {
	case Countdown, Playing, Ending:
	default:
		return
	}
	if c.hits > 0 || c.misses > 0 {
		c.finish()
		return
	}
	c.group.Cancel()
	c.notes = nil
	c.phase = Idle
}

// Dismiss leaves the Results screen.
func (c *Controller) Dismiss() {
	if c.phase == Results {
		c.phase = Idle
	}
}

// Stats returns hits, misses and rounded accuracy.
func (c *Controller) Stats() model.RhythmStats {
	return model.RhythmStats{
		Hits:     c.hits,
		Misses:   c.misses,
		Accuracy: stats.RhythmAccuracy(c.hits, c.misses),
	}
}

// Phase returns the current phase.
func (c *Controller) Phase() Phase { return c.phase }

// Countdown returns the remaining countdown value.
func (c *Controller) Countdown() int { return c.countdown }

// HitLineRatio returns the ratio in use.
func (c *Controller) HitLineRatio() float64 { return c.ratio }

// Notes returns a snapshot of the live notes.
func (c *Controller) Notes() []model.RhythmNote {
	return append([]model.RhythmNote(nil), c.notes...)
}

// Position returns how far a note has fallen as a fraction of its track.
// Values above 1 mean the note has passed the bottom.
func (c *Controller) Position(n model.RhythmNote) float64 {
	if n.FallDuration <= 0 {
		return 0
	}
	return float64(c.sched.Now().Sub(n.SpawnTime)) / float64(n.FallDuration)
}

// Flashing reports whether a lane miss flash is showing for lane.
func (c *Controller) Flashing(lane int) bool {
	if lane < 1 || lane > LaneCount {
		return false
	}
	return c.sched.Now().Before(c.flashes[lane-1])
}

// Remaining returns the time left in a timed session. ok is false for
// endless sessions or when nothing is playing.
func (c *Controller) Remaining() (time.Duration, bool) {
	if c.opts.Duration <= 0 || c.phase != Playing {
		return 0, false
	}
	left := c.opts.Duration - c.sched.Now().Sub(c.startedAt)
	if left < 0 {
		left = 0
	}
	return left, true
}

// Idle reports whether no session is running.
func (c *Controller) Idle() bool {
	return c.phase == Idle || c.phase == Results
}
