// Package scheduler runs delayed and repeating callbacks on a single logical
// thread. Controllers schedule every timer through a Scheduler so a round can
// cancel all of its pending work at once and tests can drive a virtual clock.
package scheduler

import "time"

// Task is a scheduled callback.
type Task interface {
	// Cancel stops the task. A cancelled task never runs again.
	Cancel()
	// Active reports whether the task may still run.
	Active() bool
}

// Scheduler schedules callbacks. Callbacks never run concurrently with each
// other or with the code that owns the scheduler.
type Scheduler interface {
	Now() time.Time
	After(d time.Duration, fn func()) Task
	Every(d time.Duration, fn func()) Task
}

// Group tracks the tasks scheduled through it so they can be cancelled
// together.
type Group struct {
	s     Scheduler
	tasks []Task
}

// NewGroup returns a Group scheduling on s.
func NewGroup(s Scheduler) *Group {
	return &Group{s: s}
}

// Now returns the scheduler's current time.
func (g *Group) Now() time.Time {
	return g.s.Now()
}

// After schedules fn once after d.
func (g *Group) After(d time.Duration, fn func()) Task {
	return g.track(g.s.After(d, fn))
}

// Every schedules fn every d until cancelled.
func (g *Group) Every(d time.Duration, fn func()) Task {
	return g.track(g.s.Every(d, fn))
}

// Cancel cancels every task scheduled through the group. The group stays
// usable afterwards.
func (g *Group) Cancel() {
	for _, t := range g.tasks {
		t.Cancel()
	}
	g.tasks = g.tasks[:0]
}

// Pending returns the number of tasks that may still run.
func (g *Group) Pending() int {
	n := 0
	for _, t := range g.tasks {
		if t.Active() {
			n++
		}
	}
	return n
}

func (g *Group) track(t Task) Task {
	if len(g.tasks) >= 64 {
		active := g.tasks[:0]
		for _, old := range g.tasks {
			if old.Active() {
				active = append(active, old)
			}
		}
		g.tasks = active
	}
	g.tasks = append(g.tasks, t)
	return t
}
