package scheduler

import (
	"fmt"
	"time"
)

// Virtual is a manually advanced scheduler for tests.
type Virtual struct {
	now   time.Time
	seq   int
	tasks []*virtualTask
}

type virtualTask struct {
	due       time.Time
	every     time.Duration
	fn        func()
	seq       int
	cancelled bool
	done      bool
}

func (t *virtualTask) Cancel()      { t.cancelled = true }
func (t *virtualTask) Active() bool { return !t.cancelled && !t.done }

// NewVirtual returns a Virtual scheduler starting at start.
func NewVirtual(start time.Time) *Virtual {
	return &Virtual{now: start}
}

// Now returns the virtual time.
func (v *Virtual) Now() time.Time {
	return v.now
}

// After schedules fn once at Now()+d.
func (v *Virtual) After(d time.Duration, fn func()) Task {
	return v.add(d, 0, fn)
}

// Every schedules fn every d.
func (v *Virtual) Every(d time.Duration, fn func()) Task {
	if d <= 0 {
		panic(fmt.Sprintf("scheduler: non-positive interval %v", d))
	}
	return v.add(d, d, fn)
}

func (v *Virtual) add(d, every time.Duration, fn func()) Task {
	if d < 0 {
		d = 0
	}
	v.seq++
	t := &virtualTask{due: v.now.Add(d), every: every, fn: fn, seq: v.seq}
	v.tasks = append(v.tasks, t)
	return t
}

// Advance moves the clock forward by d, running due tasks in order of due
// time and then scheduling order. Tasks scheduled by callbacks run within the
// same call when they fall due before the target time.
func (v *Virtual) Advance(d time.Duration) {
	target := v.now.Add(d)
	for {
		t := v.next(target)
		if t == nil {
			break
		}
		v.now = t.due
		if t.every > 0 {
			t.due = t.due.Add(t.every)
			v.seq++
			t.seq = v.seq
		} else {
			t.done = true
		}
		t.fn()
	}
	v.now = target
}

// Pending returns the number of tasks that may still run.
func (v *Virtual) Pending() int {
	n := 0
	for _, t := range v.tasks {
		if t.Active() {
			n++
		}
	}
	return n
}

func (v *Virtual) next(target time.Time) *virtualTask {
	var best *virtualTask
	active := v.tasks[:0]
	for _, t := range v.tasks {
		if !t.Active() {
			continue
		}
		active = append(active, t)
		if t.due.After(target) {
			continue
		}
		if best == nil || t.due.Before(best.due) || (t.due.Equal(best.due) && t.seq < best.seq) {
			best = t
		}
	}
	v.tasks = active
	return best
}
