package scheduler

import (
	"sync"
	"sync/atomic"
	"time"
)

// Loop is a wall-clock scheduler that hands due callbacks to a single
// consumer through C. The consumer runs them on its own goroutine, which
// keeps every callback on the UI thread.
type Loop struct {
	c chan func()
}

// NewLoop returns a Loop.
func NewLoop() *Loop {
	return &Loop{c: make(chan func(), 64)}
}

// C delivers callbacks that are due. Each value must be called exactly once
// by the consumer.
func (l *Loop) C() <-chan func() {
	return l.c
}

// Now returns the wall-clock time.
func (l *Loop) Now() time.Time {
	return time.Now()
}

type loopTask struct {
	cancelled atomic.Bool
	finished  atomic.Bool
	done      chan struct{}
	once      sync.Once
	timer     *time.Timer
}

func (t *loopTask) Cancel() {
	t.cancelled.Store(true)
	t.once.Do(func() {
		close(t.done)
		if t.timer != nil {
			t.timer.Stop()
		}
	})
}

func (t *loopTask) Active() bool {
	return !t.cancelled.Load() && !t.finished.Load()
}

// After schedules fn once after d.
func (l *Loop) After(d time.Duration, fn func()) Task {
	t := &loopTask{done: make(chan struct{})}
	run := func() {
		// Cancellation may happen between delivery and execution.
		if t.cancelled.Load() {
			return
		}
		t.finished.Store(true)
		fn()
	}
	t.timer = time.AfterFunc(d, func() { l.post(t, run) })
	return t
}

// Every schedules fn every d until cancelled.
func (l *Loop) Every(d time.Duration, fn func()) Task {
	t := &loopTask{done: make(chan struct{})}
	run := func() {
		if t.cancelled.Load() {
			return
		}
		fn()
	}
	ticker := time.NewTicker(d)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-t.done:
				return
			case <-ticker.C:
				l.post(t, run)
			}
		}
	}()
	return t
}

func (l *Loop) post(t *loopTask, run func()) {
	select {
	case l.c <- run:
	case <-t.done:
	}
}
