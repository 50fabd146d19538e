package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/skilldrill/internal/scheduler"
)

// refreshInterval redraws live timers and falling notes.
const refreshInterval = 50 * time.Millisecond

type taskMsg func()

type tickMsg time.Time

type configChangedMsg struct{}

// clock resolves the scheduler a screen runs on. A nil scheduler means the
// wall clock, with callbacks delivered through the Bubble Tea loop.
func clock(s scheduler.Scheduler) (scheduler.Scheduler, <-chan func()) {
	if s != nil {
		return s, nil
	}
	loop := scheduler.NewLoop()
	return loop, loop.C()
}

func waitForTask(tasks <-chan func()) tea.Cmd {
	if tasks == nil {
		return nil
	}
	return func() tea.Msg {
		return taskMsg(<-tasks)
	}
}

func waitForChange(changes <-chan struct{}) tea.Cmd {
	if changes == nil {
		return nil
	}
	return func() tea.Msg {
		if _, ok := <-changes; !ok {
			return nil
		}
		return configChangedMsg{}
	}
}

func tick() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}
