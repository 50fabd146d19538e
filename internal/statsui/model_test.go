package statsui

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/verte-zerg/skilldrill/internal/model"
	"github.com/verte-zerg/skilldrill/internal/store"
)

func openStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "skilldrill.db"), zerolog.Nop())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})
	return st
}

func seed(t *testing.T, st *store.Store) {
	t.Helper()
	ctx := context.Background()
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	rec := model.RoundRecord{
		ID:        "round-1",
		Mode:      model.ModePressure,
		StartedAt: start,
		EndedAt:   start.Add(time.Minute),
		RoundSize: 3,
		GameOver:  true,
		Results: []model.RoundResult{
			{Key: "1,Q", Description: "LongBow Q", CompletionTime: 900 * time.Millisecond, IsNewPB: true},
			{Key: "8,Q,x", Description: "Greatsword Q (Fake)", CompletionTime: 1500 * time.Millisecond, Errors: 2},
		},
	}
	if err := st.SaveRound(ctx, rec); err != nil {
		t.Fatalf("save round: %v", err)
	}
	if err := st.SavePersonalBest(ctx, "1,Q", 900*time.Millisecond); err != nil {
		t.Fatalf("save pb: %v", err)
	}
	rhythmRec := model.RhythmRecord{
		ID:        "rhythm-1",
		StartedAt: start,
		EndedAt:   start.Add(30 * time.Second),
		Speed:     "fast",
		Duration:  30,
		Stats:     model.RhythmStats{Hits: 9, Misses: 3, Accuracy: 75},
	}
	if err := st.SaveRhythm(ctx, rhythmRec); err != nil {
		t.Fatalf("save rhythm: %v", err)
	}
}

func TestModelTabs(t *testing.T) {
	st := openStore(t)
	seed(t, st)
	m := NewModel(st, model.StatsConfig{CurveWindow: 1})
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})

	view := m.View()
	if !strings.Contains(view, "Rounds: 1") || !strings.Contains(view, "Game overs: 1") {
		t.Fatalf("overview missing history: %s", view)
	}
	if !strings.Contains(view, "Greatsword Q (Fake)") {
		t.Fatalf("overview missing slowest components: %s", view)
	}

	m.Update(tea.KeyMsg{Type: tea.KeyRight})
	view = m.View()
	if !strings.Contains(view, "LongBow Q") || !strings.Contains(view, "0.90s") {
		t.Fatalf("personal bests tab missing row: %s", view)
	}

	m.Update(tea.KeyMsg{Type: tea.KeyRight})
	view = m.View()
	if !strings.Contains(view, "8+Q+X") {
		t.Fatalf("components tab missing display keys: %s", view)
	}

	m.Update(tea.KeyMsg{Type: tea.KeyRight})
	view = m.View()
	if !strings.Contains(view, "Overall accuracy: 75%") {
		t.Fatalf("weapon-select tab missing accuracy: %s", view)
	}

	m.Update(tea.KeyMsg{Type: tea.KeyRight})
	if m.active != tabOverview {
		t.Fatalf("tabs must wrap around, got %d", m.active)
	}
}

func TestModelEmptyStore(t *testing.T) {
	m := NewModel(openStore(t), model.StatsConfig{CurveWindow: 1})
	m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	if !strings.Contains(m.View(), "No rounds found.") {
		t.Fatalf("expected empty overview")
	}
	m.moveTab(1)
	if !strings.Contains(m.View(), "No personal bests yet.") {
		t.Fatalf("expected empty personal bests")
	}
}

func TestFilterParse(t *testing.T) {
	f := newFilterForm()
	cases := []struct {
		name    string
		values  [fieldCount]string
		wantErr bool
	}{
		{"valid", [fieldCount]string{"Pressure", "2026-03-01", "5", "3"}, false},
		{"empty", [fieldCount]string{"", "", "", ""}, false},
		{"bad mode", [fieldCount]string{"survival", "", "", ""}, true},
		{"bad date", [fieldCount]string{"", "03/01/2026", "", ""}, true},
		{"bad last", [fieldCount]string{"", "", "-1", ""}, true},
		{"bad window", [fieldCount]string{"", "", "", "0"}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			for i, v := range tc.values {
				f.inputs[i].SetValue(v)
			}
			if _, err := f.parse(); (err != nil) != tc.wantErr {
				t.Fatalf("unexpected error %v", err)
			}
		})
	}
	for i := range f.inputs {
		f.inputs[i].SetValue("")
	}
	cfg, err := f.parse()
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.Mode != "" || cfg.Since != nil || cfg.Last != 0 || cfg.CurveWindow != 1 {
		t.Fatalf("empty form must clear filters, got %+v", cfg)
	}
}

func TestFilterFormApplies(t *testing.T) {
	m := NewModel(openStore(t), model.StatsConfig{CurveWindow: 1})
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	if !strings.Contains(m.View(), "quit") {
		t.Fatalf("expected key help in footer: %s", m.View())
	}

	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("/")})
	if !m.filter.active {
		t.Fatalf("expected filter form to open")
	}
	if !strings.Contains(m.View(), "Curve window:") {
		t.Fatalf("expected filter fields in view: %s", m.View())
	}
	m.Update(tea.KeyMsg{Type: tea.KeyTab})
	if m.filter.focus != fieldSince {
		t.Fatalf("expected tab to focus the next field, got %d", m.filter.focus)
	}
	m.filter.inputs[fieldMode].SetValue("warp")
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if !m.filter.active || m.filter.err == "" {
		t.Fatalf("invalid filters must keep the form open with an error")
	}

	values := [fieldCount]string{"pressure", "2026-03-01", "5", "3"}
	for i, v := range values {
		m.filter.inputs[i].SetValue(v)
	}
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if m.filter.active {
		t.Fatalf("expected form to close after apply")
	}
	if m.cfg.Mode != model.ModePressure || m.cfg.Since == nil || m.cfg.Last != 5 || m.cfg.CurveWindow != 3 {
		t.Fatalf("unexpected config %+v", m.cfg)
	}
	if !strings.Contains(m.View(), "mode=pressure") {
		t.Fatalf("expected filter summary to reflect the new filters")
	}

	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("/")})
	m.filter.inputs[fieldWindow].SetValue("9")
	m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if m.filter.active || m.cfg.CurveWindow != 3 {
		t.Fatalf("esc must discard edits, got window %d", m.cfg.CurveWindow)
	}
}

func TestCurveWindowSteps(t *testing.T) {
	cases := []struct {
		in, next, prev int
	}{
		{1, 5, 1},
		{5, 10, 1},
		{7, 10, 5},
		{10, 15, 5},
		{11, 15, 10},
	}
	for _, tc := range cases {
		if got := stepWindow(tc.in, 1); got != tc.next {
			t.Fatalf("up(%d): expected %d, got %d", tc.in, tc.next, got)
		}
		if got := stepWindow(tc.in, -1); got != tc.prev {
			t.Fatalf("down(%d): expected %d, got %d", tc.in, tc.prev, got)
		}
	}
}
