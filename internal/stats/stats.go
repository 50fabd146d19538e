// Package stats contains statistics calculations and reporting.
package stats

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/verte-zerg/skilldrill/internal/model"
)

const sparkChars = " .:-=+*#%@"

// CalculateRoundStats aggregates completion times. An empty round yields
// zero stats.
func CalculateRoundStats(results []model.RoundResult) model.RoundStats {
	if len(results) == 0 {
		return model.RoundStats{}
	}
	var total time.Duration
	fastest := results[0].CompletionTime
	slowest := results[0].CompletionTime
	newPBs := 0
	for _, r := range results {
		total += r.CompletionTime
		if r.CompletionTime < fastest {
			fastest = r.CompletionTime
		}
		if r.CompletionTime > slowest {
			slowest = r.CompletionTime
		}
		if r.IsNewPB {
			newPBs++
		}
	}
	return model.RoundStats{
		Average:    total / time.Duration(len(results)),
		Fastest:    fastest,
		Slowest:    slowest,
		NewPBCount: newPBs,
	}
}

// RhythmAccuracy returns hits as a rounded percentage of attempts, 100 when
// nothing was attempted.
func RhythmAccuracy(hits, misses int) int {
	total := hits + misses
	if total == 0 {
		return 100
	}
	return int(math.Round(float64(hits) / float64(total) * 100))
}

// Seconds formats a duration as seconds with two decimals.
func Seconds(d time.Duration) string {
	return fmt.Sprintf("%.2fs", d.Seconds())
}

// MovingAverage computes a rolling mean over the provided window size.
func MovingAverage(values []float64, window int) []float64 {
	if window <= 1 || len(values) == 0 {
		out := make([]float64, len(values))
		copy(out, values)
		return out
	}
	out := make([]float64, len(values))
	var sum float64
	for i := 0; i < len(values); i++ {
		sum += values[i]
		if i >= window {
			sum -= values[i-window]
		}
		den := float64(i + 1)
		if i >= window {
			den = float64(window)
		}
		out[i] = sum / den
	}
	return out
}

// Sparkline renders a single-line ASCII sparkline for the values.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	minVal := values[0]
	maxVal := values[0]
	for _, v := range values[1:] {
		if v < minVal {
			minVal = v
		}
		if v > maxVal {
			maxVal = v
		}
	}
	if math.Abs(maxVal-minVal) < 1e-9 {
		return strings.Repeat(string(sparkChars[len(sparkChars)/2]), len(values))
	}
	var b strings.Builder
	for _, v := range values {
		pos := (v - minVal) / (maxVal - minVal)
		idx := int(math.Round(pos * float64(len(sparkChars)-1)))
		if idx < 0 {
			idx = 0
		}
		if idx >= len(sparkChars) {
			idx = len(sparkChars) - 1
		}
		b.WriteByte(sparkChars[idx])
	}
	return b.String()
}

// RenderRoundSummary prints the results of a finished round.
func RenderRoundSummary(w io.Writer, results []model.RoundResult, roundSize int, gameOver bool) error {
	st := CalculateRoundStats(results)
	title := "Round Complete"
	if gameOver {
		title = "Game Over"
	}
	if _, err := fmt.Fprintln(w, title); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Completed: %d / %d\n", len(results), roundSize); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Average: %s  Fastest: %s  Slowest: %s  New PBs: %d\n",
		Seconds(st.Average), Seconds(st.Fastest), Seconds(st.Slowest), st.NewPBCount); err != nil {
		return err
	}
	if len(results) == 0 {
		return nil
	}
	rows := make([][]string, 0, len(results))
	for i, r := range results {
		pb := ""
		if r.IsNewPB {
			pb = "*"
		}
		rows = append(rows, []string{
			fmt.Sprintf("%d", i+1),
			r.Description,
			Seconds(r.CompletionTime),
			fmt.Sprintf("%d", r.Errors),
			pb,
		})
	}
	return writeTable(w, []column{right("#"), left("Skill"), right("Time"), right("Errors"), left("PB")}, rows)
}

// RenderPBTable prints personal bests fastest first. Keys missing from
// descriptions are shown raw.
func RenderPBTable(w io.Writer, pbs []model.PersonalBest, descriptions map[string]string) error {
	if len(pbs) == 0 {
		_, err := fmt.Fprintln(w, "No personal bests yet.")
		return err
	}
	if _, err := fmt.Fprintln(w, "Personal Bests"); err != nil {
		return err
	}
	rows := make([][]string, 0, len(pbs))
	for _, pb := range pbs {
		desc, ok := descriptions[pb.Key]
		if !ok {
			desc = "-"
		}
		rows = append(rows, []string{desc, pb.Key, Seconds(pb.Time)})
	}
	if err := writeTable(w, []column{left("Skill"), left("Keys"), right("Time")}, rows); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

// RenderHistory prints a summary of stored rounds and a trend of round
// averages. width limits the sparkline; 0 means unlimited.
func RenderHistory(w io.Writer, rounds []model.RoundAggregate, window, width int) error {
	if len(rounds) == 0 {
		_, err := fmt.Fprintln(w, "No rounds found.")
		return err
	}
	var total time.Duration
	best := time.Duration(0)
	completed := 0
	gameOvers := 0
	averages := make([]float64, 0, len(rounds))
	for _, r := range rounds {
		if r.GameOver {
			gameOvers++
		}
		if r.Completed == 0 {
			continue
		}
		completed++
		total += r.Average
		if best == 0 || r.Average < best {
			best = r.Average
		}
		averages = append(averages, r.Average.Seconds())
	}
	lines := []string{
		"History",
		fmt.Sprintf("Rounds: %d", len(rounds)),
		fmt.Sprintf("Game overs: %d", gameOvers),
	}
	if completed > 0 {
		lines = append(lines,
			fmt.Sprintf("Avg round time: %s", Seconds(total/time.Duration(completed))),
			fmt.Sprintf("Best round time: %s", Seconds(best)),
		)
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	trend := MovingAverage(averages, window)
	if width > 0 && len(trend) > width {
		trend = trend[len(trend)-width:]
	}
	if len(trend) > 0 {
		if _, err := fmt.Fprintf(w, "Trend: %s\n", Sparkline(trend)); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

// RenderSlowest prints the components with the highest average time.
func RenderSlowest(w io.Writer, aggs []model.ComponentAggregate, n int) error {
	slowest := SlowestComponents(aggs, n)
	if len(slowest) == 0 {
		return nil
	}
	if _, err := fmt.Fprintln(w, "Slowest Skills"); err != nil {
		return err
	}
	rows := make([][]string, 0, len(slowest))
	for _, a := range slowest {
		rows = append(rows, []string{
			a.Description,
			fmt.Sprintf("%d", a.Count),
			Seconds(a.Average()),
			fmt.Sprintf("%d", a.Errors),
		})
	}
	if err := writeTable(w, []column{left("Skill"), right("Reps"), right("Avg"), right("Errors")}, rows); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

// SlowestComponents returns the top n components by average completion time.
func SlowestComponents(aggs []model.ComponentAggregate, n int) []model.ComponentAggregate {
	if n <= 0 || len(aggs) == 0 {
		return nil
	}
	items := make([]model.ComponentAggregate, 0, len(aggs))
	for _, a := range aggs {
		if a.Count > 0 {
			items = append(items, a)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		ai, aj := items[i].Average(), items[j].Average()
		if ai == aj {
			return items[i].Key < items[j].Key
		}
		return ai > aj
	})
	if n > len(items) {
		n = len(items)
	}
	return items[:n]
}

// RenderRhythmSummary prints a weapon-select tally.
func RenderRhythmSummary(w io.Writer, st model.RhythmStats) error {
	_, err := fmt.Fprintf(w, "Hits: %d  Misses: %d  Accuracy: %d%%\n", st.Hits, st.Misses, st.Accuracy)
	return err
}
