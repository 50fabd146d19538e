// Package patternfile reads and writes common patterns as plain text, one
// "Weapon-Skill -> Weapon-Skill" pair per line.
package patternfile

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/verte-zerg/skilldrill/internal/config"
	"github.com/verte-zerg/skilldrill/internal/model"
)

const arrow = "->"

// Load reads patterns from the provided file path.
func Load(path string) ([]model.Pattern, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			// Best-effort close for read-only pattern file.
			_ = cerr
		}
	}()
	return Parse(file)
}

// Parse reads patterns from r. Blank lines and lines starting with # are
// skipped.
func Parse(r io.Reader) ([]model.Pattern, error) {
	var patterns []model.Pattern
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		p, err := ParseLine(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		patterns = append(patterns, p)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(patterns) == 0 {
		return nil, fmt.Errorf("pattern file is empty")
	}
	return patterns, nil
}

// ParseLine parses one "From -> To" pair. Both sides are required.
func ParseLine(line string) (model.Pattern, error) {
	from, to, ok := strings.Cut(line, arrow)
	if !ok {
		return model.Pattern{}, fmt.Errorf("expected \"Weapon-Skill %s Weapon-Skill\", got %q", arrow, line)
	}
	from = strings.TrimSpace(from)
	to = strings.TrimSpace(to)
	if from == "" || to == "" {
		return model.Pattern{}, fmt.Errorf("pattern %q needs both sides", line)
	}
	return config.ParsePattern(config.PatternFile{From: from, To: to})
}

// FormatLine renders a complete pattern.
func FormatLine(p model.Pattern) string {
	return fmt.Sprintf("%s %s %s", p.From, arrow, p.To)
}

// Write stores complete patterns at path atomically. Incomplete patterns are
// skipped. It returns the number of patterns written.
func Write(path string, patterns []model.Pattern) (int, error) {
	var buf bytes.Buffer
	writer := bufio.NewWriter(&buf)
	if _, err := fmt.Fprintln(writer, "# skilldrill common patterns"); err != nil {
		return 0, err
	}
	n := 0
	for _, p := range patterns {
		if !p.Complete() {
			continue
		}
		if _, err := fmt.Fprintln(writer, FormatLine(p)); err != nil {
			return 0, fmt.Errorf("failed to write patterns: %w", err)
		}
		n++
	}
	if err := writer.Flush(); err != nil {
		return 0, fmt.Errorf("failed to flush patterns: %w", err)
	}
	if err := config.WriteFileAtomic(path, buf.Bytes()); err != nil {
		return 0, err
	}
	return n, nil
}
