package patternfile

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/verte-zerg/skilldrill/internal/model"
)

func TestParseSkipsCommentsAndBlanks(t *testing.T) {
	input := `
# warmup
LongBow-Q -> Sword-E

TwinBlade-E->axe-q
`
	patterns, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(patterns) != 2 {
		t.Fatalf("expected 2 patterns, got %d", len(patterns))
	}
	if patterns[1].From.Weapon != "TwinBlade" || patterns[1].To.Weapon != "Axe" || patterns[1].To.Skill != model.SkillQ {
		t.Fatalf("unexpected pattern %+v -> %+v", patterns[1].From, patterns[1].To)
	}
}

func TestParseErrors(t *testing.T) {
	cases := []string{
		"LongBow-Q Sword-E",
		"LongBow-Q ->",
		"Bow-Q -> Sword-E",
		"LongBow-R -> Sword-E",
		"# only a comment",
	}
	for _, input := range cases {
		if _, err := Parse(strings.NewReader(input)); err == nil {
			t.Fatalf("expected error for %q", input)
		}
	}
}

func TestWriteLoadRoundTrip(t *testing.T) {
	from := model.SkillRef{Weapon: "Reaper", Skill: model.SkillE}
	to := model.SkillRef{Weapon: "Greatsword", Skill: model.SkillQ}
	patterns := []model.Pattern{{From: &from, To: &to}, {From: &from}}

	path := filepath.Join(t.TempDir(), "nested", "patterns.txt")
	n, err := Write(path, patterns)
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected incomplete pattern to be skipped, wrote %d", n)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(loaded) != 1 || *loaded[0].From != from || *loaded[0].To != to {
		t.Fatalf("unexpected loaded patterns %+v", loaded)
	}
	if FormatLine(loaded[0]) != "Reaper-E -> Greatsword-Q" {
		t.Fatalf("unexpected format %q", FormatLine(loaded[0]))
	}
}
