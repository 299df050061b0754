package glossary

import (
	"os"
	"path/filepath"
	"testing"
)

// ---------------------------------------------------------------------------
// Apply / RestoreTerms
// ---------------------------------------------------------------------------

func TestApplyAndRestore(t *testing.T) {
	g := New([]Entry{{Source: "Alice", Target: "爱丽丝"}})

	masked, ctx := g.Apply("Alice said hello.")
	if masked != "ZXBZ said hello." {
		t.Errorf("masked = %q", masked)
	}
	got := g.RestoreTerms(masked, ctx)
	if got != "爱丽丝 said hello." {
		t.Errorf("restored = %q", got)
	}
}

func TestApplyMatchesCaseInsensitively(t *testing.T) {
	g := New([]Entry{{Source: "Alice", Target: "爱丽丝"}})

	masked, ctx := g.Apply("alice and ALICE")
	if masked != "ZXBZ and ZXBZ" {
		t.Errorf("masked = %q", masked)
	}
	got := g.RestoreTerms(masked, ctx)
	if got != "爱丽丝 and 爱丽丝" {
		t.Errorf("restored = %q", got)
	}
}

func TestApplyHonorsCaseSensitiveEntries(t *testing.T) {
	g := New([]Entry{{Source: "IT", Target: "信息技术", CaseSensitive: true}})

	masked, _ := g.Apply("it is IT")
	if masked != "it is ZXBZ" {
		t.Errorf("masked = %q", masked)
	}
}

func TestApplyLongestSourceFirst(t *testing.T) {
	g := New([]Entry{
		{Source: "Alice", Target: "爱丽丝"},
		{Source: "Alice Margatroid", Target: "爱丽丝·玛格特洛依德"},
	})

	masked, ctx := g.Apply("Alice Margatroid met Alice")
	if masked != "ZXCZ met ZXBZ" {
		t.Errorf("masked = %q", masked)
	}
	got := g.RestoreTerms(masked, ctx)
	if got != "爱丽丝·玛格特洛依德 met 爱丽丝" {
		t.Errorf("restored = %q", got)
	}
}

func TestRegexEntryProtectsMatchedText(t *testing.T) {
	// A regex entry pins whatever it matched; the matched text itself is
	// restored since it has no direct entry.
	g := New([]Entry{{Source: `Lv\.\s*\d+`, Target: "", IsRegex: true}})

	masked, ctx := g.Apply("Reached Lv. 10 today")
	if masked != "Reached ZXBZ today" {
		t.Errorf("masked = %q", masked)
	}
	got := g.RestoreTerms("到达 ZXBZ 了", ctx)
	if got != "到达 Lv. 10 了" {
		t.Errorf("restored = %q", got)
	}
}

func TestRestoreMatchesPlaceholderCaseInsensitively(t *testing.T) {
	g := New([]Entry{{Source: "Alice", Target: "爱丽丝"}})

	_, ctx := g.Apply("Alice!")
	got := g.RestoreTerms("zxbz!", ctx)
	if got != "爱丽丝!" {
		t.Errorf("restored = %q", got)
	}
}

func TestEmptyEngineIsIdentity(t *testing.T) {
	g := New(nil)

	masked, ctx := g.Apply("nothing to do")
	if masked != "nothing to do" {
		t.Errorf("masked = %q", masked)
	}
	if ctx != nil {
		t.Errorf("ctx = %+v, want nil", ctx)
	}
	if got := g.RestoreTerms("nothing to do", ctx); got != "nothing to do" {
		t.Errorf("restored = %q", got)
	}
}

func TestApplyReplacesEveryOccurrence(t *testing.T) {
	g := New([]Entry{{Source: "gold", Target: "金币"}})

	masked, ctx := g.Apply("gold, gold and gold")
	if masked != "ZXBZ, ZXBZ and ZXBZ" {
		t.Errorf("masked = %q", masked)
	}
	got := g.RestoreTerms(masked, ctx)
	if got != "金币, 金币 and 金币" {
		t.Errorf("restored = %q", got)
	}
}

func TestInvalidRegexEntrySkipped(t *testing.T) {
	g := New([]Entry{
		{Source: `(unclosed`, IsRegex: true},
		{Source: "Alice", Target: "爱丽丝"},
	})

	if n := len(g.Invalid()); n != 1 {
		t.Fatalf("got %d invalid entries, want 1", n)
	}
	masked, _ := g.Apply("(unclosed Alice")
	if masked != "(unclosed ZXCZ" {
		t.Errorf("masked = %q", masked)
	}
}

// ---------------------------------------------------------------------------
// Placeholder alphabet
// ---------------------------------------------------------------------------

func TestPlaceholderAlphabet(t *testing.T) {
	tests := []struct {
		index int
		want  string
	}{
		{0, "ZXBZ"},
		{1, "ZXCZ"},
		{23, "ZXYZ"},
		{24, "ZXB1Z"},
		{47, "ZXY1Z"},
		{48, "ZXB2Z"},
	}

	for _, tt := range tests {
		if got := placeholderFor(tt.index); got != tt.want {
			t.Errorf("placeholderFor(%d) = %q, want %q", tt.index, got, tt.want)
		}
	}
}

// ---------------------------------------------------------------------------
// File loading
// ---------------------------------------------------------------------------

func TestLoadJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "glossary.json")
	content := `{
  "version": "1.0",
  "entries": [
    {"source": "Alice", "target": "爱丽丝", "category": "name"},
    {"src": "Reimu", "dst": "灵梦", "info": "legacy keys"}
  ]
}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write glossary: %v", err)
	}

	g, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if g.Len() != 2 {
		t.Fatalf("got %d entries, want 2", g.Len())
	}
	entries := g.Entries()
	if entries[1].Source != "Reimu" || entries[1].Target != "灵梦" || entries[1].Context != "legacy keys" {
		t.Errorf("legacy entry = %+v", entries[1])
	}
}

func TestLoadCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "glossary.csv")
	content := "source,target,context,category\n# names\nAlice,爱丽丝,protagonist,name\nMarisa,魔理沙\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write glossary: %v", err)
	}

	g, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if g.Len() != 2 {
		t.Fatalf("got %d entries, want 2", g.Len())
	}
	entries := g.Entries()
	if entries[0].Context != "protagonist" || entries[0].Category != "name" {
		t.Errorf("entry 0 = %+v", entries[0])
	}
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "glossary.yaml")
	content := "version: \"1.0\"\nentries:\n  - source: Alice\n    target: 爱丽丝\n  - source: 'Lv\\.\\d+'\n    regex: true\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write glossary: %v", err)
	}

	g, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if g.Len() != 2 {
		t.Fatalf("got %d entries, want 2", g.Len())
	}
	if !g.Entries()[1].IsRegex {
		t.Errorf("entry 1 = %+v, want regex", g.Entries()[1])
	}
}

func TestSaveJSONRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "glossary.json")
	entries := []Entry{{Source: "Alice", Target: "爱丽丝", CaseSensitive: true}}

	if err := SaveJSON(path, entries); err != nil {
		t.Fatalf("SaveJSON: %v", err)
	}
	g, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if g.Len() != 1 || g.Entries()[0] != entries[0] {
		t.Errorf("round trip = %+v", g.Entries())
	}
}
