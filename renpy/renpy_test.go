package renpy

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeScript(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

const script = `# The first day.
label start:
    e "Hello, [player_name]!"
    "The room is quiet."
    menu:
        "Stay here":
            e "Fine."
        "Leave" if courage > 2:
            jump outside

init python:
    config.name = "Not dialogue"

screen hud():
    text "Score: [score]"
    textbutton "Quit"
`

func TestExtract(t *testing.T) {
	root := t.TempDir()
	writeScript(t, root, "game/script.rpy", script)

	e := New(nil)
	got, err := e.Extract(root)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{
		"Hello, [player_name]!",
		"The room is quiet.",
		"Stay here",
		"Fine.",
		"Leave",
		"Score: [score]",
		"Quit",
	}
	if len(got) != len(want) {
		t.Fatalf("Extract = %q, want %q", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Extract[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestExtract_SkipsTLDirAndDuplicates(t *testing.T) {
	root := t.TempDir()
	writeScript(t, root, "game/a.rpy", `label a:
    "Shared line"
`)
	writeScript(t, root, "game/b.rpy", `label b:
    "Shared line"
`)
	writeScript(t, root, "game/tl/french/old.rpy", `translate french strings:
    old "Shared line"
    new "Ligne partagée"
`)

	got, err := New(nil).Extract(root)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0] != "Shared line" {
		t.Fatalf("Extract = %q", got)
	}
}

func TestExtract_EscapedQuotes(t *testing.T) {
	root := t.TempDir()
	writeScript(t, root, "game/script.rpy", `label start:
    e "She said \"hi\" and left.\nThen silence."
`)
	got, err := New(nil).Extract(root)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0] != "She said \"hi\" and left.\nThen silence." {
		t.Fatalf("Extract = %q", got)
	}
}

func TestValidate(t *testing.T) {
	root := t.TempDir()
	if err := New(nil).Validate(root); err == nil {
		t.Fatal("Validate accepted a directory without game/")
	}
	if err := os.MkdirAll(filepath.Join(root, "game"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := New(nil).Validate(root); err != nil {
		t.Fatalf("Validate = %v", err)
	}
}

func TestWriteTranslations(t *testing.T) {
	root := t.TempDir()
	writeScript(t, root, "game/script.rpy", "")

	e := New(nil)
	err := e.WriteTranslations(root, "chinese", map[string]string{
		"Hello, [player_name]!":      "你好，[player_name]！",
		"Line one\nline two":         "第一行\n第二行",
		`She said "hi"`:              `她说"嗨"`,
	})
	if err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(filepath.Join(root, "game", "tl", "chinese", outputFile))
	if err != nil {
		t.Fatal(err)
	}
	text := string(data)
	if !strings.HasPrefix(text, "translate chinese strings:\n") {
		t.Fatalf("missing header:\n%s", text)
	}
	for _, want := range []string{
		`old "Hello, [player_name]!"`,
		`new "你好，[player_name]！"`,
		`old "Line one\nline two"`,
		`old "She said \"hi\""`,
	} {
		if !strings.Contains(text, want) {
			t.Errorf("output missing %q:\n%s", want, text)
		}
	}
}

func TestWriteTranslations_RemovesStaleCompiled(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "game", "tl", "chinese")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	stale := filepath.Join(dir, outputFile+"c")
	if err := os.WriteFile(stale, []byte("old bytecode"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := New(nil).WriteTranslations(root, "chinese", map[string]string{"a": "b"}); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Fatal("stale compiled file survived")
	}
}

func TestWriteTranslations_RequiresLang(t *testing.T) {
	if err := New(nil).WriteTranslations(t.TempDir(), "", nil); err == nil {
		t.Fatal("empty language accepted")
	}
}

func TestWriteForceLanguage(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "game"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := New(nil).WriteForceLanguage(root, "chinese"); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(filepath.Join(root, "game", "set_default_language_at_startup.rpy"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `renpy.change_language("chinese")`) {
		t.Fatalf("unexpected content:\n%s", data)
	}
}
