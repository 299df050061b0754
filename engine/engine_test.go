package engine

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type fakeEngine struct{ name string }

func (f *fakeEngine) Name() string                                  { return f.name }
func (f *fakeEngine) Validate(root string) error                    { return nil }
func (f *fakeEngine) Extract(root string) ([]string, error)         { return nil, nil }
func (f *fakeEngine) WriteTranslations(string, string, map[string]string) error { return nil }

func ensureRegistered(t *testing.T) {
	t.Helper()
	for _, name := range []string{"renpy", "rpgmaker", "unity"} {
		if _, err := New(name, nil); err != nil {
			name := name
			Register(name, func(func(string)) Engine { return &fakeEngine{name: name} })
		}
	}
}

func touch(t *testing.T, root, rel string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	if strings.HasSuffix(rel, "/") {
		if err := os.MkdirAll(path, 0o755); err != nil {
			t.Fatal(err)
		}
		return
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestDetect_RenPy(t *testing.T) {
	ensureRegistered(t)
	root := t.TempDir()
	touch(t, root, "game/script.rpy")
	touch(t, root, "renpy/")
	touch(t, root, "lib/")

	got, err := Detect(root)
	if err != nil {
		t.Fatal(err)
	}
	if got != "renpy" {
		t.Fatalf("Detect = %q, want renpy", got)
	}
}

func TestDetect_RPGMakerMV(t *testing.T) {
	ensureRegistered(t)
	root := t.TempDir()
	touch(t, root, "www/data/System.json")
	touch(t, root, "www/js/rpg_core.js")
	touch(t, root, "package.json")

	got, err := Detect(root)
	if err != nil {
		t.Fatal(err)
	}
	if got != "rpgmaker" {
		t.Fatalf("Detect = %q, want rpgmaker", got)
	}
}

func TestDetect_Unity(t *testing.T) {
	ensureRegistered(t)
	root := t.TempDir()
	touch(t, root, "UnityPlayer.dll")
	touch(t, root, "globalgamemanagers")
	touch(t, root, "Data/")

	got, err := Detect(root)
	if err != nil {
		t.Fatal(err)
	}
	if got != "unity" {
		t.Fatalf("Detect = %q, want unity", got)
	}
}

func TestDetect_NothingKnown(t *testing.T) {
	ensureRegistered(t)
	root := t.TempDir()
	touch(t, root, "README.md")

	if _, err := Detect(root); err == nil {
		t.Fatal("Detect succeeded on an empty project")
	}
}

func TestDetect_MissingRoot(t *testing.T) {
	ensureRegistered(t)
	if _, err := Detect(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Fatal("Detect succeeded on a missing directory")
	}
}

func TestNew_Unknown(t *testing.T) {
	ensureRegistered(t)
	_, err := New("godot", nil)
	if err == nil || !strings.Contains(err.Error(), "unknown game engine") {
		t.Fatalf("New(godot) err = %v", err)
	}
}
