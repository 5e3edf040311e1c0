package levels

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelError, // Reduce noise in tests
	}))
}

func TestFSLevels_Context(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "levels"), 0o755); err != nil {
		t.Fatal(err)
	}
	content := "# Level 0\n\nYellow rooms forever."
	if err := os.WriteFile(filepath.Join(dir, "levels", "level_0.md"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	src := NewFSLevels(dir, testLogger())

	got, err := src.Context("Level 0")
	if err != nil {
		t.Fatalf("Context: %v", err)
	}
	if got != content {
		t.Errorf("context = %q", got)
	}
}

func TestFSLevels_MissingDocumentIsNotAnError(t *testing.T) {
	src := NewFSLevels(t.TempDir(), testLogger())

	got, err := src.Context("Level 99")
	if err != nil {
		t.Fatalf("Context: %v", err)
	}
	if got != "" {
		t.Errorf("context = %q, want empty", got)
	}
}

func TestFSLevels_SlugsLevelID(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "levels"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "levels", "the_habitable_zone.md"), []byte("fog"), 0o644); err != nil {
		t.Fatal(err)
	}

	src := NewFSLevels(dir, testLogger())
	got, err := src.Context("The Habitable Zone!")
	if err != nil {
		t.Fatalf("Context: %v", err)
	}
	if got != "fog" {
		t.Errorf("context = %q", got)
	}
}

func TestFSLevels_EmptyLevelID(t *testing.T) {
	src := NewFSLevels(t.TempDir(), testLogger())
	got, err := src.Context("!!!")
	if err != nil || got != "" {
		t.Errorf("Context = (%q, %v), want empty no error", got, err)
	}
}
