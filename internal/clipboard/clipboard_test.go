package clipboard

import (
	"os"
	"path/filepath"
	"testing"
)

func TestMemorySink_KeepsBothFlavors(t *testing.T) {
	sink := NewMemorySink()
	if err := sink.Write("<i>A</i>, 2016", "A, 2016"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rich, plain := sink.Contents()
	if rich != "<i>A</i>, 2016" {
		t.Errorf("unexpected rich flavor: %q", rich)
	}
	if plain != "A, 2016" {
		t.Errorf("unexpected plain flavor: %q", plain)
	}
}

func TestMemorySink_OverwritesAtomically(t *testing.T) {
	sink := NewMemorySink()
	if err := sink.Write("first rich", "first plain"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := sink.Write("second rich", "second plain"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rich, plain := sink.Contents()
	if rich != "second rich" || plain != "second plain" {
		t.Errorf("flavors drifted apart: rich=%q plain=%q", rich, plain)
	}
}

func TestCommandSink_PipesPlainFlavor(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "clip.txt")

	sink := NewCommandSink("tee", dest)
	if err := sink.Write("<i>rich</i>", "plain text"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("failed to read piped output: %v", err)
	}
	if string(got) != "plain text" {
		t.Errorf("expected plain flavor piped, got %q", string(got))
	}
}

func TestCommandSink_MissingCommand(t *testing.T) {
	sink := NewCommandSink("refbase-no-such-command")
	if err := sink.Write("rich", "plain"); err == nil {
		t.Errorf("expected error for missing command")
	}
}
