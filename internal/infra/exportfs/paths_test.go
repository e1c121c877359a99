package exportfs

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDeckPathCreatesPrefixChain(t *testing.T) {
	root := t.TempDir()

	path, err := DeckPath(root, "Math::Algebra::Linear", DefaultOptions())
	if err != nil {
		t.Fatalf("deck path: %v", err)
	}
	want := filepath.Join(root, "Math", "Algebra", "Linear")
	if path != want {
		t.Fatalf("path = %q, want %q", path, want)
	}

	for _, dir := range []string{
		filepath.Join(root, "Math"),
		filepath.Join(root, "Math", "Algebra"),
		want,
	} {
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			t.Fatalf("expected directory %q: %v", dir, err)
		}
	}
}

func TestDeckPathIdempotent(t *testing.T) {
	root := t.TempDir()

	first, err := DeckPath(root, "A::B", DefaultOptions())
	if err != nil {
		t.Fatalf("first call: %v", err)
	}
	second, err := DeckPath(root, "A::B", DefaultOptions())
	if err != nil {
		t.Fatalf("second call: %v", err)
	}
	if first != second {
		t.Fatalf("paths differ: %q vs %q", first, second)
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected a single root entry, got %d", len(entries))
	}
}

func TestDeckPathSanitizesSegments(t *testing.T) {
	root := t.TempDir()

	path, err := DeckPath(root, `My Deck::Sub/Deck: "quoted"`, DefaultOptions())
	if err != nil {
		t.Fatalf("deck path: %v", err)
	}
	want := filepath.Join(root, "My Deck", "SubDeck quoted")
	if path != want {
		t.Fatalf("path = %q, want %q", path, want)
	}
}

func TestDeckPathSkipsEmptySanitizedSegment(t *testing.T) {
	root := t.TempDir()

	path, err := DeckPath(root, "A::???::B", DefaultOptions())
	if err != nil {
		t.Fatalf("deck path: %v", err)
	}
	// The unsanitizable middle level flattens away.
	want := filepath.Join(root, "A", "B")
	if path != want {
		t.Fatalf("path = %q, want %q", path, want)
	}
}

func TestDeckPathTruncatesToMaxDepth(t *testing.T) {
	root := t.TempDir()

	opts := DefaultOptions()
	opts.MaxDepth = 2
	path, err := DeckPath(root, "A::B::C::D", opts)
	if err != nil {
		t.Fatalf("deck path: %v", err)
	}
	want := filepath.Join(root, "A", "B")
	if path != want {
		t.Fatalf("path = %q, want %q", path, want)
	}
	if _, err := os.Stat(filepath.Join(root, "A", "B", "C")); !os.IsNotExist(err) {
		t.Fatal("deeper levels should not be created")
	}
}

func TestDeckPathWithoutSanitize(t *testing.T) {
	root := t.TempDir()

	opts := DefaultOptions()
	opts.Sanitize = false
	path, err := DeckPath(root, "  Deck A ::Sub B  ", opts)
	if err != nil {
		t.Fatalf("deck path: %v", err)
	}
	want := filepath.Join(root, "Deck A", "Sub B")
	if path != want {
		t.Fatalf("path = %q, want %q", path, want)
	}
}

func TestSanitizeFileNameFallback(t *testing.T) {
	if got := SanitizeFileName("???", " -_"); got != "unnamed" {
		t.Fatalf("fallback = %q, want unnamed", got)
	}
	if got := SanitizeFileName("Deck 1", " -_"); got != "Deck 1" {
		t.Fatalf("got %q", got)
	}
}

func TestUniquePath(t *testing.T) {
	dir := t.TempDir()

	path := filepath.Join(dir, "deck.apkg")
	if got := UniquePath(path); got != path {
		t.Fatalf("fresh path should be returned as-is, got %q", got)
	}

	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	want := filepath.Join(dir, "deck_1.apkg")
	if got := UniquePath(path); got != want {
		t.Fatalf("got %q, want %q", got, want)
	}

	if err := os.WriteFile(want, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	want2 := filepath.Join(dir, "deck_2.apkg")
	if got := UniquePath(path); got != want2 {
		t.Fatalf("got %q, want %q", got, want2)
	}
}

func TestEnsureMediaDir(t *testing.T) {
	dir := t.TempDir()

	mediaDir, err := EnsureMediaDir(dir, "")
	if err != nil {
		t.Fatalf("ensure media dir: %v", err)
	}
	if mediaDir != filepath.Join(dir, "media") {
		t.Fatalf("media dir = %q", mediaDir)
	}
	info, err := os.Stat(mediaDir)
	if err != nil || !info.IsDir() {
		t.Fatalf("media dir missing: %v", err)
	}
}
