package filter

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestFilter_RemovesPhrase(t *testing.T) {
	got := Filter("Breaking news!! Subscribe now", []string{"Subscribe now"})
	if got != "Breaking news!!" {
		t.Fatalf("expected 'Breaking news!!', got %q", got)
	}
}

func TestFilter_RemovesEveryOccurrence(t *testing.T) {
	got := Filter("ad text ad more ad", []string{"ad "})
	if got != "text more ad" {
		t.Fatalf("expected 'text more ad', got %q", got)
	}
}

func TestFilter_EmptyPhraseListIsNoop(t *testing.T) {
	in := "  untouched text  "
	if got := Filter(in, nil); got != "untouched text" {
		t.Fatalf("expected trimmed input, got %q", got)
	}
}

func TestFilter_SkipsEmptyPhrase(t *testing.T) {
	got := Filter("hello world", []string{"", "world"})
	if got != "hello" {
		t.Fatalf("expected 'hello', got %q", got)
	}
}

func TestFilter_Idempotent(t *testing.T) {
	phrases := []string{"Subscribe now", "t.me/channel"}
	once := Filter("News. Subscribe now t.me/channel", phrases)
	twice := Filter(once, phrases)
	if once != twice {
		t.Fatalf("filter not idempotent: %q vs %q", once, twice)
	}
}

func TestFilter_CanEmptyTheText(t *testing.T) {
	if got := Filter("Subscribe now", []string{"Subscribe now"}); got != "" {
		t.Fatalf("expected empty result, got %q", got)
	}
}

func TestLoadPhrases_ReadsLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "phrases.txt")
	content := "Subscribe now\n\n  t.me/channel  \n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	phrases := LoadPhrases(path, testLogger())
	if len(phrases) != 2 {
		t.Fatalf("expected 2 phrases, got %d: %v", len(phrases), phrases)
	}
	if phrases[0] != "Subscribe now" || phrases[1] != "t.me/channel" {
		t.Fatalf("unexpected phrases: %v", phrases)
	}
}

func TestLoadPhrases_MissingFileReturnsEmpty(t *testing.T) {
	phrases := LoadPhrases(filepath.Join(t.TempDir(), "nope.txt"), testLogger())
	if phrases != nil {
		t.Fatalf("expected nil for missing file, got %v", phrases)
	}
}
