package archive

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "archive.db"), testLogger())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore_SaveAndRecent(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	for i, caption := range []string{"first", "second", "third"} {
		err := s.Save(ctx, Record{
			Channel:   "somechannel",
			Original:  "raw",
			Composed:  caption,
			CreatedAt: time.Now().Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("save: %v", err)
		}
	}

	recs, err := s.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("expected 2 records, got %d", len(recs))
	}
	if recs[0].Composed != "third" || recs[1].Composed != "second" {
		t.Fatalf("expected newest first, got %q, %q", recs[0].Composed, recs[1].Composed)
	}
	if recs[0].ID == "" {
		t.Fatal("expected a generated ID")
	}
}

func TestStore_RecentEmpty(t *testing.T) {
	s := testStore(t)
	recs, err := s.Recent(context.Background(), 10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(recs) != 0 {
		t.Fatalf("expected no records, got %d", len(recs))
	}
}

func TestStore_Prune(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	old := Record{Channel: "ch", Composed: "old", CreatedAt: time.Now().Add(-48 * time.Hour)}
	fresh := Record{Channel: "ch", Composed: "fresh", CreatedAt: time.Now()}
	if err := s.Save(ctx, old); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := s.Save(ctx, fresh); err != nil {
		t.Fatalf("save: %v", err)
	}

	n, err := s.Prune(ctx, 24*time.Hour)
	if err != nil {
		t.Fatalf("prune: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 pruned record, got %d", n)
	}

	recs, err := s.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(recs) != 1 || recs[0].Composed != "fresh" {
		t.Fatalf("expected only the fresh record, got %+v", recs)
	}
}
