package archive_test

import (
	"context"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/termscribe/termscribe/internal/archive"
)

// testDSN returns the test database DSN from the environment, or skips the
// test if TERMSCRIBE_TEST_POSTGRES_DSN is not set.
func testDSN(t *testing.T) string {
	t.Helper()
	dsn := os.Getenv("TERMSCRIBE_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TERMSCRIBE_TEST_POSTGRES_DSN not set — skipping PostgreSQL integration tests")
	}
	return dsn
}

// newTestStore creates a fresh [archive.Store] with a clean transcripts table
// and registers cleanup to close it.
func newTestStore(t *testing.T) *archive.Store {
	t.Helper()
	dsn := testDSN(t)
	ctx := context.Background()

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("pool: %v", err)
	}
	t.Cleanup(pool.Close)
	if _, err := pool.Exec(ctx, "DROP TABLE IF EXISTS transcripts"); err != nil {
		t.Fatalf("drop table: %v", err)
	}

	store, err := archive.NewStore(ctx, dsn)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(store.Close)
	return store
}

func TestStore_SaveAndRecent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	recs := []*archive.Record{
		{
			SourceFile:    "standup.mp3",
			Engine:        "whisper",
			Language:      "ru",
			Contexts:      []string{"alpha"},
			RawText:       "шалайзер",
			CorrectedText: "initializer",
		},
		{
			SourceFile:    "planning.mp3",
			Engine:        "vosk",
			Contexts:      []string{"alpha", "beta"},
			RawText:       "конфиг",
			CorrectedText: "конфиг",
			Fallback:      true,
		},
	}
	for _, rec := range recs {
		if err := store.Save(ctx, rec); err != nil {
			t.Fatalf("Save(%s): %v", rec.SourceFile, err)
		}
		if rec.ID == 0 {
			t.Errorf("Save(%s) did not assign an ID", rec.SourceFile)
		}
		if rec.CreatedAt.IsZero() {
			t.Errorf("Save(%s) did not assign CreatedAt", rec.SourceFile)
		}
	}

	got, err := store.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len(Recent) = %d, want 2", len(got))
	}
	// Newest first.
	if got[0].SourceFile != "planning.mp3" {
		t.Errorf("Recent[0] = %q, want planning.mp3", got[0].SourceFile)
	}
	if !got[0].Fallback {
		t.Error("Recent[0].Fallback should be true")
	}
	if len(got[0].Contexts) != 2 || got[0].Contexts[0] != "alpha" {
		t.Errorf("Recent[0].Contexts = %v", got[0].Contexts)
	}
	if got[1].RawText != "шалайзер" || got[1].CorrectedText != "initializer" {
		t.Errorf("Recent[1] text = %q/%q", got[1].RawText, got[1].CorrectedText)
	}
}

func TestStore_RecentLimit(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		rec := &archive.Record{SourceFile: "f.mp3", Engine: "whisper", RawText: "a", CorrectedText: "a"}
		if err := store.Save(ctx, rec); err != nil {
			t.Fatalf("Save: %v", err)
		}
	}

	got, err := store.Recent(ctx, 3)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(got) != 3 {
		t.Errorf("len(Recent) = %d, want 3", len(got))
	}
}

func TestNewStore_BadDSN(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	if _, err := archive.NewStore(ctx, "not-a-dsn"); err == nil {
		t.Fatal("expected error for malformed DSN, got nil")
	}
}
