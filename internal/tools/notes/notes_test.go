package notes

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	store, err := NewStore(dir)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return store
}

func TestWrite_RequiresFields(t *testing.T) {
	store := newTestStore(t)
	_, err := store.Write(context.Background(), WriteInput{Type: TypeFinding})
	if err == nil {
		t.Fatal("expected error for missing topic/summary/content")
	}
}

func TestWrite_RejectsInvalidType(t *testing.T) {
	store := newTestStore(t)
	_, err := store.Write(context.Background(), WriteInput{
		Type: "not-a-type", Topic: "t", Summary: "s", Content: "c",
	})
	if err == nil {
		t.Fatal("expected error for invalid type")
	}
}

func TestWriteAndRead_RoundTrips(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	written, err := store.Write(ctx, WriteInput{
		Type:    TypeFinding,
		Topic:   "base rate",
		Summary: "historical frequency is 15%",
		Content: "full analysis here",
	})
	if err != nil {
		t.Fatalf("Write: %v", err)
	}

	read, err := store.Read(ctx, written.ID)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if read.Topic != "base rate" {
		t.Errorf("expected topic to round-trip, got %q", read.Topic)
	}
}

func TestList_FiltersByTypeAndQuestionID(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	qid := int64(42)

	_, _ = store.Write(ctx, WriteInput{Type: TypeFinding, Topic: "a", Summary: "a", Content: "a", QuestionID: &qid})
	_, _ = store.Write(ctx, WriteInput{Type: TypeEstimate, Topic: "b", Summary: "b", Content: "b"})

	results, err := store.List(ctx, ListFilter{TypeFilter: TypeFinding})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].Topic != "a" {
		t.Errorf("expected topic 'a', got %q", results[0].Topic)
	}
}

func TestSearch_RanksByMatchCount(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, _ = store.Write(ctx, WriteInput{Type: TypeFinding, Topic: "alpha", Summary: "alpha alpha alpha", Content: "c"})
	_, _ = store.Write(ctx, WriteInput{Type: TypeFinding, Topic: "beta", Summary: "alpha once", Content: "c"})

	results, err := store.Search(ctx, "alpha", "")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(results))
	}
	if results[0].Topic != "alpha" {
		t.Errorf("expected highest match count first, got %q", results[0].Topic)
	}
}

func TestWriteMeta_IsNotReadable(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	path, err := store.WriteMeta(ctx, "41906_20260202_002119", "# Meta-Reflection\n\nfindings...")
	if err != nil {
		t.Fatalf("WriteMeta: %v", err)
	}
	if filepath.Base(path) != "meta.md" {
		t.Errorf("expected meta.md, got %q", path)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("expected file to exist: %v", err)
	}

	// Store exposes no Read-style method for meta content; only List/Read
	// operate on structured notes. This documents the write-only contract.
	if _, err := store.Read(ctx, "41906_20260202_002119"); err == nil {
		t.Error("expected no way to read back a meta-reflection via Read")
	}
}

func TestWriteMeta_RejectsEmptyContent(t *testing.T) {
	store := newTestStore(t)
	if _, err := store.WriteMeta(context.Background(), "41906_ts", "   "); err == nil {
		t.Error("expected error for blank content")
	}
}

func TestWriteReport_CreatesQuestionScopedFile(t *testing.T) {
	store := newTestStore(t)
	path, err := store.WriteReport(context.Background(), 41906, "NYC Funding Analysis", "# Report\n\nbody")
	if err != nil {
		t.Fatalf("WriteReport: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("expected report file to exist: %v", err)
	}
}

func TestParseSessionID(t *testing.T) {
	cases := []struct {
		in       string
		post, ts string
	}{
		{"41906_20260202_002119", "41906", "20260202_002119"},
		{"sub_20260202_002119", "0", "20260202_002119"},
		{"malformed", "malformed", "unknown"},
	}
	for _, c := range cases {
		post, ts := parseSessionID(c.in)
		if post != c.post || ts != c.ts {
			t.Errorf("parseSessionID(%q) = (%q, %q), want (%q, %q)", c.in, post, ts, c.post, c.ts)
		}
	}
}
