package logbook

import (
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestTailReturnsRecentLinesAndTotal(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "journey.log")
	book, err := New(path)
	if err != nil {
		t.Fatalf("new logbook: %v", err)
	}
	for i := 0; i < 5; i++ {
		book.Info("entry-%d", i)
	}
	lines, total := book.Tail(3)
	if total != 5 {
		t.Fatalf("total lines = %d, want 5", total)
	}
	if len(lines) != 3 {
		t.Fatalf("len(lines) = %d, want 3", len(lines))
	}
	for idx, want := range []string{"entry-2", "entry-3", "entry-4"} {
		if !strings.Contains(lines[idx], want) {
			t.Fatalf("line %d = %q, missing %s", idx, lines[idx], want)
		}
	}
}

func TestAppendFoldsMessageAndStampsLevel(t *testing.T) {
	fixed := time.Date(2024, 2, 3, 4, 5, 6, 0, time.UTC)
	book, err := New(filepath.Join(t.TempDir(), "j.log"), WithClock(func() time.Time { return fixed }))
	if err != nil {
		t.Fatal(err)
	}
	book.Error("request failed:\n  %s", "boom")
	lines, _ := book.Tail(1)
	if len(lines) != 1 {
		t.Fatalf("expected one line, got %d", len(lines))
	}
	want := "2024-02-03T04:05:06Z ERROR request failed: boom"
	if lines[0] != want {
		t.Fatalf("line = %q, want %q", lines[0], want)
	}
}

func TestCompactionKeepsNewestEntries(t *testing.T) {
	book, err := New(filepath.Join(t.TempDir(), "j.log"), WithMaxBytes(400))
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 40; i++ {
		book.Info("entry-%02d", i)
	}
	lines, total := book.Tail(1000)
	if total >= 40 {
		t.Fatalf("expected compaction, still %d lines", total)
	}
	if !strings.Contains(lines[len(lines)-1], "entry-39") {
		t.Fatalf("newest entry lost: %q", lines[len(lines)-1])
	}
}

func TestNilLogbookIsSafe(t *testing.T) {
	var book *Logbook
	book.Info("ignored")
	if lines, total := book.Tail(3); lines != nil || total != 0 {
		t.Fatalf("nil logbook must tail nothing")
	}
}
