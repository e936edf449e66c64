package journal

import (
	"path/filepath"
	"testing"
	"time"
)

func TestRecordAndRead(t *testing.T) {
	j := Open(filepath.Join(t.TempDir(), "relmap", "journal.jsonl"))

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	j.Record(Entry{Timestamp: base, Event: EventRebuild, Nodes: 3, Links: 2})
	j.Record(Entry{Timestamp: base.Add(time.Minute), Event: EventSearchMiss, Search: "Nonexistent"})
	j.Record(Entry{Timestamp: base.Add(2 * time.Minute), Event: EventCenterNotFound, Center: "Acme"})

	entries, err := j.Read(0)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	if entries[0].Event != EventCenterNotFound {
		t.Errorf("expected newest first, got %q", entries[0].Event)
	}

	last, _ := j.Read(1)
	if len(last) != 1 || last[0].Center != "Acme" {
		t.Errorf("unexpected Read(1): %+v", last)
	}
}

func TestRecordStampsTime(t *testing.T) {
	j := Open(filepath.Join(t.TempDir(), "journal.jsonl"))
	if err := j.Record(Entry{Event: EventReset}); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	entries, _ := j.Read(0)
	if len(entries) != 1 || entries[0].Timestamp.IsZero() {
		t.Errorf("expected stamped entry, got %+v", entries)
	}
}

func TestSearch(t *testing.T) {
	j := Open(filepath.Join(t.TempDir(), "journal.jsonl"))
	j.Record(Entry{Event: EventSearchMiss, Search: "Globex"})
	j.Record(Entry{Event: EventRebuild, Center: "acme corp"})
	j.Record(Entry{Event: EventRebuild, Details: "relation filter"})

	results, err := j.Search("ACME", 0)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) != 1 || results[0].Center != "acme corp" {
		t.Errorf("unexpected results: %+v", results)
	}

	results, _ = j.Search("rebuild", 1)
	if len(results) != 1 {
		t.Errorf("expected count limit of 1, got %d", len(results))
	}
}

func TestReadMissingAndClear(t *testing.T) {
	j := Open(filepath.Join(t.TempDir(), "journal.jsonl"))

	entries, err := j.Read(0)
	if err != nil || entries != nil {
		t.Fatalf("expected nil entries for missing file, got %v, %v", entries, err)
	}
	if err := j.Clear(); err != nil {
		t.Errorf("Clear on missing file should be no-op, got %v", err)
	}

	j.Record(Entry{Event: EventRebuild})
	if err := j.Clear(); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	entries, _ = j.Read(0)
	if len(entries) != 0 {
		t.Errorf("expected empty journal after Clear, got %d", len(entries))
	}
}

func TestDefaultPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	if got := DefaultPath(); got != "/tmp/xdg/relmap/journal.jsonl" {
		t.Errorf("unexpected path %q", got)
	}
}
