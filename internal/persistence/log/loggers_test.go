package log

import (
	"path/filepath"
	"testing"
	"time"

	"voxelworld.ai/internal/sim/world"
)

func TestEventLogger_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	l := NewEventLogger(dir)
	fixed := time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC)
	l.w.now = func() time.Time { return fixed }

	in := []world.Event{
		{RunID: "r", Frame: 1, Kind: world.EventBlockSet, Pos: [3]int{1, 128, -3}, From: 0xFFFF, To: 2, Reason: "place"},
		{RunID: "r", Frame: 1, Kind: world.EventPortalOn, Pos: [3]int{3, 132, 0}, Structure: "portal_frame", Cells: 6},
	}
	for _, e := range in {
		if err := l.WriteEvent(e); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	if err := l.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	path := filepath.Join(dir, "events", "events-2026-03-01-10.jsonl.zst")
	got, err := ReadEvents(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(got) != len(in) {
		t.Fatalf("events: got %d want %d", len(got), len(in))
	}
	for i := range in {
		if got[i] != in[i] {
			t.Fatalf("event %d: got %+v want %+v", i, got[i], in[i])
		}
	}
}

func TestJSONLZstdWriter_RotatesHourly(t *testing.T) {
	dir := t.TempDir()
	w := NewJSONLZstdWriter(dir, "events")
	now := time.Date(2026, 3, 1, 10, 59, 0, 0, time.UTC)
	w.now = func() time.Time { return now }

	if err := w.Write(world.Event{Kind: world.EventBlockSet}); err != nil {
		t.Fatalf("write: %v", err)
	}
	now = now.Add(2 * time.Minute)
	if err := w.Write(world.Event{Kind: world.EventBlockSet}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	files, err := filepath.Glob(filepath.Join(dir, "events-*.jsonl.zst"))
	if err != nil || len(files) != 2 {
		t.Fatalf("rotated files: %v %v", files, err)
	}
}

func TestJSONLZstdWriter_ReopenSameHourAppends(t *testing.T) {
	dir := t.TempDir()
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 2; i++ {
		l := NewEventLogger(dir)
		l.w.now = func() time.Time { return fixed }
		if err := l.WriteEvent(world.Event{Frame: uint64(i), Kind: world.EventChunkCorrupt}); err != nil {
			t.Fatalf("write: %v", err)
		}
		if err := l.Close(); err != nil {
			t.Fatalf("close: %v", err)
		}
	}
	got, err := ReadEvents(filepath.Join(dir, "events", "events-2026-03-01-12.jsonl.zst"))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(got) != 2 || got[0].Frame != 0 || got[1].Frame != 1 {
		t.Fatalf("events: %+v", got)
	}
}
