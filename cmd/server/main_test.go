package main

import (
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ThirdShiftStudios/FusionMMO-sub000/internal/sim/world"
)

func TestLatestSnapshotPicksHighestTick(t *testing.T) {
	dir := t.TempDir()
	snaps := filepath.Join(dir, "snapshots")
	if err := os.MkdirAll(snaps, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	for _, name := range []string{"600.snap.zst", "12000.snap.zst", "9000.snap.zst", "junk.snap.zst", "7.txt"} {
		if err := os.WriteFile(filepath.Join(snaps, name), nil, 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	if got := latestSnapshot(dir); filepath.Base(got) != "12000.snap.zst" {
		t.Fatalf("expected 12000.snap.zst, got %q", got)
	}
	if got := latestSnapshot(t.TempDir()); got != "" {
		t.Fatalf("expected no snapshot, got %q", got)
	}
}

func TestIsLoopbackRemote(t *testing.T) {
	cases := map[string]bool{
		"127.0.0.1:5000": true,
		"[::1]:80":       true,
		"10.0.0.3:80":    false,
		"garbage":        false,
	}
	for in, want := range cases {
		if got := isLoopbackRemote(in); got != want {
			t.Fatalf("isLoopbackRemote(%q)=%v want %v", in, got, want)
		}
	}
}

type fixedDropped uint64

func (f fixedDropped) Dropped() uint64 { return uint64(f) }

func TestWriteMetrics(t *testing.T) {
	rec := httptest.NewRecorder()
	writeMetrics(rec, "w1", 42, world.WorldMetrics{Characters: 3, Accepted: 7}, fixedDropped(2))
	body := rec.Body.String()
	for _, want := range []string{
		`fmmo_world_tick{world="w1"} 42`,
		`fmmo_world_characters{world="w1"} 3`,
		`fmmo_world_commands_total{world="w1",outcome="accepted"} 7`,
		`fmmo_index_dropped_total{world="w1"} 2`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected %q in metrics:\n%s", want, body)
		}
	}

	rec = httptest.NewRecorder()
	writeMetrics(rec, "w1", 0, world.WorldMetrics{}, nil)
	if strings.Contains(rec.Body.String(), "fmmo_index_dropped_total") {
		t.Fatalf("expected no index metrics without an index")
	}
}
