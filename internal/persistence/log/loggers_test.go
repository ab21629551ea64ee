package log

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/ThirdShiftStudios/FusionMMO-sub000/internal/protocol"
	"github.com/ThirdShiftStudios/FusionMMO-sub000/internal/sim/items"
	"github.com/ThirdShiftStudios/FusionMMO-sub000/internal/sim/world"
)

func TestTickLogRoundTripAcrossSegments(t *testing.T) {
	dir := t.TempDir()
	l := NewTickLogger(dir)
	l.segmentTicks = 10

	for tick := uint64(0); tick < 25; tick++ {
		e := world.TickLogEntry{Tick: tick, Digest: "d"}
		if tick == 3 {
			e.Commands = []world.RecordedCommand{{
				SessionID: "S1",
				Cmd:       protocol.Command{ID: "c1", Type: protocol.CmdAddItem, DefinitionID: 1, Quantity: 2},
			}}
		}
		if err := l.WriteTick(e); err != nil {
			t.Fatalf("write tick %d: %v", tick, err)
		}
	}
	if err := l.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	files, err := ListFiles(filepath.Join(dir, "ticks"), "ticks")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(files) != 3 {
		t.Fatalf("expected 3 segments, got %d", len(files))
	}

	var got []uint64
	err = EachTick(filepath.Join(dir, "ticks"), func(e world.TickLogEntry) (bool, error) {
		got = append(got, e.Tick)
		if e.Tick == 3 && (len(e.Commands) != 1 || e.Commands[0].Cmd.Quantity != 2) {
			t.Fatalf("expected recorded command at tick 3, got %+v", e.Commands)
		}
		return true, nil
	})
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(got) != 25 {
		t.Fatalf("expected 25 entries, got %d", len(got))
	}
	for i, tick := range got {
		if tick != uint64(i) {
			t.Fatalf("expected tick order, got %v", got)
		}
	}
}

func TestEachTickStopsEarly(t *testing.T) {
	dir := t.TempDir()
	l := NewTickLogger(dir)
	for tick := uint64(0); tick < 5; tick++ {
		if err := l.WriteTick(world.TickLogEntry{Tick: tick}); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	_ = l.Close()

	n := 0
	err := EachTick(filepath.Join(dir, "ticks"), func(e world.TickLogEntry) (bool, error) {
		n++
		return e.Tick < 2, nil
	})
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if n != 3 {
		t.Fatalf("expected 3 entries before stop, got %d", n)
	}
}

func TestAuditLogReopenAppends(t *testing.T) {
	dir := t.TempDir()
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	for i := 0; i < 2; i++ {
		l := NewAuditLogger(dir)
		l.now = func() time.Time { return at }
		err := l.WriteAudit(world.AuditEntry{
			Tick:   uint64(i),
			Actor:  "C1",
			Action: "SLOT",
			To:     items.ItemSlot{DefinitionID: 1, Quantity: 1},
		})
		if err != nil {
			t.Fatalf("write: %v", err)
		}
		_ = l.Close()
	}

	var ticks []uint64
	err := EachAudit(filepath.Join(dir, "audit"), func(e world.AuditEntry) error {
		ticks = append(ticks, e.Tick)
		return nil
	})
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(ticks) != 2 || ticks[0] != 0 || ticks[1] != 1 {
		t.Fatalf("expected both entries from the same hour file, got %v", ticks)
	}
}
