package indexdb

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/ThirdShiftStudios/FusionMMO-sub000/internal/persistence/snapshot"
	"github.com/ThirdShiftStudios/FusionMMO-sub000/internal/protocol"
	"github.com/ThirdShiftStudios/FusionMMO-sub000/internal/sim/inventory"
	"github.com/ThirdShiftStudios/FusionMMO-sub000/internal/sim/items"
	"github.com/ThirdShiftStudios/FusionMMO-sub000/internal/sim/world"
)

func openTemp(t *testing.T) (*SQLiteIndex, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "index.db")
	idx, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	return idx, path
}

func TestSQLiteIndex_TicksAndCommands(t *testing.T) {
	idx, path := openTemp(t)
	_ = idx.WriteTick(world.TickLogEntry{
		Tick:   4,
		Joins:  []world.RecordedJoin{{SessionID: "S1", CharacterID: "C1", Name: "alice"}},
		Digest: "d4",
	})
	_ = idx.WriteTick(world.TickLogEntry{
		Tick: 5,
		Commands: []world.RecordedCommand{
			{SessionID: "S1", Cmd: protocol.Command{ID: "a", Type: protocol.CmdAddItem, CharacterID: "C1", DefinitionID: 1, Quantity: 3}},
			{SessionID: "S1", Cmd: protocol.Command{ID: "b", Type: protocol.CmdSelectHotbar, CharacterID: "C1", Hotbar: 2}},
		},
		Digest: "d5",
	})
	if err := idx.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	r, err := OpenReader(path)
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer r.Close()
	ctx := context.Background()

	tr, err := r.Ticks(ctx)
	if err != nil || tr.First != 4 || tr.Last != 5 || tr.Count != 2 {
		t.Fatalf("expected ticks 4..5, got %+v (%v)", tr, err)
	}
	if d, ok, _ := r.DigestAt(ctx, 5); !ok || d != "d5" {
		t.Fatalf("expected digest d5, got %q", d)
	}
	cmds, err := r.Commands(ctx, "C1", 10)
	if err != nil {
		t.Fatalf("Commands: %v", err)
	}
	if len(cmds) != 2 || cmds[0].Cmd.ID != "b" || cmds[1].Cmd.Quantity != 3 {
		t.Fatalf("expected newest first, got %+v", cmds)
	}
}

func TestSQLiteIndex_AuditSequence(t *testing.T) {
	idx, path := openTemp(t)
	for i := 0; i < 3; i++ {
		_ = idx.WriteAudit(world.AuditEntry{
			Tick:   9,
			Actor:  "C2",
			Action: "SLOT",
			Index:  i,
			To:     items.ItemSlot{DefinitionID: 5, Quantity: uint8(i + 1)},
		})
	}
	_ = idx.Close()

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	defer db.Close()
	var n, maxSeq, qty int
	if err := db.QueryRow(`SELECT COUNT(*), MAX(seq), MAX(to_qty) FROM audits WHERE actor='C2'`).Scan(&n, &maxSeq, &qty); err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if n != 3 || maxSeq != 2 || qty != 3 {
		t.Fatalf("row mismatch: n=%d seq=%d qty=%d", n, maxSeq, qty)
	}
}

func TestSQLiteIndex_SnapshotAndSaves(t *testing.T) {
	idx, path := openTemp(t)
	idx.RecordSnapshot("/w/snapshots/100.snap.zst", snapshot.SnapshotV1{
		Header:     snapshot.Header{Version: snapshot.Version, WorldID: "w", Tick: 100},
		Seed:       7,
		Characters: []snapshot.CharacterV1{{ID: "C1"}, {ID: "C2"}},
	})

	saves := map[string]inventory.SaveData{}
	rec := SaveRecorder{Store: mapStore(saves), Index: idx}
	if err := rec.Save(inventory.SaveData{
		Version:     inventory.SaveVersion,
		CharacterID: "C1",
		Inventory:   []items.ItemSlot{{DefinitionID: 1, Quantity: 4}},
		Gold:        12,
	}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := idx.Sync(context.Background()); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if _, ok := saves["C1"]; !ok {
		t.Fatalf("expected save passed through")
	}
	_ = idx.Close()

	r, err := OpenReader(path)
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer r.Close()
	snaps, err := r.Snapshots(context.Background())
	if err != nil || len(snaps) != 1 || snaps[0].Tick != 100 || snaps[0].Characters != 2 {
		t.Fatalf("expected one snapshot row, got %+v (%v)", snaps, err)
	}
	d, ok, err := r.Save(context.Background(), "C1")
	if err != nil || !ok || d.Gold != 12 {
		t.Fatalf("expected indexed save, got %+v ok=%v err=%v", d, ok, err)
	}
}

type mapStore map[string]inventory.SaveData

func (m mapStore) Load(id string) (inventory.SaveData, bool, error) {
	d, ok := m[id]
	return d, ok, nil
}

func (m mapStore) Save(d inventory.SaveData) error {
	m[d.CharacterID] = d
	return nil
}
