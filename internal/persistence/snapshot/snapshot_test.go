package snapshot

import (
	"path/filepath"
	"testing"

	"github.com/ThirdShiftStudios/FusionMMO-sub000/internal/sim/inventory"
	"github.com/ThirdShiftStudios/FusionMMO-sub000/internal/sim/items"
)

func TestWriteReadSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshots", "42.snap.zst")
	in := SnapshotV1{
		Header:   Header{Version: Version, WorldID: "w1", Tick: 42},
		Seed:     9,
		TickRate: 20,
		Characters: []CharacterV1{{
			ID:   "C1",
			Name: "alice",
			Pos:  [2]float64{1.5, -2},
			Save: inventory.SaveData{
				Version:     inventory.SaveVersion,
				CharacterID: "C1",
				Inventory:   []items.ItemSlot{{DefinitionID: 1, Quantity: 7}},
				Gold:        30,
			},
		}},
		Vendors: []VendorV1{{ID: "general_store", Stock: []items.ItemSlot{{DefinitionID: 5, Quantity: 4}}}},
		Nodes:   []NodeV1{{ID: "tree_1", State: "OCCUPIED", Progress: 1.25, AgentRef: "C1"}},
		Pickups: []PickupV1{{ID: "P000001", Item: items.ItemSlot{DefinitionID: 2, Quantity: 1}, LandsIn: 1}},
		Counters: CountersV1{NextCharacter: 1, NextPickup: 1, NextRoll: 3},
	}
	if err := WriteSnapshot(path, in); err != nil {
		t.Fatalf("write: %v", err)
	}

	h, err := ReadHeader(path)
	if err != nil {
		t.Fatalf("read header: %v", err)
	}
	if h != in.Header {
		t.Fatalf("expected header %+v, got %+v", in.Header, h)
	}

	out, err := ReadSnapshot(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(out.Characters) != 1 || out.Characters[0].Save.Gold != 30 || out.Characters[0].Pos != in.Characters[0].Pos {
		t.Fatalf("expected character round trip, got %+v", out.Characters)
	}
	if out.Nodes[0].AgentRef != "C1" || out.Nodes[0].Progress != 1.25 {
		t.Fatalf("expected node round trip, got %+v", out.Nodes[0])
	}
	if out.Pickups[0].LandsIn != 1 || out.Counters.NextRoll != 3 {
		t.Fatalf("expected pickups and counters, got %+v %+v", out.Pickups, out.Counters)
	}
}

func TestReadSnapshotRejectsVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "old.snap.zst")
	if err := WriteSnapshot(path, SnapshotV1{Header: Header{Version: 99}}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := ReadSnapshot(path); err == nil {
		t.Fatalf("expected version error")
	}
}
