package savedata

import (
	"errors"
	"testing"

	"github.com/ThirdShiftStudios/FusionMMO-sub000/internal/sim/inventory"
	"github.com/ThirdShiftStudios/FusionMMO-sub000/internal/sim/items"
	"github.com/ThirdShiftStudios/FusionMMO-sub000/internal/sim/replication"
)

func sampleSave() inventory.SaveData {
	inv := inventory.New(inventory.Config{
		CharacterID: "C7",
		Role:        replication.RoleAuthority,
		Defs:        items.DefinitionMap{1: {ID: 1, Name: "Wood", MaxStack: 20}},
	})
	inv.AddItem(1, 9, items.ConfigHash{})
	inv.AddGold(42)
	return inv.CreateSaveData()
}

func TestDirStoreRoundTrip(t *testing.T) {
	st := Store{Blobs: DirStore{Dir: t.TempDir()}}
	if _, ok, err := st.Load("C7"); ok || err != nil {
		t.Fatalf("expected no save yet, got ok=%v err=%v", ok, err)
	}

	want := sampleSave()
	if err := st.Save(want); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, ok, err := st.Load("C7")
	if err != nil || !ok {
		t.Fatalf("load: ok=%v err=%v", ok, err)
	}
	if got.Gold != 42 || got.Inventory[0].DefinitionID != 1 || got.Inventory[0].Quantity != 9 {
		t.Fatalf("expected saved wood and gold, got %+v", got)
	}

	keys, err := st.Blobs.(DirStore).Keys()
	if err != nil || len(keys) != 1 || keys[0] != "C7" {
		t.Fatalf("expected one key, got %v (%v)", keys, err)
	}
}

func TestDirStoreRejectsPathKeys(t *testing.T) {
	d := DirStore{Dir: t.TempDir()}
	for _, key := range []string{"", "..", "a/b", `a\b`} {
		if err := d.Put(key, []byte("x")); !errors.Is(err, ErrBadKey) {
			t.Fatalf("expected ErrBadKey for %q, got %v", key, err)
		}
	}
}

func TestDecodeRejectsGarbageAndVersion(t *testing.T) {
	if _, err := Decode([]byte("not zstd")); err == nil {
		t.Fatalf("expected garbage rejected")
	}
	s := sampleSave()
	s.Version = 99
	blob, err := Encode(s)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if _, err := Decode(blob); err == nil {
		t.Fatalf("expected version mismatch rejected")
	}
}

func TestMemoryStoreCopiesBlobs(t *testing.T) {
	m := NewMemoryStore()
	b := []byte{1, 2, 3}
	_ = m.Put("k", b)
	b[0] = 9
	got, ok, _ := m.Get("k")
	if !ok || got[0] != 1 {
		t.Fatalf("expected stored copy, got %v", got)
	}
	if m.Len() != 1 {
		t.Fatalf("expected one blob, got %d", m.Len())
	}
}
