package inventory

import (
	"math/rand"
	"testing"

	"github.com/ThirdShiftStudios/FusionMMO-sub000/internal/sim/items"
)

func TestResolveRanges(t *testing.T) {
	cases := []struct {
		index int
		kind  SlotKind
		n     int
	}{
		{0, KindGeneral, 0},
		{MaxGeneralSlots - 1, KindGeneral, MaxGeneralSlots - 1},
		{HotbarIndex(1), KindHotbar, 1},
		{HotbarIndex(HotbarSlots - 1), KindHotbar, HotbarSlots - 1},
		{BagIndex(0), KindBag, 0},
		{BagIndex(BagSlots - 1), KindBag, BagSlots - 1},
		{SpecialIndex(items.CategoryPickaxe), KindSpecial, 0},
		{SpecialIndex(items.CategoryMount), KindSpecial, SpecialSlots - 1},
	}
	seen := map[int]bool{}
	for _, c := range cases {
		ref, ok := Resolve(c.index)
		if !ok || ref.Kind != c.kind || ref.N != c.n {
			t.Fatalf("index %d: expected %s/%d, got %+v ok=%v", c.index, c.kind, c.n, ref, ok)
		}
		if ref.Index() != c.index {
			t.Fatalf("index %d: round trip gave %d", c.index, ref.Index())
		}
		seen[c.index] = true
	}
	for _, bad := range []int{NoSlot, MaxGeneralSlots, HotbarIndex(0), HotbarIndex(HotbarSlots), BagIndex(BagSlots), SpecialIndex(items.CategoryWeapon)} {
		if _, ok := Resolve(bad); ok {
			t.Fatalf("expected index %d to be invalid", bad)
		}
	}
}

func TestStoreScenarioA(t *testing.T) {
	s := NewStore(testDefs())
	if rem := s.AddItem(defWood, 10, items.ConfigHash{}); rem != 0 {
		t.Fatalf("expected remainder 0, got %d", rem)
	}
	if got := s.General[0]; got != items.Slot(defWood, 10, items.ConfigHash{}) {
		t.Fatalf("expected slot 0 = wood x10, got %v", got)
	}
}

func TestStoreScenarioB(t *testing.T) {
	s := NewStore(testDefs())
	s.General[0] = items.Slot(defWood, 15, items.ConfigHash{})
	if rem := s.AddItem(defWood, 10, items.ConfigHash{}); rem != 0 {
		t.Fatalf("expected remainder 0, got %d", rem)
	}
	if s.General[0].Quantity != 20 || s.General[1] != items.Slot(defWood, 5, items.ConfigHash{}) {
		t.Fatalf("expected 20 + 5, got %v %v", s.General[0], s.General[1])
	}
}

func TestStoreFillsPartialStacksInAscendingOrder(t *testing.T) {
	s := NewStore(testDefs())
	s.General[2] = items.Slot(defWood, 18, items.ConfigHash{})
	s.General[5] = items.Slot(defWood, 18, items.ConfigHash{})
	s.AddItem(defWood, 3, items.ConfigHash{})
	if s.General[2].Quantity != 20 || s.General[5].Quantity != 19 || !s.General[0].IsEmpty() {
		t.Fatalf("expected ascending top-up, got %v %v %v", s.General[0], s.General[2], s.General[5])
	}
}

func TestStoreDifferentHashesNeverStack(t *testing.T) {
	s := NewStore(testDefs())
	s.AddItem(defWood, 5, items.ConfigHash{1})
	s.AddItem(defWood, 5, items.ConfigHash{2})
	if s.General[0].Quantity != 5 || s.General[1].Quantity != 5 {
		t.Fatalf("expected two stacks, got %v %v", s.General[0], s.General[1])
	}
}

func TestStoreSingletonRouting(t *testing.T) {
	s := NewStore(testDefs())
	if rem := s.AddItem(defPickaxe, 2, items.ConfigHash{}); rem != 0 {
		t.Fatalf("expected both pickaxes placed, got remainder %d", rem)
	}
	if s.Special[0].DefinitionID != defPickaxe || s.Special[0].Quantity != 1 {
		t.Fatalf("expected pickaxe in its slot, got %v", s.Special[0])
	}
	if s.General[0].DefinitionID != defPickaxe {
		t.Fatalf("expected second pickaxe in general, got %v", s.General[0])
	}

	s.AddItem(defPouch, 1, items.ConfigHash{})
	if s.Bags[0].DefinitionID != defPouch || s.Capacity != BaseGeneralSlots+5 {
		t.Fatalf("expected pouch in bag slot and capacity %d, got %v cap=%d", BaseGeneralSlots+5, s.Bags[0], s.Capacity)
	}
}

func TestStoreFullReturnsRemainder(t *testing.T) {
	s := NewStore(testDefs())
	for i := 0; i < s.Capacity; i++ {
		s.General[i] = items.Slot(defWood, 20, items.ConfigHash{byte(i + 1)})
	}
	if rem := s.AddItem(defWood, 7, items.ConfigHash{}); rem != 7 {
		t.Fatalf("expected full remainder, got %d", rem)
	}
	if rem := s.AddItem(999, 3, items.ConfigHash{}); rem != 3 {
		t.Fatalf("expected unknown item rejected, got %d", rem)
	}
}

func TestStoreMoveRejectsWrongCategory(t *testing.T) {
	s := NewStore(testDefs())
	s.General[0] = items.Slot(defWood, 3, items.ConfigHash{})
	s.General[1] = items.Slot(defCap, 1, items.ConfigHash{})
	head := SpecialIndex(items.CategoryHead)
	if st := s.Move(0, head); st != StatusCategoryMismatch {
		t.Fatalf("expected category mismatch, got %s", st)
	}
	if st := s.Move(1, head); st != StatusOK {
		t.Fatalf("expected cap to move to head slot, got %s", st)
	}
	// Swapping the cap back out onto wood must not put wood on the head.
	if st := s.Move(head, 0); st != StatusCategoryMismatch {
		t.Fatalf("expected swap into head rejected, got %s", st)
	}
}

func TestStoreMoveMergesThenSwaps(t *testing.T) {
	s := NewStore(testDefs())
	s.General[0] = items.Slot(defWood, 15, items.ConfigHash{})
	s.General[1] = items.Slot(defWood, 10, items.ConfigHash{})
	if st := s.Move(0, 1); st != StatusOK {
		t.Fatalf("move: %s", st)
	}
	if s.General[1].Quantity != 20 || s.General[0].Quantity != 5 {
		t.Fatalf("expected partial merge, got %v %v", s.General[0], s.General[1])
	}
	s.General[2] = items.Slot(defFish, 1, items.ConfigHash{})
	s.Move(0, 2)
	if s.General[0].DefinitionID != defFish || s.General[2].DefinitionID != defWood {
		t.Fatalf("expected swap, got %v %v", s.General[0], s.General[2])
	}
}

func TestStoreMoveConservesQuantities(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	s := NewStore(testDefs())
	s.AddItem(defPouch, 1, items.ConfigHash{})
	s.AddItem(defWood, 200, items.ConfigHash{})
	s.AddItem(defWood, 30, items.ConfigHash{9})
	s.AddItem(defCap, 2, items.ConfigHash{})
	want := map[items.ItemSlot]int{}
	s.Each(func(_ int, it items.ItemSlot) { want[it.WithQuantity(1)] += int(it.Quantity) })

	indices := []int{BagIndex(0), BagIndex(1), SpecialIndex(items.CategoryHead)}
	for i := 0; i < MaxGeneralSlots; i++ {
		indices = append(indices, i)
	}
	for step := 0; step < 2000; step++ {
		from := indices[rng.Intn(len(indices))]
		to := indices[rng.Intn(len(indices))]
		s.Move(from, to)
		for _, it := range s.RecalculateGeneralCapacity() {
			t.Fatalf("step %d: unexpected overflow %v", step, it)
		}
	}
	got := map[items.ItemSlot]int{}
	s.Each(func(_ int, it items.ItemSlot) { got[it.WithQuantity(1)] += int(it.Quantity) })
	for k, v := range want {
		if got[k] != v {
			t.Fatalf("expected %v total %d, got %d", k, v, got[k])
		}
	}
}

func TestStoreStackCapProperty(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for round := 0; round < 200; round++ {
		defs := items.DefinitionMap{}
		for id := 1; id <= 4; id++ {
			defs[id] = items.Definition{ID: id, Name: "x", MaxStack: 1 + rng.Intn(items.DefaultMaxStack)}
		}
		s := NewStore(defs)
		placed := map[int]int{}
		for op := 0; op < 40; op++ {
			id := 1 + rng.Intn(4)
			qty := 1 + rng.Intn(items.DefaultMaxStack)
			rem := s.AddItem(id, qty, items.ConfigHash{})
			if rem < 0 || rem > qty {
				t.Fatalf("round %d: remainder %d out of range for %d", round, rem, qty)
			}
			placed[id] += qty - rem
		}
		for i, it := range s.General {
			if it.IsEmpty() {
				continue
			}
			if int(it.Quantity) > defs[it.DefinitionID].StackLimit() {
				t.Fatalf("round %d: slot %d holds %d above max %d", round, i, it.Quantity, defs[it.DefinitionID].StackLimit())
			}
		}
		for id, n := range placed {
			if got := s.Total(id, items.ConfigHash{}); got != n {
				t.Fatalf("round %d: item %d expected %d placed, store has %d", round, id, n, got)
			}
		}
	}
}

func TestStoreCapacityShrinkRestacks(t *testing.T) {
	s := NewStore(testDefs())
	s.AddItem(defPouch, 1, items.ConfigHash{})
	for i := 0; i < BaseGeneralSlots; i++ {
		s.General[i] = items.Slot(defWood, 10, items.ConfigHash{})
	}
	for i := BaseGeneralSlots; i < s.Capacity; i++ {
		s.General[i] = items.Slot(defWood, 5, items.ConfigHash{})
	}
	s.Bags[0] = items.ItemSlot{}
	if overflow := s.RecalculateGeneralCapacity(); len(overflow) != 0 {
		t.Fatalf("expected everything to restack, got overflow %v", overflow)
	}
	if s.Capacity != BaseGeneralSlots {
		t.Fatalf("expected base capacity, got %d", s.Capacity)
	}
	if got := s.Total(defWood, items.ConfigHash{}); got != BaseGeneralSlots*10+5*5 {
		t.Fatalf("expected wood conserved, got %d", got)
	}
}
