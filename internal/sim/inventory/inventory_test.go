package inventory

import (
	"errors"
	"reflect"
	"testing"

	"github.com/ThirdShiftStudios/FusionMMO-sub000/internal/protocol"
	"github.com/ThirdShiftStudios/FusionMMO-sub000/internal/sim/items"
)

func TestAssignHotbarScenarioC(t *testing.T) {
	f := newAuthority()
	inv := f.inv
	hash := items.DeriveHash(1, 1, 1, defStaff)
	inv.store.General[3] = items.Slot(defStaff, 1, hash)

	if st := inv.AssignHotbar(3, 0); st != StatusOK {
		t.Fatalf("expected OK, got %s", st)
	}
	if !inv.store.General[3].IsEmpty() {
		t.Fatalf("expected general slot 3 empty, got %v", inv.store.General[3])
	}
	if got := inv.store.Hotbar[1]; got != items.Slot(defStaff, 1, hash) {
		t.Fatalf("expected hotbar slot 1 = staff, got %v", got)
	}
	id := inv.WeaponEntity(1)
	if id == "" {
		t.Fatalf("expected weapon entity for hotbar slot 1")
	}
	if f.spawner.alive[id] != items.Slot(defStaff, 1, hash) {
		t.Fatalf("expected entity spawned from the staff, got %v", f.spawner.alive[id])
	}
}

func TestAssignHotbarRollsBackOnSpawnFailure(t *testing.T) {
	f := newAuthority()
	inv := f.inv
	inv.store.General[0] = items.Slot(defStaff, 1, items.ConfigHash{})
	before := inv.store
	f.spawner.fail = true
	if st := inv.AssignHotbar(0, 0); st != StatusSpawnFailed {
		t.Fatalf("expected spawn failure, got %s", st)
	}
	if inv.store != before {
		t.Fatalf("expected store rolled back")
	}
	if inv.WeaponEntity(1) != "" {
		t.Fatalf("expected no entity bound")
	}
}

func TestAssignHotbarDisplacesWeaponIntoVacatedSlot(t *testing.T) {
	f := newAuthority()
	inv := f.inv
	inv.store.General[0] = items.Slot(defStaff, 1, items.ConfigHash{})
	inv.store.General[1] = items.Slot(defSword, 1, items.ConfigHash{})
	inv.AssignHotbar(0, 0)
	first := inv.WeaponEntity(1)
	if st := inv.AssignHotbar(1, 0); st != StatusOK {
		t.Fatalf("expected OK, got %s", st)
	}
	if inv.store.Hotbar[1].DefinitionID != defSword || inv.store.General[1].DefinitionID != defStaff {
		t.Fatalf("expected sword equipped and staff back in slot 1, got %v %v", inv.store.Hotbar[1], inv.store.General[1])
	}
	if _, alive := f.spawner.alive[first]; alive {
		t.Fatalf("expected displaced weapon entity despawned")
	}
}

func TestAssignHotbarRejectsNonWeapon(t *testing.T) {
	f := newAuthority()
	f.inv.store.General[0] = items.Slot(defWood, 3, items.ConfigHash{})
	if st := f.inv.AssignHotbar(0, 0); st != StatusCategoryMismatch {
		t.Fatalf("expected category mismatch, got %s", st)
	}
	if st := f.inv.AssignHotbar(0, HotbarSlots-1); st != StatusInvalidIndex {
		t.Fatalf("expected invalid hotbar index, got %s", st)
	}
}

func TestStoreHotbarWithoutSpaceKeepsWeapon(t *testing.T) {
	f := newAuthority()
	inv := f.inv
	inv.store.General[0] = items.Slot(defStaff, 1, items.ConfigHash{})
	inv.AssignHotbar(0, 0)
	for i := 0; i < inv.store.Capacity; i++ {
		inv.store.General[i] = items.Slot(defWood, 20, items.ConfigHash{byte(i + 1)})
	}
	id := inv.WeaponEntity(1)
	if st := inv.StoreHotbar(1); st != StatusNoSpace {
		t.Fatalf("expected no space, got %s", st)
	}
	if inv.WeaponEntity(1) != id || inv.store.Hotbar[1].DefinitionID != defStaff {
		t.Fatalf("expected weapon to stay equipped")
	}
	inv.store.General[4] = items.ItemSlot{}
	if st := inv.StoreHotbar(1); st != StatusOK {
		t.Fatalf("expected store OK, got %s", st)
	}
	if inv.store.General[4].DefinitionID != defStaff || inv.WeaponEntity(1) != "" {
		t.Fatalf("expected staff back in general slot 4, got %v", inv.store.General[4])
	}
	if _, alive := f.spawner.alive[id]; alive {
		t.Fatalf("expected entity despawned")
	}
}

func TestMoveItemThroughHotbar(t *testing.T) {
	f := newAuthority()
	inv := f.inv
	inv.store.General[2] = items.Slot(defSword, 1, items.ConfigHash{})
	if st := inv.MoveItem(2, HotbarIndex(3)); st != StatusOK {
		t.Fatalf("expected move into hotbar, got %s", st)
	}
	if inv.WeaponEntity(3) == "" {
		t.Fatalf("expected entity for hotbar slot 3")
	}
	inv.SelectHotbar(3)
	if st := inv.MoveItem(HotbarIndex(3), 7); st != StatusOK {
		t.Fatalf("expected move out of hotbar, got %s", st)
	}
	if inv.store.General[7].DefinitionID != defSword || inv.WeaponEntity(3) != "" || inv.CurrentHotbar() != UnarmedSlot {
		t.Fatalf("expected sword in slot 7 and unarmed, got %v current=%d", inv.store.General[7], inv.CurrentHotbar())
	}
	if len(f.spawner.alive) != 0 {
		t.Fatalf("expected no live entities, got %d", len(f.spawner.alive))
	}
}

func TestSwapHotbarKeepsArmedWeapon(t *testing.T) {
	f := newAuthority()
	inv := f.inv
	inv.store.General[0] = items.Slot(defStaff, 1, items.ConfigHash{})
	inv.AssignHotbar(0, 0)
	inv.SelectHotbar(1)
	if st := inv.SwapHotbar(1, 4); st != StatusOK {
		t.Fatalf("swap: %s", st)
	}
	if inv.CurrentHotbar() != 4 || inv.store.Hotbar[4].DefinitionID != defStaff || inv.WeaponEntity(4) == "" {
		t.Fatalf("expected staff armed in slot 4, got current=%d", inv.CurrentHotbar())
	}
}

func TestSwapHotbarWhileToolRaisedFollowsWeapon(t *testing.T) {
	f := newAuthority()
	inv := f.inv
	inv.store.General[0] = items.Slot(defStaff, 1, items.ConfigHash{})
	inv.store.General[1] = items.Slot(defSword, 1, items.ConfigHash{})
	inv.MoveItem(0, HotbarIndex(2))
	inv.MoveItem(1, HotbarIndex(3))
	inv.SelectHotbar(2)
	inv.AddItem(defPickaxe, 1, items.ConfigHash{})
	inv.Tick(1)

	if st := inv.BeginToolUse(items.CategoryPickaxe); st != StatusOK {
		t.Fatalf("begin: %s", st)
	}
	if st := inv.SwapHotbar(2, 3); st != StatusOK {
		t.Fatalf("swap: %s", st)
	}
	if tool, _ := inv.Tool(items.CategoryPickaxe); tool.RestoreSlot != 3 {
		t.Fatalf("expected restore slot to follow the staff to 3, got %d", tool.RestoreSlot)
	}
	inv.EndToolUse(items.CategoryPickaxe)
	if inv.CurrentHotbar() != 3 || inv.store.Hotbar[3].DefinitionID != defStaff {
		t.Fatalf("expected staff re-armed in slot 3, got current=%d", inv.CurrentHotbar())
	}
}

func TestDropHotbarCreatesPickup(t *testing.T) {
	f := newAuthority()
	inv := f.inv
	inv.store.General[0] = items.Slot(defStaff, 1, items.ConfigHash{})
	inv.AssignHotbar(0, 0)
	if st := inv.DropHotbar(1); st != StatusOK {
		t.Fatalf("drop: %s", st)
	}
	if f.dropper.total(defStaff, items.ConfigHash{}) != 1 || len(f.spawner.alive) != 0 {
		t.Fatalf("expected staff dropped and entity gone")
	}
}

func TestToolUseScenarioD(t *testing.T) {
	f := newAuthority()
	inv := f.inv
	inv.store.General[0] = items.Slot(defStaff, 1, items.ConfigHash{})
	inv.MoveItem(0, HotbarIndex(2))
	inv.SelectHotbar(2)
	inv.AddItem(defPickaxe, 1, items.ConfigHash{})
	inv.Tick(1)

	if st := inv.BeginToolUse(items.CategoryPickaxe); st != StatusOK {
		t.Fatalf("begin: %s", st)
	}
	if inv.CurrentHotbar() != UnarmedSlot {
		t.Fatalf("expected unarmed while pickaxe raised")
	}
	if !exclusive(inv) {
		t.Fatalf("expected mutual exclusion")
	}
	if st := inv.EndToolUse(items.CategoryPickaxe); st != StatusOK {
		t.Fatalf("end: %s", st)
	}
	if inv.CurrentHotbar() != 2 {
		t.Fatalf("expected hotbar slot 2 restored, got %d", inv.CurrentHotbar())
	}
	if tool, _ := inv.Tool(items.CategoryPickaxe); tool.Equipped {
		t.Fatalf("expected pickaxe lowered")
	}
}

func TestBeginToolUseIsReentrant(t *testing.T) {
	f := newAuthority()
	inv := f.inv
	inv.store.General[0] = items.Slot(defStaff, 1, items.ConfigHash{})
	inv.MoveItem(0, HotbarIndex(5))
	inv.SelectHotbar(5)
	inv.AddItem(defPickaxe, 1, items.ConfigHash{})
	inv.Tick(1)
	inv.BeginToolUse(items.CategoryPickaxe)
	inv.BeginToolUse(items.CategoryPickaxe)
	inv.EndToolUse(items.CategoryPickaxe)
	if inv.CurrentHotbar() != 5 {
		t.Fatalf("expected first recorded slot kept, got %d", inv.CurrentHotbar())
	}
}

func TestSwitchingToolsPassesThroughIdle(t *testing.T) {
	f := newAuthority()
	inv := f.inv
	inv.store.General[0] = items.Slot(defStaff, 1, items.ConfigHash{})
	inv.MoveItem(0, HotbarIndex(3))
	inv.SelectHotbar(3)
	inv.AddItem(defPickaxe, 1, items.ConfigHash{})
	inv.AddItem(defWoodAxe, 1, items.ConfigHash{})
	inv.Tick(1)

	inv.BeginToolUse(items.CategoryPickaxe)
	if st := inv.BeginToolUse(items.CategoryWoodAxe); st != StatusOK {
		t.Fatalf("begin axe: %s", st)
	}
	if p, _ := inv.Tool(items.CategoryPickaxe); p.Equipped {
		t.Fatalf("expected pickaxe lowered when axe raised")
	}
	if !exclusive(inv) || inv.ActiveTool() != items.CategoryWoodAxe {
		t.Fatalf("expected only the axe active")
	}
	inv.EndToolUse(items.CategoryWoodAxe)
	if inv.CurrentHotbar() != 3 {
		t.Fatalf("expected original slot restored, got %d", inv.CurrentHotbar())
	}

	// Arming a weapon lowers the tool without restoring.
	inv.BeginToolUse(items.CategoryPickaxe)
	inv.SelectHotbar(3)
	if p, _ := inv.Tool(items.CategoryPickaxe); p.Equipped || !inv.WeaponArmed() || !exclusive(inv) {
		t.Fatalf("expected weapon armed and pickaxe lowered")
	}
}

func TestMutualExclusionUnderRandomOps(t *testing.T) {
	f := newAuthority()
	inv := f.inv
	inv.store.General[0] = items.Slot(defStaff, 1, items.ConfigHash{})
	inv.store.General[1] = items.Slot(defSword, 1, items.ConfigHash{})
	inv.AssignHotbar(0, 0)
	inv.AssignHotbar(1, 1)
	inv.AddItem(defPickaxe, 1, items.ConfigHash{})
	inv.AddItem(defWoodAxe, 1, items.ConfigHash{})
	inv.AddItem(defPole, 1, items.ConfigHash{})
	ops := []func(){
		func() { inv.SelectHotbar(1) },
		func() { inv.SelectHotbar(2) },
		func() { inv.SelectHotbar(0) },
		func() { inv.BeginToolUse(items.CategoryPickaxe) },
		func() { inv.BeginToolUse(items.CategoryWoodAxe) },
		func() { inv.EndToolUse(items.CategoryPickaxe) },
		func() { inv.EndToolUse(items.CategoryWoodAxe) },
		func() { inv.ToggleFishingPole() },
		func() { inv.SwapHotbar(1, 2) },
		func() { inv.MoveItem(SpecialIndex(items.CategoryPickaxe), 10) },
		func() { inv.MoveItem(10, SpecialIndex(items.CategoryPickaxe)) },
	}
	for step := 0; step < 500; step++ {
		ops[(step*7+step/3)%len(ops)]()
		inv.Tick(uint64(step))
		if !exclusive(inv) {
			t.Fatalf("step %d: more than one of weapon/tools active", step)
		}
	}
}

func TestToolReconciliation(t *testing.T) {
	f := newAuthority()
	inv := f.inv
	inv.AddItem(defPickaxe, 1, items.ConfigHash{})
	inv.Tick(1)
	tool, _ := inv.Tool(items.CategoryPickaxe)
	if tool.Entity == "" || tool.Backing != SpecialIndex(items.CategoryPickaxe) {
		t.Fatalf("expected pickaxe entity backed by the special slot, got %+v", tool)
	}
	inv.BeginToolUse(items.CategoryPickaxe)
	if st := inv.DropInventoryItem(tool.Backing); st != StatusProtected {
		t.Fatalf("expected protected tool slot, got %s", st)
	}
	if inv.RemoveItem(tool.Backing, 1) {
		t.Fatalf("expected remove of tool in use to fail")
	}

	// Moving the item away invalidates the tool; the next tick heals it.
	if st := inv.MoveItem(tool.Backing, 4); st != StatusOK {
		t.Fatalf("move: %s", st)
	}
	inv.Tick(2)
	moved, _ := inv.Tool(items.CategoryPickaxe)
	if moved.Equipped {
		t.Fatalf("expected equipped flag cleared")
	}
	if moved.Entity == "" || moved.Entity == tool.Entity || moved.Backing != 4 {
		t.Fatalf("expected tool recreated from slot 4, got %+v", moved)
	}
	if _, alive := f.spawner.alive[tool.Entity]; alive {
		t.Fatalf("expected old tool entity despawned")
	}

	inv.DropInventoryItem(4)
	inv.Tick(3)
	if gone, _ := inv.Tool(items.CategoryPickaxe); gone.Entity != "" {
		t.Fatalf("expected tool despawned after drop")
	}
}

func TestToolSpeedFollowsVariance(t *testing.T) {
	f := newAuthority()
	inv := f.inv
	inv.AddItem(defPickaxe, 1, items.ConfigHash{})
	inv.Tick(1)
	if inv.ToolSpeed(items.CategoryPickaxe) != 0 {
		t.Fatalf("expected no bonus while lowered")
	}
	inv.BeginToolUse(items.CategoryPickaxe)
	if got := inv.ToolSpeed(items.CategoryPickaxe); got != 0.5 {
		t.Fatalf("expected tool speed 0.5, got %f", got)
	}
}

func TestCapacityShrinkNeverDeletes(t *testing.T) {
	f := newAuthority()
	inv := f.inv
	inv.AddItem(defBackpack, 1, items.ConfigHash{})
	if inv.Capacity() != BaseGeneralSlots+10 {
		t.Fatalf("expected capacity %d, got %d", BaseGeneralSlots+10, inv.Capacity())
	}
	for i := 0; i < inv.Capacity(); i++ {
		inv.store.General[i] = items.Slot(defWood, 1, items.ConfigHash{byte(i + 1)})
	}
	if st := inv.DropInventoryItem(BagIndex(0)); st != StatusOK {
		t.Fatalf("drop bag: %s", st)
	}
	if inv.Capacity() != BaseGeneralSlots {
		t.Fatalf("expected base capacity, got %d", inv.Capacity())
	}
	for i := 0; i < BaseGeneralSlots+10; i++ {
		h := items.ConfigHash{byte(i + 1)}
		if inv.store.Total(defWood, h)+f.dropper.total(defWood, h) != 1 {
			t.Fatalf("expected wood #%d kept or dropped", i)
		}
	}
	if f.dropper.total(defBackpack, items.ConfigHash{}) != 1 {
		t.Fatalf("expected backpack dropped")
	}
}

func TestMovingBagOutEvictsIntoFreeSlots(t *testing.T) {
	f := newAuthority()
	inv := f.inv
	inv.AddItem(defPouch, 1, items.ConfigHash{})
	inv.store.General[22] = items.Slot(defFish, 3, items.ConfigHash{})
	if st := inv.MoveItem(BagIndex(0), 0); st != StatusOK {
		t.Fatalf("move bag: %s", st)
	}
	if inv.store.Total(defFish, items.ConfigHash{}) != 3 || len(f.dropper.dropped) != 0 {
		t.Fatalf("expected fish relocated inside inventory")
	}
	if !inv.store.General[22].IsEmpty() {
		t.Fatalf("expected nothing beyond capacity")
	}
}

func TestEquipMount(t *testing.T) {
	f := newAuthority()
	inv := f.inv
	inv.store.General[5] = items.Slot(defPony, 1, items.ConfigHash{})
	if st := inv.EquipMount(defPony); st != StatusOK {
		t.Fatalf("equip: %s", st)
	}
	mount, _ := inv.Slot(SpecialIndex(items.CategoryMount))
	if mount.DefinitionID != defPony || !inv.store.General[5].IsEmpty() {
		t.Fatalf("expected pony in mount slot, got %v", mount)
	}
	if st := inv.EquipMount(defWood); st != StatusCategoryMismatch {
		t.Fatalf("expected category mismatch, got %s", st)
	}
	if st := inv.EquipMount(0); st != StatusOK {
		t.Fatalf("unequip: %s", st)
	}
	if inv.store.General[0].DefinitionID != defPony {
		t.Fatalf("expected pony in first free slot, got %v", inv.store.General[0])
	}
}

func TestProxyForwardsRequests(t *testing.T) {
	sender := &fakeSender{}
	inv := newProxy(sender)
	rem, st := inv.AddItem(defWood, 4, items.ConfigHash{})
	if st != StatusPending || rem != 4 {
		t.Fatalf("expected pending with full remainder, got %s %d", st, rem)
	}
	if !inv.store.General[0].IsEmpty() {
		t.Fatalf("expected proxy store untouched")
	}
	if len(sender.sent) != 1 || sender.sent[0].Type != protocol.CmdAddItem || sender.sent[0].CharacterID != "C1" || sender.sent[0].ID == "" {
		t.Fatalf("unexpected command %+v", sender.sent)
	}
	if inv.AddGold(5) || inv.RemoveItem(0, 1) {
		t.Fatalf("expected direct mutators to no-op on a proxy")
	}
	if st := inv.BeginToolUse(items.CategoryPickaxe); st != StatusNotAuthority {
		t.Fatalf("expected not authority, got %s", st)
	}

	orphan := newProxy(nil)
	if _, st := orphan.AddItem(defWood, 1, items.ConfigHash{}); st != StatusNotAuthority {
		t.Fatalf("expected not authority without a sender, got %s", st)
	}
	failing := newProxy(&fakeSender{err: errors.New("closed")})
	if st := failing.MoveItem(0, 1); st != StatusNotAuthority {
		t.Fatalf("expected send failure reported, got %s", st)
	}
}

func TestAuthorityAppliesProxyCommands(t *testing.T) {
	sender := &fakeSender{}
	proxy := newProxy(sender)
	proxy.AddItem(defWood, 4, items.ConfigHash{})
	proxy.MoveItem(0, 6)

	f := newAuthority()
	for _, cmd := range sender.sent {
		if !Handles(cmd.Type) {
			t.Fatalf("expected %s handled", cmd.Type)
		}
		if res := f.inv.Apply(cmd); res.Status != StatusOK {
			t.Fatalf("%s: %s", cmd.Type, res.Status)
		}
	}
	if f.inv.store.General[6] != items.Slot(defWood, 4, items.ConfigHash{}) {
		t.Fatalf("expected wood in slot 6, got %v", f.inv.store.General[6])
	}

	proxy.ApplyState(f.inv.State())
	if proxy.store.General[6] != f.inv.store.General[6] {
		t.Fatalf("expected proxy mirror to match authority")
	}
}

func TestObserveFiresOncePerChange(t *testing.T) {
	f := newAuthority()
	inv := f.inv
	var slots []int
	gold := 0
	inv.SetHooks(Hooks{
		SlotChanged: func(index int, prev, next items.ItemSlot) { slots = append(slots, index) },
		GoldChanged: func(prev, next int) { gold++ },
	})
	if n := inv.Observe(); n != 0 {
		t.Fatalf("expected no events for a fresh inventory, got %d", n)
	}
	inv.AddItem(defWood, 3, items.ConfigHash{})
	inv.AddItem(defCap, 1, items.ConfigHash{})
	inv.AddGold(10)
	inv.Observe()
	if !reflect.DeepEqual(slots, []int{0, SpecialIndex(items.CategoryHead)}) || gold != 1 {
		t.Fatalf("unexpected events slots=%v gold=%d", slots, gold)
	}
	if n := inv.Observe(); n != 0 {
		t.Fatalf("expected no repeat events, got %d", n)
	}
}

func TestAddItemSpreadsLargeQuantities(t *testing.T) {
	f := newAuthority()
	inv := f.inv
	rem, st := inv.AddItem(defWood, 300, items.ConfigHash{})
	if rem != 0 || st != StatusOK {
		t.Fatalf("expected 300 wood placed, got rem=%d st=%s", rem, st)
	}
	store := inv.Store()
	if n := store.CountOf(defWood); n != 300 {
		t.Fatalf("expected 300 wood, got %d", n)
	}
	if !inv.store.General[14].Stacks(items.Slot(defWood, 1, items.ConfigHash{})) || !inv.store.General[15].IsEmpty() {
		t.Fatalf("expected 15 full stacks, got %v", inv.store.General)
	}
}

func TestGiveOrDropConservesOverflow(t *testing.T) {
	f := newAuthority()
	inv := f.inv
	placed := inv.GiveOrDrop(defWood, 500, items.ConfigHash{})
	if placed != 400 {
		t.Fatalf("expected 400 placed in 20 slots, got %d", placed)
	}
	if n := f.dropper.total(defWood, items.ConfigHash{}); n != 100 {
		t.Fatalf("expected 100 wood dropped, got %d", n)
	}
	for _, it := range f.dropper.dropped {
		if int(it.Quantity) > 20 {
			t.Fatalf("expected pickups no larger than a stack, got %v", it)
		}
	}
}
