package inventory

import (
	"github.com/ThirdShiftStudios/FusionMMO-sub000/internal/protocol"
	"github.com/ThirdShiftStudios/FusionMMO-sub000/internal/sim/items"
)

// AssignHotbar binds one unit of the weapon at generalIndex to a hotbar
// slot. hotbarIndex counts storable slots from zero, so it feeds hotbar slot
// hotbarIndex+1; slot 0 stays unarmed.
func (inv *Inventory) AssignHotbar(generalIndex, hotbarIndex int) ItemStatus {
	if !inv.IsAuthority() {
		return inv.request(protocol.Command{
			Type: protocol.CmdAssignHotbar, Index: generalIndex, Hotbar: hotbarIndex,
		})
	}
	return inv.assignHotbarSlot(generalIndex, hotbarIndex+1)
}

// StoreHotbar returns the weapon in hotbar slot h to general inventory.
// Without room the weapon stays equipped.
func (inv *Inventory) StoreHotbar(h int) ItemStatus {
	if !inv.IsAuthority() {
		return inv.request(protocol.Command{Type: protocol.CmdStoreHotbar, Hotbar: h})
	}
	return inv.storeHotbar(h)
}

// SwapHotbar exchanges two hotbar slots together with their entities.
func (inv *Inventory) SwapHotbar(a, b int) ItemStatus {
	if !inv.IsAuthority() {
		return inv.request(protocol.Command{Type: protocol.CmdSwapHotbar, Hotbar: a, HotbarB: b})
	}
	return inv.swapHotbar(a, b)
}

// SelectHotbar makes h the current slot. Arming a weapon lowers any raised
// tool without restoring the remembered slot.
func (inv *Inventory) SelectHotbar(h int) ItemStatus {
	if !inv.IsAuthority() {
		return inv.request(protocol.Command{Type: protocol.CmdSelectHotbar, Hotbar: h})
	}
	return inv.selectHotbar(h)
}

// DropHotbar despawns the weapon in slot h and drops it into the world.
func (inv *Inventory) DropHotbar(h int) ItemStatus {
	if !inv.IsAuthority() {
		return inv.request(protocol.Command{Type: protocol.CmdDropHotbar, Hotbar: h})
	}
	return inv.dropHotbar(h)
}

func validHotbar(h int) bool { return h > UnarmedSlot && h < HotbarSlots }

func (inv *Inventory) assignHotbarSlot(generalIndex, h int) ItemStatus {
	if !validHotbar(h) {
		return StatusInvalidIndex
	}
	ref, ok := Resolve(generalIndex)
	if !ok || ref.Kind != KindGeneral {
		return StatusInvalidIndex
	}
	src, ok := inv.store.Get(generalIndex)
	if !ok {
		return StatusInvalidIndex
	}
	if src.IsEmpty() {
		return StatusEmptySlot
	}
	if !inv.store.Accepts(HotbarIndex(h), src) {
		return StatusCategoryMismatch
	}

	checkpoint := inv.store
	unit, _ := inv.store.Remove(generalIndex, 1)
	displaced := inv.store.Hotbar[h]
	inv.store.Hotbar[h] = unit
	if !displaced.IsEmpty() {
		if inv.store.General[generalIndex].IsEmpty() {
			inv.store.General[generalIndex] = displaced
		} else if inv.store.addGeneral(displaced, int(displaced.Quantity)) > 0 {
			inv.store = checkpoint
			return StatusNoSpace
		}
	}
	id, st := inv.spawn(unit)
	if st != StatusOK {
		inv.store = checkpoint
		return st
	}
	old := inv.weapons[h]
	inv.weapons[h] = id
	inv.despawn(old)
	return StatusOK
}

func (inv *Inventory) storeHotbar(h int) ItemStatus {
	if !validHotbar(h) {
		return StatusInvalidIndex
	}
	item := inv.store.Hotbar[h]
	if item.IsEmpty() {
		return StatusEmptySlot
	}
	checkpoint := inv.store
	inv.store.Hotbar[h] = items.ItemSlot{}
	if inv.store.addGeneral(item, int(item.Quantity)) > 0 {
		inv.store = checkpoint
		return StatusNoSpace
	}
	inv.unbindHotbar(h)
	return StatusOK
}

func (inv *Inventory) moveHotbarToGeneral(h, generalIndex int) ItemStatus {
	item := inv.store.Hotbar[h]
	if item.IsEmpty() {
		return StatusEmptySlot
	}
	target := inv.store.General[generalIndex]
	switch {
	case target.IsEmpty():
		inv.store.General[generalIndex] = item
	case target.Stacks(item) && int(target.Quantity)+int(item.Quantity) <= inv.store.stackLimit(target):
		inv.store.General[generalIndex] = target.WithQuantity(int(target.Quantity) + int(item.Quantity))
	case inv.store.Accepts(HotbarIndex(h), target):
		return inv.assignHotbarSlot(generalIndex, h)
	default:
		return StatusCategoryMismatch
	}
	inv.store.Hotbar[h] = items.ItemSlot{}
	inv.unbindHotbar(h)
	return StatusOK
}

func (inv *Inventory) swapHotbar(a, b int) ItemStatus {
	if !validHotbar(a) || !validHotbar(b) || a == b {
		return StatusInvalidIndex
	}
	if inv.store.Hotbar[a].IsEmpty() && inv.store.Hotbar[b].IsEmpty() {
		return StatusEmptySlot
	}
	inv.store.Hotbar[a], inv.store.Hotbar[b] = inv.store.Hotbar[b], inv.store.Hotbar[a]
	inv.weapons[a], inv.weapons[b] = inv.weapons[b], inv.weapons[a]
	// The armed weapon stays armed, and a raised tool still returns to it.
	inv.current = swapped(inv.current, a, b)
	for i := range inv.tools {
		if inv.tools[i].restore != NoSlot {
			inv.tools[i].restore = swapped(inv.tools[i].restore, a, b)
		}
	}
	return StatusOK
}

func swapped(slot, a, b int) int {
	switch slot {
	case a:
		return b
	case b:
		return a
	}
	return slot
}

func (inv *Inventory) selectHotbar(h int) ItemStatus {
	if h < UnarmedSlot || h >= HotbarSlots {
		return StatusInvalidIndex
	}
	if h != UnarmedSlot && inv.weapons[h] == "" {
		return StatusEmptySlot
	}
	if h != UnarmedSlot && inv.active != items.CategoryNone {
		inv.endToolUse(inv.active, false)
	}
	inv.current = h
	return StatusOK
}

func (inv *Inventory) dropHotbar(h int) ItemStatus {
	if !validHotbar(h) {
		return StatusInvalidIndex
	}
	item := inv.store.Hotbar[h]
	if item.IsEmpty() {
		return StatusEmptySlot
	}
	inv.store.Hotbar[h] = items.ItemSlot{}
	inv.unbindHotbar(h)
	inv.drop(item)
	return StatusOK
}

// unbindHotbar despawns the entity of an emptied hotbar slot.
func (inv *Inventory) unbindHotbar(h int) {
	inv.despawn(inv.weapons[h])
	inv.weapons[h] = ""
	if inv.current == h {
		inv.current = UnarmedSlot
	}
}
