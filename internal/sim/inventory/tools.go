package inventory

import (
	"github.com/ThirdShiftStudios/FusionMMO-sub000/internal/sim/items"
)

// toolCategories are the utility tools that compete with the hotbar weapon.
var toolCategories = [...]items.Category{
	items.CategoryPickaxe,
	items.CategoryWoodAxe,
	items.CategoryFishingPole,
}

// IsTool reports whether c is raised through the arbiter.
func IsTool(c items.Category) bool { return toolSlot(c) >= 0 }

func toolSlot(c items.Category) int {
	for i, tc := range toolCategories {
		if tc == c {
			return i
		}
	}
	return -1
}

type toolState struct {
	entity   EntityID
	backing  int
	item     items.ItemSlot
	equipped bool
	// restore is the hotbar slot to return to when the tool is lowered.
	restore int
}

// ToolInfo is a read-only view of one tool.
type ToolInfo struct {
	Category    items.Category
	Entity      EntityID
	Backing     int
	Equipped    bool
	RestoreSlot int
}

func (inv *Inventory) Tool(c items.Category) (ToolInfo, bool) {
	i := toolSlot(c)
	if i < 0 {
		return ToolInfo{}, false
	}
	t := inv.tools[i]
	return ToolInfo{Category: c, Entity: t.entity, Backing: t.backing, Equipped: t.equipped, RestoreSlot: t.restore}, true
}

// ToolSpeed is the harvesting bonus of c while it is raised, else 0.
func (inv *Inventory) ToolSpeed(c items.Category) float64 {
	i := toolSlot(c)
	if i < 0 || !inv.tools[i].equipped {
		return 0
	}
	d, ok := inv.def(inv.tools[i].item.DefinitionID)
	if !ok {
		return 0
	}
	return d.EffectiveToolSpeed(inv.tools[i].item.Hash)
}

// BeginToolUse raises tool c. The current hotbar slot is remembered unless a
// slot is already remembered, and the hotbar drops to unarmed. A different
// raised tool is lowered first.
func (inv *Inventory) BeginToolUse(c items.Category) ItemStatus {
	if !inv.IsAuthority() {
		return StatusNotAuthority
	}
	i := toolSlot(c)
	if i < 0 {
		return StatusCategoryMismatch
	}
	if inv.tools[i].entity == "" {
		// The item may have arrived this tick.
		inv.reconcileTool(i)
		if inv.tools[i].entity == "" {
			return StatusToolUnavailable
		}
	}
	if inv.active != items.CategoryNone && inv.active != c {
		inv.endToolUse(inv.active, true)
	}
	t := &inv.tools[i]
	if t.restore == NoSlot {
		t.restore = inv.current
	}
	inv.current = UnarmedSlot
	t.equipped = true
	inv.active = c
	return StatusOK
}

// EndToolUse lowers tool c and restores the remembered hotbar slot.
func (inv *Inventory) EndToolUse(c items.Category) ItemStatus {
	if !inv.IsAuthority() {
		return StatusNotAuthority
	}
	i := toolSlot(c)
	if i < 0 {
		return StatusCategoryMismatch
	}
	if !inv.tools[i].equipped {
		return StatusInvalidState
	}
	inv.endToolUse(c, true)
	return StatusOK
}

func (inv *Inventory) endToolUse(c items.Category, restore bool) {
	i := toolSlot(c)
	if i < 0 {
		return
	}
	t := &inv.tools[i]
	t.equipped = false
	if restore && t.restore != NoSlot {
		slot := t.restore
		if slot != UnarmedSlot && inv.weapons[slot] == "" {
			slot = UnarmedSlot
		}
		inv.current = slot
	}
	t.restore = NoSlot
	if inv.active == c {
		inv.active = items.CategoryNone
	}
	if c == items.CategoryFishingPole {
		inv.fishing = fishingState{}
	}
}

// reconcileTools keeps each tool entity in step with its backing item.
func (inv *Inventory) reconcileTools() {
	for i := range inv.tools {
		inv.reconcileTool(i)
	}
}

func (inv *Inventory) reconcileTool(i int) {
	t := &inv.tools[i]
	c := toolCategories[i]
	if t.entity != "" {
		cur, ok := inv.store.Get(t.backing)
		if ok && !cur.IsEmpty() && cur.DefinitionID == t.item.DefinitionID && cur.Hash == t.item.Hash {
			return
		}
		inv.despawn(t.entity)
		t.entity = ""
		t.backing = NoSlot
		t.item = items.ItemSlot{}
		if t.equipped {
			inv.endToolUse(c, true)
		}
	}
	idx := inv.store.FindCategory(c)
	if idx == NoSlot {
		return
	}
	item, _ := inv.store.Get(idx)
	id, st := inv.spawn(item.WithQuantity(1))
	if st != StatusOK {
		return
	}
	t.entity = id
	t.backing = idx
	t.item = item.WithQuantity(1)
}
