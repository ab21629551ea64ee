package inventory

import (
	"github.com/ThirdShiftStudios/FusionMMO-sub000/internal/protocol"
	"github.com/ThirdShiftStudios/FusionMMO-sub000/internal/sim/items"
	"github.com/ThirdShiftStudios/FusionMMO-sub000/internal/sim/replication"
)

// Hooks receive change events from Observe. Any hook may be nil.
type Hooks struct {
	SlotChanged     func(index int, prev, next items.ItemSlot)
	GoldChanged     func(prev, next int)
	HotbarSelected  func(prev, next int)
	WeaponChanged   func(h int, prev, next EntityID)
	ToolChanged     func(c items.Category, equipped bool)
	FishingChanged  func(prev, next FishingState)
	CapacityChanged func(prev, next int)
}

type observer struct {
	hooks Hooks

	general  replication.SliceShadow[items.ItemSlot]
	bags     replication.SliceShadow[items.ItemSlot]
	hotbar   replication.SliceShadow[items.ItemSlot]
	special  replication.SliceShadow[items.ItemSlot]
	weapons  replication.SliceShadow[EntityID]
	tools    replication.SliceShadow[bool]
	gold     replication.ValueShadow[int]
	current  replication.ValueShadow[int]
	capacity replication.ValueShadow[int]
	fishing  replication.ValueShadow[FishingState]
}

func (inv *Inventory) SetHooks(h Hooks) {
	inv.observer.hooks = h
}

// Observe diffs the current state against the last observed state and fires
// one hook call per changed value. Every peer calls it once per step, the
// authority included.
func (inv *Inventory) Observe() int {
	o := &inv.observer
	h := o.hooks
	slot := func(index func(int) int) func(i int, prev, next items.ItemSlot) {
		return func(i int, prev, next items.ItemSlot) {
			if h.SlotChanged != nil {
				h.SlotChanged(index(i), prev, next)
			}
		}
	}
	n := 0
	n += o.general.Scan(inv.store.General[:], slot(func(i int) int { return i }))
	n += o.bags.Scan(inv.store.Bags[:], slot(BagIndex))
	n += o.hotbar.Scan(inv.store.Hotbar[:], slot(HotbarIndex))
	n += o.special.Scan(inv.store.Special[:], slot(func(i int) int { return specialBase - i }))
	n += o.weapons.Scan(inv.weapons[:], func(i int, prev, next EntityID) {
		if h.WeaponChanged != nil {
			h.WeaponChanged(i, prev, next)
		}
	})
	var equipped [len(toolCategories)]bool
	for i := range inv.tools {
		equipped[i] = inv.tools[i].equipped
	}
	n += o.tools.Scan(equipped[:], func(i int, _, next bool) {
		if h.ToolChanged != nil {
			h.ToolChanged(toolCategories[i], next)
		}
	})
	if o.gold.Scan(inv.gold, h.GoldChanged) {
		n++
	}
	if o.current.Scan(inv.current, h.HotbarSelected) {
		n++
	}
	if o.capacity.Scan(inv.store.Capacity, h.CapacityChanged) {
		n++
	}
	if o.fishing.Scan(inv.fishing.FishingState, h.FishingChanged) {
		n++
	}
	return n
}

// State exports the replicated view broadcast to proxies.
func (inv *Inventory) State() protocol.InventoryState {
	st := protocol.InventoryState{
		CharacterID:    inv.id,
		Capacity:       inv.store.Capacity,
		General:        append([]items.ItemSlot(nil), inv.store.General[:]...),
		Bags:           append([]items.ItemSlot(nil), inv.store.Bags[:]...),
		Hotbar:         append([]items.ItemSlot(nil), inv.store.Hotbar[:]...),
		Special:        append([]items.ItemSlot(nil), inv.store.Special[:]...),
		CurrentHotbar:  inv.current,
		Gold:           inv.gold,
		HotbarEntities: make([]string, HotbarSlots),
		Tools:          make([]protocol.ToolState, 0, len(toolCategories)),
		Fishing: protocol.FishingState{
			State:         inv.fishing.Phase.String(),
			HitsSucceeded: inv.fishing.HitsSucceeded,
			HitsRequired:  inv.fishing.HitsRequired,
			InZone:        inv.fishing.InZone,
		},
	}
	for h, id := range inv.weapons {
		st.HotbarEntities[h] = string(id)
	}
	for i, t := range inv.tools {
		st.Tools = append(st.Tools, protocol.ToolState{
			Category:    toolCategories[i],
			EntityID:    string(t.entity),
			Equipped:    t.equipped,
			RestoreSlot: t.restore,
		})
	}
	return st
}

// ApplyState overwrites a proxy's mirror with an authority broadcast. The
// broadcast wins over any optimistic echo. Authorities ignore it.
func (inv *Inventory) ApplyState(st protocol.InventoryState) bool {
	if inv.IsAuthority() || st.CharacterID != inv.id {
		return false
	}
	inv.store.Capacity = min(max(st.Capacity, 0), MaxGeneralSlots)
	copy(inv.store.General[:], normalized(st.General))
	copy(inv.store.Bags[:], normalized(st.Bags))
	copy(inv.store.Hotbar[:], normalized(st.Hotbar))
	copy(inv.store.Special[:], normalized(st.Special))
	inv.current = st.CurrentHotbar
	inv.gold = st.Gold
	for h := range inv.weapons {
		inv.weapons[h] = ""
		if h < len(st.HotbarEntities) {
			inv.weapons[h] = EntityID(st.HotbarEntities[h])
		}
	}
	inv.active = items.CategoryNone
	for _, ts := range st.Tools {
		i := toolSlot(ts.Category)
		if i < 0 {
			continue
		}
		inv.tools[i].entity = EntityID(ts.EntityID)
		inv.tools[i].equipped = ts.Equipped
		inv.tools[i].restore = ts.RestoreSlot
		if ts.Equipped {
			inv.active = ts.Category
		}
	}
	inv.fishing.FishingState = FishingState{
		Phase:         ParseFishingPhase(st.Fishing.State),
		HitsSucceeded: st.Fishing.HitsSucceeded,
		HitsRequired:  st.Fishing.HitsRequired,
		InZone:        st.Fishing.InZone,
	}
	return true
}

func normalized(in []items.ItemSlot) []items.ItemSlot {
	out := make([]items.ItemSlot, len(in))
	for i, s := range in {
		out[i] = s.Normalize()
	}
	return out
}
