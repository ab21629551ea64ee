// Package inventory implements the replicated slot store, hotbar weapons, the
// tool/weapon arbiter, fishing and the save/restore protocol for one
// character.
//
// Every public mutator follows the same dispatch rule: on the authority it
// applies immediately; on a proxy it sends a protocol.Command to the
// authority and returns StatusPending without touching local state.
package inventory

import (
	"strconv"

	"github.com/ThirdShiftStudios/FusionMMO-sub000/internal/protocol"
	"github.com/ThirdShiftStudios/FusionMMO-sub000/internal/sim/items"
	"github.com/ThirdShiftStudios/FusionMMO-sub000/internal/sim/replication"
	"github.com/ThirdShiftStudios/FusionMMO-sub000/internal/sim/tuning"
)

// EntityID identifies a spawned weapon or tool entity.
type EntityID string

// EntitySpawner creates and destroys networked entities. Spawn can fail,
// e.g. when no prefab is registered or the runner is gone.
type EntitySpawner interface {
	SpawnEntity(owner string, prefab items.Prefab, item items.ItemSlot) (EntityID, error)
	DespawnEntity(id EntityID)
}

// Dropper turns items that left the inventory into world pickups.
type Dropper interface {
	DropItem(owner string, item items.ItemSlot)
}

// Sender delivers proxy requests to the authority.
type Sender interface {
	Send(cmd protocol.Command) error
}

type Config struct {
	CharacterID string
	Role        replication.Role

	Defs     items.Lookup
	Registry *items.Registry
	Spawner  EntitySpawner
	Dropper  Dropper
	Sender   Sender

	Fishing         tuning.Fishing
	RestoreTTLTicks int

	// NewCommandID names outgoing proxy commands. Defaults to a counter.
	NewCommandID func() string
}

type Inventory struct {
	id   string
	role replication.Role

	defs     items.Lookup
	registry *items.Registry
	spawner  EntitySpawner
	dropper  Dropper
	sender   Sender
	newID    func() string
	cmdSeq   uint64

	store   Store
	gold    int
	current int
	weapons [HotbarSlots]EntityID
	tools   [len(toolCategories)]toolState
	active  items.Category

	fishingCfg tuning.Fishing
	fishing    fishingState

	restoreTTL int
	staging    *restoreStage
	tick       uint64

	// unplaced holds items that had to leave the inventory while no
	// Dropper was configured.
	unplaced []items.ItemSlot

	observer observer
}

func New(cfg Config) *Inventory {
	inv := &Inventory{
		id:         cfg.CharacterID,
		role:       cfg.Role,
		defs:       cfg.Defs,
		registry:   cfg.Registry,
		spawner:    cfg.Spawner,
		dropper:    cfg.Dropper,
		sender:     cfg.Sender,
		newID:      cfg.NewCommandID,
		store:      NewStore(cfg.Defs),
		fishingCfg: cfg.Fishing,
		restoreTTL: cfg.RestoreTTLTicks,
	}
	if inv.restoreTTL <= 0 {
		inv.restoreTTL = tuning.Defaults().Inventory.RestoreTTLTicks
	}
	if inv.fishingCfg.HitsRequired <= 0 {
		inv.fishingCfg = tuning.Defaults().Fishing
	}
	for i := range inv.tools {
		inv.tools[i] = toolState{backing: NoSlot, restore: NoSlot}
	}
	inv.observer.capacity.Scan(inv.store.Capacity, nil)
	return inv
}

func (inv *Inventory) CharacterID() string { return inv.id }
func (inv *Inventory) Role() replication.Role { return inv.role }
func (inv *Inventory) IsAuthority() bool { return inv.role.IsAuthority() }
func (inv *Inventory) Gold() int { return inv.gold }
func (inv *Inventory) Capacity() int { return inv.store.Capacity }
func (inv *Inventory) CurrentHotbar() int { return inv.current }
func (inv *Inventory) ActiveTool() items.Category { return inv.active }

// Store returns a copy of the slot arrays.
func (inv *Inventory) Store() Store { return inv.store }

// Slot returns the item at an inventory index.
func (inv *Inventory) Slot(index int) (items.ItemSlot, bool) { return inv.store.Get(index) }

// WeaponEntity returns the entity bound to hotbar slot h, if any.
func (inv *Inventory) WeaponEntity(h int) EntityID {
	if h <= UnarmedSlot || h >= HotbarSlots {
		return ""
	}
	return inv.weapons[h]
}

// WeaponArmed reports whether the current hotbar slot holds a live weapon.
func (inv *Inventory) WeaponArmed() bool {
	return inv.current != UnarmedSlot && inv.weapons[inv.current] != ""
}

// request forwards a proxy mutation to the authority.
func (inv *Inventory) request(cmd protocol.Command) ItemStatus {
	if inv.sender == nil {
		return StatusNotAuthority
	}
	if cmd.ID == "" {
		cmd.ID = inv.nextCommandID()
	}
	cmd.CharacterID = inv.id
	if err := inv.sender.Send(cmd); err != nil {
		return StatusNotAuthority
	}
	return StatusPending
}

func (inv *Inventory) nextCommandID() string {
	if inv.newID != nil {
		return inv.newID()
	}
	inv.cmdSeq++
	return inv.id + "-" + strconv.FormatUint(inv.cmdSeq, 10)
}

func (inv *Inventory) def(id int) (items.Definition, bool) {
	if inv.defs == nil || id == 0 {
		return items.Definition{}, false
	}
	return inv.defs.Definition(id)
}

// drop hands items to the world. Without a Dropper they are kept until
// DrainUnplaced.
func (inv *Inventory) drop(item items.ItemSlot) {
	if item.IsEmpty() {
		return
	}
	if inv.dropper != nil {
		inv.dropper.DropItem(inv.id, item)
		return
	}
	inv.unplaced = append(inv.unplaced, item)
}

// DrainUnplaced returns items that left the inventory with no Dropper set.
func (inv *Inventory) DrainUnplaced() []items.ItemSlot {
	out := inv.unplaced
	inv.unplaced = nil
	return out
}

func (inv *Inventory) recalculate() {
	for _, it := range inv.store.RecalculateGeneralCapacity() {
		inv.drop(it)
	}
}

// AddItem places qty units of def and returns the remainder that could not
// be placed. A non-zero remainder still needs a home.
func (inv *Inventory) AddItem(def, qty int, hash items.ConfigHash) (int, ItemStatus) {
	if !inv.IsAuthority() {
		return qty, inv.request(protocol.Command{
			Type: protocol.CmdAddItem, DefinitionID: def, Quantity: qty, Hash: hash,
		})
	}
	return inv.addItem(def, qty, hash)
}

func (inv *Inventory) addItem(def, qty int, hash items.ConfigHash) (int, ItemStatus) {
	if qty <= 0 {
		return qty, StatusInvalidQuantity
	}
	if _, ok := inv.def(def); !ok {
		return qty, StatusUnknownItem
	}
	rem := inv.store.AddItem(def, qty, hash)
	switch {
	case rem == 0:
		return 0, StatusOK
	case rem == qty:
		return rem, StatusNoSpace
	default:
		return rem, StatusPartial
	}
}

// GiveOrDrop adds items on the authority and drops whatever does not fit,
// one full stack per pickup. It returns the quantity placed in the inventory.
func (inv *Inventory) GiveOrDrop(def, qty int, hash items.ConfigHash) int {
	if !inv.IsAuthority() {
		return 0
	}
	rem, st := inv.addItem(def, qty, hash)
	if st == StatusInvalidQuantity || st == StatusUnknownItem {
		return 0
	}
	placed := qty - rem
	limit := inv.store.stackLimit(items.ItemSlot{DefinitionID: def})
	for rem > 0 {
		n := min(rem, limit)
		inv.drop(items.Slot(def, uint8(n), hash))
		rem -= n
	}
	return placed
}

// RemoveItem takes qty units from index. Protected slots (a hotbar weapon
// still spawned, a tool in use) cannot be removed this way.
func (inv *Inventory) RemoveItem(index, qty int) bool {
	if !inv.IsAuthority() {
		return false
	}
	if inv.protected(index) {
		return false
	}
	if _, ok := inv.store.Remove(index, qty); !ok {
		return false
	}
	inv.afterSlotChange(index)
	return true
}

func (inv *Inventory) protected(index int) bool {
	ref, ok := Resolve(index)
	if !ok {
		return false
	}
	if ref.Kind == KindHotbar && inv.weapons[ref.N] != "" {
		return true
	}
	for i := range inv.tools {
		t := &inv.tools[i]
		if t.equipped && t.entity != "" && t.backing == index {
			return true
		}
	}
	return false
}

func (inv *Inventory) afterSlotChange(indices ...int) {
	for _, idx := range indices {
		if ref, ok := Resolve(idx); ok && ref.Kind == KindBag {
			inv.recalculate()
			return
		}
	}
}

// MoveItem moves, merges or swaps the contents of two indices. Hotbar
// indices spawn or despawn weapon entities as items enter or leave them.
func (inv *Inventory) MoveItem(from, to int) ItemStatus {
	if !inv.IsAuthority() {
		return inv.request(protocol.Command{Type: protocol.CmdMoveItem, From: from, To: to})
	}
	return inv.moveItem(from, to)
}

func (inv *Inventory) moveItem(from, to int) ItemStatus {
	fref, ok1 := Resolve(from)
	tref, ok2 := Resolve(to)
	if !ok1 || !ok2 || from == to {
		return StatusInvalidIndex
	}
	if _, ok := inv.store.Get(from); !ok {
		return StatusInvalidIndex
	}
	if _, ok := inv.store.Get(to); !ok {
		return StatusInvalidIndex
	}
	switch {
	case fref.Kind == KindHotbar && tref.Kind == KindHotbar:
		return inv.swapHotbar(fref.N, tref.N)
	case tref.Kind == KindHotbar:
		if fref.Kind != KindGeneral {
			return StatusCategoryMismatch
		}
		return inv.assignHotbarSlot(from, tref.N)
	case fref.Kind == KindHotbar:
		if tref.Kind != KindGeneral {
			return StatusCategoryMismatch
		}
		return inv.moveHotbarToGeneral(fref.N, to)
	}
	st := inv.store.Move(from, to)
	if st == StatusOK {
		inv.afterSlotChange(from, to)
	}
	return st
}

// DropInventoryItem drops the whole stack at index into the world.
func (inv *Inventory) DropInventoryItem(index int) ItemStatus {
	if !inv.IsAuthority() {
		return inv.request(protocol.Command{Type: protocol.CmdDropInventoryItem, Index: index})
	}
	if ref, ok := Resolve(index); ok && ref.Kind == KindHotbar {
		return inv.dropHotbar(ref.N)
	}
	if _, ok := inv.store.Get(index); !ok {
		return StatusInvalidIndex
	}
	if inv.protected(index) {
		return StatusProtected
	}
	item, ok := inv.store.Take(index)
	if !ok {
		return StatusEmptySlot
	}
	inv.drop(item)
	inv.afterSlotChange(index)
	return StatusOK
}

// EquipMount moves the first general mount of def into the mount slot. def 0
// unequips the current mount into general inventory.
func (inv *Inventory) EquipMount(def int) ItemStatus {
	if !inv.IsAuthority() {
		return inv.request(protocol.Command{Type: protocol.CmdEquipMount, DefinitionID: def})
	}
	mountIdx := SpecialIndex(items.CategoryMount)
	if def == 0 {
		cur, _ := inv.store.Get(mountIdx)
		if cur.IsEmpty() {
			return StatusEmptySlot
		}
		free := inv.store.FreeGeneral()
		if free == NoSlot {
			return StatusNoSpace
		}
		return inv.store.Move(mountIdx, free)
	}
	d, ok := inv.def(def)
	if !ok {
		return StatusUnknownItem
	}
	if d.SlotCategory() != items.CategoryMount {
		return StatusCategoryMismatch
	}
	if cur, _ := inv.store.Get(mountIdx); cur.DefinitionID == def {
		return StatusOK
	}
	for i := 0; i < inv.store.Capacity; i++ {
		if inv.store.General[i].DefinitionID == def {
			return inv.store.Move(i, mountIdx)
		}
	}
	return StatusEmptySlot
}

// AddGold credits n gold on the authority.
func (inv *Inventory) AddGold(n int) bool {
	if !inv.IsAuthority() || n < 0 {
		return false
	}
	inv.gold += n
	return true
}

// SpendGold debits n gold if the balance allows it.
func (inv *Inventory) SpendGold(n int) bool {
	if !inv.IsAuthority() || n < 0 || n > inv.gold {
		return false
	}
	inv.gold -= n
	return true
}

// CanAfford reports whether the balance covers n.
func (inv *Inventory) CanAfford(n int) bool { return n >= 0 && n <= inv.gold }

// HasFreeGeneralSlot reports whether at least one general slot is empty.
func (inv *Inventory) HasFreeGeneralSlot() bool { return inv.store.FreeGeneral() != NoSlot }

// Transact runs fn against a copy of the store and commits it only when fn
// returns true. Used by vendors and crafting for all-or-nothing changes.
func (inv *Inventory) Transact(fn func(s *Store) bool) bool {
	if !inv.IsAuthority() {
		return false
	}
	trial := inv.store
	if !fn(&trial) {
		return false
	}
	inv.store = trial
	inv.recalculate()
	return true
}

// Tick advances authority-owned timers: tool reconciliation, fishing and
// the restore staging lifetime. Proxies ignore it.
func (inv *Inventory) Tick(tick uint64) {
	inv.tick = tick
	if !inv.IsAuthority() {
		return
	}
	inv.reconcileTools()
	inv.stepFishing()
	inv.expireRestore()
}

// Despawn destroys every entity and clears the slot arrays.
func (inv *Inventory) Despawn() {
	inv.despawnAll()
	inv.store.Reset()
	inv.gold = 0
	inv.current = UnarmedSlot
	inv.staging = nil
}

func (inv *Inventory) despawnAll() {
	for h := range inv.weapons {
		if inv.weapons[h] != "" {
			inv.despawn(inv.weapons[h])
			inv.weapons[h] = ""
		}
	}
	for i := range inv.tools {
		if inv.tools[i].entity != "" {
			inv.despawn(inv.tools[i].entity)
		}
		inv.tools[i] = toolState{backing: NoSlot, restore: NoSlot}
	}
	inv.active = items.CategoryNone
	inv.fishing = fishingState{}
}

func (inv *Inventory) despawn(id EntityID) {
	if id != "" && inv.spawner != nil {
		inv.spawner.DespawnEntity(id)
	}
}

func (inv *Inventory) spawn(item items.ItemSlot) (EntityID, ItemStatus) {
	if inv.spawner == nil {
		return "", StatusSpawnFailed
	}
	prefab, ok := inv.registry.Lookup(item.DefinitionID)
	if !ok {
		return "", StatusSpawnFailed
	}
	id, err := inv.spawner.SpawnEntity(inv.id, prefab, item)
	if err != nil || id == "" {
		return "", StatusSpawnFailed
	}
	return id, StatusOK
}
