package inventory

import "github.com/ThirdShiftStudios/FusionMMO-sub000/internal/sim/items"

const SaveVersion = 1

// SaveData is the exported inventory shape handed to the cloud save
// collaborator. Hotbar holds slots 1..HotbarSlots-1; slot 0 is never saved.
type SaveData struct {
	Version     int              `json:"version"`
	CharacterID string           `json:"character_id"`
	Inventory   []items.ItemSlot `json:"inventory"`
	Bags        []items.ItemSlot `json:"bags"`
	Hotbar      []items.ItemSlot `json:"hotbar"`
	Special     []SpecialRecord  `json:"special"`

	CurrentWeaponSlot int `json:"current_weapon_slot"`
	Gold              int `json:"gold"`
}

// SpecialRecord is the content of one singleton equipment slot.
type SpecialRecord struct {
	Category items.Category `json:"category"`
	Item     items.ItemSlot `json:"item"`
}

func emptySave(characterID string) SaveData {
	s := SaveData{
		Version:     SaveVersion,
		CharacterID: characterID,
		Inventory:   make([]items.ItemSlot, MaxGeneralSlots),
		Bags:        make([]items.ItemSlot, BagSlots),
		Hotbar:      make([]items.ItemSlot, HotbarSlots-1),
		Special:     make([]SpecialRecord, SpecialSlots),
	}
	for i, c := range items.SpecialCategories {
		s.Special[i].Category = c
	}
	return s
}

// CreateSaveData captures the slot, weapon and gold configuration. While a
// tool is raised the remembered hotbar slot is saved as the weapon slot.
func (inv *Inventory) CreateSaveData() SaveData {
	s := emptySave(inv.id)
	copy(s.Inventory, inv.store.General[:])
	copy(s.Bags, inv.store.Bags[:])
	copy(s.Hotbar, inv.store.Hotbar[1:])
	for i := range items.SpecialCategories {
		s.Special[i].Item = inv.store.Special[i]
	}
	s.CurrentWeaponSlot = inv.current
	if i := toolSlot(inv.active); i >= 0 && inv.tools[i].restore != NoSlot {
		s.CurrentWeaponSlot = inv.tools[i].restore
	}
	s.Gold = inv.gold
	return s
}

// ApplySaveData replaces the whole configuration with s. Entries that no
// longer fit their slot (unknown category, failed weapon spawn, stack above
// the limit) are moved to general inventory or dropped, never lost.
func (inv *Inventory) ApplySaveData(s SaveData) ItemStatus {
	if !inv.IsAuthority() {
		return StatusNotAuthority
	}
	inv.despawnAll()
	inv.store.Reset()
	inv.current = UnarmedSlot

	var relocate []items.ItemSlot
	place := func(index int, it items.ItemSlot) {
		it = it.Normalize()
		if it.IsEmpty() {
			return
		}
		if _, ok := inv.def(it.DefinitionID); !ok {
			return
		}
		limit := inv.store.stackLimit(it)
		if ref, _ := Resolve(index); ref.Kind != KindGeneral {
			limit = 1
		}
		keep := it.WithQuantity(min(limit, int(it.Quantity)))
		if !inv.store.Set(index, keep) {
			relocate = append(relocate, it)
			return
		}
		if extra := int(it.Quantity) - int(keep.Quantity); extra > 0 {
			relocate = append(relocate, it.WithQuantity(extra))
		}
	}

	for b, it := range s.Bags {
		if b < BagSlots {
			place(BagIndex(b), it)
		}
	}
	inv.recalculate()
	for _, rec := range s.Special {
		if idx := SpecialIndex(rec.Category); idx != NoSlot {
			place(idx, rec.Item)
		} else {
			relocate = append(relocate, rec.Item)
		}
	}
	for i, it := range s.Inventory {
		if i < MaxGeneralSlots {
			place(i, it)
		}
	}
	for i, it := range s.Hotbar {
		h := i + 1
		if !validHotbar(h) {
			relocate = append(relocate, it)
			continue
		}
		place(HotbarIndex(h), it)
		if inv.store.Hotbar[h].IsEmpty() {
			continue
		}
		id, st := inv.spawn(inv.store.Hotbar[h])
		if st != StatusOK {
			relocate = append(relocate, inv.store.Hotbar[h])
			inv.store.Hotbar[h] = items.ItemSlot{}
			continue
		}
		inv.weapons[h] = id
	}
	for _, it := range relocate {
		if it.IsEmpty() {
			continue
		}
		if left := inv.store.addGeneral(it, int(it.Quantity)); left > 0 {
			inv.drop(it.WithQuantity(left))
		}
	}

	inv.gold = max(0, s.Gold)
	if validHotbar(s.CurrentWeaponSlot) && inv.weapons[s.CurrentWeaponSlot] != "" {
		inv.current = s.CurrentWeaponSlot
	}
	inv.reconcileTools()
	return StatusOK
}
