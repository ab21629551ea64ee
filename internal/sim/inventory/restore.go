package inventory

import (
	"github.com/ThirdShiftStudios/FusionMMO-sub000/internal/protocol"
	"github.com/ThirdShiftStudios/FusionMMO-sub000/internal/sim/items"
)

// restoreStage buffers a save arriving in pieces between BeginRestore and
// FinalizeRestore.
type restoreStage struct {
	save    SaveData
	expires uint64
}

// Restoring reports whether a staged restore is waiting for FinalizeRestore.
func (inv *Inventory) Restoring() bool { return inv.staging != nil }

// BeginRestore opens a staging buffer. It is dropped after the restore TTL
// or when the peer leaves, whichever comes first.
func (inv *Inventory) BeginRestore(characterID string) ItemStatus {
	if !inv.IsAuthority() {
		return inv.request(protocol.Command{Type: protocol.CmdBeginRestore})
	}
	if characterID != inv.id {
		return StatusInvalidState
	}
	inv.staging = &restoreStage{
		save:    emptySave(inv.id),
		expires: inv.tick + uint64(inv.restoreTTL),
	}
	return StatusOK
}

func (inv *Inventory) SetInventorySlot(index int, item items.ItemSlot) ItemStatus {
	if !inv.IsAuthority() {
		return inv.request(setCommand(protocol.CmdSetInventorySlot, item, func(c *protocol.Command) { c.Index = index }))
	}
	if inv.staging == nil {
		return StatusInvalidState
	}
	if index < 0 || index >= MaxGeneralSlots {
		return StatusInvalidIndex
	}
	inv.staging.save.Inventory[index] = item.Normalize()
	return StatusOK
}

func (inv *Inventory) SetBagSlot(b int, item items.ItemSlot) ItemStatus {
	if !inv.IsAuthority() {
		return inv.request(setCommand(protocol.CmdSetBagSlot, item, func(c *protocol.Command) { c.Index = b }))
	}
	if inv.staging == nil {
		return StatusInvalidState
	}
	if b < 0 || b >= BagSlots {
		return StatusInvalidIndex
	}
	inv.staging.save.Bags[b] = item.Normalize()
	return StatusOK
}

// SetHotbarSlot stages hotbar slot h (1..HotbarSlots-1).
func (inv *Inventory) SetHotbarSlot(h int, item items.ItemSlot) ItemStatus {
	if !inv.IsAuthority() {
		return inv.request(setCommand(protocol.CmdSetHotbarSlot, item, func(c *protocol.Command) { c.Hotbar = h }))
	}
	if inv.staging == nil {
		return StatusInvalidState
	}
	if !validHotbar(h) {
		return StatusInvalidIndex
	}
	inv.staging.save.Hotbar[h-1] = item.Normalize()
	return StatusOK
}

func (inv *Inventory) SetSpecialSlot(c items.Category, item items.ItemSlot) ItemStatus {
	if !inv.IsAuthority() {
		return inv.request(setCommand(protocol.CmdSetSpecialSlot, item, func(cmd *protocol.Command) { cmd.Category = c }))
	}
	if inv.staging == nil {
		return StatusInvalidState
	}
	ord, ok := items.SpecialOrdinal(c)
	if !ok {
		return StatusInvalidIndex
	}
	inv.staging.save.Special[ord].Item = item.Normalize()
	return StatusOK
}

// FinalizeRestore commits the staged save atomically. Without a staged
// restore it does nothing, so a repeated finalize is harmless.
func (inv *Inventory) FinalizeRestore(weaponSlot, gold int) ItemStatus {
	if !inv.IsAuthority() {
		return inv.request(protocol.Command{Type: protocol.CmdFinalizeRestore, WeaponSlot: weaponSlot, Gold: gold})
	}
	if inv.staging == nil {
		return StatusOK
	}
	save := inv.staging.save
	inv.staging = nil
	save.CurrentWeaponSlot = weaponSlot
	save.Gold = gold
	return inv.ApplySaveData(save)
}

// AbandonRestore drops a staged restore, e.g. when the peer disconnects.
func (inv *Inventory) AbandonRestore() { inv.staging = nil }

func (inv *Inventory) expireRestore() {
	if inv.staging != nil && inv.tick >= inv.staging.expires {
		inv.staging = nil
	}
}

// RequestRestore loads s. The authority applies it directly; a proxy sends
// the begin/set/finalize sequence, skipping empty slots.
func (inv *Inventory) RequestRestore(s SaveData) ItemStatus {
	if inv.IsAuthority() {
		return inv.ApplySaveData(s)
	}
	if st := inv.BeginRestore(inv.id); st != StatusPending {
		return st
	}
	for i, it := range s.Inventory {
		if !it.IsEmpty() {
			inv.SetInventorySlot(i, it)
		}
	}
	for b, it := range s.Bags {
		if !it.IsEmpty() {
			inv.SetBagSlot(b, it)
		}
	}
	for i, it := range s.Hotbar {
		if !it.IsEmpty() {
			inv.SetHotbarSlot(i+1, it)
		}
	}
	for _, rec := range s.Special {
		if !rec.Item.IsEmpty() {
			inv.SetSpecialSlot(rec.Category, rec.Item)
		}
	}
	return inv.FinalizeRestore(s.CurrentWeaponSlot, s.Gold)
}

func setCommand(t protocol.CommandType, item items.ItemSlot, fill func(*protocol.Command)) protocol.Command {
	c := protocol.Command{
		Type:         t,
		DefinitionID: item.DefinitionID,
		Quantity:     int(item.Quantity),
		Hash:         item.Hash,
	}
	fill(&c)
	return c
}
