package inventory

import (
	"github.com/ThirdShiftStudios/FusionMMO-sub000/internal/protocol"
	"github.com/ThirdShiftStudios/FusionMMO-sub000/internal/sim/items"
)

// Result is the outcome of an applied command.
type Result struct {
	Status    ItemStatus
	Remainder int
}

// Handles reports whether Apply understands t.
func Handles(t protocol.CommandType) bool {
	switch t {
	case protocol.CmdAddItem, protocol.CmdMoveItem, protocol.CmdAssignHotbar,
		protocol.CmdStoreHotbar, protocol.CmdSwapHotbar, protocol.CmdSelectHotbar,
		protocol.CmdDropInventoryItem, protocol.CmdDropHotbar, protocol.CmdToggleFishingPole,
		protocol.CmdCastLure, protocol.CmdHookSetResult, protocol.CmdHookSetZone,
		protocol.CmdFightingResult, protocol.CmdFightingProgress, protocol.CmdEquipMount,
		protocol.CmdBeginRestore, protocol.CmdSetInventorySlot, protocol.CmdSetBagSlot,
		protocol.CmdSetHotbarSlot, protocol.CmdSetSpecialSlot, protocol.CmdFinalizeRestore:
		return true
	}
	return false
}

// Apply executes a request received from a proxy. It must only be called on
// the authority; elsewhere it is a no-op.
func (inv *Inventory) Apply(cmd protocol.Command) Result {
	if !inv.IsAuthority() {
		return Result{Status: StatusNotAuthority}
	}
	item := func() (items.ItemSlot, bool) {
		if cmd.Quantity < 0 || cmd.Quantity > items.DefaultMaxStack {
			return items.ItemSlot{}, false
		}
		return items.Slot(cmd.DefinitionID, uint8(cmd.Quantity), cmd.Hash), true
	}
	switch cmd.Type {
	case protocol.CmdAddItem:
		rem, st := inv.addItem(cmd.DefinitionID, cmd.Quantity, cmd.Hash)
		return Result{Status: st, Remainder: rem}
	case protocol.CmdMoveItem:
		return Result{Status: inv.moveItem(cmd.From, cmd.To)}
	case protocol.CmdAssignHotbar:
		return Result{Status: inv.AssignHotbar(cmd.Index, cmd.Hotbar)}
	case protocol.CmdStoreHotbar:
		return Result{Status: inv.StoreHotbar(cmd.Hotbar)}
	case protocol.CmdSwapHotbar:
		return Result{Status: inv.SwapHotbar(cmd.Hotbar, cmd.HotbarB)}
	case protocol.CmdSelectHotbar:
		return Result{Status: inv.SelectHotbar(cmd.Hotbar)}
	case protocol.CmdDropInventoryItem:
		return Result{Status: inv.DropInventoryItem(cmd.Index)}
	case protocol.CmdDropHotbar:
		return Result{Status: inv.DropHotbar(cmd.Hotbar)}
	case protocol.CmdToggleFishingPole:
		return Result{Status: inv.ToggleFishingPole()}
	case protocol.CmdCastLure:
		return Result{Status: inv.CastLure()}
	case protocol.CmdHookSetResult:
		return Result{Status: inv.SubmitHookSetResult(cmd.Success)}
	case protocol.CmdHookSetZone:
		return Result{Status: inv.SetHookSetZone(cmd.InZone)}
	case protocol.CmdFightingResult:
		return Result{Status: inv.SubmitFightingResult(cmd.Success)}
	case protocol.CmdFightingProgress:
		return Result{Status: inv.SubmitFightingProgress(cmd.Succeeded, cmd.Required)}
	case protocol.CmdEquipMount:
		return Result{Status: inv.EquipMount(cmd.DefinitionID)}
	case protocol.CmdBeginRestore:
		return Result{Status: inv.BeginRestore(cmd.CharacterID)}
	case protocol.CmdSetInventorySlot, protocol.CmdSetBagSlot, protocol.CmdSetHotbarSlot, protocol.CmdSetSpecialSlot:
		it, ok := item()
		if !ok {
			return Result{Status: StatusInvalidQuantity}
		}
		switch cmd.Type {
		case protocol.CmdSetInventorySlot:
			return Result{Status: inv.SetInventorySlot(cmd.Index, it)}
		case protocol.CmdSetBagSlot:
			return Result{Status: inv.SetBagSlot(cmd.Index, it)}
		case protocol.CmdSetHotbarSlot:
			return Result{Status: inv.SetHotbarSlot(cmd.Hotbar, it)}
		default:
			return Result{Status: inv.SetSpecialSlot(cmd.Category, it)}
		}
	case protocol.CmdFinalizeRestore:
		return Result{Status: inv.FinalizeRestore(cmd.WeaponSlot, cmd.Gold)}
	}
	return Result{Status: StatusInvalidState}
}
