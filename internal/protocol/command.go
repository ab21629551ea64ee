package protocol

import "github.com/ThirdShiftStudios/FusionMMO-sub000/internal/sim/items"

type CommandType string

const (
	CmdAddItem           CommandType = "ADD_ITEM"
	CmdMoveItem          CommandType = "MOVE_ITEM"
	CmdAssignHotbar      CommandType = "ASSIGN_HOTBAR"
	CmdStoreHotbar       CommandType = "STORE_HOTBAR"
	CmdSwapHotbar        CommandType = "SWAP_HOTBAR"
	CmdSelectHotbar      CommandType = "SELECT_HOTBAR"
	CmdDropInventoryItem CommandType = "DROP_INVENTORY_ITEM"
	CmdDropHotbar        CommandType = "DROP_HOTBAR"
	CmdToggleFishingPole CommandType = "TOGGLE_FISHING_POLE"
	CmdCastLure          CommandType = "CAST_LURE"
	CmdHookSetResult     CommandType = "HOOK_SET_RESULT"
	CmdHookSetZone       CommandType = "HOOK_SET_ZONE"
	CmdFightingResult    CommandType = "FIGHTING_RESULT"
	CmdFightingProgress  CommandType = "FIGHTING_PROGRESS"
	CmdEquipMount        CommandType = "EQUIP_MOUNT"
	CmdBeginRestore      CommandType = "BEGIN_RESTORE"
	CmdSetInventorySlot  CommandType = "SET_INVENTORY_SLOT"
	CmdSetBagSlot        CommandType = "SET_BAG_SLOT"
	CmdSetHotbarSlot     CommandType = "SET_HOTBAR_SLOT"
	CmdSetSpecialSlot    CommandType = "SET_SPECIAL_SLOT"
	CmdFinalizeRestore   CommandType = "FINALIZE_RESTORE"
	CmdPurchase          CommandType = "PURCHASE"
	CmdSell              CommandType = "SELL"
	CmdCraft             CommandType = "CRAFT"
	CmdBeginInteraction  CommandType = "BEGIN_INTERACTION"
	CmdCancelInteraction CommandType = "CANCEL_INTERACTION"
	CmdCollectPickup     CommandType = "COLLECT_PICKUP"
)

var commandTypes = map[CommandType]struct{}{
	CmdAddItem: {}, CmdMoveItem: {}, CmdAssignHotbar: {}, CmdStoreHotbar: {},
	CmdSwapHotbar: {}, CmdSelectHotbar: {}, CmdDropInventoryItem: {}, CmdDropHotbar: {},
	CmdToggleFishingPole: {}, CmdCastLure: {}, CmdHookSetResult: {}, CmdHookSetZone: {},
	CmdFightingResult: {}, CmdFightingProgress: {}, CmdEquipMount: {}, CmdBeginRestore: {},
	CmdSetInventorySlot: {}, CmdSetBagSlot: {}, CmdSetHotbarSlot: {}, CmdSetSpecialSlot: {},
	CmdFinalizeRestore: {}, CmdPurchase: {}, CmdSell: {}, CmdCraft: {},
	CmdBeginInteraction: {}, CmdCancelInteraction: {}, CmdCollectPickup: {},
}

func (t CommandType) Valid() bool {
	_, ok := commandTypes[t]
	return ok
}

// Idempotent reports whether applying the command twice has the same effect
// as applying it once. Everything else is deduplicated by id.
func (t CommandType) Idempotent() bool {
	switch t {
	case CmdSetInventorySlot, CmdSetBagSlot, CmdSetHotbarSlot, CmdSetSpecialSlot,
		CmdSelectHotbar, CmdHookSetZone, CmdFightingProgress, CmdCancelInteraction:
		return true
	}
	return false
}

// Command is a request from a proxy to the authority. Only the fields that
// the command type uses are set.
type Command struct {
	ID          string      `json:"id"`
	Type        CommandType `json:"type"`
	CharacterID string      `json:"character_id"`

	DefinitionID int              `json:"definition_id,omitempty"`
	Quantity     int              `json:"quantity,omitempty"`
	Hash         items.ConfigHash `json:"hash,omitempty"`

	From  int `json:"from,omitempty"`
	To    int `json:"to,omitempty"`
	Index int `json:"index,omitempty"`

	Hotbar   int            `json:"hotbar,omitempty"`
	HotbarB  int            `json:"hotbar_b,omitempty"`
	Category items.Category `json:"category,omitempty"`

	Success   bool `json:"success,omitempty"`
	Succeeded int  `json:"succeeded,omitempty"`
	Required  int  `json:"required,omitempty"`
	InZone    bool `json:"in_zone,omitempty"`

	WeaponSlot int `json:"weapon_slot,omitempty"`
	Gold       int `json:"gold,omitempty"`

	VendorID string `json:"vendor_id,omitempty"`
	RecipeID string `json:"recipe_id,omitempty"`
	NodeID   string `json:"node_id,omitempty"`
	PickupID string `json:"pickup_id,omitempty"`
}

// CMD (peer -> authority)
type CmdMsg struct {
	Type            string  `json:"type"`
	ProtocolVersion string  `json:"protocol_version"`
	Cmd             Command `json:"cmd"`
}
