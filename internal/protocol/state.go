package protocol

import "github.com/ThirdShiftStudios/FusionMMO-sub000/internal/sim/items"

// STATE (authority -> peers), one per tick.
type StateMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Tick            uint64 `json:"tick"`

	Characters []InventoryState `json:"characters"`
	Vendors    []VendorState    `json:"vendors,omitempty"`
	Nodes      []NodeState      `json:"nodes,omitempty"`
	Pickups    []PickupState    `json:"pickups,omitempty"`
}

// InventoryState is the replicated part of one character's inventory.
type InventoryState struct {
	CharacterID string `json:"character_id"`
	Capacity    int    `json:"capacity"`

	General []items.ItemSlot `json:"general"`
	Bags    []items.ItemSlot `json:"bags"`
	Hotbar  []items.ItemSlot `json:"hotbar"`
	Special []items.ItemSlot `json:"special"`

	CurrentHotbar int `json:"current_hotbar"`
	Gold          int `json:"gold"`

	// HotbarEntities holds the spawned weapon entity per hotbar slot.
	HotbarEntities []string     `json:"hotbar_entities"`
	Tools          []ToolState  `json:"tools"`
	Fishing        FishingState `json:"fishing"`
}

type ToolState struct {
	Category    items.Category `json:"category"`
	EntityID    string         `json:"entity_id,omitempty"`
	Equipped    bool           `json:"equipped"`
	RestoreSlot int            `json:"restore_slot"`
}

type FishingState struct {
	State         string `json:"state"`
	HitsSucceeded int    `json:"hits_succeeded"`
	HitsRequired  int    `json:"hits_required"`
	InZone        bool   `json:"in_zone"`
}

type VendorState struct {
	ID    string           `json:"id"`
	Name  string           `json:"name,omitempty"`
	Stock []items.ItemSlot `json:"stock"`
}

type NodeState struct {
	ID           string  `json:"id"`
	Kind         string  `json:"kind"`
	State        string  `json:"state"`
	Progress     float64 `json:"progress"`
	Required     float64 `json:"required"`
	RespawnTimer float64 `json:"respawn_timer"`
	// AgentRef is the character id of the interacting agent.
	AgentRef string `json:"agent_ref,omitempty"`
}

type PickupState struct {
	ID     string         `json:"id"`
	Item   items.ItemSlot `json:"item"`
	Pos    [2]float64     `json:"pos"`
	Landed bool           `json:"landed"`
}
