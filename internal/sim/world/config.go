package world

import (
	"github.com/ThirdShiftStudios/FusionMMO-sub000/internal/protocol"
	"github.com/ThirdShiftStudios/FusionMMO-sub000/internal/sim/inventory"
	"github.com/ThirdShiftStudios/FusionMMO-sub000/internal/sim/items"
	"github.com/ThirdShiftStudios/FusionMMO-sub000/internal/sim/tuning"
)

type WorldConfig struct {
	ID     string
	Seed   int64
	Tuning tuning.Tuning
}

type JoinRequest struct {
	// SessionID is assigned by the transport; empty lets the world pick one.
	SessionID   string
	Name        string
	CharacterID string
	Out         chan []byte
	Resp        chan JoinResponse
}

type JoinResponse struct {
	Welcome protocol.WelcomeMsg
	// Code is set when the join was refused.
	Code    string
	Message string
}

// CommandEnvelope is one CMD as received by a session, in receive order.
type CommandEnvelope struct {
	SessionID string
	Cmd       protocol.Command
}

type RecordedJoin struct {
	SessionID   string `json:"session_id"`
	CharacterID string `json:"character_id"`
	Name        string `json:"name,omitempty"`
}

type RecordedCommand struct {
	SessionID string           `json:"session_id"`
	Cmd       protocol.Command `json:"cmd"`
}

type TickLogger interface {
	WriteTick(entry TickLogEntry) error
}

type AuditLogger interface {
	WriteAudit(entry AuditEntry) error
}

// SaveStore is the cloud save collaborator. It loads a character's
// inventory on join and stores it again on leave.
type SaveStore interface {
	Load(characterID string) (inventory.SaveData, bool, error)
	Save(data inventory.SaveData) error
}

type TickLogEntry struct {
	Tick     uint64            `json:"tick"`
	Joins    []RecordedJoin    `json:"joins,omitempty"`
	Leaves   []string          `json:"leaves,omitempty"`
	Commands []RecordedCommand `json:"commands,omitempty"`
	Digest   string            `json:"digest"`
}

type AuditEntry struct {
	Tick     uint64         `json:"tick"`
	Actor    string         `json:"actor"`
	Action   string         `json:"action"` // e.g. "SLOT", "GOLD", "PURCHASE"
	Index    int            `json:"index,omitempty"`
	From     items.ItemSlot `json:"from"`
	To       items.ItemSlot `json:"to"`
	GoldFrom int            `json:"gold_from,omitempty"`
	GoldTo   int            `json:"gold_to,omitempty"`
	Reason   string         `json:"reason,omitempty"`
}
