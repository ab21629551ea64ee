package world

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/ThirdShiftStudios/FusionMMO-sub000/internal/protocol"
)

// buildState is the per-tick STATE broadcast. All lists are in id order so
// the same world always encodes to the same bytes.
func (w *World) buildState(nowTick uint64) protocol.StateMsg {
	st := protocol.StateMsg{
		Type:            protocol.TypeState,
		ProtocolVersion: protocol.Version,
		Tick:            nowTick,
		Characters:      []protocol.InventoryState{},
	}
	for _, ch := range w.sortedCharacters() {
		st.Characters = append(st.Characters, ch.Inv.State())
	}
	for _, id := range w.vendorOrder {
		st.Vendors = append(st.Vendors, w.vendors[id].State())
	}
	for _, id := range w.nodeOrder {
		st.Nodes = append(st.Nodes, w.nodes[id].Snapshot())
	}
	for _, p := range w.Pickups() {
		st.Pickups = append(st.Pickups, protocol.PickupState{ID: p.ID, Item: p.Item, Pos: p.Pos, Landed: p.Landed})
	}
	return st
}

// State returns the STATE message for the current tick.
func (w *World) State() protocol.StateMsg { return w.buildState(w.tick.Load()) }

// digestState hashes the replicated state. Entity ids are left out: they
// are runtime handles that are issued again when a snapshot is loaded.
func digestState(st protocol.StateMsg) string {
	chars := make([]protocol.InventoryState, len(st.Characters))
	for i, c := range st.Characters {
		c.HotbarEntities = nil
		tools := make([]protocol.ToolState, len(c.Tools))
		for j, t := range c.Tools {
			t.EntityID = ""
			tools[j] = t
		}
		c.Tools = tools
		chars[i] = c
	}
	st.Characters = chars
	b, _ := json.Marshal(st)
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// StateDigest is the digest of the current replicated state.
func (w *World) StateDigest() string { return digestState(w.State()) }
