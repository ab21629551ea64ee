// Package peer holds the read-only mirror a proxy keeps of the authority:
// every character's inventory, vendors, nodes and pickups, refreshed from
// STATE messages and observed once per step.
package peer

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"sort"

	"github.com/google/uuid"

	"github.com/ThirdShiftStudios/FusionMMO-sub000/internal/protocol"
	"github.com/ThirdShiftStudios/FusionMMO-sub000/internal/sim/catalogs"
	"github.com/ThirdShiftStudios/FusionMMO-sub000/internal/sim/inventory"
	"github.com/ThirdShiftStudios/FusionMMO-sub000/internal/sim/items"
	"github.com/ThirdShiftStudios/FusionMMO-sub000/internal/sim/replication"
	"github.com/ThirdShiftStudios/FusionMMO-sub000/internal/sim/resources"
	"github.com/ThirdShiftStudios/FusionMMO-sub000/internal/sim/tuning"
	"github.com/ThirdShiftStudios/FusionMMO-sub000/internal/sim/vendor"
)

// Hooks receive change events during Step. Any hook may be nil.
type Hooks struct {
	// Inventory hooks are attached to the local character only.
	Inventory     inventory.Hooks
	NodeChanged   func(prev, next protocol.NodeState)
	PickupAdded   func(p protocol.PickupState)
	PickupLanded  func(p protocol.PickupState)
	PickupRemoved func(id string)
	Ack           func(ack protocol.AckMsg)
}

type Config struct {
	CharacterID string
	Catalogs    *catalogs.Catalogs
	Fishing     tuning.Fishing
	Sender      inventory.Sender
	Logger      *log.Logger
	Hooks       Hooks
}

type Peer struct {
	characterID string
	cats        *catalogs.Catalogs
	fishing     tuning.Fishing
	sender      inventory.Sender
	log         *log.Logger
	hooks       Hooks

	tick    uint64
	applied bool

	inventories map[string]*inventory.Inventory
	vendors     map[string]*vendor.Vendor
	nodes       map[string]*resources.Node
	nodeOrder   []string
	pickups     map[string]protocol.PickupState

	nodeShadows map[string]*replication.ValueShadow[protocol.NodeState]
	seenPickups map[string]protocol.PickupState

	deferred replication.DeferredQueue
}

func New(cfg Config) (*Peer, error) {
	if cfg.Catalogs == nil {
		return nil, fmt.Errorf("peer: nil catalogs")
	}
	if cfg.Logger == nil {
		cfg.Logger = log.New(io.Discard, "", 0)
	}
	p := &Peer{
		characterID: cfg.CharacterID,
		cats:        cfg.Catalogs,
		fishing:     cfg.Fishing,
		sender:      cfg.Sender,
		log:         cfg.Logger,
		hooks:       cfg.Hooks,
		inventories: map[string]*inventory.Inventory{},
		vendors:     map[string]*vendor.Vendor{},
		nodes:       map[string]*resources.Node{},
		pickups:     map[string]protocol.PickupState{},
		nodeShadows: map[string]*replication.ValueShadow[protocol.NodeState]{},
		seenPickups: map[string]protocol.PickupState{},
	}
	for _, def := range cfg.Catalogs.Vendors.Vendors {
		p.vendors[def.ID] = vendor.New(def, &cfg.Catalogs.Items, replication.RoleProxy)
	}
	for _, def := range cfg.Catalogs.Resources.Nodes {
		n := resources.NewNode(def, replication.RoleProxy)
		n.Resolve = p.resolveAgent
		p.nodes[def.ID] = n
		p.nodeShadows[def.ID] = &replication.ValueShadow[protocol.NodeState]{}
		p.nodeOrder = append(p.nodeOrder, def.ID)
	}
	sort.Strings(p.nodeOrder)
	if p.characterID != "" {
		p.mirror(p.characterID)
	}
	return p, nil
}

func (p *Peer) CharacterID() string { return p.characterID }
func (p *Peer) Tick() uint64        { return p.tick }

// Inventory is the local character's proxy inventory. Its mutators forward
// to the authority.
func (p *Peer) Inventory() *inventory.Inventory { return p.inventories[p.characterID] }

// Character returns the mirror of any replicated character.
func (p *Peer) Character(id string) (*inventory.Inventory, bool) {
	inv, ok := p.inventories[id]
	return inv, ok
}

func (p *Peer) Vendor(id string) (*vendor.Vendor, bool) {
	v, ok := p.vendors[id]
	return v, ok
}

func (p *Peer) Node(id string) (*resources.Node, bool) {
	n, ok := p.nodes[id]
	return n, ok
}

// Pickups lists the mirrored pickups in id order.
func (p *Peer) Pickups() []protocol.PickupState {
	out := make([]protocol.PickupState, 0, len(p.pickups))
	for _, pk := range p.pickups {
		out = append(out, pk)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (p *Peer) mirror(id string) *inventory.Inventory {
	if inv, ok := p.inventories[id]; ok {
		return inv
	}
	cfg := inventory.Config{
		CharacterID: id,
		Role:        replication.RoleProxy,
		Defs:        &p.cats.Items,
		Fishing:     p.fishing,
	}
	if id == p.characterID {
		cfg.Sender = p.sender
		cfg.NewCommandID = uuid.NewString
	}
	inv := inventory.New(cfg)
	if id == p.characterID {
		inv.SetHooks(p.hooks.Inventory)
	}
	p.inventories[id] = inv
	return inv
}

// HandleMessage routes one authority message.
func (p *Peer) HandleMessage(b []byte) error {
	base, err := protocol.DecodeBase(b)
	if err != nil {
		return fmt.Errorf("peer: decode: %w", err)
	}
	switch base.Type {
	case protocol.TypeState:
		var st protocol.StateMsg
		if err := json.Unmarshal(b, &st); err != nil {
			return fmt.Errorf("peer: decode state: %w", err)
		}
		p.Apply(st)
	case protocol.TypeAck:
		var ack protocol.AckMsg
		if err := json.Unmarshal(b, &ack); err != nil {
			return fmt.Errorf("peer: decode ack: %w", err)
		}
		if !ack.Accepted {
			p.log.Printf("command %s rejected: %s %s", ack.AckFor, ack.Code, ack.Status)
		}
		if p.hooks.Ack != nil {
			p.hooks.Ack(ack)
		}
	}
	return nil
}

// Apply mirrors one STATE. Older ticks than the last applied are ignored.
func (p *Peer) Apply(st protocol.StateMsg) bool {
	if p.applied && st.Tick < p.tick {
		return false
	}
	p.tick = st.Tick
	p.applied = true

	live := make(map[string]bool, len(st.Characters))
	for _, cs := range st.Characters {
		live[cs.CharacterID] = true
		p.mirror(cs.CharacterID).ApplyState(cs)
	}
	for id := range p.inventories {
		if !live[id] && id != p.characterID {
			delete(p.inventories, id)
		}
	}
	for _, vs := range st.Vendors {
		if v := p.vendors[vs.ID]; v != nil {
			v.ApplyState(vs)
		}
	}
	for _, ns := range st.Nodes {
		if n := p.nodes[ns.ID]; n != nil {
			n.ApplySnapshot(ns)
		}
	}
	p.pickups = make(map[string]protocol.PickupState, len(st.Pickups))
	for _, pk := range st.Pickups {
		p.pickups[pk.ID] = pk
	}
	return true
}

// Step runs the per-step observation: inventory diffs, node and pickup
// transitions, then deferred callbacks.
func (p *Peer) Step() int {
	n := 0
	ids := make([]string, 0, len(p.inventories))
	for id := range p.inventories {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		n += p.inventories[id].Observe()
	}

	for _, id := range p.nodeOrder {
		cur := p.nodes[id].Snapshot()
		if p.nodeShadows[id].Scan(cur, p.hooks.NodeChanged) {
			n++
		}
	}

	for _, pk := range p.Pickups() {
		prev, seen := p.seenPickups[pk.ID]
		switch {
		case !seen:
			n++
			if p.hooks.PickupAdded != nil {
				p.hooks.PickupAdded(pk)
			}
			if pk.Landed && p.hooks.PickupLanded != nil {
				p.hooks.PickupLanded(pk)
			}
		case pk.Landed && !prev.Landed:
			n++
			if p.hooks.PickupLanded != nil {
				p.hooks.PickupLanded(pk)
			}
		}
		p.seenPickups[pk.ID] = pk
	}
	for id := range p.seenPickups {
		if _, ok := p.pickups[id]; !ok {
			delete(p.seenPickups, id)
			n++
			if p.hooks.PickupRemoved != nil {
				p.hooks.PickupRemoved(id)
			}
		}
	}

	n += p.deferred.Drain()
	return n
}

// After schedules fn on the steps-th Step from now, for callbacks that must
// wait until replicated state has caught up.
func (p *Peer) After(steps int, fn func()) { p.deferred.After(steps, fn) }

type mirrorAgent struct {
	p  *Peer
	id string
}

func (a mirrorAgent) AgentID() string { return a.id }

func (a mirrorAgent) Valid() bool {
	_, ok := a.p.inventories[a.id]
	return ok
}

func (a mirrorAgent) ToolSpeed(tool items.Category) float64 {
	inv, ok := a.p.inventories[a.id]
	if !ok || !inventory.IsTool(tool) {
		return 0
	}
	return inv.ToolSpeed(tool)
}

func (p *Peer) resolveAgent(id string) (resources.Agent, bool) {
	if _, ok := p.inventories[id]; !ok {
		return nil, false
	}
	return mirrorAgent{p: p, id: id}, true
}
