// Package resources implements the harvest/mining state machine of a single
// resource node.
package resources

import (
	"github.com/ThirdShiftStudios/FusionMMO-sub000/internal/protocol"
	"github.com/ThirdShiftStudios/FusionMMO-sub000/internal/sim/catalogs"
	"github.com/ThirdShiftStudios/FusionMMO-sub000/internal/sim/items"
	"github.com/ThirdShiftStudios/FusionMMO-sub000/internal/sim/replication"
)

type State uint8

const (
	Available State = iota
	Occupied
	Depleted
	Respawning
)

var stateNames = [...]string{
	Available:  "AVAILABLE",
	Occupied:   "OCCUPIED",
	Depleted:   "DEPLETED",
	Respawning: "RESPAWNING",
}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "UNKNOWN"
}

func ParseState(s string) State {
	for i, n := range stateNames {
		if n == s {
			return State(i)
		}
	}
	return Available
}

// Agent is whoever works a node. Valid turns false on despawn or
// disconnect; ToolSpeed is the bonus of the tool the agent has raised.
type Agent interface {
	AgentID() string
	Valid() bool
	ToolSpeed(tool items.Category) float64
}

// Yield is what a completed interaction hands to its agent.
type Yield struct {
	AgentID      string
	DefinitionID int
	Quantity     int
}

type Status uint8

const (
	StatusOK Status = iota
	StatusNotAuthority
	StatusBusy
	StatusDepleted
	StatusInvalidAgent
	StatusNotInteracting
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "OK"
	case StatusNotAuthority:
		return "NOT_AUTHORITY"
	case StatusBusy:
		return "BUSY"
	case StatusDepleted:
		return "DEPLETED"
	case StatusInvalidAgent:
		return "INVALID_AGENT"
	case StatusNotInteracting:
		return "NOT_INTERACTING"
	}
	return "UNKNOWN"
}

func (s Status) Code() string {
	switch s {
	case StatusOK:
		return ""
	case StatusNotAuthority:
		return protocol.ErrNoPermission
	case StatusBusy:
		return protocol.ErrConflict
	case StatusDepleted:
		return protocol.ErrNoResource
	case StatusInvalidAgent, StatusNotInteracting:
		return protocol.ErrInvalidTarget
	}
	return protocol.ErrInternal
}

// Node is one harvestable node. Only the authority advances progress and
// timers; proxies read the replicated scalars and resolve the agent from
// AgentRef through a local lookup.
type Node struct {
	def  catalogs.NodeDef
	role replication.Role

	state        State
	progress     float64
	respawnTimer float64
	agent        replication.Ref[Agent]

	// ToolMultiplier scales the tool speed bonus.
	ToolMultiplier float64
	// Resolve finds a live agent by id on this peer.
	Resolve func(id string) (Agent, bool)
}

func NewNode(def catalogs.NodeDef, role replication.Role) *Node {
	return &Node{def: def, role: role, ToolMultiplier: 1}
}

func (n *Node) ID() string { return n.def.ID }
func (n *Node) Def() catalogs.NodeDef { return n.def }
func (n *Node) State() State { return n.state }
func (n *Node) Progress() float64 { return n.progress }
func (n *Node) IsDepleted() bool { return n.state == Depleted || n.state == Respawning }
func (n *Node) RespawnTimer() float64 { return n.respawnTimer }
func (n *Node) AgentRef() string { return n.agent.ID() }

// Agent resolves the interacting agent lazily and caches it.
func (n *Node) Agent() (Agent, bool) {
	return n.agent.Get(n.Resolve, Agent.Valid)
}

// Begin starts an interaction. A second agent is rejected, never queued.
func (n *Node) Begin(a Agent) Status {
	if !n.role.IsAuthority() {
		return StatusNotAuthority
	}
	if a == nil || !a.Valid() {
		return StatusInvalidAgent
	}
	switch n.state {
	case Depleted, Respawning:
		return StatusDepleted
	case Occupied:
		if n.agent.ID() == a.AgentID() {
			return StatusOK
		}
		return StatusBusy
	}
	n.state = Occupied
	n.progress = 0
	n.agent.Bind(a.AgentID(), a)
	return StatusOK
}

// Cancel stops the interaction of agentID and discards its progress.
func (n *Node) Cancel(agentID string) Status {
	if !n.role.IsAuthority() {
		return StatusNotAuthority
	}
	if n.state != Occupied || n.agent.ID() != agentID {
		return StatusNotInteracting
	}
	n.release()
	return StatusOK
}

func (n *Node) release() {
	n.state = Available
	n.progress = 0
	n.agent.Clear()
}

// Tick advances the node by dt seconds. It returns the yield when the
// interaction completes. An agent that is no longer valid cancels its
// interaction here, every tick.
func (n *Node) Tick(dt float64) (Yield, bool) {
	if !n.role.IsAuthority() {
		return Yield{}, false
	}
	switch n.state {
	case Occupied:
		a, ok := n.Agent()
		if !ok || !a.Valid() {
			n.release()
			return Yield{}, false
		}
		bonus := a.ToolSpeed(n.def.Tool) * n.ToolMultiplier
		n.progress += dt * (1 + bonus)
		if n.progress < n.def.RequiredSeconds {
			return Yield{}, false
		}
		y := Yield{AgentID: a.AgentID(), DefinitionID: n.def.YieldItem, Quantity: n.def.YieldCount}
		n.agent.Clear()
		n.progress = n.def.RequiredSeconds
		// Depleted is observable for one tick before the respawn countdown.
		n.state = Depleted
		n.respawnTimer = max(n.def.RespawnSeconds, 0)
		return y, true
	case Depleted:
		if n.def.RespawnSeconds <= 0 {
			return Yield{}, false
		}
		n.state = Respawning
		fallthrough
	case Respawning:
		n.respawnTimer -= dt
		if n.respawnTimer <= 0 {
			n.respawnTimer = 0
			n.release()
		}
	}
	return Yield{}, false
}

// Snapshot exports the replicated view.
func (n *Node) Snapshot() protocol.NodeState {
	return protocol.NodeState{
		ID:           n.def.ID,
		Kind:         n.def.Kind,
		State:        n.state.String(),
		Progress:     n.progress,
		Required:     n.def.RequiredSeconds,
		RespawnTimer: n.respawnTimer,
		AgentRef:     n.agent.ID(),
	}
}

// ApplySnapshot mirrors an authority broadcast on a proxy.
func (n *Node) ApplySnapshot(st protocol.NodeState) bool {
	if n.role.IsAuthority() || st.ID != n.def.ID {
		return false
	}
	n.state = ParseState(st.State)
	n.progress = st.Progress
	n.respawnTimer = st.RespawnTimer
	n.agent.Set(st.AgentRef)
	return true
}

// Restore overwrites authority state, used when loading a world snapshot.
func (n *Node) Restore(st protocol.NodeState) {
	n.state = ParseState(st.State)
	n.progress = st.Progress
	n.respawnTimer = st.RespawnTimer
	n.agent.Set(st.AgentRef)
}
