package world

import (
	"github.com/ThirdShiftStudios/FusionMMO-sub000/internal/sim/inventory"
	"github.com/ThirdShiftStudios/FusionMMO-sub000/internal/sim/items"
	"github.com/ThirdShiftStudios/FusionMMO-sub000/internal/sim/resources"
)

// beginInteraction starts work on a node. The node's tool is raised when
// the character carries one; without it the character works bare-handed.
func (w *World) beginInteraction(ch *Character, n *resources.Node) resources.Status {
	nodeID := n.ID()
	if ch.Interacting != "" && ch.Interacting != nodeID {
		w.endInteraction(ch)
	}
	tool := n.Def().Tool
	raised := false
	if inventory.IsTool(tool) {
		if info, _ := ch.Inv.Tool(tool); !info.Equipped {
			raised = ch.Inv.BeginToolUse(tool) == inventory.StatusOK
		}
	}
	st := n.Begin(ch)
	if st != resources.StatusOK {
		if raised {
			ch.Inv.EndToolUse(tool)
		}
		return st
	}
	ch.Interacting = nodeID
	return st
}

func (w *World) endInteraction(ch *Character) {
	if ch.Interacting == "" {
		return
	}
	if n := w.nodes[ch.Interacting]; n != nil {
		n.Cancel(ch.ID)
		w.lowerTool(ch, n.Def().Tool)
	}
	ch.Interacting = ""
}

func (w *World) lowerTool(ch *Character, tool items.Category) {
	if info, ok := ch.Inv.Tool(tool); ok && info.Equipped {
		ch.Inv.EndToolUse(tool)
	}
}

// systemNodes advances every node and pays out completed interactions.
func (w *World) systemNodes() {
	dt := w.tun.TickSeconds()
	for _, id := range w.nodeOrder {
		n := w.nodes[id]
		y, done := n.Tick(dt)
		if done {
			if ch := w.characters[y.AgentID]; ch != nil {
				ch.Inv.GiveOrDrop(y.DefinitionID, y.Quantity, w.rollHash(y.DefinitionID))
			}
		}
		// Release characters whose interaction ended this tick.
		for _, ch := range w.sortedCharacters() {
			if ch.Interacting == id && n.AgentRef() != ch.ID {
				w.lowerTool(ch, n.Def().Tool)
				ch.Interacting = ""
			}
		}
	}
}
