package world

import (
	"github.com/ThirdShiftStudios/FusionMMO-sub000/internal/protocol"
	"github.com/ThirdShiftStudios/FusionMMO-sub000/internal/sim/inventory"
	"github.com/ThirdShiftStudios/FusionMMO-sub000/internal/sim/resources"
	"github.com/ThirdShiftStudios/FusionMMO-sub000/internal/sim/vendor"
)

type outcome struct {
	Accepted  bool
	Status    string
	Code      string
	Message   string
	Remainder int
}

func itemOutcome(r inventory.Result) outcome {
	return outcome{Accepted: r.Status.Accepted(), Status: r.Status.String(), Code: r.Status.Code(), Remainder: r.Remainder}
}

func vendorOutcome(st vendor.Status) outcome {
	return outcome{Accepted: st == vendor.StatusOK, Status: st.String(), Code: st.Code()}
}

func nodeOutcome(st resources.Status) outcome {
	return outcome{Accepted: st == resources.StatusOK, Status: st.String(), Code: st.Code()}
}

func rejected(code, msg string) outcome {
	return outcome{Code: code, Message: msg}
}

// handleCommand validates that the session owns the character, drops
// duplicates, applies the command and answers with an ACK.
func (w *World) handleCommand(env CommandEnvelope, nowTick uint64) {
	s := w.sessions[env.SessionID]
	cmd := env.Cmd
	if cmd.CharacterID == "" {
		cmd.CharacterID = s.CharacterID
	}

	var out outcome
	switch {
	case !cmd.Type.Valid():
		out = rejected(protocol.ErrBadRequest, "unknown command type")
	case cmd.CharacterID != s.CharacterID:
		out = rejected(protocol.ErrNoPermission, "session does not own character")
	default:
		ch := w.characters[cmd.CharacterID]
		if ch == nil {
			out = rejected(protocol.ErrInvalidTarget, "character not found")
			break
		}
		if ack, dup := w.checkDedupe(ch.ID, cmd, nowTick); dup {
			w.send(s.ID, ack)
			return
		}
		out = w.apply(ch, cmd)
		ack := w.ack(cmd, out, nowTick)
		w.rememberAck(ch.ID, cmd, ack, nowTick)
		w.send(s.ID, ack)
		return
	}
	w.send(s.ID, w.ack(cmd, out, nowTick))
}

func (w *World) ack(cmd protocol.Command, out outcome, nowTick uint64) protocol.AckMsg {
	if out.Accepted {
		w.accepted++
	} else {
		w.rejected++
	}
	return protocol.AckMsg{
		Type:            protocol.TypeAck,
		ProtocolVersion: protocol.Version,
		AckFor:          cmd.ID,
		Accepted:        out.Accepted,
		Status:          out.Status,
		Code:            out.Code,
		Message:         out.Message,
		Remainder:       out.Remainder,
		ServerTick:      nowTick,
	}
}

// Apply runs cmd for the character on the authority, exactly as a remote
// request would be applied. Local callers use it to skip the inbox.
func (w *World) Apply(characterID string, cmd protocol.Command) (accepted bool, code string) {
	ch := w.characters[characterID]
	if ch == nil {
		return false, protocol.ErrInvalidTarget
	}
	out := w.apply(ch, cmd)
	return out.Accepted, out.Code
}

func (w *World) apply(ch *Character, cmd protocol.Command) outcome {
	if inventory.Handles(cmd.Type) {
		return itemOutcome(ch.Inv.Apply(cmd))
	}
	switch cmd.Type {
	case protocol.CmdPurchase, protocol.CmdSell:
		v := w.vendors[cmd.VendorID]
		if v == nil {
			return rejected(protocol.ErrInvalidTarget, "vendor not found")
		}
		var st vendor.Status
		if cmd.Type == protocol.CmdPurchase {
			st = v.Purchase(ch.Inv, cmd.Index)
		} else {
			st = v.Sell(ch.Inv, cmd.Index)
		}
		if st == vendor.StatusOK {
			w.audit(AuditEntry{Tick: w.tick.Load(), Actor: ch.ID, Action: string(cmd.Type), Index: cmd.Index, Reason: v.ID()})
		}
		return vendorOutcome(st)
	case protocol.CmdCraft:
		return vendorOutcome(vendor.Craft(w.catalogs.Recipes, cmd.RecipeID, ch.Inv, w.rollHash))
	case protocol.CmdBeginInteraction:
		n := w.nodes[cmd.NodeID]
		if n == nil {
			return rejected(protocol.ErrInvalidTarget, "node not found")
		}
		return nodeOutcome(w.beginInteraction(ch, n))
	case protocol.CmdCancelInteraction:
		if ch.Interacting == "" || (cmd.NodeID != "" && cmd.NodeID != ch.Interacting) {
			return nodeOutcome(resources.StatusNotInteracting)
		}
		w.endInteraction(ch)
		return nodeOutcome(resources.StatusOK)
	case protocol.CmdCollectPickup:
		return itemOutcome(w.collectPickup(ch, cmd.PickupID))
	}
	return rejected(protocol.ErrBadRequest, "unsupported command")
}
