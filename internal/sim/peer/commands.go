package peer

import (
	"github.com/google/uuid"

	"github.com/ThirdShiftStudios/FusionMMO-sub000/internal/protocol"
	"github.com/ThirdShiftStudios/FusionMMO-sub000/internal/sim/inventory"
)

// send forwards a world-level request for the local character. The outcome
// arrives as an ACK and, on success, in a later STATE.
func (p *Peer) send(cmd protocol.Command) inventory.ItemStatus {
	if p.sender == nil || p.characterID == "" {
		return inventory.StatusNotAuthority
	}
	cmd.ID = uuid.NewString()
	cmd.CharacterID = p.characterID
	if err := p.sender.Send(cmd); err != nil {
		p.log.Printf("send %s: %v", cmd.Type, err)
		return inventory.StatusNotAuthority
	}
	return inventory.StatusPending
}

func (p *Peer) Purchase(vendorID string, slot int) inventory.ItemStatus {
	return p.send(protocol.Command{Type: protocol.CmdPurchase, VendorID: vendorID, Index: slot})
}

func (p *Peer) Sell(vendorID string, index int) inventory.ItemStatus {
	return p.send(protocol.Command{Type: protocol.CmdSell, VendorID: vendorID, Index: index})
}

func (p *Peer) Craft(recipeID string) inventory.ItemStatus {
	return p.send(protocol.Command{Type: protocol.CmdCraft, RecipeID: recipeID})
}

func (p *Peer) BeginInteraction(nodeID string) inventory.ItemStatus {
	return p.send(protocol.Command{Type: protocol.CmdBeginInteraction, NodeID: nodeID})
}

func (p *Peer) CancelInteraction(nodeID string) inventory.ItemStatus {
	return p.send(protocol.Command{Type: protocol.CmdCancelInteraction, NodeID: nodeID})
}

func (p *Peer) CollectPickup(id string) inventory.ItemStatus {
	return p.send(protocol.Command{Type: protocol.CmdCollectPickup, PickupID: id})
}
