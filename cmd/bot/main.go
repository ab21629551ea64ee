package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/ThirdShiftStudios/FusionMMO-sub000/internal/protocol"
	"github.com/ThirdShiftStudios/FusionMMO-sub000/internal/sim/catalogs"
	"github.com/ThirdShiftStudios/FusionMMO-sub000/internal/sim/inventory"
	"github.com/ThirdShiftStudios/FusionMMO-sub000/internal/sim/items"
	"github.com/ThirdShiftStudios/FusionMMO-sub000/internal/sim/peer"
	"github.com/ThirdShiftStudios/FusionMMO-sub000/internal/sim/resources"
	"github.com/ThirdShiftStudios/FusionMMO-sub000/internal/transport/ws"
)

func main() {
	var (
		url       = flag.String("url", "ws://localhost:8080/v1/ws", "ws url")
		name      = flag.String("name", "bot", "character name")
		character = flag.String("character", "", "character id to take over (optional)")
		configDir = flag.String("configs", "./configs", "config directory (must match the server)")
		vendorID  = flag.String("vendor", "general_store", "vendor to buy the tool from")
		toolName  = flag.String("tool", "Wood Axe", "tool to buy before harvesting")
		nodeID    = flag.String("node", "tree_1", "resource node to harvest")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[bot] ", log.LstdFlags|log.Lmicroseconds)

	cats, err := catalogs.Load(filepath.Clean(*configDir))
	if err != nil {
		logger.Fatalf("load catalogs: %v", err)
	}
	tool, ok := cats.Items.ByNameFold(*toolName)
	if !ok {
		logger.Fatalf("unknown tool %q (did you mean %v?)", *toolName, cats.Items.Suggest(*toolName, 3))
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	dialCtx, dialCancel := context.WithTimeout(ctx, 10*time.Second)
	c, err := ws.Dial(dialCtx, *url, *name, *character)
	dialCancel()
	if err != nil {
		logger.Fatalf("dial: %v", err)
	}
	defer c.Close()
	wel := c.Welcome()
	logger.Printf("WELCOME character=%s session=%s tick_rate=%d seed=%d", wel.CharacterID, wel.SessionID, wel.WorldParams.TickRateHz, wel.WorldParams.Seed)
	if wel.Catalogs.ItemsDigest != cats.Items.Digest {
		logger.Printf("warning: item catalog digest differs from server")
	}

	b := &bot{log: logger, vendorID: *vendorID, tool: tool, nodeID: *nodeID}
	p, err := peer.New(peer.Config{
		CharacterID: wel.CharacterID,
		Catalogs:    cats,
		Sender:      c,
		Logger:      logger,
		Hooks: peer.Hooks{
			NodeChanged: func(prev, next protocol.NodeState) {
				if next.ID == b.nodeID && prev.State != next.State {
					logger.Printf("node %s %s -> %s", next.ID, prev.State, next.State)
				}
			},
			PickupLanded: func(ps protocol.PickupState) { b.landed = append(b.landed, ps.ID) },
			Ack: func(ack protocol.AckMsg) {
				b.waiting = false
				if !ack.Accepted {
					logger.Printf("rejected %s: %s %s", ack.AckFor, ack.Code, ack.Message)
				}
			},
		},
	})
	if err != nil {
		logger.Fatalf("peer: %v", err)
	}
	b.p = p

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-c.Messages():
			if !ok {
				logger.Printf("disconnected: %v", c.Err())
				return
			}
			if err := p.HandleMessage(msg); err != nil {
				logger.Printf("message: %v", err)
				continue
			}
			p.Step()
			b.act()
		}
	}
}

// bot buys a tool once and then keeps harvesting one node, collecting the
// pickups that land near it.
type bot struct {
	p   *peer.Peer
	log *log.Logger

	vendorID string
	tool     items.Definition
	nodeID   string

	bought  bool
	waiting bool
	landed  []string
}

func (b *bot) act() {
	if b.waiting {
		return
	}
	if len(b.landed) > 0 {
		id := b.landed[0]
		b.landed = b.landed[1:]
		b.request("collect "+id, b.p.CollectPickup(id))
		return
	}
	inv := b.p.Inventory()
	st := inv.Store()
	if !b.bought {
		if st.CountOf(b.tool.ID) > 0 {
			b.bought = true
		} else if slot := b.stockSlot(); slot >= 0 && inv.Gold() >= b.tool.BuyPrice {
			b.bought = true
			b.request("purchase "+b.tool.Name, b.p.Purchase(b.vendorID, slot))
			return
		}
	}
	n, ok := b.p.Node(b.nodeID)
	if !ok || n.State() != resources.Available {
		return
	}
	b.request("harvest "+b.nodeID, b.p.BeginInteraction(b.nodeID))
}

func (b *bot) stockSlot() int {
	v, ok := b.p.Vendor(b.vendorID)
	if !ok {
		return -1
	}
	for i, it := range v.Stock() {
		if it.DefinitionID == b.tool.ID && !it.IsEmpty() {
			return i
		}
	}
	return -1
}

func (b *bot) request(what string, st inventory.ItemStatus) {
	b.log.Printf("%s: %s", what, st)
	b.waiting = st == inventory.StatusPending
}
