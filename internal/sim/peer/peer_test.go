package peer

import (
	"testing"

	"github.com/ThirdShiftStudios/FusionMMO-sub000/internal/protocol"
	"github.com/ThirdShiftStudios/FusionMMO-sub000/internal/sim/catalogs"
	"github.com/ThirdShiftStudios/FusionMMO-sub000/internal/sim/inventory"
	"github.com/ThirdShiftStudios/FusionMMO-sub000/internal/sim/items"
	"github.com/ThirdShiftStudios/FusionMMO-sub000/internal/sim/resources"
	"github.com/ThirdShiftStudios/FusionMMO-sub000/internal/sim/tuning"
	"github.com/ThirdShiftStudios/FusionMMO-sub000/internal/sim/world"
)

const (
	itemWood  = 1
	itemBread = 5
)

type harness struct {
	w    *world.World
	p    *Peer
	out  chan []byte
	acks []protocol.AckMsg
}

func newHarness(t *testing.T, hooks Hooks) *harness {
	t.Helper()
	cats, err := catalogs.Load("../../../configs")
	if err != nil {
		t.Fatalf("load catalogs: %v", err)
	}
	tun := tuning.Defaults()
	tun.Inventory.StarterGold = 100
	tun.Inventory.StarterItems = []tuning.ItemCount{{Item: itemBread, Count: 3}}
	w, err := world.New(world.WorldConfig{ID: "test", Seed: 3, Tuning: tun}, cats, nil)
	if err != nil {
		t.Fatalf("new world: %v", err)
	}

	h := &harness{w: w, out: make(chan []byte, 256)}
	resp := make(chan world.JoinResponse, 1)
	w.StepOnce([]world.JoinRequest{{Name: "p1", Out: h.out, Resp: resp}}, nil, nil)
	r := <-resp
	if r.Code != "" {
		t.Fatalf("join: %s", r.Code)
	}

	userAck := hooks.Ack
	hooks.Ack = func(ack protocol.AckMsg) {
		h.acks = append(h.acks, ack)
		if userAck != nil {
			userAck(ack)
		}
	}
	h.p, err = New(Config{
		CharacterID: r.Welcome.CharacterID,
		Catalogs:    cats,
		Fishing:     tun.Fishing,
		Sender:      world.LocalSender{World: w, SessionID: r.Welcome.SessionID},
		Hooks:       hooks,
	})
	if err != nil {
		t.Fatalf("new peer: %v", err)
	}
	h.pump(t)
	return h
}

// pump runs one authority tick over everything the peer sent, feeds the
// resulting messages back and steps the peer.
func (h *harness) pump(t *testing.T) {
	t.Helper()
	h.w.StepOnce(nil, nil, h.w.DrainInbox())
	for {
		select {
		case b := <-h.out:
			if err := h.p.HandleMessage(b); err != nil {
				t.Fatalf("handle: %v", err)
			}
		default:
			h.p.Step()
			return
		}
	}
}

func (h *harness) lastAck(t *testing.T) protocol.AckMsg {
	t.Helper()
	if len(h.acks) == 0 {
		t.Fatalf("expected an ack")
	}
	return h.acks[len(h.acks)-1]
}

func TestProxyMutationRoundTrip(t *testing.T) {
	var changed []int
	h := newHarness(t, Hooks{Inventory: inventory.Hooks{
		SlotChanged: func(index int, prev, next items.ItemSlot) {
			if next.DefinitionID == itemWood {
				changed = append(changed, index)
			}
		},
	}})
	inv := h.p.Inventory()
	if st := inv.Store(); st.CountOf(itemBread) != 3 || inv.Gold() != 100 {
		t.Fatalf("expected starter kit mirrored, got bread=%d gold=%d", st.CountOf(itemBread), inv.Gold())
	}

	if _, st := inv.AddItem(itemWood, 4, items.ConfigHash{}); st != inventory.StatusPending {
		t.Fatalf("expected pending, got %s", st)
	}
	if st := inv.Store(); st.CountOf(itemWood) != 0 {
		t.Fatalf("expected proxy unchanged before the authority answers")
	}
	h.pump(t)
	if st := inv.Store(); st.CountOf(itemWood) != 4 {
		t.Fatalf("expected 4 wood mirrored, got %d", st.CountOf(itemWood))
	}
	if len(changed) != 1 {
		t.Fatalf("expected one wood slot change, got %v", changed)
	}
	if ack := h.lastAck(t); !ack.Accepted {
		t.Fatalf("expected accepted ack, got %+v", ack)
	}
}

func TestPurchaseMirrorsVendorAndGold(t *testing.T) {
	h := newHarness(t, Hooks{})
	if st := h.p.Purchase("general_store", 3); st != inventory.StatusPending {
		t.Fatalf("expected pending, got %s", st)
	}
	h.pump(t)

	v, ok := h.p.Vendor("general_store")
	if !ok {
		t.Fatalf("expected vendor mirror")
	}
	if !v.Stock()[3].IsEmpty() {
		t.Fatalf("expected last wood axe gone from mirror, got %+v", v.Stock()[3])
	}
	if g := h.p.Inventory().Gold(); g != 75 {
		t.Fatalf("expected 75 gold, got %d", g)
	}

	// The same slot again is out of stock.
	h.p.Purchase("general_store", 3)
	h.pump(t)
	if ack := h.lastAck(t); ack.Accepted || ack.Code != protocol.ErrNoResource {
		t.Fatalf("expected E_NO_RESOURCE, got %+v", ack)
	}
}

func TestNodeMirrorResolvesAgent(t *testing.T) {
	var transitions []string
	h := newHarness(t, Hooks{NodeChanged: func(prev, next protocol.NodeState) {
		if next.ID == "rock_1" {
			transitions = append(transitions, next.State)
		}
	}})
	h.p.BeginInteraction("rock_1")
	h.pump(t)

	n, _ := h.p.Node("rock_1")
	if n.State() != resources.Occupied {
		t.Fatalf("expected rock occupied, got %s", n.State())
	}
	a, ok := n.Agent()
	if !ok || a.AgentID() != h.p.CharacterID() {
		t.Fatalf("expected agent to resolve to the local character")
	}
	if len(transitions) == 0 || transitions[len(transitions)-1] != "OCCUPIED" {
		t.Fatalf("expected OCCUPIED transition, got %v", transitions)
	}

	h.p.CancelInteraction("rock_1")
	h.pump(t)
	if n.State() != resources.Available {
		t.Fatalf("expected rock available after cancel, got %s", n.State())
	}
	if _, ok := n.Agent(); ok {
		t.Fatalf("expected no agent after cancel")
	}
}

func TestPickupLifecycleHooks(t *testing.T) {
	var added, landed, removed int
	h := newHarness(t, Hooks{
		PickupAdded:   func(protocol.PickupState) { added++ },
		PickupLanded:  func(protocol.PickupState) { landed++ },
		PickupRemoved: func(string) { removed++ },
	})
	h.p.Inventory().DropInventoryItem(0)
	h.pump(t)
	if added != 1 || landed != 0 {
		t.Fatalf("expected airborne pickup, got added=%d landed=%d", added, landed)
	}

	h.pump(t)
	if landed != 1 {
		t.Fatalf("expected pickup landed, got %d", landed)
	}

	ps := h.p.Pickups()
	if len(ps) != 1 {
		t.Fatalf("expected one pickup, got %d", len(ps))
	}
	h.p.CollectPickup(ps[0].ID)
	h.pump(t)
	if removed != 1 || len(h.p.Pickups()) != 0 {
		t.Fatalf("expected pickup removed, got removed=%d", removed)
	}
	if st := h.p.Inventory().Store(); st.CountOf(itemBread) != 3 {
		t.Fatalf("expected bread back, got %d", st.CountOf(itemBread))
	}
}

func TestStaleStateIgnored(t *testing.T) {
	h := newHarness(t, Hooks{})
	now := h.p.Tick()
	if h.p.Apply(protocol.StateMsg{Tick: now - 1}) {
		t.Fatalf("expected older state ignored")
	}
	if h.p.Inventory().Gold() != 100 {
		t.Fatalf("expected mirror untouched by stale state")
	}
}

func TestPeerWithoutSenderCannotRequest(t *testing.T) {
	cats, err := catalogs.Load("../../../configs")
	if err != nil {
		t.Fatalf("load catalogs: %v", err)
	}
	p, err := New(Config{CharacterID: "C1", Catalogs: cats})
	if err != nil {
		t.Fatalf("new peer: %v", err)
	}
	if st := p.Purchase("general_store", 0); st != inventory.StatusNotAuthority {
		t.Fatalf("expected NOT_AUTHORITY, got %s", st)
	}
}

func TestAfterRunsOnLaterStep(t *testing.T) {
	h := newHarness(t, Hooks{})
	ran := false
	h.p.After(2, func() { ran = true })
	h.p.Step()
	if ran {
		t.Fatalf("expected callback deferred")
	}
	h.p.Step()
	if !ran {
		t.Fatalf("expected callback on second step")
	}
}
