package world

import (
	"fmt"
	"math"
	"sort"

	"github.com/ThirdShiftStudios/FusionMMO-sub000/internal/sim/inventory"
	"github.com/ThirdShiftStudios/FusionMMO-sub000/internal/sim/items"
)

// goldenAngle spreads consecutive drops around the owner.
const goldenAngle = 2.399963229728653

// Pickup is an item lying in the world. It can be collected once landed.
type Pickup struct {
	ID     string
	Owner  string
	Item   items.ItemSlot
	Pos    [2]float64
	Landed bool

	landDue uint64
}

// DropItem implements inventory.Dropper.
func (w *World) DropItem(owner string, item items.ItemSlot) {
	if item.IsEmpty() {
		return
	}
	n := w.nextPickupNum.Add(1)
	var base [2]float64
	if ch := w.characters[owner]; ch != nil {
		base = ch.Pos
	}
	r := w.tun.Pickups.ScatterRadius
	a := float64(n) * goldenAngle
	p := &Pickup{
		ID:    fmt.Sprintf("P%06d", n),
		Owner: owner,
		Item:  item,
		Pos:   [2]float64{base[0] + r*math.Cos(a), base[1] + r*math.Sin(a)},
	}
	w.pickups[p.ID] = p
	w.scheduleLanding(p, w.tun.Pickups.LandingDelaySteps)
}

func (w *World) scheduleLanding(p *Pickup, steps int) {
	steps = max(steps, 1)
	p.landDue = w.deferred.Step() + uint64(steps)
	id := p.ID
	w.deferred.After(steps, func() {
		if p := w.pickups[id]; p != nil {
			p.Landed = true
		}
	})
}

// collectPickup moves a landed pickup into the inventory. Whatever does
// not fit stays on the ground.
func (w *World) collectPickup(ch *Character, id string) inventory.Result {
	p := w.pickups[id]
	if p == nil {
		return inventory.Result{Status: inventory.StatusInvalidIndex}
	}
	if !p.Landed {
		return inventory.Result{Status: inventory.StatusInvalidState, Remainder: int(p.Item.Quantity)}
	}
	rem, st := ch.Inv.AddItem(p.Item.DefinitionID, int(p.Item.Quantity), p.Item.Hash)
	if rem == 0 {
		delete(w.pickups, id)
	} else {
		p.Item = p.Item.WithQuantity(rem)
	}
	return inventory.Result{Status: st, Remainder: rem}
}

// Pickups lists the pickups in id order.
func (w *World) Pickups() []Pickup {
	ids := make([]string, 0, len(w.pickups))
	for id := range w.pickups {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out := make([]Pickup, 0, len(ids))
	for _, id := range ids {
		out = append(out, *w.pickups[id])
	}
	return out
}
