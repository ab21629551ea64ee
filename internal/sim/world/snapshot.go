package world

import (
	"fmt"

	"github.com/ThirdShiftStudios/FusionMMO-sub000/internal/persistence/snapshot"
	"github.com/ThirdShiftStudios/FusionMMO-sub000/internal/protocol"
)

func (w *World) ExportSnapshot(nowTick uint64) snapshot.SnapshotV1 {
	s := snapshot.SnapshotV1{
		Header:   snapshot.Header{Version: snapshot.Version, WorldID: w.cfg.ID, Tick: nowTick},
		Seed:     w.cfg.Seed,
		TickRate: w.tun.TickRateHz,
		Counters: snapshot.CountersV1{
			NextCharacter: w.nextCharacterNum.Load(),
			NextSession:   w.nextSessionNum.Load(),
			NextEntity:    w.nextEntityNum.Load(),
			NextPickup:    w.nextPickupNum.Load(),
			NextRoll:      w.nextRollNum.Load(),
		},
	}
	for _, ch := range w.sortedCharacters() {
		s.Characters = append(s.Characters, snapshot.CharacterV1{
			ID:   ch.ID,
			Name: ch.Name,
			Pos:  ch.Pos,
			Save: ch.Inv.CreateSaveData(),
		})
	}
	for _, id := range w.vendorOrder {
		s.Vendors = append(s.Vendors, snapshot.VendorV1{ID: id, Stock: w.vendors[id].Stock()})
	}
	for _, id := range w.nodeOrder {
		n := w.nodes[id].Snapshot()
		s.Nodes = append(s.Nodes, snapshot.NodeV1{
			ID:           n.ID,
			State:        n.State,
			Progress:     n.Progress,
			RespawnTimer: n.RespawnTimer,
			AgentRef:     n.AgentRef,
		})
	}
	step := w.deferred.Step()
	for _, p := range w.Pickups() {
		pv := snapshot.PickupV1{ID: p.ID, Owner: p.Owner, Item: p.Item, Pos: p.Pos, Landed: p.Landed}
		if !p.Landed && p.landDue > step {
			pv.LandsIn = int(p.landDue - step)
		}
		s.Pickups = append(s.Pickups, pv)
	}
	return s
}

// ImportSnapshot replaces the in-memory world state with the snapshot and
// resumes on the tick after it. Characters come back without a session and
// are claimed by the next join naming them.
//
// This must be called only when the world is stopped or from the world loop goroutine.
func (w *World) ImportSnapshot(s snapshot.SnapshotV1) error {
	if s.Header.Version != snapshot.Version {
		return fmt.Errorf("unsupported snapshot version: %d", s.Header.Version)
	}
	if w.cfg.Seed != s.Seed {
		return fmt.Errorf("snapshot seed mismatch: cfg=%d snap=%d", w.cfg.Seed, s.Seed)
	}
	if len(w.sessions) > 0 {
		return fmt.Errorf("snapshot import with %d live sessions", len(w.sessions))
	}
	for _, ch := range w.sortedCharacters() {
		w.removeCharacter(ch)
	}
	w.pickups = map[string]*Pickup{}

	for _, cv := range s.Characters {
		ch := &Character{ID: cv.ID, Name: cv.Name, Pos: cv.Pos}
		w.characters[ch.ID] = ch
		ch.Inv = w.newInventory(ch.ID)
		w.attachHooks(ch)
		if st := ch.Inv.ApplySaveData(cv.Save); !st.Accepted() {
			return fmt.Errorf("snapshot character %s: %s", cv.ID, st)
		}
	}
	for _, vv := range s.Vendors {
		if v := w.vendors[vv.ID]; v != nil {
			v.Restore(vv.Stock)
		}
	}
	for _, nv := range s.Nodes {
		if n := w.nodes[nv.ID]; n != nil {
			n.Restore(protocol.NodeState{
				ID:           nv.ID,
				State:        nv.State,
				Progress:     nv.Progress,
				RespawnTimer: nv.RespawnTimer,
				AgentRef:     nv.AgentRef,
			})
			if ch := w.characters[nv.AgentRef]; ch != nil {
				ch.Interacting = nv.ID
			}
		}
	}
	for _, pv := range s.Pickups {
		p := &Pickup{ID: pv.ID, Owner: pv.Owner, Item: pv.Item, Pos: pv.Pos, Landed: pv.Landed}
		w.pickups[p.ID] = p
		if !p.Landed {
			w.scheduleLanding(p, pv.LandsIn)
		}
	}

	w.nextCharacterNum.Store(s.Counters.NextCharacter)
	w.nextSessionNum.Store(s.Counters.NextSession)
	w.nextEntityNum.Store(max(s.Counters.NextEntity, w.nextEntityNum.Load()))
	w.nextPickupNum.Store(s.Counters.NextPickup)
	w.nextRollNum.Store(s.Counters.NextRoll)

	// Resume on the next tick.
	w.tick.Store(s.Header.Tick + 1)
	return nil
}
