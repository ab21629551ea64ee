package world

import (
	"fmt"

	"github.com/ThirdShiftStudios/FusionMMO-sub000/internal/sim/inventory"
	"github.com/ThirdShiftStudios/FusionMMO-sub000/internal/sim/items"
	"github.com/ThirdShiftStudios/FusionMMO-sub000/internal/sim/replication"
	"github.com/ThirdShiftStudios/FusionMMO-sub000/internal/sim/resources"
)

// Character is one player-controlled character on the authority.
type Character struct {
	ID      string
	Name    string
	Pos     [2]float64
	Session string
	Inv     *inventory.Inventory

	// Interacting is the node the character is currently working.
	Interacting string

	gone bool
}

func (c *Character) AgentID() string { return c.ID }
func (c *Character) Valid() bool     { return c != nil && !c.gone }

func (c *Character) ToolSpeed(tool items.Category) float64 {
	if !inventory.IsTool(tool) {
		return 0
	}
	return c.Inv.ToolSpeed(tool)
}

var _ resources.Agent = (*Character)(nil)

type entityRecord struct {
	Owner  string
	Prefab items.Prefab
	Item   items.ItemSlot
}

func (w *World) newInventory(id string) *inventory.Inventory {
	return inventory.New(inventory.Config{
		CharacterID:     id,
		Role:            replication.RoleAuthority,
		Defs:            &w.catalogs.Items,
		Registry:        w.registry,
		Spawner:         w,
		Dropper:         w,
		Fishing:         w.tun.Fishing,
		RestoreTTLTicks: w.tun.Inventory.RestoreTTLTicks,
	})
}

// spawnCharacter creates a character and fills its inventory from the save
// store, or from the starter kit when there is no save.
func (w *World) spawnCharacter(id, name string) *Character {
	if name == "" {
		name = id
	}
	n := len(w.characters) + 1
	ch := &Character{
		ID:   id,
		Name: name,
		Pos:  [2]float64{float64(n * 2), float64(-n * 2)},
	}
	w.characters[id] = ch
	ch.Inv = w.newInventory(id)
	w.attachHooks(ch)

	if w.saves != nil {
		data, ok, err := w.saves.Load(id)
		switch {
		case err != nil:
			w.log.Printf("load save %s: %v", id, err)
		case ok:
			if st := ch.Inv.ApplySaveData(data); !st.Accepted() {
				w.log.Printf("apply save %s: %s", id, st)
			}
			return ch
		}
	}
	for _, ic := range w.tun.Inventory.StarterItems {
		ch.Inv.GiveOrDrop(ic.Item, ic.Count, items.ConfigHash{})
	}
	ch.Inv.AddGold(w.tun.Inventory.StarterGold)
	return ch
}

// removeCharacter stores the character and releases everything it holds in
// the world: restore staging, node interaction and spawned entities.
func (w *World) removeCharacter(ch *Character) {
	w.persist(ch)
	ch.Inv.AbandonRestore()
	w.endInteraction(ch)
	ch.Inv.Despawn()
	ch.gone = true
	delete(w.characters, ch.ID)
}

func (w *World) persist(ch *Character) {
	if w.saves == nil {
		return
	}
	if err := w.saves.Save(ch.Inv.CreateSaveData()); err != nil {
		w.log.Printf("store save %s: %v", ch.ID, err)
	}
}

func (w *World) resolveAgent(id string) (resources.Agent, bool) {
	ch, ok := w.characters[id]
	if !ok {
		return nil, false
	}
	return ch, true
}

// Character returns the live character with id.
func (w *World) Character(id string) (*Character, bool) {
	ch, ok := w.characters[id]
	return ch, ok
}

// SpawnEntity implements inventory.EntitySpawner.
func (w *World) SpawnEntity(owner string, prefab items.Prefab, item items.ItemSlot) (inventory.EntityID, error) {
	if prefab.Name == "" {
		return "", fmt.Errorf("spawn for %s: empty prefab", owner)
	}
	id := inventory.EntityID(fmt.Sprintf("E%06d", w.nextEntityNum.Add(1)))
	w.entities[id] = entityRecord{Owner: owner, Prefab: prefab, Item: item}
	return id, nil
}

// DespawnEntity implements inventory.EntitySpawner.
func (w *World) DespawnEntity(id inventory.EntityID) {
	delete(w.entities, id)
}

// EntityCount reports live weapon and tool entities.
func (w *World) EntityCount() int { return len(w.entities) }

func (w *World) attachHooks(ch *Character) {
	ch.Inv.SetHooks(inventory.Hooks{
		SlotChanged: func(index int, prev, next items.ItemSlot) {
			w.audit(AuditEntry{Tick: w.tick.Load(), Actor: ch.ID, Action: "SLOT", Index: index, From: prev, To: next})
		},
		GoldChanged: func(prev, next int) {
			w.audit(AuditEntry{Tick: w.tick.Load(), Actor: ch.ID, Action: "GOLD", GoldFrom: prev, GoldTo: next})
		},
	})
}
