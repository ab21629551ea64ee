package inventory

import (
	"errors"
	"fmt"

	"github.com/ThirdShiftStudios/FusionMMO-sub000/internal/protocol"
	"github.com/ThirdShiftStudios/FusionMMO-sub000/internal/sim/items"
	"github.com/ThirdShiftStudios/FusionMMO-sub000/internal/sim/replication"
	"github.com/ThirdShiftStudios/FusionMMO-sub000/internal/sim/tuning"
)

const (
	defWood     = 1
	defFish     = 4
	defStaff    = 10
	defSword    = 11
	defPickaxe  = 20
	defWoodAxe  = 21
	defPole     = 22
	defCap      = 30
	defPouch    = 40
	defBackpack = 41
	defPony     = 50
)

func testDefs() items.DefinitionMap {
	return items.DefinitionMap{
		defWood:     {ID: defWood, Name: "Wood", MaxStack: 20},
		defFish:     {ID: defFish, Name: "Raw Fish", MaxStack: 10},
		defStaff:    {ID: defStaff, Name: "Staff", Category: items.CategoryWeapon, MaxStack: 1, Prefab: "staff"},
		defSword:    {ID: defSword, Name: "Short Sword", Category: items.CategoryWeapon, MaxStack: 1, Prefab: "sword"},
		defPickaxe:  {ID: defPickaxe, Name: "Pickaxe", Category: items.CategoryPickaxe, MaxStack: 1, ToolSpeed: 0.5, Prefab: "pickaxe"},
		defWoodAxe:  {ID: defWoodAxe, Name: "Wood Axe", Category: items.CategoryWoodAxe, MaxStack: 1, ToolSpeed: 0.5, Prefab: "wood_axe"},
		defPole:     {ID: defPole, Name: "Fishing Pole", Category: items.CategoryFishingPole, MaxStack: 1, Prefab: "fishing_pole"},
		defCap:      {ID: defCap, Name: "Leather Cap", Category: items.CategoryHead, MaxStack: 1},
		defPouch:    {ID: defPouch, Name: "Small Pouch", Category: items.CategoryBag, MaxStack: 1, ExtraSlots: 5},
		defBackpack: {ID: defBackpack, Name: "Backpack", Category: items.CategoryBag, MaxStack: 1, ExtraSlots: 10},
		defPony:     {ID: defPony, Name: "Pony", Category: items.CategoryMount, MaxStack: 1},
	}
}

type fakeSpawner struct {
	next  int
	alive map[EntityID]items.ItemSlot
	fail  bool
}

func newFakeSpawner() *fakeSpawner {
	return &fakeSpawner{alive: map[EntityID]items.ItemSlot{}}
}

func (f *fakeSpawner) SpawnEntity(owner string, prefab items.Prefab, item items.ItemSlot) (EntityID, error) {
	if f.fail {
		return "", errors.New("runner unavailable")
	}
	f.next++
	id := EntityID(fmt.Sprintf("%s/%s#%d", owner, prefab.Name, f.next))
	f.alive[id] = item
	return id, nil
}

func (f *fakeSpawner) DespawnEntity(id EntityID) { delete(f.alive, id) }

type fakeDropper struct {
	dropped []items.ItemSlot
}

func (d *fakeDropper) DropItem(owner string, item items.ItemSlot) {
	d.dropped = append(d.dropped, item)
}

func (d *fakeDropper) total(def int, hash items.ConfigHash) int {
	n := 0
	for _, it := range d.dropped {
		if it.DefinitionID == def && it.Hash == hash {
			n += int(it.Quantity)
		}
	}
	return n
}

type fakeSender struct {
	sent []protocol.Command
	err  error
}

func (s *fakeSender) Send(cmd protocol.Command) error {
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, cmd)
	return nil
}

type fixture struct {
	inv     *Inventory
	spawner *fakeSpawner
	dropper *fakeDropper
}

func newAuthority() fixture {
	defs := testDefs()
	reg := items.NewRegistry()
	list := make([]items.Definition, 0, len(defs))
	for _, d := range defs {
		list = append(list, d)
	}
	if err := items.RegisterDefinitions(reg, list); err != nil {
		panic(err)
	}
	sp := newFakeSpawner()
	dr := &fakeDropper{}
	inv := New(Config{
		CharacterID: "C1",
		Role:        replication.RoleAuthority,
		Defs:        defs,
		Registry:    reg,
		Spawner:     sp,
		Dropper:     dr,
		Fishing: tuning.Fishing{
			CastTicks:       2,
			LureFlightTicks: 2,
			BiteTicks:       3,
			HitsRequired:    3,
			CatchItem:       defFish,
			CatchCount:      1,
		},
		RestoreTTLTicks: 10,
	})
	return fixture{inv: inv, spawner: sp, dropper: dr}
}

func newProxy(sender Sender) *Inventory {
	return New(Config{
		CharacterID: "C1",
		Role:        replication.RoleProxy,
		Defs:        testDefs(),
		Sender:      sender,
	})
}

// exclusive reports whether at most one of weapon/tools is active.
func exclusive(inv *Inventory) bool {
	n := 0
	if inv.WeaponArmed() {
		n++
	}
	for _, c := range toolCategories {
		if t, _ := inv.Tool(c); t.Equipped {
			n++
		}
	}
	return n <= 1
}
