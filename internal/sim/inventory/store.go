package inventory

import "github.com/ThirdShiftStudios/FusionMMO-sub000/internal/sim/items"

// Store holds the slot arrays of one character. It is a value type: copying
// a Store is a complete checkpoint, which is how spawn failures roll back.
// Store knows nothing about roles or entities.
type Store struct {
	General  [MaxGeneralSlots]items.ItemSlot
	Bags     [BagSlots]items.ItemSlot
	Hotbar   [HotbarSlots]items.ItemSlot
	Special  [SpecialSlots]items.ItemSlot
	Capacity int

	defs items.Lookup
}

func NewStore(defs items.Lookup) Store {
	return Store{Capacity: BaseGeneralSlots, defs: defs}
}

func (s *Store) def(id int) (items.Definition, bool) {
	if s.defs == nil || id == 0 {
		return items.Definition{}, false
	}
	return s.defs.Definition(id)
}

func (s *Store) stackLimit(slot items.ItemSlot) int {
	d, ok := s.def(slot.DefinitionID)
	if !ok {
		return items.DefaultMaxStack
	}
	return d.StackLimit()
}

// Get returns the slot at index. Out-of-capacity general indices are invalid.
func (s *Store) Get(index int) (items.ItemSlot, bool) {
	p := s.ptr(index)
	if p == nil {
		return items.ItemSlot{}, false
	}
	return *p, true
}

func (s *Store) ptr(index int) *items.ItemSlot {
	ref, ok := Resolve(index)
	if !ok {
		return nil
	}
	switch ref.Kind {
	case KindGeneral:
		if ref.N >= s.Capacity {
			return nil
		}
		return &s.General[ref.N]
	case KindHotbar:
		return &s.Hotbar[ref.N]
	case KindBag:
		return &s.Bags[ref.N]
	case KindSpecial:
		return &s.Special[ref.N]
	}
	return nil
}

// Accepts reports whether slot may be placed at index. Empty slots fit
// anywhere valid.
func (s *Store) Accepts(index int, slot items.ItemSlot) bool {
	ref, ok := Resolve(index)
	if !ok {
		return false
	}
	if ref.Kind == KindGeneral && ref.N >= s.Capacity {
		return false
	}
	if slot.IsEmpty() {
		return true
	}
	d, ok := s.def(slot.DefinitionID)
	if !ok {
		return false
	}
	switch ref.Kind {
	case KindGeneral:
		return true
	case KindHotbar:
		return d.IsWeapon() && d.Prefab != ""
	case KindBag:
		return d.SlotCategory() == items.CategoryBag
	case KindSpecial:
		return d.SlotCategory() == items.SpecialCategories[ref.N]
	}
	return false
}

// AddItem places qty units and returns what could not be placed. Singleton
// categories try their equipment slot first, one unit per slot; the rest
// tops up partial general stacks in ascending order, then fills empty
// general slots in ascending order.
func (s *Store) AddItem(def, qty int, hash items.ConfigHash) int {
	if qty <= 0 {
		return qty
	}
	d, ok := s.def(def)
	if !ok {
		return qty
	}
	unit := items.Slot(def, 1, hash)
	switch cat := d.SlotCategory(); {
	case cat == items.CategoryBag:
		for i := range s.Bags {
			if qty == 0 {
				break
			}
			if s.Bags[i].IsEmpty() {
				s.Bags[i] = unit
				qty--
			}
		}
		s.growCapacity()
	case cat.IsSpecial():
		ord, _ := items.SpecialOrdinal(cat)
		if s.Special[ord].IsEmpty() {
			s.Special[ord] = unit
			qty--
		}
	}
	return s.addGeneral(items.ItemSlot{DefinitionID: def, Hash: hash}, qty)
}

// addGeneral distributes qty units of proto over the general slots below
// capacity.
func (s *Store) addGeneral(proto items.ItemSlot, qty int) int {
	if qty <= 0 {
		return 0
	}
	limit := s.stackLimit(proto)
	probe := proto.WithQuantity(1)
	for i := 0; i < s.Capacity && qty > 0; i++ {
		cur := s.General[i]
		if !cur.Stacks(probe) {
			continue
		}
		room := limit - int(cur.Quantity)
		if room <= 0 {
			continue
		}
		n := min(room, qty)
		s.General[i] = cur.WithQuantity(int(cur.Quantity) + n)
		qty -= n
	}
	for i := 0; i < s.Capacity && qty > 0; i++ {
		if !s.General[i].IsEmpty() {
			continue
		}
		n := min(limit, qty)
		s.General[i] = proto.WithQuantity(n)
		qty -= n
	}
	return qty
}

// CanAddGeneral reports whether qty units of proto fit in general slots.
func (s *Store) CanAddGeneral(proto items.ItemSlot, qty int) bool {
	trial := *s
	return trial.addGeneral(proto, qty) == 0
}

// Remove takes qty units out of index.
func (s *Store) Remove(index, qty int) (items.ItemSlot, bool) {
	p := s.ptr(index)
	if p == nil || p.IsEmpty() || qty <= 0 || qty > int(p.Quantity) {
		return items.ItemSlot{}, false
	}
	taken := p.WithQuantity(qty)
	*p = p.WithQuantity(int(p.Quantity) - qty)
	return taken, true
}

// Take empties index and returns what it held.
func (s *Store) Take(index int) (items.ItemSlot, bool) {
	p := s.ptr(index)
	if p == nil || p.IsEmpty() {
		return items.ItemSlot{}, false
	}
	out := *p
	*p = items.ItemSlot{}
	return out, true
}

// Set overwrites index without stacking rules. Category rules still apply.
func (s *Store) Set(index int, slot items.ItemSlot) bool {
	slot = slot.Normalize()
	if !s.Accepts(index, slot) {
		return false
	}
	p := s.ptr(index)
	if p == nil {
		return false
	}
	*p = slot
	return true
}

// Move merges from into to when they stack and to has headroom, and swaps
// them otherwise. Hotbar slots are not handled here.
func (s *Store) Move(from, to int) ItemStatus {
	if from == to {
		return StatusInvalidIndex
	}
	fp, tp := s.ptr(from), s.ptr(to)
	if fp == nil || tp == nil {
		return StatusInvalidIndex
	}
	if fp.IsEmpty() {
		return StatusEmptySlot
	}
	src, dst := *fp, *tp
	if src.Stacks(dst) {
		room := s.stackLimit(dst) - int(dst.Quantity)
		if room > 0 {
			n := min(room, int(src.Quantity))
			*tp = dst.WithQuantity(int(dst.Quantity) + n)
			*fp = src.WithQuantity(int(src.Quantity) - n)
			return StatusOK
		}
	}
	if !s.Accepts(to, src) || !s.Accepts(from, dst) {
		return StatusCategoryMismatch
	}
	*fp, *tp = dst, src
	return StatusOK
}

func (s *Store) bagBonus() int {
	bonus := 0
	for _, b := range s.Bags {
		if b.IsEmpty() {
			continue
		}
		if d, ok := s.def(b.DefinitionID); ok && d.ExtraSlots > 0 {
			bonus += d.ExtraSlots
		}
	}
	return min(bonus, MaxBagSlotBonus)
}

func (s *Store) growCapacity() {
	if c := BaseGeneralSlots + s.bagBonus(); c > s.Capacity {
		s.Capacity = c
	}
}

// RecalculateGeneralCapacity derives the capacity from the bag slots. Items
// stranded beyond a shrunk boundary are re-stacked, then moved into free
// slots; whatever still does not fit is returned for the caller to drop.
func (s *Store) RecalculateGeneralCapacity() []items.ItemSlot {
	s.Capacity = min(BaseGeneralSlots+s.bagBonus(), MaxGeneralSlots)
	var stranded []items.ItemSlot
	for i := s.Capacity; i < MaxGeneralSlots; i++ {
		if !s.General[i].IsEmpty() {
			stranded = append(stranded, s.General[i])
			s.General[i] = items.ItemSlot{}
		}
	}
	var overflow []items.ItemSlot
	for _, it := range stranded {
		if left := s.addGeneral(it, int(it.Quantity)); left > 0 {
			overflow = append(overflow, it.WithQuantity(left))
		}
	}
	return overflow
}

// Total counts units of (def, hash) across every slot.
func (s *Store) Total(def int, hash items.ConfigHash) int {
	n := 0
	s.Each(func(_ int, slot items.ItemSlot) {
		if slot.DefinitionID == def && slot.Hash == hash {
			n += int(slot.Quantity)
		}
	})
	return n
}

// CountOf counts units of def in general slots regardless of hash.
func (s *Store) CountOf(def int) int {
	n := 0
	for i := 0; i < s.Capacity; i++ {
		if s.General[i].DefinitionID == def {
			n += int(s.General[i].Quantity)
		}
	}
	return n
}

// RemoveCount takes n units of def from general slots in descending order
// so that the earliest stacks survive.
func (s *Store) RemoveCount(def, n int) bool {
	if n <= 0 || s.CountOf(def) < n {
		return false
	}
	for i := s.Capacity - 1; i >= 0 && n > 0; i-- {
		cur := s.General[i]
		if cur.DefinitionID != def {
			continue
		}
		take := min(n, int(cur.Quantity))
		s.General[i] = cur.WithQuantity(int(cur.Quantity) - take)
		n -= take
	}
	return true
}

// FreeGeneral returns the first empty general slot, or NoSlot.
func (s *Store) FreeGeneral() int {
	for i := 0; i < s.Capacity; i++ {
		if s.General[i].IsEmpty() {
			return i
		}
	}
	return NoSlot
}

// FindCategory returns the index of the first item whose slot category is
// cat: the special slot first, then general slots ascending.
func (s *Store) FindCategory(cat items.Category) int {
	if ord, ok := items.SpecialOrdinal(cat); ok && !s.Special[ord].IsEmpty() {
		return SpecialIndex(cat)
	}
	for i := 0; i < s.Capacity; i++ {
		if s.General[i].IsEmpty() {
			continue
		}
		if d, ok := s.def(s.General[i].DefinitionID); ok && d.SlotCategory() == cat {
			return i
		}
	}
	return NoSlot
}

// Each visits every non-empty slot with its inventory index.
func (s *Store) Each(fn func(index int, slot items.ItemSlot)) {
	for i := 0; i < s.Capacity; i++ {
		if !s.General[i].IsEmpty() {
			fn(i, s.General[i])
		}
	}
	for i, b := range s.Bags {
		if !b.IsEmpty() {
			fn(BagIndex(i), b)
		}
	}
	for h := 1; h < HotbarSlots; h++ {
		if !s.Hotbar[h].IsEmpty() {
			fn(HotbarIndex(h), s.Hotbar[h])
		}
	}
	for i, sp := range s.Special {
		if !sp.IsEmpty() {
			fn(specialBase-i, sp)
		}
	}
}

// Reset clears every slot and restores the base capacity.
func (s *Store) Reset() {
	*s = NewStore(s.defs)
}
