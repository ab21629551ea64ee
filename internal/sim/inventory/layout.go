package inventory

import "github.com/ThirdShiftStudios/FusionMMO-sub000/internal/sim/items"

// Layout constants. Saves depend on these values.
const (
	BaseGeneralSlots = 20
	MaxBagSlotBonus  = 30
	MaxGeneralSlots  = BaseGeneralSlots + MaxBagSlotBonus
	BagSlots         = 5
	HotbarSlots      = 7
	SpecialSlots     = len(items.SpecialCategories)

	// RestoreCommandLimit is the most commands one restore can take after
	// BEGIN_RESTORE: a set per non-empty slot plus FINALIZE_RESTORE.
	RestoreCommandLimit = MaxGeneralSlots + BagSlots + (HotbarSlots - 1) + SpecialSlots + 1

	// UnarmedSlot is hotbar slot 0. It never stores an item.
	UnarmedSlot = 0
	// NoSlot is returned where no index applies.
	NoSlot = -1

	hotbarBase  = -100
	bagBase     = -200
	specialBase = -300
)

// SlotKind names the backing store an index addresses.
type SlotKind uint8

const (
	KindInvalid SlotKind = iota
	KindGeneral
	KindHotbar
	KindBag
	KindSpecial
)

func (k SlotKind) String() string {
	switch k {
	case KindGeneral:
		return "GENERAL"
	case KindHotbar:
		return "HOTBAR"
	case KindBag:
		return "BAG"
	case KindSpecial:
		return "SPECIAL"
	default:
		return "INVALID"
	}
}

// SlotRef is a decoded inventory index. N is the position inside the
// backing array of Kind.
type SlotRef struct {
	Kind SlotKind
	N    int
}

// HotbarIndex encodes hotbar slot h (1..HotbarSlots-1).
func HotbarIndex(h int) int { return hotbarBase - h }

// BagIndex encodes bag slot b (0..BagSlots-1).
func BagIndex(b int) int { return bagBase - b }

// SpecialIndex encodes the equipment slot of a special category, or NoSlot.
func SpecialIndex(c items.Category) int {
	ord, ok := items.SpecialOrdinal(c)
	if !ok {
		return NoSlot
	}
	return specialBase - ord
}

// Resolve decodes an inventory index. General indices are checked against
// the backing length only; callers check the live capacity.
func Resolve(index int) (SlotRef, bool) {
	switch {
	case index >= 0 && index < MaxGeneralSlots:
		return SlotRef{Kind: KindGeneral, N: index}, true
	case index <= hotbarBase-1 && index > hotbarBase-HotbarSlots:
		return SlotRef{Kind: KindHotbar, N: hotbarBase - index}, true
	case index <= bagBase && index > bagBase-BagSlots:
		return SlotRef{Kind: KindBag, N: bagBase - index}, true
	case index <= specialBase && index > specialBase-SpecialSlots:
		return SlotRef{Kind: KindSpecial, N: specialBase - index}, true
	}
	return SlotRef{}, false
}

// Index is the inverse of Resolve.
func (r SlotRef) Index() int {
	switch r.Kind {
	case KindGeneral:
		return r.N
	case KindHotbar:
		return HotbarIndex(r.N)
	case KindBag:
		return BagIndex(r.N)
	case KindSpecial:
		return specialBase - r.N
	}
	return NoSlot
}
