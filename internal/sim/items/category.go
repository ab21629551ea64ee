package items

import (
	"fmt"
	"strings"
)

// Category classifies a definition for slot routing.
type Category uint8

const (
	CategoryNone Category = iota
	CategoryWeapon
	CategoryPickaxe
	CategoryWoodAxe
	CategoryFishingPole
	CategoryHead
	CategoryUpperBody
	CategoryLowerBody
	CategoryPipe
	CategoryMount
	CategoryBag
	CategoryConsumable
)

var categoryNames = [...]string{
	CategoryNone:        "NONE",
	CategoryWeapon:      "WEAPON",
	CategoryPickaxe:     "PICKAXE",
	CategoryWoodAxe:     "WOOD_AXE",
	CategoryFishingPole: "FISHING_POLE",
	CategoryHead:        "HEAD",
	CategoryUpperBody:   "UPPER_BODY",
	CategoryLowerBody:   "LOWER_BODY",
	CategoryPipe:        "PIPE",
	CategoryMount:       "MOUNT",
	CategoryBag:         "BAG",
	CategoryConsumable:  "CONSUMABLE",
}

// SpecialCategories lists the single-instance equipment categories in their
// save-compatible order.
var SpecialCategories = [...]Category{
	CategoryPickaxe,
	CategoryWoodAxe,
	CategoryFishingPole,
	CategoryHead,
	CategoryUpperBody,
	CategoryLowerBody,
	CategoryPipe,
	CategoryMount,
}

// SpecialOrdinal returns the position of c in SpecialCategories.
func SpecialOrdinal(c Category) (int, bool) {
	for i, sc := range SpecialCategories {
		if sc == c {
			return i, true
		}
	}
	return -1, false
}

// IsSpecial reports whether c owns a dedicated equipment slot.
func (c Category) IsSpecial() bool {
	_, ok := SpecialOrdinal(c)
	return ok
}

// IsSingleton covers every category routed to equipment before general slots.
func (c Category) IsSingleton() bool { return c == CategoryBag || c.IsSpecial() }

func (c Category) String() string {
	if int(c) < len(categoryNames) {
		return categoryNames[c]
	}
	return fmt.Sprintf("CATEGORY(%d)", c)
}

func (c Category) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

func (c *Category) UnmarshalText(b []byte) error {
	s := strings.ToUpper(strings.TrimSpace(string(b)))
	if s == "" {
		*c = CategoryNone
		return nil
	}
	for i, name := range categoryNames {
		if name == s {
			*c = Category(i)
			return nil
		}
	}
	return fmt.Errorf("unknown item category %q", s)
}
