package items

// Definition is the static description of an item kind. Behaviour is
// selected by the optional facets rather than by item type.
type Definition struct {
	ID        int      `json:"id"`
	Name      string   `json:"name"`
	Category  Category `json:"category"`
	MaxStack  int      `json:"max_stack,omitempty"`
	BuyPrice  int      `json:"buy_price,omitempty"`
	SellPrice int      `json:"sell_price,omitempty"`

	// ExtraSlots is the general capacity granted while equipped in a bag slot.
	ExtraSlots int `json:"extra_slots,omitempty"`
	// ToolSpeed is the harvesting bonus applied while the tool is in use.
	ToolSpeed float64 `json:"tool_speed,omitempty"`

	Equip    *EquipFacet    `json:"equip,omitempty"`
	Variance *VarianceFacet `json:"variance,omitempty"`
	// Prefab names the entity registered for hotbar weapons and tools.
	Prefab string `json:"prefab,omitempty"`
}

// EquipFacet marks a definition that is worn or held.
type EquipFacet struct {
	Slot Category `json:"slot"`
}

// VarianceFacet marks an item whose instances carry a generated config hash.
// Spread is the maximum relative deviation applied by Roll.
type VarianceFacet struct {
	Spread float64 `json:"spread"`
}

// StackLimit returns the effective max stack, clamped to the slot range.
func (d Definition) StackLimit() int {
	if d.MaxStack <= 0 || d.MaxStack > DefaultMaxStack {
		return DefaultMaxStack
	}
	return d.MaxStack
}

// SlotCategory is the equipment category the item must occupy, if any.
func (d Definition) SlotCategory() Category {
	if d.Equip != nil && d.Equip.Slot != CategoryNone {
		return d.Equip.Slot
	}
	return d.Category
}

// IsWeapon reports whether the item may be bound to a hotbar slot.
func (d Definition) IsWeapon() bool { return d.Category == CategoryWeapon }

// EffectiveToolSpeed scales ToolSpeed by the instance variance.
func (d Definition) EffectiveToolSpeed(h ConfigHash) float64 {
	if d.ToolSpeed <= 0 {
		return 0
	}
	if d.Variance == nil || d.Variance.Spread <= 0 {
		return d.ToolSpeed
	}
	return d.ToolSpeed * (1 + d.Variance.Spread*Roll(h, 0))
}

// Lookup resolves definitions by id. Unknown ids report ok == false.
type Lookup interface {
	Definition(id int) (Definition, bool)
}

// DefinitionMap is the simplest Lookup.
type DefinitionMap map[int]Definition

func (m DefinitionMap) Definition(id int) (Definition, bool) {
	d, ok := m[id]
	return d, ok
}
