package items

import (
	"encoding/hex"
	"fmt"
)

// ConfigHashSize is the byte length of a configuration hash.
const ConfigHashSize = 16

// DefaultMaxStack applies to definitions that do not declare a max stack.
const DefaultMaxStack = 255

// ConfigHash encodes the procedurally generated stat variance of one item
// instance. Slots with different hashes never stack.
type ConfigHash [ConfigHashSize]byte

func (h ConfigHash) IsZero() bool { return h == ConfigHash{} }

func (h ConfigHash) String() string { return hex.EncodeToString(h[:]) }

func (h ConfigHash) MarshalText() ([]byte, error) {
	if h.IsZero() {
		return []byte{}, nil
	}
	return []byte(h.String()), nil
}

func (h *ConfigHash) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*h = ConfigHash{}
		return nil
	}
	parsed, err := ParseConfigHash(string(b))
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}

// ParseConfigHash decodes a hex hash. Shorter inputs are left-aligned and
// zero padded; longer inputs are rejected.
func ParseConfigHash(s string) (ConfigHash, error) {
	var h ConfigHash
	if s == "" {
		return h, nil
	}
	raw, err := hex.DecodeString(s)
	if err != nil {
		return h, fmt.Errorf("config hash: %w", err)
	}
	if len(raw) > ConfigHashSize {
		return h, fmt.Errorf("config hash: %d bytes exceeds %d", len(raw), ConfigHashSize)
	}
	copy(h[:], raw)
	return h, nil
}

// ItemSlot is the value stored in every inventory, hotbar and equipment slot.
type ItemSlot struct {
	DefinitionID int        `json:"definition_id"`
	Quantity     uint8      `json:"quantity"`
	Hash         ConfigHash `json:"hash"`
}

// Slot builds a normalized slot.
func Slot(def int, qty uint8, hash ConfigHash) ItemSlot {
	return ItemSlot{DefinitionID: def, Quantity: qty, Hash: hash}.Normalize()
}

func (s ItemSlot) IsEmpty() bool { return s.Quantity == 0 || s.DefinitionID == 0 }

// Normalize returns the canonical form: an empty slot carries no definition
// and no hash.
func (s ItemSlot) Normalize() ItemSlot {
	if s.IsEmpty() {
		return ItemSlot{}
	}
	return s
}

// Stacks reports whether two non-empty slots hold the same item instance kind.
func (s ItemSlot) Stacks(o ItemSlot) bool {
	if s.IsEmpty() || o.IsEmpty() {
		return false
	}
	return s.DefinitionID == o.DefinitionID && s.Hash == o.Hash
}

// WithQuantity returns a copy holding qty units, normalized.
func (s ItemSlot) WithQuantity(qty int) ItemSlot {
	if qty <= 0 {
		return ItemSlot{}
	}
	if qty > 255 {
		qty = 255
	}
	s.Quantity = uint8(qty)
	return s.Normalize()
}

func (s ItemSlot) String() string {
	if s.IsEmpty() {
		return "empty"
	}
	if s.Hash.IsZero() {
		return fmt.Sprintf("%dx%d", s.DefinitionID, s.Quantity)
	}
	return fmt.Sprintf("%dx%d#%s", s.DefinitionID, s.Quantity, s.Hash.String()[:8])
}
