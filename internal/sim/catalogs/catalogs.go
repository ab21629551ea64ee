package catalogs

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/ThirdShiftStudios/FusionMMO-sub000/internal/sim/items"
)

type Catalogs struct {
	Items     ItemCatalog
	Recipes   RecipeCatalog
	Resources ResourceCatalog
	Vendors   VendorCatalog
}

type ItemCatalog struct {
	Defs    map[int]items.Definition
	ByName  map[string]int
	Ordered []items.Definition
	Digest  string
}

// Definition implements items.Lookup.
func (c *ItemCatalog) Definition(id int) (items.Definition, bool) {
	if c == nil {
		return items.Definition{}, false
	}
	d, ok := c.Defs[id]
	return d, ok
}

// ByNameFold resolves a definition by case-insensitive name.
func (c *ItemCatalog) ByNameFold(name string) (items.Definition, bool) {
	id, ok := c.ByName[normalizeName(name)]
	if !ok {
		return items.Definition{}, false
	}
	return c.Defs[id], true
}

// Suggest returns up to max item names closest to name by edit distance.
func (c *ItemCatalog) Suggest(name string, max int) []string {
	if max <= 0 {
		max = 3
	}
	needle := normalizeName(name)
	type cand struct {
		name string
		dist int
	}
	cands := make([]cand, 0, len(c.Ordered))
	for _, d := range c.Ordered {
		n := normalizeName(d.Name)
		dist := levenshtein.ComputeDistance(needle, n)
		if dist > suggestLimit(len(n)) {
			continue
		}
		cands = append(cands, cand{name: d.Name, dist: dist})
	}
	sort.SliceStable(cands, func(i, j int) bool {
		if cands[i].dist != cands[j].dist {
			return cands[i].dist < cands[j].dist
		}
		return cands[i].name < cands[j].name
	})
	if len(cands) > max {
		cands = cands[:max]
	}
	out := make([]string, 0, len(cands))
	for _, c := range cands {
		out = append(out, c.name)
	}
	return out
}

func suggestLimit(n int) int {
	switch {
	case n <= 4:
		return 1
	case n <= 8:
		return 2
	default:
		return 3
	}
}

type ItemCount struct {
	Item  int `json:"item"`
	Count int `json:"count"`
}

type RecipeCatalog struct {
	ByID   map[string]RecipeDef
	Digest string
}

type RecipeDef struct {
	RecipeID string      `json:"recipe_id"`
	Inputs   []ItemCount `json:"inputs"`
	Outputs  []ItemCount `json:"outputs"`
}

type ResourceCatalog struct {
	Nodes  []NodeDef
	Digest string
}

type NodeDef struct {
	ID              string         `json:"id"`
	Kind            string         `json:"kind"` // "ORE","TREE"
	Pos             [2]float64     `json:"pos"`
	RequiredSeconds float64        `json:"required_seconds"`
	RespawnSeconds  float64        `json:"respawn_seconds,omitempty"`
	YieldItem       int            `json:"yield_item"`
	YieldCount      int            `json:"yield_count"`
	Tool            items.Category `json:"tool,omitempty"`
}

type VendorCatalog struct {
	Vendors []VendorDef
	Digest  string
}

type VendorDef struct {
	ID       string      `json:"id"`
	Name     string      `json:"name"`
	Capacity int         `json:"capacity"`
	Stock    []ItemCount `json:"stock"`
}

func Load(configDir string) (*Catalogs, error) {
	var c Catalogs

	if err := loadItems(filepath.Join(configDir, "items.json"), &c.Items); err != nil {
		return nil, err
	}
	if err := loadRecipes(filepath.Join(configDir, "recipes.json"), &c.Recipes, &c.Items); err != nil {
		return nil, err
	}
	if err := loadResources(filepath.Join(configDir, "resources.json"), &c.Resources, &c.Items); err != nil {
		return nil, err
	}
	if err := loadVendors(filepath.Join(configDir, "vendors.json"), &c.Vendors, &c.Items); err != nil {
		return nil, err
	}
	return &c, nil
}

// FromDefinitions builds an item catalog in memory (tests, tools).
func FromDefinitions(defs []items.Definition) (*ItemCatalog, error) {
	raw, err := json.Marshal(defs)
	if err != nil {
		return nil, err
	}
	var out ItemCatalog
	if err := indexItems(raw, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func sha256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func normalizeName(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

func loadItems(path string, out *ItemCatalog) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return indexItems(raw, out)
}

func indexItems(raw []byte, out *ItemCatalog) error {
	out.Digest = sha256Hex(raw)

	var defs []items.Definition
	if err := json.Unmarshal(raw, &defs); err != nil {
		return fmt.Errorf("items.json: %w", err)
	}
	out.Defs = make(map[int]items.Definition, len(defs))
	out.ByName = make(map[string]int, len(defs))
	for _, d := range defs {
		if d.ID <= 0 {
			return fmt.Errorf("items.json: invalid id %d", d.ID)
		}
		if _, dup := out.Defs[d.ID]; dup {
			return fmt.Errorf("items.json: duplicate id %d", d.ID)
		}
		if strings.TrimSpace(d.Name) == "" {
			return fmt.Errorf("items.json: item %d has empty name", d.ID)
		}
		if d.MaxStack < 0 || d.MaxStack > items.DefaultMaxStack {
			return fmt.Errorf("items.json: item %d max_stack %d out of range", d.ID, d.MaxStack)
		}
		if d.Category == items.CategoryWeapon && d.Prefab == "" {
			return fmt.Errorf("items.json: weapon %d has no prefab", d.ID)
		}
		out.Defs[d.ID] = d
		out.ByName[normalizeName(d.Name)] = d.ID
	}
	out.Ordered = make([]items.Definition, 0, len(out.Defs))
	for _, d := range out.Defs {
		out.Ordered = append(out.Ordered, d)
	}
	sort.Slice(out.Ordered, func(i, j int) bool { return out.Ordered[i].ID < out.Ordered[j].ID })
	return nil
}

func loadRecipes(path string, out *RecipeCatalog, its *ItemCatalog) error {
	out.ByID = map[string]RecipeDef{}
	raw, err := os.ReadFile(path)
	if err != nil {
		// Recipes are optional.
		if os.IsNotExist(err) {
			out.Digest = sha256Hex(nil)
			return nil
		}
		return err
	}
	out.Digest = sha256Hex(raw)

	var defs []RecipeDef
	if err := json.Unmarshal(raw, &defs); err != nil {
		return fmt.Errorf("recipes.json: %w", err)
	}
	for _, r := range defs {
		if r.RecipeID == "" {
			return fmt.Errorf("recipes.json: empty recipe_id")
		}
		for _, ic := range append(append([]ItemCount{}, r.Inputs...), r.Outputs...) {
			if err := checkCount(its, ic, false); err != nil {
				return fmt.Errorf("recipes.json: %s: %w", r.RecipeID, err)
			}
		}
		out.ByID[r.RecipeID] = r
	}
	return nil
}

func loadResources(path string, out *ResourceCatalog, its *ItemCatalog) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			out.Digest = sha256Hex(nil)
			return nil
		}
		return err
	}
	out.Digest = sha256Hex(raw)
	if err := json.Unmarshal(raw, &out.Nodes); err != nil {
		return fmt.Errorf("resources.json: %w", err)
	}
	seen := map[string]bool{}
	for _, n := range out.Nodes {
		if n.ID == "" || seen[n.ID] {
			return fmt.Errorf("resources.json: missing or duplicate id %q", n.ID)
		}
		seen[n.ID] = true
		if n.RequiredSeconds <= 0 {
			return fmt.Errorf("resources.json: %s: required_seconds must be positive", n.ID)
		}
		if err := checkCount(its, ItemCount{Item: n.YieldItem, Count: n.YieldCount}, false); err != nil {
			return fmt.Errorf("resources.json: %s: %w", n.ID, err)
		}
	}
	return nil
}

func loadVendors(path string, out *VendorCatalog, its *ItemCatalog) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			out.Digest = sha256Hex(nil)
			return nil
		}
		return err
	}
	out.Digest = sha256Hex(raw)
	if err := json.Unmarshal(raw, &out.Vendors); err != nil {
		return fmt.Errorf("vendors.json: %w", err)
	}
	for _, v := range out.Vendors {
		if v.ID == "" {
			return fmt.Errorf("vendors.json: empty id")
		}
		if v.Capacity < len(v.Stock) {
			return fmt.Errorf("vendors.json: %s: stock exceeds capacity", v.ID)
		}
		for _, ic := range v.Stock {
			if err := checkCount(its, ic, true); err != nil {
				return fmt.Errorf("vendors.json: %s: %w", v.ID, err)
			}
		}
	}
	return nil
}

// checkCount validates an item count. Counts that fill a single slot, like
// vendor stock, must also fit the item's stack limit; other counts are
// spread over slots when granted.
func checkCount(its *ItemCatalog, ic ItemCount, oneSlot bool) error {
	d, ok := its.Defs[ic.Item]
	if !ok {
		return fmt.Errorf("unknown item %d", ic.Item)
	}
	if ic.Count <= 0 {
		return fmt.Errorf("item %d: count must be positive", ic.Item)
	}
	if oneSlot && ic.Count > d.StackLimit() {
		return fmt.Errorf("item %d: count %d exceeds stack limit %d", ic.Item, ic.Count, d.StackLimit())
	}
	return nil
}
