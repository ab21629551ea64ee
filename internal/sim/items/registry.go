package items

import "fmt"

// EntityKind is the kind of networked entity a prefab spawns.
type EntityKind uint8

const (
	EntityWeapon EntityKind = iota + 1
	EntityTool
)

func (k EntityKind) String() string {
	switch k {
	case EntityWeapon:
		return "WEAPON"
	case EntityTool:
		return "TOOL"
	default:
		return "UNKNOWN"
	}
}

// Prefab describes what to spawn for a definition.
type Prefab struct {
	Name string
	Kind EntityKind
}

// Registry maps definitions to spawnable prefabs. It is owned by the
// simulation root and handed to every component that spawns entities.
type Registry struct {
	byDef map[int]Prefab
}

func NewRegistry() *Registry {
	return &Registry{byDef: map[int]Prefab{}}
}

func (r *Registry) Register(def int, p Prefab) error {
	if r == nil {
		return fmt.Errorf("nil registry")
	}
	if def <= 0 {
		return fmt.Errorf("register prefab %q: invalid definition %d", p.Name, def)
	}
	if p.Name == "" {
		return fmt.Errorf("register prefab for %d: empty name", def)
	}
	if prev, ok := r.byDef[def]; ok && prev != p {
		return fmt.Errorf("register prefab for %d: already bound to %q", def, prev.Name)
	}
	r.byDef[def] = p
	return nil
}

func (r *Registry) Lookup(def int) (Prefab, bool) {
	if r == nil {
		return Prefab{}, false
	}
	p, ok := r.byDef[def]
	return p, ok
}

// RegisterDefinitions binds every definition that names a prefab. Weapons
// spawn weapon entities; pickaxes, axes and fishing poles spawn tools.
func RegisterDefinitions(r *Registry, defs []Definition) error {
	for _, d := range defs {
		if d.Prefab == "" {
			continue
		}
		kind := EntityTool
		if d.IsWeapon() {
			kind = EntityWeapon
		}
		if err := r.Register(d.ID, Prefab{Name: d.Prefab, Kind: kind}); err != nil {
			return err
		}
	}
	return nil
}
