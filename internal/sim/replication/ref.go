package replication

// Ref is a replicated reference to an object by id. Proxies never replicate
// the object itself; they resolve the id through a local lookup on first use
// and cache the result until the id changes or the cached object goes invalid.
type Ref[T any] struct {
	id       string
	cached   T
	resolved bool
}

func (r *Ref[T]) ID() string { return r.id }

// Set replaces the referenced id. The cache is dropped when the id changes.
func (r *Ref[T]) Set(id string) {
	if id == r.id {
		return
	}
	r.id = id
	r.clear()
}

func (r *Ref[T]) Clear() { r.Set("") }

// Bind sets the id together with an already known object.
func (r *Ref[T]) Bind(id string, v T) {
	r.Set(id)
	if id == "" {
		return
	}
	r.cached = v
	r.resolved = true
}

// Get returns the referenced object. resolve looks the id up locally; valid
// reports whether a cached object is still alive (nil means always valid).
func (r *Ref[T]) Get(resolve func(id string) (T, bool), valid func(T) bool) (T, bool) {
	var zero T
	if r.id == "" {
		return zero, false
	}
	if r.resolved {
		if valid == nil || valid(r.cached) {
			return r.cached, true
		}
		r.clear()
	}
	if resolve == nil {
		return zero, false
	}
	v, ok := resolve(r.id)
	if !ok {
		return zero, false
	}
	r.cached = v
	r.resolved = true
	return v, true
}

func (r *Ref[T]) clear() {
	var zero T
	r.cached = zero
	r.resolved = false
}
