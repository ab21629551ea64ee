// Package replication holds the primitives shared by the authority and its
// proxies: role gating, per-step change scanners, the deferred task queue and
// lazily resolved references.
package replication

// Role is the replication role of a simulation instance for one object.
type Role uint8

const (
	// RoleProxy observes replicated state and sends requests.
	RoleProxy Role = iota
	// RoleAuthority owns and mutates state.
	RoleAuthority
)

func (r Role) IsAuthority() bool { return r == RoleAuthority }

func (r Role) String() string {
	if r == RoleAuthority {
		return "AUTHORITY"
	}
	return "PROXY"
}
