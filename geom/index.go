package geom

import "fmt"

// BiIndex is the name↔version bijection. The two directions are
// mutated only through the paired Insert/Remove/Rename operations, so
// they cannot drift: at all times both maps have equal cardinality and
// are exact inverses. Violations are index corruption and panic.
type BiIndex struct {
	name2version map[Name]Version
	version2name map[Version]Name
}

func NewBiIndex() *BiIndex {
	return &BiIndex{
		name2version: make(map[Name]Version),
		version2name: make(map[Version]Name),
	}
}

func (x *BiIndex) Len() int {
	return len(x.name2version)
}

// Insert binds a fresh name to a fresh version. Either side already
// being bound is corruption.
func (x *BiIndex) Insert(n Name, v Version) {
	if v.Phantom() {
		panic(fmt.Sprintf("geom: phantom %s may not be indexed", v))
	}
	if old, ok := x.name2version[n]; ok {
		panic(fmt.Sprintf("geom: name %s already bound to %s", n, old))
	}
	if old, ok := x.version2name[v]; ok {
		panic(fmt.Sprintf("geom: version %s already bound to %s", v, old))
	}
	x.name2version[n] = v
	x.version2name[v] = n
}

// Rename moves n from its current version to a new one, preserving the
// name. Used when an item's geometry is replaced.
func (x *BiIndex) Rename(n Name, v Version) (old Version) {
	old = x.Version(n)
	if _, ok := x.version2name[v]; ok {
		panic(fmt.Sprintf("geom: version %s already bound", v))
	}
	delete(x.version2name, old)
	x.name2version[n] = v
	x.version2name[v] = n
	return old
}

// RemoveVersion unbinds both directions, returning the freed name.
func (x *BiIndex) RemoveVersion(v Version) Name {
	n, ok := x.version2name[v]
	if !ok {
		panic(fmt.Sprintf("geom: version %s is not indexed", v))
	}
	delete(x.version2name, v)
	delete(x.name2version, n)
	return n
}

// Version looks up the current version of a name. A missing name is a
// programmer error, not a user-facing condition.
func (x *BiIndex) Version(n Name) Version {
	v, ok := x.name2version[n]
	if !ok {
		panic(fmt.Sprintf("geom: name %s is not indexed", n))
	}
	return v
}

// Name looks up the stable name of a version.
func (x *BiIndex) Name(v Version) Name {
	n, ok := x.version2name[v]
	if !ok {
		panic(fmt.Sprintf("geom: version %s is not indexed", v))
	}
	return n
}

func (x *BiIndex) HasName(n Name) bool {
	_, ok := x.name2version[n]
	return ok
}

func (x *BiIndex) HasVersion(v Version) bool {
	_, ok := x.version2name[v]
	return ok
}

// Names returns all bound names, in no particular order.
func (x *BiIndex) Names() []Name {
	names := make([]Name, 0, len(x.name2version))
	for n := range x.name2version {
		names = append(names, n)
	}
	return names
}

// Check verifies the bijection invariant. Tests call it after every
// mutation sequence.
func (x *BiIndex) Check() error {
	if len(x.name2version) != len(x.version2name) {
		return fmt.Errorf("geom: index drift: %d names vs %d versions",
			len(x.name2version), len(x.version2name))
	}
	for n, v := range x.name2version {
		back, ok := x.version2name[v]
		if !ok || back != n {
			return fmt.Errorf("geom: index drift at %s/%s", n, v)
		}
	}
	return nil
}

func (x *BiIndex) clone() *BiIndex {
	c := &BiIndex{
		name2version: make(map[Name]Version, len(x.name2version)),
		version2name: make(map[Version]Name, len(x.version2name)),
	}
	for n, v := range x.name2version {
		c.name2version[n] = v
	}
	for v, n := range x.version2name {
		c.version2name[v] = n
	}
	return c
}
