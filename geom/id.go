// Package geom is the editor's document model: a versioned store of
// geometry items, their topology and control points, and the stable
// name index that survives geometry replacement. All mutation goes
// through the database's serial queue.
package geom

import "fmt"

// Version is the physical identity of one geometry payload. Replacing
// an item's geometry allocates a new Version; the item's Name stays.
// Real items have positive, monotonically increasing versions.
// Phantoms (temporary/preview geometry) have negative versions and are
// never indexed or persisted.
type Version int64

// Name is the stable logical identity of an item, preserved across
// geometry replacement.
type Name int64

const (
	BadVersion Version = 0
	BadName    Name    = 0
)

func (v Version) Real() bool    { return v > 0 }
func (v Version) Phantom() bool { return v < 0 }

func (v Version) String() string {
	if v.Phantom() {
		return fmt.Sprintf("~%d", -int64(v))
	}
	return fmt.Sprintf("v%d", int64(v))
}

func (n Name) String() string {
	return fmt.Sprintf("n%d", int64(n))
}

// Agent is the logical source of a mutation. Automatic items are
// derived by internal subsystems and excluded from default listings
// and selection.
type Agent byte

const (
	AgentUser      Agent = 'u'
	AgentAutomatic Agent = 'a'
)

func (a Agent) String() string {
	switch a {
	case AgentUser:
		return "user"
	case AgentAutomatic:
		return "automatic"
	}
	return fmt.Sprintf("agent(%c)", byte(a))
}
