package plasticity

import (
	"context"

	"github.com/shaunstanislauslau/plasticity/geom"
)

// EditorMemento bundles one consistent capture of everything undo
// covers: the geometry database plus every derived subsystem.
// Immutable once produced.
type EditorMemento struct {
	db        *geom.Memento
	selection *SelectionMemento
	snaps     *SnapMemento
	curves    *CurvesMemento
	modifiers *ModifierMemento
}

// EditorOriginator composes per-subsystem snapshot/restore pairs into
// the single memento History works with. Commands never touch it
// directly; the executor checkpoints through it and History restores
// through it.
type EditorOriginator struct {
	db        *geom.DB
	selection *Selection
	snaps     *SnapCache
	curves    *Curves
	modifiers *ModifierStack
}

// Snapshot is a pure capture; it mutates nothing. The database part
// runs on the document queue so it cannot observe a half-applied
// mutation; the derived subsystems are captured right after it.
func (o *EditorOriginator) Snapshot(ctx context.Context) (*EditorMemento, error) {
	dbm, err := o.db.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return &EditorMemento{
		db:        dbm,
		selection: o.selection.Snapshot(),
		snaps:     o.snaps.Snapshot(),
		curves:    o.curves.Snapshot(),
		modifiers: o.modifiers.Snapshot(),
	}, nil
}

// Restore replaces every subsystem's live state from m, wholesale.
// Partial restores are not a thing: the database restore either runs
// or the whole call fails before any subsystem was touched.
func (o *EditorOriginator) Restore(ctx context.Context, m *EditorMemento) error {
	if err := o.db.Restore(ctx, m.db); err != nil {
		return err
	}
	o.selection.restore(m.selection)
	o.snaps.restore(m.snaps)
	o.curves.restore(m.curves)
	o.modifiers.restore(m.modifiers)
	return nil
}
