package geom

import (
	"context"
)

// Memento is a point-in-time capture of the whole database. The maps
// are copied; geometry payloads are immutable once inserted, so they
// are structurally shared. A Memento never changes after Snapshot
// returns, no matter what the live database does next.
type Memento struct {
	items     map[Version]*Item
	index     *BiIndex
	topology  map[Version][]TopologyItem
	points    map[Version][]ControlPoint
	automatic map[Version]struct{}

	lastVersion int64
	lastName    int64
	lastPhantom int64
}

// Snapshot captures the current document state. Runs on the serial
// queue (inline when already inside it), so it never observes a
// half-applied mutation.
func (db *DB) Snapshot(ctx context.Context) (m *Memento, err error) {
	err = db.Enqueue(ctx, func(ctx context.Context) error {
		m = db.snapshot()
		return nil
	}).Wait(ctx)
	return
}

func (db *DB) snapshot() *Memento {
	m := &Memento{
		items:       make(map[Version]*Item, len(db.items)),
		index:       db.index.clone(),
		topology:    make(map[Version][]TopologyItem, len(db.topology)),
		points:      make(map[Version][]ControlPoint, len(db.points)),
		automatic:   make(map[Version]struct{}, len(db.automatic)),
		lastVersion: db.lastVersion,
		lastName:    db.lastName,
		lastPhantom: db.lastPhantom,
	}
	for v, it := range db.items {
		copied := *it
		m.items[v] = &copied
	}
	for v, topo := range db.topology {
		m.topology[v] = append([]TopologyItem(nil), topo...)
	}
	for v, pts := range db.points {
		m.points[v] = append([]ControlPoint(nil), pts...)
	}
	for v := range db.automatic {
		m.automatic[v] = struct{}{}
	}
	return m
}

// Restore replaces the live document state with m's, wholesale. No
// entry that existed before survives unless m contains it.
func (db *DB) Restore(ctx context.Context, m *Memento) error {
	return db.Enqueue(ctx, func(ctx context.Context) error {
		db.restore(m)
		return nil
	}).Wait(ctx)
}

func (db *DB) restore(m *Memento) {
	db.items = make(map[Version]*Item, len(m.items))
	for v, it := range m.items {
		copied := *it
		db.items[v] = &copied
	}
	db.index = m.index.clone()
	db.topology = make(map[Version][]TopologyItem, len(m.topology))
	for v, topo := range m.topology {
		db.topology[v] = append([]TopologyItem(nil), topo...)
	}
	db.points = make(map[Version][]ControlPoint, len(m.points))
	for v, pts := range m.points {
		db.points[v] = append([]ControlPoint(nil), pts...)
	}
	db.automatic = make(map[Version]struct{}, len(m.automatic))
	for v := range m.automatic {
		db.automatic[v] = struct{}{}
	}
	db.lastVersion = m.lastVersion
	db.lastName = m.lastName
	db.lastPhantom = m.lastPhantom
}

// Len reports how many items the capture holds.
func (m *Memento) Len() int {
	return len(m.items)
}
