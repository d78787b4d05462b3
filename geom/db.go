package geom

import (
	"context"
	"fmt"

	"github.com/cespare/xxhash"
	"github.com/pkg/errors"
	"github.com/shaunstanislauslau/plasticity/utils"
)

var (
	ErrEmptyGeometry = errors.New("empty geometry payload")
	ErrNotPhantom    = errors.New("version is not a phantom")
)

func hashGeometry(b []byte) uint64 {
	return xxhash.Sum64(b)
}

// Item is one versioned geometry record. The Geometry slice is
// immutable once the item is in the database; replacement allocates a
// new Item under a new Version.
type Item struct {
	Version  Version
	Name     Name
	Agent    Agent
	Geometry []byte
	Hash     uint64
}

// TopologyItem addresses one face/edge/vertex of an owning item.
type TopologyItem struct {
	Kind  byte // 'F', 'E' or 'V'
	Index int
}

// ControlPoint is one editable point of a curve or surface.
type ControlPoint struct {
	X, Y, Z float64
}

// Document is a transferable bundle of committed document state, used
// for bulk load from the Store.
type Document struct {
	Items     []*Item
	Topology  map[Version][]TopologyItem
	Points    map[Version][]ControlPoint
	Automatic []Version
}

// DB is the geometry database. Every mutation runs on its serial
// queue; nothing outside the queue touches the maps, which is what
// makes snapshots and command effects race-free without locks.
//
// Lookups by id or name that find nothing panic: a missing id means
// the name↔version index or a caller-held reference is corrupt, and
// limping on would silently widen the damage.
type DB struct {
	queue *utils.Serial
	log   utils.Logger

	items     map[Version]*Item
	index     *BiIndex
	topology  map[Version][]TopologyItem
	points    map[Version][]ControlPoint
	automatic map[Version]struct{}

	lastVersion int64
	lastName    int64
	lastPhantom int64
}

func NewDB(log utils.Logger) *DB {
	return &DB{
		queue:     utils.NewSerial(),
		log:       log,
		items:     make(map[Version]*Item),
		index:     NewBiIndex(),
		topology:  make(map[Version][]TopologyItem),
		points:    make(map[Version][]ControlPoint),
		automatic: make(map[Version]struct{}),
	}
}

// Enqueue schedules op on the document's serial queue. Command effects
// and the database's own mutators all go through here, so there is
// never concurrent mutation of document state.
func (db *DB) Enqueue(ctx context.Context, op utils.Op) *utils.Done {
	return db.queue.Enqueue(ctx, op)
}

func (db *DB) Queue() *utils.Serial {
	return db.queue
}

func (db *DB) Close() error {
	return db.queue.Close()
}

// AddItem stores a new user or automatic item, allocating a fresh
// version and a fresh stable name.
func (db *DB) AddItem(ctx context.Context, geometry []byte, agent Agent) (v Version, err error) {
	err = db.Enqueue(ctx, func(ctx context.Context) error {
		if len(geometry) == 0 {
			return errors.Wrap(ErrEmptyGeometry, "add item")
		}
		db.lastVersion++
		db.lastName++
		v = Version(db.lastVersion)
		n := Name(db.lastName)
		db.items[v] = &Item{
			Version:  v,
			Name:     n,
			Agent:    agent,
			Geometry: geometry,
			Hash:     hashGeometry(geometry),
		}
		db.index.Insert(n, v)
		if agent == AgentAutomatic {
			db.automatic[v] = struct{}{}
		}
		return nil
	}).Wait(ctx)
	return
}

// ReplaceItem swaps an item's geometry for a new payload. The item
// keeps its name (and automatic membership, topology, control points)
// but gets a fresh version.
func (db *DB) ReplaceItem(ctx context.Context, old Version, geometry []byte) (v Version, err error) {
	err = db.Enqueue(ctx, func(ctx context.Context) error {
		if len(geometry) == 0 {
			return errors.Wrapf(ErrEmptyGeometry, "replace %s", old)
		}
		prev := db.item(old)
		db.lastVersion++
		v = Version(db.lastVersion)
		db.index.Rename(prev.Name, v)
		db.items[v] = &Item{
			Version:  v,
			Name:     prev.Name,
			Agent:    prev.Agent,
			Geometry: geometry,
			Hash:     hashGeometry(geometry),
		}
		delete(db.items, old)
		if topo, ok := db.topology[old]; ok {
			db.topology[v] = topo
			delete(db.topology, old)
		}
		if pts, ok := db.points[old]; ok {
			db.points[v] = pts
			delete(db.points, old)
		}
		if _, ok := db.automatic[old]; ok {
			delete(db.automatic, old)
			db.automatic[v] = struct{}{}
		}
		return nil
	}).Wait(ctx)
	return
}

// RemoveItem deletes an item and every record hanging off it.
func (db *DB) RemoveItem(ctx context.Context, v Version) error {
	return db.Enqueue(ctx, func(ctx context.Context) error {
		db.item(v) // fail fast on a stale reference
		db.index.RemoveVersion(v)
		delete(db.items, v)
		delete(db.topology, v)
		delete(db.points, v)
		delete(db.automatic, v)
		return nil
	}).Wait(ctx)
}

// AddPhantom stores temporary preview geometry under a negative
// version. Phantoms never enter the name index, the automatic set, or
// persisted state.
func (db *DB) AddPhantom(ctx context.Context, geometry []byte) (v Version, err error) {
	err = db.Enqueue(ctx, func(ctx context.Context) error {
		if len(geometry) == 0 {
			return errors.Wrap(ErrEmptyGeometry, "add phantom")
		}
		db.lastPhantom--
		v = Version(db.lastPhantom)
		db.items[v] = &Item{
			Version:  v,
			Geometry: geometry,
			Hash:     hashGeometry(geometry),
		}
		return nil
	}).Wait(ctx)
	return
}

func (db *DB) RemovePhantom(ctx context.Context, v Version) error {
	return db.Enqueue(ctx, func(ctx context.Context) error {
		if !v.Phantom() {
			return errors.Wrapf(ErrNotPhantom, "remove %s", v)
		}
		db.item(v)
		delete(db.items, v)
		return nil
	}).Wait(ctx)
}

// SetTopology records the face/edge/vertex breakdown of an item.
func (db *DB) SetTopology(ctx context.Context, v Version, topo []TopologyItem) error {
	return db.Enqueue(ctx, func(ctx context.Context) error {
		db.item(v)
		db.topology[v] = topo
		return nil
	}).Wait(ctx)
}

// SetControlPoints records the editable points of an item.
func (db *DB) SetControlPoints(ctx context.Context, v Version, pts []ControlPoint) error {
	return db.Enqueue(ctx, func(ctx context.Context) error {
		db.item(v)
		db.points[v] = pts
		return nil
	}).Wait(ctx)
}

// LoadBulk replaces the whole document with doc. Replace, not merge:
// no pre-existing entry survives.
func (db *DB) LoadBulk(ctx context.Context, doc Document) error {
	return db.Enqueue(ctx, func(ctx context.Context) error {
		items := make(map[Version]*Item, len(doc.Items))
		index := NewBiIndex()
		var lastV, lastN int64
		for _, it := range doc.Items {
			if !it.Version.Real() {
				return fmt.Errorf("geom: bulk load of non-real %s", it.Version)
			}
			items[it.Version] = it
			index.Insert(it.Name, it.Version)
			if int64(it.Version) > lastV {
				lastV = int64(it.Version)
			}
			if int64(it.Name) > lastN {
				lastN = int64(it.Name)
			}
		}
		automatic := make(map[Version]struct{}, len(doc.Automatic))
		for _, v := range doc.Automatic {
			if _, ok := items[v]; !ok {
				return fmt.Errorf("geom: automatic marker for unknown %s", v)
			}
			automatic[v] = struct{}{}
		}
		topology := make(map[Version][]TopologyItem, len(doc.Topology))
		for v, topo := range doc.Topology {
			topology[v] = topo
		}
		points := make(map[Version][]ControlPoint, len(doc.Points))
		for v, pts := range doc.Points {
			points[v] = pts
		}
		db.items = items
		db.index = index
		db.topology = topology
		db.points = points
		db.automatic = automatic
		db.lastVersion = lastV
		db.lastName = lastN
		db.lastPhantom = 0
		return nil
	}).Wait(ctx)
}

func (db *DB) item(v Version) *Item {
	it, ok := db.items[v]
	if !ok {
		panic(fmt.Sprintf("geom: version %s is not in the database", v))
	}
	return it
}

// Item returns the record for v. Missing versions panic, see DB.
func (db *DB) Item(v Version) *Item {
	return db.item(v)
}

// ItemByName resolves a stable name to its current record.
func (db *DB) ItemByName(n Name) *Item {
	return db.item(db.index.Version(n))
}

func (db *DB) Has(v Version) bool {
	_, ok := db.items[v]
	return ok
}

// Topology returns the recorded topology items of v, nil if none.
func (db *DB) Topology(v Version) []TopologyItem {
	db.item(v)
	return db.topology[v]
}

// ControlPoints returns the recorded control points of v, nil if none.
func (db *DB) ControlPoints(v Version) []ControlPoint {
	db.item(v)
	return db.points[v]
}

func (db *DB) Automatic(v Version) bool {
	_, ok := db.automatic[v]
	return ok
}

// List enumerates real, user-authored items. Automatic items and
// phantoms are excluded from the default view.
func (db *DB) List() (versions []Version) {
	for v := range db.items {
		if !v.Real() {
			continue
		}
		if _, auto := db.automatic[v]; auto {
			continue
		}
		versions = append(versions, v)
	}
	return
}

// ListAll enumerates every real item, automatic included.
func (db *DB) ListAll() (versions []Version) {
	for v := range db.items {
		if v.Real() {
			versions = append(versions, v)
		}
	}
	return
}

func (db *DB) Index() *BiIndex {
	return db.index
}

func (db *DB) Len() int {
	return len(db.items)
}
