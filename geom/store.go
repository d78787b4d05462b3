package geom

import (
	"context"
	"encoding/binary"
	"log/slog"
	"math"

	"github.com/cockroachdb/pebble"
	"github.com/learn-decentralized-systems/toytlv"
	"github.com/pkg/errors"
	"github.com/shaunstanislauslau/plasticity/utils"
)

// Store persists committed documents in a pebble keyspace: one TLV
// record per real item under an O-prefixed big-endian version key.
// Phantoms are never written. The store holds whatever the editor last
// saved; it is not written on every command.
type Store struct {
	pdb *pebble.DB
	log utils.Logger
}

type StoreOptions struct {
	Logger utils.Logger
	pebble.Options
}

func (o *StoreOptions) SetDefaults() {
	if o.Logger == nil {
		o.Logger = utils.NewDefaultLogger(slog.LevelInfo)
	}
}

var WriteOptions = pebble.WriteOptions{Sync: true}

var ErrBadItemRecord = errors.New("bad item record")

func OpenStore(path string, opts StoreOptions) (*Store, error) {
	opts.SetDefaults()
	pdb, err := pebble.Open(path, &opts.Options)
	if err != nil {
		return nil, errors.Wrapf(err, "open store %s", path)
	}
	return &Store{pdb: pdb, log: opts.Logger}, nil
}

func (s *Store) Close() error {
	if s.pdb == nil {
		return nil
	}
	err := s.pdb.Close()
	s.pdb = nil
	return err
}

// OKey addresses one item record.
func OKey(v Version) (key []byte) {
	var ret = [9]byte{'O'}
	return binary.BigEndian.AppendUint64(ret[:1], uint64(v))
}

func OKeyVersion(key []byte) Version {
	if len(key) != 9 || key[0] != 'O' {
		return BadVersion
	}
	return Version(binary.BigEndian.Uint64(key[1:]))
}

// Save writes a consistent capture of db, replacing whatever the store
// held before.
func (s *Store) Save(ctx context.Context, db *DB) error {
	m, err := db.Snapshot(ctx)
	if err != nil {
		return err
	}
	batch := s.pdb.NewBatch()
	if err := batch.DeleteRange([]byte{'O'}, []byte{'P'}, &WriteOptions); err != nil {
		return errors.Wrap(err, "clear store")
	}
	for v, it := range m.items {
		if !v.Real() {
			continue
		}
		rec := itemRecord(it, m.topology[v], m.points[v], m.automatic)
		if err := batch.Set(OKey(v), rec, &WriteOptions); err != nil {
			return errors.Wrapf(err, "save %s", v)
		}
	}
	if err := s.pdb.Apply(batch, &WriteOptions); err != nil {
		return errors.Wrap(err, "apply save batch")
	}
	s.log.InfoCtx(ctx, "document saved", "items", m.Len())
	return nil
}

// Load reads the stored document and bulk-loads it into db,
// replacing the live document wholesale.
func (s *Store) Load(ctx context.Context, db *DB) error {
	doc := Document{
		Topology: make(map[Version][]TopologyItem),
		Points:   make(map[Version][]ControlPoint),
	}
	it, err := s.pdb.NewIter(&pebble.IterOptions{
		LowerBound: []byte{'O'},
		UpperBound: []byte{'P'},
	})
	if err != nil {
		return errors.Wrap(err, "iterate store")
	}
	for it.First(); it.Valid(); it.Next() {
		v := OKeyVersion(it.Key())
		if v == BadVersion {
			continue
		}
		item, topo, pts, auto, perr := parseItemRecord(it.Value())
		if perr != nil {
			_ = it.Close()
			return errors.Wrapf(perr, "load %s", v)
		}
		item.Version = v
		doc.Items = append(doc.Items, item)
		if len(topo) > 0 {
			doc.Topology[v] = topo
		}
		if len(pts) > 0 {
			doc.Points[v] = pts
		}
		if auto {
			doc.Automatic = append(doc.Automatic, v)
		}
	}
	if err := it.Close(); err != nil {
		return errors.Wrap(err, "close store iterator")
	}
	if err := db.LoadBulk(ctx, doc); err != nil {
		return err
	}
	s.log.InfoCtx(ctx, "document loaded", "items", len(doc.Items))
	return nil
}

// itemRecord serializes one item:
//
//	N: stable name, A: agent (+ automatic marker), G: geometry,
//	T: topology items, P: control points.
func itemRecord(it *Item, topo []TopologyItem, pts []ControlPoint, automatic map[Version]struct{}) []byte {
	agent := []byte{byte(it.Agent)}
	if _, auto := automatic[it.Version]; auto {
		agent = append(agent, '!')
	}
	recs := [][]byte{
		toytlv.Record('N', binary.BigEndian.AppendUint64(nil, uint64(it.Name))),
		toytlv.Record('A', agent),
		toytlv.Record('G', it.Geometry),
	}
	for _, t := range topo {
		var b []byte
		b = append(b, t.Kind)
		b = binary.BigEndian.AppendUint32(b, uint32(t.Index))
		recs = append(recs, toytlv.Record('T', b))
	}
	for _, p := range pts {
		var b []byte
		b = binary.BigEndian.AppendUint64(b, math.Float64bits(p.X))
		b = binary.BigEndian.AppendUint64(b, math.Float64bits(p.Y))
		b = binary.BigEndian.AppendUint64(b, math.Float64bits(p.Z))
		recs = append(recs, toytlv.Record('P', b))
	}
	return toytlv.Concat(recs...)
}

func parseItemRecord(data []byte) (item *Item, topo []TopologyItem, pts []ControlPoint, auto bool, err error) {
	nbody, rest := toytlv.Take('N', data)
	if len(nbody) != 8 {
		return nil, nil, nil, false, ErrBadItemRecord
	}
	abody, rest := toytlv.Take('A', rest)
	if len(abody) < 1 {
		return nil, nil, nil, false, ErrBadItemRecord
	}
	gbody, rest := toytlv.Take('G', rest)
	if gbody == nil {
		return nil, nil, nil, false, ErrBadItemRecord
	}
	item = &Item{
		Name:     Name(binary.BigEndian.Uint64(nbody)),
		Agent:    Agent(abody[0]),
		Geometry: gbody,
		Hash:     hashGeometry(gbody),
	}
	auto = len(abody) > 1 && abody[1] == '!'
	for len(rest) > 0 {
		tbody, r := toytlv.Take('T', rest)
		if tbody != nil {
			if len(tbody) != 5 {
				return nil, nil, nil, false, ErrBadItemRecord
			}
			topo = append(topo, TopologyItem{
				Kind:  tbody[0],
				Index: int(binary.BigEndian.Uint32(tbody[1:])),
			})
			rest = r
			continue
		}
		pbody, r := toytlv.Take('P', rest)
		if pbody == nil {
			return nil, nil, nil, false, ErrBadItemRecord
		}
		if len(pbody) != 24 {
			return nil, nil, nil, false, ErrBadItemRecord
		}
		pts = append(pts, ControlPoint{
			X: math.Float64frombits(binary.BigEndian.Uint64(pbody[:8])),
			Y: math.Float64frombits(binary.BigEndian.Uint64(pbody[8:16])),
			Z: math.Float64frombits(binary.BigEndian.Uint64(pbody[16:24])),
		})
		rest = r
	}
	return
}
