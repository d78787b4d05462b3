package geom

import (
	"context"
	"log/slog"
	"testing"

	"github.com/pkg/errors"
	"github.com/shaunstanislauslau/plasticity/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDB() *DB {
	return NewDB(utils.NewDefaultLogger(slog.LevelWarn))
}

func TestDB_AddReplaceRemove(t *testing.T) {
	db := testDB()
	ctx := context.Background()

	v1, err := db.AddItem(ctx, []byte("box"), AgentUser)
	require.Nil(t, err)
	assert.True(t, v1.Real())

	it := db.Item(v1)
	name := it.Name
	assert.Equal(t, AgentUser, it.Agent)
	assert.NotZero(t, it.Hash)

	v2, err := db.ReplaceItem(ctx, v1, []byte("fillet(box)"))
	require.Nil(t, err)
	assert.NotEqual(t, v1, v2)
	assert.False(t, db.Has(v1))

	// replacement keeps the stable name under the new version
	assert.Equal(t, name, db.Item(v2).Name)
	assert.Equal(t, v2, db.ItemByName(name).Version)
	assert.Nil(t, db.Index().Check())

	require.Nil(t, db.RemoveItem(ctx, v2))
	assert.False(t, db.Has(v2))
	assert.Equal(t, 0, db.Index().Len())
	assert.Nil(t, db.Index().Check())
}

func TestDB_IndexInverseInvariant(t *testing.T) {
	db := testDB()
	ctx := context.Background()

	var versions []Version
	for i := 0; i < 20; i++ {
		v, err := db.AddItem(ctx, []byte{byte('a' + i)}, AgentUser)
		require.Nil(t, err)
		versions = append(versions, v)
	}
	for i := 0; i < 10; i++ {
		v, err := db.ReplaceItem(ctx, versions[i], []byte{byte('A' + i)})
		require.Nil(t, err)
		versions[i] = v
	}
	for i := 15; i < 20; i++ {
		require.Nil(t, db.RemoveItem(ctx, versions[i]))
	}
	assert.Nil(t, db.Index().Check())
	assert.Equal(t, 15, db.Index().Len())
}

func TestDB_EmptyGeometry(t *testing.T) {
	db := testDB()
	_, err := db.AddItem(context.Background(), nil, AgentUser)
	assert.True(t, errors.Is(err, ErrEmptyGeometry))
}

func TestDB_MissingLookupPanics(t *testing.T) {
	db := testDB()
	assert.Panics(t, func() { db.Item(Version(42)) })
	assert.Panics(t, func() { db.Index().Version(Name(7)) })
}

func TestDB_Phantoms(t *testing.T) {
	db := testDB()
	ctx := context.Background()

	p1, err := db.AddPhantom(ctx, []byte("preview"))
	require.Nil(t, err)
	p2, err := db.AddPhantom(ctx, []byte("preview2"))
	require.Nil(t, err)

	assert.True(t, p1.Phantom())
	assert.True(t, p2 < p1)
	assert.False(t, db.Index().HasVersion(p1))
	assert.Empty(t, db.List())

	v, err := db.AddItem(ctx, []byte("real"), AgentUser)
	require.Nil(t, err)
	assert.True(t, errors.Is(db.RemovePhantom(ctx, v), ErrNotPhantom))
	require.Nil(t, db.RemovePhantom(ctx, p1))
	assert.False(t, db.Has(p1))
}

func TestDB_AutomaticExcludedFromList(t *testing.T) {
	db := testDB()
	ctx := context.Background()

	user, err := db.AddItem(ctx, []byte("sketch"), AgentUser)
	require.Nil(t, err)
	auto, err := db.AddItem(ctx, []byte("derived region"), AgentAutomatic)
	require.Nil(t, err)

	assert.True(t, db.Automatic(auto))
	assert.Equal(t, []Version{user}, db.List())
	assert.Len(t, db.ListAll(), 2)

	// automatic membership follows the item through replacement
	auto2, err := db.ReplaceItem(ctx, auto, []byte("derived region v2"))
	require.Nil(t, err)
	assert.True(t, db.Automatic(auto2))
	assert.False(t, db.Automatic(user))
}

func TestDB_TopologyAndControlPoints(t *testing.T) {
	db := testDB()
	ctx := context.Background()

	v, err := db.AddItem(ctx, []byte("solid"), AgentUser)
	require.Nil(t, err)
	require.Nil(t, db.SetTopology(ctx, v, []TopologyItem{{Kind: 'F', Index: 0}, {Kind: 'E', Index: 3}}))
	require.Nil(t, db.SetControlPoints(ctx, v, []ControlPoint{{X: 1, Y: 2, Z: 3}}))

	v2, err := db.ReplaceItem(ctx, v, []byte("solid2"))
	require.Nil(t, err)
	assert.Len(t, db.Topology(v2), 2)
	assert.Len(t, db.ControlPoints(v2), 1)
}

func TestDB_SnapshotIsImmutable(t *testing.T) {
	db := testDB()
	ctx := context.Background()

	v1, err := db.AddItem(ctx, []byte("one"), AgentUser)
	require.Nil(t, err)

	m, err := db.Snapshot(ctx)
	require.Nil(t, err)
	require.Equal(t, 1, m.Len())

	// live mutation after the snapshot must not leak into it
	_, err = db.AddItem(ctx, []byte("two"), AgentUser)
	require.Nil(t, err)
	_, err = db.ReplaceItem(ctx, v1, []byte("one-replaced"))
	require.Nil(t, err)
	assert.Equal(t, 1, m.Len())

	require.Nil(t, db.Restore(ctx, m))
	assert.Equal(t, 1, db.Len())
	assert.True(t, db.Has(v1))
	assert.Equal(t, []byte("one"), db.Item(v1).Geometry)
	assert.Nil(t, db.Index().Check())

	// id allocation state is part of the snapshot
	v3, err := db.AddItem(ctx, []byte("three"), AgentUser)
	require.Nil(t, err)
	assert.Equal(t, v1+1, v3)
}

func TestDB_RestoreReplacesNotMerges(t *testing.T) {
	db := testDB()
	ctx := context.Background()

	_, err := db.AddItem(ctx, []byte("keep"), AgentUser)
	require.Nil(t, err)
	m, err := db.Snapshot(ctx)
	require.Nil(t, err)

	stale, err := db.AddItem(ctx, []byte("stale"), AgentUser)
	require.Nil(t, err)

	require.Nil(t, db.Restore(ctx, m))
	assert.False(t, db.Has(stale))
	assert.Equal(t, 1, db.Len())
}

func TestBiIndex_Corruption(t *testing.T) {
	x := NewBiIndex()
	x.Insert(Name(1), Version(10))
	assert.Panics(t, func() { x.Insert(Name(1), Version(11)) })
	assert.Panics(t, func() { x.Insert(Name(2), Version(10)) })
	assert.Panics(t, func() { x.Insert(Name(3), Version(-1)) })
	assert.Panics(t, func() { x.RemoveVersion(Version(99)) })
	assert.Nil(t, x.Check())
}
