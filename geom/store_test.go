package geom

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testdirs(t *testing.T, names ...string) []string {
	dirs := make([]string, len(names))
	for i, name := range names {
		dirs[i] = t.TempDir() + "/" + name
		os.RemoveAll(dirs[i])
	}
	return dirs
}

func TestStore_SaveLoadRoundtrip(t *testing.T) {
	dirs := testdirs(t, "doc")
	ctx := context.Background()

	src := testDB()
	user, err := src.AddItem(ctx, []byte("box(1,2,3)"), AgentUser)
	require.Nil(t, err)
	auto, err := src.AddItem(ctx, []byte("region(box)"), AgentAutomatic)
	require.Nil(t, err)
	require.Nil(t, src.SetTopology(ctx, user, []TopologyItem{{Kind: 'F', Index: 0}, {Kind: 'V', Index: 7}}))
	require.Nil(t, src.SetControlPoints(ctx, user, []ControlPoint{{X: 0.5, Y: -1, Z: 2.25}}))

	// phantoms must not reach the store
	_, err = src.AddPhantom(ctx, []byte("ghost"))
	require.Nil(t, err)

	store, err := OpenStore(dirs[0], StoreOptions{})
	require.Nil(t, err)
	require.Nil(t, store.Save(ctx, src))
	require.Nil(t, store.Close())

	store, err = OpenStore(dirs[0], StoreOptions{})
	require.Nil(t, err)
	defer store.Close()

	dst := testDB()
	require.Nil(t, store.Load(ctx, dst))

	assert.Equal(t, 2, dst.Len())
	assert.True(t, dst.Has(user))
	assert.Equal(t, []byte("box(1,2,3)"), dst.Item(user).Geometry)
	assert.Equal(t, src.Item(user).Name, dst.Item(user).Name)
	assert.Equal(t, src.Item(user).Hash, dst.Item(user).Hash)
	assert.True(t, dst.Automatic(auto))
	assert.Equal(t, []Version{user}, dst.List())
	assert.Equal(t, []TopologyItem{{Kind: 'F', Index: 0}, {Kind: 'V', Index: 7}}, dst.Topology(user))
	assert.Equal(t, []ControlPoint{{X: 0.5, Y: -1, Z: 2.25}}, dst.ControlPoints(user))
	assert.Nil(t, dst.Index().Check())

	// version allocation resumes past the loaded ids
	next, err := dst.AddItem(ctx, []byte("sphere"), AgentUser)
	require.Nil(t, err)
	assert.Greater(t, next, auto)
}

func TestStore_LoadReplacesLiveState(t *testing.T) {
	dirs := testdirs(t, "doc")
	ctx := context.Background()

	src := testDB()
	_, err := src.AddItem(ctx, []byte("saved"), AgentUser)
	require.Nil(t, err)

	store, err := OpenStore(dirs[0], StoreOptions{})
	require.Nil(t, err)
	defer store.Close()
	require.Nil(t, store.Save(ctx, src))

	dst := testDB()
	stale, err := dst.AddItem(ctx, []byte("stale"), AgentUser)
	require.Nil(t, err)

	require.Nil(t, store.Load(ctx, dst))
	assert.Equal(t, 1, dst.Len())
	// the stale entry is gone; version 1 now holds the loaded item
	assert.Equal(t, Version(1), stale)
	assert.Equal(t, []byte("saved"), dst.Item(Version(1)).Geometry)
}

func TestStore_SaveOverwrites(t *testing.T) {
	dirs := testdirs(t, "doc")
	ctx := context.Background()

	db := testDB()
	v, err := db.AddItem(ctx, []byte("first"), AgentUser)
	require.Nil(t, err)

	store, err := OpenStore(dirs[0], StoreOptions{})
	require.Nil(t, err)
	defer store.Close()
	require.Nil(t, store.Save(ctx, db))

	require.Nil(t, db.RemoveItem(ctx, v))
	_, err = db.AddItem(ctx, []byte("second"), AgentUser)
	require.Nil(t, err)
	require.Nil(t, store.Save(ctx, db))

	dst := testDB()
	require.Nil(t, store.Load(ctx, dst))
	assert.Equal(t, 1, dst.Len())
	for _, v := range dst.ListAll() {
		assert.Equal(t, []byte("second"), dst.Item(v).Geometry)
	}
}
