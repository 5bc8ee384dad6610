package locbook

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-ringnode/internal/core/storage/engine"
	"github.com/dep2p/go-ringnode/internal/core/storage/engine/badger"
	"github.com/dep2p/go-ringnode/internal/core/storage/kv"
	"github.com/dep2p/go-ringnode/pkg/types"
)

func openEngine(t *testing.T, path string) *badger.Engine {
	t.Helper()
	eng, err := badger.New(engine.DefaultConfig(path))
	require.NoError(t, err)
	return eng
}

func newTestBook(t *testing.T) (*Book, *kv.Store) {
	t.Helper()
	eng := openEngine(t, filepath.Join(t.TempDir(), "test.db"))
	t.Cleanup(func() { _ = eng.Close() })

	store := kv.New(eng, StorePrefix)
	b, err := New(store, 4)
	require.NoError(t, err)
	return b, store
}

// TestBook_PutGetDelete 测试基础读写
func TestBook_PutGetDelete(t *testing.T) {
	b, _ := newTestBook(t)
	p := types.NewPeerKeyLocation(types.RandomPeerID(), types.MustLocation(0.42))

	_, err := b.Get(p.Peer)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, b.Put(p))
	loc, err := b.Get(p.Peer)
	require.NoError(t, err)
	assert.True(t, loc.Equal(p.Location))

	// 覆盖
	p.Location = types.MustLocation(0.9)
	require.NoError(t, b.Put(p))
	loc, err = b.Get(p.Peer)
	require.NoError(t, err)
	assert.Equal(t, 0.9, loc.Float64())

	require.NoError(t, b.Delete(p.Peer))
	_, err = b.Get(p.Peer)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, b.Delete(p.Peer))
}

// TestBook_CacheEviction 测试缓存淘汰后仍可从存储读取
func TestBook_CacheEviction(t *testing.T) {
	b, _ := newTestBook(t)

	var peers []types.PeerKeyLocation
	for i := 0; i < 10; i++ {
		p := types.NewPeerKeyLocation(types.RandomPeerID(), types.MustLocation(float64(i)/10))
		require.NoError(t, b.Put(p))
		peers = append(peers, p)
	}
	assert.LessOrEqual(t, b.cache.Len(), 4)

	for _, p := range peers {
		loc, err := b.Get(p.Peer)
		require.NoError(t, err)
		assert.True(t, loc.Equal(p.Location))
	}
}

// TestBook_Peers 测试按坐标排序的列表
func TestBook_Peers(t *testing.T) {
	b, _ := newTestBook(t)

	for _, v := range []float64{0.8, 0.1, 0.5} {
		require.NoError(t, b.Put(types.NewPeerKeyLocation(types.RandomPeerID(), types.MustLocation(v))))
	}

	peers, err := b.Peers()
	require.NoError(t, err)
	require.Len(t, peers, 3)
	assert.Equal(t, 0.1, peers[0].Location.Float64())
	assert.Equal(t, 0.5, peers[1].Location.Float64())
	assert.Equal(t, 0.8, peers[2].Location.Float64())
}

// TestBook_Corrupted 测试损坏记录
func TestBook_Corrupted(t *testing.T) {
	b, store := newTestBook(t)
	id := types.RandomPeerID()

	require.NoError(t, store.PutUint64(peerKey(id), math.Float64bits(7)))

	_, err := b.Get(id)
	assert.ErrorIs(t, err, ErrCorrupted)

	// 列表跳过损坏记录
	require.NoError(t, b.Put(types.NewPeerKeyLocation(types.RandomPeerID(), types.MustLocation(0.3))))
	peers, err := b.Peers()
	require.NoError(t, err)
	assert.Len(t, peers, 1)

	require.NoError(t, store.PutUint64(selfKey, math.Float64bits(math.NaN())))
	_, err = b.SelfLocation(nil)
	assert.ErrorIs(t, err, ErrCorrupted)
}

// TestBook_SelfLocation 测试自身坐标的生成、持久化与覆盖
func TestBook_SelfLocation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "self.db")

	eng := openEngine(t, path)
	b, err := New(kv.New(eng, StorePrefix), 0)
	require.NoError(t, err)

	first, err := b.SelfLocation(nil)
	require.NoError(t, err)
	again, err := b.SelfLocation(nil)
	require.NoError(t, err)
	assert.True(t, first.Equal(again), "同一进程内应返回相同坐标")
	require.NoError(t, eng.Close())

	// 重启后保持不变
	eng = openEngine(t, path)
	b, err = New(kv.New(eng, StorePrefix), 0)
	require.NoError(t, err)
	reopened, err := b.SelfLocation(nil)
	require.NoError(t, err)
	assert.True(t, first.Equal(reopened), "重启后应加载持久化坐标")

	// 配置值覆盖并持久化
	fixed := types.MustLocation(0.625)
	got, err := b.SelfLocation(&fixed)
	require.NoError(t, err)
	assert.True(t, got.Equal(fixed))

	got, err = b.SelfLocation(nil)
	require.NoError(t, err)
	assert.True(t, got.Equal(fixed))
	require.NoError(t, eng.Close())
}

// TestBook_Self 测试自身 ID 持久化
func TestBook_Self(t *testing.T) {
	b, store := newTestBook(t)

	self, err := b.Self(nil)
	require.NoError(t, err)
	assert.False(t, self.Peer.IsEmpty())

	again, err := b.Self(nil)
	require.NoError(t, err)
	assert.Equal(t, self, again)

	require.NoError(t, store.Put(selfIDKey, []byte{1, 2, 3}))
	_, err = b.SelfPeerID()
	assert.ErrorIs(t, err, ErrCorrupted)
}

// TestBook_Closed 测试底层存储关闭后返回 ErrClosed
func TestBook_Closed(t *testing.T) {
	eng := openEngine(t, filepath.Join(t.TempDir(), "closed.db"))
	b, err := New(kv.New(eng, StorePrefix), 4)
	require.NoError(t, err)

	p := types.NewPeerKeyLocation(types.RandomPeerID(), types.MustLocation(0.3))
	require.NoError(t, eng.Close())

	assert.ErrorIs(t, b.Put(p), ErrClosed)
	_, err = b.Get(p.Peer)
	assert.ErrorIs(t, err, ErrClosed)
	assert.NotErrorIs(t, err, ErrNotFound)
}
