package ring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-ringnode/pkg/types"
)

// TestTable_OrderedByLocation 测试遍历按坐标升序
func TestTable_OrderedByLocation(t *testing.T) {
	tbl := NewTable()
	for _, v := range []float64{0.9, 0.1, 0.5, 0.3} {
		require.NoError(t, tbl.Insert(peerAt(v)))
	}

	peers := tbl.Peers()
	require.Len(t, peers, 4)
	got := make([]float64, len(peers))
	for i, p := range peers {
		got[i] = p.Location.Float64()
	}
	assert.Equal(t, []float64{0.1, 0.3, 0.5, 0.9}, got)
	assert.Equal(t, 4, tbl.Len())
}

// TestTable_InsertCollision 测试坐标冲突时拒绝插入且保留原节点
func TestTable_InsertCollision(t *testing.T) {
	tbl := NewTable()
	first := peerAt(0.4)
	require.NoError(t, tbl.Insert(first))

	err := tbl.Insert(peerAt(0.4))
	assert.ErrorIs(t, err, ErrLocationTaken)

	got, ok := tbl.Get(types.MustLocation(0.4))
	require.True(t, ok)
	assert.Equal(t, first, got)
	assert.Equal(t, 1, tbl.Len())
}

// TestTable_Remove 测试按坐标与按 ID 移除
func TestTable_Remove(t *testing.T) {
	tbl := NewTable()
	a, b := peerAt(0.2), peerAt(0.7)
	require.NoError(t, tbl.Insert(a))
	require.NoError(t, tbl.Insert(b))

	removed, ok := tbl.Remove(a.Location)
	require.True(t, ok)
	assert.Equal(t, a, removed)
	assert.False(t, tbl.Contains(a.Location))

	_, ok = tbl.Remove(a.Location)
	assert.False(t, ok, "重复移除应返回 false")

	removed, ok = tbl.RemovePeer(b.Peer)
	require.True(t, ok)
	assert.Equal(t, b, removed)
	assert.Equal(t, 0, tbl.Len())

	_, ok = tbl.RemovePeer(b.Peer)
	assert.False(t, ok)
}

// TestTable_PeersIsSnapshot 测试 Peers 返回副本
func TestTable_PeersIsSnapshot(t *testing.T) {
	tbl := NewTable()
	require.NoError(t, tbl.Insert(peerAt(0.5)))

	snap := tbl.Peers()
	require.NoError(t, tbl.Insert(peerAt(0.6)))

	assert.Len(t, snap, 1)
	assert.Len(t, tbl.Peers(), 2)
}
