package ring

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-ringnode/pkg/types"
)

// peerAt 创建位于 v 的随机 ID 节点
func peerAt(v float64) types.PeerKeyLocation {
	return types.NewPeerKeyLocation(types.RandomPeerID(), types.MustLocation(v))
}

// fill 直接向连接表插入位于 locs 的节点
func fill(t *testing.T, r *Ring, locs ...float64) []types.PeerKeyLocation {
	t.Helper()
	peers := make([]types.PeerKeyLocation, 0, len(locs))
	for _, v := range locs {
		p := peerAt(v)
		require.NoError(t, r.Connections().Insert(p))
		peers = append(peers, p)
	}
	return peers
}

// spread 返回 n 个均匀分布在 (0, 1) 内的坐标
func spread(n int) []float64 {
	locs := make([]float64, n)
	for i := range locs {
		locs[i] = float64(i+1) / float64(n+1)
	}
	return locs
}
