package ring

import (
	"slices"

	"github.com/dep2p/go-ringnode/pkg/types"
)

// PeerFilter 节点过滤谓词，必须是纯函数
type PeerFilter func(types.PeerKeyLocation) bool

// AnyPeer 接受所有节点的过滤器
func AnyPeer(types.PeerKeyLocation) bool { return true }

// ExcludePeers 排除给定 ID 的过滤器
func ExcludePeers(ids ...types.PeerID) PeerFilter {
	return func(p types.PeerKeyLocation) bool {
		return !slices.Contains(ids, p.Peer)
	}
}

// PeerDistance 节点及其到参考坐标的距离
type PeerDistance struct {
	Distance types.Distance        `json:"distance"`
	Peer     types.PeerKeyLocation `json:"peer"`
}

// ============================================================================
//                              距离查询
// ============================================================================

// MedianDistanceTo 计算 ref 到所有连接的距离的中位数
//
// 距离升序排列后取下中位数：奇数个时为正中元素，偶数个时为中间两个中较小者。
// 连接表为空时返回 ErrEmptyRing。
func (r *Ring) MedianDistanceTo(ref types.Location) (types.Distance, error) {
	r.table.mu.RLock()
	defer r.table.mu.RUnlock()
	return r.medianLocked(ref)
}

func (r *Ring) medianLocked(ref types.Location) (types.Distance, error) {
	n := r.table.tree.Size()
	if n == 0 {
		return types.Distance{}, ErrEmptyRing
	}

	dists := make([]types.Distance, 0, n)
	r.table.eachLocked(func(p types.PeerKeyLocation) bool {
		dists = append(dists, ref.Distance(p.Location))
		return true
	})
	slices.SortFunc(dists, types.Location.Compare)
	return dists[(n-1)/2], nil
}

// ConnectionsByDistance 返回每个连接及其到 ref 的距离
//
// 结果按连接坐标升序排列（表顺序），不按距离排序。返回快照副本。
func (r *Ring) ConnectionsByDistance(ref types.Location) []PeerDistance {
	r.table.mu.RLock()
	defer r.table.mu.RUnlock()

	out := make([]PeerDistance, 0, r.table.tree.Size())
	r.table.eachLocked(func(p types.PeerKeyLocation) bool {
		out = append(out, PeerDistance{Distance: ref.Distance(p.Location), Peer: p})
		return true
	})
	return out
}

// ============================================================================
//                              节点选择
// ============================================================================

// RandomPeer 按坐标升序返回第一个满足 filter 的连接
//
// 名称沿用历史接口；确定性的首个匹配。需要均匀随机时使用 SamplePeer。
func (r *Ring) RandomPeer(filter PeerFilter) (types.PeerKeyLocation, bool) {
	if filter == nil {
		filter = AnyPeer
	}

	r.table.mu.RLock()
	defer r.table.mu.RUnlock()

	var (
		found types.PeerKeyLocation
		ok    bool
	)
	r.table.eachLocked(func(p types.PeerKeyLocation) bool {
		if filter(p) {
			found, ok = p, true
			return false
		}
		return true
	})
	return found, ok
}

// SamplePeer 在所有满足 filter 的连接中均匀随机选择一个
//
// 单次遍历的蓄水池采样。
func (r *Ring) SamplePeer(filter PeerFilter) (types.PeerKeyLocation, bool) {
	if filter == nil {
		filter = AnyPeer
	}

	r.table.mu.RLock()
	defer r.table.mu.RUnlock()

	var (
		chosen  types.PeerKeyLocation
		matches int
	)
	r.table.eachLocked(func(p types.PeerKeyLocation) bool {
		if !filter(p) {
			return true
		}
		matches++
		if r.intN(matches) == 0 {
			chosen = p
		}
		return true
	})
	return chosen, matches > 0
}

// ClosestPeer 返回满足 filter 且到 target 距离最小的连接
//
// 距离相同时取坐标较小者。
func (r *Ring) ClosestPeer(target types.Location, filter PeerFilter) (types.PeerKeyLocation, bool) {
	if filter == nil {
		filter = AnyPeer
	}

	r.table.mu.RLock()
	defer r.table.mu.RUnlock()

	var (
		best     types.PeerKeyLocation
		bestDist types.Distance
		ok       bool
	)
	r.table.eachLocked(func(p types.PeerKeyLocation) bool {
		if !filter(p) {
			return true
		}
		d := target.Distance(p.Location)
		if !ok || d.Less(bestDist) {
			best, bestDist, ok = p, d, true
		}
		return true
	})
	return best, ok
}
