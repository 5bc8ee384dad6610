package ring

import (
	"github.com/dep2p/go-ringnode/pkg/types"
)

// ============================================================================
//                              准入判定
// ============================================================================

// Reason 准入判定原因
type Reason string

const (
	// ReasonSelf 候选坐标等于自身坐标
	ReasonSelf Reason = "self"

	// ReasonDuplicate 候选坐标已在连接表中
	ReasonDuplicate Reason = "duplicate"

	// ReasonBootstrap 连接数低于 MinConnections
	ReasonBootstrap Reason = "bootstrap"

	// ReasonCapacity 连接数已达 MaxConnections
	ReasonCapacity Reason = "capacity"

	// ReasonCloserThanMedian 候选比中位邻居更近
	ReasonCloserThanMedian Reason = "closer_than_median"

	// ReasonFartherThanMedian 候选不比中位邻居更近
	ReasonFartherThanMedian Reason = "farther_than_median"
)

// String 实现 Stringer
func (r Reason) String() string {
	return string(r)
}

// Decision 准入判定结果
type Decision struct {
	// Accept 是否接受
	Accept bool

	// Reason 判定原因
	Reason Reason

	// Connections 判定时的连接数
	Connections int

	// Distance 候选到自身的距离
	Distance types.Distance

	// Median 中位邻居距离，仅在按中位规则判定时有效
	Median types.Distance
}

// ShouldAccept 判断是否应与坐标为 candidate 的节点建立连接
//
// 纯读操作，不修改连接表。
func (r *Ring) ShouldAccept(own, candidate types.Location) bool {
	return r.Admit(own, candidate).Accept
}

// Admit 与 ShouldAccept 相同，但返回完整的判定结果
func (r *Ring) Admit(own, candidate types.Location) Decision {
	r.table.mu.RLock()
	defer r.table.mu.RUnlock()
	return r.admitLocked(own, candidate)
}

// AcceptAndInsert 在同一把写锁下完成准入判定与插入
//
// 返回判定结果以及节点是否已写入连接表。
func (r *Ring) AcceptAndInsert(own types.Location, peer types.PeerKeyLocation) (Decision, bool) {
	r.table.mu.Lock()
	d := r.admitLocked(own, peer.Location)
	inserted := false
	if d.Accept {
		// 判定已排除重复坐标，插入不会失败
		inserted = r.table.insertLocked(peer) == nil
	}
	r.table.mu.Unlock()

	if r.metrics != nil {
		r.metrics.observe(d)
	}
	logger.Debug("准入判定",
		"peer", peer.String(),
		"accept", d.Accept,
		"reason", d.Reason,
		"connections", d.Connections)
	return d, inserted
}

// admitLocked 调用方必须持有连接表的读锁或写锁
func (r *Ring) admitLocked(own, candidate types.Location) Decision {
	n := r.table.tree.Size()
	d := Decision{
		Connections: n,
		Distance:    own.Distance(candidate),
	}

	switch {
	case candidate.Equal(own):
		d.Reason = ReasonSelf
		return d
	case r.table.containsLocked(candidate):
		d.Reason = ReasonDuplicate
		return d
	case n < MinConnections:
		d.Accept, d.Reason = true, ReasonBootstrap
		return d
	case n >= MaxConnections:
		d.Reason = ReasonCapacity
		return d
	}

	median, err := r.medianLocked(own)
	if err != nil {
		// n >= MinConnections 时表不可能为空
		d.Accept, d.Reason = true, ReasonBootstrap
		return d
	}
	d.Median = median
	if d.Distance.Less(median) {
		d.Accept, d.Reason = true, ReasonCloserThanMedian
	} else {
		d.Reason = ReasonFartherThanMedian
	}
	return d
}
