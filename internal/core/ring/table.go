package ring

import (
	"sync"

	"github.com/emirpasic/gods/trees/avltree"

	"github.com/dep2p/go-ringnode/pkg/types"
)

// ============================================================================
//                              Table - 连接表
// ============================================================================

// Table 按 Location 有序的连接表
//
// 以平衡树存储 坐标 → 节点描述，遍历始终按坐标升序。
// 所有方法并发安全；读操作之间可并发。
type Table struct {
	mu   sync.RWMutex
	tree *avltree.Tree
}

// NewTable 创建空连接表
func NewTable() *Table {
	return &Table{tree: avltree.NewWith(compareLocations)}
}

func compareLocations(a, b interface{}) int {
	return a.(types.Location).Compare(b.(types.Location))
}

// Insert 插入连接
//
// 坐标已存在时返回 ErrLocationTaken，原有连接保持不变。
func (t *Table) Insert(peer types.PeerKeyLocation) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.insertLocked(peer)
}

func (t *Table) insertLocked(peer types.PeerKeyLocation) error {
	if _, found := t.tree.Get(peer.Location); found {
		return ErrLocationTaken
	}
	t.tree.Put(peer.Location, peer)
	return nil
}

// Remove 按坐标移除连接，返回被移除的节点
func (t *Table) Remove(loc types.Location) (types.PeerKeyLocation, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	v, found := t.tree.Get(loc)
	if !found {
		return types.PeerKeyLocation{}, false
	}
	t.tree.Remove(loc)
	return v.(types.PeerKeyLocation), true
}

// RemovePeer 按节点 ID 移除连接
func (t *Table) RemovePeer(id types.PeerID) (types.PeerKeyLocation, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	var (
		removed types.PeerKeyLocation
		found   bool
	)
	t.eachLocked(func(p types.PeerKeyLocation) bool {
		if p.Peer == id {
			removed, found = p, true
			return false
		}
		return true
	})
	if found {
		t.tree.Remove(removed.Location)
	}
	return removed, found
}

// Get 按坐标查找连接
func (t *Table) Get(loc types.Location) (types.PeerKeyLocation, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	v, found := t.tree.Get(loc)
	if !found {
		return types.PeerKeyLocation{}, false
	}
	return v.(types.PeerKeyLocation), true
}

// Contains 检查坐标是否已在表中
func (t *Table) Contains(loc types.Location) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.containsLocked(loc)
}

func (t *Table) containsLocked(loc types.Location) bool {
	_, found := t.tree.Get(loc)
	return found
}

// Len 返回连接数
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.tree.Size()
}

// Peers 按坐标升序返回所有连接的快照
func (t *Table) Peers() []types.PeerKeyLocation {
	t.mu.RLock()
	defer t.mu.RUnlock()

	peers := make([]types.PeerKeyLocation, 0, t.tree.Size())
	t.eachLocked(func(p types.PeerKeyLocation) bool {
		peers = append(peers, p)
		return true
	})
	return peers
}

// eachLocked 按坐标升序遍历，fn 返回 false 时停止
//
// 调用方必须持有读锁或写锁。
func (t *Table) eachLocked(fn func(types.PeerKeyLocation) bool) {
	it := t.tree.Iterator()
	for it.Next() {
		if !fn(it.Value().(types.PeerKeyLocation)) {
			return
		}
	}
}
