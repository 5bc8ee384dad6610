package connmgr

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/dep2p/go-ringnode/pkg/types"
)

// ============================================================================
//                              MemoryNetwork - 进程内网络
// ============================================================================

// MemoryNetwork 进程内网络，用于模拟与测试
//
// 每个 Manager 通过 Attach 加入网络，通过 Dialer 返回的拨号器互相连接。
// 任意一端关闭连接时，另一端的 Manager 会收到 Disconnect。
type MemoryNetwork struct {
	mu    sync.RWMutex
	nodes map[types.PeerID]*Manager
}

// NewMemoryNetwork 创建进程内网络
func NewMemoryNetwork() *MemoryNetwork {
	return &MemoryNetwork{nodes: make(map[types.PeerID]*Manager)}
}

// Attach 将管理器加入网络
func (n *MemoryNetwork) Attach(m *Manager) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.nodes[m.Self().Peer] = m
}

// Detach 将节点移出网络，已有连接不受影响
func (n *MemoryNetwork) Detach(id types.PeerID) {
	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.nodes, id)
}

// Len 返回网络中的节点数
func (n *MemoryNetwork) Len() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.nodes)
}

// Dialer 返回以 from 身份拨号的拨号器
func (n *MemoryNetwork) Dialer(from types.PeerKeyLocation) Dialer {
	return &memDialer{net: n, from: from}
}

func (n *MemoryNetwork) lookup(id types.PeerID) *Manager {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.nodes[id]
}

type memDialer struct {
	net  *MemoryNetwork
	from types.PeerKeyLocation
}

// Dial 在远端 Manager 上执行入站准入，被拒绝时返回远端的错误
func (d *memDialer) Dial(ctx context.Context, peer types.PeerKeyLocation) (Conn, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	remote := d.net.lookup(peer.Peer)
	if remote == nil {
		return nil, ErrPeerUnreachable
	}
	local := d.net.lookup(d.from.Peer)

	p := &memPipe{}
	outbound := &memConn{pipe: p, remote: remote.Self()}
	inbound := &memConn{pipe: p, remote: d.from}

	// 关闭任意一端都让对端的 Manager 移除这一条连接
	from := d.from.Peer
	outbound.onClose = func() { _ = remote.disconnectConn(from, inbound) }
	if local != nil {
		inbound.onClose = func() { _ = local.disconnectConn(peer.Peer, outbound) }
	}

	if _, err := remote.HandleInbound(inbound); err != nil {
		return nil, err
	}
	return outbound, nil
}

// memPipe 一对连接端点共享的关闭状态
type memPipe struct {
	closed atomic.Bool
}

type memConn struct {
	pipe    *memPipe
	remote  types.PeerKeyLocation
	onClose func()
}

func (c *memConn) RemotePeer() types.PeerKeyLocation {
	return c.remote
}

func (c *memConn) Close() error {
	if !c.pipe.closed.CompareAndSwap(false, true) {
		return nil
	}
	if c.onClose != nil {
		c.onClose()
	}
	return nil
}
