package ringnode

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"

	"github.com/dep2p/go-ringnode/internal/core/connmgr"
	"github.com/dep2p/go-ringnode/internal/core/eventbus"
	"github.com/dep2p/go-ringnode/internal/core/locbook"
	"github.com/dep2p/go-ringnode/internal/core/ring"
	"github.com/dep2p/go-ringnode/internal/core/routing"
	"github.com/dep2p/go-ringnode/internal/core/storage/engine"
	"github.com/dep2p/go-ringnode/internal/debug/introspect"
	"github.com/dep2p/go-ringnode/pkg/lib/log"
	"github.com/dep2p/go-ringnode/pkg/types"
)

var logger = log.Logger("ringnode")

// ════════════════════════════════════════════════════════════════════════════
//                              节点状态
// ════════════════════════════════════════════════════════════════════════════

// NodeState 节点状态
type NodeState int

const (
	// StateIdle 空闲状态（已创建，未启动）
	StateIdle NodeState = iota

	// StateRunning 运行中
	StateRunning

	// StateStopped 已停止，存储已关闭，不可重新启动
	StateStopped

	// StateClosed 已关闭
	StateClosed
)

// String 返回状态的字符串表示
func (s NodeState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateStopped:
		return "stopped"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

const (
	// startTimeout Fx App 启动超时，包含加入引导节点的时间
	startTimeout = 60 * time.Second

	// closeTimeout 关闭超时
	closeTimeout = 30 * time.Second
)

// ════════════════════════════════════════════════════════════════════════════
//                              Node
// ════════════════════════════════════════════════════════════════════════════

// Node 环节点
//
// Node 是一个门面，聚合了连接表、路由器、连接管理器与坐标簿。
// 构造后即可查询自身身份；Connect / Join 等网络操作需要先 Start。
type Node struct {
	config *nodeConfig
	app    *fx.App

	ring    *ring.Ring
	router  *routing.Router
	manager *connmgr.Manager
	book    *locbook.Book
	engine  engine.Engine
	bus     *eventbus.Bus

	// introspect 未启用时为 nil
	introspect *introspect.Server

	mu    sync.Mutex
	state NodeState
}

// New 创建节点
//
// 示例：
//
//	node, err := ringnode.New(
//	    ringnode.WithPreset("test"),
//	    ringnode.WithLocation(0.25),
//	)
func New(opts ...Option) (*Node, error) {
	cfg := newNodeConfig()
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, fmt.Errorf("apply option: %w", err)
		}
	}

	node := &Node{config: cfg}

	var err error
	node.app, err = buildFxApp(cfg, node)
	if err != nil {
		return nil, fmt.Errorf("build fx app: %w", err)
	}
	return node, nil
}

// Start 快捷启动函数，等价于 New() + Start()
func Start(ctx context.Context, opts ...Option) (*Node, error) {
	node, err := New(opts...)
	if err != nil {
		return nil, err
	}
	if err := node.Start(ctx); err != nil {
		_ = node.Close()
		return nil, fmt.Errorf("start node: %w", err)
	}
	return node, nil
}

// ════════════════════════════════════════════════════════════════════════════
//                              生命周期
// ════════════════════════════════════════════════════════════════════════════

// Start 启动节点
//
// 启动存储与自省服务，并依次连接配置的引导节点。
// 引导失败只记录日志，节点仍可接受入站连接。
func (n *Node) Start(ctx context.Context) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	switch n.state {
	case StateClosed, StateStopped:
		return ErrNodeClosed
	case StateRunning:
		return ErrAlreadyStarted
	}

	startCtx, cancel := context.WithTimeout(ctx, startTimeout)
	defer cancel()

	if err := n.app.Start(startCtx); err != nil {
		logger.Error("节点启动失败", "error", err)
		return fmt.Errorf("start fx app: %w", err)
	}

	n.state = StateRunning
	logger.Info("节点已启动", "self", n.manager.Self().String(), "connections", n.ring.Len())
	return nil
}

// Stop 在 ctx 期限内停止节点
//
// 关闭所有连接与存储；之后只能调用 Close。
func (n *Node) Stop(ctx context.Context) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	switch n.state {
	case StateClosed:
		return ErrNodeClosed
	case StateRunning:
	default:
		return ErrNotStarted
	}

	if err := n.app.Stop(ctx); err != nil {
		n.state = StateStopped
		logger.Error("停止节点失败", "error", err)
		return fmt.Errorf("stop fx app: %w", err)
	}

	n.state = StateStopped
	logger.Info("节点已停止")
	return nil
}

// Close 关闭节点并释放所有资源，可重复调用
func (n *Node) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.state == StateClosed {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	defer cancel()

	var err error
	switch n.state {
	case StateRunning:
		err = n.app.Stop(ctx)
	case StateIdle:
		// 未启动时生命周期钩子不会执行，存储引擎需要直接关闭
		err = n.engine.Close()
	}
	if err != nil {
		logger.Warn("关闭节点失败", "error", err)
	}

	n.state = StateClosed
	logger.Info("节点已关闭")
	return err
}

// State 返回节点状态
func (n *Node) State() NodeState {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.state
}

func (n *Node) running() error {
	switch n.State() {
	case StateRunning:
		return nil
	case StateClosed, StateStopped:
		return ErrNodeClosed
	default:
		return ErrNotStarted
	}
}

// ════════════════════════════════════════════════════════════════════════════
//                              基本信息
// ════════════════════════════════════════════════════════════════════════════

// Self 返回自身节点描述
func (n *Node) Self() types.PeerKeyLocation {
	return n.manager.Self()
}

// ID 返回自身节点 ID
func (n *Node) ID() types.PeerID {
	return n.manager.Self().Peer
}

// Location 返回自身坐标
func (n *Node) Location() types.Location {
	return n.manager.Self().Location
}

// Ring 返回连接表所在的环
func (n *Node) Ring() *ring.Ring {
	return n.ring
}

// Router 返回路由器
func (n *Node) Router() *routing.Router {
	return n.router
}

// Manager 返回连接管理器
func (n *Node) Manager() *connmgr.Manager {
	return n.manager
}

// Gatherer 返回节点的指标源
func (n *Node) Gatherer() prometheus.Gatherer {
	return n.config.registry
}

// IntrospectAddr 返回自省服务的监听地址，未启用时返回空字符串
func (n *Node) IntrospectAddr() string {
	if n.introspect == nil {
		return ""
	}
	return n.introspect.Addr()
}

// Subscribe 订阅节点事件
//
// eventType 为事件类型的指针，例如 new(types.EvtPeerConnected)。
func (n *Node) Subscribe(eventType any, opts ...eventbus.SubscriptionOpt) (*eventbus.Subscription, error) {
	return n.bus.Subscribe(eventType, opts...)
}

// ════════════════════════════════════════════════════════════════════════════
//                              连接
// ════════════════════════════════════════════════════════════════════════════

// Connect 与 peer 建立连接
func (n *Node) Connect(ctx context.Context, peer types.PeerKeyLocation) (connmgr.ConnInfo, error) {
	if err := n.running(); err != nil {
		return connmgr.ConnInfo{}, err
	}
	return n.manager.Connect(ctx, peer)
}

// Disconnect 断开与 id 的连接
func (n *Node) Disconnect(id types.PeerID) error {
	if err := n.running(); err != nil {
		return err
	}
	return n.manager.Disconnect(id)
}

// Join 连接引导节点，返回新建立的连接数
func (n *Node) Join(ctx context.Context, bootstrap []types.PeerKeyLocation) (int, error) {
	if err := n.running(); err != nil {
		return 0, err
	}
	return n.manager.Join(ctx, bootstrap)
}

// Conns 返回所有连接信息
func (n *Node) Conns() []connmgr.ConnInfo {
	return n.manager.Conns()
}

// ConnectionCount 返回连接数
func (n *Node) ConnectionCount() int {
	return n.ring.Len()
}

// ════════════════════════════════════════════════════════════════════════════
//                              环查询
// ════════════════════════════════════════════════════════════════════════════

// ShouldAccept 判断是否应与坐标为 candidate 的节点建立连接
func (n *Node) ShouldAccept(candidate types.Location) bool {
	return n.ring.ShouldAccept(n.Location(), candidate)
}

// MedianDistance 返回连接到自身坐标的中位距离
func (n *Node) MedianDistance() (types.Distance, error) {
	return n.ring.MedianDistanceTo(n.Location())
}

// ConnectionsByDistance 返回所有连接及其到自身的距离
func (n *Node) ConnectionsByDistance() []ring.PeerDistance {
	return n.ring.ConnectionsByDistance(n.Location())
}

// RandomPeer 返回第一个满足 filter 的连接
func (n *Node) RandomPeer(filter ring.PeerFilter) (types.PeerKeyLocation, bool) {
	return n.ring.RandomPeer(filter)
}

// NextHop 为发往 target、剩余跳数为 htl 的请求选择下一跳
//
// exclude 中的节点（通常是请求的来源）不会被选中。
func (n *Node) NextHop(target types.Location, htl int, exclude ...types.PeerID) (types.PeerKeyLocation, error) {
	return n.router.NextHop(target, htl, ring.ExcludePeers(exclude...))
}
