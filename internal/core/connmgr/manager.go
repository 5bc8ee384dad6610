package connmgr

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/dep2p/go-ringnode/internal/core/eventbus"
	"github.com/dep2p/go-ringnode/internal/core/locbook"
	"github.com/dep2p/go-ringnode/internal/core/ring"
	"github.com/dep2p/go-ringnode/pkg/lib/log"
	"github.com/dep2p/go-ringnode/pkg/lib/proto/announce"
	"github.com/dep2p/go-ringnode/pkg/types"
)

var logger = log.Logger("core/connmgr")

// Direction 连接方向
type Direction int

const (
	// DirInbound 入站连接
	DirInbound Direction = iota
	// DirOutbound 出站连接
	DirOutbound
)

// String 实现 Stringer
func (d Direction) String() string {
	switch d {
	case DirInbound:
		return "inbound"
	case DirOutbound:
		return "outbound"
	default:
		return fmt.Sprintf("Direction(%d)", int(d))
	}
}

// MarshalText 实现 encoding.TextMarshaler
func (d Direction) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Conn 定义连接的最小接口
type Conn interface {
	// RemotePeer 返回远端节点描述
	RemotePeer() types.PeerKeyLocation
	// Close 关闭连接
	Close() error
}

// Dialer 建立出站连接
type Dialer interface {
	Dial(ctx context.Context, peer types.PeerKeyLocation) (Conn, error)
}

// ConnInfo 连接信息
type ConnInfo struct {
	ID        uuid.UUID             `json:"id"`
	Peer      types.PeerKeyLocation `json:"peer"`
	Direction Direction             `json:"direction"`
	Opened    time.Time             `json:"opened"`
}

type entry struct {
	info ConnInfo
	conn Conn
}

// Option 管理器选项
type Option func(*Manager)

// WithLocBook 设置坐标簿，建立的连接与收到的公告会写入其中
func WithLocBook(b *locbook.Book) Option {
	return func(m *Manager) {
		m.book = b
	}
}

// WithEventBus 在 bus 上发布连接建立与断开事件
func WithEventBus(bus *eventbus.Bus) Option {
	return func(m *Manager) {
		m.bus = bus
	}
}

// WithClock 替换时钟，测试中使用 clock.NewMock()
func WithClock(c clock.Clock) Option {
	return func(m *Manager) {
		if c != nil {
			m.clock = c
		}
	}
}

// Manager 连接管理器
type Manager struct {
	cfg    Config
	ring   *ring.Ring
	self   types.PeerKeyLocation
	dialer Dialer
	book   *locbook.Book
	clock  clock.Clock

	bus            *eventbus.Bus
	emitConnect    *eventbus.Emitter
	emitDisconnect *eventbus.Emitter

	mu     sync.Mutex
	conns  map[types.PeerID]*entry
	closed bool
}

// New 创建连接管理器
//
// dialer 可以为 nil，此时只接受入站连接。
func New(cfg Config, r *ring.Ring, self types.PeerKeyLocation, dialer Dialer, opts ...Option) (*Manager, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if r == nil {
		return nil, fmt.Errorf("%w: nil ring", ErrInvalidConfig)
	}
	if self.Peer.IsEmpty() {
		return nil, fmt.Errorf("%w: empty self peer id", ErrInvalidConfig)
	}

	m := &Manager{
		cfg:    cfg,
		ring:   r,
		self:   self,
		dialer: dialer,
		clock:  clock.New(),
		conns:  make(map[types.PeerID]*entry),
	}
	for _, opt := range opts {
		opt(m)
	}

	if m.bus != nil {
		var err error
		if m.emitConnect, err = m.bus.Emitter(new(types.EvtPeerConnected)); err != nil {
			return nil, err
		}
		if m.emitDisconnect, err = m.bus.Emitter(new(types.EvtPeerDisconnected)); err != nil {
			_ = m.emitConnect.Close()
			return nil, err
		}
	}
	return m, nil
}

// Self 返回自身节点描述
func (m *Manager) Self() types.PeerKeyLocation {
	return m.self
}

// Ring 返回管理器写入的环
func (m *Manager) Ring() *ring.Ring {
	return m.ring
}

// ============================================================================
//                              建立连接
// ============================================================================

// HandleInbound 处理传输层接受的入站连接
//
// 被拒绝的连接会被关闭。
func (m *Manager) HandleInbound(conn Conn) (ConnInfo, error) {
	return m.register(conn, DirInbound)
}

// Connect 与 peer 建立出站连接
//
// 准入预检不通过时不会拨号。拨号失败返回的错误匹配 ring.IsConnError。
func (m *Manager) Connect(ctx context.Context, peer types.PeerKeyLocation) (ConnInfo, error) {
	if m.dialer == nil {
		return ConnInfo{}, ErrNoDialer
	}
	if err := m.precheck(peer); err != nil {
		return ConnInfo{}, err
	}

	if d := m.ring.Admit(m.self.Location, peer.Location); !d.Accept {
		logger.Debug("跳过拨号", "peer", peer.String(), "reason", d.Reason)
		return ConnInfo{}, fmt.Errorf("%w: %s", ErrConnectionDenied, d.Reason)
	}

	dctx, cancel := context.WithTimeout(ctx, m.cfg.DialTimeout)
	defer cancel()

	conn, err := m.dialer.Dial(dctx, peer)
	if err != nil {
		logger.Debug("拨号失败", "peer", peer.String(), "error", err)
		return ConnInfo{}, ring.NewConnError(err)
	}
	if got := conn.RemotePeer(); got.Peer != peer.Peer {
		_ = conn.Close()
		return ConnInfo{}, ring.NewConnError(fmt.Errorf("dialed %s, reached %s", peer.Peer.ShortString(), got.Peer.ShortString()))
	}
	return m.register(conn, DirOutbound)
}

func (m *Manager) precheck(peer types.PeerKeyLocation) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrManagerClosed
	}
	if peer.Peer == m.self.Peer {
		return fmt.Errorf("%w: %s", ErrConnectionDenied, ring.ReasonSelf)
	}
	if _, ok := m.conns[peer.Peer]; ok {
		return ErrAlreadyConnected
	}
	return nil
}

// register 对连接执行准入判定并登记，失败时关闭连接
func (m *Manager) register(conn Conn, dir Direction) (ConnInfo, error) {
	peer := conn.RemotePeer()

	m.mu.Lock()
	var err error
	switch {
	case m.closed:
		err = ErrManagerClosed
	case peer.Peer == m.self.Peer:
		err = fmt.Errorf("%w: %s", ErrConnectionDenied, ring.ReasonSelf)
	default:
		if _, ok := m.conns[peer.Peer]; ok {
			err = ErrAlreadyConnected
		}
	}
	if err != nil {
		m.mu.Unlock()
		_ = conn.Close()
		return ConnInfo{}, err
	}

	d, ok := m.ring.AcceptAndInsert(m.self.Location, peer)
	if !ok {
		m.mu.Unlock()
		_ = conn.Close()
		return ConnInfo{}, fmt.Errorf("%w: %s", ErrConnectionDenied, d.Reason)
	}

	e := &entry{
		info: ConnInfo{
			ID:        uuid.New(),
			Peer:      peer,
			Direction: dir,
			Opened:    m.clock.Now(),
		},
		conn: conn,
	}
	m.conns[peer.Peer] = e
	m.mu.Unlock()

	logger.Info("连接已建立",
		"peer", peer.String(),
		"direction", dir.String(),
		"reason", d.Reason,
		"connections", d.Connections+1)

	m.remember(peer)
	if m.emitConnect != nil {
		_ = m.emitConnect.Emit(types.EvtPeerConnected{
			Peer:        peer,
			Inbound:     dir == DirInbound,
			Connections: d.Connections + 1,
			Timestamp:   e.info.Opened,
		})
	}
	return e.info, nil
}

// remember 记录节点坐标，坐标簿失败不影响连接
func (m *Manager) remember(peer types.PeerKeyLocation) {
	if m.book == nil {
		return
	}
	if err := m.book.Put(peer); err != nil {
		if errors.Is(err, locbook.ErrClosed) {
			logger.Debug("坐标簿已关闭，跳过记录", "peer", peer.String())
			return
		}
		logger.Warn("记录节点坐标失败", "peer", peer.String(), "error", err)
	}
}

// ============================================================================
//                              断开连接
// ============================================================================

// Disconnect 断开与 id 的连接并将其从环中移除
func (m *Manager) Disconnect(id types.PeerID) error {
	return m.disconnect(id, nil)
}

// disconnectConn 仅当 id 当前登记的正是 conn 时才断开
//
// 传输层在某一端关闭后用它拆除对端，被拒绝的冗余连接不会波及已登记的连接。
func (m *Manager) disconnectConn(id types.PeerID, conn Conn) error {
	return m.disconnect(id, conn)
}

func (m *Manager) disconnect(id types.PeerID, conn Conn) error {
	m.mu.Lock()
	e, ok := m.conns[id]
	if !ok || (conn != nil && e.conn != conn) {
		m.mu.Unlock()
		return ErrNotConnected
	}
	delete(m.conns, id)
	m.ring.Connections().RemovePeer(id)
	m.mu.Unlock()

	logger.Info("连接已断开", "peer", e.info.Peer.String())
	m.notifyDisconnected(e.info.Peer)
	if err := e.conn.Close(); err != nil {
		return ring.NewConnError(err)
	}
	return nil
}

// Close 关闭所有连接，之后管理器不再接受新连接
func (m *Manager) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	entries := make([]*entry, 0, len(m.conns))
	for id, e := range m.conns {
		entries = append(entries, e)
		m.ring.Connections().RemovePeer(id)
	}
	clear(m.conns)
	m.mu.Unlock()

	var errs error
	for _, e := range entries {
		m.notifyDisconnected(e.info.Peer)
		if err := e.conn.Close(); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("close %s: %w", e.info.Peer.Peer.ShortString(), err))
		}
	}
	if m.bus != nil {
		errs = multierr.Append(errs, m.emitConnect.Close())
		errs = multierr.Append(errs, m.emitDisconnect.Close())
	}
	logger.Info("连接管理器已关闭", "closed_conns", len(entries))
	return errs
}

func (m *Manager) notifyDisconnected(peer types.PeerKeyLocation) {
	if m.emitDisconnect == nil {
		return
	}
	_ = m.emitDisconnect.Emit(types.EvtPeerDisconnected{
		Peer:        peer,
		Connections: m.ring.Len(),
		Timestamp:   m.clock.Now(),
	})
}

// ============================================================================
//                              查询
// ============================================================================

// Conns 返回所有连接信息，按节点坐标升序
func (m *Manager) Conns() []ConnInfo {
	m.mu.Lock()
	out := make([]ConnInfo, 0, len(m.conns))
	for _, e := range m.conns {
		out = append(out, e.info)
	}
	m.mu.Unlock()

	slices.SortFunc(out, func(a, b ConnInfo) int {
		return a.Peer.Location.Compare(b.Peer.Location)
	})
	return out
}

// Conn 返回与 id 的连接信息
func (m *Manager) Conn(id types.PeerID) (ConnInfo, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.conns[id]
	if !ok {
		return ConnInfo{}, false
	}
	return e.info, true
}

// Len 返回连接数
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.conns)
}

// ============================================================================
//                              加入环
// ============================================================================

// Join 依次连接引导节点
//
// 返回新建立的连接数。没有任何引导节点连接成功时，返回的错误匹配 ring.ErrJoin，
// 并携带每个节点的失败原因。
func (m *Manager) Join(ctx context.Context, bootstrap []types.PeerKeyLocation) (int, error) {
	if len(bootstrap) == 0 {
		return 0, fmt.Errorf("%w: %w", ring.ErrJoin, ErrNoBootstrapPeers)
	}

	ctx, cancel := context.WithTimeout(ctx, m.cfg.JoinTimeout)
	defer cancel()

	var (
		joined int
		known  int
		errs   error
	)
	for _, p := range bootstrap {
		if p.Peer == m.self.Peer {
			continue
		}
		if err := ctx.Err(); err != nil {
			errs = multierr.Append(errs, err)
			break
		}

		_, err := m.Connect(ctx, p)
		switch {
		case err == nil:
			joined++
		case errors.Is(err, ErrAlreadyConnected):
			known++
		default:
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", p.String(), err))
		}
	}

	if joined == 0 && known == 0 {
		if errs == nil {
			errs = ErrNoBootstrapPeers
		}
		return 0, fmt.Errorf("%w: %w", ring.ErrJoin, errs)
	}

	logger.Info("已加入环", "joined", joined, "connections", m.ring.Len())
	return joined, nil
}

// ============================================================================
//                              位置公告
// ============================================================================

// HandleAnnouncement 处理收到的位置公告
//
// 公告中的坐标越界时返回匹配 types.ErrInvalidLocation 的错误，节点不会被记录。
func (m *Manager) HandleAnnouncement(data []byte) (types.PeerKeyLocation, error) {
	p, err := announce.Unmarshal(data)
	if err != nil {
		if errors.Is(err, types.ErrInvalidLocation) {
			logger.Warn("拒绝越界坐标公告", "error", err)
		}
		return types.PeerKeyLocation{}, err
	}
	m.remember(p)
	return p, nil
}

// Announcement 编码自身的位置公告
func (m *Manager) Announcement() []byte {
	return announce.Marshal(m.self)
}
