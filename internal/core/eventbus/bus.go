package eventbus

import (
	"errors"
	"reflect"
	"sync"
	"sync/atomic"

	"github.com/dep2p/go-ringnode/pkg/lib/log"
)

var logger = log.Logger("core/eventbus")

var (
	// ErrInvalidEventType 事件类型为 nil
	ErrInvalidEventType = errors.New("eventbus: invalid event type")

	// ErrNonPointerType 事件类型不是指针
	ErrNonPointerType = errors.New("eventbus: event type must be a pointer")

	// ErrEmitterClosed 发射器已关闭
	ErrEmitterClosed = errors.New("eventbus: emitter closed")

	// ErrWrongEventType 发射的事件与发射器类型不符
	ErrWrongEventType = errors.New("eventbus: wrong event type")
)

// defaultBuffer 订阅缓冲区默认大小
const defaultBuffer = 16

// Bus 事件总线
type Bus struct {
	mu    sync.RWMutex
	nodes map[reflect.Type]*node

	// dropped 因订阅者缓冲区满而丢弃的事件总数
	dropped atomic.Int64
}

// node 一种事件类型的订阅者与发射器
type node struct {
	lk       sync.Mutex
	typ      reflect.Type
	sinks    []*Subscription
	emitters int
	keepLast bool
	last     any
}

// NewBus 创建事件总线
func NewBus() *Bus {
	return &Bus{nodes: make(map[reflect.Type]*node)}
}

// elemType 校验并返回指针指向的事件类型
func elemType(eventType any) (reflect.Type, error) {
	if eventType == nil {
		return nil, ErrInvalidEventType
	}
	typ := reflect.TypeOf(eventType)
	if typ.Kind() != reflect.Pointer {
		return nil, ErrNonPointerType
	}
	return typ.Elem(), nil
}

// Subscribe 订阅 eventType 指向类型的事件
func (b *Bus) Subscribe(eventType any, opts ...SubscriptionOpt) (*Subscription, error) {
	typ, err := elemType(eventType)
	if err != nil {
		return nil, err
	}

	s := subscriptionSettings{buffer: defaultBuffer}
	for _, opt := range opts {
		opt(&s)
	}

	sub := &Subscription{
		bus: b,
		typ: typ,
		out: make(chan any, s.buffer),
	}
	b.withNode(typ, func(n *node) {
		n.sinks = append(n.sinks, sub)
		if n.keepLast && n.last != nil {
			select {
			case sub.out <- n.last:
			default:
			}
		}
	})
	return sub, nil
}

// Emitter 返回 eventType 指向类型的发射器
func (b *Bus) Emitter(eventType any, opts ...EmitterOpt) (*Emitter, error) {
	typ, err := elemType(eventType)
	if err != nil {
		return nil, err
	}

	var s emitterSettings
	for _, opt := range opts {
		opt(&s)
	}

	var n *node
	b.withNode(typ, func(nd *node) {
		n = nd
		n.emitters++
		if s.stateful {
			n.keepLast = true
		}
	})
	return &Emitter{bus: b, node: n}, nil
}

// EventTypes 返回当前有订阅者或发射器的事件类型
func (b *Bus) EventTypes() []reflect.Type {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]reflect.Type, 0, len(b.nodes))
	for typ := range b.nodes {
		out = append(out, typ)
	}
	return out
}

// Dropped 返回被丢弃的事件总数
func (b *Bus) Dropped() int64 {
	return b.dropped.Load()
}

// withNode 在 typ 对应的节点锁内执行 cb，节点不存在时创建
func (b *Bus) withNode(typ reflect.Type, cb func(*node)) {
	b.mu.Lock()
	n, ok := b.nodes[typ]
	if !ok {
		n = &node{typ: typ}
		b.nodes[typ] = n
	}
	n.lk.Lock()
	b.mu.Unlock()

	defer n.lk.Unlock()
	cb(n)
}

// release 在节点锁内执行 cb；节点不再被使用时将其删除
func (b *Bus) release(typ reflect.Type, cb func(*node)) {
	b.mu.Lock()
	defer b.mu.Unlock()

	n, ok := b.nodes[typ]
	if !ok {
		return
	}
	n.lk.Lock()
	cb(n)
	idle := len(n.sinks) == 0 && n.emitters == 0
	n.lk.Unlock()

	if idle {
		delete(b.nodes, typ)
	}
}

func (b *Bus) removeSub(sub *Subscription) {
	b.release(sub.typ, func(n *node) {
		n.sinks = deleteSink(n.sinks, sub)
	})
}

func deleteSink(sinks []*Subscription, sub *Subscription) []*Subscription {
	for i, s := range sinks {
		if s == sub {
			return append(sinks[:i], sinks[i+1:]...)
		}
	}
	return sinks
}

// emit 向所有订阅者投递事件，缓冲区满的订阅者丢弃该事件
func (b *Bus) emit(n *node, event any) {
	n.lk.Lock()
	defer n.lk.Unlock()

	if n.keepLast {
		n.last = event
	}
	for _, sub := range n.sinks {
		select {
		case sub.out <- event:
		default:
			// 每 100 次丢弃告警一次
			if dropped := b.dropped.Add(1); dropped%100 == 1 {
				logger.Warn("慢消费者", "type", n.typ.String(), "dropped", dropped)
			}
		}
	}
}
