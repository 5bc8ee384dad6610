package eventbus

import (
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"
)

// Subscription 事件订阅
type Subscription struct {
	bus       *Bus
	typ       reflect.Type
	out       chan any
	closeOnce sync.Once
}

// Out 返回事件通道，Close 后通道关闭
func (s *Subscription) Out() <-chan any {
	return s.out
}

// Close 取消订阅，可重复调用
func (s *Subscription) Close() error {
	s.closeOnce.Do(func() {
		// 移除后不会再有发送，可以安全关闭通道
		s.bus.removeSub(s)
		close(s.out)
	})
	return nil
}

// Emitter 事件发射器
type Emitter struct {
	bus    *Bus
	node   *node
	closed atomic.Bool
}

// Emit 发射事件，event 的类型必须与创建发射器时的类型一致
func (e *Emitter) Emit(event any) error {
	if e.closed.Load() {
		return ErrEmitterClosed
	}
	if got := reflect.TypeOf(event); got != e.node.typ {
		return fmt.Errorf("%w: %v, want %v", ErrWrongEventType, got, e.node.typ)
	}
	e.bus.emit(e.node, event)
	return nil
}

// Close 关闭发射器，可重复调用
func (e *Emitter) Close() error {
	if !e.closed.CompareAndSwap(false, true) {
		return nil
	}
	e.bus.release(e.node.typ, func(n *node) {
		n.emitters--
	})
	return nil
}
