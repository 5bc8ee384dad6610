package routing

import (
	"fmt"

	"github.com/dep2p/go-ringnode/internal/core/ring"
	"github.com/dep2p/go-ringnode/pkg/lib/log"
	"github.com/dep2p/go-ringnode/pkg/types"
)

var logger = log.Logger("core/routing")

// Mode 转发模式
type Mode int

const (
	// ModeGreedy 贪婪：选择最近的连接
	ModeGreedy Mode = iota
	// ModeRandomWalk 随机游走
	ModeRandomWalk
)

// String 实现 Stringer
func (m Mode) String() string {
	switch m {
	case ModeGreedy:
		return "greedy"
	case ModeRandomWalk:
		return "random_walk"
	default:
		return "unknown"
	}
}

// Router 逐跳路由器
type Router struct {
	ring *ring.Ring
}

// NewRouter 创建路由器
func NewRouter(r *ring.Ring) *Router {
	return &Router{ring: r}
}

// InitialHTL 新请求的初始跳数
func (rt *Router) InitialHTL() int {
	return rt.ring.MaxHopsToLive()
}

// Decrement 返回转发一次后的跳数，不低于 0
func (rt *Router) Decrement(htl int) int {
	if htl <= 1 {
		return 0
	}
	return htl - 1
}

// clamp 将 HTL 截断到 MaxHopsToLive
func (rt *Router) clamp(htl int) int {
	if limit := rt.ring.MaxHopsToLive(); htl > limit {
		return limit
	}
	return htl
}

// ModeFor 返回给定 HTL 下的转发模式
func (rt *Router) ModeFor(htl int) Mode {
	if rt.clamp(htl) > rt.ring.RandWalkAbove() {
		return ModeRandomWalk
	}
	return ModeGreedy
}

// IsRandomWalk 判断给定 HTL 是否处于随机游走阶段
func (rt *Router) IsRandomWalk(htl int) bool {
	return rt.ModeFor(htl) == ModeRandomWalk
}

// NextHop 为指向 target 的请求选择下一跳
//
// filter 通常排除请求的来源与已访问节点；nil 表示接受所有连接。
func (rt *Router) NextHop(target types.Location, htl int, filter ring.PeerFilter) (types.PeerKeyLocation, error) {
	if htl <= 0 {
		return types.PeerKeyLocation{}, ErrHTLExhausted
	}
	htl = rt.clamp(htl)

	var (
		next types.PeerKeyLocation
		ok   bool
		mode = rt.ModeFor(htl)
	)
	if mode == ModeRandomWalk {
		next, ok = rt.ring.SamplePeer(filter)
	} else {
		next, ok = rt.ring.ClosestPeer(target, filter)
	}
	if !ok {
		return types.PeerKeyLocation{}, fmt.Errorf("%w: target=%s htl=%d mode=%s", ErrNoRoute, target, htl, mode)
	}

	logger.Debug("选择下一跳",
		"target", target.String(),
		"htl", htl,
		"mode", mode.String(),
		"next", next.String())
	return next, nil
}
