// Package sim 在进程内网络上模拟环的形成与路由
//
// 节点依次加入：每个新节点从已有节点中随机挑选引导节点并 Join，
// 连接是否建立完全由双方的准入判定决定。网络形成后随机发起路由试验，
// 统计贪心路由到达全局最近节点的比例与平均跳数。
package sim

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/dep2p/go-ringnode/internal/core/connmgr"
	"github.com/dep2p/go-ringnode/internal/core/ring"
	"github.com/dep2p/go-ringnode/internal/core/routing"
	"github.com/dep2p/go-ringnode/pkg/lib/log"
	"github.com/dep2p/go-ringnode/pkg/types"
)

var logger = log.Logger("sim")

// ErrInvalidConfig 模拟配置无效
var ErrInvalidConfig = errors.New("sim: invalid config")

// Config 模拟配置
type Config struct {
	// Nodes 节点数
	Nodes int

	// Bootstrap 每个新节点挑选的引导节点数
	Bootstrap int

	// Trials 路由试验次数
	Trials int

	// Seed 随机种子，决定坐标、引导节点与路由目标
	Seed uint64

	// Ring 每个节点的环配置
	Ring ring.Config

	// Parallelism 并发执行路由试验的数量
	Parallelism int
}

// DefaultConfig 返回默认模拟配置
func DefaultConfig() Config {
	return Config{
		Nodes:       100,
		Bootstrap:   ring.MaxConnections,
		Trials:      200,
		Seed:        1,
		Ring:        ring.DefaultConfig(),
		Parallelism: 8,
	}
}

// Validate 验证配置
func (c Config) Validate() error {
	if c.Nodes < 2 {
		return fmt.Errorf("%w: need at least 2 nodes", ErrInvalidConfig)
	}
	if c.Bootstrap < 1 {
		return fmt.Errorf("%w: bootstrap must be positive", ErrInvalidConfig)
	}
	if c.Trials < 0 || c.Parallelism < 1 {
		return fmt.Errorf("%w: trials must be non-negative and parallelism positive", ErrInvalidConfig)
	}
	return c.Ring.Validate()
}

// Result 模拟结果
type Result struct {
	Nodes int `json:"nodes"`

	// 连接数分布
	MinConnections int     `json:"min_connections"`
	MaxConnections int     `json:"max_connections"`
	AvgConnections float64 `json:"avg_connections"`

	// AvgMedian 各节点到自身的中位连接距离的平均值
	AvgMedian float64 `json:"avg_median"`

	// ShortLinkRatio 距离小于 1/Nodes*10 的连接占比
	ShortLinkRatio float64 `json:"short_link_ratio"`

	Trials      int     `json:"trials"`
	Delivered   int     `json:"delivered"`
	SuccessRate float64 `json:"success_rate"`
	AvgHops     float64 `json:"avg_hops"`
}

type node struct {
	mgr    *connmgr.Manager
	router *routing.Router
}

// Network 一次模拟中形成的网络
type Network struct {
	cfg   Config
	net   *connmgr.MemoryNetwork
	nodes []*node
	index map[types.PeerID]*node
}

// Build 按配置依次创建节点并加入环
func Build(ctx context.Context, cfg Config) (*Network, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15))
	n := &Network{
		cfg:   cfg,
		net:   connmgr.NewMemoryNetwork(),
		index: make(map[types.PeerID]*node, cfg.Nodes),
	}

	used := make(map[uint64]struct{}, cfg.Nodes)
	for i := 0; i < cfg.Nodes; i++ {
		if err := ctx.Err(); err != nil {
			n.Close()
			return nil, err
		}

		loc := types.RandomLocationFrom(rng)
		for {
			if _, dup := used[loc.Bits()]; !dup {
				break
			}
			loc = types.RandomLocationFrom(rng)
		}
		used[loc.Bits()] = struct{}{}

		nd, err := n.spawn(loc, rng)
		if err != nil {
			n.Close()
			return nil, err
		}

		if len(n.nodes) > 0 {
			boot := n.pick(rng, cfg.Bootstrap)
			if _, err := nd.mgr.Join(ctx, boot); err != nil {
				logger.Debug("节点加入失败", "self", nd.mgr.Self().String(), "error", err)
			}
		}
		n.nodes = append(n.nodes, nd)
		n.index[nd.mgr.Self().Peer] = nd
	}

	logger.Info("网络已形成", "nodes", len(n.nodes))
	return n, nil
}

func (n *Network) spawn(loc types.Location, rng *rand.Rand) (*node, error) {
	// 每个节点的随机游走使用独立的随机源；并发试验共享同一节点，需要加锁
	walk := &lockedRand{r: rand.New(rand.NewPCG(rng.Uint64(), rng.Uint64()))}
	r, err := ring.New(n.cfg.Ring, ring.WithIntN(walk.IntN))
	if err != nil {
		return nil, err
	}

	self := types.NewPeerKeyLocation(types.RandomPeerID(), loc)
	mgr, err := connmgr.New(connmgr.DefaultConfig(), r, self, n.net.Dialer(self))
	if err != nil {
		return nil, err
	}
	n.net.Attach(mgr)
	return &node{mgr: mgr, router: routing.NewRouter(r)}, nil
}

type lockedRand struct {
	mu sync.Mutex
	r  *rand.Rand
}

func (l *lockedRand) IntN(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.IntN(n)
}

// pick 从已有节点中无放回地随机挑选至多 k 个
func (n *Network) pick(rng *rand.Rand, k int) []types.PeerKeyLocation {
	perm := rng.Perm(len(n.nodes))
	if k > len(perm) {
		k = len(perm)
	}
	out := make([]types.PeerKeyLocation, 0, k)
	for _, i := range perm[:k] {
		out = append(out, n.nodes[i].mgr.Self())
	}
	return out
}

// Close 关闭所有节点
func (n *Network) Close() {
	for _, nd := range n.nodes {
		_ = nd.mgr.Close()
	}
}

// Len 返回节点数
func (n *Network) Len() int {
	return len(n.nodes)
}

// ============================================================================
//                              统计
// ============================================================================

// Stats 统计连接分布
func (n *Network) Stats() Result {
	res := Result{Nodes: len(n.nodes), MinConnections: -1}

	var (
		totalConns int
		medians    float64
		withMedian int
		short      int
	)
	threshold := 10.0 / float64(len(n.nodes))

	for _, nd := range n.nodes {
		self := nd.mgr.Self()
		c := nd.mgr.Ring().Len()
		totalConns += c
		if res.MinConnections < 0 || c < res.MinConnections {
			res.MinConnections = c
		}
		res.MaxConnections = max(res.MaxConnections, c)

		if m, err := nd.mgr.Ring().MedianDistanceTo(self.Location); err == nil {
			medians += m.Float64()
			withMedian++
		}
		for _, pd := range nd.mgr.Ring().ConnectionsByDistance(self.Location) {
			if pd.Distance.Float64() < threshold {
				short++
			}
		}
	}

	if len(n.nodes) > 0 {
		res.AvgConnections = float64(totalConns) / float64(len(n.nodes))
	}
	if withMedian > 0 {
		res.AvgMedian = medians / float64(withMedian)
	}
	if totalConns > 0 {
		res.ShortLinkRatio = float64(short) / float64(totalConns)
	}
	return res
}

// ============================================================================
//                              路由
// ============================================================================

// Route 从 src 出发向 target 逐跳转发，返回经过的跳数与终点
//
// 随机游走阶段不重复访问节点；贪心阶段距离严格递减，
// 在没有比当前节点更近的邻居时停止。
func (n *Network) Route(src types.PeerID, target types.Location) (int, types.PeerKeyLocation, error) {
	cur, ok := n.index[src]
	if !ok {
		return 0, types.PeerKeyLocation{}, fmt.Errorf("sim: unknown node %s", src.ShortString())
	}

	visited := []types.PeerID{src}
	htl := cur.router.InitialHTL()
	hops := 0
	for htl > 0 {
		walk := cur.router.IsRandomWalk(htl)

		var filter ring.PeerFilter
		if walk {
			filter = ring.ExcludePeers(visited...)
		}
		next, err := cur.router.NextHop(target, htl, filter)
		if errors.Is(err, routing.ErrNoRoute) {
			if walk {
				// 没有未访问的邻居，提前进入贪心阶段
				htl = cur.mgr.Ring().RandWalkAbove()
				continue
			}
			break
		}
		if err != nil {
			return hops, cur.mgr.Self(), err
		}

		here := cur.mgr.Self().Location.Distance(target)
		if !walk && !next.Location.Distance(target).Less(here) {
			break
		}

		cur = n.index[next.Peer]
		visited = append(visited, next.Peer)
		htl = cur.router.Decrement(htl)
		hops++
	}
	return hops, cur.mgr.Self(), nil
}

// closest 返回全局离 target 最近的节点
func (n *Network) closest(target types.Location) types.PeerKeyLocation {
	best := n.nodes[0].mgr.Self()
	for _, nd := range n.nodes[1:] {
		p := nd.mgr.Self()
		if p.Location.Distance(target).Less(best.Location.Distance(target)) {
			best = p
		}
	}
	return best
}

type trial struct {
	src    types.PeerID
	target types.Location
}

// Trials 并发执行路由试验并汇总到 res
func (n *Network) Trials(ctx context.Context, res *Result) error {
	cfg := n.cfg
	rng := rand.New(rand.NewPCG(cfg.Seed+1, cfg.Seed^0xbf58476d1ce4e5b9))

	trials := make([]trial, cfg.Trials)
	for i := range trials {
		trials[i] = trial{
			src:    n.nodes[rng.IntN(len(n.nodes))].mgr.Self().Peer,
			target: types.RandomLocationFrom(rng),
		}
	}

	hops := make([]int, len(trials))
	delivered := make([]bool, len(trials))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Parallelism)
	for i, tr := range trials {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			h, dest, err := n.Route(tr.src, tr.target)
			if err != nil {
				return err
			}
			hops[i] = h
			delivered[i] = dest.Peer == n.closest(tr.target).Peer
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	res.Trials = len(trials)
	res.Delivered = 0
	total := 0
	for i := range trials {
		if delivered[i] {
			res.Delivered++
			total += hops[i]
		}
	}
	if res.Trials > 0 {
		res.SuccessRate = float64(res.Delivered) / float64(res.Trials)
	}
	if res.Delivered > 0 {
		res.AvgHops = float64(total) / float64(res.Delivered)
	}
	return nil
}

// Run 形成网络、执行路由试验并返回结果
func Run(ctx context.Context, cfg Config) (Result, error) {
	n, err := Build(ctx, cfg)
	if err != nil {
		return Result{}, err
	}
	defer n.Close()

	res := n.Stats()
	if err := n.Trials(ctx, &res); err != nil {
		return Result{}, err
	}
	return res, nil
}

// Degrees 返回所有节点的连接数，升序
func (n *Network) Degrees() []int {
	out := make([]int, 0, len(n.nodes))
	for _, nd := range n.nodes {
		out = append(out, nd.mgr.Ring().Len())
	}
	slices.Sort(out)
	return out
}
