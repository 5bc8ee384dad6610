package ring

import (
	"math/rand/v2"

	"github.com/dep2p/go-ringnode/pkg/lib/log"
)

var logger = log.Logger("core/ring")

// Ring 小世界环的本地视图：连接表 + 不可变配置
//
// 每个节点进程持有一个 Ring，由连接管理器通过 AcceptAndInsert 写入，
// 路由与诊断组件只读访问。
type Ring struct {
	cfg     Config
	table   *Table
	metrics *Metrics

	// intN 返回 [0, n) 内的均匀随机整数，须并发安全
	intN func(n int) int
}

// Option Ring 构造选项
type Option func(*Ring)

// WithMetrics 挂载指标收集器
func WithMetrics(m *Metrics) Option {
	return func(r *Ring) {
		r.metrics = m
	}
}

// WithTable 使用给定的连接表
func WithTable(t *Table) Option {
	return func(r *Ring) {
		if t != nil {
			r.table = t
		}
	}
}

// WithIntN 替换 SamplePeer 使用的随机源，用于可复现的模拟
func WithIntN(fn func(n int) int) Option {
	return func(r *Ring) {
		if fn != nil {
			r.intN = fn
		}
	}
}

// New 创建 Ring
func New(cfg Config, opts ...Option) (*Ring, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	r := &Ring{
		cfg:   cfg,
		table: NewTable(),
		intN:  rand.IntN,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.metrics != nil {
		r.metrics.attach(r.table)
	}

	logger.Debug("环已创建",
		"randWalkAbove", cfg.randWalkAbove,
		"maxHopsToLive", cfg.maxHopsToLive)
	return r, nil
}

// NewDefault 使用默认阈值创建 Ring
func NewDefault() *Ring {
	r, err := New(DefaultConfig())
	if err != nil {
		// 默认配置总是合法
		panic(err)
	}
	return r
}

// Config 返回配置
func (r *Ring) Config() Config {
	return r.cfg
}

// RandWalkAbove 返回随机游走阈值
func (r *Ring) RandWalkAbove() int {
	return r.cfg.randWalkAbove
}

// MaxHopsToLive 返回最大跳数
func (r *Ring) MaxHopsToLive() int {
	return r.cfg.maxHopsToLive
}

// Connections 返回连接表，用于直接加锁访问
//
// 直接调用 Table.Insert 的调用者需自行处理准入与插入之间的竞态。
func (r *Ring) Connections() *Table {
	return r.table
}

// Len 返回当前连接数
func (r *Ring) Len() int {
	return r.table.Len()
}
