package ring

import "fmt"

// 连接数阈值
//
// 固定常量，不可配置：引导阶段与容量上限共同决定小世界拓扑的形态。
const (
	// MinConnections 低于此连接数时无条件接受候选
	MinConnections = 10

	// MaxConnections 达到此连接数时无条件拒绝候选
	MaxConnections = 20
)

// 路由阈值默认值
const (
	// DefaultRandWalkAbove HTL 高于此值时执行随机游走
	DefaultRandWalkAbove = 7

	// DefaultMaxHopsToLive 请求允许的最大跳数
	DefaultMaxHopsToLive = 10
)

// Config 环配置
//
// Config 是不可变值：WithX 方法返回修改后的副本，原值不变。
type Config struct {
	randWalkAbove int
	maxHopsToLive int
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		randWalkAbove: DefaultRandWalkAbove,
		maxHopsToLive: DefaultMaxHopsToLive,
	}
}

// WithRandWalkAbove 返回设置了随机游走阈值的副本
func (c Config) WithRandWalkAbove(n int) Config {
	c.randWalkAbove = n
	return c
}

// WithMaxHopsToLive 返回设置了最大跳数的副本
func (c Config) WithMaxHopsToLive(n int) Config {
	c.maxHopsToLive = n
	return c
}

// RandWalkAbove 随机游走阈值
func (c Config) RandWalkAbove() int { return c.randWalkAbove }

// MaxHopsToLive 最大跳数
func (c Config) MaxHopsToLive() int { return c.maxHopsToLive }

// Validate 校验配置
//
// 阈值不得为负；随机游走阈值不得超过最大跳数，否则随机游走阶段永远不会发生。
func (c Config) Validate() error {
	if c.randWalkAbove < 0 {
		return fmt.Errorf("%w: rand walk threshold %d is negative", ErrInvalidConfig, c.randWalkAbove)
	}
	if c.maxHopsToLive < 0 {
		return fmt.Errorf("%w: max hops to live %d is negative", ErrInvalidConfig, c.maxHopsToLive)
	}
	if c.randWalkAbove > c.maxHopsToLive {
		return fmt.Errorf("%w: rand walk threshold %d exceeds max hops to live %d",
			ErrInvalidConfig, c.randWalkAbove, c.maxHopsToLive)
	}
	return nil
}
