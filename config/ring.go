package config

import (
	"errors"
	"fmt"
	"math"
)

// RingConfig 环配置
type RingConfig struct {
	// RandWalkAbove HTL 高于此值时随机游走
	// 默认 7
	RandWalkAbove int `json:"rand_walk_above" toml:"rand_walk_above"`

	// MaxHopsToLive 请求最大跳数
	// 默认 10
	MaxHopsToLive int `json:"max_hops_to_live" toml:"max_hops_to_live"`

	// Location 固定的自身坐标，为空时首次启动随机生成并持久化
	Location *float64 `json:"location,omitempty" toml:"location,omitempty"`
}

// DefaultRingConfig 返回默认环配置
func DefaultRingConfig() RingConfig {
	return RingConfig{
		RandWalkAbove: 7,
		MaxHopsToLive: 10,
	}
}

// Validate 验证环配置
func (c RingConfig) Validate() error {
	if c.RandWalkAbove < 0 || c.MaxHopsToLive < 0 {
		return errors.New("ring: thresholds must be non-negative")
	}
	if c.RandWalkAbove > c.MaxHopsToLive {
		return fmt.Errorf("ring: rand_walk_above %d exceeds max_hops_to_live %d", c.RandWalkAbove, c.MaxHopsToLive)
	}
	if c.Location != nil {
		if v := *c.Location; math.IsNaN(v) || v < 0 || v > 1 {
			return fmt.Errorf("ring: location %v outside [0, 1]", v)
		}
	}
	return nil
}

// WithRandWalkAbove 设置随机游走阈值
func (c RingConfig) WithRandWalkAbove(n int) RingConfig {
	c.RandWalkAbove = n
	return c
}

// WithMaxHopsToLive 设置最大跳数
func (c RingConfig) WithMaxHopsToLive(n int) RingConfig {
	c.MaxHopsToLive = n
	return c
}

// WithLocation 设置固定坐标
func (c RingConfig) WithLocation(v float64) RingConfig {
	c.Location = &v
	return c
}
