package ringnode

import (
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"

	"github.com/dep2p/go-ringnode/config"
	"github.com/dep2p/go-ringnode/internal/core/connmgr"
	"github.com/dep2p/go-ringnode/pkg/types"
)

// Option 用户配置选项函数
type Option func(*nodeConfig) error

// nodeConfig 节点构建配置
type nodeConfig struct {
	// config 统一配置，选项按顺序覆盖其字段
	config *config.Config

	// network 进程内网络，与 dialer 二选一
	network *connmgr.MemoryNetwork
	dialer  connmgr.Dialer

	// registry 指标注册表
	registry *prometheus.Registry

	// fxOptions 用户自定义 Fx 选项
	fxOptions []fx.Option
}

// newNodeConfig 创建默认配置
func newNodeConfig() *nodeConfig {
	return &nodeConfig{
		config:   config.NewConfig(),
		registry: prometheus.NewRegistry(),
	}
}

// ============================================================================
//                              配置来源
// ============================================================================

// WithConfig 使用完整配置替换默认配置
//
// 应放在其他选项之前，否则之前的覆盖会丢失。
func WithConfig(cfg *config.Config) Option {
	return func(c *nodeConfig) error {
		if cfg == nil {
			return errors.New("nil config")
		}
		c.config = cfg
		return nil
	}
}

// WithConfigFile 从 JSON 或 TOML 文件加载配置
func WithConfigFile(path string) Option {
	return func(c *nodeConfig) error {
		cfg, err := config.LoadFile(path)
		if err != nil {
			return err
		}
		c.config = cfg
		return nil
	}
}

// WithPreset 应用预设配置（"test" / "server"）
func WithPreset(name string) Option {
	return func(c *nodeConfig) error {
		return config.ApplyPreset(c.config, name)
	}
}

// ============================================================================
//                              环
// ============================================================================

// WithLocation 固定自身坐标
func WithLocation(v float64) Option {
	return func(c *nodeConfig) error {
		if _, err := types.LocationFromFloat(v); err != nil {
			return err
		}
		c.config.Ring = c.config.Ring.WithLocation(v)
		return nil
	}
}

// WithRandWalkAbove 设置随机游走阈值
func WithRandWalkAbove(n int) Option {
	return func(c *nodeConfig) error {
		c.config.Ring = c.config.Ring.WithRandWalkAbove(n)
		return nil
	}
}

// WithMaxHopsToLive 设置最大跳数
func WithMaxHopsToLive(n int) Option {
	return func(c *nodeConfig) error {
		c.config.Ring = c.config.Ring.WithMaxHopsToLive(n)
		return nil
	}
}

// ============================================================================
//                              存储
// ============================================================================

// WithDataDir 设置数据目录
func WithDataDir(dir string) Option {
	return func(c *nodeConfig) error {
		c.config.Storage.DataDir = dir
		c.config.Storage.InMemory = false
		return nil
	}
}

// WithInMemory 使用内存存储，节点身份不会持久化
func WithInMemory() Option {
	return func(c *nodeConfig) error {
		c.config.Storage.InMemory = true
		return nil
	}
}

// ============================================================================
//                              连接
// ============================================================================

// WithBootstrapPeers 设置启动时加入的引导节点
func WithBootstrapPeers(peers ...types.PeerKeyLocation) Option {
	return func(c *nodeConfig) error {
		known := make([]config.KnownPeer, 0, len(peers))
		for _, p := range peers {
			known = append(known, config.KnownPeer{
				PeerID:   p.Peer.String(),
				Location: p.Location.Float64(),
			})
		}
		c.config.ConnMgr = c.config.ConnMgr.WithBootstrapPeers(known...)
		return nil
	}
}

// WithMemoryNetwork 将节点接入进程内网络
func WithMemoryNetwork(n *connmgr.MemoryNetwork) Option {
	return func(c *nodeConfig) error {
		if c.dialer != nil {
			return errors.New("memory network and dialer are mutually exclusive")
		}
		c.network = n
		return nil
	}
}

// WithDialer 设置出站拨号器
func WithDialer(d connmgr.Dialer) Option {
	return func(c *nodeConfig) error {
		if c.network != nil {
			return errors.New("memory network and dialer are mutually exclusive")
		}
		c.dialer = d
		return nil
	}
}

// ============================================================================
//                              诊断
// ============================================================================

// WithIntrospect 启用自省服务
func WithIntrospect(addr string) Option {
	return func(c *nodeConfig) error {
		if addr == "" {
			return fmt.Errorf("introspect: empty address")
		}
		c.config.Diagnostics.EnableIntrospect = true
		c.config.Diagnostics.IntrospectAddr = addr
		return nil
	}
}

// WithRegistry 使用外部指标注册表
func WithRegistry(reg *prometheus.Registry) Option {
	return func(c *nodeConfig) error {
		if reg == nil {
			return errors.New("nil registry")
		}
		c.registry = reg
		return nil
	}
}

// WithFxOption 追加自定义 Fx 选项
func WithFxOption(opts ...fx.Option) Option {
	return func(c *nodeConfig) error {
		c.fxOptions = append(c.fxOptions, opts...)
		return nil
	}
}
