package config

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// KnownPeer 引导节点配置
//
// 启动时 Join 的节点。
type KnownPeer struct {
	// PeerID Base58 编码的节点 ID
	PeerID string `json:"peer_id" toml:"peer_id"`

	// Location 节点环坐标
	Location float64 `json:"location" toml:"location"`
}

// ConnMgrConfig 连接管理配置
type ConnMgrConfig struct {
	// DialTimeout 单次拨号超时
	DialTimeout Duration `json:"dial_timeout" toml:"dial_timeout"`

	// JoinTimeout 加入环的总超时
	JoinTimeout Duration `json:"join_timeout" toml:"join_timeout"`

	// BootstrapPeers 引导节点列表
	BootstrapPeers []KnownPeer `json:"bootstrap_peers,omitempty" toml:"bootstrap_peers,omitempty"`
}

// DefaultConnMgrConfig 返回默认连接管理配置
func DefaultConnMgrConfig() ConnMgrConfig {
	return ConnMgrConfig{
		DialTimeout: Duration(10 * time.Second),
		JoinTimeout: Duration(30 * time.Second),
	}
}

// Validate 验证连接管理配置
func (c ConnMgrConfig) Validate() error {
	if c.DialTimeout <= 0 {
		return errors.New("conn_mgr: dial timeout must be positive")
	}
	if c.JoinTimeout <= 0 {
		return errors.New("conn_mgr: join timeout must be positive")
	}
	for i, p := range c.BootstrapPeers {
		if p.PeerID == "" {
			return fmt.Errorf("conn_mgr: bootstrap peer %d has empty peer_id", i)
		}
		if math.IsNaN(p.Location) || p.Location < 0 || p.Location > 1 {
			return fmt.Errorf("conn_mgr: bootstrap peer %s location %v outside [0, 1]", p.PeerID, p.Location)
		}
	}
	return nil
}

// WithDialTimeout 设置拨号超时
func (c ConnMgrConfig) WithDialTimeout(d time.Duration) ConnMgrConfig {
	c.DialTimeout = Duration(d)
	return c
}

// WithJoinTimeout 设置加入超时
func (c ConnMgrConfig) WithJoinTimeout(d time.Duration) ConnMgrConfig {
	c.JoinTimeout = Duration(d)
	return c
}

// WithBootstrapPeers 设置引导节点
func (c ConnMgrConfig) WithBootstrapPeers(peers ...KnownPeer) ConnMgrConfig {
	c.BootstrapPeers = peers
	return c
}
