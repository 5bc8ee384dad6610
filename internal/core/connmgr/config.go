package connmgr

import (
	"fmt"
	"time"

	"github.com/dep2p/go-ringnode/config"
	"github.com/dep2p/go-ringnode/pkg/types"
)

// Config 连接管理器配置
type Config struct {
	// DialTimeout 单次拨号超时
	DialTimeout time.Duration

	// JoinTimeout 加入环的总超时
	JoinTimeout time.Duration
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		DialTimeout: 10 * time.Second,
		JoinTimeout: 30 * time.Second,
	}
}

// Validate 验证配置
func (c Config) Validate() error {
	if c.DialTimeout <= 0 || c.JoinTimeout <= 0 {
		return ErrInvalidConfig
	}
	return nil
}

// ConfigFromUnified 从统一配置创建连接管理器配置
func ConfigFromUnified(cfg *config.Config) Config {
	c := DefaultConfig()
	if cfg == nil {
		return c
	}
	c.DialTimeout = cfg.ConnMgr.DialTimeout.Duration()
	c.JoinTimeout = cfg.ConnMgr.JoinTimeout.Duration()
	return c
}

// ParseKnownPeers 将配置中的引导节点转换为节点描述
func ParseKnownPeers(peers []config.KnownPeer) ([]types.PeerKeyLocation, error) {
	out := make([]types.PeerKeyLocation, 0, len(peers))
	for _, kp := range peers {
		id, err := types.ParsePeerID(kp.PeerID)
		if err != nil {
			return nil, fmt.Errorf("bootstrap peer %q: %w", kp.PeerID, err)
		}
		loc, err := types.LocationFromFloat(kp.Location)
		if err != nil {
			return nil, fmt.Errorf("bootstrap peer %q: %w", kp.PeerID, err)
		}
		out = append(out, types.NewPeerKeyLocation(id, loc))
	}
	return out, nil
}
