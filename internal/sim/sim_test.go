package sim

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-ringnode/internal/core/ring"
	"github.com/dep2p/go-ringnode/pkg/types"
)

func smallConfig(nodes int) Config {
	cfg := DefaultConfig()
	cfg.Nodes = nodes
	cfg.Trials = 50
	cfg.Seed = 42
	return cfg
}

// TestConfig_Validate 测试配置校验
func TestConfig_Validate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())

	bad := []func(*Config){
		func(c *Config) { c.Nodes = 1 },
		func(c *Config) { c.Bootstrap = 0 },
		func(c *Config) { c.Trials = -1 },
		func(c *Config) { c.Parallelism = 0 },
	}
	for _, mutate := range bad {
		cfg := DefaultConfig()
		mutate(&cfg)
		assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
	}

	cfg := DefaultConfig()
	cfg.Ring = ring.DefaultConfig().WithRandWalkAbove(20)
	assert.ErrorIs(t, cfg.Validate(), ring.ErrInvalidConfig)

	_, err := Run(context.Background(), Config{})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

// TestRun_FullMesh 测试低于 MinConnections 时形成全连接网络并全部送达
func TestRun_FullMesh(t *testing.T) {
	res, err := Run(context.Background(), smallConfig(6))
	require.NoError(t, err)

	assert.Equal(t, 6, res.Nodes)
	assert.Equal(t, 5, res.MinConnections)
	assert.Equal(t, 5, res.MaxConnections)
	assert.InDelta(t, 5.0, res.AvgConnections, 1e-9)
	assert.Greater(t, res.AvgMedian, 0.0)
	assert.LessOrEqual(t, res.AvgMedian, 0.5)

	assert.Equal(t, 50, res.Trials)
	assert.Equal(t, 50, res.Delivered)
	assert.Equal(t, 1.0, res.SuccessRate)
	assert.LessOrEqual(t, res.AvgHops, float64(ring.DefaultMaxHopsToLive))
	t.Log("✅ 全连接网络全部送达")
}

// TestRun_CapacityBound 测试较大网络中连接数不超过 MaxConnections
func TestRun_CapacityBound(t *testing.T) {
	res, err := Run(context.Background(), smallConfig(60))
	require.NoError(t, err)

	assert.LessOrEqual(t, res.MaxConnections, ring.MaxConnections)
	assert.GreaterOrEqual(t, res.MinConnections, 1)
	assert.LessOrEqual(t, res.Delivered, res.Trials)
	assert.Greater(t, res.SuccessRate, 0.0)
	assert.GreaterOrEqual(t, res.ShortLinkRatio, 0.0)
	assert.LessOrEqual(t, res.ShortLinkRatio, 1.0)
}

// TestBuild_Deterministic 测试相同种子形成相同拓扑
func TestBuild_Deterministic(t *testing.T) {
	cfg := smallConfig(40)

	a, err := Build(context.Background(), cfg)
	require.NoError(t, err)
	defer a.Close()

	b, err := Build(context.Background(), cfg)
	require.NoError(t, err)
	defer b.Close()

	assert.Equal(t, 40, a.Len())
	assert.Equal(t, a.Degrees(), b.Degrees())
	assert.Equal(t, a.Stats(), b.Stats())
}

// TestNetwork_Route 测试单次路由
func TestNetwork_Route(t *testing.T) {
	n, err := Build(context.Background(), smallConfig(5))
	require.NoError(t, err)
	defer n.Close()

	src := n.nodes[0].mgr.Self()
	target := n.nodes[3].mgr.Self().Location

	hops, dest, err := n.Route(src.Peer, target)
	require.NoError(t, err)
	assert.Equal(t, n.nodes[3].mgr.Self(), dest)
	assert.GreaterOrEqual(t, hops, 1)

	_, _, err = n.Route(types.RandomPeerID(), target)
	assert.Error(t, err)
}

// TestBuild_Canceled 测试取消上下文
func TestBuild_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Build(ctx, smallConfig(10))
	assert.ErrorIs(t, err, context.Canceled)
}
