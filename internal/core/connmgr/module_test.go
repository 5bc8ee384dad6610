package connmgr

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"

	"github.com/dep2p/go-ringnode/config"
	"github.com/dep2p/go-ringnode/internal/core/locbook"
	"github.com/dep2p/go-ringnode/internal/core/ring"
	"github.com/dep2p/go-ringnode/internal/core/storage"
)

func testUnifiedConfig(t *testing.T, loc float64) *config.Config {
	t.Helper()
	cfg := config.NewConfig()
	require.NoError(t, config.ApplyPreset(cfg, "test"))
	cfg.Ring = cfg.Ring.WithLocation(loc)
	return cfg
}

// TestModule 测试模块装配、引导与关闭
func TestModule(t *testing.T) {
	net := NewMemoryNetwork()
	boot := joinNet(t, net, 0.6)

	cfg := testUnifiedConfig(t, 0.2)
	cfg.ConnMgr = cfg.ConnMgr.WithBootstrapPeers(config.KnownPeer{
		PeerID:   boot.Self().Peer.String(),
		Location: boot.Self().Location.Float64(),
	})

	var m *Manager
	app := fxtest.New(t,
		fx.NopLogger,
		fx.Supply(cfg, net),
		storage.Module(),
		locbook.Module(),
		ring.Module(),
		Module(),
		fx.Populate(&m),
	)
	app.RequireStart()

	require.NotNil(t, m)
	assert.Equal(t, 0.2, m.Self().Location.Float64())
	assert.Equal(t, 2, net.Len())

	// 启动时已连接引导节点
	assert.Equal(t, 1, m.Len())
	assert.Equal(t, 1, boot.Len())

	app.RequireStop()
	assert.Equal(t, 1, net.Len())
	assert.Equal(t, 0, boot.Len())
}

// TestModule_BootstrapFailureDoesNotBlockStart 测试引导失败不阻止启动
func TestModule_BootstrapFailureDoesNotBlockStart(t *testing.T) {
	cfg := testUnifiedConfig(t, 0.2)
	cfg.ConnMgr = cfg.ConnMgr.WithBootstrapPeers(config.KnownPeer{
		PeerID:   peerAt(0.5).Peer.String(),
		Location: 0.5,
	})

	var m *Manager
	app := fxtest.New(t,
		fx.NopLogger,
		fx.Supply(cfg, NewMemoryNetwork()),
		storage.Module(),
		locbook.Module(),
		ring.Module(),
		Module(),
		fx.Populate(&m),
	)
	require.NoError(t, app.Start(context.Background()))
	defer app.RequireStop()

	assert.Equal(t, 0, m.Len())
}
