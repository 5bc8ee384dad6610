package connmgr

import (
	"context"

	"go.uber.org/fx"

	"github.com/dep2p/go-ringnode/config"
	"github.com/dep2p/go-ringnode/internal/core/eventbus"
	"github.com/dep2p/go-ringnode/internal/core/locbook"
	"github.com/dep2p/go-ringnode/internal/core/ring"
	"github.com/dep2p/go-ringnode/pkg/types"
)

// Module 返回 Fx 模块
//
// 提供 Config 与 *Manager。启动时加入配置的引导节点，停止时关闭所有连接。
func Module() fx.Option {
	return fx.Module("connmgr",
		fx.Provide(
			ConfigFromUnified,
			ProvideManager,
		),
		fx.Invoke(registerLifecycle),
	)
}

// ManagerParams 管理器依赖
type ManagerParams struct {
	fx.In

	Config     Config
	Ring       *ring.Ring
	Book       *locbook.Book
	UnifiedCfg *config.Config `optional:"true"`
	Bus        *eventbus.Bus  `optional:"true"`

	// Dialer 与 Network 二选一；都缺省时只接受入站连接
	Dialer  Dialer         `optional:"true"`
	Network *MemoryNetwork `optional:"true"`
}

// ProvideManager 提供连接管理器
//
// 自身 ID 与坐标从坐标簿加载，首次启动时生成并持久化。
func ProvideManager(p ManagerParams) (*Manager, error) {
	var fixed *types.Location
	if p.UnifiedCfg != nil && p.UnifiedCfg.Ring.Location != nil {
		loc, err := types.LocationFromFloat(*p.UnifiedCfg.Ring.Location)
		if err != nil {
			return nil, err
		}
		fixed = &loc
	}

	self, err := p.Book.Self(fixed)
	if err != nil {
		return nil, err
	}

	dialer := p.Dialer
	if dialer == nil && p.Network != nil {
		dialer = p.Network.Dialer(self)
	}

	opts := []Option{WithLocBook(p.Book)}
	if p.Bus != nil {
		opts = append(opts, WithEventBus(p.Bus))
	}
	m, err := New(p.Config, p.Ring, self, dialer, opts...)
	if err != nil {
		return nil, err
	}
	if p.Network != nil {
		p.Network.Attach(m)
	}
	logger.Info("连接管理器就绪", "self", self.String())
	return m, nil
}

type lifecycleInput struct {
	fx.In

	LC         fx.Lifecycle
	Manager    *Manager
	UnifiedCfg *config.Config `optional:"true"`
	Network    *MemoryNetwork `optional:"true"`
}

func registerLifecycle(in lifecycleInput) {
	in.LC.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if in.UnifiedCfg == nil || len(in.UnifiedCfg.ConnMgr.BootstrapPeers) == 0 {
				return nil
			}
			peers, err := ParseKnownPeers(in.UnifiedCfg.ConnMgr.BootstrapPeers)
			if err != nil {
				return err
			}
			// 引导失败不阻止启动，节点仍可接受入站连接
			if _, err := in.Manager.Join(ctx, peers); err != nil {
				logger.Warn("加入环失败", "error", err)
			}
			return nil
		},
		OnStop: func(_ context.Context) error {
			if in.Network != nil {
				in.Network.Detach(in.Manager.Self().Peer)
			}
			return in.Manager.Close()
		},
	})
}
