package ringnode

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"github.com/dep2p/go-ringnode/internal/core/connmgr"
	"github.com/dep2p/go-ringnode/internal/core/eventbus"
	"github.com/dep2p/go-ringnode/internal/core/locbook"
	"github.com/dep2p/go-ringnode/internal/core/ring"
	"github.com/dep2p/go-ringnode/internal/core/routing"
	"github.com/dep2p/go-ringnode/internal/core/storage"
	"github.com/dep2p/go-ringnode/internal/debug/introspect"
)

// buildFxApp 构建 Fx 应用
//
// 加载顺序（按依赖）：
//  1. storage → locbook, eventbus
//  2. ring → routing
//  3. connmgr（依赖 ring、locbook 与 eventbus）
//  4. introspect（可选）
func buildFxApp(cfg *nodeConfig, node *Node) (*fx.App, error) {
	if err := cfg.config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	reg := cfg.registry
	modules := []fx.Option{
		fx.Supply(cfg.config),
		fx.Provide(
			func() prometheus.Registerer { return reg },
			func() prometheus.Gatherer { return reg },
		),

		storage.Module(),
		locbook.Module(),
		eventbus.Module(),
		ring.Module(),
		routing.Module(),
		connmgr.Module(),
		introspect.Module(),
	}

	switch {
	case cfg.network != nil:
		modules = append(modules, fx.Supply(cfg.network))
	case cfg.dialer != nil:
		d := cfg.dialer
		modules = append(modules, fx.Provide(func() connmgr.Dialer { return d }))
	}

	modules = append(modules, cfg.fxOptions...)

	modules = append(modules,
		fx.Populate(&node.ring, &node.router, &node.manager, &node.book, &node.engine, &node.bus, &node.introspect),

		// 禁用 Fx 日志输出（避免干扰用户日志）
		fx.WithLogger(func() fxevent.Logger {
			return &fxevent.ZapLogger{Logger: zap.NewNop()}
		}),
	)

	app := fx.New(modules...)
	if err := app.Err(); err != nil {
		return nil, err
	}
	return app, nil
}
