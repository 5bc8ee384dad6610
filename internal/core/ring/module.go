package ring

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"

	"github.com/dep2p/go-ringnode/config"
)

// Module 返回 Fx 模块
//
// 提供 Config、*Metrics 与 *Ring；存在 prometheus.Registerer 时注册指标。
func Module() fx.Option {
	return fx.Module("ring",
		fx.Provide(
			ConfigFromUnified,
			NewMetrics,
			ProvideRing,
		),
		fx.Invoke(registerMetrics),
	)
}

// ConfigFromUnified 从统一配置构建环配置
func ConfigFromUnified(cfg *config.Config) Config {
	if cfg == nil {
		return DefaultConfig()
	}
	return DefaultConfig().
		WithRandWalkAbove(cfg.Ring.RandWalkAbove).
		WithMaxHopsToLive(cfg.Ring.MaxHopsToLive)
}

// ProvideRing 提供 Ring 实例
func ProvideRing(cfg Config, m *Metrics) (*Ring, error) {
	return New(cfg, WithMetrics(m))
}

type metricsInput struct {
	fx.In
	Metrics    *Metrics
	Registerer prometheus.Registerer `optional:"true"`
}

func registerMetrics(in metricsInput) error {
	if in.Registerer == nil {
		return nil
	}
	return in.Registerer.Register(in.Metrics)
}
