package eventbus

import "go.uber.org/fx"

// Module 返回 Fx 模块，提供 *Bus
func Module() fx.Option {
	return fx.Module("eventbus",
		fx.Provide(NewBus),
	)
}
