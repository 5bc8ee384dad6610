package routing

import "go.uber.org/fx"

// Module 返回 Fx 模块
func Module() fx.Option {
	return fx.Module("routing",
		fx.Provide(NewRouter),
	)
}
