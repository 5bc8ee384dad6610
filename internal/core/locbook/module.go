package locbook

import (
	"go.uber.org/fx"

	"github.com/dep2p/go-ringnode/config"
	"github.com/dep2p/go-ringnode/internal/core/storage/engine"
	"github.com/dep2p/go-ringnode/internal/core/storage/kv"
)

// Params 坐标簿依赖
type Params struct {
	fx.In

	Engine     engine.Engine
	UnifiedCfg *config.Config `optional:"true"`
}

// Module 返回 Fx 模块
func Module() fx.Option {
	return fx.Module("locbook",
		fx.Provide(ProvideBook),
	)
}

// ProvideBook 在存储引擎上创建坐标簿
func ProvideBook(p Params) (*Book, error) {
	size := DefaultCacheSize
	if p.UnifiedCfg != nil {
		size = p.UnifiedCfg.LocBook.CacheSize
	}
	return New(kv.New(p.Engine, StorePrefix), size)
}
