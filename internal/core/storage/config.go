package storage

import (
	"time"

	"github.com/dep2p/go-ringnode/config"
	"github.com/dep2p/go-ringnode/internal/core/storage/engine"
)

// Config Storage 模块配置
type Config struct {
	// Path BadgerDB 数据库目录，InMemory 为 false 时必需
	Path string

	// InMemory 使用内存模式，进程退出后数据丢失
	InMemory bool

	// SyncWrites 是否同步写入
	SyncWrites bool

	// GCInterval 值日志垃圾回收间隔，0 表示禁用
	GCInterval time.Duration
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		Path:       "./data/ringnode.db",
		GCInterval: 10 * time.Minute,
	}
}

// ConfigFromUnified 从统一配置创建 Storage 配置
func ConfigFromUnified(cfg *config.Config) Config {
	c := DefaultConfig()
	if cfg == nil {
		return c
	}
	if cfg.Storage.DataDir != "" {
		c.Path = cfg.Storage.DBPath()
	}
	c.InMemory = cfg.Storage.InMemory
	return c
}

// Validate 验证配置
func (c Config) Validate() error {
	if !c.InMemory && c.Path == "" {
		return ErrInvalidConfig
	}
	if c.GCInterval < 0 {
		return ErrInvalidConfig
	}
	return nil
}

// ToEngineConfig 转换为引擎配置
func (c Config) ToEngineConfig() *engine.Config {
	ec := engine.DefaultConfig(c.Path)
	ec.InMemory = c.InMemory
	ec.SyncWrites = c.SyncWrites
	ec.Badger.GCInterval = c.GCInterval
	return ec
}

// WithPath 设置存储路径
func (c Config) WithPath(path string) Config {
	c.Path = path
	return c
}

// WithInMemory 设置内存模式
func (c Config) WithInMemory(inMemory bool) Config {
	c.InMemory = inMemory
	return c
}

// WithSyncWrites 设置同步写入
func (c Config) WithSyncWrites(sync bool) Config {
	c.SyncWrites = sync
	return c
}
