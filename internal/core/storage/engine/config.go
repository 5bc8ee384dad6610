package engine

import (
	"os"
	"path/filepath"
	"time"
)

// Config 存储引擎配置
type Config struct {
	// Path 数据目录路径，InMemory 为 false 时必需
	Path string

	// InMemory 内存模式，不落盘
	InMemory bool

	// SyncWrites 是否同步写入
	SyncWrites bool

	// Badger 特定选项
	Badger BadgerOptions
}

// BadgerOptions BadgerDB 特定选项
//
// 节点坐标数据量很小，默认值远低于 BadgerDB 自身的默认值。
type BadgerOptions struct {
	// MemTableSize 内存表大小（字节）
	MemTableSize int64

	// ValueLogFileSize 值日志文件大小（字节）
	ValueLogFileSize int64

	// BlockCacheSize 块缓存大小（字节）
	BlockCacheSize int64

	// NumCompactors 压缩器数量，至少为 2
	NumCompactors int

	// GCInterval 值日志垃圾回收间隔，0 表示禁用
	GCInterval time.Duration

	// GCDiscardRatio 垃圾回收丢弃比例
	GCDiscardRatio float64
}

// DefaultConfig 返回默认配置
func DefaultConfig(path string) *Config {
	return &Config{
		Path:   path,
		Badger: DefaultBadgerOptions(),
	}
}

// DefaultBadgerOptions 返回默认 BadgerDB 选项
func DefaultBadgerOptions() BadgerOptions {
	return BadgerOptions{
		MemTableSize:     16 << 20, // 16MB
		ValueLogFileSize: 64 << 20, // 64MB
		BlockCacheSize:   8 << 20,  // 8MB
		NumCompactors:    2,
		GCInterval:       10 * time.Minute,
		GCDiscardRatio:   0.5,
	}
}

// Validate 验证配置
func (c *Config) Validate() error {
	if !c.InMemory && c.Path == "" {
		return ErrInvalidConfig
	}
	if c.Badger.MemTableSize < 1<<20 {
		return ErrInvalidConfig
	}
	if c.Badger.ValueLogFileSize < 1<<20 {
		return ErrInvalidConfig
	}
	if c.Badger.NumCompactors < 2 {
		return ErrInvalidConfig
	}
	if c.Badger.GCDiscardRatio <= 0 || c.Badger.GCDiscardRatio >= 1 {
		return ErrInvalidConfig
	}
	return nil
}

// EnsureDir 确保数据目录存在，内存模式下不做任何事
func (c *Config) EnsureDir() error {
	if c.InMemory {
		return nil
	}
	absPath, err := filepath.Abs(c.Path)
	if err != nil {
		return err
	}
	c.Path = absPath
	return os.MkdirAll(c.Path, 0o755)
}
