package config

import "errors"

// LocBookConfig 坐标簿配置
type LocBookConfig struct {
	// CacheSize LRU 读缓存容量
	// 默认 1024
	CacheSize int `json:"cache_size" toml:"cache_size"`
}

// DefaultLocBookConfig 返回默认坐标簿配置
func DefaultLocBookConfig() LocBookConfig {
	return LocBookConfig{CacheSize: 1024}
}

// Validate 验证坐标簿配置
func (c LocBookConfig) Validate() error {
	if c.CacheSize <= 0 {
		return errors.New("loc_book: cache size must be positive")
	}
	return nil
}
