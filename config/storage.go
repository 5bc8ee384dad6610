package config

import (
	"errors"
	"path/filepath"
)

// StorageConfig 存储配置
//
// 数据目录结构：
//
//	${DataDir}/
//	└── ringnode.db/        # BadgerDB 数据库
type StorageConfig struct {
	// DataDir 数据目录路径
	// 默认值: "./data"
	DataDir string `json:"data_dir" toml:"data_dir"`

	// InMemory 使用内存存储，进程退出后自身坐标与坐标簿丢失
	InMemory bool `json:"in_memory,omitempty" toml:"in_memory,omitempty"`
}

// DefaultStorageConfig 返回默认的存储配置
func DefaultStorageConfig() StorageConfig {
	return StorageConfig{
		DataDir: "./data",
	}
}

// Validate 验证存储配置的有效性
func (c StorageConfig) Validate() error {
	if c.DataDir == "" && !c.InMemory {
		return errors.New("storage: data_dir cannot be empty")
	}
	return nil
}

// DBPath 返回 BadgerDB 数据库路径
func (c StorageConfig) DBPath() string {
	return filepath.Join(c.DataDir, "ringnode.db")
}
