// Package config 提供 ringnode 的统一配置管理
//
// 本包采用混合配置模式：
//   - 主 Config 结构体嵌入所有子配置
//   - 每个子配置在独立文件中定义，提供 DefaultXConfig() 与 Validate()
//   - 支持从 JSON / TOML 加载（见 convert.go）
//
// 使用示例：
//
//	cfg := config.NewConfig()
//	cfg.Ring.RandWalkAbove = 5
//
//	cfg, err := config.LoadFile("ringnode.toml")
package config

import (
	"go.uber.org/multierr"
)

// Config 是 ringnode 的完整配置结构
//
// 配置按照功能模块组织：
//   - Ring: 环拓扑与路由阈值
//   - ConnMgr: 连接管理与引导节点
//   - Storage: 数据目录
//   - LocBook: 节点坐标簿
//   - Diagnostics: 自省服务
//   - Log: 日志
type Config struct {
	// Ring 环配置
	Ring RingConfig `json:"ring" toml:"ring"`

	// ConnMgr 连接管理配置
	ConnMgr ConnMgrConfig `json:"conn_mgr" toml:"conn_mgr"`

	// Storage 存储配置
	Storage StorageConfig `json:"storage" toml:"storage"`

	// LocBook 坐标簿配置
	LocBook LocBookConfig `json:"loc_book" toml:"loc_book"`

	// Diagnostics 诊断服务配置
	Diagnostics DiagnosticsConfig `json:"diagnostics" toml:"diagnostics"`

	// Log 日志配置
	Log LogConfig `json:"log" toml:"log"`
}

// NewConfig 创建默认配置
func NewConfig() *Config {
	return &Config{
		Ring:        DefaultRingConfig(),
		ConnMgr:     DefaultConnMgrConfig(),
		Storage:     DefaultStorageConfig(),
		LocBook:     DefaultLocBookConfig(),
		Diagnostics: DefaultDiagnosticsConfig(),
		Log:         DefaultLogConfig(),
	}
}

// Validate 验证配置的有效性
//
// 汇总所有子配置的错误，而不是在第一个错误处停止。
func (c *Config) Validate() error {
	return multierr.Combine(
		c.Ring.Validate(),
		c.ConnMgr.Validate(),
		c.Storage.Validate(),
		c.LocBook.Validate(),
		c.Diagnostics.Validate(),
		c.Log.Validate(),
	)
}
