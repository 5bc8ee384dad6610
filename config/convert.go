package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// FromJSON 从 JSON 数据创建配置
//
// 未出现的字段保留默认值。
//
//	{
//	  "ring": {"rand_walk_above": 5, "max_hops_to_live": 8},
//	  "conn_mgr": {"dial_timeout": "5s"}
//	}
func FromJSON(data []byte) (*Config, error) {
	cfg := NewConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return cfg, nil
}

// FromTOML 从 TOML 数据创建配置
//
//	[ring]
//	rand_walk_above = 5
//
//	[[conn_mgr.bootstrap_peers]]
//	peer_id = "..."
//	location = 0.25
func FromTOML(data []byte) (*Config, error) {
	cfg := NewConfig()
	md, err := toml.Decode(string(data), cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("unknown config keys: %s", strings.Join(keys, ", "))
	}
	return cfg, nil
}

// LoadFile 按扩展名（.json / .toml）加载配置文件并校验
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg *Config
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		cfg, err = FromJSON(data)
	case ".toml":
		cfg, err = FromTOML(data)
	default:
		return nil, fmt.Errorf("unsupported config file extension %q", ext)
	}
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// ToTOML 序列化为 TOML
func (c *Config) ToTOML() ([]byte, error) {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(c); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ApplyPreset 应用预设配置
//
// 支持的预设：
//   - "test": 内存存储、短超时、debug 日志
//   - "server": 启用自省服务、JSON 日志
func ApplyPreset(cfg *Config, presetName string) error {
	if cfg == nil {
		return errors.New("config is nil")
	}

	switch presetName {
	case "test":
		cfg.Storage.InMemory = true
		cfg.ConnMgr.DialTimeout = Duration(time.Second)
		cfg.ConnMgr.JoinTimeout = Duration(3 * time.Second)
		cfg.Log.Level = "debug"
	case "server":
		cfg.Diagnostics.EnableIntrospect = true
		cfg.Log.Format = "json"
	case "":
	default:
		return fmt.Errorf("unknown preset: %s", presetName)
	}
	return nil
}
