package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestNewConfig 测试创建默认配置
func TestNewConfig(t *testing.T) {
	cfg := NewConfig()
	require.NotNil(t, cfg)
	assert.NoError(t, cfg.Validate())

	assert.Equal(t, 7, cfg.Ring.RandWalkAbove)
	assert.Equal(t, 10, cfg.Ring.MaxHopsToLive)
	assert.Nil(t, cfg.Ring.Location)
	assert.Equal(t, 10*time.Second, cfg.ConnMgr.DialTimeout.Duration())
	assert.Equal(t, filepath.Join("./data", "ringnode.db"), cfg.Storage.DBPath())

	t.Log("✅ NewConfig 测试通过")
}

// TestConfig_ValidateAggregates 测试汇总多个子配置错误
func TestConfig_ValidateAggregates(t *testing.T) {
	cfg := NewConfig()
	cfg.Ring.RandWalkAbove = 11
	cfg.LocBook.CacheSize = 0
	cfg.Log.Level = "loud"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rand_walk_above")
	assert.Contains(t, err.Error(), "cache size")
	assert.Contains(t, err.Error(), "loud")
}

// TestRingConfig 测试环配置
func TestRingConfig(t *testing.T) {
	t.Run("WithX", func(t *testing.T) {
		cfg := DefaultRingConfig().WithRandWalkAbove(3).WithMaxHopsToLive(6).WithLocation(0.4)
		assert.Equal(t, 3, cfg.RandWalkAbove)
		assert.Equal(t, 6, cfg.MaxHopsToLive)
		require.NotNil(t, cfg.Location)
		assert.Equal(t, 0.4, *cfg.Location)
		assert.NoError(t, cfg.Validate())
	})

	t.Run("InvalidLocation", func(t *testing.T) {
		assert.Error(t, DefaultRingConfig().WithLocation(1.5).Validate())
		assert.Error(t, DefaultRingConfig().WithLocation(-0.1).Validate())
	})

	t.Run("NegativeThreshold", func(t *testing.T) {
		assert.Error(t, DefaultRingConfig().WithRandWalkAbove(-1).Validate())
	})
}

// TestConnMgrConfig 测试连接管理配置
func TestConnMgrConfig(t *testing.T) {
	assert.NoError(t, DefaultConnMgrConfig().Validate())
	assert.Error(t, DefaultConnMgrConfig().WithDialTimeout(0).Validate())
	assert.Error(t, DefaultConnMgrConfig().WithJoinTimeout(-time.Second).Validate())

	bad := DefaultConnMgrConfig().WithBootstrapPeers(KnownPeer{PeerID: "x", Location: 2})
	assert.Error(t, bad.Validate())

	empty := DefaultConnMgrConfig().WithBootstrapPeers(KnownPeer{Location: 0.2})
	assert.Error(t, empty.Validate())
}

// TestStorageConfig 测试存储配置
func TestStorageConfig(t *testing.T) {
	assert.Error(t, StorageConfig{}.Validate())
	assert.NoError(t, StorageConfig{InMemory: true}.Validate())
}

// TestFromJSON 测试 JSON 加载
func TestFromJSON(t *testing.T) {
	cfg, err := FromJSON([]byte(`{
		"ring": {"rand_walk_above": 5, "max_hops_to_live": 8, "location": 0.25},
		"conn_mgr": {
			"dial_timeout": "5s",
			"bootstrap_peers": [{"peer_id": "abc", "location": 0.5}]
		}
	}`))
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.Ring.RandWalkAbove)
	assert.Equal(t, 8, cfg.Ring.MaxHopsToLive)
	require.NotNil(t, cfg.Ring.Location)
	assert.Equal(t, 0.25, *cfg.Ring.Location)
	assert.Equal(t, 5*time.Second, cfg.ConnMgr.DialTimeout.Duration())
	// 未出现的字段保留默认值
	assert.Equal(t, 30*time.Second, cfg.ConnMgr.JoinTimeout.Duration())
	require.Len(t, cfg.ConnMgr.BootstrapPeers, 1)
	assert.Equal(t, "abc", cfg.ConnMgr.BootstrapPeers[0].PeerID)

	_, err = FromJSON([]byte(`{"conn_mgr": {"dial_timeout": "soon"}}`))
	assert.Error(t, err)
}

// TestFromTOML 测试 TOML 加载
func TestFromTOML(t *testing.T) {
	cfg, err := FromTOML([]byte(`
[ring]
rand_walk_above = 4
max_hops_to_live = 9

[conn_mgr]
join_timeout = "1m"

[[conn_mgr.bootstrap_peers]]
peer_id = "abc"
location = 0.75

[log]
level = "debug"
format = "json"
`))
	require.NoError(t, err)

	assert.Equal(t, 4, cfg.Ring.RandWalkAbove)
	assert.Equal(t, 9, cfg.Ring.MaxHopsToLive)
	assert.Equal(t, time.Minute, cfg.ConnMgr.JoinTimeout.Duration())
	require.Len(t, cfg.ConnMgr.BootstrapPeers, 1)
	assert.Equal(t, 0.75, cfg.ConnMgr.BootstrapPeers[0].Location)
	assert.Equal(t, "json", cfg.Log.Format)

	_, err = FromTOML([]byte("[ring]\nunknown_key = 1\n"))
	assert.ErrorContains(t, err, "ring.unknown_key")
}

// TestTOML_RoundTrip 测试 TOML 编码后可再次加载
func TestTOML_RoundTrip(t *testing.T) {
	cfg := NewConfig()
	cfg.Ring = cfg.Ring.WithLocation(0.125)
	cfg.ConnMgr = cfg.ConnMgr.WithDialTimeout(3 * time.Second)

	data, err := cfg.ToTOML()
	require.NoError(t, err)

	back, err := FromTOML(data)
	require.NoError(t, err)
	assert.Equal(t, cfg, back)
}

// TestLoadFile 测试按扩展名加载
func TestLoadFile(t *testing.T) {
	dir := t.TempDir()

	jsonPath := filepath.Join(dir, "node.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte(`{"loc_book": {"cache_size": 16}}`), 0o600))
	cfg, err := LoadFile(jsonPath)
	require.NoError(t, err)
	assert.Equal(t, 16, cfg.LocBook.CacheSize)

	tomlPath := filepath.Join(dir, "node.toml")
	require.NoError(t, os.WriteFile(tomlPath, []byte("[diagnostics]\nenable_introspect = true\n"), 0o600))
	cfg, err = LoadFile(tomlPath)
	require.NoError(t, err)
	assert.True(t, cfg.Diagnostics.EnableIntrospect)

	// 加载后执行校验
	invalidPath := filepath.Join(dir, "bad.toml")
	require.NoError(t, os.WriteFile(invalidPath, []byte("[loc_book]\ncache_size = 0\n"), 0o600))
	_, err = LoadFile(invalidPath)
	assert.Error(t, err)

	_, err = LoadFile(filepath.Join(dir, "node.yaml"))
	assert.Error(t, err)

	_, err = LoadFile(filepath.Join(dir, "missing.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

// TestApplyPreset 测试预设
func TestApplyPreset(t *testing.T) {
	cfg := NewConfig()
	require.NoError(t, ApplyPreset(cfg, "test"))
	assert.True(t, cfg.Storage.InMemory)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.NoError(t, cfg.Validate())

	cfg = NewConfig()
	require.NoError(t, ApplyPreset(cfg, "server"))
	assert.True(t, cfg.Diagnostics.EnableIntrospect)

	assert.Error(t, ApplyPreset(cfg, "mobile"))
	assert.Error(t, ApplyPreset(nil, "test"))
	assert.NoError(t, ApplyPreset(cfg, ""))
}

// TestDuration_JSON 测试 Duration 的两种 JSON 格式
func TestDuration_JSON(t *testing.T) {
	var d Duration
	require.NoError(t, d.UnmarshalJSON([]byte(`"1m30s"`)))
	assert.Equal(t, 90*time.Second, d.Duration())

	require.NoError(t, d.UnmarshalJSON([]byte(`1000`)))
	assert.Equal(t, time.Microsecond, d.Duration())

	data, err := Duration(2 * time.Second).MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `"2s"`, string(data))

	assert.Error(t, d.UnmarshalJSON([]byte(`true`)))
}
