package badger

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-ringnode/internal/core/storage/engine"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := New(engine.DefaultConfig(filepath.Join(t.TempDir(), "test.db")))
	require.NoError(t, err)
	require.NoError(t, e.Start())
	t.Cleanup(func() { _ = e.Close() })
	return e
}

// TestEngine_CRUD 测试基础读写
func TestEngine_CRUD(t *testing.T) {
	e := newTestEngine(t)

	require.NoError(t, e.Put([]byte("k1"), []byte("v1")))

	v, err := e.Get([]byte("k1"))
	require.NoError(t, err)
	assert.Equal(t, []byte("v1"), v)

	ok, err := e.Has([]byte("k1"))
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, e.Delete([]byte("k1")))
	_, err = e.Get([]byte("k1"))
	assert.ErrorIs(t, err, engine.ErrNotFound)

	ok, err = e.Has([]byte("k1"))
	require.NoError(t, err)
	assert.False(t, ok)

	// 删除不存在的键不报错
	assert.NoError(t, e.Delete([]byte("missing")))
	assert.NoError(t, e.Sync())
}

// TestEngine_EmptyKey 测试空键
func TestEngine_EmptyKey(t *testing.T) {
	e := newTestEngine(t)

	assert.ErrorIs(t, e.Put(nil, []byte("v")), engine.ErrEmptyKey)
	_, err := e.Get(nil)
	assert.ErrorIs(t, err, engine.ErrEmptyKey)
	assert.ErrorIs(t, e.Delete([]byte{}), engine.ErrEmptyKey)
}

// TestEngine_PrefixIterator 测试前缀迭代
func TestEngine_PrefixIterator(t *testing.T) {
	e := newTestEngine(t)

	for _, k := range []string{"a/1", "a/2", "a/3", "b/1"} {
		require.NoError(t, e.Put([]byte(k), []byte("x"+k)))
	}

	iter := e.NewPrefixIterator([]byte("a/"))
	defer iter.Close()

	var keys []string
	for iter.First(); iter.Valid(); iter.Next() {
		keys = append(keys, string(iter.Key()))
		assert.Equal(t, "x"+string(iter.Key()), string(iter.Value()))
	}
	require.NoError(t, iter.Error())
	assert.Equal(t, []string{"a/1", "a/2", "a/3"}, keys)
}

// TestEngine_Persistence 测试重新打开后数据仍在
func TestEngine_Persistence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "persist.db")

	e, err := New(engine.DefaultConfig(path))
	require.NoError(t, err)
	require.NoError(t, e.Put([]byte("k"), []byte("v")))
	require.NoError(t, e.Close())

	e, err = New(engine.DefaultConfig(path))
	require.NoError(t, err)
	defer e.Close()

	v, err := e.Get([]byte("k"))
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), v)
}

// TestEngine_InMemory 测试内存模式
func TestEngine_InMemory(t *testing.T) {
	cfg := engine.DefaultConfig("")
	cfg.InMemory = true

	e, err := New(cfg)
	require.NoError(t, err)
	require.NoError(t, e.Start())
	defer e.Close()

	require.NoError(t, e.Put([]byte("k"), []byte("v")))
	v, err := e.Get([]byte("k"))
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), v)
}

// TestEngine_Closed 测试关闭后的行为
func TestEngine_Closed(t *testing.T) {
	e := newTestEngine(t)
	require.NoError(t, e.Close())
	require.NoError(t, e.Close(), "重复关闭应安全")

	_, err := e.Get([]byte("k"))
	assert.ErrorIs(t, err, engine.ErrClosed)
	assert.ErrorIs(t, e.Put([]byte("k"), nil), engine.ErrClosed)
	assert.ErrorIs(t, e.Start(), engine.ErrClosed)

	iter := e.NewPrefixIterator(nil)
	assert.False(t, iter.First())
	assert.ErrorIs(t, iter.Error(), engine.ErrClosed)
	iter.Close()
}

// TestNew_InvalidConfig 测试非法配置
func TestNew_InvalidConfig(t *testing.T) {
	_, err := New(nil)
	assert.ErrorIs(t, err, engine.ErrInvalidConfig)

	_, err = New(engine.DefaultConfig(""))
	assert.ErrorIs(t, err, engine.ErrInvalidConfig)

	cfg := engine.DefaultConfig(t.TempDir())
	cfg.Badger.GCDiscardRatio = 1.5
	_, err = New(cfg)
	assert.ErrorIs(t, err, engine.ErrInvalidConfig)
}
