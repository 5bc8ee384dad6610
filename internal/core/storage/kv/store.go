// Package kv 提供带前缀隔离的 KV 存储抽象层
//
// 每个组件使用不同的前缀隔离数据：
//
//	locbook := kv.New(eng, []byte("l/"))
//	locbook.Put([]byte("p/<peer>"), bits) // 实际键: l/p/<peer>
package kv

import (
	"encoding/binary"
	"fmt"

	"github.com/dep2p/go-ringnode/internal/core/storage/engine"
)

// Store 带前缀隔离的 KV 存储
type Store struct {
	engine engine.Engine
	prefix []byte
}

// New 创建新的 KVStore
func New(eng engine.Engine, prefix []byte) *Store {
	return &Store{
		engine: eng,
		prefix: append([]byte(nil), prefix...),
	}
}

func (s *Store) prefixKey(key []byte) []byte {
	prefixed := make([]byte, len(s.prefix)+len(key))
	copy(prefixed, s.prefix)
	copy(prefixed[len(s.prefix):], key)
	return prefixed
}

func (s *Store) stripPrefix(key []byte) []byte {
	if len(key) < len(s.prefix) {
		return key
	}
	return key[len(s.prefix):]
}

// Get 获取指定键的值
func (s *Store) Get(key []byte) ([]byte, error) {
	return s.engine.Get(s.prefixKey(key))
}

// Put 设置键值对
func (s *Store) Put(key, value []byte) error {
	return s.engine.Put(s.prefixKey(key), value)
}

// Delete 删除指定键
func (s *Store) Delete(key []byte) error {
	return s.engine.Delete(s.prefixKey(key))
}

// Has 检查键是否存在
func (s *Store) Has(key []byte) (bool, error) {
	return s.engine.Has(s.prefixKey(key))
}

// GetUint64 获取大端编码的 uint64 值
func (s *Store) GetUint64(key []byte) (uint64, error) {
	data, err := s.Get(key)
	if err != nil {
		return 0, err
	}
	if len(data) != 8 {
		return 0, fmt.Errorf("%w: uint64 value has %d bytes", engine.ErrCorrupted, len(data))
	}
	return binary.BigEndian.Uint64(data), nil
}

// PutUint64 以大端编码存储 uint64 值
func (s *Store) PutUint64(key []byte, value uint64) error {
	return s.Put(key, binary.BigEndian.AppendUint64(nil, value))
}

// PrefixScan 扫描指定子前缀的所有键值对
//
// 回调函数返回 false 时停止扫描。返回的 key 已去除 Store 的前缀，但保留 subPrefix。
func (s *Store) PrefixScan(subPrefix []byte, fn func(key, value []byte) bool) error {
	iter := s.engine.NewPrefixIterator(s.prefixKey(subPrefix))
	defer iter.Close()

	for iter.First(); iter.Valid(); iter.Next() {
		if !fn(s.stripPrefix(iter.Key()), iter.Value()) {
			break
		}
	}
	return iter.Error()
}

// Count 返回指定子前缀的键数量
func (s *Store) Count(subPrefix []byte) (int, error) {
	n := 0
	err := s.PrefixScan(subPrefix, func(_, _ []byte) bool {
		n++
		return true
	})
	return n, err
}

// SubStore 创建子命名空间
func (s *Store) SubStore(subPrefix []byte) *Store {
	return New(s.engine, s.prefixKey(subPrefix))
}

// Prefix 返回前缀副本
func (s *Store) Prefix() []byte {
	return append([]byte(nil), s.prefix...)
}
