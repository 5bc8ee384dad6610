// Package locbook 持久化节点坐标簿
//
// 记录自身坐标与通过位置公告得知的其他节点坐标。
// 坐标以 IEEE-754 位模式（8 字节大端）存储在 kv.Store 中，
// 读路径前置一个 LRU 缓存。
//
// 键格式（相对 Store 前缀）：
//
//	s             自身坐标
//	i             自身节点 ID
//	p/{32B id}    节点坐标
package locbook

import (
	"encoding/binary"
	"fmt"
	"slices"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/dep2p/go-ringnode/internal/core/storage/engine"
	"github.com/dep2p/go-ringnode/internal/core/storage/kv"
	"github.com/dep2p/go-ringnode/pkg/lib/log"
	"github.com/dep2p/go-ringnode/pkg/types"
)

var logger = log.Logger("core/locbook")

// StorePrefix 坐标簿在存储引擎中的键前缀
var StorePrefix = []byte("l/")

var (
	selfKey    = []byte("s")
	selfIDKey  = []byte("i")
	peerPrefix = []byte("p/")
)

// DefaultCacheSize 默认 LRU 容量
const DefaultCacheSize = 1024

// Book 节点坐标簿
//
// 并发安全：kv.Store 与 lru.Cache 各自线程安全。
type Book struct {
	store *kv.Store
	cache *lru.Cache[types.PeerID, types.Location]
}

// New 创建坐标簿
func New(store *kv.Store, cacheSize int) (*Book, error) {
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	cache, err := lru.New[types.PeerID, types.Location](cacheSize)
	if err != nil {
		return nil, err
	}
	return &Book{store: store, cache: cache}, nil
}

func peerKey(id types.PeerID) []byte {
	return append(slices.Clone(peerPrefix), id[:]...)
}

func decodeLocation(bits uint64) (types.Location, error) {
	loc, err := types.LocationFromBits(bits)
	if err != nil {
		return types.Location{}, fmt.Errorf("%w: %v", ErrCorrupted, err)
	}
	return loc, nil
}

// storeErr 把存储引擎关闭错误转换为 ErrClosed
func storeErr(err error) error {
	if engine.IsClosed(err) {
		return fmt.Errorf("%w: %v", ErrClosed, err)
	}
	return err
}

// Put 记录节点坐标，覆盖旧值
func (b *Book) Put(p types.PeerKeyLocation) error {
	if err := b.store.PutUint64(peerKey(p.Peer), p.Location.Bits()); err != nil {
		return storeErr(err)
	}
	b.cache.Add(p.Peer, p.Location)
	return nil
}

// Get 查询节点坐标
func (b *Book) Get(id types.PeerID) (types.Location, error) {
	if loc, ok := b.cache.Get(id); ok {
		return loc, nil
	}

	bits, err := b.store.GetUint64(peerKey(id))
	if err != nil {
		if engine.IsNotFound(err) {
			return types.Location{}, ErrNotFound
		}
		return types.Location{}, storeErr(err)
	}
	loc, err := decodeLocation(bits)
	if err != nil {
		return types.Location{}, err
	}
	b.cache.Add(id, loc)
	return loc, nil
}

// Delete 删除节点坐标，不存在时不报错
func (b *Book) Delete(id types.PeerID) error {
	b.cache.Remove(id)
	return b.store.Delete(peerKey(id))
}

// Peers 按坐标升序返回所有已知节点
//
// 损坏的记录被跳过并记录警告。
func (b *Book) Peers() ([]types.PeerKeyLocation, error) {
	var peers []types.PeerKeyLocation
	err := b.store.PrefixScan(peerPrefix, func(key, value []byte) bool {
		id, err := types.PeerIDFromBytes(key[len(peerPrefix):])
		if err != nil {
			logger.Warn("跳过非法坐标簿键", "key", fmt.Sprintf("%x", key), "error", err)
			return true
		}
		if len(value) != 8 {
			logger.Warn("跳过损坏的坐标记录", "peer", id.ShortString(), "size", len(value))
			return true
		}
		loc, err := decodeLocation(binary.BigEndian.Uint64(value))
		if err != nil {
			logger.Warn("跳过损坏的坐标记录", "peer", id.ShortString(), "error", err)
			return true
		}
		peers = append(peers, types.NewPeerKeyLocation(id, loc))
		return true
	})
	if err != nil {
		return nil, err
	}

	slices.SortFunc(peers, func(a, b types.PeerKeyLocation) int {
		return a.Location.Compare(b.Location)
	})
	return peers, nil
}

// SelfLocation 加载或创建自身坐标
//
//   - fixed 非空：使用并持久化 fixed
//   - 已持久化：返回已有坐标
//   - 否则：随机生成并持久化
func (b *Book) SelfLocation(fixed *types.Location) (types.Location, error) {
	if fixed != nil {
		if err := b.store.PutUint64(selfKey, fixed.Bits()); err != nil {
			return types.Location{}, err
		}
		logger.Info("使用配置的自身坐标", "location", fixed.String())
		return *fixed, nil
	}

	bits, err := b.store.GetUint64(selfKey)
	switch {
	case err == nil:
		loc, err := decodeLocation(bits)
		if err != nil {
			return types.Location{}, err
		}
		logger.Debug("加载自身坐标", "location", loc.String())
		return loc, nil
	case !engine.IsNotFound(err):
		return types.Location{}, err
	}

	loc := types.RandomLocation()
	if err := b.store.PutUint64(selfKey, loc.Bits()); err != nil {
		return types.Location{}, err
	}
	logger.Info("生成自身坐标", "location", loc.String())
	return loc, nil
}

// SelfPeerID 加载或创建自身节点 ID
func (b *Book) SelfPeerID() (types.PeerID, error) {
	data, err := b.store.Get(selfIDKey)
	switch {
	case err == nil:
		id, err := types.PeerIDFromBytes(data)
		if err != nil {
			return types.EmptyPeerID, fmt.Errorf("%w: %v", ErrCorrupted, err)
		}
		return id, nil
	case !engine.IsNotFound(err):
		return types.EmptyPeerID, err
	}

	id := types.RandomPeerID()
	if err := b.store.Put(selfIDKey, id.Bytes()); err != nil {
		return types.EmptyPeerID, err
	}
	logger.Info("生成自身节点 ID", "peer", id.ShortString())
	return id, nil
}

// Self 返回自身节点描述：持久化的 ID 与坐标
func (b *Book) Self(fixed *types.Location) (types.PeerKeyLocation, error) {
	id, err := b.SelfPeerID()
	if err != nil {
		return types.PeerKeyLocation{}, err
	}
	loc, err := b.SelfLocation(fixed)
	if err != nil {
		return types.PeerKeyLocation{}, err
	}
	return types.NewPeerKeyLocation(id, loc), nil
}
