package types

import (
	"crypto/rand"
	"fmt"

	"github.com/mr-tron/base58"
)

// ============================================================================
//                              PeerID - 节点标识
// ============================================================================

// PeerIDLen 节点 ID 字节长度
const PeerIDLen = 32

// PeerID 节点唯一标识符（通常为公钥的 SHA256 摘要）
//
// 外部表示格式：
//   - String(): Base58 编码
//   - ShortString(): Base58 前 8 个字符，用于日志
type PeerID [PeerIDLen]byte

// EmptyPeerID 空节点 ID
var EmptyPeerID PeerID

// PeerIDFromBytes 从字节切片创建 PeerID
func PeerIDFromBytes(b []byte) (PeerID, error) {
	if len(b) != PeerIDLen {
		return EmptyPeerID, fmt.Errorf("%w: length %d", ErrInvalidPeerID, len(b))
	}
	var id PeerID
	copy(id[:], b)
	return id, nil
}

// ParsePeerID 从 Base58 字符串解析 PeerID
func ParsePeerID(s string) (PeerID, error) {
	if s == "" {
		return EmptyPeerID, ErrEmptyPeerID
	}
	b, err := base58.Decode(s)
	if err != nil {
		return EmptyPeerID, fmt.Errorf("%w: %v", ErrInvalidPeerID, err)
	}
	return PeerIDFromBytes(b)
}

// RandomPeerID 生成随机 PeerID，用于模拟与测试
func RandomPeerID() PeerID {
	var id PeerID
	_, _ = rand.Read(id[:])
	return id
}

// String 返回 Base58 字符串表示
func (id PeerID) String() string {
	if id.IsEmpty() {
		return ""
	}
	return base58.Encode(id[:])
}

// ShortString 返回 Base58 前缀，用于日志中的简短标识
func (id PeerID) ShortString() string {
	s := id.String()
	if len(s) > 8 {
		return s[:8]
	}
	return s
}

// Bytes 返回字节切片副本
func (id PeerID) Bytes() []byte {
	b := make([]byte, PeerIDLen)
	copy(b, id[:])
	return b
}

// IsEmpty 检查是否为空 ID
func (id PeerID) IsEmpty() bool {
	return id == EmptyPeerID
}

// MarshalText 实现 encoding.TextMarshaler
func (id PeerID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText 实现 encoding.TextUnmarshaler
func (id *PeerID) UnmarshalText(text []byte) error {
	parsed, err := ParsePeerID(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// ============================================================================
//                              PeerKeyLocation - 节点描述
// ============================================================================

// PeerKeyLocation 节点描述：身份 + 环坐标
//
// 由连接管理器提供，环逻辑只按值复制，从不修改。
type PeerKeyLocation struct {
	Peer     PeerID   `json:"peer"`
	Location Location `json:"location"`
}

// NewPeerKeyLocation 创建节点描述
func NewPeerKeyLocation(peer PeerID, loc Location) PeerKeyLocation {
	return PeerKeyLocation{Peer: peer, Location: loc}
}

// String 返回 "<短ID>@<坐标>" 形式
func (p PeerKeyLocation) String() string {
	return p.Peer.ShortString() + "@" + p.Location.String()
}
