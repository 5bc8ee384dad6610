// Package announce 定义节点位置公告的线格式
//
// 消息结构见 announce.proto。编解码直接使用 protowire，
// 与 protoc 生成的代码在线上完全兼容；未知字段被跳过以保持前向兼容。
package announce

import (
	"errors"
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/dep2p/go-ringnode/pkg/types"
)

// 字段编号
const (
	fieldPeerID   protowire.Number = 1
	fieldLocation protowire.Number = 2
)

var (
	// ErrMalformed 消息无法解析
	ErrMalformed = errors.New("announce: malformed message")

	// ErrMissingField 缺少必填字段
	ErrMissingField = errors.New("announce: missing field")
)

// Marshal 编码位置公告
func Marshal(p types.PeerKeyLocation) []byte {
	b := make([]byte, 0, 1+1+types.PeerIDLen+1+8)
	b = protowire.AppendTag(b, fieldPeerID, protowire.BytesType)
	b = protowire.AppendBytes(b, p.Peer[:])
	b = protowire.AppendTag(b, fieldLocation, protowire.Fixed64Type)
	b = protowire.AppendFixed64(b, p.Location.Bits())
	return b
}

// Unmarshal 解码位置公告
//
// 坐标越界时返回的错误匹配 types.ErrInvalidLocation；
// 结构性错误匹配 ErrMalformed 或 ErrMissingField。
func Unmarshal(data []byte) (types.PeerKeyLocation, error) {
	var (
		out           types.PeerKeyLocation
		locBits       uint64
		hasID, hasLoc bool
	)

	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return out, fmt.Errorf("%w: %v", ErrMalformed, protowire.ParseError(n))
		}
		data = data[n:]

		switch {
		case num == fieldPeerID && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return out, fmt.Errorf("%w: peer id: %v", ErrMalformed, protowire.ParseError(n))
			}
			id, err := types.PeerIDFromBytes(v)
			if err != nil {
				return out, fmt.Errorf("%w: %v", ErrMalformed, err)
			}
			out.Peer, hasID = id, true
			data = data[n:]

		case num == fieldLocation && typ == protowire.Fixed64Type:
			v, n := protowire.ConsumeFixed64(data)
			if n < 0 {
				return out, fmt.Errorf("%w: location: %v", ErrMalformed, protowire.ParseError(n))
			}
			locBits, hasLoc = v, true
			data = data[n:]

		default:
			n := protowire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				return out, fmt.Errorf("%w: field %d: %v", ErrMalformed, num, protowire.ParseError(n))
			}
			data = data[n:]
		}
	}

	if !hasID {
		return out, fmt.Errorf("%w: peer_id", ErrMissingField)
	}
	// proto3 中 0.0 的 double 不会被编码，缺省即坐标 0
	if hasLoc {
		loc, err := types.LocationFromBits(locBits)
		if err != nil {
			return out, err
		}
		out.Location = loc
	}
	return out, nil
}
