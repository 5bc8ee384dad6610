package announce

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/dep2p/go-ringnode/pkg/types"
)

// TestRoundTrip 测试编解码往返
func TestRoundTrip(t *testing.T) {
	for _, v := range []float64{0, 0.37, 0.5, 1} {
		p := types.NewPeerKeyLocation(types.RandomPeerID(), types.MustLocation(v))

		back, err := Unmarshal(Marshal(p))
		require.NoError(t, err)
		assert.Equal(t, p, back)
	}
}

// TestUnmarshal_InvalidLocation 测试越界坐标被拒绝
func TestUnmarshal_InvalidLocation(t *testing.T) {
	id := types.RandomPeerID()
	for _, v := range []float64{-0.1, 1.5, math.NaN(), math.Inf(1)} {
		var b []byte
		b = protowire.AppendTag(b, fieldPeerID, protowire.BytesType)
		b = protowire.AppendBytes(b, id[:])
		b = protowire.AppendTag(b, fieldLocation, protowire.Fixed64Type)
		b = protowire.AppendFixed64(b, math.Float64bits(v))

		_, err := Unmarshal(b)
		assert.ErrorIs(t, err, types.ErrInvalidLocation, "坐标 %v 应被拒绝", v)
	}
}

// TestUnmarshal_Malformed 测试结构性错误
func TestUnmarshal_Malformed(t *testing.T) {
	// 截断的消息
	full := Marshal(types.NewPeerKeyLocation(types.RandomPeerID(), types.MustLocation(0.2)))
	_, err := Unmarshal(full[:len(full)-3])
	assert.ErrorIs(t, err, ErrMalformed)

	// 错误长度的 ID
	var b []byte
	b = protowire.AppendTag(b, fieldPeerID, protowire.BytesType)
	b = protowire.AppendBytes(b, []byte{1, 2, 3})
	_, err = Unmarshal(b)
	assert.ErrorIs(t, err, ErrMalformed)

	// 缺少 ID
	b = protowire.AppendTag(nil, fieldLocation, protowire.Fixed64Type)
	b = protowire.AppendFixed64(b, math.Float64bits(0.2))
	_, err = Unmarshal(b)
	assert.ErrorIs(t, err, ErrMissingField)

	_, err = Unmarshal(nil)
	assert.ErrorIs(t, err, ErrMissingField)
}

// TestUnmarshal_UnknownFieldsSkipped 测试未知字段被跳过
func TestUnmarshal_UnknownFieldsSkipped(t *testing.T) {
	p := types.NewPeerKeyLocation(types.RandomPeerID(), types.MustLocation(0.9))
	b := Marshal(p)
	b = protowire.AppendTag(b, 15, protowire.VarintType)
	b = protowire.AppendVarint(b, 12345)
	b = protowire.AppendTag(b, 16, protowire.BytesType)
	b = protowire.AppendString(b, "future")

	back, err := Unmarshal(b)
	require.NoError(t, err)
	assert.Equal(t, p, back)
}

// TestUnmarshal_DefaultLocation 测试省略坐标字段时为 0
func TestUnmarshal_DefaultLocation(t *testing.T) {
	id := types.RandomPeerID()
	b := protowire.AppendTag(nil, fieldPeerID, protowire.BytesType)
	b = protowire.AppendBytes(b, id[:])

	back, err := Unmarshal(b)
	require.NoError(t, err)
	assert.Equal(t, id, back.Peer)
	assert.Equal(t, 0.0, back.Location.Float64())
}
