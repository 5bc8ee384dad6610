package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestPeerID_RoundTrip 测试 Base58 编解码
func TestPeerID_RoundTrip(t *testing.T) {
	id := RandomPeerID()
	require.False(t, id.IsEmpty())

	parsed, err := ParsePeerID(id.String())
	require.NoError(t, err)
	assert.Equal(t, id, parsed)
	assert.Len(t, id.ShortString(), 8)
}

// TestParsePeerID_Invalid 测试非法 ID
func TestParsePeerID_Invalid(t *testing.T) {
	_, err := ParsePeerID("")
	assert.ErrorIs(t, err, ErrEmptyPeerID)

	_, err = ParsePeerID("0OIl")
	assert.ErrorIs(t, err, ErrInvalidPeerID)

	// 合法 Base58 但长度不对
	_, err = ParsePeerID("3mJr7AoUXx2Wqd")
	assert.ErrorIs(t, err, ErrInvalidPeerID)
}

// TestPeerIDFromBytes 测试字节构造
func TestPeerIDFromBytes(t *testing.T) {
	_, err := PeerIDFromBytes([]byte{1, 2, 3})
	assert.ErrorIs(t, err, ErrInvalidPeerID)

	id := RandomPeerID()
	back, err := PeerIDFromBytes(id.Bytes())
	require.NoError(t, err)
	assert.Equal(t, id, back)
}

// TestPeerKeyLocation_JSON 测试节点描述 JSON 编码
func TestPeerKeyLocation_JSON(t *testing.T) {
	p := NewPeerKeyLocation(RandomPeerID(), MustLocation(0.42))

	data, err := json.Marshal(p)
	require.NoError(t, err)

	var back PeerKeyLocation
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, p, back)
	assert.Contains(t, p.String(), "@0.42")
}
