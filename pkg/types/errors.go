package types

import "errors"

var (
	// ErrInvalidLocation 坐标不在 [0, 1] 内（或为 NaN/Inf）
	ErrInvalidLocation = errors.New("types: invalid location")

	// ErrInvalidPeerID 无效的节点 ID
	ErrInvalidPeerID = errors.New("types: invalid peer ID")

	// ErrEmptyPeerID 空节点 ID
	ErrEmptyPeerID = errors.New("types: empty peer ID")
)
