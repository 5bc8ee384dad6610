package locbook

import "errors"

var (
	// ErrNotFound 坐标簿中没有该节点
	ErrNotFound = errors.New("locbook: peer not found")

	// ErrCorrupted 存储的坐标无法通过校验
	ErrCorrupted = errors.New("locbook: stored location corrupted")

	// ErrClosed 底层存储已关闭
	ErrClosed = errors.New("locbook: store closed")
)
