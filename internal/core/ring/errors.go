package ring

import "errors"

// 环协议错误定义
var (
	// ErrEmptyRing 连接表为空，无法计算中位距离
	ErrEmptyRing = errors.New("ring: no connections")

	// ErrJoin 加入环失败
	ErrJoin = errors.New("ring: failed while attempting to join a ring")

	// ErrLocationTaken 坐标已被其他连接占用
	ErrLocationTaken = errors.New("ring: location already in connection table")

	// ErrInvalidConfig 配置无效
	ErrInvalidConfig = errors.New("ring: invalid config")
)

// ConnError 包装来自连接管理器的底层连接错误
//
// 错误信息与底层错误完全一致，仅用于在环协议错误体系中标记来源。
type ConnError struct {
	Err error
}

// NewConnError 包装底层连接错误，err 为 nil 时返回 nil
func NewConnError(err error) error {
	if err == nil {
		return nil
	}
	return &ConnError{Err: err}
}

// Error 实现 error 接口
func (e *ConnError) Error() string {
	return e.Err.Error()
}

// Unwrap 实现错误解包
func (e *ConnError) Unwrap() error {
	return e.Err
}

// IsConnError 检查错误链中是否包含 ConnError
func IsConnError(err error) bool {
	var ce *ConnError
	return errors.As(err, &ce)
}
