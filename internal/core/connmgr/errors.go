package connmgr

import "errors"

// 连接管理器错误定义
var (
	// ErrConnectionDenied 准入判定拒绝连接
	ErrConnectionDenied = errors.New("connmgr: connection denied")

	// ErrAlreadyConnected 已与该节点建立连接
	ErrAlreadyConnected = errors.New("connmgr: already connected")

	// ErrNotConnected 未与该节点建立连接
	ErrNotConnected = errors.New("connmgr: not connected")

	// ErrInvalidConfig 配置无效
	ErrInvalidConfig = errors.New("connmgr: invalid config")

	// ErrManagerClosed 管理器已关闭
	ErrManagerClosed = errors.New("connmgr: manager closed")

	// ErrNoDialer 未设置 Dialer，无法建立出站连接
	ErrNoDialer = errors.New("connmgr: no dialer set")

	// ErrNoBootstrapPeers 引导节点列表为空
	ErrNoBootstrapPeers = errors.New("connmgr: no bootstrap peers")

	// ErrPeerUnreachable 内存网络中不存在目标节点
	ErrPeerUnreachable = errors.New("connmgr: peer unreachable")
)
