package types

import "time"

// EvtPeerConnected 连接建立并写入环后发出
type EvtPeerConnected struct {
	Peer PeerKeyLocation

	// Inbound 由远端发起
	Inbound bool

	// Connections 写入后的连接数
	Connections int

	Timestamp time.Time
}

// EvtPeerDisconnected 连接从环中移除后发出
type EvtPeerDisconnected struct {
	Peer PeerKeyLocation

	// Connections 移除后的连接数
	Connections int

	Timestamp time.Time
}
