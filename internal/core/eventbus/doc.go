// Package eventbus 实现进程内事件总线
//
// 事件按 Go 类型路由：订阅与发射都以事件类型的指针作为键。
//
//	sub, _ := bus.Subscribe(new(types.EvtPeerConnected))
//	defer sub.Close()
//
//	for evt := range sub.Out() {
//	    e := evt.(types.EvtPeerConnected)
//	    ...
//	}
//
// 订阅者的缓冲区写满时事件被丢弃，发射方永远不会阻塞。
// 有状态发射器会保留最后一个事件，新订阅者立即收到它。
package eventbus
