// Package proto 定义 ringnode 跨进程传输的消息格式
//
// 每个子包定义一组相关消息，附带 .proto 描述文件：
//
//   - announce: 节点位置公告
//
// pkg/types 定义内存中的数据结构，本包负责它们的线格式。
package proto
