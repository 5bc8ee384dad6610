// Package lib 包含与具体组件无关的基础库
//
//   - log: 基于 slog 的组件日志
//   - proto: 跨进程消息的线格式
package lib
