// Package storage 提供 ringnode 的持久化存储
//
// # 架构
//
//	locbook / 其他组件
//	    ↓
//	kv.Store          - 前缀隔离的 KV 抽象
//	    ↓
//	engine.Engine     - 存储引擎接口
//	    ↓
//	badger.Engine     - BadgerDB 实现（磁盘或内存）
//
// # 键空间
//
//   - l/s  - 自身坐标
//   - l/p/ - 已知节点坐标（locbook）
//
// # 生命周期
//
// Module() 在 OnStart 启动引擎（值日志 GC），在 OnStop 关闭。
// 测试使用 t.TempDir() 或 InMemory 模式。
package storage
