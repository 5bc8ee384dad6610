// Package ring 实现小世界环拓扑的成员表与路由决策原语
//
// # 核心功能
//
// 1. 连接表 - 按 Location 有序的 坐标 → 节点描述 映射
//   - 读写锁保护，读操作可并发
//   - 坐标唯一，冲突时拒绝插入（ErrLocationTaken）
//
// 2. 准入策略 - ShouldAccept / Admit
//   - 拒绝自身与重复坐标
//   - 连接数 < MinConnections(10)：无条件接受（引导阶段）
//   - 连接数 >= MaxConnections(20)：无条件拒绝
//   - 否则仅接受比当前中位邻居距离更近的候选
//
// 3. 查询 - MedianDistanceTo / ConnectionsByDistance / RandomPeer / SamplePeer / ClosestPeer
//
// 4. 路由阈值 - RandWalkAbove(默认 7) / MaxHopsToLive(默认 10)
//
// # 快速开始
//
//	cfg := ring.DefaultConfig().WithRandWalkAbove(5)
//	r, err := ring.New(cfg)
//	if err != nil {
//	    return err
//	}
//
//	own := types.RandomLocation()
//	if d, ok := r.AcceptAndInsert(own, candidate); ok {
//	    logger.Info("已接纳", "peer", candidate, "reason", d.Reason)
//	}
//
// # 并发
//
// ShouldAccept 与插入是两个独立临界区：并发调用者在连接数接近上限时可能同时通过检查，
// 导致超出 MaxConnections。AcceptAndInsert 在同一把写锁下完成判定与插入，
// 连接管理器应只通过它写入连接表。
//
// # 小世界性质
//
// 引导阶段建立的长程连接被保留，此后只接纳更近的节点，
// 使大多数连接为短程、少数为长程，兼顾局部密度与全局可达性。
package ring
