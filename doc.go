// Package ringnode 提供小世界环节点的用户入口
//
// 每个节点在周长为 1 的环上占据一个坐标，只与少量其他节点保持连接，
// 并按照中位距离规则挑选新连接，使连接分布逼近小世界拓扑：
// 大多数邻居在附近，少数邻居在远处，贪心路由因此只需较少跳数。
//
// # 快速开始
//
//	node, err := ringnode.Start(ctx,
//	    ringnode.WithPreset("test"),
//	    ringnode.WithLocation(0.25),
//	    ringnode.WithMemoryNetwork(net),
//	)
//	if err != nil {
//	    return err
//	}
//	defer node.Close()
//
//	n, err := node.Join(ctx, bootstrap)
//	median, err := node.MedianDistance()
//
// # 组件
//
//   - internal/core/ring: 连接表、准入判定与查询
//   - internal/core/routing: 基于 HTL 的下一跳选择
//   - internal/core/connmgr: 连接管理与加入环
//   - internal/core/locbook: 持久化的自身身份与已知节点坐标
//   - internal/core/storage: BadgerDB 存储引擎
//   - internal/debug/introspect: 本地自省 HTTP 服务
package ringnode
