// Package routing 基于环连接表的逐跳转发决策
//
// 请求携带剩余跳数 HTL（hops to live）。每一跳：
//
//   - HTL <= 0：请求耗尽，ErrHTLExhausted
//   - HTL > MaxHopsToLive：先截断到 MaxHopsToLive
//   - HTL > RandWalkAbove：随机游走阶段，在匹配的连接中均匀采样，使路径去相关
//   - 否则：贪婪阶段，选择离目标坐标最近的连接
//
// 消息本身的收发不在本包范围内。
package routing
