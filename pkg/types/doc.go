// Package types 定义 ringnode 的基础类型
//
// 这是整个系统的最底层包，不依赖任何其他 ringnode 内部包。
// 所有类型都是纯值类型，用于在各模块间传递数据：
//
//   - Location: 节点在环上的坐标，取值 [0, 1]
//   - Distance: 两个坐标之间较短弧长，取值 [0, 0.5]
//   - PeerID: 32 字节节点标识，Base58 外部表示
//   - PeerKeyLocation: 节点标识 + 坐标（由连接管理器提供的节点描述）
//
// # 构造约束
//
// Location 只能经由 LocationFromFloat / RandomLocation 构造，
// 两者都保证值有限、非 NaN 且落在 [0, 1] 内。
// 比较、相等与哈希（Bits）都建立在这个约束之上。
package types
