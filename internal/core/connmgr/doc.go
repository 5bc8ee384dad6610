// Package connmgr 实现环节点的连接管理器
//
// Manager 是环连接表的唯一写入者：所有入站与出站连接都经过
// ring.Ring.AcceptAndInsert 的准入判定，被拒绝的连接立即关闭。
//
// # 核心功能
//
// 1. 入站 - HandleInbound
//   - 传输层接受连接后交给 Manager 判定
//   - 拒绝时关闭连接并返回 ErrConnectionDenied
//
// 2. 出站 - Connect
//   - 先以 ShouldAccept 预检，避免无谓的拨号
//   - 拨号受 DialTimeout 约束，失败包装为 *ring.ConnError
//   - 拨号成功后再次判定并插入
//
// 3. 加入环 - Join
//   - 逐个连接引导节点，全部失败时返回匹配 ring.ErrJoin 的错误
//
// 4. 位置公告 - HandleAnnouncement
//   - 解码公告并写入坐标簿；越界坐标被拒绝
//
// # 快速开始
//
//	mgr, err := connmgr.New(connmgr.DefaultConfig(), r, self, dialer)
//	if err != nil {
//	    return err
//	}
//	defer mgr.Close()
//
//	n, err := mgr.Join(ctx, bootstrap)
//
// # 锁顺序
//
// Manager 的锁先于连接表的锁获取；关闭底层连接总是在释放 Manager 锁之后进行，
// 因此连接的 Close 回调可以安全地重入 Manager。
package connmgr
