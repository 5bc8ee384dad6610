// Package introspect 提供本地自省 HTTP 服务
//
// 该服务运行在本地端口，以 JSON 输出环与连接状态，用于调试和监控。
// 默认绑定到 127.0.0.1，不暴露到网络。
//
// # 端点
//
//	GET /health                    - 健康检查
//	GET /debug/ring                - 环概况
//	GET /debug/ring/connections    - 按坐标排列的连接及其到参考点的距离
//	GET /debug/ring/median?loc=    - 到参考点的中位距离
//	GET /debug/conns               - 连接管理器中的连接
//	GET /debug/runtime             - Go 运行时信息
//	GET /debug/pprof/*             - Go pprof 端点
//	GET /metrics                   - Prometheus 指标
//
// # 使用示例
//
//	server := introspect.New(introspect.Config{
//	    Addr:    "127.0.0.1:6060",
//	    Ring:    r,
//	    Manager: mgr,
//	})
//	server.Start(ctx)
//	defer server.Stop()
//
// 通过 config.Diagnostics.EnableIntrospect 配置启用。
package introspect
