package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	ringnode "github.com/dep2p/go-ringnode"
	"github.com/dep2p/go-ringnode/config"
	"github.com/dep2p/go-ringnode/internal/core/connmgr"
)

func init() {
	f := runCmd.Flags()
	f.StringVar(&runConfigFile, "config", "", "配置文件路径（JSON 或 TOML）")
	f.StringVar(&runPreset, "preset", "", "预设配置 (test/server)")
	f.StringVar(&runDataDir, "data-dir", "", "数据目录（覆盖配置）")
	f.BoolVar(&runInMemory, "in-memory", false, "使用内存存储，不持久化身份")
	f.Float64Var(&runLocation, "location", 0, "固定自身坐标 [0, 1]")
	f.StringVar(&runIntrospect, "introspect", "", "启用自省服务并监听此地址")
	f.IntVar(&runLocalPeers, "local-peers", 0, "在进程内网络中启动的对端数量")
	rootCmd.AddCommand(runCmd)
}

var (
	runConfigFile string
	runPreset     string
	runDataDir    string
	runInMemory   bool
	runLocation   float64
	runIntrospect string
	runLocalPeers int
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "启动环节点",
	Long: `启动环节点并等待退出信号。

指定 --local-peers 时，节点与给定数量的对端一起接入同一个进程内网络，
对端以该节点为引导节点加入环，便于通过自省服务观察连接分布。`,
	Args: cobra.NoArgs,
	RunE: runNode,
}

// loadRunConfig 按优先级合成配置：命令行参数 > 预设 > 配置文件 > 默认值
func loadRunConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.NewConfig()
	if runConfigFile != "" {
		var err error
		cfg, err = config.LoadFile(runConfigFile)
		if err != nil {
			return nil, fmt.Errorf("加载配置文件失败: %w", err)
		}
	}
	if err := config.ApplyPreset(cfg, runPreset); err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("data-dir") {
		cfg.Storage.DataDir = runDataDir
		cfg.Storage.InMemory = false
	}
	if runInMemory {
		cfg.Storage.InMemory = true
	}
	if flags.Changed("location") {
		cfg.Ring = cfg.Ring.WithLocation(runLocation)
	}
	if runIntrospect != "" {
		cfg.Diagnostics.EnableIntrospect = true
		cfg.Diagnostics.IntrospectAddr = runIntrospect
	}
	if runLocalPeers < 0 {
		return nil, fmt.Errorf("--local-peers 不能为负: %d", runLocalPeers)
	}
	return cfg, cfg.Validate()
}

func runNode(cmd *cobra.Command, _ []string) error {
	cfg, err := loadRunConfig(cmd)
	if err != nil {
		return err
	}

	// 配置文件中的日志设置只在未通过命令行指定时生效
	pf := cmd.Root().PersistentFlags()
	if !pf.Changed("log-level") && !pf.Changed("log-format") && !pf.Changed("log-file") {
		if err := applyLogging(cmd, cfg.Log.Level, cfg.Log.Format, cfg.Log.File); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "📦 %s\n", ringnode.VersionInfo())

	opts := []ringnode.Option{ringnode.WithConfig(cfg)}
	var net *connmgr.MemoryNetwork
	if runLocalPeers > 0 {
		net = connmgr.NewMemoryNetwork()
		opts = append(opts, ringnode.WithMemoryNetwork(net))
	}

	node, err := ringnode.Start(ctx, opts...)
	if err != nil {
		return fmt.Errorf("启动失败: %w", err)
	}
	defer func() { _ = node.Close() }()

	peers, err := startLocalPeers(ctx, net, node, runLocalPeers)
	defer func() { _ = closeAll(peers) }()
	if err != nil {
		return err
	}

	printNodeInfo(out, node)
	fmt.Fprintln(out, "节点已启动，按 Ctrl+C 退出")
	<-ctx.Done()

	fmt.Fprintln(out, "正在关闭节点...")
	return nil
}

// startLocalPeers 在进程内网络中启动 n 个以 boot 为引导节点的对端
func startLocalPeers(ctx context.Context, net *connmgr.MemoryNetwork, boot *ringnode.Node, n int) ([]*ringnode.Node, error) {
	peers := make([]*ringnode.Node, 0, n)
	for i := 0; i < n; i++ {
		p, err := ringnode.Start(ctx,
			ringnode.WithInMemory(),
			ringnode.WithMemoryNetwork(net),
			ringnode.WithBootstrapPeers(boot.Self()),
		)
		if err != nil {
			return peers, fmt.Errorf("启动本地对端 %d 失败: %w", i, err)
		}
		peers = append(peers, p)
	}
	if n > 0 {
		logger.Info("本地对端已启动", "peers", n, "connections", boot.ConnectionCount())
	}
	return peers, nil
}

func closeAll(nodes []*ringnode.Node) error {
	var errs error
	for _, n := range nodes {
		errs = multierr.Append(errs, n.Close())
	}
	return errs
}

// printNodeInfo 输出节点信息
func printNodeInfo(w io.Writer, node *ringnode.Node) {
	fmt.Fprintln(w, "═══════════════════════════════════════════════════")
	fmt.Fprintf(w, "节点 ID:  %s\n", node.ID())
	fmt.Fprintf(w, "坐标:     %s\n", node.Location())
	fmt.Fprintf(w, "连接数:   %d\n", node.ConnectionCount())
	if addr := node.IntrospectAddr(); addr != "" {
		fmt.Fprintf(w, "自省服务: http://%s/debug/ring\n", addr)
	}
	fmt.Fprintln(w, "═══════════════════════════════════════════════════")
}
