// Package cli 基于 Cobra 实现 ringnode 命令行
//
// 每个子命令在独立文件中定义，并在 init 中注册到 rootCmd。
package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/dep2p/go-ringnode/pkg/lib/log"
)

var logger = log.Logger("cli")

// 全局日志参数
var (
	logLevel  string
	logFormat string
	logFile   string
)

// logCloser 日志文件句柄，进程退出前关闭
var logCloser io.Closer

var rootCmd = &cobra.Command{
	Use:   "ringnode",
	Short: "ringnode - 小世界环节点",
	Long: `ringnode 在一维环上维护一组按距离分布的连接，
并通过随机游走加贪心转发在环上路由请求。`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setupLogging,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&logLevel, "log-level", "info", "日志级别 (debug/info/warn/error)")
	pf.StringVar(&logFormat, "log-format", log.FormatText, "日志格式 (text/json)")
	pf.StringVar(&logFile, "log-file", "", "日志文件路径，为空时输出到 stderr")
}

// Execute 执行根命令，由 main 调用
func Execute(version string) {
	rootCmd.Version = version

	err := rootCmd.Execute()
	if logCloser != nil {
		_ = logCloser.Close()
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "错误:", err)
		os.Exit(1)
	}
}

// setupLogging 按全局参数设置日志输出
func setupLogging(cmd *cobra.Command, _ []string) error {
	return applyLogging(cmd, logLevel, logFormat, logFile)
}

func applyLogging(cmd *cobra.Command, level, format, file string) error {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return err
	}

	w := cmd.ErrOrStderr()
	if file != "" {
		if err := os.MkdirAll(filepath.Dir(file), 0750); err != nil {
			return fmt.Errorf("创建日志目录失败: %w", err)
		}
		f, err := os.OpenFile(file, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
		if err != nil {
			return fmt.Errorf("打开日志文件失败: %w", err)
		}
		if logCloser != nil {
			_ = logCloser.Close()
		}
		logCloser = f
		w = f
	}
	return log.Setup(w, lvl, format)
}
