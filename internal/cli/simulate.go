package cli

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/dep2p/go-ringnode/internal/core/ring"
	"github.com/dep2p/go-ringnode/internal/sim"
)

func init() {
	d := sim.DefaultConfig()
	f := simulateCmd.Flags()
	f.IntVarP(&simNodes, "nodes", "n", d.Nodes, "节点数")
	f.IntVar(&simBootstrap, "bootstrap", d.Bootstrap, "每个新节点的引导节点数")
	f.IntVar(&simTrials, "trials", d.Trials, "路由试验次数")
	f.Uint64Var(&simSeed, "seed", d.Seed, "随机种子")
	f.IntVar(&simParallel, "parallel", d.Parallelism, "并发试验数")
	f.IntVar(&simRandWalkAbove, "rand-walk-above", ring.DefaultRandWalkAbove, "随机游走阈值")
	f.IntVar(&simMaxHTL, "max-htl", ring.DefaultMaxHopsToLive, "最大跳数")
	f.BoolVar(&simJSON, "json", false, "以 JSON 输出结果")
	rootCmd.AddCommand(simulateCmd)
}

var (
	simNodes         int
	simBootstrap     int
	simTrials        int
	simSeed          uint64
	simParallel      int
	simRandWalkAbove int
	simMaxHTL        int
	simJSON          bool
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "在进程内网络上模拟环的形成与路由",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg := sim.Config{
			Nodes:       simNodes,
			Bootstrap:   simBootstrap,
			Trials:      simTrials,
			Seed:        simSeed,
			Ring:        ring.DefaultConfig().WithRandWalkAbove(simRandWalkAbove).WithMaxHopsToLive(simMaxHTL),
			Parallelism: simParallel,
		}

		res, err := sim.Run(cmd.Context(), cfg)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if simJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(res)
		}

		w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
		fmt.Fprintf(w, "NODES\t%d\n", res.Nodes)
		fmt.Fprintf(w, "CONNECTIONS\tmin %d / avg %.2f / max %d\n", res.MinConnections, res.AvgConnections, res.MaxConnections)
		fmt.Fprintf(w, "AVG MEDIAN\t%.4f\n", res.AvgMedian)
		fmt.Fprintf(w, "SHORT LINKS\t%.1f%%\n", res.ShortLinkRatio*100)
		fmt.Fprintf(w, "DELIVERED\t%d / %d (%.1f%%)\n", res.Delivered, res.Trials, res.SuccessRate*100)
		fmt.Fprintf(w, "AVG HOPS\t%.2f\n", res.AvgHops)
		return w.Flush()
	},
}
