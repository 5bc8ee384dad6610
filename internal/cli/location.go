package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dep2p/go-ringnode/pkg/types"
)

func init() {
	rootCmd.AddCommand(locationCmd)
	rootCmd.AddCommand(distanceCmd)
}

var locationCmd = &cobra.Command{
	Use:   "location [value]",
	Short: "校验坐标，或生成随机坐标",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var (
			loc types.Location
			err error
		)
		if len(args) == 0 {
			loc = types.RandomLocation()
		} else if loc, err = types.ParseLocation(args[0]); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), loc)
		return nil
	},
}

var distanceCmd = &cobra.Command{
	Use:   "distance <a> <b>",
	Short: "计算两个坐标在环上的距离",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := types.ParseLocation(args[0])
		if err != nil {
			return err
		}
		b, err := types.ParseLocation(args[1])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), a.Distance(b))
		return nil
	},
}
