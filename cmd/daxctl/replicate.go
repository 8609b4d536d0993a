package main

import (
	"bufio"
	"os"

	"github.com/daxsystems/dax/delta"
	"github.com/spf13/cobra"
)

var (
	replicateOut   string
	replicateStats bool
)

var replicateCmd = &cobra.Command{
	Use:   "replicate <base-snapshot> <current-snapshot>",
	Short: "Compute the wire delta a client on base would need to reach current",
	Args:  checkArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		base, err := loadSnapshot(args[0])
		if err != nil {
			return err
		}
		cur, err := loadSnapshot(args[1])
		if err != nil {
			return err
		}

		eng := delta.NewEngine()
		eng.Snapshot(base)
		d := eng.ComputeDelta(cur)

		f, err := os.Create(replicateOut)
		if err != nil {
			return err
		}
		defer f.Close()

		bw := bufio.NewWriter(f)
		stats, err := delta.WriteDeltaCounting(bw, cur.Registry(), d)
		if err != nil {
			return err
		}
		if err := bw.Flush(); err != nil {
			return err
		}

		if replicateStats {
			printInfo("%d adds, %d removes, %d updates, %d bytes -> %s", stats.Adds, stats.Removes, stats.Updates, stats.Bytes, replicateOut)
		} else {
			printInfo("%d adds, %d removes, %d updates -> %s", stats.Adds, stats.Removes, stats.Updates, replicateOut)
		}
		return nil
	},
}

func init() {
	replicateCmd.Flags().StringVarP(&replicateOut, "out", "o", "delta.dax", "output delta path")
	replicateCmd.Flags().BoolVar(&replicateStats, "stats", false, "include wire byte count in the summary")
}
