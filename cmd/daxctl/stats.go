package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats <snapshot>",
	Short: "Print allocator and version counters for a snapshot",
	Args:  checkArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tree, err := loadSnapshot(args[0])
		if err != nil {
			return err
		}
		s := tree.Stats()

		if flagJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(s)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "%s %d\n", style(labelStyle, "active:"), s.CurrentActive)
		fmt.Fprintf(cmd.OutOrStdout(), "%s %d\n", style(labelStyle, "peak:"), s.PeakActive)
		fmt.Fprintf(cmd.OutOrStdout(), "%s %d\n", style(labelStyle, "total allocated:"), s.TotalAllocated)
		fmt.Fprintf(cmd.OutOrStdout(), "%s %d\n", style(labelStyle, "total freed:"), s.TotalFreed)
		fmt.Fprintf(cmd.OutOrStdout(), "%s %d\n", style(labelStyle, "chunks:"), s.ChunkCount)
		fmt.Fprintf(cmd.OutOrStdout(), "%s %d\n", style(labelStyle, "free remaining:"), s.FreeRemaining)
		fmt.Fprintf(cmd.OutOrStdout(), "%s %d\n", style(labelStyle, "data version:"), s.DataVersion)
		fmt.Fprintf(cmd.OutOrStdout(), "%s %d\n", style(labelStyle, "struct version:"), s.StructVersion)
		return nil
	},
}
