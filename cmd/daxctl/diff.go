package main

import (
	"fmt"

	"github.com/daxsystems/dax/delta"
	"github.com/spf13/cobra"
)

var diffCmd = &cobra.Command{
	Use:   "diff <base-snapshot> <current-snapshot>",
	Short: "Print a human-readable summary of what changed between two snapshots",
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

		if d.Empty() {
			printInfo("no difference")
			return nil
		}

		w := cmd.OutOrStdout()
		for _, a := range d.Adds {
			fmt.Fprintf(w, "+ %s  kind=%s\n", a.Id, a.Kind)
		}
		for _, id := range d.Removes {
			fmt.Fprintf(w, "- %s\n", id)
		}
		for _, u := range d.Updates {
			fmt.Fprintf(w, "~ %s  %s\n", u.Id, describeUpdateKind(u.Kind))
		}
		return nil
	},
}

func describeUpdateKind(k delta.UpdateKind) string {
	switch k {
	case delta.UpdateValue:
		return "value"
	case delta.UpdateArrayFull:
		return "array (full replace)"
	case delta.UpdateArrayIncremental:
		return "array (incremental)"
	case delta.UpdateMapFull:
		return "map (full replace)"
	case delta.UpdateMapIncremental:
		return "map (incremental)"
	default:
		return "unknown"
	}
}
