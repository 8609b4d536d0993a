package main

import (
	"github.com/spf13/cobra"
)

var buildOut string

var buildCmd = &cobra.Command{
	Use:   "build <script>",
	Short: "Build a Tree from a script file and write it as a binary snapshot",
	Args:  checkArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		lines, err := readLines(args[0])
		if err != nil {
			return err
		}

		tree := newTree(true)
		if err := runScript(tree, lines); err != nil {
			return err
		}

		if err := writeSnapshot(buildOut, tree); err != nil {
			return err
		}
		printInfo("built %s -> %s (%d nodes)", args[0], buildOut, tree.Stats().CurrentActive)
		return nil
	},
}

func init() {
	buildCmd.Flags().StringVarP(&buildOut, "out", "o", "snapshot.dax", "output snapshot path")
}
