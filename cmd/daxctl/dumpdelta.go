package main

import (
	"io"
	"os"

	"github.com/daxsystems/dax/delta"
	"github.com/daxsystems/dax/typeregistry"
	"github.com/spf13/cobra"
)

var dumpDeltaCmd = &cobra.Command{
	Use:   "dump-delta <delta-file>",
	Short: "Decode and print the contents of a wire delta written by replicate",
	Args:  checkArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()

		payload, err := io.ReadAll(f)
		if err != nil {
			return err
		}

		return delta.Dump(cmd.OutOrStdout(), typeregistry.NewBuiltin(), payload)
	},
}
