package main

import (
	"fmt"

	"github.com/daxsystems/dax/dax"
	"github.com/spf13/cobra"
)

var getCmd = &cobra.Command{
	Use:   "get <snapshot> <path>",
	Short: "Read a single value out of a snapshot by path",
	Args:  checkArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		t, err := loadSnapshot(args[0])
		if err != nil {
			return err
		}
		v, err := t.VisitorFromPath(args[1])
		if err != nil {
			return err
		}
		if !v.Exists() {
			return fmt.Errorf("no node at path %q", args[1])
		}
		kind, err := v.Kind()
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", args[1], describeKind(v, kind))
		return nil
	},
}

func describeKind(v *dax.Visitor, kind interface{ String() string }) string {
	if s, ok, err := v.TryGetString(); err == nil && ok {
		return fmt.Sprintf("string(%q)", s)
	}
	if n, ok, err := v.TryGetInt64(); err == nil && ok {
		return fmt.Sprintf("int64(%d)", n)
	}
	if n, ok, err := v.TryGetInt32(); err == nil && ok {
		return fmt.Sprintf("int32(%d)", n)
	}
	if f, ok, err := v.TryGetFloat64(); err == nil && ok {
		return fmt.Sprintf("float64(%g)", f)
	}
	if f, ok, err := v.TryGetFloat32(); err == nil && ok {
		return fmt.Sprintf("float32(%g)", f)
	}
	if b, ok, err := v.TryGetBool(); err == nil && ok {
		return fmt.Sprintf("bool(%v)", b)
	}
	return kind.String()
}

var setOut string

var setCmd = &cobra.Command{
	Use:   "set <snapshot> <path> <type> <value>",
	Short: "Write a single value into a snapshot by path and save it back",
	Args:  checkArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		t, err := loadSnapshotServer(args[0])
		if err != nil {
			return err
		}
		v, err := t.VisitorFromPath(args[1])
		if err != nil {
			return err
		}
		if err := setTypedValue(v, args[2], args[3]); err != nil {
			return err
		}

		out := setOut
		if out == "" {
			out = args[0]
		}
		if err := writeSnapshot(out, t); err != nil {
			return err
		}
		printInfo("set %s = %s %s -> %s", args[1], args[2], args[3], out)
		return nil
	},
}

func init() {
	setCmd.Flags().StringVarP(&setOut, "out", "o", "", "output snapshot path (defaults to overwriting the input)")
}
