// Command daxctl is a developer-facing CLI for building, inspecting and
// replicating dax Trees offline: compose a tree from a script, dump it as
// a tree listing or a binary snapshot, diff two snapshots, and encode or
// inspect the wire delta between them.
package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var (
	flagVerbose bool
	flagQuiet   bool
	flagJSON    bool
	flagNoColor bool
)

var rootCmd = &cobra.Command{
	Use:           "daxctl",
	Short:         "Build, inspect and replicate dax Trees from the command line",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "print extra diagnostic detail")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "suppress informational output")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "emit machine-readable JSON instead of text")
	rootCmd.PersistentFlags().BoolVar(&flagNoColor, "no-color", false, "disable ANSI styling")

	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(treeCmd)
	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(setCmd)
	rootCmd.AddCommand(replicateCmd)
	rootCmd.AddCommand(diffCmd)
	rootCmd.AddCommand(dumpDeltaCmd)
	rootCmd.AddCommand(statsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		printError(err)
		os.Exit(1)
	}
}

var (
	infoStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
)

func style(s lipgloss.Style, text string) string {
	if flagNoColor {
		return text
	}
	return s.Render(text)
}

// printInfo writes a status line to stdout, suppressed by --quiet.
func printInfo(format string, args ...any) {
	if flagQuiet {
		return
	}
	fmt.Println(style(infoStyle, fmt.Sprintf(format, args...)))
}

// printVerbose writes a status line to stderr, shown only with --verbose.
func printVerbose(format string, args ...any) {
	if !flagVerbose {
		return
	}
	fmt.Fprintln(os.Stderr, style(labelStyle, "  "+fmt.Sprintf(format, args...)))
}

// printError writes err to stderr, styled unless --no-color.
func printError(err error) {
	fmt.Fprintln(os.Stderr, style(errStyle, "error: "+err.Error()))
}

// checkArgs enforces an exact positional arg count for a cobra.Command.
func checkArgs(n int) cobra.PositionalArgs {
	return cobra.ExactArgs(n)
}

// checkMinArgs enforces a minimum positional arg count.
func checkMinArgs(n int) cobra.PositionalArgs {
	return cobra.MinimumNArgs(n)
}
