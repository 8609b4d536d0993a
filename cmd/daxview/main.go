// Command daxview is a terminal explorer for dax Tree snapshots: a
// key/value split view, navigable with the keyboard, for inspecting what
// daxctl build or daxctl replicate produced without writing a script
// against the library directly.
package main

import (
	"bufio"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/daxsystems/dax/dax"
	"github.com/daxsystems/dax/delta"
	"github.com/daxsystems/dax/typeregistry"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: daxview <snapshot>")
		os.Exit(2)
	}

	tree, err := loadSnapshot(os.Args[1])
	if err != nil {
		fmt.Fprintln(os.Stderr, "daxview:", err)
		os.Exit(1)
	}

	p := tea.NewProgram(newModel(tree), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintln(os.Stderr, "daxview:", err)
		os.Exit(1)
	}
}

func loadSnapshot(path string) (*dax.Tree, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	tree := dax.New(dax.Config{Registry: typeregistry.NewBuiltin(), RunningOnServer: false})
	if err := delta.ReadFull(bufio.NewReader(f), tree); err != nil {
		return nil, fmt.Errorf("reading snapshot %s: %w", path, err)
	}
	return tree, nil
}
