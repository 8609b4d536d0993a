package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/daxsystems/dax/dax"
	"github.com/daxsystems/dax/delta"
	"github.com/daxsystems/dax/typeregistry"
)

// runScript applies a line-oriented build script to tree. Each
// non-blank, non-comment line is one of:
//
//	set <path> bool <true|false>
//	set <path> int32 <n>
//	set <path> int64 <n>
//	set <path> float32 <f>
//	set <path> float64 <f>
//	set <path> string <rest of line, verbatim>
//	mkarray <path>
//	mkmap <path>
//	append <arrayPath>
//
// Lines beginning with # are comments.
func runScript(tree *dax.Tree, lines []string) error {
	for lineNo, raw := range lines {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if err := runScriptLine(tree, line); err != nil {
			return fmt.Errorf("script line %d: %q: %w", lineNo+1, line, err)
		}
	}
	return nil
}

func runScriptLine(tree *dax.Tree, line string) error {
	fields := strings.SplitN(line, " ", 4)
	switch fields[0] {
	case "set":
		if len(fields) < 4 {
			return fmt.Errorf("set requires: set <path> <type> <value>")
		}
		v, err := tree.VisitorFromPath(fields[1])
		if err != nil {
			return err
		}
		return setTypedValue(v, fields[2], fields[3])
	case "mkarray":
		if len(fields) < 2 {
			return fmt.Errorf("mkarray requires: mkarray <path>")
		}
		v, err := tree.VisitorFromPath(fields[1])
		if err != nil {
			return err
		}
		return v.EnsureArray()
	case "mkmap":
		if len(fields) < 2 {
			return fmt.Errorf("mkmap requires: mkmap <path>")
		}
		v, err := tree.VisitorFromPath(fields[1])
		if err != nil {
			return err
		}
		return v.EnsureMap()
	case "append":
		if len(fields) < 2 {
			return fmt.Errorf("append requires: append <arrayPath>")
		}
		v, err := tree.VisitorFromPath(fields[1])
		if err != nil {
			return err
		}
		_, err = v.ArrayAppend()
		return err
	default:
		return fmt.Errorf("unknown script command %q", fields[0])
	}
}

func setTypedValue(v *dax.Visitor, typeName, value string) error {
	switch typeName {
	case "bool":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}
		_, err = v.TrySetBool(b)
		return err
	case "int32":
		n, err := strconv.ParseInt(value, 10, 32)
		if err != nil {
			return err
		}
		_, err = v.TrySetInt32(int32(n))
		return err
	case "int64":
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return err
		}
		_, err = v.TrySetInt64(n)
		return err
	case "float32":
		f, err := strconv.ParseFloat(value, 32)
		if err != nil {
			return err
		}
		_, err = v.TrySetFloat32(float32(f))
		return err
	case "float64":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		_, err = v.TrySetFloat64(f)
		return err
	case "string":
		_, err := v.TrySetString(value)
		return err
	default:
		return fmt.Errorf("unsupported script value type %q", typeName)
	}
}

func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	return lines, sc.Err()
}

func newTree(server bool) *dax.Tree {
	return dax.New(dax.Config{Registry: typeregistry.NewBuiltin(), RunningOnServer: server})
}

// loadSnapshot reads a full snapshot written by delta.WriteFull into a
// freshly constructed client-mode Tree (replication writes bypass the
// server/client resolve-mode distinction entirely, so client mode is a
// safe default for any snapshot consumer that isn't also mutating the
// tree through ordinary path resolution).
func loadSnapshot(path string) (*dax.Tree, error) {
	return loadSnapshotMode(path, false)
}

// loadSnapshotServer is loadSnapshot's counterpart for CLI paths that
// also need to create nodes at arbitrary new paths via Visitor (e.g. set
// on a path that doesn't exist yet), which requires EnsureCreate and
// therefore a server-mode Tree.
func loadSnapshotServer(path string) (*dax.Tree, error) {
	return loadSnapshotMode(path, true)
}

func loadSnapshotMode(path string, server bool) (*dax.Tree, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	tree := newTree(server)
	br := bufio.NewReader(f)
	if err := delta.ReadFull(br, tree); err != nil {
		return nil, fmt.Errorf("reading snapshot %s: %w", path, err)
	}
	return tree, nil
}

func writeSnapshot(path string, tree *dax.Tree) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	bw := bufio.NewWriter(f)
	if err := delta.WriteFull(bw, tree); err != nil {
		return fmt.Errorf("writing snapshot %s: %w", path, err)
	}
	return bw.Flush()
}
