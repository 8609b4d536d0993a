package dax

import (
	"strconv"
	"strings"

	"github.com/daxsystems/dax/core"
)

// MaxPathDepth is the maximum number of segments a path may contain
// (spec.md §3 "Max path depth is 64").
const MaxPathDepth = 64

// Segment is one step of a Visitor's path: either a Map key (name) or an
// Array index.
type Segment struct {
	IsIndex bool
	Name    core.Name
	Index   int32
}

func NameSegment(name string) Segment {
	return Segment{IsIndex: false, Name: core.Intern(name)}
}

func IndexSegment(i int32) Segment {
	return Segment{IsIndex: true, Index: i}
}

func (s Segment) String() string {
	if s.IsIndex {
		return "$" + strconv.FormatInt(int64(s.Index), 10)
	}
	return string(s.Name)
}

// ParsePath parses a path of the form "a/b/$3/c", where a leading "$"
// denotes an Array index. An empty string parses to a zero-length path
// (the Visitor refers to the Tree's root, per spec.md §8 "Empty path ->
// Visitor refers to Root"). Backslash-delimited paths (the CLI/TUI's
// convenience form, typed the way the teacher's own tools accept them)
// are normalized to forward slashes before parsing. Tree.VisitorFromPath
// uses it, which is how cmd/daxctl resolves its path arguments.
func ParsePath(path string) ([]Segment, error) {
	path = strings.ReplaceAll(path, `\`, "/")
	path = strings.Trim(path, "/")
	if path == "" {
		return nil, nil
	}
	parts := strings.Split(path, "/")
	segs := make([]Segment, 0, len(parts))
	for _, p := range parts {
		if p == "" {
			continue
		}
		if strings.HasPrefix(p, "$") {
			n, err := strconv.ParseInt(p[1:], 10, 32)
			if err != nil {
				return nil, core.New("ParsePath", core.ErrKindResolveOperatorFailure,
					"invalid index segment %q: %v", p, err)
			}
			segs = append(segs, IndexSegment(int32(n)))
		} else {
			segs = append(segs, NameSegment(p))
		}
	}
	if len(segs) > MaxPathDepth {
		return nil, core.Kind(core.ErrKindResolvePathTooDeep)
	}
	return segs, nil
}

// PathString renders segs back into "a/b/$3/c" form.
func PathString(segs []Segment) string {
	parts := make([]string, len(segs))
	for i, s := range segs {
		parts[i] = s.String()
	}
	return strings.Join(parts, "/")
}
