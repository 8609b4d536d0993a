package delta

import (
	"bufio"
	"bytes"
	"fmt"
	"io"

	"github.com/daxsystems/dax/core"
)

// Dump decodes a wire delta from payload and writes a human-readable
// rendering of its Adds/Removes/Updates to w, grounded on the teacher's
// own delta pretty-printer used by its CLI's dump subcommand.
func Dump(w io.Writer, reg core.TypeRegistry, payload []byte) error {
	d, err := ReadDelta(bufio.NewReader(bytes.NewReader(payload)), reg)
	if err != nil {
		return fmt.Errorf("delta: Dump: %w", err)
	}

	fmt.Fprintf(w, "adds: %d\n", len(d.Adds))
	for _, a := range d.Adds {
		fmt.Fprintf(w, "  + %s parent=%s kind=%s\n", a.Id, a.Parent, a.Kind)
	}
	fmt.Fprintf(w, "removes: %d\n", len(d.Removes))
	for _, id := range d.Removes {
		fmt.Fprintf(w, "  - %s\n", id)
	}
	fmt.Fprintf(w, "updates: %d\n", len(d.Updates))
	for _, u := range d.Updates {
		fmt.Fprintf(w, "  ~ %s kind=%d\n", u.Id, u.Kind)
	}
	return nil
}
