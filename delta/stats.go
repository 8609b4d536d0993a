package delta

import (
	"io"

	"github.com/daxsystems/dax/core"
)

// Stats summarizes one WriteDelta call's output: how many records of each
// kind it carried and how many bytes it cost on the wire, surfaced by
// `daxctl replicate --stats` and asserted against in round-trip tests.
type Stats struct {
	Adds    int
	Removes int
	Updates int
	Bytes   int
}

// Stats summarizes d's record counts. Bytes is left zero; callers that
// need the wire size should use WriteDeltaCounting instead, which fills
// it in from the bytes actually written.
func (d Delta) Stats() Stats {
	return Stats{Adds: len(d.Adds), Removes: len(d.Removes), Updates: len(d.Updates)}
}

// countingWriter forwards every write to the wrapped Writer while
// tallying the total bytes passed through.
type countingWriter struct {
	w io.Writer
	n int
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += n
	return n, err
}

// WriteDeltaCounting is WriteDelta plus a byte count of what it wrote, for
// `daxctl replicate --stats`.
func WriteDeltaCounting(w io.Writer, reg core.TypeRegistry, d Delta) (Stats, error) {
	cw := &countingWriter{w: w}
	err := WriteDelta(cw, reg, d)
	s := d.Stats()
	s.Bytes = cw.n
	return s, err
}
