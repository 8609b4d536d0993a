// Package hostadapter implements dax.Host: it buffers the "something
// changed" signal a Tree raises on every mutation and turns it into a
// replication tick on whatever cadence the embedder asks for, grounded on
// the teacher's dirty-flag/ticked-flush pattern for coalescing many
// small writes into one outbound sync per frame.
package hostadapter

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/daxsystems/dax/dax"
	"github.com/daxsystems/dax/delta"
)

// DispatchMode selects when a dirty Tree's listeners run and its
// replication engines compute a delta.
type DispatchMode int

const (
	// DispatchImmediate runs Flush synchronously inside every MarkDirty
	// call, so each mutation is flushed on its own. Suitable for tests and
	// single-player/local-authority use where there is no batching
	// window to wait out.
	DispatchImmediate DispatchMode = iota

	// DispatchBatched defers Flush to the next tick of a background
	// ticker, coalescing any number of mutations within one tick into a
	// single listener dispatch and delta computation.
	DispatchBatched
)

// Adapter wires a Tree's dirty notifications to its listener dispatch and
// to zero or more replication Engines, one per connected client.
type Adapter struct {
	mu       sync.Mutex
	tree     *dax.Tree
	mode     DispatchMode
	interval time.Duration
	logger   *slog.Logger

	dirty   bool
	engines map[string]*delta.Engine
	onFlush func(client string, d delta.Delta)

	ticker *time.Ticker
	stop   chan struct{}
}

// Config are Adapter construction options.
type Config struct {
	Tree *dax.Tree
	Mode DispatchMode
	// Interval is the background flush period for DispatchBatched; ignored
	// for DispatchImmediate. Defaults to 50ms (20Hz) if zero.
	Interval time.Duration
	Logger   *slog.Logger

	// OnFlush receives the computed Delta for each registered client on
	// every flush that produces a non-empty one.
	OnFlush func(client string, d delta.Delta)
}

// New constructs an Adapter and, for DispatchBatched, starts its
// background ticker. Call Stop to release it.
func New(cfg Config) *Adapter {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	interval := cfg.Interval
	if interval <= 0 {
		interval = 50 * time.Millisecond
	}
	a := &Adapter{
		tree:     cfg.Tree,
		mode:     cfg.Mode,
		interval: interval,
		logger:   logger,
		engines:  make(map[string]*delta.Engine),
		onFlush:  cfg.OnFlush,
		stop:     make(chan struct{}),
	}
	if a.mode == DispatchBatched {
		a.ticker = time.NewTicker(interval)
		go a.run()
	}
	return a
}

func (a *Adapter) run() {
	for {
		select {
		case <-a.ticker.C:
			a.Flush()
		case <-a.stop:
			a.ticker.Stop()
			return
		}
	}
}

// Stop ends the background ticker goroutine started for DispatchBatched.
// A no-op for DispatchImmediate.
func (a *Adapter) Stop() {
	if a.ticker != nil {
		close(a.stop)
	}
}

// MarkDirty implements dax.Host. Under DispatchImmediate it flushes
// synchronously; under DispatchBatched it only records that a flush is
// owed, leaving the actual work to the next tick.
func (a *Adapter) MarkDirty() {
	a.mu.Lock()
	a.dirty = true
	a.mu.Unlock()

	if a.mode == DispatchImmediate {
		a.Flush()
	}
}

// RegisterClient adds a replication target, returning its Engine so the
// caller can send an initial full sync (delta.WriteFull) before relying
// on incremental Flush-driven deltas.
func (a *Adapter) RegisterClient(id string) *delta.Engine {
	a.mu.Lock()
	defer a.mu.Unlock()
	eng := delta.NewEngine()
	a.engines[id] = eng
	return eng
}

// UnregisterClient drops a replication target.
func (a *Adapter) UnregisterClient(id string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.engines, id)
}

// Flush dispatches pending listener callbacks and computes + emits a
// Delta for every registered client, skipping clients whose delta is
// empty. Safe to call even when nothing is dirty.
func (a *Adapter) Flush() {
	a.mu.Lock()
	if !a.dirty {
		a.mu.Unlock()
		return
	}
	a.dirty = false
	clients := make(map[string]*delta.Engine, len(a.engines))
	for id, eng := range a.engines {
		clients[id] = eng
	}
	a.mu.Unlock()

	a.tree.DispatchChanged()
	a.tree.ClearFrameChangedNodes()
	a.tree.ClearOldValues()

	for id, eng := range clients {
		d := eng.ComputeDelta(a.tree)
		if d.Empty() {
			continue
		}
		a.logger.Debug("hostadapter: flushed delta", "client", id, "adds", len(d.Adds), "removes", len(d.Removes), "updates", len(d.Updates))
		if a.onFlush != nil {
			a.onFlush(id, d)
		}
	}
}

// Serve blocks, flushing on ctx.Done() as a final drain before returning.
// Intended for an embedder that wants a single call managing the
// Adapter's lifetime alongside a server's own shutdown context.
func (a *Adapter) Serve(ctx context.Context) {
	<-ctx.Done()
	a.Flush()
	a.Stop()
}
