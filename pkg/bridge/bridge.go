// Package bridge coordinates the edit path with the layout path. Document
// transactions bump the version tracker and schedule an asynchronous
// layout pass; completed layouts apply only in version order, so a slow
// pass that finishes after a newer one is discarded instead of painting
// stale geometry. While an IME composition is active, destructive
// normalization of the composed text is deferred and flushed when the
// composition ends.
package bridge

import (
	"fmt"
	"log"
	"sync"

	"folio/pkg/flow"
	"folio/pkg/version"
)

// LayoutFunc produces a layout for the document state tagged with the
// given version.
type LayoutFunc func(v int64) (*flow.Layout, error)

// ApplyFunc pushes an accepted layout into the render tree.
type ApplyFunc func(l *flow.Layout, v int64)

// Bridge serializes mutation intake, layout scheduling and version-ordered
// apply.
type Bridge struct {
	tracker *version.Tracker
	layout  LayoutFunc
	apply   ApplyFunc

	mu        sync.Mutex
	dirty     bool
	running   bool
	composing bool
	deferred  []func()
}

// New creates a bridge over the given tracker and callbacks.
func New(tracker *version.Tracker, layout LayoutFunc, apply ApplyFunc) *Bridge {
	return &Bridge{tracker: tracker, layout: layout, apply: apply}
}

// OnTransaction records a document mutation: the version advances and a
// layout pass is scheduled. Back-to-back transactions coalesce into one
// pending pass.
func (b *Bridge) OnTransaction() int64 {
	v := b.tracker.OnTransaction()
	b.mu.Lock()
	b.dirty = true
	b.mu.Unlock()
	return v
}

// Pending reports whether a layout pass is owed.
func (b *Bridge) Pending() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.dirty
}

// RunPending runs layout passes until the layout has caught up with the
// document version, applying each accepted result. It returns the number
// of passes applied. Mutations arriving while a pass runs leave the
// bridge dirty and are picked up by the next iteration.
func (b *Bridge) RunPending() int {
	applied := 0
	for {
		b.mu.Lock()
		if !b.dirty || b.running {
			b.mu.Unlock()
			return applied
		}
		b.dirty = false
		b.running = true
		b.mu.Unlock()

		v := b.tracker.CurrentVersion()
		l, err := b.layout(v)

		b.mu.Lock()
		b.running = false
		b.mu.Unlock()

		if err != nil {
			log.Printf("bridge: layout pass v%d failed: %v", v, err)
			continue
		}
		if b.complete(l, v) {
			applied++
		}
	}
}

// Complete feeds an out-of-band layout result (for example from a worker)
// through version ordering. Stale results are discarded.
func (b *Bridge) Complete(l *flow.Layout, v int64) bool {
	return b.complete(l, v)
}

func (b *Bridge) complete(l *flow.Layout, v int64) bool {
	if !b.tracker.OnLayoutComplete(v) {
		return false
	}
	if b.apply != nil {
		b.apply(l, v)
	}
	return true
}

// CompositionStart marks an IME composition as active. Normalization ops
// submitted while composing are buffered instead of run, since rewriting
// the composed run mid-composition would cancel the user's input.
func (b *Bridge) CompositionStart() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.composing = true
}

// Composing reports whether a composition is active.
func (b *Bridge) Composing() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.composing
}

// Normalize runs op immediately, or buffers it when a composition is
// active. Buffered ops run in submission order at CompositionEnd.
func (b *Bridge) Normalize(op func()) {
	b.mu.Lock()
	if b.composing {
		b.deferred = append(b.deferred, op)
		b.mu.Unlock()
		return
	}
	b.mu.Unlock()
	op()
}

// CompositionEnd flushes deferred normalization ops and, when any ran,
// records a transaction so the normalized state gets laid out. It returns
// the number of flushed ops.
func (b *Bridge) CompositionEnd() int {
	b.mu.Lock()
	if !b.composing {
		b.mu.Unlock()
		return 0
	}
	b.composing = false
	ops := b.deferred
	b.deferred = nil
	b.mu.Unlock()

	for _, op := range ops {
		op()
	}
	if len(ops) > 0 {
		b.OnTransaction()
	}
	return len(ops)
}

// Metrics returns the tracker's current metrics for logging surfaces.
func (b *Bridge) Metrics() string {
	m := b.tracker.MetricsSnapshot()
	return fmt.Sprintf("pm=v%d layout=v%d gap=%d stale=%v",
		m.CurrentPmVersion, m.LatestLayoutVersion, m.VersionGap, m.IsStale)
}
