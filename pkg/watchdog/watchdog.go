// Package watchdog polls document focus while editing is active and pulls
// focus back to the editor surface when it has drifted away for several
// consecutive checks. Transient focus loss (a toolbar click, a dialog) is
// tolerated; only sustained drift triggers recovery.
package watchdog

import (
	"log"
	"sync"
	"time"

	"folio/pkg/dom"
)

const (
	// DefaultInterval is how often focus is probed.
	DefaultInterval = 1000 * time.Millisecond
	// maxDriftCount is how many consecutive drifted probes are tolerated
	// before focus is forced back.
	maxDriftCount = 3
)

// Watchdog watches a document's active element and restores focus to the
// editing surface after sustained drift.
type Watchdog struct {
	doc       *dom.Document
	target    *dom.Node
	onDrift   func(count int)
	onRecover func()
	interval  time.Duration

	mu      sync.Mutex
	drift   int
	stop    chan struct{}
	running bool
}

// New creates a watchdog guarding target inside doc. onRecover, if non-nil,
// runs after each successful focus restore so the editor can resync its
// selection state; it may be nil.
func New(doc *dom.Document, target *dom.Node, onRecover func()) *Watchdog {
	return &Watchdog{
		doc:       doc,
		target:    target,
		onRecover: onRecover,
		interval:  DefaultInterval,
	}
}

// SetInterval overrides the probe interval. Only effective before Start.
func (w *Watchdog) SetInterval(d time.Duration) {
	if d > 0 {
		w.interval = d
	}
}

// SetOnDrift installs a callback invoked on every drifted probe with the
// running consecutive-drift count, for diagnostics or UI hinting.
func (w *Watchdog) SetOnDrift(fn func(count int)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onDrift = fn
}

// SetTarget repoints the watchdog at a new editing surface, for example
// after the surface element was rebuilt. The drift counter resets.
func (w *Watchdog) SetTarget(target *dom.Node) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.target = target
	w.drift = 0
}

// Start begins periodic probing. Starting an already-running watchdog is a
// warned no-op rather than an error; callers start it whenever editing
// begins without tracking whether it already runs.
func (w *Watchdog) Start() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		log.Printf("watchdog: Start called while already running")
		return
	}
	if w.target == nil {
		log.Printf("watchdog: Start called with no target, ignoring")
		return
	}
	w.running = true
	w.drift = 0
	w.stop = make(chan struct{})
	go w.loop(w.stop)
}

// Stop halts probing. Stopping a stopped watchdog is a no-op.
func (w *Watchdog) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.running {
		return
	}
	w.running = false
	close(w.stop)
	w.stop = nil
}

// Running reports whether the watchdog is probing.
func (w *Watchdog) Running() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

// DriftCount returns the current consecutive-drift count.
func (w *Watchdog) DriftCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.drift
}

func (w *Watchdog) loop(stop chan struct{}) {
	t := time.NewTicker(w.interval)
	defer t.Stop()
	for {
		select {
		case <-stop:
			return
		case <-t.C:
			w.Check()
		}
	}
}

// Check runs one focus probe. Focus resting on the target or any of its
// descendants counts as healthy and clears the drift counter. Every
// drifted probe fires the drift callback with the running count. After
// maxDriftCount consecutive drifted probes, focus is forced back to the
// target; the recovery callback runs only when the restore lands, but the
// counter resets either way.
func (w *Watchdog) Check() {
	w.mu.Lock()
	target := w.target
	if target == nil {
		w.mu.Unlock()
		return
	}

	if focusWithin(w.doc.ActiveElement(), target) {
		w.drift = 0
		w.mu.Unlock()
		return
	}

	w.drift++
	count := w.drift
	onDrift := w.onDrift
	if count < maxDriftCount {
		w.mu.Unlock()
		if onDrift != nil {
			onDrift(count)
		}
		return
	}
	w.drift = 0
	onRecover := w.onRecover
	w.mu.Unlock()

	if onDrift != nil {
		onDrift(count)
	}
	if !w.doc.Focus(target) {
		log.Printf("watchdog: focus restore failed, target detached")
		return
	}
	if onRecover != nil {
		onRecover()
	}
}

func focusWithin(active, target *dom.Node) bool {
	for n := active; n != nil; n = n.Parent() {
		if n == target {
			return true
		}
	}
	return false
}
