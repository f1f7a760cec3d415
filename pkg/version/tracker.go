// Package version tracks the document's mutation version against the most
// recently completed layout, exposing whether the rendered layout is stale
// and for how long. Input handling consults it to decide between the layout
// path and the DOM-coordinate fallback.
package version

import "time"

// Metrics is a snapshot of the tracker's state.
type Metrics struct {
	CurrentPmVersion    int64
	LatestLayoutVersion int64
	IsStale             bool
	VersionGap          int64
	StalenessDuration   time.Duration
}

// Tracker relates mutation versions to completed layout versions. Not safe
// for concurrent use; the bridge owns it on the event loop.
type Tracker struct {
	currentPmVersion    int64
	latestLayoutVersion int64

	// staleSince is set on the clean->stale transition only; further
	// mutations while already stale do not re-arm it.
	staleSince time.Time
	now        func() time.Time
}

// NewTracker creates a tracker at version 0/0.
func NewTracker() *Tracker {
	return &Tracker{now: time.Now}
}

// NewTrackerWithClock creates a tracker with an injected clock.
func NewTrackerWithClock(now func() time.Time) *Tracker {
	return &Tracker{now: now}
}

// OnTransaction records one applied document mutation and returns the new
// mutation version.
func (t *Tracker) OnTransaction() int64 {
	wasStale := t.IsStale()
	t.currentPmVersion++
	if !wasStale {
		t.staleSince = t.now()
	}
	return t.currentPmVersion
}

// OnLayoutComplete records a finished layout pass for the given mutation
// version. Completions are monotonic: a late completion for an
// already-superseded version is discarded, so the fast path wins and the
// displayed layout never regresses. Returns whether the completion was
// accepted.
func (t *Tracker) OnLayoutComplete(v int64) bool {
	if v <= t.latestLayoutVersion {
		return false
	}
	t.latestLayoutVersion = v
	if !t.IsStale() {
		t.staleSince = time.Time{}
	}
	return true
}

// CurrentVersion returns the mutation version.
func (t *Tracker) CurrentVersion() int64 {
	return t.currentPmVersion
}

// LayoutVersion returns the latest completed layout version.
func (t *Tracker) LayoutVersion() int64 {
	return t.latestLayoutVersion
}

// IsStale reports whether the rendered layout lags the document.
func (t *Tracker) IsStale() bool {
	return t.latestLayoutVersion < t.currentPmVersion
}

// VersionGap returns how many mutation versions the layout lags by.
func (t *Tracker) VersionGap() int64 {
	gap := t.currentPmVersion - t.latestLayoutVersion
	if gap < 0 {
		return 0
	}
	return gap
}

// StalenessDuration returns how long the layout has been stale, measured
// from the transaction that first made it stale. Zero when clean.
func (t *Tracker) StalenessDuration() time.Duration {
	if !t.IsStale() || t.staleSince.IsZero() {
		return 0
	}
	return t.now().Sub(t.staleSince)
}

// MetricsSnapshot returns the tracker's introspection metrics.
func (t *Tracker) MetricsSnapshot() Metrics {
	return Metrics{
		CurrentPmVersion:    t.currentPmVersion,
		LatestLayoutVersion: t.latestLayoutVersion,
		IsStale:             t.IsStale(),
		VersionGap:          t.VersionGap(),
		StalenessDuration:   t.StalenessDuration(),
	}
}
