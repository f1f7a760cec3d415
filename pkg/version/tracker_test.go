package version

import (
	"testing"
	"time"
)

func TestTracker_StartsClean(t *testing.T) {
	tr := NewTracker()
	if tr.IsStale() {
		t.Error("fresh tracker should not be stale")
	}
	if tr.VersionGap() != 0 {
		t.Errorf("fresh tracker gap should be 0, got %d", tr.VersionGap())
	}
}

func TestTracker_TransactionMakesStale(t *testing.T) {
	tr := NewTracker()
	v := tr.OnTransaction()
	if v != 1 {
		t.Errorf("first transaction should be version 1, got %d", v)
	}
	if !tr.IsStale() {
		t.Error("tracker should be stale after an unanswered transaction")
	}
	if !tr.OnLayoutComplete(v) {
		t.Error("completion for the current version should be accepted")
	}
	if tr.IsStale() {
		t.Error("tracker should be clean after completion")
	}
}

func TestTracker_LateCompletionDiscarded(t *testing.T) {
	tr := NewTracker()
	tr.OnTransaction() // v1
	tr.OnTransaction() // v2

	// Fast path completes v2 first; v1 arrives late and must be ignored.
	if !tr.OnLayoutComplete(2) {
		t.Error("v2 completion should be accepted")
	}
	if tr.OnLayoutComplete(1) {
		t.Error("late v1 completion must be discarded")
	}
	if tr.LayoutVersion() != 2 {
		t.Errorf("layout version should remain 2, got %d", tr.LayoutVersion())
	}
	if tr.IsStale() {
		t.Error("tracker should be clean at v2")
	}
}

// After any interleaving of transactions and completions, the layout version
// equals the max completed version, and staleness is exactly
// maxCompleted < transactionCount.
func TestTracker_ArbitraryInterleavings(t *testing.T) {
	type step struct {
		tx       bool
		complete int64
	}
	cases := [][]step{
		{{tx: true}, {tx: true}, {complete: 1}, {complete: 2}},
		{{tx: true}, {tx: true}, {complete: 2}, {complete: 1}},
		{{tx: true}, {complete: 1}, {tx: true}, {tx: true}, {complete: 3}, {complete: 2}},
		{{complete: 5}, {tx: true}},
		{{tx: true}, {tx: true}, {tx: true}, {complete: 2}},
	}
	for ci, steps := range cases {
		tr := NewTracker()
		var txCount, maxCompleted int64
		for _, s := range steps {
			if s.tx {
				tr.OnTransaction()
				txCount++
			} else {
				tr.OnLayoutComplete(s.complete)
				if s.complete > maxCompleted {
					maxCompleted = s.complete
				}
			}
		}
		if tr.LayoutVersion() != maxCompleted {
			t.Errorf("case %d: layout version %d, want max completed %d", ci, tr.LayoutVersion(), maxCompleted)
		}
		wantStale := maxCompleted < txCount
		if tr.IsStale() != wantStale {
			t.Errorf("case %d: stale=%v, want %v", ci, tr.IsStale(), wantStale)
		}
	}
}

func TestTracker_StalenessDuration(t *testing.T) {
	clock := time.Unix(1000, 0)
	tr := NewTrackerWithClock(func() time.Time { return clock })

	tr.OnTransaction()
	clock = clock.Add(40 * time.Millisecond)
	if d := tr.StalenessDuration(); d != 40*time.Millisecond {
		t.Errorf("expected 40ms staleness, got %v", d)
	}

	// A second mutation while already stale must not re-arm the timestamp.
	tr.OnTransaction()
	clock = clock.Add(10 * time.Millisecond)
	if d := tr.StalenessDuration(); d != 50*time.Millisecond {
		t.Errorf("staleness should still be measured from the first stale transaction, got %v", d)
	}

	// Catching up only partway keeps it stale.
	tr.OnLayoutComplete(1)
	if d := tr.StalenessDuration(); d != 50*time.Millisecond {
		t.Errorf("partial catch-up should not reset staleness, got %v", d)
	}

	// Full catch-up clears it to zero.
	tr.OnLayoutComplete(2)
	if d := tr.StalenessDuration(); d != 0 {
		t.Errorf("clean tracker should report zero staleness, got %v", d)
	}

	// Going stale again re-arms from now.
	tr.OnTransaction()
	clock = clock.Add(5 * time.Millisecond)
	if d := tr.StalenessDuration(); d != 5*time.Millisecond {
		t.Errorf("new staleness window should measure from its own start, got %v", d)
	}
}

func TestTracker_Metrics(t *testing.T) {
	tr := NewTracker()
	tr.OnTransaction()
	tr.OnTransaction()
	tr.OnLayoutComplete(1)

	m := tr.MetricsSnapshot()
	if m.CurrentPmVersion != 2 || m.LatestLayoutVersion != 1 {
		t.Errorf("unexpected versions: %+v", m)
	}
	if !m.IsStale || m.VersionGap != 1 {
		t.Errorf("expected stale with gap 1: %+v", m)
	}
}
