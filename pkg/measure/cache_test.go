package measure

import "testing"

func TestMeasureCache_DirtyReadsMiss(t *testing.T) {
	c := NewMeasureCache()
	m := &Measure{}
	c.Set("b1", m, 3)

	if got := c.Get("b1"); got != m {
		t.Fatal("clean entry should be readable")
	}
	c.MarkDirty("b1")
	if got := c.Get("b1"); got != nil {
		t.Error("dirty entry must read as nil (recompute), not as cached data")
	}
	if v := c.Version("b1"); v != -1 {
		t.Errorf("dirty entry version should read -1, got %d", v)
	}

	// Set clears dirty again.
	c.Set("b1", m, 4)
	if got := c.Get("b1"); got != m {
		t.Error("Set should clear the dirty flag")
	}
}

func TestMeasureCache_ValidateVersionIdempotent(t *testing.T) {
	c := NewMeasureCache()
	c.Set("a", &Measure{}, 1)
	c.Set("b", &Measure{}, 2)
	c.Set("c", &Measure{}, 2)

	if n := c.ValidateVersion(2); n != 1 {
		t.Errorf("expected 1 newly-marked entry, got %d", n)
	}
	if n := c.ValidateVersion(2); n != 0 {
		t.Errorf("second validation should mark nothing, got %d", n)
	}
}

func TestMeasureCache_PruneDirty(t *testing.T) {
	c := NewMeasureCache()
	c.Set("a", &Measure{}, 1)
	c.Set("b", &Measure{}, 1)
	c.MarkDirty("a")

	if n := c.PruneDirty(); n != 1 {
		t.Errorf("expected 1 pruned, got %d", n)
	}
	if c.Len() != 1 {
		t.Errorf("expected 1 remaining entry, got %d", c.Len())
	}
	if c.Get("b") == nil {
		t.Error("clean entry should survive pruning")
	}
}

func TestMeasureCache_Invalidate(t *testing.T) {
	c := NewMeasureCache()
	c.Set("a", &Measure{}, 1)
	c.Set("b", &Measure{}, 1)
	c.Invalidate([]string{"a", "missing"})
	if c.Get("a") != nil {
		t.Error("invalidated entry should be gone")
	}
	if c.Get("b") == nil {
		t.Error("uninvalidated entry should remain")
	}
}

func TestLineCache_FindLine(t *testing.T) {
	c := NewLineCache()
	lines := []LineBox{
		{FromRun: 0, FromChar: 0, ToRun: 0, ToChar: 10},
		{FromRun: 0, FromChar: 11, ToRun: 1, ToChar: 4},
	}
	c.SetLines(2, lines, 7)

	if idx := c.FindLineIndex(2, 0, 5); idx != 0 {
		t.Errorf("position (0,5) should be on line 0, got %d", idx)
	}
	if idx := c.FindLineIndex(2, 1, 2); idx != 1 {
		t.Errorf("position (1,2) should be on line 1, got %d", idx)
	}
	if ln := c.FindLineContaining(2, 0, 12); ln == nil || ln.FromChar != 11 {
		t.Errorf("position (0,12) should resolve to the second line")
	}

	// Absent paragraph.
	if idx := c.FindLineIndex(9, 0, 0); idx != -1 {
		t.Errorf("absent entry should return -1, got %d", idx)
	}

	// Dirty entry must behave exactly like an absent one.
	c.MarkDirty(2)
	if idx := c.FindLineIndex(2, 0, 5); idx != -1 {
		t.Errorf("dirty entry should return -1, got %d", idx)
	}
	if ln := c.FindLineContaining(2, 0, 5); ln != nil {
		t.Error("dirty entry should return nil line")
	}
}

func TestLineCache_MarkDirtyFromAndRange(t *testing.T) {
	c := NewLineCache()
	for i := 0; i < 6; i++ {
		c.SetLines(i, []LineBox{{}}, 1)
	}

	c.MarkDirtyRange(1, 3)
	for i := 0; i < 6; i++ {
		want := i == 1 || i == 2
		if got := c.Lines(i) == nil; got != want {
			t.Errorf("after MarkDirtyRange(1,3): entry %d dirty=%v, want %v", i, got, want)
		}
	}

	c.MarkDirtyFrom(4)
	if c.Lines(3) == nil {
		t.Error("entry 3 should still be clean")
	}
	if c.Lines(4) != nil || c.Lines(5) != nil {
		t.Error("entries >= 4 should be dirty after MarkDirtyFrom(4)")
	}
}

func TestLineCache_ValidateVersionAndPrune(t *testing.T) {
	c := NewLineCache()
	c.SetLines(0, []LineBox{{}}, 1)
	c.SetLines(1, []LineBox{{}}, 2)

	if n := c.ValidateVersion(2); n != 1 {
		t.Errorf("expected 1 marked, got %d", n)
	}
	if n := c.ValidateVersion(2); n != 0 {
		t.Errorf("revalidation should mark 0, got %d", n)
	}
	if n := c.PruneDirty(); n != 1 {
		t.Errorf("expected 1 pruned, got %d", n)
	}
	if c.Lines(1) == nil {
		t.Error("matching-version entry should survive")
	}
}
