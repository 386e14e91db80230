package task

import "testing"

func TestDeriveDepth(t *testing.T) {
	a := NewInputStamp()
	b := NewInputStamp()
	d1 := Derive([]*Stamp{a, b}, DerivedSource("deduction"))
	if d1.Depth() != 1 {
		t.Errorf("depth = %d, want 1", d1.Depth())
	}
	c := NewInputStamp()
	d2 := Derive([]*Stamp{d1, c}, DerivedSource("induction"))
	if d2.Depth() != 2 {
		t.Errorf("depth = %d, want max(parents)+1 = 2", d2.Depth())
	}
	if d2.Source() != "DERIVED:induction" {
		t.Errorf("source = %q", d2.Source())
	}
}

func TestOverlap(t *testing.T) {
	a := NewInputStamp()
	b := NewInputStamp()
	c := NewInputStamp()

	ab := Derive([]*Stamp{a, b}, DerivedSource("r"))
	bc := Derive([]*Stamp{b, c}, DerivedSource("r"))
	if !ab.Overlaps(bc) {
		t.Error("stamps sharing base b must overlap")
	}
	if !ab.Overlaps(a) {
		t.Error("derived stamp must overlap its own base")
	}
	if a.Overlaps(c) {
		t.Error("independent inputs must not overlap")
	}

	ac := Derive([]*Stamp{a, c}, DerivedSource("r"))
	d := NewInputStamp()
	if ac.Overlaps(d) {
		t.Error("fresh input must not overlap")
	}
}

func TestEvidenceUnion(t *testing.T) {
	a := NewInputStamp()
	b := NewInputStamp()
	d := Derive([]*Stamp{a, b}, DerivedSource("r"))
	if d.EvidenceSize() != 2 {
		t.Errorf("evidence size = %d, want 2", d.EvidenceSize())
	}
	// Shared sub-stamps are not double counted.
	d2 := Derive([]*Stamp{d, a}, DerivedSource("r"))
	if d2.EvidenceSize() != 2 {
		t.Errorf("evidence size = %d, want 2 (a deduped)", d2.EvidenceSize())
	}
}

func TestWithSource(t *testing.T) {
	a := NewInputStamp()
	b := NewInputStamp()
	d := Derive([]*Stamp{a, b}, "DERIVED:x")
	r := d.WithSource("DERIVED:y")
	if r.Source() != "DERIVED:y" {
		t.Errorf("source = %q", r.Source())
	}
	if r.Depth() != d.Depth() || r.EvidenceSize() != d.EvidenceSize() {
		t.Error("WithSource must preserve depth and evidence")
	}
	if d.Source() != "DERIVED:x" {
		t.Error("WithSource must not mutate the original")
	}
}

func TestNilOverlap(t *testing.T) {
	var s *Stamp
	if s.Overlaps(NewInputStamp()) {
		t.Error("nil stamp overlaps nothing")
	}
}
