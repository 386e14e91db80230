package bag

import (
	"fmt"
	"math"
	"math/rand"
	"testing"
)

func TestDeterministicOrder(t *testing.T) {
	b := New[string](10, rand.New(rand.NewSource(1)))
	b.Add("low", "low", 0.1)
	b.Add("high", "high", 0.9)
	b.Add("mid", "mid", 0.5)

	got := b.TakeAll()
	want := []string{"high", "mid", "low"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}
}

func TestTieBrokenByInsertion(t *testing.T) {
	b := New[string](10, nil)
	b.Add("first", "first", 0.5)
	b.Add("second", "second", 0.5)
	got := b.TakeAll()
	if got[0] != "first" || got[1] != "second" {
		t.Errorf("ties must respect insertion order, got %v", got)
	}
}

func TestEvictLowestWhenFull(t *testing.T) {
	b := New[string](2, nil)
	b.Add("a", "a", 0.2)
	b.Add("b", "b", 0.8)
	if !b.Add("c", "c", 0.5) {
		t.Fatal("higher-priority insert should be accepted")
	}
	if b.Contains("a") {
		t.Error("lowest-priority item should have been evicted")
	}
	if b.Len() != 2 {
		t.Errorf("len = %d, want 2", b.Len())
	}
	// Insert below the minimum is rejected.
	if b.Add("d", "d", 0.1) {
		t.Error("insert below current minimum should be rejected")
	}
}

func TestUpdateExisting(t *testing.T) {
	b := New[string](10, nil)
	b.Add("x", "x1", 0.2)
	b.Add("x", "x2", 0.7)
	if b.Len() != 1 {
		t.Fatalf("len = %d, want 1", b.Len())
	}
	b.Add("y", "y", 0.5)
	if got := b.TakeAll(); got[0] != "x2" {
		t.Errorf("updated item should sort by raised priority, got %v", got)
	}
}

func TestClear(t *testing.T) {
	b := New[string](10, nil)
	b.Add("a", "a", 0.5)
	b.Clear()
	if b.Len() != 0 {
		t.Errorf("len after clear = %d", b.Len())
	}
	if b.Contains("a") {
		t.Error("cleared bag should not contain items")
	}
}

func TestTakeLimit(t *testing.T) {
	b := New[int](10, nil)
	for i := 0; i < 5; i++ {
		b.Add(fmt.Sprintf("k%d", i), i, float64(i))
	}
	if got := b.Take(2); len(got) != 2 || got[0] != 4 {
		t.Errorf("Take(2) = %v", got)
	}
	if got := b.Take(100); len(got) != 5 {
		t.Errorf("Take beyond size returned %d items", len(got))
	}
}

func TestSampleDistinct(t *testing.T) {
	b := New[int](10, rand.New(rand.NewSource(7)))
	for i := 0; i < 5; i++ {
		b.Add(fmt.Sprintf("k%d", i), i, 1)
	}
	got := b.Sample(5)
	seen := map[int]bool{}
	for _, v := range got {
		if seen[v] {
			t.Fatalf("sample returned duplicate %d", v)
		}
		seen[v] = true
	}
}

// Roulette sampling converges to priority-proportional frequencies.
func TestRouletteConvergence(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	b := New[string](4, rng)
	b.Add("a", "a", 1)
	b.Add("b", "b", 3)

	const draws = 20000
	counts := map[string]int{}
	for i := 0; i < draws; i++ {
		got := b.Sample(1)
		counts[got[0]]++
	}
	pb := float64(counts["b"]) / draws
	if math.Abs(pb-0.75) > 0.02 {
		t.Errorf("P(b) = %v, want 0.75 ± 0.02", pb)
	}
}

func TestSampleZeroPriority(t *testing.T) {
	b := New[string](4, rand.New(rand.NewSource(3)))
	b.Add("z", "z", 0)
	if got := b.Sample(1); len(got) != 1 || got[0] != "z" {
		t.Errorf("zero-priority-only bag should still sample, got %v", got)
	}
}
