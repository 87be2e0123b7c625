package entropy

import (
	"math/rand"
	"testing"
)

func TestNewSeededIsDeterministic(t *testing.T) {
	a, seedA, err := NewSeeded(7)
	if err != nil {
		t.Fatalf("new seeded: %v", err)
	}
	b, seedB, err := NewSeeded(7)
	if err != nil {
		t.Fatalf("new seeded: %v", err)
	}
	if seedA != 7 || seedB != 7 {
		t.Fatalf("expected seed 7, got %d and %d", seedA, seedB)
	}
	for i := 0; i < 20; i++ {
		if a.Float64() != b.Float64() {
			t.Fatalf("draw %d diverged", i)
		}
	}
}

func TestNewSeededReplacesZeroSeed(t *testing.T) {
	_, seed, err := NewSeeded(0)
	if err != nil {
		t.Fatalf("new seeded: %v", err)
	}
	if seed == 0 {
		t.Fatal("expected a non-zero generated seed")
	}
}

func TestNilClientFallsBackToCrypto(t *testing.T) {
	var c *Client
	if c.Enabled() {
		t.Fatal("nil client must not be enabled")
	}
	for i := 0; i < 100; i++ {
		v := c.Float64()
		if v < 0 || v >= 1 {
			t.Fatalf("float out of range: %v", v)
		}
	}
	if NewClient("") != nil {
		t.Fatal("expected nil client for empty key")
	}
}

func TestScriptedReplaysThenFallsBack(t *testing.T) {
	s := &Scripted{
		Floats: []float64{0.25, 0.75},
		Ints:   []int{3, 99, -4},
		Rest:   rand.New(rand.NewSource(1)),
	}
	if got := s.Float64(); got != 0.25 {
		t.Fatalf("expected 0.25, got %v", got)
	}
	if got := s.Float64(); got != 0.75 {
		t.Fatalf("expected 0.75, got %v", got)
	}
	if got := s.Intn(10); got != 3 {
		t.Fatalf("expected 3, got %d", got)
	}
	if got := s.Intn(10); got != 9 {
		t.Fatalf("expected clamp to 9, got %d", got)
	}
	if got := s.Intn(10); got != 0 {
		t.Fatalf("expected clamp to 0, got %d", got)
	}

	ref := rand.New(rand.NewSource(1))
	if got, want := s.Float64(), ref.Float64(); got != want {
		t.Fatalf("expected fallback draw %v, got %v", want, got)
	}
}
