package game

import "testing"

func fixedLuck(v float64) Luck {
	return func() float64 { return v }
}

func TestResolveImpact_DefenseAbsorbsStrongerAttack(t *testing.T) {
	if got := ResolveImpact(40, 60, fixedLuck(1.0)); got != 0 {
		t.Fatalf("expected 0 damage when mitigation exceeds attack, got %d", got)
	}
}

func TestResolveImpact_DifferenceGetsThrough(t *testing.T) {
	if got := ResolveImpact(70, 30, fixedLuck(1.0)); got != 40 {
		t.Fatalf("expected 40 damage, got %d", got)
	}
}

func TestResolveImpact_LuckScalesTheDifference(t *testing.T) {
	if got := ResolveImpact(50, 0, fixedLuck(0.9)); got != 45 {
		t.Fatalf("expected 45 with low luck, got %d", got)
	}
	if got := ResolveImpact(50, 0, fixedLuck(1.1)); got != 55 {
		t.Fatalf("expected 55 with high luck, got %d", got)
	}
}

func TestResolveImpact_NeverNegative(t *testing.T) {
	for i := 0; i < 100; i++ {
		if got := ResolveImpact(10, 90, nil); got < 0 {
			t.Fatalf("negative damage %d", got)
		}
	}
}

func TestDefaultLuck_StaysInRange(t *testing.T) {
	for i := 0; i < 1000; i++ {
		v := DefaultLuck()
		if v < 0.9 || v > 1.1 {
			t.Fatalf("luck %f out of [0.9, 1.1]", v)
		}
	}
}
