package odds

import (
	"math"
	"testing"
)

func TestVigFree(t *testing.T) {
	tests := []struct {
		name  string
		pair  Pair
		wantA float64
	}{
		{"symmetric", NewPair(-110, -110), 0.5},
		{"favorite and dog", NewPair(-150, 130), 0.6 / (0.6 + 100.0/230.0)},
		{"skewed juice", NewPair(-105, -115), (105.0 / 205.0) / (105.0/205.0 + 115.0/215.0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := VigFree(tt.pair)
			if got == nil || !got.Complete() {
				t.Fatalf("VigFree(%v) returned incomplete pair", tt.name)
			}
			probA, probB := got.Probabilities()
			if math.Abs(probA-tt.wantA) > 1e-3 {
				t.Errorf("fair probA = %v, want %v", probA, tt.wantA)
			}
			if math.Abs(probA+probB-1) > 1e-6 {
				t.Errorf("fair probabilities sum to %v, want 1", probA+probB)
			}
		})
	}
}

func TestVigFree_Invalid(t *testing.T) {
	tests := []struct {
		name string
		pair Pair
	}{
		{"missing A", Pair{B: Price(-110)}},
		{"missing B", Pair{A: Price(-110)}},
		{"both missing", Pair{}},
		{"zero prices", NewPair(0, 0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := VigFree(tt.pair); got != nil {
				t.Errorf("VigFree() = %+v, want nil", got)
			}
		})
	}
}

// Fair probabilities are computed as pA/total and 1-pA/total, so their sum
// is exact before rounding to prices.
func TestVigFree_SumsToUnity(t *testing.T) {
	prices := []float64{-1000, -400, -250, -150, -115, -110, -105, -100, 100, 105, 120, 150, 240, 400, 900}
	for _, a := range prices {
		for _, b := range prices {
			pair := NewPair(a, b)
			probA, probB := pair.Probabilities()
			fairA := probA / (probA + probB)
			if s := fairA + (1 - fairA); math.Abs(s-1) > 1e-9 {
				t.Fatalf("fair sum for %v/%v = %v", a, b, s)
			}
			got := VigFree(pair)
			if got == nil {
				t.Fatalf("VigFree(%v, %v) = nil", a, b)
			}
			gotA, gotB := got.Probabilities()
			if math.Abs(gotA+gotB-1) > 1e-5 {
				t.Errorf("VigFree(%v, %v) sums to %v", a, b, gotA+gotB)
			}
		}
	}
}
