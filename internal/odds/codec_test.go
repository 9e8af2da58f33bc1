package odds

import (
	"math"
	"testing"
)

func TestImplied(t *testing.T) {
	tests := []struct {
		name string
		odds float64
		want float64
	}{
		{"favorite", -110, 110.0 / 210.0},
		{"underdog", 150, 0.4},
		{"even money", 100, 0.5},
		{"pick em negative", -100, 0.5},
		{"heavy favorite", -1000, 1000.0 / 1100.0},
		{"invalid band", 50, 50.0 / 150.0},
		{"zero", 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Implied(tt.odds); math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("Implied(%v) = %v, want %v", tt.odds, got, tt.want)
			}
		})
	}
}

func TestAmericanToImplied_Nil(t *testing.T) {
	if got := AmericanToImplied(nil); got != 0 {
		t.Errorf("AmericanToImplied(nil) = %v, want 0", got)
	}
	if got := AmericanToImplied(Price(-110)); math.Abs(got-0.5238) > 1e-4 {
		t.Errorf("AmericanToImplied(-110) = %v, want ~0.5238", got)
	}
}

func TestProbToAmerican(t *testing.T) {
	tests := []struct {
		name    string
		prob    float64
		want    float64
		wantNil bool
	}{
		{"favorite", 0.5238, -110, false},
		{"underdog", 0.4, 150, false},
		{"coin flip", 0.5, -100, false},
		{"certainty", 1, 0, true},
		{"above one", 1.2, 0, true},
		{"zero", 0, 0, true},
		{"negative", -0.1, 0, true},
		{"nan", math.NaN(), 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ProbToAmerican(tt.prob)
			if tt.wantNil {
				if got != nil {
					t.Errorf("ProbToAmerican(%v) = %v, want nil", tt.prob, *got)
				}
				return
			}
			if got == nil {
				t.Fatalf("ProbToAmerican(%v) = nil, want %v", tt.prob, tt.want)
			}
			if math.Abs(*got-tt.want) > 0.05 {
				t.Errorf("ProbToAmerican(%v) = %v, want ~%v", tt.prob, *got, tt.want)
			}
		})
	}
}

func TestProbToAmerican_RoundsToFourPlaces(t *testing.T) {
	got := ProbToAmerican(1.0 / 3.0)
	if got == nil {
		t.Fatal("expected a price")
	}
	if *got != 200 {
		t.Errorf("ProbToAmerican(1/3) = %v, want 200", *got)
	}

	got = ProbToAmerican(0.52)
	if got == nil {
		t.Fatal("expected a price")
	}
	scaled := *got * 1e4
	if math.Abs(scaled-math.Round(scaled)) > 1e-6 {
		t.Errorf("ProbToAmerican(0.52) = %v, not rounded to 4 places", *got)
	}
}

func TestRoundTrip(t *testing.T) {
	for i := 1; i < 1000; i++ {
		p := float64(i) / 1000
		american := ProbToAmerican(p)
		if american == nil {
			t.Fatalf("ProbToAmerican(%v) = nil", p)
		}
		if got := Implied(*american); math.Abs(got-p) > 1e-3 {
			t.Errorf("round trip %v -> %v -> %v", p, *american, got)
		}
	}
}

func TestAmericanToDecimal(t *testing.T) {
	tests := []struct {
		odds float64
		want float64
	}{
		{150, 2.5},
		{100, 2.0},
		{-200, 1.5},
		{-110, 100.0/110.0 + 1},
		{0, 0},
	}

	for _, tt := range tests {
		if got := AmericanToDecimal(tt.odds); math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("AmericanToDecimal(%v) = %v, want %v", tt.odds, got, tt.want)
		}
	}
}
