package odds

import (
	"math"
	"testing"
)

func impliedA(t *testing.T, p *Pair) float64 {
	t.Helper()
	if p == nil || p.A == nil {
		t.Fatal("expected a complete consensus pair")
	}
	return Implied(*p.A)
}

func TestAggregate_Empty(t *testing.T) {
	if got := Aggregate(nil, RemoveVig); got != nil {
		t.Errorf("Aggregate(nil) = %+v, want nil", got)
	}
	if got := Aggregate([]Observation{}, RetainVig); got != nil {
		t.Errorf("Aggregate([]) = %+v, want nil", got)
	}
}

func TestAggregate_SkipsDegenerateObservations(t *testing.T) {
	obs := []Observation{
		{A: 0, B: -110, Weight: 5},
		{A: -120, B: 100, Weight: 1},
		{A: -110, B: -110, Weight: 0},
	}
	got := Aggregate(obs, RetainVig)
	if got == nil {
		t.Fatal("expected surviving observation to produce a pair")
	}
	if math.Abs(impliedA(t, got)-120.0/220.0) > 1e-6 {
		t.Errorf("probA = %v, want %v", impliedA(t, got), 120.0/220.0)
	}
}

func TestAggregate_NoSurvivingWeight(t *testing.T) {
	obs := []Observation{
		{A: 0, B: -110, Weight: 2},
		{A: -110, B: 0, Weight: 3},
	}
	if got := Aggregate(obs, RemoveVig); got != nil {
		t.Errorf("Aggregate() = %+v, want nil", got)
	}
}

func TestAggregate_Policies(t *testing.T) {
	vigged := []Observation{{A: -110, B: -110, Weight: 1}}
	underRound := []Observation{{A: 110, B: 110, Weight: 1}}

	tests := []struct {
		name    string
		obs     []Observation
		policy  VigPolicy
		wantSum float64
	}{
		{"retain keeps margin", vigged, RetainVig, 220.0 / 210.0},
		{"remove normalizes", vigged, RemoveVig, 1},
		{"remove if overround normalizes vigged", vigged, RemoveVigIfOverround, 1},
		{"remove normalizes under-round", underRound, RemoveVig, 1},
		{"remove if overround keeps under-round", underRound, RemoveVigIfOverround, 200.0 / 210.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Aggregate(tt.obs, tt.policy)
			if got == nil {
				t.Fatal("Aggregate() = nil")
			}
			probA, probB := got.Probabilities()
			if math.Abs(probA+probB-tt.wantSum) > 1e-6 {
				t.Errorf("sum = %v, want %v", probA+probB, tt.wantSum)
			}
		})
	}
}

func TestAggregate_WeightInvariance(t *testing.T) {
	obs := []Observation{
		{A: -110, B: -110, Weight: 2},
		{A: -105, B: -115, Weight: 3},
		{A: -130, B: 110, Weight: 0.25},
	}
	base := Aggregate(obs, RemoveVig)

	for _, k := range []float64{0.01, 0.5, 3, 1000} {
		scaled := make([]Observation, len(obs))
		for i, o := range obs {
			scaled[i] = Observation{A: o.A, B: o.B, Weight: o.Weight * k}
		}
		got := Aggregate(scaled, RemoveVig)
		if math.Abs(impliedA(t, got)-impliedA(t, base)) > 1e-6 {
			t.Errorf("scale %v changed probA: %v vs %v", k, impliedA(t, got), impliedA(t, base))
		}
	}
}

func TestAggregate_Monotonicity(t *testing.T) {
	obs := []Observation{
		{A: -110, B: -110, Weight: 2},
		{A: 120, B: -140, Weight: 1},
	}
	before := impliedA(t, Aggregate(obs, RetainVig))

	obs = append(obs, Observation{A: -300, B: 250, Weight: 5})
	after := impliedA(t, Aggregate(obs, RetainVig))

	if after <= before {
		t.Errorf("adding an A-favoring observation did not raise probA: %v -> %v", before, after)
	}
}

func TestAggregate_WeightedTowardHeavierBook(t *testing.T) {
	obs := []Observation{
		{A: -110, B: -110, Weight: 2},
		{A: -105, B: -115, Weight: 3},
	}
	got := impliedA(t, Aggregate(obs, RemoveVig))

	evenBook := impliedA(t, VigFree(NewPair(-110, -110)))
	skewBook := impliedA(t, VigFree(NewPair(-105, -115)))
	mid := (evenBook + skewBook) / 2

	if got <= skewBook || got >= evenBook {
		t.Errorf("consensus %v not between %v and %v", got, skewBook, evenBook)
	}
	if got >= mid {
		t.Errorf("consensus %v not weighted toward -105/-115 book (midpoint %v)", got, mid)
	}
}

func TestAggregateSides(t *testing.T) {
	even := 110.0 / 210.0

	tests := []struct {
		name         string
		obs          []Observation
		policy       VigPolicy
		wantA, wantB float64
		wantNil      bool
	}{
		{
			name:   "one-sided book moves its side only",
			obs:    []Observation{{A: -110, B: -110, Weight: 1}, {A: -200, Weight: 1}},
			policy: RetainVig,
			wantA:  (even + 200.0/300.0) / 2,
			wantB:  even,
		},
		{
			name: "each side uses its own weights",
			obs: []Observation{
				{A: -110, Weight: 1},
				{B: -110, Weight: 3},
				{A: 100, B: 100, Weight: 1},
			},
			policy: RetainVig,
			wantA:  (even + 0.5) / 2,
			wantB:  (3*even + 0.5) / 4,
		},
		{
			name:   "non-positive weight skipped",
			obs:    []Observation{{A: -110, B: -110, Weight: 1}, {A: -500, B: 300, Weight: 0}},
			policy: RetainVig,
			wantA:  even,
			wantB:  even,
		},
		{
			name:   "under-round pool kept",
			obs:    []Observation{{A: 110, Weight: 1}, {B: 110, Weight: 1}},
			policy: RemoveVigIfOverround,
			wantA:  100.0 / 210.0,
			wantB:  100.0 / 210.0,
		},
		{
			name:   "under-round pool normalized on remove",
			obs:    []Observation{{A: 110, Weight: 1}, {B: 110, Weight: 1}},
			policy: RemoveVig,
			wantA:  0.5,
			wantB:  0.5,
		},
		{
			name:   "overround pool normalized",
			obs:    []Observation{{A: -110, Weight: 2}, {B: -110, Weight: 1}},
			policy: RemoveVigIfOverround,
			wantA:  0.5,
			wantB:  0.5,
		},
		{
			name:    "missing side",
			obs:     []Observation{{A: -110, Weight: 1}, {A: -120, Weight: 2}},
			policy:  RemoveVig,
			wantNil: true,
		},
		{
			name:    "empty",
			policy:  RemoveVig,
			wantNil: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AggregateSides(tt.obs, tt.policy)
			if tt.wantNil {
				if got != nil {
					t.Errorf("AggregateSides() = %+v, want nil", got)
				}
				return
			}
			if got == nil {
				t.Fatal("AggregateSides() = nil")
			}
			probA, probB := got.Probabilities()
			if math.Abs(probA-tt.wantA) > 1e-5 || math.Abs(probB-tt.wantB) > 1e-5 {
				t.Errorf("probabilities = %v/%v, want %v/%v", probA, probB, tt.wantA, tt.wantB)
			}
		})
	}
}

func TestAggregateSides_MatchesAggregateOnCompletePairs(t *testing.T) {
	obs := []Observation{
		{A: -110, B: -110, Weight: 2},
		{A: -105, B: -115, Weight: 3},
	}
	for _, policy := range []VigPolicy{RetainVig, RemoveVig, RemoveVigIfOverround} {
		t.Run(policy.String(), func(t *testing.T) {
			want := impliedA(t, Aggregate(obs, policy))
			if got := impliedA(t, AggregateSides(obs, policy)); math.Abs(got-want) > 1e-9 {
				t.Errorf("probA = %v, want %v", got, want)
			}
		})
	}
}

func TestVigPolicy_String(t *testing.T) {
	if RemoveVigIfOverround.String() != "remove_if_overround" {
		t.Errorf("unexpected policy name %q", RemoveVigIfOverround.String())
	}
}
