package odds

// Pair is a two-outcome price pair. A nil side is absent, never zero.
type Pair struct {
	A *float64 `json:"oddsA"`
	B *float64 `json:"oddsB"`
}

// NewPair builds a Pair with both sides present.
func NewPair(a, b float64) Pair {
	return Pair{A: Price(a), B: Price(b)}
}

// Complete reports whether both sides carry a price.
func (p Pair) Complete() bool {
	return p.A != nil && p.B != nil
}

// Probabilities returns the implied probability of each side (0 when absent).
func (p Pair) Probabilities() (float64, float64) {
	return AmericanToImplied(p.A), AmericanToImplied(p.B)
}

// VigFree rescales a quoted pair so its implied probabilities sum to one.
// It returns nil when a side is missing or the pair carries no probability.
func VigFree(p Pair) *Pair {
	if !p.Complete() {
		return nil
	}
	probA, probB := p.Probabilities()
	total := probA + probB
	if total <= 0 {
		return nil
	}
	fairA := probA / total
	return &Pair{
		A: ProbToAmerican(fairA),
		B: ProbToAmerican(1 - fairA),
	}
}
