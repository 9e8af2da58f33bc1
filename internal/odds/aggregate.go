package odds

// VigPolicy selects how Aggregate treats the margin left in a weighted average.
type VigPolicy int

const (
	// RetainVig returns the weighted average as quoted (what a bettor can get).
	RetainVig VigPolicy = iota
	// RemoveVig always renormalizes the averaged pair to sum to one.
	RemoveVig
	// RemoveVigIfOverround renormalizes only when the averaged pair sums
	// above one. Pooled sides from partial coverage can already be under-round.
	RemoveVigIfOverround
)

func (p VigPolicy) String() string {
	switch p {
	case RetainVig:
		return "retain"
	case RemoveVig:
		return "remove"
	case RemoveVigIfOverround:
		return "remove_if_overround"
	default:
		return "unknown"
	}
}

// Observation is one bookmaker's quoted pair carrying its resolved weight.
type Observation struct {
	A      float64
	B      float64
	Weight float64
}

// Aggregate blends observations into a single weighted-average pair.
// Observations with a zero implied probability on either side, or a
// non-positive weight, are skipped individually. It returns nil for empty
// input or when no weight survives.
func Aggregate(obs []Observation, policy VigPolicy) *Pair {
	if len(obs) == 0 {
		return nil
	}

	var sumA, sumB, totalWeight float64
	for _, o := range obs {
		probA, probB := Implied(o.A), Implied(o.B)
		if probA == 0 || probB == 0 || o.Weight <= 0 {
			continue
		}
		sumA += probA * o.Weight
		sumB += probB * o.Weight
		totalWeight += o.Weight
	}
	if totalWeight == 0 {
		return nil
	}

	return normalize(sumA/totalWeight, sumB/totalWeight, policy)
}

// AggregateSides averages each side on its own, so a book quoting only
// one side still counts toward that side. Each side uses the weights of
// the observations that quote it. It returns nil when either side has no
// surviving weight.
func AggregateSides(obs []Observation, policy VigPolicy) *Pair {
	var sumA, sumB, weightA, weightB float64
	for _, o := range obs {
		if o.Weight <= 0 {
			continue
		}
		if prob := Implied(o.A); prob > 0 {
			sumA += prob * o.Weight
			weightA += o.Weight
		}
		if prob := Implied(o.B); prob > 0 {
			sumB += prob * o.Weight
			weightB += o.Weight
		}
	}
	if weightA == 0 || weightB == 0 {
		return nil
	}
	return normalize(sumA/weightA, sumB/weightB, policy)
}

func normalize(probA, probB float64, policy VigPolicy) *Pair {
	total := probA + probB
	switch policy {
	case RemoveVig:
		if total > 0 {
			probA /= total
			probB /= total
		}
	case RemoveVigIfOverround:
		if total > 1 {
			probA /= total
			probB /= total
		}
	}

	return &Pair{A: ProbToAmerican(probA), B: ProbToAmerican(probB)}
}
