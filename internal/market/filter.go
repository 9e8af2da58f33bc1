package market

import "math"

// Bounds discards outlier prices by absolute magnitude. A zero bound is
// disabled.
type Bounds struct {
	MinAbs float64
	MaxAbs float64
}

// Allows reports whether price lies within the bounds.
func (b Bounds) Allows(price float64) bool {
	a := math.Abs(price)
	if b.MinAbs > 0 && a < b.MinAbs {
		return false
	}
	if b.MaxAbs > 0 && a > b.MaxAbs {
		return false
	}
	return true
}

// Filter restricts quotes to a signed price range before grouping. A zero
// limit is disabled.
type Filter struct {
	Min float64
	Max float64
}

// Enabled reports whether either limit is set.
func (f Filter) Enabled() bool {
	return f.Min != 0 || f.Max != 0
}

// Allows reports whether price lies within the range.
func (f Filter) Allows(price float64) bool {
	if f.Min != 0 && price < f.Min {
		return false
	}
	if f.Max != 0 && price > f.Max {
		return false
	}
	return true
}

// Apply returns copies of games with out-of-range outcomes removed. The
// input is left untouched.
func (f Filter) Apply(games []Game) []Game {
	if !f.Enabled() {
		return games
	}

	out := make([]Game, len(games))
	for i, g := range games {
		out[i] = Game{Event: g.Event, Bookmakers: make([]Bookmaker, len(g.Bookmakers))}
		for j, b := range g.Bookmakers {
			nb := b
			nb.Markets = make([]Market, len(b.Markets))
			for k, m := range b.Markets {
				kept := make([]Outcome, 0, len(m.Outcomes))
				for _, o := range m.Outcomes {
					if f.Allows(o.Price) {
						kept = append(kept, o)
					}
				}
				nb.Markets[k] = Market{Key: m.Key, Outcomes: kept}
			}
			out[i].Bookmakers[j] = nb
		}
	}
	return out
}
