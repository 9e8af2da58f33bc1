package market

import (
	"slices"
	"strconv"
	"strings"

	"github.com/rewired-gh/evoracle/internal/logger"
)

// Matched is one bookmaker's price for both sides of a two-sided line.
// A is the home or over side, B the away or under side.
type Matched struct {
	Bookmaker string
	A         float64
	B         float64
}

// GroupMoneyline pairs each bookmaker's home and away prices.
func GroupMoneyline(game Game, markets []BookMarket, bounds Bounds) []Matched {
	var out []Matched
	for _, m := range markets {
		home, okHome := findOutcome(m.Outcomes, game.HomeTeam)
		away, okAway := findOutcome(m.Outcomes, game.AwayTeam)
		if !okHome || !okAway || home.Price == 0 || away.Price == 0 {
			logger.Debug("Skipping %s moneyline for %s: unmatched side", m.Bookmaker, game.ID)
			continue
		}
		if !bounds.Allows(home.Price) || !bounds.Allows(away.Price) {
			logger.Warn("Discarding outlier moneyline from %s for %s: %v/%v",
				m.Bookmaker, game.ID, home.Price, away.Price)
			continue
		}
		out = append(out, Matched{Bookmaker: m.Bookmaker, A: home.Price, B: away.Price})
	}
	return out
}

func findOutcome(outcomes []Outcome, name string) (Outcome, bool) {
	for _, o := range outcomes {
		if o.Name == name {
			return o, true
		}
	}
	return Outcome{}, false
}

// PointGroup collects every bookmaker's pair quoted at one point.
type PointGroup struct {
	Point  float64
	Quotes []Matched
}

// GroupPointKeyed pairs spreads or totals across main and alternate markets.
// Spreads match the away side at the negated home point, totals match Over
// and Under at the same point. Within a bookmaker the first pair found for
// a point wins. Groups keep first-seen point order.
func GroupPointKeyed(game Game, markets []BookMarket, kind PointKind, bounds Bounds) []PointGroup {
	var bookOrder []string
	byBook := make(map[string][]Outcome)
	for _, m := range markets {
		if _, ok := byBook[m.Bookmaker]; !ok {
			bookOrder = append(bookOrder, m.Bookmaker)
		}
		byBook[m.Bookmaker] = append(byBook[m.Bookmaker], m.Outcomes...)
	}

	homeName, awayName := game.HomeTeam, game.AwayTeam
	if kind == Total {
		homeName, awayName = "Over", "Under"
	}

	var points []float64
	groups := make(map[float64]*PointGroup)

	for _, book := range bookOrder {
		var homes, aways []Outcome
		for _, o := range byBook[book] {
			if o.Point == nil || o.Price == 0 {
				continue
			}
			switch o.Name {
			case homeName:
				homes = append(homes, o)
			case awayName:
				aways = append(aways, o)
			}
		}

		seen := make(map[float64]bool)
		for _, h := range homes {
			point := *h.Point
			if point == 0 {
				point = 0 // pick'em quoted as -0
			}
			if seen[point] {
				continue
			}
			opposite := point
			if kind == Spread {
				opposite = -point
			}
			a, ok := findAtPoint(aways, opposite)
			if !ok {
				continue
			}
			if !bounds.Allows(h.Price) || !bounds.Allows(a.Price) {
				logger.Warn("Discarding outlier %s %v from %s for %s: %v/%v",
					kind, point, book, game.ID, h.Price, a.Price)
				continue
			}
			seen[point] = true

			g, ok := groups[point]
			if !ok {
				g = &PointGroup{Point: point}
				groups[point] = g
				points = append(points, point)
			}
			g.Quotes = append(g.Quotes, Matched{Bookmaker: book, A: h.Price, B: a.Price})
		}
	}

	out := make([]PointGroup, 0, len(points))
	for _, p := range points {
		out = append(out, *groups[p])
	}
	return out
}

func findAtPoint(outcomes []Outcome, point float64) (Outcome, bool) {
	for _, o := range outcomes {
		if *o.Point == point {
			return o, true
		}
	}
	return Outcome{}, false
}

// PropKey identifies a two-sided player prop line.
type PropKey struct {
	GameID string
	Market string
	Player string
	Point  *float64
}

// ID renders the key as "{game}-{market}-{player}-{point}", with "null"
// standing in for a missing point.
func (k PropKey) ID() string {
	return k.GameID + "-" + k.Market + "-" + k.Player + "-" + FormatPoint(k.Point)
}

// FormatPoint renders a point in its shortest decimal form.
func FormatPoint(p *float64) string {
	if p == nil {
		return "null"
	}
	v := *p
	if v == 0 {
		v = 0
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// PropQuote is one bookmaker's over and under prices. Zero means the side
// was not quoted.
type PropQuote struct {
	Bookmaker string
	Over      float64
	Under     float64
}

// PropGroup is every bookmaker's quote for one prop line.
type PropGroup struct {
	Key    PropKey
	Event  Event
	Quotes []PropQuote
}

// GroupProps collects two-sided player props across all games and books.
// Outcome names are matched to over/under case-insensitively and a later
// quote from the same book replaces an earlier one.
func GroupProps(games []Game, shapes Shapes, bounds Bounds) []PropGroup {
	var order []string
	groups := make(map[string]*PropGroup)
	bookIdx := make(map[string]map[string]int)

	for _, game := range games {
		for _, b := range game.Bookmakers {
			for _, m := range b.Markets {
				if shapes.Of(m.Key) != ShapePlayerProp {
					continue
				}
				for _, o := range m.Outcomes {
					if o.Description == "" || o.Price == 0 {
						logger.Debug("Skipping %s %s outcome %q: missing player or price", b.Key, m.Key, o.Name)
						continue
					}
					side := strings.ToLower(o.Name)
					if side != "over" && side != "under" {
						logger.Debug("Skipping %s %s outcome %q: not over/under", b.Key, m.Key, o.Name)
						continue
					}
					if !bounds.Allows(o.Price) {
						logger.Warn("Discarding outlier %s %s %s price from %s: %v",
							m.Key, o.Description, side, b.Key, o.Price)
						continue
					}

					key := PropKey{GameID: game.ID, Market: m.Key, Player: o.Description, Point: o.Point}
					id := key.ID()
					g, ok := groups[id]
					if !ok {
						g = &PropGroup{Key: key, Event: game.Event}
						groups[id] = g
						bookIdx[id] = make(map[string]int)
						order = append(order, id)
					}
					i, ok := bookIdx[id][b.Key]
					if !ok {
						i = len(g.Quotes)
						bookIdx[id][b.Key] = i
						g.Quotes = append(g.Quotes, PropQuote{Bookmaker: b.Key})
					}
					if side == "over" {
						g.Quotes[i].Over = o.Price
					} else {
						g.Quotes[i].Under = o.Price
					}
				}
			}
		}
	}

	out := make([]PropGroup, 0, len(order))
	for _, id := range order {
		out = append(out, *groups[id])
	}
	return out
}

// OneWayKey identifies a one-sided market within a game.
type OneWayKey struct {
	GameID string
	Market string
}

// OneWayBook is one bookmaker's "yes" price per candidate.
type OneWayBook struct {
	Bookmaker string
	Prices    map[string]float64
}

// OneWayGroup is a one-sided market with its candidates in first-seen order.
type OneWayGroup struct {
	Key        OneWayKey
	Event      Event
	Candidates []string
	Books      []OneWayBook
}

// GroupOneWay collects one-sided markets per game. The candidate is the
// outcome description, falling back to its name; explicit "No" outcomes
// are ignored.
func GroupOneWay(games []Game, shapes Shapes, bounds Bounds) []OneWayGroup {
	var out []OneWayGroup

	for _, game := range games {
		var order []string
		groups := make(map[string]*OneWayGroup)
		bookIdx := make(map[string]map[string]int)

		for _, b := range game.Bookmakers {
			for _, m := range b.Markets {
				if shapes.Of(m.Key) != ShapeOneWay {
					continue
				}
				g, ok := groups[m.Key]
				if !ok {
					g = &OneWayGroup{Key: OneWayKey{GameID: game.ID, Market: m.Key}, Event: game.Event}
					groups[m.Key] = g
					bookIdx[m.Key] = make(map[string]int)
					order = append(order, m.Key)
				}

				i, ok := bookIdx[m.Key][b.Key]
				if !ok {
					i = len(g.Books)
					bookIdx[m.Key][b.Key] = i
					g.Books = append(g.Books, OneWayBook{Bookmaker: b.Key, Prices: make(map[string]float64)})
				}
				prices := g.Books[i].Prices
				for _, o := range m.Outcomes {
					candidate := o.Description
					if candidate == "" {
						candidate = o.Name
					}
					if candidate == "" || o.Price == 0 || strings.EqualFold(o.Name, "no") {
						continue
					}
					if !bounds.Allows(o.Price) {
						logger.Warn("Discarding outlier %s %s price from %s: %v", m.Key, candidate, b.Key, o.Price)
						continue
					}
					if !slices.Contains(g.Candidates, candidate) {
						g.Candidates = append(g.Candidates, candidate)
					}
					prices[candidate] = o.Price
				}
			}
		}

		for _, k := range order {
			if len(groups[k].Candidates) > 0 {
				out = append(out, *groups[k])
			}
		}
	}
	return out
}
