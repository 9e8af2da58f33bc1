package consensus

import (
	"github.com/rewired-gh/evoracle/internal/books"
	"github.com/rewired-gh/evoracle/internal/logger"
	"github.com/rewired-gh/evoracle/internal/market"
	"github.com/rewired-gh/evoracle/internal/models"
	"github.com/rewired-gh/evoracle/internal/odds"
)

// pools splits classified observations by the pool they join.
type pools struct {
	sharp  []odds.Observation
	market []odds.Observation
	ev     []odds.Observation
}

func (p *pools) add(t books.Type, o odds.Observation) {
	if t == books.Sharp {
		p.sharp = append(p.sharp, o)
	} else {
		p.market = append(p.market, o)
	}
}

// aggregated is the consensus of every pool for one line.
type aggregated struct {
	trueOdds       *odds.Pair
	marketOdds     *odds.Pair
	trueMarketOdds *odds.Pair
	evOdds         *odds.Pair
}

// blendFunc is odds.Aggregate for paired lines or odds.AggregateSides
// when each side pools on its own.
type blendFunc func([]odds.Observation, odds.VigPolicy) *odds.Pair

// aggregate blends each pool. The vig-free passes use fair; market odds
// always retain the margin.
func (p *pools) aggregate(blend blendFunc, fair odds.VigPolicy) aggregated {
	a := aggregated{trueOdds: blend(p.sharp, fair)}
	if len(p.market) > 0 {
		a.marketOdds = blend(p.market, odds.RetainVig)
		a.trueMarketOdds = blend(p.market, fair)
	}
	if len(p.ev) > 0 {
		a.evOdds = blend(p.ev, odds.RemoveVig)
	}
	return a
}

// benchmark adds the quote to the EV pool when the book is in the EV table.
func (e *Engine) benchmark(p *pools, bookmaker, sportKey string, a, b float64) {
	if len(e.EVBenchmark) == 0 {
		return
	}
	if res, ok := e.EVBenchmark.Resolve(bookmaker, sportKey); ok {
		p.ev = append(p.ev, odds.Observation{A: a, B: b, Weight: res.Weight})
	}
}

func (e *Engine) buildLine(sportKey string, quotes []market.Matched, point *float64) *models.ConsensusLine {
	var p pools
	var audit []models.BookmakerOdds

	for _, q := range quotes {
		e.benchmark(&p, q.Bookmaker, sportKey, q.A, q.B)

		res, ok := e.GameLines.Resolve(q.Bookmaker, sportKey)
		if !ok {
			continue
		}
		vig := odds.NewPair(q.A, q.B)
		audit = append(audit, models.BookmakerOdds{
			Bookmaker: q.Bookmaker,
			Type:      res.Type,
			VigOdds:   vig,
			TrueOdds:  odds.VigFree(vig),
		})
		p.add(res.Type, odds.Observation{A: q.A, B: q.B, Weight: res.Weight})
	}

	agg := p.aggregate(odds.Aggregate, odds.RemoveVig)
	if agg.trueOdds == nil {
		return nil
	}
	return &models.ConsensusLine{
		Point:          point,
		TrueOdds:       *agg.trueOdds,
		MarketOdds:     agg.marketOdds,
		TrueMarketOdds: agg.trueMarketOdds,
		EVOdds:         agg.evOdds,
		BookmakerOdds:  audit,
	}
}

// ProcessMoneyline builds the moneyline consensus, or nil when no sharp
// book produced a fair pair.
func (e *Engine) ProcessMoneyline(game market.Game, quotes []market.Matched) *models.ConsensusLine {
	line := e.buildLine(game.SportKey, quotes, nil)
	if line == nil && len(quotes) > 0 {
		logger.Debug("No sharp moneyline for %s", game.ID)
	}
	return line
}

// ProcessGrouped builds one consensus line per point, in group order.
// Points without sharp coverage are dropped.
func (e *Engine) ProcessGrouped(game market.Game, groups []market.PointGroup) []models.ConsensusLine {
	var lines []models.ConsensusLine
	for _, g := range groups {
		point := g.Point
		if line := e.buildLine(game.SportKey, g.Quotes, &point); line != nil {
			lines = append(lines, *line)
		}
	}
	return lines
}

// FilterAltLines keeps lines within rangeLimit of the main line, the first
// line with the most contributing bookmakers. It only applies with at
// least two lines and a positive range.
func FilterAltLines(lines []models.ConsensusLine, rangeLimit float64) []models.ConsensusLine {
	if len(lines) < 2 || rangeLimit <= 0 {
		return lines
	}

	main := -1
	maxBooks := 0
	for i, l := range lines {
		if l.Point != nil && len(l.BookmakerOdds) > maxBooks {
			maxBooks = len(l.BookmakerOdds)
			main = i
		}
	}
	if main < 0 {
		return lines
	}

	center := *lines[main].Point
	kept := make([]models.ConsensusLine, 0, len(lines))
	for _, l := range lines {
		if l.Point != nil && *l.Point >= center-rangeLimit && *l.Point <= center+rangeLimit {
			kept = append(kept, l)
		}
	}
	return kept
}
