package consensus

import (
	"github.com/rewired-gh/evoracle/internal/books"
	"github.com/rewired-gh/evoracle/internal/logger"
	"github.com/rewired-gh/evoracle/internal/market"
	"github.com/rewired-gh/evoracle/internal/models"
	"github.com/rewired-gh/evoracle/internal/odds"
)

func optional(price float64) *float64 {
	if price == 0 {
		return nil
	}
	return odds.Price(price)
}

func header(id string, ev market.Event, player, marketKey string) models.PropHeader {
	return models.PropHeader{
		PropID:   id,
		GameID:   ev.ID,
		Sport:    ev.SportTitle,
		SportKey: ev.SportKey,
		GameTime: ev.CommenceTime,
		TeamA:    ev.HomeTeam,
		TeamB:    ev.AwayTeam,
		Player:   player,
		Market:   marketKey,
	}
}

// ProcessProp builds the over/under consensus for one prop line. Over and
// Under pool separately, so a book quoting one side still moves that
// side. It returns nil unless sharp books cover both sides.
func (e *Engine) ProcessProp(group market.PropGroup) *models.PropLine {
	sportKey := group.Event.SportKey

	var p pools
	var audit []models.PropBookmakerOdds
	for _, q := range group.Quotes {
		e.benchmark(&p, q.Bookmaker, sportKey, q.Over, q.Under)

		res, ok := e.Props.Resolve(q.Bookmaker, sportKey)
		if !ok {
			continue
		}

		vig := odds.Pair{A: optional(q.Over), B: optional(q.Under)}
		audit = append(audit, models.PropBookmakerOdds{
			Bookmaker: q.Bookmaker,
			Type:      res.Type,
			VigOdds:   models.FromPair(vig),
			TrueOdds:  models.FromPairPtr(odds.VigFree(vig)),
		})
		p.add(res.Type, odds.Observation{A: q.Over, B: q.Under, Weight: res.Weight})
	}

	agg := p.aggregate(odds.AggregateSides, odds.RemoveVigIfOverround)
	if agg.trueOdds == nil {
		logger.Debug("Prop %s: no sharp coverage of both sides", group.Key.ID())
		return nil
	}

	return &models.PropLine{
		PropHeader:     header(group.Key.ID(), group.Event, group.Key.Player, group.Key.Market),
		Point:          group.Key.Point,
		TrueOdds:       models.FromPair(*agg.trueOdds),
		MarketOdds:     models.FromPairPtr(agg.marketOdds),
		TrueMarketOdds: models.FromPairPtr(agg.trueMarketOdds),
		EVOdds:         models.FromPairPtr(agg.evOdds),
		BookmakerOdds:  audit,
	}
}

type candidateSum struct {
	weighted float64
	weight   float64
}

// ProcessOneWay estimates each candidate's probability from sharp books
// only. A sharp book's implied probability for a candidate is normalized
// by the sum over every candidate it quotes, then weight-averaged across
// sharp books. Books quoting a single candidate carry no overround signal
// and are left out. Candidates with no sharp quote are dropped.
func (e *Engine) ProcessOneWay(group market.OneWayGroup) []models.OneWayProp {
	sportKey := group.Event.SportKey

	type bookQuote struct {
		res  books.Resolution
		book market.OneWayBook
		norm map[string]float64
	}

	var classified []bookQuote
	sums := make(map[string]*candidateSum)

	for _, b := range group.Books {
		res, ok := e.Props.Resolve(b.Bookmaker, sportKey)
		if !ok {
			continue
		}
		bq := bookQuote{res: res, book: b}

		if res.Type == books.Sharp && len(b.Prices) >= 2 {
			// Summed in candidate order so the result is reproducible.
			var total float64
			for _, c := range group.Candidates {
				if price, ok := b.Prices[c]; ok {
					total += odds.Implied(price)
				}
			}
			if total > 0 {
				bq.norm = make(map[string]float64, len(b.Prices))
				for _, c := range group.Candidates {
					price, ok := b.Prices[c]
					if !ok {
						continue
					}
					prob := odds.Implied(price) / total
					bq.norm[c] = prob

					s, ok := sums[c]
					if !ok {
						s = &candidateSum{}
						sums[c] = s
					}
					s.weighted += prob * res.Weight
					s.weight += res.Weight
				}
			}
		}
		classified = append(classified, bq)
	}

	var out []models.OneWayProp
	for _, c := range group.Candidates {
		s, ok := sums[c]
		if !ok || s.weight == 0 {
			logger.Debug("One-way %s/%s: no sharp quote for %s", group.Key.GameID, group.Key.Market, c)
			continue
		}
		trueProb := s.weighted / s.weight
		trueOdds := odds.ProbToAmerican(trueProb)
		if trueOdds == nil {
			continue
		}

		var audit []models.OneWayBookmakerOdds
		for _, bq := range classified {
			price, ok := bq.book.Prices[c]
			if !ok {
				continue
			}
			rec := models.OneWayBookmakerOdds{Bookmaker: bq.book.Bookmaker, Type: bq.res.Type, VigOdds: price}
			if prob, ok := bq.norm[c]; ok {
				rec.TrueProb = &prob
			}
			audit = append(audit, rec)
		}

		id := market.PropKey{GameID: group.Key.GameID, Market: group.Key.Market, Player: c}.ID()
		out = append(out, models.OneWayProp{
			PropHeader:    header(id, group.Event, c, group.Key.Market),
			OneWay:        true,
			TrueProb:      trueProb,
			TrueOdds:      trueOdds,
			BookmakerOdds: audit,
		})
	}
	return out
}
