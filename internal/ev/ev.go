// Package ev scans a consensus snapshot for bookmaker prices whose expected
// value against the fair probability is positive.
package ev

import (
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/rewired-gh/evoracle/internal/market"
	"github.com/rewired-gh/evoracle/internal/models"
	"github.com/rewired-gh/evoracle/internal/odds"
)

var namespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/rewired-gh/evoracle/ev"))

// Options bounds the opportunities Find returns. MaxEV of zero is
// unbounded; empty Books or Markets match everything.
type Options struct {
	MinEV   float64
	MaxEV   float64
	Books   []string
	Markets []string
}

func (o Options) keep(book, marketKey string, ev float64) bool {
	if ev < o.MinEV || (o.MaxEV != 0 && ev > o.MaxEV) {
		return false
	}
	if len(o.Books) > 0 && !contains(o.Books, book) {
		return false
	}
	if len(o.Markets) > 0 && !contains(o.Markets, marketKey) {
		return false
	}
	return true
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}

// Value is the expected return per unit staked at price when the outcome
// wins with probability trueProb.
func Value(trueProb, price float64) float64 {
	return trueProb*odds.AmericanToDecimal(price) - 1
}

// OpportunityID derives a stable ID from the line, book and side.
func OpportunityID(lineID, marketKey string, point *float64, book, side string) string {
	name := strings.Join([]string{lineID, marketKey, market.FormatPoint(point), book, side}, "|")
	return uuid.NewSHA1(namespace, []byte(name)).String()
}

type finder struct {
	opts Options
	out  []models.Opportunity
}

func (f *finder) add(base models.Opportunity, side, book string, price *float64, trueProb float64) {
	if price == nil || trueProb <= 0 || trueProb >= 1 {
		return
	}
	ev := Value(trueProb, *price)
	if !f.opts.keep(book, base.Market, ev) {
		return
	}
	o := base
	o.ID = OpportunityID(base.LineID, base.Market, base.Point, book, side)
	o.Side = side
	o.Bookmaker = book
	o.Odds = *price
	o.TrueProb = trueProb
	o.EV = ev
	f.out = append(f.out, o)
}

// anchor prefers the EV benchmark pair over the sharp consensus.
func anchor(evOdds *odds.Pair, trueOdds odds.Pair) (float64, float64) {
	if evOdds != nil && evOdds.Complete() {
		return evOdds.Probabilities()
	}
	return trueOdds.Probabilities()
}

// Find returns every bookmaker price in snap whose EV lies within opts,
// sorted by EV descending then ID.
func Find(snap models.Snapshot, opts Options) []models.Opportunity {
	f := &finder{opts: opts}

	for _, g := range snap.Games.Games {
		base := models.Opportunity{
			Kind:     models.KindGame,
			LineID:   g.ID,
			GameID:   g.ID,
			Sport:    g.Sport,
			SportKey: g.SportKey,
			TeamA:    g.TeamA,
			TeamB:    g.TeamB,
			GameTime: g.GameTime,
		}
		sets := []struct {
			key          string
			lines        []models.ConsensusLine
			sideA, sideB string
		}{
			{"moneyline", g.Moneyline, g.TeamA, g.TeamB},
			{"spreads", g.Spreads, g.TeamA, g.TeamB},
			{"totals", g.Totals, "Over", "Under"},
		}
		for _, set := range sets {
			for _, line := range set.lines {
				pA, pB := anchor(line.EVOdds, line.TrueOdds)
				b := base
				b.Market = set.key
				b.Point = line.Point
				for _, book := range line.BookmakerOdds {
					f.add(b, set.sideA, book.Bookmaker, book.VigOdds.A, pA)
					f.add(b, set.sideB, book.Bookmaker, book.VigOdds.B, pB)
				}
			}
		}
	}

	for _, p := range snap.Props.Props {
		h := p.Header()
		base := models.Opportunity{
			LineID:   h.PropID,
			GameID:   h.GameID,
			Sport:    h.Sport,
			SportKey: h.SportKey,
			TeamA:    h.TeamA,
			TeamB:    h.TeamB,
			GameTime: h.GameTime,
			Market:   h.Market,
			Player:   h.Player,
		}

		switch {
		case p.Line != nil:
			base.Kind = models.KindProp
			base.Point = p.Line.Point
			var evPair *odds.Pair
			if p.Line.EVOdds != nil {
				pair := p.Line.EVOdds.Pair()
				evPair = &pair
			}
			pOver, pUnder := anchor(evPair, p.Line.TrueOdds.Pair())
			for _, book := range p.Line.BookmakerOdds {
				f.add(base, "Over", book.Bookmaker, book.VigOdds.Over, pOver)
				f.add(base, "Under", book.Bookmaker, book.VigOdds.Under, pUnder)
			}
		case p.OneWay != nil:
			base.Kind = models.KindOneWay
			for _, book := range p.OneWay.BookmakerOdds {
				price := book.VigOdds
				f.add(base, "Yes", book.Bookmaker, &price, p.OneWay.TrueProb)
			}
		}
	}

	sort.SliceStable(f.out, func(i, j int) bool {
		if f.out[i].EV != f.out[j].EV {
			return f.out[i].EV > f.out[j].EV
		}
		return f.out[i].ID < f.out[j].ID
	})
	return f.out
}

// Top returns at most k opportunities; k <= 0 returns all.
func Top(opps []models.Opportunity, k int) []models.Opportunity {
	if k <= 0 || len(opps) <= k {
		return opps
	}
	return opps[:k]
}

// BySport groups opportunities by sport key, preserving order.
func BySport(opps []models.Opportunity) map[string][]models.Opportunity {
	out := make(map[string][]models.Opportunity)
	for _, o := range opps {
		out[o.SportKey] = append(out[o.SportKey], o)
	}
	return out
}
