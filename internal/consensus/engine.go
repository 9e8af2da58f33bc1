// Package consensus turns grouped bookmaker quotes into sharp/market
// consensus lines, player props and one-way candidate probabilities.
package consensus

import (
	"time"

	"github.com/rewired-gh/evoracle/internal/books"
	"github.com/rewired-gh/evoracle/internal/logger"
	"github.com/rewired-gh/evoracle/internal/market"
	"github.com/rewired-gh/evoracle/internal/models"
)

// Engine holds the immutable tables and limits a batch run is evaluated
// against. The zero value of every optional field disables it.
type Engine struct {
	GameLines books.Table
	Props     books.Table
	// EVBenchmark adds a fourth, vig-free pool used as the +EV anchor.
	EVBenchmark books.Table

	AltLineRange float64
	Bounds       market.Bounds
	Filter       market.Filter
	Shapes       market.Shapes
}

func (e *Engine) shapes() market.Shapes {
	if e.Shapes == nil {
		return market.DefaultShapes()
	}
	return e.Shapes
}

// Run processes one fetch cycle. Identical games and now always produce
// identical output.
func (e *Engine) Run(games []market.Game, now time.Time) models.Snapshot {
	games = e.Filter.Apply(games)
	shapes := e.shapes()
	stamp := now.UTC()

	records := make([]models.GameRecord, 0, len(games))
	for _, game := range games {
		if record, ok := e.processGame(game, shapes); ok {
			records = append(records, record)
		}
	}

	props := make([]models.Prop, 0)
	for _, group := range market.GroupProps(games, shapes, e.Bounds) {
		if line := e.ProcessProp(group); line != nil {
			props = append(props, models.Prop{Line: line})
		}
	}
	oneWayCount := 0
	for _, group := range market.GroupOneWay(games, shapes, e.Bounds) {
		for _, entry := range e.ProcessOneWay(group) {
			entry := entry
			props = append(props, models.Prop{OneWay: &entry})
			oneWayCount++
		}
	}

	logger.Info("Processed %d games into %d game records, %d props (%d one-way)",
		len(games), len(records), len(props), oneWayCount)

	return models.Snapshot{
		Games: models.GamesFile{LastUpdated: stamp, Games: records},
		Props: models.PropsFile{LastUpdated: stamp, Props: props},
	}
}

func (e *Engine) processGame(game market.Game, shapes market.Shapes) (models.GameRecord, bool) {
	var moneyline, spreads, totals []market.BookMarket
	for _, b := range game.Bookmakers {
		for _, m := range b.Markets {
			bm := market.BookMarket{Bookmaker: b.Key, Market: m}
			switch shapes.Of(m.Key) {
			case market.ShapeMoneyline:
				moneyline = append(moneyline, bm)
			case market.ShapePointKeyed:
				if kind, _ := market.PointKindOf(m.Key); kind == market.Total {
					totals = append(totals, bm)
				} else {
					spreads = append(spreads, bm)
				}
			case market.ShapePlayerProp, market.ShapeOneWay:
				// grouped across all games
			case market.ShapeUnknown:
				logger.Debug("Ignoring unknown market %s from %s", m.Key, b.Key)
			}
		}
	}

	record := models.GameRecord{
		ID:       game.ID,
		Sport:    game.SportTitle,
		SportKey: game.SportKey,
		TeamA:    game.HomeTeam,
		TeamB:    game.AwayTeam,
		GameTime: game.CommenceTime,
	}

	if len(moneyline) > 0 {
		if line := e.ProcessMoneyline(game, market.GroupMoneyline(game, moneyline, e.Bounds)); line != nil {
			record.Moneyline = []models.ConsensusLine{*line}
		}
	}
	if len(spreads) > 0 {
		lines := e.ProcessGrouped(game, market.GroupPointKeyed(game, spreads, market.Spread, e.Bounds))
		record.Spreads = FilterAltLines(lines, e.AltLineRange)
	}
	if len(totals) > 0 {
		lines := e.ProcessGrouped(game, market.GroupPointKeyed(game, totals, market.Total, e.Bounds))
		record.Totals = FilterAltLines(lines, e.AltLineRange)
	}

	if !record.HasLines() {
		logger.Debug("Dropping game %s: no line with sharp coverage", game.ID)
		return record, false
	}
	return record, true
}
