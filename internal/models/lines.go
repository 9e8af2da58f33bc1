// Package models defines the engine's output entities: consensus lines,
// game records, player props and +EV opportunities.
package models

import (
	"errors"
	"math"
	"time"

	"github.com/rewired-gh/evoracle/internal/books"
	"github.com/rewired-gh/evoracle/internal/odds"
)

// BookmakerOdds is one contributing book's raw pair and its own vig-free
// pair.
type BookmakerOdds struct {
	Bookmaker string     `json:"bookmaker"`
	Type      books.Type `json:"type"`
	VigOdds   odds.Pair  `json:"vigOdds"`
	TrueOdds  *odds.Pair `json:"trueOdds"`
}

// ConsensusLine is the consensus for one two-sided game line. TrueOdds is
// the sharp-only fair anchor; the market pairs are nil when no market book
// contributed.
type ConsensusLine struct {
	Point          *float64        `json:"point"`
	TrueOdds       odds.Pair       `json:"trueOdds"`
	MarketOdds     *odds.Pair      `json:"marketOdds"`
	TrueMarketOdds *odds.Pair      `json:"trueMarketOdds"`
	EVOdds         *odds.Pair      `json:"evOdds,omitempty"`
	BookmakerOdds  []BookmakerOdds `json:"bookmakerOdds"`
}

// Validate checks that the line carries a complete fair pair.
func (l *ConsensusLine) Validate() error {
	if !l.TrueOdds.Complete() {
		return errors.New("true odds must have both sides")
	}
	pA, pB := l.TrueOdds.Probabilities()
	if math.Abs(pA+pB-1) > 1e-4 {
		return errors.New("true odds must be vig-free")
	}
	if len(l.BookmakerOdds) == 0 {
		return errors.New("line must have at least one bookmaker")
	}
	return nil
}

// GameRecord groups every consensus line of one game.
type GameRecord struct {
	ID        string          `json:"id"`
	Sport     string          `json:"sport"`
	SportKey  string          `json:"sportKey"`
	TeamA     string          `json:"teamA"`
	TeamB     string          `json:"teamB"`
	GameTime  time.Time       `json:"gameTime"`
	Moneyline []ConsensusLine `json:"moneyline,omitempty"`
	Spreads   []ConsensusLine `json:"spreads,omitempty"`
	Totals    []ConsensusLine `json:"totals,omitempty"`
}

// HasLines reports whether any market produced a line.
func (g *GameRecord) HasLines() bool {
	return len(g.Moneyline)+len(g.Spreads)+len(g.Totals) > 0
}

// Validate checks record field constraints.
func (g *GameRecord) Validate() error {
	if g.ID == "" {
		return errors.New("game ID must not be empty")
	}
	if g.TeamA == "" || g.TeamB == "" {
		return errors.New("both teams must be set")
	}
	if !g.HasLines() {
		return errors.New("game must have at least one line")
	}
	for _, set := range [][]ConsensusLine{g.Moneyline, g.Spreads, g.Totals} {
		for i := range set {
			if err := set[i].Validate(); err != nil {
				return err
			}
		}
	}
	return nil
}

// GamesFile is the persisted games collection.
type GamesFile struct {
	LastUpdated time.Time    `json:"lastUpdated"`
	Games       []GameRecord `json:"games"`
}

// Snapshot is one run's complete engine output.
type Snapshot struct {
	Games GamesFile
	Props PropsFile
}
