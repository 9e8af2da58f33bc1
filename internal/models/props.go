package models

import (
	"encoding/json"
	"time"

	"github.com/rewired-gh/evoracle/internal/books"
	"github.com/rewired-gh/evoracle/internal/odds"
)

// OverUnder is the prop rendition of a two-sided pair.
type OverUnder struct {
	Over  *float64 `json:"over"`
	Under *float64 `json:"under"`
}

// FromPair maps side A to over and side B to under.
func FromPair(p odds.Pair) OverUnder {
	return OverUnder{Over: p.A, Under: p.B}
}

// FromPairPtr is FromPair preserving nil.
func FromPairPtr(p *odds.Pair) *OverUnder {
	if p == nil {
		return nil
	}
	ou := FromPair(*p)
	return &ou
}

// Pair converts back to the generic representation.
func (o OverUnder) Pair() odds.Pair {
	return odds.Pair{A: o.Over, B: o.Under}
}

// PropHeader describes the game and player a prop belongs to.
type PropHeader struct {
	PropID   string    `json:"propId"`
	GameID   string    `json:"gameId"`
	Sport    string    `json:"sport"`
	SportKey string    `json:"sportKey"`
	GameTime time.Time `json:"gameTime"`
	TeamA    string    `json:"teamA"`
	TeamB    string    `json:"teamB"`
	Player   string    `json:"player"`
	Market   string    `json:"market"`
}

type PropBookmakerOdds struct {
	Bookmaker string     `json:"bookmaker"`
	Type      books.Type `json:"type"`
	VigOdds   OverUnder  `json:"vigOdds"`
	TrueOdds  *OverUnder `json:"trueOdds"`
}

// PropLine is the consensus for one over/under player prop.
type PropLine struct {
	PropHeader
	Point          *float64            `json:"point"`
	TrueOdds       OverUnder           `json:"trueOdds"`
	MarketOdds     *OverUnder          `json:"marketOdds"`
	TrueMarketOdds *OverUnder          `json:"trueMarketOdds"`
	EVOdds         *OverUnder          `json:"evOdds,omitempty"`
	BookmakerOdds  []PropBookmakerOdds `json:"bookmakerOdds"`
}

// OneWayBookmakerOdds is one book's "yes" price. TrueProb is the price
// normalized against the book's own market and is set for sharp books only.
type OneWayBookmakerOdds struct {
	Bookmaker string     `json:"bookmaker"`
	Type      books.Type `json:"type"`
	VigOdds   float64    `json:"vigOdds"`
	TrueProb  *float64   `json:"trueProb"`
}

// OneWayProp is the consensus for one candidate of a one-sided market.
type OneWayProp struct {
	PropHeader
	Point         *float64              `json:"point"`
	OneWay        bool                  `json:"oneWay"`
	TrueProb      float64               `json:"trueProb"`
	TrueOdds      *float64              `json:"trueOdds"`
	BookmakerOdds []OneWayBookmakerOdds `json:"bookmakerOdds"`
}

// Prop holds exactly one of a two-sided line or a one-way entry and
// serializes as whichever is set.
type Prop struct {
	Line   *PropLine
	OneWay *OneWayProp
}

// Header returns the shared descriptive fields.
func (p Prop) Header() PropHeader {
	if p.OneWay != nil {
		return p.OneWay.PropHeader
	}
	if p.Line != nil {
		return p.Line.PropHeader
	}
	return PropHeader{}
}

func (p Prop) MarshalJSON() ([]byte, error) {
	if p.OneWay != nil {
		return json.Marshal(p.OneWay)
	}
	return json.Marshal(p.Line)
}

func (p *Prop) UnmarshalJSON(data []byte) error {
	var probe struct {
		OneWay bool `json:"oneWay"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return err
	}
	if probe.OneWay {
		p.OneWay = new(OneWayProp)
		return json.Unmarshal(data, p.OneWay)
	}
	p.Line = new(PropLine)
	return json.Unmarshal(data, p.Line)
}

// PropsFile is the persisted player-props collection.
type PropsFile struct {
	LastUpdated time.Time `json:"lastUpdated"`
	Props       []Prop    `json:"props"`
}
