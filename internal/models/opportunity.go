package models

import (
	"errors"
	"time"
)

// Opportunity kinds.
const (
	KindGame   = "game"
	KindProp   = "prop"
	KindOneWay = "one_way"
)

// Opportunity is a bookmaker price whose expected value against the fair
// probability falls inside the configured band.
type Opportunity struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	LineID    string    `json:"lineId"`
	GameID    string    `json:"gameId"`
	Sport     string    `json:"sport"`
	SportKey  string    `json:"sportKey"`
	TeamA     string    `json:"teamA"`
	TeamB     string    `json:"teamB"`
	GameTime  time.Time `json:"gameTime"`
	Market    string    `json:"market"`
	Player    string    `json:"player,omitempty"`
	Point     *float64  `json:"point"`
	Side      string    `json:"side"`
	Bookmaker string    `json:"bookmaker"`
	Odds      float64   `json:"odds"`
	TrueProb  float64   `json:"trueProb"`
	EV        float64   `json:"ev"`
}

// Validate checks opportunity field constraints.
func (o *Opportunity) Validate() error {
	if o.ID == "" {
		return errors.New("opportunity ID must not be empty")
	}
	if o.Bookmaker == "" {
		return errors.New("bookmaker must not be empty")
	}
	if o.Odds > -100 && o.Odds < 100 {
		return errors.New("odds must have magnitude of at least 100")
	}
	if o.TrueProb <= 0 || o.TrueProb >= 1 {
		return errors.New("true probability must be between 0 and 1 exclusive")
	}
	return nil
}

// EVFile is the persisted opportunity collection.
type EVFile struct {
	LastUpdated   time.Time     `json:"lastUpdated"`
	Opportunities []Opportunity `json:"opportunities"`
}
