// Package market holds the odds-provider input contract and turns flat
// bookmaker quotes into matched two-sided pairs or one-way candidate sets.
package market

import "time"

// Event is the descriptive header of a game, without quotes.
type Event struct {
	ID           string    `json:"id"`
	SportKey     string    `json:"sport_key"`
	SportTitle   string    `json:"sport_title"`
	HomeTeam     string    `json:"home_team"`
	AwayTeam     string    `json:"away_team"`
	CommenceTime time.Time `json:"commence_time"`
}

// Game is one event with every bookmaker's markets, as returned by the
// event-odds endpoint.
type Game struct {
	Event
	Bookmakers []Bookmaker `json:"bookmakers"`
}

// Bookmaker is one book's markets for an event.
type Bookmaker struct {
	Key        string    `json:"key"`
	Title      string    `json:"title,omitempty"`
	LastUpdate time.Time `json:"last_update,omitempty"`
	Markets    []Market  `json:"markets"`
}

// Market is one market key's outcomes as quoted by a single book.
type Market struct {
	Key      string    `json:"key"`
	Outcomes []Outcome `json:"outcomes"`
}

// Outcome is one side of a market. A zero price means the quote is absent.
type Outcome struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Price       float64  `json:"price"`
	Point       *float64 `json:"point,omitempty"`
}

// BookMarket is a market tagged with the bookmaker that quoted it.
type BookMarket struct {
	Bookmaker string
	Market
}

// Markets flattens the game's markets whose key is in keys, in bookmaker
// then market order.
func (g Game) Markets(keys ...string) []BookMarket {
	want := make(map[string]bool, len(keys))
	for _, k := range keys {
		want[k] = true
	}

	var out []BookMarket
	for _, b := range g.Bookmakers {
		for _, m := range b.Markets {
			if want[m.Key] {
				out = append(out, BookMarket{Bookmaker: b.Key, Market: m})
			}
		}
	}
	return out
}
