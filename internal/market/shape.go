package market

import (
	"sort"
	"strings"
)

// Shape is the structural family a market key belongs to.
type Shape int

const (
	ShapeUnknown Shape = iota
	ShapeMoneyline
	ShapePointKeyed
	ShapePlayerProp
	ShapeOneWay
)

func (s Shape) String() string {
	switch s {
	case ShapeMoneyline:
		return "moneyline"
	case ShapePointKeyed:
		return "point_keyed"
	case ShapePlayerProp:
		return "player_prop"
	case ShapeOneWay:
		return "one_way"
	default:
		return "unknown"
	}
}

// PointKind tells spreads from totals within point-keyed markets.
type PointKind int

const (
	Spread PointKind = iota
	Total
)

func (k PointKind) String() string {
	if k == Total {
		return "totals"
	}
	return "spreads"
}

// Market keys of the game-line families.
const (
	KeyMoneyline        = "h2h"
	KeySpreads          = "spreads"
	KeyAlternateSpreads = "alternate_spreads"
	KeyTotals           = "totals"
	KeyAlternateTotals  = "alternate_totals"
)

var (
	SpreadKeys = []string{KeySpreads, KeyAlternateSpreads}
	TotalKeys  = []string{KeyTotals, KeyAlternateTotals}
)

// DefaultCategories returns the market categories that can be enabled per
// sport.
func DefaultCategories() map[string][]string {
	return map[string][]string{
		"game_lines":      {KeyMoneyline, KeySpreads, KeyTotals},
		"alternate_lines": {KeyAlternateSpreads, KeyAlternateTotals},
		"nfl_player_props": {
			"player_passing_yds", "player_pass_tds", "player_pass_completions",
			"player_pass_attempts", "player_pass_interceptions", "player_rushing_yds",
			"player_rush_attempts", "player_receiving_yds", "player_receptions",
			"player_anytime_td",
		},
		"nba_player_props": {
			"player_points", "player_rebounds", "player_assists", "player_threes",
			"player_steals", "player_blocks", "player_turnovers",
		},
		"mlb_batting_props": {
			"batter_home_runs", "batter_hits", "batter_total_bases", "batter_rbis",
			"batter_runs_scored",
		},
		"mlb_pitching_props": {
			"pitcher_strikeouts", "pitcher_hits_allowed", "pitcher_walks",
			"pitcher_earned_runs",
		},
	}
}

// DefaultOneWay lists markets quoted as a single "yes" price per candidate.
func DefaultOneWay() []string {
	return []string{"player_anytime_td"}
}

// Shapes maps market keys to their shape. It is built once and read-only.
type Shapes map[string]Shape

// NewShapes classifies every key in categories and marks the oneWay keys,
// which take precedence over the key's natural shape.
func NewShapes(categories map[string][]string, oneWay []string) Shapes {
	s := make(Shapes)
	for _, keys := range categories {
		for _, k := range keys {
			if shape := classify(k); shape != ShapeUnknown {
				s[k] = shape
			}
		}
	}
	for _, k := range oneWay {
		s[k] = ShapeOneWay
	}
	return s
}

// DefaultShapes covers the built-in catalog.
func DefaultShapes() Shapes {
	return NewShapes(DefaultCategories(), DefaultOneWay())
}

func classify(key string) Shape {
	switch key {
	case KeyMoneyline:
		return ShapeMoneyline
	case KeySpreads, KeyAlternateSpreads, KeyTotals, KeyAlternateTotals:
		return ShapePointKeyed
	}
	for _, prefix := range []string{"player_", "batter_", "pitcher_"} {
		if strings.HasPrefix(key, prefix) {
			return ShapePlayerProp
		}
	}
	return ShapeUnknown
}

// Of resolves key, returning ShapeUnknown for keys outside the table.
func (s Shapes) Of(key string) Shape {
	return s[key]
}

// Keys returns the keys of the given shape in sorted order.
func (s Shapes) Keys(shape Shape) []string {
	var keys []string
	for k, v := range s {
		if v == shape {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

// PointKindOf reports whether key is a spreads or totals market.
func PointKindOf(key string) (PointKind, bool) {
	switch key {
	case KeySpreads, KeyAlternateSpreads:
		return Spread, true
	case KeyTotals, KeyAlternateTotals:
		return Total, true
	}
	return 0, false
}
