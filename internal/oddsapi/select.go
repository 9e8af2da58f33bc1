package oddsapi

import (
	"fmt"
	"strings"
	"time"

	"github.com/rewired-gh/evoracle/internal/market"
)

// TeamPair selects a game by two team name fragments.
type TeamPair struct {
	A string
	B string
}

// ParseTeamPairs groups positional arguments into pairs.
func ParseTeamPairs(args []string) ([]TeamPair, error) {
	if len(args)%2 != 0 {
		return nil, fmt.Errorf("teams must be given in pairs, got %d names", len(args))
	}
	pairs := make([]TeamPair, 0, len(args)/2)
	for i := 0; i < len(args); i += 2 {
		pairs = append(pairs, TeamPair{A: strings.ToLower(args[i]), B: strings.ToLower(args[i+1])})
	}
	return pairs, nil
}

// Matches reports whether the event's teams contain the pair, in either
// orientation, ignoring case.
func (p TeamPair) Matches(e market.Event) bool {
	home := strings.ToLower(e.HomeTeam)
	away := strings.ToLower(e.AwayTeam)
	a, b := strings.ToLower(p.A), strings.ToLower(p.B)
	return (strings.Contains(home, a) && strings.Contains(away, b)) ||
		(strings.Contains(home, b) && strings.Contains(away, a))
}

// SelectEvents keeps events starting strictly inside (from, to) and, when
// pairs is non-empty, matching at least one pair.
func SelectEvents(events []market.Event, from, to time.Time, pairs []TeamPair) []market.Event {
	var out []market.Event
	for _, e := range events {
		if !e.CommenceTime.After(from) || !e.CommenceTime.Before(to) {
			continue
		}
		if len(pairs) > 0 && !matchesAny(pairs, e) {
			continue
		}
		out = append(out, e)
	}
	return out
}

func matchesAny(pairs []TeamPair, e market.Event) bool {
	for _, p := range pairs {
		if p.Matches(e) {
			return true
		}
	}
	return false
}
