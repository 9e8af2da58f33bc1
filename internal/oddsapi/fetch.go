package oddsapi

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rewired-gh/evoracle/internal/logger"
	"github.com/rewired-gh/evoracle/internal/market"
)

// ErrNoEvents is returned when nothing in the window matches the request.
var ErrNoEvents = errors.New("no matching events")

// Plan describes one fetch cycle.
type Plan struct {
	Sports []string
	// MarketsFor returns the market keys to request for a sport.
	MarketsFor func(sport string) []string
	Days       int
	Teams      []TeamPair
	Now        time.Time
}

// FetchGames lists events for every sport in parallel, narrows them to the
// plan's window and teams, then requests odds one event at a time.
// A failed event request is logged and skipped.
func (c *Client) FetchGames(ctx context.Context, plan Plan) ([]market.Game, error) {
	lists := make([][]market.Event, len(plan.Sports))

	g, gctx := errgroup.WithContext(ctx)
	for i, sport := range plan.Sports {
		i, sport := i, sport
		g.Go(func() error {
			events, err := c.FetchEvents(gctx, sport)
			if err != nil {
				return err
			}
			lists[i] = events
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []market.Event
	for _, l := range lists {
		all = append(all, l...)
	}

	to := plan.Now.AddDate(0, 0, plan.Days)
	selected := SelectEvents(all, plan.Now, to, plan.Teams)
	logger.Info("Found %d upcoming events, %d within %d days", len(all), len(selected), plan.Days)
	if len(selected) == 0 {
		return nil, ErrNoEvents
	}

	games := make([]market.Game, 0, len(selected))
	for _, e := range selected {
		markets := plan.MarketsFor(e.SportKey)
		if len(markets) == 0 {
			logger.Info("No markets configured for %s vs %s, skipping", e.HomeTeam, e.AwayTeam)
			continue
		}

		game, err := c.FetchEventOdds(ctx, e.SportKey, e.ID, markets)
		if err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("fetch cancelled: %w", ctx.Err())
			}
			logger.Warn("Skipping event %s: %v", e.ID, err)
			continue
		}
		games = append(games, *game)
	}

	logger.Info("Fetched odds for %d events", len(games))
	return games, nil
}
