// Package publisher pushes engine output to Redis: the latest snapshot as
// plain keys and each run's opportunities onto per-sport streams.
package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rewired-gh/evoracle/internal/ev"
	"github.com/rewired-gh/evoracle/internal/logger"
	"github.com/rewired-gh/evoracle/internal/models"
)

// Client is the subset of the Redis API the publisher needs.
type Client interface {
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd
}

// StreamPublisher publishes snapshots and opportunities to Redis.
type StreamPublisher struct {
	client Client
	prefix string
	maxLen int64
}

// NewStreamPublisher creates a new stream publisher. maxLen caps each
// stream approximately; zero leaves streams unbounded.
func NewStreamPublisher(client Client, prefix string, maxLen int64) *StreamPublisher {
	return &StreamPublisher{client: client, prefix: prefix, maxLen: maxLen}
}

// GamesKey is the key holding the latest games file.
func (p *StreamPublisher) GamesKey() string { return p.prefix + ":games" }

// PropsKey is the key holding the latest props file.
func (p *StreamPublisher) PropsKey() string { return p.prefix + ":props" }

// StreamKey is the opportunity stream for one sport.
func (p *StreamPublisher) StreamKey(sportKey string) string {
	return fmt.Sprintf("%s.ev.%s", p.prefix, sportKey)
}

// PublishSnapshot stores the games and props files under their keys.
func (p *StreamPublisher) PublishSnapshot(ctx context.Context, snap models.Snapshot) error {
	for _, kv := range []struct {
		key string
		v   any
	}{
		{p.GamesKey(), snap.Games},
		{p.PropsKey(), snap.Props},
	} {
		data, err := json.Marshal(kv.v)
		if err != nil {
			return fmt.Errorf("failed to marshal %s: %w", kv.key, err)
		}
		if err := p.client.Set(ctx, kv.key, data, 0).Err(); err != nil {
			return fmt.Errorf("failed to set %s: %w", kv.key, err)
		}
	}
	return nil
}

// PublishOpportunity appends a single opportunity to its sport's stream.
func (p *StreamPublisher) PublishOpportunity(ctx context.Context, opportunity models.Opportunity) error {
	opportunityJSON, err := json.Marshal(opportunity)
	if err != nil {
		return fmt.Errorf("failed to marshal opportunity: %w", err)
	}

	streamKey := p.StreamKey(opportunity.SportKey)
	args := &redis.XAddArgs{
		Stream: streamKey,
		Values: map[string]any{
			"id":          opportunity.ID,
			"opportunity": string(opportunityJSON),
		},
	}
	if p.maxLen > 0 {
		args.MaxLen = p.maxLen
		args.Approx = true
	}

	if err := p.client.XAdd(ctx, args).Err(); err != nil {
		return fmt.Errorf("failed to publish to stream %s: %w", streamKey, err)
	}
	return nil
}

// PublishOpportunities appends opportunities sport by sport, in sport key
// order, and returns how many were published.
func (p *StreamPublisher) PublishOpportunities(ctx context.Context, opportunities []models.Opportunity) (int, error) {
	if len(opportunities) == 0 {
		return 0, nil
	}

	bySport := ev.BySport(opportunities)
	sports := make([]string, 0, len(bySport))
	for sport := range bySport {
		sports = append(sports, sport)
	}
	sort.Strings(sports)

	published := 0
	for _, sport := range sports {
		for _, opp := range bySport[sport] {
			if err := p.PublishOpportunity(ctx, opp); err != nil {
				return published, err
			}
			published++
		}
		logger.Debug("Published %d opportunities to %s", len(bySport[sport]), p.StreamKey(sport))
	}
	return published, nil
}
