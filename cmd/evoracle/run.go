package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/rewired-gh/evoracle/internal/config"
	"github.com/rewired-gh/evoracle/internal/consensus"
	"github.com/rewired-gh/evoracle/internal/ev"
	"github.com/rewired-gh/evoracle/internal/logger"
	"github.com/rewired-gh/evoracle/internal/market"
	"github.com/rewired-gh/evoracle/internal/models"
	"github.com/rewired-gh/evoracle/internal/oddsapi"
	"github.com/rewired-gh/evoracle/internal/publisher"
	"github.com/rewired-gh/evoracle/internal/server"
	"github.com/rewired-gh/evoracle/internal/storage"
	"github.com/rewired-gh/evoracle/internal/telegram"
)

// runner carries everything one fetch, process, persist and notify cycle
// needs. Optional collaborators are nil when disabled.
type runner struct {
	cfg        *config.Config
	engine     *consensus.Engine
	evOpts     ev.Options
	store      *storage.Storage
	state      *server.State
	client     *oddsapi.Client
	publisher  *publisher.StreamPublisher
	telegram   *telegram.Client
	marketsFor func(sport string) []string
	teams      []oddsapi.TeamPair
	input      string

	consecutiveFailures int
}

func (r *runner) run(ctx context.Context) error {
	startTime := time.Now()
	logger.Info("Starting run")

	games, err := r.loadGames(ctx)
	if errors.Is(err, errNothingToProcess) {
		logger.Info("No matching events, nothing to process")
		return nil
	}
	if err != nil {
		return err
	}

	snap := r.engine.Run(games, time.Now())
	opps := ev.Find(snap, r.evOpts)
	if opps == nil {
		opps = []models.Opportunity{}
	}
	logger.Info("Found %d +EV opportunities", len(opps))

	runID, err := r.store.SaveRun(snap, opps)
	if err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}
	if n, err := r.store.CountRuns(); err == nil {
		logger.Debug("Stored run %s (%d runs retained)", runID, n)
	}
	evFile := models.EVFile{LastUpdated: snap.Games.LastUpdated, Opportunities: opps}
	if err := storage.WriteSnapshot(r.cfg.Storage.OutputDir, snap, evFile); err != nil {
		return fmt.Errorf("failed to write output files: %w", err)
	}
	logger.Info("Wrote %d games and %d props to %s", len(snap.Games.Games), len(snap.Props.Props), r.cfg.Storage.OutputDir)

	r.state.Set(runID, snap, opps)
	r.publish(ctx, snap, opps)
	r.notify(runID, snap.Games.LastUpdated)

	logger.Info("Run %s completed in %v", runID, time.Since(startTime))
	return nil
}

// restore seeds the served state from the last stored run so the API
// answers before the first run of this process completes.
func (r *runner) restore() {
	run, err := r.store.LatestRun()
	if err != nil {
		logger.Warn("Failed to load previous run: %v", err)
		return
	}
	if run == nil {
		return
	}
	opps := ev.Find(run.Snapshot, r.evOpts)
	r.state.Set(run.ID, run.Snapshot, opps)
	logger.Info("Restored run %s (%d games, %d props)", run.ID, len(run.Snapshot.Games.Games), len(run.Snapshot.Props.Props))
}

func (r *runner) loadGames(ctx context.Context) ([]market.Game, error) {
	if r.input != "" {
		data, err := os.ReadFile(r.input)
		if err != nil {
			return nil, fmt.Errorf("failed to read input: %w", err)
		}
		var games []market.Game
		if err := json.Unmarshal(data, &games); err != nil {
			return nil, fmt.Errorf("failed to parse input %s: %w", r.input, err)
		}
		logger.Info("Loaded %d games from %s", len(games), r.input)
		return games, nil
	}

	games, err := r.client.FetchGames(ctx, oddsapi.Plan{
		Sports:     r.cfg.SportKeys(),
		MarketsFor: r.marketsFor,
		Days:       r.cfg.OddsAPI.DaysAhead,
		Teams:      r.teams,
		Now:        time.Now(),
	})
	if errors.Is(err, oddsapi.ErrNoEvents) {
		return nil, errNothingToProcess
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch odds: %w", err)
	}
	return games, nil
}

func (r *runner) publish(ctx context.Context, snap models.Snapshot, opps []models.Opportunity) {
	if r.publisher == nil {
		return
	}
	if err := r.publisher.PublishSnapshot(ctx, snap); err != nil {
		logger.Warn("Failed to publish snapshot: %v", err)
		return
	}
	n, err := r.publisher.PublishOpportunities(ctx, opps)
	if err != nil {
		logger.Warn("Published %d of %d opportunities: %v", n, len(opps), err)
		return
	}
	logger.Debug("Published snapshot and %d opportunities", n)
}

func (r *runner) notify(runID string, detectedAt time.Time) {
	if r.telegram == nil {
		return
	}
	top, err := r.store.TopOpportunities(runID, r.cfg.EV.TopK, r.cfg.Telegram.Cooldown)
	if err != nil {
		logger.Error("Failed to load top opportunities: %v", err)
		return
	}
	if len(top) == 0 {
		logger.Info("No opportunities to notify this run")
		return
	}
	if err := r.telegram.SendOpportunities(top, detectedAt); err != nil {
		logger.Error("Failed to send Telegram notification: %v", err)
		return
	}
	ids := make([]string, len(top))
	for i, o := range top {
		ids[i] = o.ID
	}
	if err := r.store.MarkNotified(runID, ids); err != nil {
		logger.Warn("Failed to mark opportunities notified: %v", err)
	}
	logger.Info("Sent Telegram digest with top %d opportunities", len(top))
}

// handleResult reports the first failure of a streak and the recovery
// after it.
func (r *runner) handleResult(err error) {
	if err != nil {
		r.consecutiveFailures++
		logger.Error("Run failed: %v", err)
		if r.consecutiveFailures == 1 && r.telegram != nil {
			if sendErr := r.telegram.SendError(err); sendErr != nil {
				logger.Warn("Failed to send error notification to Telegram: %v", sendErr)
			}
		}
		return
	}
	if r.consecutiveFailures > 0 && r.telegram != nil {
		if sendErr := r.telegram.SendRecovery(r.consecutiveFailures); sendErr != nil {
			logger.Warn("Failed to send recovery notification to Telegram: %v", sendErr)
		}
	}
	r.consecutiveFailures = 0
}
