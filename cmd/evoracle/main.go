package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rewired-gh/evoracle/internal/config"
	"github.com/rewired-gh/evoracle/internal/consensus"
	"github.com/rewired-gh/evoracle/internal/ev"
	"github.com/rewired-gh/evoracle/internal/logger"
	"github.com/rewired-gh/evoracle/internal/oddsapi"
	"github.com/rewired-gh/evoracle/internal/publisher"
	"github.com/rewired-gh/evoracle/internal/server"
	"github.com/rewired-gh/evoracle/internal/storage"
	"github.com/rewired-gh/evoracle/internal/telegram"
)

var (
	configPath = flag.String("config", "configs/config.yaml", "Path to configuration file")
	marketsArg = flag.String("markets", "", "Comma-separated market keys overriding the configured categories")
	daysArg    = flag.Int("days", 0, "Days ahead to include (overrides odds_api.days_ahead)")
	inputPath  = flag.String("input", "", "Process a saved odds dump instead of fetching")
	serve      = flag.Bool("serve", false, "Keep serving the HTTP API after the run")
	interval   = flag.Duration("interval", 0, "Repeat the run on this interval while serving (0 runs once)")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] [teamA teamB ...]\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *daysArg > 0 {
		cfg.OddsAPI.DaysAhead = *daysArg
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger.Init(cfg.Logging.Level, cfg.Logging.Format)
	logger.Info("Configuration loaded from %s", *configPath)

	teams, err := oddsapi.ParseTeamPairs(flag.Args())
	if err != nil {
		logger.Fatal("Invalid team arguments: %v", err)
	}
	if *inputPath == "" && cfg.OddsAPI.APIKey == "" {
		logger.Fatal("Missing odds API key: set odds_api.api_key or %s", config.APIKeyEnv)
	}

	store, err := storage.New(cfg.Storage.MaxRuns, cfg.Storage.DBPath)
	if err != nil {
		logger.Fatal("Failed to initialize storage: %v", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("Failed to close storage: %v", err)
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info("Shutdown signal received, cleaning up...")
		cancel()
	}()

	r := &runner{
		cfg:   cfg,
		store: store,
		state: server.NewState(),
		teams: teams,
		input: *inputPath,
		engine: &consensus.Engine{
			GameLines:    cfg.Weights.GameLines.Clone(),
			Props:        cfg.Weights.Props.Clone(),
			EVBenchmark:  cfg.Weights.EVBenchmark.Clone(),
			AltLineRange: cfg.Engine.AltLineRange,
			Bounds:       cfg.Bounds(),
			Filter:       cfg.Filter(),
			Shapes:       cfg.Shapes(),
		},
		evOpts: ev.Options{MinEV: cfg.EV.MinEV, MaxEV: cfg.EV.MaxEV},
	}
	r.marketsFor = cfg.MarketKeys
	if *marketsArg != "" {
		override := strings.Split(*marketsArg, ",")
		r.marketsFor = func(string) []string { return override }
	}
	if r.input == "" {
		r.client = oddsapi.NewClient(
			cfg.OddsAPI.BaseURL,
			cfg.OddsAPI.APIKey,
			cfg.OddsAPI.Regions,
			cfg.OddsAPI.RequestDelay,
			cfg.OddsAPI.Timeout,
			cfg.OddsAPI.MaxRetries,
		)
	}

	if cfg.Redis.Enabled {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Warn("Redis unavailable at %s, publishing disabled: %v", cfg.Redis.Addr, err)
		} else {
			r.publisher = publisher.NewStreamPublisher(redisClient, cfg.Redis.KeyPrefix, cfg.Redis.StreamMaxLen)
			logger.Info("Publishing to Redis at %s", cfg.Redis.Addr)
		}
	}

	if cfg.Telegram.Enabled {
		r.telegram, err = telegram.NewClient(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Telegram.MaxRetries, cfg.Telegram.RetryDelayBase)
		if err != nil {
			logger.Fatal("Failed to initialize Telegram client: %v", err)
		}
		logger.Info("Telegram client initialized successfully")
	} else {
		logger.Debug("Telegram notifications disabled")
	}

	serving := *serve || cfg.Server.Enabled
	if !serving {
		if err := r.run(ctx); err != nil {
			logger.Fatal("Run failed: %v", err)
		}
		return
	}

	r.restore()
	if r.telegram != nil {
		r.telegram.ListenForCommands(ctx, r.state.Top)
	}

	handler := server.NewHandler(r.state, store, server.Options{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		RequestTimeout: cfg.Server.RequestTimeout,
		EV:             r.evOpts,
	})
	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.ListenAndServe(ctx, cfg.Server.Addr, handler.Router())
	}()

	r.handleResult(r.run(ctx))

	var tick <-chan time.Time
	if *interval > 0 {
		logger.Info("Repeating runs every %v", *interval)
		ticker := time.NewTicker(*interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case err := <-serverErr:
			if err != nil {
				logger.Fatal("API server failed: %v", err)
			}
			logger.Info("Service stopped")
			return
		case <-tick:
			logger.Debug("Starting scheduled run")
			r.handleResult(r.run(ctx))
		}
	}
}

// errNothingToProcess marks a run that found no events; it is not a failure.
var errNothingToProcess = errors.New("nothing to process")
