package config

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/rewired-gh/evoracle/internal/books"
	"github.com/rewired-gh/evoracle/internal/market"
)

// APIKeyEnv is read when odds_api.api_key is not configured.
const APIKeyEnv = "ODDS_API_KEY"

// Config represents the complete application configuration
type Config struct {
	OddsAPI  OddsAPIConfig       `mapstructure:"odds_api"`
	Sports   map[string][]string `mapstructure:"sports"`
	Markets  MarketsConfig       `mapstructure:"markets"`
	Engine   EngineConfig        `mapstructure:"engine"`
	Weights  WeightsConfig       `mapstructure:"weights"`
	EV       EVConfig            `mapstructure:"ev"`
	Storage  StorageConfig       `mapstructure:"storage"`
	Telegram TelegramConfig      `mapstructure:"telegram"`
	Redis    RedisConfig         `mapstructure:"redis"`
	Server   ServerConfig        `mapstructure:"server"`
	Logging  LoggingConfig       `mapstructure:"logging"`
}

// OddsAPIConfig holds odds provider configuration
type OddsAPIConfig struct {
	BaseURL      string        `mapstructure:"base_url"`
	APIKey       string        `mapstructure:"api_key"`
	Regions      []string      `mapstructure:"regions"`
	OddsFormat   string        `mapstructure:"odds_format"`
	RequestDelay time.Duration `mapstructure:"request_delay"`
	DaysAhead    int           `mapstructure:"days_ahead"`
	Timeout      time.Duration `mapstructure:"timeout"`
	MaxRetries   int           `mapstructure:"max_retries"`
}

// MarketsConfig maps category names to market keys. Keys listed in OneWay
// are priced as single-sided candidate markets.
type MarketsConfig struct {
	Categories map[string][]string `mapstructure:"categories"`
	OneWay     []string            `mapstructure:"one_way"`
}

// EngineConfig holds consensus engine limits
type EngineConfig struct {
	AltLineRange float64 `mapstructure:"alt_line_range"`
	MinAbsOdds   float64 `mapstructure:"min_abs_odds"`
	MaxAbsOdds   float64 `mapstructure:"max_abs_odds"`
	MinOdds      float64 `mapstructure:"min_odds"`
	MaxOdds      float64 `mapstructure:"max_odds"`
}

// WeightsConfig holds the bookmaker weight tables. Empty game-line and prop
// tables fall back to the built-in defaults; an empty EV table disables
// the benchmark pool.
type WeightsConfig struct {
	GameLines   books.Table `mapstructure:"game_lines"`
	Props       books.Table `mapstructure:"props"`
	EVBenchmark books.Table `mapstructure:"ev_benchmark"`
}

// EVConfig holds +EV scan configuration
type EVConfig struct {
	MinEV float64 `mapstructure:"min_ev"`
	MaxEV float64 `mapstructure:"max_ev"`
	TopK  int     `mapstructure:"top_k"`
}

// StorageConfig holds storage and persistence configuration
type StorageConfig struct {
	DBPath    string `mapstructure:"db_path"`
	OutputDir string `mapstructure:"output_dir"`
	MaxRuns   int    `mapstructure:"max_runs"`
}

// TelegramConfig holds Telegram notification configuration
type TelegramConfig struct {
	BotToken       string        `mapstructure:"bot_token"`
	ChatID         string        `mapstructure:"chat_id"`
	Enabled        bool          `mapstructure:"enabled"`
	MaxRetries     int           `mapstructure:"max_retries"`
	RetryDelayBase time.Duration `mapstructure:"retry_delay_base"`
	// Cooldown suppresses re-sending an opportunity whose EV has not
	// improved since it was last sent.
	Cooldown time.Duration `mapstructure:"cooldown"`
}

// RedisConfig holds snapshot publisher configuration
type RedisConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	Addr         string `mapstructure:"addr"`
	Password     string `mapstructure:"password"`
	DB           int    `mapstructure:"db"`
	KeyPrefix    string `mapstructure:"key_prefix"`
	StreamMaxLen int64  `mapstructure:"stream_max_len"`
}

// ServerConfig holds the read-only HTTP API configuration
type ServerConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	Addr           string        `mapstructure:"addr"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	AllowedOrigins []string      `mapstructure:"allowed_origins"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from file, a local .env file and environment
// variables
func Load(path string) (*Config, error) {
	// A missing .env is fine.
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(path)
	setDefaults(v)

	v.SetEnvPrefix("EVORACLE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.OddsAPI.APIKey == "" {
		cfg.OddsAPI.APIKey = os.Getenv(APIKeyEnv)
	}
	if len(cfg.Sports) == 0 {
		cfg.Sports = map[string][]string{
			"basketball_nba": {"game_lines"},
			"baseball_mlb":   {"game_lines"},
		}
	}
	if len(cfg.Markets.Categories) == 0 {
		cfg.Markets.Categories = market.DefaultCategories()
	}
	if len(cfg.Weights.GameLines) == 0 {
		cfg.Weights.GameLines = books.DefaultGameLineTable()
	}
	if len(cfg.Weights.Props) == 0 {
		cfg.Weights.Props = books.DefaultPropTable()
	}

	return &cfg, nil
}

// setDefaults configures default values for all configuration options
func setDefaults(v *viper.Viper) {
	v.SetDefault("odds_api.base_url", "https://api.the-odds-api.com")
	v.SetDefault("odds_api.regions", []string{"us", "us2", "eu", "au", "us_ex"})
	v.SetDefault("odds_api.odds_format", "american")
	v.SetDefault("odds_api.request_delay", "1s")
	v.SetDefault("odds_api.days_ahead", 3)
	v.SetDefault("odds_api.timeout", "30s")
	v.SetDefault("odds_api.max_retries", 3)

	v.SetDefault("markets.one_way", market.DefaultOneWay())

	v.SetDefault("engine.alt_line_range", 1.0)
	v.SetDefault("engine.min_abs_odds", 100.0)
	v.SetDefault("engine.max_abs_odds", 0.0) // 0 = no bound
	v.SetDefault("engine.min_odds", 0.0)
	v.SetDefault("engine.max_odds", 0.0)

	v.SetDefault("ev.min_ev", 0.0)
	v.SetDefault("ev.max_ev", 0.0) // 0 = unbounded
	v.SetDefault("ev.top_k", 10)

	v.SetDefault("storage.db_path", "./data/evoracle.db")
	v.SetDefault("storage.output_dir", "./data")
	v.SetDefault("storage.max_runs", 48)

	v.SetDefault("telegram.max_retries", 3)
	v.SetDefault("telegram.retry_delay_base", "2s")
	v.SetDefault("telegram.cooldown", "1h")

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.key_prefix", "evoracle")
	v.SetDefault("redis.stream_max_len", 10000)

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.request_timeout", "15s")
	v.SetDefault("server.allowed_origins", []string{"*"})

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// Validate checks that all configuration values are valid
func (c *Config) Validate() error {
	if c.OddsAPI.BaseURL == "" {
		return fmt.Errorf("odds_api.base_url is required")
	}
	if len(c.OddsAPI.Regions) == 0 {
		return fmt.Errorf("odds_api.regions must contain at least one region")
	}
	if c.OddsAPI.OddsFormat != "american" {
		return fmt.Errorf("odds_api.odds_format must be american")
	}
	if c.OddsAPI.RequestDelay < 0 {
		return fmt.Errorf("odds_api.request_delay must not be negative")
	}
	if c.OddsAPI.DaysAhead < 1 {
		return fmt.Errorf("odds_api.days_ahead must be at least 1")
	}
	if c.OddsAPI.MaxRetries < 0 {
		return fmt.Errorf("odds_api.max_retries must not be negative")
	}

	if len(c.Sports) == 0 {
		return fmt.Errorf("sports must enable at least one sport")
	}
	for sport, categories := range c.Sports {
		for _, cat := range categories {
			if _, ok := c.Markets.Categories[cat]; !ok {
				return fmt.Errorf("sports.%s references unknown market category %q", sport, cat)
			}
		}
	}

	if c.Engine.AltLineRange < 0 {
		return fmt.Errorf("engine.alt_line_range must not be negative")
	}
	if c.Engine.MinAbsOdds < 0 || c.Engine.MaxAbsOdds < 0 {
		return fmt.Errorf("engine.min_abs_odds and engine.max_abs_odds must not be negative")
	}
	if c.Engine.MaxAbsOdds != 0 && c.Engine.MaxAbsOdds < c.Engine.MinAbsOdds {
		return fmt.Errorf("engine.max_abs_odds must be >= engine.min_abs_odds")
	}
	if c.Engine.MinOdds != 0 && c.Engine.MaxOdds != 0 && c.Engine.MaxOdds < c.Engine.MinOdds {
		return fmt.Errorf("engine.max_odds must be >= engine.min_odds")
	}

	if err := c.Weights.GameLines.Validate(); err != nil {
		return fmt.Errorf("weights.game_lines: %w", err)
	}
	if err := c.Weights.Props.Validate(); err != nil {
		return fmt.Errorf("weights.props: %w", err)
	}
	if err := c.Weights.EVBenchmark.Validate(); err != nil {
		return fmt.Errorf("weights.ev_benchmark: %w", err)
	}

	if c.EV.MaxEV != 0 && c.EV.MaxEV < c.EV.MinEV {
		return fmt.Errorf("ev.max_ev must be >= ev.min_ev")
	}
	if c.EV.TopK < 1 {
		return fmt.Errorf("ev.top_k must be at least 1")
	}

	if c.Storage.DBPath == "" {
		return fmt.Errorf("storage.db_path is required")
	}
	if c.Storage.OutputDir == "" {
		return fmt.Errorf("storage.output_dir is required")
	}
	if c.Storage.MaxRuns < 1 {
		return fmt.Errorf("storage.max_runs must be at least 1")
	}

	if c.Telegram.Enabled {
		if c.Telegram.BotToken == "" {
			return fmt.Errorf("telegram.bot_token is required when telegram is enabled")
		}
		if c.Telegram.ChatID == "" {
			return fmt.Errorf("telegram.chat_id is required when telegram is enabled")
		}
	}
	if c.Telegram.Cooldown < 0 {
		return fmt.Errorf("telegram.cooldown must not be negative")
	}
	if c.Redis.Enabled && c.Redis.Addr == "" {
		return fmt.Errorf("redis.addr is required when redis is enabled")
	}
	if c.Server.Enabled && c.Server.Addr == "" {
		return fmt.Errorf("server.addr is required when the server is enabled")
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[c.Logging.Format] {
		return fmt.Errorf("logging.format must be one of: json, text")
	}

	return nil
}

// MarketKeys returns the deduplicated market keys enabled for sport.
func (c *Config) MarketKeys(sport string) []string {
	seen := make(map[string]bool)
	var keys []string
	for _, cat := range c.Sports[sport] {
		for _, k := range c.Markets.Categories[cat] {
			if !seen[k] {
				seen[k] = true
				keys = append(keys, k)
			}
		}
	}
	return keys
}

// SportKeys returns the enabled sports in sorted order.
func (c *Config) SportKeys() []string {
	keys := make([]string, 0, len(c.Sports))
	for k := range c.Sports {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Shapes builds the market shape table from every configured category.
func (c *Config) Shapes() market.Shapes {
	return market.NewShapes(c.Markets.Categories, c.Markets.OneWay)
}

// Bounds returns the absolute outlier bounds.
func (c *Config) Bounds() market.Bounds {
	return market.Bounds{MinAbs: c.Engine.MinAbsOdds, MaxAbs: c.Engine.MaxAbsOdds}
}

// Filter returns the signed price pre-filter.
func (c *Config) Filter() market.Filter {
	return market.Filter{Min: c.Engine.MinOdds, Max: c.Engine.MaxOdds}
}
