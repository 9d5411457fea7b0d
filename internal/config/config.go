// Package config loads the pipeline configuration from a TOML file with
// environment overrides for credentials. Configuration errors are fatal at
// startup and map to exit code 2 in the CLI.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/matchsight/matchsight/internal/domain/odds"
	"github.com/matchsight/matchsight/internal/platform/logging"
)

const (
	ProviderKindAPIFootball  = "api-football"
	ProviderKindFootballData = "football-data"
)

// ProviderConfig configures one provider adapter. The API key is taken from
// the environment variable named by APIKeyEnv so credentials never live in
// the config file.
type ProviderConfig struct {
	ID                string `toml:"id" validate:"required"`
	Kind              string `toml:"kind" validate:"required,oneof=api-football football-data"`
	BaseURL           string `toml:"base_url"`
	APIKeyEnv         string `toml:"api_key_env" validate:"required"`
	RequestsPerMinute int    `toml:"requests_per_minute" validate:"gte=0"`
	TimeoutSeconds    int    `toml:"timeout_seconds" validate:"gte=0,lte=300"`
	Timezone          string `toml:"timezone"`

	// APIKey is resolved from APIKeyEnv at load time.
	APIKey string `toml:"-"`
}

// LeagueConfig overrides per-league priors, keyed by league name in the file.
type LeagueConfig struct {
	Tier          int     `toml:"tier" validate:"gte=0,lte=10"`
	HomeAdvantage float64 `toml:"home_advantage" validate:"gte=0,lte=1"`
}

type DatabaseConfig struct {
	// URL enables the Postgres-backed match log; empty runs in-memory.
	URL string `toml:"url"`
}

type Config struct {
	LogLevel string `toml:"log_level" validate:"omitempty,oneof=debug info warn error"`

	Providers        []ProviderConfig `toml:"providers" validate:"required,min=1,dive"`
	ProviderPriority []string         `toml:"provider_priority"`

	FormWindowN               int      `toml:"form_window_n" validate:"gte=0,lte=100"`
	H2HWindowM                int      `toml:"h2h_window_m" validate:"gte=0,lte=50"`
	LeagueBaselineL           int      `toml:"league_baseline_l" validate:"gte=0,lte=1000"`
	ValueEVThreshold          float64  `toml:"value_ev_threshold" validate:"gte=0,lte=1"`
	ConfidenceHighReliability float64  `toml:"confidence_high_reliability" validate:"gte=0,lte=1"`
	CycleTimeoutSeconds       int      `toml:"cycle_timeout_seconds" validate:"gte=0,lte=86400"`
	MarketsEnabled            []string `toml:"markets_enabled" validate:"dive,required"`

	Leagues  map[string]LeagueConfig `toml:"leagues" validate:"dive"`
	Database DatabaseConfig          `toml:"database"`
}

// Load reads the TOML file at path. A .env file next to the working directory
// is applied first so local runs can keep credentials out of the shell.
func Load(path string) (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("config %s: unknown key %q", path, undecoded[0].String())
	}

	cfg.applyDefaults()
	if err := cfg.resolveCredentials(); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.FormWindowN == 0 {
		c.FormWindowN = 10
	}
	if c.H2HWindowM == 0 {
		c.H2HWindowM = 5
	}
	if c.LeagueBaselineL == 0 {
		c.LeagueBaselineL = 100
	}
	if c.ValueEVThreshold == 0 {
		c.ValueEVThreshold = 0.05
	}
	if c.ConfidenceHighReliability == 0 {
		c.ConfidenceHighReliability = 0.8
	}
	if c.CycleTimeoutSeconds == 0 {
		c.CycleTimeoutSeconds = 600
	}
	if len(c.MarketsEnabled) == 0 {
		c.MarketsEnabled = odds.AllMarkets()
	}
	if len(c.ProviderPriority) == 0 {
		for _, p := range c.Providers {
			c.ProviderPriority = append(c.ProviderPriority, p.ID)
		}
	}
	for i := range c.Providers {
		if c.Providers[i].RequestsPerMinute == 0 {
			c.Providers[i].RequestsPerMinute = 30
		}
		if c.Providers[i].TimeoutSeconds == 0 {
			c.Providers[i].TimeoutSeconds = 30
		}
	}
}

func (c *Config) resolveCredentials() error {
	for i := range c.Providers {
		p := &c.Providers[i]
		if p.APIKeyEnv == "" {
			continue
		}
		p.APIKey = strings.TrimSpace(os.Getenv(p.APIKeyEnv))
		if p.APIKey == "" {
			return fmt.Errorf("provider %s: credential variable %s is empty", p.ID, p.APIKeyEnv)
		}
	}
	return nil
}

var validate = validator.New()

func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config validation: %w", err)
	}

	seen := make(map[string]struct{}, len(c.Providers))
	for _, p := range c.Providers {
		if _, dup := seen[p.ID]; dup {
			return fmt.Errorf("duplicate provider id %q", p.ID)
		}
		seen[p.ID] = struct{}{}
	}
	for _, id := range c.ProviderPriority {
		if _, ok := seen[id]; !ok {
			return fmt.Errorf("provider_priority names unknown provider %q", id)
		}
	}

	known := make(map[string]struct{})
	for _, m := range odds.AllMarkets() {
		known[m] = struct{}{}
	}
	for _, m := range c.MarketsEnabled {
		if _, ok := known[m]; !ok {
			return fmt.Errorf("markets_enabled contains unknown market %q", m)
		}
	}
	return nil
}

func (c Config) CycleTimeout() time.Duration {
	return time.Duration(c.CycleTimeoutSeconds) * time.Second
}

func (c Config) ParsedLogLevel() logging.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return logging.LevelDebug
	case "warn":
		return logging.LevelWarn
	case "error":
		return logging.LevelError
	default:
		return logging.LevelInfo
	}
}

func (p ProviderConfig) Timeout() time.Duration {
	return time.Duration(p.TimeoutSeconds) * time.Second
}
