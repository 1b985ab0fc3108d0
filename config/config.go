package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Black-And-White-Club/pitwall/app/observability"
)

// Config struct to hold the configuration settings
type Config struct {
	Postgres      PostgresConfig      `yaml:"postgres"`
	NATS          NATSConfig          `yaml:"nats"`
	HTTP          HTTPConfig          `yaml:"http"`
	Observability ObservabilityConfig `yaml:"observability"`
	Season        SeasonConfig        `yaml:"season"`
}

// PostgresConfig holds Postgres configuration. An empty DSN disables the save
// code archive.
type PostgresConfig struct {
	DSN string `yaml:"dsn"`
}

// NATSConfig holds NATS configuration. An empty URL selects the in-process bus.
type NATSConfig struct {
	URL string `yaml:"url"`
}

// HTTPConfig holds the API listener settings.
type HTTPConfig struct {
	Addr string `yaml:"addr"`
	// RateLimit is requests per second per client IP; zero disables limiting.
	RateLimit float64 `yaml:"rate_limit"`
	RateBurst int     `yaml:"rate_burst"`
}

// ObservabilityConfig holds configuration for observability components
type ObservabilityConfig struct {
	MetricsAddress  string  `yaml:"metrics_address"`
	Environment     string  `yaml:"environment"`
	LogLevel        string  `yaml:"log_level"`
	TempoEndpoint   string  `yaml:"tempo_endpoint"`
	TempoInsecure   bool    `yaml:"tempo_insecure"`
	TempoSampleRate float64 `yaml:"tempo_sample_rate"`
}

// SeasonConfig selects the roster and scoring rules.
type SeasonConfig struct {
	Roster string `yaml:"roster"` // standard|expanded
	// Rules is a preset name: default|classic.
	Rules           string `yaml:"rules"`
	SprintMode      string `yaml:"sprint_mode"`  // bonus_only|flat_scale
	HeadToHead      string `yaml:"head_to_head"` // asymmetric|symmetric
	Clamp           string `yaml:"clamp"`        // none|classic|custom
	ClampMin        string `yaml:"clamp_min"`
	ClampMax        string `yaml:"clamp_max"`
	PenaltyInterval *int   `yaml:"penalty_interval"`
	// RatingCurve overrides the per-tier bands, keyed by tier.
	RatingCurve map[int][]RatingBandConfig `yaml:"rating_curve"`
}

// RatingBandConfig is one band of a tier's rating curve.
type RatingBandConfig struct {
	UpTo  int    `yaml:"up_to"`
	Delta string `yaml:"delta"`
}

// LoadConfig loads the configuration from a YAML file.
func LoadConfig(filename string) (*Config, error) {
	// Try reading configuration from the file first
	data, err := os.ReadFile(filename)
	if err != nil {
		// If the file is not found, try loading from environment variables
		return loadConfigFromEnv()
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// --- OVERRIDE WITH ENV VARS IF PRESENT ---
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Postgres.DSN = v
	}
	if v := os.Getenv("NATS_URL"); v != "" {
		cfg.NATS.URL = v
	}
	if v := os.Getenv("HTTP_ADDR"); v != "" {
		cfg.HTTP.Addr = v
	}
	if v := os.Getenv("METRICS_ADDRESS"); v != "" {
		cfg.Observability.MetricsAddress = v
	}
	if v := os.Getenv("ENV"); v != "" {
		cfg.Observability.Environment = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Observability.LogLevel = v
	}
	if v := os.Getenv("TEMPO_ENDPOINT"); v != "" {
		cfg.Observability.TempoEndpoint = v
	}
	if v := os.Getenv("TEMPO_INSECURE"); v != "" {
		cfg.Observability.TempoInsecure = v == "true"
	}
	if v := os.Getenv("TEMPO_SAMPLE_RATE"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid TEMPO_SAMPLE_RATE value: %v", err)
		}
		cfg.Observability.TempoSampleRate = f
	}
	if v := os.Getenv("SEASON_GRID"); v != "" {
		cfg.Season.Roster = v
	}
	if v := os.Getenv("SEASON_RULES"); v != "" {
		cfg.Season.Rules = v
	}
	if v := os.Getenv("SEASON_SPRINT_MODE"); v != "" {
		cfg.Season.SprintMode = v
	}
	if v := os.Getenv("SEASON_HEAD_TO_HEAD"); v != "" {
		cfg.Season.HeadToHead = v
	}
	if v := os.Getenv("SEASON_CLAMP"); v != "" {
		cfg.Season.Clamp = v
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

// loadConfigFromEnv loads the configuration from environment variables.
func loadConfigFromEnv() (*Config, error) {
	var cfg Config

	cfg.Postgres.DSN = os.Getenv("DATABASE_URL") // optional; empty disables the archive
	cfg.NATS.URL = os.Getenv("NATS_URL")         // optional; empty uses the in-process bus
	cfg.HTTP.Addr = os.Getenv("HTTP_ADDR")

	if v := os.Getenv("HTTP_RATE_LIMIT"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid HTTP_RATE_LIMIT value: %v", err)
		}
		cfg.HTTP.RateLimit = f
	}
	if v := os.Getenv("HTTP_RATE_BURST"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid HTTP_RATE_BURST value: %v", err)
		}
		cfg.HTTP.RateBurst = n
	}

	cfg.Observability.MetricsAddress = os.Getenv("METRICS_ADDRESS") // optional; empty disables metrics
	cfg.Observability.Environment = os.Getenv("ENV")
	cfg.Observability.LogLevel = os.Getenv("LOG_LEVEL")
	cfg.Observability.TempoEndpoint = os.Getenv("TEMPO_ENDPOINT") // optional; empty disables tracing
	cfg.Observability.TempoInsecure = os.Getenv("TEMPO_INSECURE") == "true"
	if v := os.Getenv("TEMPO_SAMPLE_RATE"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid TEMPO_SAMPLE_RATE value: %v", err)
		}
		cfg.Observability.TempoSampleRate = f
	}

	cfg.Season.Roster = os.Getenv("SEASON_GRID")
	cfg.Season.Rules = os.Getenv("SEASON_RULES")
	cfg.Season.SprintMode = os.Getenv("SEASON_SPRINT_MODE")
	cfg.Season.HeadToHead = os.Getenv("SEASON_HEAD_TO_HEAD")
	cfg.Season.Clamp = os.Getenv("SEASON_CLAMP")
	cfg.Season.ClampMin = os.Getenv("SEASON_CLAMP_MIN")
	cfg.Season.ClampMax = os.Getenv("SEASON_CLAMP_MAX")
	if v := os.Getenv("SEASON_PENALTY_INTERVAL"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid SEASON_PENALTY_INTERVAL value: %v", err)
		}
		cfg.Season.PenaltyInterval = &n
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.HTTP.Addr == "" {
		cfg.HTTP.Addr = ":8080"
	}
	if cfg.HTTP.RateLimit > 0 && cfg.HTTP.RateBurst <= 0 {
		cfg.HTTP.RateBurst = int(cfg.HTTP.RateLimit) + 1
	}
	if cfg.Observability.TempoEndpoint != "" && cfg.Observability.TempoSampleRate <= 0 {
		cfg.Observability.TempoSampleRate = 0.1
	}
	if cfg.Season.Roster == "" {
		cfg.Season.Roster = "standard"
	}
	if cfg.Season.Rules == "" {
		cfg.Season.Rules = "default"
	}
}

// ToObsConfig maps the application config onto observability settings.
func ToObsConfig(appCfg *Config) observability.Config {
	return observability.Config{
		ServiceName:    "pitwall",
		Environment:    appCfg.Observability.Environment,
		Version:        "0.4.0",
		MetricsAddress: appCfg.Observability.MetricsAddress,
		LogLevel:       parseLevel(appCfg.Observability.LogLevel),

		TempoEndpoint:   appCfg.Observability.TempoEndpoint,
		TempoInsecure:   appCfg.Observability.TempoInsecure,
		TempoSampleRate: appCfg.Observability.TempoSampleRate,
	}
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
