package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
postgres:
  dsn: postgres://file
http:
  addr: ":9000"
  rate_limit: 4
season:
  roster: expanded
  sprint_mode: flat_scale
  clamp: classic
  penalty_interval: 3
  rating_curve:
    8:
      - {up_to: 3, delta: "0.4"}
      - {up_to: 99, delta: "-0.1"}
`), 0o600))

	t.Setenv("NATS_URL", "nats://env:4222")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "postgres://file", cfg.Postgres.DSN)
	assert.Equal(t, "nats://env:4222", cfg.NATS.URL)
	assert.Equal(t, ":9000", cfg.HTTP.Addr)
	assert.Equal(t, 5, cfg.HTTP.RateBurst)
	assert.Equal(t, "expanded", cfg.Season.Roster)
	assert.Equal(t, "default", cfg.Season.Rules)
	assert.Equal(t, "flat_scale", cfg.Season.SprintMode)
	require.NotNil(t, cfg.Season.PenaltyInterval)
	assert.Equal(t, 3, *cfg.Season.PenaltyInterval)
	require.Len(t, cfg.Season.RatingCurve[8], 2)
	assert.Equal(t, "0.4", cfg.Season.RatingCurve[8][0].Delta)
}

func TestLoadConfigEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("season:\n  roster: standard\n"), 0o600))
	t.Setenv("SEASON_GRID", "expanded")
	t.Setenv("DATABASE_URL", "postgres://env")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "expanded", cfg.Season.Roster)
	assert.Equal(t, "postgres://env", cfg.Postgres.DSN)
}

func TestLoadConfigFallsBackToEnv(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":7000")
	t.Setenv("SEASON_PENALTY_INTERVAL", "0")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, ":7000", cfg.HTTP.Addr)
	assert.Empty(t, cfg.Postgres.DSN)
	assert.Equal(t, "standard", cfg.Season.Roster)
	require.NotNil(t, cfg.Season.PenaltyInterval)
	assert.Equal(t, 0, *cfg.Season.PenaltyInterval)
	assert.Equal(t, slog.LevelDebug, ToObsConfig(cfg).LogLevel)
}

func TestLoadConfigRejectsBadEnv(t *testing.T) {
	t.Setenv("HTTP_RATE_LIMIT", "fast")
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadConfigRejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("season: [unterminated"), 0o600))
	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestTracingSettings(t *testing.T) {
	tests := []struct {
		name     string
		env      map[string]string
		endpoint string
		insecure bool
		rate     float64
	}{
		{name: "disabled", env: map[string]string{}, rate: 0},
		{
			name:     "endpoint gets default rate",
			env:      map[string]string{"TEMPO_ENDPOINT": "tempo:4317", "TEMPO_INSECURE": "true"},
			endpoint: "tempo:4317",
			insecure: true,
			rate:     0.1,
		},
		{
			name:     "explicit rate",
			env:      map[string]string{"TEMPO_ENDPOINT": "tempo:4317", "TEMPO_SAMPLE_RATE": "0.5"},
			endpoint: "tempo:4317",
			rate:     0.5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
			require.NoError(t, err)

			obs := ToObsConfig(cfg)
			assert.Equal(t, tt.endpoint, obs.TempoEndpoint)
			assert.Equal(t, tt.insecure, obs.TempoInsecure)
			assert.Equal(t, tt.rate, obs.TempoSampleRate)
		})
	}
}

func TestLoadConfigRejectsBadSampleRate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("observability:\n  tempo_endpoint: tempo:4317\n"), 0o600))
	t.Setenv("TEMPO_SAMPLE_RATE", "often")

	_, err := LoadConfig(path)
	assert.Error(t, err)
}
