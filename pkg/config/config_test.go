package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromEnv_Defaults(t *testing.T) {
	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, []string{"BTCUSDT", "ETHUSDT", "SOLUSDT"}, cfg.ReferenceSymbols)
	assert.Equal(t, "wss://stream.binance.com:9443/ws", cfg.BinanceWSURL)
	assert.Equal(t, "https://gamma-api.polymarket.com", cfg.PolymarketGammaURL)

	assert.Equal(t, 0.2, cfg.MoveThresholdPct)
	assert.Equal(t, 10*time.Second, cfg.DetectionWindow)
	assert.Equal(t, 2*time.Second, cfg.MinLag)
	assert.Equal(t, 0.1, cfg.TransferCoefficient)
	assert.Equal(t, "bullish", cfg.DefaultBias)

	assert.Equal(t, "limit", cfg.ExecutionPolicy)
	assert.Equal(t, 100.0, cfg.MaxNotional)
	assert.Equal(t, 0.10, cfg.LiquidityFraction)

	assert.Equal(t, 30*time.Second, cfg.HoldDuration)
	assert.Equal(t, 5*time.Second, cfg.MinHold)
	assert.Equal(t, 5*time.Minute, cfg.Cooldown)

	assert.Equal(t, "paper", cfg.ExecutionMode)
	assert.Equal(t, "console", cfg.StorageMode)
	assert.False(t, cfg.CircuitBreakerEnabled)
}

func TestLoadFromEnv_Overrides(t *testing.T) {
	t.Setenv("REFERENCE_SYMBOLS", "btcusdt, xrpusdt")
	t.Setenv("MOVE_THRESHOLD_PCT", "0.5")
	t.Setenv("MIN_LAG", "750ms")
	t.Setenv("EXECUTION_MODE", "live")
	t.Setenv("CIRCUIT_BREAKER_ENABLED", "true")
	t.Setenv("STORAGE_MODE", "postgres")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, []string{"BTCUSDT", "XRPUSDT"}, cfg.ReferenceSymbols)
	assert.Equal(t, 0.5, cfg.MoveThresholdPct)
	assert.Equal(t, 750*time.Millisecond, cfg.MinLag)
	assert.Equal(t, "live", cfg.ExecutionMode)
	assert.True(t, cfg.CircuitBreakerEnabled)
	assert.Equal(t, "postgres", cfg.StorageMode)
}

func TestLoadFromEnv_MalformedValuesFallBack(t *testing.T) {
	t.Setenv("MOVE_THRESHOLD_PCT", "not-a-number")
	t.Setenv("MIN_LAG", "soon")
	t.Setenv("REGISTRY_MAX_ENTITIES", "many")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, 0.2, cfg.MoveThresholdPct)
	assert.Equal(t, 2*time.Second, cfg.MinLag)
	assert.Equal(t, 60, cfg.RegistryMaxEntities)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		cfg, err := LoadFromEnv()
		require.NoError(t, err)
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "valid defaults",
			mutate: func(c *Config) {},
		},
		{
			name:    "empty http port",
			mutate:  func(c *Config) { c.HTTPPort = "" },
			wantErr: "HTTP_PORT",
		},
		{
			name:    "no reference symbols",
			mutate:  func(c *Config) { c.ReferenceSymbols = nil },
			wantErr: "REFERENCE_SYMBOLS",
		},
		{
			name:    "non-positive threshold",
			mutate:  func(c *Config) { c.MoveThresholdPct = 0 },
			wantErr: "MOVE_THRESHOLD_PCT",
		},
		{
			name:    "transfer coefficient above one",
			mutate:  func(c *Config) { c.TransferCoefficient = 1.5 },
			wantErr: "TRANSFER_COEFFICIENT",
		},
		{
			name:    "unknown bias",
			mutate:  func(c *Config) { c.DefaultBias = "sideways" },
			wantErr: "DEFAULT_BIAS",
		},
		{
			name:    "unknown execution policy",
			mutate:  func(c *Config) { c.ExecutionPolicy = "maybe" },
			wantErr: "EXECUTION_POLICY",
		},
		{
			name:    "unknown execution mode",
			mutate:  func(c *Config) { c.ExecutionMode = "yolo" },
			wantErr: "EXECUTION_MODE",
		},
		{
			name:    "min hold exceeds hold duration",
			mutate:  func(c *Config) { c.MinHold = time.Minute },
			wantErr: "MIN_HOLD",
		},
		{
			name:    "liquidity fraction above one",
			mutate:  func(c *Config) { c.LiquidityFraction = 2.0 },
			wantErr: "LIQUIDITY_FRACTION",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestNewLogger_RejectsInvalidLevel(t *testing.T) {
	t.Setenv("LOG_LEVEL", "loud")

	_, err := NewLogger()
	require.Error(t, err)

	t.Setenv("LOG_LEVEL", "debug")

	logger, err := NewLogger()
	require.NoError(t, err)
	require.NotNil(t, logger)
}
