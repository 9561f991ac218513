package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	// Application
	LogLevel string
	HTTPPort string

	// Reference feed (Binance)
	BinanceWSURL     string
	ReferenceSymbols []string // e.g. ["BTCUSDT", "ETHUSDT", "SOLUSDT"]

	// Polymarket API
	PolymarketWSURL      string
	PolymarketGammaURL   string
	PolymarketCLOBURL    string
	PolymarketAPIKey     string
	PolymarketSecret     string
	PolymarketPassphrase string

	// Registry / discovery
	RegistryPollInterval time.Duration
	RegistryMaxEntities  int
	RegistryMinLiquidity float64

	// WebSocket
	WSDialTimeout           time.Duration
	WSPongTimeout           time.Duration
	WSPingInterval          time.Duration
	WSReconnectInitialDelay time.Duration
	WSReconnectMaxDelay     time.Duration
	WSReconnectBackoffMult  float64
	WSMessageBufferSize     int

	// Lag detection
	MoveThresholdPct    float64       // reference move that qualifies, in percent
	DetectionWindow     time.Duration // rolling window for move detection
	MinLag              time.Duration // minimum quote age before lag is credible
	TransferCoefficient float64       // expected market move per unit reference move
	QuoteStaleness      time.Duration // quotes older than this are treated as absent
	DefaultBias         string        // "bullish" or "bearish" when no keyword matches

	// Entry / price gate
	ExecutionPolicy   string  // "limit" (price-protected) or "market" (immediate)
	MinProfitPct      float64 // floor used by the price gate, in percent
	MaxNotional       float64 // max USD per position
	LiquidityFraction float64 // fraction of entity liquidity usable per position
	MinTradeSize      float64 // minimum tradable unit; smaller opportunities are skipped

	// Position lifecycle
	HoldDuration       time.Duration // deadline exit check
	MinHold            time.Duration // floor before the early-exit path may fire
	EarlyExitPct       float64       // early exit once profit reaches this, in percent
	MinExitProfitPct   float64       // deadline exit requires at least this, in percent
	Cooldown           time.Duration // per-entity cooldown after a close
	PositionTickPeriod time.Duration // cadence of deadline-driven exit checks

	// Execution
	ExecutionMode string // "paper" or "live"

	// Circuit breaker
	CircuitBreakerEnabled         bool
	CircuitBreakerCheckInterval   time.Duration
	CircuitBreakerTradeMultiplier float64
	CircuitBreakerMinAbsolute     float64
	CircuitBreakerHysteresisRatio float64

	// Storage
	StorageMode  string // "postgres" or "console"
	PostgresHost string
	PostgresPort string
	PostgresUser string
	PostgresPass string
	PostgresDB   string
	PostgresSSL  string
}

// LoadFromEnv loads configuration from environment variables with defaults.
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		// Application defaults
		LogLevel: getEnvOrDefault("LOG_LEVEL", "info"),
		HTTPPort: getEnvOrDefault("HTTP_PORT", "8080"),

		// Reference feed defaults
		BinanceWSURL:     getEnvOrDefault("BINANCE_WS_URL", "wss://stream.binance.com:9443/ws"),
		ReferenceSymbols: getStringSliceOrDefault("REFERENCE_SYMBOLS", []string{"BTCUSDT", "ETHUSDT", "SOLUSDT"}),

		// Polymarket API defaults
		PolymarketWSURL:      getEnvOrDefault("POLYMARKET_WS_URL", "wss://ws-subscriptions-clob.polymarket.com/ws/market"),
		PolymarketGammaURL:   getEnvOrDefault("POLYMARKET_GAMMA_API_URL", "https://gamma-api.polymarket.com"),
		PolymarketCLOBURL:    getEnvOrDefault("POLYMARKET_CLOB_URL", "https://clob.polymarket.com"),
		PolymarketAPIKey:     os.Getenv("POLYMARKET_API_KEY"),
		PolymarketSecret:     os.Getenv("POLYMARKET_SECRET"),
		PolymarketPassphrase: os.Getenv("POLYMARKET_PASSPHRASE"),

		// Registry defaults
		RegistryPollInterval: getDurationOrDefault("REGISTRY_POLL_INTERVAL", 60*time.Second),
		RegistryMaxEntities:  getIntOrDefault("REGISTRY_MAX_ENTITIES", 60),
		RegistryMinLiquidity: getFloat64OrDefault("REGISTRY_MIN_LIQUIDITY", 1000.0),

		// WebSocket defaults
		WSDialTimeout:           getDurationOrDefault("WS_DIAL_TIMEOUT", 10*time.Second),
		WSPongTimeout:           getDurationOrDefault("WS_PONG_TIMEOUT", 15*time.Second),
		WSPingInterval:          getDurationOrDefault("WS_PING_INTERVAL", 10*time.Second),
		WSReconnectInitialDelay: getDurationOrDefault("WS_RECONNECT_INITIAL_DELAY", 1*time.Second),
		WSReconnectMaxDelay:     getDurationOrDefault("WS_RECONNECT_MAX_DELAY", 30*time.Second),
		WSReconnectBackoffMult:  getFloat64OrDefault("WS_RECONNECT_BACKOFF_MULTIPLIER", 2.0),
		WSMessageBufferSize:     getIntOrDefault("WS_MESSAGE_BUFFER_SIZE", 1000),

		// Lag detection defaults
		MoveThresholdPct:    getFloat64OrDefault("MOVE_THRESHOLD_PCT", 0.2),
		DetectionWindow:     getDurationOrDefault("DETECTION_WINDOW", 10*time.Second),
		MinLag:              getDurationOrDefault("MIN_LAG", 2*time.Second),
		TransferCoefficient: getFloat64OrDefault("TRANSFER_COEFFICIENT", 0.1),
		QuoteStaleness:      getDurationOrDefault("QUOTE_STALENESS", 5*time.Minute),
		DefaultBias:         getEnvOrDefault("DEFAULT_BIAS", "bullish"),

		// Entry defaults
		ExecutionPolicy:   getEnvOrDefault("EXECUTION_POLICY", "limit"),
		MinProfitPct:      getFloat64OrDefault("MIN_PROFIT_PCT", 1.0),
		MaxNotional:       getFloat64OrDefault("MAX_NOTIONAL_USD", 100.0),
		LiquidityFraction: getFloat64OrDefault("LIQUIDITY_FRACTION", 0.10),
		MinTradeSize:      getFloat64OrDefault("MIN_TRADE_SIZE", 1.0),

		// Position lifecycle defaults
		HoldDuration:       getDurationOrDefault("HOLD_DURATION", 30*time.Second),
		MinHold:            getDurationOrDefault("MIN_HOLD", 5*time.Second),
		EarlyExitPct:       getFloat64OrDefault("EARLY_EXIT_PCT", 1.0),
		MinExitProfitPct:   getFloat64OrDefault("MIN_EXIT_PROFIT_PCT", 1.0),
		Cooldown:           getDurationOrDefault("ENTITY_COOLDOWN", 5*time.Minute),
		PositionTickPeriod: getDurationOrDefault("POSITION_TICK_PERIOD", 1*time.Second),

		// Execution defaults
		ExecutionMode: getEnvOrDefault("EXECUTION_MODE", "paper"),

		// Circuit breaker defaults
		CircuitBreakerEnabled:         getBoolOrDefault("CIRCUIT_BREAKER_ENABLED", false),
		CircuitBreakerCheckInterval:   getDurationOrDefault("CIRCUIT_BREAKER_CHECK_INTERVAL", 30*time.Second),
		CircuitBreakerTradeMultiplier: getFloat64OrDefault("CIRCUIT_BREAKER_TRADE_MULTIPLIER", 2.0),
		CircuitBreakerMinAbsolute:     getFloat64OrDefault("CIRCUIT_BREAKER_MIN_ABSOLUTE", 10.0),
		CircuitBreakerHysteresisRatio: getFloat64OrDefault("CIRCUIT_BREAKER_HYSTERESIS_RATIO", 1.5),

		// Storage defaults
		StorageMode:  getEnvOrDefault("STORAGE_MODE", "console"),
		PostgresHost: getEnvOrDefault("POSTGRES_HOST", "localhost"),
		PostgresPort: getEnvOrDefault("POSTGRES_PORT", "5432"),
		PostgresUser: getEnvOrDefault("POSTGRES_USER", "polymarket"),
		PostgresPass: getEnvOrDefault("POSTGRES_PASSWORD", "polymarket123"),
		PostgresDB:   getEnvOrDefault("POSTGRES_DB", "polymarket_lag"),
		PostgresSSL:  getEnvOrDefault("POSTGRES_SSLMODE", "disable"),
	}

	err := cfg.Validate()
	if err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// Validate checks that configuration values are valid.
func (c *Config) Validate() error {
	if c.HTTPPort == "" {
		return fmt.Errorf("HTTP_PORT cannot be empty")
	}

	if c.BinanceWSURL == "" {
		return fmt.Errorf("BINANCE_WS_URL cannot be empty")
	}

	if len(c.ReferenceSymbols) == 0 {
		return fmt.Errorf("REFERENCE_SYMBOLS cannot be empty")
	}

	if c.PolymarketWSURL == "" {
		return fmt.Errorf("POLYMARKET_WS_URL cannot be empty")
	}

	if c.PolymarketGammaURL == "" {
		return fmt.Errorf("POLYMARKET_GAMMA_API_URL cannot be empty")
	}

	if c.MoveThresholdPct <= 0 {
		return fmt.Errorf("MOVE_THRESHOLD_PCT must be positive, got %f", c.MoveThresholdPct)
	}

	if c.DetectionWindow <= 0 {
		return fmt.Errorf("DETECTION_WINDOW must be positive, got %s", c.DetectionWindow)
	}

	if c.TransferCoefficient <= 0 || c.TransferCoefficient > 1.0 {
		return fmt.Errorf("TRANSFER_COEFFICIENT must be in (0, 1.0], got %f", c.TransferCoefficient)
	}

	if c.DefaultBias != "bullish" && c.DefaultBias != "bearish" {
		return fmt.Errorf("DEFAULT_BIAS must be 'bullish' or 'bearish', got %q", c.DefaultBias)
	}

	if c.ExecutionPolicy != "limit" && c.ExecutionPolicy != "market" {
		return fmt.Errorf("EXECUTION_POLICY must be 'limit' or 'market', got %q", c.ExecutionPolicy)
	}

	if c.ExecutionMode != "paper" && c.ExecutionMode != "live" {
		return fmt.Errorf("EXECUTION_MODE must be 'paper' or 'live', got %q", c.ExecutionMode)
	}

	if c.MinHold > c.HoldDuration {
		return fmt.Errorf("MIN_HOLD (%s) cannot exceed HOLD_DURATION (%s)", c.MinHold, c.HoldDuration)
	}

	if c.LiquidityFraction <= 0 || c.LiquidityFraction > 1.0 {
		return fmt.Errorf("LIQUIDITY_FRACTION must be in (0, 1.0], got %f", c.LiquidityFraction)
	}

	return nil
}

func getEnvOrDefault(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	intVal, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}

	return intVal
}

func getFloat64OrDefault(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	floatVal, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return defaultValue
	}

	return floatVal
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	duration, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}

	return duration
}

func getBoolOrDefault(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	boolVal, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}

	return boolVal
}

func getStringSliceOrDefault(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, strings.ToUpper(p))
		}
	}

	if len(out) == 0 {
		return defaultValue
	}

	return out
}
