// Package config provides configuration loading and validation.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	App       AppConfig                `mapstructure:"app"`
	Exchange  ExchangeConfig           `mapstructure:"exchange"`
	Arbitrage ArbitrageConfig          `mapstructure:"arbitrage"`
	Profiles  map[string]ProfileConfig `mapstructure:"profiles"`
	Execution ExecutionConfig          `mapstructure:"execution"`
	Reference ReferenceConfig          `mapstructure:"reference"`
	Telemetry TelemetryConfig          `mapstructure:"telemetry"`
	Health    HealthConfig             `mapstructure:"health"`
}

// AppConfig holds general application settings.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
	LogLevel    string `mapstructure:"log_level"`
	// LogFile enables rotating file output in addition to stderr.
	LogFile       string `mapstructure:"log_file"`
	LogMaxSizeMB  int    `mapstructure:"log_max_size_mb"`
	LogMaxBackups int    `mapstructure:"log_max_backups"`
	LogMaxAgeDays int    `mapstructure:"log_max_age_days"`
}

// ExchangeConfig selects the venue and holds its credentials and endpoints.
type ExchangeConfig struct {
	ID           string        `mapstructure:"id"`
	APIKey       string        `mapstructure:"api_key"`
	APISecret    string        `mapstructure:"api_secret"`
	RESTURL      string        `mapstructure:"rest_url"`
	WebSocketURL string        `mapstructure:"websocket_url"`
	Timeout      time.Duration `mapstructure:"timeout"`
	// WeightPerMinute is the REST request-weight budget.
	WeightPerMinute int `mapstructure:"weight_per_minute"`
	// QuoteAssets restricts the markets loaded; empty loads all trading spot markets.
	QuoteAssets []string `mapstructure:"quote_assets"`
}

// ArbitrageConfig holds scanning and ranking thresholds.
type ArbitrageConfig struct {
	// Trigger is "interval" or "stream".
	Trigger        string        `mapstructure:"trigger"`
	Interval       time.Duration `mapstructure:"interval"`
	MinRateProfit  float64       `mapstructure:"min_rate_profit"`
	MinProfitUSD   float64       `mapstructure:"min_profit_usd"`
	PublishRanks   bool          `mapstructure:"publish_ranks"`
	AllowOverlap   bool          `mapstructure:"allow_overlap"`
	MaxCandidates  int           `mapstructure:"max_candidates"`
	ReportTop      int           `mapstructure:"report_top"`
	DefaultFeeRate float64       `mapstructure:"default_fee_rate"`
}

// MinRateProfitDecimal returns the minimum profit rate (percent) as decimal.Decimal.
func (c *ArbitrageConfig) MinRateProfitDecimal() decimal.Decimal {
	return decimal.NewFromFloat(c.MinRateProfit)
}

// MinProfitUSDDecimal returns the minimum notional in reference fiat.
func (c *ArbitrageConfig) MinProfitUSDDecimal() decimal.Decimal {
	return decimal.NewFromFloat(c.MinProfitUSD)
}

// DefaultFeeRateDecimal returns the maker fee used when market metadata has none.
func (c *ArbitrageConfig) DefaultFeeRateDecimal() decimal.Decimal {
	return decimal.NewFromFloat(c.DefaultFeeRate)
}

// ProfileConfig carries per-exchange ranking and execution tweaks.
type ProfileConfig struct {
	FeeTiers      []float64 `mapstructure:"fee_tiers"`
	Blacklist     []string  `mapstructure:"blacklist"`
	AmountHaircut float64   `mapstructure:"amount_haircut"`
}

// FeeTiersDecimal returns the fee tiers as decimals.
func (c ProfileConfig) FeeTiersDecimal() []decimal.Decimal {
	out := make([]decimal.Decimal, len(c.FeeTiers))
	for i, f := range c.FeeTiers {
		out[i] = decimal.NewFromFloat(f)
	}
	return out
}

// AmountHaircutDecimal returns the fraction shaved off order amounts.
func (c ProfileConfig) AmountHaircutDecimal() decimal.Decimal {
	return decimal.NewFromFloat(c.AmountHaircut)
}

// ExecutionConfig controls order placement.
type ExecutionConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	MaxAttempts int           `mapstructure:"max_attempts"`
	RetryDelay  time.Duration `mapstructure:"retry_delay"`
	QueueSize   int           `mapstructure:"queue_size"`
}

// ReferenceConfig configures the fiat reference price provider.
type ReferenceConfig struct {
	BaseURL  string        `mapstructure:"base_url"`
	APIKey   string        `mapstructure:"api_key"`
	Currency string        `mapstructure:"currency"`
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// TelemetryConfig holds observability configuration.
type TelemetryConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	ServiceName    string `mapstructure:"service_name"`
	Exporter       string `mapstructure:"exporter"`
	OTLPEndpoint   string `mapstructure:"otlp_endpoint"`
	ZipkinEndpoint string `mapstructure:"zipkin_endpoint"`
	PrometheusPort int    `mapstructure:"prometheus_port"`
}

// HealthConfig configures the probe server.
type HealthConfig struct {
	Port int `mapstructure:"port"`
}

// Profile returns the profile for exchange id, or an empty one.
func (c *Config) Profile(id string) ProfileConfig {
	if p, ok := c.Profiles[strings.ToLower(id)]; ok {
		return p
	}
	return ProfileConfig{}
}

// Load loads configuration from file and environment variables.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.SetEnvPrefix("ARB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	bindEnvVars(v)
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found is OK, use env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func bindEnvVars(v *viper.Viper) {
	// App
	v.BindEnv("app.name", "ARB_APP_NAME", "SERVICE_NAME")
	v.BindEnv("app.environment", "ARB_ENVIRONMENT", "ENVIRONMENT")
	v.BindEnv("app.log_level", "ARB_LOG_LEVEL", "LOG_LEVEL")
	v.BindEnv("app.log_file", "ARB_LOG_FILE")

	// Exchange
	v.BindEnv("exchange.id", "ARB_EXCHANGE", "EXCHANGE")
	v.BindEnv("exchange.api_key", "ARB_API_KEY", "BINANCE_API_KEY")
	v.BindEnv("exchange.api_secret", "ARB_API_SECRET", "BINANCE_API_SECRET")
	v.BindEnv("exchange.rest_url", "ARB_REST_URL")
	v.BindEnv("exchange.websocket_url", "ARB_WS_URL")

	// Arbitrage
	v.BindEnv("arbitrage.trigger", "ARB_TRIGGER")
	v.BindEnv("arbitrage.interval", "ARB_INTERVAL")
	v.BindEnv("arbitrage.min_rate_profit", "ARB_MIN_RATE_PROFIT")
	v.BindEnv("arbitrage.min_profit_usd", "ARB_MIN_PROFIT_USD")
	v.BindEnv("arbitrage.publish_ranks", "ARB_PUBLISH_RANKS")

	// Execution
	v.BindEnv("execution.enabled", "ARB_EXECUTION_ENABLED")

	// Reference prices
	v.BindEnv("reference.api_key", "ARB_COINGECKO_API_KEY", "COINGECKO_API_KEY")

	// Telemetry
	v.BindEnv("telemetry.enabled", "ARB_OTEL_ENABLED", "OTEL_ENABLED")
	v.BindEnv("telemetry.service_name", "ARB_OTEL_SERVICE_NAME", "OTEL_SERVICE_NAME")
	v.BindEnv("telemetry.otlp_endpoint", "ARB_OTEL_ENDPOINT", "OTEL_EXPORTER_OTLP_ENDPOINT")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "triangular-arbitrage")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")
	v.SetDefault("app.log_max_size_mb", 100)
	v.SetDefault("app.log_max_backups", 5)
	v.SetDefault("app.log_max_age_days", 14)

	v.SetDefault("exchange.id", "binance")
	v.SetDefault("exchange.rest_url", "https://api.binance.com")
	v.SetDefault("exchange.websocket_url", "wss://stream.binance.com:9443")
	v.SetDefault("exchange.timeout", "10s")
	v.SetDefault("exchange.weight_per_minute", 1200)

	v.SetDefault("arbitrage.trigger", "interval")
	v.SetDefault("arbitrage.interval", "10s")
	v.SetDefault("arbitrage.min_rate_profit", 0.1)
	v.SetDefault("arbitrage.min_profit_usd", 10)
	v.SetDefault("arbitrage.publish_ranks", true)
	v.SetDefault("arbitrage.allow_overlap", false)
	v.SetDefault("arbitrage.max_candidates", 50)
	v.SetDefault("arbitrage.report_top", 5)
	v.SetDefault("arbitrage.default_fee_rate", 0.0002)

	v.SetDefault("profiles.binance.fee_tiers", []float64{0.1, 0.05})
	v.SetDefault("profiles.hitbtc2.blacklist", []string{"BCH", "GUSD"})
	v.SetDefault("profiles.hitbtc2.amount_haircut", 0.05)

	v.SetDefault("execution.enabled", false)
	v.SetDefault("execution.max_attempts", 5)
	v.SetDefault("execution.retry_delay", "1s")
	v.SetDefault("execution.queue_size", 8)

	v.SetDefault("reference.base_url", "https://api.coingecko.com/api/v3")
	v.SetDefault("reference.currency", "usd")
	v.SetDefault("reference.cache_ttl", "10m")
	v.SetDefault("reference.timeout", "5s")

	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.service_name", "triangular-arbitrage")
	v.SetDefault("telemetry.exporter", "otlp")
	v.SetDefault("telemetry.prometheus_port", 9090)

	v.SetDefault("health.port", 8081)
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Exchange.ID == "" {
		return fmt.Errorf("exchange.id is required")
	}
	switch c.Arbitrage.Trigger {
	case "interval", "stream":
	default:
		return fmt.Errorf("arbitrage.trigger must be interval or stream, got %q", c.Arbitrage.Trigger)
	}
	if c.Arbitrage.Trigger == "interval" && c.Arbitrage.Interval <= 0 {
		return fmt.Errorf("arbitrage.interval must be positive")
	}
	if c.Arbitrage.MinProfitUSD < 0 {
		return fmt.Errorf("arbitrage.min_profit_usd cannot be negative")
	}
	if c.Execution.MaxAttempts < 1 {
		return fmt.Errorf("execution.max_attempts must be at least 1")
	}
	if c.Execution.RetryDelay < 0 {
		return fmt.Errorf("execution.retry_delay cannot be negative")
	}
	if c.Execution.Enabled && (c.Exchange.APIKey == "" || c.Exchange.APISecret == "") {
		return fmt.Errorf("exchange.api_key and exchange.api_secret are required when execution is enabled")
	}
	for id, p := range c.Profiles {
		if p.AmountHaircut < 0 || p.AmountHaircut >= 1 {
			return fmt.Errorf("profiles.%s.amount_haircut must be in [0,1)", id)
		}
	}
	return nil
}
