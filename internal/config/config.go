// Package config provides configuration loading and validation.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"github.com/fd1az/xrpl-liquidity/business/liquidity/domain"
	"github.com/fd1az/xrpl-liquidity/internal/apperror"
	"github.com/fd1az/xrpl-liquidity/internal/asset"
)

// Config holds all application configuration.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	XRPL      XRPLConfig      `mapstructure:"xrpl"`
	Market    MarketConfig    `mapstructure:"market"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Health    HealthConfig    `mapstructure:"health"`
}

// AppConfig holds general application settings.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
	LogLevel    string `mapstructure:"log_level"`
}

// XRPLConfig holds rippled endpoint configuration.
type XRPLConfig struct {
	RPCURL         string        `mapstructure:"rpc_url"`
	WebSocketURL   string        `mapstructure:"websocket_url"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	RateLimitRPS   float64       `mapstructure:"rate_limit_rps"`
	RateLimitBurst int           `mapstructure:"rate_limit_burst"`
	BookLimit      int           `mapstructure:"book_limit"`
	// LedgerIndex selects the ledger to read: "validated", "current" or a
	// sequence number.
	LedgerIndex    string        `mapstructure:"ledger_index"`
	MaxReconnects  int           `mapstructure:"max_reconnects"`
	InitialBackoff time.Duration `mapstructure:"initial_backoff"`
	MaxBackoff     time.Duration `mapstructure:"max_backoff"`
}

// MarketConfig holds market reporting configuration.
type MarketConfig struct {
	// Pairs are "BASE/QUOTE" with registry aliases or literal assets.
	Pairs []string `mapstructure:"pairs"`
	// Assets adds registry aliases as "ALIAS=CODE.issuer".
	Assets            []string      `mapstructure:"assets"`
	TakerSide         string        `mapstructure:"taker_side"`
	ProbeSizes        []string      `mapstructure:"probe_sizes"`
	SlippageTolerance string        `mapstructure:"slippage_tolerance"`
	OwnerReserve      string        `mapstructure:"owner_reserve"`
	FeeAdjusted       bool          `mapstructure:"fee_adjusted"`
	RefreshInterval   time.Duration `mapstructure:"refresh_interval"`
	TUIMode           bool          `mapstructure:"-"` // set at runtime from flags
}

// ParsedPairs resolves Pairs against registry.
func (c *MarketConfig) ParsedPairs(registry *asset.Registry) ([]domain.Pair, error) {
	pairs := make([]domain.Pair, 0, len(c.Pairs))
	for _, s := range c.Pairs {
		p, err := domain.ParsePair(strings.TrimSpace(s), registry)
		if err != nil {
			return nil, err
		}
		pairs = append(pairs, p)
	}
	return pairs, nil
}

// RegisterAssets adds the configured aliases to registry.
func (c *MarketConfig) RegisterAssets(registry *asset.Registry) error {
	for _, entry := range c.Assets {
		alias, literal, ok := strings.Cut(strings.TrimSpace(entry), "=")
		if !ok || alias == "" {
			return apperror.New(apperror.CodeConfigInvalid,
				apperror.WithContext(fmt.Sprintf("market.assets entry %q must be ALIAS=CODE.issuer", entry)))
		}
		if _, taken := registry.Get(alias); taken {
			return apperror.New(apperror.CodeConfigInvalid,
				apperror.WithContext("market.assets alias already defined: "+alias))
		}
		a, err := asset.ParseAsset(literal)
		if err != nil {
			return apperror.New(apperror.CodeConfigInvalid,
				apperror.WithContext("market.assets "+alias), apperror.WithCause(err))
		}
		registry.Register(alias, a, alias)
	}
	return nil
}

// Side returns the configured taker side, sell by default.
func (c *MarketConfig) Side() domain.Side {
	if strings.EqualFold(c.TakerSide, "buy") {
		return domain.SideBuy
	}
	return domain.SideSell
}

// ProbeSizesDecimal returns the probe spend sizes as decimals.
func (c *MarketConfig) ProbeSizesDecimal() []decimal.Decimal {
	sizes := make([]decimal.Decimal, 0, len(c.ProbeSizes))
	for _, s := range c.ProbeSizes {
		if v, err := decimal.NewFromString(s); err == nil {
			sizes = append(sizes, v)
		}
	}
	return sizes
}

// SlippageToleranceDecimal returns the depth window as a fraction.
func (c *MarketConfig) SlippageToleranceDecimal() decimal.Decimal {
	return decimal.RequireFromString(c.SlippageTolerance)
}

// OwnerReserveDecimal returns the owner reserve used to adjust best rates.
func (c *MarketConfig) OwnerReserveDecimal() decimal.Decimal {
	return decimal.RequireFromString(c.OwnerReserve)
}

// TelemetryConfig holds observability configuration.
type TelemetryConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	ServiceName    string `mapstructure:"service_name"`
	TraceProvider  string `mapstructure:"trace_provider"`
	OTLPEndpoint   string `mapstructure:"otlp_endpoint"`
	OTLPHeaders    string `mapstructure:"otlp_headers"`
	MetricsEnabled bool   `mapstructure:"metrics_enabled"`
}

// HealthConfig holds the health endpoint configuration.
type HealthConfig struct {
	Port int `mapstructure:"port"`
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

	v.SetEnvPrefix("LIQ")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	bindEnvVars(v)
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, apperror.New(apperror.CodeConfigInvalid, apperror.WithContext("read config"), apperror.WithCause(err))
		}
		// no file: env vars and defaults only
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, apperror.New(apperror.CodeConfigInvalid, apperror.WithContext("unmarshal config"), apperror.WithCause(err))
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func bindEnvVars(v *viper.Viper) {
	// App
	v.BindEnv("app.name", "LIQ_APP_NAME", "SERVICE_NAME")
	v.BindEnv("app.environment", "LIQ_ENVIRONMENT", "ENVIRONMENT")
	v.BindEnv("app.log_level", "LIQ_LOG_LEVEL", "LOG_LEVEL")

	// XRPL
	v.BindEnv("xrpl.rpc_url", "LIQ_XRPL_RPC_URL", "XRPL_RPC_URL")
	v.BindEnv("xrpl.websocket_url", "LIQ_XRPL_WS_URL", "XRPL_WS_URL")

	// Market
	v.BindEnv("market.pairs", "LIQ_PAIRS")
	v.BindEnv("market.assets", "LIQ_ASSETS")
	v.BindEnv("market.taker_side", "LIQ_TAKER_SIDE")
	v.BindEnv("market.probe_sizes", "LIQ_PROBE_SIZES")

	// Telemetry
	v.BindEnv("telemetry.enabled", "LIQ_OTEL_ENABLED", "OTEL_ENABLED")
	v.BindEnv("telemetry.service_name", "LIQ_OTEL_SERVICE_NAME", "OTEL_SERVICE_NAME")
	v.BindEnv("telemetry.otlp_endpoint", "LIQ_OTEL_ENDPOINT", "OTEL_EXPORTER_OTLP_ENDPOINT")
	v.BindEnv("telemetry.otlp_headers", "LIQ_OTEL_HEADERS", "OTEL_EXPORTER_OTLP_HEADERS")
}

func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.name", "xrpl-liquidity")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")

	// XRPL defaults (public mainnet cluster)
	v.SetDefault("xrpl.rpc_url", "https://xrplcluster.com")
	v.SetDefault("xrpl.websocket_url", "wss://xrplcluster.com")
	v.SetDefault("xrpl.request_timeout", "10s")
	v.SetDefault("xrpl.rate_limit_rps", 10)
	v.SetDefault("xrpl.rate_limit_burst", 5)
	v.SetDefault("xrpl.book_limit", 50)
	v.SetDefault("xrpl.ledger_index", "validated")
	v.SetDefault("xrpl.max_reconnects", 0) // infinite
	v.SetDefault("xrpl.initial_backoff", "1s")
	v.SetDefault("xrpl.max_backoff", "30s")

	// Market defaults
	v.SetDefault("market.pairs", []string{"XRP/RLUSD", "XRP/USD.bitstamp"})
	v.SetDefault("market.taker_side", "sell")
	v.SetDefault("market.probe_sizes", []string{"100", "1000", "10000"})
	v.SetDefault("market.slippage_tolerance", "0.05")
	v.SetDefault("market.owner_reserve", "0.2")
	v.SetDefault("market.fee_adjusted", true)
	v.SetDefault("market.refresh_interval", "10s")

	// Telemetry defaults
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.service_name", "xrpl-liquidity")
	v.SetDefault("telemetry.trace_provider", "CONSOLE_PROVIDER")
	v.SetDefault("telemetry.metrics_enabled", true)

	v.SetDefault("health.port", 8080)
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	invalid := func(format string, args ...any) error {
		return apperror.New(apperror.CodeConfigInvalid, apperror.WithContext(fmt.Sprintf(format, args...)))
	}

	if u, err := url.Parse(c.XRPL.RPCURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return invalid("xrpl.rpc_url must be an http(s) url: %q", c.XRPL.RPCURL)
	}
	if u, err := url.Parse(c.XRPL.WebSocketURL); err != nil || (u.Scheme != "ws" && u.Scheme != "wss") {
		return invalid("xrpl.websocket_url must be a ws(s) url: %q", c.XRPL.WebSocketURL)
	}
	if c.XRPL.BookLimit <= 0 {
		return invalid("xrpl.book_limit must be positive")
	}
	if len(c.Market.Pairs) == 0 {
		return invalid("market.pairs cannot be empty")
	}
	if err := c.Market.RegisterAssets(asset.NewRegistry()); err != nil {
		return err
	}
	if side := strings.ToLower(c.Market.TakerSide); side != "buy" && side != "sell" {
		return invalid("market.taker_side must be buy or sell: %q", c.Market.TakerSide)
	}
	for _, s := range c.Market.ProbeSizes {
		v, err := decimal.NewFromString(s)
		if err != nil || !v.IsPositive() {
			return invalid("market.probe_sizes must be positive decimals: %q", s)
		}
	}
	if v, err := decimal.NewFromString(c.Market.SlippageTolerance); err != nil || v.IsNegative() {
		return invalid("market.slippage_tolerance must be a non-negative decimal: %q", c.Market.SlippageTolerance)
	}
	if v, err := decimal.NewFromString(c.Market.OwnerReserve); err != nil || v.IsNegative() {
		return invalid("market.owner_reserve must be a non-negative decimal: %q", c.Market.OwnerReserve)
	}
	if c.Market.RefreshInterval <= 0 {
		return invalid("market.refresh_interval must be positive")
	}
	return nil
}
