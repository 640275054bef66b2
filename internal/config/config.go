// Package config loads and validates the worker configuration from an
// optional YAML file and MARKETPULSE_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	str2duration "github.com/xhit/go-str2duration/v2"
)

const (
	DefaultConfigPath = "./marketpulse.yaml"

	defaultInterval      = "5m"
	defaultSourceTimeout = "10s"
	defaultCandlePeriod  = "5m"
	defaultCandleLimit   = 50
	defaultOpenAIModel   = "gpt-4o-mini"
)

// Config is the full worker configuration, loaded once at startup and
// read-only afterwards.
type Config struct {
	Symbols       []string
	Interval      time.Duration
	SourceTimeout time.Duration

	LogLevel  string
	LogJSON   bool
	LogColors bool

	Binance      BinanceConfig
	Telegram     TelegramConfig
	OpenAI       OpenAIConfig
	Candles      CandleConfig
	OpenInterest OpenInterestConfig
}

// BinanceConfig holds exchange credentials and flags. Credentials are
// optional for public market data endpoints.
type BinanceConfig struct {
	APIKey    string
	SecretKey string
	Testnet   bool
}

// TelegramConfig holds the messaging sink credentials.
type TelegramConfig struct {
	Token       string
	ChatID      int64
	MaxAttempts int
}

// OpenAIConfig holds the bias model settings. The bias adapter is
// enabled iff an API key is present.
type OpenAIConfig struct {
	APIKey string
	Model  string
}

// CandleConfig controls the candle adapter's series shape.
type CandleConfig struct {
	Period string
	Limit  int
}

// OpenInterestConfig controls the futures open interest adapter.
type OpenInterestConfig struct {
	Enabled bool
}

// BiasEnabled reports whether the bias adapter should be constructed.
func (c *Config) BiasEnabled() bool {
	return c.OpenAI.APIKey != ""
}

// Load reads the configuration. An explicit path must exist; the
// default path is used only when present.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("MARKETPULSE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	switch {
	case path != "":
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
	default:
		if _, err := os.Stat(DefaultConfigPath); err == nil {
			v.SetConfigFile(DefaultConfigPath)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("reading config file %s: %w", DefaultConfigPath, err)
			}
		}
	}

	interval, err := str2duration.ParseDuration(v.GetString("interval"))
	if err != nil {
		return nil, fmt.Errorf("invalid interval: %w", err)
	}

	sourceTimeout, err := str2duration.ParseDuration(v.GetString("source_timeout"))
	if err != nil {
		return nil, fmt.Errorf("invalid source_timeout: %w", err)
	}

	cfg := &Config{
		Symbols:       splitSymbols(v.GetString("symbols")),
		Interval:      interval,
		SourceTimeout: sourceTimeout,
		LogLevel:      v.GetString("log.level"),
		LogJSON:       v.GetBool("log.json"),
		LogColors:     v.GetBool("log.colors"),
		Binance: BinanceConfig{
			APIKey:    v.GetString("binance.api_key"),
			SecretKey: v.GetString("binance.secret_key"),
			Testnet:   v.GetBool("binance.testnet"),
		},
		Telegram: TelegramConfig{
			Token:       v.GetString("telegram.token"),
			ChatID:      v.GetInt64("telegram.chat_id"),
			MaxAttempts: v.GetInt("telegram.max_attempts"),
		},
		OpenAI: OpenAIConfig{
			APIKey: v.GetString("openai.api_key"),
			Model:  v.GetString("openai.model"),
		},
		Candles: CandleConfig{
			Period: v.GetString("candles.period"),
			Limit:  v.GetInt("candles.limit"),
		},
		OpenInterest: OpenInterestConfig{
			Enabled: v.GetBool("open_interest.enabled"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("symbols", "BTCUSDT,ETHUSDT,SOLUSDT")
	v.SetDefault("interval", defaultInterval)
	v.SetDefault("source_timeout", defaultSourceTimeout)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.json", false)
	v.SetDefault("log.colors", true)
	v.SetDefault("telegram.max_attempts", 3)
	v.SetDefault("openai.model", defaultOpenAIModel)
	v.SetDefault("candles.period", defaultCandlePeriod)
	v.SetDefault("candles.limit", defaultCandleLimit)
	v.SetDefault("open_interest.enabled", true)
}

func splitSymbols(raw string) []string {
	parts := strings.Split(raw, ",")
	symbols := make([]string, 0, len(parts))
	for _, part := range parts {
		if symbol := strings.ToUpper(strings.TrimSpace(part)); symbol != "" {
			symbols = append(symbols, symbol)
		}
	}
	return symbols
}

// validate enforces the startup-fatal requirements: the sink must be
// fully configured and the schedule must be sane. Per-cycle concerns
// (exchange availability, model availability) are not checked here.
func (c *Config) validate() error {
	var errs []error

	if len(c.Symbols) == 0 {
		errs = append(errs, errors.New("at least one symbol is required"))
	}
	if c.Interval <= 0 {
		errs = append(errs, errors.New("interval must be positive"))
	}
	if c.SourceTimeout <= 0 {
		errs = append(errs, errors.New("source_timeout must be positive"))
	}
	if c.Interval > 0 && c.SourceTimeout >= c.Interval {
		errs = append(errs, errors.New("source_timeout must be shorter than the interval"))
	}
	if c.Telegram.Token == "" {
		errs = append(errs, errors.New("telegram.token is required"))
	}
	if c.Telegram.ChatID == 0 {
		errs = append(errs, errors.New("telegram.chat_id is required"))
	}
	if c.Telegram.MaxAttempts < 1 {
		errs = append(errs, errors.New("telegram.max_attempts must be at least 1"))
	}
	if c.Candles.Limit < 1 {
		errs = append(errs, errors.New("candles.limit must be at least 1"))
	}

	return errors.Join(errs...)
}
