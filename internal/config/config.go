// Package config provides configuration management for the analysis application.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Analysis    AnalysisConfig  `mapstructure:"analysis"`
	Synthesis   SynthesisConfig `mapstructure:"synthesis"`
	Cache       CacheConfig     `mapstructure:"cache"`
	UI          UIConfig        `mapstructure:"ui"`
	Credentials Credentials     `mapstructure:"-"` // Loaded separately
}

// AnalysisConfig holds tunable analysis parameters.
type AnalysisConfig struct {
	RSIOversold        float64            `mapstructure:"rsi_oversold"`
	RSIOverbought      float64            `mapstructure:"rsi_overbought"`
	BollingerProximity float64            `mapstructure:"bollinger_proximity"`
	HighVolumeRatio    float64            `mapstructure:"high_volume_ratio"`
	LowVolumeRatio     float64            `mapstructure:"low_volume_ratio"`
	SourceTimeoutSecs  int                `mapstructure:"source_timeout_seconds"`
	SourceWeights      map[string]float64 `mapstructure:"source_weights"`
}

// SynthesisConfig holds the synthesis provider chain configuration.
// Providers are tried in order until one succeeds.
type SynthesisConfig struct {
	Providers      []string `mapstructure:"providers"`
	AnthropicModel string   `mapstructure:"anthropic_model"`
	OpenAIModel    string   `mapstructure:"openai_model"`
	TimeoutSecs    int      `mapstructure:"timeout_seconds"`
}

// CacheConfig holds quote cache configuration.
type CacheConfig struct {
	QuoteTTLSecs int `mapstructure:"quote_ttl_seconds"`
}

// UIConfig holds output-related configuration.
type UIConfig struct {
	ColorEnabled bool   `mapstructure:"color_enabled"`
	DateFormat   string `mapstructure:"date_format"`
}

// Credentials holds API credentials, loaded from a separate file so the
// main config can be shared freely.
type Credentials struct {
	Finnhub    FinnhubCredentials    `mapstructure:"finnhub"`
	Polygon    PolygonCredentials    `mapstructure:"polygon"`
	Stocktwits StocktwitsCredentials `mapstructure:"stocktwits"`
	OpenAI     OpenAICredentials     `mapstructure:"openai"`
	Anthropic  AnthropicCredentials  `mapstructure:"anthropic"`
}

// FinnhubCredentials holds the Finnhub API key (quotes + news).
type FinnhubCredentials struct {
	APIKey string `mapstructure:"api_key"`
}

// PolygonCredentials holds the Polygon API key (options flow).
type PolygonCredentials struct {
	APIKey string `mapstructure:"api_key"`
}

// StocktwitsCredentials holds the Stocktwits API token (social sentiment).
type StocktwitsCredentials struct {
	AccessToken string `mapstructure:"access_token"`
}

// OpenAICredentials holds the OpenAI API key.
type OpenAICredentials struct {
	APIKey string `mapstructure:"api_key"`
}

// AnthropicCredentials holds the Anthropic API key.
type AnthropicCredentials struct {
	APIKey string `mapstructure:"api_key"`
}

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/stockintel"
	}
	return filepath.Join(home, ".config", "stockintel")
}

// Load loads configuration from the specified directory.
// If configDir is empty, uses the default config directory.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	cfg := &Config{}

	if err := loadConfigFile(configDir, cfg); err != nil {
		return nil, fmt.Errorf("loading config.yaml: %w", err)
	}

	if err := loadCredentials(configDir, &cfg.Credentials); err != nil {
		return nil, fmt.Errorf("loading credentials.yaml: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func loadConfigFile(configDir string, cfg *Config) error {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configDir)

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// Missing config file is fine; defaults apply
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return err
		}
	}

	return v.Unmarshal(cfg)
}

func loadCredentials(configDir string, creds *Credentials) error {
	v := viper.New()
	v.SetConfigName("credentials")
	v.SetConfigType("yaml")
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// No credentials file: sources depending on keys report unavailable
			return nil
		}
		return err
	}

	return v.Unmarshal(creds)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("analysis.rsi_oversold", 30.0)
	v.SetDefault("analysis.rsi_overbought", 70.0)
	v.SetDefault("analysis.bollinger_proximity", 0.02)
	v.SetDefault("analysis.high_volume_ratio", 1.5)
	v.SetDefault("analysis.low_volume_ratio", 0.7)
	v.SetDefault("analysis.source_timeout_seconds", 20)
	v.SetDefault("analysis.source_weights", map[string]float64{
		"technical-analysis": 25,
		"news-sentiment":     25,
		"social-sentiment":   15,
		"web-research":       20,
		"options-flow":       15,
	})
	v.SetDefault("synthesis.providers", []string{"anthropic", "openai"})
	v.SetDefault("synthesis.anthropic_model", "claude-sonnet-4-5")
	v.SetDefault("synthesis.openai_model", "gpt-4o")
	v.SetDefault("synthesis.timeout_seconds", 90)
	v.SetDefault("cache.quote_ttl_seconds", 60)
	v.SetDefault("ui.color_enabled", true)
	v.SetDefault("ui.date_format", "2006-01-02")
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("FINNHUB_API_KEY"); v != "" {
		cfg.Credentials.Finnhub.APIKey = v
	}
	if v := os.Getenv("POLYGON_API_KEY"); v != "" {
		cfg.Credentials.Polygon.APIKey = v
	}
	if v := os.Getenv("STOCKTWITS_ACCESS_TOKEN"); v != "" {
		cfg.Credentials.Stocktwits.AccessToken = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.Credentials.OpenAI.APIKey = v
	}
	if v := os.Getenv("ANTHROPIC_API_KEY"); v != "" {
		cfg.Credentials.Anthropic.APIKey = v
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Analysis.RSIOversold < 0 || c.Analysis.RSIOversold > 100 {
		return fmt.Errorf("rsi_oversold must be between 0 and 100")
	}
	if c.Analysis.RSIOverbought < 0 || c.Analysis.RSIOverbought > 100 {
		return fmt.Errorf("rsi_overbought must be between 0 and 100")
	}
	if c.Analysis.RSIOversold >= c.Analysis.RSIOverbought {
		return fmt.Errorf("rsi_oversold must be below rsi_overbought")
	}
	if c.Analysis.BollingerProximity < 0 || c.Analysis.BollingerProximity > 0.5 {
		return fmt.Errorf("bollinger_proximity must be between 0 and 0.5")
	}
	if c.Cache.QuoteTTLSecs <= 0 {
		return fmt.Errorf("quote_ttl_seconds must be positive")
	}
	for _, p := range c.Synthesis.Providers {
		if p != "anthropic" && p != "openai" {
			return fmt.Errorf("unknown synthesis provider: %s", p)
		}
	}
	return nil
}
