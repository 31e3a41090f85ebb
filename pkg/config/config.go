package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	// Log configuration
	Log LogConfig `mapstructure:"log"`

	// NLP configuration
	NLP NLPConfig `mapstructure:"nlp"`

	// Aligner configuration
	Aligner AlignerConfig `mapstructure:"aligner"`

	// Retry configuration
	Retry RetryConfig `mapstructure:"retry"`

	// CircuitBreaker configuration
	CircuitBreaker CircuitBreakerConfig `mapstructure:"circuit_breaker"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// NLPConfig holds language model configuration
type NLPConfig struct {
	Provider    string  `mapstructure:"provider"` // openai, openai-compatible
	Model       string  `mapstructure:"model"`
	APIKey      string  `mapstructure:"api_key"`
	BaseURL     string  `mapstructure:"base_url"`
	Temperature float32 `mapstructure:"temperature"`
	MaxTokens   int     `mapstructure:"max_tokens"`
}

// AlignerConfig holds span alignment configuration
type AlignerConfig struct {
	FuzzyThreshold float64 `mapstructure:"fuzzy_threshold"`
	Tolerance      int     `mapstructure:"tolerance"`
}

// RetryConfig holds retry configuration
type RetryConfig struct {
	MaxAttempts  int `mapstructure:"max_attempts"`
	InitialDelay int `mapstructure:"initial_delay"` // in milliseconds
	MaxDelay     int `mapstructure:"max_delay"`     // in milliseconds
}

// CircuitBreakerConfig holds configuration for circuit breaking
type CircuitBreakerConfig struct {
	Enabled          bool    `mapstructure:"enabled"`
	MaxRequests      uint32  `mapstructure:"max_requests"`
	Interval         int     `mapstructure:"interval"` // in seconds
	Timeout          int     `mapstructure:"timeout"`  // in seconds
	ReadyToTripRatio float64 `mapstructure:"ready_to_trip_ratio"`
}

// Load loads configuration from file and environment variables
func Load() (*Config, error) {
	// Set defaults
	setDefaults()

	config := &Config{}
	if err := viper.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Override with environment variables if present
	overrideWithEnv(config)

	return config, nil
}

// setDefaults sets default configuration values
func setDefaults() {
	// Log defaults
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "text")

	// NLP defaults
	viper.SetDefault("nlp.provider", "openai")
	viper.SetDefault("nlp.model", "gpt-4o-mini")
	viper.SetDefault("nlp.temperature", 0.0)
	viper.SetDefault("nlp.max_tokens", 4096)

	// Aligner defaults
	viper.SetDefault("aligner.fuzzy_threshold", 0.75)
	viper.SetDefault("aligner.tolerance", 8)

	// Retry defaults
	viper.SetDefault("retry.max_attempts", 4)
	viper.SetDefault("retry.initial_delay", 1000)
	viper.SetDefault("retry.max_delay", 30000)

	// Circuit breaker defaults
	viper.SetDefault("circuit_breaker.enabled", false)
	viper.SetDefault("circuit_breaker.max_requests", 1)
	viper.SetDefault("circuit_breaker.interval", 60)
	viper.SetDefault("circuit_breaker.timeout", 30)
	viper.SetDefault("circuit_breaker.ready_to_trip_ratio", 0.6)
}

// overrideWithEnv overrides config with environment variables
func overrideWithEnv(config *Config) {
	if apiKey := os.Getenv("OPENAI_API_KEY"); apiKey != "" {
		config.NLP.APIKey = apiKey
	}
	if baseURL := os.Getenv("OPENAI_BASE_URL"); baseURL != "" {
		config.NLP.BaseURL = baseURL
	}
	if model := os.Getenv("ANNOTATO_MODEL"); model != "" {
		config.NLP.Model = model
	}
	if level := os.Getenv("ANNOTATO_LOG_LEVEL"); level != "" {
		config.Log.Level = level
	}
	if threshold := os.Getenv("ANNOTATO_FUZZY_THRESHOLD"); threshold != "" {
		if parsed, err := strconv.ParseFloat(threshold, 64); err == nil {
			config.Aligner.FuzzyThreshold = parsed
		}
	}
}
