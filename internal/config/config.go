// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"
)

// Config holds application configuration values
type Config struct {
	// Logging
	LogLevel string
	JSONLog  bool

	// Browser
	Headless   bool
	ChromePath string
	UserAgent  string
	Proxy      string
	PoolSize   int

	// Pacing
	PageDelayMin time.Duration
	PageDelayMax time.Duration
	TermDelayMin time.Duration
	TermDelayMax time.Duration
	WaitTimeout  time.Duration

	// Retry
	MaxRetries         int
	RetryInitialDelay  time.Duration
	RetryBackoffFactor float64

	// Rate limiting
	RateLimitRPS   float64
	RateLimitBurst int

	// Harvest bounds
	MaxPerTerm       int
	EmptyThreshold   int
	MinContentLength int
	EnrichLimit      int

	// Site credentials, read from the environment only
	Username string
	Password string
}

// Load builds a Config from defaults, environment variables, and CLI
// flags, in that order. Caller passes the command so flags can be read.
func Load(cmd *cobra.Command) (*Config, error) {
	cfg := &Config{
		LogLevel:           DefaultLogLevel,
		JSONLog:            DefaultJSONLog,
		Headless:           DefaultHeadless,
		UserAgent:          os.Getenv("HARVEST_USER_AGENT"),
		PoolSize:           DefaultPoolSize,
		PageDelayMin:       DefaultPageDelayMin,
		PageDelayMax:       DefaultPageDelayMax,
		TermDelayMin:       DefaultTermDelayMin,
		TermDelayMax:       DefaultTermDelayMax,
		WaitTimeout:        DefaultWaitTimeout,
		MaxRetries:         DefaultMaxRetries,
		RetryInitialDelay:  DefaultRetryInitialDelay,
		RetryBackoffFactor: DefaultRetryBackoffFactor,
		RateLimitRPS:       DefaultRateLimitRPS,
		RateLimitBurst:     DefaultRateLimitBurst,
		MaxPerTerm:         DefaultMaxPerTerm,
		EmptyThreshold:     DefaultEmptyThreshold,
		MinContentLength:   DefaultMinContentLength,
		EnrichLimit:        DefaultEnrichLimit,
		ChromePath:         os.Getenv("HARVEST_CHROME_PATH"),
		Proxy:              os.Getenv("HARVEST_PROXY"),
		Username:           os.Getenv("HARVEST_USERNAME"),
		Password:           os.Getenv("HARVEST_PASSWORD"),
	}

	if v := os.Getenv("HARVEST_POOL_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.PoolSize = n
		}
	}

	if cmd != nil {
		if f := cmd.Flags().Lookup("user-agent"); f != nil {
			if s := f.Value.String(); s != "" {
				cfg.UserAgent = s
			}
		}
		if f := cmd.Flags().Lookup("proxy"); f != nil {
			if s := f.Value.String(); s != "" {
				cfg.Proxy = s
			}
		}
		if f := cmd.Flags().Lookup("chrome-path"); f != nil {
			if s := f.Value.String(); s != "" {
				cfg.ChromePath = s
			}
		}
		if f := cmd.Flags().Lookup("headful"); f != nil {
			if f.Value.String() == "true" {
				cfg.Headless = false
			}
		}
		if f := cmd.Flags().Lookup("json"); f != nil {
			if f.Value.String() == "true" {
				cfg.JSONLog = true
			}
		}
		if f := cmd.Flags().Lookup("verbose"); f != nil {
			if f.Value.String() == "true" {
				cfg.LogLevel = "debug"
			}
		}
		if f := cmd.Flags().Lookup("quiet"); f != nil {
			if f.Value.String() == "true" {
				cfg.LogLevel = "error"
			}
		}
		if f := cmd.Flags().Lookup("pool-size"); f != nil {
			if n, err := strconv.Atoi(f.Value.String()); err == nil && n > 0 {
				cfg.PoolSize = n
			}
		}
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}
