// internal/config/defaults.go
package config

import "time"

// Default constants for application configuration
const (
	DefaultLogLevel = "info"
	DefaultJSONLog  = false

	DefaultHeadless    = true
	DefaultPoolSize    = 2
	DefaultMaxPoolSize = 8

	DefaultPageDelayMin = 2 * time.Second
	DefaultPageDelayMax = 5 * time.Second
	DefaultTermDelayMin = 3 * time.Second
	DefaultTermDelayMax = 7 * time.Second
	DefaultWaitTimeout  = 10 * time.Second

	DefaultMaxRetries         = 3
	DefaultRetryInitialDelay  = 2 * time.Second
	DefaultRetryBackoffFactor = 2.0

	DefaultRateLimitRPS   = 0.5
	DefaultRateLimitBurst = 2

	DefaultMaxPerTerm       = 50
	DefaultEmptyThreshold   = 2
	DefaultMinContentLength = 200
	DefaultEnrichLimit      = 8
	MaxEnrichLimit          = 20
)
