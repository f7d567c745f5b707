// internal/config/validation.go
package config

import "fmt"

func validate(c *Config) error {
	if c.PoolSize <= 0 || c.PoolSize > DefaultMaxPoolSize {
		return fmt.Errorf("pool size must be between 1 and %d", DefaultMaxPoolSize)
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max retries cannot be negative")
	}
	if c.RetryBackoffFactor < 1 {
		return fmt.Errorf("retry backoff factor must be >= 1")
	}
	if c.PageDelayMax < c.PageDelayMin {
		return fmt.Errorf("page delay max must be >= min")
	}
	if c.TermDelayMax < c.TermDelayMin {
		return fmt.Errorf("term delay max must be >= min")
	}
	if c.MaxPerTerm <= 0 {
		return fmt.Errorf("max per term must be > 0")
	}
	if c.EmptyThreshold <= 0 {
		return fmt.Errorf("empty page threshold must be > 0")
	}
	if c.EnrichLimit < 0 || c.EnrichLimit > MaxEnrichLimit {
		return fmt.Errorf("enrich limit must be between 0 and %d", MaxEnrichLimit)
	}
	return nil
}
