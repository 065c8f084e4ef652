package config

import (
	"fmt"

	"github.com/law-makers/scavenger/internal/record"
	"github.com/law-makers/scavenger/pkg/models"
)

func validate(c *Config) error {
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("http timeout must be > 0")
	}
	if c.BrowserPoolSize <= 0 || c.BrowserPoolSize > DefaultMaxBrowserPoolSize {
		return fmt.Errorf("browser pool size must be between 1 and %d", DefaultMaxBrowserPoolSize)
	}
	if c.CacheEntries < 0 {
		return fmt.Errorf("cache entries must be >= 0")
	}
	if c.RetryAttempts < 1 {
		return fmt.Errorf("retry attempts must be >= 1")
	}
	if c.RateLimitRPS < 0 {
		return fmt.Errorf("rate limit must be >= 0")
	}
	if c.Verbosity < 1 || c.Verbosity > MaxVerbosity {
		return fmt.Errorf("verbosity must be between 1 and %d", MaxVerbosity)
	}
	if _, ok := models.ParseRenderMode(string(c.Render)); !ok {
		return fmt.Errorf("unknown render mode %q", c.Render)
	}
	if _, err := record.NewHasher(c.HashAlgorithm); err != nil {
		return err
	}
	return nil
}
