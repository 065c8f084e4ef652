// Package config builds the runtime configuration from defaults, the
// environment and command-line flags, and loads the scavenger file that
// declares targets, destination models and transform scripts.
package config

import (
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/law-makers/scavenger/internal/utils/headers"
	"github.com/law-makers/scavenger/pkg/models"
)

// Config holds application configuration values
type Config struct {
	// Logging
	LogLevel  string
	JSONLog   bool
	Verbosity int

	// HTTP/Crawling
	HTTPTimeout    time.Duration
	UserAgent      string
	Headers        http.Header
	Proxies        []string
	RateLimitRPS   float64
	RateLimitBurst int
	RetryAttempts  int
	Render         models.RenderMode

	// Browser Pool
	BrowserPoolSize int
	BrowserHeadless bool
	ChromePath      string

	// Caching
	CacheTTL     time.Duration
	CacheEntries int

	// Storage and extraction
	DatabasePath   string
	ConfigFile     string
	HashAlgorithm  string
	ParaphraserURL string

	explicit map[string]bool
}

// Default returns a Config populated with defaults only.
func Default() *Config {
	return &Config{
		LogLevel:        DefaultLogLevel,
		JSONLog:         DefaultJSONLog,
		Verbosity:       DefaultVerbosity,
		HTTPTimeout:     DefaultHTTPTimeout,
		UserAgent:       DefaultUserAgent,
		Headers:         make(http.Header),
		RateLimitRPS:    DefaultRateLimitRPS,
		RateLimitBurst:  DefaultRateLimitBurst,
		RetryAttempts:   DefaultRetryAttempts,
		Render:          DefaultRender,
		BrowserPoolSize: DefaultBrowserPoolSize,
		BrowserHeadless: DefaultBrowserHeadless,
		CacheTTL:        DefaultCacheTTL,
		CacheEntries:    DefaultCacheEntries,
		DatabasePath:    DefaultDatabasePath(),
		HashAlgorithm:   DefaultHashAlgorithm,
		explicit:        make(map[string]bool),
	}
}

// Load builds a Config by combining defaults, environment variables, and CLI flags.
// Caller should pass the executing *cobra.Command so inherited flags can be read.
func Load(cmd *cobra.Command) (*Config, error) {
	cfg := Default()

	// Override from environment variables
	if v := os.Getenv("SCAVENGER_USER_AGENT"); v != "" {
		cfg.UserAgent = v
	}
	if v := os.Getenv("SCAVENGER_PROXY"); v != "" {
		cfg.Proxies = splitList(v)
	}
	if v := os.Getenv("SCAVENGER_CHROME_PATH"); v != "" {
		cfg.ChromePath = v
	}
	if v := os.Getenv("SCAVENGER_DB"); v != "" {
		cfg.DatabasePath = v
		cfg.explicit["db"] = true
	}
	if v := os.Getenv("SCAVENGER_CONFIG"); v != "" {
		cfg.ConfigFile = v
	}
	if v := os.Getenv("SCAVENGER_HASH_ALGORITHM"); v != "" {
		cfg.HashAlgorithm = v
		cfg.explicit["hash"] = true
	}
	if v := os.Getenv("SCAVENGER_PARAPHRASER_URL"); v != "" {
		cfg.ParaphraserURL = v
		cfg.explicit["paraphraser"] = true
	}

	// Read CLI flags if provided
	if cmd != nil {
		if f := lookup(cmd, "user-agent"); f != nil && f.Value.String() != "" {
			cfg.UserAgent = f.Value.String()
		}
		if f := lookup(cmd, "header"); f != nil && f.Changed {
			var values []string
			if sv, ok := f.Value.(pflag.SliceValue); ok {
				values = sv.GetSlice()
			}
			h, err := headers.ParseHeaders(values)
			if err != nil {
				return nil, err
			}
			cfg.Headers = h
		}
		if f := lookup(cmd, "proxy"); f != nil && f.Changed {
			cfg.Proxies = splitList(strings.Trim(f.Value.String(), "[]"))
		}
		if f := lookup(cmd, "timeout"); f != nil && f.Changed {
			d, err := time.ParseDuration(f.Value.String())
			if err != nil {
				return nil, fmt.Errorf("invalid timeout %q: %w", f.Value.String(), err)
			}
			cfg.HTTPTimeout = d
		}
		if f := lookup(cmd, "json"); f != nil && f.Value.String() == "true" {
			cfg.JSONLog = true
		}
		if f := lookup(cmd, "quiet"); f != nil && f.Value.String() == "true" {
			cfg.LogLevel = "error"
		}
		if f := lookup(cmd, "verbose"); f != nil && f.Value.String() == "true" {
			cfg.LogLevel = "debug"
		}
		if f := lookup(cmd, "verbosity"); f != nil && f.Changed {
			n, err := strconv.Atoi(f.Value.String())
			if err != nil {
				return nil, fmt.Errorf("invalid verbosity: %w", err)
			}
			cfg.Verbosity = n
			cfg.explicit["verbosity"] = true
		}
		if f := lookup(cmd, "config"); f != nil && f.Value.String() != "" {
			cfg.ConfigFile = f.Value.String()
		}
		if f := lookup(cmd, "db"); f != nil && f.Value.String() != "" {
			cfg.DatabasePath = f.Value.String()
			cfg.explicit["db"] = true
		}
		if f := lookup(cmd, "render"); f != nil && f.Value.String() != "" {
			mode, ok := models.ParseRenderMode(f.Value.String())
			if !ok {
				return nil, fmt.Errorf("unknown render mode %q", f.Value.String())
			}
			cfg.Render = mode
			cfg.explicit["render"] = true
		}
		if f := lookup(cmd, "retries"); f != nil && f.Changed {
			n, err := strconv.Atoi(f.Value.String())
			if err != nil {
				return nil, fmt.Errorf("invalid retries: %w", err)
			}
			cfg.RetryAttempts = n
		}
		if f := lookup(cmd, "rate"); f != nil && f.Changed {
			rps, err := strconv.ParseFloat(f.Value.String(), 64)
			if err != nil {
				return nil, fmt.Errorf("invalid rate: %w", err)
			}
			cfg.RateLimitRPS = rps
		}
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// Apply merges scavenger file settings into c. Values set explicitly
// through flags or the environment win.
func (c *Config) Apply(s Settings) error {
	if c.explicit == nil {
		c.explicit = make(map[string]bool)
	}
	if s.HashAlgorithm != "" && !c.explicit["hash"] {
		c.HashAlgorithm = s.HashAlgorithm
	}
	if s.Verbosity > 0 && !c.explicit["verbosity"] {
		c.Verbosity = s.Verbosity
	}
	if s.Render != "" && !c.explicit["render"] {
		mode, ok := models.ParseRenderMode(s.Render)
		if !ok {
			return fmt.Errorf("unknown render mode %q", s.Render)
		}
		c.Render = mode
	}
	if s.Paraphraser != "" && !c.explicit["paraphraser"] {
		c.ParaphraserURL = s.Paraphraser
	}
	return validate(c)
}

func lookup(cmd *cobra.Command, name string) *pflag.Flag {
	if f := cmd.Flags().Lookup(name); f != nil {
		return f
	}
	if f := cmd.InheritedFlags().Lookup(name); f != nil {
		return f
	}
	return cmd.Root().PersistentFlags().Lookup(name)
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
