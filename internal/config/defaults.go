package config

import (
	"path/filepath"
	"time"

	"github.com/law-makers/scavenger/pkg/models"
)

// AppName names the per-user config and data directories.
const AppName = "scavenger"

// Default constants for application configuration
const (
	DefaultLogLevel           = "info"
	DefaultJSONLog            = false
	DefaultVerbosity          = 1
	MaxVerbosity              = 3
	DefaultUserAgent          = "Scavenger/1.0 (https://github.com/law-makers/scavenger)"
	DefaultHTTPTimeout        = 30 * time.Second
	DefaultRateLimitRPS       = 2.0
	DefaultRateLimitBurst     = 4
	DefaultRetryAttempts      = 1
	DefaultRender             = models.RenderStatic
	DefaultBrowserPoolSize    = 1
	DefaultMaxBrowserPoolSize = 10
	DefaultBrowserHeadless    = true
	DefaultCacheTTL           = 5 * time.Minute
	DefaultCacheEntries       = 512
	DefaultHashAlgorithm      = "sha512"
	DefaultJSWaitTime         = 500 * time.Millisecond
	DefaultPoolAcquireTTL     = 10 * time.Second
)

// DefaultDatabasePath is where scraps are stored when no path is given.
func DefaultDatabasePath() string {
	return filepath.Join(XDGDataDir(), "scavenger.db")
}
