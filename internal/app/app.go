// Package app provides the core application initialization and lifecycle management.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/law-makers/scavenger/internal/cache"
	"github.com/law-makers/scavenger/internal/config"
	"github.com/law-makers/scavenger/internal/engine/dynamic"
	"github.com/law-makers/scavenger/internal/engine/hybrid"
	"github.com/law-makers/scavenger/internal/engine/static"
	"github.com/law-makers/scavenger/internal/proxy"
	"github.com/law-makers/scavenger/internal/ratelimit"
	"github.com/law-makers/scavenger/internal/record"
	"github.com/law-makers/scavenger/internal/retry"
	"github.com/law-makers/scavenger/internal/scanner"
	"github.com/law-makers/scavenger/internal/scrapper"
	"github.com/law-makers/scavenger/internal/seeker"
	"github.com/law-makers/scavenger/internal/store"
	"github.com/law-makers/scavenger/internal/transform"
	"github.com/law-makers/scavenger/pkg/models"
)

// ScriptTimeout bounds one run of a user transform script.
const ScriptTimeout = 2 * time.Second

// Application holds all application dependencies and manages their lifecycle.
//
// It is created once per command invocation. Use Close() to release the
// database and any Chrome instance that was started.
type Application struct {
	Config     *config.Config
	File       *config.File
	Logger     *zerolog.Logger
	Store      store.Store
	Transforms *transform.Registry
	Hasher     *record.Hasher
	Cache      *cache.PageCache
	Limiter    ratelimit.RateLimiter
	Proxies    *proxy.Pool
	Static     *static.Browser
	Dynamic    *dynamic.Browser
	Hybrid     *hybrid.Browser
	startTime  time.Time
}

// New creates and initializes a new Application with all dependencies.
//
// It performs the following initialization steps:
//   - Configures logging based on the provided config
//   - Loads the scavenger file and merges its settings
//   - Opens the SQLite store with the declared models
//   - Registers built-in, scripted and remote transforms
//   - Builds the static, dynamic and hybrid browsers
//
// If any step fails, an error is returned and resources opened so far are
// released.
func New(ctx context.Context, cfg *config.Config) (*Application, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	logger := ConfigureLogging(cfg)

	file, err := loadFile(cfg)
	if err != nil {
		return nil, err
	}
	if err := cfg.Apply(file.Settings); err != nil {
		return nil, fmt.Errorf("settings in %s: %w", file.Path, err)
	}
	logger.Debug().
		Str("file", file.Path).
		Int("targets", len(file.TargetNames())).
		Int("models", len(file.Models)).
		Msg("Scavenger file loaded")

	hasher, err := record.NewHasher(cfg.HashAlgorithm)
	if err != nil {
		return nil, err
	}

	transforms := transform.NewRegistry()
	if err := transforms.RegisterScripts(file.Scripts, ScriptTimeout); err != nil {
		return nil, fmt.Errorf("scripts: %w", err)
	}
	if cfg.ParaphraserURL != "" {
		p := transform.NewParaphraser(cfg.ParaphraserURL, cfg.HTTPTimeout, cfg.UserAgent)
		if err := transforms.Register(transform.ParaphraseName, p.Func(ctx)); err != nil {
			return nil, err
		}
	}

	st, err := store.OpenSQLite(ctx, cfg.DatabasePath, file.Models)
	if err != nil {
		return nil, err
	}

	pageCache := cache.New(cfg.CacheEntries, cfg.CacheTTL)

	var limiter ratelimit.RateLimiter
	if cfg.RateLimitRPS > 0 {
		limiter = ratelimit.NewHostLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
		logger.Debug().
			Float64("rps", cfg.RateLimitRPS).
			Int("burst", cfg.RateLimitBurst).
			Msg("Rate limiter initialized")
	}

	var proxies *proxy.Pool
	if len(cfg.Proxies) > 0 {
		proxies, err = proxy.NewPool(cfg.Proxies, proxy.DefaultCooldown)
		if err != nil {
			_ = st.Close()
			return nil, err
		}
	}

	staticBrowser, err := static.New(static.Options{
		Timeout:   cfg.HTTPTimeout,
		UserAgent: cfg.UserAgent,
		Headers:   cfg.Headers,
		Limiter:   limiter,
		Cache:     pageCache,
		Proxies:   proxies,
		Retry:     retry.DefaultConfig(cfg.RetryAttempts),
	})
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	chromeProxy := ""
	if len(cfg.Proxies) > 0 {
		chromeProxy = cfg.Proxies[0]
	}
	dynamicBrowser := dynamic.New(dynamic.Options{
		Pool: dynamic.BrowserPoolOptions{
			Size:       cfg.BrowserPoolSize,
			Headless:   cfg.BrowserHeadless,
			UserAgent:  cfg.UserAgent,
			Proxy:      chromeProxy,
			ChromePath: dynamic.FindChrome(cfg.ChromePath),
		},
		Timeout:        cfg.HTTPTimeout,
		WaitAfterLoad:  config.DefaultJSWaitTime,
		AcquireTimeout: config.DefaultPoolAcquireTTL,
		Limiter:        limiter,
	}, staticBrowser)

	a := &Application{
		Config:     cfg,
		File:       file,
		Logger:     &logger,
		Store:      st,
		Transforms: transforms,
		Hasher:     hasher,
		Cache:      pageCache,
		Limiter:    limiter,
		Proxies:    proxies,
		Static:     staticBrowser,
		Dynamic:    dynamicBrowser,
		Hybrid:     hybrid.New(staticBrowser, dynamicBrowser),
		startTime:  time.Now(),
	}

	logger.Debug().Str("db", cfg.DatabasePath).Str("render", string(cfg.Render)).Msg("Application initialized successfully")
	return a, nil
}

// ConfigureLogging sets the global zerolog level and writer from cfg and
// returns the logger.
func ConfigureLogging(cfg *config.Config) zerolog.Logger {
	level := zerolog.InfoLevel
	switch strings.ToLower(cfg.LogLevel) {
	case "debug":
		level = zerolog.DebugLevel
	case "warn":
		level = zerolog.WarnLevel
	case "error":
		level = zerolog.ErrorLevel
	}
	zerolog.SetGlobalLevel(level)

	var w io.Writer = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}
	if cfg.JSONLog {
		w = os.Stderr
	}
	log.Logger = zerolog.New(w).With().Timestamp().Logger()
	return log.Logger
}

func loadFile(cfg *config.Config) (*config.File, error) {
	path := config.FindConfigFile(cfg.ConfigFile)
	if path == "" {
		if cfg.ConfigFile != "" {
			return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, cfg.ConfigFile)
		}
		log.Debug().Msg("No scavenger file found, running without targets")
		return config.ParseFile(nil)
	}
	file, err := config.LoadFile(path)
	if err != nil {
		if errors.Is(err, config.ErrConfigNotFound) {
			return nil, fmt.Errorf("%w: %s", err, path)
		}
		return nil, err
	}
	return file, nil
}

// Seeker builds a seeker over the application's targets, store and
// browsers. progress may be nil.
func (a *Application) Seeker(progress scrapper.ProgressFunc) (*seeker.Seeker, error) {
	return seeker.New(seeker.Options{
		Definitions: a.File,
		Browsers: seeker.Browsers{
			models.RenderStatic:  a.Static,
			models.RenderDynamic: a.Dynamic,
			models.RenderAuto:    a.Hybrid,
		},
		Render:     a.Config.Render,
		Store:      a.Store,
		Transforms: a.Transforms,
		Hasher:     a.Hasher,
		Scanner:    scanner.New(),
		Verbosity:  a.Config.Verbosity,
		Progress:   progress,
	})
}

// Close releases the browsers and the store. Errors are logged and the
// first one is returned.
func (a *Application) Close(ctx context.Context) error {
	var first error
	if a.Dynamic != nil {
		if err := a.Dynamic.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Error closing browser")
			first = err
		}
	}
	if a.Cache != nil {
		a.Cache.Clear()
	}
	if a.Store != nil {
		if err := a.Store.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Error closing store")
			if first == nil {
				first = err
			}
		}
	}

	a.Logger.Debug().Dur("uptime", a.Uptime()).Msg("Application shutdown complete")
	return first
}

// Uptime returns how long the application has been running.
func (a *Application) Uptime() time.Duration {
	return time.Since(a.startTime)
}
