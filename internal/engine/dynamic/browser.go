// internal/engine/dynamic/browser.go
package dynamic

import (
	"context"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/rs/zerolog/log"

	"github.com/law-makers/scavenger/internal/engine"
	"github.com/law-makers/scavenger/internal/ratelimit"
	urlutil "github.com/law-makers/scavenger/internal/utils/url"
)

// Options configures a dynamic Browser.
type Options struct {
	Pool           BrowserPoolOptions
	Timeout        time.Duration
	WaitAfterLoad  time.Duration
	AcquireTimeout time.Duration
	Limiter        ratelimit.RateLimiter
}

// Browser renders GET navigations in headless Chrome. POST submissions
// go through the fallback browser, which shares no session with Chrome.
type Browser struct {
	opts     Options
	fallback engine.Browser

	once    sync.Once
	pool    *BrowserPool
	poolErr error
	mu      sync.Mutex
}

// New creates a dynamic Browser. Chrome starts on the first navigation.
func New(opts Options, fallback engine.Browser) *Browser {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.AcquireTimeout <= 0 {
		opts.AcquireTimeout = 10 * time.Second
	}
	return &Browser{opts: opts, fallback: fallback}
}

// Name returns the name of this browser
func (b *Browser) Name() string {
	return "dynamic"
}

// Open renders rawURL and returns the DOM after scripts ran.
func (b *Browser) Open(ctx context.Context, rawURL string) (*engine.Page, error) {
	if err := urlutil.ValidateURL(rawURL); err != nil {
		return nil, engine.NewEngineError(engine.ErrCodeValidation, err.Error(), engine.ErrInvalidURL).
			WithDetail("url", rawURL)
	}
	if b.opts.Limiter != nil {
		if err := b.opts.Limiter.Wait(ctx, rawURL); err != nil {
			return nil, engine.Classify("rate limit wait", err)
		}
	}

	pool, err := b.ensurePool()
	if err != nil {
		return nil, engine.NewEngineError(engine.ErrCodeBrowserCrash, "start chrome", err)
	}

	acquireCtx, cancelAcquire := context.WithTimeout(ctx, b.opts.AcquireTimeout)
	bc, err := pool.Acquire(acquireCtx)
	cancelAcquire()
	if err != nil {
		return nil, engine.Classify("acquire browser", err)
	}
	defer pool.Release(bc)

	runCtx, cancel := context.WithTimeout(bc.Ctx, b.opts.Timeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	start := time.Now()
	var (
		htmlContent string
		location    string
		statusMu    sync.Mutex
		status      int64
	)
	chromedp.ListenTarget(runCtx, func(ev interface{}) {
		if e, ok := ev.(*network.EventResponseReceived); ok && e.Type == network.ResourceTypeDocument {
			statusMu.Lock()
			status = e.Response.Status
			statusMu.Unlock()
		}
	})

	err = chromedp.Run(runCtx,
		network.Enable(),
		chromedp.Navigate(rawURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Sleep(b.opts.WaitAfterLoad),
		chromedp.Location(&location),
		chromedp.OuterHTML("html", &htmlContent, chromedp.ByQuery),
	)
	if err != nil {
		if ctx.Err() != nil {
			return nil, engine.Classify("render "+rawURL, ctx.Err())
		}
		return nil, engine.Classify("render "+rawURL, err).WithDetail("url", rawURL)
	}

	statusMu.Lock()
	code := int(status)
	statusMu.Unlock()
	if code == 0 {
		code = http.StatusOK
	}

	final, err := url.Parse(location)
	if err != nil || location == "" {
		final, _ = url.Parse(rawURL)
	}
	page, err := engine.NewPage(final, code, []byte(htmlContent))
	if err != nil {
		return nil, err
	}
	page.Rendered = true

	log.Debug().
		Str("url", final.String()).
		Int("status", code).
		Dur("elapsed", time.Since(start)).
		Msg("Render completed")
	return page, nil
}

// Submit renders GET forms and hands POST forms to the fallback browser.
func (b *Browser) Submit(ctx context.Context, form *engine.Form) (*engine.Page, error) {
	if form.Method == http.MethodGet {
		return b.Open(ctx, form.URL())
	}
	if b.fallback == nil {
		return nil, engine.NewEngineError(engine.ErrCodeValidation, "POST forms need a fallback browser", nil)
	}
	return b.fallback.Submit(ctx, form)
}

// Close stops Chrome if it was started.
func (b *Browser) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.pool == nil {
		return nil
	}
	err := b.pool.Close()
	b.pool = nil
	return err
}

func (b *Browser) ensurePool() (*BrowserPool, error) {
	b.once.Do(func() {
		log.Debug().Msg("Initializing browser pool on demand")
		pool, err := NewBrowserPool(b.opts.Pool)
		b.mu.Lock()
		b.pool, b.poolErr = pool, err
		b.mu.Unlock()
	})
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.pool == nil && b.poolErr == nil {
		return nil, ErrPoolClosed
	}
	return b.pool, b.poolErr
}
