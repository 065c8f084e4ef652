// internal/engine/static/browser.go
package static

import (
	"context"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"

	"github.com/law-makers/scavenger/internal/cache"
	"github.com/law-makers/scavenger/internal/engine"
	"github.com/law-makers/scavenger/internal/proxy"
	"github.com/law-makers/scavenger/internal/ratelimit"
	"github.com/law-makers/scavenger/internal/retry"
	"github.com/law-makers/scavenger/internal/utils/headers"
	urlutil "github.com/law-makers/scavenger/internal/utils/url"
)

const (
	acceptHTML     = "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"
	acceptLanguage = "en-US,en;q=0.9"
	maxRedirects   = 10
)

// Options configures a static Browser. Nil collaborators are skipped.
type Options struct {
	Timeout   time.Duration
	UserAgent string
	Headers   http.Header
	Limiter   ratelimit.RateLimiter
	Cache     cache.Cache
	Proxies   *proxy.Pool
	Retry     retry.Config
}

// Browser fetches pages over plain HTTP and parses them with goquery.
// Cookies persist for the lifetime of the Browser, so a search form
// submission and the pagination that follows share one session.
type Browser struct {
	client *resty.Client
	opts   Options
	mu     sync.Mutex
}

// New creates a static Browser.
func New(opts Options) (*Browser, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("cookie jar: %w", err)
	}
	if opts.Retry.MaxAttempts < 1 {
		opts.Retry = retry.DefaultConfig(1)
	}

	client := resty.New().
		SetCookieJar(jar).
		SetRedirectPolicy(resty.FlexibleRedirectPolicy(maxRedirects)).
		SetHeader("Accept", acceptHTML).
		SetHeader("Accept-Language", acceptLanguage)
	if opts.Timeout > 0 {
		client.SetTimeout(opts.Timeout)
	}
	if opts.UserAgent != "" {
		client.SetHeader("User-Agent", opts.UserAgent)
	}
	if len(opts.Headers) > 0 {
		client.SetHeaders(headers.Flatten(opts.Headers))
	}

	return &Browser{client: client, opts: opts}, nil
}

// Name returns the name of this browser
func (b *Browser) Name() string {
	return "static"
}

// Open fetches rawURL with GET.
func (b *Browser) Open(ctx context.Context, rawURL string) (*engine.Page, error) {
	if err := urlutil.ValidateURL(rawURL); err != nil {
		return nil, engine.NewEngineError(engine.ErrCodeValidation, err.Error(), engine.ErrInvalidURL).
			WithDetail("url", rawURL)
	}

	key := cache.Key(http.MethodGet, rawURL)
	if b.opts.Cache != nil {
		if e, ok := b.opts.Cache.Get(key); ok {
			return pageFromEntry(e)
		}
	}

	page, err := retry.Do(ctx, b.opts.Retry, func() (*engine.Page, error) {
		return b.do(ctx, http.MethodGet, rawURL, "", "")
	})
	if err != nil {
		return nil, err
	}

	if b.opts.Cache != nil {
		b.opts.Cache.Set(key, &cache.Entry{
			URL:        page.URL.String(),
			StatusCode: page.StatusCode,
			Body:       page.Body,
		})
	}
	return page, nil
}

// Submit sends form. GET forms navigate to the encoded URL; POST forms
// are sent once, without retries.
func (b *Browser) Submit(ctx context.Context, form *engine.Form) (*engine.Page, error) {
	if form.Method == http.MethodGet {
		return b.Open(ctx, form.URL())
	}
	if err := urlutil.ValidateURL(form.Action); err != nil {
		return nil, engine.NewEngineError(engine.ErrCodeValidation, err.Error(), engine.ErrInvalidURL).
			WithDetail("url", form.Action)
	}
	return b.do(ctx, http.MethodPost, form.Action, form.Encode(), form.Origin)
}

func (b *Browser) do(ctx context.Context, method, target, body, referer string) (*engine.Page, error) {
	if b.opts.Limiter != nil {
		if err := b.opts.Limiter.Wait(ctx, target); err != nil {
			return nil, engine.Classify("rate limit wait", err)
		}
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	proxyURL := b.nextProxy()
	start := time.Now()

	req := b.client.R().SetContext(ctx)
	if referer != "" {
		req.SetHeader("Referer", referer)
	}

	var (
		res *resty.Response
		err error
	)
	switch method {
	case http.MethodPost:
		res, err = req.
			SetHeader("Content-Type", "application/x-www-form-urlencoded").
			SetBody(body).
			Post(target)
	default:
		res, err = req.Get(target)
	}
	if err != nil {
		if b.opts.Proxies != nil && ctx.Err() == nil {
			b.opts.Proxies.MarkFailed(proxyURL)
		}
		return nil, engine.Classify(method+" "+target, err).WithDetail("url", target)
	}
	if b.opts.Proxies != nil {
		b.opts.Proxies.MarkHealthy(proxyURL)
	}

	status := res.StatusCode()
	if status >= http.StatusBadRequest {
		return nil, engine.NewEngineError(engine.ErrCodeHTTPStatus,
			fmt.Sprintf("%s %s", method, target), retry.NewHTTPError(status, target)).
			WithDetail("status", status)
	}

	final, _ := url.Parse(target)
	if res.RawResponse != nil && res.RawResponse.Request != nil && res.RawResponse.Request.URL != nil {
		final = res.RawResponse.Request.URL
	}

	page, err := engine.NewPage(final, status, res.Body())
	if err != nil {
		return nil, err
	}

	log.Debug().
		Str("method", method).
		Str("url", final.String()).
		Int("status", status).
		Dur("elapsed", time.Since(start)).
		Msg("Fetch completed")
	return page, nil
}

// nextProxy points the client at the next proxy in rotation. Must be
// called with b.mu held.
func (b *Browser) nextProxy() string {
	if b.opts.Proxies == nil || b.opts.Proxies.Len() == 0 {
		return ""
	}
	p := b.opts.Proxies.Next()
	b.client.SetProxy(p)
	return p
}

func pageFromEntry(e *cache.Entry) (*engine.Page, error) {
	u, err := url.Parse(e.URL)
	if err != nil {
		return nil, engine.NewEngineError(engine.ErrCodeParseError, "cached URL", err)
	}
	page, err := engine.NewPage(u, e.StatusCode, e.Body)
	if err != nil {
		return nil, err
	}
	page.Rendered = e.Rendered
	return page, nil
}
