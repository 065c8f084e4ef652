// internal/engine/dynamic/browser_pool.go
package dynamic

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/chromedp/chromedp"
	"github.com/rs/zerolog/log"
)

// ErrPoolClosed is returned by Acquire once the pool has been closed.
var ErrPoolClosed = errors.New("browser pool is closed")

// MaxPoolSize caps the number of tabs kept open.
const MaxPoolSize = 10

// BrowserPool keeps warm Chrome tabs that share one browser process.
type BrowserPool struct {
	size        int
	contexts    chan *BrowserContext
	allocCtx    context.Context
	allocCancel context.CancelFunc
	mu          sync.Mutex
	closed      bool
}

// BrowserContext wraps a chromedp context with its cancel function
type BrowserContext struct {
	Ctx    context.Context
	Cancel context.CancelFunc
}

// BrowserPoolOptions configures the browser pool
type BrowserPoolOptions struct {
	Size       int
	Headless   bool
	UserAgent  string
	Proxy      string
	ChromePath string
	ExtraArgs  []chromedp.ExecAllocatorOption
}

// NewBrowserPool starts Chrome and opens opts.Size tabs.
func NewBrowserPool(opts BrowserPoolOptions) (*BrowserPool, error) {
	if opts.Size <= 0 {
		opts.Size = 1
	}
	if opts.Size > MaxPoolSize {
		opts.Size = MaxPoolSize
	}

	log.Debug().Int("size", opts.Size).Msg("Creating browser pool")

	allocOpts := []chromedp.ExecAllocatorOption{
		chromedp.NoFirstRun,
		chromedp.NoDefaultBrowserCheck,
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-background-networking", true),
		chromedp.Flag("disable-breakpad", true),
		chromedp.Flag("disable-default-apps", true),
		chromedp.Flag("disable-hang-monitor", true),
		chromedp.Flag("disable-prompt-on-repost", true),
		chromedp.Flag("disable-sync", true),
		chromedp.Flag("disable-translate", true),
		chromedp.Flag("metrics-recording-only", true),
		chromedp.Flag("mute-audio", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("window-size", "1920,1080"),
	}
	if opts.UserAgent != "" {
		allocOpts = append(allocOpts, chromedp.UserAgent(opts.UserAgent))
	}

	if chromePath := FindChrome(opts.ChromePath); chromePath != "" {
		allocOpts = append([]chromedp.ExecAllocatorOption{chromedp.ExecPath(chromePath)}, allocOpts...)
	}

	if opts.Headless {
		allocOpts = append(allocOpts, chromedp.Flag("headless", "new"))
	} else {
		allocOpts = append(allocOpts, chromedp.Flag("headless", false))
	}

	if opts.Proxy != "" {
		allocOpts = append(allocOpts, chromedp.ProxyServer(opts.Proxy))
	}
	allocOpts = append(allocOpts, opts.ExtraArgs...)

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), allocOpts...)

	pool := &BrowserPool{
		size:        opts.Size,
		contexts:    make(chan *BrowserContext, opts.Size),
		allocCtx:    allocCtx,
		allocCancel: allocCancel,
	}

	for i := 0; i < opts.Size; i++ {
		browserCtx, browserCancel := chromedp.NewContext(allocCtx)

		if err := chromedp.Run(browserCtx, chromedp.Navigate("about:blank")); err != nil {
			browserCancel()
			pool.Close()
			return nil, fmt.Errorf("failed to warm up browser context %d: %w", i, err)
		}

		pool.contexts <- &BrowserContext{Ctx: browserCtx, Cancel: browserCancel}
		log.Debug().Int("context_id", i).Msg("Browser context initialized")
	}

	log.Info().Int("pool_size", opts.Size).Msg("Browser pool ready")
	return pool, nil
}

// Acquire takes a tab from the pool, blocking until one is free or ctx
// is done.
func (bp *BrowserPool) Acquire(ctx context.Context) (*BrowserContext, error) {
	select {
	case bc, ok := <-bp.contexts:
		if !ok {
			return nil, ErrPoolClosed
		}
		bp.mu.Lock()
		defer bp.mu.Unlock()
		if bp.closed {
			bc.Cancel()
			return nil, ErrPoolClosed
		}
		return bc, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("waiting for browser context: %w", ctx.Err())
	}
}

// Release returns a tab to the pool after resetting it to a blank page.
func (bp *BrowserPool) Release(bc *BrowserContext) {
	bp.mu.Lock()
	if bp.closed {
		bp.mu.Unlock()
		bc.Cancel()
		return
	}
	bp.mu.Unlock()

	_ = chromedp.Run(bc.Ctx, chromedp.Navigate("about:blank"))

	select {
	case bp.contexts <- bc:
	default:
		bc.Cancel()
		log.Warn().Msg("Browser pool full, discarding context")
	}
}

// Close shuts down all browser contexts and the allocator
func (bp *BrowserPool) Close() error {
	bp.mu.Lock()
	defer bp.mu.Unlock()

	if bp.closed {
		return nil
	}
	bp.closed = true

	close(bp.contexts)
	for bc := range bp.contexts {
		bc.Cancel()
	}
	bp.allocCancel()

	log.Debug().Msg("Browser pool closed")
	return nil
}

// Size returns the pool size
func (bp *BrowserPool) Size() int {
	return bp.size
}

// Available returns the number of idle tabs.
func (bp *BrowserPool) Available() int {
	return len(bp.contexts)
}
