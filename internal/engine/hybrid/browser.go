// internal/engine/hybrid/browser.go
package hybrid

import (
	"context"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/law-makers/scavenger/internal/engine"
)

// Browser fetches statically first and re-renders in Chrome only when
// the document looks like a JavaScript shell.
type Browser struct {
	static  engine.Browser
	dynamic engine.Browser
	probes  []string
}

// New creates a hybrid browser. probes are selectors whose presence in
// the static document proves it needs no rendering.
func New(static, dynamic engine.Browser, probes ...string) *Browser {
	return &Browser{static: static, dynamic: dynamic, probes: probes}
}

// Name returns the name of this browser
func (b *Browser) Name() string {
	return "auto"
}

// WithProbes returns a copy checking the given selectors.
func (b *Browser) WithProbes(probes ...string) *Browser {
	return &Browser{static: b.static, dynamic: b.dynamic, probes: probes}
}

// Open fetches rawURL, escalating to Chrome when needed.
func (b *Browser) Open(ctx context.Context, rawURL string) (*engine.Page, error) {
	page, err := b.static.Open(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	return b.escalate(ctx, page, rawURL)
}

// Submit sends form statically; GET results may still be re-rendered.
func (b *Browser) Submit(ctx context.Context, form *engine.Form) (*engine.Page, error) {
	page, err := b.static.Submit(ctx, form)
	if err != nil {
		return nil, err
	}
	if form.Method != http.MethodGet {
		return page, nil
	}
	return b.escalate(ctx, page, form.URL())
}

func (b *Browser) escalate(ctx context.Context, page *engine.Page, rawURL string) (*engine.Page, error) {
	if b.dynamic == nil || DetermineStrategy(page, b.probes...) == StrategyStatic {
		return page, nil
	}

	log.Debug().
		Str("url", rawURL).
		Str("framework", DetectJavaScriptFramework(page.HTML())).
		Msg("Static document needs JavaScript, rendering")

	rendered, err := b.dynamic.Open(ctx, rawURL)
	if err != nil {
		log.Warn().Err(err).Str("url", rawURL).Msg("Render failed, keeping static document")
		return page, nil
	}
	return rendered, nil
}
