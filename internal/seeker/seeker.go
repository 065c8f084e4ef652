// Package seeker drives the crawl: for every target it opens the landing
// page, runs the search keywords, walks listing pages and hands each item
// to the scrapper.
package seeker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/law-makers/scavenger/internal/config"
	"github.com/law-makers/scavenger/internal/engine"
	"github.com/law-makers/scavenger/internal/engine/metadata"
	"github.com/law-makers/scavenger/internal/record"
	"github.com/law-makers/scavenger/internal/reqctx"
	"github.com/law-makers/scavenger/internal/scanner"
	"github.com/law-makers/scavenger/internal/scrapper"
	"github.com/law-makers/scavenger/internal/store"
	"github.com/law-makers/scavenger/internal/target"
	"github.com/law-makers/scavenger/internal/transform"
	"github.com/law-makers/scavenger/pkg/models"
)

// Result messages.
const (
	MsgUnknownTarget   = "[!] Aborted - Unknown target (%s)."
	MsgTargetException = "[!] Exception - thrown while crawling target %s: %s"
	MsgCancelled       = "[!] Aborted - %s"
)

// Definitions is the source of raw target definitions.
type Definitions interface {
	TargetNames() []string
	Target(name string) (*config.RawMap, bool)
}

// Browsers holds one browser per render mode.
type Browsers map[models.RenderMode]engine.Browser

// For returns the browser for mode, falling back to def and then to the
// static browser.
func (b Browsers) For(mode, def models.RenderMode) (engine.Browser, error) {
	for _, m := range []models.RenderMode{mode, def, models.RenderStatic} {
		if m == "" {
			continue
		}
		if br, ok := b[m]; ok && br != nil {
			return br, nil
		}
	}
	return nil, fmt.Errorf("no browser for render mode %q", mode)
}

// Options configures a Seeker.
type Options struct {
	Definitions Definitions
	Browsers    Browsers
	Render      models.RenderMode
	Store       store.Store
	Transforms  *transform.Registry
	Hasher      *record.Hasher
	Scanner     *scanner.Scanner
	Verbosity   int
	Progress    scrapper.ProgressFunc
}

// Seeker runs seek passes. A Seeker may be reused; each Seek call gets its
// own scrapper.
type Seeker struct {
	opts Options
}

// New returns a Seeker.
func New(opts Options) (*Seeker, error) {
	if opts.Definitions == nil {
		return nil, errors.New("seeker: no target definitions")
	}
	if len(opts.Browsers) == 0 {
		return nil, errors.New("seeker: no browsers")
	}
	if opts.Transforms == nil {
		opts.Transforms = transform.NewRegistry()
	}
	if opts.Render == "" {
		opts.Render = models.RenderStatic
	}
	return &Seeker{opts: opts}, nil
}

// Seek crawls the named target, or every configured target when name is
// empty. Failures of one target are recorded in the result and the run
// moves on. Collected scraps are saved and converted as opts request,
// even when ctx is cancelled part way.
func (s *Seeker) Seek(ctx context.Context, opts models.OptionSet, name string) models.Result {
	ctx = reqctx.WithRun(ctx)
	logger := reqctx.Logger(ctx)
	start := time.Now()
	result := models.NewResult()

	names := s.opts.Definitions.TargetNames()
	if name != "" {
		if _, ok := s.opts.Definitions.Target(name); !ok {
			msg := fmt.Sprintf(MsgUnknownTarget, name)
			logger.Error().Msg(msg)
			return result.WithError(msg).WithSuccess(false)
		}
		names = []string{name}
	}

	sc, err := scrapper.New(scrapper.Options{
		Hasher:    s.opts.Hasher,
		Scanner:   s.opts.Scanner,
		Scraps:    scrapsOf(s.opts.Store),
		Models:    modelsOf(s.opts.Store),
		Verbosity: s.opts.Verbosity,
		Progress:  s.opts.Progress,
	})
	if err != nil {
		return result.WithError(err.Error()).WithSuccess(false)
	}

	var resolver target.ModelResolver = modelsOf(s.opts.Store)
	if resolver == nil {
		resolver = anyModel{}
	}
	builder := target.NewBuilder(opts.KeywordList(), resolver, s.opts.Transforms)

	logger.Info().Int("targets", len(names)).Int("pages", opts.Pages).Msg("Seek started")

	summary := models.Summary{}
	for _, n := range names {
		if err := ctx.Err(); err != nil {
			result = result.WithError(fmt.Sprintf(MsgCancelled, err))
			break
		}

		def, _ := s.opts.Definitions.Target(n)
		t, err := builder.CreateFromDefinition(n, def)
		if errors.Is(err, target.ErrExample) {
			logger.Info().Msg(err.Error())
			continue
		}
		if err != nil {
			logger.Warn().Str("target", n).Msg(err.Error())
			summary.Skipped = append(summary.Skipped, err.Error())
			if errors.Is(err, target.ErrModelUnresolved) {
				result = result.WithError(err.Error())
			}
			continue
		}

		tctx := reqctx.WithTarget(ctx, n)
		ts, err := s.crawl(tctx, t, opts, sc)
		summary.Targets = append(summary.Targets, ts)
		if err != nil {
			if ctx.Err() != nil {
				result = result.WithError(fmt.Sprintf(MsgCancelled, ctx.Err()))
				break
			}
			msg := fmt.Sprintf(MsgTargetException, n, err.Error())
			reqctx.Logger(tctx).Error().Err(err).Msg(msg)
			result = result.WithError(msg)
		}
	}

	// persistence must outlive an interrupted crawl
	pctx := context.WithoutCancel(ctx)
	if opts.Save && s.opts.Store != nil {
		sc.SaveScraps(pctx)
		summary.ScrapsSaved = true
	}
	if opts.Convert && s.opts.Store != nil {
		sc.ConvertScraps(pctx, false, true)
		summary.ScrapsConverted = true
	}

	summary.Total = len(sc.Scraps())
	summary.New = sc.NewCount()
	summary.Converted = sc.ConvertedCount()
	if summary.ScrapsConverted {
		summary.Unconverted = summary.Total - summary.Converted
	}
	summary.Elapsed = time.Since(start)

	logger.Info().
		Int("total", summary.Total).
		Int("new", summary.New).
		Int("converted", summary.Converted).
		Int("skipped", len(summary.Skipped)).
		Dur("elapsed", summary.Elapsed).
		Msg("Seek finished")

	return result.WithExtra(summary).WithSuccess(!result.HasErrors())
}

// crawl runs every pass of one target. Panics are turned into errors so one
// broken target cannot take the run down.
func (s *Seeker) crawl(ctx context.Context, t *target.Target, opts models.OptionSet, sc *scrapper.Scrapper) (ts models.TargetSummary, err error) {
	ts.Name = t.Name()
	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("target", t.Name()).Interface("panic", r).Msg("Recovered from panic")
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	browser, err := s.opts.Browsers.For(t.Render(), s.opts.Render)
	if err != nil {
		return ts, err
	}

	limit := opts.Pages
	if pages, ok := t.Pages(); ok {
		limit = pages
	}

	logger := reqctx.Logger(ctx)
	logger.Debug().Str("browser", browser.Name()).Int("limit", limit).Str("source", t.Source()).Msg("Crawling target")

	landing, err := browser.Open(ctx, t.Source())
	if err != nil {
		return ts, fmt.Errorf("open %s: %w", t.Source(), err)
	}
	if s.opts.Verbosity >= scrapper.VerbosityMedium {
		meta := metadata.Describe(landing.Doc)
		logger.Debug().
			Str("url", landing.URL.String()).
			Int("status", landing.StatusCode).
			Str("title", meta.Title).
			Int("links", meta.Links).
			Int("forms", meta.Forms).
			Msg("Landing page fetched")
	}

	newPass := func(keyword string) *pass {
		return &pass{
			target:   t,
			browser:  browser,
			scrapper: sc,
			limit:    limit,
			backoff:  opts.Backoff,
			keyword:  keyword,
			visited:  make(map[string]bool),
		}
	}

	search, ok := t.Search()
	if !ok {
		p := newPass("")
		err = p.run(ctx, landing)
		p.addTo(&ts)
		return ts, err
	}

	form, err := landing.Form(search.FormSelector, search.ButtonID, search.ButtonText)
	if err != nil {
		logger.Warn().Err(err).Strs("keywords", search.Keywords).Msg("Search form not found, skipping keywords")
		return ts, nil
	}

	for _, kw := range search.Keywords {
		if err := ctx.Err(); err != nil {
			return ts, err
		}
		p := newPass(kw)
		page, serr := p.submit(ctx, form, search.KeywordInput)
		if serr != nil {
			logger.Warn().Err(serr).Str("keyword", kw).Msg("Search failed, skipping keyword")
			continue
		}
		err = p.run(ctx, page)
		p.addTo(&ts)
		if err != nil {
			return ts, err
		}
	}
	return ts, nil
}

// sleep waits d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func scrapsOf(st store.Store) store.Scraps {
	if st == nil {
		return nil
	}
	return st
}

func modelsOf(st store.Store) store.Models {
	if st == nil {
		return nil
	}
	return st
}

// anyModel accepts every model name. It stands in when no store is wired.
type anyModel struct{}

func (anyModel) HasModel(string) bool { return true }
