package seeker

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/law-makers/scavenger/internal/dom"
	"github.com/law-makers/scavenger/internal/engine"
	"github.com/law-makers/scavenger/internal/reqctx"
	"github.com/law-makers/scavenger/internal/scanner"
	"github.com/law-makers/scavenger/internal/scrapper"
	"github.com/law-makers/scavenger/internal/target"
	"github.com/law-makers/scavenger/pkg/models"
)

const anchorSelector = "a[href]"

var (
	errNoTitle = errors.New("title not found")
	errNoPager = errors.New("pager link not found")
)

// pass is the state of one listing walk: the landing page of a target, or
// the result page of one search keyword. Nothing here outlives the pass.
type pass struct {
	target   *target.Target
	browser  engine.Browser
	scrapper *scrapper.Scrapper
	limit    int
	backoff  time.Duration
	keyword  string

	page    int
	cursor  int
	items   int
	scraps  int
	visited map[string]bool
}

func (p *pass) addTo(ts *models.TargetSummary) {
	ts.Pages += p.page
	ts.Items += p.items
	ts.Scraps += p.scraps
}

// submit fills the search form found on landing with the pass keyword.
func (p *pass) submit(ctx context.Context, form *engine.Form, input string) (*engine.Page, error) {
	f := form.Clone()
	logger := reqctx.Logger(ctx)
	if !f.Has(input) {
		logger.Debug().Str("input", input).Msg("Keyword input not in form, adding it")
	}
	f.Set(input, p.keyword)
	logger.Debug().
		Str("keyword", p.keyword).
		Str("action", f.Action).
		Str("button", f.ButtonName()).
		Msg("Submitting search")
	return p.browser.Submit(ctx, f)
}

// run lists page and follows the pager until the page limit is reached or
// no next page can be found. The backoff is slept after every page.
func (p *pass) run(ctx context.Context, page *engine.Page) error {
	logger := reqctx.Logger(ctx)
	if p.keyword != "" {
		logger = logger.With().Str("keyword", p.keyword).Logger()
	}

	for {
		p.page++
		p.visited[page.URL.String()] = true
		logger.Debug().Int("page", p.page).Str("url", page.URL.String()).Msg("Listing page")

		if err := p.list(ctx, page); err != nil {
			return err
		}
		if err := sleep(ctx, p.backoff); err != nil {
			return err
		}

		if p.limit > 0 && p.page >= p.limit {
			return nil
		}
		pager, ok := p.target.Pager()
		if !ok {
			return nil
		}
		next, err := p.nextPage(ctx, page, pager)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logger.Debug().Err(err).Int("page", p.page).Msg("Pagination ended")
			return nil
		}
		page = next
	}
}

func (p *pass) nextPage(ctx context.Context, page *engine.Page, pager target.Pager) (*engine.Page, error) {
	candidates := page.Find(pager.Selector)
	if want := strings.TrimSpace(pager.Text); want != "" {
		candidates = candidates.FilterFunction(func(_ int, s *goquery.Selection) bool {
			return scanner.CleanText(s.Text()) == want
		})
	}
	if candidates.Length() == 0 {
		return nil, fmt.Errorf("%w: %s", errNoPager, pager.Selector)
	}

	link := candidates.First()
	if !link.Is(anchorSelector) {
		if inner := link.Find(anchorSelector); inner.Length() > 0 {
			link = inner.First()
		} else if near, err := dom.Closest(anchorSelector, link); err == nil {
			link = near
		}
	}
	href, err := page.Link(link)
	if err != nil {
		return nil, err
	}
	if p.visited[href] {
		return nil, fmt.Errorf("%w: %s was already listed", errNoPager, href)
	}
	return p.browser.Open(ctx, href)
}

// list collects every item on page. A broken item is logged and skipped.
func (p *pass) list(ctx context.Context, page *engine.Page) error {
	logger := reqctx.Logger(ctx)
	markup := p.target.Markup()

	locator := markup.ItemWrapper
	if locator == "" {
		locator = markup.TitleLink
	}
	items := page.Find(locator)
	logger.Debug().Str("locator", locator).Int("items", items.Length()).Msg("Items located")

	for i := range items.Length() {
		if err := ctx.Err(); err != nil {
			return err
		}
		p.items++
		item := items.Eq(i)

		tl, err := titleLink(page, item, markup.TitleLink)
		if err != nil {
			logger.Warn().Err(err).Int("item", i).Msg("Item skipped")
			continue
		}
		p.cursor++

		frag := item
		if inside := markup.Inside; inside != nil {
			detail, err := p.browser.Open(ctx, tl.Link)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				logger.Warn().Err(err).Str("link", tl.Link).Msg("Detail page failed, item skipped")
				continue
			}
			frag = detail.Selection()
			if inside.Focus != "" {
				frag = detail.Find(inside.Focus)
			}
		}

		sc, err := p.scrapper.Collect(ctx, tl, p.target, p.cursor, frag)
		if err != nil {
			logger.Warn().Err(err).Str("link", tl.Link).Msg("Item skipped")
			continue
		}
		if sc != nil {
			p.scraps++
		}
	}
	return nil
}

// titleLink finds the title text and link of one item. The anchor is the
// title node itself, an anchor in the item labelled with the title, the
// first anchor of the title node or item, or the nearest anchor around it.
func titleLink(page *engine.Page, item *goquery.Selection, selector string) (models.TitleLink, error) {
	node := item.Find(selector)
	if node.Length() == 0 {
		node = item.Filter(selector)
	}
	if node.Length() == 0 {
		return models.TitleLink{}, fmt.Errorf("%w: %s", errNoTitle, selector)
	}
	node = node.First()

	title := scanner.CleanText(node.Text())
	if title == "" {
		return models.TitleLink{}, fmt.Errorf("%w: %s is empty", errNoTitle, selector)
	}

	var anchor *goquery.Selection
	switch {
	case node.Is(anchorSelector):
		anchor = node
	default:
		all := item.Filter(anchorSelector).AddSelection(item.Find(anchorSelector))
		labelled := all.FilterFunction(func(_ int, s *goquery.Selection) bool {
			return scanner.CleanText(s.Text()) == title
		})
		switch {
		case labelled.Length() > 0:
			anchor = labelled.First()
		case node.Find(anchorSelector).Length() > 0:
			anchor = node.Find(anchorSelector).First()
		case all.Length() > 0:
			anchor = all.First()
		default:
			near, err := dom.Closest(anchorSelector, node)
			if err != nil {
				return models.TitleLink{}, fmt.Errorf("link for %q: %w", title, err)
			}
			anchor = near
		}
	}

	link, err := page.Link(anchor)
	if err != nil {
		return models.TitleLink{}, fmt.Errorf("link for %q: %w", title, err)
	}
	return models.TitleLink{Title: title, Link: link}, nil
}
