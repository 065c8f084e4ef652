package seeker

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/law-makers/scavenger/internal/config"
	"github.com/law-makers/scavenger/internal/engine"
	"github.com/law-makers/scavenger/internal/engine/static"
	"github.com/law-makers/scavenger/internal/store"
	"github.com/law-makers/scavenger/pkg/models"
)

const targetsYAML = `
models:
  listing:
    table: listings
    columns: [title, price]
targets:
  ads:
    model: listing
    source: %[1]s/ads
    pager: a.next
    markup:
      title: h3 a
      price: span.price
      __item: li.ad
  detail:
    model: listing
    source: %[1]s/ads
    pages: 1
    markup:
      title: h3 a
      __item: li.ad
      __inside:
        title: h1
        price: p.desc
        __focus: '#main'
  cars:
    model: listing
    source: %[1]s/search
    markup:
      title: h3 a
      __item: li.car
    search:
      form:
        selector: form#search
        keyword_input_name: q
        submit_button:
          id: go
      keywords: [red, blue]
  boom:
    model: listing
    source: %[1]s/ads
    render: dynamic
    markup:
      title: h3 a
      __item: li.ad
  broken:
    model: listing
    markup:
      title: h3 a
      __item: li.ad
  demo:
    example: true
`

func listing(items string, next string) string {
	pager := ""
	if next != "" {
		pager = fmt.Sprintf(`<div class="pager"><a class="next" href="%s">Next</a></div>`, next)
	}
	return "<html><body><ul>" + items + "</ul>" + pager + "</body></html>"
}

func ad(n int) string {
	return fmt.Sprintf(`<li class="ad"><h3><a href="/ad/%d">flat %d</a></h3><span class="price">%d00</span></li>`, n, n, n)
}

type fixture struct {
	srv  *httptest.Server
	hits atomic.Int32
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{}
	mux := http.NewServeMux()
	mux.HandleFunc("/ads", func(w http.ResponseWriter, r *http.Request) {
		f.hits.Add(1)
		if r.URL.Query().Get("page") == "2" {
			fmt.Fprint(w, listing(ad(6)+ad(7), ""))
			return
		}
		// the third item has no title and must be skipped on its own
		items := ad(1) + ad(2) + `<li class="ad"><span class="price">0</span></li>` + ad(3) + ad(4) + ad(5)
		fmt.Fprint(w, listing(items, "/ads?page=2"))
	})
	mux.HandleFunc("/ad/", func(w http.ResponseWriter, r *http.Request) {
		f.hits.Add(1)
		n := strings.TrimPrefix(r.URL.Path, "/ad/")
		fmt.Fprintf(w, `<html><body><h1>outside</h1><div id="main"><h1>flat %s detail</h1><p class="desc">Desc %s</p></div></body></html>`, n, n)
	})
	mux.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
		f.hits.Add(1)
		fmt.Fprint(w, `<html><body><form id="search" action="/results" method="get">
			<input type="text" name="q"><input type="hidden" name="lang" value="en">
			<button id="go" type="submit">Go</button></form></body></html>`)
	})
	mux.HandleFunc("/results", func(w http.ResponseWriter, r *http.Request) {
		f.hits.Add(1)
		q := r.URL.Query().Get("q")
		items := ""
		for i := 1; i <= 2; i++ {
			items += fmt.Sprintf(`<li class="car"><h3><a href="/car/%s/%d">%s car %d</a></h3></li>`, q, i, q, i)
		}
		fmt.Fprint(w, listing(items, ""))
	})
	f.srv = httptest.NewServer(mux)
	t.Cleanup(f.srv.Close)
	return f
}

type panicBrowser struct{}

func (panicBrowser) Open(context.Context, string) (*engine.Page, error) {
	panic("renderer exploded")
}

func (panicBrowser) Submit(context.Context, *engine.Form) (*engine.Page, error) {
	panic("renderer exploded")
}

func (panicBrowser) Name() string { return "panic" }

func newSeeker(t *testing.T, f *fixture) (*Seeker, *store.Memory) {
	t.Helper()
	file, err := config.ParseFile([]byte(fmt.Sprintf(targetsYAML, f.srv.URL)))
	require.NoError(t, err)
	mem, err := store.NewMemory(file.Models)
	require.NoError(t, err)
	return newSeekerWith(t, file, mem), mem
}

func newSeekerWith(t *testing.T, file *config.File, st store.Store) *Seeker {
	t.Helper()
	br, err := static.New(static.Options{Timeout: 5 * time.Second})
	require.NoError(t, err)
	s, err := New(Options{
		Definitions: file,
		Browsers: Browsers{
			models.RenderStatic:  br,
			models.RenderDynamic: panicBrowser{},
		},
		Store: st,
	})
	require.NoError(t, err)
	return s
}

func runOpts(pages int) models.OptionSet {
	return models.OptionSet{Save: true, Convert: true, Pages: pages}
}

func summaryOf(t *testing.T, r models.Result) models.Summary {
	t.Helper()
	s, ok := r.Extra()
	require.True(t, ok, "result has no summary: %v", r.Errors())
	return s
}

func TestSeekCollectsEveryPage(t *testing.T) {
	f := newFixture(t)
	s, mem := newSeeker(t, f)

	res := s.Seek(context.Background(), runOpts(0), "ads")
	require.True(t, res.Success(), res.Errors())

	sum := summaryOf(t, res)
	assert.Equal(t, 7, sum.Total)
	assert.Equal(t, 7, sum.New)
	assert.Equal(t, 7, sum.Converted)
	assert.Zero(t, sum.Unconverted)
	assert.True(t, sum.ScrapsSaved)
	assert.True(t, sum.ScrapsConverted)
	require.Len(t, sum.Targets, 1)
	assert.Equal(t, models.TargetSummary{Name: "ads", Pages: 2, Items: 8, Scraps: 7}, sum.Targets[0])

	scraps, err := mem.List(context.Background(), store.Filter{Target: "ads"})
	require.NoError(t, err)
	require.Len(t, scraps, 7)
	assert.Equal(t, "Flat 1", scraps[0].Title)
	assert.Equal(t, f.srv.URL+"/ad/1", scraps[0].Source)
	assert.Equal(t, "100", scraps[0].Data["price"])
	assert.Equal(t, "1", scraps[0].Data["__position"])
	for _, sc := range scraps {
		assert.Positive(t, sc.Related)
	}
}

func TestSeekTwiceFindsNothingNew(t *testing.T) {
	f := newFixture(t)
	s, mem := newSeeker(t, f)
	ctx := context.Background()

	first := summaryOf(t, s.Seek(ctx, runOpts(0), "ads"))
	before, err := mem.List(ctx, store.Filter{})
	require.NoError(t, err)

	second := summaryOf(t, s.Seek(ctx, runOpts(0), "ads"))
	after, err := mem.List(ctx, store.Filter{})
	require.NoError(t, err)

	assert.Equal(t, 7, first.New)
	assert.Zero(t, second.New)
	assert.Equal(t, 7, second.Total)
	assert.Equal(t, 7, second.Converted)

	require.Len(t, after, len(before))
	for i := range before {
		assert.Equal(t, before[i].Hash, after[i].Hash)
		assert.Equal(t, before[i].Related, after[i].Related)
	}
	_, ok := mem.Row("listing", 8)
	assert.False(t, ok, "second run must not create rows")
}

func TestSeekPageLimit(t *testing.T) {
	f := newFixture(t)
	s, _ := newSeeker(t, f)

	sum := summaryOf(t, s.Seek(context.Background(), runOpts(1), "ads"))
	assert.Equal(t, 5, sum.Total)
	assert.Equal(t, 1, sum.Targets[0].Pages)
}

func TestSeekDryRunStoresNothing(t *testing.T) {
	f := newFixture(t)
	s, mem := newSeeker(t, f)

	res := s.Seek(context.Background(), models.OptionSet{Pages: 1}, "ads")
	require.True(t, res.Success())
	sum := summaryOf(t, res)
	assert.Equal(t, 5, sum.Total)
	assert.False(t, sum.ScrapsSaved)
	assert.False(t, sum.ScrapsConverted)

	scraps, err := mem.List(context.Background(), store.Filter{})
	require.NoError(t, err)
	assert.Empty(t, scraps)
}

func TestSeekInsideFollowsDetailPages(t *testing.T) {
	f := newFixture(t)
	s, mem := newSeeker(t, f)
	ctx := context.Background()

	sum := summaryOf(t, s.Seek(ctx, runOpts(0), "detail"))
	assert.Equal(t, 5, sum.Total, "target pages override the run limit")

	scraps, err := mem.List(ctx, store.Filter{Target: "detail"})
	require.NoError(t, err)
	require.Len(t, scraps, 5)
	assert.Equal(t, "Flat 1 Detail", scraps[0].Data["title"])
	assert.Equal(t, "Desc 1", scraps[0].Data["price"])
}

func TestSeekSearchRunsEveryKeyword(t *testing.T) {
	f := newFixture(t)
	s, mem := newSeeker(t, f)
	ctx := context.Background()

	res := s.Seek(ctx, models.OptionSet{Save: true, Pages: 2, Keywords: "green"}, "cars")
	require.True(t, res.Success(), res.Errors())
	sum := summaryOf(t, res)
	assert.Equal(t, 6, sum.Total)
	assert.Equal(t, 3, sum.Targets[0].Pages)

	scraps, err := mem.List(ctx, store.Filter{Target: "cars"})
	require.NoError(t, err)
	var titles []string
	for _, sc := range scraps {
		titles = append(titles, sc.Title)
	}
	assert.ElementsMatch(t, []string{
		"Green Car 1", "Green Car 2", "Red Car 1", "Red Car 2", "Blue Car 1", "Blue Car 2",
	}, titles)
}

func TestSeekUnknownTarget(t *testing.T) {
	f := newFixture(t)
	s, _ := newSeeker(t, f)

	res := s.Seek(context.Background(), runOpts(0), "nope")
	assert.False(t, res.Success())
	assert.Equal(t, []string{"[!] Aborted - Unknown target (nope)."}, res.Errors())
	_, ok := res.Extra()
	assert.False(t, ok)
	assert.Zero(t, f.hits.Load())
}

func TestSeekIsolatesTargets(t *testing.T) {
	f := newFixture(t)
	s, _ := newSeeker(t, f)

	res := s.Seek(context.Background(), runOpts(1), "")
	assert.False(t, res.Success())
	assert.Equal(t, []string{"[!] Exception - thrown while crawling target boom: panic: renderer exploded"}, res.Errors())

	sum := summaryOf(t, res)
	assert.Equal(t, []string{"Missing source for target (broken). - Skipped"}, sum.Skipped)
	names := make([]string, 0, len(sum.Targets))
	for _, ts := range sum.Targets {
		names = append(names, ts.Name)
	}
	assert.Equal(t, []string{"ads", "detail", "cars", "boom"}, names)
	assert.Equal(t, 5, sum.Targets[0].Scraps)
}

func TestSeekCancelledBeforeStart(t *testing.T) {
	f := newFixture(t)
	s, _ := newSeeker(t, f)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := s.Seek(ctx, runOpts(0), "ads")
	assert.False(t, res.Success())
	assert.Equal(t, []string{"[!] Aborted - context canceled"}, res.Errors())
	assert.Zero(t, f.hits.Load())
}

func TestSeekCancelledDuringBackoffKeepsScraps(t *testing.T) {
	f := newFixture(t)
	s, mem := newSeeker(t, f)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	opts := runOpts(0)
	opts.Backoff = time.Minute
	started := time.Now()
	res := s.Seek(ctx, opts, "ads")

	assert.Less(t, time.Since(started), 30*time.Second)
	assert.False(t, res.Success())
	assert.Equal(t, []string{"[!] Aborted - context deadline exceeded"}, res.Errors())

	scraps, err := mem.List(context.Background(), store.Filter{})
	require.NoError(t, err)
	assert.Len(t, scraps, 5)
}

func TestBrowsersFor(t *testing.T) {
	br, err := static.New(static.Options{})
	require.NoError(t, err)
	set := Browsers{models.RenderStatic: br}

	got, err := set.For(models.RenderAuto, models.RenderDynamic)
	require.NoError(t, err)
	assert.Same(t, br, got)

	_, err = Browsers{}.For(models.RenderAuto, "")
	assert.Error(t, err)
}

func TestSeekInvalidDefinitionDoesNotFailRun(t *testing.T) {
	f := newFixture(t)
	file, err := config.ParseFile([]byte(fmt.Sprintf(`
models:
  listing:
    columns: [title]
targets:
  ads:
    model: listing
    source: %[1]s/ads
    markup:
      title: h3 a
      __item: li.ad
  stale:
    model: listing
    source: %[1]s/ads
    markup:
      title: h3 a
      __item: li.ad
    search: enabled
`, f.srv.URL)))
	require.NoError(t, err)
	mem, err := store.NewMemory(file.Models)
	require.NoError(t, err)
	s := newSeekerWith(t, file, mem)

	res := s.Seek(context.Background(), runOpts(1), "")
	require.True(t, res.Success(), res.Errors())
	sum := summaryOf(t, res)
	assert.Equal(t, 5, sum.Total)
	require.Len(t, sum.Skipped, 1)
	assert.Contains(t, sum.Skipped[0], "(stale)")
	require.Len(t, sum.Targets, 1)
	assert.Equal(t, "ads", sum.Targets[0].Name)
}

func TestSeekSearchFormMissingSkipsKeywords(t *testing.T) {
	f := newFixture(t)
	file, err := config.ParseFile([]byte(fmt.Sprintf(`
models:
  listing:
    columns: [title]
targets:
  lost:
    model: listing
    source: %[1]s/ads
    markup:
      title: h3 a
      __item: li.car
    search:
      form:
        selector: form#search
        keyword_input_name: q
      keywords: [red, blue]
`, f.srv.URL)))
	require.NoError(t, err)
	mem, err := store.NewMemory(file.Models)
	require.NoError(t, err)
	s := newSeekerWith(t, file, mem)

	res := s.Seek(context.Background(), runOpts(1), "lost")
	require.True(t, res.Success(), res.Errors())
	sum := summaryOf(t, res)
	assert.Zero(t, sum.Total)
	assert.Equal(t, models.TargetSummary{Name: "lost"}, sum.Targets[0])
	assert.Equal(t, int32(1), f.hits.Load(), "only the landing page is fetched")
}

func TestSeekUnresolvedModelIsResultError(t *testing.T) {
	f := newFixture(t)
	file, err := config.ParseFile([]byte(fmt.Sprintf(`
models:
  listing:
    columns: [title]
targets:
  ads:
    model: listing
    source: %[1]s/ads
    markup:
      title: h3 a
      __item: li.ad
  orphan:
    model: nowhere
    source: %[1]s/ads
    markup:
      title: h3 a
      __item: li.ad
`, f.srv.URL)))
	require.NoError(t, err)
	mem, err := store.NewMemory(file.Models)
	require.NoError(t, err)
	s := newSeekerWith(t, file, mem)

	res := s.Seek(context.Background(), runOpts(1), "")
	assert.False(t, res.Success())
	assert.Equal(t,
		[]string{`Could not resolve model for target orphan. Model "nowhere" is not defined. - Skipped`},
		res.Errors())

	sum := summaryOf(t, res)
	assert.Equal(t, 5, sum.Total, "the other target still runs")
	assert.Equal(t, res.Errors(), sum.Skipped)
}
