package engine

import (
	"errors"
	"net/http"
	"net/url"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const searchPage = `<!DOCTYPE html>
<html><body>
<div class="content">
  <form id="search" action="/results" method="post">
    <input type="hidden" name="token" value="abc">
    <input type="text" name="q" value="">
    <input type="checkbox" name="remote" value="yes" checked>
    <input type="checkbox" name="parttime" value="yes">
    <input type="text" name="off" value="x" disabled>
    <select name="sort"><option value="date">Date</option><option value="rel" selected>Relevance</option></select>
    <textarea name="notes">none</textarea>
    <input type="submit" id="go" name="action" value="Search">
    <button type="submit" name="action" value="lucky">Feeling lucky</button>
  </form>
</div>
<form class="plain" action="list"><input name="page" value="1"></form>
<p class="nothing">no form here</p>
<a class="rel" href="../detail/7?x=1">Detail</a>
<span class="bare">no href</span>
</body></html>`

func newTestPage(t *testing.T, raw, body string) *Page {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	p, err := NewPage(u, http.StatusOK, []byte(body))
	require.NoError(t, err)
	return p
}

func TestPageLink(t *testing.T) {
	p := newTestPage(t, "http://example.com/jobs/list", searchPage)

	link, err := p.Link(p.Find("a.rel"))
	require.NoError(t, err)
	assert.Equal(t, "http://example.com/detail/7?x=1", link)

	_, err = p.Link(p.Find("span.bare"))
	assert.True(t, IsNotFound(err))
	assert.ErrorIs(t, err, ErrNoLink)

	_, err = p.Link(p.Find("a.missing"))
	assert.True(t, IsNotFound(err))
}

func payload(t *testing.T, f *Form) url.Values {
	t.Helper()
	v, err := url.ParseQuery(f.Encode())
	require.NoError(t, err)
	return v
}

func TestFormByButtonID(t *testing.T) {
	p := newTestPage(t, "http://example.com/", searchPage)

	f, err := p.Form("div.content", "go", "")
	require.NoError(t, err)
	assert.Equal(t, "http://example.com/results", f.Action)
	assert.Equal(t, http.MethodPost, f.Method)
	assert.Equal(t, "http://example.com/", f.Origin)

	f.Set("q", "golang")
	want := url.Values{
		"token":  {"abc"},
		"q":      {"golang"},
		"remote": {"yes"},
		"sort":   {"rel"},
		"notes":  {"none"},
		"action": {"Search"},
	}
	if diff := cmp.Diff(want, payload(t, f)); diff != "" {
		t.Fatalf("form values mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, "token=abc&q=golang&remote=yes&sort=rel&notes=none&action=Search", f.Encode())
}

func TestFormByButtonText(t *testing.T) {
	p := newTestPage(t, "http://example.com/", searchPage)

	f, err := p.Form("div.content", "", "Feeling lucky")
	require.NoError(t, err)
	assert.Equal(t, "lucky", payload(t, f).Get("action"))
}

func TestFormFallsBackToDefaultSubmit(t *testing.T) {
	p := newTestPage(t, "http://example.com/", searchPage)

	f, err := p.Form("#search", "missing", "Nope")
	require.NoError(t, err)
	assert.Empty(t, f.ButtonName())
	assert.False(t, payload(t, f).Has("action"))
}

func TestFormGetURL(t *testing.T) {
	p := newTestPage(t, "http://example.com/jobs/", searchPage)

	f, err := p.Form("form.plain input", "", "")
	require.NoError(t, err)
	assert.Equal(t, http.MethodGet, f.Method)

	g := f.Clone()
	g.Set("page", "2")
	g.Set("kw", "go dev")
	assert.Equal(t, "http://example.com/jobs/list?page=2&kw=go+dev", g.URL())
	assert.Equal(t, "1", f.Get("page"), "clone must not alias the original")
	assert.False(t, f.Has("kw"))
}

func TestFormNotFound(t *testing.T) {
	p := newTestPage(t, "http://example.com/", searchPage)

	_, err := p.Form("#absent", "", "")
	assert.True(t, errors.Is(err, ErrNoForm))

	_, err = p.Form("p.nothing", "", "")
	assert.True(t, IsNotFound(err))
}

func TestClassify(t *testing.T) {
	err := Classify("fetch failed", errors.New("connection refused"))
	assert.Equal(t, ErrCodeNetworkError, err.Code)
	assert.True(t, err.Retryable())

	e := NewEngineError(ErrCodeNotFound, "x", nil)
	assert.True(t, errors.Is(err, NewEngineError(ErrCodeNetworkError, "", nil)))
	assert.False(t, errors.Is(e, NewEngineError(ErrCodeTimeout, "", nil)))
}
