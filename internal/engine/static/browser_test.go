package static

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/law-makers/scavenger/internal/cache"
	"github.com/law-makers/scavenger/internal/engine"
	"github.com/law-makers/scavenger/internal/retry"
)

func newTestBrowser(t *testing.T, opts Options) *Browser {
	t.Helper()
	if opts.Timeout == 0 {
		opts.Timeout = 5 * time.Second
	}
	b, err := New(opts)
	require.NoError(t, err)
	return b
}

func TestOpenFollowsRedirectsAndKeepsCookies(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/start", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "sid", Value: "42", Path: "/"})
		http.Redirect(w, r, "/landing", http.StatusFound)
	})
	mux.HandleFunc("/landing", func(w http.ResponseWriter, r *http.Request) {
		c, err := r.Cookie("sid")
		sid := "none"
		if err == nil {
			sid = c.Value
		}
		fmt.Fprintf(w, `<html><body><h1>%s</h1><p class="ua">%s</p></body></html>`, sid, r.UserAgent())
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	b := newTestBrowser(t, Options{UserAgent: "TestBot/1.0"})
	page, err := b.Open(context.Background(), srv.URL+"/start")
	require.NoError(t, err)

	assert.Equal(t, srv.URL+"/landing", page.URL.String())
	assert.Equal(t, http.StatusOK, page.StatusCode)
	assert.Equal(t, "42", page.Find("h1").Text())
	assert.Equal(t, "TestBot/1.0", page.Find("p.ua").Text())
}

func TestSubmitPostForm(t *testing.T) {
	var got string
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `<form action="/search" method="post"><input name="q"><input type="submit" id="go" name="do" value="Go"></form>`)
	})
	mux.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.ParseForm() != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		got = r.PostForm.Encode()
		fmt.Fprintf(w, `<ul><li>%s</li></ul>`, r.PostForm.Get("q"))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	b := newTestBrowser(t, Options{})
	page, err := b.Open(context.Background(), srv.URL+"/")
	require.NoError(t, err)

	form, err := page.Form("form", "go", "")
	require.NoError(t, err)
	form.Set("q", "golang")

	results, err := b.Submit(context.Background(), form)
	require.NoError(t, err)
	assert.Equal(t, "golang", results.Find("li").Text())
	assert.Equal(t, "do=Go&q=golang", got)
}

func TestSubmitGetForm(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/find" {
			fmt.Fprintf(w, `<p>%s</p>`, r.URL.Query().Get("kw"))
			return
		}
		io.WriteString(w, `<form action="/find"><input name="kw"></form>`)
	}))
	defer srv.Close()

	b := newTestBrowser(t, Options{})
	page, err := b.Open(context.Background(), srv.URL)
	require.NoError(t, err)
	form, err := page.Form("form", "", "")
	require.NoError(t, err)
	form.Set("kw", "rust")

	results, err := b.Submit(context.Background(), form)
	require.NoError(t, err)
	assert.Equal(t, "rust", results.Find("p").Text())
}

func TestOpenHTTPStatusError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.NotFound(w, r)
	}))
	defer srv.Close()

	cfg := retry.DefaultConfig(3)
	cfg.InitialBackoff = time.Millisecond
	b := newTestBrowser(t, Options{Retry: cfg})

	_, err := b.Open(context.Background(), srv.URL+"/missing")
	require.Error(t, err)
	assert.Equal(t, engine.ErrCodeHTTPStatus, engine.Code(err))
	assert.Equal(t, int32(1), calls.Load(), "404 is not retried")
}

func TestOpenRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		io.WriteString(w, `<p>ok</p>`)
	}))
	defer srv.Close()

	cfg := retry.DefaultConfig(3)
	cfg.InitialBackoff = time.Millisecond
	b := newTestBrowser(t, Options{Retry: cfg})

	page, err := b.Open(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "ok", page.Find("p").Text())
	assert.Equal(t, int32(3), calls.Load())
}

func TestOpenUsesCache(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		io.WriteString(w, `<p>cached</p>`)
	}))
	defer srv.Close()

	b := newTestBrowser(t, Options{Cache: cache.New(8, time.Minute)})
	for i := 0; i < 3; i++ {
		page, err := b.Open(context.Background(), srv.URL)
		require.NoError(t, err)
		assert.Equal(t, "cached", page.Find("p").Text())
	}
	assert.Equal(t, int32(1), calls.Load())
}

func TestOpenRejectsInvalidURL(t *testing.T) {
	b := newTestBrowser(t, Options{})
	_, err := b.Open(context.Background(), "ftp://example.com")
	assert.ErrorIs(t, err, engine.ErrInvalidURL)
	assert.Equal(t, engine.ErrCodeValidation, engine.Code(err))
}

func TestOpenCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `<p>late</p>`)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	b := newTestBrowser(t, Options{})
	_, err := b.Open(ctx, srv.URL)
	assert.ErrorIs(t, err, context.Canceled)
}
