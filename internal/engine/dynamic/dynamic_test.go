package dynamic

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/law-makers/scavenger/internal/engine"
)

type recordingBrowser struct {
	submitted *engine.Form
}

func (r *recordingBrowser) Name() string { return "recording" }

func (r *recordingBrowser) Open(context.Context, string) (*engine.Page, error) {
	return nil, nil
}

func (r *recordingBrowser) Submit(_ context.Context, f *engine.Form) (*engine.Page, error) {
	r.submitted = f
	return nil, nil
}

func TestSubmitPostUsesFallback(t *testing.T) {
	fb := &recordingBrowser{}
	b := New(Options{}, fb)

	form := &engine.Form{Action: "http://example.com/search", Method: http.MethodPost}
	_, err := b.Submit(context.Background(), form)
	require.NoError(t, err)
	assert.Same(t, form, fb.submitted)
	assert.Nil(t, b.pool, "chrome must not start for POST submissions")
}

func TestOpenRejectsInvalidURLWithoutStartingChrome(t *testing.T) {
	b := New(Options{}, nil)
	_, err := b.Open(context.Background(), "not a url")
	assert.ErrorIs(t, err, engine.ErrInvalidURL)
	assert.Nil(t, b.pool)
	assert.NoError(t, b.Close())
}

func TestFindChromeExplicitPath(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("executable bit check is unix only")
	}
	dir := t.TempDir()
	path := filepath.Join(dir, "chrome")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"), 0o755))

	assert.Equal(t, path, FindChrome(path))
}

func TestBrowserPoolRequiresChrome(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping browser test in short mode")
	}
	if FindChrome("") == "" {
		t.Skip("chrome not installed")
	}
	pool, err := NewBrowserPool(BrowserPoolOptions{Size: 1, Headless: true})
	require.NoError(t, err)
	defer pool.Close()

	bc, err := pool.Acquire(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, pool.Available())
	pool.Release(bc)
	assert.Equal(t, 1, pool.Available())
}
