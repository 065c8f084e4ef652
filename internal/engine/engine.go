// Package engine defines the browsing capability the crawler drives:
// opening pages, following links and submitting forms, with parsed
// documents exposed through goquery.
package engine

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	urlutil "github.com/law-makers/scavenger/internal/utils/url"
)

// Browser is the interface that all browsing engines must implement
type Browser interface {
	// Open navigates to an absolute URL
	Open(ctx context.Context, rawURL string) (*Page, error)

	// Submit sends a form and returns the resulting page
	Submit(ctx context.Context, form *Form) (*Page, error)

	// Name returns the name of the browser implementation
	Name() string
}

// Page is a fetched and parsed document.
type Page struct {
	URL        *url.URL
	StatusCode int
	Doc        *goquery.Document
	Rendered   bool
	Body       []byte
}

// NewPage parses body as HTML for the document at pageURL.
func NewPage(pageURL *url.URL, status int, body []byte) (*Page, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, NewEngineError(ErrCodeParseError, "failed to parse HTML", err).
			WithDetail("url", pageURL.String())
	}
	doc.Url = pageURL
	return &Page{URL: pageURL, StatusCode: status, Doc: doc, Body: body}, nil
}

// Selection returns the whole document.
func (p *Page) Selection() *goquery.Selection {
	return p.Doc.Selection
}

// Find runs selector against the whole document.
func (p *Page) Find(selector string) *goquery.Selection {
	return p.Doc.Find(selector)
}

// HTML returns the document markup.
func (p *Page) HTML() string {
	h, err := p.Doc.Html()
	if err != nil {
		return string(p.Body)
	}
	return h
}

// Resolve makes href absolute against the page URL.
func (p *Page) Resolve(href string) string {
	return urlutil.ResolveURL(p.URL.String(), strings.TrimSpace(href))
}

// Link returns the absolute href of the first node in sel.
func (p *Page) Link(sel *goquery.Selection) (string, error) {
	if sel == nil || sel.Length() == 0 {
		return "", NewEngineError(ErrCodeNotFound, "empty selection", ErrNoLink)
	}
	href, ok := sel.First().Attr("href")
	if !ok || strings.TrimSpace(href) == "" {
		return "", NewEngineError(ErrCodeNotFound,
			fmt.Sprintf("<%s> has no href", goquery.NodeName(sel.First())), ErrNoLink)
	}
	return p.Resolve(href), nil
}
