// Package target turns raw target definitions from the scavenger file into
// validated, immutable Target values.
package target

import (
	"github.com/law-makers/scavenger/internal/record"
	"github.com/law-makers/scavenger/internal/scanner"
	"github.com/law-makers/scavenger/internal/transform"
	"github.com/law-makers/scavenger/pkg/models"
)

// Definition keys.
const (
	KeyName       = "name"
	KeyModel      = "model"
	KeySource     = "source"
	KeyMarkup     = "markup"
	KeyPager      = "pager"
	KeyPages      = "pages"
	KeyDissect    = "dissect"
	KeyPreprocess = "preprocess"
	KeyRemap      = "remap"
	KeyBadWords   = "bad_words"
	KeySearch     = "search"
	KeySERP       = "serp"
	KeyExample    = "example"
	KeyRender     = "render"

	KeyLink         = "link"
	KeySelector     = "selector"
	KeyText         = "text"
	KeyForm         = "form"
	KeyKeywordInput = "keyword_input_name"
	KeySubmitButton = "submit_button"
	KeyButtonID     = "id"
	KeyKeywords     = "keywords"
)

// Field maps one output attribute to either a CSS selector or a meta value
// already present on the record.
type Field struct {
	Attr     string
	Selector string
	Ref      record.Key
}

// IsRef reports whether the field copies a meta value instead of selecting.
func (f Field) IsRef() bool {
	return f.Ref.IsMeta()
}

// Inside describes what to extract from an item's detail page.
type Inside struct {
	Fields []Field
	Focus  string
}

// Markup is the parsed markup section.
type Markup struct {
	Fields      []Field
	TitleLink   string
	ItemWrapper string
	Inside      *Inside
}

// Extraction returns the fields applied to an item fragment: the inside
// fields when a detail page is followed, the listing fields otherwise.
func (m Markup) Extraction() []Field {
	if m.Inside != nil {
		return m.Inside.Fields
	}
	return m.Fields
}

// Pager locates the link to the next listing page.
type Pager struct {
	Selector string
	Text     string
}

// Search describes the form driven once per keyword.
type Search struct {
	FormSelector string
	KeywordInput string
	ButtonID     string
	ButtonText   string
	Keywords     []string
}

// Dissection splits one attribute into several using named patterns.
type Dissection struct {
	Patterns []scanner.Pattern
	Retain   bool
}

// Target is one validated crawl source. It is never mutated after construction;
// the per-pass item position is kept by the caller.
type Target struct {
	name   string
	model  string
	source string
	render models.RenderMode

	markup     Markup
	pager      *Pager
	pages      int
	dissect    map[string]Dissection
	preprocess map[string]transform.Func
	remap      map[string]string
	badWords   []string
	search     *Search
	serp       bool
}

func (t *Target) Name() string   { return t.name }
func (t *Target) Model() string  { return t.model }
func (t *Target) Source() string { return t.source }
func (t *Target) Markup() Markup { return t.markup }

// Render returns the render mode the target asked for, or "" to use the
// configured default.
func (t *Target) Render() models.RenderMode { return t.render }

// Pager returns the pager definition and whether one is configured.
func (t *Target) Pager() (Pager, bool) {
	if t.pager == nil {
		return Pager{}, false
	}
	return *t.pager, true
}

// Pages returns the per-target page limit, if the target sets one.
func (t *Target) Pages() (int, bool) {
	return t.pages, t.pages > 0
}

// Dissection returns the dissect rule for attr.
func (t *Target) Dissection(attr string) (Dissection, bool) {
	d, ok := t.dissect[attr]
	return d, ok
}

// Preprocess returns the transform configured for attr.
func (t *Target) Preprocess(attr string) (transform.Func, bool) {
	fn, ok := t.preprocess[attr]
	return fn, ok
}

// Remap returns the destination name for attr.
func (t *Target) Remap(attr string) (string, bool) {
	name, ok := t.remap[attr]
	return name, ok && name != ""
}

// BadWords returns a copy of the target blocklist.
func (t *Target) BadWords() []string {
	return append([]string(nil), t.badWords...)
}

// Search returns the search definition and whether search is enabled.
func (t *Target) Search() (Search, bool) {
	if t.search == nil {
		return Search{}, false
	}
	s := *t.search
	s.Keywords = append([]string(nil), t.search.Keywords...)
	return s, true
}

// IsSERP reports whether the target lists search engine results.
func (t *Target) IsSERP() bool { return t.serp }
