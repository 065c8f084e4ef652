// Package metadata summarizes fetched documents for crawl diagnostics.
package metadata

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Page is what a document says about itself.
type Page struct {
	Title       string
	Description string
	Canonical   string
	Links       int
	Forms       int
}

// Describe reads the title, description and canonical link of doc and
// counts its links and forms.
func Describe(doc *goquery.Document) Page {
	if doc == nil {
		return Page{}
	}

	p := Page{
		Title: strings.TrimSpace(doc.Find("title").First().Text()),
		Links: doc.Find("a[href]").Length(),
		Forms: doc.Find("form").Length(),
	}

	doc.Find("meta").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		key := sel.AttrOr("name", sel.AttrOr("property", ""))
		switch strings.ToLower(key) {
		case "description":
			p.Description = strings.TrimSpace(sel.AttrOr("content", ""))
		case "og:description":
			if p.Description == "" {
				p.Description = strings.TrimSpace(sel.AttrOr("content", ""))
			}
		case "og:title":
			if p.Title == "" {
				p.Title = strings.TrimSpace(sel.AttrOr("content", ""))
			}
		}
		return true
	})

	if href, ok := doc.Find(`link[rel="canonical"]`).First().Attr("href"); ok {
		p.Canonical = strings.TrimSpace(href)
	}
	return p
}
