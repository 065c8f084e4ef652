package metadata

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDescribe(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(`<html><head>
		<title> Listings </title>
		<meta property="og:description" content="from og">
		<meta name="description" content="Flats for rent">
		<link rel="canonical" href="https://example.com/ads">
		</head><body><a href="/1">1</a><a href="/2">2</a><a>no href</a><form></form></body></html>`))
	require.NoError(t, err)

	assert.Equal(t, Page{
		Title:       "Listings",
		Description: "Flats for rent",
		Canonical:   "https://example.com/ads",
		Links:       2,
		Forms:       1,
	}, Describe(doc))
}

func TestDescribeFallsBackToOpenGraph(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(`<html><head>
		<meta property="og:title" content="OG title">
		<meta property="og:description" content="OG description">
		</head><body></body></html>`))
	require.NoError(t, err)

	p := Describe(doc)
	assert.Equal(t, "OG title", p.Title)
	assert.Equal(t, "OG description", p.Description)
	assert.Equal(t, Page{}, Describe(nil))
}
