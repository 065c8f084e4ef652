package dom

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const listing = `<html><body>
<div class="results">
  <a class="card" href="/rooms/1"><h3>Sunny Room</h3></a>
  <div class="card"><h3>No Link Here</h3></div>
  <section><a href="/rooms/3">Details</a><div><h3>Nested</h3></div></section>
</div>
</body></html>`

func doc(t *testing.T) *goquery.Document {
	t.Helper()
	d, err := goquery.NewDocumentFromReader(strings.NewReader(listing))
	require.NoError(t, err)
	return d
}

func TestClosestFindsWrappingAnchor(t *testing.T) {
	d := doc(t)
	heading := d.Find("h3").First()

	link, err := Closest("a[href]", heading)
	require.NoError(t, err)

	href, _ := link.First().Attr("href")
	assert.Equal(t, "/rooms/1", href)
}

func TestClosestFindsLinkInAncestorSubtree(t *testing.T) {
	d := doc(t)
	heading := d.Find("h3").Eq(2)

	link, err := Closest("a[href]", heading)
	require.NoError(t, err)

	href, _ := link.First().Attr("href")
	assert.Equal(t, "/rooms/3", href)
}

func TestClosestEmptySelection(t *testing.T) {
	d := doc(t)
	_, err := Closest("a[href]", d.Find(".missing"))
	assert.ErrorIs(t, err, ErrEmptySelection)

	_, err = Closest("a[href]", nil)
	assert.ErrorIs(t, err, ErrEmptySelection)
}

func TestClosestNoMatch(t *testing.T) {
	d := doc(t)
	_, err := Closest("table", d.Find("h3").First())
	assert.ErrorIs(t, err, ErrNoMatch)
}

func TestClosestInvalidSelector(t *testing.T) {
	d := doc(t)
	_, err := Closest("a[", d.Find("h3").First())
	assert.Error(t, err)
}
