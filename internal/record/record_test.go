package record

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKey(t *testing.T) {
	tests := []struct {
		in     string
		kind   Kind
		isMeta bool
		out    string
	}{
		{"title", Ordinary, false, "title"},
		{"__link", Link, true, "__link"},
		{"__result", ItemWrapper, true, "__result"},
		{"__wrapper", ItemWrapper, true, "__wrapper"},
		{"__serp_result", SearchResult, true, "__serp_result"},
		{"__whatever", Unknown, true, "__whatever"},
		{"_single", Ordinary, false, "_single"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			k := ParseKey(tt.in)
			assert.Equal(t, tt.kind, k.Kind())
			assert.Equal(t, tt.isMeta, k.IsMeta())
			assert.Equal(t, tt.out, k.String())
		})
	}
}

func TestMetaKeyString(t *testing.T) {
	assert.Equal(t, "__link", Meta(Link).String())
	assert.Equal(t, "__id", Meta(ID).String())
	assert.Equal(t, "__item_wrapper", Meta(ItemWrapper).String())
	assert.Equal(t, "body", Attr("body").String())
}

func TestDigestIgnoresInsertionOrder(t *testing.T) {
	h, err := NewHasher("")
	require.NoError(t, err)
	assert.Equal(t, "sha512", h.Algorithm())

	a := Record{}
	a["title"] = "Two Bed Flat"
	a["price"] = "$100"
	a["__link"] = "http://example.com/1"

	b := Record{}
	b["__link"] = "http://example.com/1"
	b["price"] = "$100"
	b["title"] = "Two Bed Flat"

	da, err := h.Digest(a)
	require.NoError(t, err)
	db, err := h.Digest(b)
	require.NoError(t, err)

	assert.Equal(t, da, db)
	assert.Len(t, da, 128)

	b["price"] = "$200"
	dc, err := h.Digest(b)
	require.NoError(t, err)
	assert.NotEqual(t, da, dc)
}

func TestNewHasherRejectsUnknown(t *testing.T) {
	_, err := NewHasher("crc32")
	assert.Error(t, err)

	h, err := NewHasher("SHA256")
	require.NoError(t, err)
	d, err := h.Digest(Record{"a": "b"})
	require.NoError(t, err)
	assert.Len(t, d, 64)
}

func TestAttributesSkipsMeta(t *testing.T) {
	r := Record{"title": "x", "__link": "y", "body": "z"}
	assert.Equal(t, map[string]string{"title": "x", "body": "z"}, r.Attributes())
	assert.Equal(t, []string{"__link", "body", "title"}, r.Keys())
}
