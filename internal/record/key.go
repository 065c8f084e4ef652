// Package record holds the flat attribute map produced for every scraped
// item, the key type that separates ordinary attributes from reserved ones,
// and the canonical content hash used for deduplication.
package record

import "strings"

// Prefix marks a reserved key in configuration and in records.
const Prefix = "__"

// Title is the ordinary attribute every record carries.
const Title = "title"

// Kind classifies a key.
type Kind uint8

const (
	// Ordinary is an extractable attribute name.
	Ordinary Kind = iota

	// Meta attributes stamped on every record.
	Link
	Position
	Source
	Model
	ID
	SearchResult
	Target

	// Structural keys that only appear in target configuration.
	ItemWrapper
	Inside
	Focus
	Retain

	// Unknown is a prefixed key with no reserved meaning.
	Unknown
)

var canonical = map[Kind]string{
	Link:         "link",
	Position:     "position",
	Source:       "source",
	Model:        "model",
	ID:           "id",
	SearchResult: "serp_result",
	Target:       "target",
	ItemWrapper:  "item_wrapper",
	Inside:       "inside",
	Focus:        "focus",
	Retain:       "retain",
}

var byName = map[string]Kind{
	"link":         Link,
	"position":     Position,
	"source":       Source,
	"model":        Model,
	"id":           ID,
	"serp_result":  SearchResult,
	"target":       Target,
	"item_wrapper": ItemWrapper,
	"result":       ItemWrapper,
	"item":         ItemWrapper,
	"wrapper":      ItemWrapper,
	"inside":       Inside,
	"focus":        Focus,
	"retain":       Retain,
}

// ItemWrapperAliases lists the accepted spellings of the item wrapper key
// in priority order.
var ItemWrapperAliases = []string{
	Prefix + "item_wrapper",
	Prefix + "result",
	Prefix + "item",
	Prefix + "wrapper",
}

// Key is a parsed attribute or configuration key.
type Key struct {
	name string
	kind Kind
}

// ParseKey classifies s. Only this function inspects the prefix.
func ParseKey(s string) Key {
	if !strings.HasPrefix(s, Prefix) {
		return Key{name: s, kind: Ordinary}
	}
	name := strings.TrimPrefix(s, Prefix)
	if kind, ok := byName[name]; ok {
		return Key{name: name, kind: kind}
	}
	return Key{name: name, kind: Unknown}
}

// Attr returns an ordinary key.
func Attr(name string) Key {
	return Key{name: name, kind: Ordinary}
}

// Meta returns the canonical key for kind.
func Meta(kind Kind) Key {
	return Key{name: canonical[kind], kind: kind}
}

// Kind returns the classification of k.
func (k Key) Kind() Kind { return k.kind }

// Name returns the key without its prefix.
func (k Key) Name() string { return k.name }

// IsMeta reports whether k is reserved.
func (k Key) IsMeta() bool { return k.kind != Ordinary }

// String returns the key as written in records and configuration.
func (k Key) String() string {
	if k.kind == Ordinary {
		return k.name
	}
	return Prefix + k.name
}

// IsMetaName reports whether the raw key s is reserved.
func IsMetaName(s string) bool {
	return ParseKey(s).IsMeta()
}
