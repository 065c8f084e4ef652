// Package dom holds document helpers that goquery does not provide.
package dom

import (
	"errors"
	"fmt"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
)

var (
	// ErrEmptySelection is returned when there is no node to start from.
	ErrEmptySelection = errors.New("the current node list is empty")

	// ErrNoMatch is returned when no ancestor yields a match.
	ErrNoMatch = errors.New("no matching node near selection")
)

// Closest walks the parents of the first node in sel. At each element
// ancestor the selector is tested against the ancestor and its
// descendants; the first non-empty match is returned. It is used to find
// the link that wraps a heading rather than sitting inside it.
func Closest(selector string, sel *goquery.Selection) (*goquery.Selection, error) {
	if sel == nil || sel.Length() == 0 {
		return nil, ErrEmptySelection
	}

	matcher, err := cascadia.Compile(selector)
	if err != nil {
		return nil, fmt.Errorf("compile selector %q: %w", selector, err)
	}

	ancestors := sel.First().Parents()
	for node := sel.Nodes[0].Parent; node != nil; node = node.Parent {
		if node.Type != html.ElementNode {
			continue
		}
		scope := ancestors.FilterNodes(node)
		if self := scope.FilterMatcher(matcher); self.Length() > 0 {
			return self, nil
		}
		if inner := scope.FindMatcher(matcher); inner.Length() > 0 {
			return inner, nil
		}
	}
	return nil, ErrNoMatch
}
