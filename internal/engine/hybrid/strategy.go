// internal/engine/hybrid/strategy.go
package hybrid

import (
	"github.com/law-makers/scavenger/internal/engine"
)

// Strategy represents the rendering strategy chosen for a page
type Strategy int

const (
	// StrategyStatic keeps the plain HTTP document
	StrategyStatic Strategy = iota

	// StrategyDynamic re-renders the page in Chrome
	StrategyDynamic
)

// String returns the string representation of the strategy
func (s Strategy) String() string {
	switch s {
	case StrategyStatic:
		return "Static"
	case StrategyDynamic:
		return "Dynamic"
	default:
		return "Unknown"
	}
}

// DetermineStrategy decides whether a statically fetched page must be
// rendered. A page that already matches the selectors the caller needs
// stays static.
func DetermineStrategy(page *engine.Page, required ...string) Strategy {
	for _, sel := range required {
		if sel != "" && page.Find(sel).Length() > 0 {
			return StrategyStatic
		}
	}

	scripts := page.Find("script").Length()
	if scripts == 0 {
		return StrategyStatic
	}
	if EmptyShell(page.Doc) || NeedsJavaScript(page.HTML(), scripts) {
		return StrategyDynamic
	}
	return StrategyStatic
}
