package target

import (
	"errors"
	"strings"
)

// Problem messages reported while validating a definition.
const (
	MsgNameMissing     = "Target name missing %s."
	MsgExample         = "Target (%s) is for example purposes only. - Skipped"
	MsgModelUnresolved = "Could not resolve model for target %s. %s - Skipped"
	MsgSourceMissing   = "Missing source for target (%s). - Skipped"
	MsgMarkupMissing   = "Markup missing for target (%s)."
	MsgTitleLink       = "Markup for target (%s) must define a title or link selector."
	MsgItemWrapper     = "Markup for target (%s) must define an item wrapper or an inside map."
	MsgPagerSelector   = "Pager for target (%s) is missing its selector."
	MsgSearchKey       = "Search enabled but %s (%s) is not set for target (%s)."
	MsgPreprocess      = "Preprocess for attribute %s on target %s is not callable. - Skipped"
	MsgPattern         = "Invalid pattern %q for %s on target (%s): %v"
	MsgRender          = "Unknown render mode %q for target (%s)."
	MsgSection         = "Section %s for target (%s) must be a mapping."
)

var (
	// ErrExample marks a definition that exists only as documentation.
	ErrExample = errors.New("example target")
	// ErrModelUnresolved marks a definition whose model cannot be found.
	ErrModelUnresolved = errors.New("model unresolved")
)

// InvalidDefinitionError carries every problem found in one definition.
type InvalidDefinitionError struct {
	Target     string
	Problems   []string
	example    bool
	unresolved bool
}

func (e *InvalidDefinitionError) Error() string {
	return strings.Join(e.Problems, "\n")
}

// Is lets errors.Is pick out example-only definitions and definitions
// with an unresolvable model.
func (e *InvalidDefinitionError) Is(target error) bool {
	switch target {
	case ErrExample:
		return e.example
	case ErrModelUnresolved:
		return e.unresolved
	}
	return false
}
