package transform

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"

	"github.com/law-makers/scavenger/internal/scanner"
	"github.com/law-makers/scavenger/internal/utils/output"
)

func pure(fn func(string) string) Func {
	return func(s string) (string, error) { return fn(s), nil }
}

func builtins() map[string]Func {
	return map[string]Func{
		"trim":       pure(strings.TrimSpace),
		"lower":      pure(strings.ToLower),
		"upper":      pure(strings.ToUpper),
		"title":      pure(TitleCase),
		"nfc":        pure(norm.NFC.String),
		"clean_text": pure(scanner.CleanText),
		"strip_tags": pure(scanner.StripTags),
		"br2nl":      pure(scanner.Br2nl),
		"squash":     pure(func(s string) string { return strings.Join(strings.Fields(s), " ") }),
		"markdown": func(s string) (string, error) {
			return output.Markdown(s, "")
		},
	}
}

// TitleCase lower-cases s and capitalizes every word.
func TitleCase(s string) string {
	return cases.Title(language.Und).String(strings.ToLower(s))
}
