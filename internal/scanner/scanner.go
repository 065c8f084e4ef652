// Package scanner contains the text utilities used while extracting scraps:
// blocklist detection, regex dissection and whitespace cleanup.
package scanner

import (
	"fmt"
	"regexp"
	"strings"
	"sync"

	"golang.org/x/net/html"

	"github.com/law-makers/scavenger/internal/record"
)

var (
	brPattern      = regexp.MustCompile(`(?i)<br\s*/?>`)
	breaksPattern  = regexp.MustCompile(`[\r\n\t]+`)
	spacesPattern  = regexp.MustCompile(`\s{2,}`)
	delimitedRegex = regexp.MustCompile(`^/(.*)/([imsU]*)$`)
)

// Pattern is one named dissection rule.
type Pattern struct {
	Name string
	Re   *regexp.Regexp
}

// Scanner checks records against a blocklist. Its only state is the
// injected list of words and a cache of compiled alternations.
type Scanner struct {
	badWords []string

	mu       sync.Mutex
	compiled map[string]*regexp.Regexp
}

// New returns a Scanner that always applies badWords.
func New(badWords ...string) *Scanner {
	return &Scanner{
		badWords: badWords,
		compiled: make(map[string]*regexp.Regexp),
	}
}

// HasBadWords reports whether any ordinary attribute of rec matches one of
// the scanner's words or extraWords. Matching is case-insensitive; meta
// attributes are never inspected.
func (s *Scanner) HasBadWords(rec record.Record, extraWords []string) (bool, error) {
	words := make([]string, 0, len(s.badWords)+len(extraWords))
	words = append(words, s.badWords...)
	words = append(words, extraWords...)
	if len(words) == 0 {
		return false, nil
	}

	re, err := s.alternation(words)
	if err != nil {
		return false, err
	}

	for attr, value := range rec {
		if record.IsMetaName(attr) {
			continue
		}
		if re.MatchString(value) {
			return true, nil
		}
	}
	return false, nil
}

func (s *Scanner) alternation(words []string) (*regexp.Regexp, error) {
	key := strings.Join(words, "\x00")

	s.mu.Lock()
	defer s.mu.Unlock()
	if re, ok := s.compiled[key]; ok {
		return re, nil
	}

	parts := make([]string, len(words))
	for i, w := range words {
		parts[i] = "(" + Fragment(w) + ")"
	}
	re, err := regexp.Compile("(?i)" + strings.Join(parts, "|"))
	if err != nil {
		return nil, fmt.Errorf("compile blocklist: %w", err)
	}
	s.compiled[key] = re
	return re, nil
}

// Fragment strips /.../flags delimiters from p, if present.
func Fragment(p string) string {
	if m := delimitedRegex.FindStringSubmatch(p); m != nil {
		return m[1]
	}
	return p
}

// CompilePattern compiles p, accepting either bare RE2 syntax or the
// delimited form /pattern/flags with flags drawn from "imsU".
func CompilePattern(p string) (*regexp.Regexp, error) {
	if m := delimitedRegex.FindStringSubmatch(p); m != nil {
		expr := m[1]
		if m[2] != "" {
			expr = "(?" + m[2] + ")" + expr
		}
		return regexp.Compile(expr)
	}
	return regexp.Compile(p)
}

// PluckDetails runs each pattern against text in order and returns the
// trimmed last match per pattern name. Unless retain is set every match is
// removed from the text before the next pattern runs; the resulting text
// is returned alongside the details.
func PluckDetails(text string, patterns []Pattern, retain bool) (map[string]string, string) {
	details := make(map[string]string)
	for _, p := range patterns {
		if p.Re == nil {
			continue
		}
		matches := p.Re.FindAllString(text, -1)
		if len(matches) == 0 {
			continue
		}
		details[p.Name] = strings.TrimSpace(matches[len(matches)-1])
		if !retain {
			text = p.Re.ReplaceAllLiteralString(text, "")
		}
	}
	return details, text
}

// Ordered is a mapping that remembers its key order.
type Ordered interface {
	Keys() []string
	Get(key string) (any, bool)
}

// FirstNonEmpty returns the value of the first candidate key holding a
// non-empty value. Without candidates, the first non-empty value in key
// order is returned. Nil means nothing qualified.
func FirstNonEmpty(m Ordered, candidates ...string) any {
	if m == nil {
		return nil
	}
	if len(candidates) == 0 {
		candidates = m.Keys()
	}
	for _, key := range candidates {
		if v, ok := m.Get(key); ok && !IsEmpty(v) {
			return v
		}
	}
	return nil
}

// IsEmpty reports whether v is nil, a zero scalar, or an empty collection.
func IsEmpty(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	case bool:
		return !t
	case int:
		return t == 0
	case int64:
		return t == 0
	case float64:
		return t == 0
	case []any:
		return len(t) == 0
	case []string:
		return len(t) == 0
	case map[string]any:
		return len(t) == 0
	case interface{ Len() int }:
		return t.Len() == 0
	}
	return false
}

// Br2nl converts <br> variants to newlines.
func Br2nl(text string) string {
	return brPattern.ReplaceAllString(text, "\n")
}

// CleanText strips markup, collapses runs of whitespace and drops " / "
// separators.
func CleanText(text string) string {
	text = StripTags(text)
	text = breaksPattern.ReplaceAllString(text, " ")
	text = spacesPattern.ReplaceAllString(text, " ")
	text = strings.ReplaceAll(text, " / ", "")
	return strings.TrimSpace(text)
}

// StripTags returns only the text content of an HTML fragment.
func StripTags(fragment string) string {
	if !strings.ContainsAny(fragment, "<&") {
		return fragment
	}
	var sb strings.Builder
	z := html.NewTokenizer(strings.NewReader(fragment))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return sb.String()
		case html.TextToken:
			sb.Write(z.Text())
		}
	}
}
