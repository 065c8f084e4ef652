package models

import (
	"strings"
	"time"
)

// RenderMode selects how GET navigations are rendered for a target
type RenderMode string

const (
	RenderAuto    RenderMode = "auto"
	RenderStatic  RenderMode = "static"
	RenderDynamic RenderMode = "dynamic"
)

// ParseRenderMode returns the mode named by s, or false when s is not a known mode.
func ParseRenderMode(s string) (RenderMode, bool) {
	switch RenderMode(strings.ToLower(strings.TrimSpace(s))) {
	case RenderAuto:
		return RenderAuto, true
	case RenderStatic, "":
		return RenderStatic, true
	case RenderDynamic, "spa":
		return RenderDynamic, true
	}
	return "", false
}

// TitleLink identifies one listed item before detail extraction
type TitleLink struct {
	Title string `json:"title"`
	Link  string `json:"link"`
}

// OptionSet contains the parameters of a single seek run
type OptionSet struct {
	// Save persists every accepted scrap.
	Save bool
	// Convert turns scraps into destination model rows.
	Convert bool
	// Backoff is slept after every listing page.
	Backoff time.Duration
	// Pages bounds each pagination pass. Zero means unlimited.
	Pages int
	// Keywords is a comma separated operator override for search keywords.
	Keywords string
}

// DefaultOptionSet mirrors the defaults used when no flags are given.
func DefaultOptionSet() OptionSet {
	return OptionSet{
		Save:    true,
		Convert: true,
		Backoff: 3 * time.Second,
	}
}

// KeywordList splits Keywords on commas, dropping blanks.
func (o OptionSet) KeywordList() []string {
	var out []string
	for _, kw := range strings.Split(o.Keywords, ",") {
		if kw = strings.TrimSpace(kw); kw != "" {
			out = append(out, kw)
		}
	}
	return out
}

// Scrap is one persisted record
type Scrap struct {
	ID        int64             `json:"id"`
	Hash      string            `json:"hash"`
	Title     string            `json:"title,omitempty"`
	Model     string            `json:"model"`
	Related   int64             `json:"related,omitempty"`
	Data      map[string]string `json:"data"`
	Source    string            `json:"source"`
	Target    string            `json:"target"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// Exists reports whether the scrap has been written to a store.
func (s *Scrap) Exists() bool {
	return s != nil && s.ID > 0
}

// TargetSummary holds the counts for one crawled target
type TargetSummary struct {
	Name   string `json:"name"`
	Pages  int    `json:"pages"`
	Items  int    `json:"items"`
	Scraps int    `json:"scraps"`
}

// Summary is the "extra" block of a Result
type Summary struct {
	Total           int             `json:"total"`
	New             int             `json:"new"`
	Converted       int             `json:"converted"`
	Unconverted     int             `json:"unconverted"`
	Elapsed         time.Duration   `json:"elapsed"`
	ScrapsSaved     bool            `json:"scraps_saved"`
	ScrapsConverted bool            `json:"scraps_converted"`
	Targets         []TargetSummary `json:"targets,omitempty"`

	// Skipped holds the problems of definitions that could not be built.
	Skipped []string `json:"skipped,omitempty"`
}

// Result is the outcome of a seek run. The zero value is an unsuccessful
// result with no errors; use the With* methods to derive modified copies.
type Result struct {
	success bool
	errors  []string
	extra   *Summary
}

// NewResult returns an empty result.
func NewResult() Result {
	return Result{}
}

// Success reports whether the run completed without result-level errors.
func (r Result) Success() bool {
	return r.success && len(r.errors) == 0
}

// Errors returns a copy of the recorded error messages in order.
func (r Result) Errors() []string {
	out := make([]string, len(r.errors))
	copy(out, r.errors)
	return out
}

// HasErrors reports whether any error was recorded.
func (r Result) HasErrors() bool {
	return len(r.errors) > 0
}

// Extra returns the run summary, if one was attached.
func (r Result) Extra() (Summary, bool) {
	if r.extra == nil {
		return Summary{}, false
	}
	return *r.extra, true
}

// WithError returns a copy of r with msg appended and success cleared.
func (r Result) WithError(msg string) Result {
	errs := make([]string, len(r.errors), len(r.errors)+1)
	copy(errs, r.errors)
	r.errors = append(errs, msg)
	r.success = false
	return r
}

// WithSuccess returns a copy of r with the success flag set.
func (r Result) WithSuccess(ok bool) Result {
	r.success = ok
	return r
}

// WithExtra returns a copy of r carrying s as its summary.
func (r Result) WithExtra(s Summary) Result {
	targets := make([]TargetSummary, len(s.Targets))
	copy(targets, s.Targets)
	s.Targets = targets
	s.Skipped = append([]string(nil), s.Skipped...)
	r.extra = &s
	return r
}
