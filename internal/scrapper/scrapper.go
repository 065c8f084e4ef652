// Package scrapper turns located items into canonical, hashed scraps and
// hands them to the store.
package scrapper

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"
	"golang.org/x/text/unicode/norm"

	"github.com/law-makers/scavenger/internal/record"
	"github.com/law-makers/scavenger/internal/reqctx"
	"github.com/law-makers/scavenger/internal/scanner"
	"github.com/law-makers/scavenger/internal/store"
	"github.com/law-makers/scavenger/internal/target"
	"github.com/law-makers/scavenger/internal/transform"
	"github.com/law-makers/scavenger/pkg/models"
)

// Verbosity levels.
const (
	VerbosityLow    = 1
	VerbosityMedium = 2
	VerbosityHigh   = 3
)

// Log messages.
const (
	MsgAttrException = "[!] Exception - thrown for attribute %s on target %s: %s"
	MsgBadWords      = "Scrap was found to contain bad words. Discarded -- %s"
	MsgSaveException = "[!] Exception - thrown while saving scrap %s: %s"
)

// Stage names reported to a ProgressFunc.
const (
	StageSave    = "save"
	StageConvert = "convert"
)

// ProgressFunc is told about every scrap handled by SaveScraps and
// ConvertScraps.
type ProgressFunc func(stage string, done, total int)

// Options configures a Scrapper.
type Options struct {
	Hasher    *record.Hasher
	Scanner   *scanner.Scanner
	Scraps    store.Scraps
	Models    store.Models
	Verbosity int
	Progress  ProgressFunc
}

// Scrapper collects the scraps of one seek run. It is driven from a single
// goroutine.
type Scrapper struct {
	hasher    *record.Hasher
	scanner   *scanner.Scanner
	scraps    store.Scraps
	models    store.Models
	verbosity int
	progress  ProgressFunc

	collected []*models.Scrap
	seen      map[string]bool
	serp      map[string]bool
	newCount  int
	converted []int64
}

// New returns an empty Scrapper.
func New(opts Options) (*Scrapper, error) {
	if opts.Hasher == nil {
		h, err := record.NewHasher(record.DefaultHashAlgorithm)
		if err != nil {
			return nil, err
		}
		opts.Hasher = h
	}
	if opts.Scanner == nil {
		opts.Scanner = scanner.New()
	}
	if opts.Verbosity < VerbosityLow {
		opts.Verbosity = VerbosityLow
	}
	return &Scrapper{
		hasher:    opts.Hasher,
		scanner:   opts.Scanner,
		scraps:    opts.Scraps,
		models:    opts.Models,
		verbosity: opts.Verbosity,
		progress:  opts.Progress,
		seen:      make(map[string]bool),
		serp:      make(map[string]bool),
	}, nil
}

// Collect runs the extraction pipeline for one item and keeps the result.
// It returns the scrap, or nil when the item was discarded or had already
// been collected during this run. Missing nodes are logged and skipped; an
// error means the item could not be hashed or looked up.
func (s *Scrapper) Collect(ctx context.Context, tl models.TitleLink, t *target.Target, position int, frag *goquery.Selection) (*models.Scrap, error) {
	logger := reqctx.Logger(ctx)

	rec := s.initialize(tl, t, position)
	s.markup(&logger, rec, t, frag)
	s.preprocess(&logger, rec, t)
	remap(rec, t)

	bad, err := s.scanner.HasBadWords(rec, t.BadWords())
	if err != nil {
		return nil, fmt.Errorf("blocklist for target %s: %w", t.Name(), err)
	}
	if bad {
		payload, _ := json.Marshal(rec)
		logger.Info().Str("level_hint", "notice").Msgf(MsgBadWords, payload)
		return nil, nil
	}

	hash, err := s.finalize(rec, t)
	if err != nil {
		return nil, err
	}
	if s.seen[hash] {
		logger.Debug().Str("hash", hash).Msg("Scrap already collected in this run")
		return nil, nil
	}

	scrap, err := s.upsert(ctx, rec, hash)
	if err != nil {
		return nil, err
	}
	s.seen[hash] = true
	if t.IsSERP() {
		s.serp[hash] = true
	}
	s.collected = append(s.collected, scrap)

	ev := logger.Debug().Str("hash", hash).Bool("new", !scrap.Exists())
	if s.verbosity >= VerbosityHigh {
		payload, _ := json.Marshal(rec)
		ev = ev.RawJSON("data", payload)
	}
	ev.Msg("Scrap gathered")
	return scrap, nil
}

func (s *Scrapper) initialize(tl models.TitleLink, t *target.Target, position int) record.Record {
	rec := make(record.Record)
	rec.Set(record.Attr(record.Title), tl.Title)
	rec.Set(record.Meta(record.Link), tl.Link)
	rec.Set(record.Meta(record.Position), strconv.Itoa(position))
	rec.Set(record.Meta(record.Source), tl.Link)
	rec.Set(record.Meta(record.Model), t.Model())
	return rec
}

// markup fills attributes from frag and dissects them.
func (s *Scrapper) markup(logger *zerolog.Logger, rec record.Record, t *target.Target, frag *goquery.Selection) {
	for _, f := range t.Markup().Extraction() {
		if f.IsRef() {
			v := rec.Get(f.Ref)
			if v == "" {
				v = record.InvalidMetaRef
			}
			rec.Set(record.Attr(f.Attr), v)
			continue
		}

		value, err := extract(frag, f)
		if err != nil {
			logger.Warn().Str("selector", f.Selector).
				Msgf(MsgAttrException, f.Attr, t.Name(), err.Error())
			continue
		}
		rec.Set(record.Attr(f.Attr), value)

		if d, ok := t.Dissection(f.Attr); ok {
			details, rest := scanner.PluckDetails(value, d.Patterns, d.Retain)
			rec.Set(record.Attr(f.Attr), rest)
			for name, v := range details {
				rec.Set(record.Attr(name), v)
			}
		}
	}
}

var errNoNode = errors.New("the current node list is empty")

// extract returns the text of title attributes and the inner markup of
// everything else, read from the first node matching the field selector.
func extract(frag *goquery.Selection, f target.Field) (string, error) {
	if frag == nil {
		return "", errNoNode
	}
	sel := frag.Find(f.Selector)
	if sel.Length() == 0 {
		sel = frag.Filter(f.Selector)
	}
	if sel.Length() == 0 {
		return "", fmt.Errorf("%w (%s)", errNoNode, f.Selector)
	}
	first := sel.First()
	if f.Attr == record.Title {
		return strings.TrimSpace(first.Text()), nil
	}
	return first.Html()
}

// encode normalizes a value before preprocessing. Titles are title-cased.
func encode(attr, value string) string {
	if attr == record.Title {
		return transform.TitleCase(value)
	}
	return norm.NFC.String(strings.ToValidUTF8(value, "�"))
}

func (s *Scrapper) preprocess(logger *zerolog.Logger, rec record.Record, t *target.Target) {
	for _, attr := range rec.Keys() {
		value := encode(attr, rec[attr])
		if fn, ok := t.Preprocess(attr); ok {
			out, err := fn(value)
			if err != nil {
				logger.Error().Err(err).Str("attr", attr).Msg("Preprocess failed, keeping value")
			} else {
				value = out
			}
		}
		rec[attr] = value
	}
}

// remap renames attributes. The title is kept under its own name as well.
func remap(rec record.Record, t *target.Target) {
	for _, attr := range rec.Keys() {
		to, ok := t.Remap(attr)
		if !ok || to == attr {
			continue
		}
		rec[to] = rec[attr]
		if attr != record.Title {
			delete(rec, attr)
		}
	}
}

// finalize hashes rec and stamps the run meta fields. The position is a
// per-pass counter and is left out of the hash.
func (s *Scrapper) finalize(rec record.Record, t *target.Target) (string, error) {
	content := rec.Clone()
	delete(content, record.Meta(record.Position).String())
	hash, err := s.hasher.Digest(content)
	if err != nil {
		return "", err
	}
	rec.Set(record.Meta(record.ID), hash)
	rec.Set(record.Meta(record.SearchResult), strconv.FormatBool(t.IsSERP()))
	rec.Set(record.Meta(record.Target), t.Name())
	return hash, nil
}

func (s *Scrapper) upsert(ctx context.Context, rec record.Record, hash string) (*models.Scrap, error) {
	if s.scraps != nil {
		existing, err := s.scraps.FindByHash(ctx, hash)
		switch {
		case err == nil:
			return existing, nil
		case !errors.Is(err, store.ErrNotFound):
			return nil, fmt.Errorf("lookup scrap %s: %w", hash, err)
		}
	}
	s.newCount++
	return &models.Scrap{
		Hash:   hash,
		Title:  guessTitle(rec),
		Model:  rec.Get(record.Meta(record.Model)),
		Source: rec.Get(record.Meta(record.Source)),
		Target: rec.Get(record.Meta(record.Target)),
		Data:   map[string]string(rec.Clone()),
	}, nil
}

func guessTitle(rec record.Record) string {
	if v := rec[record.Title]; v != "" {
		return v
	}
	return rec["name"]
}

// Scraps returns the collected scraps in collection order.
func (s *Scrapper) Scraps() []*models.Scrap {
	return append([]*models.Scrap(nil), s.collected...)
}

// NewCount returns how many collected scraps were not already stored.
func (s *Scrapper) NewCount() int { return s.newCount }

// ConvertedCount returns how many scraps have a destination row.
func (s *Scrapper) ConvertedCount() int { return len(s.converted) }

// Related returns the destination row ids produced or found by conversion.
func (s *Scrapper) Related() []int64 {
	return append([]int64(nil), s.converted...)
}

func (s *Scrapper) report(stage string, done, total int) {
	if s.progress != nil {
		s.progress(stage, done, total)
	}
}

// SaveScraps persists every collected scrap. A failing save is logged and
// does not stop the batch. It returns the number saved.
func (s *Scrapper) SaveScraps(ctx context.Context) int {
	if s.scraps == nil {
		return 0
	}
	logger := reqctx.Logger(ctx)
	saved := 0
	for i, sc := range s.collected {
		if err := s.scraps.Save(ctx, sc); err != nil {
			ev := logger.Error().Err(err)
			if s.verbosity >= VerbosityHigh {
				if payload, jerr := json.Marshal(sc); jerr == nil {
					ev = ev.RawJSON("scrap", payload)
				}
			}
			ev.Msgf(MsgSaveException, sc.Hash, err.Error())
		} else {
			saved++
		}
		s.report(StageSave, i+1, len(s.collected))
	}
	return saved
}

// ConvertScraps creates a destination row for every collected scrap.
// Scraps whose stored reference still resolves are counted without a new
// row unless convertDuplicates is set; scraps from SERP targets always
// convert again. With storeBackRef the new row id is saved on the scrap,
// persisting it. Failures are logged and left out of the count.
func (s *Scrapper) ConvertScraps(ctx context.Context, convertDuplicates, storeBackRef bool) int {
	if s.models == nil {
		return 0
	}
	logger := reqctx.Logger(ctx)
	for i, sc := range s.collected {
		if id, ok := s.convert(ctx, &logger, sc, convertDuplicates || s.serp[sc.Hash], storeBackRef); ok {
			s.converted = append(s.converted, id)
		}
		s.report(StageConvert, i+1, len(s.collected))
	}
	return len(s.converted)
}

func (s *Scrapper) convert(ctx context.Context, logger *zerolog.Logger, sc *models.Scrap, convertDuplicates, storeBackRef bool) (int64, bool) {
	if sc.Model == "" || !s.models.HasModel(sc.Model) {
		logger.Warn().Str("hash", sc.Hash).Str("model", sc.Model).Msg("Scrap has no known model. - Skipped")
		return 0, false
	}

	if sc.Related > 0 && !convertDuplicates {
		exists, err := s.models.Exists(ctx, sc.Model, sc.Related)
		if err != nil {
			logger.Warn().Err(err).Str("hash", sc.Hash).Msg("Related lookup failed")
			return 0, false
		}
		if exists {
			return sc.Related, true
		}
	}

	id, err := s.models.Create(ctx, sc.Model, record.Record(sc.Data).Attributes())
	if err != nil {
		logger.Warn().Err(err).Str("hash", sc.Hash).Msg("Scrap conversion failed")
		return 0, false
	}

	if storeBackRef {
		sc.Related = id
		if s.scraps != nil {
			if err := s.scraps.Save(ctx, sc); err != nil {
				logger.Warn().Err(err).Str("hash", sc.Hash).Msg("Failed to store related reference")
			}
		}
	}
	return id, true
}
