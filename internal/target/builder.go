package target

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/law-makers/scavenger/internal/config"
	"github.com/law-makers/scavenger/internal/record"
	"github.com/law-makers/scavenger/internal/scanner"
	"github.com/law-makers/scavenger/internal/transform"
	urlutil "github.com/law-makers/scavenger/internal/utils/url"
	"github.com/law-makers/scavenger/pkg/models"
)

// ModelResolver reports whether a destination model is known.
type ModelResolver interface {
	HasModel(name string) bool
}

// Builder validates raw definitions and builds Targets. Global keywords
// given by the operator are merged into every searchable target.
type Builder struct {
	globalKeywords []string
	models         ModelResolver
	transforms     *transform.Registry
}

// NewBuilder returns a Builder. A nil resolver accepts any non-empty model
// name; a nil registry rejects every preprocess reference.
func NewBuilder(globalKeywords []string, models ModelResolver, transforms *transform.Registry) *Builder {
	kw := make([]string, 0, len(globalKeywords))
	for _, k := range globalKeywords {
		if k = strings.TrimSpace(k); k != "" {
			kw = append(kw, k)
		}
	}
	return &Builder{globalKeywords: kw, models: models, transforms: transforms}
}

type problems struct {
	target     string
	list       []string
	unresolved bool
}

func (p *problems) add(format string, args ...any) {
	p.list = append(p.list, fmt.Sprintf(format, args...))
}

func (p *problems) err() error {
	if len(p.list) == 0 {
		return nil
	}
	return &InvalidDefinitionError{Target: p.target, Problems: p.list, unresolved: p.unresolved}
}

// CreateFromDefinition validates def and returns the Target it describes.
// name overrides any name carried inside def. Every problem found is
// reported in a single *InvalidDefinitionError.
func (b *Builder) CreateFromDefinition(name string, def *config.RawMap) (*Target, error) {
	if name == "" {
		name = def.String(KeyName)
	}
	if name == "" {
		return nil, &InvalidDefinitionError{
			Problems: []string{fmt.Sprintf(MsgNameMissing, "["+KeyName+"]")},
		}
	}
	if def.Bool(KeyExample) {
		return nil, &InvalidDefinitionError{
			Target:   name,
			Problems: []string{fmt.Sprintf(MsgExample, name)},
			example:  true,
		}
	}

	p := &problems{target: name}
	t := &Target{
		name:   name,
		model:  def.String(KeyModel),
		source: strings.TrimSpace(def.String(KeySource)),
		serp:   def.Bool(KeySERP),
	}

	switch {
	case t.model == "":
		p.add(MsgModelUnresolved, name, "No model given.")
		p.unresolved = true
	case b.models != nil && !b.models.HasModel(t.model):
		p.add(MsgModelUnresolved, name, fmt.Sprintf("Model %q is not defined.", t.model))
		p.unresolved = true
	}

	if t.source == "" {
		p.add(MsgSourceMissing, name)
	} else if err := urlutil.ValidateURL(t.source); err != nil {
		p.add("Invalid source for target (%s): %v", name, err)
	}

	if raw := def.String(KeyRender); raw != "" {
		mode, ok := models.ParseRenderMode(raw)
		if !ok {
			p.add(MsgRender, raw, name)
		}
		t.render = mode
	}

	markup, _ := def.Map(KeyMarkup)
	t.markup = parseMarkup(markup, p)
	t.pager = parsePager(def, p)
	if n, ok := def.Int(KeyPages); ok && n > 0 {
		t.pages = n
	}
	t.dissect = parseDissect(def, p)
	t.preprocess = b.parsePreprocess(def, p)
	t.remap = parseRemap(def, p)
	t.badWords = parseBadWords(def, p)
	t.search = b.parseSearch(def, p)

	if err := p.err(); err != nil {
		return nil, err
	}

	log.Debug().
		Str("target", name).
		Str("model", t.model).
		Bool("search", t.search != nil).
		Bool("pager", t.pager != nil).
		Msg("Target built")
	return t, nil
}

func parseField(attr, value string) Field {
	if record.IsMetaName(value) {
		return Field{Attr: attr, Ref: record.ParseKey(value)}
	}
	return Field{Attr: attr, Selector: value}
}

func parseMarkup(raw *config.RawMap, p *problems) Markup {
	var m Markup
	if raw.Len() == 0 {
		p.add(MsgMarkupMissing, p.target)
		return m
	}

	for _, key := range raw.Keys() {
		k := record.ParseKey(key)
		switch k.Kind() {
		case record.Ordinary:
			if v := strings.TrimSpace(raw.String(key)); v != "" {
				m.Fields = append(m.Fields, parseField(key, v))
			}
		case record.Inside:
			if nested, ok := raw.Map(key); ok && nested.Len() > 0 {
				m.Inside = parseInside(nested)
			}
		}
	}

	if w := scanner.FirstNonEmpty(raw, record.ItemWrapperAliases...); w != nil {
		m.ItemWrapper = strings.TrimSpace(config.Scalar(w))
	}

	// link wins over title unless it only points at a meta value
	m.TitleLink = raw.String(record.Title)
	if link := raw.String(KeyLink); link != "" && !record.IsMetaName(link) {
		m.TitleLink = link
	}

	if scanner.FirstNonEmpty(raw, record.Title, KeyLink) == nil ||
		m.TitleLink == "" || record.IsMetaName(m.TitleLink) {
		p.add(MsgTitleLink, p.target)
	}
	if m.Inside == nil && m.ItemWrapper == "" {
		p.add(MsgItemWrapper, p.target)
	}
	return m
}

func parseInside(raw *config.RawMap) *Inside {
	in := &Inside{}
	for _, key := range raw.Keys() {
		k := record.ParseKey(key)
		switch k.Kind() {
		case record.Ordinary:
			if v := strings.TrimSpace(raw.String(key)); v != "" {
				in.Fields = append(in.Fields, parseField(key, v))
			}
		case record.Focus:
			in.Focus = strings.TrimSpace(raw.String(key))
		}
	}
	return in
}

func parsePager(def *config.RawMap, p *problems) *Pager {
	v, ok := def.Get(KeyPager)
	if !ok || scanner.IsEmpty(v) {
		return nil
	}
	if s := config.Scalar(v); s != "" {
		return &Pager{Selector: s}
	}
	raw, ok := v.(*config.RawMap)
	if !ok {
		p.add(MsgPagerSelector, p.target)
		return nil
	}
	sel := strings.TrimSpace(raw.String(KeySelector))
	if sel == "" {
		p.add(MsgPagerSelector, p.target)
		return nil
	}
	return &Pager{Selector: sel, Text: raw.String(KeyText)}
}

// section returns the mapping under key, or nil when key is absent or
// empty. malformed reports a present value that is not a mapping.
func section(def *config.RawMap, key string) (raw *config.RawMap, malformed bool) {
	v, ok := def.Get(key)
	if !ok || scanner.IsEmpty(v) {
		return nil, false
	}
	raw, ok = v.(*config.RawMap)
	return raw, !ok
}

func parseDissect(def *config.RawMap, p *problems) map[string]Dissection {
	raw, malformed := section(def, KeyDissect)
	if malformed {
		p.add(MsgSection, KeyDissect, p.target)
	}
	if raw == nil {
		return nil
	}
	out := make(map[string]Dissection, raw.Len())
	for _, attr := range raw.Keys() {
		rules, malformed := section(raw, attr)
		if malformed {
			p.add(MsgSection, KeyDissect+"."+attr, p.target)
		}
		if rules == nil {
			continue
		}
		var d Dissection
		for _, name := range rules.Keys() {
			k := record.ParseKey(name)
			if k.Kind() == record.Retain {
				d.Retain = rules.Bool(name)
				continue
			}
			if k.IsMeta() {
				continue
			}
			re, err := scanner.CompilePattern(rules.String(name))
			if err != nil {
				p.add(MsgPattern, rules.String(name), attr+"."+name, p.target, err)
				continue
			}
			d.Patterns = append(d.Patterns, scanner.Pattern{Name: name, Re: re})
		}
		out[attr] = d
	}
	return out
}

func (b *Builder) parsePreprocess(def *config.RawMap, p *problems) map[string]transform.Func {
	raw, malformed := section(def, KeyPreprocess)
	if malformed {
		p.add(MsgSection, KeyPreprocess, p.target)
	}
	if raw == nil {
		return nil
	}
	out := make(map[string]transform.Func, raw.Len())
	for _, attr := range raw.Keys() {
		ref := strings.Join(raw.Strings(attr), "|")
		if ref == "" || b.transforms == nil {
			p.add(MsgPreprocess, attr, p.target)
			continue
		}
		fn, err := b.transforms.Resolve(ref)
		if err != nil {
			p.add(MsgPreprocess, attr, p.target)
			log.Debug().Err(err).Str("target", p.target).Str("attr", attr).Msg("Preprocess unresolved")
			continue
		}
		out[attr] = fn
	}
	return out
}

func parseRemap(def *config.RawMap, p *problems) map[string]string {
	raw, malformed := section(def, KeyRemap)
	if malformed {
		p.add(MsgSection, KeyRemap, p.target)
	}
	if raw == nil {
		return nil
	}
	out := make(map[string]string, raw.Len())
	for _, attr := range raw.Keys() {
		if to := strings.TrimSpace(raw.String(attr)); to != "" {
			out[attr] = to
		}
	}
	return out
}

func parseBadWords(def *config.RawMap, p *problems) []string {
	words := def.Strings(KeyBadWords)
	for _, w := range words {
		if _, err := scanner.CompilePattern(w); err != nil {
			p.add(MsgPattern, w, KeyBadWords, p.target, err)
		}
	}
	return words
}

func (b *Builder) parseSearch(def *config.RawMap, p *problems) *Search {
	raw, malformed := section(def, KeySearch)
	switch {
	case malformed:
		// checked like an empty form so every missing key is reported
		raw = config.NewRawMap()
	case raw == nil:
		return nil
	}

	s := &Search{}
	form, _ := raw.Map(KeyForm)
	s.FormSelector = strings.TrimSpace(form.String(KeySelector))
	s.KeywordInput = strings.TrimSpace(form.String(KeyKeywordInput))
	if button, ok := form.Map(KeySubmitButton); ok {
		s.ButtonID = strings.TrimSpace(button.String(KeyButtonID))
		s.ButtonText = strings.TrimSpace(button.String(KeyText))
	}
	own := raw.Strings(KeyKeywords)

	if s.FormSelector == "" {
		p.add(MsgSearchKey, "form selector config",
			fmt.Sprintf("[%s][%s][%s]", KeySearch, KeyForm, KeySelector), p.target)
	}
	if s.KeywordInput == "" {
		p.add(MsgSearchKey, "keyword input name",
			fmt.Sprintf("[%s][%s][%s]", KeySearch, KeyForm, KeyKeywordInput), p.target)
	}
	if len(b.globalKeywords) == 0 && len(own) == 0 {
		p.add(MsgSearchKey, "keywords",
			fmt.Sprintf("[%s][%s]", KeySearch, KeyKeywords), p.target)
	}

	s.Keywords = make([]string, 0, len(b.globalKeywords)+len(own))
	s.Keywords = append(s.Keywords, b.globalKeywords...)
	s.Keywords = append(s.Keywords, own...)
	return s
}
