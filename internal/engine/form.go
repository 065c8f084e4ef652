package engine

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const buttonSelector = `button, input[type="submit"], input[type="image"]`

// Form is a snapshot of an HTML form ready to be submitted. Field order
// follows the document.
type Form struct {
	Action string
	Method string
	Origin string

	fields []formField
	button *formField
}

type formField struct {
	name  string
	value string
}

// Form locates the form reachable from selector. selector may match the
// form itself, an element inside it or a container around it. The submit
// control is looked up by id, then by label, then the form is submitted
// without one.
func (p *Page) Form(selector, buttonID, buttonText string) (*Form, error) {
	scope := p.Find(selector)
	if scope.Length() == 0 {
		return nil, NewEngineError(ErrCodeNotFound, "no element matches "+selector, ErrNoForm)
	}

	var button *goquery.Selection
	if buttonID != "" {
		button = findButton(scope, func(s *goquery.Selection) bool {
			id, _ := s.Attr("id")
			return id == buttonID
		})
	}
	if button == nil && buttonText != "" {
		want := strings.TrimSpace(buttonText)
		button = findButton(scope, func(s *goquery.Selection) bool {
			return buttonLabel(s) == want
		})
	}

	var form *goquery.Selection
	if button != nil {
		form = owningForm(p, button)
	}
	if form == nil || form.Length() == 0 {
		form = locateForm(scope)
	}
	if form == nil || form.Length() == 0 {
		return nil, NewEngineError(ErrCodeNotFound, "no form around "+selector, ErrNoForm)
	}

	f := &Form{
		Action: p.URL.String(),
		Method: http.MethodGet,
		Origin: p.URL.String(),
	}
	if action, ok := form.Attr("action"); ok && strings.TrimSpace(action) != "" {
		f.Action = p.Resolve(action)
	}
	if method, ok := form.Attr("method"); ok && strings.EqualFold(strings.TrimSpace(method), http.MethodPost) {
		f.Method = http.MethodPost
	}

	form.Find("input, select, textarea").Each(func(_ int, s *goquery.Selection) {
		f.collect(s)
	})

	if button != nil {
		if name, ok := button.Attr("name"); ok && name != "" {
			value, _ := button.Attr("value")
			f.button = &formField{name: name, value: value}
		}
		if action, ok := button.Attr("formaction"); ok && strings.TrimSpace(action) != "" {
			f.Action = p.Resolve(action)
		}
	}
	return f, nil
}

func findButton(scope *goquery.Selection, match func(*goquery.Selection) bool) *goquery.Selection {
	candidates := scope.Filter(buttonSelector).AddSelection(scope.Find(buttonSelector))
	found := candidates.FilterFunction(func(_ int, s *goquery.Selection) bool {
		return match(s)
	})
	if found.Length() == 0 {
		return nil
	}
	return found.First()
}

func buttonLabel(s *goquery.Selection) string {
	if goquery.NodeName(s) == "input" {
		if v, ok := s.Attr("value"); ok {
			return strings.TrimSpace(v)
		}
		alt, _ := s.Attr("alt")
		return strings.TrimSpace(alt)
	}
	if text := strings.TrimSpace(s.Text()); text != "" {
		return text
	}
	v, _ := s.Attr("value")
	return strings.TrimSpace(v)
}

func owningForm(p *Page, button *goquery.Selection) *goquery.Selection {
	if id, ok := button.Attr("form"); ok && id != "" {
		if byID := p.Find("form").FilterFunction(func(_ int, s *goquery.Selection) bool {
			v, _ := s.Attr("id")
			return v == id
		}); byID.Length() > 0 {
			return byID.First()
		}
	}
	return button.Closest("form")
}

func locateForm(scope *goquery.Selection) *goquery.Selection {
	if own := scope.Filter("form"); own.Length() > 0 {
		return own.First()
	}
	if inner := scope.Find("form"); inner.Length() > 0 {
		return inner.First()
	}
	return scope.First().Closest("form")
}

func (f *Form) collect(s *goquery.Selection) {
	if _, disabled := s.Attr("disabled"); disabled {
		return
	}
	name, ok := s.Attr("name")
	if !ok || name == "" {
		return
	}

	switch goquery.NodeName(s) {
	case "input":
		kind := strings.ToLower(s.AttrOr("type", "text"))
		switch kind {
		case "submit", "button", "image", "reset", "file":
			return
		case "checkbox", "radio":
			if _, checked := s.Attr("checked"); !checked {
				return
			}
			f.fields = append(f.fields, formField{name: name, value: s.AttrOr("value", "on")})
		default:
			f.fields = append(f.fields, formField{name: name, value: s.AttrOr("value", "")})
		}
	case "textarea":
		f.fields = append(f.fields, formField{name: name, value: s.Text()})
	case "select":
		options := s.Find("option")
		selected := options.FilterFunction(func(_ int, o *goquery.Selection) bool {
			_, ok := o.Attr("selected")
			return ok
		})
		if selected.Length() == 0 {
			if _, multiple := s.Attr("multiple"); multiple {
				return
			}
			selected = options.First()
		}
		selected.Each(func(_ int, o *goquery.Selection) {
			f.fields = append(f.fields, formField{name: name, value: optionValue(o)})
		})
	}
}

func optionValue(o *goquery.Selection) string {
	if v, ok := o.Attr("value"); ok {
		return v
	}
	return strings.TrimSpace(o.Text())
}

// Set replaces every value of name with value, adding the field if the
// form has none.
func (f *Form) Set(name, value string) {
	kept := f.fields[:0]
	set := false
	for _, fld := range f.fields {
		if fld.name != name {
			kept = append(kept, fld)
			continue
		}
		if !set {
			kept = append(kept, formField{name: name, value: value})
			set = true
		}
	}
	f.fields = kept
	if !set {
		f.fields = append(f.fields, formField{name: name, value: value})
	}
}

// Get returns the first value of name.
func (f *Form) Get(name string) string {
	for _, fld := range f.fields {
		if fld.name == name {
			return fld.value
		}
	}
	return ""
}

// Has reports whether the form carries a field called name.
func (f *Form) Has(name string) bool {
	for _, fld := range f.fields {
		if fld.name == name {
			return true
		}
	}
	return false
}

// Encode serializes the payload in document order.
func (f *Form) Encode() string {
	var b strings.Builder
	all := f.fields
	if f.button != nil {
		all = append(append([]formField(nil), f.fields...), *f.button)
	}
	for i, fld := range all {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(fld.name))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(fld.value))
	}
	return b.String()
}

// URL is the address a GET submission navigates to.
func (f *Form) URL() string {
	if f.Method != http.MethodGet {
		return f.Action
	}
	u, err := url.Parse(f.Action)
	if err != nil {
		return f.Action
	}
	u.RawQuery = f.Encode()
	u.Fragment = ""
	return u.String()
}

// Clone returns an independent copy so one discovered form can be
// submitted once per keyword.
func (f *Form) Clone() *Form {
	out := *f
	out.fields = append([]formField(nil), f.fields...)
	if f.button != nil {
		b := *f.button
		out.button = &b
	}
	return &out
}

// ButtonName returns the name of the chosen submit control, if any.
func (f *Form) ButtonName() string {
	if f.button == nil {
		return ""
	}
	return f.button.name
}
