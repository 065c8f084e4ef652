// Package transform holds the named text transforms a target's
// preprocess section may refer to. Names are resolved when a target is
// built, so an unknown name fails the definition instead of the crawl.
package transform

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Func rewrites one attribute value. On error the caller keeps the
// previous value.
type Func func(string) (string, error)

// Registry maps stable names to transforms. It is safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	funcs map[string]Func
}

// NewRegistry returns a registry preloaded with the built-in transforms.
func NewRegistry() *Registry {
	r := &Registry{funcs: make(map[string]Func)}
	for name, fn := range builtins() {
		r.funcs[name] = fn
	}
	return r
}

// Register adds fn under name. Names are case-insensitive and may not be
// registered twice.
func (r *Registry) Register(name string, fn Func) error {
	key := normalize(name)
	if key == "" {
		return fmt.Errorf("transform name is empty")
	}
	if fn == nil {
		return fmt.Errorf("transform %q is nil", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.funcs[key]; exists {
		return fmt.Errorf("transform %q already registered", name)
	}
	r.funcs[key] = fn
	return nil
}

// Lookup returns the transform registered under name.
func (r *Registry) Lookup(name string) (Func, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.funcs[normalize(name)]
	return fn, ok
}

// Names returns the registered names in order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.funcs))
	for n := range r.funcs {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Chain composes transforms left to right, stopping at the first error.
func Chain(fns ...Func) Func {
	return func(s string) (string, error) {
		var err error
		for _, fn := range fns {
			if s, err = fn(s); err != nil {
				return s, err
			}
		}
		return s, nil
	}
}

// Resolve looks up a reference that may chain several names with "|",
// e.g. "strip_tags|trim".
func (r *Registry) Resolve(ref string) (Func, error) {
	parts := strings.Split(ref, "|")
	fns := make([]Func, 0, len(parts))
	for _, p := range parts {
		fn, ok := r.Lookup(p)
		if !ok {
			return nil, fmt.Errorf("transform %q is not registered", strings.TrimSpace(p))
		}
		fns = append(fns, fn)
	}
	if len(fns) == 1 {
		return fns[0], nil
	}
	return Chain(fns...), nil
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
