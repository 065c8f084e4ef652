package transform

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dop251/goja"
	"github.com/rs/zerolog/log"
)

// DefaultScriptTimeout bounds a single script invocation.
const DefaultScriptTimeout = 2 * time.Second

// Script is a user supplied JavaScript transform. The source is either a
// function expression or a function body that sees the input as `value`.
type Script struct {
	name    string
	timeout time.Duration

	mu sync.Mutex
	vm *goja.Runtime
	fn goja.Callable
}

// NewScript compiles source into a transform.
func NewScript(name, source string, timeout time.Duration) (*Script, error) {
	if timeout <= 0 {
		timeout = DefaultScriptTimeout
	}
	src := strings.TrimSpace(source)
	if src == "" {
		return nil, fmt.Errorf("script %q is empty", name)
	}
	if !strings.HasPrefix(src, "function") && !strings.Contains(firstLine(src), "=>") {
		src = "function(value) {\n" + src + "\n}"
	}

	prog, err := goja.Compile(name, "("+src+")", true)
	if err != nil {
		return nil, fmt.Errorf("script %q: %w", name, err)
	}

	vm := goja.New()
	vm.Set("console", map[string]interface{}{
		"log": func(call goja.FunctionCall) goja.Value {
			args := make([]string, len(call.Arguments))
			for i, a := range call.Arguments {
				args[i] = a.String()
			}
			log.Debug().Str("script", name).Msg(strings.Join(args, " "))
			return goja.Undefined()
		},
	})

	v, err := vm.RunProgram(prog)
	if err != nil {
		return nil, fmt.Errorf("script %q: %w", name, err)
	}
	fn, ok := goja.AssertFunction(v)
	if !ok {
		return nil, fmt.Errorf("script %q does not evaluate to a function", name)
	}

	return &Script{name: name, timeout: timeout, vm: vm, fn: fn}, nil
}

// Name returns the registered name of the script.
func (s *Script) Name() string {
	return s.name
}

// Apply runs the script on value. null and undefined results yield "".
func (s *Script) Apply(value string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	timer := time.AfterFunc(s.timeout, func() {
		s.vm.Interrupt(fmt.Sprintf("script %q timed out after %s", s.name, s.timeout))
	})
	defer func() {
		timer.Stop()
		s.vm.ClearInterrupt()
	}()

	res, err := s.fn(goja.Undefined(), s.vm.ToValue(value))
	if err != nil {
		return value, fmt.Errorf("script %q: %w", s.name, err)
	}
	if goja.IsUndefined(res) || goja.IsNull(res) {
		return "", nil
	}
	return res.String(), nil
}

// RegisterScripts compiles every script and registers it under its name.
func (r *Registry) RegisterScripts(scripts map[string]string, timeout time.Duration) error {
	names := make([]string, 0, len(scripts))
	for n := range scripts {
		names = append(names, n)
	}
	sort.Strings(names)

	for _, n := range names {
		s, err := NewScript(n, scripts[n], timeout)
		if err != nil {
			return err
		}
		if err := r.Register(n, s.Apply); err != nil {
			return err
		}
	}
	return nil
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
