// Package reqctx carries per-run identity through a context so log lines
// and errors from one seek can be correlated.
package reqctx

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type key int

const runKey key = 0

// RunContext identifies one seek invocation.
type RunContext struct {
	RunID     string
	Target    string
	StartTime time.Time
}

// WithRun starts a new run with a fresh id.
func WithRun(ctx context.Context) context.Context {
	return context.WithValue(ctx, runKey, &RunContext{
		RunID:     uuid.NewString(),
		StartTime: time.Now(),
	})
}

// WithTarget returns a child context whose run is scoped to target.
func WithTarget(ctx context.Context, target string) context.Context {
	rc := *Get(ctx)
	rc.Target = target
	return context.WithValue(ctx, runKey, &rc)
}

// Get returns the run attached to ctx, or a placeholder.
func Get(ctx context.Context) *RunContext {
	if rc, ok := ctx.Value(runKey).(*RunContext); ok {
		return rc
	}
	return &RunContext{
		RunID:     "unknown",
		StartTime: time.Now(),
	}
}

// Logger returns the global logger annotated with the run fields.
func Logger(ctx context.Context) zerolog.Logger {
	rc := Get(ctx)
	lc := log.With().Str("run", rc.RunID)
	if rc.Target != "" {
		lc = lc.Str("target", rc.Target)
	}
	return lc.Logger()
}

// RunError wraps an error with the run that produced it.
type RunError struct {
	RunID string
	Err   error
}

// Error implements the error interface
func (e *RunError) Error() string {
	return fmt.Sprintf("[%s] %v", e.RunID, e.Err)
}

// Unwrap returns the underlying error
func (e *RunError) Unwrap() error {
	return e.Err
}

// NewRunError tags err with the run id from ctx.
func NewRunError(ctx context.Context, err error) error {
	return &RunError{RunID: Get(ctx).RunID, Err: err}
}
