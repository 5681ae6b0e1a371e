package logging

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	TraceIDKey = "trace_id"

	FieldFunc   = "func"
	FieldEvent  = "event"
	FieldResult = "result"
	FieldParams = "params"
	FieldTrace  = "trace"
)

// Trace carries the state of one Enter/Exit pair.
type Trace struct {
	fn      string
	traceID string
	start   time.Time
}

type traceCtxKey struct{}

// WithTraceID returns a context whose Enter calls will carry the given
// trace id.
func WithTraceID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, traceCtxKey{}, id)
}

func traceID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(traceCtxKey{}).(string); ok {
		return v
	}
	// Contexts that resolve string keys (gin) may carry it under the
	// field name instead.
	if v, ok := ctx.Value(TraceIDKey).(string); ok {
		return v
	}
	return ""
}

// Enter logs a function entry on debug level and returns the trace handle
// for the matching Exit / ExitErr call.
func Enter(ctx context.Context, fn string, params map[string]any) *Trace {
	t := &Trace{
		fn:      fn,
		traceID: traceID(ctx),
		start:   time.Now(),
	}

	e := log.Logger.Debug().
		Str(FieldFunc, fn).
		Str(FieldEvent, "enter")
	decorate(e, t, params)
	e.Msg("")

	return t
}

func Exit(t *Trace, result string, params map[string]any) {
	e := log.Logger.Debug().
		Str(FieldFunc, t.fn).
		Str(FieldEvent, "exit").
		Str(FieldResult, result).
		Dur("elapsed", time.Since(t.start))
	decorate(e, t, params)
	e.Msg("")
}

func ExitErr(t *Trace, err error) {
	ExitErrParams(t, err, nil)
}

func ExitErrParams(t *Trace, err error, params map[string]any) {
	e := log.Logger.Error().
		Str(FieldFunc, t.fn).
		Str(FieldEvent, "exit").
		Err(err).
		Dur("elapsed", time.Since(t.start))
	decorate(e, t, params)
	e.Msg("")
}

// ErrorContinue logs a recoverable error without closing the trace.
func ErrorContinue(t *Trace, err error, params map[string]any) {
	e := log.Logger.Warn().
		Str(FieldFunc, t.fn).
		Str(FieldEvent, "recovered").
		Err(err)
	decorate(e, t, params)
	e.Msg("")
}

func decorate(e *zerolog.Event, t *Trace, params map[string]any) {
	if t.traceID != "" {
		e.Str(FieldTrace, t.traceID)
	}
	if len(params) == 0 {
		return
	}
	d := zerolog.Dict()
	for k, v := range params {
		d.Any(k, v)
	}
	e.Dict(FieldParams, d)
}
