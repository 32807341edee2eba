// Package ctxutil carries request-scoped tracing metadata through a
// context.Context, the way handlers and middleware pass it around
// without threading extra parameters everywhere.
package ctxutil

import "context"

type traceKey struct{}

// TraceData is the tracing/request identity attached to one HTTP request.
type TraceData struct {
	TraceID   string
	RequestID string
}

func WithTraceData(ctx context.Context, td *TraceData) context.Context {
	return context.WithValue(ctx, traceKey{}, td)
}

func GetTraceData(ctx context.Context) *TraceData {
	if ctx == nil {
		return nil
	}
	td, _ := ctx.Value(traceKey{}).(*TraceData)
	return td
}
