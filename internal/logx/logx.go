package logx

import (
	"context"

	"pkt.systems/companion/schema"
	"pkt.systems/pslog"
)

type contextKey int

const (
	requestKey contextKey = iota
)

// WithComponent annotates the logger with the component id parts when present.
func WithComponent(log pslog.Logger, id schema.ComponentID) pslog.Logger {
	if log == nil {
		log = pslog.Ctx(context.Background())
	}
	if id.NamespaceID != "" {
		log = log.With("namespace", id.NamespaceID)
	}
	if id.MemberID != "" {
		log = log.With("member", id.MemberID)
	}
	return log
}

// WithRequest annotates the logger with a chooser request id.
func WithRequest(log pslog.Logger, requestID string) pslog.Logger {
	if log == nil {
		log = pslog.Ctx(context.Background())
	}
	if requestID != "" {
		log = log.With("request", requestID)
	}
	return log
}

// WithRequestContext annotates the context logger with the request id unless
// the context already carries that request.
func WithRequestContext(ctx context.Context, requestID string) pslog.Logger {
	log := pslog.Ctx(ctx)
	if requestID == "" {
		return log
	}
	if current, ok := ctx.Value(requestKey).(string); ok && current == requestID {
		return log
	}
	return log.With("request", requestID)
}

// ContextWithRequest stores the request marker on the context for log de-duplication.
func ContextWithRequest(ctx context.Context, requestID string) context.Context {
	if ctx == nil || requestID == "" {
		return ctx
	}
	return context.WithValue(ctx, requestKey, requestID)
}

// ContextWithRequestLogger attaches the logger and request marker to the context.
func ContextWithRequestLogger(ctx context.Context, log pslog.Logger, requestID string) context.Context {
	ctx = pslog.ContextWithLogger(ctx, log)
	return ContextWithRequest(ctx, requestID)
}
