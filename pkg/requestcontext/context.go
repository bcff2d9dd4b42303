// Package requestcontext provides HTTP-independent context accessors for
// request-scoped values.
//
// Middleware sets values; services read them. Keeping this package free of
// net/http lets services import only what they need.
//
// Usage in services (read values):
//
//	caller := requestcontext.Caller(ctx)
//	requestID := requestcontext.RequestID(ctx)
//
// Usage in tests (inject values):
//
//	ctx = requestcontext.WithCaller(ctx, "issuer-admin-1")
//	ctx = requestcontext.WithProgram(ctx, "settlement-bridge")
package requestcontext

import (
	"context"

	id "crest/pkg/domain"
)

type (
	callerKey    struct{}
	programKey   struct{}
	requestIDKey struct{}
)

// WithCaller stores the authenticated caller identity.
func WithCaller(ctx context.Context, caller id.Identity) context.Context {
	return context.WithValue(ctx, callerKey{}, caller)
}

// Caller returns the authenticated caller identity, or the zero Identity when
// the request is unauthenticated.
func Caller(ctx context.Context) id.Identity {
	v, _ := ctx.Value(callerKey{}).(id.Identity)
	return v
}

// WithProgram stores the invoking program/counter-party context for a
// transfer. The program allowlist module evaluates against this value.
func WithProgram(ctx context.Context, program id.Identity) context.Context {
	return context.WithValue(ctx, programKey{}, program)
}

// Program returns the invoking program identity, or the zero Identity.
func Program(ctx context.Context) id.Identity {
	v, _ := ctx.Value(programKey{}).(id.Identity)
	return v
}

// WithRequestID stores the correlation id for the request.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// RequestID returns the correlation id, or "" when unset.
func RequestID(ctx context.Context) string {
	v, _ := ctx.Value(requestIDKey{}).(string)
	return v
}
