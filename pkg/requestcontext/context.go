// Package requestcontext provides HTTP-independent context accessors for
// request-scoped values. Middleware sets them; services read them without
// importing net/http.
package requestcontext

import (
	"context"

	"vouch/pkg/domain"
)

type (
	identityKey  struct{}
	requestIDKey struct{}
)

// Identity retrieves the authenticated caller identity from the context.
// Returns the empty identity if not set.
func Identity(ctx context.Context) domain.Identity {
	if identity, ok := ctx.Value(identityKey{}).(domain.Identity); ok {
		return identity
	}
	return ""
}

// WithIdentity injects a caller identity into the context. Used by the auth
// middleware and by service unit tests that skip the HTTP chain.
func WithIdentity(ctx context.Context, identity domain.Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, identity)
}

// RequestID retrieves the request ID from the context.
func RequestID(ctx context.Context) string {
	if reqID, ok := ctx.Value(requestIDKey{}).(string); ok {
		return reqID
	}
	return ""
}

// WithRequestID injects a request ID into the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}
