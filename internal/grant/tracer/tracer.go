// Package tracer is a small tracing abstraction for the grant module. The
// service emits spans through this interface so tests run against the noop
// implementation and production wires the OpenTelemetry adapter.
package tracer

import (
	"context"
	"time"
)

// Span represents an active trace span.
type Span interface {
	// End completes the span. A non-nil err marks the span as failed.
	// End must be called exactly once, typically via defer.
	End(err error)

	// SetAttributes adds key-value pairs to the span.
	SetAttributes(attrs ...Attribute)

	// AddEvent records a timestamped event within the span.
	AddEvent(name string, attrs ...Attribute)
}

// Tracer creates spans. Implementations must be safe for concurrent use.
type Tracer interface {
	Start(ctx context.Context, name string, attrs ...Attribute) (context.Context, Span)
}

// Attribute represents a key-value pair attached to spans.
type Attribute struct {
	Key   string
	Value any
}

func String(key, value string) Attribute {
	return Attribute{Key: key, Value: value}
}

func Bool(key string, value bool) Attribute {
	return Attribute{Key: key, Value: value}
}

func Int64(key string, value int64) Attribute {
	return Attribute{Key: key, Value: value}
}

func Duration(key string, value time.Duration) Attribute {
	return Attribute{Key: key, Value: value.Milliseconds()}
}

// Span names used by the grant module.
const (
	SpanGrant       = "grant.create"
	SpanRevoke      = "grant.revoke"
	SpanCheckAccess = "grant.check_access"
	SpanFetch       = "grant.fetch"
)

// Attribute keys used by the grant module.
const (
	AttrGrantID       = "grant.id"
	AttrGrantee       = "grant.grantee"
	AttrAttestationID = "grant.attestation_id"
	AttrAllowed       = "grant.allowed"
	AttrDenyReason    = "grant.deny_reason"
)
