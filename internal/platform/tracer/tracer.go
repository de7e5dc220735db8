// Package tracer provides a lightweight tracing abstraction so services can
// emit spans without depending on OpenTelemetry APIs directly.
//
// Implementations:
//   - NoopTracer: for tests and the CLI
//   - OTelTracer: OpenTelemetry adapter for the server
package tracer

import (
	"context"
	"time"
)

// Span represents an active trace span. End must be called exactly once.
type Span interface {
	// End completes the span; a non-nil err marks it failed.
	End(err error)
	SetAttributes(attrs ...Attribute)
	AddEvent(name string, attrs ...Attribute)
}

// Tracer creates spans. Implementations must be safe for concurrent use.
//
//	ctx, span := t.Start(ctx, tracer.SpanResolve, tracer.String(tracer.AttrIDHash, hash))
//	defer func() { span.End(err) }()
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

func Int(key string, value int) Attribute {
	return Attribute{Key: key, Value: value}
}

func Int64(key string, value int64) Attribute {
	return Attribute{Key: key, Value: value}
}

// Duration creates a duration attribute in milliseconds.
func Duration(key string, value time.Duration) Attribute {
	return Attribute{Key: key, Value: value.Milliseconds()}
}

// Span names.
const (
	SpanResolve      = "identity.resolve"
	SpanLookup       = "identity.lookup"
	SpanHolidayFetch = "identity.holidays.fetch"
	SpanStoreUpsert  = "identity.store.upsert"
	SpanStoreFind    = "identity.store.find"
)

// Attribute keys. Identity numbers only ever appear hashed.
const (
	AttrIDHash          = "id_hash"
	AttrIsNewUser       = "is_new_user"
	AttrSearchCount     = "search_count"
	AttrHolidayCount    = "holiday_count"
	AttrHolidayStatus   = "holidays.status"
	AttrHolidayCategory = "holidays.category"
	AttrCountry         = "country"
	AttrYear            = "year"
	AttrCacheHit        = "cache.hit"
)

// Event names.
const (
	EventAuditEmitted = "audit.emitted"
)
