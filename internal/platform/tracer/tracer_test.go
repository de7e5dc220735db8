package tracer_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"

	"idlookup/internal/platform/tracer"
)

func TestNoopTracer_Start(t *testing.T) {
	tr := tracer.NewNoop()
	ctx := context.Background()

	newCtx, span := tr.Start(ctx, tracer.SpanResolve, tracer.String(tracer.AttrIDHash, "abc"))

	assert.Equal(t, ctx, newCtx)
	require.NotNil(t, span)
	span.SetAttributes(tracer.Bool(tracer.AttrIsNewUser, true))
	span.AddEvent(tracer.EventAuditEmitted, tracer.Int(tracer.AttrHolidayCount, 2))
	span.End(errors.New("ignored"))
}

func TestOTelTracer_StartAndEnd(t *testing.T) {
	tr := tracer.NewOTel(tracer.WithOTelTracer(noop.NewTracerProvider().Tracer("test")))

	ctx, span := tr.Start(context.Background(), tracer.SpanHolidayFetch,
		tracer.String(tracer.AttrCountry, "ZA"),
		tracer.Int(tracer.AttrYear, 1990),
		tracer.Int64(tracer.AttrSearchCount, 3),
		tracer.Duration("elapsed", 1500*time.Millisecond),
		tracer.Attribute{Key: "ignored", Value: struct{}{}},
	)
	require.NotNil(t, ctx)
	assert.NotPanics(t, func() {
		span.SetAttributes(tracer.Bool(tracer.AttrCacheHit, false))
		span.AddEvent(tracer.EventAuditEmitted)
		span.End(errors.New("provider outage"))
	})
}

func TestNewOTel_DefaultsToGlobalProvider(t *testing.T) {
	tr := tracer.NewOTel()
	_, span := tr.Start(context.Background(), tracer.SpanStoreUpsert)
	assert.NotPanics(t, func() { span.End(nil) })
}
