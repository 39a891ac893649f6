package context

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/trace"
)

func TestNewTraceContext_UsesActiveSpan(t *testing.T) {
	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID: trace.TraceID{0x01, 0x02},
		SpanID:  trace.SpanID{0x03},
	})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)

	tc := NewTraceContext(ctx, "req-1")
	assert.Equal(t, sc.TraceID().String(), tc.TraceID)
	assert.Equal(t, sc.SpanID().String(), tc.SpanID)
	assert.Equal(t, "req-1", tc.RequestID)
}

func TestNewTraceContext_RandomWithoutSpan(t *testing.T) {
	tc := NewTraceContext(context.Background(), "")
	assert.Len(t, tc.TraceID, 32)
	assert.Len(t, tc.SpanID, 16)
	assert.NotEmpty(t, tc.RequestID)
}

func TestEnsureTrace(t *testing.T) {
	ctx := EnsureTrace(context.Background())
	first := GetTrace(ctx)
	assert.NotNil(t, first)
	assert.Same(t, first, GetTrace(EnsureTrace(ctx)))
	assert.Equal(t, first.RequestID, GetRequestID(ctx))
	assert.Empty(t, GetRequestID(context.Background()))
}

func TestCaller_HasRole(t *testing.T) {
	c := &Caller{UserID: "u1", Roles: []string{"Editor"}}
	assert.True(t, c.HasRole(RoleEditor))
	assert.False(t, c.IsAdmin())

	var none *Caller
	assert.False(t, none.HasRole(RoleReader))

	ctx := WithCaller(context.Background(), c)
	assert.Equal(t, "u1", GetUserID(ctx))
	assert.Empty(t, GetUserID(context.Background()))
}
