package xhttp

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/omeyang/xcontrib/pkg/contrib/xcorrelate"
)

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

// ============================================================================
// Middleware 测试
// ============================================================================

func TestMiddleware_Span(t *testing.T) {
	h := newHarness(t, http.StatusOK)
	var inner trace.SpanContext
	handler := Middleware(WithTracer(h.tracer))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		inner = trace.SpanContextFromContext(r.Context())
		_, _ = w.Write([]byte("ok"))
	}))

	rec := serve(handler, httptest.NewRequest(http.MethodPost, "http://api.local:8080/orders?id=1", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	span := h.onlySpan(t)
	assert.Equal(t, ServerSpanName, span.Name)
	assert.Equal(t, trace.SpanKindServer, span.SpanKind)
	assert.Equal(t, span.SpanContext.SpanID(), inner.SpanID())

	attrs := attrMap(span.Attributes)
	assert.Equal(t, "POST", attrs[TagMethod].AsString())
	assert.Equal(t, "/orders", attrs[TagRoute].AsString())
	assert.Equal(t, "api.local", attrs[TagHost].AsString())
	assert.Equal(t, int64(200), attrs[TagStatusCode].AsInt64())
	assert.Equal(t, "web", attrs["span.type"].AsString())
	_, hasService := attrs[TagServiceName]
	assert.False(t, hasService)
}

func TestMiddleware_ExtractsUpstream(t *testing.T) {
	h := newHarness(t, http.StatusOK)
	ctx, upstream := h.tracer.Trace(context.Background(), "upstream", xcorrelate.SpanTypeHTTP)
	req := httptest.NewRequest(http.MethodGet, "http://api.local/", nil)
	propagation.TraceContext{}.Inject(ctx, propagation.HeaderCarrier(req.Header))

	handler := Middleware(WithTracer(h.tracer))(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	serve(handler, req)
	upstream.Finish()

	spans := h.exporter.GetSpans()
	require.Len(t, spans, 2)
	assert.Equal(t, ServerSpanName, spans[0].Name)
	assert.Equal(t, spans[1].SpanContext.TraceID(), spans[0].SpanContext.TraceID())
	assert.Equal(t, spans[1].SpanContext.SpanID(), spans[0].Parent.SpanID())
}

func TestMiddleware_DistributedTracingDisabled(t *testing.T) {
	h := newHarness(t, http.StatusOK)
	ctx, upstream := h.tracer.Trace(context.Background(), "upstream", xcorrelate.SpanTypeHTTP)
	req := httptest.NewRequest(http.MethodGet, "http://api.local/", nil)
	propagation.TraceContext{}.Inject(ctx, propagation.HeaderCarrier(req.Header))

	d := newDescriptor(t)
	require.NoError(t, d.Resolver().AddExact("api.local", override(t, map[string]any{
		OptDistributedTracing: false,
		OptServiceName:        "orders",
	})))
	handler := Middleware(WithTracer(h.tracer), WithDescriptor(d))(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	serve(handler, req)
	upstream.Finish()

	spans := h.exporter.GetSpans()
	require.Len(t, spans, 2)
	assert.NotEqual(t, spans[1].SpanContext.TraceID(), spans[0].SpanContext.TraceID())
	assert.Equal(t, "orders", attrMap(spans[0].Attributes)[TagServiceName].AsString())
}

func TestMiddleware_ErrorStatus(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		errored bool
	}{
		{"ok", http.StatusOK, false},
		{"not found", http.StatusNotFound, false},
		{"server error", http.StatusBadGateway, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, http.StatusOK)
			handler := Middleware(WithTracer(h.tracer))(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				w.WriteHeader(http.StatusTeapot)
			}))
			serve(handler, httptest.NewRequest(http.MethodGet, "/", nil))

			span := h.onlySpan(t)
			assert.Equal(t, int64(tt.status), attrMap(span.Attributes)[TagStatusCode].AsInt64())
			if tt.errored {
				assert.Equal(t, codes.Error, span.Status.Code)
			} else {
				assert.Equal(t, codes.Unset, span.Status.Code)
			}
		})
	}
}

func TestMiddleware_HandlerPanic(t *testing.T) {
	h := newHarness(t, http.StatusOK)
	handler := Middleware(WithTracer(h.tracer))(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("handler exploded")
	}))

	assert.PanicsWithValue(t, "handler exploded", func() {
		serve(handler, httptest.NewRequest(http.MethodGet, "/", nil))
	})
	span := h.onlySpan(t)
	assert.Equal(t, codes.Error, span.Status.Code)
	assert.Contains(t, span.Status.Description, "handler exploded")
	assert.Equal(t, int64(500), attrMap(span.Attributes)[TagStatusCode].AsInt64())
}

func TestMiddleware_TracerUnavailable(t *testing.T) {
	h := newHarness(t, http.StatusOK)
	called := false
	handler := Middleware(WithTracerFunc(func() (xcorrelate.Tracer, error) {
		return nil, xcorrelate.ErrTracerUnavailable
	}))(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		called = true
		w.WriteHeader(http.StatusAccepted)
	}))

	rec := serve(handler, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.True(t, called)
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Empty(t, h.exporter.GetSpans())
}

func TestStatusRecorder_Unwrap(t *testing.T) {
	rec := httptest.NewRecorder()
	w := &statusRecorder{ResponseWriter: rec}
	assert.Same(t, rec, w.Unwrap())
	assert.Equal(t, http.StatusOK, w.code())
	require.NoError(t, http.NewResponseController(w).Flush())
	assert.True(t, rec.Flushed)
}
