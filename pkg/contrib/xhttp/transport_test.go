package xhttp

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"

	"github.com/omeyang/xcontrib/pkg/contrib/xcorrelate"
	"github.com/omeyang/xcontrib/pkg/contrib/xintegration"
	"github.com/omeyang/xcontrib/pkg/contrib/xpatch"
	"github.com/omeyang/xcontrib/pkg/contrib/xsettings"
	"github.com/omeyang/xcontrib/pkg/contrib/xversion"
	"github.com/omeyang/xcontrib/pkg/observability/xotel"
)

// ============================================================================
// 测试辅助函数
// ============================================================================

type harness struct {
	server   *httptest.Server
	exporter *tracetest.InMemoryExporter
	tracer   *xotel.Tracer
	headers  chan http.Header
}

func newHarness(t *testing.T, status int) *harness {
	t.Helper()
	h := &harness{headers: make(chan http.Header, 16)}
	h.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.headers <- r.Header.Clone()
		w.WriteHeader(status)
	}))
	t.Cleanup(h.server.Close)

	h.exporter = tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(h.exporter))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	var err error
	h.tracer, err = xotel.NewTracer(xotel.WithTracerProvider(tp))
	require.NoError(t, err)
	return h
}

func (h *harness) client(t *testing.T, opts ...Option) *http.Client {
	t.Helper()
	base := &http.Transport{}
	t.Cleanup(base.CloseIdleConnections)
	opts = append([]Option{WithTracer(h.tracer)}, opts...)
	return &http.Client{Transport: Wrap(base, opts...)}
}

func (h *harness) get(t *testing.T, c *http.Client, path string) *http.Response {
	t.Helper()
	resp, err := c.Get(h.server.URL + path)
	require.NoError(t, err)
	_, _ = io.Copy(io.Discard, resp.Body)
	require.NoError(t, resp.Body.Close())
	return resp
}

func (h *harness) onlySpan(t *testing.T) tracetest.SpanStub {
	t.Helper()
	spans := h.exporter.GetSpans()
	require.Len(t, spans, 1)
	return spans[0]
}

func attrMap(attrs []attribute.KeyValue) map[string]attribute.Value {
	m := make(map[string]attribute.Value, len(attrs))
	for _, a := range attrs {
		m[string(a.Key)] = a.Value
	}
	return m
}

func newDescriptor(t *testing.T) *xintegration.Descriptor {
	t.Helper()
	d, err := xintegration.New("http-test",
		xintegration.WithTarget(xversion.TargetStd, MinimumGoVersion),
		xintegration.WithSchema(Schema),
		xintegration.WithPatcher(xpatch.New("http-test", xpatch.Modification{
			Name: "noop", Apply: func() error { return nil },
		})),
	)
	require.NoError(t, err)
	return d
}

func override(t *testing.T, values map[string]any) xsettings.Settings {
	t.Helper()
	s, err := Schema.Override(values)
	require.NoError(t, err)
	return s
}

// ============================================================================
// Transport 测试
// ============================================================================

func TestTransport_Span(t *testing.T) {
	h := newHarness(t, http.StatusOK)
	resp := h.get(t, h.client(t), "/users?id=1")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	span := h.onlySpan(t)
	assert.Equal(t, SpanName, span.Name)
	assert.Equal(t, trace.SpanKindClient, span.SpanKind)
	assert.Equal(t, codes.Unset, span.Status.Code)

	u, err := url.Parse(h.server.URL)
	require.NoError(t, err)
	attrs := attrMap(span.Attributes)
	assert.Equal(t, "GET", attrs[TagMethod].AsString())
	assert.Equal(t, h.server.URL+"/users", attrs[TagURL].AsString())
	assert.Equal(t, int64(200), attrs[TagStatusCode].AsInt64())
	assert.Equal(t, u.Hostname(), attrs[TagHost].AsString())
	assert.Equal(t, u.Port(), attrs[TagPort].AsString())
	assert.Equal(t, DefaultServiceName, attrs[TagServiceName].AsString())
	assert.Equal(t, "http", attrs["span.type"].AsString())
	_, hasRate := attrs[TagSampleRate]
	assert.False(t, hasRate)
}

func TestTransport_PropagatesTraceContext(t *testing.T) {
	h := newHarness(t, http.StatusOK)
	h.get(t, h.client(t), "/")

	header := <-h.headers
	traceparent := header.Get("traceparent")
	require.NotEmpty(t, traceparent)
	span := h.onlySpan(t)
	assert.Contains(t, traceparent, span.SpanContext.TraceID().String())
	assert.Contains(t, traceparent, span.SpanContext.SpanID().String())
}

func TestTransport_DoesNotMutateRequest(t *testing.T) {
	h := newHarness(t, http.StatusOK)
	req, err := http.NewRequest(http.MethodGet, h.server.URL, nil)
	require.NoError(t, err)

	resp, err := h.client(t).Do(req)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	assert.Empty(t, req.Header.Get("traceparent"))
}

func TestTransport_ErrorStatusCodes(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		codes   []string
		errored bool
	}{
		{"default 5xx", http.StatusServiceUnavailable, nil, true},
		{"default 4xx ok", http.StatusNotFound, nil, false},
		{"single code", http.StatusNotFound, []string{"404"}, true},
		{"invalid ignored", http.StatusNotFound, []string{"oops", "400-499"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, tt.status)
			d := newDescriptor(t)
			if tt.codes != nil {
				d.Resolver().SetDefaults(xsettings.Merge(d.DefaultSettings(),
					override(t, map[string]any{OptErrorStatusCodes: tt.codes})))
			}
			h.get(t, h.client(t, WithDescriptor(d)), "/")

			span := h.onlySpan(t)
			if tt.errored {
				assert.Equal(t, codes.Error, span.Status.Code)
				require.NotEmpty(t, span.Events)
				assert.Equal(t, "exception", span.Events[0].Name)
			} else {
				assert.Equal(t, codes.Unset, span.Status.Code)
			}
		})
	}
}

func TestTransport_TransportError(t *testing.T) {
	h := newHarness(t, http.StatusOK)
	boom := errors.New("dial failed")
	c := &http.Client{Transport: Wrap(roundTripFunc(func(*http.Request) (*http.Response, error) {
		return nil, boom
	}), WithTracer(h.tracer))}

	_, err := c.Get("http://example.invalid/")
	require.ErrorIs(t, err, boom)

	span := h.onlySpan(t)
	assert.Equal(t, codes.Error, span.Status.Code)
	assert.Equal(t, "80", attrMap(span.Attributes)[TagPort].AsString())
}

func TestTransport_SettingsByHost(t *testing.T) {
	h := newHarness(t, http.StatusOK)
	u, err := url.Parse(h.server.URL)
	require.NoError(t, err)

	d := newDescriptor(t)
	require.NoError(t, d.Resolver().AddExact(u.Hostname(), override(t, map[string]any{
		OptSplitByDomain:       true,
		OptAnalyticsEnabled:    true,
		OptAnalyticsSampleRate: 0.25,
		OptDistributedTracing:  false,
	})))
	h.get(t, h.client(t, WithDescriptor(d)), "/")

	attrs := attrMap(h.onlySpan(t).Attributes)
	assert.Equal(t, u.Hostname(), attrs[TagServiceName].AsString())
	assert.InDelta(t, 0.25, attrs[TagSampleRate].AsFloat64(), 1e-9)
	assert.Empty(t, (<-h.headers).Get("traceparent"))
}

func TestTransport_TracerUnavailable(t *testing.T) {
	h := newHarness(t, http.StatusOK)
	c := h.client(t, WithTracerFunc(func() (xcorrelate.Tracer, error) {
		return nil, xcorrelate.ErrTracerUnavailable
	}))
	resp := h.get(t, c, "/")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, h.exporter.GetSpans())
}

func TestTransport_TracerPanicStillSendsRequest(t *testing.T) {
	h := newHarness(t, http.StatusOK)
	c := h.client(t, WithTracerFunc(func() (xcorrelate.Tracer, error) {
		panic("broken tracer")
	}))
	resp := h.get(t, c, "/")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestTransport_BasePanicFinishesSpan(t *testing.T) {
	h := newHarness(t, http.StatusOK)
	tr := Wrap(roundTripFunc(func(*http.Request) (*http.Response, error) {
		panic("base exploded")
	}), WithTracer(h.tracer))

	req, err := http.NewRequest(http.MethodGet, "http://example.invalid/", nil)
	require.NoError(t, err)
	assert.PanicsWithValue(t, "base exploded", func() { _, _ = tr.RoundTrip(req) })
	assert.Len(t, h.exporter.GetSpans(), 1)
}

func TestWrap(t *testing.T) {
	base := &http.Transport{}
	w := Wrap(base)
	assert.Same(t, base, w.Base())
	assert.Same(t, w, Wrap(w))
	assert.Same(t, base, unwrap(Wrap(w)))
	assert.NotPanics(t, w.CloseIdleConnections)
}

// ============================================================================
// error_status_codes 解析测试
// ============================================================================

func TestParseStatusCodes(t *testing.T) {
	ranges, err := parseStatusCodes([]string{"500-599", " 404 ", "bad", "600-500", "42"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidStatusCodes)
	assert.True(t, ranges.contains(500))
	assert.True(t, ranges.contains(599))
	assert.True(t, ranges.contains(404))
	assert.False(t, ranges.contains(600))
	assert.False(t, ranges.contains(403))

	// 缓存命中返回相同结果
	again, err2 := parseStatusCodes([]string{"500-599", " 404 ", "bad", "600-500", "42"})
	assert.Equal(t, ranges, again)
	assert.Equal(t, err, err2)
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }
