package xhttp

import (
	"net/http"

	"go.opentelemetry.io/otel/propagation"

	"github.com/omeyang/xcontrib/pkg/contrib/xcorrelate"
	"github.com/omeyang/xcontrib/pkg/contrib/xsettings"
	"github.com/omeyang/xcontrib/pkg/observability/xlog"
)

// SpanName 客户端请求 span 的名称。
const SpanName = "http.request"

// Transport 为每个请求生成 span 的 http.RoundTripper。使用 [Wrap] 创建。
type Transport struct {
	instrumentation
	base http.RoundTripper
}

var _ http.RoundTripper = (*Transport)(nil)

// Wrap 包装 rt。rt 为 nil 时包装未插桩的默认 Transport；rt 已是 *Transport 时原样返回。
func Wrap(rt http.RoundTripper, opts ...Option) *Transport {
	if t, ok := rt.(*Transport); ok {
		return t
	}
	if rt == nil {
		rt = unwrap(http.DefaultTransport)
	}
	return &Transport{instrumentation: newInstrumentation(opts), base: rt}
}

// Base 返回被包装的 RoundTripper。
func (t *Transport) Base() http.RoundTripper {
	return t.base
}

// RoundTrip 发出请求。插桩失败不影响请求本身。
func (t *Transport) RoundTrip(req *http.Request) (resp *http.Response, err error) {
	sp, s, out := t.start(req)
	if sp != nil {
		defer func() {
			status := 0
			if err == nil && resp != nil {
				status = resp.StatusCode
			}
			t.finish(req.Context(), sp, s, status, err)
		}()
	}
	return t.base.RoundTrip(out)
}

// CloseIdleConnections 转发给被包装的 Transport。
func (t *Transport) CloseIdleConnections() {
	type closeIdler interface{ CloseIdleConnections() }
	if c, ok := t.base.(closeIdler); ok {
		c.CloseIdleConnections()
	}
}

func (t *Transport) start(req *http.Request) (sp xcorrelate.Span, s xsettings.Settings, out *http.Request) {
	out = req
	defer func() {
		if r := recover(); r != nil {
			t.debug(req.Context(), "xhttp: start failed", xlog.Panic(r))
			if sp != nil {
				sp.Finish()
			}
			sp, out = nil, req
		}
	}()

	host := req.URL.Hostname()
	s = t.settings(host)
	ctx, sp := t.trace(req.Context(), SpanName, xcorrelate.SpanTypeHTTP)
	if sp == nil {
		return nil, s, req
	}

	sp.SetTag(TagMethod, req.Method)
	sp.SetTag(TagURL, spanURL(req.URL))
	sp.SetTag(TagHost, host)
	sp.SetTag(TagPort, port(req.URL))
	service := s.String(OptServiceName)
	if s.Bool(OptSplitByDomain) && host != "" {
		service = host
	}
	sp.SetTag(TagServiceName, service)
	if s.Bool(OptAnalyticsEnabled) {
		sp.SetTag(TagSampleRate, s.Float(OptAnalyticsSampleRate))
	}

	if !s.Bool(OptDistributedTracing) {
		return sp, s, req.WithContext(ctx)
	}
	// RoundTripper 不得修改调用方的请求
	out = req.Clone(ctx)
	t.propagator.Inject(ctx, propagation.HeaderCarrier(out.Header))
	return sp, s, out
}
