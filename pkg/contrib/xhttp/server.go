package xhttp

import (
	"context"
	"fmt"
	"net"
	"net/http"

	"go.opentelemetry.io/otel/propagation"

	"github.com/omeyang/xcontrib/pkg/contrib/xcorrelate"
	"github.com/omeyang/xcontrib/pkg/contrib/xsettings"
	"github.com/omeyang/xcontrib/pkg/observability/xlog"
)

// ServerSpanName 服务端请求 span 的名称。
const ServerSpanName = "http.server.request"

// TagRoute 服务端 span 的请求路径标签。
const TagRoute = "http.route"

// Middleware 返回为每个入站请求生成 web span 的中间件。
//
// distributed_tracing 开启时从请求头提取上游 trace 上下文，span 作为其子节点。
// 配置按请求的 Host 解析。handler panic 时 span 记录错误后继续向上 panic。
func Middleware(opts ...Option) func(http.Handler) http.Handler {
	in := newInstrumentation(opts)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sp, s, ctx := in.startServer(r)
			if sp == nil {
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			rec := &statusRecorder{ResponseWriter: w}
			defer func() {
				if p := recover(); p != nil {
					in.finish(ctx, sp, s, http.StatusInternalServerError, fmt.Errorf("%w: %v", ErrHandlerPanic, p))
					panic(p)
				}
				in.finish(ctx, sp, s, rec.code(), nil)
			}()
			next.ServeHTTP(rec, r.WithContext(ctx))
		})
	}
}

func (in *instrumentation) startServer(r *http.Request) (sp xcorrelate.Span, s xsettings.Settings, ctx context.Context) {
	ctx = r.Context()
	defer func() {
		if p := recover(); p != nil {
			in.debug(r.Context(), "xhttp: start failed", xlog.Panic(p))
			if sp != nil {
				sp.Finish()
			}
			sp, ctx = nil, r.Context()
		}
	}()

	host := requestHost(r)
	s = in.settings(host)
	if s.Bool(OptDistributedTracing) {
		ctx = in.propagator.Extract(ctx, propagation.HeaderCarrier(r.Header))
	}
	ctx, sp = in.trace(ctx, ServerSpanName, xcorrelate.SpanTypeWeb)
	if sp == nil {
		return nil, s, r.Context()
	}

	sp.SetTag(TagMethod, r.Method)
	sp.SetTag(TagRoute, r.URL.Path)
	sp.SetTag(TagHost, host)
	if s.IsSet(OptServiceName) {
		sp.SetTag(TagServiceName, s.String(OptServiceName))
	}
	if s.Bool(OptAnalyticsEnabled) {
		sp.SetTag(TagSampleRate, s.Float(OptAnalyticsSampleRate))
	}
	return sp, s, ctx
}

func requestHost(r *http.Request) string {
	if h, _, err := net.SplitHostPort(r.Host); err == nil {
		return h
	}
	return r.Host
}

// statusRecorder 记录 handler 写出的状态码。
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (w *statusRecorder) WriteHeader(code int) {
	if w.status == 0 {
		w.status = code
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusRecorder) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	return w.ResponseWriter.Write(b)
}

// Unwrap 供 http.ResponseController 访问底层 ResponseWriter。
func (w *statusRecorder) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

func (w *statusRecorder) code() int {
	if w.status == 0 {
		return http.StatusOK
	}
	return w.status
}
