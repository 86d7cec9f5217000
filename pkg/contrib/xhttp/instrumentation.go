package xhttp

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"

	"go.opentelemetry.io/otel/propagation"

	"github.com/omeyang/xcontrib/pkg/contrib/xcorrelate"
	"github.com/omeyang/xcontrib/pkg/contrib/xintegration"
	"github.com/omeyang/xcontrib/pkg/contrib/xsettings"
	"github.com/omeyang/xcontrib/pkg/observability/xlog"
	"github.com/omeyang/xcontrib/pkg/observability/xotel"
)

// span 标签。
const (
	TagMethod      = "http.method"
	TagURL         = "http.url"
	TagStatusCode  = "http.status_code"
	TagHost        = "out.host"
	TagPort        = "out.port"
	TagServiceName = "service.name"
	TagSampleRate  = "analytics.sample_rate"
)

// instrumentation Transport 与 Middleware 共用的配置。
type instrumentation struct {
	desc       *xintegration.Descriptor
	tracer     xcorrelate.TracerFunc
	propagator propagation.TextMapPropagator
	logger     xlog.Logger
}

// Option Transport 与 Middleware 的配置选项。
type Option func(*instrumentation)

// WithTracer 使用固定的 tracer，默认使用 xotel 全局 tracer。
func WithTracer(t xcorrelate.Tracer) Option {
	return func(in *instrumentation) {
		if t != nil {
			in.tracer = func() (xcorrelate.Tracer, error) { return t, nil }
		}
	}
}

// WithTracerFunc 每个请求通过 fn 解析 tracer。
func WithTracerFunc(fn xcorrelate.TracerFunc) Option {
	return func(in *instrumentation) {
		if fn != nil {
			in.tracer = fn
		}
	}
}

// WithPropagator 设置跨进程传播格式，默认 W3C TraceContext。
func WithPropagator(p propagation.TextMapPropagator) Option {
	return func(in *instrumentation) {
		if p != nil {
			in.propagator = p
		}
	}
}

// WithDescriptor 设置配置来源，默认使用包级 [Integration]。
func WithDescriptor(d *xintegration.Descriptor) Option {
	return func(in *instrumentation) {
		if d != nil {
			in.desc = d
		}
	}
}

// WithLogger 设置 logger，默认使用 xlog 全局 logger。
func WithLogger(l xlog.Logger) Option {
	return func(in *instrumentation) {
		in.logger = l
	}
}

func newInstrumentation(opts []Option) instrumentation {
	in := instrumentation{
		desc:       Integration,
		tracer:     xotel.Resolve,
		propagator: propagation.TraceContext{},
	}
	for _, opt := range opts {
		opt(&in)
	}
	return in
}

func (in *instrumentation) settings(host string) xsettings.Settings {
	if in.desc == nil {
		return Schema.Defaults()
	}
	return in.desc.Settings(host)
}

// trace 开始 span。tracer 不可用时返回 nil span 和原 ctx。
func (in *instrumentation) trace(ctx context.Context, name string, spanType xcorrelate.SpanType) (context.Context, xcorrelate.Span) {
	tracer, err := in.tracer()
	if err != nil || tracer == nil {
		in.debug(ctx, "xhttp: tracer unavailable", xlog.Err(err))
		return ctx, nil
	}
	child, sp := tracer.Trace(ctx, name, spanType)
	if sp == nil {
		return ctx, nil
	}
	return child, sp
}

// finish 附加状态码与错误后结束 span。status 为 0 表示没有响应。
func (in *instrumentation) finish(ctx context.Context, sp xcorrelate.Span, s xsettings.Settings, status int, err error) {
	defer func() {
		if r := recover(); r != nil {
			in.debug(ctx, "xhttp: finish failed", xlog.Panic(r))
		}
	}()
	defer sp.Finish()

	if status > 0 {
		sp.SetTag(TagStatusCode, status)
	}
	if err != nil {
		sp.SetError(err)
		return
	}
	if status == 0 {
		return
	}
	ranges, perr := parseStatusCodes(s.Strings(OptErrorStatusCodes))
	if perr != nil {
		in.debug(ctx, "xhttp: ignoring invalid error_status_codes", xlog.Err(perr))
	}
	if ranges.contains(status) {
		sp.SetError(fmt.Errorf("%w: %d", ErrErrorStatus, status))
	}
}

func (in *instrumentation) debug(ctx context.Context, msg string, attrs ...slog.Attr) {
	attrs = append(attrs, xlog.Integration(IntegrationName))
	if in.logger != nil {
		in.logger.Debug(ctx, msg, attrs...)
		return
	}
	xlog.Debug(ctx, msg, attrs...)
}

// spanURL 返回不含用户信息、查询参数和片段的 URL。
func spanURL(u *url.URL) string {
	cp := url.URL{Scheme: u.Scheme, Host: u.Host, Path: u.Path, RawPath: u.RawPath}
	return cp.String()
}

func port(u *url.URL) string {
	if p := u.Port(); p != "" {
		return p
	}
	if u.Scheme == "https" {
		return "443"
	}
	return "80"
}
