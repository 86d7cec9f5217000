package xotel

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/omeyang/xcontrib/pkg/contrib/xcorrelate"
	"github.com/omeyang/xcontrib/pkg/contrib/xsettings"
)

const (
	defaultInstrumentationName = "github.com/omeyang/xcontrib"

	metricSpanTotal    = "xcontrib.span.total"
	metricSpanDuration = "xcontrib.span.duration"

	statusOK    = "ok"
	statusError = "error"
)

type config struct {
	instrumentationName string
	tracerProvider      trace.TracerProvider
	meterProvider       metric.MeterProvider
	serviceName         string
	globalTags          map[string]string
}

// Option Tracer 配置选项。
type Option func(*config)

// WithInstrumentationName 设置 instrumentation 名称，空字符串忽略。
func WithInstrumentationName(name string) Option {
	return func(cfg *config) {
		if name != "" {
			cfg.instrumentationName = name
		}
	}
}

// WithTracerProvider 设置 TracerProvider，nil 忽略。
func WithTracerProvider(provider trace.TracerProvider) Option {
	return func(cfg *config) {
		if provider != nil {
			cfg.tracerProvider = provider
		}
	}
}

// WithMeterProvider 设置 MeterProvider，nil 忽略。
func WithMeterProvider(provider metric.MeterProvider) Option {
	return func(cfg *config) {
		if provider != nil {
			cfg.meterProvider = provider
		}
	}
}

// WithServiceName 为每个 span 附加 service.name 属性。
func WithServiceName(name string) Option {
	return func(cfg *config) {
		cfg.serviceName = name
	}
}

// WithGlobalTags 为每个 span 附加固定属性。
func WithGlobalTags(tags map[string]string) Option {
	return func(cfg *config) {
		if len(tags) == 0 {
			return
		}
		if cfg.globalTags == nil {
			cfg.globalTags = make(map[string]string, len(tags))
		}
		for k, v := range tags {
			cfg.globalTags[k] = v
		}
	}
}

// Tracer 基于 OTel 的 xcorrelate.Tracer 实现，并发安全。
type Tracer struct {
	tracer   trace.Tracer
	total    metric.Int64Counter
	duration metric.Float64Histogram
	attrs    []attribute.KeyValue
}

var _ xcorrelate.Tracer = (*Tracer)(nil)

// NewTracer 创建 Tracer。
func NewTracer(opts ...Option) (*Tracer, error) {
	cfg := &config{
		instrumentationName: defaultInstrumentationName,
		tracerProvider:      otel.GetTracerProvider(),
		meterProvider:       otel.GetMeterProvider(),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	meter := cfg.meterProvider.Meter(cfg.instrumentationName)
	total, err := meter.Int64Counter(
		metricSpanTotal,
		metric.WithDescription("finished spans"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("xotel: create counter failed: %w", err)
	}
	duration, err := meter.Float64Histogram(
		metricSpanDuration,
		metric.WithDescription("span duration"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("xotel: create histogram failed: %w", err)
	}

	return &Tracer{
		tracer:   cfg.tracerProvider.Tracer(cfg.instrumentationName),
		total:    total,
		duration: duration,
		attrs:    baseAttrs(cfg),
	}, nil
}

func baseAttrs(cfg *config) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, len(cfg.globalTags)+1)
	if cfg.serviceName != "" {
		attrs = append(attrs, attribute.String("service.name", cfg.serviceName))
	}
	keys := make([]string, 0, len(cfg.globalTags))
	for k := range cfg.globalTags {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		attrs = append(attrs, attribute.String(k, cfg.globalTags[k]))
	}
	return attrs
}

// Trace 开始一个 span，返回携带该 span 的 context。
func (t *Tracer) Trace(ctx context.Context, name string, spanType xcorrelate.SpanType) (context.Context, xcorrelate.Span) {
	if ctx == nil {
		ctx = context.Background()
	}
	attrs := make([]attribute.KeyValue, 0, len(t.attrs)+1)
	attrs = append(attrs, attribute.String("span.type", string(spanType)))
	attrs = append(attrs, t.attrs...)

	ctx, s := t.tracer.Start(ctx, name,
		trace.WithSpanKind(mapSpanKind(spanType)),
		trace.WithAttributes(attrs...),
	)
	return ctx, &span{
		span:     s,
		tracer:   t,
		ctx:      ctx,
		name:     name,
		spanType: spanType,
		start:    time.Now(),
	}
}

type span struct {
	span     trace.Span
	tracer   *Tracer
	ctx      context.Context
	name     string
	spanType xcorrelate.SpanType
	start    time.Time

	mu       sync.Mutex
	errored  bool
	finished atomic.Bool
}

// SetTag 将标签转换为 OTel 属性。span 结束后调用无效果。
func (s *span) SetTag(key string, value any) {
	if key == "" || value == nil || s.finished.Load() {
		return
	}
	s.span.SetAttributes(toKeyValue(key, value))
}

// SetError 记录错误并将状态设为 Error，nil 忽略。
func (s *span) SetError(err error) {
	if err == nil || s.finished.Load() {
		return
	}
	s.mu.Lock()
	s.errored = true
	s.mu.Unlock()
	s.span.RecordError(err)
	s.span.SetStatus(codes.Error, err.Error())
}

// Finish 结束 span 并记录指标，只生效一次。
func (s *span) Finish() {
	if !s.finished.CompareAndSwap(false, true) {
		return
	}
	s.mu.Lock()
	status := statusOK
	if s.errored {
		status = statusError
	}
	s.mu.Unlock()

	s.span.End()

	// 请求 context 取消后仍需记录指标
	ctx := context.WithoutCancel(s.ctx)
	attrs := metric.WithAttributes(
		attribute.String("span.name", s.name),
		attribute.String("span.type", string(s.spanType)),
		attribute.String("status", status),
	)
	s.tracer.total.Add(ctx, 1, attrs)
	s.tracer.duration.Record(ctx, time.Since(s.start).Seconds(), attrs)
}

// Finished 报告 span 是否已结束。
func (s *span) Finished() bool {
	return s.finished.Load()
}

// SpanContext 返回 span 的 OTel SpanContext，用于跨进程传播。
func SpanContext(sp xcorrelate.Span) (trace.SpanContext, bool) {
	s, ok := sp.(*span)
	if !ok {
		return trace.SpanContext{}, false
	}
	return s.span.SpanContext(), true
}

func mapSpanKind(t xcorrelate.SpanType) trace.SpanKind {
	switch t {
	case xcorrelate.SpanTypeHTTP:
		return trace.SpanKindClient
	case xcorrelate.SpanTypeWeb:
		return trace.SpanKindServer
	default:
		return trace.SpanKindInternal
	}
}

func toKeyValue(key string, value any) attribute.KeyValue {
	switch v := value.(type) {
	case string:
		return attribute.String(key, v)
	case bool:
		return attribute.Bool(key, v)
	case int:
		return attribute.Int(key, v)
	case int32:
		return attribute.Int64(key, int64(v))
	case int64:
		return attribute.Int64(key, v)
	case uint64:
		if v <= math.MaxInt64 {
			return attribute.Int64(key, int64(v))
		}
		return attribute.String(key, fmt.Sprint(v))
	case float64:
		return attribute.Float64(key, v)
	case float32:
		return attribute.Float64(key, float64(v))
	case time.Duration:
		return attribute.Int64(key, v.Nanoseconds())
	case []string:
		return attribute.StringSlice(key, v)
	case fmt.Stringer:
		return attribute.String(key, v.String())
	default:
		return attribute.String(key, fmt.Sprint(v))
	}
}

// =============================================================================
// 全局 Tracer
// =============================================================================

var (
	defaultMu     sync.Mutex
	defaultTracer atomic.Pointer[Tracer]
)

// Default 返回全局 Tracer，首次调用时基于 otel 全局 Provider 创建，
// 并附加 XCONTRIB_TAGS / XCONTRIB_ENV 中的全局标签。
func Default() (*Tracer, error) {
	if t := defaultTracer.Load(); t != nil {
		return t, nil
	}
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if t := defaultTracer.Load(); t != nil {
		return t, nil
	}
	t, err := NewTracer(WithGlobalTags(xsettings.GlobalTags()))
	if err != nil {
		return nil, err
	}
	defaultTracer.Store(t)
	return t, nil
}

// SetDefault 替换全局 Tracer，nil 表示下次 Default 时重新创建。
func SetDefault(t *Tracer) {
	defaultTracer.Store(t)
}

// Resolve 是 xcorrelate.TracerFunc 形式的 Default。
func Resolve() (xcorrelate.Tracer, error) {
	t, err := Default()
	if err != nil {
		return nil, err
	}
	return t, nil
}
