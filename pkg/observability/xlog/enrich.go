package xlog

import (
	"context"
	"errors"
	"log/slog"

	"go.opentelemetry.io/otel/trace"
)

// ErrNilHandler 当 NewEnrichHandler 的 base handler 为 nil 时返回
var ErrNilHandler = errors.New("xlog: base handler is nil")

// 注入的追踪字段名。
const (
	KeyTraceID    = "trace_id"
	KeySpanID     = "span_id"
	KeyTraceFlags = "trace_flags"
)

// EnrichHandler 从 context 中的 span 提取追踪信息并注入日志。
//
// 装饰模式实现，包装底层 slog.Handler。context 中没有有效 span 时原样输出。
// 调用 WithGroup 后注入的字段会被归入 group 下。
type EnrichHandler struct {
	base slog.Handler
}

// NewEnrichHandler 创建 EnrichHandler
func NewEnrichHandler(base slog.Handler) (*EnrichHandler, error) {
	if base == nil {
		return nil, ErrNilHandler
	}
	return &EnrichHandler{base: base}, nil
}

// Enabled 委托给底层 handler
func (h *EnrichHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.base.Enabled(ctx, level)
}

// Handle 在调用底层 handler 前注入 trace_id、span_id 与 trace_flags。
//
// 根据 slog 契约，修改前先 Clone record。
func (h *EnrichHandler) Handle(ctx context.Context, r slog.Record) error {
	if ctx == nil {
		return h.base.Handle(ctx, r)
	}
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return h.base.Handle(ctx, r)
	}
	r = r.Clone()
	r.AddAttrs(
		slog.String(KeyTraceID, sc.TraceID().String()),
		slog.String(KeySpanID, sc.SpanID().String()),
		slog.String(KeyTraceFlags, sc.TraceFlags().String()),
	)
	return h.base.Handle(ctx, r)
}

// WithAttrs 返回带额外属性的新 handler
func (h *EnrichHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &EnrichHandler{base: h.base.WithAttrs(attrs)}
}

// WithGroup 返回带分组的新 handler
func (h *EnrichHandler) WithGroup(name string) slog.Handler {
	return &EnrichHandler{base: h.base.WithGroup(name)}
}
