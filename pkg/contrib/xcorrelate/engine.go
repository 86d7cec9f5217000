package xcorrelate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/omeyang/xcontrib/pkg/observability/xlog"
)

// Engine 将 start/finish 事件转换为 span。Engine 不持有按操作的可变状态，可被并发使用。
type Engine struct {
	tracer TracerFunc
	logger xlog.Logger
}

// Option Engine 配置选项。
type Option func(*Engine)

// WithTracer 使用固定的 tracer。
func WithTracer(t Tracer) Option {
	return func(e *Engine) {
		if t == nil {
			return
		}
		e.tracer = func() (Tracer, error) { return t, nil }
	}
}

// WithTracerFunc 每次 start 时通过 fn 解析 tracer。
func WithTracerFunc(fn TracerFunc) Option {
	return func(e *Engine) {
		if fn != nil {
			e.tracer = fn
		}
	}
}

// WithLogger 设置记录被吞掉错误的 logger，默认使用 xlog 全局 logger。
func WithLogger(l xlog.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// New 创建 Engine。未配置 tracer 时所有 start 均以 ErrTracerUnavailable 失败（并被记录）。
func New(opts ...Option) *Engine {
	e := &Engine{
		tracer: func() (Tracer, error) { return nil, ErrTracerUnavailable },
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Instrument 为每个 Lifecycle 在 bus 上订阅成对的处理函数，返回取消全部订阅的函数。
// 任一 Lifecycle 无效时不订阅任何事件。
func (e *Engine) Instrument(bus Bus, lifecycles ...Lifecycle) (func(), error) {
	if bus == nil {
		return nil, ErrNilBus
	}
	for _, lc := range lifecycles {
		if err := lc.Validate(); err != nil {
			return nil, err
		}
	}

	unsubs := make([]func(), 0, 2*len(lifecycles))
	for _, lc := range lifecycles {
		unsubs = append(unsubs,
			bus.Subscribe(lc.StartEvent, func(ev Event) { e.Start(ev, lc) }),
			bus.Subscribe(lc.FinishEvent, func(ev Event) { e.Finish(ev, lc) }),
		)
	}
	return func() {
		for _, u := range unsubs {
			if u != nil {
				u()
			}
		}
	}, nil
}

// Start 处理 start 事件：创建 span 并存放在关联上下文的 lc.SpanKey 下。
// 任何失败或 panic 都被记录并吞掉，此时 span 视为未开始。
func (e *Engine) Start(ev Event, lc Lifecycle) {
	defer e.recoverBoundary(ev, lc)

	if err := e.start(ev, lc); err != nil {
		e.debug(ev, lc, "correlate: start failed", xlog.Err(err))
	}
}

func (e *Engine) start(ev Event, lc Lifecycle) error {
	c, err := ContextFrom(ev.Payload)
	if err != nil {
		return err
	}
	// finished 是终态；key 已被占用（含非 span 值）时不再开新 span
	if c.has(lc.SpanKey) {
		return fmt.Errorf("%w: %s", ErrSpanExists, lc.SpanKey)
	}

	tracer, err := e.tracer()
	if err != nil {
		if errors.Is(err, ErrTracerUnavailable) {
			return err
		}
		return fmt.Errorf("%w: %w", ErrTracerUnavailable, err)
	}
	if tracer == nil {
		return ErrTracerUnavailable
	}

	child, span := tracer.Trace(c.Parent(), lc.SpanName, lc.SpanType)
	if span == nil {
		return ErrNilSpan
	}
	if err := c.startSpan(lc.SpanKey, span, child); err != nil {
		// 并发 start 竞争失败时结束多余的 span
		span.Finish()
		return err
	}
	return nil
}

// Finish 处理 finish 事件：附加标签与错误后结束 span。
// span 缺失或已结束时直接返回。
func (e *Engine) Finish(ev Event, lc Lifecycle) {
	defer e.recoverBoundary(ev, lc)

	c, err := ContextFrom(ev.Payload)
	if err != nil {
		e.debug(ev, lc, "correlate: finish failed", xlog.Err(err))
		return
	}
	span, ok := c.Span(lc.SpanKey)
	if !ok || span.Finished() {
		return
	}
	finish(c, span, lc)
}

// finish 在附加标签后总是结束 span，附加过程中的 panic 在 span 结束后继续向上传播。
func finish(c *Context, span Span, lc Lifecycle) {
	defer span.Finish()

	for _, b := range lc.Tags {
		if v, ok := c.Get(b.Key); ok && v != nil {
			span.SetTag(b.Tag, v)
		}
	}
	if lc.ErrorKey != "" {
		if err := c.Err(lc.ErrorKey); err != nil {
			span.SetError(err)
		}
	}
}

func (e *Engine) recoverBoundary(ev Event, lc Lifecycle) {
	if r := recover(); r != nil {
		e.debug(ev, lc, "correlate: handler panicked", xlog.Panic(r))
	}
}

func (e *Engine) debug(ev Event, lc Lifecycle, msg string, extra ...slog.Attr) {
	attrs := make([]slog.Attr, 0, len(extra)+3)
	attrs = append(attrs, xlog.Event(ev.Name), xlog.Span(lc.SpanName))
	if c, err := ContextFrom(ev.Payload); err == nil {
		attrs = append(attrs, xlog.CorrelationID(c.ID()))
	}
	attrs = append(attrs, extra...)

	// 日志本身的失败不能影响宿主
	defer func() { _ = recover() }()
	if e.logger != nil {
		e.logger.Debug(context.Background(), msg, attrs...)
		return
	}
	xlog.Debug(context.Background(), msg, attrs...)
}
