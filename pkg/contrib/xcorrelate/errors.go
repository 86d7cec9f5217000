package xcorrelate

import "errors"

var (
	// ErrNoContext 表示事件载荷中没有关联上下文。
	ErrNoContext = errors.New("xcorrelate: payload has no correlation context")

	// ErrBadContext 表示载荷中关联上下文的类型错误。
	ErrBadContext = errors.New("xcorrelate: correlation context has wrong type")

	// ErrTracerUnavailable 表示当前没有可用的 tracer。
	ErrTracerUnavailable = errors.New("xcorrelate: tracer unavailable")

	// ErrNilSpan 表示 tracer 返回了 nil span。
	ErrNilSpan = errors.New("xcorrelate: tracer returned nil span")

	// ErrSpanExists 表示同一 Context 的同一 key 下已有 span。
	ErrSpanExists = errors.New("xcorrelate: span already started for key")

	// ErrInvalidLifecycle 表示 Lifecycle 缺少必填字段。
	ErrInvalidLifecycle = errors.New("xcorrelate: invalid lifecycle")

	// ErrNilBus 表示 Instrument 收到 nil 事件总线。
	ErrNilBus = errors.New("xcorrelate: nil bus")
)
