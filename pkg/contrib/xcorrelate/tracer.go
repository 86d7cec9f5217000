package xcorrelate

import (
	"context"
	"time"
)

//go:generate mockgen -source=tracer.go -destination=mock_tracer_test.go -package=xcorrelate

// SpanType span 的类别，由 tracer 映射到具体后端的 span 种类。
type SpanType string

// 内置 span 类别。
const (
	SpanTypeHTTP     SpanType = "http"
	SpanTypeTemplate SpanType = "template"
	SpanTypeWeb      SpanType = "web"
	SpanTypeCustom   SpanType = "custom"
)

// Span 一次被追踪操作的计时记录，只能结束一次。
type Span interface {
	SetTag(key string, value any)
	SetError(err error)
	Finish()
	Finished() bool
}

// Tracer 创建 span。返回的 context 携带新 span，用作嵌套操作的父级。
type Tracer interface {
	Trace(ctx context.Context, name string, spanType SpanType) (context.Context, Span)
}

// TracerFunc 惰性解析当前生效的 tracer。
type TracerFunc func() (Tracer, error)

// Event 事件总线投递给处理函数的事件。
type Event struct {
	Name    string
	Start   time.Time
	Finish  time.Time
	ID      string
	Payload Payload
}

// Handler 事件处理函数。
type Handler func(Event)

// Bus 事件总线。Subscribe 返回取消订阅函数。
//
// 同一操作的 start 事件必须先于 finish 事件投递，且两者携带同一个关联上下文。
type Bus interface {
	Subscribe(name string, h Handler) (unsubscribe func())
}
