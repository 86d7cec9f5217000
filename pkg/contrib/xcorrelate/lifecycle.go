package xcorrelate

import "fmt"

// TagBinding 将关联上下文中 Key 的值作为 span 标签 Tag 附加。
type TagBinding struct {
	Tag string
	Key string
}

// Lifecycle 描述一类被插桩的操作（如"渲染模板"）。
type Lifecycle struct {
	// Name 生命周期名称，如 "render_template"。
	Name string
	// StartEvent / FinishEvent 订阅的事件名。
	StartEvent  string
	FinishEvent string
	// SpanName span 名称。
	SpanName string
	// SpanType span 类别。
	SpanType SpanType
	// SpanKey span 在关联上下文中的存放键，不同生命周期必须不同。
	SpanKey string
	// Tags finish 时附加的标签。
	Tags []TagBinding
	// ErrorKey 关联上下文中捕获错误的键，为空表示不检查错误。
	ErrorKey string
}

// NewLifecycle 按 "start_<name>.<component>" / "finish_<name>.<component>" 约定生成事件名，
// span 存放键为 "<component>.<name>.span"。
func NewLifecycle(component, name, spanName string, spanType SpanType, tags ...TagBinding) Lifecycle {
	return Lifecycle{
		Name:        name,
		StartEvent:  "start_" + name + "." + component,
		FinishEvent: "finish_" + name + "." + component,
		SpanName:    spanName,
		SpanType:    spanType,
		SpanKey:     component + "." + name + ".span",
		Tags:        tags,
	}
}

// Validate 检查必填字段。
func (lc Lifecycle) Validate() error {
	switch {
	case lc.StartEvent == "" || lc.FinishEvent == "":
		return fmt.Errorf("%w: %q: missing event name", ErrInvalidLifecycle, lc.Name)
	case lc.StartEvent == lc.FinishEvent:
		return fmt.Errorf("%w: %q: start and finish events are equal", ErrInvalidLifecycle, lc.Name)
	case lc.SpanName == "":
		return fmt.Errorf("%w: %q: missing span name", ErrInvalidLifecycle, lc.Name)
	case lc.SpanKey == "":
		return fmt.Errorf("%w: %q: missing span key", ErrInvalidLifecycle, lc.Name)
	}
	return nil
}
