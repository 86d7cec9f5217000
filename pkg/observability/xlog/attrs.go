package xlog

import (
	"fmt"
	"log/slog"
)

// 常用属性 Key 常量
const (
	KeyError       = "error"
	KeyPanic       = "panic"
	KeyComponent   = "component"
	KeyIntegration = "integration"
	KeyEvent       = "event"
	KeySpan        = "span"
	KeyTarget      = "target"
	KeyVersion     = "version"
	KeyCorrelation = "correlation_id"
)

// Err 创建错误属性，nil 返回空属性（slog 会忽略）
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}

// Panic 创建 recover 值属性
func Panic(r any) slog.Attr {
	return slog.String(KeyPanic, fmt.Sprint(r))
}

// Component 创建组件名属性
func Component(name string) slog.Attr {
	return slog.String(KeyComponent, name)
}

// Integration 创建集成名属性
func Integration(name string) slog.Attr {
	return slog.String(KeyIntegration, name)
}

// Event 创建事件名属性
func Event(name string) slog.Attr {
	return slog.String(KeyEvent, name)
}

// Span 创建 span 名属性
func Span(name string) slog.Attr {
	return slog.String(KeySpan, name)
}

// Target 创建插桩目标属性
func Target(name string) slog.Attr {
	return slog.String(KeyTarget, name)
}

// Version 创建版本属性
func Version(v string) slog.Attr {
	return slog.String(KeyVersion, v)
}

// CorrelationID 创建关联上下文 ID 属性
func CorrelationID(id string) slog.Attr {
	return slog.String(KeyCorrelation, id)
}
