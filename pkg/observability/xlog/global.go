package xlog

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
)

// globalLogger 全局 Logger 实例（并发安全）
var globalLogger atomic.Pointer[LoggerWithLevel]

// globalMu 保护 globalOnce 及其 Do 执行（也用于 ResetDefault）
var globalMu sync.Mutex

var globalOnce sync.Once

// 默认 Logger 读取的环境变量。
const (
	EnvLevel  = "XCONTRIB_LOG_LEVEL"
	EnvFormat = "XCONTRIB_LOG_FORMAT"
)

// newBuilder 构建默认 Logger 的工厂，测试可替换
var newBuilder = envBuilder

// envBuilder 按 XCONTRIB_LOG_LEVEL、XCONTRIB_LOG_FORMAT 配置 Builder，取值无效时 Build 失败。
func envBuilder() *Builder {
	b := New()
	if v, ok := os.LookupEnv(EnvLevel); ok {
		b.SetLevelString(v)
	}
	if v, ok := os.LookupEnv(EnvFormat); ok {
		b.SetFormat(v)
	}
	return b
}

// defaultLogger 创建默认 Logger（惰性初始化）
//
// 在持锁状态下执行 once.Do，ResetDefault 重置 globalOnce 时不会与之竞争。
func defaultLogger() LoggerWithLevel {
	globalMu.Lock()
	defer globalMu.Unlock()

	globalOnce.Do(func() {
		logger, _, err := newBuilder().Build()
		if err != nil {
			fmt.Fprintf(os.Stderr, "xlog: failed to build default logger: %v, using fallback\n", err)
			var fallback LoggerWithLevel = &xlogger{
				handler:        slog.NewTextHandler(os.Stderr, nil),
				levelVar:       new(slog.LevelVar),
				errorCount:     new(atomic.Uint64),
				inErrorHandler: new(atomic.Bool),
			}
			globalLogger.Store(&fallback)
			return
		}
		globalLogger.Store(&logger)
	})
	return *globalLogger.Load()
}

// Default 返回全局默认 Logger
//
// 首次调用时创建默认 Logger：输出到 stderr，级别与格式取自 [EnvLevel]、[EnvFormat]，
// 未设置时为 Info 级别、text 格式。环境变量取值无效时退化为 stderr text Info。
func Default() LoggerWithLevel {
	if l := globalLogger.Load(); l != nil {
		return *l
	}
	return defaultLogger()
}

// SetDefault 替换全局默认 Logger，nil 被忽略。
func SetDefault(l LoggerWithLevel) {
	if l == nil {
		return
	}
	globalLogger.Store(&l)
}

// ResetDefault 重置全局 Logger 为未初始化状态（仅用于测试）
func ResetDefault() {
	globalMu.Lock()
	globalLogger.Store(nil)
	globalOnce = sync.Once{}
	globalMu.Unlock()
}

// globalLog 全局函数比实例方法少一层 log() 调用，栈帧数相同，extraSkip 为 0。
func globalLog(l LoggerWithLevel, ctx context.Context, level slog.Level, msg string, attrs []slog.Attr) {
	if xl, ok := l.(*xlogger); ok {
		xl.logWithSkip(ctx, level, msg, attrs, 0)
		return
	}
	switch level {
	case slog.LevelDebug:
		l.Debug(ctx, msg, attrs...)
	case slog.LevelInfo:
		l.Info(ctx, msg, attrs...)
	case slog.LevelWarn:
		l.Warn(ctx, msg, attrs...)
	default:
		l.Error(ctx, msg, attrs...)
	}
}

// Debug 使用全局 Logger 记录 Debug 级别日志
func Debug(ctx context.Context, msg string, attrs ...slog.Attr) {
	globalLog(Default(), ctx, slog.LevelDebug, msg, attrs)
}

// Info 使用全局 Logger 记录 Info 级别日志
func Info(ctx context.Context, msg string, attrs ...slog.Attr) {
	globalLog(Default(), ctx, slog.LevelInfo, msg, attrs)
}

// Warn 使用全局 Logger 记录 Warn 级别日志
func Warn(ctx context.Context, msg string, attrs ...slog.Attr) {
	globalLog(Default(), ctx, slog.LevelWarn, msg, attrs)
}

// Error 使用全局 Logger 记录 Error 级别日志
func Error(ctx context.Context, msg string, attrs ...slog.Attr) {
	globalLog(Default(), ctx, slog.LevelError, msg, attrs)
}
