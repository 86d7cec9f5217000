// Package observability 提供可观测性相关的子包。
//
// 子包列表：
//   - xlog: 结构化日志，基于 log/slog 扩展，支持 lumberjack 文件轮转
//   - xotel: 基于 OpenTelemetry 的 span 后端，实现 xcorrelate.Tracer
//
// 设计原则：
//   - 遵循 OpenTelemetry 语义规范
//   - 自动从 context 中提取追踪信息注入日志
package observability
