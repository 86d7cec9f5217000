// Package xotel 基于 OpenTelemetry 实现 xcorrelate.Tracer。
//
// 每个 span 结束时除导出 trace 外，还记录两个指标：
//
//   - xcontrib.span.total：span 计数（counter）
//   - xcontrib.span.duration：span 耗时，单位秒（histogram）
//
// 指标属性为 span.name、span.type、status（ok 或 error）。
//
// span 类别到 OTel SpanKind 的映射：http 为 Client，web 为 Server，其余为 Internal。
//
// 未显式传入 Provider 时使用 otel 全局 Provider，因此应用只需照常配置 OTel SDK。
package xotel
