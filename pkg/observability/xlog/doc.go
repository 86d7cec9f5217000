// Package xlog 基于 log/slog 的结构化日志库。
//
// # 核心功能
//
//   - Builder 模式配置（输出目标、级别、格式、轮转）
//   - 动态级别调整（运行时热更新）
//   - 全局 Logger 便利函数
//   - 插桩相关的标准属性（integration / event / span）
//   - 从 context 中的 OTel span 注入 trace_id / span_id（[EnrichHandler]，可用 SetEnrich 关闭）
//
// # 创建 Logger
//
// 使用 Builder 模式（first-error-wins：遇到第一个配置错误后，Build 返回该错误）：
//
//	logger, cleanup, err := xlog.New().
//		SetLevel(xlog.LevelDebug).
//		SetFormat("json").
//		Build()
//	if err != nil {
//		return err
//	}
//	defer cleanup()
//
// # 全局 Logger
//
// 插桩代码运行在宿主的调用链中，不方便依赖注入，因此 xcontrib 内部默认使用全局 Logger：
//
//   - [Default]: 获取全局 Logger（惰性初始化：stderr，级别与格式取自 XCONTRIB_LOG_LEVEL / XCONTRIB_LOG_FORMAT）
//   - [SetDefault]: 替换全局 Logger（nil 会被忽略）
//   - [ResetDefault]: 重置为未初始化状态（仅用于测试）
//
// # 失败不扩散
//
// 日志写入失败不会返回给调用方，也不会 panic；可通过 [Builder.SetOnError] 接收内部错误。
// 这与插桩层"追踪故障永远不能变成应用故障"的约束一致。
package xlog
