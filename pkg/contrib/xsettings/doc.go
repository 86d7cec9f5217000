// Package xsettings 定义集成的配置项：枚举式 Schema + 类型化取值。
//
// # Schema
//
// 每个集成用 [NewSchema] 声明自己支持的全部配置项（名称、类型、默认值、可选的环境变量）。
// 配置项集合是封闭的：不在 Schema 中的 key 会被拒绝（[ErrUnknownOption]），
// 值类型不匹配时返回 [ErrTypeMismatch]。校验在构造时完成，取值路径不再做检查。
//
//	schema := xsettings.MustSchema(
//		xsettings.Option{Name: "service_name", Kind: xsettings.KindString, Default: "http-client"},
//		xsettings.Option{Name: "sample_rate", Kind: xsettings.KindFloat, Default: 1.0},
//	)
//	defaults := schema.Defaults()
//	override, err := schema.Override(map[string]any{"sample_rate": 0.5})
//	effective := xsettings.Merge(defaults, override) // sample_rate=0.5, service_name=http-client
//
// # Settings
//
// [Settings] 是不可变值：所有修改操作（[Settings.With]、[Merge]）都返回新值，
// 可以在 goroutine 之间自由共享。Settings 记录哪些项是显式设置的（[Settings.IsSet]），
// [Merge] 只用覆盖方显式设置的项覆盖基础值，其余保持不变。
//
// # 配置来源
//
//   - [Schema.Override]: map 形式的覆盖值，支持字符串形式的宽松输入（"true"、"0.5"、"10s"、"a,b"）
//   - [Schema.FromEnv]: 读取 Option.Env 指定的环境变量
//   - [Schema.FromKoanf]: 读取 koanf 配置树中的一个段
//
// 进程级环境信息：[EnvironmentName] 读取 XCONTRIB_ENV，[GlobalTags] 解析 XCONTRIB_TAGS。
package xsettings
