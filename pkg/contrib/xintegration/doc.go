// Package xintegration 描述、登记并激活各个插桩集成。
//
// # Descriptor
//
// [Descriptor] 是一个集成的不可变描述：名称、插桩目标与最低版本、默认配置、
// 配置解析器（xresolver）和补丁器（xpatch）。默认配置由 Schema 默认值与
// Schema 中声明的环境变量合成。
//
// # Registry
//
// [Registry] 按名称登记 Descriptor，重复登记时后者覆盖前者。读操作无锁（写时复制）。
// [Registry.Activate] 依次执行：查找、检查是否被配置禁用、兼容性判定、打补丁；
// 同名的并发激活通过 singleflight 合并。补丁本身是幂等的，重复激活无副作用。
//
// [Registry.Enable] 是 Activate 的边界形式：不兼容记 Debug 日志，补丁失败记 Warn 日志，
// 永远不向宿主返回错误。
//
// # 配置文件
//
// [ApplyConfig] 将 xconf 中 integrations.<name> 段应用到已登记的集成：
// settings 成为解析器的基础配置，overrides 成为优先于代码注册规则的解析条目，
// enabled: false 使 Enable 跳过该集成。[WatchConfig] 在文件变更后重新应用。
//
// 内置集成（xhttp、xtemplate）在 init() 中登记到 [Default] 全局 Registry。
package xintegration
