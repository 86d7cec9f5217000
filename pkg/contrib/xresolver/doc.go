// Package xresolver 将查找键（如请求 host、服务名）解析为集成的生效配置。
//
// # 优先级
//
// Resolver 维护两层匹配器：
//
//  1. 精确层（[Exact]）：按注册顺序检查，第一个命中者胜出
//  2. 模式层（[Regexp]、[Glob]、[Func]、[Any]）：按注册顺序检查，第一个命中者胜出
//
// 精确层总是先于模式层，与注册先后无关。两层均未命中时返回基础配置（默认值），不做任何修改。
// 命中时返回 xsettings.Merge(基础配置, 覆盖配置)：覆盖配置只替换它显式设置的项。
//
// 同一层内多个模式同时命中时，以注册顺序为准。[Resolver.Lookup] 返回胜出的匹配器及其序号，
// 方便调用方在测试中固定这一行为。空正则或 [Any] 是兜底匹配器，按惯例最后注册，Resolver 不强制。
//
// # 并发
//
// 读路径（Resolve/Lookup）无锁：条目表以写时复制方式整体替换（atomic.Pointer）。
// 写路径（Add/Replace/SetDefaults/Reset）由互斥锁串行化，通常只在启动和配置热更新时发生。
package xresolver
