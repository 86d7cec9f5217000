// Package xconf 加载 xcontrib 的配置文件，基于 koanf 实现。
//
// # 职责
//
// xconf 只负责文件/字节数据的加载、反序列化和热重载，以及解析 integrations 段：
//
//	integrations:
//	  http:
//	    enabled: true
//	    settings: {service_name: api-client}
//	    overrides:
//	      - exact: api.internal
//	        settings: {service_name: internal}
//	      - regexp: '.*\.example\.com'
//	        settings: {distributed_tracing: false}
//	      - glob: '*.svc.cluster.local'
//	        settings: {service_name: mesh}
//
// 配置项的类型校验由各集成的 xsettings.Schema 负责，xconf 只保证结构正确。
//
// # 支持的格式
//
//   - YAML：.yaml, .yml
//   - JSON：.json
//
// # 并发安全
//
// Reload() 通过互斥锁串行化，解析成功后以 atomic.Pointer 原子替换 koanf 实例；
// Client() 无锁返回当前实例。Client() 返回的指针在 Reload() 后仍可用，但指向旧配置，
// 因此每次需要时调用 Client()，不要长期缓存。
//
// # 配置监视
//
// [Watch] 基于 fsnotify 监视配置文件所在目录，内置防抖，支持编辑器的原子写入（rename）。
// 从字节数据创建的 Config 不支持监视。
package xconf
