// Package xhttp 为 net/http 客户端与服务端请求生成 span。
//
// 包初始化时在 xintegration 默认登记表中登记名为 "http" 的集成。激活后
// http.DefaultTransport 被替换为 [Transport]，所有经由默认 Transport 的请求
// 都会生成名为 "http.request" 的 span。非默认 Transport 使用 [Wrap] 显式包装：
//
//	client := &http.Client{Transport: xhttp.Wrap(myTransport)}
//
// 服务端使用 [Middleware]，为每个入站请求生成 "http.server.request" span，
// 并从请求头提取上游 trace 上下文：
//
//	mux.Handle("/", xhttp.Middleware()(handler))
//
// # 配置
//
// 配置按请求 host 解析（见 xresolver），可用配置项见 [Schema]：
//
//   - service_name：span 的 service.name，环境变量 XCONTRIB_HTTP_SERVICE_NAME
//   - distributed_tracing：是否注入 W3C traceparent 请求头
//   - split_by_domain：以请求 host 作为 service.name
//   - analytics_enabled / analytics_sample_rate：附加 analytics.sample_rate 标签
//   - error_status_codes：视为错误的状态码，"500-599" 或 "404" 形式
//
// # 失败处理
//
// 插桩自身的任何失败（tracer 不可用、panic）都被记录为 Debug 日志并吞掉，
// 请求总是照常发出或处理，span 总是被结束。
package xhttp
