// Package xnotify 提供同步的进程内事件总线，实现 xcorrelate.Bus。
//
// 订阅者按订阅顺序在发布者的 goroutine 中同步执行，因此必须快速返回。
// 单个订阅者 panic 会被捕获并记录，不影响其它订阅者和发布者。
//
// [Notifier.Instrument] 用 "start_<base>" / "finish_<base>" 事件包裹一次操作：
// 即使操作返回错误或 panic，finish 事件也一定会发布，panic 在 finish 之后重新抛出。
package xnotify
