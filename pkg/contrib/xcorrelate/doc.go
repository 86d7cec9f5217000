// Package xcorrelate 将事件总线上成对的 start/finish 事件关联为 span。
//
// # 关联上下文
//
// 每次被插桩的操作由宿主创建一个新的 [Context]，放在事件载荷的 [PayloadKeyContext] 下，
// 并保证同一操作的 start 与 finish 事件携带同一个 Context。Engine 自身不保存任何按操作的状态：
// span 按 [Lifecycle.SpanKey] 存放在 Context 中，因此并发或嵌套的操作互不干扰。
//
// 同一 Lifecycle 的两个嵌套调用（如局部模板中再渲染局部模板）必须各自使用独立的 Context；
// Engine 不维护栈。嵌套 span 的父子关系通过 [Context.Parent] 和 [Context.Child] 传递。
//
// # 状态机
//
// 对每个 (Context, Lifecycle)：
//
//	absent --start 成功--> open --finish--> finished
//	absent --start 失败--> absent
//
// finished 是终态。finish 在 span 缺失或已结束时直接返回，重复投递的 finish 事件因此无副作用。
//
// # 错误处理
//
// [Engine.Start] 与 [Engine.Finish] 是插桩边界：内部错误（载荷缺少 Context、tracer 不可用、
// 打标签失败）以及 panic 均被捕获并以 Debug 级别记录，绝不传播到被插桩组件的调用栈。
// finish 中标签与错误的附加在一个作用域内完成，无论该作用域如何退出，span 都会被结束。
package xcorrelate
