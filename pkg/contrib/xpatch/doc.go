// Package xpatch 以"恰好一次"的语义对目标库的全局钩子做修改。
//
// Patcher 持有一组有序的 [Modification]。[Patcher.Patch] 依次执行各修改的 Apply：
//
//   - 全部成功后 Patcher 标记为已打补丁，之后的调用（包括并发调用）直接返回 nil，
//     不会再执行任何 Apply
//   - 任一 Apply 返回错误或 panic 时，Patcher 保持未打补丁状态并返回 [*Error]；
//     本次已执行且提供了 Revert 的修改按逆序回滚，没有 Revert 的修改被记为已完成，
//     后续重试会跳过它们
//
// 因此任何单个修改最多被应用一次（回滚后除外）。
//
// xpatch 不记录日志，只返回带类型的错误；日志在激活边界（xintegration）输出。
package xpatch
