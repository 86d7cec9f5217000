// Package xversion 提供插桩目标的版本探测与兼容性判定。
//
// # 版本探测
//
// [Probe] 回答两个问题：
//   - Version(target)：目标的版本号，未安装或无版本信息时返回 false
//   - Loaded(target)：目标是否参与了当前进程（已链接进二进制）
//
// Go 进程的"已安装包注册表"是 runtime/debug.BuildInfo。[BuildInfoProbe] 以模块路径为 target，
// 特殊 target [TargetStd] 表示标准库，其版本为构建所用的 Go 工具链版本。
// 二进制的模块集合在进程生命周期内不变，因此解析结果会被缓存。
//
// # 兼容性判定
//
// [Gate] 组合探测结果：仅当 Loaded 为 true、版本存在、且版本 >= Minimum 时兼容。
// 版本缺失视为不兼容，不会静默放行。[Gate.Check] 返回具体原因：
// [ErrNotLoaded]、[ErrVersionUnknown]、[ErrVersionTooOld]、[ErrInvalidMinimum]。
//
//	gate := xversion.Gate{Target: "github.com/redis/go-redis/v9", Minimum: "9.0"}
//	if err := gate.Check(xversion.Default()); err != nil {
//		// 集成保持禁用
//	}
//
// 版本号解析基于 github.com/Masterminds/semver/v3，接受 "0.61"、"v1.2"、"go1.22.3" 等宽松写法。
package xversion
