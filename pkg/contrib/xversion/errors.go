package xversion

import "errors"

// 兼容性判定相关错误。
var (
	// ErrNilProbe 表示未提供版本探测器。
	ErrNilProbe = errors.New("xversion: nil probe")

	// ErrNotLoaded 表示目标未加载到当前进程。
	ErrNotLoaded = errors.New("xversion: target not loaded")

	// ErrVersionUnknown 表示无法获取目标版本。
	ErrVersionUnknown = errors.New("xversion: target version unknown")

	// ErrVersionTooOld 表示目标版本低于最低要求。
	ErrVersionTooOld = errors.New("xversion: target version below minimum")

	// ErrInvalidMinimum 表示最低版本要求无法解析。
	ErrInvalidMinimum = errors.New("xversion: invalid minimum version")

	// ErrInvalidVersion 表示版本字符串无法解析。
	ErrInvalidVersion = errors.New("xversion: invalid version")
)
