package xresolver

import "errors"

// 匹配器与 Resolver 相关错误。
var (
	// ErrNilMatcher 表示注册了 nil 匹配器。
	ErrNilMatcher = errors.New("xresolver: nil matcher")

	// ErrInvalidPattern 表示正则或 glob 模式无法编译。
	ErrInvalidPattern = errors.New("xresolver: invalid pattern")

	// ErrSchemaMismatch 表示覆盖配置与基础配置不属于同一 Schema。
	ErrSchemaMismatch = errors.New("xresolver: settings schema mismatch")
)
