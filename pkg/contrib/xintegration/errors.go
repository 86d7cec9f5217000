package xintegration

import "errors"

var (
	// ErrEmptyName 表示集成名为空。
	ErrEmptyName = errors.New("xintegration: empty name")

	// ErrEmptyTarget 表示未指定插桩目标。
	ErrEmptyTarget = errors.New("xintegration: empty target")

	// ErrNilPatcher 表示未提供补丁器。
	ErrNilPatcher = errors.New("xintegration: nil patcher")

	// ErrNilDescriptor 表示登记了 nil Descriptor。
	ErrNilDescriptor = errors.New("xintegration: nil descriptor")

	// ErrNotFound 表示集成未登记。
	ErrNotFound = errors.New("xintegration: integration not found")

	// ErrIncompatible 表示插桩目标缺失或版本过低。
	ErrIncompatible = errors.New("xintegration: integration incompatible")

	// ErrDisabled 表示集成被配置禁用。
	ErrDisabled = errors.New("xintegration: integration disabled")

	// ErrNoSchema 表示集成没有配置 Schema，无法应用配置文件中的 settings。
	ErrNoSchema = errors.New("xintegration: integration has no settings schema")
)
