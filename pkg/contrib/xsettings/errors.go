package xsettings

import "errors"

// Schema 构造与取值校验错误。
var (
	// ErrEmptyName 表示配置项名称为空。
	ErrEmptyName = errors.New("xsettings: empty option name")

	// ErrDuplicateOption 表示 Schema 中出现重复的配置项。
	ErrDuplicateOption = errors.New("xsettings: duplicate option")

	// ErrInvalidKind 表示配置项类型无效。
	ErrInvalidKind = errors.New("xsettings: invalid option kind")

	// ErrUnknownOption 表示配置项不在 Schema 中。
	ErrUnknownOption = errors.New("xsettings: unknown option")

	// ErrTypeMismatch 表示配置值与配置项类型不匹配。
	ErrTypeMismatch = errors.New("xsettings: value type mismatch")

	// ErrNilSchema 表示在零值 Settings 上执行需要 Schema 的操作。
	ErrNilSchema = errors.New("xsettings: nil schema")
)
