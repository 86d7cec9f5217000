package xtemplate

import "errors"

var (
	// ErrNilTemplate 表示 New 传入了 nil 模板。
	ErrNilTemplate = errors.New("xtemplate: nil template")

	// ErrYieldOutsideLayout 表示在布局之外调用了 yield。
	ErrYieldOutsideLayout = errors.New("xtemplate: yield called outside a layout")
)
