package xpatch

import (
	"errors"
	"fmt"
)

var (
	// ErrPanic 表示 Apply 或 Revert 发生 panic。
	ErrPanic = errors.New("xpatch: modification panicked")

	// ErrNilApply 表示修改缺少 Apply 函数。
	ErrNilApply = errors.New("xpatch: nil apply func")
)

// Error 描述一次失败的打补丁尝试。
type Error struct {
	// Patcher Patcher 名称（通常是集成名）。
	Patcher string
	// Modification 失败的修改名称。
	Modification string
	// Err 原始错误。
	Err error
	// RevertErr 回滚过程中的错误（可能为 nil）。
	RevertErr error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("xpatch: %s: modification %q failed: %v", e.Patcher, e.Modification, e.Err)
	if e.RevertErr != nil {
		msg += fmt.Sprintf(" (revert: %v)", e.RevertErr)
	}
	return msg
}

func (e *Error) Unwrap() []error {
	if e.RevertErr == nil {
		return []error{e.Err}
	}
	return []error{e.Err, e.RevertErr}
}
