package xpatch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
)

// Modification 对目标库的一处修改。
type Modification struct {
	// Name 修改名称，出现在错误信息中。
	Name string
	// Apply 执行修改，必填。
	Apply func() error
	// Revert 撤销修改，可选。
	Revert func() error
}

// Patcher 对一组修改提供幂等、并发安全的应用。零值不可用，使用 [New] 创建。
type Patcher struct {
	name string
	mods []Modification

	applied atomic.Bool
	mu      sync.Mutex
	// done[i] 表示 mods[i] 当前处于已应用状态
	done []bool
}

// New 创建 Patcher。mods 按给定顺序应用。
func New(name string, mods ...Modification) *Patcher {
	cp := make([]Modification, len(mods))
	copy(cp, mods)
	return &Patcher{
		name: name,
		mods: cp,
		done: make([]bool, len(cp)),
	}
}

// Name 返回 Patcher 名称。
func (p *Patcher) Name() string {
	return p.name
}

// Applied 报告是否已成功打补丁。
func (p *Patcher) Applied() bool {
	return p.applied.Load()
}

// Patch 应用全部修改。已成功时直接返回 nil。
//
// ctx 只在获取锁之后、执行修改之前检查一次；修改本身不可中断。
func (p *Patcher) Patch(ctx context.Context) error {
	if p.applied.Load() {
		return nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.applied.Load() {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	var appliedNow []int
	for i, m := range p.mods {
		if p.done[i] {
			continue
		}
		if err := run(m.Apply); err != nil {
			return &Error{
				Patcher:      p.name,
				Modification: m.Name,
				Err:          err,
				RevertErr:    p.rollback(appliedNow),
			}
		}
		p.done[i] = true
		appliedNow = append(appliedNow, i)
	}

	p.applied.Store(true)
	return nil
}

// Unpatch 逆序撤销全部提供了 Revert 的已应用修改，并将 Patcher 恢复为未打补丁状态。
// 没有 Revert 的修改保持已完成。主要用于测试。
func (p *Patcher) Unpatch() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var idx []int
	for i, ok := range p.done {
		if ok {
			idx = append(idx, i)
		}
	}
	err := p.rollback(idx)
	p.applied.Store(false)
	return err
}

// rollback 逆序撤销 idx 中提供了 Revert 的修改。调用方须持有锁。
func (p *Patcher) rollback(idx []int) error {
	var errs []error
	for j := len(idx) - 1; j >= 0; j-- {
		i := idx[j]
		m := p.mods[i]
		if m.Revert == nil {
			continue
		}
		if err := run(m.Revert); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", m.Name, err))
			continue
		}
		p.done[i] = false
	}
	return errors.Join(errs...)
}

// run 调用 fn，并将 panic 转换为错误。
func run(fn func() error) (err error) {
	if fn == nil {
		return ErrNilApply
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrPanic, r)
		}
	}()
	return fn()
}
