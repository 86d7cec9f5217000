package xversion

import (
	"fmt"
)

// Gate 根据最低版本要求判定集成能否启用。
type Gate struct {
	// Target 插桩目标（模块路径或 TargetStd）。
	Target string
	// Minimum 最低版本要求，为空表示只要求已加载且有版本。
	Minimum string
}

// Check 返回不兼容的原因，兼容时返回 nil。
//
// 判定顺序：已加载 → 版本存在 → 版本 >= Minimum。
func (g Gate) Check(p Probe) error {
	if p == nil {
		return ErrNilProbe
	}
	if !p.Loaded(g.Target) {
		return fmt.Errorf("%w: %s", ErrNotLoaded, g.Target)
	}
	v, ok := p.Version(g.Target)
	if !ok || v == nil {
		return fmt.Errorf("%w: %s", ErrVersionUnknown, g.Target)
	}
	if g.Minimum == "" {
		return nil
	}
	minimum, err := ParseVersion(g.Minimum)
	if err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidMinimum, g.Minimum)
	}
	if v.LessThan(minimum) {
		return fmt.Errorf("%w: %s %s < %s", ErrVersionTooOld, g.Target, v.Original(), minimum.Original())
	}
	return nil
}

// Compatible 报告集成是否可以启用。
func (g Gate) Compatible(p Probe) bool {
	return g.Check(p) == nil
}
