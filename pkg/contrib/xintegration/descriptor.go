package xintegration

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/omeyang/xcontrib/pkg/contrib/xpatch"
	"github.com/omeyang/xcontrib/pkg/contrib/xresolver"
	"github.com/omeyang/xcontrib/pkg/contrib/xsettings"
	"github.com/omeyang/xcontrib/pkg/contrib/xversion"
	"github.com/omeyang/xcontrib/pkg/observability/xlog"
)

// lookupEnv 是 os.LookupEnv 的包级变量，测试中可替换。
var lookupEnv = os.LookupEnv

// Descriptor 一个集成的不可变描述。使用 [New] 创建。
type Descriptor struct {
	name        string
	description string
	gate        xversion.Gate
	probe       xversion.Probe
	compat      func(xversion.Probe) error

	schema   *xsettings.Schema
	defaults xsettings.Settings
	resolver *xresolver.Resolver
	patcher  *xpatch.Patcher
}

// Option Descriptor 构造选项。
type Option func(*Descriptor)

// WithTarget 设置插桩目标（模块路径或 xversion.TargetStd）与最低版本。
func WithTarget(target, minimum string) Option {
	return func(d *Descriptor) {
		d.gate = xversion.Gate{Target: strings.TrimSpace(target), Minimum: strings.TrimSpace(minimum)}
	}
}

// WithProbe 设置版本探测器，默认 xversion.Default()。
func WithProbe(p xversion.Probe) Option {
	return func(d *Descriptor) {
		if p != nil {
			d.probe = p
		}
	}
}

// WithCompatibility 追加自定义兼容性判定，在版本判定通过后执行。
func WithCompatibility(fn func(xversion.Probe) error) Option {
	return func(d *Descriptor) {
		d.compat = fn
	}
}

// WithSchema 设置配置 Schema。默认配置为 Schema 默认值叠加其声明的环境变量。
func WithSchema(s *xsettings.Schema) Option {
	return func(d *Descriptor) {
		d.schema = s
	}
}

// WithPatcher 设置补丁器，必填。
func WithPatcher(p *xpatch.Patcher) Option {
	return func(d *Descriptor) {
		d.patcher = p
	}
}

// WithDescription 设置说明，供 CLI 展示。
func WithDescription(desc string) Option {
	return func(d *Descriptor) {
		d.description = desc
	}
}

// New 创建 Descriptor。
func New(name string, opts ...Option) (*Descriptor, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}
	d := &Descriptor{name: name}
	for _, opt := range opts {
		opt(d)
	}
	if d.gate.Target == "" {
		return nil, fmt.Errorf("%w: %s", ErrEmptyTarget, name)
	}
	if d.patcher == nil {
		return nil, fmt.Errorf("%w: %s", ErrNilPatcher, name)
	}
	if d.probe == nil {
		d.probe = xversion.Default()
	}
	if d.schema != nil {
		d.defaults = d.schema.Defaults()
		env, err := d.schema.FromEnv(lookupEnv)
		if err != nil {
			// 无法解析的环境变量被跳过，不阻止集成登记
			xlog.Warn(context.Background(), "integration: ignoring invalid env settings",
				xlog.Integration(name), xlog.Err(err))
		}
		d.defaults = xsettings.Merge(d.defaults, env)
	}
	d.resolver = xresolver.New(d.defaults)
	return d, nil
}

// MustNew 与 New 相同，但失败时 panic。用于 init() 中登记内置集成。
func MustNew(name string, opts ...Option) *Descriptor {
	d, err := New(name, opts...)
	if err != nil {
		panic(err)
	}
	return d
}

// Name 返回集成名。
func (d *Descriptor) Name() string { return d.name }

// Description 返回说明。
func (d *Descriptor) Description() string { return d.description }

// Target 返回插桩目标。
func (d *Descriptor) Target() string { return d.gate.Target }

// MinimumVersion 返回最低版本要求。
func (d *Descriptor) MinimumVersion() string { return d.gate.Minimum }

// Version 返回插桩目标的版本。
func (d *Descriptor) Version() (*semver.Version, bool) {
	return d.probe.Version(d.gate.Target)
}

// Loaded 报告插桩目标是否已链接进当前程序。
func (d *Descriptor) Loaded() bool {
	return d.probe.Loaded(d.gate.Target)
}

// CheckCompatible 返回不兼容的原因，兼容时返回 nil。
func (d *Descriptor) CheckCompatible() error {
	if err := d.gate.Check(d.probe); err != nil {
		return err
	}
	if d.compat != nil {
		return d.compat(d.probe)
	}
	return nil
}

// Compatible 报告集成能否启用。
func (d *Descriptor) Compatible() bool {
	return d.CheckCompatible() == nil
}

// Schema 返回配置 Schema，可能为 nil。
func (d *Descriptor) Schema() *xsettings.Schema { return d.schema }

// DefaultSettings 返回构造时确定的默认配置（不含配置文件的修改）。
func (d *Descriptor) DefaultSettings() xsettings.Settings { return d.defaults }

// Resolver 返回配置解析器。
func (d *Descriptor) Resolver() *xresolver.Resolver { return d.resolver }

// Patcher 返回补丁器。
func (d *Descriptor) Patcher() *xpatch.Patcher { return d.patcher }

// Settings 返回查找键 key 的生效配置。
func (d *Descriptor) Settings(key string) xsettings.Settings {
	return d.resolver.Resolve(key)
}
