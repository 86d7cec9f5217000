package xintegration

import (
	"context"
	"errors"
	"fmt"

	"github.com/omeyang/xcontrib/pkg/config/xconf"
	"github.com/omeyang/xcontrib/pkg/contrib/xresolver"
	"github.com/omeyang/xcontrib/pkg/contrib/xsettings"
	"github.com/omeyang/xcontrib/pkg/observability/xlog"
)

// plan 一个集成待应用的配置，全部校验通过后才修改解析器。
type plan struct {
	d       *Descriptor
	enabled bool
	base    xsettings.Settings
	entries []xresolver.Entry
}

// ApplyConfig 将 cfg 的 integrations 段应用到 reg 中已登记的集成。
//
// 配置文件中的 overrides 优先于代码注册的规则；配置中不再出现的集成恢复为默认配置和代码规则。
// 未登记的集成被忽略。某个集成的配置无效时，该集成保持原状，错误汇总返回。
func ApplyConfig(reg *Registry, cfg xconf.Config) error {
	if reg == nil || cfg == nil {
		return nil
	}

	configured := make(map[string]bool)
	var plans []plan
	var errs []error
	for _, name := range cfg.IntegrationNames() {
		d, err := reg.Get(name)
		if err != nil {
			reg.debug(context.Background(), "integration: config for unknown integration ignored", xlog.Integration(name))
			continue
		}
		configured[name] = true
		p, err := buildPlan(d, cfg)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		plans = append(plans, p)
	}

	reg.update(func(next *state) {
		for _, p := range plans {
			name := p.d.Name()
			baseline, ok := next.baselines[name]
			if !ok {
				baseline = p.d.Resolver().Entries()
				next.baselines[name] = baseline
			}
			entries := append(p.entries, baseline...)
			// 条目已在 buildPlan 中校验
			_ = p.d.Resolver().Reset(p.base, entries)
			if p.enabled {
				delete(next.disabled, name)
			} else {
				next.disabled[name] = true
			}
		}
		for name, baseline := range next.baselines {
			if configured[name] {
				continue
			}
			if d, ok := next.descriptors[name]; ok {
				_ = d.Resolver().Reset(d.DefaultSettings(), baseline)
			}
			delete(next.baselines, name)
			delete(next.disabled, name)
		}
	})
	return errors.Join(errs...)
}

func buildPlan(d *Descriptor, cfg xconf.Config) (plan, error) {
	name := d.Name()
	ic, _, err := cfg.Integration(name)
	if err != nil {
		return plan{}, err
	}
	p := plan{d: d, enabled: ic.IsEnabled(), base: d.DefaultSettings()}

	schema := d.Schema()
	if schema == nil {
		if len(ic.Settings) > 0 || len(ic.Overrides) > 0 {
			return plan{}, fmt.Errorf("%w: %s", ErrNoSchema, name)
		}
		return p, nil
	}

	if len(ic.Settings) > 0 {
		s, err := schema.Override(ic.Settings)
		if err != nil {
			return plan{}, fmt.Errorf("integration %s: settings: %w", name, err)
		}
		p.base = xsettings.Merge(p.base, s)
	}

	for i, o := range ic.Overrides {
		m, err := matcherFor(o)
		if err != nil {
			return plan{}, fmt.Errorf("integration %s: overrides[%d]: %w", name, i, err)
		}
		s, err := schema.Override(o.Settings)
		if err != nil {
			return plan{}, fmt.Errorf("integration %s: overrides[%d]: %w", name, i, err)
		}
		p.entries = append(p.entries, xresolver.Entry{Matcher: m, Settings: s})
	}
	return p, nil
}

func matcherFor(o xconf.OverrideConfig) (xresolver.Matcher, error) {
	switch {
	case o.Exact != "":
		return xresolver.Exact(o.Exact), nil
	case o.Regexp != "":
		return xresolver.Regexp(o.Regexp)
	case o.Glob != "":
		return xresolver.Glob(o.Glob)
	default:
		return nil, xconf.ErrInvalidOverride
	}
}

// WatchConfig 应用 cfg 后监视配置文件，变更时重新应用。返回已启动的监视器，调用方负责 Stop。
//
// 初次应用失败时仍会开始监视，错误一并返回。重载或应用失败只记录 Warn 日志。
func WatchConfig(reg *Registry, cfg xconf.Config, opts ...xconf.WatchOption) (*xconf.Watcher, error) {
	applyErr := ApplyConfig(reg, cfg)

	w, err := xconf.Watch(cfg, func(c xconf.Config, err error) {
		ctx := context.Background()
		if err != nil {
			reg.warn(ctx, "integration: config reload failed", xlog.Err(err))
			return
		}
		if err := ApplyConfig(reg, c); err != nil {
			reg.warn(ctx, "integration: config apply failed", xlog.Err(err))
			return
		}
		reg.debug(ctx, "integration: config applied")
	}, opts...)
	if err != nil {
		return nil, errors.Join(applyErr, err)
	}
	w.StartAsync()
	return w, applyErr
}
