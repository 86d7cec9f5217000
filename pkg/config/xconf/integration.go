package xconf

import (
	"fmt"
	"sort"

	"github.com/knadh/koanf/v2"
)

// IntegrationsKey 集成配置的根键。
const IntegrationsKey = "integrations"

// IntegrationConfig integrations.<name> 段。
type IntegrationConfig struct {
	// Name 集成名，由 Integration 填充。
	Name string `koanf:"-"`
	// Enabled 为 nil 表示未配置（视为启用）。
	Enabled *bool `koanf:"enabled"`
	// Settings 集成的基础配置。
	Settings map[string]any `koanf:"settings"`
	// Overrides 按查找键覆盖配置，顺序即注册顺序。
	Overrides []OverrideConfig `koanf:"overrides"`
}

// IsEnabled 报告集成是否启用，未配置 enabled 时为 true。
func (c IntegrationConfig) IsEnabled() bool {
	return c.Enabled == nil || *c.Enabled
}

// OverrideConfig 一条覆盖规则，Exact/Regexp/Glob 恰好设置其一。
type OverrideConfig struct {
	Exact    string         `koanf:"exact"`
	Regexp   string         `koanf:"regexp"`
	Glob     string         `koanf:"glob"`
	Settings map[string]any `koanf:"settings"`
}

// Validate 检查匹配方式是否恰好指定了一种。
func (o OverrideConfig) Validate() error {
	n := 0
	for _, v := range []string{o.Exact, o.Regexp, o.Glob} {
		if v != "" {
			n++
		}
	}
	if n != 1 {
		return ErrInvalidOverride
	}
	return nil
}

func (c *koanfConfig) Integration(name string) (IntegrationConfig, bool, error) {
	k := c.k.Load()
	path := IntegrationsKey + c.opts.Delim + name
	if !k.Exists(path) {
		return IntegrationConfig{}, false, nil
	}

	var out IntegrationConfig
	if err := k.UnmarshalWithConf(path, &out, koanf.UnmarshalConf{Tag: c.opts.Tag}); err != nil {
		return IntegrationConfig{}, true, fmt.Errorf("%w: %s: %w", ErrUnmarshalFailed, path, err)
	}
	out.Name = name
	for i, o := range out.Overrides {
		if err := o.Validate(); err != nil {
			return IntegrationConfig{}, true, fmt.Errorf("%s.overrides[%d]: %w", path, i, err)
		}
	}
	return out, true, nil
}

func (c *koanfConfig) IntegrationNames() []string {
	names := c.k.Load().MapKeys(IntegrationsKey)
	sort.Strings(names)
	return names
}
