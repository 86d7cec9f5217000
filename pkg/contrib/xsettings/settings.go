package xsettings

import (
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/v2"
)

// Settings 绑定到 Schema 的不可变配置值。
//
// 零值 Settings 不含任何配置项，所有取值返回零值。
type Settings struct {
	schema *Schema
	values map[string]any
	set    map[string]bool
}

// Schema 返回 Settings 所属的 Schema，零值 Settings 返回 nil。
func (s Settings) Schema() *Schema {
	return s.schema
}

// IsZero 报告是否为零值 Settings。
func (s Settings) IsZero() bool {
	return s.schema == nil
}

// Get 返回配置项的值。
func (s Settings) Get(name string) (any, bool) {
	v, ok := s.values[name]
	if !ok {
		return nil, false
	}
	if list, isList := v.([]string); isList {
		return cloneList(list), true
	}
	return v, true
}

// IsSet 报告配置项是否被显式设置（而非取默认值）。
func (s Settings) IsSet(name string) bool {
	return s.set[name]
}

// Bool 返回布尔配置项，不存在或类型不符时返回 false。
func (s Settings) Bool(name string) bool {
	v, _ := s.values[name].(bool)
	return v
}

// Int 返回整数配置项。
func (s Settings) Int(name string) int {
	v, _ := s.values[name].(int)
	return v
}

// Float 返回浮点配置项。
func (s Settings) Float(name string) float64 {
	v, _ := s.values[name].(float64)
	return v
}

// String 返回字符串配置项。
func (s Settings) String(name string) string {
	v, _ := s.values[name].(string)
	return v
}

// Strings 返回字符串列表配置项的副本。
func (s Settings) Strings(name string) []string {
	v, _ := s.values[name].([]string)
	return cloneList(v)
}

// Duration 返回时间间隔配置项。
func (s Settings) Duration(name string) time.Duration {
	v, _ := s.values[name].(time.Duration)
	return v
}

// Keys 返回全部配置项名称（Schema 声明顺序）。
func (s Settings) Keys() []string {
	if s.schema == nil {
		return nil
	}
	keys := make([]string, 0, len(s.schema.options))
	for _, opt := range s.schema.options {
		keys = append(keys, opt.Name)
	}
	return keys
}

// Map 返回全部配置值的副本。
func (s Settings) Map() map[string]any {
	out := make(map[string]any, len(s.values))
	for k := range s.values {
		out[k], _ = s.Get(k)
	}
	return out
}

// With 返回将 name 设为 value 后的新 Settings。
func (s Settings) With(name string, value any) (Settings, error) {
	if s.schema == nil {
		return Settings{}, ErrNilSchema
	}
	opt, ok := s.schema.Lookup(name)
	if !ok {
		return Settings{}, fmt.Errorf("%w: %s", ErrUnknownOption, name)
	}
	v, err := coerce(opt.Kind, value)
	if err != nil {
		return Settings{}, fmt.Errorf("xsettings: %s: %w", name, err)
	}
	next := s.cloneMaps(1)
	next.values[name] = v
	next.set[name] = true
	return next, nil
}

// Describe 输出 "k=v k2=v2"（Schema 声明顺序），列表以逗号连接。
func (s Settings) Describe() string {
	var b strings.Builder
	for i, k := range s.Keys() {
		if i > 0 {
			b.WriteByte(' ')
		}
		v, _ := s.Get(k)
		if list, ok := v.([]string); ok {
			v = strings.Join(list, ",")
		}
		fmt.Fprintf(&b, "%s=%v", k, v)
	}
	return b.String()
}

func (s Settings) cloneMaps(extra int) Settings {
	next := Settings{
		schema: s.schema,
		values: make(map[string]any, len(s.values)+extra),
		set:    make(map[string]bool, len(s.set)+extra),
	}
	for k, v := range s.values {
		next.values[k] = v
	}
	for k, v := range s.set {
		next.set[k] = v
	}
	return next
}

// Merge 逐项合并：override 中显式设置的项覆盖 base，其余保留 base 的值。
//
// override 中不属于 base Schema 的项被忽略。base 为零值时返回 override。
func Merge(base, override Settings) Settings {
	if base.IsZero() {
		return override
	}
	if override.IsZero() || len(override.set) == 0 {
		return base
	}
	next := base.cloneMaps(len(override.set))
	for name := range override.set {
		opt, ok := base.schema.Lookup(name)
		if !ok {
			continue
		}
		v, err := coerce(opt.Kind, override.values[name])
		if err != nil {
			continue
		}
		next.values[name] = v
		next.set[name] = true
	}
	return next
}

// FromKoanf 读取 k 中 path 段的配置作为覆盖配置。path 不存在时返回默认值。
func (s *Schema) FromKoanf(k *koanf.Koanf, path string) (Settings, error) {
	if k == nil || !k.Exists(path) {
		return s.Defaults(), nil
	}
	raw, ok := k.Get(path).(map[string]any)
	if !ok {
		return Settings{}, fmt.Errorf("%w: section %s is not a map", ErrTypeMismatch, path)
	}
	return s.Override(raw)
}

func cloneList(list []string) []string {
	if list == nil {
		return nil
	}
	out := make([]string, len(list))
	copy(out, list)
	return out
}
