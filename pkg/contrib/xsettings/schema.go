package xsettings

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Kind 配置项的值类型。
type Kind int

const (
	// KindBool 布尔值。
	KindBool Kind = iota + 1
	// KindInt 整数（int）。
	KindInt
	// KindFloat 浮点数（float64）。
	KindFloat
	// KindString 字符串。
	KindString
	// KindStringList 字符串列表。
	KindStringList
	// KindDuration 时间间隔。
	KindDuration
)

// String 返回 Kind 的可读名称。
func (k Kind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindStringList:
		return "[]string"
	case KindDuration:
		return "duration"
	default:
		return "Kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Option 描述一个配置项。
type Option struct {
	// Name 配置项名称，在 Schema 内唯一。
	Name string
	// Kind 值类型。
	Kind Kind
	// Default 默认值，nil 表示该类型的零值。
	Default any
	// Env 可选的环境变量名，用于 Schema.FromEnv。
	Env string
	// Description 说明，供 CLI 展示。
	Description string
}

// Schema 有序、封闭的配置项集合。构造后只读。
type Schema struct {
	options  []Option
	index    map[string]int
	defaults map[string]any
}

// NewSchema 创建 Schema，校验名称唯一、类型有效、默认值与类型匹配。
func NewSchema(opts ...Option) (*Schema, error) {
	s := &Schema{
		options:  make([]Option, 0, len(opts)),
		index:    make(map[string]int, len(opts)),
		defaults: make(map[string]any, len(opts)),
	}
	for _, opt := range opts {
		name := strings.TrimSpace(opt.Name)
		if name == "" {
			return nil, ErrEmptyName
		}
		if _, dup := s.index[name]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateOption, name)
		}
		if opt.Kind < KindBool || opt.Kind > KindDuration {
			return nil, fmt.Errorf("%w: %s: %s", ErrInvalidKind, name, opt.Kind)
		}
		def, err := coerce(opt.Kind, opt.Default)
		if err != nil {
			return nil, fmt.Errorf("xsettings: default of %s: %w", name, err)
		}
		opt.Name = name
		s.index[name] = len(s.options)
		s.options = append(s.options, opt)
		s.defaults[name] = def
	}
	return s, nil
}

// MustSchema 与 NewSchema 相同，但失败时 panic。
// 仅用于包级变量初始化等 Schema 为常量的场景。
func MustSchema(opts ...Option) *Schema {
	s, err := NewSchema(opts...)
	if err != nil {
		panic(err)
	}
	return s
}

// Options 返回全部配置项的副本（声明顺序）。
func (s *Schema) Options() []Option {
	out := make([]Option, len(s.options))
	copy(out, s.options)
	return out
}

// Lookup 按名称查找配置项。
func (s *Schema) Lookup(name string) (Option, bool) {
	i, ok := s.index[name]
	if !ok {
		return Option{}, false
	}
	return s.options[i], true
}

// Defaults 返回全部取默认值、且没有显式设置项的 Settings。
func (s *Schema) Defaults() Settings {
	return Settings{schema: s, values: s.defaults}
}

// Override 用 values 构造覆盖配置：只有 values 中出现的项被标记为显式设置。
func (s *Schema) Override(values map[string]any) (Settings, error) {
	out := s.Defaults()
	if len(values) == 0 {
		return out, nil
	}
	next := out.cloneMaps(len(values))
	for name, raw := range values {
		opt, ok := s.Lookup(name)
		if !ok {
			return Settings{}, fmt.Errorf("%w: %s", ErrUnknownOption, name)
		}
		v, err := coerce(opt.Kind, raw)
		if err != nil {
			return Settings{}, fmt.Errorf("xsettings: %s: %w", name, err)
		}
		next.values[name] = v
		next.set[name] = true
	}
	return next, nil
}

// FromEnv 读取各配置项 Env 指定的环境变量，返回只包含已设置变量的覆盖配置。
//
// bool 类型仅当值（忽略大小写）为 "true" 时为 true；float 无法解析时为 0；
// 列表按逗号切分并去除空白。其它类型无法解析的变量被跳过，错误汇总返回。
func (s *Schema) FromEnv(lookup func(string) (string, bool)) (Settings, error) {
	if lookup == nil {
		return s.Defaults(), nil
	}
	values := make(map[string]any)
	var errs []error
	for _, opt := range s.options {
		if opt.Env == "" {
			continue
		}
		raw, ok := lookup(opt.Env)
		if !ok {
			continue
		}
		switch opt.Kind {
		case KindBool:
			values[opt.Name] = strings.ToLower(strings.TrimSpace(raw)) == "true"
		case KindFloat:
			values[opt.Name] = leadingFloat(raw)
		case KindStringList:
			values[opt.Name] = splitList(raw)
		default:
			v, err := coerce(opt.Kind, raw)
			if err != nil {
				errs = append(errs, fmt.Errorf("xsettings: env %s: %w", opt.Env, err))
				continue
			}
			values[opt.Name] = v
		}
	}
	out, err := s.Override(values)
	if err != nil {
		return s.Defaults(), err
	}
	return out, errors.Join(errs...)
}

// coerce 将原始值转换为 kind 对应的规范类型。nil 返回零值。
func coerce(kind Kind, raw any) (any, error) {
	switch kind {
	case KindBool:
		return toBool(raw)
	case KindInt:
		return toInt(raw)
	case KindFloat:
		return toFloat(raw)
	case KindString:
		return toString(raw)
	case KindStringList:
		return toList(raw)
	case KindDuration:
		return toDuration(raw)
	default:
		return nil, fmt.Errorf("%w: %s", ErrInvalidKind, kind)
	}
}

func mismatch(kind Kind, raw any) error {
	return fmt.Errorf("%w: want %s, got %T", ErrTypeMismatch, kind, raw)
}

func toBool(raw any) (any, error) {
	switch v := raw.(type) {
	case nil:
		return false, nil
	case bool:
		return v, nil
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return nil, mismatch(KindBool, raw)
		}
		return b, nil
	default:
		return nil, mismatch(KindBool, raw)
	}
}

func toInt(raw any) (any, error) {
	switch v := raw.(type) {
	case nil:
		return 0, nil
	case int:
		return v, nil
	case int32:
		return int(v), nil
	case int64:
		return int(v), nil
	case float64:
		if v != float64(int(v)) {
			return nil, mismatch(KindInt, raw)
		}
		return int(v), nil
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return nil, mismatch(KindInt, raw)
		}
		return n, nil
	default:
		return nil, mismatch(KindInt, raw)
	}
}

func toFloat(raw any) (any, error) {
	switch v := raw.(type) {
	case nil:
		return 0.0, nil
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return nil, mismatch(KindFloat, raw)
		}
		return f, nil
	default:
		return nil, mismatch(KindFloat, raw)
	}
}

func toString(raw any) (any, error) {
	switch v := raw.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	case bool, int, int64, float64:
		return fmt.Sprint(v), nil
	default:
		return nil, mismatch(KindString, raw)
	}
}

func toList(raw any) (any, error) {
	switch v := raw.(type) {
	case nil:
		return []string(nil), nil
	case []string:
		out := make([]string, len(v))
		copy(out, v)
		return out, nil
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, err := toString(item)
			if err != nil {
				return nil, mismatch(KindStringList, raw)
			}
			out = append(out, s.(string))
		}
		return out, nil
	case string:
		return splitList(v), nil
	default:
		return nil, mismatch(KindStringList, raw)
	}
}

func toDuration(raw any) (any, error) {
	switch v := raw.(type) {
	case nil:
		return time.Duration(0), nil
	case time.Duration:
		return v, nil
	case string:
		d, err := time.ParseDuration(strings.TrimSpace(v))
		if err != nil {
			return nil, mismatch(KindDuration, raw)
		}
		return d, nil
	default:
		return nil, mismatch(KindDuration, raw)
	}
}

// splitList 按逗号切分，去除空白与空项。
// floatPrefix 匹配字符串开头的十进制浮点数。
var floatPrefix = regexp.MustCompile(`^[+-]?(?:\d+(?:\.\d*)?|\.\d+)(?:[eE][+-]?\d+)?`)

// leadingFloat 解析开头的数字部分，忽略其后的内容；没有数字时返回 0。
func leadingFloat(s string) float64 {
	m := floatPrefix.FindString(strings.TrimSpace(s))
	if m == "" {
		return 0
	}
	f, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0
	}
	return f
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
