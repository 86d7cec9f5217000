package xresolver

import (
	"fmt"
	"regexp"

	"github.com/gobwas/glob"
)

// Tier 匹配器所属的优先级层。
type Tier int

const (
	// TierExact 精确匹配层，先于模式层检查。
	TierExact Tier = iota
	// TierPattern 模式匹配层。
	TierPattern
)

// String 返回层名称。
func (t Tier) String() string {
	if t == TierExact {
		return "exact"
	}
	return "pattern"
}

// Matcher 判断查找键是否命中。实现必须并发安全且无副作用。
type Matcher interface {
	Match(key string) bool
	Tier() Tier
	String() string
}

type exactMatcher struct {
	value string
}

// Exact 创建精确匹配器。
func Exact(value string) Matcher {
	return exactMatcher{value: value}
}

func (m exactMatcher) Match(key string) bool { return key == m.value }
func (exactMatcher) Tier() Tier              { return TierExact }
func (m exactMatcher) String() string        { return "exact:" + m.value }

type regexpMatcher struct {
	re *regexp.Regexp
}

// Regexp 创建正则匹配器。正则不自动加锚点：查找键中任意位置命中即可。
// 空表达式匹配所有键。
func Regexp(expr string) (Matcher, error) {
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %w", ErrInvalidPattern, expr, err)
	}
	return regexpMatcher{re: re}, nil
}

// MustRegexp 与 Regexp 相同，但失败时 panic。
func MustRegexp(expr string) Matcher {
	m, err := Regexp(expr)
	if err != nil {
		panic(err)
	}
	return m
}

func (m regexpMatcher) Match(key string) bool { return m.re.MatchString(key) }
func (regexpMatcher) Tier() Tier              { return TierPattern }
func (m regexpMatcher) String() string        { return "regexp:" + m.re.String() }

type globMatcher struct {
	pattern string
	g       glob.Glob
}

// Glob 创建 glob 匹配器（github.com/gobwas/glob 语法）。
// separators 为空时 "*" 可跨越任意字符。
func Glob(pattern string, separators ...rune) (Matcher, error) {
	g, err := glob.Compile(pattern, separators...)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %w", ErrInvalidPattern, pattern, err)
	}
	return globMatcher{pattern: pattern, g: g}, nil
}

func (m globMatcher) Match(key string) bool { return m.g.Match(key) }
func (globMatcher) Tier() Tier              { return TierPattern }
func (m globMatcher) String() string        { return "glob:" + m.pattern }

type funcMatcher struct {
	name string
	fn   func(string) bool
}

// Func 用任意谓词创建模式层匹配器，fn 为 nil 时从不命中。
func Func(name string, fn func(key string) bool) Matcher {
	return funcMatcher{name: name, fn: fn}
}

func (m funcMatcher) Match(key string) bool { return m.fn != nil && m.fn(key) }
func (funcMatcher) Tier() Tier              { return TierPattern }
func (m funcMatcher) String() string        { return "func:" + m.name }

// Any 返回兜底匹配器，命中所有键。
func Any() Matcher {
	return Func("any", func(string) bool { return true })
}
