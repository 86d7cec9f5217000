package xresolver

import (
	"sync"
	"sync/atomic"

	"github.com/omeyang/xcontrib/pkg/contrib/xsettings"
)

// Entry 一条匹配规则：命中 Matcher 时使用 Settings 覆盖基础配置。
type Entry struct {
	Matcher  Matcher
	Settings xsettings.Settings
}

// Match Lookup 的结果。
type Match struct {
	// Matcher 胜出的匹配器。
	Matcher Matcher
	// Index 胜出条目在所属层内的注册序号（从 0 开始）。
	Index int
	// Settings 合并后的生效配置。
	Settings xsettings.Settings
}

type table struct {
	defaults xsettings.Settings
	exact    []Entry
	pattern  []Entry
}

// Resolver 按优先级将查找键映射到配置。零值不可用，使用 [New] 创建。
type Resolver struct {
	mu    sync.Mutex
	table atomic.Pointer[table]
}

// New 创建 Resolver，defaults 为未命中时返回的基础配置。
func New(defaults xsettings.Settings) *Resolver {
	r := &Resolver{}
	r.table.Store(&table{defaults: defaults})
	return r
}

// Defaults 返回当前基础配置。
func (r *Resolver) Defaults() xsettings.Settings {
	return r.table.Load().defaults
}

// SetDefaults 替换基础配置（配置热更新时使用）。
func (r *Resolver) SetDefaults(defaults xsettings.Settings) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur := r.table.Load()
	r.table.Store(&table{defaults: defaults, exact: cur.exact, pattern: cur.pattern})
}

// Add 注册一条规则。
func (r *Resolver) Add(m Matcher, s xsettings.Settings) error {
	if m == nil {
		return ErrNilMatcher
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	cur := r.table.Load()
	if err := checkSchema(cur.defaults, s); err != nil {
		return err
	}
	next := &table{
		defaults: cur.defaults,
		exact:    cur.exact,
		pattern:  cur.pattern,
	}
	entry := Entry{Matcher: m, Settings: s}
	// 追加到副本，避免与已发布快照共享底层数组
	if m.Tier() == TierExact {
		next.exact = appendCopy(cur.exact, entry)
	} else {
		next.pattern = appendCopy(cur.pattern, entry)
	}
	r.table.Store(next)
	return nil
}

// AddExact 注册精确匹配规则。
func (r *Resolver) AddExact(value string, s xsettings.Settings) error {
	return r.Add(Exact(value), s)
}

// AddRegexp 注册正则匹配规则。
func (r *Resolver) AddRegexp(expr string, s xsettings.Settings) error {
	m, err := Regexp(expr)
	if err != nil {
		return err
	}
	return r.Add(m, s)
}

// AddGlob 注册 glob 匹配规则。
func (r *Resolver) AddGlob(pattern string, s xsettings.Settings) error {
	m, err := Glob(pattern)
	if err != nil {
		return err
	}
	return r.Add(m, s)
}

// Replace 原子替换全部规则，任一条目无效时不做任何修改。
func (r *Resolver) Replace(entries []Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	next, err := buildTable(r.table.Load().defaults, entries)
	if err != nil {
		return err
	}
	r.table.Store(next)
	return nil
}

// Reset 同时替换基础配置与全部规则，只发布一次快照。
// 条目按新的基础配置校验，任一条目无效时不做任何修改。
func (r *Resolver) Reset(defaults xsettings.Settings, entries []Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	next, err := buildTable(defaults, entries)
	if err != nil {
		return err
	}
	r.table.Store(next)
	return nil
}

func buildTable(defaults xsettings.Settings, entries []Entry) (*table, error) {
	next := &table{defaults: defaults}
	for _, e := range entries {
		if e.Matcher == nil {
			return nil, ErrNilMatcher
		}
		if err := checkSchema(defaults, e.Settings); err != nil {
			return nil, err
		}
		if e.Matcher.Tier() == TierExact {
			next.exact = append(next.exact, e)
		} else {
			next.pattern = append(next.pattern, e)
		}
	}
	return next, nil
}

// Entries 按检查顺序（精确层在前）返回全部规则。
func (r *Resolver) Entries() []Entry {
	t := r.table.Load()
	out := make([]Entry, 0, len(t.exact)+len(t.pattern))
	out = append(out, t.exact...)
	return append(out, t.pattern...)
}

// Len 返回规则数量。
func (r *Resolver) Len() int {
	t := r.table.Load()
	return len(t.exact) + len(t.pattern)
}

// Lookup 返回 key 命中的规则；未命中返回 false。
func (r *Resolver) Lookup(key string) (Match, bool) {
	t := r.table.Load()
	if m, ok := t.lookup(t.exact, key); ok {
		return m, true
	}
	return t.lookup(t.pattern, key)
}

func (t *table) lookup(entries []Entry, key string) (Match, bool) {
	for i, e := range entries {
		if e.Matcher.Match(key) {
			return Match{
				Matcher:  e.Matcher,
				Index:    i,
				Settings: xsettings.Merge(t.defaults, e.Settings),
			}, true
		}
	}
	return Match{}, false
}

// Resolve 返回 key 的生效配置；未命中时返回基础配置。
func (r *Resolver) Resolve(key string) xsettings.Settings {
	if m, ok := r.Lookup(key); ok {
		return m.Settings
	}
	return r.Defaults()
}

func checkSchema(defaults, s xsettings.Settings) error {
	if defaults.IsZero() || s.IsZero() {
		return nil
	}
	if defaults.Schema() != s.Schema() {
		return ErrSchemaMismatch
	}
	return nil
}

func appendCopy(entries []Entry, e Entry) []Entry {
	out := make([]Entry, len(entries), len(entries)+1)
	copy(out, entries)
	return append(out, e)
}
