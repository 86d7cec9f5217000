package xintegration

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"github.com/omeyang/xcontrib/pkg/contrib/xresolver"
	"github.com/omeyang/xcontrib/pkg/observability/xlog"
)

type state struct {
	descriptors map[string]*Descriptor
	disabled    map[string]bool
	// baselines 首次应用配置前各解析器中由代码注册的规则
	baselines map[string][]xresolver.Entry
}

// Registry 集成登记表，并发安全。零值不可用，使用 [NewRegistry] 创建。
type Registry struct {
	mu     sync.Mutex
	state  atomic.Pointer[state]
	group  singleflight.Group
	logger xlog.Logger
}

// RegistryOption Registry 配置选项。
type RegistryOption func(*Registry)

// WithLogger 设置 logger，默认使用 xlog 全局 logger。
func WithLogger(l xlog.Logger) RegistryOption {
	return func(r *Registry) {
		r.logger = l
	}
}

// NewRegistry 创建空的 Registry。
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{}
	r.state.Store(&state{
		descriptors: map[string]*Descriptor{},
		disabled:    map[string]bool{},
		baselines:   map[string][]xresolver.Entry{},
	})
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// update 在锁内基于当前状态的副本修改并发布。
func (r *Registry) update(fn func(next *state)) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur := r.state.Load()
	next := &state{
		descriptors: make(map[string]*Descriptor, len(cur.descriptors)+1),
		disabled:    make(map[string]bool, len(cur.disabled)),
		baselines:   make(map[string][]xresolver.Entry, len(cur.baselines)),
	}
	for k, v := range cur.descriptors {
		next.descriptors[k] = v
	}
	for k, v := range cur.disabled {
		next.disabled[k] = v
	}
	for k, v := range cur.baselines {
		next.baselines[k] = v
	}
	fn(next)
	r.state.Store(next)
}

// Register 登记 Descriptor，同名时覆盖。
func (r *Registry) Register(d *Descriptor) error {
	if d == nil {
		return ErrNilDescriptor
	}
	var replaced bool
	r.update(func(next *state) {
		_, replaced = next.descriptors[d.Name()]
		next.descriptors[d.Name()] = d
		delete(next.baselines, d.Name())
	})
	if replaced {
		r.debug(context.Background(), "integration: registration replaced", xlog.Integration(d.Name()))
	}
	return nil
}

// MustRegister 与 Register 相同，但失败时 panic。
func (r *Registry) MustRegister(d *Descriptor) {
	if err := r.Register(d); err != nil {
		panic(err)
	}
}

// Get 按名称返回 Descriptor。
func (r *Registry) Get(name string) (*Descriptor, error) {
	d, ok := r.state.Load().descriptors[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return d, nil
}

// All 返回全部 Descriptor（按名称排序）。
func (r *Registry) All() []*Descriptor {
	descs := r.state.Load().descriptors
	out := make([]*Descriptor, 0, len(descs))
	for _, d := range descs {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}

// Each 按名称顺序遍历全部 Descriptor。
func (r *Registry) Each(fn func(*Descriptor)) {
	for _, d := range r.All() {
		fn(d)
	}
}

// Names 返回全部集成名（已排序）。
func (r *Registry) Names() []string {
	all := r.All()
	names := make([]string, len(all))
	for i, d := range all {
		names[i] = d.Name()
	}
	return names
}

// SetEnabled 设置集成是否允许激活。已打的补丁不会撤销。
func (r *Registry) SetEnabled(name string, enabled bool) {
	r.update(func(next *state) {
		if enabled {
			delete(next.disabled, name)
		} else {
			next.disabled[name] = true
		}
	})
}

// IsEnabled 报告集成是否允许激活。
func (r *Registry) IsEnabled(name string) bool {
	return !r.state.Load().disabled[name]
}

// Activate 激活集成：兼容性判定通过后打补丁。已打补丁时直接返回 nil。
func (r *Registry) Activate(ctx context.Context, name string) error {
	d, err := r.Get(name)
	if err != nil {
		return err
	}
	if !r.IsEnabled(name) {
		return fmt.Errorf("%w: %s", ErrDisabled, name)
	}
	if d.Patcher().Applied() {
		return nil
	}
	if err := d.CheckCompatible(); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrIncompatible, name, err)
	}
	_, err, _ = r.group.Do(name, func() (any, error) {
		return nil, d.Patcher().Patch(ctx)
	})
	return err
}

// Enable 激活集成并报告是否成功。错误只记录日志，不返回。
func (r *Registry) Enable(ctx context.Context, name string) bool {
	err := r.Activate(ctx, name)
	switch {
	case err == nil:
		return true
	case errors.Is(err, ErrIncompatible), errors.Is(err, ErrDisabled), errors.Is(err, ErrNotFound):
		r.debug(ctx, "integration: not enabled", xlog.Integration(name), xlog.Err(err))
	default:
		r.warn(ctx, "integration: patch failed", xlog.Integration(name), xlog.Err(err))
	}
	return false
}

// EnableAll 尝试激活全部集成，返回成功激活的名称。
func (r *Registry) EnableAll(ctx context.Context) []string {
	var enabled []string
	for _, name := range r.Names() {
		if r.Enable(ctx, name) {
			enabled = append(enabled, name)
		}
	}
	return enabled
}

// Status 集成的当前状态，供 CLI 与诊断使用。
type Status struct {
	Name       string
	Target     string
	Minimum    string
	Version    string
	Loaded     bool
	Compatible bool
	Reason     string
	Enabled    bool
	Patched    bool
}

// Status 返回集成状态。
func (r *Registry) Status(name string) (Status, error) {
	d, err := r.Get(name)
	if err != nil {
		return Status{}, err
	}
	s := Status{
		Name:    d.Name(),
		Target:  d.Target(),
		Minimum: d.MinimumVersion(),
		Loaded:  d.Loaded(),
		Enabled: r.IsEnabled(name),
		Patched: d.Patcher().Applied(),
	}
	if v, ok := d.Version(); ok && v != nil {
		s.Version = v.Original()
	}
	if err := d.CheckCompatible(); err != nil {
		s.Reason = err.Error()
	} else {
		s.Compatible = true
	}
	return s, nil
}

func (r *Registry) debug(ctx context.Context, msg string, attrs ...slog.Attr) {
	if r.logger != nil {
		r.logger.Debug(ctx, msg, attrs...)
		return
	}
	xlog.Debug(ctx, msg, attrs...)
}

func (r *Registry) warn(ctx context.Context, msg string, attrs ...slog.Attr) {
	if r.logger != nil {
		r.logger.Warn(ctx, msg, attrs...)
		return
	}
	xlog.Warn(ctx, msg, attrs...)
}
