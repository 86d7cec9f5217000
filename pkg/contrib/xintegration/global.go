package xintegration

import "context"

var defaultRegistry = NewRegistry()

// Default 返回全局 Registry。
func Default() *Registry {
	return defaultRegistry
}

// Register 登记到全局 Registry。
func Register(d *Descriptor) error {
	return defaultRegistry.Register(d)
}

// MustRegister 登记到全局 Registry，失败时 panic。
func MustRegister(d *Descriptor) {
	defaultRegistry.MustRegister(d)
}

// Get 从全局 Registry 查找。
func Get(name string) (*Descriptor, error) {
	return defaultRegistry.Get(name)
}

// Each 遍历全局 Registry。
func Each(fn func(*Descriptor)) {
	defaultRegistry.Each(fn)
}

// Enable 在全局 Registry 中激活集成。
func Enable(ctx context.Context, name string) bool {
	return defaultRegistry.Enable(ctx, name)
}

// EnableAll 激活全局 Registry 中的全部集成。
func EnableAll(ctx context.Context) []string {
	return defaultRegistry.EnableAll(ctx)
}
