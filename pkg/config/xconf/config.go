package xconf

import "github.com/knadh/koanf/v2"

// Format 配置文件格式。
type Format string

// 支持的配置格式。
const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// Config 配置接口。基础读取请直接使用 Client() 返回的 koanf 实例。
type Config interface {
	// Client 返回当前的 koanf 实例。
	Client() *koanf.Koanf

	// Unmarshal 将 path 段反序列化到 target，path 为空时反序列化整个配置。
	Unmarshal(path string, target any) error

	// Integration 返回 integrations.<name> 段；不存在时 ok 为 false。
	Integration(name string) (cfg IntegrationConfig, ok bool, err error)

	// IntegrationNames 返回 integrations 下配置的全部集成名（已排序）。
	IntegrationNames() []string

	// Reload 重新加载配置文件，并发安全。从字节数据创建的 Config 返回 ErrNotReloadable。
	Reload() error

	// Path 返回配置文件路径，从字节数据创建时为空。
	Path() string

	// Format 返回配置格式。
	Format() Format
}

// MustUnmarshal 与 cfg.Unmarshal 相同，但失败时 panic。用于启动时的必要配置。
func MustUnmarshal(cfg Config, path string, target any) {
	if err := cfg.Unmarshal(path, target); err != nil {
		panic(err)
	}
}
