package xversion

import (
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/Masterminds/semver/v3"
)

// TargetStd 表示 Go 标准库，其版本为构建二进制所用的工具链版本。
const TargetStd = "std"

// Probe 查询宿主进程中插桩目标的安装与加载状态。
//
// 实现必须并发安全，且结果在进程生命周期内保持稳定。
type Probe interface {
	// Version 返回目标版本；目标未安装或无版本信息时返回 (nil, false)。
	Version(target string) (*semver.Version, bool)

	// Loaded 报告目标是否已加载到当前进程。
	// 与"已安装"不同：已安装但未被使用的目标返回 false。
	Loaded(target string) bool
}

// toolchainPre 匹配工具链预发布版本，如 "1.26rc1"、"1.21.0rc2"、"1.25beta1"。
var toolchainPre = regexp.MustCompile(`^(\d+)\.(\d+)(?:\.(\d+))?(rc|beta)(\d+)$`)

// toolchainDevel 匹配开发版工具链的版本段，如 "1.26-abcdef"。
var toolchainDevel = regexp.MustCompile(`^(\d+)\.(\d+)(?:\.(\d+))?(?:-.*)?$`)

// ParseVersion 解析宽松格式的版本号。
//
// 支持 "0.61"、"v1.2.3"、"go1.22.3" 等写法，以及工具链的特殊格式：
//   - "go1.26rc1" 解析为 1.26.0-rc1，"go1.25beta1" 解析为 1.25.0-beta1
//   - "go1.25.1 X:nodwarf5" 忽略实验标记
//   - "devel go1.26-abcdef ..." 解析为 1.26.0-devel
//
// 空字符串和 "(devel)" 返回 ErrInvalidVersion。
func ParseVersion(s string) (*semver.Version, error) {
	raw := strings.TrimSpace(s)
	fields := strings.Fields(raw)
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrInvalidVersion, raw)
	}

	devel := fields[0] == "devel"
	tok := fields[0]
	if devel {
		if len(fields) < 2 {
			return nil, fmt.Errorf("%w: %q", ErrInvalidVersion, raw)
		}
		tok = fields[1]
	}
	tok = strings.TrimPrefix(tok, "go")
	if tok == "" || tok == "(devel)" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidVersion, raw)
	}
	tok = normalizeToolchain(tok, devel)

	v, err := semver.NewVersion(tok)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %w", ErrInvalidVersion, raw, err)
	}
	return v, nil
}

// normalizeToolchain 把工具链版本改写为 semver 可接受的形式，其它输入原样返回。
func normalizeToolchain(tok string, devel bool) string {
	if devel {
		m := toolchainDevel.FindStringSubmatch(tok)
		if m == nil {
			return tok
		}
		return fmt.Sprintf("%s.%s.%s-devel", m[1], m[2], orZero(m[3]))
	}
	if m := toolchainPre.FindStringSubmatch(tok); m != nil {
		return fmt.Sprintf("%s.%s.%s-%s%s", m[1], m[2], orZero(m[3]), m[4], m[5])
	}
	return tok
}

func orZero(s string) string {
	if s == "" {
		return "0"
	}
	return s
}

// StaticOption 配置 StaticProbe。
type StaticOption func(*StaticProbe)

// WithModule 声明目标已加载且版本为 version。
func WithModule(target, version string) StaticOption {
	return func(p *StaticProbe) {
		p.versions[target] = version
		p.loaded[target] = true
	}
}

// WithInstalled 声明目标已安装（有版本）但未加载。
func WithInstalled(target, version string) StaticOption {
	return func(p *StaticProbe) {
		p.versions[target] = version
	}
}

// WithLoadedOnly 声明目标已加载但没有版本信息。
func WithLoadedOnly(target string) StaticOption {
	return func(p *StaticProbe) {
		p.loaded[target] = true
	}
}

// StaticProbe 基于固定表的 Probe，构造后只读，并发安全。
//
// 适用于宿主通过其它途径得知目标版本的场景，以及测试。
type StaticProbe struct {
	versions map[string]string
	loaded   map[string]bool
}

// NewStaticProbe 创建 StaticProbe。
func NewStaticProbe(opts ...StaticOption) *StaticProbe {
	p := &StaticProbe{
		versions: make(map[string]string),
		loaded:   make(map[string]bool),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	return p
}

// Version 返回目标版本，无法解析的版本视为缺失。
func (p *StaticProbe) Version(target string) (*semver.Version, bool) {
	raw, ok := p.versions[target]
	if !ok {
		return nil, false
	}
	v, err := ParseVersion(raw)
	if err != nil {
		return nil, false
	}
	return v, true
}

// Loaded 报告目标是否已加载。
func (p *StaticProbe) Loaded(target string) bool {
	return p.loaded[target]
}

var (
	defaultProbe     Probe
	defaultProbeOnce sync.Once
)

// Default 返回基于当前二进制 BuildInfo 的进程级 Probe。
func Default() Probe {
	defaultProbeOnce.Do(func() {
		defaultProbe = NewBuildInfoProbe()
	})
	return defaultProbe
}

var (
	_ Probe = (*StaticProbe)(nil)
	_ Probe = (*BuildInfoProbe)(nil)
)
