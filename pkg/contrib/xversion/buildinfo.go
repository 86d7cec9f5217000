package xversion

import (
	"runtime/debug"
	"sync"

	"github.com/Masterminds/semver/v3"
	lru "github.com/hashicorp/golang-lru/v2"
)

// probeCacheSize 探测结果缓存的最大条目数。
const probeCacheSize = 256

// readBuildInfo 是 debug.ReadBuildInfo 的包级变量，测试中可替换。
var readBuildInfo = debug.ReadBuildInfo

type probeResult struct {
	version *semver.Version
	ok      bool
}

// BuildInfoProbe 基于 runtime/debug.BuildInfo 的 Probe。
//
// target 为模块路径（如 "github.com/redis/go-redis/v9"）或 [TargetStd]。
// 依赖被 replace 时使用替换后的版本；本地路径替换（无版本）视为版本缺失。
// BuildInfo 只读取一次，解析结果缓存在 LRU 中。
type BuildInfoProbe struct {
	once    sync.Once
	info    *debug.BuildInfo
	modules map[string]string
	cache   *lru.Cache[string, probeResult]
}

// NewBuildInfoProbe 创建读取当前二进制 BuildInfo 的 Probe。
func NewBuildInfoProbe() *BuildInfoProbe {
	return &BuildInfoProbe{cache: newProbeCache()}
}

// NewBuildInfoProbeFrom 基于给定 BuildInfo 创建 Probe，info 为 nil 时所有查询都返回缺失。
func NewBuildInfoProbeFrom(info *debug.BuildInfo) *BuildInfoProbe {
	p := &BuildInfoProbe{cache: newProbeCache()}
	p.once.Do(func() { p.index(info) })
	return p
}

func newProbeCache() *lru.Cache[string, probeResult] {
	// 仅在 size <= 0 时返回错误
	cache, _ := lru.New[string, probeResult](probeCacheSize)
	return cache
}

func (p *BuildInfoProbe) load() {
	p.once.Do(func() {
		info, ok := readBuildInfo()
		if !ok {
			info = nil
		}
		p.index(info)
	})
}

func (p *BuildInfoProbe) index(info *debug.BuildInfo) {
	p.info = info
	p.modules = make(map[string]string)
	if info == nil {
		return
	}
	if info.Main.Path != "" {
		p.modules[info.Main.Path] = info.Main.Version
	}
	for _, dep := range info.Deps {
		if dep == nil {
			continue
		}
		version := dep.Version
		if dep.Replace != nil {
			version = dep.Replace.Version
		}
		p.modules[dep.Path] = version
	}
}

// Version 返回目标版本。
func (p *BuildInfoProbe) Version(target string) (*semver.Version, bool) {
	p.load()
	if r, ok := p.cache.Get(target); ok {
		return r.version, r.ok
	}

	r := p.resolve(target)
	p.cache.Add(target, r)
	return r.version, r.ok
}

func (p *BuildInfoProbe) resolve(target string) probeResult {
	var raw string
	if target == TargetStd {
		if p.info == nil {
			return probeResult{}
		}
		raw = p.info.GoVersion
	} else {
		v, ok := p.modules[target]
		if !ok {
			return probeResult{}
		}
		raw = v
	}
	v, err := ParseVersion(raw)
	if err != nil {
		return probeResult{}
	}
	return probeResult{version: v, ok: true}
}

// Loaded 报告目标模块是否参与了当前二进制的构建。标准库始终视为已加载。
func (p *BuildInfoProbe) Loaded(target string) bool {
	if target == TargetStd {
		return true
	}
	p.load()
	_, ok := p.modules[target]
	return ok
}
