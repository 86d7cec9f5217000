package xhttp

import (
	"net/http"
	"sync"

	"github.com/omeyang/xcontrib/pkg/contrib/xintegration"
	"github.com/omeyang/xcontrib/pkg/contrib/xpatch"
	"github.com/omeyang/xcontrib/pkg/contrib/xversion"
)

const (
	// IntegrationName 集成名。
	IntegrationName = "http"
	// MinimumGoVersion 最低 Go 版本。
	MinimumGoVersion = "1.21"
)

var (
	patchMu  sync.Mutex
	replaced http.RoundTripper
)

// Integration 登记在 xintegration 默认登记表中的 http 集成，包初始化时创建。
var Integration *xintegration.Descriptor

func init() {
	Integration = xintegration.MustNew(IntegrationName,
		xintegration.WithTarget(xversion.TargetStd, MinimumGoVersion),
		xintegration.WithSchema(Schema),
		xintegration.WithDescription("net/http client requests through http.DefaultTransport"),
		xintegration.WithPatcher(xpatch.New(IntegrationName, xpatch.Modification{
			Name:   "http.DefaultTransport",
			Apply:  installDefaultTransport,
			Revert: restoreDefaultTransport,
		})),
	)
	xintegration.MustRegister(Integration)
}

func installDefaultTransport() error {
	patchMu.Lock()
	defer patchMu.Unlock()

	if _, ok := http.DefaultTransport.(*Transport); ok {
		return nil
	}
	replaced = http.DefaultTransport
	http.DefaultTransport = Wrap(replaced)
	return nil
}

func restoreDefaultTransport() error {
	patchMu.Lock()
	defer patchMu.Unlock()

	if replaced == nil {
		return nil
	}
	http.DefaultTransport = replaced
	replaced = nil
	return nil
}

// unwrap 返回 rt 包装的原始 RoundTripper。
func unwrap(rt http.RoundTripper) http.RoundTripper {
	for {
		t, ok := rt.(*Transport)
		if !ok {
			return rt
		}
		rt = t.base
	}
}
