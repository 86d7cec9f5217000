package xtemplate

import (
	"sync"
	"sync/atomic"

	"github.com/omeyang/xcontrib/pkg/contrib/xcorrelate"
	"github.com/omeyang/xcontrib/pkg/contrib/xintegration"
	"github.com/omeyang/xcontrib/pkg/contrib/xpatch"
	"github.com/omeyang/xcontrib/pkg/contrib/xsettings"
	"github.com/omeyang/xcontrib/pkg/contrib/xversion"
	"github.com/omeyang/xcontrib/pkg/event/xnotify"
	"github.com/omeyang/xcontrib/pkg/observability/xotel"
)

const (
	// IntegrationName 集成名。
	IntegrationName = "html_template"
	// MinimumGoVersion 最低 Go 版本。
	MinimumGoVersion = "1.21"
	// Component 事件名与 span 存放键中的组件名。
	Component = "xtemplate"
)

// 关联上下文中的键。
const (
	KeyTemplateName = "template_name"
	KeyLayout       = "layout"
)

// 配置项。
const (
	OptTemplateBasePath = "template_base_path"
	EnvTemplateBasePath = "XCONTRIB_TEMPLATE_BASE_PATH"
)

// Schema html_template 集成的配置项。
var Schema = xsettings.MustSchema(
	xsettings.Option{
		Name: OptTemplateBasePath, Kind: xsettings.KindString,
		Env: EnvTemplateBasePath, Description: "prefix trimmed from template.name tags",
	},
)

// 渲染生命周期。
var (
	RenderTemplate = withErrorKey(xcorrelate.NewLifecycle(Component, "render_template",
		"template.render", xcorrelate.SpanTypeTemplate,
		xcorrelate.TagBinding{Tag: "template.name", Key: KeyTemplateName},
		xcorrelate.TagBinding{Tag: "template.layout", Key: KeyLayout},
	))
	RenderPartial = withErrorKey(xcorrelate.NewLifecycle(Component, "render_partial",
		"template.render_partial", xcorrelate.SpanTypeTemplate,
		xcorrelate.TagBinding{Tag: "template.name", Key: KeyTemplateName},
	))
)

func withErrorKey(lc xcorrelate.Lifecycle) xcorrelate.Lifecycle {
	lc.ErrorKey = xnotify.KeyException
	return lc
}

var (
	notifier = xnotify.New()
	engine   = xcorrelate.New(xcorrelate.WithTracerFunc(xotel.Resolve))

	hooked   atomic.Bool
	hookMu   sync.Mutex
	unhookFn func()
)

// Notifier 返回渲染事件所在的包级事件总线，可用于订阅渲染事件。
func Notifier() *xnotify.Notifier {
	return notifier
}

// Integration 登记在 xintegration 默认登记表中的 html_template 集成，包初始化时创建。
var Integration *xintegration.Descriptor

func init() {
	Integration = xintegration.MustNew(IntegrationName,
		xintegration.WithTarget(xversion.TargetStd, MinimumGoVersion),
		xintegration.WithSchema(Schema),
		xintegration.WithDescription("html/template rendering through xtemplate.Renderer"),
		xintegration.WithPatcher(xpatch.New(IntegrationName,
			xpatch.Modification{Name: "engine subscription", Apply: subscribe, Revert: unsubscribe},
			xpatch.Modification{Name: "render hook", Apply: installHook, Revert: removeHook},
		)),
	)
	xintegration.MustRegister(Integration)
}

func subscribe() error {
	hookMu.Lock()
	defer hookMu.Unlock()

	if unhookFn != nil {
		return nil
	}
	unsub, err := engine.Instrument(notifier, RenderTemplate, RenderPartial)
	if err != nil {
		return err
	}
	unhookFn = unsub
	return nil
}

func unsubscribe() error {
	hookMu.Lock()
	defer hookMu.Unlock()

	if unhookFn != nil {
		unhookFn()
		unhookFn = nil
	}
	return nil
}

func installHook() error {
	hooked.Store(true)
	return nil
}

func removeHook() error {
	hooked.Store(false)
	return nil
}
