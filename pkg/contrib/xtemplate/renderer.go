package xtemplate

import (
	"bytes"
	"context"
	"html/template"
	"io"
	"strings"

	"github.com/omeyang/xcontrib/pkg/contrib/xcorrelate"
	"github.com/omeyang/xcontrib/pkg/contrib/xintegration"
	"github.com/omeyang/xcontrib/pkg/event/xnotify"
)

// 模板函数名。
const (
	FuncPartial = "partial"
	FuncYield   = "yield"
)

// Funcs 返回 Renderer 使用的模板函数占位实现，须在解析模板前通过 template.Funcs 注册。
// 渲染时它们被替换为绑定到本次渲染的实现。
func Funcs() template.FuncMap {
	return template.FuncMap{
		FuncPartial: func(string, any) (template.HTML, error) { return "", nil },
		FuncYield:   func() (template.HTML, error) { return "", ErrYieldOutsideLayout },
	}
}

// Renderer 渲染模板集合，并发安全。
type Renderer struct {
	master *template.Template
	bus    *xnotify.Notifier
	desc   *xintegration.Descriptor
}

// Option Renderer 配置选项。
type Option func(*Renderer)

// WithNotifier 将渲染事件发布到 n，而不是包级事件总线。此时无论集成是否激活都会发布事件，
// 由调用方负责在 n 上订阅处理函数。
func WithNotifier(n *xnotify.Notifier) Option {
	return func(r *Renderer) {
		r.bus = n
	}
}

// WithDescriptor 设置配置来源，默认使用包级 [Integration]。
func WithDescriptor(d *xintegration.Descriptor) Option {
	return func(r *Renderer) {
		if d != nil {
			r.desc = d
		}
	}
}

// New 创建 Renderer。tmpl 须已注册 [Funcs] 并完成解析，此后不得再执行或修改 tmpl。
func New(tmpl *template.Template, opts ...Option) (*Renderer, error) {
	if tmpl == nil {
		return nil, ErrNilTemplate
	}
	r := &Renderer{master: tmpl, desc: Integration}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Render 渲染 name；layout 非空时再渲染 layout，布局中的 {{ yield }} 输出 name 的结果。
// 输出在全部渲染成功后一次性写入 w。
func (r *Renderer) Render(ctx context.Context, w io.Writer, name, layout string, data any) error {
	if ctx == nil {
		ctx = context.Background()
	}
	tmpl, err := r.master.Clone()
	if err != nil {
		return err
	}
	rd := &render{r: r, tmpl: tmpl, bus: r.notifier(), parents: []context.Context{ctx}}
	tmpl.Funcs(template.FuncMap{
		FuncPartial: rd.partial,
		FuncYield:   rd.yield,
	})

	var out bytes.Buffer
	err = rd.instrument(ctx, "render_template."+Component, RenderTemplate.SpanKey, name, layout, func() error {
		var body bytes.Buffer
		if err := tmpl.ExecuteTemplate(&body, name, data); err != nil {
			return err
		}
		if layout == "" {
			_, err := out.Write(body.Bytes())
			return err
		}
		rd.content = template.HTML(body.String()) //nolint:gosec // html/template 的输出已转义
		rd.inLayout = true
		return tmpl.ExecuteTemplate(&out, layout, data)
	})
	if err != nil {
		return err
	}
	_, err = w.Write(out.Bytes())
	return err
}

func (r *Renderer) notifier() *xnotify.Notifier {
	if r.bus != nil {
		return r.bus
	}
	if hooked.Load() {
		return notifier
	}
	return nil
}

func (r *Renderer) displayName(name string) string {
	if r.desc == nil {
		return name
	}
	base := r.desc.Settings(name).String(OptTemplateBasePath)
	if base == "" {
		return name
	}
	return strings.TrimPrefix(name, base)
}

// render 一次 Render 调用的状态。模板执行是同步的，parents 的栈顶即当前操作的父级 context。
type render struct {
	r        *Renderer
	tmpl     *template.Template
	bus      *xnotify.Notifier
	parents  []context.Context
	content  template.HTML
	inLayout bool
}

func (rd *render) partial(name string, data any) (template.HTML, error) {
	parent := rd.parents[len(rd.parents)-1]
	var buf bytes.Buffer
	err := rd.instrument(parent, "render_partial."+Component, RenderPartial.SpanKey, name, "", func() error {
		return rd.tmpl.ExecuteTemplate(&buf, name, data)
	})
	if err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil //nolint:gosec // html/template 的输出已转义
}

func (rd *render) yield() (template.HTML, error) {
	if !rd.inLayout {
		return "", ErrYieldOutsideLayout
	}
	return rd.content, nil
}

// instrument 在 fn 前后发布事件。未启用插桩时直接执行 fn。
func (rd *render) instrument(parent context.Context, base, spanKey, name, layout string, fn func() error) error {
	if rd.bus == nil {
		return fn()
	}
	c := xcorrelate.NewContext(parent)
	c.Set(KeyTemplateName, rd.r.displayName(name))
	if layout != "" {
		c.Set(KeyLayout, rd.r.displayName(layout))
	}
	payload := xcorrelate.Payload{xcorrelate.PayloadKeyContext: c}

	return rd.bus.Instrument(parent, base, payload, func(context.Context) error {
		// start 事件之后 span 已存放在 c 中，嵌套操作以它为父级
		rd.parents = append(rd.parents, c.Child(spanKey))
		defer func() { rd.parents = rd.parents[:len(rd.parents)-1] }()
		return fn()
	})
}
