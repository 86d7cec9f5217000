// Package xtemplate 为 html/template 渲染生成 span。
//
// [Renderer] 渲染页面模板（可选套用布局），模板中可以用 partial 渲染局部模板：
//
//	tmpl := template.Must(template.New("").Funcs(xtemplate.Funcs()).ParseFS(views, "views/*.html"))
//	r, _ := xtemplate.New(tmpl)
//	err := r.Render(ctx, w, "users/index.html", "layouts/app.html", data)
//
// 布局模板中用 {{ yield }} 输出页面内容；{{ partial "users/row.html" . }} 渲染局部模板。
//
// 包初始化时登记名为 "html_template" 的集成。激活后每次渲染都会在包级事件总线
// （见 [Notifier]）上发布 start_render_template.xtemplate / finish_render_template.xtemplate
// 事件（局部模板为 ..._render_partial.xtemplate），xcorrelate.Engine 将其转换为 span。
// 局部模板的 span 以外层模板（或外层局部模板）的 span 为父级。激活前渲染不发布任何事件。
package xtemplate
