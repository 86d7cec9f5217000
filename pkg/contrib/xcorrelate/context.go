package xcorrelate

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// PayloadKeyContext 事件载荷中关联上下文的键。
const PayloadKeyContext = "tracing_context"

// Payload 事件载荷。
type Payload map[string]any

// Context 单次操作的关联上下文，连接 start 事件与对应的 finish 事件。
//
// Context 不得在并发的不同操作之间共享。方法本身并发安全，
// 以便宿主在操作内部的其它 goroutine 中写入描述信息。
type Context struct {
	id     string
	parent context.Context

	mu       sync.Mutex
	values   map[string]any
	children map[string]context.Context
}

// NewContext 创建关联上下文。parent 是新 span 的父级 context，nil 时使用 context.Background()。
func NewContext(parent context.Context) *Context {
	if parent == nil {
		parent = context.Background()
	}
	return &Context{
		id:     uuid.NewString(),
		parent: parent,
		values: make(map[string]any),
	}
}

// ID 返回上下文的唯一标识，用于日志关联。
func (c *Context) ID() string {
	return c.id
}

// Parent 返回创建 span 时使用的父级 context。
func (c *Context) Parent() context.Context {
	return c.parent
}

// Set 写入描述信息（如模板名、捕获的错误）。
func (c *Context) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[key] = value
}

// Get 读取描述信息。
func (c *Context) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.values[key]
	return v, ok
}

// String 以字符串形式读取描述信息，非字符串值用 fmt.Sprint 转换，不存在返回空字符串。
func (c *Context) String(key string) string {
	v, ok := c.Get(key)
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// Err 读取捕获的错误，不存在或类型不符时返回 nil。
func (c *Context) Err(key string) error {
	v, _ := c.Get(key)
	err, _ := v.(error)
	return err
}

// Span 返回 key 下的 span。
func (c *Context) Span(key string) (Span, bool) {
	v, _ := c.Get(key)
	s, ok := v.(Span)
	return s, ok && s != nil
}

// SetSpan 将 span 存放在 key 下。
func (c *Context) SetSpan(key string, span Span) {
	c.Set(key, span)
}

// Child 返回 key 下 span 对应的子 context，用于嵌套操作创建子 span。
// span 不存在时返回 Parent。
func (c *Context) Child(key string) context.Context {
	c.mu.Lock()
	defer c.mu.Unlock()
	if ctx, ok := c.children[key]; ok {
		return ctx
	}
	return c.parent
}

// has 报告 key 下是否已有值。
func (c *Context) has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.values[key]
	return ok
}

// startSpan 在 key 为空时原子地存放 span 及其子 context。
func (c *Context) startSpan(key string, span Span, child context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.values[key]; exists {
		return fmt.Errorf("%w: %s", ErrSpanExists, key)
	}
	c.values[key] = span
	if child != nil {
		if c.children == nil {
			c.children = make(map[string]context.Context)
		}
		c.children[key] = child
	}
	return nil
}

// ContextFrom 从载荷中取出关联上下文。
func ContextFrom(p Payload) (*Context, error) {
	v, ok := p[PayloadKeyContext]
	if !ok || v == nil {
		return nil, ErrNoContext
	}
	c, ok := v.(*Context)
	if !ok || c == nil {
		return nil, fmt.Errorf("%w: %T", ErrBadContext, v)
	}
	return c, nil
}
