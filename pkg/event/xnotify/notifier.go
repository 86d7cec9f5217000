package xnotify

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/omeyang/xcontrib/pkg/contrib/xcorrelate"
	"github.com/omeyang/xcontrib/pkg/observability/xlog"
)

// KeyException 操作失败时，错误写入关联上下文的键。
const KeyException = "exception"

type subscription struct {
	id uint64
	h  xcorrelate.Handler
}

// Notifier 同步事件总线，零值不可用，使用 [New] 创建。
type Notifier struct {
	mu     sync.RWMutex
	subs   map[string][]subscription
	nextID uint64

	logger xlog.Logger
	now    func() time.Time
}

var _ xcorrelate.Bus = (*Notifier)(nil)

// Option Notifier 配置选项。
type Option func(*Notifier)

// WithLogger 设置记录订阅者 panic 的 logger，默认使用 xlog 全局 logger。
func WithLogger(l xlog.Logger) Option {
	return func(n *Notifier) {
		n.logger = l
	}
}

// WithClock 设置时钟，用于测试。
func WithClock(now func() time.Time) Option {
	return func(n *Notifier) {
		if now != nil {
			n.now = now
		}
	}
}

// New 创建 Notifier。
func New(opts ...Option) *Notifier {
	n := &Notifier{
		subs: make(map[string][]subscription),
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Subscribe 订阅 name 事件，返回取消订阅函数（可多次调用）。h 为 nil 时不订阅。
func (n *Notifier) Subscribe(name string, h xcorrelate.Handler) func() {
	if h == nil {
		return func() {}
	}
	n.mu.Lock()
	n.nextID++
	id := n.nextID
	cur := n.subs[name]
	next := make([]subscription, len(cur), len(cur)+1)
	copy(next, cur)
	n.subs[name] = append(next, subscription{id: id, h: h})
	n.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { n.unsubscribe(name, id) })
	}
}

func (n *Notifier) unsubscribe(name string, id uint64) {
	n.mu.Lock()
	defer n.mu.Unlock()

	cur := n.subs[name]
	next := make([]subscription, 0, len(cur))
	for _, s := range cur {
		if s.id != id {
			next = append(next, s)
		}
	}
	if len(next) == 0 {
		delete(n.subs, name)
		return
	}
	n.subs[name] = next
}

// Listening 报告 name 是否有订阅者。
func (n *Notifier) Listening(name string) bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.subs[name]) > 0
}

// Publish 按订阅顺序同步投递事件。
func (n *Notifier) Publish(ev xcorrelate.Event) {
	n.mu.RLock()
	subs := n.subs[ev.Name]
	n.mu.RUnlock()

	for _, s := range subs {
		n.deliver(s.h, ev)
	}
}

func (n *Notifier) deliver(h xcorrelate.Handler, ev xcorrelate.Event) {
	defer func() {
		if r := recover(); r != nil {
			n.logWarn("notify: subscriber panicked", xlog.Event(ev.Name), xlog.Panic(r))
		}
	}()
	h(ev)
}

// Instrument 发布 "start_<base>"，执行 fn，再发布 "finish_<base>"。
//
// fn 返回错误时，若 payload 中有关联上下文，错误写入其 [KeyException] 键。
// fn panic 时同样先发布 finish 事件，再重新 panic。
func (n *Notifier) Instrument(ctx context.Context, base string, payload xcorrelate.Payload, fn func(ctx context.Context) error) (err error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if payload == nil {
		payload = xcorrelate.Payload{}
	}
	id := uuid.NewString()
	start := n.now()
	n.Publish(xcorrelate.Event{Name: "start_" + base, Start: start, ID: id, Payload: payload})

	defer func() {
		r := recover()
		if r != nil {
			captureError(payload, fmt.Errorf("panic: %v", r))
		} else if err != nil {
			captureError(payload, err)
		}
		n.Publish(xcorrelate.Event{Name: "finish_" + base, Start: start, Finish: n.now(), ID: id, Payload: payload})
		if r != nil {
			panic(r)
		}
	}()

	if fn == nil {
		return nil
	}
	return fn(ctx)
}

func captureError(p xcorrelate.Payload, err error) {
	if c, cerr := xcorrelate.ContextFrom(p); cerr == nil {
		c.Set(KeyException, err)
	}
}

func (n *Notifier) logWarn(msg string, attrs ...slog.Attr) {
	if n.logger != nil {
		n.logger.Warn(context.Background(), msg, attrs...)
		return
	}
	xlog.Warn(context.Background(), msg, attrs...)
}
