package xconf

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// WatchCallback 配置文件变更并重载后调用，err 非 nil 表示重载或监视失败（此时配置保持不变）。
type WatchCallback func(cfg Config, err error)

// Watcher 配置文件监视器。
type Watcher struct {
	cfg      *koanfConfig
	watcher  *fsnotify.Watcher
	callback WatchCallback
	debounce time.Duration
	ctx      context.Context
	cancel   context.CancelFunc

	mu      sync.Mutex
	running bool
	stopped bool
	timer   *time.Timer
}

// WatchOption 监视器选项。
type WatchOption func(*watchOptions)

type watchOptions struct {
	debounce time.Duration
}

// WithDebounce 设置防抖时间：该时间内的多次变更只触发一次重载。默认 100ms，非正值忽略。
func WithDebounce(d time.Duration) WatchOption {
	return func(o *watchOptions) {
		if d > 0 {
			o.debounce = d
		}
	}
}

// Watch 创建监视器。返回的 Watcher 需调用 Start 或 StartAsync 开始监视，Stop 停止。
//
// 监视的是配置文件所在目录而非文件本身：编辑器保存时可能先删除再创建文件。
func Watch(cfg Config, callback WatchCallback, opts ...WatchOption) (*Watcher, error) {
	kc, ok := cfg.(*koanfConfig)
	if !ok {
		return nil, fmt.Errorf("xconf: unsupported config type %T", cfg)
	}
	if kc.isBytes {
		return nil, ErrNotReloadable
	}
	if kc.path == "" {
		return nil, ErrEmptyPath
	}

	options := &watchOptions{debounce: 100 * time.Millisecond}
	for _, opt := range opts {
		opt(options)
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("xconf: failed to create watcher: %w", err)
	}
	dir := filepath.Dir(kc.path)
	if err := fsWatcher.Add(dir); err != nil {
		return nil, errors.Join(
			fmt.Errorf("xconf: failed to watch directory %s: %w", dir, err),
			fsWatcher.Close(),
		)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Watcher{
		cfg:      kc,
		watcher:  fsWatcher,
		callback: callback,
		debounce: options.debounce,
		ctx:      ctx,
		cancel:   cancel,
	}, nil
}

// Start 阻塞运行监视循环，直到 Stop。
func (w *Watcher) Start() {
	if !w.markRunning() {
		return
	}
	w.run()
}

// StartAsync 在后台 goroutine 中运行监视循环。
func (w *Watcher) StartAsync() {
	if !w.markRunning() {
		return
	}
	go w.run()
}

func (w *Watcher) markRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running || w.stopped {
		return false
	}
	w.running = true
	return true
}

// Stop 停止监视。可重复调用，在回调中调用也是安全的。
// 返回后不会再触发新的重载。
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return nil
	}
	w.stopped = true
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
	w.mu.Unlock()

	w.cancel()
	return w.watcher.Close()
}

func (w *Watcher) run() {
	filename := filepath.Base(w.cfg.path)

	for {
		select {
		case <-w.ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event, filename)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.notify(fmt.Errorf("xconf: watch error: %w", err))
		}
	}
}

// handleEvent 只处理目标文件的 Write/Create/Rename 事件，并在防抖后重载。
func (w *Watcher) handleEvent(event fsnotify.Event, filename string) {
	if filepath.Base(event.Name) != filename {
		return
	}
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return
	}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		if w.ctx.Err() != nil {
			return
		}
		w.notify(w.cfg.Reload())
	})
}

// notify 调用回调，回调 panic 不影响监视循环。
func (w *Watcher) notify(err error) {
	if w.callback == nil {
		return
	}
	defer func() { _ = recover() }()
	w.callback(w.cfg, err)
}
