// Package watch 监听视频根目录的变化，并在变化平息后触发回调（通常是缓存失效）。
package watch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDebounce 是合并连续事件的窗口。
const DefaultDebounce = 200 * time.Millisecond

// Watcher 监听 root 及其直接子目录（category）。
//
// fsnotify 不递归：category 下新增/删除 variant 会改变 category 目录本身，足以触发失效；
// root 下新建的目录会被自动加入监听。
type Watcher struct {
	mu       sync.Mutex
	fw       *fsnotify.Watcher
	root     string
	onChange func()
	logger   *zap.Logger
	debounce time.Duration

	stopCh  chan struct{}
	doneCh  chan struct{}
	running bool

	pending   bool
	lastEvent time.Time
	stats     Stats
}

// Stats 记录 watcher 的活动（用于日志与测试）。
type Stats struct {
	Events  int
	Fired   int
	Errors  int
	Watched int
}

var ErrNoCallback = errors.New("watch: onChange 不能为空")

// New 创建 Watcher；debounce<=0 时使用 DefaultDebounce。
func New(root string, debounce time.Duration, onChange func(), logger *zap.Logger) (*Watcher, error) {
	if onChange == nil {
		return nil, ErrNoCallback
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		fw:       fw,
		root:     filepath.Clean(root),
		onChange: onChange,
		logger:   logger,
		debounce: debounce,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}, nil
}

// Start 加入监听并启动事件循环（非阻塞）。root 无法监听时返回 error。
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.mu.Unlock()

	if err := w.fw.Add(w.root); err != nil {
		return err
	}
	w.addChildren()

	w.mu.Lock()
	w.running = true
	w.mu.Unlock()

	go w.run(ctx)
	w.logger.Info("开始监听根目录", zap.String("root", w.root))
	return nil
}

// Stop 停止事件循环并关闭底层 watcher；可重复调用。
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		_ = w.fw.Close()
		return
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh

	if err := w.fw.Close(); err != nil {
		w.logger.Warn("关闭 watcher 失败", zap.Error(err))
	}
}

// Stats 返回活动统计快照。
func (w *Watcher) Stats() Stats {
	w.mu.Lock()
	defer w.mu.Unlock()
	s := w.stats
	s.Watched = len(w.fw.WatchList())
	return s
}

func (w *Watcher) addChildren() {
	entries, err := os.ReadDir(w.root)
	if err != nil {
		w.logger.Debug("读取根目录失败", zap.String("root", w.root), zap.Error(err))
		return
	}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		w.add(filepath.Join(w.root, e.Name()))
	}
}

func (w *Watcher) add(dir string) {
	if err := w.fw.Add(dir); err != nil {
		w.logger.Debug("加入监听失败", zap.String("dir", dir), zap.Error(err))
	}
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)

	ticker := time.NewTicker(w.debounce / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case ev, ok := <-w.fw.Events:
			if !ok {
				return
			}
			w.handle(ev)
		case err, ok := <-w.fw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watcher 错误", zap.Error(err))
			w.mu.Lock()
			w.stats.Errors++
			w.mu.Unlock()
		case <-ticker.C:
			w.flush()
		}
	}
}

func (w *Watcher) handle(ev fsnotify.Event) {
	if ev.Op == fsnotify.Chmod {
		return
	}
	// root 的直接子目录被创建：加入监听。
	if ev.Op&fsnotify.Create != 0 && filepath.Dir(ev.Name) == w.root {
		if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
			w.add(ev.Name)
		}
	}

	w.mu.Lock()
	w.stats.Events++
	w.pending = true
	w.lastEvent = time.Now()
	w.mu.Unlock()
	w.logger.Debug("文件系统事件", zap.String("path", ev.Name), zap.String("op", ev.Op.String()))
}

func (w *Watcher) flush() {
	w.mu.Lock()
	if !w.pending || time.Since(w.lastEvent) < w.debounce {
		w.mu.Unlock()
		return
	}
	w.pending = false
	w.stats.Fired++
	w.mu.Unlock()

	w.onChange()
}
