package dataset

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"copyright-map/internal/logger"
	"copyright-map/internal/throttle"

	"github.com/fsnotify/fsnotify"
)

// ReloadWait 与前端窗口缩放节流保持一致
const ReloadWait = 250 * time.Millisecond

// 文档注释：数据文件监视器
// 背景：编辑器保存文件时常以"写临时文件再改名"的方式替换，故监视所在目录并按文件名过滤，而不是直接监视文件本身。
// 约束：一串变更经节流合并为一次重载；Close 后不再触发重载。
type Watcher struct {
	fw    *fsnotify.Watcher
	files map[string]struct{}
	th    *throttle.Throttle
	done  chan struct{}
	wg    sync.WaitGroup
}

// Watch 监视 paths，变更时调用 reload
func Watch(paths []string, wait time.Duration, reload func()) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{
		fw:    fw,
		files: make(map[string]struct{}, len(paths)),
		th:    throttle.New(wait, reload),
		done:  make(chan struct{}),
	}
	dirs := map[string]struct{}{}
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			_ = fw.Close()
			return nil, err
		}
		w.files[abs] = struct{}{}
		dirs[filepath.Dir(abs)] = struct{}{}
	}
	for d := range dirs {
		if err := fw.Add(d); err != nil {
			_ = fw.Close()
			return nil, fmt.Errorf("watch %s: %w", d, err)
		}
	}
	w.wg.Add(1)
	go w.loop()
	return w, nil
}

func (w *Watcher) loop() {
	defer w.wg.Done()
	for {
		select {
		case <-w.done:
			return
		case ev, ok := <-w.fw.Events:
			if !ok {
				return
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			abs, err := filepath.Abs(ev.Name)
			if err != nil {
				continue
			}
			if _, tracked := w.files[abs]; !tracked {
				continue
			}
			logger.L().Debug("dataset_file_changed", "path", abs, "op", ev.Op.String())
			w.th.Call()
		case err, ok := <-w.fw.Errors:
			if !ok {
				return
			}
			logger.L().Error("dataset_watch_error", "err", err)
		}
	}
}

// Close 停止监视并等待后台 goroutine 退出
func (w *Watcher) Close() error {
	close(w.done)
	w.th.Stop()
	err := w.fw.Close()
	w.wg.Wait()
	return err
}

// WatchReloader 便捷封装：文件变更时调用 r.Reload
func WatchReloader(ctx context.Context, r *Reloader, paths []string) (*Watcher, error) {
	return Watch(paths, ReloadWait, func() {
		_, _ = r.Reload(ctx)
	})
}
