// 包 throttle：前沿触发 + 尾随合并的节流器，用于数据文件变更后的重载
package throttle

import (
	"sync"
	"time"
)

// 文档注释：节流器
// 背景：文件保存、窗口缩放这类事件会在短时间内成串到达，只需要首个事件立即响应，窗口内其余事件合并为一次尾随调用。
// 约束：fn 在调用方或计时器 goroutine 中执行，不会并发执行；Stop 返回后 fn 不再执行，fn 内不得调用 Stop。
type Throttle struct {
	wait time.Duration
	fn   func()

	mu      sync.Mutex
	last    time.Time
	timer   *time.Timer
	stopped bool
	running sync.Mutex
}

func New(wait time.Duration, fn func()) *Throttle {
	return &Throttle{wait: wait, fn: fn}
}

// Call 请求一次执行
func (t *Throttle) Call() {
	t.mu.Lock()
	if t.stopped {
		t.mu.Unlock()
		return
	}
	now := time.Now()
	remaining := t.wait - now.Sub(t.last)
	if remaining <= 0 && t.timer == nil {
		t.last = now
		t.mu.Unlock()
		t.run()
		return
	}
	if t.timer == nil {
		if remaining < 0 {
			remaining = 0
		}
		t.timer = time.AfterFunc(remaining, t.trailing)
	}
	t.mu.Unlock()
}

func (t *Throttle) trailing() {
	t.mu.Lock()
	t.timer = nil
	if t.stopped {
		t.mu.Unlock()
		return
	}
	t.last = time.Now()
	t.mu.Unlock()
	t.run()
}

// 持有 running 后再检查 stopped：已触发但尚未开始的尾随调用在 Stop 之后被丢弃
func (t *Throttle) run() {
	t.running.Lock()
	defer t.running.Unlock()
	t.mu.Lock()
	stopped := t.stopped
	t.mu.Unlock()
	if stopped {
		return
	}
	t.fn()
}

// Stop 取消尚未触发的尾随调用，并等待正在执行的 fn 返回
func (t *Throttle) Stop() {
	t.mu.Lock()
	t.stopped = true
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	t.mu.Unlock()
	t.running.Lock()
	t.running.Unlock()
}
