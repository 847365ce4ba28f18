// internal/observer/progress_bar.go
package observer

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
)

// ProgressBarObserver 是一个具体的观察者，用于显示终端进度条
type ProgressBarObserver struct {
	out      io.Writer
	current  int64
	total    int64
	barWidth int
	done     bool
	mu       sync.Mutex
}

// NewProgressBarObserver 创建一个新的进度条观察者
func NewProgressBarObserver() *ProgressBarObserver {
	return &ProgressBarObserver{
		out:      os.Stdout,
		barWidth: 50, // 进度条在终端的显示宽度
	}
}

// Update 实现了 Observer 接口
func (p *ProgressBarObserver) Update(downloaded, total int64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.current = downloaded
	if total > 0 {
		p.total = total
	}
	p.print()
}

// print 在终端上绘制进度条，调用方持有锁
func (p *ProgressBarObserver) print() {
	if p.total <= 0 || p.done {
		return
	}

	percent := float64(p.current) / float64(p.total)
	if percent > 1 {
		percent = 1
	}
	filledWidth := int(percent * float64(p.barWidth))
	bar := strings.Repeat("=", filledWidth) + strings.Repeat(" ", p.barWidth-filledWidth)

	// 使用 \r 回到行首来刷新进度条，而不是每次都换行
	fmt.Fprintf(p.out, "\r[%s] %.2f%% (%.2f/%.2f MB)",
		bar,
		percent*100,
		float64(p.current)/1024/1024,
		float64(p.total)/1024/1024,
	)

	if p.current >= p.total {
		fmt.Fprintln(p.out)
		p.done = true
	}
}
