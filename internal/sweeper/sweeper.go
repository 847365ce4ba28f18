// internal/sweeper/sweeper.go
package sweeper

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/Slade66/media-grabber/internal/metrics"
	"github.com/Slade66/media-grabber/pkg/fileinfo"
	"github.com/Slade66/media-grabber/pkg/logger"
)

// 缺省的保留时长和清理间隔
const (
	DefaultMaxAge   = time.Hour
	DefaultInterval = 30 * time.Minute
)

// Sweeper 定期删除存储目录中超过保留时长的文件。
// 它与正在进行的下载或文件传输之间没有任何协调。
type Sweeper struct {
	dir      string
	maxAge   time.Duration
	interval time.Duration
	now      func() time.Time
	metrics  *metrics.Metrics
	log      logger.Logger
}

// New 创建一个新的 Sweeper，非正数的时长使用缺省值
func New(dir string, maxAge, interval time.Duration, m *metrics.Metrics) *Sweeper {
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Sweeper{
		dir:      dir,
		maxAge:   maxAge,
		interval: interval,
		now:      time.Now,
		metrics:  m,
		log:      logger.Get("Sweeper"),
	}
}

// Run 立即清理一次，然后每隔 interval 清理一次，直到 ctx 结束
func (s *Sweeper) Run(ctx context.Context) {
	s.log.Infof("▶️ 清理任务已启动: 目录 %s, 保留 %s, 间隔 %s", s.dir, s.maxAge, s.interval)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		s.Sweep()

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Sweep 执行一轮清理并返回被删除的文件名。单个错误不会中断本轮清理。
func (s *Sweeper) Sweep() []string {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		s.log.Errorf("清理失败，无法读取目录 %s: %v", s.dir, err)
		s.metrics.RecordSweepError()
		return nil
	}

	now := s.now()
	var removed []string
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}

		st, err := entry.Info()
		if err != nil {
			// 文件可能已被并发删除
			s.log.Warnf("无法读取文件信息 %s: %v", entry.Name(), err)
			s.metrics.RecordSweepError()
			continue
		}

		if fileinfo.FromFileInfo(st).Age(now) <= s.maxAge {
			continue
		}

		if err := os.Remove(filepath.Join(s.dir, entry.Name())); err != nil {
			s.log.Warnf("无法删除过期文件 %s: %v", entry.Name(), err)
			s.metrics.RecordSweepError()
			continue
		}
		removed = append(removed, entry.Name())
	}

	if len(removed) > 0 {
		s.log.Infof("🧹 已删除 %d 个过期文件", len(removed))
	}
	s.metrics.RecordSwept(len(removed))
	return removed
}
