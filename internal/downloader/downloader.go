// internal/downloader/downloader.go
package downloader

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	"github.com/Slade66/media-grabber/internal/extractor"
	"github.com/Slade66/media-grabber/internal/media"
	"github.com/Slade66/media-grabber/internal/metrics"
	"github.com/Slade66/media-grabber/internal/observer"
	"github.com/Slade66/media-grabber/pkg/fileinfo"
	"github.com/Slade66/media-grabber/pkg/logger"
	"github.com/google/uuid"
)

// DefaultFormat 未指定格式时使用的选择器
const DefaultFormat = "best"

// ErrDownloadFailed 下载失败时返回，具体原因只记录在服务端日志中
var ErrDownloadFailed = errors.New("download failed")

// 提取库下载过程中留下的临时文件后缀
var partialSuffixes = []string{".part", ".ytdl"}

// Job 描述一次下载
type Job struct {
	URL      string
	Format   string
	Filename string
}

// Executor 负责把媒体下载到存储目录
type Executor struct {
	observer.Subject
	dir     string
	format  string
	ext     extractor.Extractor
	metrics *metrics.Metrics
	log     logger.Logger
}

// NewExecutor 创建一个新的 Executor 实例
func NewExecutor(dir string, ext extractor.Extractor, m *metrics.Metrics) *Executor {
	return &Executor{
		dir:     dir,
		format:  DefaultFormat,
		ext:     ext,
		metrics: m,
		log:     logger.Get("Downloader"),
	}
}

// Dir 返回存储目录
func (e *Executor) Dir() string {
	return e.dir
}

// SetDefaultFormat 修改请求未指定格式时使用的选择器，空字符串会被忽略
func (e *Executor) SetDefaultFormat(format string) {
	if format != "" {
		e.format = format
	}
}

// Prepare 生成唯一文件名并补全缺省格式
func (e *Executor) Prepare(url, format string) *Job {
	if format == "" {
		format = e.format
	}
	return &Job{
		URL:      url,
		Format:   format,
		Filename: uuid.New().String() + media.DefaultExtension,
	}
}

// Download 等价于 Prepare 之后立即 Run
func (e *Executor) Download(ctx context.Context, url, format string, observers ...observer.Observer) (string, error) {
	return e.Run(ctx, e.Prepare(url, format), observers...)
}

// Run 执行下载并返回文件路径。失败时删除已写入的部分文件并返回 ErrDownloadFailed。
func (e *Executor) Run(ctx context.Context, job *Job, observers ...observer.Observer) (string, error) {
	path := filepath.Join(e.dir, job.Filename)
	done := e.metrics.DownloadStarted()

	onProgress := func(p extractor.Progress) {
		e.Notify(p.Downloaded, p.Total)
		for _, o := range observers {
			o.Update(p.Downloaded, p.Total)
		}
	}

	e.log.Infof("🚀 开始下载 %s (格式: %s) -> %s", job.URL, job.Format, job.Filename)
	err := e.ext.Fetch(ctx, job.URL, job.Format, path, onProgress)
	if err == nil && !fileinfo.Exists(path) {
		err = errors.New("提取库未生成输出文件")
	}
	if err != nil {
		e.log.Errorf("❌ 下载失败 %s: %v", job.URL, err)
		e.cleanup(path)
		done(false)
		return "", ErrDownloadFailed
	}

	e.log.Successf("✅ 下载完成 %s", job.Filename)
	done(true)
	return path, nil
}

// cleanup 尽力删除部分下载的文件，删除失败不上报
func (e *Executor) cleanup(path string) {
	for _, p := range append([]string{path}, withSuffixes(path)...) {
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			e.log.Warnf("无法删除部分文件 %s: %v", p, err)
		}
	}
}

func withSuffixes(path string) []string {
	out := make([]string, 0, len(partialSuffixes))
	for _, s := range partialSuffixes {
		out = append(out, path+s)
	}
	return out
}
