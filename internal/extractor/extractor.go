// internal/extractor/extractor.go
package extractor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lrstanley/go-ytdlp"
)

// ErrNoInfo 表示提取库成功返回但没有任何可解析的信息
var ErrNoInfo = errors.New("extractor returned no info")

// Info 是提取库返回信息中我们关心的部分，缺失字段为 nil
type Info struct {
	Title     *string
	Duration  *float64
	Thumbnail *string
}

// Progress 描述一次下载的进度
type Progress struct {
	Downloaded int64
	Total      int64
}

// Extractor 把第三方提取库收窄为两个操作
type Extractor interface {
	// Probe 只获取元信息，不下载任何字节
	Probe(ctx context.Context, url string) (*Info, error)
	// Fetch 按格式选择器把媒体写入 dest
	Fetch(ctx context.Context, url, format, dest string, onProgress func(Progress)) error
}

// YtdlpExtractor 基于 yt-dlp 实现 Extractor
type YtdlpExtractor struct {
	progressInterval time.Duration
}

// NewYtdlp 创建一个新的 yt-dlp 提取器
func NewYtdlp() *YtdlpExtractor {
	return &YtdlpExtractor{progressInterval: 500 * time.Millisecond}
}

// Install 确保 yt-dlp 可执行文件可用，必要时自动下载
func Install(ctx context.Context) error {
	if _, err := ytdlp.Install(ctx, nil); err != nil {
		return fmt.Errorf("无法安装 yt-dlp: %w", err)
	}
	return nil
}

// Probe 实现 Extractor
func (y *YtdlpExtractor) Probe(ctx context.Context, url string) (*Info, error) {
	dl := ytdlp.New().
		Quiet().
		NoWarnings().
		SkipDownload().
		DumpJSON()

	result, err := dl.Run(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("yt-dlp 获取信息失败: %w", err)
	}

	infos, err := result.GetExtractedInfo()
	if err != nil {
		return nil, fmt.Errorf("无法解析 yt-dlp 输出: %w", err)
	}
	if len(infos) == 0 || infos[0] == nil {
		return nil, ErrNoInfo
	}

	return &Info{
		Title:     infos[0].Title,
		Duration:  infos[0].Duration,
		Thumbnail: infos[0].Thumbnail,
	}, nil
}

// Fetch 实现 Extractor
func (y *YtdlpExtractor) Fetch(ctx context.Context, url, format, dest string, onProgress func(Progress)) error {
	dl := ytdlp.New().
		Quiet().
		ForceOverwrites().
		Format(format).
		Output(dest)

	if onProgress != nil {
		dl.ProgressFunc(y.progressInterval, func(update ytdlp.ProgressUpdate) {
			onProgress(Progress{
				Downloaded: int64(update.DownloadedBytes),
				Total:      int64(update.TotalBytes),
			})
		})
	}

	if _, err := dl.Run(ctx, url); err != nil {
		return fmt.Errorf("yt-dlp 下载失败: %w", err)
	}
	return nil
}
