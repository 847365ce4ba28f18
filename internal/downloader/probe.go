// internal/downloader/probe.go
package downloader

import (
	"context"
	"errors"

	"github.com/Slade66/media-grabber/internal/extractor"
	"github.com/Slade66/media-grabber/internal/media"
	"github.com/Slade66/media-grabber/internal/metrics"
	"github.com/Slade66/media-grabber/pkg/logger"
)

// ErrProbeFailed 获取元信息失败时返回
var ErrProbeFailed = errors.New("could not retrieve video information")

// Prober 以不下载的方式获取视频信息
type Prober struct {
	ext     extractor.Extractor
	metrics *metrics.Metrics
	log     logger.Logger
}

// NewProber 创建一个新的 Prober
func NewProber(ext extractor.Extractor, m *metrics.Metrics) *Prober {
	return &Prober{ext: ext, metrics: m, log: logger.Get("Prober")}
}

// Probe 返回精简后的元信息，缺失字段使用缺省值
func (p *Prober) Probe(ctx context.Context, url string) (*media.Metadata, error) {
	info, err := p.ext.Probe(ctx, url)
	if err != nil {
		p.log.Errorf("获取视频信息失败 %s: %v", url, err)
		p.metrics.RecordProbe(false)
		return nil, ErrProbeFailed
	}
	p.metrics.RecordProbe(true)
	return toMetadata(info), nil
}

func toMetadata(info *extractor.Info) *media.Metadata {
	md := &media.Metadata{Title: media.DefaultTitle}
	if info.Title != nil {
		md.Title = *info.Title
	}
	if info.Duration != nil {
		md.Duration = int(*info.Duration)
	}
	if info.Thumbnail != nil {
		md.Thumbnail = *info.Thumbnail
	}
	return md
}
