// main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/Slade66/media-grabber/internal/downloader"
	"github.com/Slade66/media-grabber/internal/extractor"
	"github.com/Slade66/media-grabber/internal/media"
	"github.com/Slade66/media-grabber/internal/observer"
	"github.com/Slade66/media-grabber/pkg/logger"
)

var log = logger.Get("CLI")

func main() {
	// 1. 参数解析
	urlStr := flag.String("url", "", "要下载的媒体页面 URL (必须)")
	format := flag.String("format", downloader.DefaultFormat, "yt-dlp 格式选择器")
	dir := flag.String("dir", "downloads", "文件保存目录")
	flag.Parse()

	// 2. 参数校验
	if *urlStr == "" {
		fmt.Println("错误: -url 参数是必须的")
		flag.Usage()
		os.Exit(1)
	}
	if !media.IsSupported(*urlStr) {
		log.Fatalf("❌ 不支持的 URL 或域名: %s", *urlStr)
	}
	if err := os.MkdirAll(*dir, 0755); err != nil {
		log.Fatalf("❌ 无法创建目录 %s: %v", *dir, err)
	}

	ctx := context.Background()
	ext := extractor.NewYtdlp()

	// 3. 获取视频信息
	log.Infof("🔎 正在获取视频信息...")
	md, err := downloader.NewProber(ext, nil).Probe(ctx, *urlStr)
	if err != nil {
		log.Fatalf("❌ %v", err)
	}
	log.Infof("标题: %s, 时长: %d 秒", md.Title, md.Duration)

	// 4. 创建下载器和观察者
	d := downloader.NewExecutor(*dir, ext, nil)
	d.AddObserver(observer.NewProgressBarObserver())

	// 5. 启动下载
	log.Infof("🚀 开始下载...")
	path, err := d.Download(ctx, *urlStr, *format)
	if err != nil {
		log.Fatalf("❌ %v", err)
	}
	log.Successf("✅ 文件下载完成: %s", path)
}
