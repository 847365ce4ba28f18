package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/Slade66/media-grabber/internal/api"
	"github.com/Slade66/media-grabber/internal/archive"
	"github.com/Slade66/media-grabber/internal/config"
	"github.com/Slade66/media-grabber/internal/downloader"
	"github.com/Slade66/media-grabber/internal/extractor"
	"github.com/Slade66/media-grabber/internal/metrics"
	"github.com/Slade66/media-grabber/internal/status"
	"github.com/Slade66/media-grabber/internal/sweeper"
	"github.com/Slade66/media-grabber/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
)

var log = logger.Get("Main")

// initRedis 初始化 Redis 连接
func initRedis(cfg config.RedisConfig) *redis.Client {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatalf("❌ API 无法连接到 Redis: %v", err)
	}
	log.Successf("✅ API 成功连接到 Redis!")
	return rdb
}

func main() {
	configPath := flag.String("config", "", "YAML 配置文件路径 (可选)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("❌ %v", err)
	}
	gin.SetMode(cfg.GinMode)

	if err := os.MkdirAll(cfg.DownloadDir, 0755); err != nil {
		log.Fatalf("❌ 无法创建下载目录 %s: %v", cfg.DownloadDir, err)
	}

	if cfg.YtdlpAutoInstall {
		if err := extractor.Install(context.Background()); err != nil {
			log.Fatalf("❌ %v", err)
		}
	}

	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	ext := extractor.NewYtdlp()
	executor := downloader.NewExecutor(cfg.DownloadDir, ext, m)
	executor.SetDefaultFormat(cfg.DefaultFormat)
	prober := downloader.NewProber(ext, m)

	var opts []api.Option
	if cfg.Redis.Addr != "" {
		rdb := initRedis(cfg.Redis)
		defer rdb.Close()
		opts = append(opts, api.WithRecorder(status.NewManager(rdb, cfg.Retention)))
		if cfg.Archive.Enabled {
			opts = append(opts, api.WithArchiver(archive.NewPublisher(rdb)))
			log.Infof("归档已启用，下载完成的文件将被投递到 '%s'", archive.StreamName)
		}
	} else {
		log.Warnf("未配置 REDIS_ADDR，下载记录功能已关闭")
	}

	// 清理任务在整个进程生命周期内运行
	go sweeper.New(cfg.DownloadDir, cfg.Retention, cfg.SweepInterval, m).Run(context.Background())

	server := api.NewServer(prober, executor, cfg.MaxContentLength, opts...)
	srv := server.NewHTTPServer(cfg.ListenAddr(), registry)

	log.Infof("🚀 API 服务已启动，监听 %s", cfg.ListenAddr())
	if err := srv.ListenAndServe(); err != nil {
		log.Fatalf("❌ HTTP 服务异常退出: %v", err)
	}
}
