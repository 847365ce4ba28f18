package main

import (
	"context"
	"flag"
	"time"

	"github.com/Slade66/media-grabber/internal/archive"
	"github.com/Slade66/media-grabber/internal/config"
	"github.com/Slade66/media-grabber/internal/status"
	"github.com/Slade66/media-grabber/internal/uploader"
	"github.com/Slade66/media-grabber/pkg/logger"
	"github.com/redis/go-redis/v9"
)

var log = logger.Get("Worker")

// initRedis 初始化 Redis 连接
func initRedis(cfg config.RedisConfig) *redis.Client {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatalf("❌ Worker 无法连接到 Redis: %v", err)
	}
	log.Successf("✅ Worker 成功连接到 Redis!")
	return rdb
}

// main 是归档 Worker 的入口，需要与 API 服务共享下载目录
func main() {
	configPath := flag.String("config", "", "YAML 配置文件路径 (可选)")
	consumer := flag.String("consumer", "", "消费者名称 (默认为主机名)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("❌ %v", err)
	}
	if !cfg.Archive.Enabled {
		log.Fatalf("❌ 归档未启用，请设置 ARCHIVE_ENABLED=true")
	}

	rdb := initRedis(cfg.Redis)
	defer rdb.Close()

	obsUploader, err := uploader.NewObsUploader(cfg.Archive.Endpoint, cfg.Archive.AK, cfg.Archive.SK, cfg.Archive.Bucket)
	if err != nil {
		log.Fatalf("❌ 初始化 OBS Uploader 失败: %v", err)
	}
	defer obsUploader.Close()
	log.Successf("✅ OBS Uploader 初始化成功。")

	ctx := context.Background()
	worker := archive.NewWorker(rdb, obsUploader, status.NewManager(rdb, cfg.Retention), *consumer)
	if err := worker.EnsureGroup(ctx); err != nil {
		log.Fatalf("❌ %v", err)
	}

	worker.Run(ctx)
}
