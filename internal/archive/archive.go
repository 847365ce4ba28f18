// internal/archive/archive.go
package archive

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/Slade66/media-grabber/internal/status"
	"github.com/Slade66/media-grabber/internal/uploader"
	"github.com/Slade66/media-grabber/pkg/logger"
	"github.com/Slade66/media-grabber/pkg/task"
	"github.com/redis/go-redis/v9"
)

const (
	// 归档任务所在的 Redis Stream 的键名
	StreamName = "archive_tasks"
	// 消费者组的名称
	GroupName = "archive-group"
	// 读取失败后的等待时间
	retryDelay = 5 * time.Second
)

// Publisher 把归档任务投递到 Stream
type Publisher struct {
	rdb *redis.Client
}

// NewPublisher 创建一个新的 Publisher
func NewPublisher(rdb *redis.Client) *Publisher {
	return &Publisher{rdb: rdb}
}

// Publish 投递一个归档任务
func (p *Publisher) Publish(ctx context.Context, t *task.ArchiveTask) error {
	payload, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("无法序列化归档任务: %w", err)
	}
	return p.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: StreamName,
		Values: map[string]interface{}{"payload": payload},
	}).Err()
}

// Worker 消费归档任务并上传到对象存储
type Worker struct {
	rdb      *redis.Client
	uploader uploader.Uploader
	recorder status.Recorder
	consumer string
	block    time.Duration
	log      logger.Logger
}

// NewWorker 创建一个新的 Worker，consumer 为空时使用主机名
func NewWorker(rdb *redis.Client, up uploader.Uploader, rec status.Recorder, consumer string) *Worker {
	if consumer == "" {
		host, err := os.Hostname()
		if err != nil {
			host = fmt.Sprintf("worker-%d", time.Now().Unix())
		}
		consumer = host
	}
	return &Worker{
		rdb:      rdb,
		uploader: up,
		recorder: rec,
		consumer: consumer,
		log:      logger.Get("Archive"),
	}
}

// EnsureGroup 确保消费者组存在，如果不存在则创建
func (w *Worker) EnsureGroup(ctx context.Context) error {
	err := w.rdb.XGroupCreateMkStream(ctx, StreamName, GroupName, "$").Err()
	if err != nil {
		if strings.Contains(err.Error(), "BUSYGROUP") {
			w.log.Infof("消费者组 '%s' 已存在，无需创建。", GroupName)
			return nil
		}
		return fmt.Errorf("无法创建消费者组: %w", err)
	}
	w.log.Infof("成功创建消费者组 '%s' 并关联到 Stream '%s'。", GroupName, StreamName)
	return nil
}

// Run 是 Worker 的主循环，持续处理任务直到 ctx 结束
func (w *Worker) Run(ctx context.Context) {
	w.log.Infof("▶️ Worker '%s' 开始监听归档任务...", w.consumer)
	for ctx.Err() == nil {
		if _, err := w.ProcessOne(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			w.log.Errorf("❌ 从 Redis Stream 读取任务失败: %v。%s后重试...", err, retryDelay)
			select {
			case <-time.After(retryDelay):
			case <-ctx.Done():
				return
			}
		}
	}
}

// ProcessOne 读取并处理一条消息。没有消息时返回 false 和 nil。
// 只有读取 Stream 本身失败时才返回错误；单个任务的失败只记录日志。
func (w *Worker) ProcessOne(ctx context.Context) (bool, error) {
	streams, err := w.rdb.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    GroupName,
		Consumer: w.consumer,
		Streams:  []string{StreamName, ">"}, // ">" 表示只接收从未被消费过的新消息
		Count:    1,
		Block:    w.block,
	}).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if len(streams) == 0 || len(streams[0].Messages) == 0 {
		return false, nil
	}

	message := streams[0].Messages[0]
	payload, _ := message.Values["payload"].(string)

	var t task.ArchiveTask
	if err := json.Unmarshal([]byte(payload), &t); err != nil {
		w.log.Errorf("‼️ 无法解析任务 payload: %v。Payload: %s", err, payload)
		// 解析失败的任务直接 ACK 并跳过，防止阻塞队列
		w.ack(ctx, message.ID)
		return true, nil
	}

	w.log.Infof("👍 接收到归档任务: [ID: %s, 文件: %s]", t.ID, t.Filename)

	if err := w.uploader.UploadFile(t.Filename, t.Path); err != nil {
		// 失败的任务不 ACK，以便后续可以重试或手动处理
		w.log.Errorf("🔥 归档失败: [ID: %s], 错误: %v", t.ID, err)
		return true, nil
	}

	if err := w.recorder.MarkArchived(ctx, t.Filename); err != nil {
		w.log.Warnf("无法更新下载记录 %s: %v", t.Filename, err)
	}
	w.ack(ctx, message.ID)
	w.log.Successf("✅ 归档完成: [ID: %s]", t.ID)
	return true, nil
}

func (w *Worker) ack(ctx context.Context, id string) {
	if err := w.rdb.XAck(ctx, StreamName, GroupName, id).Err(); err != nil {
		w.log.Errorf("‼️ 关键错误: 无法 ACK 任务 %s: %v", id, err)
	}
}
