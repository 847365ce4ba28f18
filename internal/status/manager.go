package status

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/Slade66/media-grabber/internal/observer"
	"github.com/Slade66/media-grabber/pkg/logger"
	"github.com/redis/go-redis/v9"
)

// 下载记录的状态
const (
	StatusDownloading = "downloading"
	StatusCompleted   = "completed"
	StatusFailed      = "failed"
	StatusArchived    = "archived"
)

// Record 定义了一次下载的状态信息，用于JSON序列化
type Record struct {
	ID         string `json:"id"`
	URL        string `json:"url"`
	Format     string `json:"format"`
	Status     string `json:"status"`
	Progress   int    `json:"progress"`
	SubmitTime string `json:"submit_time"`
	FinishTime string `json:"finish_time,omitempty"`
	Error      string `json:"error,omitempty"`
}

// ErrNotFound 表示记录不存在或已过期
var ErrNotFound = errors.New("download record not found")

// Recorder 记录下载的生命周期
type Recorder interface {
	Init(ctx context.Context, rec *Record) error
	UpdateProgress(ctx context.Context, id string, percent int) error
	Complete(ctx context.Context, id string) error
	Fail(ctx context.Context, id, errMsg string) error
	MarkArchived(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (*Record, error)
	List(ctx context.Context) ([]Record, error)
}

// updateScript 只在记录仍然存在时写入字段，避免给已过期的记录重建一个没有 TTL 的键
var updateScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
	return 0
end
redis.call('HSET', KEYS[1], unpack(ARGV))
return 1
`)

// Manager 结构体封装了与Redis的交互
type Manager struct {
	rdb *redis.Client
	ttl time.Duration
	log logger.Logger
}

// NewManager 创建一个新的状态管理器实例，记录在 ttl 之后过期（与文件保留时长一致）
func NewManager(rdb *redis.Client, ttl time.Duration) *Manager {
	return &Manager{rdb: rdb, ttl: ttl, log: logger.Get("Status")}
}

// recordKey 返回一条下载记录在Redis中的键名
func (m *Manager) recordKey(id string) string {
	return fmt.Sprintf("download:status:%s", id)
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// Init 初始化一条新的下载记录，状态为 "downloading"
func (m *Manager) Init(ctx context.Context, rec *Record) error {
	key := m.recordKey(rec.ID)
	values := map[string]interface{}{
		"id":          rec.ID,
		"url":         rec.URL,
		"format":      rec.Format,
		"status":      StatusDownloading,
		"progress":    0,
		"submit_time": now(),
	}

	pipe := m.rdb.TxPipeline()
	pipe.HSet(ctx, key, values)
	pipe.Expire(ctx, key, m.ttl)
	_, err := pipe.Exec(ctx)
	return err
}

// update 更新已存在记录的字段，记录已过期时返回 ErrNotFound
func (m *Manager) update(ctx context.Context, id string, fields ...interface{}) error {
	updated, err := updateScript.Run(ctx, m.rdb, []string{m.recordKey(id)}, fields...).Int()
	if err != nil {
		return err
	}
	if updated == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateProgress 更新下载进度（百分比）
func (m *Manager) UpdateProgress(ctx context.Context, id string, percent int) error {
	return m.update(ctx, id, "progress", percent)
}

// Complete 标记下载完成
func (m *Manager) Complete(ctx context.Context, id string) error {
	return m.update(ctx, id,
		"status", StatusCompleted,
		"progress", 100,
		"finish_time", now(),
	)
}

// Fail 更新状态为 "failed" 并记录错误信息
func (m *Manager) Fail(ctx context.Context, id, errMsg string) error {
	return m.update(ctx, id,
		"status", StatusFailed,
		"error", errMsg,
		"finish_time", now(),
	)
}

// MarkArchived 标记文件已镜像到对象存储
func (m *Manager) MarkArchived(ctx context.Context, id string) error {
	return m.update(ctx, id, "status", StatusArchived)
}

// Get 按 ID 读取一条下载记录
func (m *Manager) Get(ctx context.Context, id string) (*Record, error) {
	data, err := m.rdb.HGetAll(ctx, m.recordKey(id)).Result()
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, ErrNotFound
	}
	rec := fromHash(data)
	return &rec, nil
}

// List 获取所有未过期的下载记录
func (m *Manager) List(ctx context.Context) ([]Record, error) {
	records := make([]Record, 0)

	iter := m.rdb.Scan(ctx, 0, m.recordKey("*"), 100).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		data, err := m.rdb.HGetAll(ctx, key).Result()
		if err != nil {
			// 如果某个键读取失败，记录日志并跳过它继续处理其他的
			m.log.Warnf("无法读取下载记录 key '%s': %v", key, err)
			continue
		}
		if len(data) == 0 {
			continue
		}

		records = append(records, fromHash(data))
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

func fromHash(data map[string]string) Record {
	progress, _ := strconv.Atoi(data["progress"])
	return Record{
		ID:         data["id"],
		URL:        data["url"],
		Format:     data["format"],
		Status:     data["status"],
		Progress:   progress,
		SubmitTime: data["submit_time"],
		FinishTime: data["finish_time"],
		Error:      data["error"],
	}
}

// ProgressObserver 返回一个把下载进度写入记录的观察者，只在百分比变化时写入。
// 写入失败只记录第一次，之后的失败静默忽略。
func ProgressObserver(ctx context.Context, r Recorder, id string) observer.Observer {
	last := -1
	warned := false
	return observer.Func(func(downloaded, total int64) {
		if total <= 0 {
			return
		}
		percent := int(downloaded * 100 / total)
		if percent > 100 {
			percent = 100
		}
		if percent == last {
			return
		}
		last = percent
		if err := r.UpdateProgress(ctx, id, percent); err != nil && !warned {
			warned = true
			logger.Get("Status").Warnf("无法更新下载进度 %s: %v", id, err)
		}
	})
}
