package task

import "github.com/google/uuid"

// ArchiveTask 定义了一个归档任务，它将作为消息在 Redis Stream 中传递。
type ArchiveTask struct {
	// 任务的唯一标识符，由 API 服务在下载完成时生成。
	ID uuid.UUID `json:"id"`

	// 下载令牌，即存储目录中的文件名，同时用作 OBS 中的对象键。
	Filename string `json:"filename"`

	// 文件在 API 服务所在主机上的完整路径。
	// Worker 需要与 API 共享存储目录。
	Path string `json:"path"`
}

// New 为已完成的下载创建归档任务
func New(filename, path string) *ArchiveTask {
	return &ArchiveTask{
		ID:       uuid.New(),
		Filename: filename,
		Path:     path,
	}
}
