// internal/uploader/obs_uploader.go
package uploader

import (
	"errors"
	"fmt"

	"github.com/Slade66/media-grabber/pkg/logger"
	"github.com/huaweicloud/huaweicloud-sdk-go-obs/obs"
)

// Uploader 把本地文件上传到对象存储
type Uploader interface {
	UploadFile(objectKey, filePath string) error
}

// ObsUploader 结构体封装了 OBS 客户端和配置
type ObsUploader struct {
	client *obs.ObsClient
	bucket string
	log    logger.Logger
}

// NewObsUploader 根据官方文档创建一个新的 OBS 上传器实例
func NewObsUploader(endpoint, ak, sk, bucket string) (*ObsUploader, error) {
	client, err := obs.New(ak, sk, endpoint)
	if err != nil {
		return nil, fmt.Errorf("无法创建 OBS 客户端: %w", err)
	}

	return &ObsUploader{
		client: client,
		bucket: bucket,
		log:    logger.Get("OBS"),
	}, nil
}

// UploadFile 将指定路径的本地文件上传到 OBS
func (u *ObsUploader) UploadFile(objectKey, filePath string) error {
	input := &obs.PutFileInput{}
	input.Bucket = u.bucket
	input.Key = objectKey
	input.SourceFile = filePath

	output, err := u.client.PutFile(input)
	if err != nil {
		// 尝试解析 OBS 返回的详细错误信息
		var obsError obs.ObsError
		if errors.As(err, &obsError) {
			return fmt.Errorf("上传失败，OBS错误码: %s, 错误信息: %s", obsError.Code, obsError.Message)
		}
		return fmt.Errorf("上传文件到 OBS 失败: %w", err)
	}

	u.log.Successf("文件 '%s' 已上传到 OBS 桶 '%s'，对象键为 '%s' (ETag: %s)", filePath, u.bucket, objectKey, output.ETag)
	return nil
}

// Close 关闭客户端连接
func (u *ObsUploader) Close() {
	if u.client != nil {
		u.client.Close()
	}
}
