// pkg/fileinfo/fileinfo.go
package fileinfo

import (
	"fmt"
	"os"
	"time"
)

// Info 包含了本地文件的元信息
type Info struct {
	Size    int64
	ModTime time.Time
	Regular bool
}

// Get 读取本地文件的信息
func Get(path string) (*Info, error) {
	st, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("无法获取文件信息: %w", err)
	}
	return FromFileInfo(st), nil
}

// FromFileInfo 从 os.FileInfo 转换
func FromFileInfo(st os.FileInfo) *Info {
	return &Info{
		Size:    st.Size(),
		ModTime: st.ModTime(),
		Regular: st.Mode().IsRegular(),
	}
}

// Age 返回文件相对于 now 的年龄。文件只写入一次，修改时间即创建时间。
func (i *Info) Age(now time.Time) time.Duration {
	return now.Sub(i.ModTime)
}

// Exists 判断路径上是否存在非空的普通文件
func Exists(path string) bool {
	info, err := Get(path)
	return err == nil && info.Regular && info.Size > 0
}
