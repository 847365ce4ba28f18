// internal/media/media.go
package media

import (
	"net/url"
	"strings"
)

// 缺省值，提取结果中缺少对应字段时使用
const (
	DefaultTitle     = "Unknown Title"
	DefaultExtension = ".mp4"
)

// SupportedDomains 是允许处理的站点列表，按子串匹配主机名
var SupportedDomains = []string{
	"youtube.com", "youtu.be",
	"facebook.com", "fb.watch",
	"instagram.com", "instagr.am",
	"twitter.com", "t.co",
	"tiktok.com", "vm.tiktok.com",
	"vimeo.com", "dailymotion.com",
	"reddit.com", "soundcloud.com",
}

// Metadata 是返回给客户端的精简视频信息
type Metadata struct {
	Title     string `json:"title"`
	Duration  int    `json:"duration"`
	Thumbnail string `json:"thumbnail"`
}

// IsSupported 判断 URL 的主机部分是否包含任一受支持的域名。
// 这是粗粒度的子串匹配，"notyoutube.com.evil.example" 也会通过，
// 真正的校验交给提取库完成。
func IsSupported(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	host := strings.ToLower(u.Host)
	if host == "" {
		return false
	}
	for _, domain := range SupportedDomains {
		if strings.Contains(host, domain) {
			return true
		}
	}
	return false
}
