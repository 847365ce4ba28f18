// internal/api/response.go
package api

import (
	"github.com/Slade66/media-grabber/internal/status"
	"github.com/gin-gonic/gin"
)

// 返回给客户端的错误信息，不包含任何上游细节
const (
	msgNoURL         = "No URL provided"
	msgEmptyURL      = "URL is empty"
	msgUnsupported   = "Unsupported URL or domain"
	msgInvalidBody   = "Invalid JSON body"
	msgInfoFailed    = "Could not retrieve video information"
	msgDownloadFail  = "Download failed"
	msgTooLarge      = "File too large"
	msgInternalError = "Internal server error"
	msgFileNotFound  = "File not found"

	msgRecordNotFound = "Download not found"
)

type failureResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type infoResponse struct {
	Success   bool   `json:"success"`
	Title     string `json:"title"`
	Duration  int    `json:"duration"`
	Thumbnail string `json:"thumbnail"`
}

type downloadResponse struct {
	Success     bool   `json:"success"`
	DownloadURL string `json:"download_url"`
	Filename    string `json:"filename"`
}

// downloadSummary 是列表中一条记录的公开部分
type downloadSummary struct {
	Status     string `json:"status"`
	Progress   int    `json:"progress"`
	SubmitTime string `json:"submit_time"`
	FinishTime string `json:"finish_time,omitempty"`
}

type recordResponse struct {
	downloadSummary
	Filename string `json:"filename"`
	URL      string `json:"url"`
	Format   string `json:"format"`
	Error    string `json:"error,omitempty"`
}

func summarize(r status.Record) downloadSummary {
	return downloadSummary{
		Status:     r.Status,
		Progress:   r.Progress,
		SubmitTime: r.SubmitTime,
		FinishTime: r.FinishTime,
	}
}

func fail(c *gin.Context, code int, message string) {
	c.AbortWithStatusJSON(code, failureResponse{Success: false, Message: message})
}
