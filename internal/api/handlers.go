// internal/api/handlers.go
package api

import (
	_ "embed"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/Slade66/media-grabber/internal/media"
	"github.com/Slade66/media-grabber/internal/status"
	"github.com/Slade66/media-grabber/pkg/task"
	"github.com/gin-gonic/gin"
)

//go:embed static/index.html
var indexHTML []byte

type mediaRequest struct {
	URL    *string `json:"url"`
	Format string  `json:"format"`
}

// bindMediaRequest 解析并校验请求体，失败时已写入响应并返回 false
func (s *Server) bindMediaRequest(c *gin.Context) (*mediaRequest, string, bool) {
	var request mediaRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			fail(c, http.StatusRequestEntityTooLarge, msgTooLarge)
		case errors.Is(err, io.EOF):
			fail(c, http.StatusOK, msgNoURL)
		default:
			fail(c, http.StatusBadRequest, msgInvalidBody)
		}
		return nil, "", false
	}

	if request.URL == nil {
		fail(c, http.StatusOK, msgNoURL)
		return nil, "", false
	}

	url := strings.TrimSpace(*request.URL)
	if url == "" {
		fail(c, http.StatusOK, msgEmptyURL)
		return nil, "", false
	}
	if !media.IsSupported(url) {
		fail(c, http.StatusOK, msgUnsupported)
		return nil, "", false
	}
	return &request, url, true
}

// index 返回静态首页
func (s *Server) index(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", indexHTML)
}

// infoHandler 处理视频信息查询
func (s *Server) infoHandler(c *gin.Context) {
	_, url, ok := s.bindMediaRequest(c)
	if !ok {
		return
	}

	md, err := s.prober.Probe(c.Request.Context(), url)
	if err != nil {
		fail(c, http.StatusOK, msgInfoFailed)
		return
	}

	c.JSON(http.StatusOK, infoResponse{
		Success:   true,
		Title:     md.Title,
		Duration:  md.Duration,
		Thumbnail: md.Thumbnail,
	})
}

// downloadHandler 处理下载请求，下载完成后返回文件的获取地址
func (s *Server) downloadHandler(c *gin.Context) {
	request, url, ok := s.bindMediaRequest(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	job := s.executor.Prepare(url, request.Format)
	if err := s.recorder.Init(ctx, &status.Record{ID: job.Filename, URL: url, Format: job.Format}); err != nil {
		// 这是一个非关键性错误，只记录日志
		s.log.Warnf("无法初始化下载记录: %v", err)
	}

	// Run 已确认输出文件存在且非空
	path, err := s.executor.Run(ctx, job, status.ProgressObserver(ctx, s.recorder, job.Filename))
	if err != nil {
		if recErr := s.recorder.Fail(ctx, job.Filename, err.Error()); recErr != nil {
			s.log.Warnf("无法更新下载记录: %v", recErr)
		}
		fail(c, http.StatusOK, msgDownloadFail)
		return
	}

	if err := s.recorder.Complete(ctx, job.Filename); err != nil {
		s.log.Warnf("无法更新下载记录: %v", err)
	}
	if s.archiver != nil {
		if err := s.archiver.Publish(ctx, task.New(job.Filename, path)); err != nil {
			s.log.Warnf("无法投递归档任务 %s: %v", job.Filename, err)
		}
	}

	filename := filepath.Base(path)
	c.JSON(http.StatusOK, downloadResponse{
		Success:     true,
		DownloadURL: "/download/" + filename,
		Filename:    filename,
	})
}

// listHandler 返回所有下载记录的概要。文件名是下载凭证，因此不出现在列表中。
func (s *Server) listHandler(c *gin.Context) {
	records, err := s.recorder.List(c.Request.Context())
	if err != nil {
		s.log.Errorf("无法获取下载记录: %v", err)
		fail(c, http.StatusInternalServerError, msgInternalError)
		return
	}

	summaries := make([]downloadSummary, 0, len(records))
	for _, r := range records {
		summaries = append(summaries, summarize(r))
	}
	c.JSON(http.StatusOK, summaries)
}

// statusHandler 返回持有文件名的调用方自己的下载记录
func (s *Server) statusHandler(c *gin.Context) {
	rec, err := s.recorder.Get(c.Request.Context(), c.Param("id"))
	if errors.Is(err, status.ErrNotFound) {
		fail(c, http.StatusNotFound, msgRecordNotFound)
		return
	}
	if err != nil {
		s.log.Errorf("无法获取下载记录 %s: %v", c.Param("id"), err)
		fail(c, http.StatusInternalServerError, msgInternalError)
		return
	}

	c.JSON(http.StatusOK, recordResponse{
		downloadSummary: summarize(*rec),
		Filename:        rec.ID,
		URL:             rec.URL,
		Format:          rec.Format,
		Error:           rec.Error,
	})
}

// serveFileHandler 以附件形式返回已下载的文件
func (s *Server) serveFileHandler(c *gin.Context) {
	name := c.Param("filename")
	if name == "" || name == "." || name == ".." || name != filepath.Base(name) || strings.ContainsAny(name, `/\`) {
		c.String(http.StatusNotFound, msgFileNotFound)
		return
	}

	path := filepath.Join(s.executor.Dir(), name)
	st, err := os.Stat(path)
	if err != nil || !st.Mode().IsRegular() {
		c.String(http.StatusNotFound, msgFileNotFound)
		return
	}

	stem, _, _ := strings.Cut(name, ".")
	c.FileAttachment(path, "video_"+stem+media.DefaultExtension)
}
