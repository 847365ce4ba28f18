// internal/api/server.go
package api

import (
	"context"
	"net/http"

	"github.com/Slade66/media-grabber/internal/downloader"
	"github.com/Slade66/media-grabber/internal/media"
	"github.com/Slade66/media-grabber/internal/observer"
	"github.com/Slade66/media-grabber/internal/status"
	"github.com/Slade66/media-grabber/pkg/logger"
	"github.com/Slade66/media-grabber/pkg/task"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Prober 获取视频元信息
type Prober interface {
	Probe(ctx context.Context, url string) (*media.Metadata, error)
}

// Executor 执行下载
type Executor interface {
	Dir() string
	Prepare(url, format string) *downloader.Job
	Run(ctx context.Context, job *downloader.Job, observers ...observer.Observer) (string, error)
}

// Archiver 投递归档任务
type Archiver interface {
	Publish(ctx context.Context, t *task.ArchiveTask) error
}

// Server 持有请求处理所需的全部依赖
type Server struct {
	prober   Prober
	executor Executor
	recorder status.Recorder
	archiver Archiver
	maxBody  int64
	log      logger.Logger
}

// Option 用于配置 Server 的可选依赖
type Option func(*Server)

// WithRecorder 设置下载记录器
func WithRecorder(r status.Recorder) Option {
	return func(s *Server) { s.recorder = r }
}

// WithArchiver 启用下载完成后的归档
func WithArchiver(a Archiver) Option {
	return func(s *Server) { s.archiver = a }
}

// NewServer 创建一个新的 Server
func NewServer(prober Prober, executor Executor, maxBody int64, opts ...Option) *Server {
	s := &Server{
		prober:   prober,
		executor: executor,
		recorder: status.Nop{},
		maxBody:  maxBody,
		log:      logger.Get("API"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Router 组装 gin 路由
func (s *Server) Router(gatherer prometheus.Gatherer) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger(), gin.CustomRecovery(s.recovery), cors.Default())

	router.GET("/", s.index)

	api := router.Group("/api")
	api.Use(s.limitBody)
	{
		api.POST("/info", s.infoHandler)
		api.POST("/download", s.downloadHandler)
		api.GET("/downloads", s.listHandler)
		api.GET("/downloads/:id", s.statusHandler)
	}

	router.GET("/download/:filename", s.serveFileHandler)

	if gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}

	return router
}

// NewHTTPServer 返回绑定到 addr 的 http.Server
func (s *Server) NewHTTPServer(addr string, gatherer prometheus.Gatherer) *http.Server {
	return &http.Server{
		Addr:    addr,
		Handler: s.Router(gatherer),
	}
}
