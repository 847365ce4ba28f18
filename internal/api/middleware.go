// internal/api/middleware.go
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// limitBody 限制请求体大小，超出时返回 413
func (s *Server) limitBody(c *gin.Context) {
	if c.Request.ContentLength > s.maxBody {
		fail(c, http.StatusRequestEntityTooLarge, msgTooLarge)
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.maxBody)
	c.Next()
}

// recovery 把处理过程中的 panic 转换为 500
func (s *Server) recovery(c *gin.Context, recovered any) {
	s.log.Errorf("🔥 请求 %s %s 发生未处理的错误: %v", c.Request.Method, c.Request.URL.Path, recovered)
	fail(c, http.StatusInternalServerError, msgInternalError)
}
