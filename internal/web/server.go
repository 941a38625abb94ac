// Package web 是渲染边界：HTML 对比页、JSON API 与视频文件服务。
package web

import (
	"context"
	"errors"
	"html/template"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/John-Robertt/vidcmp/internal/app/view"
)

// Server 把 view.Renderer 暴露为 HTTP 服务。
type Server struct {
	renderer *view.Renderer
	logger   *zap.Logger
	tpl      *template.Template
	engine   *gin.Engine
}

// NewServer 构造路由。logger 为 nil 时不输出日志。
func NewServer(r *view.Renderer, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		renderer: r,
		logger:   logger,
		tpl:      template.Must(template.New("page").Funcs(funcs).Parse(pageTpl)),
	}

	e := gin.New()
	e.Use(requestID(), accessLog(logger), gin.Recovery())

	e.GET("/", s.handlePage)
	e.GET("/health", s.handleHealth)
	e.GET("/media/:category/:variant/:file", s.handleMedia)

	api := e.Group("/api")
	api.GET("/categories", s.handleCategories)
	api.GET("/categories/:name", s.handleCategory)
	api.POST("/refresh", s.handleRefresh)

	s.engine = e
	return s
}

// Handler 返回底层 http.Handler（测试直接使用）。
func (s *Server) Handler() http.Handler { return s.engine }

// Run 监听 addr 直到 ctx 结束，然后优雅关闭。
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
		// 视频是流式响应，不设 WriteTimeout。
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("web 服务已启动", zap.String("listen", addr), zap.String("root", s.renderer.Config().Root))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("收到退出信号，正在关闭 web 服务")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Warn("优雅关闭失败", zap.Error(err))
		_ = srv.Close()
		return err
	}
	return nil
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// mediaURL 把 RelPath（'/' 分隔）转成 /media/... 地址，每段单独转义。
func mediaURL(rel string) string {
	parts := strings.Split(rel, "/")
	for i := range parts {
		parts[i] = url.PathEscape(parts[i])
	}
	return "/media/" + strings.Join(parts, "/")
}

var funcs = template.FuncMap{
	"inc":      func(i int) int { return i + 1 },
	"mediaURL": mediaURL,
	"q":        url.QueryEscape,
}
