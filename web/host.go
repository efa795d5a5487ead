package web

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gocrud/mvc/logging"
)

// Host Web 主机，作为托管服务运行 gin 引擎
type Host struct {
	port   int
	engine *gin.Engine
	server *http.Server
	logger logging.Logger

	mu    sync.RWMutex
	ready chan struct{}
}

// NewHost 创建 Web 主机，port 为 0 时随机选择端口
func NewHost(engine *gin.Engine, port int, logger logging.Logger) *Host {
	return &Host{
		port:   port,
		engine: engine,
		server: &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: engine,
		},
		logger: logger,
		ready:  make(chan struct{}),
	}
}

// Name 实现 hosting.Named
func (h *Host) Name() string {
	return "web"
}

// Address 获取监听地址 (e.g., "[::]:50234")
// 仅在 Start 后有效
func (h *Host) Address() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.server.Addr
}

// Ready 监听成功后关闭
func (h *Host) Ready() <-chan struct{} {
	return h.ready
}

// Start 启动 Web 主机
// 注意：此方法会阻塞，直到服务退出。框架会在独立的 Goroutine 中调用它。
func (h *Host) Start(ctx context.Context) error {
	addr := fmt.Sprintf(":%d", h.port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("web: failed to listen on %s: %w", addr, err)
	}

	h.mu.Lock()
	h.server.Addr = ln.Addr().String()
	h.mu.Unlock()
	close(h.ready)

	if h.logger != nil {
		h.logger.Info("Web host started",
			logging.Field{Key: "address", Value: h.Address()})
	}

	// Serve 会一直阻塞直到 Shutdown 被调用或发生错误
	if err := h.server.Serve(ln); err != nil && err != http.ErrServerClosed {
		if h.logger != nil {
			h.logger.Error("Web host error", logging.Field{Key: "error", Value: err.Error()})
		}
		return err
	}

	return nil
}

// Stop 停止 Web 主机
func (h *Host) Stop(ctx context.Context) error {
	if h.logger != nil {
		h.logger.Info("Stopping web host")
	}

	if err := h.server.Shutdown(ctx); err != nil {
		if h.logger != nil {
			h.logger.Error("Failed to shutdown web host gracefully",
				logging.Field{Key: "error", Value: err.Error()})
		}
		return err
	}

	if h.logger != nil {
		h.logger.Info("Web host stopped")
	}
	return nil
}
