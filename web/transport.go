package web

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gocrud/mvc/logging"
	"github.com/gocrud/mvc/router"
)

var _ router.Transport = (*Transport)(nil)

// ErrorHandler 把处理函数返回的错误写成响应
type ErrorHandler func(c *gin.Context, err error)

type pendingRoute struct {
	method  string
	path    string
	handler router.HandlerFunc
}

// Transport 基于 gin 的路由实现。
// RegisterRoute 只记录路由，Activate 时按注册顺序安装到引擎上。
type Transport struct {
	engine       *gin.Engine
	prefix       string
	logger       logging.Logger
	errorHandler ErrorHandler

	pending  []pendingRoute
	noMethod bool
}

// TransportOption 配置 Transport
type TransportOption func(*Transport)

// WithPrefix 所有路由挂在统一前缀下
func WithPrefix(prefix string) TransportOption {
	return func(t *Transport) {
		t.prefix = strings.TrimSuffix(prefix, "/")
	}
}

// WithErrorHandler 自定义错误响应
func WithErrorHandler(h ErrorHandler) TransportOption {
	return func(t *Transport) {
		t.errorHandler = h
	}
}

// WithTransportLogger 设置日志记录器
func WithTransportLogger(logger logging.Logger) TransportOption {
	return func(t *Transport) {
		t.logger = logger
	}
}

// NewTransport 创建 gin Transport
func NewTransport(engine *gin.Engine, opts ...TransportOption) *Transport {
	t := &Transport{
		engine: engine,
	}
	t.errorHandler = t.defaultErrorHandler
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Engine 获取 Gin 引擎
func (t *Transport) Engine() *gin.Engine {
	return t.engine
}

// RegisterRoute 记录一条路由
func (t *Transport) RegisterRoute(method, path string, handler router.HandlerFunc) {
	t.pending = append(t.pending, pendingRoute{method: method, path: path, handler: handler})
}

// Activate 安装已记录的路由，并启用 405 兜底响应
func (t *Transport) Activate() {
	for _, r := range t.pending {
		t.engine.Handle(r.method, joinPath(t.prefix, r.path), t.wrap(r.handler))
	}
	t.pending = nil

	if !t.noMethod {
		t.noMethod = true
		t.engine.HandleMethodNotAllowed = true
		t.engine.NoMethod(func(c *gin.Context) {
			c.AbortWithStatusJSON(http.StatusMethodNotAllowed, gin.H{"error": http.StatusText(http.StatusMethodNotAllowed)})
		})
	}
}

// joinPath 拼接统一前缀和路由路径，两者都为空时挂在根路径
func joinPath(prefix, path string) string {
	full := prefix + path
	if full == "" {
		return "/"
	}
	if full[0] != '/' {
		full = "/" + full
	}
	return full
}

func (t *Transport) wrap(handler router.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := newContext(c)
		next := func() error {
			c.Next()
			return nil
		}

		if err := handler(ctx, next); err != nil {
			_ = c.Error(err)
			t.errorHandler(c, err)
			return
		}
		ctx.write()
	}
}

// defaultErrorHandler 参数错误返回 400，其余返回 500
func (t *Transport) defaultErrorHandler(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	var argErr *router.ArgumentError
	if errors.As(err, &argErr) {
		status = http.StatusBadRequest
	}

	if t.logger != nil {
		t.logger.Error("Request failed",
			logging.Field{Key: "method", Value: c.Request.Method},
			logging.Field{Key: "path", Value: c.FullPath()},
			logging.Field{Key: "status", Value: status},
			logging.Field{Key: "error", Value: err.Error()})
	}

	if c.Writer.Written() {
		return
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}
