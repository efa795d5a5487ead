package web

import "github.com/gin-gonic/gin"

// NewEngine 创建 gin 引擎。mode 为空时使用发布模式，默认挂载 Recovery 中间件
func NewEngine(mode string) *gin.Engine {
	if mode == "" {
		mode = gin.ReleaseMode
	}
	gin.SetMode(mode)

	engine := gin.New()
	engine.Use(gin.Recovery())
	return engine
}
