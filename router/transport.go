package router

// Transport 是路由编译器的下游：底层的 HTTP 路由实现。
//
// 编译器按顺序调用 RegisterRoute，全部控制器处理完后调用一次 Activate，
// 由实现安装路由表以及 "method not allowed" 的兜底响应。
type Transport interface {
	RegisterRoute(method, path string, handler HandlerFunc)
	Activate()
}

// HandlerFunc 由编译器生成、交给 Transport 的请求处理函数
type HandlerFunc func(ctx Context, next Next) error

// Next 调用后续的处理链
type Next func() error

// Context 请求上下文
type Context interface {
	// Query 查询参数。单值为 string，多值为 []string
	Query() map[string]any
	// ParsedBody 解析后的请求体
	ParsedBody() (any, error)
	// PathParams 路径参数
	PathParams() map[string]string
	// SetBody 设置响应体
	SetBody(v any)
}

// Native 由包装了底层框架上下文的 Context 实现，
// 使处理方法可以直接声明底层类型的参数（例如 *gin.Context）
type Native interface {
	Native() any
}
