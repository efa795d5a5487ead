package metadata

import "strings"

// Scope 服务的生命周期
type Scope string

const (
	ScopeSingleton Scope = "singleton"
	ScopeTransient Scope = "transient"
)

// Method HTTP 方法
type Method string

const (
	MethodGet    Method = "GET"
	MethodPost   Method = "POST"
	MethodPut    Method = "PUT"
	MethodDelete Method = "DELETE"
	MethodPatch  Method = "PATCH"
)

// Valid 判断是否为支持的 HTTP 方法
func (m Method) Valid() bool {
	switch m {
	case MethodGet, MethodPost, MethodPut, MethodDelete, MethodPatch:
		return true
	}
	return false
}

// ParseMethod 把大小写不敏感的方法名转换为 Method
func ParseMethod(s string) (Method, bool) {
	m := Method(strings.ToUpper(s))
	return m, m.Valid()
}

// ParamType 参数绑定的来源
type ParamType string

const (
	ParamQuery ParamType = "QUERY"
	ParamBody  ParamType = "BODY"
	ParamPath  ParamType = "PARAM"
	ParamCtx   ParamType = "CTX"
	ParamNext  ParamType = "NEXT"
)

// ServiceMetadata 服务元数据
type ServiceMetadata struct {
	Scope Scope
}

// RouteMetadata 路由元数据，每个处理方法一条
type RouteMetadata struct {
	Path        string
	Method      Method
	HandlerName string
}

// ControllerMetadata 控制器元数据
type ControllerMetadata struct {
	Prefix string
	Routes []RouteMetadata
}

// ParamMetadata 参数元数据
type ParamMetadata struct {
	// Index 处理方法的参数下标（不含接收者）
	Index int
	Type  ParamType
	// Key 为空时绑定整个映射
	Key string
}

// NormalizePath 把 "/" 规范化为空串，使只有前缀的路由也能工作
func NormalizePath(path string) string {
	if path == "/" {
		return ""
	}
	return path
}
