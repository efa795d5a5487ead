// Package annotation 用显式的声明调用代替装饰器：
// 标记服务、控制器、路由以及处理方法的参数绑定。
//
// 声明通常写在 init() 中，包级函数作用于 Default() 注册表：
//
//	func init() {
//		annotation.Service(NewUserService)
//		annotation.Controller(NewUserController, "/users").
//			Get("/", "List", annotation.Query(0)).
//			Get("/:id", "Get", annotation.Param(0, "id")).
//			Post("/", "Create", annotation.Body(0), annotation.Ctx(1))
//	}
package annotation

import (
	"reflect"

	"github.com/gocrud/mvc/di"
	"github.com/gocrud/mvc/metadata"
)

// Service 在默认注册表上声明服务
func Service(class any, opts ...di.Option) reflect.Type {
	return Default().Service(class, opts...)
}

// Controller 在默认注册表上声明控制器
func Controller(class any, prefix string) *ControllerDecl {
	return Default().Controller(class, prefix)
}

// Route 在默认注册表上声明路由
func Route(class any, method metadata.Method, path, handler string, params ...metadata.ParamMetadata) {
	Default().Route(class, method, path, handler, params...)
}
