package router

import (
	"errors"
	"fmt"
	"reflect"
	"sort"

	"github.com/gocrud/mvc/annotation"
	"github.com/gocrud/mvc/di"
	"github.com/gocrud/mvc/logging"
	"github.com/gocrud/mvc/metadata"
)

// CompiledRoute 一条已注册到 Transport 的路由
type CompiledRoute struct {
	Method     metadata.Method
	Path       string
	Controller reflect.Type
	Handler    string
}

// String 返回 "GET /users/:id -> *app.UserController.Get" 形式
func (r CompiledRoute) String() string {
	return fmt.Sprintf("%s %s -> %v.%s", r.Method, r.Path, r.Controller, r.Handler)
}

// Compiler 把控制器元数据编译为 Transport 上的路由
type Compiler struct {
	Registry *annotation.Registry
	Logger   logging.Logger
}

// NewCompiler 创建路由编译器，registry 为空时使用 annotation.Default()
func NewCompiler(registry *annotation.Registry, logger logging.Logger) *Compiler {
	if registry == nil {
		registry = annotation.Default()
	}
	return &Compiler{Registry: registry, Logger: logger}
}

// Compile 依次处理每个控制器：
//
//  1. 查找控制器元数据，缺失时记录并跳过；
//  2. 通过容器解析控制器实例（未注册为服务时是瞬态的）；
//  3. 路由按路径长度升序稳定排序，短路径先注册；
//  4. 以 prefix + path 为完整路径，向 Transport 注册绑定了实例和参数元数据的处理函数。
//
// 全部处理完后调用 transport.Activate()。
//
// 控制器解析失败或处理方法签名无效属于配置错误，立即返回且不激活 Transport。
// 缺失元数据的控制器以 *MissingControllerMetadataError 合并到返回的 error 中，
// 此时返回的路由仍然有效。
func (c *Compiler) Compile(transport Transport, controllers ...any) ([]CompiledRoute, error) {
	var (
		compiled []CompiledRoute
		skipped  []error
	)

	for _, controller := range controllers {
		typ, err := di.ClassType(controller)
		if err != nil {
			return compiled, fmt.Errorf("router: invalid controller %T: %w", controller, err)
		}

		meta, ok := c.Registry.Store.Controller(typ)
		if !ok {
			c.warn("Controller metadata not found, skipping", logging.Field{Key: "controller", Value: typ.String()})
			skipped = append(skipped, &MissingControllerMetadataError{Controller: typ})
			continue
		}

		instance, _, err := c.Registry.Resolve(controller)
		if err != nil {
			return compiled, fmt.Errorf("router: resolve controller %v: %w", typ, err)
		}

		routes := meta.Routes
		sort.SliceStable(routes, func(i, j int) bool {
			return len(routes[i].Path) < len(routes[j].Path)
		})

		for _, route := range routes {
			h, err := bind(instance, typ, route.HandlerName, c.Registry.Store.Params(typ, route.HandlerName))
			if err != nil {
				return compiled, err
			}

			fullPath := meta.Prefix + route.Path
			transport.RegisterRoute(string(route.Method), fullPath, h.handle)

			cr := CompiledRoute{
				Method:     route.Method,
				Path:       fullPath,
				Controller: typ,
				Handler:    route.HandlerName,
			}
			compiled = append(compiled, cr)
			c.debug("Mapped route", logging.Field{Key: "route", Value: cr.String()})
		}
	}

	transport.Activate()
	return compiled, errors.Join(skipped...)
}

func (c *Compiler) warn(msg string, fields ...logging.Field) {
	if c.Logger != nil {
		c.Logger.Warn(msg, fields...)
	}
}

func (c *Compiler) debug(msg string, fields ...logging.Field) {
	if c.Logger != nil {
		c.Logger.Debug(msg, fields...)
	}
}
