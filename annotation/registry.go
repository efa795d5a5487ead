package annotation

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/gocrud/mvc/di"
	"github.com/gocrud/mvc/metadata"
)

// Registry 声明期的上下文对象：元数据存储 + DI 容器。
//
// 声明阶段单写，编译和请求阶段多读。路由编译器和应用外壳都显式地接收它。
type Registry struct {
	Store     *metadata.Store
	Container *di.Container

	mu sync.RWMutex
	// classes 类型 -> 声明时传入的类（构造函数或类型）
	classes map[reflect.Type]any
}

// NewRegistry 创建独立的注册表
func NewRegistry() *Registry {
	return newRegistry(metadata.NewStore(), di.NewContainer())
}

func newRegistry(store *metadata.Store, container *di.Container) *Registry {
	return &Registry{
		Store:     store,
		Container: container,
		classes:   make(map[reflect.Type]any),
	}
}

var (
	defaultRegistry *Registry
	defaultOnce     sync.Once
)

// Default 返回进程级的注册表，它使用 di.Default() 作为容器
func Default() *Registry {
	defaultOnce.Do(func() {
		defaultRegistry = newRegistry(metadata.NewStore(), di.Default())
	})
	return defaultRegistry
}

// Service 把类标记为服务，并以类本身为令牌注册到容器。
// class 可以是构造函数、结构体类型（reflect.Type）或结构体指针。
//
//	annotation.Service(NewUserService)
//	annotation.Service(NewRequestScoped, di.WithTransient())
func (r *Registry) Service(class any, opts ...di.Option) reflect.Type {
	typ := r.classType(class)

	scope := metadata.ScopeSingleton
	if di.ScopeOf(opts...) == di.ScopeTransient {
		scope = metadata.ScopeTransient
	}

	r.Store.SetService(typ, metadata.ServiceMetadata{Scope: scope})
	r.Container.Register(typ, class, opts...)
	return typ
}

// Controller 把类标记为控制器。重复声明只会更新前缀，不会丢弃已经记录的路由。
//
//	annotation.Controller(NewUserController, "/users").
//		Get("/", "List").
//		Get("/:id", "Get", annotation.Param(0, "id"))
func (r *Registry) Controller(class any, prefix string) *ControllerDecl {
	typ := r.classType(class)
	r.Store.MergeController(typ, prefix)
	return &ControllerDecl{registry: r, class: typ}
}

// Route 为类的一个方法声明路由及其参数绑定。
// 方法不存在、HTTP 方法不支持或参数下标越界属于编程错误，会 panic。
func (r *Registry) Route(class any, method metadata.Method, path, handler string, params ...metadata.ParamMetadata) {
	typ := r.classType(class)
	if err := validateRoute(typ, method, handler, params); err != nil {
		panic(err.Error())
	}

	r.Store.AddRoute(typ, metadata.RouteMetadata{
		Path:        path,
		Method:      method,
		HandlerName: handler,
	})
	for _, p := range params {
		r.Store.AddParam(typ, handler, p)
	}
}

// Class 返回某个类型声明时使用的类，未声明时返回类型本身
func (r *Registry) Class(typ reflect.Type) any {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if class, ok := r.classes[typ]; ok {
		return class
	}
	return typ
}

// Resolve 解析类的实例。
//
// 已注册为服务的类按注册项解析；以类型传入但声明时给了构造函数的类，
// 使用该构造函数；已经构建好的结构体指针直接返回。
func (r *Registry) Resolve(class any) (any, reflect.Type, error) {
	typ, err := di.ClassType(class)
	if err != nil {
		return nil, nil, err
	}

	if r.Container.Has(typ) {
		instance, err := r.Container.Resolve(typ)
		return instance, typ, err
	}

	switch c := class.(type) {
	case reflect.Type:
		instance, err := r.Container.Resolve(r.Class(c))
		return instance, typ, err
	default:
		if reflect.TypeOf(class).Kind() == reflect.Ptr {
			return class, typ, nil
		}
		instance, err := r.Container.Resolve(c)
		return instance, typ, err
	}
}

// classType 返回类的身份类型并记住声明形式
func (r *Registry) classType(class any) reflect.Type {
	typ, err := di.ClassType(class)
	if err != nil {
		panic(fmt.Sprintf("annotation: %v", err))
	}

	if _, isType := class.(reflect.Type); !isType && reflect.TypeOf(class).Kind() == reflect.Func {
		r.mu.Lock()
		r.classes[typ] = class
		r.mu.Unlock()
	}
	return typ
}

func validateRoute(typ reflect.Type, method metadata.Method, handler string, params []metadata.ParamMetadata) error {
	if !method.Valid() {
		return fmt.Errorf("annotation: unsupported HTTP method %q for %v.%s", method, typ, handler)
	}

	m, ok := typ.MethodByName(handler)
	if !ok {
		return fmt.Errorf("annotation: %v has no exported method %s", typ, handler)
	}

	// 方法表达式的第一个参数是接收者
	arity := m.Type.NumIn() - 1
	for _, p := range params {
		if p.Index < 0 || p.Index >= arity {
			return fmt.Errorf("annotation: %v.%s takes %d parameters, binding index %d out of range",
				typ, handler, arity, p.Index)
		}
	}
	return nil
}
