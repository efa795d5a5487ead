package di

import (
	"fmt"
	"reflect"
	"sort"
	"sync"
)

// Container 依赖注入容器
//
// 容器持有一张注册表（令牌 -> 注册项），并按构造函数参数的声明顺序
// 深度优先地解析依赖。未注册但可构造的类（如控制器）也能被解析，
// 这种情况下总是瞬态的，不会被缓存。
type Container struct {
	mu            sync.RWMutex
	registrations map[any]*Registration

	// classes 缓存未注册结构体类型的分析结果
	classes sync.Map
}

// NewContainer 创建一个新的空容器。
func NewContainer() *Container {
	return &Container{
		registrations: make(map[any]*Registration),
	}
}

// Register 注册依赖。同一令牌重复注册时后者覆盖前者，默认单例。
//
// token 可以是 reflect.Type、字符串、*Token[T]，也可以直接传构造函数（以返回类型为令牌）。
// impl 可以是构造函数、结构体类型（reflect.Type）或已经构建好的结构体指针。
// 实现无效属于编程错误，会 panic。
func (c *Container) Register(token any, impl any, opts ...Option) {
	if err := c.TryRegister(token, impl, opts...); err != nil {
		panic(fmt.Sprintf("di: failed to register %s: %v", displayToken(token), err))
	}
}

// TryRegister 与 Register 相同，但以错误代替 panic。
func (c *Container) TryRegister(token any, impl any, opts ...Option) error {
	options := &registerOptions{scope: ScopeSingleton}
	for _, opt := range opts {
		opt(options)
	}

	key, _, err := normalizeToken(token)
	if err != nil {
		return err
	}

	cls, err := classOf(impl)
	if err != nil {
		return err
	}
	if options.deps != nil {
		if cls, err = cls.withDeps(options.deps); err != nil {
			return err
		}
	}

	// 已构建的实例本身就是单例
	scope := options.scope
	if cls.isValue() {
		scope = ScopeSingleton
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.registrations[key] = &Registration{
		Token: key,
		Scope: scope,
		class: cls,
	}
	return nil
}

// Provide 以构造函数的返回类型为令牌注册构造函数。
//
//	container.Provide(NewUserService, di.WithTransient())
func (c *Container) Provide(ctor any, opts ...Option) {
	c.Register(ctor, ctor, opts...)
}

// Has 判断令牌是否已注册
func (c *Container) Has(token any) bool {
	key, _, err := normalizeToken(token)
	if err != nil {
		return false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.registrations[key]
	return ok
}

// Registration 返回令牌对应的注册项
func (c *Container) Registration(token any) (*Registration, bool) {
	key, _, err := normalizeToken(token)
	if err != nil {
		return nil, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	reg, ok := c.registrations[key]
	return reg, ok
}

// Registrations 返回所有注册项，按令牌展示形式排序
func (c *Container) Registrations() []*Registration {
	c.mu.RLock()
	out := make([]*Registration, 0, len(c.registrations))
	for _, reg := range c.registrations {
		out = append(out, reg)
	}
	c.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return displayToken(out[i].Token) < displayToken(out[j].Token)
	})
	return out
}

// Resolve 解析令牌并返回实例。
//
//  1. 已注册：单例且已缓存则直接返回；否则递归解析构造依赖并创建实例，单例会被缓存。
//  2. 未注册但令牌本身是可构造的类：按瞬态处理，从不缓存。
//  3. 其余情况返回 *TokenNotRegisteredError。
//
// 解析前会检查依赖图，存在环时返回 *CircularDependencyError。
func (c *Container) Resolve(token any) (any, error) {
	n, err := c.node(token)
	if err != nil {
		return nil, err
	}

	if err := newGraph(c).checkCycles(n); err != nil {
		return nil, err
	}

	return c.build(n)
}

// MustResolve 解析令牌，失败时 panic
func (c *Container) MustResolve(token any) any {
	instance, err := c.Resolve(token)
	if err != nil {
		panic(err)
	}
	return instance
}

// node 是一次解析的起点：注册项（可能为空）以及要构造的类
type node struct {
	key any
	reg *Registration
	cls *class
}

// node 按解析规则查找令牌对应的类
func (c *Container) node(token any) (node, error) {
	key, direct, err := normalizeToken(token)
	if err != nil {
		return node{}, err
	}

	c.mu.RLock()
	reg, ok := c.registrations[key]
	c.mu.RUnlock()
	if ok {
		return node{key: key, reg: reg, cls: reg.class}, nil
	}

	// 构造函数本身就是类
	if direct != nil {
		return node{key: key, cls: direct}, nil
	}

	if typ, ok := key.(reflect.Type); ok && isStructClass(typ) {
		cls, err := c.structClass(typ)
		if err != nil {
			return node{}, err
		}
		return node{key: key, cls: cls}, nil
	}

	return node{}, &TokenNotRegisteredError{Token: displayToken(token)}
}

func (c *Container) structClass(typ reflect.Type) (*class, error) {
	if cached, ok := c.classes.Load(typ); ok {
		return cached.(*class), nil
	}
	cls, err := analyzeStruct(typ)
	if err != nil {
		return nil, err
	}
	actual, _ := c.classes.LoadOrStore(typ, cls)
	return actual.(*class), nil
}
