package di

import (
	"reflect"
	"sync"
)

// Scope 定义了服务的生命周期。
type Scope int

const (
	// ScopeSingleton 每个容器只创建一个实例，首次解析后缓存。
	ScopeSingleton Scope = iota
	// ScopeTransient 每次解析都创建一个新实例。
	ScopeTransient
)

// String 返回作用域名称
func (s Scope) String() string {
	switch s {
	case ScopeSingleton:
		return "singleton"
	case ScopeTransient:
		return "transient"
	default:
		return "unknown"
	}
}

// dependency 描述类的一个依赖位置（构造函数参数或结构体字段）。
type dependency struct {
	Token    any
	Index    int    // 参数下标或字段下标
	Name     string // 字段名，构造函数参数为空
	Type     reflect.Type
	Optional bool
}

// class 是一个可构造的类：它的身份类型以及如何构造它。
type class struct {
	typ   reflect.Type
	ctor  reflect.Value // 构造函数，结构体注入时无效
	value reflect.Value // 预先构建好的实例
	deps  []dependency
}

func (c *class) isValue() bool {
	return c.value.IsValid()
}

func (c *class) isConstructor() bool {
	return c.ctor.IsValid()
}

// Registration 是注册表中的一项：令牌、实现类、作用域以及单例缓存。
type Registration struct {
	// Token 注册时使用的令牌（已规范化）
	Token any
	// Scope 生命周期
	Scope Scope

	class *class

	mu       sync.Mutex
	instance any
	built    bool
}

// Type 返回实现类的类型
func (r *Registration) Type() reflect.Type {
	return r.class.typ
}

// Instance 返回缓存的单例实例。瞬态注册或尚未解析时返回 false。
func (r *Registration) Instance() (any, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.instance, r.built
}

// String 返回注册项的展示形式
func (r *Registration) String() string {
	return displayToken(r.Token) + " => " + r.class.typ.String() + " (" + r.Scope.String() + ")"
}
