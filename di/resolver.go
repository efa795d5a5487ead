package di

import (
	"errors"
	"fmt"
	"reflect"
)

// build 按作用域获取或创建 n 的实例。
// 单例的缓存由注册项上的互斥锁保护：同一单例并发首次解析时只会构造一次。
// 环已在 checkCycles 中排除，锁沿 DAG 获取，不会死锁。
func (c *Container) build(n node) (any, error) {
	if n.reg == nil || n.reg.Scope == ScopeTransient {
		return c.instantiate(n.cls)
	}

	reg := n.reg
	reg.mu.Lock()
	defer reg.mu.Unlock()

	if reg.built {
		return reg.instance, nil
	}

	instance, err := c.instantiate(reg.class)
	if err != nil {
		return nil, err
	}
	reg.instance = instance
	reg.built = true
	return instance, nil
}

// resolveNode 解析依赖令牌，不再重复做环检测
func (c *Container) resolveNode(token any) (any, error) {
	n, err := c.node(token)
	if err != nil {
		return nil, err
	}
	return c.build(n)
}

// instantiate 创建类的新实例，依赖按声明顺序深度优先解析。
func (c *Container) instantiate(cls *class) (any, error) {
	if cls.isValue() {
		return cls.value.Interface(), nil
	}

	args, err := c.resolveDependencies(cls)
	if err != nil {
		return nil, fmt.Errorf("resolve %v: %w", cls.typ, err)
	}

	if cls.isConstructor() {
		return invokeConstructor(cls, args)
	}
	return createStruct(cls, args), nil
}

// resolveDependencies 返回与 cls.deps 一一对应的值
func (c *Container) resolveDependencies(cls *class) ([]reflect.Value, error) {
	values := make([]reflect.Value, len(cls.deps))
	for i, dep := range cls.deps {
		instance, err := c.resolveNode(dep.Token)
		if err != nil {
			if dep.Optional && errors.Is(err, ErrTokenNotRegistered) {
				values[i] = reflect.Zero(dep.Type)
				continue
			}
			return nil, fmt.Errorf("%s: %w", dep.describe(), err)
		}

		val, err := assignable(instance, dep)
		if err != nil {
			return nil, err
		}
		values[i] = val
	}
	return values, nil
}

// assignable 检查解析出的实例能否放进依赖位置
func assignable(instance any, dep dependency) (reflect.Value, error) {
	if instance == nil {
		return reflect.Zero(dep.Type), nil
	}
	val := reflect.ValueOf(instance)
	if !val.Type().AssignableTo(dep.Type) {
		return reflect.Value{}, fmt.Errorf("%s: resolved %v is not assignable to %v", dep.describe(), val.Type(), dep.Type)
	}
	return val, nil
}

// createStruct 实例化结构体并注入标记为 `di` 的字段。
func createStruct(cls *class, args []reflect.Value) any {
	implType := cls.typ

	var ptr reflect.Value
	if implType.Kind() == reflect.Ptr {
		ptr = reflect.New(implType.Elem())
	} else {
		ptr = reflect.New(implType)
	}

	structVal := ptr.Elem()
	for i, dep := range cls.deps {
		structVal.Field(dep.Index).Set(args[i])
	}

	if implType.Kind() == reflect.Ptr {
		return ptr.Interface()
	}
	return structVal.Interface()
}
