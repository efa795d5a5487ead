package di

import (
	"fmt"
	"reflect"
)

// Register 以类型 T 为令牌注册实现。
// impl 为空时 T 本身必须是结构体或结构体指针，按字段注入构造。
//
//	di.Register[*UserService](c, NewUserService)
//	di.Register[Notifier](c, NewMailNotifier, di.WithTransient())
func Register[T any](c *Container, impl any, opts ...Option) {
	if impl == nil {
		impl = TypeOf[T]()
	}
	c.Register(TypeOf[T](), impl, opts...)
}

// Resolve 以类型 T 为令牌解析实例。
func Resolve[T any](c *Container) (T, error) {
	return resolveAs[T](c, TypeOf[T]())
}

// ResolveToken 解析符号令牌。
func ResolveToken[T any](c *Container, token *Token[T]) (T, error) {
	return resolveAs[T](c, token)
}

// ResolveNamed 解析字符串令牌并断言为 T。
func ResolveNamed[T any](c *Container, name string) (T, error) {
	return resolveAs[T](c, name)
}

// MustResolve 解析类型 T，失败时 panic
func MustResolve[T any](c *Container) T {
	v, err := Resolve[T](c)
	if err != nil {
		panic(err)
	}
	return v
}

func resolveAs[T any](c *Container, token any) (T, error) {
	var zero T

	val, err := c.Resolve(token)
	if err != nil {
		return zero, err
	}
	if val == nil {
		return zero, nil
	}

	if v, ok := val.(T); ok {
		return v, nil
	}
	return zero, fmt.Errorf("di: resolved value is %T, expected %v", val, TypeOf[T]())
}

// ClassType 返回类的身份类型：构造函数的返回类型、reflect.Type 本身或实例的类型。
func ClassType(target any) (reflect.Type, error) {
	if t, ok := target.(reflect.Type); ok {
		return t, nil
	}
	cls, err := classOf(target)
	if err != nil {
		return nil, err
	}
	return cls.typ, nil
}
