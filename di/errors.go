package di

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
)

var (
	// ErrTokenNotRegistered 令牌既未注册也不是可构造的类
	ErrTokenNotRegistered = errors.New("token not registered")
	// ErrCircularDependency 构造函数依赖形成环
	ErrCircularDependency = errors.New("circular dependency")
	// ErrInvalidClass 实现既不是构造函数也不是结构体
	ErrInvalidClass = errors.New("invalid class")
)

var (
	_ error = (*TokenNotRegisteredError)(nil)
	_ error = (*CircularDependencyError)(nil)
	_ error = (*ConstructorError)(nil)
	_ error = (*InvalidClassError)(nil)
)

// TokenNotRegisteredError 解析的令牌既不在注册表中，也不是可构造的类。
// 这是配置错误，重试不会成功。
type TokenNotRegisteredError struct {
	Token string
}

func (e *TokenNotRegisteredError) Error() string {
	return fmt.Sprintf("di: token not registered: %s", e.Token)
}

func (e *TokenNotRegisteredError) Is(target error) bool {
	return target == ErrTokenNotRegistered
}

// CircularDependencyError 依赖图中存在环，Path 首尾是同一个令牌。
type CircularDependencyError struct {
	Path []string
}

func (e *CircularDependencyError) Error() string {
	return fmt.Sprintf("di: circular dependency: %s", strings.Join(e.Path, " -> "))
}

func (e *CircularDependencyError) Is(target error) bool {
	return target == ErrCircularDependency
}

// ConstructorError 构造函数返回了错误。
type ConstructorError struct {
	Class reflect.Type
	Err   error
}

func (e *ConstructorError) Error() string {
	return fmt.Sprintf("di: constructor of %v failed: %v", e.Class, e.Err)
}

func (e *ConstructorError) Unwrap() error {
	return e.Err
}

// InvalidClassError 无法把实现当作类使用。
type InvalidClassError struct {
	Target string
	Reason string
}

func (e *InvalidClassError) Error() string {
	return fmt.Sprintf("di: invalid class %s: %s", e.Target, e.Reason)
}

func (e *InvalidClassError) Is(target error) bool {
	return target == ErrInvalidClass
}
