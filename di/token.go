package di

import (
	"fmt"
	"reflect"
)

// Token 表示一个符号化的依赖令牌，按指针身份区分。
//
// 使用场景：
//   - 同一类型需要注册多个不同用途的实例（如多个数据库连接）
//   - 依赖不是某个类本身，而是一个约定的名字
//
// 示例：
//
//	var PrimaryDB = di.NewToken[*gorm.DB]("primary-db")
//	container.Register(PrimaryDB, NewPrimaryDB)
//	db, _ := di.ResolveToken(container, PrimaryDB)
//
// 字符串同样可以作为令牌使用，两者的区别在于：两个同名 Token 是不同的令牌，
// 而两个相同的字符串是同一个令牌。
type Token[T any] struct {
	name string
	typ  reflect.Type
}

// NewToken 创建一个新的 Token
func NewToken[T any](name string) *Token[T] {
	return &Token[T]{
		name: name,
		typ:  reflect.TypeOf((*T)(nil)).Elem(),
	}
}

// Name 返回 Token 的名称
func (t *Token[T]) Name() string {
	return t.name
}

// Type 返回 Token 期望解析出的类型
func (t *Token[T]) Type() reflect.Type {
	return t.typ
}

// String 返回 Token 的字符串表示
func (t *Token[T]) String() string {
	return fmt.Sprintf("Token[%s](%s)", t.typ, t.name)
}

// tokenInterface 是所有 Token[T] 的非泛型视图
type tokenInterface interface {
	Name() string
	Type() reflect.Type
}

// TypeOf 获取类型 T 的 reflect.Type（泛型辅助函数）
//
// 类的身份就是它的类型，所以 TypeOf 的结果可以直接作为令牌：
//
//	container.Register(di.TypeOf[*UserService](), NewUserService)
func TypeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// normalizeToken 把调用方传入的令牌转换为注册表的键。
// 构造函数作为令牌时，键是它的返回类型，同时返回解析出的类。
func normalizeToken(token any) (any, *class, error) {
	if token == nil {
		return nil, nil, &TokenNotRegisteredError{Token: "<nil>"}
	}

	switch t := token.(type) {
	case reflect.Type:
		return t, nil, nil
	case string:
		return t, nil, nil
	case tokenInterface:
		return t, nil, nil
	}

	typ := reflect.TypeOf(token)
	if typ.Kind() == reflect.Func {
		cls, err := analyzeFunction(reflect.ValueOf(token))
		if err != nil {
			return nil, nil, err
		}
		return cls.typ, cls, nil
	}

	if !typ.Comparable() {
		return nil, nil, &TokenNotRegisteredError{Token: displayToken(token)}
	}
	return token, nil, nil
}

// displayToken 返回令牌的展示形式，用于错误信息和日志
func displayToken(token any) string {
	switch t := token.(type) {
	case nil:
		return "<nil>"
	case reflect.Type:
		return t.String()
	case string:
		return fmt.Sprintf("%q", t)
	case fmt.Stringer:
		return t.String()
	}

	if typ := reflect.TypeOf(token); typ.Kind() == reflect.Func && typ.NumOut() > 0 {
		return typ.Out(0).String()
	}
	return fmt.Sprintf("%v", token)
}
