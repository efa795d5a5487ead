package di

import (
	"fmt"
	"reflect"
	"strings"
)

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// classOf 把注册时传入的实现转换为类。
//
// 支持的实现形式:
// 1. func(...) T 或 func(...) (T, error) -> 构造函数，依赖为参数类型
// 2. reflect.Type（结构体或结构体指针）    -> 结构体注入，依赖为带 `di` 标签的字段
// 3. *Struct 实例                          -> 已构建好的实例，无依赖
func classOf(impl any) (*class, error) {
	if impl == nil {
		return nil, &InvalidClassError{Target: "<nil>", Reason: "implementation is nil"}
	}

	if typ, ok := impl.(reflect.Type); ok {
		return analyzeStruct(typ)
	}

	val := reflect.ValueOf(impl)
	switch val.Kind() {
	case reflect.Func:
		return analyzeFunction(val)
	case reflect.Ptr:
		if val.IsNil() {
			return nil, &InvalidClassError{Target: val.Type().String(), Reason: "implementation is a nil pointer"}
		}
		return &class{typ: val.Type(), value: val}, nil
	}

	return nil, &InvalidClassError{
		Target: fmt.Sprintf("%T", impl),
		Reason: "expected a constructor function, a struct type or a struct pointer",
	}
}

// analyzeFunction 从构造函数的签名中读取依赖令牌。
func analyzeFunction(fn reflect.Value) (*class, error) {
	fnType := fn.Type()
	if fn.IsNil() {
		return nil, &InvalidClassError{Target: fnType.String(), Reason: "constructor is nil"}
	}
	if fnType.IsVariadic() {
		return nil, &InvalidClassError{Target: fnType.String(), Reason: "variadic constructors are not supported"}
	}

	switch fnType.NumOut() {
	case 1:
	case 2:
		if fnType.Out(1) != errorType {
			return nil, &InvalidClassError{Target: fnType.String(), Reason: "second return value must be error"}
		}
	default:
		return nil, &InvalidClassError{Target: fnType.String(), Reason: "constructor must return T or (T, error)"}
	}

	cls := &class{
		typ:  fnType.Out(0),
		ctor: fn,
		deps: make([]dependency, 0, fnType.NumIn()),
	}
	for i := 0; i < fnType.NumIn(); i++ {
		argType := fnType.In(i)
		cls.deps = append(cls.deps, dependency{
			Token: argType,
			Index: i,
			Type:  argType,
		})
	}
	return cls, nil
}

// analyzeStruct 读取结构体中带 `di` 标签的字段，按声明顺序作为依赖。
//
// 标签格式: `di:"name,optional"`
//   - name 为空时按字段类型注入，否则注入字符串令牌 name
//   - optional（或 ?）表示依赖不存在时保留零值
func analyzeStruct(typ reflect.Type) (*class, error) {
	structType := typ
	if structType.Kind() == reflect.Ptr {
		structType = structType.Elem()
	}
	if structType.Kind() != reflect.Struct {
		return nil, &InvalidClassError{Target: typ.String(), Reason: "type is not a struct or struct pointer"}
	}

	cls := &class{typ: typ}
	for i := 0; i < structType.NumField(); i++ {
		field := structType.Field(i)
		tagValue, hasTag := field.Tag.Lookup("di")
		if !hasTag {
			continue
		}
		if !field.IsExported() {
			return nil, &InvalidClassError{
				Target: typ.String(),
				Reason: fmt.Sprintf("field %s is tagged for injection but unexported", field.Name),
			}
		}

		parts := strings.Split(tagValue, ",")
		name := strings.TrimSpace(parts[0])
		optional := false

		// "di:?" 与 "di:optional" 只表示可选
		if name == "?" || name == "optional" {
			name = ""
			optional = true
		}
		for _, part := range parts[1:] {
			part = strings.TrimSpace(part)
			if part == "optional" || part == "?" {
				optional = true
			}
		}

		var token any = field.Type
		if name != "" {
			token = name
		}

		cls.deps = append(cls.deps, dependency{
			Token:    token,
			Index:    i,
			Name:     field.Name,
			Type:     field.Type,
			Optional: optional,
		})
	}
	return cls, nil
}

// isStructClass 判断一个未注册的类型能否直接作为类构造
func isStructClass(typ reflect.Type) bool {
	if typ.Kind() == reflect.Ptr {
		typ = typ.Elem()
	}
	return typ.Kind() == reflect.Struct
}

// withDeps 用显式声明的令牌覆盖构造函数的依赖
func (c *class) withDeps(tokens []any) (*class, error) {
	if !c.isConstructor() {
		return nil, &InvalidClassError{Target: c.typ.String(), Reason: "explicit dependencies require a constructor"}
	}
	if len(tokens) != len(c.deps) {
		return nil, &InvalidClassError{
			Target: c.typ.String(),
			Reason: fmt.Sprintf("constructor takes %d parameters, %d dependency tokens given", len(c.deps), len(tokens)),
		}
	}

	out := &class{typ: c.typ, ctor: c.ctor, deps: make([]dependency, len(c.deps))}
	copy(out.deps, c.deps)
	for i, token := range tokens {
		if token != nil {
			out.deps[i].Token = token
		}
	}
	return out, nil
}

// describe 返回依赖位置的描述，用于包装错误
func (d dependency) describe() string {
	if d.Name != "" {
		return fmt.Sprintf("field %s (%s)", d.Name, displayToken(d.Token))
	}
	return fmt.Sprintf("parameter %d (%s)", d.Index, displayToken(d.Token))
}
