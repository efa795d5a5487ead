package di

import (
	"errors"
	"reflect"
)

var errNilInstance = errors.New("constructor returned nil instance")

// invokeConstructor 调用构造函数，检查最后一个 error 返回值
func invokeConstructor(cls *class, args []reflect.Value) (any, error) {
	results := cls.ctor.Call(args)

	if len(results) == 2 {
		if last := results[1]; !last.IsNil() {
			return nil, &ConstructorError{Class: cls.typ, Err: last.Interface().(error)}
		}
	}

	first := results[0]
	switch first.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		if first.IsNil() {
			return nil, &ConstructorError{Class: cls.typ, Err: errNilInstance}
		}
	}
	return first.Interface(), nil
}
