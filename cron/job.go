package cron

import (
	"context"
	"fmt"
	"reflect"

	"github.com/gocrud/mvc/annotation"
	"github.com/gocrud/mvc/di"
)

var (
	errorType   = reflect.TypeOf((*error)(nil)).Elem()
	contextType = reflect.TypeOf((*context.Context)(nil)).Elem()
)

// job 任务定义，class 非空时为方法任务，否则为函数任务
type job struct {
	name   string
	spec   string
	class  any
	method string
	fn     reflect.Value
}

func newMethodJob(name, spec string, class any, method string) (*job, error) {
	typ, err := di.ClassType(class)
	if err != nil {
		return nil, fmt.Errorf("cron: job '%s': %w", name, err)
	}
	m, ok := typ.MethodByName(method)
	if !ok {
		return nil, fmt.Errorf("cron: job '%s': %v has no exported method %s", name, typ, method)
	}
	// 方法表达式的第一个参数是接收者
	if err := checkJobSignature(m.Type, 1); err != nil {
		return nil, fmt.Errorf("cron: job '%s': %v.%s %w", name, typ, method, err)
	}
	return &job{name: name, spec: spec, class: class, method: method}, nil
}

func newFuncJob(name, spec string, fn any) (*job, error) {
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func || v.IsNil() {
		return nil, fmt.Errorf("cron: job '%s': handler must be a function, got %T", name, fn)
	}
	if v.Type().IsVariadic() {
		return nil, fmt.Errorf("cron: job '%s': variadic handlers are not supported", name)
	}
	if err := checkResults(v.Type()); err != nil {
		return nil, fmt.Errorf("cron: job '%s': handler %w", name, err)
	}
	return &job{name: name, spec: spec, fn: v}, nil
}

// checkJobSignature 方法任务只接受可选的 context.Context 参数
func checkJobSignature(t reflect.Type, skip int) error {
	switch t.NumIn() - skip {
	case 0:
	case 1:
		if t.In(skip) != contextType {
			return fmt.Errorf("must take no parameters or a context.Context")
		}
	default:
		return fmt.Errorf("must take no parameters or a context.Context")
	}
	return checkResults(t)
}

func checkResults(t reflect.Type) error {
	switch t.NumOut() {
	case 0:
		return nil
	case 1:
		if t.Out(0) == errorType {
			return nil
		}
	}
	return fmt.Errorf("must return nothing or an error")
}

// resolve 解析任务的执行体。方法任务解析一次实例，函数任务的参数在每次执行时解析，
// 这样瞬态依赖每次都是新的实例。
func (j *job) resolve(registry *annotation.Registry) (func(context.Context) error, error) {
	if j.class != nil {
		instance, _, err := registry.Resolve(j.class)
		if err != nil {
			return nil, err
		}
		return invoker(reflect.ValueOf(instance).MethodByName(j.method), nil), nil
	}

	t := j.fn.Type()
	for i := 0; i < t.NumIn(); i++ {
		if in := t.In(i); in != contextType && !registry.Container.Has(in) {
			if _, err := registry.Container.Resolve(in); err != nil {
				return nil, fmt.Errorf("parameter %d (%v): %w", i, in, err)
			}
		}
	}
	return invoker(j.fn, registry.Container), nil
}

// invoker 包装反射调用，container 为空时只注入 context
func invoker(fn reflect.Value, container *di.Container) func(context.Context) error {
	t := fn.Type()
	return func(ctx context.Context) error {
		args := make([]reflect.Value, t.NumIn())
		for i := range args {
			in := t.In(i)
			if in == contextType {
				args[i] = reflect.ValueOf(ctx)
				continue
			}
			instance, err := container.Resolve(in)
			if err != nil {
				return fmt.Errorf("parameter %d (%v): %w", i, in, err)
			}
			if instance == nil {
				args[i] = reflect.Zero(in)
				continue
			}
			args[i] = reflect.ValueOf(instance)
		}

		results := fn.Call(args)
		if len(results) == 1 && !results[0].IsNil() {
			return results[0].Interface().(error)
		}
		return nil
	}
}
