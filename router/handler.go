package router

import (
	"fmt"
	"reflect"

	"github.com/gocrud/mvc/metadata"
)

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// boundHandler 绑定到控制器实例的一个处理方法
type boundHandler struct {
	controller reflect.Type
	name       string
	method     reflect.Value
	params     []metadata.ParamMetadata
	// argc 参数数组长度，等于方法的参数个数（不小于最大声明下标 + 1）
	argc   int
	value  bool // 是否有返回值作为响应体
	errIdx int  // error 返回值的位置，-1 表示没有
}

// bind 检查处理方法的签名并生成绑定
func bind(instance any, controller reflect.Type, handler string, params []metadata.ParamMetadata) (*boundHandler, error) {
	method := reflect.ValueOf(instance).MethodByName(handler)
	if !method.IsValid() {
		return nil, &InvalidHandlerError{Controller: controller, Handler: handler, Reason: "method not found"}
	}

	mt := method.Type()
	if mt.IsVariadic() {
		return nil, &InvalidHandlerError{Controller: controller, Handler: handler, Reason: "variadic handlers are not supported"}
	}

	h := &boundHandler{
		controller: controller,
		name:       handler,
		method:     method,
		params:     params,
		argc:       mt.NumIn(),
		errIdx:     -1,
	}

	for _, p := range params {
		if p.Index < 0 || p.Index >= mt.NumIn() {
			return nil, &InvalidHandlerError{
				Controller: controller,
				Handler:    handler,
				Reason:     fmt.Sprintf("binding index %d out of range (method takes %d parameters)", p.Index, mt.NumIn()),
			}
		}
	}

	switch mt.NumOut() {
	case 0:
	case 1:
		if mt.Out(0) == errorType {
			h.errIdx = 0
		} else {
			h.value = true
		}
	case 2:
		if mt.Out(1) != errorType {
			return nil, &InvalidHandlerError{Controller: controller, Handler: handler, Reason: "second return value must be error"}
		}
		h.value = true
		h.errIdx = 1
	default:
		return nil, &InvalidHandlerError{Controller: controller, Handler: handler, Reason: "handlers return (), T, error or (T, error)"}
	}
	return h, nil
}

// handle 生成交给 Transport 的处理函数
func (h *boundHandler) handle(ctx Context, next Next) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = h.fail(fmt.Errorf("panic: %v", r))
		}
	}()

	args, err := h.arguments(ctx, next)
	if err != nil {
		return h.fail(err)
	}

	results := h.method.Call(args)
	if h.errIdx >= 0 {
		if e := results[h.errIdx]; !e.IsNil() {
			return h.fail(e.Interface().(error))
		}
	}

	if h.value {
		ctx.SetBody(results[0].Interface())
	} else {
		ctx.SetBody(nil)
	}
	return nil
}

func (h *boundHandler) fail(err error) error {
	return &HandlerExecutionError{Controller: h.controller, Handler: h.name, Err: err}
}

// arguments 按声明的下标放置参数，未绑定的位置为零值
func (h *boundHandler) arguments(ctx Context, next Next) ([]reflect.Value, error) {
	mt := h.method.Type()
	args := make([]reflect.Value, h.argc)
	for i := range args {
		args[i] = reflect.Zero(mt.In(i))
	}

	for _, p := range h.params {
		raw, err := extract(ctx, next, p)
		if err != nil {
			return nil, err
		}
		val, err := convert(raw, mt.In(p.Index))
		if err != nil {
			return nil, &ArgumentError{Index: p.Index, Want: mt.In(p.Index), Got: raw, Err: err}
		}
		args[p.Index] = val
	}
	return args, nil
}

// extract 按绑定类型从请求上下文取值
func extract(ctx Context, next Next, p metadata.ParamMetadata) (any, error) {
	switch p.Type {
	case metadata.ParamQuery:
		query := ctx.Query()
		if p.Key == "" {
			return query, nil
		}
		return query[p.Key], nil

	case metadata.ParamBody:
		body, err := ctx.ParsedBody()
		if err != nil {
			return nil, fmt.Errorf("parse body: %w", err)
		}
		if p.Key == "" {
			return body, nil
		}
		if fields, ok := body.(map[string]any); ok {
			return fields[p.Key], nil
		}
		return nil, nil

	case metadata.ParamPath:
		params := ctx.PathParams()
		if p.Key == "" {
			return params, nil
		}
		if v, ok := params[p.Key]; ok {
			return v, nil
		}
		return nil, nil

	case metadata.ParamCtx:
		return ctx, nil

	case metadata.ParamNext:
		return next, nil
	}
	return nil, fmt.Errorf("unknown binding %q", p.Type)
}
