package router

import (
	"errors"
	"fmt"
	"reflect"
)

var (
	// ErrMissingControllerMetadata 控制器没有声明元数据
	ErrMissingControllerMetadata = errors.New("missing controller metadata")
	// ErrHandlerExecution 提取参数或执行处理方法失败
	ErrHandlerExecution = errors.New("handler execution failed")
	// ErrInvalidHandler 处理方法的签名无法被调用
	ErrInvalidHandler = errors.New("invalid handler")
)

// MissingControllerMetadataError 控制器列表中的类没有控制器元数据。
// 不致命：该控制器被跳过，其余控制器照常编译。
type MissingControllerMetadataError struct {
	Controller reflect.Type
}

func (e *MissingControllerMetadataError) Error() string {
	return fmt.Sprintf("router: no controller metadata for %v", e.Controller)
}

func (e *MissingControllerMetadataError) Is(target error) bool {
	return target == ErrMissingControllerMetadata
}

// HandlerExecutionError 请求期间提取参数或执行控制器方法出错
type HandlerExecutionError struct {
	Controller reflect.Type
	Handler    string
	Err        error
}

func (e *HandlerExecutionError) Error() string {
	return fmt.Sprintf("router: %v.%s: %v", e.Controller, e.Handler, e.Err)
}

func (e *HandlerExecutionError) Unwrap() error {
	return e.Err
}

func (e *HandlerExecutionError) Is(target error) bool {
	return target == ErrHandlerExecution
}

// InvalidHandlerError 处理方法缺失或返回值形式不受支持
type InvalidHandlerError struct {
	Controller reflect.Type
	Handler    string
	Reason     string
}

func (e *InvalidHandlerError) Error() string {
	return fmt.Sprintf("router: invalid handler %v.%s: %s", e.Controller, e.Handler, e.Reason)
}

func (e *InvalidHandlerError) Is(target error) bool {
	return target == ErrInvalidHandler
}

// ArgumentError 参数值无法转换为处理方法声明的类型
type ArgumentError struct {
	Index int
	Want  reflect.Type
	Got   any
	Err   error
}

func (e *ArgumentError) Error() string {
	msg := fmt.Sprintf("argument %d: cannot use %T as %v", e.Index, e.Got, e.Want)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ArgumentError) Unwrap() error {
	return e.Err
}
