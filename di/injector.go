package di

// defaultContainer 进程级的全局容器，由 annotation 包的包级声明函数使用
var defaultContainer = NewContainer()

// Default 返回进程级的全局容器
func Default() *Container {
	return defaultContainer
}

// Inject 从全局容器中注入类型T的实例，失败时 panic
// 支持两种用法：
// 1. di.Inject[T]() - 按类型注入
// 2. di.Inject[T](token) - 按令牌注入（字符串或 *Token[T]）
func Inject[T any](tokenOrNil ...any) T {
	instance, err := TryInject[T](tokenOrNil...)
	if err != nil {
		panic("di.Inject failed: " + err.Error())
	}
	return instance
}

// TryInject 从全局容器中注入实例，返回实例和错误
func TryInject[T any](tokenOrNil ...any) (T, error) {
	if len(tokenOrNil) > 0 && tokenOrNil[0] != nil {
		return resolveAs[T](defaultContainer, tokenOrNil[0])
	}
	return resolveAs[T](defaultContainer, TypeOf[T]())
}

// InjectOrDefault 从全局容器中注入实例，如果不存在则返回默认值
func InjectOrDefault[T any](defaultValue T, tokenOrNil ...any) T {
	instance, err := TryInject[T](tokenOrNil...)
	if err != nil {
		return defaultValue
	}
	return instance
}
