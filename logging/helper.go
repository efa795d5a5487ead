package logging

import "errors"

// NewLogger 创建一个默认的控制台 Logger（便于测试使用）
func NewLogger() Logger {
	factory, _ := NewConsoleFactory("", "")
	return factory.CreateLogger("default")
}

// NewConsoleFactory 按配置中的级别和格式创建控制台日志工厂。
// 无法识别的取值回退到 Info 级别和文本格式，工厂仍然可用，同时返回错误。
func NewConsoleFactory(level, format string) (LoggerFactory, error) {
	builder := NewLoggingBuilder()

	lvl, levelErr := ParseLogLevel(level)
	builder.SetMinimumLevel(lvl)
	formatErr := builder.UseFormat(format)
	builder.AddConsole()

	return builder.Build(), errors.Join(levelErr, formatErr)
}
