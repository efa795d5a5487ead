package logging

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// entryWriter 接收格式化前的日志条目
type entryWriter interface {
	WriteLog(entry *LogEntry)
}

// syncEntryWriter 同步格式化并写出，多个 Logger 共享同一把锁
type syncEntryWriter struct {
	out       io.Writer
	formatter Formatter
	mu        sync.Mutex
}

func (w *syncEntryWriter) WriteLog(entry *LogEntry) {
	data, err := w.formatter.Format(entry)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logging: format error: %v\n", err)
		return
	}
	if len(data) == 0 || data[len(data)-1] != '\n' {
		data = append(data, '\n')
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	_, _ = w.out.Write(data)
}

// writerLogger 控制台与文件日志共用的实现
type writerLogger struct {
	category string
	writer   entryWriter
	level    func() LogLevel
	fields   []Field
}

func (l *writerLogger) Trace(msg string, fields ...Field) {
	l.Log(LogLevelTrace, msg, fields...)
}

func (l *writerLogger) Debug(msg string, fields ...Field) {
	l.Log(LogLevelDebug, msg, fields...)
}

func (l *writerLogger) Info(msg string, fields ...Field) {
	l.Log(LogLevelInfo, msg, fields...)
}

func (l *writerLogger) Warn(msg string, fields ...Field) {
	l.Log(LogLevelWarn, msg, fields...)
}

func (l *writerLogger) Error(msg string, fields ...Field) {
	l.Log(LogLevelError, msg, fields...)
}

func (l *writerLogger) Fatal(msg string, fields ...Field) {
	l.Log(LogLevelFatal, msg, fields...)
	os.Exit(1)
}

func (l *writerLogger) Log(level LogLevel, msg string, fields ...Field) {
	if level < l.level() {
		return
	}
	l.writer.WriteLog(&LogEntry{
		Time:     time.Now(),
		Level:    level,
		Category: l.category,
		Message:  msg,
		Fields:   mergeFields(l.fields, fields),
	})
}

func (l *writerLogger) WithFields(fields ...Field) Logger {
	return &writerLogger{
		category: l.category,
		writer:   l.writer,
		level:    l.level,
		fields:   mergeFields(l.fields, fields),
	}
}

func (l *writerLogger) WithCategory(category string) Logger {
	return &writerLogger{
		category: category,
		writer:   l.writer,
		level:    l.level,
		fields:   l.fields,
	}
}

// levelHolder 提供者的最小级别，修改后对已创建的 Logger 立即生效
type levelHolder struct {
	mu    sync.RWMutex
	level LogLevel
}

func (h *levelHolder) get() LogLevel {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.level
}

func (h *levelHolder) set(level LogLevel) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.level = level
}

// ConsoleLoggerOptions 控制台日志选项
type ConsoleLoggerOptions struct {
	IncludeTimestamp bool
	TimestampFormat  string
	ColorOutput      bool
	Output           io.Writer
	// Formatter 为空时使用 TextFormatter
	Formatter Formatter
}

// ConsoleLoggerProvider 控制台日志提供者
type ConsoleLoggerProvider struct {
	writer *syncEntryWriter
	level  levelHolder
}

// NewConsoleLoggerProvider 创建控制台日志提供者
func NewConsoleLoggerProvider(options ConsoleLoggerOptions) *ConsoleLoggerProvider {
	if options.Output == nil {
		options.Output = os.Stdout
	}
	formatter := options.Formatter
	if formatter == nil {
		formatter = &TextFormatter{
			IncludeTimestamp: options.IncludeTimestamp,
			TimestampFormat:  options.TimestampFormat,
			ColorOutput:      options.ColorOutput,
		}
	}

	p := &ConsoleLoggerProvider{
		writer: &syncEntryWriter{out: options.Output, formatter: formatter},
	}
	p.level.set(LogLevelInfo)
	return p
}

func (p *ConsoleLoggerProvider) CreateLogger(category string) Logger {
	return &writerLogger{category: category, writer: p.writer, level: p.level.get}
}

func (p *ConsoleLoggerProvider) SetMinimumLevel(level LogLevel) {
	p.level.set(level)
}

// FileLoggerOptions 文件日志选项
type FileLoggerOptions struct {
	Path string
	// BufferSize 异步写入队列长度
	BufferSize int
	// Formatter 为空时使用不带颜色的 TextFormatter
	Formatter Formatter
}

// FileLoggerProvider 文件日志提供者，经 AsyncWriter 异步写入
type FileLoggerProvider struct {
	options FileLoggerOptions
	level   levelHolder

	mu     sync.Mutex
	file   *os.File
	writer *AsyncWriter
}

// NewFileLoggerProvider 创建文件日志提供者，文件在首次创建 Logger 时打开
func NewFileLoggerProvider(options FileLoggerOptions) *FileLoggerProvider {
	if options.BufferSize <= 0 {
		options.BufferSize = 1024
	}
	if options.Formatter == nil {
		options.Formatter = NewTextFormatter()
	}
	p := &FileLoggerProvider{options: options}
	p.level.set(LogLevelInfo)
	return p
}

func (p *FileLoggerProvider) CreateLogger(category string) Logger {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.writer == nil {
		file, err := os.OpenFile(p.options.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open log file: %v\n", err)
			fallback := &syncEntryWriter{out: os.Stderr, formatter: p.options.Formatter}
			return &writerLogger{category: category, writer: fallback, level: p.level.get}
		}
		p.file = file
		p.writer = NewAsyncWriter(file, p.options.Formatter, p.options.BufferSize)
	}

	return &writerLogger{category: category, writer: p.writer, level: p.level.get}
}

func (p *FileLoggerProvider) SetMinimumLevel(level LogLevel) {
	p.level.set(level)
}

// Close 刷新队列并关闭文件
func (p *FileLoggerProvider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.writer == nil {
		return nil
	}
	_ = p.writer.Close()
	p.writer = nil
	return p.file.Close()
}
